package config

import (
	"context"
	"os"

	"github.com/resend/resend-go/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ResendConfig struct {
	APIKey string
	From   string
}

func NewResendConfig(log *zap.Logger) *ResendConfig {
	apiKey := os.Getenv("RESEND_API_KEY")
	fromEmail := os.Getenv("FROM_EMAIL")
	if apiKey == "" || fromEmail == "" {
		log.Fatal("RESEND_API_KEY and FROM_EMAIL must be set")
	}
	return &ResendConfig{APIKey: apiKey, From: fromEmail}
}

// EmailService sends transactional mail through Resend. The proof workflow uses
// it to dispatch delivery evidence to donors.
type EmailService struct {
	client *resend.Client
	from   string
	log    *zap.Logger
}

func NewEmailService(lc fx.Lifecycle, config *ResendConfig, log *zap.Logger) *EmailService {
	service := &EmailService{
		client: resend.NewClient(config.APIKey),
		from:   config.From,
		log:    log,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Email service initialized")
			return nil
		},
	})
	return service
}

func (e *EmailService) Send(to, subject, html string) error {
	_, err := e.client.Emails.Send(&resend.SendEmailRequest{
		From:    e.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return err
	}
	e.log.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

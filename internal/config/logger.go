package config

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. APP_ENV=development switches to the
// human-readable console encoder.
func NewLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

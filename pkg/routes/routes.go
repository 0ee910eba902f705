package routes

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"coswo/internal/auth"
	"coswo/internal/config"
	"coswo/internal/donation"
	"coswo/internal/proof"
	"coswo/internal/receiver"
	"coswo/internal/stats"
	"coswo/pkg/middleware"
)

var EchoModules = fx.Module("echo",
	fx.Provide(config.NewLogger),
	fx.Provide(NewEchoServer),
	fx.Provide(config.NewMongoDBConfig),
	fx.Provide(config.NewMongoDBClient),
	fx.Provide(config.NewRedisConfig),
	fx.Provide(config.NewRedisClient),
	fx.Provide(config.NewResendConfig),
	fx.Provide(config.NewEmailService),
	fx.Provide(config.NewMetrics),
	fx.Provide(auth.NewUserRepository),
	fx.Provide(auth.NewUserService),
	fx.Provide(auth.NewAuthHandler),
	fx.Provide(donation.NewMongoStore),
	fx.Provide(func(store *donation.MongoStore) donation.Store { return store }),
	fx.Provide(donation.NewService),
	fx.Provide(donation.NewDonationHandler),
	fx.Provide(receiver.NewReceiverRepository),
	fx.Provide(func(repo *receiver.ReceiverRepository) receiver.Store { return repo }),
	fx.Provide(receiver.NewReceiverService),
	fx.Provide(receiver.NewReceiverHandler),
	fx.Provide(proof.NewBlobStore),
	fx.Provide(proof.NewProofRepository),
	fx.Provide(func(repo *proof.ProofRepository) proof.Store { return repo }),
	fx.Provide(func(email *config.EmailService) proof.Mailer { return email }),
	fx.Provide(proof.NewProofService),
	fx.Provide(proof.NewProofHandler),
	fx.Provide(stats.NewStatsRepository),
	fx.Provide(func(repo *stats.StatsRepository) stats.Store { return repo }),
	fx.Provide(stats.NewCache),
	fx.Provide(stats.NewService),
	fx.Provide(stats.NewStatsHandler),
	fx.Invoke(RegisterRoutes),
)

func NewEchoServer(lc fx.Lifecycle, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	port := ":8080"
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Server starting", zap.String("addr", port))
			go func() {
				if err := e.Start(port); err != nil {
					log.Warn("Server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down the server ...")
			return e.Shutdown(ctx)
		},
	})
	return e
}

func RegisterRoutes(
	e *echo.Echo,
	metrics *config.Metrics,
	blobs *proof.BlobStore,
	authHandler *auth.AuthHandler,
	donationHandler *donation.DonationHandler,
	receiverHandler *receiver.ReceiverHandler,
	proofHandler *proof.ProofHandler,
	statsHandler *stats.StatsHandler,
) {
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.Static("/uploads", blobs.Dir())

	protected := e.Group("/api")
	protected.Use(middleware.JWTMiddleware)
	protected.Use(middleware.CasbinMiddleware)

	protected.GET("/profile", authHandler.Profile)
	protected.GET("/dashboard", statsHandler.Dashboard)

	protected.POST("/donations", donationHandler.Submit)
	protected.GET("/donations/mine", donationHandler.Mine)
	protected.GET("/donations/pending", donationHandler.Pending)
	protected.PUT("/donations/:id/approve", donationHandler.Approve)
	protected.PUT("/donations/:id/reject", donationHandler.Reject)
	protected.PUT("/donations/:id/advance", donationHandler.Advance)

	protected.GET("/donations/:id/proofs", proofHandler.List)
	protected.POST("/donations/:id/proofs", proofHandler.Upload)
	protected.PUT("/donations/:id/proofs/:proofId/select", proofHandler.Select)
	protected.POST("/donations/:id/proofs/send", proofHandler.Dispatch)

	protected.POST("/receivers", receiverHandler.Create)
	protected.PUT("/receivers/:id/verify", receiverHandler.Verify)
	protected.GET("/receivers/verified", receiverHandler.ListVerified)
}

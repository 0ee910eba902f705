package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"coswo/internal/bootstrap"
	"coswo/pkg/routes"
)

func main() {
	bootstrap.Loadenv()

	app := fx.New(
		routes.EchoModules,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	app.Run()
}

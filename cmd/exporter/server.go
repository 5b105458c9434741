package main

import (
	"github.com/coursetutor/backend/internal/deps"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(
			ExporterConfig,
			OTelConfig,
			Store,
			PrometheusMetrics,
		),
		fx.Invoke(deps.OTelSDK),
		fx.Invoke(PrometheusHTTPHandler),
	)

	app.Run()
}

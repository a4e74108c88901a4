package bootstrap

import (
	"time"

	"ui-recorder/internal/browser"
	"ui-recorder/internal/config"
	"ui-recorder/internal/console"
	"ui-recorder/internal/locator"
	"ui-recorder/internal/ports"
	"ui-recorder/internal/scenario"
	"ui-recorder/internal/usecase"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			fx.Annotate(browser.NewManager, fx.As(new(ports.BrowserManager))),
			fx.Annotate(scenario.NewFileStore, fx.As(new(ports.ScenarioStore))),
			console.NewPrompter,
			func(p *console.Prompter) ports.Prompter { return p },
			locator.NewEngine,

			usecase.NewUsecase,

			console.NewInterface,
		),

		fx.Invoke(
			// installs the global tracer provider before any service starts a span
			func(*sdktrace.TracerProvider) {},
			runConsole,
		),

		fx.StartTimeout(10*time.Second),
	)
}

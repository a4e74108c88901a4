package usecase

import (
	"ui-recorder/internal/config"
	"ui-recorder/internal/locator"
	"ui-recorder/internal/ports"
	"ui-recorder/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Recorder adapters.RecorderService
	Replay   adapters.ReplayService
	Verify   adapters.VerifyService
	Browser  adapters.BrowserService
}

type Params struct {
	fx.In

	Logger   *zap.Logger
	Config   *config.Config
	Browser  ports.BrowserManager
	Prompter ports.Prompter
	Store    ports.ScenarioStore
	Engine   *locator.Engine
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Recorder: factory.CreateRecorderService(),
		Replay:   factory.CreateReplayService(),
		Verify:   factory.CreateVerifyService(),
		Browser:  factory.CreateBrowserService(),
	}
}

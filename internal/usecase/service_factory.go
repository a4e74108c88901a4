package usecase

import (
	"ui-recorder/internal/usecase/adapters"
)

type serviceFactory struct {
	deps   Params
	runner *stepRunner
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
		runner: newStepRunner(stepRunnerParams{
			Browser:        deps.Browser,
			Engine:         deps.Engine,
			Logger:         deps.Logger,
			ScreenshotsDir: deps.Config.RecorderConfig.ScreenshotsDir,
		}),
	}
}

func (f *serviceFactory) CreateRecorderService() adapters.RecorderService {
	return NewRecorderService(RecorderServiceParams{
		Config:   f.deps.Config,
		Logger:   f.deps.Logger,
		Browser:  f.deps.Browser,
		Prompter: f.deps.Prompter,
		Store:    f.deps.Store,
		Engine:   f.deps.Engine,
		Runner:   f.runner,
	})
}

func (f *serviceFactory) CreateReplayService() adapters.ReplayService {
	return NewReplayService(ReplayServiceParams{
		Logger:  f.deps.Logger,
		Browser: f.deps.Browser,
		Store:   f.deps.Store,
		Runner:  f.runner,
	})
}

func (f *serviceFactory) CreateVerifyService() adapters.VerifyService {
	return NewVerifyService(VerifyServiceParams{
		Logger: f.deps.Logger,
		Store:  f.deps.Store,
	})
}

func (f *serviceFactory) CreateBrowserService() adapters.BrowserService {
	return f.deps.Browser
}

package adapters

import (
	"context"

	"ui-recorder/internal/entity"
)

type BrowserService interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	IsReady() bool
}

type RecorderService interface {
	Open(ctx context.Context, url string) error
	ClickByText(ctx context.Context, text string) (*entity.Step, error)
	RecordInput(ctx context.Context, name string) (*entity.Step, error)
	RecordCustom(ctx context.Context) (*entity.Step, error)
	RecordHover(ctx context.Context) (*entity.Step, error)
	RecordWindowSwitch(ctx context.Context) (*entity.Step, error)

	BeginBusiness(ctx context.Context, requirement string) error
	StartRequirement(ctx context.Context, requirement string) error
	HasRequirement(requirement string) bool
	InPreconditions() bool
	CurrentRequirement() string

	Preconditions() []entity.Step
	Steps() []entity.Step
	Grouped() []entity.RequirementSteps
	RemoveStep(ctx context.Context, index int) (*entity.Step, error)

	Save(ctx context.Context) (*entity.Scenario, error)
	Resume(ctx context.Context) (*entity.Scenario, error)
	SavePage(ctx context.Context, path string) error
}

type ReplayService interface {
	Run(ctx context.Context) (*entity.RunReport, error)
	RunScenario(ctx context.Context, scenario *entity.Scenario) (*entity.RunReport, error)
}

type VerifyService interface {
	Verify(ctx context.Context, htmlPath string) (*entity.RunReport, error)
}

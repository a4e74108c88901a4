package usecase

import (
	"context"
	"errors"
	"time"

	"ui-recorder/internal/entity"
	"ui-recorder/internal/ports"
	"ui-recorder/pkg/apperr"
	"ui-recorder/pkg/logg"
	"ui-recorder/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	replayServiceName = "ReplayService"
	replayTracer      = "usecase.replay"
)

// ReplayService runs a saved scenario against the live browser. Every requirement
// starts from the start URL with the preconditions replayed in front of it.
type ReplayService struct {
	logger  *zap.Logger
	tracer  trace.Tracer
	browser ports.BrowserManager
	store   ports.ScenarioStore
	runner  *stepRunner
	now     func() time.Time
}

type ReplayServiceParams struct {
	fx.In

	Logger  *zap.Logger
	Browser ports.BrowserManager
	Store   ports.ScenarioStore
	Runner  *stepRunner
}

func NewReplayService(params ReplayServiceParams) *ReplayService {
	return &ReplayService{
		logger:  params.Logger.With(zap.String(logg.Layer, replayServiceName)),
		tracer:  otel.Tracer(replayTracer),
		browser: params.Browser,
		store:   params.Store,
		runner:  params.Runner,
		now:     time.Now,
	}
}

// Run replays the scenario in the store.
func (s *ReplayService) Run(ctx context.Context) (*entity.RunReport, error) {
	sc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	return s.RunScenario(ctx, sc)
}

func (s *ReplayService) RunScenario(ctx context.Context, sc *entity.Scenario) (report *entity.RunReport, err error) {
	const op = "RunScenario"
	runID := uuid.NewString()
	logger := s.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.RunID, runID),
		zap.String(logg.URL, sc.StartURL))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("run_id", runID),
		attribute.Int("requirements", len(sc.Requirements)))
	defer func() {
		step.End(err)
	}()

	if sc.StartURL == "" {
		return nil, apperr.InvalidReqError(op, "start_url", errors.New("scenario has no start url"))
	}

	if !s.browser.IsReady() {
		if err = s.browser.Launch(ctx); err != nil {
			return nil, err
		}
	}

	report = &entity.RunReport{
		RunID:     runID,
		Source:    sc.StartURL,
		StartedAt: s.now(),
	}

	groups := sc.Requirements
	if len(groups) == 0 {
		// preconditions only
		groups = []entity.RequirementSteps{{}}
	}

	for _, group := range groups {
		if err = s.runRequirement(ctx, sc, group, report); err != nil {
			return report, err
		}
	}

	report.FinishedAt = s.now()

	logger.Info("Replay finished",
		zap.Int("steps", len(report.Steps)),
		zap.Int("failed", report.Failed()),
		zap.Int("fallback_used", report.FallbackUsed()),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	return report, nil
}

// runRequirement stops at the first failed step of the requirement; later steps
// depend on the state it should have produced.
func (s *ReplayService) runRequirement(ctx context.Context, sc *entity.Scenario, group entity.RequirementSteps, report *entity.RunReport) error {
	logger := s.logger.With(zap.String(logg.Requirement, group.Requirement))

	if err := s.browser.Navigate(ctx, sc.StartURL); err != nil {
		report.Steps = append(report.Steps, entity.StepReport{
			Requirement: group.Requirement,
			Name:        "open start url",
			Err:         err,
		})
		logger.Warn("Start URL failed, skipping requirement", zap.Error(err))

		return ctx.Err()
	}

	steps := make([]entity.Step, 0, len(sc.Preconditions)+len(group.Steps))
	steps = append(steps, sc.Preconditions...)
	steps = append(steps, group.Steps...)

	for _, st := range steps {
		res, err := s.runner.Run(ctx, st, true)
		if err != nil {
			return err
		}

		res.Requirement = group.Requirement
		report.Steps = append(report.Steps, res)

		if !res.Passed() {
			logger.Warn("Requirement aborted", zap.String(logg.StepID, st.ID))

			return nil
		}
	}

	return nil
}

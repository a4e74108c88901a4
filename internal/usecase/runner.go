package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"ui-recorder/internal/entity"
	"ui-recorder/internal/locator"
	"ui-recorder/internal/ports"
	"ui-recorder/pkg/apperr"
	"ui-recorder/pkg/logg"
	"ui-recorder/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	stepRunnerName   = "StepRunner"
	stepRunnerTracer = "usecase.runner"
	screenshotLayout = "20060102_150405"
)

// stepRunner executes recorded steps against the live browser. It is shared by the
// replay service and by the recorder, which replays preconditions for each new
// requirement.
type stepRunner struct {
	browser        ports.BrowserManager
	engine         *locator.Engine
	resolver       *locator.Resolver[ports.Element]
	screenshotsDir string
	now            func() time.Time
	logger         *zap.Logger
	tracer         trace.Tracer
}

type stepRunnerParams struct {
	Browser        ports.BrowserManager
	Engine         *locator.Engine
	Logger         *zap.Logger
	ScreenshotsDir string
}

func newStepRunner(params stepRunnerParams) *stepRunner {
	return &stepRunner{
		browser:        params.Browser,
		engine:         params.Engine,
		resolver:       locator.NewResolver[ports.Element](params.Browser, params.Logger),
		screenshotsDir: params.ScreenshotsDir,
		now:            time.Now,
		logger:         params.Logger.With(zap.String(logg.Layer, stepRunnerName)),
		tracer:         otel.Tracer(stepRunnerTracer),
	}
}

// Run resolves and performs one step. Step failures land in the report; the error is
// non-nil only when ctx is done.
func (r *stepRunner) Run(ctx context.Context, s entity.Step, screenshot bool) (report entity.StepReport, err error) {
	const op = "RunStep"
	logger := r.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.StepID, s.ID),
		zap.String(logg.Action, string(s.Action)))

	ctx, span := tracing.StartSpan(ctx, r.tracer, logger, op,
		attribute.String("step_id", s.ID),
		attribute.String("action", string(s.Action)))
	defer func() {
		span.End(report.Err)
	}()

	report = entity.StepReport{
		StepID:      s.ID,
		Requirement: s.Requirement,
		Action:      s.Action,
		Name:        s.Name,
	}

	report.Err = r.perform(ctx, s, &report)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, ctxErr
	}

	if report.Err != nil {
		logger.Warn("Step failed", zap.Error(report.Err))
	} else {
		logger.Info("Step passed", zap.String(logg.Selector, report.Matched.String()))
	}

	if screenshot {
		path := filepath.Join(r.screenshotsDir, fmt.Sprintf("%s_%s.png", r.now().Format(screenshotLayout), s.ID))
		if shotErr := r.browser.Screenshot(ctx, path); shotErr != nil {
			logger.Warn("Screenshot failed", zap.Error(shotErr))
		} else {
			report.Screenshot = path
		}
	}

	return report, nil
}

func (r *stepRunner) perform(ctx context.Context, s entity.Step, report *entity.StepReport) error {
	const op = "perform"

	if s.Action == entity.ActionWindowSwitch {
		return r.browser.SwitchToPage(ctx, s.WindowIndex)
	}

	res, err := r.resolver.Resolve(ctx, s.Locators, r.engine.Timeouts(s.Action))
	report.Attempts = res.Attempts
	report.Matched = res.Locator

	if err != nil {
		return err
	}

	switch s.Action {
	case entity.ActionClick:
		before, err := r.pageCount(ctx)
		if err != nil {
			return err
		}

		if err := r.browser.Click(ctx, res.Element); err != nil {
			return err
		}

		_, err = r.browser.FollowNewPage(ctx, before)

		return err
	case entity.ActionInput:
		return r.browser.Fill(ctx, res.Element, s.Input)
	case entity.ActionHover:
		return r.browser.Hover(ctx, res.Element)
	}

	return apperr.Wrap(op, apperr.CodeInvalidArgument, fmt.Errorf("unsupported action %q", s.Action), map[string]any{
		apperr.MetaStepID: s.ID,
		apperr.MetaStage:  apperr.StageReplay,
	})
}

func (r *stepRunner) pageCount(ctx context.Context) (int, error) {
	pages, err := r.browser.Pages(ctx)
	if err != nil {
		return 0, err
	}

	return len(pages), nil
}

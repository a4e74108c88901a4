package usecase

import (
	"context"
	"time"

	"ui-recorder/internal/entity"
	"ui-recorder/internal/htmldoc"
	"ui-recorder/internal/locator"
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
	"golang.org/x/net/html"
)

const (
	verifyServiceName = "VerifyService"
	verifyTracer      = "usecase.verify"
)

// offline documents never change, so one probe per locator is enough
var snapshotTimeouts = locator.Timeouts{PollInterval: time.Millisecond}

// VerifyService checks a saved scenario's locators against an HTML snapshot without a
// browser. Every step is resolved independently; nothing is clicked.
type VerifyService struct {
	logger *zap.Logger
	tracer trace.Tracer
	store  ports.ScenarioStore
	now    func() time.Time
}

type VerifyServiceParams struct {
	fx.In

	Logger *zap.Logger
	Store  ports.ScenarioStore
}

func NewVerifyService(params VerifyServiceParams) *VerifyService {
	return &VerifyService{
		logger: params.Logger.With(zap.String(logg.Layer, verifyServiceName)),
		tracer: otel.Tracer(verifyTracer),
		store:  params.Store,
		now:    time.Now,
	}
}

func (s *VerifyService) Verify(ctx context.Context, htmlPath string) (report *entity.RunReport, err error) {
	const op = "Verify"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String("path", htmlPath))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("path", htmlPath))
	defer func() {
		step.End(err)
	}()

	sc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := htmldoc.Load(htmlPath)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "snapshot_unreadable",
			apperr.MetaPath:   htmlPath,
		})
	}

	return s.VerifyDocument(ctx, sc, doc, htmlPath)
}

// VerifyDocument resolves every step of sc in doc. Window switches have nothing to
// resolve and pass.
func (s *VerifyService) VerifyDocument(ctx context.Context, sc *entity.Scenario, doc *htmldoc.Document, source string) (*entity.RunReport, error) {
	resolver := locator.NewResolver[*html.Node](doc, s.logger)

	report := &entity.RunReport{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: s.now(),
	}

	for _, st := range sc.Steps() {
		res := entity.StepReport{
			StepID:      st.ID,
			Requirement: st.Requirement,
			Action:      st.Action,
			Name:        st.Name,
		}

		if st.Action != entity.ActionWindowSwitch {
			resolution, err := resolver.Resolve(ctx, st.Locators, snapshotTimeouts)
			res.Attempts = resolution.Attempts
			res.Matched = resolution.Locator
			res.Err = err

			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
		}

		report.Steps = append(report.Steps, res)
	}

	report.FinishedAt = s.now()

	s.logger.Info("Verification finished",
		zap.String(logg.RunID, report.RunID),
		zap.Int("steps", len(report.Steps)),
		zap.Int("failed", report.Failed()),
		zap.Int("fallback_used", report.FallbackUsed()))

	return report, nil
}

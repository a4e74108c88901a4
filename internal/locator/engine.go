package locator

import (
	"context"
	"time"

	"ui-recorder/internal/config"
	"ui-recorder/internal/entity"
	"ui-recorder/pkg/apperr"
	"ui-recorder/pkg/logg"
	"ui-recorder/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	engineName   = "LocatorEngine"
	engineTracer = "locator.engine"
)

// Engine bundles generation and ranking with the configured rules. It is safe to share
// because it holds no mutable state.
type Engine struct {
	generator     *Generator
	rules         Rules
	maxAlternates int
	timeout       time.Duration
	pollInterval  time.Duration
	logger        *zap.Logger
	tracer        trace.Tracer
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewEngine(params Params) *Engine {
	rules := DefaultRules()
	maxAlternates := DefaultMaxAlternates
	timeout := 10 * time.Second
	poll := defaultPollInterval

	if lc := params.Config.LocatorConfig; lc != nil {
		rules = Rules{
			ContainerSuffixes: lc.ContainerSuffixes,
			ContainerKeywords: lc.ContainerKeywords,
			SkipSuffixes:      lc.SkipSuffixes,
			SkipPrefixes:      lc.SkipPrefixes,
			MaxPathDepth:      lc.MaxPathDepth,
		}

		if lc.MaxAlternates > 0 {
			maxAlternates = lc.MaxAlternates
		}

		if lc.Timeout > 0 {
			timeout = lc.Timeout
		}

		if lc.PollInterval > 0 {
			poll = lc.PollInterval
		}
	}

	return &Engine{
		generator:     NewGenerator(rules),
		rules:         rules,
		maxAlternates: maxAlternates,
		timeout:       timeout,
		pollInterval:  poll,
		logger:        params.Logger.With(zap.String(logg.Layer, engineName)),
		tracer:        otel.Tracer(engineTracer),
	}
}

// MaxPathDepth is how many ancestors a capture must include for path synthesis.
func (e *Engine) MaxPathDepth() int {
	return e.rules.maxDepth()
}

func (e *Engine) Timeouts(action entity.ActionKind) Timeouts {
	return TimeoutsFor(e.timeout, e.pollInterval, action)
}

// Candidates runs generation only.
func (e *Engine) Candidates(snapshot entity.ElementSnapshot, searchText string) []entity.Locator {
	return e.generator.Generate(snapshot, searchText)
}

// Synthesize generates and ranks locators for a captured element.
func (e *Engine) Synthesize(ctx context.Context, snapshot entity.ElementSnapshot, searchText string) (set entity.RankedLocatorSet, err error) {
	const op = "Synthesize"
	logger := e.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.SearchText, searchText))

	_, step := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.String("tag", snapshot.Tag),
		attribute.String("search_text", searchText))
	defer func() {
		step.End(err)
	}()

	cands := e.generator.Generate(snapshot, searchText)
	step.SetAttributes(attribute.Int("candidates", len(cands)))

	for i, c := range cands {
		logger.Debug("Candidate",
			zap.Int("index", i),
			zap.String(logg.LocatorKind, string(c.Kind)),
			zap.String(logg.Selector, c.Expression))
	}

	set, err = Rank(cands, e.maxAlternates)
	if err != nil {
		return set, apperr.Wrap(op, apperr.CodeNoCandidates, err, map[string]any{
			apperr.MetaReason: "empty_candidate_list",
			apperr.MetaStage:  apperr.StageGeneration,
		})
	}

	logger.Info("Locators selected",
		zap.String(logg.LocatorKind, string(set.Primary.Kind)),
		zap.String(logg.Selector, set.Primary.Expression),
		zap.Int("alternates", len(set.Alternates)))

	return set, nil
}

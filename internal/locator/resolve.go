package locator

import (
	"context"
	"errors"
	"time"

	"ui-recorder/internal/entity"
	"ui-recorder/pkg/apperr"
	"ui-recorder/pkg/logg"

	"go.uber.org/zap"
)

const defaultPollInterval = 100 * time.Millisecond

// Finder performs one non-blocking lookup of a locator in a document.
type Finder[E any] interface {
	Probe(ctx context.Context, loc entity.Locator) (E, entity.ProbeStatus, error)
}

// Timeouts is the per-locator wait budget of a resolution.
type Timeouts struct {
	Primary      time.Duration
	Alternate    time.Duration
	PollInterval time.Duration
}

// TimeoutsFor derives budgets from the base unit: the primary gets base (twice that
// for input steps, which often wait on widgets mounting), each alternate gets half of
// base whatever the action.
func TimeoutsFor(base, poll time.Duration, action entity.ActionKind) Timeouts {
	primary := base
	if action == entity.ActionInput {
		primary = 2 * base
	}

	return Timeouts{
		Primary:      primary,
		Alternate:    base / 2,
		PollInterval: poll,
	}
}

type Resolution[E any] struct {
	Element  E
	Locator  entity.Locator
	Attempts []entity.Attempt
}

// Resolver finds the live element for a recorded locator set: the primary first, then
// each alternate in recorded order, every one under its own budget and never retried.
type Resolver[E any] struct {
	finder Finder[E]
	logger *zap.Logger
}

func NewResolver[E any](finder Finder[E], logger *zap.Logger) *Resolver[E] {
	return &Resolver[E]{
		finder: finder,
		logger: logger.With(zap.String(logg.Layer, "Resolver")),
	}
}

func (r *Resolver[E]) Resolve(ctx context.Context, set entity.RankedLocatorSet, timeouts Timeouts) (res Resolution[E], err error) {
	const op = "Resolve"
	logger := r.logger.With(zap.String(logg.Operation, op))

	if set.Primary.IsZero() {
		return res, apperr.InvalidReqError(op, "primary", errors.New("locator set has no primary"))
	}

	for i, loc := range set.All() {
		budget := timeouts.Alternate
		if i == 0 {
			budget = timeouts.Primary
		}

		started := time.Now()
		element, outcome, probeErr := r.await(ctx, loc, budget, timeouts.PollInterval)
		res.Attempts = append(res.Attempts, entity.Attempt{
			Locator: loc,
			Outcome: outcome,
			Elapsed: time.Since(started),
		})

		if probeErr != nil {
			code := apperr.CodeInternal
			if errors.Is(probeErr, context.Canceled) || errors.Is(probeErr, context.DeadlineExceeded) {
				code = apperr.CodeCancelledByUser
			}

			return res, apperr.Wrap(op, code, probeErr, map[string]any{
				apperr.MetaReason:   "probe_failed",
				apperr.MetaStage:    apperr.StageResolution,
				apperr.MetaSelector: loc.String(),
			})
		}

		if outcome == entity.OutcomeFound {
			res.Element = element
			res.Locator = loc

			if i > 0 {
				logger.Info("Resolved by alternate locator",
					zap.Int("alternate", i),
					zap.String(logg.LocatorKind, string(loc.Kind)),
					zap.String(logg.Selector, loc.Expression))
			}

			return res, nil
		}

		logger.Debug("Locator exhausted",
			zap.String(logg.LocatorKind, string(loc.Kind)),
			zap.String(logg.Selector, loc.Expression),
			zap.String(logg.Outcome, string(outcome)),
			zap.Duration("budget", budget))
	}

	return res, apperr.Wrap(op, apperr.CodeElementNotFound, ErrElementNotFound, map[string]any{
		apperr.MetaReason:   "all_locators_exhausted",
		apperr.MetaStage:    apperr.StageResolution,
		apperr.MetaSelector: set.Primary.String(),
	})
}

// await polls one locator until it is found, reported invalid, or its budget runs out.
// It always probes at least once.
func (r *Resolver[E]) await(ctx context.Context, loc entity.Locator, budget, poll time.Duration) (E, entity.Outcome, error) {
	var zero E

	if poll <= 0 {
		poll = defaultPollInterval
	}

	deadline := time.Now().Add(budget)
	last := entity.ProbeAbsent

	for {
		element, status, err := r.finder.Probe(ctx, loc)
		if err != nil {
			return zero, entity.OutcomeError, err
		}

		switch status {
		case entity.ProbeFound:
			return element, entity.OutcomeFound, nil
		case entity.ProbeInvalid:
			return zero, entity.OutcomeInvalid, nil
		}

		last = status

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return zero, expiredOutcome(last), nil
		}

		timer := time.NewTimer(min(poll, remaining))

		select {
		case <-ctx.Done():
			timer.Stop()

			return zero, expiredOutcome(last), ctx.Err()
		case <-timer.C:
		}
	}
}

func expiredOutcome(last entity.ProbeStatus) entity.Outcome {
	if last == entity.ProbeStale {
		return entity.OutcomeStale
	}

	return entity.OutcomeTimeout
}

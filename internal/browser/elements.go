package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ui-recorder/internal/entity"
	"ui-recorder/internal/locator"
	"ui-recorder/internal/ports"
	"ui-recorder/pkg/apperr"
	"ui-recorder/pkg/logg"
	"ui-recorder/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const textEntrySelector = `input:not([type=hidden]):not([type=submit]):not([type=button]):not([type=checkbox]):not([type=radio]), textarea`

var errForeignHandle = errors.New("element handle does not belong to this browser")

func handleOf(el ports.Element) (playwright.ElementHandle, error) {
	h, ok := el.(playwright.ElementHandle)
	if !ok || h == nil {
		return nil, errForeignHandle
	}

	return h, nil
}

// selectorFor maps a locator onto a Playwright selector engine.
func selectorFor(loc entity.Locator) (string, bool) {
	switch loc.Kind {
	case entity.LocatorCSS:
		return "css=" + loc.Expression, true
	case entity.LocatorName:
		return "css=" + locator.NameSelector(loc.Expression), true
	case entity.LocatorXPath:
		return "xpath=" + loc.Expression, true
	case entity.LocatorLinkText:
		return "xpath=" + locator.LinkTextXPath(loc.Expression, false), true
	case entity.LocatorPartialLinkText:
		return "xpath=" + locator.LinkTextXPath(loc.Expression, true), true
	}

	return "", false
}

func textXPath(text string, exact bool) string {
	lit := locator.XPathLiteral(text)
	if exact {
		return fmt.Sprintf("//body//*[not(self::script or self::style)][text()=%s]", lit)
	}

	return fmt.Sprintf("//body//*[not(self::script or self::style)][contains(text(),%s)]", lit)
}

// FindByText returns visible elements whose own text equals, or contains, text.
func (m *Manager) FindByText(ctx context.Context, text string, exact bool) (elements []ports.Element, err error) {
	const op = "FindByText"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.SearchText, text))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op,
		attribute.String("text", text),
		attribute.Bool("exact", exact))
	defer func() {
		step.End(err)
	}()

	if err = m.checkReady(op); err != nil {
		return nil, err
	}

	elements, err = m.queryVisible("xpath=" + textXPath(text, exact))
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "query_failed",
			apperr.MetaStage:  apperr.StageRecording,
		})
	}

	logger.Debug("Text search finished", zap.Bool("exact", exact), zap.Int("matches", len(elements)))

	return elements, nil
}

// FindInputs returns visible text-entry fields on the current page.
func (m *Manager) FindInputs(ctx context.Context) (elements []ports.Element, err error) {
	const op = "FindInputs"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err = m.checkReady(op); err != nil {
		return nil, err
	}

	elements, err = m.queryVisible("css=" + textEntrySelector)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "query_failed",
			apperr.MetaStage:  apperr.StageRecording,
		})
	}

	return elements, nil
}

// QueryCSS returns every element matching a user-supplied CSS selector.
func (m *Manager) QueryCSS(ctx context.Context, selector string) (elements []ports.Element, err error) {
	const op = "QueryCSS"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err = m.checkReady(op); err != nil {
		return nil, err
	}

	handles, err := m.page.QuerySelectorAll("css=" + selector)
	if err != nil {
		code := apperr.CodeInternal
		if isInvalidSelectorError(err) {
			code = apperr.CodeInvalidArgument
		}

		return nil, apperr.Wrap(op, code, err, map[string]any{
			apperr.MetaReason:   "query_failed",
			apperr.MetaSelector: selector,
		})
	}

	elements = make([]ports.Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, h)
	}

	return elements, nil
}

func (m *Manager) queryVisible(selector string) ([]ports.Element, error) {
	handles, err := m.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}

	visible := make([]ports.Element, 0, len(handles))
	for _, h := range handles {
		if ok, err := h.IsVisible(); err == nil && ok {
			visible = append(visible, h)
		}
	}

	return visible, nil
}

// Describe renders a one-line summary used when the operator picks among matches.
func (m *Manager) Describe(ctx context.Context, el ports.Element) (string, error) {
	const op = "Describe"

	h, err := handleOf(el)
	if err != nil {
		return "", apperr.InvalidReqError(op, "element", err)
	}

	raw, err := h.Evaluate(describeScript())
	if err != nil {
		if isStaleError(err) {
			return "", apperr.Wrap(op, apperr.CodeStaleElement, locator.ErrStaleElement, map[string]any{
				apperr.MetaStage: apperr.StageCapture,
			})
		}

		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	info, _ := raw.(map[string]interface{})

	var b strings.Builder
	b.WriteString("<" + getString(info, "tag") + ">")

	if text := getString(info, "text"); text != "" {
		fmt.Fprintf(&b, " %q", text)
	}

	if id := getString(info, "id"); id != "" {
		b.WriteString(" #" + id)
	}

	if name := getString(info, "name"); name != "" {
		b.WriteString(" name=" + name)
	}

	if placeholder := getString(info, "placeholder"); placeholder != "" {
		fmt.Fprintf(&b, " placeholder=%q", placeholder)
	}

	return b.String(), nil
}

// Highlight outlines the element for the configured duration without blocking.
func (m *Manager) Highlight(ctx context.Context, el ports.Element) error {
	const op = "Highlight"

	h, err := handleOf(el)
	if err != nil {
		return apperr.InvalidReqError(op, "element", err)
	}

	ms := m.config.BrowserConfig.Highlight.Milliseconds()
	if _, err := h.Evaluate(highlightScript(), ms); err != nil {
		m.logger.Debug("Highlight failed", zap.String(logg.Operation, op), zap.Error(err))
	}

	return nil
}

// Capture reads the element and up to maxDepth ancestors in a single evaluation.
func (m *Manager) Capture(ctx context.Context, el ports.Element, maxDepth int) (snap entity.ElementSnapshot, err error) {
	const op = "Capture"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.Int("max_depth", maxDepth))
	defer func() {
		step.End(err)
	}()

	h, err := handleOf(el)
	if err != nil {
		return snap, apperr.InvalidReqError(op, "element", err)
	}

	raw, err := h.Evaluate(captureScript(), maxDepth)
	if err != nil && !isStaleError(err) {
		return snap, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
			apperr.MetaStage:  apperr.StageCapture,
		})
	}

	snap, ok := parseSnapshot(raw)
	if err != nil || !ok {
		return entity.ElementSnapshot{}, apperr.Wrap(op, apperr.CodeStaleElement, locator.ErrStaleElement, map[string]any{
			apperr.MetaReason: "element_detached",
			apperr.MetaStage:  apperr.StageCapture,
		})
	}

	step.SetAttributes(attribute.String("tag", snap.Tag), attribute.Int("ancestors", len(snap.Ancestry)))

	return snap, nil
}

func parseSnapshot(raw interface{}) (entity.ElementSnapshot, bool) {
	data, ok := raw.(map[string]interface{})
	if !ok {
		return entity.ElementSnapshot{}, false
	}

	snap := entity.ElementSnapshot{
		Tag:  getString(data, "tag"),
		Text: strings.TrimSpace(getString(data, "text")),
	}

	if attrs, ok := data["attributes"].([]interface{}); ok {
		for _, item := range attrs {
			if a, ok := item.(map[string]interface{}); ok {
				snap.Attributes = append(snap.Attributes, entity.Attribute{
					Name:  getString(a, "name"),
					Value: getString(a, "value"),
				})
			}
		}
	}

	if chain, ok := data["ancestry"].([]interface{}); ok {
		for _, item := range chain {
			if n, ok := item.(map[string]interface{}); ok {
				snap.Ancestry = append(snap.Ancestry, entity.PathNode{
					Tag:             getString(n, "tag"),
					ID:              getString(n, "id"),
					Class:           getString(n, "cls"),
					Position:        getInt(n, "position"),
					SameTagSiblings: getInt(n, "same"),
				})
			}
		}
	}

	return snap, snap.Tag != ""
}

// Probe looks the locator up once on the current page.
func (m *Manager) Probe(ctx context.Context, loc entity.Locator) (ports.Element, entity.ProbeStatus, error) {
	const op = "Probe"

	if err := m.checkReady(op); err != nil {
		return nil, "", err
	}

	selector, ok := selectorFor(loc)
	if !ok {
		return nil, entity.ProbeInvalid, nil
	}

	h, err := m.page.QuerySelector(selector)
	switch {
	case err == nil:
	case isInvalidSelectorError(err):
		return nil, entity.ProbeInvalid, nil
	case isStaleError(err):
		return nil, entity.ProbeStale, nil
	default:
		return nil, "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:   "query_failed",
			apperr.MetaStage:    apperr.StageResolution,
			apperr.MetaSelector: loc.String(),
		})
	}

	if h == nil {
		return nil, entity.ProbeAbsent, nil
	}

	connected, err := h.Evaluate(connectedScript())
	if err != nil || connected != true {
		return nil, entity.ProbeStale, nil
	}

	return h, entity.ProbeFound, nil
}

// Click tries a native click first and falls back to a script click for elements
// covered by overlays.
func (m *Manager) Click(ctx context.Context, el ports.Element) (err error) {
	const op = "Click"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err = m.checkReady(op); err != nil {
		return err
	}

	h, err := handleOf(el)
	if err != nil {
		return apperr.InvalidReqError(op, "element", err)
	}

	strategies := []struct {
		name string
		fn   func() error
	}{
		{
			name: "native_click",
			fn: func() error {
				_ = h.ScrollIntoViewIfNeeded()

				return h.Click(playwright.ElementHandleClickOptions{
					Timeout: playwright.Float(actionTimeout),
				})
			},
		},
		{
			name: "js_click",
			fn: func() error {
				_, err := h.Evaluate(jsClickScript())
				return err
			},
		},
	}

	var lastErr error
	for _, strategy := range strategies {
		step.AddEvent("trying strategy: " + strategy.name)

		lastErr = strategy.fn()
		if lastErr == nil {
			time.Sleep(settleDelay)
			step.AddEvent("click completed")

			return nil
		}

		if isStaleError(lastErr) {
			break
		}

		logger.Warn("Strategy failed", zap.String("strategy", strategy.name), zap.Error(lastErr))
	}

	code := apperr.CodeActionFailed
	if isStaleError(lastErr) {
		code = apperr.CodeStaleElement
	}

	return apperr.Wrap(op, code, lastErr, map[string]any{
		apperr.MetaReason: "click_failed_all_strategies",
		apperr.MetaStage:  apperr.StageInteraction,
	})
}

func (m *Manager) Fill(ctx context.Context, el ports.Element, value string) (err error) {
	const op = "Fill"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err = m.checkReady(op); err != nil {
		return err
	}

	h, err := handleOf(el)
	if err != nil {
		return apperr.InvalidReqError(op, "element", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		step.AddEvent(fmt.Sprintf("filling field (attempt %d)", attempt+1))

		lastErr = h.Fill(value, playwright.ElementHandleFillOptions{
			Timeout: playwright.Float(actionTimeout),
			Force:   playwright.Bool(attempt > 0),
		})
		if lastErr == nil {
			time.Sleep(settleDelay)

			return nil
		}

		if isStaleError(lastErr) {
			break
		}

		logger.Warn("Fill attempt failed", zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}

	return apperr.Wrap(op, apperr.CodeActionFailed, lastErr, map[string]any{
		apperr.MetaReason: "fill_failed_after_retries",
		apperr.MetaStage:  apperr.StageInteraction,
	})
}

func (m *Manager) Hover(ctx context.Context, el ports.Element) (err error) {
	const op = "Hover"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err = m.checkReady(op); err != nil {
		return err
	}

	h, err := handleOf(el)
	if err != nil {
		return apperr.InvalidReqError(op, "element", err)
	}

	err = h.Hover(playwright.ElementHandleHoverOptions{
		Timeout: playwright.Float(actionTimeout),
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "hover_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	time.Sleep(settleDelay)

	return nil
}

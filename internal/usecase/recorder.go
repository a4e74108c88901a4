package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ui-recorder/internal/config"
	"ui-recorder/internal/entity"
	"ui-recorder/internal/locator"
	"ui-recorder/internal/ports"
	"ui-recorder/internal/stepbook"
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
	recorderServiceName = "RecorderService"
	recorderTracer      = "usecase.recorder"
)

// non-text input types are clicked, not filled
var nonTextInputTypes = map[string]bool{
	"button":   true,
	"submit":   true,
	"reset":    true,
	"checkbox": true,
	"radio":    true,
	"hidden":   true,
	"image":    true,
	"file":     true,
}

type RecorderService struct {
	config    *config.Config
	logger    *zap.Logger
	tracer    trace.Tracer
	browser   ports.BrowserManager
	prompter  ports.Prompter
	store     ports.ScenarioStore
	engine    *locator.Engine
	runner    *stepRunner
	book      *stepbook.Book
	sessionID string
	startURL  string
}

type RecorderServiceParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Browser  ports.BrowserManager
	Prompter ports.Prompter
	Store    ports.ScenarioStore
	Engine   *locator.Engine
	Runner   *stepRunner
}

func NewRecorderService(params RecorderServiceParams) *RecorderService {
	sessionID := uuid.NewString()

	return &RecorderService{
		config:    params.Config,
		logger:    params.Logger.With(zap.String(logg.Layer, recorderServiceName), zap.String(logg.SessionID, sessionID)),
		tracer:    otel.Tracer(recorderTracer),
		browser:   params.Browser,
		prompter:  params.Prompter,
		store:     params.Store,
		engine:    params.Engine,
		runner:    params.Runner,
		book:      stepbook.New(params.Config.RecorderConfig.CasePrefix),
		sessionID: sessionID,
	}
}

// Open launches the browser on first use and navigates. The first URL opened becomes
// the start URL every requirement is recorded from.
func (s *RecorderService) Open(ctx context.Context, url string) (err error) {
	const op = "Open"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	if url == "" {
		return apperr.InvalidReqError(op, "url", errors.New("url cannot be empty"))
	}

	if !strings.Contains(url, "://") {
		url = "https://" + url
	}

	if !s.browser.IsReady() {
		if err = s.browser.Launch(ctx); err != nil {
			return err
		}
	}

	if err = s.browser.Navigate(ctx, url); err != nil {
		return err
	}

	if s.startURL == "" {
		s.startURL = url
		logger.Info("Start URL set")
	}

	return nil
}

// ClickByText finds an element by its text, exact match first, and records a click
// on it, or an input step when it is a text field.
func (s *RecorderService) ClickByText(ctx context.Context, text string) (rec *entity.Step, err error) {
	const op = "ClickByText"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.SearchText, text))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("text", text))
	defer func() {
		step.End(err)
	}()

	if strings.TrimSpace(text) == "" {
		return nil, apperr.InvalidReqError(op, "text", errors.New("search text cannot be empty"))
	}

	el, err := s.pickByText(ctx, text)
	if err != nil {
		return nil, err
	}

	return s.recordElement(ctx, el, text)
}

// RecordInput lists visible text fields, lets the operator pick one and records
// typing into it.
func (s *RecorderService) RecordInput(ctx context.Context, name string) (rec *entity.Step, err error) {
	const op = "RecordInput"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	inputs, err := s.browser.FindInputs(ctx)
	if err != nil {
		return nil, err
	}

	if len(inputs) == 0 {
		return nil, apperr.NotFoundError(op, errors.New("no visible input fields"))
	}

	el, err := s.choose(ctx, op, "Input fields", inputs)
	if err != nil {
		return nil, err
	}

	return s.recordElement(ctx, el, name)
}

// RecordCustom records a click on an element given by an operator-supplied CSS
// selector. The selector is stored as-is with no alternates.
func (s *RecorderService) RecordCustom(ctx context.Context) (rec *entity.Step, err error) {
	const op = "RecordCustom"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	name, selector, err := s.askNameAndSelector(ctx, op)
	if err != nil {
		return nil, err
	}

	el, err := s.firstByCSS(ctx, op, selector)
	if err != nil {
		return nil, err
	}

	_ = s.browser.Highlight(ctx, el)

	if err = s.click(ctx, el); err != nil {
		return nil, err
	}

	return s.addStep(ctx, entity.StepDraft{
		Action:   entity.ActionClick,
		Name:     name,
		Locators: entity.RankedLocatorSet{Primary: entity.Locator{Kind: entity.LocatorCSS, Expression: selector}},
	})
}

// RecordHover records moving the mouse over an element found by CSS or by text.
func (s *RecorderService) RecordHover(ctx context.Context) (rec *entity.Step, err error) {
	const op = "RecordHover"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	mode, err := s.prompter.Choose(ctx, "Locate the hover target by", []string{"CSS selector", "Text"})
	if err != nil {
		return nil, s.promptError(op, err)
	}

	var (
		el    ports.Element
		draft = entity.StepDraft{Action: entity.ActionHover}
	)

	if mode == 0 {
		var selector string

		draft.Name, selector, err = s.askNameAndSelector(ctx, op)
		if err != nil {
			return nil, err
		}

		if el, err = s.firstByCSS(ctx, op, selector); err != nil {
			return nil, err
		}

		draft.Locators.Primary = entity.Locator{Kind: entity.LocatorCSS, Expression: selector}
	} else {
		text, err := s.askRequired(ctx, op, "Element text")
		if err != nil {
			return nil, err
		}

		if el, err = s.pickByText(ctx, text); err != nil {
			return nil, err
		}

		snap, err := s.browser.Capture(ctx, el, s.engine.MaxPathDepth())
		if err != nil {
			return nil, err
		}

		if draft.Locators, err = s.engine.Synthesize(ctx, snap, text); err != nil {
			return nil, err
		}

		draft.Name = text
	}

	_ = s.browser.Highlight(ctx, el)

	if err = s.browser.Hover(ctx, el); err != nil {
		return nil, err
	}

	return s.addStep(ctx, draft)
}

// RecordWindowSwitch lists open windows, switches to the chosen one and records it.
func (s *RecorderService) RecordWindowSwitch(ctx context.Context) (rec *entity.Step, err error) {
	const op = "RecordWindowSwitch"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	pages, err := s.browser.Pages(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]string, len(pages))
	for i, p := range pages {
		options[i] = fmt.Sprintf("%s | %s", p.Title, p.URL)
		if p.Current {
			options[i] += " (current)"
		}
	}

	idx, err := s.prompter.Choose(ctx, "Open windows", options)
	if err != nil {
		return nil, s.promptError(op, err)
	}

	if err = s.browser.SwitchToPage(ctx, idx); err != nil {
		return nil, err
	}

	return s.addStep(ctx, entity.StepDraft{
		Action:      entity.ActionWindowSwitch,
		Name:        fmt.Sprintf("Switch to window %d", idx),
		Input:       pages[idx].Title,
		WindowIndex: idx,
	})
}

// BeginBusiness closes the precondition phase and selects the first requirement.
func (s *RecorderService) BeginBusiness(ctx context.Context, requirement string) error {
	const op = "BeginBusiness"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.Requirement, requirement))

	if !s.book.InPreconditions() {
		return apperr.WrapErrorWithReason(op, apperr.CodeInvalidArgument, "already_recording_business_steps")
	}

	if err := s.setRequirement(op, requirement); err != nil {
		return err
	}

	logger.Info("Preconditions closed", zap.Int("preconditions", len(s.book.Preconditions())))

	return nil
}

// StartRequirement restarts the browser at the start URL, selects the requirement and
// replays the preconditions so the new requirement records from a clean state.
func (s *RecorderService) StartRequirement(ctx context.Context, requirement string) (err error) {
	const op = "StartRequirement"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.Requirement, requirement))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("requirement", requirement))
	defer func() {
		step.End(err)
	}()

	if !stepbook.ValidRequirement(requirement) {
		return s.setRequirement(op, requirement)
	}

	if s.startURL == "" {
		return apperr.InvalidReqError(op, "start_url", errors.New("open a page first"))
	}

	if err = s.browser.Close(ctx); err != nil {
		logger.Warn("Failed to close browser", zap.Error(err))
	}

	if err = s.browser.Launch(ctx); err != nil {
		return err
	}

	if err = s.browser.Navigate(ctx, s.startURL); err != nil {
		return err
	}

	if err = s.setRequirement(op, requirement); err != nil {
		return err
	}

	for _, pre := range s.book.Preconditions() {
		report, runErr := s.runner.Run(ctx, pre, false)
		if runErr != nil {
			return runErr
		}

		if report.Err != nil {
			logger.Warn("Precondition failed", zap.String(logg.StepID, pre.ID), zap.Error(report.Err))
		}
	}

	logger.Info("Requirement started")

	return nil
}

func (s *RecorderService) HasRequirement(requirement string) bool {
	return s.book.HasRequirement(requirement)
}

func (s *RecorderService) CurrentRequirement() string {
	return s.book.Current()
}

func (s *RecorderService) InPreconditions() bool {
	return s.book.InPreconditions()
}

func (s *RecorderService) Preconditions() []entity.Step {
	return s.book.Preconditions()
}

func (s *RecorderService) Steps() []entity.Step {
	return s.book.Steps()
}

func (s *RecorderService) Grouped() []entity.RequirementSteps {
	return s.book.Grouped()
}

// RemoveStep removes a precondition while preconditions are being recorded and a
// business step afterwards. index is zero-based in listing order.
func (s *RecorderService) RemoveStep(ctx context.Context, index int) (*entity.Step, error) {
	const op = "RemoveStep"

	remove := s.book.Remove
	if s.book.InPreconditions() {
		remove = s.book.RemovePrecondition
	}

	removed, err := remove(index)
	if err != nil {
		return nil, apperr.InvalidReqError(op, "index", err)
	}

	s.logger.Info("Step removed",
		zap.String(logg.Operation, op),
		zap.String(logg.StepID, removed.ID),
		zap.Int("remaining", len(s.book.Preconditions())+len(s.book.Steps())))

	return &removed, nil
}

func (s *RecorderService) Save(ctx context.Context) (sc *entity.Scenario, err error) {
	const op = "Save"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	sc = s.book.Scenario(s.sessionID, s.startURL)
	if err = s.store.Save(ctx, sc); err != nil {
		return nil, err
	}

	return sc, nil
}

// Resume loads the saved scenario so recording continues after its last step.
func (s *RecorderService) Resume(ctx context.Context) (sc *entity.Scenario, err error) {
	const op = "Resume"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if sc, err = s.store.Load(ctx); err != nil {
		return nil, err
	}

	s.book.Restore(sc)
	s.startURL = sc.StartURL
	if sc.SessionID != "" {
		s.sessionID = sc.SessionID
	}

	logger.Info("Scenario restored",
		zap.String(logg.SessionID, s.sessionID),
		zap.Int("preconditions", len(sc.Preconditions)),
		zap.Int("requirements", len(sc.Requirements)))

	return sc, nil
}

// SavePage writes the current page's HTML for later offline verification.
func (s *RecorderService) SavePage(ctx context.Context, path string) error {
	const op = "SavePage"

	content, err := s.browser.PageHTML(ctx)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "mkdir_failed",
				apperr.MetaPath:   path,
			})
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "write_failed",
			apperr.MetaPath:   path,
		})
	}

	s.logger.Info("Page saved", zap.String(logg.Operation, op), zap.String("path", path))

	return nil
}

// recordElement captures el before acting on it, since a click may navigate away.
func (s *RecorderService) recordElement(ctx context.Context, el ports.Element, name string) (*entity.Step, error) {
	_ = s.browser.Highlight(ctx, el)

	snap, err := s.browser.Capture(ctx, el, s.engine.MaxPathDepth())
	if err != nil {
		return nil, err
	}

	set, err := s.engine.Synthesize(ctx, snap, name)
	if err != nil {
		return nil, err
	}

	draft := entity.StepDraft{Action: entity.ActionClick, Name: name, Locators: set}

	if isTextEntry(snap) {
		value, err := s.prompter.Ask(ctx, "Text to type")
		if err != nil {
			return nil, s.promptError("recordElement", err)
		}

		if err := s.browser.Fill(ctx, el, value); err != nil {
			return nil, err
		}

		draft.Action = entity.ActionInput
		draft.Input = value
	} else if err := s.click(ctx, el); err != nil {
		return nil, err
	}

	return s.addStep(ctx, draft)
}

func (s *RecorderService) click(ctx context.Context, el ports.Element) error {
	pages, err := s.browser.Pages(ctx)
	if err != nil {
		return err
	}

	if err := s.browser.Click(ctx, el); err != nil {
		return err
	}

	_, err = s.browser.FollowNewPage(ctx, len(pages))

	return err
}

func (s *RecorderService) addStep(ctx context.Context, draft entity.StepDraft) (*entity.Step, error) {
	const op = "addStep"

	rec, err := s.book.Add(draft)
	if err != nil {
		code := apperr.CodeInvalidArgument
		if errors.Is(err, stepbook.ErrNoRequirement) {
			code = apperr.CodeNoRequirement
		}

		return nil, apperr.Wrap(op, code, err, map[string]any{
			apperr.MetaReason: "step_rejected",
			apperr.MetaStage:  apperr.StageRecording,
			apperr.MetaAction: string(draft.Action),
		})
	}

	fields := []zap.Field{
		zap.String(logg.Operation, op),
		zap.String(logg.StepID, rec.ID),
		zap.String(logg.Action, string(rec.Action)),
		zap.String("name", rec.Name),
	}
	if !rec.Locators.Primary.IsZero() {
		fields = append(fields,
			zap.String(logg.Selector, rec.Locators.Primary.String()),
			zap.Int("alternates", len(rec.Locators.Alternates)))
	}

	s.logger.Info("Step recorded", fields...)

	return &rec, nil
}

func (s *RecorderService) setRequirement(op, requirement string) error {
	if err := s.book.SetRequirement(requirement); err != nil {
		return apperr.Wrap(op, apperr.CodeInvalidRequirement, err, map[string]any{
			apperr.MetaReason:      "invalid_requirement_id",
			apperr.MetaRequirement: requirement,
		})
	}

	return nil
}

func (s *RecorderService) pickByText(ctx context.Context, text string) (ports.Element, error) {
	const op = "pickByText"

	elements, err := s.browser.FindByText(ctx, text, true)
	if err != nil {
		return nil, err
	}

	if len(elements) == 0 {
		s.logger.Debug("No exact match, trying contains", zap.String(logg.SearchText, text))

		if elements, err = s.browser.FindByText(ctx, text, false); err != nil {
			return nil, err
		}
	}

	if len(elements) == 0 {
		return nil, apperr.NotFoundError(op, fmt.Errorf("no element with text %q", text))
	}

	return s.choose(ctx, op, fmt.Sprintf("Elements matching %q", text), elements)
}

func (s *RecorderService) choose(ctx context.Context, op, title string, elements []ports.Element) (ports.Element, error) {
	if len(elements) == 1 {
		return elements[0], nil
	}

	options := make([]string, len(elements))
	for i, el := range elements {
		desc, err := s.browser.Describe(ctx, el)
		if err != nil {
			desc = "<unavailable>"
		}
		options[i] = desc

		_ = s.browser.Highlight(ctx, el)
	}

	idx, err := s.prompter.Choose(ctx, title, options)
	if err != nil {
		return nil, s.promptError(op, err)
	}

	return elements[idx], nil
}

func (s *RecorderService) firstByCSS(ctx context.Context, op, selector string) (ports.Element, error) {
	elements, err := s.browser.QueryCSS(ctx, selector)
	if err != nil {
		return nil, err
	}

	if len(elements) == 0 {
		return nil, apperr.Wrap(op, apperr.CodeElementNotFound, locator.ErrElementNotFound, map[string]any{
			apperr.MetaSelector: selector,
			apperr.MetaStage:    apperr.StageRecording,
		})
	}

	return elements[0], nil
}

func (s *RecorderService) askNameAndSelector(ctx context.Context, op string) (string, string, error) {
	name, err := s.askRequired(ctx, op, "Element name")
	if err != nil {
		return "", "", err
	}

	selector, err := s.askRequired(ctx, op, "CSS selector")
	if err != nil {
		return "", "", err
	}

	return name, selector, nil
}

func (s *RecorderService) askRequired(ctx context.Context, op, question string) (string, error) {
	answer, err := s.prompter.Ask(ctx, question)
	if err != nil {
		return "", s.promptError(op, err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", apperr.InvalidReqError(op, strings.ToLower(question), fmt.Errorf("%s cannot be empty", strings.ToLower(question)))
	}

	return answer, nil
}

func (s *RecorderService) promptError(op string, err error) error {
	code := apperr.CodeInternal
	if errors.Is(err, ports.ErrPromptCancelled) || errors.Is(err, context.Canceled) {
		code = apperr.CodeCancelledByUser
	}

	return apperr.Wrap(op, code, err, map[string]any{
		apperr.MetaStage: apperr.StageRecording,
	})
}

func isTextEntry(snap entity.ElementSnapshot) bool {
	switch snap.Tag {
	case "textarea":
		return true
	case "input":
		typ, _ := snap.Attr("type")
		return !nonTextInputTypes[strings.ToLower(typ)]
	}

	return false
}

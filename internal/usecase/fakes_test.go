package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ui-recorder/internal/config"
	"ui-recorder/internal/entity"
	"ui-recorder/internal/locator"
	"ui-recorder/internal/ports"
	"ui-recorder/pkg/apperr"

	"go.uber.org/zap/zaptest"
)

type fakeElement struct {
	id   string
	snap entity.ElementSnapshot
}

type fakeBrowser struct {
	mu sync.Mutex

	ready       bool
	launches    int
	closes      int
	navigated   []string
	exact       map[string][]ports.Element
	contains    map[string][]ports.Element
	inputs      []ports.Element
	css         map[string][]ports.Element
	present     map[entity.Locator]ports.Element
	pages       []entity.WindowInfo
	current     int
	opensPage   map[string]bool
	actions     []string
	screenshots []string
	html        string
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		exact:     map[string][]ports.Element{},
		contains:  map[string][]ports.Element{},
		css:       map[string][]ports.Element{},
		present:   map[entity.Locator]ports.Element{},
		opensPage: map[string]bool{},
		pages:     []entity.WindowInfo{{Index: 0, Title: "Home", URL: "https://example.com/"}},
	}
}

func (b *fakeBrowser) record(action string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.actions = append(b.actions, action)
}

func (b *fakeBrowser) Actions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.actions...)
}

func (b *fakeBrowser) Launch(context.Context) error {
	b.ready = true
	b.launches++

	return nil
}

func (b *fakeBrowser) Close(context.Context) error {
	b.ready = false
	b.closes++

	return nil
}

func (b *fakeBrowser) IsReady() bool {
	return b.ready
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) error {
	if !b.ready {
		return apperr.WrapErrorWithReason("Navigate", apperr.CodeBrowserNotReady, "browser_not_launched")
	}

	b.navigated = append(b.navigated, url)

	return nil
}

func (b *fakeBrowser) Screenshot(_ context.Context, path string) error {
	b.screenshots = append(b.screenshots, path)

	return nil
}

func (b *fakeBrowser) PageHTML(context.Context) (string, error) {
	return b.html, nil
}

func (b *fakeBrowser) FindByText(_ context.Context, text string, exact bool) ([]ports.Element, error) {
	if exact {
		return b.exact[text], nil
	}

	return b.contains[text], nil
}

func (b *fakeBrowser) FindInputs(context.Context) ([]ports.Element, error) {
	return b.inputs, nil
}

func (b *fakeBrowser) QueryCSS(_ context.Context, selector string) ([]ports.Element, error) {
	return b.css[selector], nil
}

func (b *fakeBrowser) Describe(_ context.Context, el ports.Element) (string, error) {
	return "<" + el.(*fakeElement).id + ">", nil
}

func (b *fakeBrowser) Highlight(context.Context, ports.Element) error {
	return nil
}

func (b *fakeBrowser) Capture(_ context.Context, el ports.Element, _ int) (entity.ElementSnapshot, error) {
	return el.(*fakeElement).snap, nil
}

func (b *fakeBrowser) Probe(_ context.Context, loc entity.Locator) (ports.Element, entity.ProbeStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if el, ok := b.present[loc]; ok {
		return el, entity.ProbeFound, nil
	}

	return nil, entity.ProbeAbsent, nil
}

func (b *fakeBrowser) Click(_ context.Context, el ports.Element) error {
	id := el.(*fakeElement).id
	b.record("click:" + id)

	if b.opensPage[id] {
		b.pages = append(b.pages, entity.WindowInfo{Index: len(b.pages), Title: id, URL: "https://example.com/" + id})
	}

	return nil
}

func (b *fakeBrowser) Fill(_ context.Context, el ports.Element, value string) error {
	b.record(fmt.Sprintf("fill:%s=%s", el.(*fakeElement).id, value))

	return nil
}

func (b *fakeBrowser) Hover(_ context.Context, el ports.Element) error {
	b.record("hover:" + el.(*fakeElement).id)

	return nil
}

func (b *fakeBrowser) Pages(context.Context) ([]entity.WindowInfo, error) {
	out := make([]entity.WindowInfo, len(b.pages))
	for i, p := range b.pages {
		p.Current = i == b.current
		out[i] = p
	}

	return out, nil
}

func (b *fakeBrowser) SwitchToPage(_ context.Context, index int) error {
	if index < 0 || index >= len(b.pages) {
		return apperr.InvalidReqError("SwitchToPage", "index", errors.New("out of range"))
	}

	b.current = index
	b.record(fmt.Sprintf("switch:%d", index))

	return nil
}

func (b *fakeBrowser) FollowNewPage(_ context.Context, before int) (bool, error) {
	if len(b.pages) <= before {
		return false, nil
	}

	b.current = len(b.pages) - 1

	return true, nil
}

type fakePrompter struct {
	answers   []string
	choices   []int
	questions []string
	titles    []string
	options   [][]string
}

func (p *fakePrompter) Ask(_ context.Context, question string) (string, error) {
	p.questions = append(p.questions, question)

	if len(p.answers) == 0 {
		return "", ports.ErrPromptCancelled
	}

	answer := p.answers[0]
	p.answers = p.answers[1:]

	return answer, nil
}

func (p *fakePrompter) Choose(_ context.Context, title string, options []string) (int, error) {
	p.titles = append(p.titles, title)
	p.options = append(p.options, options)

	if len(p.choices) == 0 {
		return 0, ports.ErrPromptCancelled
	}

	choice := p.choices[0]
	p.choices = p.choices[1:]

	return choice, nil
}

type memStore struct {
	saved *entity.Scenario
	saves int
}

func (s *memStore) Save(_ context.Context, sc *entity.Scenario) error {
	s.saved = sc
	s.saves++

	return nil
}

func (s *memStore) Load(context.Context) (*entity.Scenario, error) {
	if s.saved == nil {
		return nil, apperr.NotFoundError("Load", errors.New("no scenario"))
	}

	return s.saved, nil
}

type harness struct {
	browser  *fakeBrowser
	prompter *fakePrompter
	store    *memStore
	service  *Service
	recorder *RecorderService
	replay   *ReplayService
	verify   *VerifyService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{
		LocatorConfig: &config.LocatorConfig{
			Timeout:      20 * time.Millisecond,
			PollInterval: 5 * time.Millisecond,
		},
		RecorderConfig: &config.RecorderConfig{
			CasePrefix:     "Case",
			ScreenshotsDir: t.TempDir(),
		},
	}
	logger := zaptest.NewLogger(t)

	h := &harness{
		browser:  newFakeBrowser(),
		prompter: &fakePrompter{},
		store:    &memStore{},
	}

	h.service = NewUsecase(Params{
		Logger:   logger,
		Config:   cfg,
		Browser:  h.browser,
		Prompter: h.prompter,
		Store:    h.store,
		Engine:   locator.NewEngine(locator.Params{Config: cfg, Logger: logger}),
	})
	h.recorder = h.service.Recorder.(*RecorderService)
	h.replay = h.service.Replay.(*ReplayService)
	h.verify = h.service.Verify.(*VerifyService)

	return h
}

func button(id, text string) *fakeElement {
	return &fakeElement{
		id: id,
		snap: entity.ElementSnapshot{
			Tag:        "button",
			Text:       text,
			Attributes: []entity.Attribute{{Name: "id", Value: id}},
		},
	}
}

func textInput(name string) *fakeElement {
	return &fakeElement{
		id: name,
		snap: entity.ElementSnapshot{
			Tag:        "input",
			Attributes: []entity.Attribute{{Name: "type", Value: "text"}, {Name: "name", Value: name}},
		},
	}
}

func css(expr string) entity.Locator {
	return entity.Locator{Kind: entity.LocatorCSS, Expression: expr}
}

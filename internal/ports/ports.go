package ports

import (
	"context"
	"errors"

	"ui-recorder/internal/entity"
)

// ErrPromptCancelled is returned by a Prompter when the operator backs out.
var ErrPromptCancelled = errors.New("prompt cancelled")

// Element is an opaque handle to a live DOM node. Only the adapter that returned it
// can act on it.
type Element any

type BrowserManager interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	IsReady() bool
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context, path string) error
	PageHTML(ctx context.Context) (string, error)

	FindByText(ctx context.Context, text string, exact bool) ([]Element, error)
	FindInputs(ctx context.Context) ([]Element, error)
	QueryCSS(ctx context.Context, selector string) ([]Element, error)
	Describe(ctx context.Context, el Element) (string, error)
	Highlight(ctx context.Context, el Element) error
	Capture(ctx context.Context, el Element, maxDepth int) (entity.ElementSnapshot, error)
	Probe(ctx context.Context, loc entity.Locator) (Element, entity.ProbeStatus, error)

	Click(ctx context.Context, el Element) error
	Fill(ctx context.Context, el Element, value string) error
	Hover(ctx context.Context, el Element) error

	Pages(ctx context.Context) ([]entity.WindowInfo, error)
	SwitchToPage(ctx context.Context, index int) error
	FollowNewPage(ctx context.Context, before int) (bool, error)
}

// Prompter asks the operator for input while a command is running.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
	// Choose shows numbered options and returns the chosen index.
	Choose(ctx context.Context, title string, options []string) (int, error)
}

type ScenarioStore interface {
	Save(ctx context.Context, scenario *entity.Scenario) error
	Load(ctx context.Context) (*entity.Scenario, error)
}

package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"ui-recorder/internal/config"
	"ui-recorder/internal/entity"
	"ui-recorder/internal/usecase"
	"ui-recorder/pkg/apperr"
	"ui-recorder/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errExit = errors.New("exit")

type Interface struct {
	config   *config.Config
	logger   *zap.Logger
	usecase  *usecase.Service
	prompter *Prompter
	out      io.Writer
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

type Params struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Usecase  *usecase.Service
	Prompter *Prompter
}

func NewInterface(params Params) *Interface {
	ctx, cancel := context.WithCancel(context.Background())

	return &Interface{
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, "Console")),
		usecase:  params.Usecase,
		prompter: params.Prompter,
		out:      os.Stdout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the command loop until an exit keyword, end of input or Stop.
func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	for {
		fmt.Fprintf(i.out, "\n%s> ", i.phaseLabel())

		input, err := i.prompter.readLine(i.ctx)
		if err != nil {
			return nil
		}

		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}

			i.reportError(err)
		}
	}
}

func (i *Interface) Stop() error {
	i.stopOnce.Do(func() {
		i.logger.Info("Stopping console interface...")
		i.cancel()
	})

	return nil
}

func (i *Interface) handleCommand(input string) error {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	rc := i.config.RecorderConfig

	switch {
	case input == "help" || input == "h":
		i.printHelp()

		return nil
	case matchesKeyword(rc.ExitKeywords, input):
		fmt.Fprintln(i.out, "Shutting down...")

		return errExit
	case cmd == "open":
		return i.open(arg)
	case input == "b":
		return i.beginBusiness()
	case input == "a":
		return i.newRequirement()
	case input == "l":
		i.list()

		return nil
	case input == "r":
		return i.remove()
	case input == "save":
		return i.save()
	case input == "load":
		return i.load()
	case cmd == "page":
		return i.savePage(arg)
	case input == "replay":
		return i.replay()
	case cmd == "verify":
		return i.verify(arg)
	case matchesKeyword(rc.InputKeywords, input):
		name, err := i.prompter.Ask(i.ctx, "Input field name")
		if err != nil {
			return err
		}

		return i.recorded(i.usecase.Recorder.RecordInput(i.ctx, name))
	case matchesKeyword(rc.CustomKeywords, input):
		return i.recorded(i.usecase.Recorder.RecordCustom(i.ctx))
	case matchesKeyword(rc.HoverKeywords, input):
		return i.recorded(i.usecase.Recorder.RecordHover(i.ctx))
	case matchesKeyword(rc.WindowKeywords, input):
		return i.recorded(i.usecase.Recorder.RecordWindowSwitch(i.ctx))
	default:
		return i.recorded(i.usecase.Recorder.ClickByText(i.ctx, input))
	}
}

func (i *Interface) open(url string) error {
	if url == "" {
		var err error
		if url, err = i.prompter.Ask(i.ctx, "URL"); err != nil {
			return err
		}
	}

	if err := i.usecase.Recorder.Open(i.ctx, url); err != nil {
		return err
	}

	fmt.Fprintf(i.out, "Opened %s\n", url)

	return nil
}

func (i *Interface) beginBusiness() error {
	if !i.usecase.Recorder.InPreconditions() {
		fmt.Fprintln(i.out, "Already recording business steps, use 'a' to start another requirement.")

		return nil
	}

	req, err := i.prompter.Ask(i.ctx, "Requirement id (e.g. R001)")
	if err != nil {
		return err
	}

	if err := i.usecase.Recorder.BeginBusiness(i.ctx, strings.ToUpper(req)); err != nil {
		return err
	}

	fmt.Fprintf(i.out, "Preconditions closed, recording %s.\n", strings.ToUpper(req))

	return nil
}

func (i *Interface) newRequirement() error {
	req, err := i.prompter.Ask(i.ctx, "Requirement id (e.g. R001)")
	if err != nil {
		return err
	}

	req = strings.ToUpper(req)

	if i.usecase.Recorder.HasRequirement(req) {
		answer, err := i.prompter.Ask(i.ctx, fmt.Sprintf("%s already has steps, append to it? (y/n)", req))
		if err != nil {
			return err
		}

		if !strings.EqualFold(answer, "y") {
			return nil
		}
	}

	fmt.Fprintln(i.out, "Restarting from the start URL and replaying preconditions...")

	if err := i.usecase.Recorder.StartRequirement(i.ctx, req); err != nil {
		return err
	}

	fmt.Fprintf(i.out, "Recording %s.\n", req)

	return nil
}

func (i *Interface) list() {
	pre := i.usecase.Recorder.Preconditions()
	steps := i.usecase.Recorder.Steps()

	if len(pre) == 0 && len(steps) == 0 {
		fmt.Fprintln(i.out, "No steps recorded.")

		return
	}

	if len(pre) > 0 {
		fmt.Fprintln(i.out, "Preconditions:")
		for n, s := range pre {
			i.printStep(n+1, s)
		}
	}

	if len(steps) > 0 {
		fmt.Fprintln(i.out, "Business steps:")
		for n, s := range steps {
			i.printStep(n+1, s)
		}
	}
}

func (i *Interface) remove() error {
	i.list()

	answer, err := i.prompter.Ask(i.ctx, "Step number to remove")
	if err != nil {
		return err
	}

	n, err := strconv.Atoi(answer)
	if err != nil {
		return apperr.InvalidReqError("remove", "index", err)
	}

	removed, err := i.usecase.Recorder.RemoveStep(i.ctx, n-1)
	if err != nil {
		return err
	}

	fmt.Fprintf(i.out, "Removed %s (%s).\n", removed.ID, removed.Name)

	return nil
}

func (i *Interface) save() error {
	sc, err := i.usecase.Recorder.Save(i.ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(i.out, "Saved %d steps to %s and %s.\n",
		len(sc.Steps()), i.config.RecorderConfig.ScenarioFile, i.config.RecorderConfig.TableFile)

	return nil
}

func (i *Interface) load() error {
	sc, err := i.usecase.Recorder.Resume(i.ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(i.out, "Loaded %d steps, start URL %s.\n", len(sc.Steps()), sc.StartURL)

	return nil
}

func (i *Interface) savePage(path string) error {
	if path == "" {
		path = "page.html"
	}

	if err := i.usecase.Recorder.SavePage(i.ctx, path); err != nil {
		return err
	}

	fmt.Fprintf(i.out, "Page saved to %s.\n", path)

	return nil
}

// replay runs the steps recorded in this session, or the saved scenario when nothing
// has been recorded yet.
func (i *Interface) replay() error {
	var (
		report *entity.RunReport
		err    error
	)

	if i.hasSteps() {
		sc, saveErr := i.usecase.Recorder.Save(i.ctx)
		if saveErr != nil {
			return saveErr
		}

		report, err = i.usecase.Replay.RunScenario(i.ctx, sc)
	} else {
		report, err = i.usecase.Replay.Run(i.ctx)
	}

	if report != nil {
		i.printReport(report)
	}

	return err
}

func (i *Interface) verify(path string) error {
	if path == "" {
		var err error
		if path, err = i.prompter.Ask(i.ctx, "Saved HTML page"); err != nil {
			return err
		}
	}

	if i.hasSteps() {
		if _, err := i.usecase.Recorder.Save(i.ctx); err != nil {
			return err
		}
	}

	report, err := i.usecase.Verify.Verify(i.ctx, path)
	if err != nil {
		return err
	}

	i.printReport(report)

	return nil
}

func (i *Interface) hasSteps() bool {
	return len(i.usecase.Recorder.Preconditions())+len(i.usecase.Recorder.Steps()) > 0
}

func (i *Interface) recorded(s *entity.Step, err error) error {
	if err != nil {
		return err
	}

	fmt.Fprintf(i.out, "Recorded %s: %s %q\n", s.ID, s.Action, s.Name)

	if !s.Locators.Primary.IsZero() {
		fmt.Fprintf(i.out, "  primary   %s\n", s.Locators.Primary)
		for _, alt := range s.Locators.Alternates {
			fmt.Fprintf(i.out, "  alternate %s\n", alt)
		}
	}

	return nil
}

func (i *Interface) reportError(err error) {
	switch apperr.CodeOf(err) {
	case apperr.CodeCancelledByUser:
		fmt.Fprintln(i.out, "Cancelled.")

		return
	case apperr.CodeNoRequirement:
		fmt.Fprintln(i.out, "No requirement selected, use 'a' to start one.")
	case apperr.CodeBrowserNotReady:
		fmt.Fprintln(i.out, "Browser is not open, use 'open <url>' first.")
	default:
		fmt.Fprintf(i.out, "Error: %v\n", err)
	}

	i.logger.Error("Command error", zap.Error(err))
}

func (i *Interface) phaseLabel() string {
	if i.usecase.Recorder.InPreconditions() {
		return "pre"
	}

	if req := i.usecase.Recorder.CurrentRequirement(); req != "" {
		return req
	}

	return "business"
}

func (i *Interface) printStep(n int, s entity.Step) {
	line := fmt.Sprintf("  %2d. %-20s %-13s %s", n, s.ID, s.Action, s.Name)
	if s.Input != "" {
		line += fmt.Sprintf(" = %q", s.Input)
	}

	fmt.Fprintln(i.out, line)
}

func (i *Interface) printReport(r *entity.RunReport) {
	fmt.Fprintf(i.out, "\nRun %s against %s\n", r.RunID, r.Source)

	for _, s := range r.Steps {
		mark := "PASS"
		if !s.Passed() {
			mark = "FAIL"
		}

		detail := s.Matched.String()
		if !s.Passed() {
			detail = s.Err.Error()
		}

		fmt.Fprintf(i.out, "  %s %-20s %-13s %s\n", mark, s.StepID, s.Action, detail)

		if s.Passed() && len(s.Attempts) > 1 {
			fmt.Fprintf(i.out, "       fallback after %d attempts\n", len(s.Attempts))
		}
	}

	fmt.Fprintf(i.out, "%d steps, %d failed, %d resolved by fallback\n",
		len(r.Steps), r.Failed(), r.FallbackUsed())
}

func (i *Interface) printBanner() {
	fmt.Fprintln(i.out, `
+-----------------------------------------------------------+
|                      UI Step Recorder                     |
|   Records browser steps with fallback locators, replays   |
|   them and checks them against saved pages                |
+-----------------------------------------------------------+`)
}

func (i *Interface) printHelp() {
	rc := i.config.RecorderConfig

	fmt.Fprintf(i.out, `
Available commands:
  open <url>      - Open a page (the first one becomes the start URL)
  <text>          - Click the element with this text, or type into it if it is a field
  %-15s - Record typing into a listed input field
  %-15s - Record a click on an element given by CSS selector
  %-15s - Record a hover by CSS selector or text
  %-15s - Switch to another open window
  b               - Finish preconditions and start the first requirement
  a               - Start a requirement (restarts at the start URL, replays preconditions)
  l               - List recorded steps
  r               - Remove a step
  save            - Save the scenario and step table
  load            - Continue a saved scenario
  page [path]     - Save the current page HTML for offline checks
  replay          - Replay the scenario in the browser
  verify <path>   - Check every locator against a saved HTML page
  help, h         - Show this help message
  %-15s - Exit the application
`,
		strings.Join(rc.InputKeywords, ", "),
		strings.Join(rc.CustomKeywords, ", "),
		strings.Join(rc.HoverKeywords, ", "),
		strings.Join(rc.WindowKeywords, ", "),
		strings.Join(rc.ExitKeywords, ", "))
}

func matchesKeyword(keywords []string, input string) bool {
	for _, k := range keywords {
		if strings.EqualFold(strings.TrimSpace(k), input) {
			return true
		}
	}

	return false
}

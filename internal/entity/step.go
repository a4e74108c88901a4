package entity

import "time"

type ActionKind string

const (
	ActionClick        ActionKind = "click"
	ActionInput        ActionKind = "input"
	ActionHover        ActionKind = "hover"
	ActionWindowSwitch ActionKind = "window_switch"
)

func (a ActionKind) Valid() bool {
	switch a {
	case ActionClick, ActionInput, ActionHover, ActionWindowSwitch:
		return true
	}

	return false
}

type StepPhase string

const (
	PhasePrecondition StepPhase = "precondition"
	PhaseBusiness     StepPhase = "business"
)

type Step struct {
	// ID is the case id, e.g. PreCondition_P001 or Case_R001_002.
	ID          string
	Number      string
	Phase       StepPhase
	Requirement string
	Action      ActionKind
	Name        string
	Input       string
	WindowIndex int
	Locators    RankedLocatorSet
	RecordedAt  time.Time
}

// StepDraft is what the recorder hands to the step book; numbering is the book's job.
type StepDraft struct {
	Action      ActionKind
	Name        string
	Input       string
	WindowIndex int
	Locators    RankedLocatorSet
}

type RequirementSteps struct {
	Requirement string
	Steps       []Step
}

type StepReport struct {
	StepID      string
	Requirement string
	Action      ActionKind
	Name        string
	Matched     Locator
	Attempts    []Attempt
	Screenshot  string
	Err         error
}

func (r StepReport) Passed() bool {
	return r.Err == nil
}

// Scenario is everything one recording session produced.
type Scenario struct {
	SessionID     string
	StartURL      string
	CasePrefix    string
	CreatedAt     time.Time
	Preconditions []Step
	Requirements  []RequirementSteps
}

// Steps returns preconditions followed by business steps in requirement order.
func (s *Scenario) Steps() []Step {
	var out []Step

	out = append(out, s.Preconditions...)
	for _, req := range s.Requirements {
		out = append(out, req.Steps...)
	}

	return out
}

// RunReport collects the outcome of a replay or an offline verification.
type RunReport struct {
	RunID      string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepReport
}

func (r *RunReport) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if !s.Passed() {
			n++
		}
	}

	return n
}

// FallbackUsed counts passed steps that were resolved by an alternate locator.
func (r *RunReport) FallbackUsed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Passed() && len(s.Attempts) > 1 {
			n++
		}
	}

	return n
}

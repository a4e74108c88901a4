package logg

// Field keys shared by every layer so log lines can be filtered uniformly.
const (
	Layer       = "layer"
	Operation   = "operation"
	Selector    = "selector"
	URL         = "url"
	Action      = "action"
	StepID      = "step_id"
	Requirement = "requirement"
	SearchText  = "search_text"
	LocatorKind = "locator_kind"
	Outcome     = "outcome"
	SessionID   = "session_id"
	RunID       = "run_id"
)

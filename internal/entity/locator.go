package entity

import (
	"fmt"
	"time"
)

type LocatorKind string

const (
	LocatorLinkText        LocatorKind = "LINK_TEXT"
	LocatorPartialLinkText LocatorKind = "PARTIAL_LINK_TEXT"
	LocatorXPath           LocatorKind = "XPATH"
	LocatorCSS             LocatorKind = "CSS_SELECTOR"
	LocatorName            LocatorKind = "NAME"
)

func (k LocatorKind) Valid() bool {
	switch k {
	case LocatorLinkText, LocatorPartialLinkText, LocatorXPath, LocatorCSS, LocatorName:
		return true
	}

	return false
}

// Locator is a value object; two locators are equal when kind and expression match.
type Locator struct {
	Kind       LocatorKind
	Expression string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Kind, l.Expression)
}

func (l Locator) IsZero() bool {
	return l.Kind == "" && l.Expression == ""
}

type RankedLocatorSet struct {
	Primary    Locator
	Alternates []Locator
}

// All returns the primary followed by the alternates, in resolution order.
func (s RankedLocatorSet) All() []Locator {
	out := make([]Locator, 0, len(s.Alternates)+1)
	out = append(out, s.Primary)

	return append(out, s.Alternates...)
}

type ProbeStatus string

const (
	ProbeFound   ProbeStatus = "found"
	ProbeAbsent  ProbeStatus = "absent"
	ProbeStale   ProbeStatus = "stale"
	ProbeInvalid ProbeStatus = "invalid"
)

type Outcome string

const (
	OutcomeFound   Outcome = "found"
	OutcomeTimeout Outcome = "timeout"
	OutcomeStale   Outcome = "stale"
	OutcomeInvalid Outcome = "invalid"
	OutcomeError   Outcome = "error"
)

type Attempt struct {
	Locator Locator
	Outcome Outcome
	Elapsed time.Duration
}

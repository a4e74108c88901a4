// Package stepbook numbers recorded steps. A Book starts in the precondition phase,
// whose steps run before every requirement, and moves to business steps grouped
// under requirement ids once the operator asks for it.
package stepbook

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"ui-recorder/internal/entity"
)

const preconditionPrefix = "PreCondition"

var (
	ErrInvalidRequirement = errors.New("requirement id must look like R001")
	ErrNoRequirement      = errors.New("no requirement selected")
	ErrStepIndex          = errors.New("step index out of range")
	ErrInvalidAction      = errors.New("unknown action")

	requirementPattern = regexp.MustCompile(`^R\d{3}$`)
)

// Book is owned by a single recorder and is not safe for concurrent use.
type Book struct {
	casePrefix    string
	now           func() time.Time
	preconditions []entity.Step
	business      []entity.Step
	current       string
	inBusiness    bool
}

func New(casePrefix string) *Book {
	if casePrefix == "" {
		casePrefix = "Case"
	}

	return &Book{casePrefix: casePrefix, now: time.Now}
}

// ValidRequirement reports whether id has the R + three digits form.
func ValidRequirement(id string) bool {
	return requirementPattern.MatchString(id)
}

// BeginBusiness closes the precondition phase. It is idempotent.
func (b *Book) BeginBusiness() {
	b.inBusiness = true
}

func (b *Book) InPreconditions() bool {
	return !b.inBusiness
}

func (b *Book) HasRequirement(id string) bool {
	for _, s := range b.business {
		if s.Requirement == id {
			return true
		}
	}

	return id != "" && id == b.current
}

// SetRequirement makes id the target of subsequent business steps. Selecting an
// existing requirement continues its numbering.
func (b *Book) SetRequirement(id string) error {
	if !ValidRequirement(id) {
		return fmt.Errorf("%w: %q", ErrInvalidRequirement, id)
	}

	b.inBusiness = true
	b.current = id

	return nil
}

func (b *Book) Current() string {
	return b.current
}

// Add numbers and stores a step.
func (b *Book) Add(draft entity.StepDraft) (entity.Step, error) {
	if !draft.Action.Valid() {
		return entity.Step{}, fmt.Errorf("%w: %q", ErrInvalidAction, draft.Action)
	}

	step := entity.Step{
		Action:      draft.Action,
		Name:        draft.Name,
		Input:       draft.Input,
		WindowIndex: draft.WindowIndex,
		Locators:    draft.Locators,
		RecordedAt:  b.now(),
	}

	if !b.inBusiness {
		step.Phase = entity.PhasePrecondition
		step.Number = fmt.Sprintf("P%03d", len(b.preconditions)+1)
		step.ID = preconditionPrefix + "_" + step.Number
		b.preconditions = append(b.preconditions, step)

		return step, nil
	}

	if b.current == "" {
		return entity.Step{}, ErrNoRequirement
	}

	step.Phase = entity.PhaseBusiness
	step.Requirement = b.current
	b.business = append(b.business, step)
	b.renumber()

	return b.business[len(b.business)-1], nil
}

// Remove deletes the business step at index (in recording order) and renumbers the
// remaining steps of every requirement.
func (b *Book) Remove(index int) (entity.Step, error) {
	if index < 0 || index >= len(b.business) {
		return entity.Step{}, fmt.Errorf("%w: %d of %d", ErrStepIndex, index+1, len(b.business))
	}

	removed := b.business[index]
	b.business = append(b.business[:index:index], b.business[index+1:]...)
	b.renumber()

	return removed, nil
}

// RemovePrecondition deletes a precondition step and renumbers the rest.
func (b *Book) RemovePrecondition(index int) (entity.Step, error) {
	if index < 0 || index >= len(b.preconditions) {
		return entity.Step{}, fmt.Errorf("%w: %d of %d", ErrStepIndex, index+1, len(b.preconditions))
	}

	removed := b.preconditions[index]
	b.preconditions = append(b.preconditions[:index:index], b.preconditions[index+1:]...)

	for i := range b.preconditions {
		b.preconditions[i].Number = fmt.Sprintf("P%03d", i+1)
		b.preconditions[i].ID = preconditionPrefix + "_" + b.preconditions[i].Number
	}

	return removed, nil
}

func (b *Book) renumber() {
	counters := make(map[string]int)

	for i := range b.business {
		s := &b.business[i]
		counters[s.Requirement]++
		s.Number = fmt.Sprintf("%03d", counters[s.Requirement])
		s.ID = fmt.Sprintf("%s_%s_%s", b.casePrefix, s.Requirement, s.Number)
	}
}

func (b *Book) Preconditions() []entity.Step {
	return append([]entity.Step(nil), b.preconditions...)
}

// Steps returns business steps in recording order.
func (b *Book) Steps() []entity.Step {
	return append([]entity.Step(nil), b.business...)
}

// Grouped returns business steps by requirement, requirements sorted by id.
func (b *Book) Grouped() []entity.RequirementSteps {
	index := make(map[string]int)
	var groups []entity.RequirementSteps

	for _, s := range b.business {
		i, ok := index[s.Requirement]
		if !ok {
			i = len(groups)
			index[s.Requirement] = i
			groups = append(groups, entity.RequirementSteps{Requirement: s.Requirement})
		}
		groups[i].Steps = append(groups[i].Steps, s)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Requirement < groups[j].Requirement
	})

	return groups
}

// Scenario snapshots the book for persistence.
func (b *Book) Scenario(sessionID, startURL string) *entity.Scenario {
	return &entity.Scenario{
		SessionID:     sessionID,
		StartURL:      startURL,
		CasePrefix:    b.casePrefix,
		CreatedAt:     b.now(),
		Preconditions: b.Preconditions(),
		Requirements:  b.Grouped(),
	}
}

// Restore replaces the book contents with a saved scenario and continues recording
// business steps after it.
func (b *Book) Restore(s *entity.Scenario) {
	b.preconditions = append([]entity.Step(nil), s.Preconditions...)
	b.business = nil

	for _, req := range s.Requirements {
		b.business = append(b.business, req.Steps...)
		b.current = req.Requirement
	}

	if s.CasePrefix != "" {
		b.casePrefix = s.CasePrefix
	}

	b.inBusiness = len(b.business) > 0
	b.renumber()
}

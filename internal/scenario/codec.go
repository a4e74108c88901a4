package scenario

import (
	"errors"
	"fmt"
	"io"
	"time"

	"ui-recorder/internal/entity"

	"gopkg.in/yaml.v3"
)

var ErrMalformedScenario = errors.New("malformed scenario")

type fileDTO struct {
	SessionID     string           `yaml:"session_id"`
	StartURL      string           `yaml:"start_url"`
	CasePrefix    string           `yaml:"case_prefix"`
	CreatedAt     time.Time        `yaml:"created_at"`
	Preconditions []stepDTO        `yaml:"preconditions"`
	Requirements  []requirementDTO `yaml:"requirements"`
}

type requirementDTO struct {
	ID    string    `yaml:"id"`
	Steps []stepDTO `yaml:"steps"`
}

type stepDTO struct {
	ID         string    `yaml:"id"`
	Number     string    `yaml:"number"`
	Action     string    `yaml:"action"`
	Name       string    `yaml:"name"`
	Input      string    `yaml:"input,omitempty"`
	Window     *int      `yaml:"window,omitempty"`
	Primary    string    `yaml:"primary,omitempty"`
	Alternates []string  `yaml:"alternates,omitempty"`
	RecordedAt time.Time `yaml:"recorded_at"`
}

// Encode writes the scenario as YAML.
func Encode(w io.Writer, s *entity.Scenario) error {
	dto := fileDTO{
		SessionID:  s.SessionID,
		StartURL:   s.StartURL,
		CasePrefix: s.CasePrefix,
		CreatedAt:  s.CreatedAt,
	}

	for _, step := range s.Preconditions {
		dto.Preconditions = append(dto.Preconditions, toStepDTO(step))
	}

	for _, req := range s.Requirements {
		r := requirementDTO{ID: req.Requirement}
		for _, step := range req.Steps {
			r.Steps = append(r.Steps, toStepDTO(step))
		}
		dto.Requirements = append(dto.Requirements, r)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(&dto); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}

	return enc.Close()
}

// Decode reads a scenario written by Encode.
func Decode(r io.Reader) (*entity.Scenario, error) {
	var dto fileDTO

	if err := yaml.NewDecoder(r).Decode(&dto); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedScenario, err)
	}

	s := &entity.Scenario{
		SessionID:  dto.SessionID,
		StartURL:   dto.StartURL,
		CasePrefix: dto.CasePrefix,
		CreatedAt:  dto.CreatedAt,
	}

	for _, d := range dto.Preconditions {
		step, err := fromStepDTO(d, entity.PhasePrecondition, "")
		if err != nil {
			return nil, err
		}
		s.Preconditions = append(s.Preconditions, step)
	}

	for _, req := range dto.Requirements {
		group := entity.RequirementSteps{Requirement: req.ID}
		for _, d := range req.Steps {
			step, err := fromStepDTO(d, entity.PhaseBusiness, req.ID)
			if err != nil {
				return nil, err
			}
			group.Steps = append(group.Steps, step)
		}
		s.Requirements = append(s.Requirements, group)
	}

	return s, nil
}

func toStepDTO(s entity.Step) stepDTO {
	d := stepDTO{
		ID:         s.ID,
		Number:     s.Number,
		Action:     string(s.Action),
		Name:       s.Name,
		Input:      s.Input,
		RecordedAt: s.RecordedAt,
	}

	if s.Action == entity.ActionWindowSwitch {
		idx := s.WindowIndex
		d.Window = &idx

		return d
	}

	if !s.Locators.Primary.IsZero() {
		d.Primary = FormatLocator(s.Locators.Primary)
	}

	for _, alt := range s.Locators.Alternates {
		d.Alternates = append(d.Alternates, FormatLocator(alt))
	}

	return d
}

func fromStepDTO(d stepDTO, phase entity.StepPhase, requirement string) (entity.Step, error) {
	step := entity.Step{
		ID:          d.ID,
		Number:      d.Number,
		Phase:       phase,
		Requirement: requirement,
		Action:      entity.ActionKind(d.Action),
		Name:        d.Name,
		Input:       d.Input,
		RecordedAt:  d.RecordedAt,
	}

	if !step.Action.Valid() {
		return entity.Step{}, fmt.Errorf("%w: step %s has unknown action %q", ErrMalformedScenario, d.ID, d.Action)
	}

	if step.Action == entity.ActionWindowSwitch {
		if d.Window == nil {
			return entity.Step{}, fmt.Errorf("%w: step %s has no window index", ErrMalformedScenario, d.ID)
		}
		step.WindowIndex = *d.Window

		return step, nil
	}

	primary, err := ParseLocator(d.Primary)
	if err != nil {
		return entity.Step{}, fmt.Errorf("step %s primary: %w", d.ID, err)
	}
	step.Locators.Primary = primary

	for _, raw := range d.Alternates {
		alt, err := ParseLocator(raw)
		if err != nil {
			return entity.Step{}, fmt.Errorf("step %s alternate: %w", d.ID, err)
		}
		step.Locators.Alternates = append(step.Locators.Alternates, alt)
	}

	return step, nil
}

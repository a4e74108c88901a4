package scenario

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"ui-recorder/internal/entity"
)

const (
	byPrefix       = "By."
	byWindowSwitch = "WINDOW_SWITCH"
	windowPrefix   = "window_"
	noneLiteral    = "None"
)

var ErrMalformedRow = errors.New("malformed step row")

var rowEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteRow(s string) string {
	return `"` + rowEscaper.Replace(s) + `"`
}

// FormatStep renders one step as a parameter row:
//
//	("id", By.KIND, "expr", [(By.KIND, "expr"), ...], "action", "name", "input"|None)
func FormatStep(s entity.Step) string {
	kind, expr := string(s.Locators.Primary.Kind), s.Locators.Primary.Expression
	input := noneLiteral

	if s.Input != "" {
		input = quoteRow(s.Input)
	}

	if s.Action == entity.ActionWindowSwitch {
		kind, expr = byWindowSwitch, fmt.Sprintf("%s%d", windowPrefix, s.WindowIndex)
	}

	alts := make([]string, 0, len(s.Locators.Alternates))
	for _, alt := range s.Locators.Alternates {
		alts = append(alts, fmt.Sprintf("(%s%s, %s)", byPrefix, alt.Kind, quoteRow(alt.Expression)))
	}

	return fmt.Sprintf("(%s, %s%s, %s, [%s], %s, %s, %s)",
		quoteRow(s.ID), byPrefix, kind, quoteRow(expr),
		strings.Join(alts, ", "), quoteRow(string(s.Action)), quoteRow(s.Name), input)
}

// ParseStep reads a row written by FormatStep. Phase and requirement are not part of
// the row and are left to the caller.
func ParseStep(row string) (entity.Step, error) {
	p := &rowParser{src: []rune(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(row), ",")))}

	var (
		step     entity.Step
		kind     string
		expr     string
		alts     []entity.Locator
		input    string
		hasInput bool
	)

	err := p.sequence(
		func() error { return p.expect('(') },
		func() (err error) { step.ID, err = p.str(); return err },
		func() error { return p.expect(',') },
		func() (err error) { kind, err = p.byKind(); return err },
		func() error { return p.expect(',') },
		func() (err error) { expr, err = p.str(); return err },
		func() error { return p.expect(',') },
		func() (err error) { alts, err = p.alternates(); return err },
		func() error { return p.expect(',') },
		func() error {
			action, err := p.str()
			step.Action = entity.ActionKind(action)
			return err
		},
		func() error { return p.expect(',') },
		func() (err error) { step.Name, err = p.str(); return err },
		func() error { return p.expect(',') },
		func() (err error) { input, hasInput, err = p.optionalStr(); return err },
		func() error { return p.expect(')') },
		p.end,
	)
	if err != nil {
		return entity.Step{}, err
	}

	if !step.Action.Valid() {
		return entity.Step{}, fmt.Errorf("%w: unknown action %q", ErrMalformedRow, step.Action)
	}

	if hasInput {
		step.Input = input
	}

	if kind == byWindowSwitch {
		idx, err := strconv.Atoi(strings.TrimPrefix(expr, windowPrefix))
		if err != nil || !strings.HasPrefix(expr, windowPrefix) {
			return entity.Step{}, fmt.Errorf("%w: bad window reference %q", ErrMalformedRow, expr)
		}
		step.WindowIndex = idx

		return step, nil
	}

	step.Locators.Primary = entity.Locator{Kind: entity.LocatorKind(kind), Expression: expr}
	if !step.Locators.Primary.Kind.Valid() {
		return entity.Step{}, fmt.Errorf("%w: unknown locator kind %q", ErrMalformedRow, kind)
	}
	step.Locators.Alternates = alts

	return step, nil
}

// RenderTable writes the scenario as parameter tables: one for the preconditions
// and one per requirement.
func RenderTable(s *entity.Scenario) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# session: %s\n# start_url: %s\n# created_at: %s\n\n",
		s.SessionID, s.StartURL, s.CreatedAt.Format("2006-01-02 15:04:05"))

	writeTable(&b, "PRECONDITION_DATA", s.Preconditions)

	for _, req := range s.Requirements {
		b.WriteString("\n")
		writeTable(&b, "TEST_DATA_"+req.Requirement, req.Steps)
	}

	return b.String()
}

func writeTable(b *strings.Builder, name string, steps []entity.Step) {
	b.WriteString(name + " = [\n")

	for _, s := range steps {
		b.WriteString("    " + FormatStep(s) + ",\n")
	}

	b.WriteString("]\n")
}

type rowParser struct {
	src []rune
	pos int
}

func (p *rowParser) sequence(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	return nil
}

func (p *rowParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *rowParser) peek() rune {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}

	return p.src[p.pos]
}

func (p *rowParser) fail(want string) error {
	return fmt.Errorf("%w: expected %s at offset %d", ErrMalformedRow, want, p.pos)
}

func (p *rowParser) expect(r rune) error {
	if p.peek() != r {
		return p.fail(strconv.QuoteRune(r))
	}
	p.pos++

	return nil
}

func (p *rowParser) end() error {
	if p.peek() != 0 {
		return p.fail("end of row")
	}

	return nil
}

func (p *rowParser) str() (string, error) {
	if err := p.expect('"'); err != nil {
		return "", err
	}

	var b strings.Builder
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		p.pos++

		switch r {
		case '\\':
			if p.pos >= len(p.src) {
				return "", p.fail("escaped character")
			}
			b.WriteRune(p.src[p.pos])
			p.pos++
		case '"':
			return b.String(), nil
		default:
			b.WriteRune(r)
		}
	}

	return "", p.fail(`closing '"'`)
}

func (p *rowParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] == '_' || p.src[p.pos] == '.' || unicode.IsLetter(p.src[p.pos]) || unicode.IsDigit(p.src[p.pos])) {
		p.pos++
	}

	return string(p.src[start:p.pos])
}

func (p *rowParser) byKind() (string, error) {
	id := p.ident()
	if !strings.HasPrefix(id, byPrefix) || len(id) == len(byPrefix) {
		return "", p.fail("By.KIND")
	}

	return strings.TrimPrefix(id, byPrefix), nil
}

func (p *rowParser) optionalStr() (string, bool, error) {
	if p.peek() == '"' {
		s, err := p.str()
		return s, true, err
	}

	if p.ident() != noneLiteral {
		return "", false, p.fail("string or None")
	}

	return "", false, nil
}

func (p *rowParser) alternates() ([]entity.Locator, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}

	var out []entity.Locator
	for {
		if p.peek() == ']' {
			p.pos++
			return out, nil
		}

		if len(out) > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}

		var (
			kind string
			expr string
		)

		err := p.sequence(
			func() error { return p.expect('(') },
			func() (err error) { kind, err = p.byKind(); return err },
			func() error { return p.expect(',') },
			func() (err error) { expr, err = p.str(); return err },
			func() error { return p.expect(')') },
		)
		if err != nil {
			return nil, err
		}

		loc := entity.Locator{Kind: entity.LocatorKind(kind), Expression: expr}
		if !loc.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown locator kind %q", ErrMalformedRow, kind)
		}
		out = append(out, loc)
	}
}

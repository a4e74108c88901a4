package scenario

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ui-recorder/internal/config"
	"ui-recorder/internal/entity"
	"ui-recorder/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sampleScenario() *entity.Scenario {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	return &entity.Scenario{
		SessionID:  "6f1c2f0e-4a2b-4d7a-9d7e-3f1b2c3d4e5f",
		StartURL:   "https://flights.example.com/",
		CasePrefix: "CtripFlight",
		CreatedAt:  at,
		Preconditions: []entity.Step{{
			ID: "PreCondition_P001", Number: "P001", Phase: entity.PhasePrecondition,
			Action: entity.ActionClick, Name: "机票", RecordedAt: at,
			Locators: entity.RankedLocatorSet{
				Primary: entity.Locator{Kind: entity.LocatorLinkText, Expression: "机票"},
			},
		}},
		Requirements: []entity.RequirementSteps{{
			Requirement: "R001",
			Steps: []entity.Step{
				{
					ID: "CtripFlight_R001_001", Number: "001", Phase: entity.PhaseBusiness, Requirement: "R001",
					Action: entity.ActionInput, Name: "输入框", Input: `上海 "浦东"`, RecordedAt: at,
					Locators: entity.RankedLocatorSet{
						Primary: entity.Locator{Kind: entity.LocatorName, Expression: "owDCity"},
						Alternates: []entity.Locator{
							{Kind: entity.LocatorCSS, Expression: "input[name='owDCity']"},
							{Kind: entity.LocatorCSS, Expression: `input[placeholder='a\'b']`},
						},
					},
				},
				{
					ID: "CtripFlight_R001_002", Number: "002", Phase: entity.PhaseBusiness, Requirement: "R001",
					Action: entity.ActionWindowSwitch, Name: "切换到窗口0", Input: "首页", WindowIndex: 0, RecordedAt: at,
				},
			},
		}},
	}
}

func TestParseLocator(t *testing.T) {
	loc := entity.Locator{Kind: entity.LocatorXPath, Expression: `//span[text()="Tom's"]`}

	got, err := ParseLocator(FormatLocator(loc))
	require.NoError(t, err)
	assert.Equal(t, loc, got)

	for _, bad := range []string{"", "CSS_SELECTOR", `ID "x"`, `CSS_SELECTOR x`} {
		_, err := ParseLocator(bad)
		assert.ErrorIs(t, err, ErrMalformedLocator, bad)
	}
}

func TestFormatStep(t *testing.T) {
	sc := sampleScenario()
	input := sc.Requirements[0].Steps[0]
	window := sc.Requirements[0].Steps[1]

	assert.Equal(t,
		`("CtripFlight_R001_001", By.NAME, "owDCity", [(By.CSS_SELECTOR, "input[name='owDCity']"), (By.CSS_SELECTOR, "input[placeholder='a\\'b']")], "input", "输入框", "上海 \"浦东\"")`,
		FormatStep(input))

	assert.Equal(t,
		`("CtripFlight_R001_002", By.WINDOW_SWITCH, "window_0", [], "window_switch", "切换到窗口0", "首页")`,
		FormatStep(window))

	assert.Equal(t,
		`("PreCondition_P001", By.LINK_TEXT, "机票", [], "click", "机票", None)`,
		FormatStep(sc.Preconditions[0]))
}

func TestParseStep(t *testing.T) {
	sc := sampleScenario()

	for _, want := range sc.Steps() {
		got, err := ParseStep(FormatStep(want) + ",")
		require.NoError(t, err, want.ID)

		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Action, got.Action)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Input, got.Input)
		assert.Equal(t, want.WindowIndex, got.WindowIndex)
		assert.Equal(t, want.Locators.Primary, got.Locators.Primary)
		assert.Equal(t, want.Locators.Alternates, got.Locators.Alternates)
	}
}

func TestParseStepRejectsMalformedRows(t *testing.T) {
	rows := []string{
		``,
		`("id", By.NAME, "q", [], "click", "n")`,
		`("id", By.ID, "q", [], "click", "n", None)`,
		`("id", By.NAME, "q", [], "drag", "n", None)`,
		`("id", By.WINDOW_SWITCH, "tab_1", [], "window_switch", "n", None)`,
		`("id", By.NAME, "q", [(By.NAME "x")], "click", "n", None)`,
		`("id", By.NAME, "q", [], "click", "n", None) extra`,
		`("id, By.NAME`,
	}

	for _, row := range rows {
		_, err := ParseStep(row)
		assert.ErrorIs(t, err, ErrMalformedRow, row)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	want := sampleScenario()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want))
	assert.Contains(t, buf.String(), "session_id: "+want.SessionID)

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeRejectsBadLocators(t *testing.T) {
	doc := `
session_id: s
requirements:
  - id: R001
    steps:
      - id: Case_R001_001
        action: click
        name: x
        primary: BOGUS "x"
`
	_, err := Decode(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrMalformedLocator)

	_, err = Decode(strings.NewReader("preconditions: [{id: P, action: window_switch, name: w}]"))
	assert.ErrorIs(t, err, ErrMalformedScenario)
}

func TestRenderTable(t *testing.T) {
	table := RenderTable(sampleScenario())

	assert.Contains(t, table, "PRECONDITION_DATA = [\n    (\"PreCondition_P001\"")
	assert.Contains(t, table, "TEST_DATA_R001 = [\n")
	assert.Equal(t, 3, strings.Count(table, "    ("))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(Params{
		Config: &config.Config{RecorderConfig: &config.RecorderConfig{
			ScenarioFile: filepath.Join(dir, "out", "scenario.yaml"),
			TableFile:    filepath.Join(dir, "out", "scenario.steps"),
		}},
		Logger: zaptest.NewLogger(t),
	})
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	want := sampleScenario()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	table, err := os.ReadFile(filepath.Join(dir, "out", "scenario.steps"))
	require.NoError(t, err)
	assert.Contains(t, string(table), "TEST_DATA_R001")
}

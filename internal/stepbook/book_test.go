package stepbook

import (
	"testing"

	"ui-recorder/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func click(name string) entity.StepDraft {
	return entity.StepDraft{
		Action: entity.ActionClick,
		Name:   name,
		Locators: entity.RankedLocatorSet{
			Primary: entity.Locator{Kind: entity.LocatorXPath, Expression: "//a[text()='" + name + "']"},
		},
	}
}

func ids(steps []entity.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}

	return out
}

func TestBook_PreconditionsThenRequirements(t *testing.T) {
	b := New("CtripFlight")

	p1, err := b.Add(click("登录"))
	require.NoError(t, err)
	assert.Equal(t, "PreCondition_P001", p1.ID)
	assert.Equal(t, entity.PhasePrecondition, p1.Phase)

	_, err = b.Add(click("机票"))
	require.NoError(t, err)

	b.BeginBusiness()
	_, err = b.Add(click("搜索"))
	assert.ErrorIs(t, err, ErrNoRequirement)

	require.NoError(t, b.SetRequirement("R001"))
	s1, err := b.Add(click("单程"))
	require.NoError(t, err)
	assert.Equal(t, "CtripFlight_R001_001", s1.ID)
	assert.Equal(t, "R001", s1.Requirement)

	require.NoError(t, b.SetRequirement("R002"))
	s2, err := b.Add(entity.StepDraft{Action: entity.ActionInput, Name: "出发城市", Input: "上海"})
	require.NoError(t, err)
	assert.Equal(t, "CtripFlight_R002_001", s2.ID)

	require.NoError(t, b.SetRequirement("R001"))
	s3, err := b.Add(click("往返"))
	require.NoError(t, err)
	assert.Equal(t, "CtripFlight_R001_002", s3.ID)

	assert.Equal(t, []string{"PreCondition_P001", "PreCondition_P002"}, ids(b.Preconditions()))
	assert.Equal(t, []string{"CtripFlight_R001_001", "CtripFlight_R002_001", "CtripFlight_R001_002"}, ids(b.Steps()))

	groups := b.Grouped()
	require.Len(t, groups, 2)
	assert.Equal(t, "R001", groups[0].Requirement)
	assert.Equal(t, []string{"CtripFlight_R001_001", "CtripFlight_R001_002"}, ids(groups[0].Steps))
	assert.Equal(t, "R002", groups[1].Requirement)
}

func TestBook_SetRequirementValidates(t *testing.T) {
	b := New("")

	for _, bad := range []string{"", "R1", "R0001", "r001", "X001", "R00a"} {
		assert.ErrorIs(t, b.SetRequirement(bad), ErrInvalidRequirement, bad)
	}

	assert.True(t, b.InPreconditions())
	require.NoError(t, b.SetRequirement("R010"))
	assert.False(t, b.InPreconditions())
	assert.True(t, b.HasRequirement("R010"))
	assert.False(t, b.HasRequirement("R011"))

	s, err := b.Add(click("x"))
	require.NoError(t, err)
	assert.Equal(t, "Case_R010_001", s.ID)
}

func TestBook_RemoveRenumbers(t *testing.T) {
	b := New("Case")
	b.BeginBusiness()

	require.NoError(t, b.SetRequirement("R001"))
	for _, name := range []string{"a", "b", "c"} {
		_, err := b.Add(click(name))
		require.NoError(t, err)
	}

	require.NoError(t, b.SetRequirement("R002"))
	_, err := b.Add(click("d"))
	require.NoError(t, err)

	removed, err := b.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, "a", removed.Name)

	steps := b.Steps()
	assert.Equal(t, []string{"Case_R001_001", "Case_R001_002", "Case_R002_001"}, ids(steps))
	assert.Equal(t, "b", steps[0].Name)
	assert.Equal(t, "002", steps[1].Number)

	_, err = b.Remove(3)
	assert.ErrorIs(t, err, ErrStepIndex)

	_, err = b.Remove(2)
	require.NoError(t, err)
	assert.Len(t, b.Grouped(), 1)
}

func TestBook_RemovePrecondition(t *testing.T) {
	b := New("Case")
	for _, name := range []string{"a", "b", "c"} {
		_, err := b.Add(click(name))
		require.NoError(t, err)
	}

	_, err := b.RemovePrecondition(1)
	require.NoError(t, err)

	pre := b.Preconditions()
	assert.Equal(t, []string{"PreCondition_P001", "PreCondition_P002"}, ids(pre))
	assert.Equal(t, "c", pre[1].Name)
}

func TestBook_RejectsUnknownAction(t *testing.T) {
	_, err := New("Case").Add(entity.StepDraft{Action: "drag"})

	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestBook_ScenarioRoundTrip(t *testing.T) {
	b := New("Case")
	_, err := b.Add(click("登录"))
	require.NoError(t, err)
	require.NoError(t, b.SetRequirement("R001"))
	_, err = b.Add(click("搜索"))
	require.NoError(t, err)

	sc := b.Scenario("sid", "https://flights.example.com")
	assert.Equal(t, "sid", sc.SessionID)
	assert.Len(t, sc.Steps(), 2)

	restored := New("Other")
	restored.Restore(sc)
	assert.Equal(t, "R001", restored.Current())

	next, err := restored.Add(click("往返"))
	require.NoError(t, err)
	assert.Equal(t, "Case_R001_002", next.ID)
}

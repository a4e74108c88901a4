package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ui-recorder/internal/entity"
	"ui-recorder/internal/ports"
	"ui-recorder/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_OpenKeepsFirstURLAsStart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.recorder.Open(ctx, "example.com"))
	require.NoError(t, h.recorder.Open(ctx, "https://example.com/other"))

	assert.Equal(t, 1, h.browser.launches)
	assert.Equal(t, []string{"https://example.com", "https://example.com/other"}, h.browser.navigated)
	assert.Equal(t, "https://example.com", h.recorder.startURL)

	err := h.recorder.Open(ctx, "")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestRecorder_ClickByText(t *testing.T) {
	h := newHarness(t)
	h.browser.exact["搜索"] = []ports.Element{button("searchBtn", "搜索")}

	step, err := h.recorder.ClickByText(context.Background(), "搜索")
	require.NoError(t, err)

	assert.Equal(t, "PreCondition_P001", step.ID)
	assert.Equal(t, entity.ActionClick, step.Action)
	assert.Equal(t, "搜索", step.Name)
	assert.False(t, step.Locators.Primary.IsZero())
	assert.Equal(t, []string{"click:searchBtn"}, h.browser.Actions())
	assert.Len(t, h.recorder.Preconditions(), 1)
}

func TestRecorder_ClickByTextFallsBackToContains(t *testing.T) {
	h := newHarness(t)
	h.browser.contains["Sea"] = []ports.Element{button("searchBtn", "Search")}

	_, err := h.recorder.ClickByText(context.Background(), "Sea")
	require.NoError(t, err)

	assert.Equal(t, []string{"click:searchBtn"}, h.browser.Actions())
}

func TestRecorder_ClickByTextChoosesAmongMatches(t *testing.T) {
	h := newHarness(t)
	h.browser.exact["OK"] = []ports.Element{button("ok1", "OK"), button("ok2", "OK")}
	h.prompter.choices = []int{1}

	_, err := h.recorder.ClickByText(context.Background(), "OK")
	require.NoError(t, err)

	require.Len(t, h.prompter.options, 1)
	assert.Equal(t, []string{"<ok1>", "<ok2>"}, h.prompter.options[0])
	assert.Equal(t, []string{"click:ok2"}, h.browser.Actions())
}

func TestRecorder_ClickByTextNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.recorder.ClickByText(context.Background(), "missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = h.recorder.ClickByText(context.Background(), "  ")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	assert.Empty(t, h.recorder.Preconditions())
}

func TestRecorder_TextFieldRecordsInput(t *testing.T) {
	h := newHarness(t)
	h.browser.exact["出发城市"] = []ports.Element{textInput("owDCity")}
	h.prompter.answers = []string{"北京"}

	step, err := h.recorder.ClickByText(context.Background(), "出发城市")
	require.NoError(t, err)

	assert.Equal(t, entity.ActionInput, step.Action)
	assert.Equal(t, "北京", step.Input)
	assert.Equal(t, entity.Locator{Kind: entity.LocatorName, Expression: "owDCity"}, step.Locators.Primary)
	assert.Equal(t, []string{"fill:owDCity=北京"}, h.browser.Actions())
}

func TestRecorder_CancelledPromptRecordsNothing(t *testing.T) {
	h := newHarness(t)
	h.browser.exact["城市"] = []ports.Element{textInput("city")}

	_, err := h.recorder.ClickByText(context.Background(), "城市")
	assert.Equal(t, apperr.CodeCancelledByUser, apperr.CodeOf(err))
	assert.Empty(t, h.recorder.Preconditions())
	assert.Empty(t, h.browser.Actions())
}

func TestRecorder_ClickFollowsNewPage(t *testing.T) {
	h := newHarness(t)
	h.browser.exact["Docs"] = []ports.Element{button("docs", "Docs")}
	h.browser.opensPage["docs"] = true

	_, err := h.recorder.ClickByText(context.Background(), "Docs")
	require.NoError(t, err)

	assert.Equal(t, 1, h.browser.current)
}

func TestRecorder_RecordInput(t *testing.T) {
	h := newHarness(t)
	h.browser.inputs = []ports.Element{textInput("user"), textInput("pass")}
	h.prompter.choices = []int{1}
	h.prompter.answers = []string{"secret"}

	step, err := h.recorder.RecordInput(context.Background(), "密码")
	require.NoError(t, err)

	assert.Equal(t, entity.ActionInput, step.Action)
	assert.Equal(t, "密码", step.Name)
	assert.Equal(t, []string{"fill:pass=secret"}, h.browser.Actions())
}

func TestRecorder_RecordCustom(t *testing.T) {
	h := newHarness(t)
	h.browser.css[".login > a"] = []ports.Element{button("login", "登录")}
	h.prompter.answers = []string{"登录按钮", ".login > a"}

	step, err := h.recorder.RecordCustom(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.ActionClick, step.Action)
	assert.Equal(t, "登录按钮", step.Name)
	assert.Equal(t, entity.RankedLocatorSet{Primary: css(".login > a")}, step.Locators)
	assert.Equal(t, []string{"click:login"}, h.browser.Actions())
}

func TestRecorder_RecordCustomMissingElement(t *testing.T) {
	h := newHarness(t)
	h.prompter.answers = []string{"登录按钮", ".nothing"}

	_, err := h.recorder.RecordCustom(context.Background())
	assert.Equal(t, apperr.CodeElementNotFound, apperr.CodeOf(err))

	h.prompter.answers = []string{"", ".x"}
	_, err = h.recorder.RecordCustom(context.Background())
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestRecorder_RecordHover(t *testing.T) {
	t.Run("by text", func(t *testing.T) {
		h := newHarness(t)
		h.browser.exact["菜单"] = []ports.Element{button("menu", "菜单")}
		h.prompter.choices = []int{1}
		h.prompter.answers = []string{"菜单"}

		step, err := h.recorder.RecordHover(context.Background())
		require.NoError(t, err)

		assert.Equal(t, entity.ActionHover, step.Action)
		assert.False(t, step.Locators.Primary.IsZero())
		assert.Equal(t, []string{"hover:menu"}, h.browser.Actions())
	})

	t.Run("by css", func(t *testing.T) {
		h := newHarness(t)
		h.browser.css["#nav"] = []ports.Element{button("nav", "")}
		h.prompter.choices = []int{0}
		h.prompter.answers = []string{"导航", "#nav"}

		step, err := h.recorder.RecordHover(context.Background())
		require.NoError(t, err)

		assert.Equal(t, css("#nav"), step.Locators.Primary)
		assert.Equal(t, "导航", step.Name)
		assert.Equal(t, []string{"hover:nav"}, h.browser.Actions())
	})
}

func TestRecorder_RecordWindowSwitch(t *testing.T) {
	h := newHarness(t)
	h.browser.pages = append(h.browser.pages, entity.WindowInfo{Index: 1, Title: "Second", URL: "https://example.com/2"})
	h.prompter.choices = []int{1}

	step, err := h.recorder.RecordWindowSwitch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.ActionWindowSwitch, step.Action)
	assert.Equal(t, 1, step.WindowIndex)
	assert.Equal(t, "Second", step.Input)
	assert.True(t, step.Locators.Primary.IsZero())
	assert.Equal(t, []string{"Home | https://example.com/ (current)", "Second | https://example.com/2"}, h.prompter.options[0])
	assert.Equal(t, 1, h.browser.current)
}

func TestRecorder_BeginBusiness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.recorder.BeginBusiness(ctx, "R1")
	assert.Equal(t, apperr.CodeInvalidRequirement, apperr.CodeOf(err))
	assert.True(t, h.recorder.InPreconditions())

	require.NoError(t, h.recorder.BeginBusiness(ctx, "R001"))
	assert.False(t, h.recorder.InPreconditions())
	assert.Equal(t, "R001", h.recorder.CurrentRequirement())

	err = h.recorder.BeginBusiness(ctx, "R002")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	h.browser.exact["搜索"] = []ports.Element{button("searchBtn", "搜索")}
	step, err := h.recorder.ClickByText(ctx, "搜索")
	require.NoError(t, err)
	assert.Equal(t, "Case_R001_001", step.ID)
}

func TestRecorder_StartRequirementReplaysPreconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.recorder.Open(ctx, "https://example.com"))

	login := button("login", "登录")
	h.browser.exact["登录"] = []ports.Element{login}
	pre, err := h.recorder.ClickByText(ctx, "登录")
	require.NoError(t, err)
	h.browser.present[pre.Locators.Primary] = login

	require.NoError(t, h.recorder.BeginBusiness(ctx, "R001"))

	h.browser.exact["搜索"] = []ports.Element{button("searchBtn", "搜索")}
	_, err = h.recorder.ClickByText(ctx, "搜索")
	require.NoError(t, err)

	require.NoError(t, h.recorder.StartRequirement(ctx, "R002"))

	assert.Equal(t, 1, h.browser.closes)
	assert.Equal(t, 2, h.browser.launches)
	assert.Equal(t, []string{"https://example.com", "https://example.com"}, h.browser.navigated)
	assert.Equal(t, []string{"click:login", "click:searchBtn", "click:login"}, h.browser.Actions())
	assert.Equal(t, "R002", h.recorder.CurrentRequirement())
	assert.True(t, h.recorder.HasRequirement("R001"))
	assert.Empty(t, h.browser.screenshots)

	err = h.recorder.StartRequirement(ctx, "bad")
	assert.Equal(t, apperr.CodeInvalidRequirement, apperr.CodeOf(err))
}

func TestRecorder_StartRequirementNeedsStartURL(t *testing.T) {
	h := newHarness(t)

	err := h.recorder.StartRequirement(context.Background(), "R001")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestRecorder_RemoveStep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.browser.exact["A"] = []ports.Element{button("a", "A")}
	h.browser.exact["B"] = []ports.Element{button("b", "B")}

	_, err := h.recorder.ClickByText(ctx, "A")
	require.NoError(t, err)

	removed, err := h.recorder.RemoveStep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "PreCondition_P001", removed.ID)
	assert.Empty(t, h.recorder.Preconditions())

	require.NoError(t, h.recorder.BeginBusiness(ctx, "R001"))
	_, err = h.recorder.ClickByText(ctx, "A")
	require.NoError(t, err)
	_, err = h.recorder.ClickByText(ctx, "B")
	require.NoError(t, err)

	removed, err = h.recorder.RemoveStep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "A", removed.Name)

	steps := h.recorder.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, "Case_R001_001", steps[0].ID)

	_, err = h.recorder.RemoveStep(ctx, 5)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestRecorder_SaveAndResume(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.recorder.Open(ctx, "https://example.com"))
	h.browser.exact["登录"] = []ports.Element{button("login", "登录")}
	_, err := h.recorder.ClickByText(ctx, "登录")
	require.NoError(t, err)
	require.NoError(t, h.recorder.BeginBusiness(ctx, "R001"))
	_, err = h.recorder.ClickByText(ctx, "登录")
	require.NoError(t, err)

	sc, err := h.recorder.Save(ctx)
	require.NoError(t, err)
	assert.Same(t, sc, h.store.saved)
	assert.Equal(t, "https://example.com", sc.StartURL)
	assert.Equal(t, h.recorder.sessionID, sc.SessionID)
	assert.Len(t, sc.Steps(), 2)

	other := newHarness(t)
	other.store.saved = sc

	restored, err := other.recorder.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, sc.SessionID, restored.SessionID)
	assert.Equal(t, "https://example.com", other.recorder.startURL)
	assert.Len(t, other.recorder.Preconditions(), 1)
	assert.Len(t, other.recorder.Steps(), 1)
	assert.Equal(t, "R001", other.recorder.CurrentRequirement())
}

func TestRecorder_ResumeWithoutScenario(t *testing.T) {
	h := newHarness(t)

	_, err := h.recorder.Resume(context.Background())
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestRecorder_SavePage(t *testing.T) {
	h := newHarness(t)
	h.browser.html = "<html><body><p>hi</p></body></html>"
	path := filepath.Join(t.TempDir(), "pages", "home.html")

	require.NoError(t, h.recorder.SavePage(context.Background(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, h.browser.html, string(data))
}

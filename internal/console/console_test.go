package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"ui-recorder/internal/config"
	"ui-recorder/internal/entity"
	"ui-recorder/internal/ports"
	"ui-recorder/internal/usecase"
	"ui-recorder/internal/usecase/adapters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPrompter_Ask(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("  北京  \n"), &out)

	answer, err := p.Ask(context.Background(), "City")
	require.NoError(t, err)

	assert.Equal(t, "北京", answer)
	assert.Equal(t, "City: ", out.String())

	_, err = p.Ask(context.Background(), "Again")
	assert.ErrorIs(t, err, ports.ErrPromptCancelled)
}

func TestPrompter_Choose(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("0\nabc\n2\nq\n"), &out)

	idx, err := p.Choose(context.Background(), "Pick", []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, strings.Count(out.String(), "Invalid choice."))
	assert.Contains(t, out.String(), "  2. second")

	_, err = p.Choose(context.Background(), "Pick", []string{"first"})
	assert.ErrorIs(t, err, ports.ErrPromptCancelled)

	_, err = p.Choose(context.Background(), "Empty", nil)
	assert.Error(t, err)
}

func TestPrompter_CancelledContext(t *testing.T) {
	p := newPrompter(strings.NewReader("x\n"), &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Ask(ctx, "Q")
	assert.ErrorIs(t, err, context.Canceled)
}

// fakeRecorder panics on anything a test did not expect to be called.
type fakeRecorder struct {
	adapters.RecorderService

	calls []string
}

func (f *fakeRecorder) Open(_ context.Context, url string) error {
	f.calls = append(f.calls, "open "+url)

	return nil
}

func (f *fakeRecorder) ClickByText(_ context.Context, text string) (*entity.Step, error) {
	f.calls = append(f.calls, "click "+text)

	return &entity.Step{ID: "PreCondition_P001", Action: entity.ActionClick, Name: text}, nil
}

func (f *fakeRecorder) RecordInput(_ context.Context, name string) (*entity.Step, error) {
	f.calls = append(f.calls, "input "+name)

	return &entity.Step{ID: "PreCondition_P001", Action: entity.ActionInput, Name: name}, nil
}

func (f *fakeRecorder) RecordHover(context.Context) (*entity.Step, error) {
	f.calls = append(f.calls, "hover")

	return &entity.Step{ID: "PreCondition_P001", Action: entity.ActionHover}, nil
}

func (f *fakeRecorder) RecordWindowSwitch(context.Context) (*entity.Step, error) {
	f.calls = append(f.calls, "window")

	return &entity.Step{ID: "PreCondition_P001", Action: entity.ActionWindowSwitch}, nil
}

func newTestInterface(t *testing.T, input string, rec *fakeRecorder) (*Interface, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	return &Interface{
		config: &config.Config{RecorderConfig: &config.RecorderConfig{
			InputKeywords:  []string{"输入框", "input"},
			CustomKeywords: []string{"custom"},
			HoverKeywords:  []string{"悬浮", "hover"},
			WindowKeywords: []string{"窗口"},
			ExitKeywords:   []string{"quit", "exit", "退出"},
		}},
		logger:   zaptest.NewLogger(t),
		usecase:  &usecase.Service{Recorder: rec},
		prompter: newPrompter(strings.NewReader(input), &out),
		out:      &out,
		ctx:      context.Background(),
		cancel:   func() {},
	}, &out
}

func TestInterface_Dispatch(t *testing.T) {
	rec := &fakeRecorder{}
	i, out := newTestInterface(t, "用户名\n", rec)

	require.NoError(t, i.handleCommand("open example.com"))
	require.NoError(t, i.handleCommand("输入框"))
	require.NoError(t, i.handleCommand("HOVER"))
	require.NoError(t, i.handleCommand("窗口"))
	require.NoError(t, i.handleCommand("立即搜索"))

	assert.Equal(t, []string{"open example.com", "input 用户名", "hover", "window", "click 立即搜索"}, rec.calls)
	assert.Contains(t, out.String(), `Recorded PreCondition_P001: click "立即搜索"`)
}

func TestInterface_ExitKeywords(t *testing.T) {
	i, _ := newTestInterface(t, "", &fakeRecorder{})

	for _, kw := range []string{"exit", "退出", "QUIT"} {
		assert.ErrorIs(t, i.handleCommand(kw), errExit, kw)
	}
}

func TestMatchesKeyword(t *testing.T) {
	keywords := []string{"输入框", " Input "}

	assert.True(t, matchesKeyword(keywords, "输入框"))
	assert.True(t, matchesKeyword(keywords, "input"))
	assert.False(t, matchesKeyword(keywords, "输入"))
	assert.False(t, matchesKeyword(nil, "input"))
}

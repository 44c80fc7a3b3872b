package cli

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/todo"
)

func keys(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m tuiModel, msgs ...tea.Msg) tuiModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(tuiModel)
		require.True(t, ok)
	}
	return m
}

func newTestTUI(t *testing.T, seed ...string) (tuiModel, *todo.Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	st := todo.NewStore()
	for _, s := range seed {
		_, ok := st.AddTodo(ctx, s)
		require.True(t, ok)
	}
	return newTUIModel(ctx, st, func() error { return nil }), st
}

func TestTUI_AddAndEdit(t *testing.T) {
	m, st := newTestTUI(t)

	m = send(t, m, keys("a"), keys("Buy milk"), keys("enter"))
	assert.False(t, m.adding)
	require.Equal(t, 1, st.Len())
	assert.Equal(t, "Buy milk", st.Todos()[0].Text)
	assert.Len(t, m.list.Items(), 1)
	assert.True(t, m.changed)

	m = send(t, m, keys("e"), keys("!"), keys("enter"))
	assert.Equal(t, "Buy milk!", st.Todos()[0].Text)
}

func TestTUI_EmptyInputIsRejected(t *testing.T) {
	m, st := newTestTUI(t)

	m = send(t, m, keys("a"), keys("   "), keys("enter"))
	assert.True(t, m.adding)
	assert.Equal(t, "Text cannot be empty", m.tiErr)
	assert.Zero(t, st.Len())

	m = send(t, m, keys("esc"))
	assert.False(t, m.adding)
	assert.Empty(t, m.tiErr)
}

func TestTUI_ToggleDeleteClear(t *testing.T) {
	m, st := newTestTUI(t, "one", "two", "three")

	m = send(t, m, keys(" "))
	assert.True(t, st.Todos()[0].Completed)

	m = send(t, m, keys("d"))
	assert.Equal(t, []string{"two", "three"}, texts(st.Todos()))

	m = send(t, m, keys(" "))
	m = send(t, m, keys("c"))
	assert.Equal(t, []string{"three"}, texts(st.Todos()))
	assert.Len(t, m.list.Items(), 1)
}

func TestTUI_FollowsExternalChanges(t *testing.T) {
	m, st := newTestTUI(t)
	unsubscribe := st.Subscribe(m.publish)
	defer unsubscribe()

	ctx := context.Background()
	st.AddTodo(ctx, "first")
	st.AddTodo(ctx, "second")

	// Only the latest list is kept for the UI loop.
	msg := m.waitForChange()
	l, ok := msg.(storeMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"first", "second"}, texts(todo.List(l)))

	m = send(t, m, msg)
	assert.Len(t, m.list.Items(), 2)
}

func TestTUI_QuitKeys(t *testing.T) {
	m, _ := newTestTUI(t)
	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestTUI_SaveErrorClearsAfterSuccessfulSave(t *testing.T) {
	m, _ := newTestTUI(t, "one")
	results := []error{errors.New("disk full"), nil}
	m.failed = func() error {
		err := results[0]
		results = results[1:]
		return err
	}

	m = send(t, m, keys(" "))
	require.Error(t, m.saveErr)
	assert.Contains(t, m.saveErr.Error(), "disk full")

	m = send(t, m, keys(" "))
	assert.NoError(t, m.saveErr)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/storage/jsonstore"
	"github.com/Makepad-fr/tada/internal/todo"
	"github.com/Makepad-fr/tada/internal/ui"
)

// listItem adapts a todo to bubbles/list.Item.
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string       { return i.todo.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Text }

// storeMsg carries a list published by the store.
type storeMsg todo.List

type tuiModel struct {
	ctx     context.Context
	st      *todo.Store
	changes chan todo.List
	failed  func() error

	list    list.Model
	ti      textinput.Model
	adding  bool
	editing bool
	editID  int64
	tiErr   string
	changed bool
	saveErr error // result of the latest save

	width, height int
}

// Single-line rows.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()
	box, text := t.Muted.Render(t.BoxUnchecked), it.todo.Text
	if it.todo.Completed {
		box, text = t.Success.Render(t.BoxChecked), t.Done.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

var (
	addBind    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleBind = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	delBind    = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	clearBind  = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear done"))
)

func newTUIModel(ctx context.Context, st *todo.Store, failed func() error) tuiModel {
	t := ui.Current()
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = t.Title
	l.Styles.HelpStyle = t.Help
	l.Styles.PaginationStyle = t.Help
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	binds := func() []key.Binding { return []key.Binding{addBind, editBind, toggleBind, delBind, clearBind} }
	l.AdditionalShortHelpKeys = binds
	l.AdditionalFullHelpKeys = binds

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := tuiModel{
		ctx:     ctx,
		st:      st,
		changes: make(chan todo.List, 1),
		failed:  failed,
		list:    l,
		ti:      ti,
		width:   80,
		height:  24,
	}
	m.resize()
	m.refresh(st.Todos())
	return m
}

// publish hands the latest list to the UI loop, dropping any older one not
// yet picked up. It never blocks the dispatching goroutine.
func (m tuiModel) publish(l todo.List) {
	for {
		select {
		case m.changes <- l:
			return
		default:
		}
		select {
		case <-m.changes:
		default:
		}
	}
}

func (m tuiModel) waitForChange() tea.Msg {
	select {
	case l := <-m.changes:
		return storeMsg(l)
	case <-m.ctx.Done():
		return nil
	}
}

func (m *tuiModel) refresh(l todo.List) tea.Cmd {
	items := make([]list.Item, 0, len(l))
	for _, td := range l {
		items = append(items, listItem{todo: td})
	}
	t := ui.Current()
	dn, pn := l.Stats()
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), dn,
		t.Pending.Render(t.SymPending), pn,
		t.Accent.Render("Total"), len(l),
	)
	return m.list.SetItems(items)
}

func (m tuiModel) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it.todo, ok
}

// afterChange syncs the list with the store and surfaces a failed save.
// failed must forget what it returns: each change saves the whole list, so
// only the latest result matters.
func (m *tuiModel) afterChange() tea.Cmd {
	m.changed = true
	cmd := m.refresh(m.st.Todos())
	m.saveErr = m.failed()
	if m.saveErr != nil {
		return tea.Batch(cmd, m.list.NewStatusMessage(ui.Current().Error.Render("save failed: "+m.saveErr.Error())))
	}
	return cmd
}

func (m *tuiModel) resize() {
	h := m.height - 4
	if m.adding || m.editing {
		h -= 4
	}
	m.list.SetSize(m.width-4, max(h, 1))
}

func (m *tuiModel) closeInput() {
	m.adding, m.editing = false, false
	m.tiErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m tuiModel) Init() tea.Cmd { return m.waitForChange }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case storeMsg:
		cmd := m.refresh(todo.List(msg))
		return m, tea.Batch(cmd, m.waitForChange)
	}

	if m.adding || m.editing {
		return m.updateInput(msg)
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch k.String() {
	case "q", "esc":
		if m.list.FilterState() == list.FilterApplied && k.String() == "esc" {
			break
		}
		return m, tea.Quit
	case " ":
		if td, ok := m.selected(); ok && m.st.ToggleTodo(m.ctx, td.ID) {
			cmd := m.afterChange()
			return m, cmd
		}
		return m, nil
	case "d":
		if td, ok := m.selected(); ok && m.st.DeleteTodo(m.ctx, td.ID) {
			cmd := m.afterChange()
			return m, cmd
		}
		return m, nil
	case "c":
		n := 0
		for _, td := range m.st.Todos() {
			if td.Completed && m.st.DeleteTodo(m.ctx, td.ID) {
				n++
			}
		}
		if n == 0 {
			return m, nil
		}
		cmd := m.afterChange()
		return m, cmd
	case "a":
		m.adding = true
		m.ti.SetValue("")
		m.ti.Placeholder = "New todo..."
		m.resize()
		cmd := m.ti.Focus()
		return m, cmd
	case "e":
		td, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editing = true
		m.editID = td.ID
		m.ti.SetValue(td.Text)
		m.ti.CursorEnd()
		m.ti.Placeholder = "Edit todo..."
		m.resize()
		cmd := m.ti.Focus()
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m tuiModel) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			text := strings.TrimSpace(m.ti.Value())
			if text == "" {
				m.tiErr = "Text cannot be empty"
				return m, nil
			}
			var changed bool
			if m.adding {
				_, changed = m.st.AddTodo(m.ctx, text)
			} else {
				changed = m.st.UpdateTodo(m.ctx, m.editID, text)
			}
			adding := m.adding
			m.closeInput()
			if !changed {
				return m, nil
			}
			cmd := m.afterChange()
			if adding {
				m.list.Select(len(m.list.Items()) - 1)
			}
			return m, cmd
		case "esc":
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m tuiModel) View() string {
	content := m.list.View()
	if m.adding || m.editing {
		t := ui.Current()
		bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		title := "Add todo"
		if m.editing {
			title = "Edit todo"
		}
		if m.tiErr != "" {
			title += ": " + t.Error.Render(m.tiErr)
		}
		content += "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	return ui.PanelString(content)
}

// doTUI runs the interactive list. Every change is dispatched to the store
// as it happens; with the json backend, writes by other processes show up
// live.
func (e *env) doTUI(ctx context.Context) int {
	st := e.reg.MustConsume(e.scope.Child("tui"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newTUIModel(ctx, st, e.takePersistErr)
	unsubscribe := st.Subscribe(m.publish)
	defer unsubscribe()

	if js, ok := e.adapter.(*jsonstore.Store); ok && e.cfg.Storage.Watch {
		go func() {
			err := js.Watch(ctx, e.cfg.Storage.Key, func() {
				if err := st.Reload(ctx); err != nil {
					e.logger.Warn("reload todos", "err", err)
				}
			})
			if err != nil {
				e.logger.Warn("watch todos", "err", err)
			}
		}()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	fm, ok := final.(tuiModel)
	if !ok || !fm.changed {
		return 0
	}
	if fm.saveErr != nil {
		ui.Fail("save: " + fm.saveErr.Error())
		return 1
	}
	ui.OK("saved")
	return 0
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/todo"
	"github.com/Makepad-fr/tada/internal/transfer"
	"github.com/Makepad-fr/tada/internal/ui"
)

func (e *env) doList(ctx context.Context) int {
	items := todo.MustFromContext(ctx).Todos()
	t := ui.Current()

	d, p := items.Stats()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), d,
		t.Pending.Render(t.SymPending), p,
		t.Accent.Render("Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if e.cfg.UI.Group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items, 1)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(lines)
	return 0
}

func (e *env) doAdd(ctx context.Context, text string) int {
	td, ok := todo.MustFromContext(ctx).AddTodo(ctx, text)
	if !ok {
		ui.Fail("add: empty text")
		return 2
	}
	if !e.saved() {
		return 1
	}
	e.logger.Debug("added todo", "id", td.ID)
	ui.OK("added")
	return 0
}

func (e *env) doToggle(ctx context.Context, userIndex int) int {
	st := todo.MustFromContext(ctx)
	id, ok := resolve(st.Todos(), userIndex)
	if !ok {
		return 2
	}
	st.ToggleTodo(ctx, id)
	if !e.saved() {
		return 1
	}
	state := "pending"
	if td, ok := st.Find(id); ok && td.Completed {
		state = "done"
	}
	ui.OK("toggled: " + state)
	return 0
}

func (e *env) doEdit(ctx context.Context, userIndex int, text string) int {
	st := todo.MustFromContext(ctx)
	id, ok := resolve(st.Todos(), userIndex)
	if !ok {
		return 2
	}
	if strings.TrimSpace(text) == "" {
		ui.Fail("edit: empty text")
		return 2
	}
	if !st.UpdateTodo(ctx, id, text) {
		ui.OK("unchanged")
		return 0
	}
	if !e.saved() {
		return 1
	}
	ui.OK("updated")
	return 0
}

func (e *env) doRemove(ctx context.Context, userIndex int) int {
	st := todo.MustFromContext(ctx)
	id, ok := resolve(st.Todos(), userIndex)
	if !ok {
		return 2
	}
	st.DeleteTodo(ctx, id)
	if !e.saved() {
		return 1
	}
	ui.OK("removed")
	return 0
}

// doClear deletes completed todos one action at a time.
func (e *env) doClear(ctx context.Context) int {
	st := todo.MustFromContext(ctx)
	n := 0
	for _, td := range st.Todos() {
		if td.Completed && st.DeleteTodo(ctx, td.ID) {
			n++
		}
	}
	if !e.saved() {
		return 1
	}
	ui.OK(fmt.Sprintf("cleared %d completed", n))
	return 0
}

func (e *env) doExport(ctx context.Context, path string) int {
	b, err := transfer.Export(todo.MustFromContext(ctx).Todos())
	if err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}
	if path == "" || path == "-" {
		ui.Stdout().Write(b)
		return 0
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}
	ui.OK("exported to " + path)
	return 0
}

func (e *env) doImport(ctx context.Context, path string) int {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(e.stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		ui.Fail("import: " + err.Error())
		return 1
	}

	l, err := transfer.Import(b)
	if err != nil {
		reportImportErr(err)
		return 1
	}
	n := transfer.Apply(ctx, todo.MustFromContext(ctx), l)
	if !e.saved() {
		return 1
	}
	ui.OK(fmt.Sprintf("imported %d todos", n))
	return 0
}

func reportImportErr(err error) {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		ui.Fail("import: " + err.Error())
		return
	}
	ui.Fail("import: invalid todo list")
	for _, ve := range joined.Unwrap() {
		ui.Hint("  " + ve.Error())
	}
}

// doDispatch applies wire-format actions given as arguments, or one per
// line on stdin when there are none.
func (e *env) doDispatch(ctx context.Context, args []string) int {
	st := todo.MustFromContext(ctx)

	raw := args
	if len(raw) == 0 {
		sc := bufio.NewScanner(e.stdin)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				raw = append(raw, line)
			}
		}
		if err := sc.Err(); err != nil {
			ui.Fail("dispatch: " + err.Error())
			return 1
		}
	}
	if len(raw) == 0 {
		ui.Fail("usage: todo dispatch [json...]")
		return 2
	}

	actions := make([]todo.Action, 0, len(raw))
	for _, r := range raw {
		a, err := todo.DecodeAction([]byte(r))
		if err != nil {
			ui.Fail(err.Error())
			return 2
		}
		actions = append(actions, a)
	}

	changed := 0
	for _, a := range actions {
		if st.Dispatch(ctx, a) {
			changed++
		}
	}
	if !e.saved() {
		return 1
	}
	ui.OK(fmt.Sprintf("dispatched %d actions, %d changed the list", len(actions), changed))
	return 0
}

// -------------- rendering helpers --------------

func flatLines(items []model.Todo, first int) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("no todos")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", first+i)
		box, style := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, style = t.BoxChecked, t.Success
		}
		text := it.Text
		if r := []rune(text); len(r) > 80 {
			text = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", t.Muted.Render(idx), style.Render(box), text))
	}
	return out
}

// groupLines keeps each todo's list index so done/rm still work from it.
func groupLines(items []model.Todo) []string {
	t := ui.Current()
	var pend, done []string
	for i, it := range items {
		line := flatLines([]model.Todo{it}, i+1)[0]
		if it.Completed {
			done = append(done, line)
		} else {
			pend = append(pend, line)
		}
	}
	none := t.Muted.Render("(none)")
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		pend = []string{none}
	}
	lines = append(lines, pend...)
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		done = []string{none}
	}
	return append(lines, done...)
}

// Package cli routes tada's subcommands. Every command returns an exit
// code: 0 ok, 1 runtime error, 2 usage error.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/storage"
	"github.com/Makepad-fr/tada/internal/todo"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options carry what the root command resolved before routing.
type Options struct {
	Config *config.Config
	Logger *log.Logger
	Stdin  io.Reader // auth login and dispatch read from it; defaults to os.Stdin

	// Adapter overrides the configured storage backend.
	Adapter storage.Adapter
}

// env is the per-invocation state shared by the subcommands.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	stdin  io.Reader

	reg     *todo.Registry
	scope   *todo.Scope
	adapter storage.Adapter

	mu         sync.Mutex
	persistErr error
}

// Run dispatches subcommands and returns an exit code.
func Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	e := &env{cfg: opt.Config, logger: opt.Logger, stdin: opt.Stdin}
	if e.cfg == nil {
		e.cfg = config.Default()
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.stdin == nil {
		e.stdin = os.Stdin
	}
	ui.SetTheme(e.cfg.UI.Theme)
	ui.SetColorForcing(false, e.cfg.UI.NoColor)

	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0
	case "auth":
		return e.doAuth(a)
	case "posts":
		return e.doPosts(ctx, a)
	}

	run, code := e.route(cmd, a)
	if run == nil {
		return code
	}

	ctx, cleanup, err := e.mount(ctx, opt.Adapter)
	if err != nil {
		ui.Fail("storage: " + err.Error())
		return 1
	}
	defer cleanup()
	return run(ctx)
}

type command func(ctx context.Context) int

// route validates arguments for the store-backed subcommands. A nil command
// means the returned code is final.
func (e *env) route(cmd string, a []string) (command, int) {
	switch cmd {
	case "ls":
		return e.doList, 0

	case "tui":
		return e.doTUI, 0

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <text...>")
			return nil, 2
		}
		text := strings.Join(a, " ")
		return func(ctx context.Context) int { return e.doAdd(ctx, text) }, 0

	case "done", "rm":
		if len(a) != 1 {
			ui.Fail("usage: todo " + cmd + " <index>")
			return nil, 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail(cmd + ": not a number: " + a[0])
			return nil, 2
		}
		if cmd == "done" {
			return func(ctx context.Context) int { return e.doToggle(ctx, n) }, 0
		}
		return func(ctx context.Context) int { return e.doRemove(ctx, n) }, 0

	case "edit":
		if len(a) < 2 {
			ui.Fail("usage: todo edit <index> <text...>")
			return nil, 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("edit: not a number: " + a[0])
			return nil, 2
		}
		text := strings.Join(a[1:], " ")
		return func(ctx context.Context) int { return e.doEdit(ctx, n, text) }, 0

	case "clear":
		return e.doClear, 0

	case "export":
		if len(a) > 1 {
			ui.Fail("usage: todo export [file]")
			return nil, 2
		}
		var path string
		if len(a) == 1 {
			path = a[0]
		}
		return func(ctx context.Context) int { return e.doExport(ctx, path) }, 0

	case "import":
		if len(a) != 1 {
			ui.Fail("usage: todo import <file>")
			return nil, 2
		}
		return func(ctx context.Context) int { return e.doImport(ctx, a[0]) }, 0

	case "dispatch":
		return func(ctx context.Context) int { return e.doDispatch(ctx, a) }, 0
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Stderr())
	PrintHelp()
	return nil, 2
}

// mount opens storage, loads the list and provides the store to the
// command through both the registry and the context.
func (e *env) mount(ctx context.Context, a storage.Adapter) (context.Context, func(), error) {
	owned := a == nil
	if owned {
		var err error
		a, err = openAdapter(ctx, e.cfg.Storage, e.logger)
		if err != nil {
			return ctx, nil, err
		}
	}

	st := todo.NewStore(
		todo.WithStorage(a, e.cfg.Storage.Key),
		todo.WithLogger(e.logger),
		todo.WithPersistErrorHandler(e.recordPersistErr),
	)
	if err := st.Load(ctx); err != nil {
		if owned {
			a.Close()
		}
		return ctx, nil, fmt.Errorf("load: %w", err)
	}

	e.adapter = a
	e.reg = todo.NewRegistry()
	e.scope = e.reg.Root("cli")
	e.reg.Provide(e.scope, st)

	cleanup := func() {
		e.reg.Unmount(e.scope)
		if owned {
			if err := a.Close(); err != nil {
				e.logger.Warn("close storage", "err", err)
			}
		}
	}
	return todo.WithStore(ctx, st), cleanup, nil
}

func (e *env) recordPersistErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.persistErr == nil {
		e.persistErr = err
	}
}

func (e *env) lastPersistErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persistErr
}

// takePersistErr returns the failure recorded since the previous call and
// forgets it, so a later successful save is not reported as failed.
func (e *env) takePersistErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.persistErr
	e.persistErr = nil
	return err
}

// saved reports a failed write as exit 1. The in-memory change stays.
func (e *env) saved() bool {
	if err := e.lastPersistErr(); err != nil {
		ui.Fail("save: " + err.Error())
		return false
	}
	return true
}

// resolve turns a 1-based index into the todo at that position.
func resolve(l todo.List, userIndex int) (int64, bool) {
	if userIndex < 1 || userIndex > len(l) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(l), userIndex))
		ui.Hint("Hint: run `todo ls` to see valid indexes")
		return 0, false
	}
	return l[userIndex-1].ID, true
}

func PrintHelp() {
	fmt.Fprint(ui.Stdout(), `todo - a tiny CLI

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  add <text...>          Add a new todo (text can be multiple words)
  ls                     List todos
  tui                    Interactive list
  done <index>           Toggle done for the todo at 1-based index
  edit <index> <text...> Replace the text of the todo at index
  rm <index>             Remove the todo at 1-based index
  clear                  Remove every completed todo
  export [file]          Write the list as JSON (stdout when no file)
  import <file>          Add todos from an exported file ("-" for stdin)
  dispatch [json...]     Apply wire actions, one JSON object each (stdin if none)
  posts [flags]          Browse posts (--page N, --user ID, --id ID)
                         or change them (--create TITLE, --update ID, --delete ID)
  auth <login|logout|status|whoami>   Token authentication

Flags:
  -config <file>   -backend json|sqlite|redis|memory   -data <dir>
  -theme classic|neon|mono   -no-color   -group   -log-level <level>

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo dispatch '{"type":"ADD_TODO","text":"Call mom"}'
`)
}

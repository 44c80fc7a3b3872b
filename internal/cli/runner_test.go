package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/storage"
	"github.com/Makepad-fr/tada/internal/todo"
	"github.com/Makepad-fr/tada/internal/ui"
)

type harness struct {
	t      *testing.T
	cfg    *config.Config
	mem    storage.Adapter
	stdout bytes.Buffer
	stderr bytes.Buffer
	stdin  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TADA_TOKEN", "")

	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	cfg.UI.Theme = "mono"

	h := &harness{t: t, cfg: cfg, mem: storage.NewMemory()}
	ui.SetOutput(&h.stdout, &h.stderr)
	t.Cleanup(func() {
		ui.SetOutput(os.Stdout, os.Stderr)
		ui.SetTheme("classic")
	})
	return h
}

func (h *harness) run(args ...string) int {
	h.t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	return Run(context.Background(), args, Options{
		Config:  h.cfg,
		Logger:  log.New(&bytes.Buffer{}),
		Stdin:   strings.NewReader(h.stdin),
		Adapter: h.mem,
	})
}

func (h *harness) todos() todo.List {
	h.t.Helper()
	l, err := storage.Get(context.Background(), h.mem, storage.TodosKey, todo.List{})
	require.NoError(h.t, err)
	return l
}

func texts(l todo.List) []string {
	out := make([]string, len(l))
	for i, td := range l {
		out[i] = td.Text
	}
	return out
}

func TestRun_Usage(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run())
	assert.Equal(t, 0, h.run("help"))
	assert.Contains(t, h.stdout.String(), "Subcommands:")

	assert.Equal(t, 2, h.run("nope"))
	assert.Contains(t, h.stderr.String(), "unknown subcommand: nope")

	assert.Equal(t, 2, h.run("add"))
	assert.Equal(t, 2, h.run("done"))
	assert.Equal(t, 2, h.run("done", "x"))
	assert.Equal(t, 2, h.run("edit", "1"))
	assert.Equal(t, 2, h.run("import"))
	assert.Equal(t, 2, h.run("export", "a", "b"))
}

func TestRun_AddListToggleEditRemove(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("add", "Buy", "milk"))
	assert.Contains(t, h.stdout.String(), "added")
	require.Equal(t, 0, h.run("add", "  Walk dog  "))
	assert.Equal(t, []string{"Buy milk", "Walk dog"}, texts(h.todos()))

	require.Equal(t, 0, h.run("ls"))
	out := h.stdout.String()
	assert.Contains(t, out, " 1. [ ] Buy milk")
	assert.Contains(t, out, " 2. [ ] Walk dog")

	require.Equal(t, 0, h.run("done", "2"))
	assert.Contains(t, h.stdout.String(), "toggled: done")
	assert.True(t, h.todos()[1].Completed)

	require.Equal(t, 0, h.run("edit", "1", "Buy", "oat", "milk"))
	l := h.todos()
	assert.Equal(t, "Buy oat milk", l[0].Text)
	assert.NotNil(t, l[0].UpdatedAt)

	require.Equal(t, 0, h.run("rm", "1"))
	assert.Equal(t, []string{"Walk dog"}, texts(h.todos()))
}

func TestRun_EmptyTextIsUsageError(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2, h.run("add", "   "))
	assert.Empty(t, h.todos())

	require.Equal(t, 0, h.run("add", "keep"))
	assert.Equal(t, 2, h.run("edit", "1", " "))
	assert.Equal(t, []string{"keep"}, texts(h.todos()))
}

func TestRun_IndexOutOfRange(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("add", "one"))

	assert.Equal(t, 2, h.run("done", "3"))
	assert.Contains(t, h.stderr.String(), "index out of range: have 1, got 3")
	assert.Contains(t, h.stderr.String(), "todo ls")

	assert.Equal(t, 2, h.run("rm", "0"))
	assert.Len(t, h.todos(), 1)
}

func TestRun_GroupedList(t *testing.T) {
	h := newHarness(t)
	h.cfg.UI.Group = true
	require.Equal(t, 0, h.run("add", "first"))
	require.Equal(t, 0, h.run("add", "second"))
	require.Equal(t, 0, h.run("done", "1"))

	require.Equal(t, 0, h.run("ls"))
	out := h.stdout.String()
	pending := strings.Index(out, "Pending")
	done := strings.Index(out, "Done")
	require.True(t, pending >= 0 && done > pending)
	// Indexes stay the list positions inside each group.
	assert.Greater(t, strings.Index(out, " 1. [x] first"), done)
	assert.Less(t, strings.Index(out, " 2. [ ] second"), done)
}

func TestRun_Clear(t *testing.T) {
	h := newHarness(t)
	for _, s := range []string{"a", "b", "c"} {
		require.Equal(t, 0, h.run("add", s))
	}
	require.Equal(t, 0, h.run("done", "1"))
	require.Equal(t, 0, h.run("done", "3"))

	require.Equal(t, 0, h.run("clear"))
	assert.Contains(t, h.stdout.String(), "cleared 2 completed")
	assert.Equal(t, []string{"b"}, texts(h.todos()))
}

func TestRun_ExportImport(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("add", "one"))
	require.Equal(t, 0, h.run("add", "two"))
	require.Equal(t, 0, h.run("done", "2"))

	path := filepath.Join(t.TempDir(), "backup.json")
	require.Equal(t, 0, h.run("export", path))

	require.Equal(t, 0, h.run("export"))
	var stdoutList []model.Todo
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &stdoutList))
	assert.Len(t, stdoutList, 2)

	other := newHarness(t)
	require.Equal(t, 0, other.run("import", path))
	assert.Contains(t, other.stdout.String(), "imported 2 todos")

	l := other.todos()
	assert.Equal(t, []string{"one", "two"}, texts(l))
	assert.False(t, l[0].Completed)
	assert.True(t, l[1].Completed)
}

func TestRun_ImportRejectsInvalidData(t *testing.T) {
	h := newHarness(t)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id":"x","text":"a"}]`), 0o644))
	assert.Equal(t, 1, h.run("import", bad))
	assert.Contains(t, h.stderr.String(), "invalid todo list")

	h.stdin = "not json"
	assert.Equal(t, 1, h.run("import", "-"))
	assert.Contains(t, h.stderr.String(), "invalid JSON")

	assert.Equal(t, 1, h.run("import", filepath.Join(t.TempDir(), "missing.json")))
	assert.Empty(t, h.todos())
}

func TestRun_Dispatch(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("dispatch", `{"type":"ADD_TODO","text":"from wire"}`, `{"type":"TOGGLE_TODO","id":1}`))
	assert.Contains(t, h.stdout.String(), "dispatched 2 actions, 1 changed the list")
	l := h.todos()
	require.Len(t, l, 1)
	assert.Equal(t, "from wire", l[0].Text)

	h.stdin = `{"type":"UPDATE_TODO","id":` + jsonInt(l[0].ID) + `,"text":"renamed"}` + "\n\n" +
		`{"type":"TOGGLE_TODO","id":` + jsonInt(l[0].ID) + `}` + "\n"
	require.Equal(t, 0, h.run("dispatch"))
	l = h.todos()
	assert.Equal(t, "renamed", l[0].Text)
	assert.True(t, l[0].Completed)

	assert.Equal(t, 2, h.run("dispatch", `{"type":"RESET"}`))
	assert.Contains(t, h.stderr.String(), "unknown action type")

	h.stdin = ""
	assert.Equal(t, 2, h.run("dispatch"))
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

type failingSave struct{ *storage.Memory }

func (failingSave) Save(context.Context, string, []byte) error { return errors.New("disk full") }

func TestRun_PersistFailureExitsOne(t *testing.T) {
	h := newHarness(t)
	h.mem = failingSave{storage.NewMemory()}

	assert.Equal(t, 1, h.run("add", "lost"))
	assert.Contains(t, h.stderr.String(), "save:")
	assert.Contains(t, h.stderr.String(), "disk full")
}

func TestRun_JSONBackend(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	h.cfg.Storage.Backend = config.BackendJSON
	h.cfg.Storage.Dir = dir

	run := func(args ...string) int {
		return Run(context.Background(), args, Options{Config: h.cfg, Logger: log.New(&bytes.Buffer{})})
	}
	require.Equal(t, 0, run("add", "on disk"))
	require.Equal(t, 0, run("add", "second"))

	b, err := os.ReadFile(filepath.Join(dir, "todos.json"))
	require.NoError(t, err)
	var l []model.Todo
	require.NoError(t, json.Unmarshal(b, &l))
	assert.Equal(t, []string{"on disk", "second"}, texts(l))
}

func TestRun_Posts(t *testing.T) {
	h := newHarness(t)
	t.Setenv("TADA_TOKEN", "secret")

	var auths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		switch {
		case r.URL.Path == "/posts/7":
			w.Write([]byte(`{"id":7,"userId":2,"title":"Seven","body":"lucky"}`))
		case r.URL.Path == "/posts" && r.URL.Query().Get("userId") == "2":
			w.Write([]byte(`[{"id":7,"userId":2,"title":"Seven","body":""}]`))
		case r.URL.Path == "/posts":
			var ps []model.Post
			for i := 1; i <= 15; i++ {
				ps = append(ps, model.Post{ID: i, UserID: 1, Title: "post " + jsonInt(int64(i))})
			}
			json.NewEncoder(w).Encode(ps)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	h.cfg.Posts.BaseURL = srv.URL

	require.Equal(t, 0, h.run("posts", "--page", "2"))
	out := h.stdout.String()
	assert.Contains(t, out, "15 total")
	assert.Contains(t, out, "post 13")
	assert.NotContains(t, out, "post 12")
	assert.Contains(t, out, "page 2/2")

	require.Equal(t, 0, h.run("posts", "--user", "2"))
	assert.Contains(t, h.stdout.String(), "Seven")

	require.Equal(t, 0, h.run("posts", "--id", "7"))
	assert.Contains(t, h.stdout.String(), "lucky")

	assert.Equal(t, 1, h.run("posts", "--id", "99"))
	assert.Contains(t, h.stderr.String(), "status: 404")

	assert.Equal(t, 2, h.run("posts", "extra"))
	assert.Equal(t, 2, h.run("posts", "--page", "x"))

	for _, a := range auths {
		assert.Equal(t, "Bearer secret", a)
	}
}

func TestRun_Auth(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("auth", "status"))
	assert.Contains(t, h.stdout.String(), "not logged in")

	assert.Equal(t, 2, h.run("auth", "whoami"))
	assert.Equal(t, 2, h.run("auth"))
	assert.Equal(t, 2, h.run("auth", "sudo"))

	h.stdin = "opaque-token\n"
	require.Equal(t, 0, h.run("auth", "login"))
	assert.Contains(t, h.stdout.String(), "logged in")

	require.Equal(t, 0, h.run("auth", "status"))
	assert.Contains(t, h.stdout.String(), "source: file")

	require.Equal(t, 0, h.run("auth", "whoami"))
	assert.Contains(t, h.stdout.String(), "Opaque token")

	require.Equal(t, 0, h.run("auth", "logout"))
	require.Equal(t, 0, h.run("auth", "status"))
	assert.Contains(t, h.stdout.String(), "not logged in")

	h.stdin = ""
	assert.NotEqual(t, 0, h.run("auth", "login"))
}

func TestTakePersistErr(t *testing.T) {
	e := &env{}
	e.recordPersistErr(errors.New("first"))
	e.recordPersistErr(errors.New("second"))

	require.EqualError(t, e.takePersistErr(), "first")
	assert.NoError(t, e.takePersistErr())
	assert.NoError(t, e.lastPersistErr())
}

func TestRun_PostsWrite(t *testing.T) {
	h := newHarness(t)

	var calls []string
	var updated model.Post
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"id":3,"userId":1,"title":"old","body":"keep"}`))
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&updated)
			json.NewEncoder(w).Encode(updated)
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":101}`))
		case http.MethodDelete:
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()
	h.cfg.Posts.BaseURL = srv.URL

	require.Equal(t, 0, h.run("posts", "--create", "Hello", "--body", "world"))
	assert.Contains(t, h.stdout.String(), "created post 101")

	require.Equal(t, 0, h.run("posts", "--update", "3", "--title", "new"))
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "keep", updated.Body)

	require.Equal(t, 0, h.run("posts", "--delete", "3"))
	assert.Contains(t, h.stdout.String(), "deleted post 3")

	assert.Equal(t, 2, h.run("posts", "--update", "3"))

	assert.Equal(t, []string{"POST /posts", "GET /posts/3", "PUT /posts/3", "DELETE /posts/3"}, calls)
}

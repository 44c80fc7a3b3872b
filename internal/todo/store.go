package todo

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/storage"
)

// Listener receives the list after every change. It gets its own copy.
type Listener func(List)

type subscription struct {
	id string
	fn Listener
}

// Store owns a todo list and mediates every mutation through the reducer.
// Changes are persisted (when an adapter is set) and then published to
// subscribers, synchronously and in subscription order.
type Store struct {
	mu      sync.Mutex
	reducer *Reducer
	todos   List
	subs    []subscription
	closed  bool
	version uint64 // bumped by every change made through dispatch

	adapter      storage.Adapter
	key          string
	logger       *log.Logger
	onPersistErr func(error)
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for ids and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.reducer = NewReducer(c) }
}

// WithStorage persists the list under key after every change.
func WithStorage(a storage.Adapter, key string) Option {
	return func(s *Store) {
		s.adapter = a
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPersistErrorHandler is called with every persistence failure, after it
// has been logged. The in-memory list is kept either way.
func WithPersistErrorHandler(fn func(error)) Option {
	return func(s *Store) { s.onPersistErr = fn }
}

// NewStore returns a store holding an empty list.
func NewStore(opts ...Option) *Store {
	s := &Store{
		todos:  List{},
		key:    storage.TodosKey,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reducer == nil {
		s.reducer = NewReducer(nil)
	}
	s.logger = s.logger.With("component", "todo-store")
	return s
}

// Load replaces the list with the one persisted under the store's key.
// Without an adapter it does nothing.
func (s *Store) Load(ctx context.Context) error {
	return s.readStorage(ctx, true)
}

// Reload re-reads the persisted list and adopts it if it differs from the
// one in memory. Another process writing the same key wins. A dispatch
// made while the read was in flight wins over what was read.
func (s *Store) Reload(ctx context.Context) error {
	return s.readStorage(ctx, false)
}

func (s *Store) readStorage(ctx context.Context, force bool) error {
	if s.adapter == nil {
		return nil
	}
	s.mu.Lock()
	ver := s.version
	s.mu.Unlock()

	l, err := storage.Get(ctx, s.adapter, s.key, List{})
	if err != nil {
		return err
	}
	if s.hydrate(l, ver, force) && !force {
		s.logger.Debug("reloaded from storage", "key", s.key, "len", len(l))
	}
	return nil
}

// hydrate swaps in l unless the store was closed or changed since version
// ver was read.
func (s *Store) hydrate(l List, ver uint64, force bool) bool {
	if l == nil {
		l = List{}
	}
	s.mu.Lock()
	if s.closed || s.version != ver || (!force && equalLists(s.todos, l)) {
		s.mu.Unlock()
		return false
	}
	s.reducer.observe(l)
	s.todos = l
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	s.notify(subs, l)
	return true
}

// Dispatch runs a through the reducer. It reports whether the list changed.
func (s *Store) Dispatch(ctx context.Context, a Action) bool {
	_, changed := s.dispatch(ctx, a)
	return changed
}

func (s *Store) dispatch(ctx context.Context, a Action) (List, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, false
	}
	next, changed := s.reducer.apply(s.todos, a)
	if !changed {
		s.mu.Unlock()
		return next, false
	}
	s.todos = next
	s.version++
	s.persistLocked(ctx, next)
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	s.notify(subs, next)
	return next, true
}

func (s *Store) persistLocked(ctx context.Context, l List) {
	if s.adapter == nil {
		return
	}
	if err := storage.Set(ctx, s.adapter, s.key, l); err != nil {
		s.logger.Error("persist todos", "key", s.key, "err", err)
		if s.onPersistErr != nil {
			s.onPersistErr(err)
		}
	}
}

func (s *Store) notify(subs []subscription, l List) {
	for _, sub := range subs {
		sub.fn(slices.Clone(l))
	}
}

// AddTodo trims text and appends a new todo. Empty text is ignored.
func (s *Store) AddTodo(ctx context.Context, text string) (model.Todo, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Todo{}, false
	}
	next, changed := s.dispatch(ctx, AddTodo{Text: text})
	if !changed {
		return model.Todo{}, false
	}
	return next[len(next)-1], true
}

func (s *Store) ToggleTodo(ctx context.Context, id int64) bool {
	return s.Dispatch(ctx, ToggleTodo{ID: id})
}

func (s *Store) DeleteTodo(ctx context.Context, id int64) bool {
	return s.Dispatch(ctx, DeleteTodo{ID: id})
}

// UpdateTodo trims text and replaces the todo's text. Empty text is
// ignored, same as AddTodo.
func (s *Store) UpdateTodo(ctx context.Context, id int64, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	return s.Dispatch(ctx, UpdateTodo{ID: id, Text: text})
}

// Todos returns a copy of the current list.
func (s *Store) Todos() List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.todos)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.todos)
}

// Find returns the todo with the given id.
func (s *Store) Find(id int64) (model.Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.todos.Index(id)
	if i < 0 {
		return model.Todo{}, false
	}
	return s.todos[i], true
}

// Subscribe registers fn for change notifications. The returned func
// removes it; calling it more than once is harmless.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	id := uuid.New().String()
	s.mu.Lock()
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()
	s.logger.Debug("subscriber added", "sub_id", id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.id == id })
	}
}

// Close drops the list and every subscriber. Later dispatches are no-ops.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.todos = nil
	s.subs = nil
}

func equalLists(a, b List) bool {
	return slices.EqualFunc(a, b, func(x, y model.Todo) bool {
		if x.ID != y.ID || x.Text != y.Text || x.Completed != y.Completed || !x.CreatedAt.Equal(y.CreatedAt) {
			return false
		}
		if (x.UpdatedAt == nil) != (y.UpdatedAt == nil) {
			return false
		}
		return x.UpdatedAt == nil || x.UpdatedAt.Equal(*y.UpdatedAt)
	})
}

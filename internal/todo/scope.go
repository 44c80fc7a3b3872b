package todo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MissingProviderError means a store was consumed where none was provided.
// It is a composition bug, not a runtime condition to recover from.
type MissingProviderError struct {
	Scope string
}

func (e *MissingProviderError) Error() string {
	if e.Scope == "" {
		return "todo: store consumed outside of any provider"
	}
	return fmt.Sprintf("todo: store consumed outside of any provider (scope %s)", e.Scope)
}

// Scope is a node in a tree of scopes. A store provided to a scope is
// reachable from it and from every descendant.
type Scope struct {
	id     string
	name   string
	parent *Scope
	reg    *Registry
}

// Path is the slash-joined names from the root down to s.
func (s *Scope) Path() string {
	var parts []string
	for c := s; c != nil; c = c.parent {
		parts = append(parts, c.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Child returns a new scope nested under s.
func (s *Scope) Child(name string) *Scope {
	return &Scope{id: uuid.New().String(), name: name, parent: s, reg: s.reg}
}

// Registry maps scopes to the store provided for them.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Store)}
}

// Root returns a new top-level scope belonging to r.
func (r *Registry) Root(name string) *Scope {
	return &Scope{id: uuid.New().String(), name: name, reg: r}
}

// Provide makes st reachable from scope and its descendants, replacing any
// store previously provided for that exact scope.
func (r *Registry) Provide(scope *Scope, st *Store) {
	if scope == nil {
		return
	}
	r.mu.Lock()
	r.providers[scope.id] = st
	r.mu.Unlock()
}

// Consume returns the store provided for the nearest enclosing scope.
func (r *Registry) Consume(scope *Scope) (*Store, error) {
	if scope == nil {
		return nil, &MissingProviderError{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := scope; c != nil; c = c.parent {
		if c.reg != r {
			break
		}
		if st, ok := r.providers[c.id]; ok {
			return st, nil
		}
	}
	return nil, &MissingProviderError{Scope: scope.Path()}
}

// MustConsume is Consume for call sites where a missing provider is a bug.
func (r *Registry) MustConsume(scope *Scope) *Store {
	st, err := r.Consume(scope)
	if err != nil {
		panic(err)
	}
	return st
}

// Unmount removes the store provided for scope and closes it.
func (r *Registry) Unmount(scope *Scope) {
	if scope == nil {
		return
	}
	r.mu.Lock()
	st, ok := r.providers[scope.id]
	delete(r.providers, scope.id)
	r.mu.Unlock()
	if ok {
		st.Close()
	}
}

// storeContextKey is the key type for storing a Store in context.Context.
type storeContextKey struct{}

// WithStore returns a new context carrying st.
func WithStore(ctx context.Context, st *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, st)
}

// FromContext retrieves the Store attached by WithStore.
func FromContext(ctx context.Context) (*Store, error) {
	st, ok := ctx.Value(storeContextKey{}).(*Store)
	if !ok || st == nil {
		return nil, &MissingProviderError{Scope: "context"}
	}
	return st, nil
}

// MustFromContext retrieves the Store from ctx, panicking if none is attached.
func MustFromContext(ctx context.Context) *Store {
	st, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return st
}

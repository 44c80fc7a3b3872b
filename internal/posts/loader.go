package posts

import (
	"context"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
)

// State is what a posts view renders.
type State struct {
	Posts   []model.Post
	Loading bool
	Err     error
}

// FetchFunc loads the posts for one fetch lifecycle.
type FetchFunc func(ctx context.Context) ([]model.Post, error)

// Loader runs fetches and commits their results. Each Load starts a new
// generation; a result is committed only if its generation is still the
// latest and its context has not been cancelled. A view torn down before
// the response arrives therefore never sees it.
type Loader struct {
	fetch    FetchFunc
	onChange func(State)

	mu    sync.Mutex
	gen   uint64
	state State
}

// NewLoader returns a loader. onChange may be nil.
func NewLoader(fetch FetchFunc, onChange func(State)) *Loader {
	return &Loader{fetch: fetch, onChange: onChange}
}

// State returns the last committed state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Load fetches and commits. It reports whether its result was committed.
// Calling Load again (a refetch) makes any in-flight Load stale.
func (l *Loader) Load(ctx context.Context) bool {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.state = State{Posts: l.state.Posts, Loading: true}
	loading := l.state
	l.mu.Unlock()
	l.emit(loading)

	posts, err := l.fetch(ctx)

	l.mu.Lock()
	if gen != l.gen || ctx.Err() != nil {
		l.mu.Unlock()
		return false
	}
	if err != nil {
		l.state = State{Posts: []model.Post{}, Err: err}
	} else {
		l.state = State{Posts: posts}
	}
	committed := l.state
	l.mu.Unlock()

	l.emit(committed)
	return true
}

func (l *Loader) emit(s State) {
	if l.onChange != nil {
		l.onChange(s)
	}
}

// Package todo holds the todo state container: the reducer, the store that
// owns the list, and the scopes that hand the store to its consumers.
package todo

import (
	"slices"

	"github.com/jonboulle/clockwork"

	"github.com/Makepad-fr/tada/internal/model"
)

// List is an ordered todo list. Order is creation order minus removals.
type List []model.Todo

// Index returns the position of id in l, or -1.
func (l List) Index(id int64) int {
	return slices.IndexFunc(l, func(t model.Todo) bool { return t.ID == id })
}

// Stats counts completed and pending entries.
func (l List) Stats() (done, pending int) {
	for _, t := range l {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// Reducer computes the next list from the current one and an action.
// Timestamps come from the clock; ids from the id source.
type Reducer struct {
	clock clockwork.Clock
	ids   *IDSource
}

// NewReducer returns a reducer reading time from clock (real time if nil).
func NewReducer(clock clockwork.Clock) *Reducer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reducer{clock: clock, ids: &IDSource{}}
}

// Reduce returns the list after applying a. Never modifies state; returns
// state itself when a changes nothing.
func (r *Reducer) Reduce(state List, a Action) List {
	next, _ := r.apply(state, a)
	return next
}

func (r *Reducer) apply(state List, a Action) (List, bool) {
	switch a := a.(type) {
	case AddTodo:
		// state may come from elsewhere; never reuse one of its ids.
		r.observe(state)
		now := r.clock.Now()
		next := make(List, len(state), len(state)+1)
		copy(next, state)
		return append(next, model.Todo{
			ID:        r.ids.Next(now),
			Text:      a.Text,
			Completed: false,
			CreatedAt: now,
		}), true

	case ToggleTodo:
		i := state.Index(a.ID)
		if i < 0 {
			return state, false
		}
		next := slices.Clone(state)
		next[i].Completed = !next[i].Completed
		return next, true

	case DeleteTodo:
		i := state.Index(a.ID)
		if i < 0 {
			return state, false
		}
		next := make(List, 0, len(state)-1)
		next = append(next, state[:i]...)
		return append(next, state[i+1:]...), true

	case UpdateTodo:
		i := state.Index(a.ID)
		if i < 0 {
			return state, false
		}
		now := r.clock.Now()
		next := slices.Clone(state)
		next[i].Text = a.Text
		next[i].UpdatedAt = &now
		return next, true
	}
	// nil action
	return state, false
}

// observe makes the id source skip every id in l.
func (r *Reducer) observe(l List) {
	for _, t := range l {
		r.ids.Observe(t.ID)
	}
}

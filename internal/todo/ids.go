package todo

import (
	"sync"
	"time"
)

// IDSource hands out millisecond-timestamp ids that never repeat: when two
// todos are created in the same millisecond the second gets last+1.
type IDSource struct {
	mu   sync.Mutex
	last int64
}

// Next returns an id for a todo created at now.
func (g *IDSource) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe makes sure future ids are greater than id.
func (g *IDSource) Observe(id int64) {
	g.mu.Lock()
	if id > g.last {
		g.last = id
	}
	g.mu.Unlock()
}

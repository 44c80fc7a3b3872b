package model

import "time"

// Todo is the domain model for a todo entry.
// IDs are millisecond timestamps, bumped so they stay unique.
type Todo struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

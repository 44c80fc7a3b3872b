package todo

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ActionType is the wire tag of an action.
type ActionType string

const (
	TypeAdd    ActionType = "ADD_TODO"
	TypeToggle ActionType = "TOGGLE_TODO"
	TypeDelete ActionType = "DELETE_TODO"
	TypeUpdate ActionType = "UPDATE_TODO"
)

// ErrUnknownAction is returned when decoding a wire action with an unrecognised type.
var ErrUnknownAction = errors.New("unknown action type")

// Action describes one intended state transition. The set is closed:
// only the four types below implement it.
type Action interface {
	Type() ActionType
	action()
}

type AddTodo struct {
	Text string `json:"text"`
}

type ToggleTodo struct {
	ID int64 `json:"id"`
}

type DeleteTodo struct {
	ID int64 `json:"id"`
}

type UpdateTodo struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

func (AddTodo) Type() ActionType    { return TypeAdd }
func (ToggleTodo) Type() ActionType { return TypeToggle }
func (DeleteTodo) Type() ActionType { return TypeDelete }
func (UpdateTodo) Type() ActionType { return TypeUpdate }

func (AddTodo) action()    {}
func (ToggleTodo) action() {}
func (DeleteTodo) action() {}
func (UpdateTodo) action() {}

// wire is the tagged record form: {"type": ..., plus the tag's fields}.
type wire struct {
	Type ActionType `json:"type"`
	ID   *int64     `json:"id,omitempty"`
	Text *string    `json:"text,omitempty"`
}

// EncodeAction renders a as its tagged JSON record.
func EncodeAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("encode action: nil")
	}
	w := wire{Type: a.Type()}
	switch a := a.(type) {
	case AddTodo:
		w.Text = &a.Text
	case ToggleTodo:
		w.ID = &a.ID
	case DeleteTodo:
		w.ID = &a.ID
	case UpdateTodo:
		w.ID, w.Text = &a.ID, &a.Text
	}
	return json.Marshal(w)
}

// DecodeAction parses a tagged JSON record. Missing fields required by the
// tag and unknown tags are errors.
func DecodeAction(data []byte) (Action, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	switch w.Type {
	case TypeAdd:
		if w.Text == nil {
			return nil, fmt.Errorf("decode action: %s requires text", w.Type)
		}
		return AddTodo{Text: *w.Text}, nil
	case TypeToggle, TypeDelete:
		if w.ID == nil {
			return nil, fmt.Errorf("decode action: %s requires id", w.Type)
		}
		if w.Type == TypeToggle {
			return ToggleTodo{ID: *w.ID}, nil
		}
		return DeleteTodo{ID: *w.ID}, nil
	case TypeUpdate:
		if w.ID == nil || w.Text == nil {
			return nil, fmt.Errorf("decode action: %s requires id and text", w.Type)
		}
		return UpdateTodo{ID: *w.ID, Text: *w.Text}, nil
	}
	return nil, fmt.Errorf("decode action %q: %w", w.Type, ErrUnknownAction)
}

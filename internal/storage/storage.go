// Package storage is the key-value persistence layer behind the todo store.
// Backends deal in raw bytes; Get and Set handle JSON encoding.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// TodosKey is the fixed key the todo list is persisted under.
const TodosKey = "todos"

// ErrNotFound is returned by Adapter.Load when the key has never been saved.
var ErrNotFound = errors.New("storage: key not found")

// Adapter is a byte-oriented key-value medium.
type Adapter interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// Get decodes the value stored under key. A missing key yields def and no error.
// A value that cannot be decoded yields def and the decode error.
func Get[T any](ctx context.Context, a Adapter, key string, def T) (T, error) {
	b, err := a.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return def, nil
		}
		return def, fmt.Errorf("load %q: %w", key, err)
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return def, fmt.Errorf("json unmarshal %q: %w", key, err)
	}
	return v, nil
}

// Set encodes value as JSON and saves it under key.
func Set[T any](ctx context.Context, a Adapter, key string, value T) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal %q: %w", key, err)
	}
	if err := a.Save(ctx, key, b); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

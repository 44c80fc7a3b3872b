// Package transfer exports todo lists as JSON and imports them back,
// validating the input against an embedded JSON Schema.
package transfer

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Makepad-fr/tada/internal/todo"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "todos.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// ValidationError is one problem found in imported data.
type ValidationError struct {
	Path string // JSON pointer into the document
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrInvalidJSON is returned when the import data is not JSON at all.
var ErrInvalidJSON = errors.New("invalid JSON format")

// Export renders l as indented JSON.
func Export(l todo.List) ([]byte, error) {
	if l == nil {
		l = todo.List{}
	}
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return append(b, '\n'), nil
}

// Import parses and validates an exported list. Schema violations are
// returned joined, each as a *ValidationError.
func Import(data []byte) (todo.List, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	sch, err := compiled()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		var errs []error
		collect(&errs, err)
		return nil, errors.Join(errs...)
	}

	var l todo.List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return l, nil
}

func collect(errs *[]error, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		*errs = append(*errs, err)
		return
	}
	if len(ve.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Path: ve.InstanceLocation,
			Err:  errors.New(ve.Message),
		})
		return
	}
	for _, c := range ve.Causes {
		collect(errs, c)
	}
}

// Apply adds every imported todo to st through the store's own actions, so
// each gets a fresh id and the store's invariants hold. Completed entries
// are toggled after being added. Returns how many todos were added.
func Apply(ctx context.Context, st *todo.Store, l todo.List) int {
	n := 0
	for _, in := range l {
		td, ok := st.AddTodo(ctx, in.Text)
		if !ok {
			continue
		}
		if in.Completed {
			st.ToggleTodo(ctx, td.ID)
		}
		n++
	}
	return n
}

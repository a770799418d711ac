// Package testutil provides entity fixtures and storage helpers for
// package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"parcelgrid/internal/entity"
	"parcelgrid/internal/filter"
)

// EntityOption configures a fixture entity.
type EntityOption func(*entity.Entity)

// WithName overrides the fixture's display name.
func WithName(name string) EntityOption {
	return func(e *entity.Entity) {
		e.Name = name
	}
}

// WithAttr sets a single attribute.
func WithAttr(key string, value any) EntityOption {
	return func(e *entity.Entity) {
		if e.Attrs == nil {
			e.Attrs = make(map[string]any)
		}
		e.Attrs[key] = value
	}
}

func build(typ entity.Type, id string, opts []EntityOption) entity.Entity {
	e := entity.Entity{
		ID:   id,
		Type: typ,
		Name: fmt.Sprintf("%s %s", typ, id),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// State creates a state fixture.
func State(id string, opts ...EntityOption) entity.Entity {
	return build(entity.TypeState, id, opts)
}

// County creates a county fixture.
func County(id string, opts ...EntityOption) entity.Entity {
	return build(entity.TypeCounty, id, opts)
}

// Property creates a property fixture.
func Property(id string, opts ...EntityOption) entity.Entity {
	return build(entity.TypeProperty, id, opts)
}

// Rows converts entities into dataset rows for filter evaluation: id,
// type and name plus every attribute, flattened.
func Rows(entities ...entity.Entity) []filter.Row {
	rows := make([]filter.Row, 0, len(entities))
	for _, e := range entities {
		row := filter.Row{
			"id":   e.ID,
			"type": string(e.Type),
			"name": e.Name,
		}
		for k, v := range e.Attrs {
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows
}

// StubFetcher serves fixture entities from memory and counts calls.
type StubFetcher struct {
	mu       sync.Mutex
	entities map[string]entity.Entity
	calls    int
	err      error
}

// NewStubFetcher creates a fetcher preloaded with the given fixtures.
// Unknown ids fetch an empty-attrs entity rather than failing, so
// selection tests don't need exhaustive fixture sets.
func NewStubFetcher(entities ...entity.Entity) *StubFetcher {
	m := make(map[string]entity.Entity, len(entities))
	for _, e := range entities {
		m[e.ID] = e
	}
	return &StubFetcher{entities: m}
}

// Fail makes every subsequent fetch return err (nil restores success).
func (f *StubFetcher) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls reports how many fetches were attempted.
func (f *StubFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *StubFetcher) FetchEntity(ctx context.Context, typ entity.Type, id string) (entity.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return entity.Entity{}, f.err
	}
	if e, ok := f.entities[id]; ok {
		return e, nil
	}
	return build(typ, id, nil), nil
}

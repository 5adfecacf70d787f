package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ReviewDesk/internal/domain"
)

// ErrMissingIdentity marks a raw record whose native id cannot be determined.
var ErrMissingIdentity = errors.New("record has no identity")

// Adapter fetches raw records from one upstream provider and maps them into activity events.
// Raw provider shapes never leave the adapter.
type Adapter interface {
	Name() string
	Kind() domain.Kind
	// Fetch must return once ctx is done; a call that ignores ctx is abandoned at the
	// source timeout but its goroutine keeps running until it returns.
	Fetch(ctx context.Context) ([]Record, error)
	Normalize(rec Record, fetchedAt time.Time) (domain.ActivityEvent, error)
}

// Registry keeps adapters in registration order, which fixes tie-breaking in the feed.
type Registry struct {
	adapters []Adapter
	byName   map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Adapter{}}
}

// Register appends an adapter. Names must be unique because they prefix event ids.
func (r *Registry) Register(adapter Adapter) error {
	if r.byName == nil {
		r.byName = map[string]Adapter{}
	}
	name := adapter.Name()
	if name == "" {
		return fmt.Errorf("adapter without a name")
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("adapter %s is already registered", name)
	}
	r.byName[name] = adapter
	r.adapters = append(r.adapters, adapter)
	return nil
}

// Resolve returns an adapter by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Adapter, error) {
	if adapter, ok := r.byName[name]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("adapter %s is not registered", name)
}

// Adapters returns the registered adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Len reports how many adapters are registered.
func (r *Registry) Len() int {
	return len(r.adapters)
}

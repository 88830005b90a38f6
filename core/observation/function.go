package observation

import (
	"fmt"
	"sort"

	"github.com/adalundhe/branchobs/core/solver"
)

// Function extracts an observation of type T from the solver state.
type Function[T any] interface {
	// Reset starts a new episode. Static caches are dropped.
	Reset(m solver.Model) error

	// Extract observes the current decision point. done is true on the last
	// step of the episode.
	Extract(m solver.Model, done bool) (T, error)
}

type erased[T any] struct {
	f Function[T]
}

// Erase hides the observation type of f so heterogeneous functions can be
// combined in a Map.
func Erase[T any](f Function[T]) Function[any] {
	return erased[T]{f: f}
}

func (e erased[T]) Reset(m solver.Model) error {
	return e.f.Reset(m)
}

func (e erased[T]) Extract(m solver.Model, done bool) (any, error) {
	obs, err := e.f.Extract(m, done)
	if err != nil {
		return nil, err
	}
	return obs, nil
}

// Map runs a set of named functions on the same model. Functions run in name
// order; the first failure aborts the call.
type Map struct {
	names []string
	fns   map[string]Function[any]
}

// NewMap returns a Map over fns. The map is copied.
func NewMap(fns map[string]Function[any]) *Map {
	m := &Map{fns: make(map[string]Function[any], len(fns))}
	for name, f := range fns {
		m.names = append(m.names, name)
		m.fns[name] = f
	}
	sort.Strings(m.names)
	return m
}

// Names returns the function names in execution order.
func (m *Map) Names() []string {
	return append([]string(nil), m.names...)
}

// Reset resets every function.
func (m *Map) Reset(model solver.Model) error {
	for _, name := range m.names {
		if err := m.fns[name].Reset(model); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Extract returns the observation of every function keyed by name.
func (m *Map) Extract(model solver.Model, done bool) (map[string]any, error) {
	out := make(map[string]any, len(m.names))
	for _, name := range m.names {
		obs, err := m.fns[name].Extract(model, done)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = obs
	}
	return out, nil
}

var _ Function[map[string]any] = (*Map)(nil)

// NothingObs is the empty observation.
type NothingObs struct{}

// Nothing observes nothing. It stands in where an observation is required but
// none is wanted.
type Nothing struct{}

// Reset does nothing.
func (Nothing) Reset(solver.Model) error { return nil }

// Extract returns NothingObs.
func (Nothing) Extract(solver.Model, bool) (NothingObs, error) { return NothingObs{}, nil }

package observation

import (
	"fmt"
	"sort"

	"github.com/adalundhe/branchobs/core/tensor"
)

// Settings parameterizes an extractor built by name. Fields that do not apply
// to an extractor are ignored.
type Settings struct {
	Cache            bool
	Normalize        bool
	PseudoCandidates bool
}

type entry struct {
	build   func(Settings, []Option) Function[any]
	vector  func(Settings) Function[tensor.Vector]
	schemas []*Schema
}

func vectorEntry(f func(Settings) Function[tensor.Vector]) entry {
	return entry{
		build: func(s Settings, _ []Option) Function[any] {
			return Erase[tensor.Vector](f(s))
		},
		vector: f,
	}
}

var registry = map[string]entry{
	"node_bipartite": {
		build: func(s Settings, opts []Option) Function[any] {
			return Erase[NodeBipartiteObs](NewNodeBipartite(s.Cache, opts...))
		},
		schemas: []*Schema{NodeVariableSchema, NodeRowSchema},
	},
	"problem_bipartite": {
		build: func(s Settings, _ []Option) Function[any] {
			return Erase[ProblemBipartiteObs](NewProblemBipartite(s.Normalize))
		},
		schemas: []*Schema{ProblemVariableSchema, ProblemConstraintSchema},
	},
	"structural": {
		build: func(s Settings, opts []Option) Function[any] {
			return Erase[StructuralObs](NewStructural(s.PseudoCandidates, opts...))
		},
		schemas: []*Schema{StructuralSchema},
	},
	"instance_summary": {
		build: func(Settings, []Option) Function[any] {
			return Erase[InstanceSummaryObs](NewInstanceSummary())
		},
		schemas: []*Schema{InstanceSummarySchema},
	},
	"strong_branching_scores": vectorEntry(func(s Settings) Function[tensor.Vector] {
		return NewStrongBranchingScores(s.PseudoCandidates)
	}),
	"pseudocosts": vectorEntry(func(Settings) Function[tensor.Vector] {
		return NewPseudocosts()
	}),
	"focus_node": {
		build: func(Settings, []Option) Function[any] {
			return Erase[FocusNodeObs](NewFocusNode())
		},
		schemas: []*Schema{FocusNodeSchema},
	},
	"capacity": vectorEntry(func(Settings) Function[tensor.Vector] {
		return NewCapacity()
	}),
	"weight": vectorEntry(func(Settings) Function[tensor.Vector] {
		return NewWeight()
	}),
	"nothing": {
		build: func(Settings, []Option) Function[any] {
			return Erase[NothingObs](Nothing{})
		},
	},
}

// Extractors returns the names accepted by New, sorted.
func Extractors() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named extractor.
func New(name string, s Settings, opts ...Option) (Function[any], error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("observation: unknown extractor %q", name)
	}
	return e.build(s, opts), nil
}

// NewVector builds the named extractor when it produces one value per
// variable, as dataset targets do.
func NewVector(name string, s Settings) (Function[tensor.Vector], error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("observation: unknown extractor %q", name)
	}
	if e.vector == nil {
		return nil, fmt.Errorf("observation: extractor %q does not produce a per-variable vector", name)
	}
	return e.vector(s), nil
}

// IsVector reports whether the named extractor produces one value per
// variable.
func IsVector(name string) bool {
	return registry[name].vector != nil
}

// SchemasOf returns the feature schemas of the named extractor. Extractors
// producing one value per variable have none.
func SchemasOf(name string) ([]*Schema, bool) {
	e, ok := registry[name]
	if !ok {
		return nil, false
	}
	return e.schemas, true
}

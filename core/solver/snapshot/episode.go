// Package snapshot implements solver.Model over recorded solver states.
//
// A snapshot document holds one episode: the problem structure followed by the
// state observed at each decision point. It backs the tests of the observation
// engine and the command-line tools, and lets features be recomputed offline
// from states captured by a live solver.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adalundhe/branchobs/core/solver"
)

// Episode is a decoded document: validated structure plus one Model per step.
type Episode struct {
	Name  string
	steps []*Model
	done  []bool
}

// Load reads a YAML or JSON document from path. The format is chosen by
// extension, defaulting to YAML.
func Load(path string) (*Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return Parse(data)
}

// Parse decodes a YAML document.
func Parse(data []byte) (*Episode, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return New(doc)
}

// ParseJSON decodes a JSON document.
func ParseJSON(data []byte) (*Episode, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return New(doc)
}

// New validates doc and builds its episode.
func New(doc Document) (*Episode, error) {
	vars := make([]solver.Variable, len(doc.Variables))
	for i, vd := range doc.Variables {
		v, err := vd.variable(i)
		if err != nil {
			return nil, err
		}
		vars[i] = v
	}

	cons := make([]solver.Constraint, len(doc.Constraints))
	for i, cd := range doc.Constraints {
		c, err := cd.constraint(len(vars))
		if err != nil {
			return nil, err
		}
		cons[i] = c
	}

	ep := &Episode{Name: doc.Name}
	for i, sd := range doc.Steps {
		m, err := newModel(vars, cons, sd)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		ep.steps = append(ep.steps, m)
		ep.done = append(ep.done, sd.Done)
	}
	if len(ep.steps) == 0 {
		m, err := newModel(vars, cons, StepDoc{})
		if err != nil {
			return nil, err
		}
		ep.steps = []*Model{m}
		ep.done = []bool{true}
	}
	return ep, nil
}

// Len returns the number of decision points.
func (e *Episode) Len() int {
	return len(e.steps)
}

// Step returns the model at decision point i.
func (e *Episode) Step(i int) *Model {
	return e.steps[i]
}

// Done reports whether decision point i is the last of the episode. The final
// step is always done.
func (e *Episode) Done(i int) bool {
	return e.done[i] || i == len(e.steps)-1
}

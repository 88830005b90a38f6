package dataset

import (
	"context"
	"encoding"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	obserr "github.com/adalundhe/branchobs/core/errors"
	"github.com/adalundhe/branchobs/core/observation"
	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/solver/snapshot"
	"github.com/adalundhe/branchobs/core/tensor"
)

// Collector pairs a feature function with a target function and emits one
// Sample per decision point into a Sink. The target may be nil.
type Collector struct {
	features observation.Function[map[string]any]
	target   observation.Function[tensor.Vector]
	sink     Sink
	logger   *slog.Logger
}

// NewCollector returns a Collector writing to sink. A nil logger uses
// slog.Default.
func NewCollector(features observation.Function[map[string]any], target observation.Function[tensor.Vector], sink Sink, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{features: features, target: target, sink: sink, logger: logger}
}

// Reset starts a new episode on m.
func (c *Collector) Reset(m solver.Model) error {
	if err := c.features.Reset(m); err != nil {
		return err
	}
	if c.target != nil {
		return c.target.Reset(m)
	}
	return nil
}

// Collect extracts and stores the sample of one step.
func (c *Collector) Collect(ctx context.Context, episode string, step int, m solver.Model, done bool) (Sample, error) {
	obs, err := c.features.Extract(m, done)
	if err != nil {
		return Sample{}, err
	}
	s := Sample{
		ID:       uuid.New(),
		Episode:  episode,
		Step:     step,
		Done:     done,
		Features: make(map[string][]byte, len(obs)),
	}
	for name, o := range obs {
		bm, ok := o.(encoding.BinaryMarshaler)
		if !ok {
			return Sample{}, fmt.Errorf("feature %s: %T is not encodable", name, o)
		}
		data, err := bm.MarshalBinary()
		if err != nil {
			return Sample{}, fmt.Errorf("feature %s: %w", name, err)
		}
		s.Features[name] = data
	}
	if c.target != nil {
		if s.Target, err = c.target.Extract(m, done); err != nil {
			return Sample{}, fmt.Errorf("target: %w", err)
		}
	}
	if err := c.sink.Add(ctx, s); err != nil {
		return Sample{}, fmt.Errorf("store sample: %w", err)
	}
	return s, nil
}

// Run collects every step of ep under the given episode name and returns the
// number of samples stored. Steps where the solver state does not support an
// extractor are skipped.
func (c *Collector) Run(ctx context.Context, episode string, ep *snapshot.Episode) (int, error) {
	if ep.Len() == 0 {
		return 0, nil
	}
	if err := c.Reset(ep.Step(0)); err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}

	stored := 0
	for i := 0; i < ep.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		_, err := c.Collect(ctx, episode, i, ep.Step(i), ep.Done(i))
		switch {
		case err == nil:
			stored++
		case obserr.KindOf(err) == obserr.KindInvalidSolverState:
			c.logger.Debug("skipping step", "episode", episode, "step", i, "error", err)
		default:
			return stored, fmt.Errorf("step %d: %w", i, err)
		}
	}
	c.logger.Info("episode collected", "episode", episode, "steps", ep.Len(), "samples", stored)
	return stored, nil
}

package cmd

import (
	"fmt"

	"github.com/adalundhe/branchobs/core/config"
	"github.com/adalundhe/branchobs/core/observation"
)

// buildExtractors instantiates the configured extractors, narrowed by the
// only pattern. metrics may be nil.
func buildExtractors(c *config.Config, only string, metrics *observation.Metrics) ([]string, map[string]observation.Function[any], error) {
	names, err := c.Selected(only)
	if err != nil {
		return nil, nil, err
	}

	opts := []observation.Option{observation.WithLogger(logger)}
	if c.Extract.StructureCheck {
		opts = append(opts, observation.WithStructureCheck())
	}

	fns := make(map[string]observation.Function[any], len(names))
	for _, name := range names {
		f, err := observation.New(name, c.Settings(), opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("build %s: %w", name, err)
		}
		fns[name] = observation.Instrument(name, f, metrics)
	}
	return names, fns, nil
}

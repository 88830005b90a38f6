package observation

import (
	"fmt"

	"github.com/adalundhe/branchobs/core/solver"
)

// checkEntries fails when a coefficient references a variable outside
// [0, nVars). Extractors index per-variable slices by entry.
func checkEntries(es []solver.Entry, nVars int) error {
	for _, e := range es {
		if e.Var < 0 || e.Var >= nVars {
			return fmt.Errorf("%w: entry %d", solver.ErrVarIndex, e.Var)
		}
	}
	return nil
}

func checkConstraints(cons []solver.Constraint, nVars int) error {
	for i, c := range cons {
		if err := checkEntries(c.Entries, nVars); err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	return nil
}

func checkRows(rows []solver.Row, nVars int) error {
	for i, r := range rows {
		if err := checkEntries(r.Entries, nVars); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

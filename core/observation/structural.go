package observation

import (
	"fmt"
	"math"

	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/tensor"
)

// Structural extracts per-candidate branching features in the style of
// Khalil et al. (2016): a static block describing the variable's objective
// and incident LP rows, followed by a dynamic block computed from the current
// LP solution and branching history.
//
// Rows of variables that are not branching candidates are entirely NA. The
// static block is cached for the episode.
type Structural struct {
	pseudoCandidates bool
	opts             options
	static           StaticCache[*tensor.Matrix]
}

// NewStructural returns a Structural extractor over LP candidates, or over
// pseudo candidates when pseudoCandidates is set.
func NewStructural(pseudoCandidates bool, opts ...Option) *Structural {
	return &Structural{pseudoCandidates: pseudoCandidates, opts: newOptions(opts)}
}

// Reset drops the static cache.
func (e *Structural) Reset(solver.Model) error {
	e.static.Invalidate()
	return nil
}

// incidence is a non-zero coefficient seen from its variable.
type incidence struct {
	row  int
	coef float64
}

func columnIncidence(rows []solver.Row, nVars int) [][]incidence {
	cols := make([][]incidence, nVars)
	for i, r := range rows {
		for _, e := range r.Entries {
			cols[e.Var] = append(cols[e.Var], incidence{row: i, coef: e.Coef})
		}
	}
	return cols
}

// Extract implements Function. It fails with an invalid solver state error
// when no LP has been solved.
func (e *Structural) Extract(m solver.Model, _ bool) (StructuralObs, error) {
	const op = "structural"

	vars, err := m.Variables()
	if err != nil {
		return StructuralObs{}, stateError(op, err)
	}
	lp, err := m.LP()
	if err != nil {
		return StructuralObs{}, stateError(op, err)
	}
	if len(lp.Columns) != len(vars) {
		return StructuralObs{}, stateError(op,
			fmt.Errorf("LP has %d columns for %d variables", len(lp.Columns), len(vars)))
	}
	kind := solver.LPCandidates
	if e.pseudoCandidates {
		kind = solver.PseudoCandidates
	}
	cands, err := m.Candidates(kind)
	if err != nil {
		return StructuralObs{}, stateError(op, err)
	}
	hist, err := m.History()
	if err != nil {
		return StructuralObs{}, stateError(op, err)
	}
	if len(hist) != len(vars) {
		return StructuralObs{}, stateError(op,
			fmt.Errorf("history has %d entries for %d variables", len(hist), len(vars)))
	}

	if err := checkRows(lp.Rows, len(vars)); err != nil {
		return StructuralObs{}, stateError(op, err)
	}
	cols := columnIncidence(lp.Rows, len(vars))
	static, err := e.staticBlock(op, vars, lp.Rows, cols)
	if err != nil {
		return StructuralObs{}, err
	}

	isCand := make([]bool, len(vars))
	for _, j := range cands {
		if j < 0 || j >= len(vars) {
			return StructuralObs{}, stateError(op, fmt.Errorf("%w: candidate %d", solver.ErrVarIndex, j))
		}
		isCand[j] = true
	}
	rs := newRowStats(vars, lp.Rows, isCand)

	out := tensor.NewMatrixFilled(len(vars), StructuralSchema.Len(), tensor.NA())
	for _, j := range cands {
		f := out.Row(j)
		copy(f[:StructuralStaticFeatures], static.Row(j))
		structuralDynamic(f, lp.Columns[j].Solution, hist[j], cols[j], rs)
	}
	return StructuralObs{Features: out}, nil
}

func (e *Structural) staticBlock(op string, vars []solver.Variable, rows []solver.Row, cols [][]incidence) (*tensor.Matrix, error) {
	fp := e.opts.fingerprint(vars, rows)
	st, ok, err := loadCached(&e.static, e.opts, op, fp)
	if err != nil || ok {
		return st, err
	}
	st = structuralStatic(vars, rows, cols)
	e.static.Store(st, fp)
	e.opts.logger.Debug("cached static features",
		"extractor", op,
		"variables", len(vars),
		"rows", len(rows))
	return st, nil
}

// structuralStatic splits coefficients by sign in the row oriented as
// a·x <= b, as the dynamic block does.
func structuralStatic(vars []solver.Variable, rows []solver.Row, cols [][]incidence) *tensor.Matrix {
	out := tensor.NewMatrix(len(vars), StructuralStaticFeatures)
	for j, v := range vars {
		f := out.Row(j)
		f[StructObjCoef] = v.Objective
		f[StructObjCoefPosPart] = math.Max(v.Objective, 0)
		f[StructObjCoefNegPart] = math.Max(-v.Objective, 0)
		f[StructNRows] = float64(len(cols[j]))

		degs := make([]float64, 0, len(cols[j]))
		var pos, neg []float64
		for _, in := range cols[j] {
			r := rows[in.row]
			degs = append(degs, float64(len(r.Entries)))
			_, sign, _ := r.Oriented()
			if a := sign * in.coef; a > 0 {
				pos = append(pos, a)
			} else {
				neg = append(neg, a)
			}
		}
		d := summarize(degs)
		f[StructRowsDegMean], f[StructRowsDegStddev], f[StructRowsDegMin], f[StructRowsDegMax] = d.mean, d.stddev, d.min, d.max
		putCoefStats(f[StructRowsPosCoefsCount:StructRowsPosCoefsMax+1], summarize(pos))
		putCoefStats(f[StructRowsNegCoefsCount:StructRowsNegCoefsMax+1], summarize(neg))
	}
	return out
}

// putCoefStats writes count, mean, stddev, min and max.
func putCoefStats(dst []float64, s summary) {
	dst[0], dst[1], dst[2], dst[3], dst[4] = s.count, s.mean, s.stddev, s.min, s.max
}

// rowStats holds per-row quantities shared by every candidate of one Extract.
// Coefficient sums are over the row oriented as a·x <= b.
type rowStats struct {
	rows []solver.Row

	sign    []float64
	bias    []float64
	hasBias []bool
	dynDeg  []float64
	posSum  []float64
	negSum  []float64
	absSum  []float64
	candAbs []float64
	active  []bool
}

func newRowStats(vars []solver.Variable, rows []solver.Row, isCand []bool) rowStats {
	n := len(rows)
	rs := rowStats{
		rows:    rows,
		sign:    make([]float64, n),
		bias:    make([]float64, n),
		hasBias: make([]bool, n),
		dynDeg:  make([]float64, n),
		posSum:  make([]float64, n),
		negSum:  make([]float64, n),
		absSum:  make([]float64, n),
		candAbs: make([]float64, n),
		active:  make([]bool, n),
	}
	for i, r := range rows {
		b, sign, ok := r.Oriented()
		rs.sign[i] = sign
		rs.bias[i] = b - sign*r.Constant
		rs.hasBias[i] = ok
		rs.active[i] = isTight(r)
		for _, e := range r.Entries {
			v := vars[e.Var]
			if !solver.IsFixed(v.Lower, v.Upper) {
				rs.dynDeg[i]++
			}
			a := sign * e.Coef
			if a > 0 {
				rs.posSum[i] += a
			} else {
				rs.negSum[i] -= a
			}
			rs.absSum[i] += math.Abs(e.Coef)
			if isCand[e.Var] {
				rs.candAbs[i] += math.Abs(e.Coef)
			}
		}
	}
	return rs
}

func structuralDynamic(f []float64, x float64, h solver.History, col []incidence, rs rowStats) {
	frac := solver.FeasFrac(x)
	f[StructSlack] = math.Min(frac, 1-frac)
	f[StructCeilDist] = solver.FeasCeil(x) - x

	up, down := h.PseudocostUp, h.PseudocostDown
	f[StructPseudocostUp] = up
	f[StructPseudocostDown] = down
	f[StructPseudocostRatio] = safeDiv(math.Min(up, down), math.Max(up, down))
	f[StructPseudocostSum] = up + down
	f[StructPseudocostProduct] = up * down

	f[StructNCutoffUp] = h.CutoffUp
	f[StructNCutoffDown] = h.CutoffDown
	f[StructNCutoffUpRatio] = safeDiv(h.CutoffUp, h.CutoffUp+h.CutoffDown)
	f[StructNCutoffDownRatio] = safeDiv(h.CutoffDown, h.CutoffUp+h.CutoffDown)

	var (
		dynDegs                        []float64
		posRhs, negRhs                 []float64
		posPos, posNeg, negPos, negNeg []float64
		weighted                       [4][]float64
	)
	for _, in := range col {
		i := in.row
		dynDegs = append(dynDegs, rs.dynDeg[i])

		a := rs.sign[i] * in.coef
		if rs.hasBias[i] {
			switch b := rs.bias[i]; {
			case b > 0:
				posRhs = append(posRhs, a/b)
			case b < 0:
				negRhs = append(negRhs, a/b)
			}
		}

		if a > 0 {
			posPos = append(posPos, a/rs.posSum[i])
			if rs.negSum[i] > 0 {
				posNeg = append(posNeg, a/rs.negSum[i])
			}
		} else {
			if rs.posSum[i] > 0 {
				negPos = append(negPos, -a/rs.posSum[i])
			}
			negNeg = append(negNeg, -a/rs.negSum[i])
		}

		if rs.active[i] {
			weighted[0] = append(weighted[0], in.coef)
			weighted[1] = append(weighted[1], in.coef/rs.absSum[i])
			weighted[2] = append(weighted[2], in.coef/rs.candAbs[i])
			weighted[3] = append(weighted[3], in.coef*math.Abs(rs.rows[i].Dual))
		}
	}

	d := summarize(dynDegs)
	f[StructRowsDynamicDegMean] = d.mean
	f[StructRowsDynamicDegStddev] = d.stddev
	f[StructRowsDynamicDegMin] = d.min
	f[StructRowsDynamicDegMax] = d.max
	f[StructRowsDynamicDegMeanRatio] = safeDiv(d.mean, f[StructRowsDegMean])
	f[StructRowsDynamicDegMinRatio] = safeDiv(d.min, f[StructRowsDegMin])
	f[StructRowsDynamicDegMaxRatio] = safeDiv(d.max, f[StructRowsDegMax])

	f[StructCoefPosRhsRatioMin], f[StructCoefPosRhsRatioMax] = minMax(posRhs)
	f[StructCoefNegRhsRatioMin], f[StructCoefNegRhsRatioMax] = minMax(negRhs)
	f[StructPosCoefPosCoefRatioMin], f[StructPosCoefPosCoefRatioMax] = minMax(posPos)
	f[StructPosCoefNegCoefRatioMin], f[StructPosCoefNegCoefRatioMax] = minMax(posNeg)
	f[StructNegCoefPosCoefRatioMin], f[StructNegCoefPosCoefRatioMax] = minMax(negPos)
	f[StructNegCoefNegCoefRatioMin], f[StructNegCoefNegCoefRatioMax] = minMax(negNeg)

	blocks := [4]StructuralFeature{
		StructActiveCoefWeight1Count,
		StructActiveCoefWeight2Count,
		StructActiveCoefWeight3Count,
		StructActiveCoefWeight4Count,
	}
	for k, start := range blocks {
		summarize(weighted[k]).put(f[start : start+6])
	}
}

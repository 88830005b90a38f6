package observation

import (
	"encoding/json"

	obserr "github.com/adalundhe/branchobs/core/errors"
	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/tensor"
)

// Frame kinds of the observation bundles.
const (
	KindNodeBipartite tensor.Kind = tensor.KindUser + iota
	KindProblemBipartite
	KindStructural
	KindInstanceSummary
	KindFocusNode
	KindNothing
)

func stateError(op string, err error) error {
	return obserr.Wrap(obserr.KindInvalidSolverState, op, err)
}

// NodeBipartiteObs is the bipartite graph of the focus node LP: one feature
// row per variable, one per LP row, and one edge per non-zero coefficient.
type NodeBipartiteObs struct {
	VariableFeatures *tensor.Matrix `json:"variable_features"`
	RowFeatures      *tensor.Matrix `json:"row_features"`
	EdgeFeatures     tensor.COO     `json:"edge_features"`
}

// Clone returns a deep copy.
func (o NodeBipartiteObs) Clone() NodeBipartiteObs {
	return NodeBipartiteObs{
		VariableFeatures: o.VariableFeatures.Clone(),
		RowFeatures:      o.RowFeatures.Clone(),
		EdgeFeatures:     o.EdgeFeatures.Clone(),
	}
}

// Equal reports whether both observations are bit-identical.
func (o NodeBipartiteObs) Equal(other NodeBipartiteObs) bool {
	return o.VariableFeatures.Equal(other.VariableFeatures) &&
		o.RowFeatures.Equal(other.RowFeatures) &&
		o.EdgeFeatures.Equal(other.EdgeFeatures)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (o NodeBipartiteObs) MarshalBinary() ([]byte, error) {
	enc := tensor.NewEncoder(KindNodeBipartite)
	enc.Matrix(o.VariableFeatures)
	enc.Matrix(o.RowFeatures)
	enc.COO(o.EdgeFeatures)
	return enc.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (o *NodeBipartiteObs) UnmarshalBinary(data []byte) error {
	dec, err := tensor.NewDecoder("decode node bipartite", data, KindNodeBipartite)
	if err != nil {
		return err
	}
	obs := NodeBipartiteObs{
		VariableFeatures: dec.Matrix(),
		RowFeatures:      dec.Matrix(),
		EdgeFeatures:     dec.COO(),
	}
	if err := dec.Finish(); err != nil {
		return err
	}
	*o = obs
	return nil
}

// ProblemBipartiteObs is the bipartite graph of the presolved problem.
type ProblemBipartiteObs struct {
	VariableFeatures   *tensor.Matrix `json:"variable_features"`
	ConstraintFeatures *tensor.Matrix `json:"constraint_features"`
	EdgeFeatures       tensor.COO     `json:"edge_features"`
}

// Clone returns a deep copy.
func (o ProblemBipartiteObs) Clone() ProblemBipartiteObs {
	return ProblemBipartiteObs{
		VariableFeatures:   o.VariableFeatures.Clone(),
		ConstraintFeatures: o.ConstraintFeatures.Clone(),
		EdgeFeatures:       o.EdgeFeatures.Clone(),
	}
}

// Equal reports whether both observations are bit-identical.
func (o ProblemBipartiteObs) Equal(other ProblemBipartiteObs) bool {
	return o.VariableFeatures.Equal(other.VariableFeatures) &&
		o.ConstraintFeatures.Equal(other.ConstraintFeatures) &&
		o.EdgeFeatures.Equal(other.EdgeFeatures)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (o ProblemBipartiteObs) MarshalBinary() ([]byte, error) {
	enc := tensor.NewEncoder(KindProblemBipartite)
	enc.Matrix(o.VariableFeatures)
	enc.Matrix(o.ConstraintFeatures)
	enc.COO(o.EdgeFeatures)
	return enc.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (o *ProblemBipartiteObs) UnmarshalBinary(data []byte) error {
	dec, err := tensor.NewDecoder("decode problem bipartite", data, KindProblemBipartite)
	if err != nil {
		return err
	}
	obs := ProblemBipartiteObs{
		VariableFeatures:   dec.Matrix(),
		ConstraintFeatures: dec.Matrix(),
		EdgeFeatures:       dec.COO(),
	}
	if err := dec.Finish(); err != nil {
		return err
	}
	*o = obs
	return nil
}

// StructuralObs holds one row of StructuralSchema features per variable.
// Rows of variables that are not branching candidates are entirely NA.
type StructuralObs struct {
	Features *tensor.Matrix `json:"features"`
}

// Static returns a copy of the static block of variable i.
func (o StructuralObs) Static(i int) []float64 {
	return append([]float64(nil), o.Features.Row(i)[:StructuralStaticFeatures]...)
}

// Dynamic returns a copy of the dynamic block of variable i.
func (o StructuralObs) Dynamic(i int) []float64 {
	return append([]float64(nil), o.Features.Row(i)[StructuralStaticFeatures:]...)
}

// Clone returns a deep copy.
func (o StructuralObs) Clone() StructuralObs {
	return StructuralObs{Features: o.Features.Clone()}
}

// Equal reports whether both observations are bit-identical.
func (o StructuralObs) Equal(other StructuralObs) bool {
	return o.Features.Equal(other.Features)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (o StructuralObs) MarshalBinary() ([]byte, error) {
	enc := tensor.NewEncoder(KindStructural)
	enc.Matrix(o.Features)
	return enc.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (o *StructuralObs) UnmarshalBinary(data []byte) error {
	dec, err := tensor.NewDecoder("decode structural", data, KindStructural)
	if err != nil {
		return err
	}
	features := dec.Matrix()
	if err := dec.Finish(); err != nil {
		return err
	}
	o.Features = features
	return nil
}

// InstanceSummaryObs is the vector of InstanceSummarySchema features.
type InstanceSummaryObs struct {
	Features tensor.Vector `json:"features"`
}

// Get returns feature f.
func (o InstanceSummaryObs) Get(f InstanceFeature) float64 {
	return o.Features[f]
}

// Clone returns a deep copy.
func (o InstanceSummaryObs) Clone() InstanceSummaryObs {
	return InstanceSummaryObs{Features: o.Features.Clone()}
}

// Equal reports whether both observations are bit-identical.
func (o InstanceSummaryObs) Equal(other InstanceSummaryObs) bool {
	return o.Features.Equal(other.Features)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (o InstanceSummaryObs) MarshalBinary() ([]byte, error) {
	enc := tensor.NewEncoder(KindInstanceSummary)
	enc.Floats(o.Features)
	return enc.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (o *InstanceSummaryObs) UnmarshalBinary(data []byte) error {
	dec, err := tensor.NewDecoder("decode instance summary", data, KindInstanceSummary)
	if err != nil {
		return err
	}
	features := dec.Floats()
	if err := dec.Finish(); err != nil {
		return err
	}
	o.Features = features
	return nil
}

// FocusNodeObs describes the focus node. ParentLowerBound is NA at the root.
type FocusNodeObs struct {
	Number           int64   `json:"number"`
	Depth            int     `json:"depth"`
	LowerBound       float64 `json:"lower_bound"`
	Estimate         float64 `json:"estimate"`
	NAddedConss      int     `json:"n_added_conss"`
	NAddedVars       int     `json:"n_added_vars"`
	NLPCands         int     `json:"n_lp_cands"`
	NPseudoCands     int     `json:"n_pseudo_cands"`
	ParentNumber     int64   `json:"parent_number"`
	ParentLowerBound float64 `json:"parent_lower_bound"`
}

func newFocusNodeObs(n solver.Node, lpCands, pseudoCands int) FocusNodeObs {
	obs := FocusNodeObs{
		Number:           n.Number,
		Depth:            n.Depth,
		LowerBound:       n.LowerBound,
		Estimate:         n.Estimate,
		NAddedConss:      n.NAddedConss,
		NAddedVars:       n.NAddedVars,
		NLPCands:         lpCands,
		NPseudoCands:     pseudoCands,
		ParentNumber:     n.ParentNumber,
		ParentLowerBound: n.ParentLowerBound,
	}
	if n.ParentNumber < 0 {
		obs.ParentNumber = -1
		obs.ParentLowerBound = tensor.NA()
	}
	return obs
}

// MarshalJSON encodes NA bounds as null.
func (o FocusNodeObs) MarshalJSON() ([]byte, error) {
	type plain FocusNodeObs
	return json.Marshal(struct {
		plain
		LowerBound       tensor.Float `json:"lower_bound"`
		Estimate         tensor.Float `json:"estimate"`
		ParentLowerBound tensor.Float `json:"parent_lower_bound"`
	}{
		plain:            plain(o),
		LowerBound:       tensor.Float(o.LowerBound),
		Estimate:         tensor.Float(o.Estimate),
		ParentLowerBound: tensor.Float(o.ParentLowerBound),
	})
}

// Vector returns the fields as floats in FocusNodeSchema order.
func (o FocusNodeObs) Vector() tensor.Vector {
	return tensor.Vector{
		float64(o.Number),
		float64(o.Depth),
		o.LowerBound,
		o.Estimate,
		float64(o.NAddedConss),
		float64(o.NAddedVars),
		float64(o.NLPCands),
		float64(o.NPseudoCands),
		float64(o.ParentNumber),
		o.ParentLowerBound,
	}
}

// Clone returns a copy.
func (o FocusNodeObs) Clone() FocusNodeObs {
	return o
}

// Equal reports whether both observations are bit-identical.
func (o FocusNodeObs) Equal(other FocusNodeObs) bool {
	return o.Vector().Equal(other.Vector())
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (o FocusNodeObs) MarshalBinary() ([]byte, error) {
	enc := tensor.NewEncoder(KindFocusNode)
	enc.Int64(o.Number)
	enc.Int64(int64(o.Depth))
	enc.Float64(o.LowerBound)
	enc.Float64(o.Estimate)
	enc.Int64(int64(o.NAddedConss))
	enc.Int64(int64(o.NAddedVars))
	enc.Int64(int64(o.NLPCands))
	enc.Int64(int64(o.NPseudoCands))
	enc.Int64(o.ParentNumber)
	enc.Float64(o.ParentLowerBound)
	return enc.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (o *FocusNodeObs) UnmarshalBinary(data []byte) error {
	dec, err := tensor.NewDecoder("decode focus node", data, KindFocusNode)
	if err != nil {
		return err
	}
	obs := FocusNodeObs{
		Number:           dec.Int64(),
		Depth:            int(dec.Int64()),
		LowerBound:       dec.Float64(),
		Estimate:         dec.Float64(),
		NAddedConss:      int(dec.Int64()),
		NAddedVars:       int(dec.Int64()),
		NLPCands:         int(dec.Int64()),
		NPseudoCands:     int(dec.Int64()),
		ParentNumber:     dec.Int64(),
		ParentLowerBound: dec.Float64(),
	}
	if err := dec.Finish(); err != nil {
		return err
	}
	*o = obs
	return nil
}

// Clone returns a copy.
func (NothingObs) Clone() NothingObs { return NothingObs{} }

// Equal always reports true.
func (NothingObs) Equal(NothingObs) bool { return true }

// MarshalBinary implements encoding.BinaryMarshaler.
func (NothingObs) MarshalBinary() ([]byte, error) {
	return tensor.NewEncoder(KindNothing).Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (*NothingObs) UnmarshalBinary(data []byte) error {
	dec, err := tensor.NewDecoder("decode nothing", data, KindNothing)
	if err != nil {
		return err
	}
	return dec.Finish()
}

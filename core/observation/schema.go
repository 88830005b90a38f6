package observation

import "fmt"

// Schema is an ordered, closed set of feature names. Column i of an
// observation matrix holds feature Names()[i].
type Schema struct {
	name  string
	names []string
	index map[string]int
}

func newSchema(name string, features ...string) *Schema {
	s := &Schema{name: name, names: features, index: make(map[string]int, len(features))}
	for i, f := range features {
		if _, dup := s.index[f]; dup {
			panic("observation: duplicate feature " + f + " in schema " + name)
		}
		s.index[f] = i
	}
	return s
}

// Name identifies the schema.
func (s *Schema) Name() string {
	return s.name
}

// Len returns the number of features.
func (s *Schema) Len() int {
	return len(s.names)
}

// Features returns the feature names in column order.
func (s *Schema) Features() []string {
	return append([]string(nil), s.names...)
}

// Lookup returns the column of the named feature.
func (s *Schema) Lookup(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func (s *Schema) feature(i int) string {
	if i < 0 || i >= len(s.names) {
		return "unknown"
	}
	return s.names[i]
}

// NodeVariableFeature is a column of NodeBipartiteObs.VariableFeatures.
type NodeVariableFeature int

const (
	NodeVarObjective NodeVariableFeature = iota
	NodeVarIsTypeBinary
	NodeVarIsTypeInteger
	NodeVarIsTypeImplicitInteger
	NodeVarIsTypeContinuous
	NodeVarHasLowerBound
	NodeVarHasUpperBound
	NodeVarNormedReducedCost
	NodeVarSolutionValue
	NodeVarSolutionFrac
	NodeVarIsSolutionAtLowerBound
	NodeVarIsSolutionAtUpperBound
	NodeVarScaledAge
	NodeVarIncumbentValue
	NodeVarAverageIncumbentValue
	NodeVarIsBasisLower
	NodeVarIsBasisBasic
	NodeVarIsBasisUpper
	NodeVarIsBasisZero
)

// NodeVariableSchema lists the variable features of NodeBipartite.
var NodeVariableSchema = newSchema("node_bipartite.variable",
	"objective",
	"is_type_binary",
	"is_type_integer",
	"is_type_implicit_integer",
	"is_type_continuous",
	"has_lower_bound",
	"has_upper_bound",
	"normed_reduced_cost",
	"solution_value",
	"solution_frac",
	"is_solution_at_lower_bound",
	"is_solution_at_upper_bound",
	"scaled_age",
	"incumbent_value",
	"average_incumbent_value",
	"is_basis_lower",
	"is_basis_basic",
	"is_basis_upper",
	"is_basis_zero",
)

func (f NodeVariableFeature) String() string { return NodeVariableSchema.feature(int(f)) }

// NodeRowFeature is a column of NodeBipartiteObs.RowFeatures.
type NodeRowFeature int

const (
	NodeRowBias NodeRowFeature = iota
	NodeRowObjectiveCosineSimilarity
	NodeRowIsTight
	NodeRowDualSolutionValue
	NodeRowScaledAge
)

// NodeRowSchema lists the row features of NodeBipartite.
var NodeRowSchema = newSchema("node_bipartite.row",
	"bias",
	"objective_cosine_similarity",
	"is_tight",
	"dual_solution_value",
	"scaled_age",
)

func (f NodeRowFeature) String() string { return NodeRowSchema.feature(int(f)) }

// ProblemVariableFeature is a column of ProblemBipartiteObs.VariableFeatures.
type ProblemVariableFeature int

const (
	ProblemVarObjective ProblemVariableFeature = iota
	ProblemVarIsTypeBinary
	ProblemVarIsTypeInteger
	ProblemVarIsTypeImplicitInteger
	ProblemVarIsTypeContinuous
	ProblemVarHasLowerBound
	ProblemVarHasUpperBound
	ProblemVarLowerBound
	ProblemVarUpperBound
)

// ProblemVariableSchema lists the variable features of ProblemBipartite.
var ProblemVariableSchema = newSchema("problem_bipartite.variable",
	"objective",
	"is_type_binary",
	"is_type_integer",
	"is_type_implicit_integer",
	"is_type_continuous",
	"has_lower_bound",
	"has_upper_bound",
	"lower_bound",
	"upper_bound",
)

func (f ProblemVariableFeature) String() string { return ProblemVariableSchema.feature(int(f)) }

// ProblemConstraintFeature is a column of ProblemBipartiteObs.ConstraintFeatures.
type ProblemConstraintFeature int

const (
	ProblemConsBias ProblemConstraintFeature = iota
)

// ProblemConstraintSchema lists the constraint features of ProblemBipartite.
var ProblemConstraintSchema = newSchema("problem_bipartite.constraint", "bias")

func (f ProblemConstraintFeature) String() string { return ProblemConstraintSchema.feature(int(f)) }

// StructuralFeature is a column of StructuralObs.Features. Static features
// come first.
type StructuralFeature int

const (
	// Static.
	StructObjCoef StructuralFeature = iota
	StructObjCoefPosPart
	StructObjCoefNegPart
	StructNRows
	StructRowsDegMean
	StructRowsDegStddev
	StructRowsDegMin
	StructRowsDegMax
	StructRowsPosCoefsCount
	StructRowsPosCoefsMean
	StructRowsPosCoefsStddev
	StructRowsPosCoefsMin
	StructRowsPosCoefsMax
	StructRowsNegCoefsCount
	StructRowsNegCoefsMean
	StructRowsNegCoefsStddev
	StructRowsNegCoefsMin
	StructRowsNegCoefsMax

	// Dynamic.
	StructSlack
	StructCeilDist
	StructPseudocostUp
	StructPseudocostDown
	StructPseudocostRatio
	StructPseudocostSum
	StructPseudocostProduct
	StructNCutoffUp
	StructNCutoffDown
	StructNCutoffUpRatio
	StructNCutoffDownRatio
	StructRowsDynamicDegMean
	StructRowsDynamicDegStddev
	StructRowsDynamicDegMin
	StructRowsDynamicDegMax
	StructRowsDynamicDegMeanRatio
	StructRowsDynamicDegMinRatio
	StructRowsDynamicDegMaxRatio
	StructCoefPosRhsRatioMin
	StructCoefPosRhsRatioMax
	StructCoefNegRhsRatioMin
	StructCoefNegRhsRatioMax
	StructPosCoefPosCoefRatioMin
	StructPosCoefPosCoefRatioMax
	StructPosCoefNegCoefRatioMin
	StructPosCoefNegCoefRatioMax
	StructNegCoefPosCoefRatioMin
	StructNegCoefPosCoefRatioMax
	StructNegCoefNegCoefRatioMin
	StructNegCoefNegCoefRatioMax
	StructActiveCoefWeight1Count
	StructActiveCoefWeight1Sum
	StructActiveCoefWeight1Mean
	StructActiveCoefWeight1Stddev
	StructActiveCoefWeight1Min
	StructActiveCoefWeight1Max
	StructActiveCoefWeight2Count
	StructActiveCoefWeight2Sum
	StructActiveCoefWeight2Mean
	StructActiveCoefWeight2Stddev
	StructActiveCoefWeight2Min
	StructActiveCoefWeight2Max
	StructActiveCoefWeight3Count
	StructActiveCoefWeight3Sum
	StructActiveCoefWeight3Mean
	StructActiveCoefWeight3Stddev
	StructActiveCoefWeight3Min
	StructActiveCoefWeight3Max
	StructActiveCoefWeight4Count
	StructActiveCoefWeight4Sum
	StructActiveCoefWeight4Mean
	StructActiveCoefWeight4Stddev
	StructActiveCoefWeight4Min
	StructActiveCoefWeight4Max
)

// Sizes of the two blocks of StructuralObs.Features.
const (
	StructuralStaticFeatures  = int(StructSlack)
	StructuralDynamicFeatures = int(StructActiveCoefWeight4Max) + 1 - StructuralStaticFeatures
)

// StructuralSchema lists the features of Structural.
var StructuralSchema = newSchema("structural", structuralNames()...)

func structuralNames() []string {
	names := []string{
		"obj_coef",
		"obj_coef_pos_part",
		"obj_coef_neg_part",
		"n_rows",
		"rows_deg_mean",
		"rows_deg_stddev",
		"rows_deg_min",
		"rows_deg_max",
		"rows_pos_coefs_count",
		"rows_pos_coefs_mean",
		"rows_pos_coefs_stddev",
		"rows_pos_coefs_min",
		"rows_pos_coefs_max",
		"rows_neg_coefs_count",
		"rows_neg_coefs_mean",
		"rows_neg_coefs_stddev",
		"rows_neg_coefs_min",
		"rows_neg_coefs_max",
		"slack",
		"ceil_dist",
		"pseudocost_up",
		"pseudocost_down",
		"pseudocost_ratio",
		"pseudocost_sum",
		"pseudocost_product",
		"n_cutoff_up",
		"n_cutoff_down",
		"n_cutoff_up_ratio",
		"n_cutoff_down_ratio",
		"rows_dynamic_deg_mean",
		"rows_dynamic_deg_stddev",
		"rows_dynamic_deg_min",
		"rows_dynamic_deg_max",
		"rows_dynamic_deg_mean_ratio",
		"rows_dynamic_deg_min_ratio",
		"rows_dynamic_deg_max_ratio",
		"coef_pos_rhs_ratio_min",
		"coef_pos_rhs_ratio_max",
		"coef_neg_rhs_ratio_min",
		"coef_neg_rhs_ratio_max",
		"pos_coef_pos_coef_ratio_min",
		"pos_coef_pos_coef_ratio_max",
		"pos_coef_neg_coef_ratio_min",
		"pos_coef_neg_coef_ratio_max",
		"neg_coef_pos_coef_ratio_min",
		"neg_coef_pos_coef_ratio_max",
		"neg_coef_neg_coef_ratio_min",
		"neg_coef_neg_coef_ratio_max",
	}
	for w := 1; w <= 4; w++ {
		for _, s := range []string{"count", "sum", "mean", "stddev", "min", "max"} {
			names = append(names, fmt.Sprintf("active_coef_weight%d_%s", w, s))
		}
	}
	return names
}

func (f StructuralFeature) String() string { return StructuralSchema.feature(int(f)) }

// IsStatic reports whether the feature belongs to the static block.
func (f StructuralFeature) IsStatic() bool {
	return int(f) < StructuralStaticFeatures
}

// InstanceFeature is an entry of InstanceSummaryObs.Features.
type InstanceFeature int

const (
	InstNbVariables InstanceFeature = iota
	InstNbConstraints
	InstNbNonzeroCoefs
	InstVariableNodeDegreeMean
	InstVariableNodeDegreeMax
	InstVariableNodeDegreeMin
	InstVariableNodeDegreeStd
	InstConstraintNodeDegreeMean
	InstConstraintNodeDegreeMax
	InstConstraintNodeDegreeMin
	InstConstraintNodeDegreeStd
	InstNodeDegreeMean
	InstNodeDegreeMax
	InstNodeDegreeMin
	InstNodeDegreeStd
	InstNodeDegree25Q
	InstNodeDegree75Q
	InstEdgeDensity
	InstLPSlackMean
	InstLPSlackMax
	InstLPSlackL2
	InstLPObjectiveValue
	InstObjectiveCoefMStd
	InstObjectiveCoefNStd
	InstObjectiveCoefSqrtNStd
	InstConstraintCoefMean
	InstConstraintCoefStd
	InstConstraintVarCoefMean
	InstConstraintVarCoefStd
	InstDiscreteVarsSupportSizeMean
	InstDiscreteVarsSupportSizeStd
	InstRatioUnboundedDiscreteVars
	InstRatioContinuousVars
)

// InstanceSummarySchema lists the features of InstanceSummary.
var InstanceSummarySchema = newSchema("instance_summary",
	"nb_variables",
	"nb_constraints",
	"nb_nonzero_coefs",
	"variable_node_degree_mean",
	"variable_node_degree_max",
	"variable_node_degree_min",
	"variable_node_degree_std",
	"constraint_node_degree_mean",
	"constraint_node_degree_max",
	"constraint_node_degree_min",
	"constraint_node_degree_std",
	"node_degree_mean",
	"node_degree_max",
	"node_degree_min",
	"node_degree_std",
	"node_degree_25q",
	"node_degree_75q",
	"edge_density",
	"lp_slack_mean",
	"lp_slack_max",
	"lp_slack_l2",
	"lp_objective_value",
	"objective_coef_m_std",
	"objective_coef_n_std",
	"objective_coef_sqrtn_std",
	"constraint_coef_mean",
	"constraint_coef_std",
	"constraint_var_coef_mean",
	"constraint_var_coef_std",
	"discrete_vars_support_size_mean",
	"discrete_vars_support_size_std",
	"ratio_unbounded_discrete_vars",
	"ratio_continuous_vars",
)

func (f InstanceFeature) String() string { return InstanceSummarySchema.feature(int(f)) }

// FocusNodeSchema names the fields of FocusNodeObs in encoding order.
var FocusNodeSchema = newSchema("focus_node",
	"number",
	"depth",
	"lower_bound",
	"estimate",
	"n_added_conss",
	"n_added_vars",
	"n_lp_cands",
	"n_pseudo_cands",
	"parent_number",
	"parent_lower_bound",
)

// Schemas returns every schema keyed by name.
func Schemas() map[string]*Schema {
	out := make(map[string]*Schema)
	for _, s := range []*Schema{
		NodeVariableSchema,
		NodeRowSchema,
		ProblemVariableSchema,
		ProblemConstraintSchema,
		StructuralSchema,
		InstanceSummarySchema,
		FocusNodeSchema,
	} {
		out[s.name] = s
	}
	return out
}

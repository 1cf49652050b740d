package match

// Decision rules. Each edge records which rule produced it so the merge
// report can break confidence down per rule.
const (
	RuleGeoName      = "geo_name"               // proximity + fuzzy name
	RuleGeoGeneric   = "geo_tight_generic"      // generic name, tight radius, near-exact
	RuleNameOnly     = "name_only_intra_source" // same source, no geo corroboration
)

// Edge is one declared match between two records, identified by their
// global indices with A < B. Edges are transient: they exist only to build
// merge clusters.
type Edge struct {
	A         int
	B         int
	Score     float64
	DistanceM float64 // -1 when no distance was available
	Rule      string
}

// NewEdge builds an edge with canonical endpoint ordering.
func NewEdge(a, b int, score, distanceM float64, rule string) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b, Score: score, DistanceM: distanceM, Rule: rule}
}

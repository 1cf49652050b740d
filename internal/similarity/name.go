package similarity

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// genericNames are facility names with no distinguishing signal: tens of
// thousands of facilities nationwide share them verbatim. Matching on these
// requires tight geographic co-location, never name evidence alone.
var genericNames = map[string]bool{
	"HOSPITAL": true, "PHARMACY": true, "CLINIC": true, "DISPENSARY": true,
	"PRIMARY HEALTH CENTRE": true, "PRIMARY HEALTH CENTER": true,
	"COMMUNITY HEALTH CENTRE": true, "COMMUNITY HEALTH CENTER": true,
	"SUB HEALTH CENTER": true, "SUB HEALTH CENTRE": true, "SUB CENTRE": true,
	"HEALTH AND WELLNESS CENTER": true, "HEALTH AND WELLNESS CENTRE": true,
	"DENTAL CLINIC": true, "MEDICAL STORE": true, "HEALTH CENTER": true,
	"HEALTH CENTRE": true, "NURSING HOME": true,
}

// IsGeneric reports whether a canonical name is one of the degenerate
// high-frequency names.
func IsGeneric(cleanName string) bool {
	return genericNames[cleanName]
}

// Ratio is the normalized Levenshtein similarity of two strings in [0,1].
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	return 1.0 - float64(dist)/float64(longest)
}

// TokenSortRatio scores two canonical names independent of word order:
// tokens are sorted before the edit-distance ratio is taken, so
// "HOSPITAL DISTRICT CIVIL" and "CIVIL DISTRICT HOSPITAL" score 1.0.
// Suffix words like HOSPITAL stay in the comparison: combined with a
// distinctive prefix they carry real signal, and stripping them would
// inflate scores between unrelated facilities.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortTokens(a), sortTokens(b))
}

// JaroWinkler is a secondary similarity recorded as an audit feature on
// sampled matches; it never drives the match decision.
func JaroWinkler(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

package match

import (
	"github.com/nha-facilities/internal/config"
	"github.com/nha-facilities/internal/geo"
	"github.com/nha-facilities/internal/normalize"
	"github.com/nha-facilities/internal/similarity"
	"github.com/nha-facilities/internal/source"
)

// Rules evaluates record pairs against the configured thresholds. All
// methods are pure and safe for concurrent use.
type Rules struct {
	cfg *config.MergeConfig
}

// NewRules creates a rule evaluator.
func NewRules(cfg *config.MergeConfig) *Rules {
	return &Rules{cfg: cfg}
}

// EffectiveRadius returns the per-pair distance bound. Generic names get
// the tight radius; NHP medical colleges are routinely geocoded to campus
// centroids and get the wide one.
func (r *Rules) EffectiveRadius(a, b *source.Record) float64 {
	if similarity.IsGeneric(a.CleanName) || similarity.IsGeneric(b.CleanName) {
		return r.cfg.TightRadiusM
	}
	if a.Source == source.NHP || b.Source == source.NHP {
		return r.cfg.WideRadiusM
	}
	return r.cfg.SearchRadiusM
}

// EvaluateGeo decides whether two geo-candidate records match, given their
// distance. Returns the name score, the rule applied and the decision.
func (r *Rules) EvaluateGeo(a, b *source.Record, distM float64) (float64, string, bool) {
	if a.CleanName == "" || b.CleanName == "" {
		return 0, "", false
	}
	if distM > r.EffectiveRadius(a, b) {
		return 0, "", false
	}
	if normalize.TokenOverlap(a.CleanName, b.CleanName) < r.cfg.TokenOverlapMin {
		return 0, "", false
	}

	score := similarity.TokenSortRatio(a.CleanName, b.CleanName)

	if similarity.IsGeneric(a.CleanName) || similarity.IsGeneric(b.CleanName) {
		// Generic names merge whole towns if allowed loose thresholds:
		// require tight co-location and near-exact agreement.
		return score, RuleGeoGeneric, score >= r.cfg.GenericName
	}

	if score >= r.cfg.GeoNameHigh {
		return score, RuleGeoName, true
	}
	if score >= r.cfg.GeoNameMedium {
		// Facility type is supplementary evidence, not a hard filter: it
		// only promotes a medium-confidence name score, never vetoes a
		// high one.
		if a.FacilityType != "" && a.FacilityType == b.FacilityType {
			return score, RuleGeoName, true
		}
	}
	return score, RuleGeoName, false
}

// EvaluateNameOnly decides whether two same-source records match without
// spatial corroboration. Stricter threshold, generic names excluded, and
// when both sides do carry coordinates they must not be implausibly far
// apart.
func (r *Rules) EvaluateNameOnly(a, b *source.Record) (float64, string, bool) {
	if a.Source != b.Source {
		return 0, "", false
	}
	if a.CleanName == "" || b.CleanName == "" {
		return 0, "", false
	}
	if similarity.IsGeneric(a.CleanName) || similarity.IsGeneric(b.CleanName) {
		return 0, "", false
	}
	if a.State == "" || a.State != b.State {
		return 0, "", false
	}
	if a.District != "" && b.District != "" && a.District != b.District {
		return 0, "", false
	}
	if a.HasGeo && b.HasGeo {
		if geo.DistanceMeters(a.Latitude, a.Longitude, b.Latitude, b.Longitude) > r.cfg.NameOnlyMaxDistanceM {
			return 0, "", false
		}
	}
	if normalize.TokenOverlap(a.CleanName, b.CleanName) < r.cfg.TokenOverlapMin {
		return 0, "", false
	}

	score := similarity.TokenSortRatio(a.CleanName, b.CleanName)
	return score, RuleNameOnly, score >= r.cfg.NameOnly
}

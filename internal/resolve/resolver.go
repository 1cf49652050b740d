// Package resolve collapses merge clusters into master records, resolving
// field-level conflicts while keeping provenance and every discarded value.
package resolve

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/nha-facilities/internal/config"
	"github.com/nha-facilities/internal/geo"
	"github.com/nha-facilities/internal/source"
)

// MasterRecord is one physical facility: the resolution of a merge cluster.
type MasterRecord struct {
	MasterID string

	Name      string
	CleanName string

	FacilityType    string
	FacilitySubtype string
	Ownership       string

	Address      string
	State        string
	StateCode    string
	District     string
	DistrictCode string
	Pincode      string
	Phone        string
	Email        string

	Specialties []string
	NumBeds     string
	ABDMEnabled string
	Is24x7      string

	Latitude  float64
	Longitude float64
	HasGeo    bool

	// Sources lists every contributing row; its length always equals the
	// cluster size.
	Sources []source.Provenance

	// SourceFlags marks which registries contributed (in_nha ... in_nhp in
	// the output file).
	SourceFlags map[source.SourceID]bool

	// Extension carries the union of contributing extensions plus
	// alt_<field>_<source> entries for conflict losers.
	Extension map[string]string
}

// Resolver applies the field-level merge policy.
type Resolver struct {
	cfg  *config.MergeConfig
	rank map[source.SourceID]int
}

// NewResolver creates a resolver from the configured source priority.
func NewResolver(cfg *config.MergeConfig) *Resolver {
	rank := make(map[source.SourceID]int, len(cfg.SourcePriority))
	for i, s := range cfg.SourcePriority {
		rank[source.SourceID(s)] = i
	}
	return &Resolver{cfg: cfg, rank: rank}
}

func (r *Resolver) rankOf(s source.SourceID) int {
	if rk, ok := r.rank[s]; ok {
		return rk
	}
	return len(r.rank)
}

// Resolve collapses one cluster. A singleton cluster reproduces its record
// unchanged aside from the master ID and source flags.
func (r *Resolver) Resolve(records []source.Record, members []int) MasterRecord {
	ordered := make([]*source.Record, len(members))
	for i, idx := range members {
		ordered[i] = &records[idx]
	}
	// Priority order decides conflicts; row order makes it deterministic.
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := r.rankOf(ordered[i].Source), r.rankOf(ordered[j].Source)
		if ri != rj {
			return ri < rj
		}
		if ordered[i].Source != ordered[j].Source {
			return ordered[i].Source < ordered[j].Source
		}
		return ordered[i].RowID < ordered[j].RowID
	})

	master := MasterRecord{
		MasterID:    uuid.NewString(),
		SourceFlags: make(map[source.SourceID]bool, len(ordered)),
		Extension:   make(map[string]string),
	}

	for _, rec := range ordered {
		master.Sources = append(master.Sources, rec.Provenance())
		master.SourceFlags[rec.Source] = true
	}

	master.Name = r.pickField("facility_name", ordered, func(rec *source.Record) string { return rec.Name }, &master)
	master.CleanName = r.pickField("", ordered, func(rec *source.Record) string { return rec.CleanName }, nil)
	master.FacilityType = r.pickField("facility_type", ordered, func(rec *source.Record) string { return rec.FacilityType }, &master)
	master.FacilitySubtype = r.pickField("facility_subtype", ordered, func(rec *source.Record) string { return rec.FacilitySubtype }, &master)
	master.Ownership = r.pickField("ownership", ordered, func(rec *source.Record) string { return rec.Ownership }, &master)
	master.Address = r.pickField("address", ordered, func(rec *source.Record) string { return rec.Address }, &master)
	master.State = r.pickField("state", ordered, func(rec *source.Record) string { return rec.State }, &master)
	master.StateCode = r.pickField("state_code", ordered, func(rec *source.Record) string { return rec.StateCode }, &master)
	master.District = r.pickField("district", ordered, func(rec *source.Record) string { return rec.District }, &master)
	master.DistrictCode = r.pickField("district_code", ordered, func(rec *source.Record) string { return rec.DistrictCode }, &master)
	master.Pincode = r.pickField("pincode", ordered, func(rec *source.Record) string { return rec.Pincode }, &master)
	master.Phone = r.pickField("phone", ordered, func(rec *source.Record) string { return rec.Phone }, &master)
	master.Email = r.pickField("email", ordered, func(rec *source.Record) string { return rec.Email }, &master)
	master.NumBeds = r.pickField("num_beds", ordered, func(rec *source.Record) string { return rec.NumBeds }, &master)
	master.ABDMEnabled = r.pickField("abdm_enabled", ordered, func(rec *source.Record) string { return rec.ABDMEnabled }, &master)
	master.Is24x7 = r.pickField("is_24x7", ordered, func(rec *source.Record) string { return rec.Is24x7 }, &master)

	master.Specialties = unionSpecialties(ordered)
	r.resolveCoordinates(ordered, &master)
	r.mergeExtensions(ordered, &master)

	return master
}

// pickField applies the per-field policy: non-empty beats empty; priority
// order beats later sources; a disagreement within the same priority rank
// falls back to the most common value across the cluster. Losing values are
// preserved in the extension when master is non-nil.
func (r *Resolver) pickField(name string, ordered []*source.Record, get func(*source.Record) string, master *MasterRecord) string {
	type holder struct {
		value string
		src   source.SourceID
	}
	var values []holder
	for _, rec := range ordered {
		if v := get(rec); v != "" {
			values = append(values, holder{value: v, src: rec.Source})
		}
	}
	if len(values) == 0 {
		return ""
	}

	winner := values[0].value

	// Same-rank disagreement: most common value across the cluster wins,
	// first-seen breaks the remaining tie.
	topRank := r.rankOf(values[0].src)
	conflictAtTop := false
	for _, h := range values[1:] {
		if r.rankOf(h.src) == topRank && h.value != winner {
			conflictAtTop = true
			break
		}
	}
	if conflictAtTop {
		counts := make(map[string]int)
		for _, h := range values {
			counts[h.value]++
		}
		best := winner
		for _, h := range values {
			if counts[h.value] > counts[best] {
				best = h.value
			}
		}
		winner = best
	}

	if master != nil && name != "" {
		for _, h := range values {
			if h.value == winner {
				continue
			}
			key := fmt.Sprintf("alt_%s_%s", name, h.src)
			if _, exists := master.Extension[key]; !exists {
				master.Extension[key] = h.value
			}
		}
	}
	return winner
}

// resolveCoordinates picks the cluster position. The centroid is only
// trusted when every contributed position already sits within the match
// radius; positions further apart take the most-trusted source's point
// verbatim, since averaging distant coordinates produces a point that is
// nowhere.
func (r *Resolver) resolveCoordinates(ordered []*source.Record, master *MasterRecord) {
	var withGeo []*source.Record
	for _, rec := range ordered {
		if rec.HasGeo {
			withGeo = append(withGeo, rec)
		}
	}
	if len(withGeo) == 0 {
		return
	}

	master.HasGeo = true
	if len(withGeo) == 1 {
		master.Latitude = withGeo[0].Latitude
		master.Longitude = withGeo[0].Longitude
		return
	}

	spread := 0.0
	for i := 0; i < len(withGeo); i++ {
		for j := i + 1; j < len(withGeo); j++ {
			d := geo.DistanceMeters(withGeo[i].Latitude, withGeo[i].Longitude, withGeo[j].Latitude, withGeo[j].Longitude)
			if d > spread {
				spread = d
			}
		}
	}

	if spread <= r.cfg.SearchRadiusM {
		var sumLat, sumLon float64
		for _, rec := range withGeo {
			sumLat += rec.Latitude
			sumLon += rec.Longitude
		}
		master.Latitude = sumLat / float64(len(withGeo))
		master.Longitude = sumLon / float64(len(withGeo))
		return
	}

	// withGeo is already in priority order.
	master.Latitude = withGeo[0].Latitude
	master.Longitude = withGeo[0].Longitude
}

func unionSpecialties(ordered []*source.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range ordered {
		for _, s := range rec.Specialties {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}

// mergeExtensions unions contributing extensions. A key conflict keeps the
// higher-priority value and suffixes the loser with its source, so nothing
// is discarded.
func (r *Resolver) mergeExtensions(ordered []*source.Record, master *MasterRecord) {
	for _, rec := range ordered {
		for k, v := range rec.Extension {
			existing, ok := master.Extension[k]
			if !ok {
				master.Extension[k] = v
				continue
			}
			if existing == v {
				continue
			}
			alt := fmt.Sprintf("%s_%s", k, rec.Source)
			if _, exists := master.Extension[alt]; !exists {
				master.Extension[alt] = v
			}
		}
	}
}

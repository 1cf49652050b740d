// Package export writes the merged master dataset to its downstream
// consumers: a flat CSV for the dashboard and, optionally, Postgres.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nha-facilities/internal/resolve"
	"github.com/nha-facilities/internal/source"
)

// coreColumns is the stable leading column order of the output file.
var coreColumns = []string{
	"master_id", "source_datasets", "source_refs", "source_keys",
	"facility_name", "facility_name_clean",
	"latitude", "longitude",
	"state", "state_code", "district", "district_code",
	"address", "pincode",
	"facility_type", "facility_subtype", "ownership",
	"phone", "email",
	"specialties", "num_beds", "is_24x7", "abdm_enabled",
}

// WriteMasterCSV writes one row per master record: canonical fields, the
// serialized provenance, per-source flags, then the union of preserved
// extension fields.
func WriteMasterCSV(path string, masters []resolve.MasterRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	extCols := extensionColumns(masters)

	header := make([]string, 0, len(coreColumns)+len(source.MergeOrder)+len(extCols))
	header = append(header, coreColumns...)
	for _, src := range source.MergeOrder {
		header = append(header, "in_"+strings.ToLower(string(src)))
	}
	header = append(header, extCols...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range masters {
		m := &masters[i]
		row := make([]string, 0, len(header))
		row = append(row,
			m.MasterID,
			sourceDatasets(m),
			sourceRefs(m),
			sourceKeys(m),
			m.Name,
			m.CleanName,
			formatCoord(m.Latitude, m.HasGeo),
			formatCoord(m.Longitude, m.HasGeo),
			m.State, m.StateCode, m.District, m.DistrictCode,
			m.Address, m.Pincode,
			m.FacilityType, m.FacilitySubtype, m.Ownership,
			m.Phone, m.Email,
			strings.Join(m.Specialties, "|"),
			m.NumBeds, m.Is24x7, m.ABDMEnabled,
		)
		for _, src := range source.MergeOrder {
			if m.SourceFlags[src] {
				row = append(row, "true")
			} else {
				row = append(row, "false")
			}
		}
		for _, col := range extCols {
			row = append(row, m.Extension[col])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// extensionColumns returns the sorted union of extension keys across all
// masters.
func extensionColumns(masters []resolve.MasterRecord) []string {
	seen := make(map[string]bool)
	for i := range masters {
		for k := range masters[i].Extension {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// sourceDatasets serializes the distinct contributing sources in merge
// order, e.g. "NHA|PMJAY".
func sourceDatasets(m *resolve.MasterRecord) string {
	var parts []string
	for _, src := range source.MergeOrder {
		if m.SourceFlags[src] {
			parts = append(parts, string(src))
		}
	}
	return strings.Join(parts, "|")
}

// sourceRefs serializes full provenance as SOURCE:row pairs.
func sourceRefs(m *resolve.MasterRecord) string {
	parts := make([]string, len(m.Sources))
	for i, p := range m.Sources {
		parts[i] = fmt.Sprintf("%s:%d", p.Source, p.RowID)
	}
	return strings.Join(parts, "|")
}

// sourceKeys serializes the contributing sources' own facility IDs.
func sourceKeys(m *resolve.MasterRecord) string {
	var parts []string
	for _, p := range m.Sources {
		if p.SourceKey != "" {
			parts = append(parts, p.SourceKey)
		}
	}
	return strings.Join(parts, "|")
}

func formatCoord(v float64, has bool) string {
	if !has {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

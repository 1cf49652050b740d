package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nha-facilities/internal/geo"
	"github.com/nha-facilities/internal/normalize"
)

// LoadError reports a source that could not be read at all: missing file,
// unreadable content, or a header with none of the mapped columns.
// Row-level problems never produce a LoadError; they degrade to missing
// fields and counters.
type LoadError struct {
	Source SourceID
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("source %s (%s): %v", e.Source, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadStats accumulates per-source load statistics for the merge report.
type LoadStats struct {
	Source           SourceID `json:"source"`
	Loaded           int      `json:"loaded"`
	MissingName      int      `json:"missing_name"`
	InvalidCoords    int      `json:"invalid_coords"`
	CoercionFailures int      `json:"coercion_failures"`
	OutOfIndiaBounds int      `json:"out_of_india_bounds"`
}

// Loader reads one source CSV into normalized records.
type Loader struct {
	DataDir string
	Files   map[SourceID]string
}

// NewLoader creates a loader over the default file set.
func NewLoader(dataDir string) *Loader {
	return &Loader{DataDir: dataDir, Files: DefaultFiles}
}

// Path returns the file path for a source.
func (l *Loader) Path(src SourceID) string {
	return filepath.Join(l.DataDir, l.Files[src])
}

// Load reads, maps and normalizes one source. Malformed rows are emitted
// with whatever parsed: silently dropping a row would break the
// provenance-count invariant downstream.
func (l *Loader) Load(src SourceID) ([]Record, *LoadStats, error) {
	if !IsKnown(src) {
		return nil, nil, &LoadError{Source: src, Path: "", Err: fmt.Errorf("unknown source")}
	}

	path := l.Path(src)
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &LoadError{Source: src, Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, &LoadError{Source: src, Path: path, Err: fmt.Errorf("failed to read header: %w", err)}
	}

	colMap := ColumnMaps[src]

	// Resolve header positions once. Column index -> canonical field.
	fieldAt := make(map[int]string, len(header))
	mapped := 0
	for i, col := range header {
		if field, ok := colMap[strings.TrimSpace(col)]; ok {
			fieldAt[i] = field
			mapped++
		}
	}
	if mapped == 0 {
		return nil, nil, &LoadError{Source: src, Path: path, Err: fmt.Errorf("unrecognized schema: no mapped columns in header")}
	}

	stats := &LoadStats{Source: src}
	var records []Record
	rowID := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Row unreadable: emit an empty record so the row still counts.
			records = append(records, newRecord(src, rowID, nil, nil, stats))
			rowID++
			continue
		}

		values := make(map[string]string, mapped)
		extension := make(map[string]string)
		for i, cell := range row {
			field, ok := fieldAt[i]
			if !ok {
				// Unmapped columns are preserved verbatim for audit.
				if i < len(header) {
					if v := strings.TrimSpace(cell); v != "" {
						extension[strings.TrimSpace(header[i])] = v
					}
				}
				continue
			}
			if strings.HasPrefix(field, "_") {
				if v := strings.TrimSpace(cell); v != "" {
					extension[field] = v
				}
				continue
			}
			values[field] = strings.TrimSpace(cell)
		}

		applyFixes(src, values, extension)
		records = append(records, newRecord(src, rowID, values, extension, stats))
		rowID++
	}

	stats.Loaded = len(records)
	return records, stats, nil
}

// newRecord builds a normalized record from mapped values, coercing types
// and standardizing vocabularies. Coercion failure marks the field missing.
func newRecord(src SourceID, rowID int, values map[string]string, extension map[string]string, stats *LoadStats) Record {
	rec := Record{
		Source:    src,
		RowID:     rowID,
		Extension: extension,
	}
	if rec.Extension == nil {
		rec.Extension = make(map[string]string)
	}
	if values == nil {
		stats.MissingName++
		return rec
	}

	rec.SourceKey = values[FieldSourceKey]
	rec.Name = values[FieldName]
	rec.CleanName = normalize.CleanName(rec.Name)
	if rec.CleanName == "" {
		stats.MissingName++
	}

	rec.FacilityType = normalize.StandardizeFacilityType(values[FieldFacilityType])
	rec.FacilitySubtype = values[FieldFacilitySubtype]
	rec.Ownership = normalize.StandardizeOwnership(values[FieldOwnership])
	rec.Address = values[FieldAddress]
	rec.State = normalize.StandardizeState(values[FieldState])
	rec.StateCode = values[FieldStateCode]
	rec.District = normalize.TitleCase(values[FieldDistrict])
	rec.DistrictCode = values[FieldDistrictCode]
	rec.Pincode = values[FieldPincode]
	rec.Phone = values[FieldPhone]
	rec.Email = values[FieldEmail]
	rec.NumBeds = values[FieldNumBeds]
	rec.ABDMEnabled = values[FieldABDMEnabled]
	rec.Is24x7 = values[FieldIs24x7]

	if raw := values[FieldSpecialties]; raw != "" {
		rec.Specialties = splitSpecialties(raw)
	}

	lat, latOK := coerceFloat(values[FieldLatitude], stats)
	lon, lonOK := coerceFloat(values[FieldLongitude], stats)
	if latOK && lonOK && geo.ValidCoordinates(lat, lon) {
		rec.Latitude = lat
		rec.Longitude = lon
		rec.HasGeo = true
		if !geo.InIndiaBounds(lat, lon) {
			stats.OutOfIndiaBounds++
		}
	} else if values[FieldLatitude] != "" || values[FieldLongitude] != "" {
		stats.InvalidCoords++
	}

	return rec
}

// coerceFloat parses a coordinate string. Empty is simply absent; anything
// unparseable counts as a coercion failure but is never fatal.
func coerceFloat(s string, stats *LoadStats) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		stats.CoercionFailures++
		return 0, false
	}
	return f, true
}

// splitSpecialties splits a pipe-separated specialty list, dropping blanks
// and duplicates while preserving order.
func splitSpecialties(raw string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, "|") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

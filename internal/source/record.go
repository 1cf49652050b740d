package source

// Provenance identifies one contributing source row. It survives every
// merge: a master record carries one Provenance per input row it absorbed.
type Provenance struct {
	Source    SourceID `json:"source"`
	RowID     int      `json:"row_id"`
	SourceKey string   `json:"source_key,omitempty"`
}

// Record is the canonical, immutable form of one source row. RowID is the
// zero-based data row ordinal within the source file, stable across runs of
// the same input.
type Record struct {
	Source    SourceID
	RowID     int
	SourceKey string

	// Name is the facility name as published; CleanName is its canonical
	// comparison form. A record with no name still flows through the
	// pipeline, it just never matches anything.
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

	// Latitude/Longitude are only meaningful when HasGeo is true. Invalid
	// coordinates (unparseable, out of range, (0,0)) leave HasGeo false;
	// the record is then excluded from spatial matching but remains
	// eligible for same-source name matching.
	Latitude  float64
	Longitude float64
	HasGeo    bool

	// Extension preserves every source-specific column that has no
	// canonical home. Never dropped; flows into the master record for
	// audit and enrichment.
	Extension map[string]string
}

// Provenance returns the record's provenance tuple.
func (r *Record) Provenance() Provenance {
	return Provenance{Source: r.Source, RowID: r.RowID, SourceKey: r.SourceKey}
}

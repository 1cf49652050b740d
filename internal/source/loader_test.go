package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeCSV drops a CSV into dir under the published name for src.
func writeCSV(t *testing.T, dir string, src SourceID, content string) {
	t.Helper()
	path := filepath.Join(dir, DefaultFiles[src])
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s fixture: %v", src, err)
	}
}

func TestValidateMappings(t *testing.T) {
	if err := ValidateMappings(); err != nil {
		t.Fatalf("ValidateMappings: %v", err)
	}
}

func TestLoadCGHS(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, CGHS,
		"Hospital_Id,Hospital_Name,District,State,Latitude,Longitude,Hospital_Type,Unmapped_Col\n"+
			"H1,Apollo Hospital,Hyderabad,Telangana,17.42,78.41,Private (For Profit),extra-value\n"+
			"H2,No Coords Clinic,Pune,Maharashtra,,,Govt.,\n")

	records, stats, err := NewLoader(dir).Load(CGHS)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats.Loaded != 2 || len(records) != 2 {
		t.Fatalf("loaded %d records, stats %d, want 2", len(records), stats.Loaded)
	}

	r := records[0]
	if r.Source != CGHS || r.RowID != 0 {
		t.Errorf("provenance = %s/%d, want CGHS/0", r.Source, r.RowID)
	}
	if r.SourceKey != "H1" || r.Name != "Apollo Hospital" {
		t.Errorf("identity fields = %q/%q", r.SourceKey, r.Name)
	}
	if r.CleanName != "APOLLO HOSPITAL" {
		t.Errorf("CleanName = %q", r.CleanName)
	}
	if r.Ownership != "Private" {
		t.Errorf("Ownership = %q, want standardized %q", r.Ownership, "Private")
	}
	if !r.HasGeo || r.Latitude != 17.42 {
		t.Errorf("coordinates not parsed: %+v", r)
	}
	// Unmapped columns survive in the extension.
	if r.Extension["Unmapped_Col"] != "extra-value" {
		t.Errorf("unmapped column lost: %v", r.Extension)
	}

	if records[1].HasGeo {
		t.Error("record without coordinates marked geolocated")
	}
	if records[1].Ownership != "Government" {
		t.Errorf("Ownership = %q, want %q", records[1].Ownership, "Government")
	}
}

func TestLoadInvalidCoordinates(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, CGHS,
		"Hospital_Id,Hospital_Name,State,Latitude,Longitude\n"+
			"H1,Null Island Hospital,Delhi,0,0\n"+
			"H2,Unparseable Hospital,Delhi,abc,77.2\n"+
			"H3,Out Of Range Hospital,Delhi,95.0,77.2\n")

	records, stats, err := NewLoader(dir).Load(CGHS)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, r := range records {
		if r.HasGeo {
			t.Errorf("row %d: invalid coordinates accepted", i)
		}
	}
	if stats.InvalidCoords != 3 {
		t.Errorf("InvalidCoords = %d, want 3", stats.InvalidCoords)
	}
	if stats.CoercionFailures != 1 {
		t.Errorf("CoercionFailures = %d, want 1", stats.CoercionFailures)
	}
	// Rows with bad coordinates are kept, never dropped.
	if stats.Loaded != 3 {
		t.Errorf("Loaded = %d, want 3", stats.Loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := NewLoader(t.TempDir()).Load(NHA)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want *LoadError", err)
	}
	if loadErr.Source != NHA {
		t.Errorf("LoadError.Source = %s, want NHA", loadErr.Source)
	}
}

func TestLoadUnrecognizedSchema(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, CGHS, "totally,unrelated,columns\n1,2,3\n")

	_, _, err := NewLoader(dir).Load(CGHS)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want *LoadError for unrecognized schema", err)
	}
}

func TestLoadUnknownSource(t *testing.T) {
	_, _, err := NewLoader(t.TempDir()).Load(SourceID("BOGUS"))
	if err == nil {
		t.Fatal("unknown source loaded without error")
	}
}

func TestLoadCDACCorrectedCoordinates(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, CDACBB,
		"Name,State,District,Latitude,Longitude,new_latitude,new_longitude\n"+
			"Red Cross Blood Bank,Delhi,New Delhi,10.0,70.0,28.61,77.23\n")

	records, _, err := NewLoader(dir).Load(CDACBB)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := records[0]
	// The corrected coordinate columns supersede the original ones.
	if r.Latitude != 28.61 || r.Longitude != 77.23 {
		t.Errorf("coordinates = (%v, %v), want the corrected pair", r.Latitude, r.Longitude)
	}
	if r.FacilityType != "Blood Bank" {
		t.Errorf("FacilityType = %q, want %q", r.FacilityType, "Blood Bank")
	}
}

func TestLoadNHPForcedType(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, NHP,
		"Hospital Name,Latitude,Longitude,State\n"+
			"Government Medical College Nagpur,21.14,79.08,Maharashtra\n")

	records, _, err := NewLoader(dir).Load(NHP)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if records[0].FacilityType != "Medical College" {
		t.Errorf("FacilityType = %q, want %q", records[0].FacilityType, "Medical College")
	}
}

func TestLoadPMJAYSpecialtiesAndFallback(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, PMJAY,
		"Hospital Name,API Latitude,API Longitude,gmaps_Latitude,gmaps_Longitude,Manual state,Specialities Empanelled,Specialities Upgraded\n"+
			"Fortis Hospital,,,28.61,77.23,Delhi,Cardiology|Oncology,Oncology|Neurology\n")

	records, _, err := NewLoader(dir).Load(PMJAY)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := records[0]
	// The gmaps coordinates fill in when the API pair is missing.
	if !r.HasGeo || r.Latitude != 28.61 {
		t.Errorf("gmaps fallback not applied: %+v", r)
	}
	// Empanelled and upgraded specialty lists are unioned.
	want := map[string]bool{"Cardiology": true, "Oncology": true, "Neurology": true}
	if len(r.Specialties) != len(want) {
		t.Fatalf("Specialties = %v, want union of both lists", r.Specialties)
	}
	for _, s := range r.Specialties {
		if !want[s] {
			t.Errorf("unexpected specialty %q", s)
		}
	}
}

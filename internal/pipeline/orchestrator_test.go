package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/nha-facilities/internal/config"
	"github.com/nha-facilities/internal/source"
)

// testConfig points every path into a temp dir. Only the fixture sources
// exist; the rest are skipped.
func testConfig(t *testing.T) *config.MergeConfig {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.SkipUnreadableSources = true
	cfg.Workers = 2
	cfg.OutputPath = filepath.Join(dir, "master.csv")
	cfg.ReportPath = filepath.Join(dir, "report.json")
	cfg.SamplePath = filepath.Join(dir, "samples.csv")
	return cfg
}

func writeSource(t *testing.T, cfg *config.MergeConfig, src source.SourceID, content string) {
	t.Helper()
	path := filepath.Join(cfg.DataDir, source.DefaultFiles[src])
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s fixture: %v", src, err)
	}
}

func runPipeline(t *testing.T, cfg *config.MergeConfig) *Result {
	t.Helper()
	p, err := New(cfg, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

func TestRunMergesCrossSourceDuplicate(t *testing.T) {
	cfg := testConfig(t)

	// The same hospital appears in NHA and CGHS a few meters apart, plus
	// one unrelated clinic.
	writeSource(t, cfg, source.NHA,
		"Facility ID,hospital_name,State_name,District_name,Latitude,Longitude\n"+
			"IN001,Apollo Hospital Jubilee Hills,Telangana,Hyderabad,17.4200,78.4100\n"+
			"IN002,Care Clinic Banjara Hills,Telangana,Hyderabad,17.4150,78.4400\n")
	writeSource(t, cfg, source.CGHS,
		"Hospital_Id,Hospital_Name,State,District,Latitude,Longitude\n"+
			"C77,Apollo Hospitals Jubilee Hills,Telangana,Hyderabad,17.4203,78.4103\n")

	result := runPipeline(t, cfg)
	rep := result.Report

	if rep.TotalInputRecords != 3 {
		t.Fatalf("TotalInputRecords = %d, want 3", rep.TotalInputRecords)
	}
	if rep.TotalMasters != 2 {
		t.Fatalf("TotalMasters = %d, want 2 (duplicate pair merged)", rep.TotalMasters)
	}
	if rep.MultiSourceMerges != 1 {
		t.Errorf("MultiSourceMerges = %d, want 1", rep.MultiSourceMerges)
	}

	// The merged master carries both rows' provenance and the
	// higher-priority source's name.
	var merged bool
	for i := range result.Masters {
		m := &result.Masters[i]
		if len(m.Sources) == 2 {
			merged = true
			if m.Name != "Apollo Hospital Jubilee Hills" {
				t.Errorf("merged Name = %q, want the NHA value", m.Name)
			}
			if !m.SourceFlags[source.NHA] || !m.SourceFlags[source.CGHS] {
				t.Errorf("merged SourceFlags = %v", m.SourceFlags)
			}
		}
	}
	if !merged {
		t.Fatal("no master with two provenance rows found")
	}

	// CGHS accounting: its single row matched an existing facility.
	if sr := rep.PerSource["CGHS"]; sr == nil || sr.Matched != 1 || sr.New != 0 {
		t.Errorf("CGHS accounting = %+v, want 1 matched / 0 new", sr)
	}
	if sr := rep.PerSource["NHA"]; sr == nil || sr.New != 2 {
		t.Errorf("NHA accounting = %+v, want 2 new", sr)
	}
}

// Every input row must surface in exactly one master's provenance,
// including rows with no usable name or coordinates.
func TestRunConservesProvenance(t *testing.T) {
	cfg := testConfig(t)

	writeSource(t, cfg, source.NHA,
		"Facility ID,hospital_name,State_name,Latitude,Longitude\n"+
			"IN001,Apollo Hospital Jubilee Hills,Telangana,17.4200,78.4100\n"+
			"IN002,,Telangana,0,0\n"+ // nameless, invalid coords
			"IN003,Care Clinic Banjara Hills,Telangana,17.4150,78.4400\n")
	writeSource(t, cfg, source.PHC,
		"STATE_NAME,FACILITY_ID,FAC_DESC,Latitude,Longitude\n"+
			"TELANGANA,P1,Kondapur Village Health Post,,\n")

	result := runPipeline(t, cfg)

	provTotal := 0
	for i := range result.Masters {
		provTotal += len(result.Masters[i].Sources)
	}
	if provTotal != result.Report.TotalInputRecords {
		t.Fatalf("provenance total %d != input records %d", provTotal, result.Report.TotalInputRecords)
	}
	for _, issue := range result.Report.ValidationIssues {
		t.Logf("validation issue: %s", issue)
	}
}

func TestRunDegradedWithoutCoordinates(t *testing.T) {
	cfg := testConfig(t)

	// No row anywhere has valid coordinates; the run degrades to
	// name-only matching instead of failing.
	writeSource(t, cfg, source.PHC,
		"STATE_NAME,FACILITY_ID,FAC_DESC,Latitude,Longitude\n"+
			"TELANGANA,P1,Kondapur Village Health Post,,\n"+
			"TELANGANA,P2,Kondapur Village Health Post,,\n")

	result := runPipeline(t, cfg)
	rep := result.Report

	if !rep.DegradedGeoMatching {
		t.Fatal("DegradedGeoMatching not set")
	}
	if len(rep.ValidationIssues) == 0 {
		t.Error("degraded run reported no validation issues")
	}
	// The identical same-source pair still merges on name evidence.
	if rep.TotalMasters != 1 {
		t.Errorf("TotalMasters = %d, want 1", rep.TotalMasters)
	}
}

func TestRunWritesOutputs(t *testing.T) {
	cfg := testConfig(t)

	writeSource(t, cfg, source.NHA,
		"Facility ID,hospital_name,State_name,Latitude,Longitude\n"+
			"IN001,Apollo Hospital Jubilee Hills,Telangana,17.4200,78.4100\n")

	result := runPipeline(t, cfg)

	file, err := os.Open(cfg.OutputPath)
	if err != nil {
		t.Fatalf("output file: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	// Header plus one master per row.
	if len(rows) != len(result.Masters)+1 {
		t.Errorf("output rows = %d, want %d", len(rows), len(result.Masters)+1)
	}

	if _, err := os.Stat(cfg.ReportPath); err != nil {
		t.Errorf("report not written: %v", err)
	}
	if _, err := os.Stat(cfg.SamplePath); err != nil {
		t.Errorf("sample file not written: %v", err)
	}
}

func TestRunAbortsOnUnreadableSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.SkipUnreadableSources = false

	// Only one of the nine sources exists; with skipping disabled the run
	// must fail.
	writeSource(t, cfg, source.NHA,
		"Facility ID,hospital_name,State_name,Latitude,Longitude\n"+
			"IN001,Apollo Hospital Jubilee Hills,Telangana,17.4200,78.4100\n")

	p, err := New(cfg, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded with eight sources missing")
	}
}

func TestRunCacheRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheEnabled = true
	cfg.CacheDir = filepath.Join(cfg.DataDir, "cache")

	writeSource(t, cfg, source.NHA,
		"Facility ID,hospital_name,State_name,Latitude,Longitude\n"+
			"IN001,Apollo Hospital Jubilee Hills,Telangana,17.4200,78.4100\n"+
			"IN002,Care Clinic Banjara Hills,Telangana,17.4150,78.4400\n")

	first := runPipeline(t, cfg)
	second := runPipeline(t, cfg)

	if first.Report.TotalMasters != second.Report.TotalMasters {
		t.Errorf("cached run masters = %d, first run = %d",
			second.Report.TotalMasters, first.Report.TotalMasters)
	}
	if second.Report.TotalInputRecords != first.Report.TotalInputRecords {
		t.Errorf("cached run inputs = %d, first run = %d",
			second.Report.TotalInputRecords, first.Report.TotalInputRecords)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SearchRadiusM = -1
	if _, err := New(cfg, false); err == nil {
		t.Fatal("New accepted a negative radius")
	}
}

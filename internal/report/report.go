// Package report builds the per-run merge report: the audit artifact the
// dashboard and human reviewers consume alongside the master dataset.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SourceReport carries per-source input/output accounting.
type SourceReport struct {
	Loaded           int    `json:"loaded"`
	Matched          int    `json:"matched"`
	New              int    `json:"new"`
	MissingName      int    `json:"missing_name"`
	InvalidCoords    int    `json:"invalid_coords"`
	CoercionFailures int    `json:"coercion_failures"`
	OutOfIndiaBounds int    `json:"out_of_india_bounds"`
	Skipped          bool   `json:"skipped,omitempty"`
	SkipReason       string `json:"skip_reason,omitempty"`
}

// SampleMatch is one audited matched pair. The sample is bounded; it
// exists for spot-checking thresholds, not as a full edge dump.
type SampleMatch struct {
	SourceA     string  `json:"source_a"`
	NameA       string  `json:"name_a"`
	SourceB     string  `json:"source_b"`
	NameB       string  `json:"name_b"`
	State       string  `json:"state"`
	Score       float64 `json:"score"`
	JaroWinkler float64 `json:"jaro_winkler"`
	DistanceM   float64 `json:"distance_m"` // -1 for name-only matches
	Rule        string  `json:"rule"`
}

// MergeReport is the structured per-run report.
type MergeReport struct {
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds float64   `json:"duration_seconds"`

	// Stage is the pipeline stage the run reached; "done" on success.
	Stage string `json:"stage"`

	TotalInputRecords int `json:"total_input_records"`
	TotalMasters      int `json:"total_masters"`
	TotalMerges       int `json:"total_merges"`       // clusters with more than one row
	MultiSourceMerges int `json:"multi_source_merges"` // clusters spanning sources

	DegradedGeoMatching bool `json:"degraded_geo_matching"`

	PerSource map[string]*SourceReport `json:"per_source"`

	EdgesByRule         map[string]int `json:"edges_by_rule"`
	ConfidenceHistogram map[string]int `json:"confidence_histogram"`

	SampleMatches []SampleMatch `json:"sample_matches"`

	// ValidationIssues flags anything that makes the output suspect; an
	// empty list means every post-run check passed. A run that skipped or
	// degraded sources always says so here — partial output is never
	// silent.
	ValidationIssues []string `json:"validation_issues"`
}

// New creates an empty report.
func New() *MergeReport {
	return &MergeReport{
		Timestamp:           time.Now(),
		PerSource:           make(map[string]*SourceReport),
		EdgesByRule:         make(map[string]int),
		ConfidenceHistogram: make(map[string]int),
	}
}

// ObserveConfidence buckets a match score into the confidence histogram.
func (r *MergeReport) ObserveConfidence(score float64) {
	bucket := int(score * 20) // 0.05-wide buckets
	if bucket >= 20 {
		bucket = 19
	}
	if bucket < 0 {
		bucket = 0
	}
	low := float64(bucket) / 20
	key := fmt.Sprintf("%.2f-%.2f", low, low+0.05)
	r.ConfidenceHistogram[key]++
}

// AddIssue records a validation issue.
func (r *MergeReport) AddIssue(format string, args ...interface{}) {
	r.ValidationIssues = append(r.ValidationIssues, fmt.Sprintf(format, args...))
}

// WriteJSON writes the report to path.
func (r *MergeReport) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// WriteSampleCSV writes the audited match sample as a CSV for manual
// review.
func (r *MergeReport) WriteSampleCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sample file %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"source_a", "name_a", "source_b", "name_b", "state", "score", "jaro_winkler", "distance_m", "rule"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, m := range r.SampleMatches {
		row := []string{
			m.SourceA, m.NameA, m.SourceB, m.NameB, m.State,
			fmt.Sprintf("%.4f", m.Score),
			fmt.Sprintf("%.4f", m.JaroWinkler),
			fmt.Sprintf("%.1f", m.DistanceM),
			m.Rule,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

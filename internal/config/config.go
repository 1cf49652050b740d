package config

import (
	"fmt"
	"runtime"
)

// ValidationError reports an invalid configuration setting. The run fails
// fast on these before any source is read.
type ValidationError struct {
	Setting string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Setting, e.Reason)
}

// MergeConfig holds every tunable of the merge pipeline. Thresholds are
// deliberately configuration, not constants: the defaults mirror the values
// the production merge was tuned to, but every deployment can override them
// via the environment (see FromEnv).
type MergeConfig struct {
	// DataDir is the directory containing the nine source CSV files.
	DataDir string

	// Search radii in meters.
	SearchRadiusM float64 // default geo-candidate radius
	TightRadiusM  float64 // radius for generic facility names
	WideRadiusM   float64 // radius for medical colleges (NHP)

	// Name similarity thresholds, all in [0,1].
	GeoNameHigh   float64 // geo candidate, accept outright
	GeoNameMedium float64 // geo candidate, accept if facility types agree
	GenericName   float64 // generic names need near-exact agreement
	NameOnly      float64 // same-source match without geo corroboration

	// TokenOverlapMin is the Jaccard token-overlap prefilter applied before
	// computing the full similarity score.
	TokenOverlapMin float64

	// NameOnlyMaxDistanceM rejects a name-only pair when both records carry
	// coordinates that place them implausibly far apart.
	NameOnlyMaxDistanceM float64

	// SourcePriority orders sources for conflict resolution, most trusted
	// first. Unknown names are rejected at startup.
	SourcePriority []string

	// SkipUnreadableSources controls whether a source that cannot be loaded
	// aborts the run (false) or is skipped with a gap recorded in the
	// report (true).
	SkipUnreadableSources bool

	// Workers bounds matching parallelism. Zero means GOMAXPROCS.
	Workers int

	// SampleMatchLimit bounds the audit sample of matched pairs.
	SampleMatchLimit int

	// Cache of normalized sources keyed by file content hash.
	CacheEnabled bool
	CacheDir     string

	// Output locations.
	OutputPath string
	ReportPath string
	SamplePath string
}

// DefaultConfig returns the tuned production defaults.
func DefaultConfig() *MergeConfig {
	return &MergeConfig{
		DataDir:              "data",
		SearchRadiusM:        500,
		TightRadiusM:         100,
		WideRadiusM:          1000,
		GeoNameHigh:          0.85,
		GeoNameMedium:        0.70,
		GenericName:          0.95,
		NameOnly:             0.90,
		TokenOverlapMin:      0.20,
		NameOnlyMaxDistanceM: 5000,
		SourcePriority: []string{
			"NHA", "CGHS", "PMJAY", "NIN", "CDAC_BB", "NHP", "PMGSY", "CHC", "PHC",
		},
		SkipUnreadableSources: false,
		Workers:               0,
		SampleMatchLimit:      200,
		CacheEnabled:          false,
		CacheDir:              ".merge-cache",
		OutputPath:            "healthcare_master_dataset.csv",
		ReportPath:            "merge_report.json",
		SamplePath:            "sample_matches.csv",
	}
}

// FromEnv builds a config from the environment on top of the defaults.
func FromEnv() *MergeConfig {
	LoadEnv()
	cfg := DefaultConfig()

	cfg.DataDir = GetEnv("MERGE_DATA_DIR", cfg.DataDir)
	cfg.SearchRadiusM = GetEnvFloat("MERGE_SEARCH_RADIUS_M", cfg.SearchRadiusM)
	cfg.TightRadiusM = GetEnvFloat("MERGE_TIGHT_RADIUS_M", cfg.TightRadiusM)
	cfg.WideRadiusM = GetEnvFloat("MERGE_WIDE_RADIUS_M", cfg.WideRadiusM)
	cfg.GeoNameHigh = GetEnvFloat("MERGE_NAME_SCORE_HIGH", cfg.GeoNameHigh)
	cfg.GeoNameMedium = GetEnvFloat("MERGE_NAME_SCORE_MEDIUM", cfg.GeoNameMedium)
	cfg.GenericName = GetEnvFloat("MERGE_NAME_SCORE_GENERIC", cfg.GenericName)
	cfg.NameOnly = GetEnvFloat("MERGE_NAME_SCORE_NO_GEO", cfg.NameOnly)
	cfg.TokenOverlapMin = GetEnvFloat("MERGE_TOKEN_OVERLAP_MIN", cfg.TokenOverlapMin)
	cfg.NameOnlyMaxDistanceM = GetEnvFloat("MERGE_NAME_ONLY_MAX_DISTANCE_M", cfg.NameOnlyMaxDistanceM)
	cfg.SkipUnreadableSources = GetEnvBool("MERGE_SKIP_UNREADABLE_SOURCES", cfg.SkipUnreadableSources)
	cfg.Workers = GetEnvInt("MERGE_WORKERS", cfg.Workers)
	cfg.SampleMatchLimit = GetEnvInt("MERGE_SAMPLE_MATCH_LIMIT", cfg.SampleMatchLimit)
	cfg.CacheEnabled = GetEnvBool("MERGE_CACHE_ENABLED", cfg.CacheEnabled)
	cfg.CacheDir = GetEnv("MERGE_CACHE_DIR", cfg.CacheDir)
	cfg.OutputPath = GetEnv("MERGE_OUTPUT_PATH", cfg.OutputPath)
	cfg.ReportPath = GetEnv("MERGE_REPORT_PATH", cfg.ReportPath)
	cfg.SamplePath = GetEnv("MERGE_SAMPLE_PATH", cfg.SamplePath)

	return cfg
}

// EffectiveWorkers resolves the worker count.
func (c *MergeConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Validate fails fast on settings that would make the run meaningless.
func (c *MergeConfig) Validate() error {
	radii := map[string]float64{
		"MERGE_SEARCH_RADIUS_M": c.SearchRadiusM,
		"MERGE_TIGHT_RADIUS_M":  c.TightRadiusM,
		"MERGE_WIDE_RADIUS_M":   c.WideRadiusM,
	}
	for setting, v := range radii {
		if v <= 0 {
			return &ValidationError{Setting: setting, Reason: fmt.Sprintf("radius must be positive, got %v", v)}
		}
	}
	if c.TightRadiusM > c.SearchRadiusM {
		return &ValidationError{Setting: "MERGE_TIGHT_RADIUS_M", Reason: "tight radius larger than search radius"}
	}
	if c.WideRadiusM < c.SearchRadiusM {
		return &ValidationError{Setting: "MERGE_WIDE_RADIUS_M", Reason: "wide radius smaller than search radius"}
	}

	scores := map[string]float64{
		"MERGE_NAME_SCORE_HIGH":    c.GeoNameHigh,
		"MERGE_NAME_SCORE_MEDIUM":  c.GeoNameMedium,
		"MERGE_NAME_SCORE_GENERIC": c.GenericName,
		"MERGE_NAME_SCORE_NO_GEO":  c.NameOnly,
		"MERGE_TOKEN_OVERLAP_MIN":  c.TokenOverlapMin,
	}
	for setting, v := range scores {
		if v < 0 || v > 1 {
			return &ValidationError{Setting: setting, Reason: fmt.Sprintf("similarity bound must be in [0,1], got %v", v)}
		}
	}
	if c.GeoNameMedium > c.GeoNameHigh {
		return &ValidationError{Setting: "MERGE_NAME_SCORE_MEDIUM", Reason: "medium threshold above high threshold"}
	}

	if c.NameOnlyMaxDistanceM <= 0 {
		return &ValidationError{Setting: "MERGE_NAME_ONLY_MAX_DISTANCE_M", Reason: "distance must be positive"}
	}
	if c.Workers < 0 {
		return &ValidationError{Setting: "MERGE_WORKERS", Reason: "worker count cannot be negative"}
	}
	if c.SampleMatchLimit < 0 {
		return &ValidationError{Setting: "MERGE_SAMPLE_MATCH_LIMIT", Reason: "sample limit cannot be negative"}
	}
	if len(c.SourcePriority) == 0 {
		return &ValidationError{Setting: "SourcePriority", Reason: "priority order is empty"}
	}
	return nil
}

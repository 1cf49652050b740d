// Package pipeline orchestrates the end-to-end merge: load, index, match,
// cluster, resolve, report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nha-facilities/internal/cache"
	"github.com/nha-facilities/internal/cluster"
	"github.com/nha-facilities/internal/config"
	"github.com/nha-facilities/internal/debug"
	"github.com/nha-facilities/internal/export"
	"github.com/nha-facilities/internal/geo"
	"github.com/nha-facilities/internal/match"
	"github.com/nha-facilities/internal/report"
	"github.com/nha-facilities/internal/resolve"
	"github.com/nha-facilities/internal/similarity"
	"github.com/nha-facilities/internal/source"
)

// Stage identifies where the pipeline currently is. The progression is
// strictly linear; a failed stage aborts the run.
type Stage string

const (
	StageLoading       Stage = "loading"
	StageNormalizing   Stage = "normalizing"
	StageIndexBuilding Stage = "index_building"
	StageMatching      Stage = "matching"
	StageClustering    Stage = "clustering"
	StageResolving     Stage = "resolving"
	StageReporting     Stage = "reporting"
	StageDone          Stage = "done"
)

// Result is everything a completed run produced.
type Result struct {
	Masters []resolve.MasterRecord
	Report  *report.MergeReport
}

// Pipeline runs the full merge.
type Pipeline struct {
	cfg   *config.MergeConfig
	debug bool

	mu    sync.Mutex
	stage Stage
	rep   *report.MergeReport
}

// New creates a pipeline. The configuration is validated up front so a
// bad setting never survives into a half-finished run.
func New(cfg *config.MergeConfig, debugEnabled bool) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, debug: debugEnabled, stage: StageLoading}, nil
}

// Stage returns the current pipeline stage.
func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

func (p *Pipeline) setStage(s Stage) {
	p.mu.Lock()
	p.stage = s
	if p.rep != nil {
		p.rep.Stage = string(s)
	}
	p.mu.Unlock()
	debug.Output(p.debug, "Stage: %s", s)
}

// Run executes the merge and writes the master dataset, the report and the
// match sample to their configured paths.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	rep := report.New()
	p.mu.Lock()
	p.rep = rep
	p.mu.Unlock()

	// Load and normalize. Normalization runs inline with loading; the
	// stage split exists for progress reporting.
	p.setStage(StageLoading)
	records, err := p.loadAll(ctx, rep)
	if err != nil {
		return nil, err
	}
	p.setStage(StageNormalizing)
	rep.TotalInputRecords = len(records)
	fmt.Printf("Loaded %d records from %d sources\n", len(records), len(rep.PerSource))

	// Index.
	p.setStage(StageIndexBuilding)
	index, err := p.buildIndex(records)
	if err != nil {
		if !errors.Is(err, geo.ErrNoValidCoordinates) {
			return nil, err
		}
		// Degraded mode: no source contributed a usable position. The run
		// continues on name-only evidence and the report says so loudly.
		rep.DegradedGeoMatching = true
		rep.AddIssue("no valid coordinates in any source; geographic matching disabled")
		index = nil
	}
	if index != nil {
		fmt.Printf("Spatial index built over %d geolocated records\n", index.Size())
	}

	// Match.
	p.setStage(StageMatching)
	matchTimer := debug.Timing(p.debug, "matching")
	edges, err := match.NewGenerator(p.cfg).Generate(ctx, records, index)
	matchTimer()
	if err != nil {
		return nil, fmt.Errorf("matching failed: %w", err)
	}
	fmt.Printf("Matching produced %d edges\n", len(edges))
	p.observeEdges(rep, records, edges)

	// Cluster.
	p.setStage(StageClustering)
	uf := cluster.New(len(records))
	for _, e := range edges {
		uf.Union(e.A, e.B)
	}
	components := uf.Components()

	// Resolve.
	p.setStage(StageResolving)
	resolver := resolve.NewResolver(p.cfg)
	masters := make([]resolve.MasterRecord, 0, len(components))
	for _, members := range components {
		masters = append(masters, resolver.Resolve(records, members))
	}
	p.accountClusters(rep, records, components)
	fmt.Printf("Resolved %d clusters into master records\n", len(masters))

	// Report and outputs.
	p.setStage(StageReporting)
	p.validate(rep, records, components, masters)
	rep.DurationSeconds = time.Since(start).Seconds()

	if err := export.WriteMasterCSV(p.cfg.OutputPath, masters); err != nil {
		return nil, err
	}
	if err := rep.WriteJSON(p.cfg.ReportPath); err != nil {
		return nil, err
	}
	if err := rep.WriteSampleCSV(p.cfg.SamplePath); err != nil {
		return nil, err
	}

	p.setStage(StageDone)
	fmt.Printf("Wrote %d master records to %s\n", len(masters), p.cfg.OutputPath)
	return &Result{Masters: masters, Report: rep}, nil
}

// loadAll loads every source in parallel and concatenates them in merge
// order, so global record indices respect source precedence.
func (p *Pipeline) loadAll(ctx context.Context, rep *report.MergeReport) ([]source.Record, error) {
	loader := source.NewLoader(p.cfg.DataDir)

	var store *cache.Cache
	if p.cfg.CacheEnabled {
		c, err := cache.New(p.cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		store = c
	}

	type loaded struct {
		records []source.Record
		stats   *source.LoadStats
		err     error
	}
	results := make([]loaded, len(source.MergeOrder))

	var wg sync.WaitGroup
	for i, src := range source.MergeOrder {
		wg.Add(1)
		go func(slot int, src source.SourceID) {
			defer wg.Done()
			if ctx.Err() != nil {
				results[slot] = loaded{err: ctx.Err()}
				return
			}
			recs, stats, err := p.loadOne(loader, store, src)
			results[slot] = loaded{records: recs, stats: stats, err: err}
		}(i, src)
	}
	wg.Wait()

	var all []source.Record
	for i, src := range source.MergeOrder {
		res := results[i]
		if res.err != nil {
			if !p.cfg.SkipUnreadableSources {
				return nil, res.err
			}
			rep.PerSource[string(src)] = &report.SourceReport{
				Skipped:    true,
				SkipReason: res.err.Error(),
			}
			rep.AddIssue("source %s skipped: %v", src, res.err)
			fmt.Printf("WARNING: skipping source %s: %v\n", src, res.err)
			continue
		}
		rep.PerSource[string(src)] = &report.SourceReport{
			Loaded:           res.stats.Loaded,
			MissingName:      res.stats.MissingName,
			InvalidCoords:    res.stats.InvalidCoords,
			CoercionFailures: res.stats.CoercionFailures,
			OutOfIndiaBounds: res.stats.OutOfIndiaBounds,
		}
		all = append(all, res.records...)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no sources loaded from %s", p.cfg.DataDir)
	}
	return all, nil
}

// loadOne loads a single source, going through the cache when enabled.
func (p *Pipeline) loadOne(loader *source.Loader, store *cache.Cache, src source.SourceID) ([]source.Record, *source.LoadStats, error) {
	if store != nil {
		key, err := store.Key(src, loader.Path(src), cacheSettings)
		if err == nil {
			if recs, stats, ok := store.Load(key); ok {
				debug.Output(p.debug, "Cache hit for %s (%d records)", src, len(recs))
				return recs, stats, nil
			}
			recs, stats, err := loader.Load(src)
			if err != nil {
				return nil, nil, err
			}
			if serr := store.Store(key, recs, stats); serr != nil {
				fmt.Printf("WARNING: failed to cache %s: %v\n", src, serr)
			}
			return recs, stats, nil
		}
		// Key failure means the file itself is unreadable; fall through so
		// Load produces the proper LoadError.
	}
	return loader.Load(src)
}

// cacheSettings versions the normalized record format. Bump on any change
// to column maps, normalization or the Record type.
const cacheSettings = "normalize-v1"

func (p *Pipeline) buildIndex(records []source.Record) (*geo.Index, error) {
	points := make([]geo.Point, 0, len(records))
	for i := range records {
		if records[i].HasGeo {
			points = append(points, geo.Point{ID: i, Lat: records[i].Latitude, Lon: records[i].Longitude})
		}
	}
	return geo.Build(points, p.cfg.WideRadiusM)
}

// observeEdges feeds per-rule counts, the confidence histogram and the
// bounded audit sample.
func (p *Pipeline) observeEdges(rep *report.MergeReport, records []source.Record, edges []match.Edge) {
	for _, e := range edges {
		rep.EdgesByRule[e.Rule]++
		rep.ObserveConfidence(e.Score)

		if len(rep.SampleMatches) >= p.cfg.SampleMatchLimit {
			continue
		}
		a, b := &records[e.A], &records[e.B]
		rep.SampleMatches = append(rep.SampleMatches, report.SampleMatch{
			SourceA:     string(a.Source),
			NameA:       a.Name,
			SourceB:     string(b.Source),
			NameB:       b.Name,
			State:       a.State,
			Score:       e.Score,
			JaroWinkler: similarity.JaroWinkler(a.CleanName, b.CleanName),
			DistanceM:   e.DistanceM,
			Rule:        e.Rule,
		})
	}
}

// accountClusters fills per-source matched/new counts. The owner of a
// cluster is its lowest-index member; since records are concatenated in
// merge order, that is the record from the most precedent source.
func (p *Pipeline) accountClusters(rep *report.MergeReport, records []source.Record, components [][]int) {
	for _, members := range components {
		if len(members) > 1 {
			rep.TotalMerges++
		}

		distinct := make(map[source.SourceID]bool)
		for pos, idx := range members {
			src := string(records[idx].Source)
			sr := rep.PerSource[src]
			if sr == nil {
				sr = &report.SourceReport{}
				rep.PerSource[src] = sr
			}
			if pos == 0 {
				sr.New++
			} else {
				sr.Matched++
			}
			distinct[records[idx].Source] = true
		}
		if len(distinct) > 1 {
			rep.MultiSourceMerges++
		}
	}
	rep.TotalMasters = len(components)
}

// validate runs the post-merge consistency checks. A failed check never
// aborts the run; it lands in ValidationIssues so the output is auditable.
func (p *Pipeline) validate(rep *report.MergeReport, records []source.Record, components [][]int, masters []resolve.MasterRecord) {
	memberTotal := 0
	for _, members := range components {
		memberTotal += len(members)
	}
	if memberTotal != len(records) {
		rep.AddIssue("provenance mismatch: %d cluster members vs %d input records", memberTotal, len(records))
	}

	provTotal := 0
	for i := range masters {
		provTotal += len(masters[i].Sources)
	}
	if provTotal != len(records) {
		rep.AddIssue("provenance mismatch: %d provenance rows vs %d input records", provTotal, len(records))
	}

	if len(masters) > len(records) {
		rep.AddIssue("more masters (%d) than input records (%d)", len(masters), len(records))
	}
	if len(masters) == 0 {
		rep.AddIssue("merge produced zero master records")
	}

	outOfBounds := 0
	for i := range masters {
		if masters[i].HasGeo && !geo.InIndiaBounds(masters[i].Latitude, masters[i].Longitude) {
			outOfBounds++
		}
	}
	if outOfBounds > 0 {
		rep.AddIssue("%d master records positioned outside India bounds", outOfBounds)
	}

	// Geocoding coverage per source. A mostly geo-less source still merges,
	// but its matches rest on name evidence alone and reviewers should know.
	geocoded := make(map[source.SourceID]int)
	for i := range records {
		if records[i].HasGeo {
			geocoded[records[i].Source]++
		}
	}
	for src, sr := range rep.PerSource {
		if sr.Skipped || sr.Loaded == 0 {
			continue
		}
		pct := 100 * float64(geocoded[source.SourceID(src)]) / float64(sr.Loaded)
		if pct < 50 {
			rep.AddIssue("source %s is only %.1f%% geocoded", src, pct)
		}
	}
}

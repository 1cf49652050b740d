package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/nha-facilities/internal/geo"
	"github.com/nha-facilities/internal/source"
)

// Analyze loads every source and prints its shape without merging:
// row counts, geocoding coverage and data-quality counters. Useful when a
// registry publishes a new drop and the column mapping needs checking.
func (p *Pipeline) Analyze(ctx context.Context) error {
	loader := source.NewLoader(p.cfg.DataDir)

	fmt.Printf("%-10s %10s %10s %12s %14s %10s\n",
		"SOURCE", "ROWS", "GEOCODED", "NO NAME", "BAD COORDS", "OUTSIDE")

	totalRows := 0
	var all []source.Record
	for _, src := range source.MergeOrder {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		records, stats, err := loader.Load(src)
		if err != nil {
			if p.cfg.SkipUnreadableSources {
				fmt.Printf("%-10s %10s\n", src, "UNREADABLE")
				continue
			}
			return err
		}

		geocoded := 0
		for i := range records {
			if records[i].HasGeo {
				geocoded++
			}
		}
		totalRows += stats.Loaded
		all = append(all, records...)

		fmt.Printf("%-10s %10d %10d %12d %14d %10d\n",
			src, stats.Loaded, geocoded, stats.MissingName, stats.InvalidCoords, stats.OutOfIndiaBounds)
	}

	fmt.Printf("\nTotal rows: %d\n", totalRows)
	analyzeDuplicateNames(all)
	return nil
}

// analyzeDuplicateNames reports how duplicated the name space is before any
// merging: the count distribution and the most repeated names with their
// geographic spread. A huge spread on a repeated name means it is a generic
// label, not one facility.
func analyzeDuplicateNames(records []source.Record) {
	byName := make(map[string][]int)
	for i := range records {
		if records[i].CleanName != "" {
			byName[records[i].CleanName] = append(byName[records[i].CleanName], i)
		}
	}

	distribution := make(map[int]int) // occurrence count -> number of names
	type dup struct {
		name  string
		count int
	}
	var dups []dup
	for name, idxs := range byName {
		distribution[len(idxs)]++
		if len(idxs) > 1 {
			dups = append(dups, dup{name: name, count: len(idxs)})
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		if dups[i].count != dups[j].count {
			return dups[i].count > dups[j].count
		}
		return dups[i].name < dups[j].name
	})

	fmt.Printf("\nDistinct names: %d (%d appear more than once)\n", len(byName), len(dups))

	fmt.Println("\nTop repeated names:")
	top := dups
	if len(top) > 20 {
		top = top[:20]
	}
	for _, d := range top {
		fmt.Printf("  %6dx  %-50s spread %s\n", d.count, d.name, nameSpread(records, byName[d.name]))
	}

	fmt.Println("\nDuplicate count distribution:")
	counts := make([]int, 0, len(distribution))
	for c := range distribution {
		if c > 1 {
			counts = append(counts, c)
		}
	}
	sort.Ints(counts)
	for _, c := range counts {
		fmt.Printf("  %6d names occur %d times\n", distribution[c], c)
	}
}

// nameSpread returns the maximum pairwise distance between geocoded
// occurrences of a repeated name. Capped at 50 occurrences; beyond that the
// spread is already conclusive.
func nameSpread(records []source.Record, idxs []int) string {
	var geoIdx []int
	for _, i := range idxs {
		if records[i].HasGeo {
			geoIdx = append(geoIdx, i)
			if len(geoIdx) == 50 {
				break
			}
		}
	}
	if len(geoIdx) < 2 {
		return "n/a"
	}
	max := 0.0
	for i := 0; i < len(geoIdx); i++ {
		for j := i + 1; j < len(geoIdx); j++ {
			a, b := &records[geoIdx[i]], &records[geoIdx[j]]
			if d := geo.DistanceMeters(a.Latitude, a.Longitude, b.Latitude, b.Longitude); d > max {
				max = d
			}
		}
	}
	if max >= 1000 {
		return fmt.Sprintf("%.0fkm", max/1000)
	}
	return fmt.Sprintf("%.0fm", max)
}

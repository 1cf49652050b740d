package match

import (
	"context"
	"sync"

	"github.com/nha-facilities/internal/config"
	"github.com/nha-facilities/internal/geo"
	"github.com/nha-facilities/internal/source"
)

// Generator produces the match graph's edges. Workers evaluate disjoint
// record subsets against the read-only spatial index and propose edges;
// a single reducer accumulates them, so no locking of the graph is needed.
type Generator struct {
	cfg   *config.MergeConfig
	rules *Rules
}

// NewGenerator creates an edge generator.
func NewGenerator(cfg *config.MergeConfig) *Generator {
	return &Generator{cfg: cfg, rules: NewRules(cfg)}
}

// Generate runs both matching passes over the full record set and returns
// every accepted edge. index may be nil, in which case only the name-only
// pass runs (degraded mode when no source has valid coordinates).
func (g *Generator) Generate(ctx context.Context, records []source.Record, index *geo.Index) ([]Edge, error) {
	edgeCh := make(chan Edge, 1024)

	var edges []Edge
	var reducer sync.WaitGroup
	reducer.Add(1)
	go func() {
		defer reducer.Done()
		for e := range edgeCh {
			edges = append(edges, e)
		}
	}()

	err := g.geoPass(ctx, records, index, edgeCh)
	if err == nil {
		err = g.nameOnlyPass(ctx, records, edgeCh)
	}

	close(edgeCh)
	reducer.Wait()

	if err != nil {
		return nil, err
	}
	return edges, nil
}

// geoPass evaluates every record with valid coordinates against its
// spatial neighborhood. Each unordered pair is evaluated exactly once by
// only accepting candidates with a higher index.
func (g *Generator) geoPass(ctx context.Context, records []source.Record, index *geo.Index, edgeCh chan<- Edge) error {
	if index == nil {
		return nil
	}

	workers := g.cfg.EffectiveWorkers()
	// Queries always use the widest configured radius; the per-pair
	// effective radius is applied afterwards. Querying per-record radii
	// would make candidate generation asymmetric.
	queryRadius := g.cfg.WideRadiusM

	var wg sync.WaitGroup
	errOnce := newErrOnce()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			// Per-worker counter: polling on the record index would only
			// ever fire on the shard that owns the multiples of the stride.
			n := 0
			for i := shard; i < len(records); i += workers {
				if n%4096 == 0 && ctx.Err() != nil {
					errOnce.set(ctx.Err())
					return
				}
				n++
				rec := &records[i]
				if !rec.HasGeo || rec.CleanName == "" {
					continue
				}
				for _, cand := range index.Query(rec.Latitude, rec.Longitude, queryRadius) {
					if cand.ID <= i {
						continue
					}
					other := &records[cand.ID]
					if score, rule, ok := g.rules.EvaluateGeo(rec, other, cand.DistanceM); ok {
						edgeCh <- NewEdge(i, cand.ID, score, cand.DistanceM, rule)
					}
				}
			}
		}(w)
	}

	wg.Wait()
	return errOnce.get()
}

// nameOnlyPass finds same-source duplicates that lack spatial evidence.
// Records are grouped by (source, state); within a group, every record
// missing coordinates is compared against the rest of the group. Pairs
// where both sides have coordinates already went through the geo pass.
func (g *Generator) nameOnlyPass(ctx context.Context, records []source.Record, edgeCh chan<- Edge) error {
	type groupKey struct {
		src   source.SourceID
		state string
	}
	groups := make(map[groupKey][]int)
	for i := range records {
		rec := &records[i]
		if rec.CleanName == "" || rec.State == "" {
			continue
		}
		key := groupKey{src: rec.Source, state: rec.State}
		groups[key] = append(groups[key], i)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}

	workers := g.cfg.EffectiveWorkers()
	var wg sync.WaitGroup
	errOnce := newErrOnce()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			for ki := shard; ki < len(keys); ki += workers {
				if ctx.Err() != nil {
					errOnce.set(ctx.Err())
					return
				}
				members := groups[keys[ki]]
				for ai := 0; ai < len(members); ai++ {
					a := &records[members[ai]]
					for bi := ai + 1; bi < len(members); bi++ {
						b := &records[members[bi]]
						// At least one side must lack coordinates; fully
						// geolocated pairs belong to the geo pass.
						if a.HasGeo && b.HasGeo {
							continue
						}
						if score, rule, ok := g.rules.EvaluateNameOnly(a, b); ok {
							edgeCh <- NewEdge(members[ai], members[bi], score, -1, rule)
						}
					}
				}
			}
		}(w)
	}

	wg.Wait()
	return errOnce.get()
}

// errOnce records the first error seen across workers.
type errOnce struct {
	mu  sync.Mutex
	err error
}

func newErrOnce() *errOnce { return &errOnce{} }

func (e *errOnce) set(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
}

func (e *errOnce) get() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

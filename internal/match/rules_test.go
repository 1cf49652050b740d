package match

import (
	"context"
	"testing"

	"github.com/nha-facilities/internal/config"
	"github.com/nha-facilities/internal/geo"
	"github.com/nha-facilities/internal/normalize"
	"github.com/nha-facilities/internal/source"
)

func testRecord(src source.SourceID, rowID int, name, state string, lat, lon float64) source.Record {
	rec := source.Record{
		Source:    src,
		RowID:     rowID,
		Name:      name,
		CleanName: normalize.CleanName(name),
		State:     state,
	}
	if geo.ValidCoordinates(lat, lon) {
		rec.Latitude, rec.Longitude, rec.HasGeo = lat, lon, true
	}
	return rec
}

func TestEvaluateGeoAcceptsNearIdenticalNames(t *testing.T) {
	rules := NewRules(config.DefaultConfig())

	a := testRecord(source.NHA, 0, "Rajiv Gandhi Memorial Hospital", "Delhi", 28.61, 77.23)
	b := testRecord(source.PMJAY, 0, "Rajiv Gandhi Memorial Hospitl", "Delhi", 28.6102, 77.2302)

	score, rule, ok := rules.EvaluateGeo(&a, &b, 40)
	if !ok {
		t.Fatalf("near-identical names 40m apart rejected (score %v)", score)
	}
	if rule != RuleGeoName {
		t.Errorf("rule = %q, want %q", rule, RuleGeoName)
	}
}

// Two facilities both named just HOSPITAL, hundreds of kilometers apart,
// must never merge regardless of their perfect name score.
func TestEvaluateGeoGenericFarApart(t *testing.T) {
	rules := NewRules(config.DefaultConfig())

	a := testRecord(source.NHA, 0, "Hospital", "Delhi", 28.61, 77.23)
	b := testRecord(source.NIN, 0, "Hospital", "Maharashtra", 19.07, 72.87)

	if _, _, ok := rules.EvaluateGeo(&a, &b, 1150000); ok {
		t.Fatal("generic names 1150km apart accepted")
	}
}

func TestEvaluateGeoGenericTightRadius(t *testing.T) {
	rules := NewRules(config.DefaultConfig())

	a := testRecord(source.NHA, 0, "Pharmacy", "Delhi", 28.61, 77.23)
	b := testRecord(source.NIN, 0, "Pharmacy", "Delhi", 28.6101, 77.2301)

	// Inside the tight radius an exact generic pair is accepted.
	if _, rule, ok := rules.EvaluateGeo(&a, &b, 40); !ok || rule != RuleGeoGeneric {
		t.Errorf("generic pair at 40m: ok=%v rule=%q, want accepted under %q", ok, rule, RuleGeoGeneric)
	}

	// At 300m it is outside the tight radius even though the default
	// search radius is 500m.
	if _, _, ok := rules.EvaluateGeo(&a, &b, 300); ok {
		t.Error("generic pair at 300m accepted, want tight-radius rejection")
	}
}

func TestEvaluateGeoMediumNeedsTypeAgreement(t *testing.T) {
	rules := NewRules(config.DefaultConfig())

	a := testRecord(source.NHA, 0, "Shri Sai Krishna Multispecialty Hospital Centre", "Delhi", 28.61, 77.23)
	b := testRecord(source.NIN, 0, "Shri Sai Krishn Multispecialty Hospital", "Delhi", 28.6102, 77.2302)

	score, _, ok := rules.EvaluateGeo(&a, &b, 40)
	if score >= rules.cfg.GeoNameHigh {
		t.Skipf("score %v landed in the high band; medium-band behavior not exercised", score)
	}
	if ok {
		t.Fatalf("medium-band score %v accepted without facility type agreement", score)
	}

	a.FacilityType, b.FacilityType = "Hospital", "Hospital"
	if _, _, ok := rules.EvaluateGeo(&a, &b, 40); !ok {
		t.Fatalf("medium-band score %v rejected despite matching facility types", score)
	}
}

func TestEvaluateGeoRejectsBeyondRadius(t *testing.T) {
	rules := NewRules(config.DefaultConfig())

	a := testRecord(source.NHA, 0, "Apollo Hospital Jubilee Hills", "Telangana", 17.42, 78.41)
	b := testRecord(source.NIN, 0, "Apollo Hospital Jubilee Hills", "Telangana", 17.43, 78.41)

	if _, _, ok := rules.EvaluateGeo(&a, &b, 900); ok {
		t.Fatal("pair 900m apart accepted under the default 500m radius")
	}
}

func TestEffectiveRadiusNHP(t *testing.T) {
	cfg := config.DefaultConfig()
	rules := NewRules(cfg)

	a := testRecord(source.NHP, 0, "Government Medical College Nagpur", "Maharashtra", 21.14, 79.08)
	b := testRecord(source.NHA, 0, "Government Medical College Nagpur", "Maharashtra", 21.147, 79.08)

	if got := rules.EffectiveRadius(&a, &b); got != cfg.WideRadiusM {
		t.Errorf("NHP effective radius = %v, want %v", got, cfg.WideRadiusM)
	}

	// The wide radius admits the campus-centroid offset.
	if _, _, ok := rules.EvaluateGeo(&a, &b, 800); !ok {
		t.Error("NHP pair at 800m rejected, want wide-radius acceptance")
	}
}

func TestEvaluateNameOnly(t *testing.T) {
	rules := NewRules(config.DefaultConfig())

	tests := []struct {
		name string
		a, b source.Record
		want bool
	}{
		{
			name: "same source same state near-exact",
			a:    testRecord(source.PHC, 0, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
			b:    testRecord(source.PHC, 1, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
			want: true,
		},
		{
			name: "different sources never name-only",
			a:    testRecord(source.PHC, 0, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
			b:    testRecord(source.CHC, 0, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
			want: false,
		},
		{
			name: "different states rejected",
			a:    testRecord(source.PHC, 0, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
			b:    testRecord(source.PHC, 1, "Sitapur Primary Health Centre Rampur Block", "Bihar", 0, 0),
			want: false,
		},
		{
			name: "generic names excluded",
			a:    testRecord(source.PHC, 0, "Primary Health Centre", "Uttar Pradesh", 0, 0),
			b:    testRecord(source.PHC, 1, "Primary Health Centre", "Uttar Pradesh", 0, 0),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := rules.EvaluateNameOnly(&tt.a, &tt.b)
			if ok != tt.want {
				t.Errorf("EvaluateNameOnly = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestEvaluateNameOnlyDistanceGuard(t *testing.T) {
	rules := NewRules(config.DefaultConfig())

	a := testRecord(source.PHC, 0, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 27.0, 80.0)
	b := testRecord(source.PHC, 1, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 27.5, 80.0)

	// Both sides geolocated ~55km apart: identical names are not enough.
	if _, _, ok := rules.EvaluateNameOnly(&a, &b); ok {
		t.Fatal("name-only match accepted across an implausible distance")
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Workers = 2

	records := []source.Record{
		testRecord(source.NHA, 0, "Apollo Hospital Jubilee Hills", "Telangana", 17.4200, 78.4100),
		testRecord(source.PMJAY, 0, "Apollo Hospitals Jubilee Hills", "Telangana", 17.4203, 78.4103),
		testRecord(source.NIN, 0, "Care Clinic Banjara Hills", "Telangana", 17.4150, 78.4400),
		// Same-source pair without coordinates.
		testRecord(source.PHC, 0, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
		testRecord(source.PHC, 1, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
	}

	var points []geo.Point
	for i := range records {
		if records[i].HasGeo {
			points = append(points, geo.Point{ID: i, Lat: records[i].Latitude, Lon: records[i].Longitude})
		}
	}
	index, err := geo.Build(points, cfg.WideRadiusM)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	edges, err := NewGenerator(cfg).Generate(context.Background(), records, index)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	found := make(map[[2]int]string)
	for _, e := range edges {
		found[[2]int{e.A, e.B}] = e.Rule
	}

	if rule, ok := found[[2]int{0, 1}]; !ok || rule != RuleGeoName {
		t.Errorf("expected geo edge 0-1, got %v", found)
	}
	if rule, ok := found[[2]int{3, 4}]; !ok || rule != RuleNameOnly {
		t.Errorf("expected name-only edge 3-4, got %v", found)
	}
	if _, ok := found[[2]int{0, 2}]; ok {
		t.Error("unrelated facilities 0-2 matched")
	}
}

func TestGenerateNilIndex(t *testing.T) {
	cfg := config.DefaultConfig()
	records := []source.Record{
		testRecord(source.PHC, 0, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
		testRecord(source.PHC, 1, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
	}

	edges, err := NewGenerator(cfg).Generate(context.Background(), records, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(edges) != 1 || edges[0].Rule != RuleNameOnly {
		t.Errorf("degraded mode edges = %v, want one name-only edge", edges)
	}
}

// Raising the name-similarity thresholds must never increase the number
// of accepted edges.
func TestGenerateThresholdMonotonicity(t *testing.T) {
	records := []source.Record{
		testRecord(source.NHA, 0, "Apollo Hospital Jubilee Hills", "Telangana", 17.4200, 78.4100),
		testRecord(source.PMJAY, 0, "Apollo Hospitals Jubilee Hills", "Telangana", 17.4203, 78.4103),
		testRecord(source.NIN, 0, "Apolo Hospital Jubile Hills", "Telangana", 17.4201, 78.4101),
		testRecord(source.PHC, 0, "Sitapur Primary Health Centre Rampur Block", "Uttar Pradesh", 0, 0),
		testRecord(source.PHC, 1, "Sitapur Primary Health Center Rampur Block", "Uttar Pradesh", 0, 0),
	}

	var points []geo.Point
	for i := range records {
		if records[i].HasGeo {
			points = append(points, geo.Point{ID: i, Lat: records[i].Latitude, Lon: records[i].Longitude})
		}
	}

	prev := -1
	for _, threshold := range []float64{0.50, 0.70, 0.85, 0.95, 1.00} {
		cfg := config.DefaultConfig()
		cfg.Workers = 1
		cfg.GeoNameHigh = threshold
		cfg.GeoNameMedium = threshold
		cfg.NameOnly = threshold
		if threshold > cfg.GenericName {
			cfg.GenericName = threshold
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("threshold %v: %v", threshold, err)
		}

		index, err := geo.Build(points, cfg.WideRadiusM)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		edges, err := NewGenerator(cfg).Generate(context.Background(), records, index)
		if err != nil {
			t.Fatalf("Generate at %v: %v", threshold, err)
		}

		if prev >= 0 && len(edges) > prev {
			t.Fatalf("raising thresholds to %v increased edges from %d to %d", threshold, prev, len(edges))
		}
		prev = len(edges)
	}
	if prev != 0 {
		t.Errorf("threshold 1.0 still accepted %d edges over non-identical names", prev)
	}
}

func TestGeneratePropagatesCancellation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Workers = 4

	// Enough geolocated records that every worker shard is non-empty.
	var records []source.Record
	for i := 0; i < 16; i++ {
		records = append(records, testRecord(source.NHA, i, "Apollo Hospital Jubilee Hills", "Telangana",
			17.42+float64(i)*0.0001, 78.41))
	}
	var points []geo.Point
	for i := range records {
		points = append(points, geo.Point{ID: i, Lat: records[i].Latitude, Lon: records[i].Longitude})
	}
	index, err := geo.Build(points, cfg.WideRadiusM)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewGenerator(cfg).Generate(ctx, records, index); err == nil {
		t.Fatal("Generate ignored an already-cancelled context")
	}
}

func TestNewEdgeCanonicalOrder(t *testing.T) {
	e := NewEdge(5, 2, 0.9, 10, RuleGeoName)
	if e.A != 2 || e.B != 5 {
		t.Errorf("NewEdge(5,2) = (%d,%d), want (2,5)", e.A, e.B)
	}
}

package cluster

import (
	"reflect"
	"testing"
)

func TestComponentsNoUnions(t *testing.T) {
	uf := New(3)
	got := uf.Components()
	want := [][]int{{0}, {1}, {2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestUnionMerges(t *testing.T) {
	uf := New(5)
	uf.Union(0, 1)
	uf.Union(3, 4)
	uf.Union(1, 3) // chains 0-1-3-4 together

	got := uf.Components()
	want := [][]int{{0, 1, 3, 4}, {2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestUnionIdempotent(t *testing.T) {
	uf := New(2)
	uf.Union(0, 1)
	uf.Union(0, 1)
	uf.Union(1, 0)

	if uf.Find(0) != uf.Find(1) {
		t.Error("0 and 1 not in the same component")
	}
	if got := len(uf.Components()); got != 1 {
		t.Errorf("component count = %d, want 1", got)
	}
}

// Transitivity: A-B and B-C must place A and C together even though no
// direct A-C edge exists.
func TestUnionTransitive(t *testing.T) {
	uf := New(3)
	uf.Union(0, 1)
	uf.Union(1, 2)
	if uf.Find(0) != uf.Find(2) {
		t.Error("transitive closure broken: 0 and 2 in different components")
	}
}

// Every element appears in exactly one component, so the member total is
// conserved.
func TestComponentsConserveMembers(t *testing.T) {
	const n = 100
	uf := New(n)
	for i := 0; i < n-1; i += 3 {
		uf.Union(i, i+1)
	}

	seen := make(map[int]bool)
	total := 0
	for _, members := range uf.Components() {
		for _, m := range members {
			if seen[m] {
				t.Fatalf("element %d appears in two components", m)
			}
			seen[m] = true
			total++
		}
	}
	if total != n {
		t.Errorf("member total = %d, want %d", total, n)
	}
}

func TestComponentsDeterministic(t *testing.T) {
	build := func() [][]int {
		uf := New(10)
		uf.Union(9, 0)
		uf.Union(4, 7)
		uf.Union(2, 4)
		return uf.Components()
	}
	first := build()
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(build(), first) {
			t.Fatal("Components() output is not deterministic")
		}
	}
}

// Package cluster computes merge clusters: connected components of the
// match graph over stable integer record indices.
package cluster

import "sort"

// UnionFind is a disjoint-set forest with union by rank and path
// compression.
type UnionFind struct {
	parent []int
	rank   []int
}

// New creates a union-find over n elements, each its own component.
func New(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

// Find returns the component root of x.
func (uf *UnionFind) Find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the components of a and b.
func (uf *UnionFind) Union(a, b int) {
	ra, rb := uf.Find(a), uf.Find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// Components returns every component as a sorted member list. Singletons
// are included: a record that matched nothing is its own cluster.
func (uf *UnionFind) Components() [][]int {
	byRoot := make(map[int][]int)
	for i := range uf.parent {
		root := uf.Find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	components := make([][]int, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Ints(members)
		components = append(components, members)
	}
	// Deterministic output order: by first member.
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components
}

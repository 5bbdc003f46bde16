package merge

import (
	"slices"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
)

// UnionFind is a disjoint-set partition of natural keys with union by size
// and path compression. Unions are monotonic: nothing ever splits a set.
type UnionFind struct {
	index  map[domain.NaturalKey]int
	keys   []domain.NaturalKey
	parent []int
	size   []int
}

// NewUnionFind creates an empty partition with room for n keys.
func NewUnionFind(n int) *UnionFind {
	return &UnionFind{
		index:  make(map[domain.NaturalKey]int, n),
		keys:   make([]domain.NaturalKey, 0, n),
		parent: make([]int, 0, n),
		size:   make([]int, 0, n),
	}
}

// Add registers key as a singleton set. Adding a known key is a no-op.
func (u *UnionFind) Add(key domain.NaturalKey) {
	if _, ok := u.index[key]; ok {
		return
	}
	i := len(u.keys)
	u.index[key] = i
	u.keys = append(u.keys, key)
	u.parent = append(u.parent, i)
	u.size = append(u.size, 1)
}

// Len returns the number of registered keys.
func (u *UnionFind) Len() int { return len(u.keys) }

// Find returns the representative of the set containing key. Unknown keys
// are registered first, so Find never fails.
func (u *UnionFind) Find(key domain.NaturalKey) domain.NaturalKey {
	u.Add(key)
	return u.keys[u.root(u.index[key])]
}

// Union merges the sets containing a and b and reports whether they were
// previously separate.
func (u *UnionFind) Union(a, b domain.NaturalKey) bool {
	u.Add(a)
	u.Add(b)
	ra, rb := u.root(u.index[a]), u.root(u.index[b])
	if ra == rb {
		return false
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
	return true
}

// Connected reports whether a and b are in the same set.
func (u *UnionFind) Connected(a, b domain.NaturalKey) bool {
	return u.Find(a) == u.Find(b)
}

// Groups enumerates the partition. Members are sorted within each group and
// groups are ordered by their first member, so the output is independent of
// union order.
func (u *UnionFind) Groups() [][]domain.NaturalKey {
	byRoot := make(map[int][]domain.NaturalKey)
	for i, key := range u.keys {
		r := u.root(i)
		byRoot[r] = append(byRoot[r], key)
	}

	groups := make([][]domain.NaturalKey, 0, len(byRoot))
	for _, members := range byRoot {
		slices.SortFunc(members, compareKeys)
		groups = append(groups, members)
	}
	slices.SortFunc(groups, func(a, b []domain.NaturalKey) int {
		return compareKeys(a[0], b[0])
	})
	return groups
}

func (u *UnionFind) root(i int) int {
	r := i
	for u.parent[r] != r {
		r = u.parent[r]
	}
	for u.parent[i] != r {
		next := u.parent[i]
		u.parent[i] = r
		i = next
	}
	return r
}

func compareKeys(a, b domain.NaturalKey) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

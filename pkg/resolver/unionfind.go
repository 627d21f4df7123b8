package resolver

// disjointSet is a union-find over indices of distinct strings. The root of
// every set is its smallest index, so the partition and its representatives
// do not depend on the order unions are applied in.
type disjointSet struct {
	parent []int
}

func newDisjointSet(size int) *disjointSet {
	parent := make([]int, size)
	for i := range parent {
		parent[i] = i
	}
	return &disjointSet{parent: parent}
}

func (d *disjointSet) find(i int) int {
	root := i
	for d.parent[root] != root {
		root = d.parent[root]
	}
	// path compression
	for d.parent[i] != root {
		next := d.parent[i]
		d.parent[i] = root
		i = next
	}
	return root
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	switch {
	case ra == rb:
		return
	case ra < rb:
		d.parent[rb] = ra
	default:
		d.parent[ra] = rb
	}
}

// groups returns the members of each set in ascending order, sets ordered by root
func (d *disjointSet) groups() [][]int {
	byRoot := make(map[int][]int)
	roots := make([]int, 0)
	for i := range d.parent {
		root := d.find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	groups := make([][]int, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, byRoot[root])
	}
	return groups
}

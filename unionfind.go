package autohds

// UnionFind tracks the connected components of the dense points while HDS
// levels are added from the densest to the sparsest. Components only ever
// merge, which is what makes one structure serve every level.
type UnionFind struct {
	parent []int32
	size   []int32
	sets   int
}

// NewUnionFind creates a UnionFind with each of the n points alone.
func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{parent: make([]int32, n), size: make([]int32, n), sets: n}
	for i := range uf.parent {
		uf.parent[i] = int32(i)
		uf.size[i] = 1
	}
	return uf
}

// Find returns the representative of x's component, halving the path on
// the way up.
func (uf *UnionFind) Find(x int) int {
	p := uf.parent
	for int(p[x]) != x {
		p[x] = p[p[x]]
		x = int(p[x])
	}
	return x
}

// Union joins the components of x and y, the smaller under the larger, and
// reports whether they were separate.
func (uf *UnionFind) Union(x, y int) bool {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.size[rx] < uf.size[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = int32(rx)
	uf.size[rx] += uf.size[ry]
	uf.sets--
	return true
}

// Size returns the number of points in x's component.
func (uf *UnionFind) Size(x int) int { return int(uf.size[uf.Find(x)]) }

// Sets returns the number of components, singletons included.
func (uf *UnionFind) Sets() int { return uf.sets }

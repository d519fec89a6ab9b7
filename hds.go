package autohds

import (
	"slices"

	"go.uber.org/zap"
)

// BuildHDSTree computes the HDS label of every point at every level: at
// each level the dense points are split into connected components, two
// dense points being adjacent when one lies within the level radius of the
// other. Labels are compacted to 1..k in order of first appearance over
// point indices, so both strategies yield the same matrix. It also fills
// NumClusters and SortedIdx.
func BuildHDSTree(st *State, strategy Strategy, log *zap.Logger, progress ProgressFunc) {
	if log == nil {
		log = zap.NewNop()
	}
	levels := st.NumLevels()
	st.Labels = make([][]int, st.NumPt)
	for i := range st.Labels {
		st.Labels[i] = make([]int, levels)
	}
	st.NumClusters = make([]int, levels)

	track := newProgressTracker(progress, StageHDS, levels)
	if strategy == StrategyBrute {
		for l := 0; l < levels; l++ {
			propagateLabels(st, l)
			st.NumClusters[l] = compactLabels(st, l)
			track.update(l + 1)
		}
	} else {
		uf := NewUnionFind(st.NumPt)
		for l := levels - 1; l >= 0; l-- {
			merges := addLevelEdges(st, uf, l)
			log.Debug("added level edges", zap.Int("level", l), zap.Int("merges", merges))
			for i := 0; i < st.NumPt; i++ {
				if st.IsDense[i][l] {
					st.Labels[i][l] = uf.Find(i) + 1
				}
			}
			st.NumClusters[l] = compactLabels(st, l)
			track.update(levels - l)
		}
	}
	st.SortedIdx = SortLabelRows(st.Labels)
	log.Info("built HDS tree", zap.Int("levels", levels), zap.Ints("clusters", st.NumClusters))
}

// propagateLabels labels the dense points of one level. Each dense point
// in index order takes a fresh label, pushes it onto its dense neighbours
// within the level radius, and every point still carrying a label it
// displaced (its own or a neighbour's) is relabelled as well.
func propagateLabels(st *State, level int) {
	members := make(map[int][]int)
	cur := 0
	relabel := func(p int) {
		st.Labels[p][level] = cur
		members[cur] = append(members[cur], p)
	}
	for i := 0; i < st.NumPt; i++ {
		if !st.IsDense[i][level] {
			continue
		}
		cur++
		merged := make(map[int]struct{})
		if old := st.Labels[i][level]; old > 0 {
			merged[old] = struct{}{}
		}
		relabel(i)
		for _, nb := range st.Neighbors[i][:st.NeighborCounts[i][level]] {
			if !st.IsDense[nb][level] {
				continue
			}
			if old := st.Labels[nb][level]; old > 0 && old != cur {
				merged[old] = struct{}{}
			}
			if st.Labels[nb][level] != cur {
				relabel(nb)
			}
		}
		for old := range merged {
			for _, p := range members[old] {
				if st.Labels[p][level] == old {
					relabel(p)
				}
			}
			delete(members, old)
		}
	}
}

// addLevelEdges unions every pair of points that is adjacent at level but
// was not at level+1: edges of points that just became dense, edges to
// neighbours that just became dense, and neighbours that moved inside the
// larger radius. It returns the number of merged components.
func addLevelEdges(st *State, uf *UnionFind, level int) int {
	merges := 0
	denser := level + 1 < st.NumLevels()
	for i := 0; i < st.NumPt; i++ {
		if !st.IsDense[i][level] {
			continue
		}
		counts := st.NeighborCounts[i]
		wasDense := denser && st.IsDense[i][level+1]
		for k, nb := range st.Neighbors[i][:counts[level]] {
			if !st.IsDense[nb][level] {
				continue
			}
			if wasDense && k < counts[level+1] && st.IsDense[nb][level+1] {
				continue
			}
			if uf.Union(i, nb) {
				merges++
			}
		}
	}
	return merges
}

// compactLabels renumbers the labels at level to 1..k by first appearance
// over point indices and returns k.
func compactLabels(st *State, level int) int {
	remap := make(map[int]int)
	for i := 0; i < st.NumPt; i++ {
		old := st.Labels[i][level]
		if old == 0 {
			continue
		}
		lab, ok := remap[old]
		if !ok {
			lab = len(remap) + 1
			remap[old] = lab
		}
		st.Labels[i][level] = lab
	}
	return len(remap)
}

// SortLabelRows returns point indices ordered by their label rows compared
// lexicographically, level 0 first. Equal rows keep index order.
func SortLabelRows(labels [][]int) []int {
	idx := IndexArray(len(labels))
	slices.SortStableFunc(idx, func(a, b int) int {
		return slices.Compare(labels[a], labels[b])
	})
	return idx
}

package autohds

import (
	"slices"

	"go.uber.org/zap"
)

// Hierarchy is the Auto-HDS simplification of an HDS tree: clusters that
// persist across levels keep one label, and a new label is only issued when
// a cluster splits into two or more parts larger than the runt size.
type Hierarchy struct {
	RuntSize int

	// Labels holds HMA labels per [point][level], 0 outside any cluster.
	Labels [][]int

	// LastNonEmptyLevel is the last level holding any HMA cluster, -1 when
	// every cluster was pruned.
	LastNonEmptyLevel int

	// Clusters is indexed by label-1.
	Clusters []HMACluster

	// RankOrder lists indices into Clusters, most stable first.
	RankOrder []int
}

// HMACluster describes one HMA cluster.
type HMACluster struct {
	Label int

	// BaseLevel is the level the cluster appears at and PeakLevel the last
	// level any of its base members still carries its label.
	BaseLevel int
	PeakLevel int

	// Members are the points carrying the label at BaseLevel.
	Members []int

	// ClassCounts counts members per State.Classes entry, nil without class
	// labels.
	ClassCounts []int

	Stability float64

	// FirstSortedIndex is the first position in State.SortedIdx whose label
	// row contains this cluster, -1 if none.
	FirstSortedIndex int
}

// NumClusters returns the number of HMA clusters.
func (h *Hierarchy) NumClusters() int { return len(h.Clusters) }

// ComputeAutoHDS walks the HDS tree from the sparsest level to the densest
// and returns the stability-ranked HMA clusters.
//
// A cluster whose points stay in one HDS cluster at the next level keeps its
// label there. When its points fall into several next-level clusters, the
// parts with more than runtSize points become new clusters if there are at
// least two of them; a single surviving part inherits the label and smaller
// parts drop out. Level-0 clusters of runtSize points or fewer are dropped
// and the survivors are renumbered 1..k in ascending order of their HDS
// label, so HMA labels need not match the HDS labels at level 0.
func ComputeAutoHDS(st *State, runtSize int, log *zap.Logger) *Hierarchy {
	if log == nil {
		log = zap.NewNop()
	}
	levels := st.NumLevels()
	h := &Hierarchy{RuntSize: runtSize, Labels: make([][]int, st.NumPt), LastNonEmptyLevel: levels - 1}
	for i := range h.Labels {
		h.Labels[i] = make([]int, levels)
	}

	var baseLevels []int
	for _, grp := range groupBy(denseAt(st.Labels, 0), st.Labels, 0) {
		if len(grp.points) <= runtSize {
			continue
		}
		baseLevels = append(baseLevels, 0)
		for _, p := range grp.points {
			h.Labels[p][0] = len(baseLevels)
		}
	}

	nobreakup := true
	for j := 0; j < levels-1; j++ {
		current := denseAt(h.Labels, j)
		if len(current) == 0 {
			h.LastNonEmptyLevel = j - 1
			break
		}

		if nobreakup && st.NumClusters[j] == 1 && st.NumClusters[j+1] == 1 {
			for _, p := range current {
				if st.Labels[p][j+1] > 0 {
					h.Labels[p][j+1] = h.Labels[p][j]
				}
			}
			continue
		}
		nobreakup = false

		for _, grp := range groupBy(current, h.Labels, j) {
			subs := groupBy(grp.points, st.Labels, j+1)
			nonZero := 0
			for _, sub := range subs {
				if sub.label != 0 {
					nonZero++
				}
			}
			if nonZero <= 1 {
				for _, p := range grp.points {
					if st.Labels[p][j+1] > 0 {
						h.Labels[p][j+1] = grp.label
					}
				}
				continue
			}

			var survivors []labelGroup
			for _, sub := range subs {
				if sub.label != 0 && len(sub.points) > runtSize {
					survivors = append(survivors, sub)
				}
			}
			if len(survivors) == 1 {
				for _, p := range survivors[0].points {
					h.Labels[p][j+1] = grp.label
				}
				continue
			}
			for _, sub := range survivors {
				baseLevels = append(baseLevels, j+1)
				for _, p := range sub.points {
					h.Labels[p][j+1] = len(baseLevels)
				}
			}
		}
	}

	h.characterize(st, baseLevels)
	log.Info("computed Auto-HDS", zap.Int("runt_size", runtSize),
		zap.Int("clusters", h.NumClusters()), zap.Int("last_level", h.LastNonEmptyLevel))
	return h
}

type labelGroup struct {
	label  int
	points []int
}

// denseAt returns the points with a nonzero label at level, in index order.
func denseAt(labels [][]int, level int) []int {
	var pts []int
	for i, row := range labels {
		if row[level] > 0 {
			pts = append(pts, i)
		}
	}
	return pts
}

// groupBy partitions points by their label at level, ordered by label.
func groupBy(points []int, labels [][]int, level int) []labelGroup {
	byLabel := make(map[int][]int)
	for _, p := range points {
		l := labels[p][level]
		byLabel[l] = append(byLabel[l], p)
	}
	keys := make([]int, 0, len(byLabel))
	for l := range byLabel {
		keys = append(keys, l)
	}
	slices.Sort(keys)
	groups := make([]labelGroup, len(keys))
	for k, l := range keys {
		groups[k] = labelGroup{label: l, points: byLabel[l]}
	}
	return groups
}

// characterize fills each cluster's members, class counts, peak level,
// stability, rank and first position in the sorted tree.
func (h *Hierarchy) characterize(st *State, baseLevels []int) {
	levels := st.NumLevels()
	h.Clusters = make([]HMACluster, len(baseLevels))
	classPos := make(map[int]int, len(st.Classes))
	for k, c := range st.Classes {
		classPos[c] = k
	}

	for c := range h.Clusters {
		label := c + 1
		cl := &h.Clusters[c]
		cl.Label = label
		cl.BaseLevel = baseLevels[c]
		cl.PeakLevel = cl.BaseLevel
		cl.FirstSortedIndex = -1
		for i := 0; i < st.NumPt; i++ {
			if h.Labels[i][cl.BaseLevel] == label {
				cl.Members = append(cl.Members, i)
			}
		}
		if st.hasClasses() {
			cl.ClassCounts = make([]int, len(st.Classes))
			for _, p := range cl.Members {
				cl.ClassCounts[classPos[st.ClassLabels[p]]]++
			}
		}
		for _, p := range cl.Members {
			for k := cl.BaseLevel; k < levels && h.Labels[p][k] == label; k++ {
				cl.PeakLevel = max(cl.PeakLevel, k)
			}
		}
		cl.Stability = Stability(st.DenseSizes, st.NumPt, st.Rshave, cl.BaseLevel, cl.PeakLevel)
	}

	stab := make([]float64, len(h.Clusters))
	for c := range h.Clusters {
		stab[c] = h.Clusters[c].Stability
	}
	h.RankOrder = IndexArray(len(stab))
	IdxSort(stab, h.RankOrder)

	for pos, p := range st.SortedIdx {
		for _, label := range h.Labels[p] {
			if label > 0 && h.Clusters[label-1].FirstSortedIndex == -1 {
				h.Clusters[label-1].FirstSortedIndex = pos
			}
		}
	}
}

// Ranked returns the clusters most stable first.
func (h *Hierarchy) Ranked() []HMACluster {
	out := make([]HMACluster, len(h.RankOrder))
	for r, c := range h.RankOrder {
		out[r] = h.Clusters[c]
	}
	return out
}

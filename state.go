package autohds

import (
	"path/filepath"
	"strings"
)

// State is everything known about one clustering run: the density levels,
// the neighbour index and the HDS labels. Point-indexed tables are
// [point][level].
type State struct {
	NumPt  int
	Neps   int
	Fshave float64
	Rshave float64

	// SingleCut is set when only one level was computed.
	SingleCut bool

	// ExternalGraph marks labels imported from text files rather than
	// computed here; Reps and the neighbour index are then empty.
	ExternalGraph bool

	// DenseSizes is the number of dense points per level, non-increasing.
	DenseSizes []int

	// Reps is the density radius per level, non-increasing.
	Reps []float64

	// NepsDist is each point's distance to its Neps-th nearest neighbour.
	NepsDist []float64

	// DenseOrder lists the DenseSizes[0] densest points, densest first.
	DenseOrder []int

	IsDense [][]bool

	// Neighbors lists, nearest first and including the point itself, every
	// point within Reps[0]. Nil for points not dense at level 0.
	Neighbors [][]int

	// NeighborCounts is the length of the Neighbors prefix within Reps[level],
	// or -1 where the point is not dense. Nil for points never dense.
	NeighborCounts [][]int

	// Labels holds HDS cluster labels, 0 for points that are not dense.
	Labels [][]int

	// NumClusters is the number of distinct labels per level.
	NumClusters []int

	// SortedIdx orders points by their label rows in dictionary order.
	SortedIdx []int

	// ClassColumn is the input column that held ClassLabels, -1 for none.
	ClassColumn int
	ClassLabels []int
	// Classes is the sorted set of distinct ClassLabels.
	Classes []int

	Descriptions []Description
}

// NumLevels returns the number of density levels.
func (s *State) NumLevels() int { return len(s.DenseSizes) }

// MaxReps is the radius of the sparsest level.
func (s *State) MaxReps() float64 {
	if len(s.Reps) == 0 {
		return 0
	}
	return s.Reps[0]
}

// LevelLabels returns the label of every point at level.
func (s *State) LevelLabels(level int) []int {
	out := make([]int, s.NumPt)
	for i := range out {
		out[i] = s.Labels[i][level]
	}
	return out
}

func (s *State) hasClasses() bool { return s.ClassColumn >= 0 && len(s.ClassLabels) == s.NumPt }

// paths derives every file name of a run from the data file name.
type paths struct {
	base string
}

func newPaths(dataFile string) paths {
	return paths{base: strings.TrimSuffix(dataFile, filepath.Ext(dataFile))}
}

func (p paths) dist() string      { return p.base + ".dist" }
func (p paths) scratch() string   { return p.base + ".scratch" }
func (p paths) hdsInfo() string   { return p.base + "_hds.info" }
func (p paths) classInfo() string { return p.base + "_class.info" }
func (p paths) hds() string       { return p.base + ".hds" }
func (p paths) sortedHDS() string { return p.base + "_sorted.hds" }
func (p paths) sortedHMA() string { return p.base + "_sorted.hma" }
func (p paths) sortedIdx() string { return p.base + "_sorted.idx" }
func (p paths) labCSV() string    { return p.base + "_lab.csv" }
func (p paths) manifest() string  { return p.base + "_params.toml" }
func (p paths) dsc() string       { return p.base + ".dsc" }
func (p paths) graphLabels() string {
	return p.base + "_cluster_labels.txt"
}

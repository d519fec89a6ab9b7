package autohds

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
)

// SaveHDSInfo writes the label matrix, dense flags, level sizes, cluster
// counts, radii and sorted order of st to path.
//
// Layout (big-endian): bool externalGraph, int32 numPt, int32 numLevels;
// per level numPt × (int32 label, bool dense), int32 denseSize, int32
// numClusters and, unless externalGraph, float64 reps; then numPt × int32
// sortedIdx.
func SaveHDSInfo(path string, st *State, bufSize int) error {
	return writeFileAtomic(path, bufSize, func(w *binWriter) {
		levels := st.NumLevels()
		w.putBool(st.ExternalGraph)
		w.putInt32(st.NumPt)
		w.putInt32(levels)
		for l := 0; l < levels; l++ {
			for i := 0; i < st.NumPt; i++ {
				w.putInt32(st.Labels[i][l])
				w.putBool(st.IsDense[i][l])
			}
			w.putInt32(st.DenseSizes[l])
			w.putInt32(st.NumClusters[l])
			if !st.ExternalGraph {
				w.putFloat64(st.Reps[l])
			}
		}
		for _, p := range st.SortedIdx {
			w.putInt32(p)
		}
	})
}

// LoadHDSInfo reads a file written by SaveHDSInfo into a new State.
func LoadHDSInfo(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "load %s", path), ErrNoHDSData)
		}
		return nil, errors.Wrapf(err, "load %s", path)
	}
	r := &binReader{data: data, name: path}
	st := &State{ClassColumn: -1}
	st.ExternalGraph = r.readBool()
	st.NumPt = r.readInt32()
	levels := r.readInt32()
	if r.err != nil {
		return nil, r.err
	}
	if st.NumPt <= 0 || levels <= 0 || levels > MaxLevels {
		return nil, corruptf("%s: %d points, %d levels", path, st.NumPt, levels)
	}
	perLevel := st.NumPt*(int32Size+boolSize) + 2*int32Size
	if !st.ExternalGraph {
		perLevel += float64Size
	}
	if want := 9 + levels*perLevel + st.NumPt*int32Size; len(data) != want {
		return nil, corruptf("%s: size %d bytes, want %d", path, len(data), want)
	}

	st.Labels = make([][]int, st.NumPt)
	st.IsDense = make([][]bool, st.NumPt)
	for i := range st.Labels {
		st.Labels[i] = make([]int, levels)
		st.IsDense[i] = make([]bool, levels)
	}
	st.DenseSizes = make([]int, levels)
	st.NumClusters = make([]int, levels)
	if !st.ExternalGraph {
		st.Reps = make([]float64, levels)
	}
	for l := 0; l < levels; l++ {
		for i := 0; i < st.NumPt; i++ {
			st.Labels[i][l] = r.readInt32()
			st.IsDense[i][l] = r.readBool()
		}
		st.DenseSizes[l] = r.readInt32()
		st.NumClusters[l] = r.readInt32()
		if !st.ExternalGraph {
			st.Reps[l] = r.readFloat64()
		}
	}
	st.SortedIdx = make([]int, st.NumPt)
	for i := range st.SortedIdx {
		st.SortedIdx[i] = r.readInt32()
		if p := st.SortedIdx[i]; p < 0 || p >= st.NumPt {
			return nil, corruptf("%s: sorted index %d out of range", path, p)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return st, nil
}

// LoadSaved reads the saved HDS data of dataFile, with its class labels and
// point descriptions when those files exist.
func LoadSaved(dataFile string) (*State, error) {
	p := newPaths(dataFile)
	st, err := LoadHDSInfo(p.hdsInfo())
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(p.classInfo()); err == nil {
		if err := LoadClassInfo(p.classInfo(), st); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(p.dsc()); err == nil {
		if st.Descriptions, err = ReadDescriptions(p.dsc(), st.NumPt); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// SaveClassInfo writes the class column, per-point class labels and the
// distinct classes of st: int32 classColumn, numPt × int32 label, int32
// numClasses, numClasses × int32 class.
func SaveClassInfo(path string, st *State, bufSize int) error {
	if !st.hasClasses() {
		return errors.Newf("no class labels to save for %s", path)
	}
	return writeFileAtomic(path, bufSize, func(w *binWriter) {
		w.putInt32(st.ClassColumn)
		for _, c := range st.ClassLabels {
			w.putInt32(c)
		}
		w.putInt32(len(st.Classes))
		for _, c := range st.Classes {
			w.putInt32(c)
		}
	})
}

// LoadClassInfo reads a file written by SaveClassInfo into st.
func LoadClassInfo(path string, st *State) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	r := &binReader{data: data, name: path}
	column := r.readInt32()
	labels := make([]int, st.NumPt)
	for i := range labels {
		labels[i] = r.readInt32()
	}
	numClasses := r.readInt32()
	if r.err != nil {
		return r.err
	}
	if numClasses < 0 || r.remaining() != numClasses*int32Size {
		return corruptf("%s: %d trailing bytes for %d classes", path, r.remaining(), numClasses)
	}
	classes := make([]int, numClasses)
	for k := range classes {
		classes[k] = r.readInt32()
	}
	if r.err != nil {
		return r.err
	}
	st.ClassColumn, st.ClassLabels, st.Classes = column, labels, classes
	return nil
}

// uniqueSorted returns the distinct values of v in ascending order.
func uniqueSorted(v []int) []int {
	out := slices.Clone(v)
	slices.Sort(out)
	return slices.Compact(out)
}

// writeFileAtomic writes to a temporary file next to path and renames it
// into place once fill has written everything without error.
func writeFileAtomic(path string, bufSize int, fill func(w *binWriter)) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	w := newBinWriter(tmp, min(max(bufSize, 4096), 1<<20))
	fill(w)
	if err := w.flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "rename %s", path)
	}
	return nil
}

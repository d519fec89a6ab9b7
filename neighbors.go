package autohds

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// rowSource produces the full distance row of every point in order.
type rowSource interface {
	numPoints() int
	// fillRows writes the rows start, start+1, ... into bufs[k].values.
	fillRows(start int, bufs []rowBuf, workers int) error
	Close() error
}

// vectorSource computes rows from in-memory feature vectors.
type vectorSource struct {
	data  []float64
	n     int
	dims  int
	scale float64
}

func (v *vectorSource) numPoints() int { return v.n }

func (v *vectorSource) fillRows(start int, bufs []rowBuf, workers int) error {
	forEachRow(0, len(bufs), workers, func(k int) {
		DistanceRow(v.data, v.n, v.dims, start+k, v.scale, bufs[k].values)
	})
	return nil
}

func (v *vectorSource) Close() error { return nil }

// matrixSource reads rows of an in-memory flat n*n distance matrix.
type matrixSource struct {
	dist []float64
	n    int
}

func (m *matrixSource) numPoints() int { return m.n }

func (m *matrixSource) fillRows(start int, bufs []rowBuf, _ int) error {
	for k := range bufs {
		i := start + k
		copy(bufs[k].values, m.dist[i*m.n:(i+1)*m.n])
	}
	return nil
}

func (m *matrixSource) Close() error { return nil }

func (m *matrixFile) fillRows(_ int, bufs []rowBuf, _ int) error {
	for k := range bufs {
		if err := m.nextRow(bufs[k].values); err != nil {
			return err
		}
	}
	return nil
}

// indexBuilder turns a row source or a previous .dist file into the
// neighbour index of a State.
type indexBuilder struct {
	cfg   *Config
	log   *zap.Logger
	paths paths
	st    *State
	n     int
	sizes []int
}

func newIndexBuilder(cfg *Config, p paths, st *State, sizes []int) *indexBuilder {
	return &indexBuilder{cfg: cfg, log: cfg.Logger, paths: p, st: st, n: st.NumPt, sizes: sizes}
}

// build fills the neighbour index, reusing the previous ready file when it
// was sorted deeply enough for the requested parameters.
func (b *indexBuilder) build(src rowSource) error {
	hdr, err := readStoreHeader(b.paths.dist())
	if err == nil && !b.storeFits(hdr) {
		b.log.Warn("ignoring ready file that does not match the data", zap.String("file", b.paths.dist()))
		err = corruptf("%s: not a ready file for %d points", b.paths.dist(), b.n)
	}
	switch {
	case err != nil || b.cfg.ForceRecompute:
		b.log.Info("computing distances", zap.Int("points", b.n), zap.Int("neps", b.cfg.Neps))
		if err := b.scratchFromSource(src); err != nil {
			return err
		}
		if err := b.readyFromScratch(); err != nil {
			return err
		}
	case hdr.Neps >= b.cfg.Neps && hdr.Fshave <= b.cfg.Fshave:
		b.log.Info("reusing ready file", zap.String("file", b.paths.dist()),
			zap.Int("last_neps", hdr.Neps), zap.Float64("last_fshave", hdr.Fshave))
		if err := b.indexFromReady(); err != nil {
			return err
		}
	default:
		b.log.Info("re-sorting ready file", zap.String("file", b.paths.dist()),
			zap.Int("last_neps", hdr.Neps), zap.Float64("last_fshave", hdr.Fshave))
		if err := b.scratchFromReady(); err != nil {
			return err
		}
		if err := b.readyFromScratch(); err != nil {
			return err
		}
	}
	validateDenseSizes(b.st, b.log)
	return nil
}

// storeFits reports whether the file behind hdr is a ready file with rows
// of n entries.
func (b *indexBuilder) storeFits(hdr storeHeader) bool {
	fi, err := os.Stat(b.paths.dist())
	return err == nil && hdr.VariableSorting && hdr.Neps >= 1 && hdr.Neps <= b.n &&
		fi.Size() == hdr.fileSize(b.n)
}

func (b *indexBuilder) batch() []rowBuf {
	return newRowBufs(batchRows(b.cfg.BufferSize, b.n), b.n)
}

// scratchFromSource computes every distance row, sorts it Neps deep and
// streams it to the scratch file, recording each point's Neps-distance.
func (b *indexBuilder) scratchFromSource(src rowSource) error {
	neps := b.cfg.Neps
	w, err := createDistStore(b.paths.scratch(), storeHeader{Neps: neps, Fshave: b.cfg.Fshave}, b.cfg.BufferSize)
	if err != nil {
		return err
	}
	b.st.NepsDist = make([]float64, b.n)
	bufs := b.batch()
	track := newProgressTracker(b.cfg.Progress, StageDistances, b.n)
	for start := 0; start < b.n; start += len(bufs) {
		batch := bufs[:min(len(bufs), b.n-start)]
		if err := src.fillRows(start, batch, b.cfg.Workers); err != nil {
			w.abort()
			return err
		}
		forEachRow(0, len(batch), b.cfg.Workers, func(k int) {
			rb := &batch[k]
			rb.resetIdx()
			PartIdxSort(rb.values, rb.idx, neps)
			rb.numSorted = neps
		})
		for k := range batch {
			rb := &batch[k]
			b.st.NepsDist[start+k] = rb.values[rb.idx[b.n-neps]]
			if err := w.writeRow(rb.numSorted, rb.values, rb.idx); err != nil {
				w.abort()
				return err
			}
		}
		track.update(start + len(batch))
	}
	return w.Close()
}

// scratchFromReady converts an old ready file into a variable scratch file,
// continuing each row's sort to Neps where it is shallower, and removes the
// old ready file.
func (b *indexBuilder) scratchFromReady() error {
	neps := b.cfg.Neps
	r, err := openDistStore(b.paths.dist(), b.n)
	if err != nil {
		return err
	}
	w, err := createDistStore(b.paths.scratch(), storeHeader{VariableSorting: true, Neps: neps, Fshave: b.cfg.Fshave}, b.cfg.BufferSize)
	if err != nil {
		r.Close()
		return err
	}
	b.st.NepsDist = make([]float64, b.n)
	rb := newRowBufs(1, b.n)[0]
	track := newProgressTracker(b.cfg.Progress, StageDistances, b.n)
	for i := 0; i < b.n; i++ {
		if rb.numSorted, err = r.readRow(rb.values, rb.idx); err != nil {
			r.Close()
			w.abort()
			return err
		}
		if rb.numSorted < neps {
			ContinuePartIdxSort(rb.values, rb.idx, rb.numSorted, neps)
			rb.numSorted = neps
		}
		b.st.NepsDist[i] = rb.values[rb.idx[b.n-neps]]
		if err := w.writeRow(rb.numSorted, rb.values, rb.idx); err != nil {
			r.Close()
			w.abort()
			return err
		}
		track.update(i + 1)
	}
	if err := r.Close(); err != nil {
		w.abort()
		return errors.Wrap(err, "close old ready file")
	}
	if err := w.Close(); err != nil {
		return err
	}
	return errors.Wrap(os.Remove(b.paths.dist()), "remove old ready file")
}

// readyFromScratch selects the dense points, extends every scratch row to
// all neighbours within the largest radius, writes the ready file and fills
// the neighbour index. The scratch file is removed afterwards.
func (b *indexBuilder) readyFromScratch() error {
	b.selectDense()
	r, err := openDistStore(b.paths.scratch(), b.n)
	if err != nil {
		return err
	}
	w, err := createDistStore(b.paths.dist(), storeHeader{VariableSorting: true, Neps: b.cfg.Neps, Fshave: b.cfg.Fshave}, b.cfg.BufferSize)
	if err != nil {
		r.Close()
		return err
	}
	fail := func(err error) error {
		r.Close()
		w.abort()
		return err
	}

	bufs := b.batch()
	track := newProgressTracker(b.cfg.Progress, StageIndex, b.n)
	for start := 0; start < b.n; start += len(bufs) {
		batch := bufs[:min(len(bufs), b.n-start)]
		for k := range batch {
			if batch[k].numSorted, err = r.readRow(batch[k].values, batch[k].idx); err != nil {
				return fail(err)
			}
		}
		forEachRow(0, len(batch), b.cfg.Workers, func(k int) {
			b.indexRow(start+k, &batch[k])
		})
		for k := range batch {
			if err := w.writeRow(batch[k].numSorted, batch[k].values, batch[k].idx); err != nil {
				return fail(err)
			}
		}
		track.update(start + len(batch))
	}
	if err := r.Close(); err != nil {
		return fail(errors.Wrap(err, "close scratch file"))
	}
	if err := w.Close(); err != nil {
		return err
	}
	return errors.Wrap(os.Remove(b.paths.scratch()), "remove scratch file")
}

// indexFromReady builds the index straight from a ready file sorted at
// least as deep as needed. The first pass collects Neps-distances, the
// second fills neighbour lists. The file is not rewritten.
func (b *indexBuilder) indexFromReady() error {
	neps := b.cfg.Neps
	r, err := openDistStore(b.paths.dist(), b.n)
	if err != nil {
		return err
	}
	defer r.Close()

	b.st.NepsDist = make([]float64, b.n)
	rb := newRowBufs(1, b.n)[0]
	for i := 0; i < b.n; i++ {
		if rb.numSorted, err = r.readRow(rb.values, rb.idx); err != nil {
			return err
		}
		if rb.numSorted < neps {
			ContinuePartIdxSort(rb.values, rb.idx, rb.numSorted, neps)
			rb.numSorted = neps
		}
		b.st.NepsDist[i] = rb.values[rb.idx[b.n-neps]]
	}

	b.selectDense()
	r.rewind()
	track := newProgressTracker(b.cfg.Progress, StageIndex, b.n)
	for i := 0; i < b.n; i++ {
		if rb.numSorted, err = r.readRow(rb.values, rb.idx); err != nil {
			return err
		}
		b.indexRow(i, &rb)
		track.update(i + 1)
	}
	return nil
}

// selectDense picks the DenseSizes[0] points with the smallest
// Neps-distance and sets each level's radius to the Neps-distance of the
// last point kept at that level.
func (b *indexBuilder) selectDense() {
	st := b.st
	st.DenseSizes = append([]int(nil), b.sizes...)
	idx := IndexArray(b.n)
	PartIdxSort(st.NepsDist, idx, st.DenseSizes[0])
	st.DenseOrder = TopK(idx, st.DenseSizes[0])
	st.Reps = make([]float64, len(st.DenseSizes))
	for l, size := range st.DenseSizes {
		st.Reps[l] = st.NepsDist[st.DenseOrder[size-1]]
	}

	levels := len(st.DenseSizes)
	st.IsDense = make([][]bool, b.n)
	for i := range st.IsDense {
		st.IsDense[i] = make([]bool, levels)
	}
	st.Neighbors = make([][]int, b.n)
	st.NeighborCounts = make([][]int, b.n)
	b.log.Debug("selected dense points",
		zap.Int("dense", st.DenseSizes[0]), zap.Int("levels", levels), zap.Float64("max_reps", st.MaxReps()))
}

// indexRow extends a row's sort to the largest radius if needed and records
// point i's dense flags, neighbour list and per-level neighbour counts. It
// only writes row i of the State.
func (b *indexBuilder) indexRow(i int, rb *rowBuf) {
	st := b.st
	n := b.n
	maxReps := st.MaxReps()
	if rb.numSorted < n && rb.values[rb.idx[n-rb.numSorted]] <= maxReps {
		rb.numSorted = ExtendPartIdxSort(rb.values, rb.idx, rb.numSorted, maxReps)
	}

	nepsr := rb.values[rb.idx[n-st.Neps]]
	if nepsr > maxReps {
		return
	}

	valid := rb.numSorted
	for valid > 0 && rb.values[rb.idx[n-valid]] > maxReps {
		valid--
	}
	counts := make([]int, len(st.Reps))
	c := valid
	for l, reps := range st.Reps {
		if nepsr > reps {
			counts[l] = -1
			continue
		}
		st.IsDense[i][l] = true
		for c > 0 && rb.values[rb.idx[n-c]] > reps {
			c--
		}
		counts[l] = c
	}

	nbrs := make([]int, valid)
	for j := range nbrs {
		nbrs[j] = rb.idx[n-1-j]
	}
	st.Neighbors[i] = nbrs
	st.NeighborCounts[i] = counts
}

// validateDenseSizes recounts the dense points of every level. Ties at a
// level's radius can make more points dense than requested; the recorded
// size is replaced by the actual count.
func validateDenseSizes(st *State, log *zap.Logger) {
	for l := range st.DenseSizes {
		count := 0
		for i := range st.IsDense {
			if st.IsDense[i][l] {
				count++
			}
		}
		if count != st.DenseSizes[l] {
			log.Warn("dense size differs from requested, using actual count",
				zap.Int("level", l), zap.Int("requested", st.DenseSizes[l]), zap.Int("actual", count))
			st.DenseSizes[l] = count
		}
	}
}

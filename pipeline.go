package autohds

import (
	"math"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result contains the output of a clustering run.
type Result struct {
	// RunID identifies the run in logs and in the saved run manifest.
	RunID string

	// State holds the density levels, neighbour index and HDS labels. The
	// neighbour index is empty when saved results were reused.
	State *State

	// Hierarchy holds the ranked Auto-HDS clusters. Nil in single-cut mode.
	Hierarchy *Hierarchy

	// Reused is set when the HDS tree was loaded from a previous run with the
	// same parameters instead of being recomputed.
	Reused bool
}

// Run clusters the points of dataFile and writes the result files next to
// it: <base>.dist, <base>_hds.info, <base>.hds, <base>_sorted.hds,
// <base>_sorted.idx, <base>_params.toml and, unless SingleCut is set,
// <base>_sorted.hma and <base>_lab.csv. <base>_class.info is written when a
// class column is configured.
//
// Saved HDS results are loaded instead of recomputed when the data file and
// every parameter affecting them are unchanged since the last run. Otherwise
// a previous .dist file is reused when it was sorted deeply enough.
func Run(dataFile string, cfg Config) (*Result, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	pl := newPipeline(dataFile, cfg)
	if pl.cfg.ClassColumnName != "" {
		col, err := FindClassColumn(dataFile, pl.cfg.ClassColumnName, pl.cfg.textOptions())
		if err != nil {
			return nil, err
		}
		pl.cfg.ClassColumn = col
		pl.log.Debug("resolved class column", zap.String("name", pl.cfg.ClassColumnName), zap.Int("column", col))
	}
	stamp, err := stampFile(dataFile)
	if err != nil {
		return nil, err
	}

	if st := pl.reuse(stamp); st != nil {
		pl.loadDescriptions(st)
		return pl.finish(st, true)
	}
	return pl.compute(stamp, func(pl *pipeline) (rowSource, []int, error) {
		return openFileSource(dataFile, pl)
	})
}

// Cluster runs HDS and Auto-HDS on in-memory vectors, one row per point.
// Intermediate files go to cfg.WorkDir, or to a temporary directory that is
// removed before returning. Class columns and saved results are not used.
func Cluster(data [][]float64, cfg Config) (*Result, error) {
	if len(data) == 0 {
		return nil, invalidConfigf("data must not be empty")
	}
	dims := len(data[0])
	if dims == 0 {
		return nil, invalidConfigf("data points must have at least one feature")
	}
	flat := make([]float64, 0, len(data)*dims)
	for i, row := range data {
		if len(row) != dims {
			return nil, invalidConfigf("row %d has %d features, want %d", i, len(row), dims)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, malformedf("row %d feature %d is %g", i, j, v)
			}
		}
		flat = append(flat, row...)
	}
	cfg.MatrixInput = false
	return clusterInMemory(cfg, func(pl *pipeline) (rowSource, []int, error) {
		return newVectorSource(flat, len(data), dims, dims, pl.cfg.Measure, pl.log), nil, nil
	})
}

// ClusterPrecomputed runs HDS and Auto-HDS on a flat n*n row-major distance
// matrix. Row i holds the distances from point i; the matrix need not be
// symmetric. Files are handled as in [Cluster].
func ClusterPrecomputed(dist []float64, n int, cfg Config) (*Result, error) {
	if n <= 0 {
		return nil, invalidConfigf("n must be > 0, got %d", n)
	}
	if len(dist) != n*n {
		return nil, invalidConfigf("distance matrix has %d entries, want %d", len(dist), n*n)
	}
	for k, d := range dist {
		if math.IsNaN(d) {
			return nil, malformedf("distance matrix entry (%d, %d) is NaN", k/n, k%n)
		}
	}
	cfg.MatrixInput = true
	return clusterInMemory(cfg, func(*pipeline) (rowSource, []int, error) {
		return &matrixSource{dist: dist, n: n}, nil, nil
	})
}

// RunHierarchy recomputes the Auto-HDS clusters of dataFile from its saved
// HDS data, for instance with a different RuntSize, and rewrites
// <base>_sorted.hma, <base>_sorted.idx and <base>_lab.csv. Only RuntSize,
// Rshave, BufferSize and Logger are read from cfg; Rshave is taken from the
// run manifest when one exists.
func RunHierarchy(dataFile string, cfg Config) (*Result, error) {
	if cfg.RuntSize < 1 {
		return nil, invalidConfigf("RuntSize must be >= 1, got %d", cfg.RuntSize)
	}
	pl := newPipeline(dataFile, cfg)
	st, err := LoadHDSInfo(pl.paths.hdsInfo())
	if err != nil {
		if errors.Is(err, ErrNoHDSData) {
			return nil, errors.WithHint(err, "cluster the data file first, or import graph labels")
		}
		return nil, err
	}

	st.Rshave = pl.cfg.Rshave
	if m, err := loadRunManifest(pl.paths.manifest()); err == nil && !st.ExternalGraph {
		st.Neps, st.Fshave = m.Neps, m.Fshave
		if m.Rshave > 0 {
			st.Rshave = m.Rshave
		}
	}
	if st.Rshave <= 0 || st.Rshave >= 1 {
		return nil, invalidConfigf("Rshave must be in (0, 1), got %g", st.Rshave)
	}
	if _, err := os.Stat(pl.paths.classInfo()); err == nil {
		if err := LoadClassInfo(pl.paths.classInfo(), st); err != nil {
			return nil, err
		}
	}
	pl.loadDescriptions(st)
	pl.cfg.SingleCut = false
	return pl.finish(st, true)
}

// pipeline carries one run's configuration and file names through its
// stages.
type pipeline struct {
	cfg   Config
	log   *zap.Logger
	file  string
	paths paths
	runID string
}

func newPipeline(file string, cfg Config) *pipeline {
	applyDefaults(&cfg)
	runID := uuid.NewString()
	cfg.Logger = cfg.Logger.With(zap.String("run_id", runID))
	return &pipeline{cfg: cfg, log: cfg.Logger, file: file, paths: newPaths(file), runID: runID}
}

func clusterInMemory(cfg Config, open func(*pipeline) (rowSource, []int, error)) (*Result, error) {
	cfg.ClassColumn, cfg.ClassColumnName, cfg.SkipHeader = -1, "", false
	cfg.ForceRecompute = true
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	dir := cfg.WorkDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "autohds-*")
		if err != nil {
			return nil, errors.Wrap(err, "create work directory")
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}
	return newPipeline(filepath.Join(dir, "points"), cfg).compute(dataStamp{}, open)
}

func openFileSource(dataFile string, pl *pipeline) (rowSource, []int, error) {
	opts := pl.cfg.textOptions()
	if pl.cfg.MatrixInput {
		m, err := openMatrixFile(dataFile, opts)
		if err != nil {
			return nil, nil, err
		}
		return m, nil, nil
	}
	vd, err := ReadVectorFile(dataFile, opts)
	if err != nil {
		return nil, nil, err
	}
	pl.log.Info("read data file", zap.String("file", dataFile),
		zap.Int("points", vd.NumPt), zap.Int("dims", vd.Dims))
	return newVectorSource(vd.Values, vd.NumPt, vd.Dims, vd.NumCol, pl.cfg.Measure, pl.log), vd.ClassLabels, nil
}

func newVectorSource(values []float64, n, dims, numCol int, m Measure, log *zap.Logger) *vectorSource {
	Normalize(values, n, dims, m, log)
	scale := 1.0
	if m == Pearson {
		scale = pearsonScale(numCol)
	}
	return &vectorSource{data: values, n: n, dims: dims, scale: scale}
}

// reuse returns the saved State of a previous run with the same input and
// parameters, or nil. A .dist file left by a run over different distances is
// removed so it cannot be picked up by the sort-depth check.
func (pl *pipeline) reuse(stamp dataStamp) *State {
	if pl.cfg.ForceRecompute {
		return nil
	}
	prev, err := loadRunManifest(pl.paths.manifest())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			pl.log.Warn("ignoring unreadable run manifest", zap.String("file", pl.paths.manifest()), zap.Error(err))
		}
		return nil
	}
	cur := newRunManifest(pl.runID, stamp, &pl.cfg)
	if !prev.sameDistances(cur) {
		if err := os.Remove(pl.paths.dist()); err == nil {
			pl.log.Info("removed ready file of a run over different distances",
				zap.String("file", pl.paths.dist()), zap.String("previous_run", prev.RunID))
		}
		return nil
	}
	if !prev.sameHDS(cur) {
		return nil
	}

	st, err := LoadHDSInfo(pl.paths.hdsInfo())
	if err == nil && st.ExternalGraph {
		err = errors.New("saved HDS data was imported from graph labels")
	}
	if err == nil && pl.cfg.ClassColumn >= 0 {
		err = LoadClassInfo(pl.paths.classInfo(), st)
	}
	if err != nil {
		pl.log.Warn("saved HDS data unusable, recomputing", zap.Error(err))
		return nil
	}
	st.Neps, st.Fshave, st.Rshave, st.SingleCut = pl.cfg.Neps, pl.cfg.Fshave, pl.cfg.Rshave, pl.cfg.SingleCut
	pl.log.Info("reusing saved HDS data", zap.String("file", pl.paths.hdsInfo()),
		zap.String("previous_run", prev.RunID), zap.Int("levels", st.NumLevels()))
	return st
}

// compute builds the neighbour index and HDS tree from the rows of the
// source returned by open and saves them.
func (pl *pipeline) compute(stamp dataStamp, open func(*pipeline) (rowSource, []int, error)) (*Result, error) {
	cfg := &pl.cfg
	src, classLabels, err := open(pl)
	if err != nil {
		return nil, err
	}
	n := src.numPoints()
	sizes, err := cfg.levelSizes(n)
	if err != nil {
		src.Close()
		return nil, err
	}

	st := &State{
		NumPt:       n,
		Neps:        cfg.Neps,
		Fshave:      cfg.Fshave,
		Rshave:      cfg.Rshave,
		SingleCut:   cfg.SingleCut,
		ClassColumn: -1,
	}
	if classLabels != nil {
		st.ClassColumn = cfg.ClassColumn
		st.ClassLabels = classLabels
		st.Classes = uniqueSorted(classLabels)
	}
	pl.log.Info("starting HDS", zap.Int("points", n), zap.Int("levels", len(sizes)),
		zap.Int("neps", cfg.Neps), zap.Float64("fshave", cfg.Fshave), zap.Float64("rshave", cfg.Rshave),
		zap.Stringer("measure", cfg.Measure), zap.Int("workers", cfg.Workers))

	if err := newIndexBuilder(cfg, pl.paths, st, sizes).build(src); err != nil {
		src.Close()
		return nil, err
	}
	if err := src.Close(); err != nil {
		return nil, err
	}
	BuildHDSTree(st, cfg.Strategy, pl.log, cfg.Progress)

	if err := pl.save(st, stamp); err != nil {
		return nil, err
	}
	pl.loadDescriptions(st)
	return pl.finish(st, false)
}

func (pl *pipeline) save(st *State, stamp dataStamp) error {
	if err := SaveHDSTree(pl.file, st); err != nil {
		return err
	}
	if err := SaveHDSInfo(pl.paths.hdsInfo(), st, pl.cfg.BufferSize); err != nil {
		return err
	}
	if st.hasClasses() {
		if err := SaveClassInfo(pl.paths.classInfo(), st, pl.cfg.BufferSize); err != nil {
			return err
		}
	}
	return newRunManifest(pl.runID, stamp, &pl.cfg).save(pl.paths.manifest())
}

// loadDescriptions attaches the <base>.dsc point descriptions when present.
func (pl *pipeline) loadDescriptions(st *State) {
	if _, err := os.Stat(pl.paths.dsc()); err != nil {
		return
	}
	descs, err := ReadDescriptions(pl.paths.dsc(), st.NumPt)
	if err != nil {
		pl.log.Warn("ignoring point descriptions", zap.Error(err))
		return
	}
	st.Descriptions = descs
}

// finish runs Auto-HDS on st unless in single-cut mode and writes the
// hierarchy files.
func (pl *pipeline) finish(st *State, reused bool) (*Result, error) {
	res := &Result{RunID: pl.runID, State: st, Reused: reused}
	if pl.cfg.SingleCut {
		if err := writeSortedIdx(pl.paths.sortedIdx(), st.SortedIdx); err != nil {
			return nil, err
		}
		pl.log.Info("single cut done", zap.Int("dense", st.DenseSizes[0]), zap.Int("clusters", st.NumClusters[0]))
		return res, nil
	}

	track := newProgressTracker(pl.cfg.Progress, StageAutoHDS, 1)
	h := ComputeAutoHDS(st, pl.cfg.RuntSize, pl.log)
	track.update(1)
	if err := SaveHMATree(pl.file, st, h); err != nil {
		return nil, err
	}
	if err := SaveClusterCSV(pl.file, st, h); err != nil {
		return nil, err
	}
	res.Hierarchy = h
	return res, nil
}

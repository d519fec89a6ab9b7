package autohds

import (
	"runtime"

	"go.uber.org/zap"
)

// Strategy selects how connected components are computed at each level.
type Strategy string

const (
	// StrategyBrute relabels every level from scratch by propagating labels
	// through neighbour lists.
	StrategyBrute Strategy = "brute"
	// StrategyIncremental walks levels from densest to sparsest over one
	// union-find, adding only the edges that appear at each level.
	StrategyIncremental Strategy = "incremental"
)

// DefaultBufferSize is the default I/O buffer and row batch budget in bytes.
const DefaultBufferSize = 40_000_000

// Config controls HDS and Auto-HDS clustering.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Neps is the number of neighbours, the point itself included, that must
	// lie within a point's radius for it to count as dense.
	// Must be >= 3. Default: 5.
	Neps int

	// Fshave is the fraction of points shaved off as sparse before the first
	// level. Must be in (0, 1). Default: 0.2.
	Fshave float64

	// Rshave is the fraction of the remaining dense points shaved off between
	// successive levels. Must be in (0, Fshave] unless SingleCut is set.
	// Default: 0.1.
	Rshave float64

	// RuntSize is the largest subgroup that is discarded instead of becoming a
	// new cluster when a cluster splits. Must be >= 1. Default: 1.
	RuntSize int

	// SingleCut computes one density level only (a DBSCAN-style cut) and
	// skips Auto-HDS.
	SingleCut bool

	// Measure is applied to vector input. Ignored for distance matrices.
	// Default: Euclidean.
	Measure Measure

	// MatrixInput treats the data file as a square distance matrix instead
	// of one vector per line.
	MatrixInput bool

	// Delimiter separates columns in text input; whitespace always does.
	// Default: " ".
	Delimiter string

	// SkipHeader drops the first line of a vector file.
	SkipHeader bool

	// ClassColumn is the zero-based column of a vector file holding integer
	// class labels, or -1 for none. Default: -1.
	ClassColumn int

	// ClassColumnName selects the class column by its header name and
	// overrides ClassColumn when set. Requires SkipHeader.
	ClassColumnName string

	// Strategy selects the per-level connected components algorithm. Both
	// produce identical labels. Default: StrategyIncremental.
	Strategy Strategy

	// BufferSize bounds the bytes used for file buffers and for the batch of
	// distance rows held in memory at once. Default: DefaultBufferSize.
	BufferSize int

	// Workers is the number of goroutines used to compute and sort distance
	// rows. 0 means runtime.NumCPU(). Output does not depend on it.
	Workers int

	// ForceRecompute ignores a previous .dist file and saved HDS results.
	ForceRecompute bool

	// WorkDir holds the intermediate and output files of Cluster and
	// ClusterPrecomputed. Empty means a temporary directory that is removed
	// afterwards.
	WorkDir string

	// Logger receives stage and warning logs. Default: zap.NewNop().
	Logger *zap.Logger

	// Progress is called periodically during long stages. Optional.
	Progress ProgressFunc
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Neps:        5,
		Fshave:      0.2,
		Rshave:      0.1,
		RuntSize:    1,
		Measure:     Euclidean,
		Delimiter:   " ",
		ClassColumn: -1,
		Strategy:    StrategyIncremental,
		BufferSize:  DefaultBufferSize,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.Neps < 3 {
		return invalidConfigf("Neps must be >= 3, got %d", cfg.Neps)
	}
	if cfg.Fshave <= 0 || cfg.Fshave >= 1 {
		return invalidConfigf("Fshave must be in (0, 1), got %g", cfg.Fshave)
	}
	if !cfg.SingleCut {
		if cfg.Rshave <= 0 || cfg.Rshave >= 1 {
			return invalidConfigf("Rshave must be in (0, 1), got %g", cfg.Rshave)
		}
		if cfg.Rshave > cfg.Fshave {
			return invalidConfigf("Rshave %g must not exceed Fshave %g", cfg.Rshave, cfg.Fshave)
		}
	}
	if cfg.RuntSize < 1 {
		return invalidConfigf("RuntSize must be >= 1, got %d", cfg.RuntSize)
	}
	switch cfg.Measure {
	case Euclidean, Pearson, Cosine:
		// valid
	default:
		return invalidConfigf("invalid Measure %d", int(cfg.Measure))
	}
	switch cfg.Strategy {
	case StrategyBrute, StrategyIncremental:
		// valid
	default:
		return invalidConfigf("invalid Strategy %q", cfg.Strategy)
	}
	if cfg.ClassColumn < -1 {
		return invalidConfigf("ClassColumn must be >= -1, got %d", cfg.ClassColumn)
	}
	if cfg.MatrixInput && (cfg.ClassColumn >= 0 || cfg.ClassColumnName != "") {
		return invalidConfigf("class labels are only read from vector files, not distance matrices")
	}
	if cfg.ClassColumnName != "" && !cfg.SkipHeader {
		return invalidConfigf("ClassColumnName %q needs SkipHeader so the header line is not read as data", cfg.ClassColumnName)
	}
	if cfg.BufferSize < 0 {
		return invalidConfigf("BufferSize must be >= 0 (0 means default), got %d", cfg.BufferSize)
	}
	if cfg.Workers < 0 {
		return invalidConfigf("Workers must be >= 0, got %d", cfg.Workers)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Delimiter == "" {
		cfg.Delimiter = " "
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyIncremental
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

func (cfg *Config) textOptions() TextOptions {
	return TextOptions{
		Delimiter:   cfg.Delimiter,
		SkipHeader:  cfg.SkipHeader,
		ClassColumn: cfg.ClassColumn,
		BufferSize:  min(cfg.BufferSize, 1<<24),
	}
}

// levelSizes returns the dense set size of every level for numPt points.
func (cfg *Config) levelSizes(numPt int) ([]int, error) {
	var sizes []int
	if cfg.SingleCut {
		sizes = []int{SingleCutSize(cfg.Fshave, numPt)}
	} else {
		sizes = DenseSizeList(cfg.Fshave, cfg.Rshave, numPt)
	}
	if sizes[0] < 1 {
		return nil, invalidConfigf("Fshave %g leaves no dense points out of %d", cfg.Fshave, numPt)
	}
	if cfg.Neps > numPt {
		return nil, invalidConfigf("Neps %d exceeds the number of points %d", cfg.Neps, numPt)
	}
	return sizes, nil
}

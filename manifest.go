package autohds

import (
	"bytes"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// runManifest records the parameters and input that produced the saved
// distance and HDS files of a data file, so a later run with the same
// parameters can load them instead of recomputing.
type runManifest struct {
	RunID     string    `toml:"run_id"`
	CreatedAt time.Time `toml:"created_at"`

	Data dataStamp `toml:"data"`

	Neps        int     `toml:"neps"`
	Fshave      float64 `toml:"fshave"`
	Rshave      float64 `toml:"rshave"`
	SingleCut   bool    `toml:"single_cut"`
	Measure     string  `toml:"measure"`
	MatrixInput bool    `toml:"matrix_input"`
	Delimiter   string  `toml:"delimiter"`
	SkipHeader  bool    `toml:"skip_header"`
	ClassColumn int     `toml:"class_column"`
}

// dataStamp identifies the version of the input file.
type dataStamp struct {
	Size    int64     `toml:"size"`
	ModTime time.Time `toml:"mod_time"`
}

func stampFile(path string) (dataStamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return dataStamp{}, errors.Wrapf(err, "stat %s", path)
	}
	return dataStamp{Size: fi.Size(), ModTime: fi.ModTime().UTC().Truncate(time.Second)}, nil
}

func newRunManifest(runID string, stamp dataStamp, cfg *Config) runManifest {
	m := runManifest{
		RunID:       runID,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		Data:        stamp,
		Neps:        cfg.Neps,
		Fshave:      cfg.Fshave,
		Rshave:      cfg.Rshave,
		SingleCut:   cfg.SingleCut,
		Measure:     cfg.Measure.String(),
		MatrixInput: cfg.MatrixInput,
		Delimiter:   cfg.Delimiter,
		SkipHeader:  cfg.SkipHeader,
		ClassColumn: cfg.ClassColumn,
	}
	if m.SingleCut {
		m.Rshave = 0
	}
	return m
}

func loadRunManifest(path string) (runManifest, error) {
	var m runManifest
	_, err := toml.DecodeFile(path, &m)
	return m, err
}

func (m runManifest) save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return errors.Wrap(err, "encode run manifest")
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "write %s", path)
}

// sameDistances reports whether the distance rows of both runs are equal,
// which is what a ready file depends on.
func (m runManifest) sameDistances(o runManifest) bool {
	return m.Data.Size == o.Data.Size && m.Data.ModTime.Equal(o.Data.ModTime) &&
		m.Measure == o.Measure && m.MatrixInput == o.MatrixInput &&
		m.Delimiter == o.Delimiter && m.SkipHeader == o.SkipHeader &&
		m.ClassColumn == o.ClassColumn
}

// sameHDS reports whether both runs produce the same HDS tree.
func (m runManifest) sameHDS(o runManifest) bool {
	return m.sameDistances(o) && m.Neps == o.Neps && m.Fshave == o.Fshave &&
		m.Rshave == o.Rshave && m.SingleCut == o.SingleCut
}

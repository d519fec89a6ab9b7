package autohds

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedBlobs(t *testing.T) (*State, string) {
	t.Helper()
	st := hdsState(t, twoBlobs(), 12, 2, StrategyIncremental, func(c *Config) { c.Neps = 3 })
	path := filepath.Join(t.TempDir(), "points_hds.info")
	require.NoError(t, SaveHDSInfo(path, st, 0))
	return st, path
}

func TestHDSInfo_RoundTrip(t *testing.T) {
	st, path := savedBlobs(t)

	got, err := LoadHDSInfo(path)
	require.NoError(t, err)
	assert.False(t, got.ExternalGraph)
	assert.Equal(t, st.NumPt, got.NumPt)
	assert.Equal(t, st.Labels, got.Labels)
	assert.Equal(t, st.IsDense, got.IsDense)
	assert.Equal(t, st.DenseSizes, got.DenseSizes)
	assert.Equal(t, st.NumClusters, got.NumClusters)
	assert.Equal(t, st.Reps, got.Reps)
	assert.Equal(t, st.SortedIdx, got.SortedIdx)
	assert.Equal(t, -1, got.ClassColumn)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	levels := st.NumLevels()
	assert.Equal(t, int64(9+levels*(12*5+8+8)+12*4), fi.Size())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file left behind")
}

func TestHDSInfo_ExternalGraphHasNoRadii(t *testing.T) {
	st := stateFromLabels([][]int{{1, 1}, {1, 0}, {2, 0}}, 0.1)
	st.ExternalGraph = true
	path := filepath.Join(t.TempDir(), "g_hds.info")
	require.NoError(t, SaveHDSInfo(path, st, 0))

	got, err := LoadHDSInfo(path)
	require.NoError(t, err)
	assert.True(t, got.ExternalGraph)
	assert.Nil(t, got.Reps)
	assert.Equal(t, st.Labels, got.Labels)
	assert.Equal(t, []int{3, 1}, got.DenseSizes)
	assert.Equal(t, []int{2, 1}, got.NumClusters)
}

func TestLoadHDSInfo_Missing(t *testing.T) {
	_, err := LoadHDSInfo(filepath.Join(t.TempDir(), "nope_hds.info"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoHDSData))
}

func TestLoadHDSInfo_Corrupt(t *testing.T) {
	_, path := savedBlobs(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	badIndex := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(badIndex[len(badIndex)-4:], 12)
	noLevels := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(noLevels[5:9], 0)

	for name, body := range map[string][]byte{
		"truncated":        data[:len(data)-1],
		"trailing":         append(append([]byte(nil), data...), 0),
		"header only":      data[:9],
		"zero levels":      noLevels,
		"index past end":   badIndex,
		"shorter than hdr": data[:3],
	} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "bad_hds.info")
			require.NoError(t, os.WriteFile(p, body, 0o644))
			_, err := LoadHDSInfo(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorruptStore), "got %v", err)
		})
	}
}

func TestClassInfo_RoundTrip(t *testing.T) {
	st := stateFromLabels([][]int{{1}, {1}, {2}, {0}}, 0.1)
	st.ClassColumn = 3
	st.ClassLabels = []int{4, -1, 4, 0}
	st.Classes = uniqueSorted(st.ClassLabels)
	path := filepath.Join(t.TempDir(), "p_class.info")
	require.NoError(t, SaveClassInfo(path, st, 0))

	got := stateFromLabels([][]int{{1}, {1}, {2}, {0}}, 0.1)
	require.NoError(t, LoadClassInfo(path, got))
	assert.Equal(t, 3, got.ClassColumn)
	assert.Equal(t, []int{4, -1, 4, 0}, got.ClassLabels)
	assert.Equal(t, []int{-1, 0, 4}, got.Classes)

	// A file saved for more points leaves trailing bytes.
	short := stateFromLabels([][]int{{1}, {1}}, 0.1)
	err := LoadClassInfo(path, short)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptStore))
}

func TestSaveClassInfo_WithoutClasses(t *testing.T) {
	st := stateFromLabels([][]int{{1}}, 0.1)
	assert.Error(t, SaveClassInfo(filepath.Join(t.TempDir(), "x_class.info"), st, 0))
}

func TestLoadSaved(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "genes.txt")
	p := newPaths(dataFile)

	st := stateFromLabels([][]int{{1, 1}, {1, 0}, {0, 0}}, 0.1)
	st.Reps = []float64{2, 1}
	st.ClassColumn = 0
	st.ClassLabels = []int{1, 1, 2}
	st.Classes = []int{1, 2}
	require.NoError(t, SaveHDSInfo(p.hdsInfo(), st, 0))

	got, err := LoadSaved(dataFile)
	require.NoError(t, err)
	assert.Equal(t, -1, got.ClassColumn)
	assert.Nil(t, got.Descriptions)

	require.NoError(t, SaveClassInfo(p.classInfo(), st, 0))
	require.NoError(t, os.WriteFile(p.dsc(), []byte("a\nb:http://b\nc\n"), 0o644))
	got, err = LoadSaved(dataFile)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, got.ClassLabels)
	assert.Equal(t, "b:http://b", got.Descriptions[1].String())

	require.NoError(t, os.WriteFile(p.dsc(), []byte("a\n"), 0o644))
	_, err = LoadSaved(dataFile)
	assert.True(t, errors.Is(err, ErrMalformedInput))
}

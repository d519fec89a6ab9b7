package autohds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeText(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadVectorFile(t *testing.T) {
	path := writeText(t, "v.txt", "1 2 3\n\n4\t5 6\r\n7 8 9\n")
	vd, err := ReadVectorFile(path, TextOptions{ClassColumn: -1})
	require.NoError(t, err)
	assert.Equal(t, 3, vd.NumPt)
	assert.Equal(t, 3, vd.Dims)
	assert.Equal(t, 3, vd.NumCol)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, vd.Values)
	assert.Nil(t, vd.ClassLabels)
}

func TestReadVectorFile_ClassColumnAndHeader(t *testing.T) {
	path := writeText(t, "v.csv", "x,label,y\n1.5,2,3\n4,7.9,6\n")
	opts := TextOptions{Delimiter: ",", SkipHeader: true, ClassColumn: 1}
	vd, err := ReadVectorFile(path, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, vd.Dims)
	assert.Equal(t, 3, vd.NumCol)
	assert.Equal(t, []float64{1.5, 3, 4, 6}, vd.Values)
	assert.Equal(t, []int{2, 7}, vd.ClassLabels, "labels truncate like an int cast")

	col, err := FindClassColumn(path, "label", opts)
	require.NoError(t, err)
	assert.Equal(t, 1, col)

	_, err = FindClassColumn(path, "missing", opts)
	assert.True(t, errors.Is(err, ErrMalformedInput))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestReadVectorFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		opts TextOptions
	}{
		{"ragged row", "1 2\n3\n", TextOptions{ClassColumn: -1}},
		{"bad token", "1 2\n3 x\n", TextOptions{ClassColumn: -1}},
		{"class column out of range", "1 2\n3 4\n", TextOptions{ClassColumn: 2}},
		{"no rows", "\n\n", TextOptions{ClassColumn: -1}},
		{"header only", "a b\n", TextOptions{ClassColumn: -1, SkipHeader: true}},
		{"NaN feature", "1 2\n3 NaN\n", TextOptions{ClassColumn: -1}},
		{"infinite feature", "1 2\nInf 4\n", TextOptions{ClassColumn: -1}},
		{"negative infinite feature", "1 -inf\n3 4\n", TextOptions{ClassColumn: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadVectorFile(writeText(t, "v.txt", tt.body), tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)
		})
	}

	_, err := ReadVectorFile(filepath.Join(t.TempDir(), "nope.txt"), TextOptions{ClassColumn: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.txt")
}

func TestMatrixFile(t *testing.T) {
	path := writeText(t, "m.txt", "0;1;4\n1;0;9\n\n4;9;0\n")
	m, err := openMatrixFile(path, TextOptions{Delimiter: ";"})
	require.NoError(t, err)
	assert.Equal(t, 3, m.numPoints())

	rows := newRowBufs(3, 3)
	require.NoError(t, m.fillRows(0, rows, 1))
	assert.Equal(t, []float64{0, 1, 4}, rows[0].values)
	assert.Equal(t, []float64{4, 9, 0}, rows[2].values)
	assert.NoError(t, m.Close())
}

func TestMatrixFile_Errors(t *testing.T) {
	read := func(body string) error {
		m, err := openMatrixFile(writeText(t, "m.txt", body), TextOptions{})
		if err != nil {
			return err
		}
		rows := newRowBufs(m.numPoints(), m.numPoints())
		if err := m.fillRows(0, rows, 1); err != nil {
			m.Close()
			return err
		}
		return m.Close()
	}
	for name, body := range map[string]string{
		"too few rows":  "0 1\n",
		"too many rows": "0 1\n1 0\n2 2\n",
		"short row":     "0 1 2\n1 0\n2 2 0\n",
		"NaN":           "0 NaN\n1 0\n",
		"empty":         "",
	} {
		err := read(body)
		assert.True(t, errors.Is(err, ErrMalformedInput), "%s: got %v", name, err)
	}
}

func TestReadDescriptions(t *testing.T) {
	path := writeText(t, "p.dsc", "geneA:http://x.org/a\ngeneB\n\n geneC : \n")
	descs, err := ReadDescriptions(path, 3)
	require.NoError(t, err)
	assert.Equal(t, []Description{
		{Text: "geneA", URL: "http://x.org/a"},
		{Text: "geneB"},
		{Text: "geneC"},
	}, descs)
	assert.Equal(t, "geneA:http://x.org/a", descs[0].String())
	assert.Equal(t, "geneB", descs[1].String())

	_, err = ReadDescriptions(path, 4)
	assert.True(t, errors.Is(err, ErrMalformedInput))
}

package autohds

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// TextOptions describes how a delimited text file is tokenised.
type TextOptions struct {
	// Delimiter is the column separator. Only its first character is used and
	// whitespace always separates tokens as well. Empty means space.
	Delimiter string

	// SkipHeader drops the first line (column names) of a vector file.
	SkipHeader bool

	// ClassColumn is the zero-based column holding integer class labels, or -1.
	ClassColumn int

	// BufferSize is the read buffer in bytes.
	BufferSize int
}

// VectorData is a parsed vector file with the class column split off.
type VectorData struct {
	// Values is flat row-major, NumPt rows of Dims features.
	Values []float64
	NumPt  int
	Dims   int
	// NumCol counts every column of the file, the class column included.
	NumCol int
	// ClassLabels holds one label per point, nil without a class column.
	ClassLabels []int
}

func (o TextOptions) separator() func(rune) bool {
	delim := ' '
	if o.Delimiter != "" {
		delim, _ = utf8.DecodeRuneInString(o.Delimiter)
	}
	return func(r rune) bool { return r == delim || unicode.IsSpace(r) }
}

func (o TextOptions) bufferSize() int {
	if o.BufferSize > 0 {
		return o.BufferSize
	}
	return 1 << 20
}

// lineReader yields trimmed non-empty lines along with their 1-based line
// number in the file.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func newLineReader(r io.Reader, size int) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, size)}
}

func (lr *lineReader) next() (string, error) {
	for {
		s, err := lr.r.ReadString('\n')
		if len(s) == 0 && err != nil {
			return "", err
		}
		lr.line++
		s = strings.TrimRightFunc(s, unicode.IsSpace)
		if strings.TrimSpace(s) != "" {
			return s, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// ReadVectorFile parses a delimited numeric file into VectorData. Every row
// must have the same number of columns.
func ReadVectorFile(path string, opts TextOptions) (*VectorData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open data file %s", path)
	}
	defer f.Close()

	lr := newLineReader(f, opts.bufferSize())
	if opts.SkipHeader {
		if _, err := lr.next(); err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "read %s", path)
		}
	}
	sep := opts.separator()

	vd := &VectorData{NumCol: -1}
	for {
		line, err := lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		tokens := strings.FieldsFunc(line, sep)
		if vd.NumCol < 0 {
			vd.NumCol = len(tokens)
			if opts.ClassColumn >= vd.NumCol {
				return nil, malformedf("%s: class column %d invalid, file has %d columns", path, opts.ClassColumn, vd.NumCol)
			}
			vd.Dims = vd.NumCol
			if opts.ClassColumn >= 0 {
				vd.Dims--
			}
		}
		if len(tokens) != vd.NumCol {
			return nil, malformedf("%s line %d: expected %d columns, found %d", path, lr.line, vd.NumCol, len(tokens))
		}
		for c, tok := range tokens {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, malformedf("%s line %d column %d: cannot parse %q", path, lr.line, c, tok)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, malformedf("%s line %d column %d: value %q is not finite", path, lr.line, c, tok)
			}
			if c == opts.ClassColumn {
				vd.ClassLabels = append(vd.ClassLabels, int(v))
				continue
			}
			vd.Values = append(vd.Values, v)
		}
		vd.NumPt++
	}
	if vd.NumPt == 0 {
		return nil, malformedf("%s: no data rows", path)
	}
	return vd, nil
}

// FindClassColumn returns the index of the column named name in the header
// line of path.
func FindClassColumn(path, name string, opts TextOptions) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return -1, errors.Wrapf(err, "open data file %s", path)
	}
	defer f.Close()

	header, err := newLineReader(f, opts.bufferSize()).next()
	if err != nil {
		return -1, malformedf("%s: cannot read header line", path)
	}
	for i, col := range strings.FieldsFunc(header, opts.separator()) {
		if strings.Trim(col, `"'`) == name {
			return i, nil
		}
	}
	return -1, errors.WithHintf(malformedf("%s: no column named %q", path, name),
		"class column names are matched against the first line of the file")
}

// matrixFile streams rows of a square text distance matrix.
type matrixFile struct {
	path string
	f    *os.File
	lr   *lineReader
	sep  func(rune) bool
	n    int
	row  int
	// first holds the already tokenised first row.
	first []string
}

func openMatrixFile(path string, opts TextOptions) (*matrixFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open matrix file %s", path)
	}
	m := &matrixFile{path: path, f: f, lr: newLineReader(f, opts.bufferSize()), sep: opts.separator()}
	line, err := m.lr.next()
	if err != nil {
		f.Close()
		return nil, malformedf("%s: empty matrix file", path)
	}
	m.first = strings.FieldsFunc(line, m.sep)
	m.n = len(m.first)
	return m, nil
}

func (m *matrixFile) numPoints() int { return m.n }

func (m *matrixFile) nextRow(dst []float64) error {
	var tokens []string
	if m.first != nil {
		tokens, m.first = m.first, nil
	} else {
		line, err := m.lr.next()
		if err == io.EOF {
			return malformedf("%s: expected %d rows, found %d", m.path, m.n, m.row)
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", m.path)
		}
		tokens = strings.FieldsFunc(line, m.sep)
	}
	if len(tokens) != m.n {
		return malformedf("%s line %d: expected %d columns, found %d", m.path, m.lr.line, m.n, len(tokens))
	}
	for j, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) {
			return malformedf("%s line %d column %d: cannot parse %q", m.path, m.lr.line, j, tok)
		}
		dst[j] = v
	}
	m.row++
	return nil
}

func (m *matrixFile) Close() error {
	if m.row == m.n {
		if _, err := m.lr.next(); err != io.EOF {
			m.f.Close()
			return malformedf("%s: more than %d rows in a %dx%d matrix", m.path, m.n, m.n, m.n)
		}
	}
	return m.f.Close()
}

// Description is a point's display text and optional link.
type Description struct {
	Text string
	URL  string
}

func (d Description) String() string {
	if d.URL == "" {
		return d.Text
	}
	return d.Text + ":" + d.URL
}

// ReadDescriptions reads a .dsc file with one "text[:url]" line per point.
func ReadDescriptions(path string, numPt int) ([]Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open description file %s", path)
	}
	defer f.Close()

	descs := make([]Description, 0, numPt)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		text, url, _ := strings.Cut(line, ":")
		descs = append(descs, Description{Text: strings.TrimSpace(text), URL: strings.TrimSpace(url)})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(descs) != numPt {
		return nil, malformedf("%s: %d descriptions for %d points", path, len(descs), numPt)
	}
	return descs, nil
}

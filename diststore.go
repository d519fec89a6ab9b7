package autohds

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/edsrzf/mmap-go"
)

// storeHeader opens every scratch and ready distance file.
//
// Layout: bool variableSorting, int32 neps, float64 fshave, then one record
// per row: int32 numSorted (only when variableSorting is set) followed by
// numPt pairs of (float64 values[k], int32 idx[k]). values is indexed by
// point id and idx is the partially sorted permutation, so a row can be
// resumed with ContinuePartIdxSort or ExtendPartIdxSort after reading.
// Without variableSorting every row is sorted exactly neps deep.
type storeHeader struct {
	VariableSorting bool
	Neps            int
	Fshave          float64
}

const storeHeaderSize = boolSize + int32Size + float64Size

func (h storeHeader) rowSize(n int) int {
	size := n * pairSize
	if h.VariableSorting {
		size += int32Size
	}
	return size
}

func (h storeHeader) fileSize(n int) int64 {
	return int64(storeHeaderSize) + int64(n)*int64(h.rowSize(n))
}

// distWriter streams rows into a new store file.
type distWriter struct {
	path string
	f    *os.File
	bw   *binWriter
	hdr  storeHeader
	rows int
}

func createDistStore(path string, hdr storeHeader, bufSize int) (*distWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create distance file %s", path)
	}
	w := &distWriter{path: path, f: f, bw: newBinWriter(f, bufSize), hdr: hdr}
	w.bw.putBool(hdr.VariableSorting)
	w.bw.putInt32(hdr.Neps)
	w.bw.putFloat64(hdr.Fshave)
	return w, nil
}

// writeRow appends one row. numSorted is ignored for fixed-depth stores.
func (w *distWriter) writeRow(numSorted int, values []float64, idx []int) error {
	if w.hdr.VariableSorting {
		w.bw.putInt32(numSorted)
	}
	for k := range values {
		w.bw.putFloat64(values[k])
		w.bw.putInt32(idx[k])
	}
	w.rows++
	if w.bw.err != nil {
		return errors.Wrapf(w.bw.err, "write row %d of %s", w.rows-1, w.path)
	}
	return nil
}

// Close flushes and closes the file.
func (w *distWriter) Close() error {
	ferr := w.bw.flush()
	cerr := w.f.Close()
	if ferr != nil {
		return errors.Wrapf(ferr, "flush %s", w.path)
	}
	return errors.Wrapf(cerr, "close %s", w.path)
}

// abort closes and removes a partially written store.
func (w *distWriter) abort() {
	w.f.Close()
	os.Remove(w.path)
}

// distReader reads rows from a store file mapped read-only into memory.
type distReader struct {
	f    *os.File
	data mmap.MMap
	r    binReader
	hdr  storeHeader
	n    int
}

// readStoreHeader reads only the header of path.
func readStoreHeader(path string) (storeHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return storeHeader{}, err
	}
	defer f.Close()
	var buf [storeHeaderSize]byte
	if _, err := f.ReadAt(buf[:], 0); err != nil {
		return storeHeader{}, corruptf("%s: cannot read header: %v", path, err)
	}
	r := binReader{data: buf[:], name: path}
	return storeHeader{VariableSorting: r.readBool(), Neps: r.readInt32(), Fshave: r.readFloat64()}, nil
}

// openDistStore maps path and checks that it holds exactly n rows of n
// entries.
func openDistStore(path string, n int) (*distReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open distance file %s", path)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "map distance file %s", path)
	}
	d := &distReader{f: f, data: data, r: binReader{data: data, name: path}, n: n}
	d.hdr = storeHeader{VariableSorting: d.r.readBool(), Neps: d.r.readInt32(), Fshave: d.r.readFloat64()}
	if d.r.err != nil {
		d.Close()
		return nil, d.r.err
	}
	if want := d.hdr.fileSize(n); int64(len(data)) != want {
		d.Close()
		return nil, corruptf("%s: size %d bytes, want %d for %d points", path, len(data), want, n)
	}
	if d.hdr.Neps < 1 || d.hdr.Neps > n {
		d.Close()
		return nil, corruptf("%s: neps %d out of range for %d points", path, d.hdr.Neps, n)
	}
	return d, nil
}

// readRow fills values and idx with the next row and returns its sorted
// depth.
func (d *distReader) readRow(values []float64, idx []int) (int, error) {
	numSorted := d.hdr.Neps
	if d.hdr.VariableSorting {
		numSorted = d.r.readInt32()
	}
	for k := 0; k < d.n; k++ {
		values[k] = d.r.readFloat64()
		idx[k] = d.r.readInt32()
		if idx[k] < 0 || idx[k] >= d.n {
			return 0, corruptf("%s: neighbour index %d out of range", d.r.name, idx[k])
		}
	}
	if d.r.err != nil {
		return 0, d.r.err
	}
	if numSorted < 0 || numSorted > d.n {
		return 0, corruptf("%s: row sorted depth %d out of range", d.r.name, numSorted)
	}
	return numSorted, nil
}

// rewind moves back to the first row.
func (d *distReader) rewind() {
	d.r.off = storeHeaderSize
}

// Close unmaps the file and closes it.
func (d *distReader) Close() error {
	var err error
	if d.data != nil {
		err = d.data.Unmap()
		d.data = nil
	}
	if d.f != nil {
		if cerr := d.f.Close(); err == nil {
			err = cerr
		}
		d.f = nil
	}
	return err
}

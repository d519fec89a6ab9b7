package autohds

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// All binary files are big-endian with one-byte booleans.

const (
	boolSize    = 1
	int32Size   = 4
	float64Size = 8
	// pairSize is one (distance, index) entry of a distance row.
	pairSize = float64Size + int32Size
)

// binWriter writes fixed-width fields to a buffered writer and remembers the
// first error, so callers check once at the end.
type binWriter struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func newBinWriter(w io.Writer, size int) *binWriter {
	return &binWriter{w: bufio.NewWriterSize(w, size)}
}

func (b *binWriter) write(p []byte) {
	if b.err != nil {
		return
	}
	_, b.err = b.w.Write(p)
}

func (b *binWriter) putBool(v bool) {
	b.buf[0] = 0
	if v {
		b.buf[0] = 1
	}
	b.write(b.buf[:1])
}

func (b *binWriter) putInt32(v int) {
	binary.BigEndian.PutUint32(b.buf[:4], uint32(int32(v)))
	b.write(b.buf[:4])
}

func (b *binWriter) putFloat64(v float64) {
	binary.BigEndian.PutUint64(b.buf[:8], math.Float64bits(v))
	b.write(b.buf[:8])
}

func (b *binWriter) flush() error {
	if b.err != nil {
		return b.err
	}
	return b.w.Flush()
}

// binReader is a cursor over an in-memory or mapped byte slice. Reading past
// the end sets a sticky ErrCorruptStore error and yields zero values.
type binReader struct {
	data []byte
	off  int
	name string
	err  error
}

func (r *binReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = corruptf("%s: truncated at byte %d", r.name, r.off)
		return nil
	}
	p := r.data[r.off : r.off+n]
	r.off += n
	return p
}

func (r *binReader) readBool() bool {
	p := r.take(boolSize)
	return p != nil && p[0] != 0
}

func (r *binReader) readInt32() int {
	p := r.take(int32Size)
	if p == nil {
		return 0
	}
	return int(int32(binary.BigEndian.Uint32(p)))
}

func (r *binReader) readFloat64() float64 {
	p := r.take(float64Size)
	if p == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(p))
}

func (r *binReader) remaining() int { return len(r.data) - r.off }

package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Writer builds a snapshot blob. All integers are fixed-width little-endian;
// strings are written with an i32 length prefix.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *Writer) WriteString(s string) {
	w.WriteInt32(int32(len(s)))
	w.buf.WriteString(s)
}

// WriteRaw appends bytes verbatim, without a length prefix.
func (w *Writer) WriteRaw(data []byte) {
	w.buf.Write(data)
}

func (w *Writer) Len() int {
	return w.buf.Len()
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Reader consumes a snapshot blob. The first malformed read poisons the
// reader; every later read returns zero values and Err reports the cause.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrCorruptStream, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) Int32() int32 {
	return int32(r.Uint32())
}

func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

func (r *Reader) Bool() bool {
	b := r.take(1)
	if b == nil {
		return false
	}
	return b[0] != 0
}

func (r *Reader) String() string {
	n := r.Int32()
	if r.err != nil {
		return ""
	}
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

// Raw returns the next n bytes verbatim.
func (r *Reader) Raw(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) Err() error {
	return r.err
}

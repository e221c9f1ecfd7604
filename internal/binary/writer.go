package binary

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/wippyai/binserde/varint"
)

// Writer is the byte sink used by serializers. A Writer created with
// NewDiscard accepts and counts every write without storing it.
type Writer struct {
	w       io.Writer
	n       int
	scratch [varint.MaxLen64]byte
}

// NewWriter creates a Writer forwarding to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewBufWriter creates a Writer backed by buf.
func NewBufWriter(buf *bytes.Buffer) *Writer {
	return &Writer{w: buf}
}

// NewDiscard creates a Writer whose writes are no-ops.
func NewDiscard() *Writer {
	return &Writer{}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.n
}

// Write writes data.
func (w *Writer) Write(data []byte) (int, error) {
	if w.w == nil {
		w.n += len(data)
		return len(data), nil
	}
	n, err := w.w.Write(data)
	w.n += n
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	return n, err
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	w.scratch[0] = b
	_, err := w.Write(w.scratch[:1])
	return err
}

// WriteString writes s without a length prefix.
func (w *Writer) WriteString(s string) (int, error) {
	if w.w == nil {
		w.n += len(s)
		return len(s), nil
	}
	n, err := io.WriteString(w.w, s)
	w.n += n
	return n, err
}

// WriteU16LE writes a little-endian uint16.
func (w *Writer) WriteU16LE(v uint16) error {
	binary.LittleEndian.PutUint16(w.scratch[:2], v)
	_, err := w.Write(w.scratch[:2])
	return err
}

// WriteU32LE writes a little-endian uint32.
func (w *Writer) WriteU32LE(v uint32) error {
	binary.LittleEndian.PutUint32(w.scratch[:4], v)
	_, err := w.Write(w.scratch[:4])
	return err
}

// WriteU64LE writes a little-endian uint64.
func (w *Writer) WriteU64LE(v uint64) error {
	binary.LittleEndian.PutUint64(w.scratch[:8], v)
	_, err := w.Write(w.scratch[:8])
	return err
}

// WriteUvarint writes a 7-bit continuation encoded uint64.
func (w *Writer) WriteUvarint(v uint64) error {
	n := varint.PutUvarint(w.scratch[:], v)
	_, err := w.Write(w.scratch[:n])
	return err
}

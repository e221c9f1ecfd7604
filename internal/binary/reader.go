package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/wippyai/binserde/varint"
)

// Reader wraps an io.Reader with position tracking. It never reads past the
// bytes it hands out, so the underlying reader can be reused after decoding.
type Reader struct {
	r   io.Reader
	br  io.ByteReader
	pos int
	one [1]byte
}

// NewReader creates a new Reader wrapping r. If r is also an io.ByteReader
// single bytes are taken from it directly.
func NewReader(r io.Reader) *Reader {
	br, _ := r.(io.ByteReader)
	return &Reader{r: r, br: br}
}

// NewBufReader creates a Reader over an in-memory buffer.
func NewBufReader(data []byte) *Reader {
	return NewReader(bytes.NewReader(data))
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.br != nil {
		b, err := r.br.ReadByte()
		if err != nil {
			return 0, err
		}
		r.pos++
		return b, nil
	}
	if _, err := io.ReadFull(r.r, r.one[:]); err != nil {
		return 0, err
	}
	r.pos++
	return r.one[0], nil
}

// Read fills p completely or fails. A short read reports io.ErrUnexpectedEOF.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := io.ReadFull(r.r, p)
	r.pos += n
	return n, err
}

// ReadU16LE reads a little-endian uint16.
func (r *Reader) ReadU16LE() (uint16, error) {
	var buf [2]byte
	if _, err := r.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadU32LE reads a little-endian uint32.
func (r *Reader) ReadU32LE() (uint32, error) {
	var buf [4]byte
	if _, err := r.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadU64LE reads a little-endian uint64.
func (r *Reader) ReadU64LE() (uint64, error) {
	var buf [8]byte
	if _, err := r.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// ReadUvarint reads a 7-bit continuation encoded uint64.
func (r *Reader) ReadUvarint() (uint64, error) {
	v, err := varint.ReadUvarint(r)
	if errors.Is(err, varint.ErrOverflow) {
		return 0, r.wrapError(err)
	}
	return v, err
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

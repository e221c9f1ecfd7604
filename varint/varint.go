// Package varint implements the integer packing used by binserde: a zig-zag
// transform for signed values and a 7-bit-per-byte continuation encoding for
// unsigned values.
//
// Groups are emitted least significant first. Every byte except the last
// has its high bit set. Zero encodes as a single 0x00 byte and the largest
// uint64 needs MaxLen64 bytes.
package varint

import (
	"errors"
	"io"
)

// MaxLen64 is the maximum encoded length of a 64-bit value.
const MaxLen64 = 10

// ErrOverflow is returned when an encoded value exceeds 64 bits.
var ErrOverflow = errors.New("varint: overflow")

// ZigZagEncode maps signed integers to unsigned ones so that values of
// small magnitude, positive or negative, stay small.
func ZigZagEncode(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// ZigZagDecode is the inverse of ZigZagEncode.
func ZigZagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// Len returns the number of bytes needed to encode v.
func Len(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// PutUvarint encodes v into buf and returns the number of bytes written.
// buf must hold at least Len(v) bytes.
func PutUvarint(buf []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)
	return i + 1
}

// AppendUvarint appends the encoding of v to dst.
func AppendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// AppendVarint appends the zig-zag encoding of v to dst.
func AppendVarint(dst []byte, v int64) []byte {
	return AppendUvarint(dst, ZigZagEncode(v))
}

// WriteUvarint writes the encoding of v to w.
func WriteUvarint(w io.Writer, v uint64) error {
	var buf [MaxLen64]byte
	n := PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

// WriteVarint writes the zig-zag encoding of v to w.
func WriteVarint(w io.Writer, v int64) error {
	return WriteUvarint(w, ZigZagEncode(v))
}

// ReadUvarint reads an unsigned value. It returns io.EOF if no byte could be
// read, io.ErrUnexpectedEOF if the input ends inside a value and ErrOverflow
// if the value does not fit in 64 bits.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if i > 0 && errors.Is(err, io.EOF) {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		if i == MaxLen64-1 && b > 1 {
			return 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// ReadVarint reads a zig-zag encoded signed value.
func ReadVarint(r io.ByteReader) (int64, error) {
	u, err := ReadUvarint(r)
	if err != nil {
		return 0, err
	}
	return ZigZagDecode(u), nil
}

package binserde

import (
	stdbinary "encoding/binary"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/wippyai/binserde/errors"
	"github.com/wippyai/binserde/internal/binary"
	"github.com/wippyai/binserde/varint"
)

// MaxLength bounds every decoded length and count before anything is
// allocated for it.
const MaxLength = 1 << 24

const (
	trueByte  = 0xFF
	falseByte = 0x00
)

func writeByte(s Serializer, b byte) error {
	return errors.IO(errors.PhaseEncode, s.Sink().WriteByte(b))
}

func readByte(d Deserializer) (byte, error) {
	b, err := d.Source().ReadByte()
	if err != nil {
		return 0, errors.IO(errors.PhaseDecode, err)
	}
	return b, nil
}

// writeFixed writes the low n bytes of v little-endian.
func writeFixed(s Serializer, v uint64, n int) error {
	if w, ok := s.Sink().(*binary.Writer); ok {
		var err error
		switch n {
		case 1:
			err = w.WriteByte(byte(v))
		case 2:
			err = w.WriteU16LE(uint16(v))
		case 4:
			err = w.WriteU32LE(uint32(v))
		default:
			err = w.WriteU64LE(v)
		}
		return errors.IO(errors.PhaseEncode, err)
	}
	var buf [8]byte
	stdbinary.LittleEndian.PutUint64(buf[:], v)
	_, err := s.Sink().Write(buf[:n])
	return errors.IO(errors.PhaseEncode, err)
}

func readFixed(d Deserializer, n int) (uint64, error) {
	if r, ok := d.Source().(*binary.Reader); ok {
		var v uint64
		var err error
		switch n {
		case 1:
			var b byte
			b, err = r.ReadByte()
			v = uint64(b)
		case 2:
			var x uint16
			x, err = r.ReadU16LE()
			v = uint64(x)
		case 4:
			var x uint32
			x, err = r.ReadU32LE()
			v = uint64(x)
		default:
			v, err = r.ReadU64LE()
		}
		if err != nil {
			return 0, errors.IO(errors.PhaseDecode, err)
		}
		return v, nil
	}
	var buf [8]byte
	if _, err := io.ReadFull(d.Source(), buf[:n]); err != nil {
		return 0, errors.IO(errors.PhaseDecode, err)
	}
	return stdbinary.LittleEndian.Uint64(buf[:]), nil
}

func writeUvarint(s Serializer, v uint64) error {
	if w, ok := s.Sink().(*binary.Writer); ok {
		return errors.IO(errors.PhaseEncode, w.WriteUvarint(v))
	}
	return errors.IO(errors.PhaseEncode, varint.WriteUvarint(s.Sink(), v))
}

func readUvarint(d Deserializer) (uint64, error) {
	var v uint64
	var err error
	if r, ok := d.Source().(*binary.Reader); ok {
		v, err = r.ReadUvarint()
	} else {
		v, err = varint.ReadUvarint(d.Source())
	}
	if err != nil {
		return 0, errors.IO(errors.PhaseDecode, err)
	}
	return v, nil
}

func writeSized(s Serializer, v uint64, w Width) error {
	if w == WidthVariable {
		return writeUvarint(s, v)
	}
	if v > w.Max() {
		return errors.Overflow(errors.PhaseEncode, nil, v, "u"+w.String()+" size")
	}
	return writeFixed(s, v, w.Bytes())
}

func readSized(d Deserializer, w Width) (uint64, error) {
	if w == WidthVariable {
		return readUvarint(d)
	}
	return readFixed(d, w.Bytes())
}

func writeUint(s Serializer, v uint64, n int) error {
	if s.Mode().FixedIntsVarint {
		return writeUvarint(s, v)
	}
	return writeFixed(s, v, n)
}

func readUint(d Deserializer, n int) (uint64, error) {
	if !d.Mode().FixedIntsVarint {
		return readFixed(d, n)
	}
	v, err := readUvarint(d)
	if err != nil {
		return 0, err
	}
	if n < 8 && v>>(8*n) != 0 {
		return 0, errors.Overflow(errors.PhaseDecode, nil, v, "u"+strconv.Itoa(8*n))
	}
	return v, nil
}

func writeInt(s Serializer, v int64, n int) error {
	if s.Mode().FixedIntsVarint {
		return writeUvarint(s, varint.ZigZagEncode(v))
	}
	return writeFixed(s, uint64(v), n)
}

func readInt(d Deserializer, n int) (int64, error) {
	shift := uint(64 - 8*n)
	if !d.Mode().FixedIntsVarint {
		u, err := readFixed(d, n)
		if err != nil {
			return 0, err
		}
		return int64(u<<shift) >> shift, nil
	}
	u, err := readUvarint(d)
	if err != nil {
		return 0, err
	}
	v := varint.ZigZagDecode(u)
	if v<<shift>>shift != v {
		return 0, errors.Overflow(errors.PhaseDecode, nil, v, "s"+strconv.Itoa(8*n))
	}
	return v, nil
}

// WriteBool writes 0xFF for true and 0x00 for false.
func WriteBool(s Serializer, v bool) error {
	if v {
		return writeByte(s, trueByte)
	}
	return writeByte(s, falseByte)
}

// ReadBool reads a bool. Any non-zero byte is true.
func ReadBool(d Deserializer) (bool, error) {
	b, err := readByte(d)
	return b != falseByte, err
}

// WriteUint8 writes v as a single byte.
func WriteUint8(s Serializer, v uint8) error {
	return writeByte(s, v)
}

// ReadUint8 reads a single byte.
func ReadUint8(d Deserializer) (uint8, error) {
	return readByte(d)
}

// WriteInt8 writes v as a single two's complement byte.
func WriteInt8(s Serializer, v int8) error {
	return writeByte(s, byte(v))
}

// ReadInt8 reads a single two's complement byte.
func ReadInt8(d Deserializer) (int8, error) {
	b, err := readByte(d)
	return int8(b), err
}

// WriteUint16 writes v little-endian, or as a varint when FixedIntsVarint is set.
func WriteUint16(s Serializer, v uint16) error {
	return writeUint(s, uint64(v), 2)
}

// ReadUint16 reads a value written by WriteUint16.
func ReadUint16(d Deserializer) (uint16, error) {
	v, err := readUint(d, 2)
	return uint16(v), err
}

// WriteUint32 writes v little-endian, or as a varint when FixedIntsVarint is set.
func WriteUint32(s Serializer, v uint32) error {
	return writeUint(s, uint64(v), 4)
}

// ReadUint32 reads a value written by WriteUint32.
func ReadUint32(d Deserializer) (uint32, error) {
	v, err := readUint(d, 4)
	return uint32(v), err
}

// WriteUint64 writes v little-endian, or as a varint when FixedIntsVarint is set.
func WriteUint64(s Serializer, v uint64) error {
	return writeUint(s, v, 8)
}

// ReadUint64 reads a value written by WriteUint64.
func ReadUint64(d Deserializer) (uint64, error) {
	return readUint(d, 8)
}

// WriteInt16 writes v little-endian, or zig-zag varint when FixedIntsVarint is set.
func WriteInt16(s Serializer, v int16) error {
	return writeInt(s, int64(v), 2)
}

// ReadInt16 reads a value written by WriteInt16.
func ReadInt16(d Deserializer) (int16, error) {
	v, err := readInt(d, 2)
	return int16(v), err
}

// WriteInt32 writes v little-endian, or zig-zag varint when FixedIntsVarint is set.
func WriteInt32(s Serializer, v int32) error {
	return writeInt(s, int64(v), 4)
}

// ReadInt32 reads a value written by WriteInt32.
func ReadInt32(d Deserializer) (int32, error) {
	v, err := readInt(d, 4)
	return int32(v), err
}

// WriteInt64 writes v little-endian, or zig-zag varint when FixedIntsVarint is set.
func WriteInt64(s Serializer, v int64) error {
	return writeInt(s, v, 8)
}

// ReadInt64 reads a value written by WriteInt64.
func ReadInt64(d Deserializer) (int64, error) {
	return readInt(d, 8)
}

// WriteInt writes a Go int as a 64-bit signed integer.
func WriteInt(s Serializer, v int) error {
	return writeInt(s, int64(v), 8)
}

// ReadInt reads a 64-bit signed integer into a Go int.
func ReadInt(d Deserializer) (int, error) {
	v, err := readInt(d, 8)
	if err != nil {
		return 0, err
	}
	if int64(int(v)) != v {
		return 0, errors.Overflow(errors.PhaseDecode, nil, v, "int")
	}
	return int(v), nil
}

// WriteFloat32 writes the IEEE 754 bits of v little-endian in every mode.
func WriteFloat32(s Serializer, v float32) error {
	return writeFixed(s, uint64(math.Float32bits(v)), 4)
}

// ReadFloat32 reads a value written by WriteFloat32.
func ReadFloat32(d Deserializer) (float32, error) {
	v, err := readFixed(d, 4)
	return math.Float32frombits(uint32(v)), err
}

// WriteFloat64 writes the IEEE 754 bits of v little-endian in every mode.
func WriteFloat64(s Serializer, v float64) error {
	return writeFixed(s, math.Float64bits(v), 8)
}

// ReadFloat64 reads a value written by WriteFloat64.
func ReadFloat64(d Deserializer) (float64, error) {
	v, err := readFixed(d, 8)
	return math.Float64frombits(v), err
}

// WriteSize writes a size value using the mode's SizeWidth.
func WriteSize(s Serializer, v uint64) error {
	return writeSized(s, v, s.Mode().SizeWidth)
}

// ReadSize reads a size value using the mode's SizeWidth.
func ReadSize(d Deserializer) (uint64, error) {
	return readSized(d, d.Mode().SizeWidth)
}

// WriteLen writes a length or element count.
func WriteLen(s Serializer, n int) error {
	if n < 0 {
		return errors.InvalidData(errors.PhaseEncode, nil, "negative length "+strconv.Itoa(n))
	}
	return WriteSize(s, uint64(n))
}

// ReadLen reads a length or element count, rejecting values above
// MaxLength.
func ReadLen(d Deserializer) (int, error) {
	return readCount(d, errors.PhaseDecode)
}

func readCount(d Deserializer, phase errors.Phase) (int, error) {
	v, err := ReadSize(d)
	if err != nil {
		return 0, err
	}
	if v > MaxLength {
		return 0, errors.InvalidLength(phase, nil, v, MaxLength)
	}
	return int(v), nil
}

// capHint limits preallocation for counts read from untrusted input.
func capHint(n int) int {
	return min(n, 1024)
}

func indexSeg(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// WriteString writes v as a table id when dedup is on, inline otherwise.
func WriteString(s Serializer, v string) error {
	m := s.Mode()
	if m.Dedup {
		id, err := s.Dedup().Intern(v)
		if err != nil {
			return err
		}
		return writeSized(s, uint64(id), m.DedupIndexWidth)
	}
	if err := WriteLen(s, len(v)); err != nil {
		return err
	}
	_, err := io.WriteString(s.Sink(), v)
	return errors.IO(errors.PhaseEncode, err)
}

// ReadString reads a string written by WriteString under the same mode.
func ReadString(d Deserializer) (string, error) {
	m := d.Mode()
	if m.Dedup {
		id, err := readSized(d, m.DedupIndexWidth)
		if err != nil {
			return "", err
		}
		return d.Dedup().Lookup(id)
	}
	b, err := readRaw(d, nil)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, nil, b)
	}
	return string(b), nil
}

// WritePath writes a filesystem path as a string. Paths that are not valid
// UTF-8 are rejected.
func WritePath(s Serializer, p string) error {
	if !utf8.ValidString(p) {
		return errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(p))
	}
	return WriteString(s, p)
}

// ReadPath reads a path written by WritePath.
func ReadPath(d Deserializer) (string, error) {
	return ReadString(d)
}

// WriteBytes writes a length followed by the raw bytes. Byte strings are
// never deduplicated.
func WriteBytes(s Serializer, v []byte) error {
	if err := WriteLen(s, len(v)); err != nil {
		return err
	}
	_, err := s.Sink().Write(v)
	return errors.IO(errors.PhaseEncode, err)
}

// ReadBytes reads a byte string written by WriteBytes.
func ReadBytes(d Deserializer) ([]byte, error) {
	return readRaw(d, nil)
}

// readRaw reads a length-prefixed byte string, reusing dst's capacity.
func readRaw(d Deserializer, dst []byte) ([]byte, error) {
	n, err := ReadLen(d)
	if err != nil {
		return nil, err
	}
	if cap(dst) >= n {
		dst = dst[:n]
	} else {
		dst = make([]byte, n)
	}
	if _, err := io.ReadFull(d.Source(), dst); err != nil {
		return nil, errors.IO(errors.PhaseDecode, err)
	}
	return dst, nil
}

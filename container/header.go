package container

import (
	stdbinary "encoding/binary"
	"io"

	"github.com/wippyai/binserde/errors"
)

const (
	Magic      uint16 = 0x3B1C
	Version    uint16 = 1
	MinVersion uint16 = 1

	HeaderSize   = 6
	ChecksumSize = 32

	// MaxBlobSize bounds both body lengths read from a header.
	MaxBlobSize = 1 << 30
)

// Flags is the header flag byte.
type Flags uint8

const (
	FlagChecksum Flags = 1 << 0

	knownFlags = FlagChecksum
)

// Header is the fixed prefix of every container.
type Header struct {
	Version     uint16
	Compression Compression
	Flags       Flags
}

// HasChecksum reports whether a BLAKE3 trailer follows the body.
func (h Header) HasChecksum() bool {
	return h.Flags&FlagChecksum != 0
}

// AppendTo appends the encoded header to dst.
func (h Header) AppendTo(dst []byte) []byte {
	dst = stdbinary.BigEndian.AppendUint16(dst, Magic)
	dst = stdbinary.LittleEndian.AppendUint16(dst, h.Version)
	return append(dst, byte(h.Compression), byte(h.Flags))
}

// ReadHeader reads and validates a container header.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, errors.IO(errors.PhaseContainer, err)
	}
	return parseHeader(buf)
}

func parseHeader(buf [HeaderSize]byte) (Header, error) {
	if magic := stdbinary.BigEndian.Uint16(buf[0:2]); magic != Magic {
		return Header{}, errors.New(errors.PhaseContainer, errors.KindBadMagic).
			Value(magic).
			Detail("invalid magic %#04x", magic).
			Build()
	}

	h := Header{
		Version:     stdbinary.LittleEndian.Uint16(buf[2:4]),
		Compression: Compression(buf[4]),
		Flags:       Flags(buf[5]),
	}
	if h.Version < MinVersion || h.Version > Version {
		return Header{}, errors.New(errors.PhaseContainer, errors.KindBadVersion).
			Value(h.Version).
			Detail("unimplemented file version %d", h.Version).
			Build()
	}
	if !h.Compression.valid() {
		return Header{}, errors.New(errors.PhaseContainer, errors.KindCorrupt).
			Value(buf[4]).
			Detail("unknown compression %d", buf[4]).
			Build()
	}
	if h.Flags&^knownFlags != 0 {
		return Header{}, errors.New(errors.PhaseContainer, errors.KindCorrupt).
			Value(buf[5]).
			Detail("unknown flags %#02x", buf[5]).
			Build()
	}
	return h, nil
}

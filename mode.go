package binserde

import (
	"fmt"
	"strings"
)

// Width selects how size values (lengths, counts, discriminants, string
// table indices) are written.
type Width uint8

const (
	// WidthVariable writes sizes as 7-bit continuation varints.
	WidthVariable Width = iota
	Width8
	Width16
	Width32
	Width64
)

var widthNames = [...]string{
	WidthVariable: "variable",
	Width8:        "8",
	Width16:       "16",
	Width32:       "32",
	Width64:       "64",
}

func (w Width) String() string {
	if int(w) < len(widthNames) {
		return widthNames[w]
	}
	return fmt.Sprintf("Width(%d)", uint8(w))
}

// Bytes returns the fixed encoded size, or 0 for WidthVariable.
func (w Width) Bytes() int {
	switch w {
	case Width8:
		return 1
	case Width16:
		return 2
	case Width32:
		return 4
	case Width64:
		return 8
	default:
		return 0
	}
}

// Max returns the largest size value the width can carry.
func (w Width) Max() uint64 {
	switch w {
	case Width8:
		return 1<<8 - 1
	case Width16:
		return 1<<16 - 1
	case Width32:
		return 1<<32 - 1
	default:
		return 1<<64 - 1
	}
}

// ParseWidth parses "variable"/"varint" or a bit count ("8", "16", "32",
// "64", optionally prefixed with "u").
func ParseWidth(s string) (Width, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "variable", "varint", "var":
		return WidthVariable, nil
	case "8", "u8":
		return Width8, nil
	case "16", "u16":
		return Width16, nil
	case "32", "u32":
		return Width32, nil
	case "64", "u64":
		return Width64, nil
	}
	return WidthVariable, fmt.Errorf("unknown width %q", s)
}

// Mode controls integer packing and string deduplication for one call.
// The same Mode must be used to decode as was used to encode; nothing of
// it is stored in the stream.
type Mode struct {
	SizeWidth       Width
	DedupIndexWidth Width
	FixedIntsVarint bool

	// Dedup is only switched on at the top level. Derived modes may turn it
	// off for a subtree; see WithMode.
	Dedup bool
}

// DefaultMode returns variable-width sizes and dedup indices, fixed-width
// integers and no deduplication.
func DefaultMode() Mode {
	return Mode{
		SizeWidth:       WidthVariable,
		DedupIndexWidth: WidthVariable,
	}
}

// DedupMode returns DefaultMode with string deduplication enabled.
func DedupMode() Mode {
	m := DefaultMode()
	m.Dedup = true
	return m
}

// WithSizeWidth returns a copy of m using w for size values.
func (m Mode) WithSizeWidth(w Width) Mode {
	m.SizeWidth = w
	return m
}

// WithDedupIndexWidth returns a copy of m using w for string table indices.
func (m Mode) WithDedupIndexWidth(w Width) Mode {
	m.DedupIndexWidth = w
	return m
}

// WithFixedIntsVarint returns a copy of m with fixed-width integers packed
// as varints (zig-zag for signed types) when enabled is true.
func (m Mode) WithFixedIntsVarint(enabled bool) Mode {
	m.FixedIntsVarint = enabled
	return m
}

// WithDedupDisabled returns a copy of m with deduplication off.
func (m Mode) WithDedupDisabled() Mode {
	m.Dedup = false
	return m
}

// narrow returns m with dedup cleared unless the enclosing mode has it on.
func (m Mode) narrow(parent Mode) Mode {
	m.Dedup = m.Dedup && parent.Dedup
	return m
}

func (m Mode) String() string {
	return fmt.Sprintf("size=%s dedup_index=%s fixed_varint=%t dedup=%t",
		m.SizeWidth, m.DedupIndexWidth, m.FixedIntsVarint, m.Dedup)
}

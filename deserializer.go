package binserde

import (
	"io"

	"github.com/wippyai/binserde/internal/binary"
)

// Source is the byte origin of a Deserializer. Read must fill the buffer
// completely or fail.
type Source interface {
	io.Reader
	io.ByteReader
}

// Deserializer is handed to every decode call. It mirrors Serializer: the
// byte source, the active Mode and the string table read from the stream.
type Deserializer interface {
	Source() Source
	Mode() Mode
	Dedup() *DedupContext
}

type baseDeserializer struct {
	r     *binary.Reader
	dedup *DedupContext
	mode  Mode
}

// NewDeserializer creates a Deserializer reading from r. ctx is the table
// returned by ReadTable for dedup streams; nil means an empty table.
func NewDeserializer(r io.Reader, ctx *DedupContext, mode Mode) Deserializer {
	br, ok := r.(*binary.Reader)
	if !ok {
		br = binary.NewReader(r)
	}
	return newDeserializer(br, ctx, mode)
}

func newDeserializer(r *binary.Reader, ctx *DedupContext, mode Mode) *baseDeserializer {
	if ctx == nil {
		ctx = emptyTable()
	}
	return &baseDeserializer{r: r, dedup: ctx, mode: mode}
}

func (d *baseDeserializer) Source() Source {
	return d.r
}

func (d *baseDeserializer) Mode() Mode {
	return d.mode
}

func (d *baseDeserializer) Dedup() *DedupContext {
	return d.dedup
}

type modeDeserializer struct {
	parent Deserializer
	mode   Mode
}

func (d *modeDeserializer) Source() Source {
	return d.parent.Source()
}

func (d *modeDeserializer) Mode() Mode {
	return d.mode
}

func (d *modeDeserializer) Dedup() *DedupContext {
	return d.parent.Dedup()
}

// WithDecodeMode is the decoding counterpart of WithMode.
func WithDecodeMode(d Deserializer, mode Mode) Deserializer {
	mode = mode.narrow(d.Mode())
	if md, ok := d.(*modeDeserializer); ok {
		d = md.parent
	}
	if d.Mode() == mode {
		return d
	}
	return &modeDeserializer{parent: d, mode: mode}
}

// DisableDecodeDedup is the decoding counterpart of DisableDedup. It must
// wrap the same subtrees the encoder wrapped.
func DisableDecodeDedup(d Deserializer) Deserializer {
	m := d.Mode()
	if !m.Dedup {
		return d
	}
	return WithDecodeMode(d, m.WithDedupDisabled())
}

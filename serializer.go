package binserde

import (
	"io"

	"github.com/wippyai/binserde/internal/binary"
)

// Sink is the byte destination of a Serializer.
type Sink interface {
	io.Writer
	io.ByteWriter
}

// Serializer is handed to every encode call. It exposes the byte sink, the
// active Mode and the dedup table of the running top-level call.
type Serializer interface {
	Sink() Sink
	Mode() Mode
	Dedup() *DedupContext
}

type baseSerializer struct {
	w     *binary.Writer
	dedup *DedupContext
	mode  Mode
}

// NewSerializer creates a Serializer writing to w. ctx is the string table
// the payload refers to; pass the result of Prescan when mode has dedup
// enabled. A nil ctx starts an empty, growing table.
//
// Most callers use SerializeInto instead, which also writes the table.
func NewSerializer(w io.Writer, ctx *DedupContext, mode Mode) Serializer {
	bw, ok := w.(*binary.Writer)
	if !ok {
		bw = binary.NewWriter(w)
	}
	return newSerializer(bw, ctx, mode)
}

func newSerializer(w *binary.Writer, ctx *DedupContext, mode Mode) *baseSerializer {
	if ctx == nil {
		ctx = NewDedupContext()
	}
	return &baseSerializer{w: w, dedup: ctx, mode: mode}
}

func (s *baseSerializer) Sink() Sink {
	return s.w
}

func (s *baseSerializer) Mode() Mode {
	return s.mode
}

func (s *baseSerializer) Dedup() *DedupContext {
	return s.dedup
}

// modeSerializer reports an overridden mode and forwards everything else
// to its parent.
type modeSerializer struct {
	parent Serializer
	mode   Mode
}

func (s *modeSerializer) Sink() Sink {
	return s.parent.Sink()
}

func (s *modeSerializer) Mode() Mode {
	return s.mode
}

func (s *modeSerializer) Dedup() *DedupContext {
	return s.parent.Dedup()
}

// WithMode returns a Serializer for one subtree that reports mode while
// sharing s's sink and dedup table. s itself is left untouched, so sibling
// values keep the ambient mode. Dedup can only be narrowed: if s has it off,
// the result has it off too.
func WithMode(s Serializer, mode Mode) Serializer {
	mode = mode.narrow(s.Mode())
	if ms, ok := s.(*modeSerializer); ok {
		s = ms.parent
	}
	if s.Mode() == mode {
		return s
	}
	return &modeSerializer{parent: s, mode: mode}
}

// DisableDedup returns a Serializer that writes strings inline for one
// subtree. Strings under it are never interned, in the prescan pass either.
func DisableDedup(s Serializer) Serializer {
	m := s.Mode()
	if !m.Dedup {
		return s
	}
	return WithMode(s, m.WithDedupDisabled())
}

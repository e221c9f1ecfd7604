// Package binserde is a compact binary serialization engine with optional
// string deduplication.
//
// Values are written as raw little-endian integers, length-prefixed byte
// strings and size-prefixed sequences. Nothing describing the layout is
// stored, so the same Go type and the same Mode must be used to decode.
//
// # Architecture Overview
//
//	binserde/            Mode, Serializer/Deserializer, codecs, top-level API
//	├── varint/          Zig-zag mapping and 7-bit continuation varints
//	├── errors/          Structured error types with phase, kind and path
//	├── container/       Framed file format with compression and checksum
//	├── config/          YAML configuration for modes and containers
//	├── internal/binary/ Position-tracking byte reader and counting writer
//	├── internal/types/  Codec plan kinds and struct tag grammar
//	└── cmd/             binserde-inspect, a dump and TUI viewer
//
// # Quick Start
//
//	type Entry struct {
//	    Name  string
//	    Tags  []string
//	    Cache []byte `binserde:"skip"`
//	}
//
//	data, err := binserde.SerializeWith(entries, binserde.DedupMode())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := binserde.DeserializeWith[[]Entry](data, binserde.DedupMode())
//
// # Deduplication
//
// With Mode.Dedup set, encoding runs twice. The prescan pass walks the value
// against a discard sink and assigns every distinct string an id in
// first-occurrence order. The table is then written, followed by the real
// pass where each string is replaced by its id. The value must not change
// between the passes.
//
// A field tagged `binserde:"nodedup"` is written with inline strings along
// with everything below it. Hand-written codecs get the same effect with
// DisableDedup and DisableDecodeDedup.
//
// # Struct Tags
//
//	binserde:"skip"      not written; reset to zero (and SetDefaults) on decode
//	binserde:"-"         same as skip
//	binserde:"nodedup"   subtree written without deduplication
//	binserde:"index=N"   field order by ordinal instead of declaration
//
// # Sum Types
//
// Interfaces become sum types once registered:
//
//	binserde.MustRegisterUnion[Shape](Circle{}, &Square{}, binserde.At(5, Line{}))
//
// The variant ordinal is written as a size value ahead of its payload.
// Integer types implementing Enum are written the same way and range
// checked on decode.
//
// # Thread Safety
//
// The plan cache and the union registry are safe for concurrent use. A
// Serializer, Deserializer or DedupContext belongs to a single call.
package binserde

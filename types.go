package binserde

import (
	"github.com/wippyai/binserde/internal/types"
)

type TypeKind = types.Kind

const (
	KindBool      = types.KindBool
	KindU8        = types.KindU8
	KindS8        = types.KindS8
	KindU16       = types.KindU16
	KindS16       = types.KindS16
	KindU32       = types.KindU32
	KindS32       = types.KindS32
	KindU64       = types.KindU64
	KindS64       = types.KindS64
	KindF32       = types.KindF32
	KindF64       = types.KindF64
	KindSize      = types.KindSize
	KindString    = types.KindString
	KindBytes     = types.KindBytes
	KindStruct    = types.KindStruct
	KindSlice     = types.KindSlice
	KindArray     = types.KindArray
	KindMap       = types.KindMap
	KindOption    = types.KindOption
	KindUnion     = types.KindUnion
	KindEnum      = types.KindEnum
	KindMarshaler = types.KindMarshaler
)

type CompiledType = types.CompiledType
type CompiledField = types.Field
type CompiledCase = types.Case

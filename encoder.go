package binserde

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/wippyai/binserde/errors"
)

func encodeCompiled(s Serializer, ct *CompiledType, v reflect.Value) error {
	switch ct.Kind {
	case KindBool:
		return WriteBool(s, v.Bool())
	case KindU8:
		return writeByte(s, byte(v.Uint()))
	case KindS8:
		return writeByte(s, byte(v.Int()))
	case KindU16, KindU32, KindU64:
		return writeUint(s, v.Uint(), ct.Kind.FixedSize())
	case KindS16, KindS32, KindS64:
		return writeInt(s, v.Int(), ct.Kind.FixedSize())
	case KindF32:
		return WriteFloat32(s, float32(v.Float()))
	case KindF64:
		return WriteFloat64(s, v.Float())
	case KindSize:
		return WriteSize(s, v.Uint())
	case KindString:
		return WriteString(s, v.String())
	case KindBytes:
		return WriteBytes(s, v.Bytes())
	case KindStruct:
		return encodeStruct(s, ct, v)
	case KindSlice:
		if err := WriteLen(s, v.Len()); err != nil {
			return err
		}
		return encodeElems(s, ct.Elem, v)
	case KindArray:
		return encodeElems(s, ct.Elem, v)
	case KindMap:
		return encodeMap(s, ct, v)
	case KindOption:
		if v.IsNil() {
			return writeByte(s, optionNone)
		}
		if err := writeByte(s, optionSome); err != nil {
			return err
		}
		return encodeCompiled(s, ct.Elem, v.Elem())
	case KindUnion:
		return encodeUnion(s, ct, v)
	case KindEnum:
		return encodeEnum(s, ct, v)
	case KindMarshaler:
		return encodeMarshaler(s, ct, v)
	default:
		return errors.Unsupported(errors.PhaseEncode, "kind "+ct.Kind.String())
	}
}

func encodeStruct(s Serializer, ct *CompiledType, v reflect.Value) error {
	for _, f := range ct.Fields {
		fs := s
		if f.NoDedup {
			fs = DisableDedup(s)
		}
		if err := encodeCompiled(fs, f.Type, v.Field(f.Index)); err != nil {
			return errors.WithPath(err, f.Name)
		}
	}
	return nil
}

func encodeElems(s Serializer, elem *CompiledType, v reflect.Value) error {
	n := v.Len()
	for i := 0; i < n; i++ {
		if err := encodeCompiled(s, elem, v.Index(i)); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
	}
	return nil
}

func encodeMap(s Serializer, ct *CompiledType, v reflect.Value) error {
	if err := WriteLen(s, v.Len()); err != nil {
		return err
	}
	keys := v.MapKeys()
	if ct.SortKeys {
		slices.SortFunc(keys, compareKeys)
	}
	for i, k := range keys {
		if err := encodeCompiled(s, ct.Key, k); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
		if err := encodeCompiled(s, ct.Elem, v.MapIndex(k)); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
	}
	return nil
}

func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0
		case b.Bool():
			return -1
		default:
			return 1
		}
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	default:
		return cmp.Compare(a.Uint(), b.Uint())
	}
}

func encodeUnion(s Serializer, ct *CompiledType, v reflect.Value) error {
	if v.IsNil() {
		return errors.NilPointer(errors.PhaseEncode, nil, ct.GoType.String())
	}
	dyn := v.Elem()
	idx, ok := ct.CaseByType[dyn.Type()]
	if !ok {
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			GoType(dyn.Type().String()).
			Detail("not a registered variant of %s", ct.GoType).
			Build()
	}
	cs := ct.Cases[idx]
	if cs.Pointer {
		if dyn.IsNil() {
			return errors.NilPointer(errors.PhaseEncode, nil, dyn.Type().String())
		}
		dyn = dyn.Elem()
	}
	if err := WriteSize(s, cs.Ordinal); err != nil {
		return err
	}
	return encodeCompiled(s, cs.Type, dyn)
}

func encodeEnum(s Serializer, ct *CompiledType, v reflect.Value) error {
	var ord uint64
	if v.CanInt() {
		x := v.Int()
		if x < 0 {
			return errors.InvalidDiscriminant(errors.PhaseEncode, nil, uint64(x), ct.Variants)
		}
		ord = uint64(x)
	} else {
		ord = v.Uint()
	}
	if ord >= uint64(ct.Variants) {
		return errors.InvalidDiscriminant(errors.PhaseEncode, nil, ord, ct.Variants)
	}
	return WriteSize(s, ord)
}

func encodeMarshaler(s Serializer, ct *CompiledType, v reflect.Value) error {
	if m, ok := v.Interface().(Marshaler); ok {
		return codecError(errors.PhaseEncode, m.MarshalBin(s))
	}
	if !reflect.PointerTo(ct.GoType).Implements(marshalerType) {
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			GoType(ct.GoType.String()).
			Detail("type implements Unmarshaler but not Marshaler").
			Build()
	}
	var p reflect.Value
	if v.CanAddr() {
		p = v.Addr()
	} else {
		p = reflect.New(ct.GoType)
		p.Elem().Set(v)
	}
	return codecError(errors.PhaseEncode, p.Interface().(Marshaler).MarshalBin(s))
}

package binserde

import (
	"reflect"

	"github.com/wippyai/binserde/errors"
)

// decodeCompiled decodes into v, which must be settable.
func decodeCompiled(d Deserializer, ct *CompiledType, v reflect.Value) error {
	switch ct.Kind {
	case KindBool:
		b, err := ReadBool(d)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case KindU8:
		b, err := readByte(d)
		if err != nil {
			return err
		}
		v.SetUint(uint64(b))
	case KindS8:
		b, err := readByte(d)
		if err != nil {
			return err
		}
		v.SetInt(int64(int8(b)))
	case KindU16, KindU32, KindU64:
		x, err := readUint(d, ct.Kind.FixedSize())
		if err != nil {
			return err
		}
		v.SetUint(x)
	case KindS16, KindS32, KindS64:
		x, err := readInt(d, ct.Kind.FixedSize())
		if err != nil {
			return err
		}
		if v.OverflowInt(x) {
			return errors.Overflow(errors.PhaseDecode, nil, x, ct.GoType.String())
		}
		v.SetInt(x)
	case KindF32:
		f, err := ReadFloat32(d)
		if err != nil {
			return err
		}
		v.SetFloat(float64(f))
	case KindF64:
		f, err := ReadFloat64(d)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case KindSize:
		x, err := ReadSize(d)
		if err != nil {
			return err
		}
		if v.OverflowUint(x) {
			return errors.Overflow(errors.PhaseDecode, nil, x, ct.GoType.String())
		}
		v.SetUint(x)
	case KindString:
		str, err := ReadString(d)
		if err != nil {
			return err
		}
		v.SetString(str)
	case KindBytes:
		b, err := readRaw(d, v.Bytes())
		if err != nil {
			return err
		}
		v.SetBytes(b)
	case KindStruct:
		return decodeStruct(d, ct, v)
	case KindSlice:
		return decodeSlice(d, ct, v)
	case KindArray:
		for i := 0; i < ct.Len; i++ {
			if err := decodeCompiled(d, ct.Elem, v.Index(i)); err != nil {
				return errors.WithPath(err, indexSeg(i))
			}
		}
	case KindMap:
		return decodeMap(d, ct, v)
	case KindOption:
		present, err := readOptionTag(d)
		if err != nil {
			return err
		}
		if !present {
			v.SetZero()
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(ct.GoType.Elem()))
		}
		return decodeCompiled(d, ct.Elem, v.Elem())
	case KindUnion:
		return decodeUnion(d, ct, v)
	case KindEnum:
		return decodeEnum(d, ct, v)
	case KindMarshaler:
		return decodeMarshaler(d, ct, v)
	default:
		return errors.Unsupported(errors.PhaseDecode, "kind "+ct.Kind.String())
	}
	return nil
}

func decodeStruct(d Deserializer, ct *CompiledType, v reflect.Value) error {
	for _, i := range ct.Skipped {
		resetField(v.Field(i))
	}
	for _, f := range ct.Fields {
		fd := d
		if f.NoDedup {
			fd = DisableDecodeDedup(d)
		}
		if err := decodeCompiled(fd, f.Type, v.Field(f.Index)); err != nil {
			return errors.WithPath(err, f.Name)
		}
	}
	return nil
}

func resetField(fv reflect.Value) {
	fv.SetZero()
	if !fv.CanAddr() {
		return
	}
	if df, ok := fv.Addr().Interface().(Defaulter); ok {
		df.SetDefaults()
	}
}

// decodeSlice refills v in place. Elements within the existing capacity are
// decoded over, so their own buffers are reused too.
func decodeSlice(d Deserializer, ct *CompiledType, v reflect.Value) error {
	n, err := ReadLen(d)
	if err != nil {
		return err
	}
	v.SetLen(min(n, v.Cap()))
	for i := 0; i < n; i++ {
		if i == v.Len() {
			if i == v.Cap() {
				v.Grow(capHint(n - i))
			}
			v.SetLen(i + 1)
		}
		if err := decodeCompiled(d, ct.Elem, v.Index(i)); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
	}
	return nil
}

func decodeMap(d Deserializer, ct *CompiledType, v reflect.Value) error {
	n, err := ReadLen(d)
	if err != nil {
		return err
	}
	if v.IsNil() {
		v.Set(reflect.MakeMapWithSize(ct.GoType, capHint(n)))
	} else {
		v.Clear()
	}
	keyType, elemType := ct.GoType.Key(), ct.GoType.Elem()
	for i := 0; i < n; i++ {
		k := reflect.New(keyType).Elem()
		if err := decodeCompiled(d, ct.Key, k); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
		e := reflect.New(elemType).Elem()
		if err := decodeCompiled(d, ct.Elem, e); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
		v.SetMapIndex(k, e)
	}
	return nil
}

func decodeUnion(d Deserializer, ct *CompiledType, v reflect.Value) error {
	if len(ct.Cases) == 0 {
		return errors.EmptyVariant(nil, ct.GoType.String())
	}
	ord, err := ReadSize(d)
	if err != nil {
		return err
	}
	idx, ok := ct.CaseByOrd[ord]
	if !ok {
		return errors.InvalidDiscriminant(errors.PhaseDecode, nil, ord, len(ct.Cases))
	}
	cs := ct.Cases[idx]

	if !cs.Pointer {
		nv := reflect.New(cs.GoType).Elem()
		if err := decodeCompiled(d, cs.Type, nv); err != nil {
			return err
		}
		v.Set(nv)
		return nil
	}

	// Decode into the variant already held when it has the same type.
	var p reflect.Value
	if !v.IsNil() && v.Elem().Type() == cs.GoType && !v.Elem().IsNil() {
		p = v.Elem()
	} else {
		p = reflect.New(cs.GoType.Elem())
	}
	if err := decodeCompiled(d, cs.Type, p.Elem()); err != nil {
		return err
	}
	v.Set(p)
	return nil
}

func decodeEnum(d Deserializer, ct *CompiledType, v reflect.Value) error {
	if ct.Variants == 0 {
		return errors.EmptyVariant(nil, ct.GoType.String())
	}
	ord, err := ReadSize(d)
	if err != nil {
		return err
	}
	if ord >= uint64(ct.Variants) {
		return errors.InvalidDiscriminant(errors.PhaseDecode, nil, ord, ct.Variants)
	}
	if v.CanInt() {
		if v.OverflowInt(int64(ord)) {
			return errors.Overflow(errors.PhaseDecode, nil, ord, ct.GoType.String())
		}
		v.SetInt(int64(ord))
		return nil
	}
	if v.OverflowUint(ord) {
		return errors.Overflow(errors.PhaseDecode, nil, ord, ct.GoType.String())
	}
	v.SetUint(ord)
	return nil
}

func decodeMarshaler(d Deserializer, ct *CompiledType, v reflect.Value) error {
	if !v.CanAddr() {
		return errors.New(errors.PhaseDecode, errors.KindUnsupported).
			GoType(ct.GoType.String()).
			Detail("value is not addressable").
			Build()
	}
	u, ok := v.Addr().Interface().(Unmarshaler)
	if !ok {
		return errors.New(errors.PhaseDecode, errors.KindUnsupported).
			GoType(ct.GoType.String()).
			Detail("type implements Marshaler but not Unmarshaler").
			Build()
	}
	return codecError(errors.PhaseDecode, u.UnmarshalBin(d))
}

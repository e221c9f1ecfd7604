package binserde

import (
	"cmp"
	"iter"
	"maps"
	"reflect"
	"slices"

	"github.com/wippyai/binserde/errors"
)

const (
	optionNone byte = 0
	optionSome byte = 1

	resultOk  byte = 0
	resultErr byte = 1
)

// WriteSlice writes the element count followed by each element.
func WriteSlice[E any](s Serializer, v []E, enc func(Serializer, E) error) error {
	if err := WriteLen(s, len(v)); err != nil {
		return err
	}
	return writeElems(s, v, enc)
}

// ReadSlice reads a slice written by WriteSlice.
func ReadSlice[E any](d Deserializer, dec func(Deserializer) (E, error)) ([]E, error) {
	var out []E
	if err := ReadSliceInto(d, &out, dec); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadSliceInto truncates *dst and refills it, reusing its capacity.
func ReadSliceInto[E any](d Deserializer, dst *[]E, dec func(Deserializer) (E, error)) error {
	n, err := ReadLen(d)
	if err != nil {
		return err
	}
	out := (*dst)[:0]
	if cap(out) == 0 && n > 0 {
		out = make([]E, 0, capHint(n))
	}
	for i := 0; i < n; i++ {
		e, err := dec(d)
		if err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
		out = append(out, e)
	}
	*dst = out
	return nil
}

// WriteSeq writes a sequence of unknown length. The elements are collected
// first since the count precedes them.
func WriteSeq[E any](s Serializer, seq iter.Seq[E], enc func(Serializer, E) error) error {
	return WriteSlice(s, slices.Collect(seq), enc)
}

// WriteArray writes exactly len(v) elements with no count prefix.
func WriteArray[E any](s Serializer, v []E, enc func(Serializer, E) error) error {
	return writeElems(s, v, enc)
}

// ReadArray fills every element of dst. The length is not read from the
// stream.
func ReadArray[E any](d Deserializer, dst []E, dec func(Deserializer) (E, error)) error {
	for i := range dst {
		e, err := dec(d)
		if err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
		dst[i] = e
	}
	return nil
}

func writeElems[E any](s Serializer, v []E, enc func(Serializer, E) error) error {
	for i := range v {
		if err := enc(s, v[i]); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
	}
	return nil
}

// WriteMap writes the entry count then each key and value, in ascending key
// order.
func WriteMap[K cmp.Ordered, V any](s Serializer, m map[K]V, encK func(Serializer, K) error, encV func(Serializer, V) error) error {
	if err := WriteLen(s, len(m)); err != nil {
		return err
	}
	keys := slices.Sorted(maps.Keys(m))
	for i, k := range keys {
		if err := encK(s, k); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
		if err := encV(s, m[k]); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
	}
	return nil
}

// ReadMap reads a map written by WriteMap.
func ReadMap[K comparable, V any](d Deserializer, decK func(Deserializer) (K, error), decV func(Deserializer) (V, error)) (map[K]V, error) {
	m := make(map[K]V)
	if err := ReadMapInto(d, m, decK, decV); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadMapInto clears dst and refills it from the stream. dst must not be
// nil.
func ReadMapInto[K comparable, V any](d Deserializer, dst map[K]V, decK func(Deserializer) (K, error), decV func(Deserializer) (V, error)) error {
	n, err := ReadLen(d)
	if err != nil {
		return err
	}
	clear(dst)
	for i := 0; i < n; i++ {
		k, err := decK(d)
		if err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
		v, err := decV(d)
		if err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
		dst[k] = v
	}
	return nil
}

// WriteSet writes the members of set in ascending order.
func WriteSet[K cmp.Ordered](s Serializer, set map[K]struct{}, enc func(Serializer, K) error) error {
	return WriteSlice(s, slices.Sorted(maps.Keys(set)), enc)
}

func ReadSet[K comparable](d Deserializer, dec func(Deserializer) (K, error)) (map[K]struct{}, error) {
	n, err := ReadLen(d)
	if err != nil {
		return nil, err
	}
	set := make(map[K]struct{}, capHint(n))
	for i := 0; i < n; i++ {
		k, err := dec(d)
		if err != nil {
			return nil, errors.WithPath(err, indexSeg(i))
		}
		set[k] = struct{}{}
	}
	return set, nil
}

// WriteOption writes 0 for nil, or 1 followed by *v.
func WriteOption[T any](s Serializer, v *T, enc func(Serializer, T) error) error {
	if v == nil {
		return writeByte(s, optionNone)
	}
	if err := writeByte(s, optionSome); err != nil {
		return err
	}
	return enc(s, *v)
}

func ReadOption[T any](d Deserializer, dec func(Deserializer) (T, error)) (*T, error) {
	present, err := readOptionTag(d)
	if err != nil || !present {
		return nil, err
	}
	v, err := dec(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func readOptionTag(d Deserializer) (bool, error) {
	b, err := readByte(d)
	if err != nil {
		return false, err
	}
	switch b {
	case optionNone:
		return false, nil
	case optionSome:
		return true, nil
	}
	return false, errors.InvalidDiscriminant(errors.PhaseDecode, nil, uint64(b), 2)
}

// Result holds either a value or an error payload. Both sides are encoded
// with the reflection codec; use WriteResult for hand-written element
// codecs.
type Result[T, E any] struct {
	Value T
	Err   E
	IsErr bool
}

func Ok[T, E any](v T) Result[T, E] {
	return Result[T, E]{Value: v}
}

func Err[T, E any](e E) Result[T, E] {
	return Result[T, E]{Err: e, IsErr: true}
}

// MarshalBin implements Marshaler.
func (r Result[T, E]) MarshalBin(s Serializer) error {
	if r.IsErr {
		if err := writeByte(s, resultErr); err != nil {
			return err
		}
		return errors.WithPath(encodeValue(s, reflect.ValueOf(&r.Err).Elem()), "err")
	}
	if err := writeByte(s, resultOk); err != nil {
		return err
	}
	return errors.WithPath(encodeValue(s, reflect.ValueOf(&r.Value).Elem()), "ok")
}

// UnmarshalBin implements Unmarshaler. The side not present in the stream
// is reset to its zero value.
func (r *Result[T, E]) UnmarshalBin(d Deserializer) error {
	isErr, err := readResultTag(d)
	if err != nil {
		return err
	}
	r.IsErr = isErr
	if isErr {
		var zero T
		r.Value = zero
		return errors.WithPath(decodeValue(d, reflect.ValueOf(&r.Err).Elem()), "err")
	}
	var zero E
	r.Err = zero
	return errors.WithPath(decodeValue(d, reflect.ValueOf(&r.Value).Elem()), "ok")
}

// WriteResult writes r with explicit codecs for both sides.
func WriteResult[T, E any](s Serializer, r Result[T, E], encT func(Serializer, T) error, encE func(Serializer, E) error) error {
	if r.IsErr {
		if err := writeByte(s, resultErr); err != nil {
			return err
		}
		return encE(s, r.Err)
	}
	if err := writeByte(s, resultOk); err != nil {
		return err
	}
	return encT(s, r.Value)
}

func ReadResult[T, E any](d Deserializer, decT func(Deserializer) (T, error), decE func(Deserializer) (E, error)) (Result[T, E], error) {
	isErr, err := readResultTag(d)
	if err != nil {
		return Result[T, E]{}, err
	}
	if isErr {
		e, err := decE(d)
		if err != nil {
			return Result[T, E]{}, err
		}
		return Err[T](e), nil
	}
	v, err := decT(d)
	if err != nil {
		return Result[T, E]{}, err
	}
	return Ok[T, E](v), nil
}

func readResultTag(d Deserializer) (bool, error) {
	b, err := readByte(d)
	if err != nil {
		return false, err
	}
	switch b {
	case resultOk:
		return false, nil
	case resultErr:
		return true, nil
	}
	return false, errors.InvalidDiscriminant(errors.PhaseDecode, nil, uint64(b), 2)
}

// WriteVariant writes a sum type discriminant as a size value.
func WriteVariant(s Serializer, ordinal int) error {
	if ordinal < 0 {
		return errors.InvalidDiscriminant(errors.PhaseEncode, nil, uint64(ordinal), 0)
	}
	return WriteSize(s, uint64(ordinal))
}

// ReadVariant reads a discriminant and checks it against count. A type with
// no variants fails without consuming input.
func ReadVariant(d Deserializer, count int) (int, error) {
	if count <= 0 {
		return 0, errors.EmptyVariant(nil, "")
	}
	v, err := ReadSize(d)
	if err != nil {
		return 0, err
	}
	if v >= uint64(count) {
		return 0, errors.InvalidDiscriminant(errors.PhaseDecode, nil, v, count)
	}
	return int(v), nil
}

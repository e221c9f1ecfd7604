package binserde

import (
	"reflect"
	"sync"

	"github.com/wippyai/binserde/errors"
	"go.uber.org/zap"
)

type unionDef struct {
	iface    reflect.Type
	types    []reflect.Type
	ordinals []uint64
}

var unions sync.Map // reflect.Type -> *unionDef

type atVariant struct {
	value   any
	ordinal int
}

// At assigns an explicit ordinal to a variant passed to RegisterUnion.
func At(ordinal int, v any) any {
	return atVariant{value: v, ordinal: ordinal}
}

// RegisterUnion declares the interface type I as a sum type whose variants
// are the dynamic types of the given values. Variant ordinals follow
// argument order unless set with At. Pointer variants encode the value they
// point to. An interface registered with no variants is valid but can never
// be decoded.
//
// Registration must happen before the first encode or decode that reaches
// I, typically from an init function.
func RegisterUnion[I any](variants ...any) error {
	iface := reflect.TypeFor[I]()
	if iface.Kind() != reflect.Interface {
		return errors.TypeMismatch(errors.PhaseCompile, nil, iface.String(), "interface type")
	}

	def := &unionDef{iface: iface}
	seenType := make(map[reflect.Type]bool, len(variants))
	seenOrd := make(map[uint64]bool, len(variants))

	for i, v := range variants {
		ord := i
		if a, ok := v.(atVariant); ok {
			ord = a.ordinal
			v = a.value
		}
		if ord < 0 {
			return errors.New(errors.PhaseCompile, errors.KindInvalidData).
				GoType(iface.String()).
				Detail("negative ordinal %d", ord).
				Build()
		}
		if v == nil {
			return errors.NilPointer(errors.PhaseCompile, []string{indexSeg(i)}, iface.String())
		}

		t := reflect.TypeOf(v)
		if !t.Implements(iface) {
			return errors.TypeMismatch(errors.PhaseCompile, []string{indexSeg(i)}, t.String(), "implementation of "+iface.String())
		}
		if seenType[t] {
			return errors.New(errors.PhaseCompile, errors.KindInvalidData).
				GoType(iface.String()).
				Detail("variant %s registered twice", t).
				Build()
		}
		if seenOrd[uint64(ord)] {
			return errors.New(errors.PhaseCompile, errors.KindInvalidData).
				GoType(iface.String()).
				Detail("duplicate ordinal %d", ord).
				Build()
		}
		seenType[t] = true
		seenOrd[uint64(ord)] = true
		def.types = append(def.types, t)
		def.ordinals = append(def.ordinals, uint64(ord))
	}

	if _, loaded := unions.LoadOrStore(iface, def); loaded {
		return errors.New(errors.PhaseCompile, errors.KindInvalidData).
			GoType(iface.String()).
			Detail("union already registered").
			Build()
	}
	Logger().Debug("union registered",
		zap.String("type", iface.String()),
		zap.Int("variants", len(def.types)))
	return nil
}

// MustRegisterUnion is like RegisterUnion but panics on error.
func MustRegisterUnion[I any](variants ...any) {
	if err := RegisterUnion[I](variants...); err != nil {
		panic(err)
	}
}

func lookupUnion(iface reflect.Type) (*unionDef, bool) {
	v, ok := unions.Load(iface)
	if !ok {
		return nil, false
	}
	return v.(*unionDef), true
}

package binserde

import (
	"reflect"
	"slices"
	"strconv"
	"sync"

	"github.com/wippyai/binserde/errors"
	"github.com/wippyai/binserde/internal/types"
)

// Compiler builds and caches codec plans for Go types. It is safe for
// concurrent use.
type Compiler struct {
	cache sync.Map // reflect.Type -> *CompiledType
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

var defaultCompiler = NewCompiler()

// CompileType returns the plan for goType from the package-wide cache.
// Unsupported types (channels, functions, complex numbers, unregistered
// interfaces) are reported here rather than on first use.
func CompileType(goType reflect.Type) (*CompiledType, error) {
	return defaultCompiler.Compile(goType)
}

func (c *Compiler) Compile(goType reflect.Type) (*CompiledType, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}

	// Plans of a recursive type point at each other; none is published
	// until the whole group compiled.
	pending := make(map[reflect.Type]*CompiledType)
	ct, err := c.compile(goType, nil, pending)
	if err != nil {
		return nil, err
	}
	for t, p := range pending {
		c.cache.LoadOrStore(t, p)
	}
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}
	return ct, nil
}

func (c *Compiler) compile(goType reflect.Type, path []string, pending map[reflect.Type]*CompiledType) (*CompiledType, error) {
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}
	if ct, ok := pending[goType]; ok {
		return ct, nil
	}

	ct := &CompiledType{GoType: goType}
	pending[goType] = ct

	var err error
	switch {
	case goType.Kind() != reflect.Pointer && goType.Kind() != reflect.Interface && isMarshaler(goType):
		ct.Kind = KindMarshaler
	case goType.Implements(enumType) && isInteger(goType.Kind()):
		err = c.compileEnum(ct, path)
	default:
		err = c.compileKind(ct, path, pending)
	}
	if err != nil {
		delete(pending, goType)
		return nil, err
	}
	return ct, nil
}

func isMarshaler(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return t.Implements(marshalerType) || pt.Implements(marshalerType) || pt.Implements(unmarshalerType)
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func (c *Compiler) compileKind(ct *CompiledType, path []string, pending map[reflect.Type]*CompiledType) error {
	goType := ct.GoType
	switch goType.Kind() {
	case reflect.Bool:
		ct.Kind = KindBool
	case reflect.Uint8:
		ct.Kind = KindU8
	case reflect.Int8:
		ct.Kind = KindS8
	case reflect.Uint16:
		ct.Kind = KindU16
	case reflect.Int16:
		ct.Kind = KindS16
	case reflect.Uint32:
		ct.Kind = KindU32
	case reflect.Int32:
		ct.Kind = KindS32
	case reflect.Uint64:
		ct.Kind = KindU64
	case reflect.Int64, reflect.Int:
		ct.Kind = KindS64
	case reflect.Uint, reflect.Uintptr:
		ct.Kind = KindSize
	case reflect.Float32:
		ct.Kind = KindF32
	case reflect.Float64:
		ct.Kind = KindF64
	case reflect.String:
		ct.Kind = KindString
	case reflect.Slice:
		return c.compileSlice(ct, path, pending)
	case reflect.Array:
		ct.Kind = KindArray
		ct.Len = goType.Len()
		return c.compileElem(ct, path, pending)
	case reflect.Map:
		return c.compileMap(ct, path, pending)
	case reflect.Pointer:
		ct.Kind = KindOption
		return c.compileElem(ct, path, pending)
	case reflect.Struct:
		return c.compileStruct(ct, path, pending)
	case reflect.Interface:
		return c.compileUnion(ct, path, pending)
	default:
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			GoType(goType.String()).
			Detail("%s values cannot be encoded", goType.Kind()).
			Build()
	}
	return nil
}

func (c *Compiler) compileElem(ct *CompiledType, path []string, pending map[reflect.Type]*CompiledType) error {
	elemPath := append(append([]string{}, path...), "[elem]")
	elem, err := c.compile(ct.GoType.Elem(), elemPath, pending)
	if err != nil {
		return err
	}
	ct.Elem = elem
	return nil
}

func (c *Compiler) compileSlice(ct *CompiledType, path []string, pending map[reflect.Type]*CompiledType) error {
	elemType := ct.GoType.Elem()
	if elemType.Kind() == reflect.Uint8 && !isMarshaler(elemType) && !elemType.Implements(enumType) {
		ct.Kind = KindBytes
		return nil
	}
	ct.Kind = KindSlice
	return c.compileElem(ct, path, pending)
}

func (c *Compiler) compileMap(ct *CompiledType, path []string, pending map[reflect.Type]*CompiledType) error {
	ct.Kind = KindMap
	keyPath := append(append([]string{}, path...), "[key]")
	key, err := c.compile(ct.GoType.Key(), keyPath, pending)
	if err != nil {
		return err
	}
	ct.Key = key
	ct.SortKeys = isOrderedKey(ct.GoType.Key().Kind())
	return c.compileElem(ct, path, pending)
}

func isOrderedKey(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool, reflect.Float32, reflect.Float64:
		return true
	}
	return isInteger(k)
}

func (c *Compiler) compileEnum(ct *CompiledType, path []string) error {
	n := reflect.Zero(ct.GoType).Interface().(Enum).NumVariants()
	if n < 0 {
		return errors.New(errors.PhaseCompile, errors.KindInvalidData).
			Path(path...).
			GoType(ct.GoType.String()).
			Detail("negative variant count %d", n).
			Build()
	}
	ct.Kind = KindEnum
	ct.Variants = n
	return nil
}

func (c *Compiler) compileStruct(ct *CompiledType, path []string, pending map[reflect.Type]*CompiledType) error {
	goType := ct.GoType
	ct.Kind = KindStruct
	fields := make([]CompiledField, 0, goType.NumField())
	explicit := false

	for i := 0; i < goType.NumField(); i++ {
		f := goType.Field(i)
		if !f.IsExported() {
			continue
		}
		fieldPath := append(append([]string{}, path...), f.Name)

		tag, err := types.ParseTag(f.Tag.Get(types.TagName))
		if err != nil {
			return errors.New(errors.PhaseCompile, errors.KindInvalidData).
				Path(fieldPath...).
				GoType(goType.String()).
				Detail("bad %s tag: %v", types.TagName, err).
				Build()
		}
		if tag.Skip {
			ct.Skipped = append(ct.Skipped, i)
			continue
		}

		fieldType, err := c.compile(f.Type, fieldPath, pending)
		if err != nil {
			return err
		}

		ordinal := i
		if tag.HasIndex {
			ordinal = tag.Index
			explicit = true
		}
		fields = append(fields, CompiledField{
			Type:    fieldType,
			Name:    f.Name,
			Index:   i,
			Ordinal: ordinal,
			NoDedup: tag.NoDedup,
		})
	}

	if explicit {
		slices.SortStableFunc(fields, func(a, b CompiledField) int {
			return a.Ordinal - b.Ordinal
		})
		for i := 1; i < len(fields); i++ {
			if fields[i].Ordinal == fields[i-1].Ordinal {
				return errors.New(errors.PhaseCompile, errors.KindInvalidData).
					Path(path...).
					GoType(goType.String()).
					Detail("fields %s and %s share ordinal %d", fields[i-1].Name, fields[i].Name, fields[i].Ordinal).
					Build()
			}
		}
	}
	ct.Fields = fields
	return nil
}

func (c *Compiler) compileUnion(ct *CompiledType, path []string, pending map[reflect.Type]*CompiledType) error {
	def, ok := lookupUnion(ct.GoType)
	if !ok {
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			GoType(ct.GoType.String()).
			Detail("interface is not a registered union").
			Build()
	}

	ct.Kind = KindUnion
	ct.Cases = make([]CompiledCase, len(def.types))
	ct.CaseByType = make(map[reflect.Type]int, len(def.types))
	ct.CaseByOrd = make(map[uint64]int, len(def.types))

	for i, t := range def.types {
		cs := CompiledCase{GoType: t, Ordinal: def.ordinals[i]}
		payload := t
		if t.Kind() == reflect.Pointer {
			cs.Pointer = true
			payload = t.Elem()
		}
		casePath := append(append([]string{}, path...), "["+strconv.FormatUint(cs.Ordinal, 10)+"]")
		caseType, err := c.compile(payload, casePath, pending)
		if err != nil {
			return err
		}
		cs.Type = caseType
		ct.Cases[i] = cs
		ct.CaseByType[t] = i
		ct.CaseByOrd[cs.Ordinal] = i
	}
	return nil
}

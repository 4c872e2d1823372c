package introspect

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/word"
)

var primitiveTypes = map[reflect.Type]schema.Primitive{
	reflect.TypeOf(word.Word{}):       schema.Felt252,
	reflect.TypeOf(word.ClassHash{}):  schema.ClassHash,
	reflect.TypeOf(word.Address{}):    schema.ContractAddress,
	reflect.TypeOf(word.EthAddress{}): schema.EthAddress,
	reflect.TypeOf(word.U128{}):       schema.U128,
	reflect.TypeOf(word.I128{}):       schema.I128,
	reflect.TypeOf(word.U256{}):       schema.U256,
}

// PrimitiveOf returns the primitive a Go type maps to, if any.
func PrimitiveOf(t reflect.Type) (schema.Primitive, bool) {
	if p, ok := primitiveTypes[t]; ok {
		return p, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return schema.Bool, true
	case reflect.Uint8:
		return schema.U8, true
	case reflect.Uint16:
		return schema.U16, true
	case reflect.Uint32:
		return schema.U32, true
	case reflect.Uint64, reflect.Uint:
		return schema.U64, true
	case reflect.Int8:
		return schema.I8, true
	case reflect.Int16:
		return schema.I16, true
	case reflect.Int32:
		return schema.I32, true
	case reflect.Int64, reflect.Int:
		return schema.I64, true
	}
	return 0, false
}

var bytesType = reflect.TypeOf([]byte(nil))

// Compiler derives descriptors from Go types and caches them per type.
// Returned descriptors are shared and must not be modified.
type Compiler struct {
	cache sync.Map // reflect.Type -> *schema.Ty
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

var defaultCompiler = NewCompiler()

func (c *Compiler) Descriptor(goType reflect.Type) (*schema.Ty, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseIntrospect, errors.KindInvalidInput).
			Detail("Go type cannot be nil").
			Build()
	}

	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*schema.Ty), nil
	}

	ty, err := c.compile(goType, nil, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}

	c.cache.Store(goType, ty)
	return ty, nil
}

func (c *Compiler) compile(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*schema.Ty, error) {
	if p, ok := PrimitiveOf(goType); ok {
		return schema.Prim(p), nil
	}
	if goType == bytesType {
		return schema.ByteArray(), nil
	}

	switch goType.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array:
		// Named composites can refer to themselves (type L []L).
		if goType.Name() != "" {
			visiting[goType] = true
			defer delete(visiting, goType)
		}
	}

	switch goType.Kind() {
	case reflect.String:
		return schema.ByteArray(), nil
	case reflect.Ptr:
		elemPath := append(append([]string{}, path...), "[some]")
		inner, err := c.compileNested(goType.Elem(), elemPath, visiting)
		if err != nil {
			return nil, err
		}
		return schema.Option(inner), nil
	case reflect.Slice:
		elemPath := append(append([]string{}, path...), "[elem]")
		elem, err := c.compileNested(goType.Elem(), elemPath, visiting)
		if err != nil {
			return nil, err
		}
		return schema.Array(elem), nil
	case reflect.Array:
		items := make([]*schema.Ty, goType.Len())
		for i := range items {
			itemPath := append(append([]string{}, path...), "["+strconv.Itoa(i)+"]")
			item, err := c.compileNested(goType.Elem(), itemPath, visiting)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return schema.Tuple(items...), nil
	case reflect.Struct:
		return c.compileStruct(goType, path, visiting)
	default:
		return nil, errors.New(errors.PhaseIntrospect, errors.KindUnsupported).
			Path(path...).
			GoType(goType.String()).
			Detail("no storage mapping for kind %s", goType.Kind()).
			Build()
	}
}

// compileNested guards against directly recursive shapes.
func (c *Compiler) compileNested(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*schema.Ty, error) {
	if visiting[goType] {
		return nil, errors.New(errors.PhaseIntrospect, errors.KindInvalidLayout).
			Path(path...).
			GoType(goType.String()).
			Detail("recursive type").
			Build()
	}
	return c.compile(goType, path, visiting)
}

func (c *Compiler) compileStruct(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*schema.Ty, error) {
	visiting[goType] = true
	defer delete(visiting, goType)

	switch {
	case IsVariantStruct(goType):
		return c.compileVariant(goType, path, visiting)
	case IsTupleStruct(goType):
		return c.compileTuple(goType, path, visiting)
	}

	fields := DataFields(goType)
	members := make([]schema.Member, 0, len(fields))
	for _, f := range fields {
		name := FieldName(f)
		fieldPath := append(append([]string{}, path...), name)
		ty, err := c.compileNested(f.Type, fieldPath, visiting)
		if err != nil {
			return nil, err
		}
		members = append(members, schema.Member{
			Name: name,
			Key:  ParseTag(f).Key,
			Ty:   ty,
		})
	}

	return schema.Struct(goType.Name(), members...), nil
}

func (c *Compiler) compileTuple(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*schema.Ty, error) {
	fields := DataFields(goType)
	items := make([]*schema.Ty, 0, len(fields))
	for i, f := range fields {
		itemPath := append(append([]string{}, path...), "["+strconv.Itoa(i)+"]")
		ty, err := c.compileNested(f.Type, itemPath, visiting)
		if err != nil {
			return nil, err
		}
		items = append(items, ty)
	}
	return schema.Tuple(items...), nil
}

func (c *Compiler) compileVariant(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*schema.Ty, error) {
	fields := DataFields(goType)
	if len(fields) > schema.MaxVariants {
		return nil, errors.New(errors.PhaseIntrospect, errors.KindInvalidLayout).
			Path(path...).
			GoType(goType.String()).
			Detail("%d variants exceed %d", len(fields), schema.MaxVariants).
			Build()
	}

	variants := make([]schema.Variant, 0, len(fields))
	for _, f := range fields {
		name := FieldName(f)
		casePath := append(append([]string{}, path...), name)
		if f.Type.Kind() != reflect.Ptr {
			return nil, errors.TypeMismatch(errors.PhaseIntrospect, casePath, f.Type.String(), "pointer")
		}

		elem := f.Type.Elem()
		if elem.Kind() == reflect.Struct && elem.NumField() == 0 {
			variants = append(variants, schema.Case(name, nil))
			continue
		}

		ty, err := c.compileNested(elem, casePath, visiting)
		if err != nil {
			return nil, err
		}
		variants = append(variants, schema.Case(name, ty))
	}

	return schema.Enum(goType.Name(), variants...), nil
}

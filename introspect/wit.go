package introspect

import (
	"strconv"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
)

// FromWIT derives a descriptor from a WIT type so component interfaces can be
// registered as resources. Floats, flags and handles have no storage mapping.
func FromWIT(t wit.Type) (*schema.Ty, error) {
	return fromWIT(t, nil, map[*wit.TypeDef]bool{})
}

func fromWIT(t wit.Type, path []string, visiting map[*wit.TypeDef]bool) (*schema.Ty, error) {
	switch typ := t.(type) {
	case wit.Bool:
		return schema.Prim(schema.Bool), nil
	case wit.U8:
		return schema.Prim(schema.U8), nil
	case wit.S8:
		return schema.Prim(schema.I8), nil
	case wit.U16:
		return schema.Prim(schema.U16), nil
	case wit.S16:
		return schema.Prim(schema.I16), nil
	case wit.U32:
		return schema.Prim(schema.U32), nil
	case wit.S32:
		return schema.Prim(schema.I32), nil
	case wit.U64:
		return schema.Prim(schema.U64), nil
	case wit.S64:
		return schema.Prim(schema.I64), nil
	case wit.Char:
		return schema.Prim(schema.U32), nil
	case wit.String:
		return schema.ByteArray(), nil
	case *wit.TypeDef:
		if visiting[typ] {
			return nil, errors.InvalidLayout(errors.PhaseIntrospect, path, "recursive WIT type")
		}
		visiting[typ] = true
		defer delete(visiting, typ)
		return fromWITTypeDef(typ, path, visiting)
	default:
		return nil, errors.New(errors.PhaseIntrospect, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported WIT type: %T", t).
			Build()
	}
}

func fromWITTypeDef(t *wit.TypeDef, path []string, visiting map[*wit.TypeDef]bool) (*schema.Ty, error) {
	name := ""
	if t.Name != nil {
		name = *t.Name
	}

	switch kind := t.Kind.(type) {
	case *wit.Record:
		members := make([]schema.Member, 0, len(kind.Fields))
		for _, f := range kind.Fields {
			ty, err := fromWIT(f.Type, append(append([]string{}, path...), f.Name), visiting)
			if err != nil {
				return nil, err
			}
			members = append(members, schema.Field(f.Name, ty))
		}
		return schema.Struct(name, members...), nil

	case *wit.Variant:
		variants := make([]schema.Variant, 0, len(kind.Cases))
		for _, c := range kind.Cases {
			var payload *schema.Ty
			if c.Type != nil {
				var err error
				payload, err = fromWIT(c.Type, append(append([]string{}, path...), c.Name), visiting)
				if err != nil {
					return nil, err
				}
			}
			variants = append(variants, schema.Case(c.Name, payload))
		}
		return schema.Enum(name, variants...), nil

	case *wit.Enum:
		variants := make([]schema.Variant, 0, len(kind.Cases))
		for _, c := range kind.Cases {
			variants = append(variants, schema.Case(c.Name, nil))
		}
		return schema.Enum(name, variants...), nil

	case *wit.Tuple:
		items := make([]*schema.Ty, 0, len(kind.Types))
		for i, it := range kind.Types {
			ty, err := fromWIT(it, append(append([]string{}, path...), "["+strconv.Itoa(i)+"]"), visiting)
			if err != nil {
				return nil, err
			}
			items = append(items, ty)
		}
		return schema.Tuple(items...), nil

	case *wit.List:
		elem, err := fromWIT(kind.Type, append(append([]string{}, path...), "[elem]"), visiting)
		if err != nil {
			return nil, err
		}
		return schema.Array(elem), nil

	case *wit.Option:
		inner, err := fromWIT(kind.Type, append(append([]string{}, path...), "[some]"), visiting)
		if err != nil {
			return nil, err
		}
		return schema.Option(inner), nil

	case *wit.Result:
		var ok, fail *schema.Ty
		var err error
		if kind.OK != nil {
			if ok, err = fromWIT(kind.OK, append(append([]string{}, path...), "[ok]"), visiting); err != nil {
				return nil, err
			}
		}
		if kind.Err != nil {
			if fail, err = fromWIT(kind.Err, append(append([]string{}, path...), "[err]"), visiting); err != nil {
				return nil, err
			}
		}
		return schema.Enum("Result", schema.Case("Ok", ok), schema.Case("Err", fail)), nil

	case wit.Type:
		return fromWIT(kind, path, visiting)

	default:
		return nil, errors.New(errors.PhaseIntrospect, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported WIT type kind: %T", kind).
			Build()
	}
}

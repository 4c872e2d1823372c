package introspect

import (
	"reflect"
	"strconv"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/word"
)

// Layout derives the storage layout of a descriptor. Struct key members are
// excluded; they form the entity identifier instead.
func Layout(ty *schema.Ty, enc schema.Encoding) (*schema.Layout, error) {
	l, err := layoutOf(ty, enc, nil)
	if err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func layoutOf(ty *schema.Ty, enc schema.Encoding, path []string) (*schema.Layout, error) {
	if ty == nil {
		return nil, errors.InvalidLayout(errors.PhaseLayout, path, "nil descriptor")
	}

	switch ty.Kind {
	case schema.KindPrimitive:
		if !ty.Primitive.Valid() {
			return nil, errors.InvalidLayout(errors.PhaseLayout, path, "unknown primitive "+strconv.Itoa(int(ty.Primitive)))
		}
		return schema.Fixed(ty.Primitive.Widths()...), nil

	case schema.KindStruct:
		values := ty.Values()
		fields := make([]schema.FieldLayout, 0, len(values))
		for _, m := range values {
			l, err := layoutOf(m.Ty, enc, append(append([]string{}, path...), m.Name))
			if err != nil {
				return nil, err
			}
			fields = append(fields, schema.FieldLayout{Selector: selector.Member(m.Name), Layout: l})
		}
		return schema.StructLayout(fields...), nil

	case schema.KindEnum:
		if len(ty.Variants) > schema.MaxVariants {
			return nil, errors.InvalidLayout(errors.PhaseLayout, path,
				strconv.Itoa(len(ty.Variants))+" variants exceed "+strconv.Itoa(schema.MaxVariants))
		}
		fields := make([]schema.FieldLayout, 0, len(ty.Variants))
		for i, v := range ty.Variants {
			var l *schema.Layout
			if v.Ty == nil || v.Ty.IsUnit() {
				l = schema.Fixed()
			} else {
				var err error
				l, err = layoutOf(v.Ty, enc, append(append([]string{}, path...), v.Name))
				if err != nil {
					return nil, err
				}
			}
			fields = append(fields, schema.FieldLayout{Selector: enc.VariantSelector(i), Layout: l})
		}
		return schema.EnumLayout(fields...), nil

	case schema.KindTuple:
		items := make([]*schema.Layout, 0, len(ty.Items))
		for i, it := range ty.Items {
			l, err := layoutOf(it, enc, append(append([]string{}, path...), "["+strconv.Itoa(i)+"]"))
			if err != nil {
				return nil, err
			}
			items = append(items, l)
		}
		return schema.TupleLayout(items...), nil

	case schema.KindArray:
		elem, err := layoutOf(ty.Elem, enc, append(append([]string{}, path...), "[elem]"))
		if err != nil {
			return nil, err
		}
		return schema.ArrayLayout(elem), nil

	case schema.KindByteArray:
		return schema.ByteArrayLayout(), nil
	}

	return nil, errors.InvalidLayout(errors.PhaseLayout, path, "unknown descriptor kind "+ty.Kind.String())
}

// StaticWidths flattens a static layout into its ordered Fixed leaf widths.
// An Enum contributes its discriminant then the widths shared by every
// variant; variants of differing shape make the layout dynamic.
func StaticWidths(l *schema.Layout) ([]uint32, bool) {
	var out []uint32
	if !appendStatic(&out, l) {
		return nil, false
	}
	return out, true
}

func appendStatic(out *[]uint32, l *schema.Layout) bool {
	switch l.Kind {
	case schema.LayoutFixed:
		*out = append(*out, l.Widths...)
		return true
	case schema.LayoutStruct:
		for _, f := range l.Fields {
			if !appendStatic(out, f.Layout) {
				return false
			}
		}
		return true
	case schema.LayoutTuple:
		for _, it := range l.Items {
			if !appendStatic(out, it) {
				return false
			}
		}
		return true
	case schema.LayoutEnum:
		*out = append(*out, schema.DiscriminantWidth)
		var shared []uint32
		for i, f := range l.Fields {
			var widths []uint32
			if !appendStatic(&widths, f.Layout) {
				return false
			}
			if i == 0 {
				shared = widths
				continue
			}
			if !sameWidths(shared, widths) {
				return false
			}
		}
		*out = append(*out, shared...)
		return true
	}
	return false
}

func sameWidths(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WordCount returns how many words packing widths from offset 0 produces.
func WordCount(widths []uint32) uint32 {
	var words, offset uint32
	for _, w := range widths {
		if offset == word.Bits {
			words++
			offset = 0
		}
		remaining := word.Bits - offset
		if w <= remaining {
			offset += w
		} else {
			words++
			offset = w - remaining
		}
	}
	if offset > 0 {
		words++
	}
	return words
}

// PackedSize is the number of words a value of a static layout packs into.
func PackedSize(l *schema.Layout) (uint32, bool) {
	widths, ok := StaticWidths(l)
	if !ok {
		return 0, false
	}
	return WordCount(widths), true
}

// UnpackedSize is the number of leaf scalars of a static layout.
func UnpackedSize(l *schema.Layout) (uint32, bool) {
	widths, ok := StaticWidths(l)
	if !ok {
		return 0, false
	}
	return uint32(len(widths)), true
}

// DescriptorOf returns the descriptor of T.
func DescriptorOf[T any]() (*schema.Ty, error) {
	return defaultCompiler.Descriptor(reflect.TypeOf((*T)(nil)).Elem())
}

// LayoutOf returns the legacy-encoded layout of T.
func LayoutOf[T any]() (*schema.Layout, error) {
	ty, err := DescriptorOf[T]()
	if err != nil {
		return nil, err
	}
	return Layout(ty, schema.EncodingLegacy)
}

// PackedSizeOf returns the packed word count of T, or false when T is dynamic.
func PackedSizeOf[T any]() (uint32, bool, error) {
	l, err := LayoutOf[T]()
	if err != nil {
		return 0, false, err
	}
	n, ok := PackedSize(l)
	return n, ok, nil
}

// UnpackedSizeOf returns the leaf count of T, or false when T is dynamic.
func UnpackedSizeOf[T any]() (uint32, bool, error) {
	l, err := LayoutOf[T]()
	if err != nil {
		return 0, false, err
	}
	n, ok := UnpackedSize(l)
	return n, ok, nil
}

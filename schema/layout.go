package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/word"
)

// LayoutKind tags a Layout node.
type LayoutKind uint8

const (
	LayoutFixed LayoutKind = iota
	LayoutStruct
	LayoutTuple
	LayoutArray
	LayoutByteArray
	LayoutEnum
)

var layoutKindNames = [...]string{
	LayoutFixed:     "fixed",
	LayoutStruct:    "struct",
	LayoutTuple:     "tuple",
	LayoutArray:     "array",
	LayoutByteArray: "bytearray",
	LayoutEnum:      "enum",
}

func (k LayoutKind) String() string {
	if int(k) < len(layoutKindNames) {
		return layoutKindNames[k]
	}
	return "unknown"
}

// Layout is the bit-width tree describing how a value packs into words.
type Layout struct {
	Elem   *Layout
	Widths []uint32
	Fields []FieldLayout
	Items  []*Layout
	Kind   LayoutKind
}

// FieldLayout pairs a struct member or enum variant selector with its layout.
type FieldLayout struct {
	Layout   *Layout
	Selector word.Word
}

// Fixed returns a leaf layout.
func Fixed(widths ...uint32) *Layout {
	if widths == nil {
		widths = []uint32{}
	}
	return &Layout{Kind: LayoutFixed, Widths: widths}
}

// StructLayout returns a struct layout.
func StructLayout(fields ...FieldLayout) *Layout {
	return &Layout{Kind: LayoutStruct, Fields: fields}
}

// TupleLayout returns a tuple layout.
func TupleLayout(items ...*Layout) *Layout {
	return &Layout{Kind: LayoutTuple, Items: items}
}

// ArrayLayout returns an array layout.
func ArrayLayout(elem *Layout) *Layout {
	return &Layout{Kind: LayoutArray, Elem: elem}
}

// ByteArrayLayout returns the byte array layout.
func ByteArrayLayout() *Layout {
	return &Layout{Kind: LayoutByteArray}
}

// EnumLayout returns an enum layout.
func EnumLayout(fields ...FieldLayout) *Layout {
	return &Layout{Kind: LayoutEnum, Fields: fields}
}

// Validate checks every Fixed width is within 1..word.Bits.
func (l *Layout) Validate() error {
	return l.validate(nil)
}

func (l *Layout) validate(path []string) error {
	if l == nil {
		return errors.InvalidLayout(errors.PhaseLayout, path, "nil layout")
	}
	switch l.Kind {
	case LayoutFixed:
		for _, w := range l.Widths {
			if w == 0 || w > word.Bits {
				return errors.InvalidWidth(errors.PhaseLayout, path, w, word.Bits)
			}
		}
	case LayoutStruct, LayoutEnum:
		for i, f := range l.Fields {
			if err := f.Layout.validate(append(append([]string{}, path...), "["+strconv.Itoa(i)+"]")); err != nil {
				return err
			}
		}
	case LayoutTuple:
		for i, it := range l.Items {
			if err := it.validate(append(append([]string{}, path...), "["+strconv.Itoa(i)+"]")); err != nil {
				return err
			}
		}
	case LayoutArray:
		return l.Elem.validate(append(append([]string{}, path...), "[elem]"))
	case LayoutByteArray:
	default:
		return errors.InvalidLayout(errors.PhaseLayout, path, fmt.Sprintf("unknown layout kind %d", l.Kind))
	}
	return nil
}

// IsStatic reports whether the layout contains no Array or ByteArray node.
func (l *Layout) IsStatic() bool {
	switch l.Kind {
	case LayoutArray, LayoutByteArray:
		return false
	case LayoutStruct, LayoutEnum:
		for _, f := range l.Fields {
			if !f.Layout.IsStatic() {
				return false
			}
		}
	case LayoutTuple:
		for _, it := range l.Items {
			if !it.IsStatic() {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy.
func (l *Layout) Clone() *Layout {
	if l == nil {
		return nil
	}
	out := &Layout{Kind: l.Kind}
	if l.Widths != nil {
		out.Widths = append([]uint32{}, l.Widths...)
	}
	if l.Fields != nil {
		out.Fields = make([]FieldLayout, len(l.Fields))
		for i, f := range l.Fields {
			out.Fields[i] = FieldLayout{Selector: f.Selector, Layout: f.Layout.Clone()}
		}
	}
	if l.Items != nil {
		out.Items = make([]*Layout, len(l.Items))
		for i, it := range l.Items {
			out.Items[i] = it.Clone()
		}
	}
	out.Elem = l.Elem.Clone()
	return out
}

// NormalizeLegacy rewrites Enum selectors to contiguous zero-based indices in
// declaration order, recursing through the whole tree. The input is not modified.
func NormalizeLegacy(l *Layout) *Layout {
	if l == nil {
		return nil
	}
	switch l.Kind {
	case LayoutFixed, LayoutByteArray:
		return l.Clone()
	case LayoutStruct:
		fields := make([]FieldLayout, len(l.Fields))
		for i, f := range l.Fields {
			fields[i] = FieldLayout{Selector: f.Selector, Layout: NormalizeLegacy(f.Layout)}
		}
		return StructLayout(fields...)
	case LayoutEnum:
		fields := make([]FieldLayout, len(l.Fields))
		for i, f := range l.Fields {
			fields[i] = FieldLayout{Selector: word.FromUint64(uint64(i)), Layout: NormalizeLegacy(f.Layout)}
		}
		return EnumLayout(fields...)
	case LayoutTuple:
		items := make([]*Layout, len(l.Items))
		for i, it := range l.Items {
			items[i] = NormalizeLegacy(it)
		}
		return TupleLayout(items...)
	case LayoutArray:
		return ArrayLayout(NormalizeLegacy(l.Elem))
	}
	return l.Clone()
}

// LayoutEqual compares two layouts including selectors.
func LayoutEqual(a, b *Layout) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case LayoutFixed:
		if len(a.Widths) != len(b.Widths) {
			return false
		}
		for i := range a.Widths {
			if a.Widths[i] != b.Widths[i] {
				return false
			}
		}
		return true
	case LayoutStruct, LayoutEnum:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Selector != b.Fields[i].Selector || !LayoutEqual(a.Fields[i].Layout, b.Fields[i].Layout) {
				return false
			}
		}
		return true
	case LayoutTuple:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !LayoutEqual(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case LayoutArray:
		return LayoutEqual(a.Elem, b.Elem)
	}
	return true
}

// String renders the layout tree on one line.
func (l *Layout) String() string {
	var b strings.Builder
	l.write(&b)
	return b.String()
}

func (l *Layout) write(b *strings.Builder) {
	if l == nil {
		b.WriteString("<nil>")
		return
	}
	switch l.Kind {
	case LayoutFixed:
		b.WriteString("Fixed([")
		for i, w := range l.Widths {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatUint(uint64(w), 10))
		}
		b.WriteString("])")
	case LayoutStruct, LayoutEnum:
		if l.Kind == LayoutStruct {
			b.WriteString("Struct([")
		} else {
			b.WriteString("Enum([")
		}
		for i, f := range l.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Selector.String())
			b.WriteString(": ")
			f.Layout.write(b)
		}
		b.WriteString("])")
	case LayoutTuple:
		b.WriteString("Tuple([")
		for i, it := range l.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			it.write(b)
		}
		b.WriteString("])")
	case LayoutArray:
		b.WriteString("Array(")
		l.Elem.write(b)
		b.WriteByte(')')
	case LayoutByteArray:
		b.WriteString("ByteArray")
	}
}

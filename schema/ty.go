package schema

import (
	"strings"
)

// Ty describes the shape of a stored value.
type Ty struct {
	Elem      *Ty
	Name      string
	Attrs     []string
	Members   []Member
	Variants  []Variant
	Items     []*Ty
	Kind      Kind
	Primitive Primitive
}

// Member is a named struct field. Key members form the entity identifier.
type Member struct {
	Ty    *Ty
	Name  string
	Attrs []string
	Key   bool
}

// Variant is a named enum case with its payload type.
type Variant struct {
	Ty   *Ty
	Name string
}

// OptionName is the enum name used for optional values.
const OptionName = "Option"

// Prim returns a primitive descriptor.
func Prim(p Primitive) *Ty {
	return &Ty{Kind: KindPrimitive, Primitive: p}
}

// Struct returns a struct descriptor.
func Struct(name string, members ...Member) *Ty {
	return &Ty{Kind: KindStruct, Name: name, Members: members}
}

// Enum returns an enum descriptor.
func Enum(name string, variants ...Variant) *Ty {
	return &Ty{Kind: KindEnum, Name: name, Variants: variants}
}

// Tuple returns a tuple descriptor. An empty tuple is the unit type.
func Tuple(items ...*Ty) *Ty {
	return &Ty{Kind: KindTuple, Items: items}
}

// Array returns a dynamically sized sequence descriptor.
func Array(elem *Ty) *Ty {
	return &Ty{Kind: KindArray, Elem: elem}
}

// ByteArray returns the unbounded byte sequence descriptor.
func ByteArray() *Ty {
	return &Ty{Kind: KindByteArray}
}

// Unit returns the empty tuple.
func Unit() *Ty {
	return Tuple()
}

// Option returns Enum Option { Some(inner), None }.
func Option(inner *Ty) *Ty {
	return Enum(OptionName,
		Variant{Name: "Some", Ty: inner},
		Variant{Name: "None", Ty: Unit()},
	)
}

// Field is shorthand for a value member.
func Field(name string, ty *Ty) Member {
	return Member{Name: name, Ty: ty}
}

// KeyField is shorthand for a key member.
func KeyField(name string, ty *Ty) Member {
	return Member{Name: name, Ty: ty, Key: true}
}

// Case is shorthand for an enum variant.
func Case(name string, ty *Ty) Variant {
	if ty == nil {
		ty = Unit()
	}
	return Variant{Name: name, Ty: ty}
}

// IsUnit reports whether t is the empty tuple.
func (t *Ty) IsUnit() bool {
	return t != nil && t.Kind == KindTuple && len(t.Items) == 0
}

// IsOption reports whether t is an Option enum.
func (t *Ty) IsOption() bool {
	return t != nil && t.Kind == KindEnum && t.Name == OptionName && len(t.Variants) == 2 &&
		t.Variants[0].Name == "Some" && t.Variants[1].Name == "None"
}

// Keys returns the key members in declaration order.
func (t *Ty) Keys() []Member {
	var out []Member
	for _, m := range t.Members {
		if m.Key {
			out = append(out, m)
		}
	}
	return out
}

// Values returns the non-key members in declaration order.
func (t *Ty) Values() []Member {
	var out []Member
	for _, m := range t.Members {
		if !m.Key {
			out = append(out, m)
		}
	}
	return out
}

// MemberByName finds a member.
func (t *Ty) MemberByName(name string) (Member, int, bool) {
	for i, m := range t.Members {
		if m.Name == name {
			return m, i, true
		}
	}
	return Member{}, -1, false
}

// VariantByName finds a variant.
func (t *Ty) VariantByName(name string) (Variant, int, bool) {
	for i, v := range t.Variants {
		if v.Name == name {
			return v, i, true
		}
	}
	return Variant{}, -1, false
}

// String renders the type the way it is written in manifests.
func (t *Ty) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive.String()
	case KindStruct:
		return t.Name
	case KindEnum:
		if t.IsOption() {
			return "Option<" + t.Variants[0].Ty.String() + ">"
		}
		return t.Name
	case KindTuple:
		parts := make([]string, len(t.Items))
		for i, it := range t.Items {
			parts[i] = it.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindArray:
		return "Array<" + t.Elem.String() + ">"
	case KindByteArray:
		return "ByteArray"
	}
	return "unknown"
}

// Equal reports structural equality including names, keys and attributes.
func Equal(a, b *Ty) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPrimitive:
		return a.Primitive == b.Primitive
	case KindStruct:
		if a.Name != b.Name || !equalStrings(a.Attrs, b.Attrs) || len(a.Members) != len(b.Members) {
			return false
		}
		for i := range a.Members {
			if !MemberEqual(a.Members[i], b.Members[i]) {
				return false
			}
		}
		return true
	case KindEnum:
		if a.Name != b.Name || !equalStrings(a.Attrs, b.Attrs) || len(a.Variants) != len(b.Variants) {
			return false
		}
		for i := range a.Variants {
			if a.Variants[i].Name != b.Variants[i].Name || !Equal(a.Variants[i].Ty, b.Variants[i].Ty) {
				return false
			}
		}
		return true
	case KindTuple:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindArray:
		return Equal(a.Elem, b.Elem)
	case KindByteArray:
		return true
	}
	return false
}

// MemberEqual compares name, key flag, attributes and type.
func MemberEqual(a, b Member) bool {
	return a.Name == b.Name && a.Key == b.Key && equalStrings(a.Attrs, b.Attrs) && Equal(a.Ty, b.Ty)
}

func equalStrings(a, b []string) bool {
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

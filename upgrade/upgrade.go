// Package upgrade decides whether a new descriptor may replace a registered
// one without breaking values already stored under it.
//
// Struct members and enum variants may only be appended. Existing members keep
// their name, position and exact type; existing variants keep their name and
// position while their payloads are checked recursively. Tuples are compared
// item by item, Array elements must stay identical and primitives must match.
// The derived layouts are then compared leaf by leaf so that no kept position
// changes its width.
package upgrade

import (
	stderrors "errors"
	"strconv"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/introspect"
	"github.com/wippyai/wordstore/schema"
)

// Reason classifies a rejected upgrade.
type Reason string

const (
	MemberRemoved    Reason = "member_removed"
	MemberReordered  Reason = "member_reordered"
	TypeChanged      Reason = "type_changed"
	VariantRemoved   Reason = "variant_removed"
	VariantReordered Reason = "variant_reordered"
	LayoutDiverged   Reason = "layout_diverged"
	KindChanged      Reason = "kind_changed"
	KeyChanged       Reason = "key_changed"
)

// ReasonOf extracts the Reason of an IncompatibleUpgrade error.
func ReasonOf(err error) (Reason, bool) {
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindIncompatibleUpgrade {
		return "", false
	}
	r, ok := e.Value.(string)
	return Reason(r), ok
}

// Check returns nil when next can replace prev for the resource tag.
func Check(tag string, prev, next *schema.Ty) error {
	if err := checkTy(tag, nil, prev, next); err != nil {
		return err
	}

	pl, err := introspect.Layout(prev, schema.EncodingLegacy)
	if err != nil {
		return err
	}
	nl, err := introspect.Layout(next, schema.EncodingLegacy)
	if err != nil {
		return err
	}
	if path, ok := DiffLayouts(pl, nl); !ok {
		return reject(tag, path, LayoutDiverged, "leaf widths differ")
	}
	return nil
}

// CheckKeys rejects any change to the key members of a model.
func CheckKeys(tag string, prev, next *schema.Ty) error {
	pk, nk := prev.Keys(), next.Keys()
	if len(pk) != len(nk) {
		return reject(tag, nil, KeyChanged, strconv.Itoa(len(pk))+" keys became "+strconv.Itoa(len(nk)))
	}
	for i := range pk {
		if !schema.MemberEqual(pk[i], nk[i]) {
			return reject(tag, []string{pk[i].Name}, KeyChanged, "")
		}
	}
	return nil
}

func reject(tag string, path []string, reason Reason, detail string) error {
	return errors.IncompatibleUpgrade(tag, path, string(reason), detail)
}

func child(path []string, name string) []string {
	return append(append([]string{}, path...), name)
}

func checkTy(tag string, path []string, prev, next *schema.Ty) error {
	if prev == nil || next == nil {
		if prev == next {
			return nil
		}
		return reject(tag, path, KindChanged, "missing descriptor")
	}
	if prev.Kind != next.Kind {
		return reject(tag, path, KindChanged, prev.Kind.String()+" became "+next.Kind.String())
	}

	switch prev.Kind {
	case schema.KindPrimitive:
		if prev.Primitive != next.Primitive {
			return reject(tag, path, TypeChanged, prev.Primitive.String()+" became "+next.Primitive.String())
		}

	case schema.KindStruct:
		for i, m := range prev.Members {
			if i >= len(next.Members) {
				return reject(tag, child(path, m.Name), MemberRemoved, "")
			}
			n := next.Members[i]
			if n.Name != m.Name {
				if _, _, ok := next.MemberByName(m.Name); ok {
					return reject(tag, child(path, m.Name), MemberReordered, "")
				}
				return reject(tag, child(path, m.Name), MemberRemoved, "")
			}
			if n.Key != m.Key || !schema.Equal(n.Ty, m.Ty) {
				return reject(tag, child(path, m.Name), TypeChanged, m.Ty.String()+" became "+n.Ty.String())
			}
		}

	case schema.KindEnum:
		for i, v := range prev.Variants {
			if i >= len(next.Variants) {
				return reject(tag, child(path, v.Name), VariantRemoved, "")
			}
			n := next.Variants[i]
			if n.Name != v.Name {
				if _, _, ok := next.VariantByName(v.Name); ok {
					return reject(tag, child(path, v.Name), VariantReordered, "")
				}
				return reject(tag, child(path, v.Name), VariantRemoved, "")
			}
			if err := checkTy(tag, child(path, v.Name), payload(v.Ty), payload(n.Ty)); err != nil {
				return err
			}
		}

	case schema.KindTuple:
		if len(prev.Items) != len(next.Items) {
			return reject(tag, path, TypeChanged, prev.String()+" became "+next.String())
		}
		for i := range prev.Items {
			if err := checkTy(tag, child(path, "["+strconv.Itoa(i)+"]"), prev.Items[i], next.Items[i]); err != nil {
				return err
			}
		}

	case schema.KindArray:
		if !schema.Equal(prev.Elem, next.Elem) {
			return reject(tag, path, TypeChanged, prev.String()+" became "+next.String())
		}
	}
	return nil
}

func payload(t *schema.Ty) *schema.Ty {
	if t == nil {
		return schema.Unit()
	}
	return t
}

// DiffLayouts walks both layouts at the same positions and reports the first
// position of prev whose shape or width differs in next. Fields and variants
// appended in next are ignored.
func DiffLayouts(prev, next *schema.Layout) ([]string, bool) {
	return diff(nil, prev, next)
}

func diff(path []string, prev, next *schema.Layout) ([]string, bool) {
	if prev == nil || next == nil {
		return path, prev == next
	}
	if prev.Kind != next.Kind {
		return path, false
	}

	switch prev.Kind {
	case schema.LayoutFixed:
		if len(prev.Widths) != len(next.Widths) {
			return path, false
		}
		for i := range prev.Widths {
			if prev.Widths[i] != next.Widths[i] {
				return child(path, "["+strconv.Itoa(i)+"]"), false
			}
		}

	case schema.LayoutStruct, schema.LayoutEnum:
		if len(next.Fields) < len(prev.Fields) {
			return path, false
		}
		for i, f := range prev.Fields {
			at := child(path, f.Selector.String())
			if next.Fields[i].Selector != f.Selector {
				return at, false
			}
			if p, ok := diff(at, f.Layout, next.Fields[i].Layout); !ok {
				return p, false
			}
		}

	case schema.LayoutTuple:
		if len(prev.Items) != len(next.Items) {
			return path, false
		}
		for i := range prev.Items {
			if p, ok := diff(child(path, "["+strconv.Itoa(i)+"]"), prev.Items[i], next.Items[i]); !ok {
				return p, false
			}
		}

	case schema.LayoutArray:
		return diff(child(path, "[elem]"), prev.Elem, next.Elem)
	}
	return path, true
}

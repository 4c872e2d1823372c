package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/word"
	"github.com/wippyai/wordstore/world"
)

// summary is the one-line listing of a resource.
func summary(r *world.Resource) string {
	if r.Kind != world.KindModel {
		return fmt.Sprintf("%-9s %s", r.Kind, r.Tag())
	}
	return fmt.Sprintf("%-9s %s v%d %s", r.Kind, r.Tag(), r.Version, r.Encoding)
}

// describe renders a resource with its direct Owners and Writers.
func describe(ctx context.Context, w *world.World, r *world.Resource) (string, error) {
	owners, err := w.Owners(ctx, r.Selector)
	if err != nil {
		return "", err
	}
	writers, err := w.Writers(ctx, r.Selector)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "tag:       %s\n", r.Tag())
	fmt.Fprintf(&b, "kind:      %s\n", r.Kind)
	fmt.Fprintf(&b, "selector:  %s\n", r.Selector)
	if r.Kind == world.KindModel {
		fmt.Fprintf(&b, "version:   %d\n", r.Version)
		fmt.Fprintf(&b, "encoding:  %s\n", r.Encoding)
		if r.Static {
			fmt.Fprintf(&b, "size:      %d packed, %d unpacked\n", r.PackedSize, r.UnpackedSize)
		} else {
			b.WriteString("size:      dynamic\n")
		}
		b.WriteString("schema:\n")
		for _, m := range r.Schema.Members {
			key := ""
			if m.Key {
				key = " #[key]"
			}
			fmt.Fprintf(&b, "  %s: %s%s\n", m.Name, m.Ty, key)
		}
	}
	fmt.Fprintf(&b, "owners:    %s\n", accounts(owners))
	fmt.Fprintf(&b, "writers:   %s\n", accounts(writers))
	return b.String(), nil
}

func accounts(list []word.Address) string {
	if len(list) == 0 {
		return "-"
	}
	parts := make([]string, len(list))
	for i, a := range list {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// layoutTree renders l one node per line, labelling struct fields and enum
// variants with the names ty gives them.
func layoutTree(ty *schema.Ty, l *schema.Layout) string {
	var b strings.Builder
	writeLayout(&b, ty, l, "", "")
	return b.String()
}

func writeLayout(b *strings.Builder, ty *schema.Ty, l *schema.Layout, label, indent string) {
	b.WriteString(indent)
	if label != "" {
		b.WriteString(label)
		b.WriteString(": ")
	}
	switch l.Kind {
	case schema.LayoutFixed:
		b.WriteString(l.String())
		b.WriteByte('\n')

	case schema.LayoutStruct:
		b.WriteString("Struct\n")
		var members []schema.Member
		if ty != nil {
			members = ty.Values()
		}
		for i, f := range l.Fields {
			name, sub := f.Selector.String(), (*schema.Ty)(nil)
			if i < len(members) {
				name, sub = members[i].Name, members[i].Ty
			}
			writeLayout(b, sub, f.Layout, name, indent+"  ")
		}

	case schema.LayoutEnum:
		b.WriteString("Enum\n")
		for i, f := range l.Fields {
			name, sub := "", (*schema.Ty)(nil)
			if ty != nil && i < len(ty.Variants) {
				name, sub = ty.Variants[i].Name, ty.Variants[i].Ty
			}
			writeLayout(b, sub, f.Layout, fmt.Sprintf("%s=%d", name, f.Selector.Uint64()), indent+"  ")
		}

	case schema.LayoutTuple:
		b.WriteString("Tuple\n")
		for i, it := range l.Items {
			var sub *schema.Ty
			if ty != nil && i < len(ty.Items) {
				sub = ty.Items[i]
			}
			writeLayout(b, sub, it, fmt.Sprintf("[%d]", i), indent+"  ")
		}

	case schema.LayoutArray:
		b.WriteString("Array\n")
		var elem *schema.Ty
		if ty != nil {
			elem = ty.Elem
		}
		writeLayout(b, elem, l.Elem, "elem", indent+"  ")

	case schema.LayoutByteArray:
		b.WriteString("ByteArray\n")
	}
}

// formatValue renders a dynamic entity value with sorted map keys.
func formatValue(v any) string {
	var b strings.Builder
	writeValue(&b, v, "")
	return b.String()
}

func writeValue(b *strings.Builder, v any, indent string) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch inner := x[k].(type) {
			case map[string]any, []any:
				fmt.Fprintf(b, "%s%s:\n", indent, k)
				writeValue(b, inner, indent+"  ")
			default:
				fmt.Fprintf(b, "%s%s: %v\n", indent, k, inner)
			}
		}
	case []any:
		for i, item := range x {
			fmt.Fprintf(b, "%s[%d]:\n", indent, i)
			writeValue(b, item, indent+"  ")
		}
	default:
		fmt.Fprintf(b, "%s%v\n", indent, x)
	}
}

package manifest

import (
	"path/filepath"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/introspect"
	"github.com/wippyai/wordstore/schema"
)

// loadWIT reads the resolve JSON written by `wasm-tools component wit --json`
// and imports its named records, variants and enums. A relative path is taken
// from dir.
func loadWIT(path, dir string) (map[string]*schema.Ty, error) {
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	res, err := wit.LoadJSON(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "load WIT "+path)
	}
	return importWIT(res)
}

// importWIT converts every named record, variant and enum of res. Type and
// variant names become PascalCase and member names snake_case so they read
// like the types a manifest declares itself.
func importWIT(res *wit.Resolve) (map[string]*schema.Ty, error) {
	out := map[string]*schema.Ty{}
	for _, td := range res.TypeDefs {
		if td.Name == nil {
			continue
		}
		switch td.Kind.(type) {
		case *wit.Record, *wit.Variant, *wit.Enum:
		default:
			continue
		}

		name := pascal(*td.Name)
		path := []string{"wit", *td.Name}
		if _, dup := out[name]; dup {
			return nil, invalid(path, "%s is declared by more than one interface", name)
		}
		ty, err := introspect.FromWIT(td)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "WIT type "+*td.Name)
		}
		out[name] = renameWIT(ty)
	}
	return out, nil
}

func renameWIT(ty *schema.Ty) *schema.Ty {
	if ty == nil {
		return nil
	}
	cp := *ty
	switch ty.Kind {
	case schema.KindStruct:
		cp.Name = pascal(ty.Name)
		cp.Members = make([]schema.Member, len(ty.Members))
		for i, m := range ty.Members {
			m.Name = strings.ReplaceAll(m.Name, "-", "_")
			m.Ty = renameWIT(m.Ty)
			cp.Members[i] = m
		}
	case schema.KindEnum:
		cp.Name = pascal(ty.Name)
		cp.Variants = make([]schema.Variant, len(ty.Variants))
		for i, v := range ty.Variants {
			v.Name = pascal(v.Name)
			v.Ty = renameWIT(v.Ty)
			cp.Variants[i] = v
		}
	case schema.KindArray:
		cp.Elem = renameWIT(ty.Elem)
	case schema.KindTuple:
		cp.Items = make([]*schema.Ty, len(ty.Items))
		for i, it := range ty.Items {
			cp.Items[i] = renameWIT(it)
		}
	}
	return &cp
}

// pascal turns a kebab-case WIT identifier into PascalCase.
func pascal(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// witModel builds a model from an imported record, marking keys by name.
func (r *resolver) witModel(res Resource, path []string) (*schema.Ty, error) {
	rec, ok := r.imported[res.WIT]
	if !ok {
		return nil, invalid(path, "unknown WIT type %s", res.WIT)
	}
	if rec.Kind != schema.KindStruct {
		return nil, invalid(path, "WIT type %s is not a record", res.WIT)
	}

	keys := make(map[string]bool, len(res.Keys))
	for _, k := range res.Keys {
		keys[k] = true
	}
	members := make([]schema.Member, len(rec.Members))
	for i, m := range rec.Members {
		m.Key = keys[m.Name]
		delete(keys, m.Name)
		members[i] = m
	}
	for k := range keys {
		return nil, invalid(path, "key %s is not a member of %s", k, res.WIT)
	}
	return schema.Struct(res.Name, members...), nil
}

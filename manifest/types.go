package manifest

import (
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/selector"
)

// reserved names cannot be declared under types.
var reserved = map[string]bool{
	"ByteArray": true,
	"Array":     true,
	"Span":      true,
	"Option":    true,
}

type resolver struct {
	defs     map[string]TypeDef
	done     map[string]*schema.Ty
	stack    map[string]bool
	imported map[string]*schema.Ty
}

func (m *Manifest) resolver() (*resolver, error) {
	if m.WIT != "" && m.imported == nil {
		imported, err := loadWIT(m.WIT, m.dir)
		if err != nil {
			return nil, err
		}
		m.imported = imported
	}

	r := &resolver{
		defs:     make(map[string]TypeDef, len(m.Types)),
		done:     make(map[string]*schema.Ty, len(m.Types)),
		stack:    map[string]bool{},
		imported: m.imported,
	}
	for _, d := range m.Types {
		path := []string{"types", d.Name}
		if err := selector.ValidateName("type", d.Name); err != nil {
			return nil, err
		}
		if _, prim := schema.ParsePrimitive(d.Name); prim || reserved[d.Name] {
			return nil, invalid(path, "%s is a built-in type", d.Name)
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, invalid(path, "type declared twice")
		}
		if _, dup := r.imported[d.Name]; dup {
			return nil, invalid(path, "type is also imported from WIT")
		}
		if (len(d.Members) > 0) == (len(d.Variants) > 0) {
			return nil, invalid(path, "a type declares either members or variants")
		}
		r.defs[d.Name] = d
	}
	for _, d := range m.Types {
		if _, err := r.named(d.Name, []string{"types", d.Name}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *resolver) named(name string, path []string) (*schema.Ty, error) {
	if ty, ok := r.done[name]; ok {
		return ty, nil
	}
	if ty, ok := r.imported[name]; ok {
		return ty, nil
	}
	d, ok := r.defs[name]
	if !ok {
		return nil, invalid(path, "unknown type %s", name)
	}
	if r.stack[name] {
		return nil, invalid(path, "type %s refers to itself", name)
	}
	r.stack[name] = true
	defer delete(r.stack, name)

	var (
		ty  *schema.Ty
		err error
	)
	if len(d.Variants) > 0 {
		ty, err = r.enumTy(d)
	} else {
		ty, err = r.structTy(d.Name, d.Members, []string{"types", d.Name})
	}
	if err != nil {
		return nil, err
	}
	r.done[name] = ty
	return ty, nil
}

func (r *resolver) enumTy(d TypeDef) (*schema.Ty, error) {
	seen := map[string]bool{}
	variants := make([]schema.Variant, len(d.Variants))
	for i, v := range d.Variants {
		path := []string{"types", d.Name, v.Name}
		if err := selector.ValidateName("variant", v.Name); err != nil {
			return nil, err
		}
		if seen[v.Name] {
			return nil, invalid(path, "variant declared twice")
		}
		seen[v.Name] = true

		var payload *schema.Ty
		if v.Type != "" {
			t, err := r.parse(v.Type, path)
			if err != nil {
				return nil, err
			}
			payload = t
		}
		variants[i] = schema.Case(v.Name, payload)
	}
	return schema.Enum(d.Name, variants...), nil
}

func (r *resolver) structTy(name string, members []Member, path []string) (*schema.Ty, error) {
	seen := map[string]bool{}
	out := make([]schema.Member, len(members))
	for i, m := range members {
		mpath := append(append([]string{}, path...), m.Name)
		if err := selector.ValidateName("member", m.Name); err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, invalid(mpath, "member declared twice")
		}
		seen[m.Name] = true
		if m.Type == "" {
			return nil, invalid(mpath, "member has no type")
		}
		ty, err := r.parse(m.Type, mpath)
		if err != nil {
			return nil, err
		}
		out[i] = schema.Member{Name: m.Name, Ty: ty, Key: m.Key}
	}
	return schema.Struct(name, out...), nil
}

// ParseType parses a type expression that uses only built-in types.
func ParseType(expr string) (*schema.Ty, error) {
	r := &resolver{defs: map[string]TypeDef{}, done: map[string]*schema.Ty{}, stack: map[string]bool{}}
	return r.parse(expr, nil)
}

// ParseType parses a type expression that may name the manifest's types.
func (m *Manifest) ParseType(expr string) (*schema.Ty, error) {
	r, err := m.resolver()
	if err != nil {
		return nil, err
	}
	return r.parse(expr, nil)
}

func (r *resolver) parse(expr string, path []string) (*schema.Ty, error) {
	p := &parser{r: r, src: expr, path: path}
	ty, err := p.ty()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.pos != len(p.src) {
		return nil, p.fail("unexpected %q", p.src[p.pos:])
	}
	return ty, nil
}

type parser struct {
	r    *resolver
	src  string
	path []string
	pos  int
}

func (p *parser) fail(format string, args ...any) error {
	return invalid(p.path, "type %q at %d: "+format, append([]any{p.src, p.pos}, args...)...)
}

func (p *parser) skip() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) expect(c byte) error {
	p.skip()
	if p.peek() != c {
		return p.fail("expected %q", c)
	}
	p.pos++
	return nil
}

func isIdent(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdent(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) ty() (*schema.Ty, error) {
	p.skip()
	if p.peek() == '(' {
		return p.tuple()
	}

	name := p.ident()
	if name == "" {
		return nil, p.fail("expected a type")
	}
	p.skip()
	if p.peek() == '<' {
		p.pos++
		inner, err := p.ty()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		switch name {
		case "Array", "Span":
			return schema.Array(inner), nil
		case "Option":
			return schema.Option(inner), nil
		}
		return nil, p.fail("%s takes no type parameter", name)
	}

	if prim, ok := schema.ParsePrimitive(name); ok {
		return schema.Prim(prim), nil
	}
	switch name {
	case "ByteArray":
		return schema.ByteArray(), nil
	case "Array", "Span", "Option":
		return nil, p.fail("%s needs a type parameter", name)
	}
	return p.r.named(name, p.path)
}

func (p *parser) tuple() (*schema.Ty, error) {
	p.pos++
	items := []*schema.Ty{}
	for {
		p.skip()
		if p.peek() == ')' {
			p.pos++
			return schema.Tuple(items...), nil
		}
		if len(items) > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}
		it, err := p.ty()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
}

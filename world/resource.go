package world

import (
	"github.com/wippyai/wordstore/codec"
	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/introspect"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/word"
)

// Kind distinguishes the world record, namespaces and models.
type Kind uint8

const (
	KindWorld Kind = iota
	KindNamespace
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindWorld:
		return "world"
	case KindNamespace:
		return "namespace"
	case KindModel:
		return "model"
	}
	return "unknown"
}

// Resource is a registered world, namespace or model.
// PackedSize and UnpackedSize are set only when Static is true.
// World hands out copies; Schema and Layout stay shared with the cache and
// must not be modified.
type Resource struct {
	Schema            *schema.Ty
	Layout            *schema.Layout
	Name              string
	Namespace         string
	plan              *plan
	Selector          word.Word
	NamespaceSelector word.Word
	Version           uint32
	PackedSize        uint32
	UnpackedSize      uint32
	Kind              Kind
	Encoding          schema.Encoding
	Static            bool
}

func (r *Resource) clone() *Resource {
	cp := *r
	return &cp
}

// Tag returns "namespace-name" for models and the bare name otherwise.
func (r *Resource) Tag() string {
	if r.Kind == KindModel {
		return selector.Tag(r.Namespace, r.Name)
	}
	return r.Name
}

// record is the persisted form of a Resource.
type record struct {
	Namespace string
	Name      string
	Schema    []word.Word
	Version   uint32
	Kind      uint8
	Encoding  uint8
}

func (r *Resource) record() record {
	rec := record{
		Kind:      uint8(r.Kind),
		Version:   r.Version,
		Encoding:  uint8(r.Encoding),
		Namespace: r.Namespace,
		Name:      r.Name,
	}
	if r.Schema != nil {
		rec.Schema = schema.ToWords(r.Schema)
	}
	return rec
}

func encodeRecord(r *Resource) ([]word.Word, error) {
	return codec.Marshal(r.record())
}

func decodeRecord(words []word.Word) (*Resource, error) {
	rec, err := codec.Unmarshal[record](words)
	if err != nil {
		return nil, err
	}

	var ty *schema.Ty
	if len(rec.Schema) > 0 {
		var n int
		ty, n, err = schema.FromWords(rec.Schema)
		if err != nil {
			return nil, err
		}
		if n != len(rec.Schema) {
			return nil, errors.LengthMismatch(errors.PhaseStore, "schema uses %d of %d words", n, len(rec.Schema))
		}
	}
	return newResource(Kind(rec.Kind), rec.Namespace, rec.Name, ty, schema.Encoding(rec.Encoding), rec.Version)
}

func newResource(kind Kind, namespace, name string, ty *schema.Ty, enc schema.Encoding, version uint32) (*Resource, error) {
	r := &Resource{
		Kind:      kind,
		Name:      name,
		Namespace: namespace,
		Version:   version,
		Encoding:  enc,
		Schema:    ty,
	}

	switch kind {
	case KindWorld:
		r.Selector = word.Zero
	case KindNamespace:
		r.Selector = selector.Namespace(name)
	case KindModel:
		r.Selector = selector.Resource(namespace, name)
		r.NamespaceSelector = selector.Namespace(namespace)

		l, err := introspect.Layout(ty, enc)
		if err != nil {
			return nil, err
		}
		r.Layout = l
		if packed, ok := introspect.PackedSize(l); ok {
			unpacked, _ := introspect.UnpackedSize(l)
			r.Static = true
			r.PackedSize = packed
			r.UnpackedSize = unpacked
		}
		p, err := newPlan(ty, l, enc)
		if err != nil {
			return nil, err
		}
		r.plan = p
	}
	return r, nil
}

// plan holds the single-member descriptors used to address entity data.
type plan struct {
	keys       *schema.Ty
	keysLayout *schema.Layout
	members    []memberPlan
}

type memberPlan struct {
	ty       *schema.Ty // the member's own type
	layout   *schema.Layout
	wrapped  *schema.Ty // struct holding only this member
	wrapping *schema.Layout
	name     string
	selector word.Word
}

func newPlan(ty *schema.Ty, l *schema.Layout, enc schema.Encoding) (*plan, error) {
	if ty == nil || ty.Kind != schema.KindStruct {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			TyName(ty.String()).
			Detail("a model must be a struct").
			Build()
	}
	keys := ty.Keys()
	if len(keys) == 0 {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			TyName(ty.Name).
			Detail("a model needs at least one key member").
			Build()
	}

	keyFields := make([]schema.Member, len(keys))
	for i, k := range keys {
		keyFields[i] = schema.Field(k.Name, k.Ty)
	}
	keysTy := schema.Struct(ty.Name, keyFields...)
	keysLayout, err := introspect.Layout(keysTy, enc)
	if err != nil {
		return nil, err
	}

	values := ty.Values()
	p := &plan{keys: keysTy, keysLayout: keysLayout, members: make([]memberPlan, len(values))}
	for i, m := range values {
		field := l.Fields[i]
		p.members[i] = memberPlan{
			name:     m.Name,
			selector: field.Selector,
			ty:       m.Ty,
			layout:   field.Layout,
			wrapped:  schema.Struct(ty.Name, schema.Field(m.Name, m.Ty)),
			wrapping: schema.StructLayout(field),
		}
	}
	return p, nil
}

func (p *plan) member(name string) (memberPlan, bool) {
	for _, m := range p.members {
		if m.name == name {
			return m, true
		}
	}
	return memberPlan{}, false
}

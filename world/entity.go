package world

import (
	"context"
	"reflect"

	"github.com/wippyai/wordstore/acl"
	"github.com/wippyai/wordstore/codec"
	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/introspect"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/word"
)

// model resolves tag to a registered model.
func (w *World) model(ctx context.Context, tag string) (*Resource, error) {
	r, err := w.resourceByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	if r.Kind != KindModel {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Detail("%s is a %s, not a model", tag, r.Kind).
			Build()
	}
	return r, nil
}

// EntityID derives the identifier of the entity whose key members are given
// by keys: a struct or map holding them, a []any in declaration order, or the
// bare value of a single key.
func (w *World) EntityID(ctx context.Context, tag string, keys any) (word.Word, error) {
	r, err := w.model(ctx, tag)
	if err != nil {
		return word.Zero, err
	}
	id, _, err := r.entityID(keys)
	return id, err
}

// entityID returns the single key leaf, or H over all key leaves.
func (r *Resource) entityID(keys any) (word.Word, []word.Word, error) {
	leaves, err := codec.Serialize(r.plan.keys, r.plan.keysLayout, keyValues(r.plan.keys, keys))
	if err != nil {
		return word.Zero, nil, err
	}
	if len(leaves) == 1 {
		return leaves[0], leaves, nil
	}
	return selector.Hash(leaves...), leaves, nil
}

// keyValues adapts the accepted key forms to something the codec can read
// members from.
func keyValues(keysTy *schema.Ty, keys any) any {
	rv := reflect.ValueOf(keys)
	for rv.IsValid() && rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return keys
	}

	_, scalar := introspect.PrimitiveOf(rv.Type())
	switch {
	case rv.Kind() == reflect.Map:
		return keys
	case rv.Kind() == reflect.Struct && !scalar && rv.Type() != reflect.TypeOf(codec.Variant{}):
		return keys
	}

	if items, ok := keys.([]any); ok && len(items) == len(keysTy.Members) {
		m := make(map[string]any, len(items))
		for i, k := range keysTy.Members {
			m[k.Name] = items[i]
		}
		return m
	}
	if len(keysTy.Members) == 1 {
		return map[string]any{keysTy.Members[0].Name: keys}
	}
	return keys
}

func memberKey(resource, entity, member word.Word) word.Word {
	return selector.Hash(resource, entity, member)
}

// zeroWords returns enough zero words to decode the zero value of l.
func zeroWords(l *schema.Layout) []word.Word {
	return make([]word.Word, leafBound(l)+1)
}

func leafBound(l *schema.Layout) int {
	switch l.Kind {
	case schema.LayoutFixed:
		return len(l.Widths)
	case schema.LayoutStruct:
		n := 0
		for _, f := range l.Fields {
			n += leafBound(f.Layout)
		}
		return n
	case schema.LayoutTuple:
		n := 0
		for _, it := range l.Items {
			n += leafBound(it)
		}
		return n
	case schema.LayoutEnum:
		widest := 0
		for _, f := range l.Fields {
			widest = max(widest, leafBound(f.Layout))
		}
		return 1 + widest
	case schema.LayoutArray:
		return 1
	case schema.LayoutByteArray:
		return 4
	}
	return 0
}

func (w *World) authorizeWrite(ctx context.Context, r *Resource, caller word.Address) error {
	_, err := w.acl.Authorize(ctx, acl.RoleWriter, r.Selector, caller)
	return err
}

// SetEntity stores every value member of v, a struct or map that also holds
// the key members. caller must be a Writer or Owner of the model.
func (w *World) SetEntity(ctx context.Context, caller word.Address, tag string, v any) error {
	return w.metrics.observe("set_entity", w.setEntity(ctx, caller, tag, v))
}

func (w *World) setEntity(ctx context.Context, caller word.Address, tag string, v any) error {
	r, err := w.model(ctx, tag)
	if err != nil {
		return err
	}
	if err := w.authorizeWrite(ctx, r, caller); err != nil {
		return err
	}
	id, _, err := r.entityID(v)
	if err != nil {
		return err
	}

	encoded := make([][]word.Word, len(r.plan.members))
	for i, m := range r.plan.members {
		words, err := codec.Encode(m.wrapped, m.wrapping, v)
		if err != nil {
			return err
		}
		encoded[i] = words
	}
	for i, m := range r.plan.members {
		if err := w.store.SetWords(ctx, memberKey(r.Selector, id, m.selector), encoded[i]); err != nil {
			return err
		}
	}
	debugf("set entity %s of %s", id, tag)
	return nil
}

// Entity reads the entity identified by keys into target, a pointer to a
// struct, a map[string]any or an any. Key members are filled from keys.
// Members never written read as their zero value.
func (w *World) Entity(ctx context.Context, tag string, keys any, target any) error {
	r, err := w.model(ctx, tag)
	if err != nil {
		return err
	}
	id, leaves, err := r.entityID(keys)
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.InvalidInput(errors.PhaseUnpack, nil, "entity target must be a non-nil pointer")
	}
	into := target
	var dynamic map[string]any
	if rv.Elem().Kind() == reflect.Interface {
		dynamic = make(map[string]any, len(r.Schema.Members))
		into = &dynamic
	}

	if err := codec.Deserialize(r.plan.keys, r.plan.keysLayout, leaves, into); err != nil {
		return err
	}
	for _, m := range r.plan.members {
		words, err := w.store.GetWords(ctx, memberKey(r.Selector, id, m.selector))
		if err != nil {
			return err
		}
		if len(words) == 0 {
			words = zeroWords(m.wrapping)
		}
		if err := codec.Decode(m.wrapped, m.wrapping, words, into); err != nil {
			return err
		}
	}

	if dynamic != nil {
		rv.Elem().Set(reflect.ValueOf(dynamic))
	}
	return nil
}

// EntityValue reads an entity into its dynamic form.
func (w *World) EntityValue(ctx context.Context, tag string, keys any) (map[string]any, error) {
	out := map[string]any{}
	if err := w.Entity(ctx, tag, keys, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteEntity clears every value member of the entity.
func (w *World) DeleteEntity(ctx context.Context, caller word.Address, tag string, keys any) error {
	return w.metrics.observe("delete_entity", w.deleteEntity(ctx, caller, tag, keys))
}

func (w *World) deleteEntity(ctx context.Context, caller word.Address, tag string, keys any) error {
	r, err := w.model(ctx, tag)
	if err != nil {
		return err
	}
	if err := w.authorizeWrite(ctx, r, caller); err != nil {
		return err
	}
	id, _, err := r.entityID(keys)
	if err != nil {
		return err
	}
	for _, m := range r.plan.members {
		if err := w.store.SetWords(ctx, memberKey(r.Selector, id, m.selector), nil); err != nil {
			return err
		}
	}
	debugf("deleted entity %s of %s", id, tag)
	return nil
}

func (r *Resource) valueMember(name string) (memberPlan, error) {
	m, ok := r.plan.member(name)
	if ok {
		return m, nil
	}
	if km, _, found := r.Schema.MemberByName(name); found && km.Key {
		return m, errors.InvalidInput(errors.PhaseRegister, []string{name}, "key members are part of the entity id")
	}
	return m, errors.NotFound(errors.PhaseRegister, "member of "+r.Tag(), name)
}

// SetMember replaces one value member of an entity.
func (w *World) SetMember(ctx context.Context, caller word.Address, tag string, keys any, member string, value any) error {
	return w.metrics.observe("set_member", w.setMember(ctx, caller, tag, keys, member, value))
}

func (w *World) setMember(ctx context.Context, caller word.Address, tag string, keys any, member string, value any) error {
	r, err := w.model(ctx, tag)
	if err != nil {
		return err
	}
	if err := w.authorizeWrite(ctx, r, caller); err != nil {
		return err
	}
	m, err := r.valueMember(member)
	if err != nil {
		return err
	}
	id, _, err := r.entityID(keys)
	if err != nil {
		return err
	}
	words, err := codec.Encode(m.ty, m.layout, value)
	if err != nil {
		return err
	}
	return w.store.SetWords(ctx, memberKey(r.Selector, id, m.selector), words)
}

// Member reads one value member of an entity into target.
func (w *World) Member(ctx context.Context, tag string, keys any, member string, target any) error {
	r, err := w.model(ctx, tag)
	if err != nil {
		return err
	}
	m, err := r.valueMember(member)
	if err != nil {
		return err
	}
	id, _, err := r.entityID(keys)
	if err != nil {
		return err
	}
	words, err := w.store.GetWords(ctx, memberKey(r.Selector, id, m.selector))
	if err != nil {
		return err
	}
	if len(words) == 0 {
		words = zeroWords(m.layout)
	}
	return codec.Decode(m.ty, m.layout, words, target)
}

package world

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/wippyai/wordstore"
	"github.com/wippyai/wordstore/acl"
	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/upgrade"
	"github.com/wippyai/wordstore/word"
)

var (
	recordSalt = selector.NameHash("world_record")
	indexKey   = selector.Hash(selector.NameHash("world_index"))
)

// WorldName is the name of the world record.
const WorldName = "world"

// World administers namespaces, models, their permissions and entity data
// over a word store.
type World struct {
	store    wordstore.Store
	acl      *acl.ACL
	cache    *lru.Cache[word.Word, *Resource]
	log      *zap.Logger
	metrics  *metrics
	encoding schema.Encoding
}

// New opens the world kept in store. On first use the world record is
// created with creator as its only Owner; afterwards creator is ignored.
func New(ctx context.Context, store wordstore.Store, creator word.Address, opts ...Option) (*World, error) {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}

	cache, err := lru.New[word.Word, *Resource](o.cacheSize)
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(o.registerer)
	if err != nil {
		return nil, err
	}

	w := &World{
		store:    store,
		cache:    cache,
		log:      o.logger,
		metrics:  m,
		encoding: o.encoding,
	}
	w.acl = acl.New(store, w)

	_, found, err := w.resource(ctx, acl.World)
	if err != nil {
		return nil, err
	}
	if !found {
		root, err := newResource(KindWorld, "", WorldName, nil, o.encoding, 0)
		if err != nil {
			return nil, err
		}
		if err := w.put(ctx, root); err != nil {
			return nil, err
		}
		if err := w.acl.Init(ctx, acl.World, creator); err != nil {
			return nil, err
		}
		w.log.Info("created world", zap.Stringer("owner", creator))
	}
	return w, nil
}

// Encoding returns the enum encoding used for new registrations.
func (w *World) Encoding() schema.Encoding {
	return w.encoding
}

// ACL exposes the permission evaluator.
func (w *World) ACL() *acl.ACL {
	return w.acl
}

func recordKey(id word.Word) word.Word {
	return selector.Hash(recordSalt, id)
}

func (w *World) resource(ctx context.Context, id word.Word) (*Resource, bool, error) {
	if r, ok := w.cache.Get(id); ok {
		return r, true, nil
	}
	words, err := w.store.GetWords(ctx, recordKey(id))
	if err != nil {
		return nil, false, err
	}
	if len(words) == 0 {
		return nil, false, nil
	}
	r, err := decodeRecord(words)
	if err != nil {
		return nil, false, errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "corrupt record "+id.String())
	}
	w.cache.Add(id, r)
	return r, true, nil
}

func (w *World) put(ctx context.Context, r *Resource) error {
	words, err := encodeRecord(r)
	if err != nil {
		return err
	}
	if err := w.store.SetWords(ctx, recordKey(r.Selector), words); err != nil {
		return err
	}
	w.cache.Add(r.Selector, r)
	return nil
}

func (w *World) addToIndex(ctx context.Context, id word.Word) error {
	ids, err := w.store.GetWords(ctx, indexKey)
	if err != nil {
		return err
	}
	return w.store.SetWords(ctx, indexKey, append(ids, id))
}

// Lookup resolves id for the ACL.
func (w *World) Lookup(ctx context.Context, id word.Word) (acl.Entry, bool, error) {
	r, ok, err := w.resource(ctx, id)
	if err != nil || !ok {
		return acl.Entry{}, ok, err
	}
	entry := acl.Entry{Tag: r.Tag()}
	switch r.Kind {
	case KindWorld:
		entry.Scope = acl.ScopeWorld
	case KindNamespace:
		entry.Scope = acl.ScopeNamespace
	default:
		entry.Scope = acl.ScopeResource
		entry.Namespace = r.NamespaceSelector
	}
	return entry, true, nil
}

// Resource returns the resource registered under id.
func (w *World) Resource(ctx context.Context, id word.Word) (*Resource, error) {
	r, err := w.registered(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.clone(), nil
}

func (w *World) registered(ctx context.Context, id word.Word) (*Resource, error) {
	r, ok, err := w.resource(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NotRegistered(errors.PhaseRegister, "resource "+id.String())
	}
	return r, nil
}

// ResourceByTag resolves "namespace-name" to a model, or a bare name to a
// namespace. "world" resolves to the world record.
func (w *World) ResourceByTag(ctx context.Context, tag string) (*Resource, error) {
	r, err := w.resourceByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	return r.clone(), nil
}

func (w *World) resourceByTag(ctx context.Context, tag string) (*Resource, error) {
	id, err := TagSelector(tag)
	if err != nil {
		return nil, err
	}
	r, ok, err := w.resource(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NotRegistered(errors.PhaseRegister, tag)
	}
	return r, nil
}

// TagSelector derives the selector a tag names.
func TagSelector(tag string) (word.Word, error) {
	switch {
	case tag == WorldName:
		return acl.World, nil
	case strings.Contains(tag, "-"):
		ns, name, err := selector.SplitTag(tag)
		if err != nil {
			return word.Zero, err
		}
		return selector.Resource(ns, name), nil
	default:
		if err := selector.ValidateName("namespace", tag); err != nil {
			return word.Zero, err
		}
		return selector.Namespace(tag), nil
	}
}

// Resources lists namespaces and models in registration order.
func (w *World) Resources(ctx context.Context) ([]*Resource, error) {
	ids, err := w.store.GetWords(ctx, indexKey)
	if err != nil {
		return nil, err
	}
	out := make([]*Resource, 0, len(ids))
	for _, id := range ids {
		r, err := w.registered(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r.clone())
	}
	return out, nil
}

// RegisterNamespace creates namespace with caller as its only Owner.
func (w *World) RegisterNamespace(ctx context.Context, caller word.Address, namespace string) error {
	return w.metrics.observe("register_namespace", w.registerNamespace(ctx, caller, namespace))
}

func (w *World) registerNamespace(ctx context.Context, caller word.Address, namespace string) error {
	if err := selector.ValidateName("namespace", namespace); err != nil {
		return err
	}
	if namespace == WorldName {
		return errors.AlreadyRegistered("namespace " + namespace)
	}
	id := selector.Namespace(namespace)
	if _, ok, err := w.resource(ctx, id); err != nil {
		return err
	} else if ok {
		return errors.AlreadyRegistered("namespace " + namespace)
	}

	r, err := newResource(KindNamespace, "", namespace, nil, w.encoding, 0)
	if err != nil {
		return err
	}
	if err := w.put(ctx, r); err != nil {
		return err
	}
	if err := w.addToIndex(ctx, id); err != nil {
		return err
	}
	if err := w.acl.Init(ctx, id, caller); err != nil {
		return err
	}

	w.log.Info("registered namespace",
		zap.String("namespace", namespace),
		zap.Stringer("owner", caller))
	return nil
}

// checkSelector compares the selector def reports with the derived one.
func checkSelector(namespace string, def Definition) (word.Word, error) {
	if err := selector.ValidateName("resource", def.Name()); err != nil {
		return word.Zero, err
	}
	derived := selector.Resource(namespace, def.Name())
	reported := def.Selector(selector.Namespace(namespace))
	if reported != derived {
		return word.Zero, errors.SelectorMismatch(selector.Tag(namespace, def.Name()), reported.String(), derived.String())
	}
	return derived, nil
}

// RegisterResource registers def under namespace. caller must own the
// namespace and becomes the model's only Owner.
func (w *World) RegisterResource(ctx context.Context, caller word.Address, namespace string, def Definition) (*Resource, error) {
	r, err := w.registerResource(ctx, caller, namespace, def)
	if err != nil {
		return nil, w.metrics.observe("register_resource", err)
	}
	return r.clone(), w.metrics.observe("register_resource", nil)
}

func (w *World) registerResource(ctx context.Context, caller word.Address, namespace string, def Definition) (*Resource, error) {
	if err := selector.ValidateName("namespace", namespace); err != nil {
		return nil, err
	}
	nsID := selector.Namespace(namespace)
	if _, err := w.acl.Authorize(ctx, acl.RoleOwner, nsID, caller); err != nil {
		if errors.HasKind(err, errors.KindNotRegistered) {
			return nil, errors.NotRegistered(errors.PhaseRegister, "namespace "+namespace)
		}
		return nil, err
	}

	id, err := checkSelector(namespace, def)
	if err != nil {
		return nil, err
	}
	tag := selector.Tag(namespace, def.Name())
	if _, ok, err := w.resource(ctx, id); err != nil {
		return nil, err
	} else if ok {
		return nil, errors.AlreadyRegistered("resource " + tag)
	}

	ty, err := def.Descriptor()
	if err != nil {
		return nil, err
	}
	r, err := newResource(KindModel, namespace, def.Name(), ty, w.encoding, 1)
	if err != nil {
		return nil, err
	}

	if err := w.put(ctx, r); err != nil {
		return nil, err
	}
	if err := w.addToIndex(ctx, id); err != nil {
		return nil, err
	}
	if err := w.acl.Init(ctx, id, caller); err != nil {
		return nil, err
	}

	w.log.Info("registered resource",
		zap.String("tag", tag),
		zap.Stringer("selector", id),
		zap.String("encoding", r.Encoding.String()),
		zap.Stringer("owner", caller))
	return r, nil
}

// UpgradeResource replaces the descriptor of a registered model. caller must
// own the model; the new descriptor must keep every stored value readable and
// leave the key members unchanged. The version increments on success.
func (w *World) UpgradeResource(ctx context.Context, caller word.Address, namespace string, def Definition) (*Resource, error) {
	r, err := w.upgradeResource(ctx, caller, namespace, def)
	if err != nil {
		return nil, w.metrics.observe("upgrade_resource", err)
	}
	return r.clone(), w.metrics.observe("upgrade_resource", nil)
}

func (w *World) upgradeResource(ctx context.Context, caller word.Address, namespace string, def Definition) (*Resource, error) {
	if err := selector.ValidateName("namespace", namespace); err != nil {
		return nil, err
	}
	id, err := checkSelector(namespace, def)
	if err != nil {
		return nil, err
	}
	prev, ok, err := w.resource(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok || prev.Kind != KindModel {
		return nil, errors.NotRegistered(errors.PhaseUpgrade, "resource "+selector.Tag(namespace, def.Name()))
	}
	if _, err := w.acl.Authorize(ctx, acl.RoleOwner, id, caller); err != nil {
		return nil, err
	}

	ty, err := def.Descriptor()
	if err != nil {
		return nil, err
	}
	tag := prev.Tag()
	if err := upgrade.Check(tag, prev.Schema, ty); err != nil {
		return nil, err
	}
	if err := upgrade.CheckKeys(tag, prev.Schema, ty); err != nil {
		return nil, err
	}

	next, err := newResource(KindModel, namespace, def.Name(), ty, prev.Encoding, prev.Version+1)
	if err != nil {
		return nil, err
	}
	if err := w.put(ctx, next); err != nil {
		return nil, err
	}

	w.log.Info("upgraded resource",
		zap.String("tag", tag),
		zap.Uint32("version", next.Version))
	return next, nil
}

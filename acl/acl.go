// Package acl keeps the Owner and Writer role sets of registered resources.
//
// Role sets live in the injected word store, one key per (role, resource).
// Owner lookups on a resource fall back to the Owners of its namespace and
// then to the Owners of the world (resource 0). Writer lookups fall back to
// the Writers of the namespace. Granting or revoking either role needs Owner
// authority.
package acl

import (
	"context"

	"github.com/wippyai/wordstore"
	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/word"
)

// Role names a permission set.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleWriter Role = "writer"
)

// Scope is the position of an id in the ownership hierarchy.
type Scope uint8

const (
	ScopeWorld Scope = iota
	ScopeNamespace
	ScopeResource
)

// World is the id of the world itself.
var World = word.Zero

// Entry describes a registered id.
type Entry struct {
	Tag       string
	Namespace word.Word // selector of the enclosing namespace, for ScopeResource
	Scope     Scope
}

// Registry resolves ids to their registration.
type Registry interface {
	Lookup(ctx context.Context, id word.Word) (Entry, bool, error)
}

var roleSalt = map[Role]word.Word{
	RoleOwner:  selector.NameHash("acl_owners"),
	RoleWriter: selector.NameHash("acl_writers"),
}

// ACL evaluates and mutates role sets.
type ACL struct {
	store    wordstore.Store
	registry Registry
}

// New creates an ACL over store, resolving ids through registry.
func New(store wordstore.Store, registry Registry) *ACL {
	return &ACL{store: store, registry: registry}
}

// Key returns the store key holding role's members for id.
func Key(role Role, id word.Word) word.Word {
	return selector.Hash(roleSalt[role], id)
}

// Init sets account as the only Owner of id and clears its Writers.
// It performs no authority check; registration calls it once.
func (a *ACL) Init(ctx context.Context, id word.Word, account word.Address) error {
	if err := a.store.SetWords(ctx, Key(RoleOwner, id), []word.Word{account.Word()}); err != nil {
		return err
	}
	return a.store.SetWords(ctx, Key(RoleWriter, id), nil)
}

// Members returns the accounts holding role directly on id.
func (a *ACL) Members(ctx context.Context, role Role, id word.Word) ([]word.Address, error) {
	words, err := a.store.GetWords(ctx, Key(role, id))
	if err != nil {
		return nil, err
	}
	out := make([]word.Address, len(words))
	for i, w := range words {
		out[i] = word.Address(w)
	}
	return out, nil
}

// Owners returns the direct Owners of id.
func (a *ACL) Owners(ctx context.Context, id word.Word) ([]word.Address, error) {
	return a.Members(ctx, RoleOwner, id)
}

// Writers returns the direct Writers of id.
func (a *ACL) Writers(ctx context.Context, id word.Word) ([]word.Address, error) {
	return a.Members(ctx, RoleWriter, id)
}

func (a *ACL) has(ctx context.Context, role Role, id word.Word, account word.Address) (bool, error) {
	words, err := a.store.GetWords(ctx, Key(role, id))
	if err != nil {
		return false, err
	}
	for _, w := range words {
		if w == account.Word() {
			return true, nil
		}
	}
	return false, nil
}

// IsOwner reports whether account owns id directly, through its namespace,
// or as a world Owner. Unregistered ids have no Owners.
func (a *ACL) IsOwner(ctx context.Context, id word.Word, account word.Address) (bool, error) {
	entry, ok, err := a.registry.Lookup(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	return a.isOwner(ctx, id, entry, account)
}

func (a *ACL) isOwner(ctx context.Context, id word.Word, entry Entry, account word.Address) (bool, error) {
	chain := []word.Word{id}
	switch entry.Scope {
	case ScopeResource:
		chain = append(chain, entry.Namespace, World)
	case ScopeNamespace:
		chain = append(chain, World)
	}
	for _, c := range chain {
		ok, err := a.has(ctx, RoleOwner, c, account)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// IsWriter reports whether account is a Writer of id or of its namespace.
func (a *ACL) IsWriter(ctx context.Context, id word.Word, account word.Address) (bool, error) {
	entry, ok, err := a.registry.Lookup(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	return a.isWriter(ctx, id, entry, account)
}

func (a *ACL) isWriter(ctx context.Context, id word.Word, entry Entry, account word.Address) (bool, error) {
	ok, err := a.has(ctx, RoleWriter, id, account)
	if err != nil || ok || entry.Scope != ScopeResource {
		return ok, err
	}
	return a.has(ctx, RoleWriter, entry.Namespace, account)
}

// CanWrite reports whether account may mutate data stored under id.
func (a *ACL) CanWrite(ctx context.Context, id word.Word, account word.Address) (bool, error) {
	entry, ok, err := a.registry.Lookup(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	w, err := a.isWriter(ctx, id, entry, account)
	if err != nil || w {
		return w, err
	}
	return a.isOwner(ctx, id, entry, account)
}

// Authorize resolves id and checks that caller holds role on it.
func (a *ACL) Authorize(ctx context.Context, role Role, id word.Word, caller word.Address) (Entry, error) {
	entry, ok, err := a.registry.Lookup(ctx, id)
	if err != nil {
		return entry, err
	}
	if !ok {
		return entry, errors.NotRegistered(errors.PhaseACL, "resource "+id.String())
	}

	var allowed bool
	switch role {
	case RoleOwner:
		allowed, err = a.isOwner(ctx, id, entry, caller)
	default:
		allowed, err = a.isWriter(ctx, id, entry, caller)
		if err == nil && !allowed {
			allowed, err = a.isOwner(ctx, id, entry, caller)
		}
	}
	if err != nil {
		return entry, err
	}
	if !allowed {
		return entry, errors.NotAuthorized(string(role), entry.Tag, caller.String())
	}
	return entry, nil
}

// GrantOwner makes account an Owner of id. caller must be an Owner.
func (a *ACL) GrantOwner(ctx context.Context, caller word.Address, id word.Word, account word.Address) error {
	return a.mutate(ctx, caller, RoleOwner, id, account, true)
}

// RevokeOwner removes account from the Owners of id. caller must be an Owner.
func (a *ACL) RevokeOwner(ctx context.Context, caller word.Address, id word.Word, account word.Address) error {
	return a.mutate(ctx, caller, RoleOwner, id, account, false)
}

// GrantWriter makes account a Writer of id. caller must be an Owner.
func (a *ACL) GrantWriter(ctx context.Context, caller word.Address, id word.Word, account word.Address) error {
	return a.mutate(ctx, caller, RoleWriter, id, account, true)
}

// RevokeWriter removes account from the Writers of id. caller must be an Owner.
func (a *ACL) RevokeWriter(ctx context.Context, caller word.Address, id word.Word, account word.Address) error {
	return a.mutate(ctx, caller, RoleWriter, id, account, false)
}

func (a *ACL) mutate(ctx context.Context, caller word.Address, role Role, id word.Word, account word.Address, grant bool) error {
	if _, err := a.Authorize(ctx, RoleOwner, id, caller); err != nil {
		return err
	}

	key := Key(role, id)
	words, err := a.store.GetWords(ctx, key)
	if err != nil {
		return err
	}

	idx := -1
	for i, w := range words {
		if w == account.Word() {
			idx = i
			break
		}
	}

	switch {
	case grant && idx < 0:
		words = append(words, account.Word())
	case !grant && idx >= 0:
		words = append(words[:idx], words[idx+1:]...)
	default:
		return nil
	}
	return a.store.SetWords(ctx, key, words)
}

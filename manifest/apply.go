package manifest

import (
	"context"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/word"
	"github.com/wippyai/wordstore/world"
)

// Report lists what Apply changed, by tag.
type Report struct {
	Namespaces []string
	Registered []string
	Upgraded   []string
	Unchanged  []string
}

// Apply brings w in line with the manifest on behalf of caller: missing
// namespaces and models are registered, models whose descriptor changed are
// upgraded, and the listed Owners and Writers are granted. Applying the same
// manifest twice changes nothing. Apply stops at the first error; the report
// covers what was done before it.
func (m *Manifest) Apply(ctx context.Context, w *world.World, caller word.Address) (*Report, error) {
	models, err := m.Resources()
	if err != nil {
		return nil, err
	}
	rep := &Report{}

	for _, ns := range m.Namespaces {
		_, err := w.ResourceByTag(ctx, ns.Name)
		switch {
		case errors.HasKind(err, errors.KindNotRegistered):
			if err := w.RegisterNamespace(ctx, caller, ns.Name); err != nil {
				return rep, err
			}
			rep.Namespaces = append(rep.Namespaces, ns.Name)
		case err != nil:
			return rep, err
		}
		if err := grant(ctx, w, caller, selector.Namespace(ns.Name), accounts(ns.Owners), accounts(ns.Writers)); err != nil {
			return rep, err
		}
	}

	for _, mod := range models {
		def := world.NewDefinition(mod.Name, mod.Ty)
		tag := mod.Tag()

		existing, err := w.ResourceByTag(ctx, tag)
		switch {
		case errors.HasKind(err, errors.KindNotRegistered):
			if _, err := w.RegisterResource(ctx, caller, mod.Namespace, def); err != nil {
				return rep, err
			}
			rep.Registered = append(rep.Registered, tag)
		case err != nil:
			return rep, err
		case schema.Equal(existing.Schema, mod.Ty):
			rep.Unchanged = append(rep.Unchanged, tag)
		default:
			if _, err := w.UpgradeResource(ctx, caller, mod.Namespace, def); err != nil {
				return rep, err
			}
			rep.Upgraded = append(rep.Upgraded, tag)
		}

		id := selector.Resource(mod.Namespace, mod.Name)
		if err := grant(ctx, w, caller, id, mod.Owners, mod.Writers); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// grant adds the accounts that are not yet direct members of each role.
func grant(ctx context.Context, w *world.World, caller word.Address, id word.Word, owners, writers []word.Address) error {
	current, err := w.Owners(ctx, id)
	if err != nil {
		return err
	}
	for _, a := range owners {
		if contains(current, a) {
			continue
		}
		if err := w.GrantOwner(ctx, caller, id, a); err != nil {
			return err
		}
	}

	current, err = w.Writers(ctx, id)
	if err != nil {
		return err
	}
	for _, a := range writers {
		if contains(current, a) {
			continue
		}
		if err := w.GrantWriter(ctx, caller, id, a); err != nil {
			return err
		}
	}
	return nil
}

func contains(list []word.Address, a word.Address) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

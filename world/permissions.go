package world

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wordstore/word"
)

// IsOwner reports whether account owns id, directly or through its
// namespace or the world.
func (w *World) IsOwner(ctx context.Context, id word.Word, account word.Address) (bool, error) {
	return w.acl.IsOwner(ctx, id, account)
}

// IsWriter reports whether account writes id, directly or through its namespace.
func (w *World) IsWriter(ctx context.Context, id word.Word, account word.Address) (bool, error) {
	return w.acl.IsWriter(ctx, id, account)
}

// CanWrite reports whether account may change entity data under id.
func (w *World) CanWrite(ctx context.Context, id word.Word, account word.Address) (bool, error) {
	return w.acl.CanWrite(ctx, id, account)
}

// Owners returns the direct Owners of id.
func (w *World) Owners(ctx context.Context, id word.Word) ([]word.Address, error) {
	return w.acl.Owners(ctx, id)
}

// Writers returns the direct Writers of id.
func (w *World) Writers(ctx context.Context, id word.Word) ([]word.Address, error) {
	return w.acl.Writers(ctx, id)
}

func (w *World) logGrant(op string, id word.Word, caller, account word.Address, err error) error {
	if err == nil {
		w.log.Info(op,
			zap.Stringer("resource", id),
			zap.Stringer("caller", caller),
			zap.Stringer("account", account))
	}
	return w.metrics.observe(op, err)
}

// GrantOwner makes account an Owner of id.
func (w *World) GrantOwner(ctx context.Context, caller word.Address, id word.Word, account word.Address) error {
	return w.logGrant("grant_owner", id, caller, account, w.acl.GrantOwner(ctx, caller, id, account))
}

// RevokeOwner removes account from the Owners of id.
func (w *World) RevokeOwner(ctx context.Context, caller word.Address, id word.Word, account word.Address) error {
	return w.logGrant("revoke_owner", id, caller, account, w.acl.RevokeOwner(ctx, caller, id, account))
}

// GrantWriter makes account a Writer of id.
func (w *World) GrantWriter(ctx context.Context, caller word.Address, id word.Word, account word.Address) error {
	return w.logGrant("grant_writer", id, caller, account, w.acl.GrantWriter(ctx, caller, id, account))
}

// RevokeWriter removes account from the Writers of id.
func (w *World) RevokeWriter(ctx context.Context, caller word.Address, id word.Word, account word.Address) error {
	return w.logGrant("revoke_writer", id, caller, account, w.acl.RevokeWriter(ctx, caller, id, account))
}

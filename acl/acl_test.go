package acl

import (
	"context"
	"errors"
	"strings"
	"testing"

	wserr "github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/store/memstore"
	"github.com/wippyai/wordstore/word"
)

type mapRegistry map[word.Word]Entry

func (r mapRegistry) Lookup(_ context.Context, id word.Word) (Entry, bool, error) {
	e, ok := r[id]
	return e, ok, nil
}

var (
	admin = word.Address(word.FromUint64(0xad))
	alice = word.Address(word.FromUint64(0xa1))
	bob   = word.Address(word.FromUint64(0xb0))
	carol = word.Address(word.FromUint64(0xc0))

	nsID  = selector.Namespace("game")
	resID = selector.Resource("game", "Position")
)

// newFixture registers the world (admin), namespace game (alice) and
// resource game-Position (bob).
func newFixture(t *testing.T) *ACL {
	t.Helper()
	reg := mapRegistry{
		World: {Tag: "world", Scope: ScopeWorld},
		nsID:  {Tag: "game", Scope: ScopeNamespace},
		resID: {Tag: "game-Position", Scope: ScopeResource, Namespace: nsID},
	}
	a := New(memstore.New(), reg)
	ctx := context.Background()
	for id, owner := range map[word.Word]word.Address{World: admin, nsID: alice, resID: bob} {
		if err := a.Init(ctx, id, owner); err != nil {
			t.Fatal(err)
		}
	}
	return a
}

func mustBool(t *testing.T, got bool, err error) bool {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestInitSingleOwnerNoWriters(t *testing.T) {
	a := newFixture(t)
	ctx := context.Background()

	owners, err := a.Owners(ctx, resID)
	if err != nil {
		t.Fatal(err)
	}
	if len(owners) != 1 || owners[0] != bob {
		t.Fatalf("Owners = %v, want [bob]", owners)
	}
	writers, _ := a.Writers(ctx, resID)
	if len(writers) != 0 {
		t.Fatalf("Writers = %v, want none", writers)
	}
}

func TestOwnerFallback(t *testing.T) {
	a := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		id      word.Word
		account word.Address
		want    bool
	}{
		{"direct owner", resID, bob, true},
		{"namespace owner", resID, alice, true},
		{"world owner", resID, admin, true},
		{"stranger", resID, carol, false},
		{"namespace owner of namespace", nsID, alice, true},
		{"resource owner is not namespace owner", nsID, bob, false},
		{"world owner of namespace", nsID, admin, true},
		{"world", World, admin, true},
		{"namespace owner of world", World, alice, false},
		{"unregistered", selector.Resource("game", "Missing"), admin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustBool(t, a.IsOwner(ctx, tt.id, tt.account)); got != tt.want {
				t.Errorf("IsOwner = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrantWriterRequiresOwner(t *testing.T) {
	a := newFixture(t)
	ctx := context.Background()

	err := a.GrantWriter(ctx, carol, resID, carol)
	if !errors.Is(err, wserr.Sentinel(wserr.KindNotAuthorized)) {
		t.Fatalf("GrantWriter by stranger = %v, want not_authorized", err)
	}
	if !strings.Contains(err.Error(), "owner") || !strings.Contains(err.Error(), "game-Position") {
		t.Errorf("error %q should name the role and the tag", err)
	}

	if err := a.GrantWriter(ctx, bob, resID, carol); err != nil {
		t.Fatal(err)
	}
	if !mustBool(t, a.IsWriter(ctx, resID, carol)) {
		t.Fatal("carol should be a writer")
	}

	// Writer authority does not extend to granting
	err = a.GrantWriter(ctx, carol, resID, admin)
	if !errors.Is(err, wserr.Sentinel(wserr.KindNotAuthorized)) {
		t.Fatalf("GrantWriter by writer = %v, want not_authorized", err)
	}
}

func TestOwnerHandOver(t *testing.T) {
	a := newFixture(t)
	ctx := context.Background()

	if err := a.GrantOwner(ctx, bob, resID, carol); err != nil {
		t.Fatal(err)
	}
	if !mustBool(t, a.IsOwner(ctx, resID, bob)) || !mustBool(t, a.IsOwner(ctx, resID, carol)) {
		t.Fatal("both bob and carol should own the resource")
	}

	if err := a.RevokeOwner(ctx, carol, resID, bob); err != nil {
		t.Fatal(err)
	}
	if mustBool(t, a.IsOwner(ctx, resID, bob)) {
		t.Fatal("bob should no longer own the resource")
	}
	owners, _ := a.Owners(ctx, resID)
	if len(owners) != 1 || owners[0] != carol {
		t.Fatalf("Owners = %v, want [carol]", owners)
	}
}

func TestGrantIsIdempotent(t *testing.T) {
	a := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := a.GrantWriter(ctx, bob, resID, carol); err != nil {
			t.Fatal(err)
		}
	}
	writers, _ := a.Writers(ctx, resID)
	if len(writers) != 1 {
		t.Fatalf("Writers = %v, want one entry", writers)
	}
	if err := a.RevokeWriter(ctx, bob, resID, admin); err != nil {
		t.Fatalf("revoking a non-member should succeed: %v", err)
	}
}

func TestNamespaceWriterFallback(t *testing.T) {
	a := newFixture(t)
	ctx := context.Background()

	if err := a.GrantWriter(ctx, alice, nsID, carol); err != nil {
		t.Fatal(err)
	}
	if !mustBool(t, a.IsWriter(ctx, resID, carol)) {
		t.Error("namespace writer should write every resource under it")
	}
	if !mustBool(t, a.CanWrite(ctx, resID, carol)) {
		t.Error("CanWrite should accept a namespace writer")
	}
	if mustBool(t, a.IsOwner(ctx, resID, carol)) {
		t.Error("writer must not become owner")
	}
}

func TestCanWrite(t *testing.T) {
	a := newFixture(t)
	ctx := context.Background()

	for _, acc := range []word.Address{bob, alice, admin} {
		if !mustBool(t, a.CanWrite(ctx, resID, acc)) {
			t.Errorf("owner %s should be able to write", acc)
		}
	}
	if mustBool(t, a.CanWrite(ctx, resID, carol)) {
		t.Error("stranger should not be able to write")
	}

	if _, err := a.Authorize(ctx, RoleWriter, resID, carol); !errors.Is(err, wserr.Sentinel(wserr.KindNotAuthorized)) {
		t.Errorf("Authorize(writer) = %v, want not_authorized", err)
	}
	entry, err := a.Authorize(ctx, RoleWriter, resID, alice)
	if err != nil || entry.Tag != "game-Position" {
		t.Errorf("Authorize(writer) = %+v, %v", entry, err)
	}
}

func TestUnregisteredMutation(t *testing.T) {
	a := newFixture(t)
	ctx := context.Background()
	missing := selector.Resource("game", "Missing")

	mutations := map[string]func() error{
		"GrantOwner":   func() error { return a.GrantOwner(ctx, admin, missing, carol) },
		"RevokeOwner":  func() error { return a.RevokeOwner(ctx, admin, missing, carol) },
		"GrantWriter":  func() error { return a.GrantWriter(ctx, admin, missing, carol) },
		"RevokeWriter": func() error { return a.RevokeWriter(ctx, admin, missing, carol) },
	}
	for name, fn := range mutations {
		t.Run(name, func(t *testing.T) {
			if err := fn(); !errors.Is(err, wserr.Sentinel(wserr.KindNotRegistered)) {
				t.Errorf("error = %v, want not_registered", err)
			}
		})
	}

	owners, _ := a.Owners(ctx, missing)
	if len(owners) != 0 {
		t.Errorf("failed grant materialized owners: %v", owners)
	}
}

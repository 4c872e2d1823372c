package upgrade

import (
	"errors"
	"strings"
	"testing"

	wserr "github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/word"
)

func u8() *schema.Ty  { return schema.Prim(schema.U8) }
func u16() *schema.Ty { return schema.Prim(schema.U16) }
func u32() *schema.Ty { return schema.Prim(schema.U32) }

func moves(extra ...schema.Member) *schema.Ty {
	members := []schema.Member{
		schema.KeyField("player", schema.Prim(schema.ContractAddress)),
		schema.Field("remaining", u8()),
		schema.Field("last", schema.Option(u8())),
		schema.Field("history", schema.Array(u32())),
	}
	return schema.Struct("Moves", append(members, extra...)...)
}

func direction(variants ...schema.Variant) *schema.Ty {
	base := []schema.Variant{
		schema.Case("None", nil),
		schema.Case("Left", nil),
		schema.Case("Jump", schema.Struct("Jump", schema.Field("height", u8()))),
	}
	return schema.Enum("Direction", append(base, variants...)...)
}

func wantReason(t *testing.T, err error, want Reason) {
	t.Helper()
	if !errors.Is(err, wserr.Sentinel(wserr.KindIncompatibleUpgrade)) {
		t.Fatalf("error = %v, want incompatible_upgrade", err)
	}
	got, ok := ReasonOf(err)
	if !ok || got != want {
		t.Fatalf("reason = %q, want %q (%v)", got, want, err)
	}
}

func TestStructAppendAccepted(t *testing.T) {
	prev := moves()
	for _, next := range []*schema.Ty{
		moves(),
		moves(schema.Field("can_move", schema.Prim(schema.Bool))),
		moves(schema.Field("a", u8()), schema.Field("b", schema.ByteArray())),
	} {
		if err := Check("game-Moves", prev, next); err != nil {
			t.Errorf("Check(%s) = %v", next, err)
		}
	}
}

func TestStructRejections(t *testing.T) {
	prev := moves()

	removed := schema.Struct("Moves", prev.Members[0], prev.Members[1], prev.Members[2])
	reordered := schema.Struct("Moves", prev.Members[0], prev.Members[2], prev.Members[1], prev.Members[3])
	retyped := schema.Struct("Moves", prev.Members[0], schema.Field("remaining", u16()), prev.Members[2], prev.Members[3])
	renamed := schema.Struct("Moves", prev.Members[0], schema.Field("left", u8()), prev.Members[2], prev.Members[3])
	elem := schema.Struct("Moves", prev.Members[0], prev.Members[1], prev.Members[2], schema.Field("history", schema.Array(u8())))
	inserted := schema.Struct("Moves", prev.Members[0], schema.Field("x", u8()), prev.Members[1], prev.Members[2], prev.Members[3])

	tests := []struct {
		name string
		next *schema.Ty
		want Reason
		path string
	}{
		{"removed", removed, MemberRemoved, "history"},
		{"reordered", reordered, MemberReordered, "remaining"},
		{"retyped", retyped, TypeChanged, "remaining"},
		{"renamed", renamed, MemberRemoved, "remaining"},
		{"array element", elem, TypeChanged, "history"},
		{"inserted", inserted, MemberReordered, "remaining"},
		{"kind", schema.Tuple(u8()), KindChanged, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check("game-Moves", prev, tt.next)
			wantReason(t, err, tt.want)
			if !strings.Contains(err.Error(), "game-Moves") {
				t.Errorf("error %q should name the tag", err)
			}
			var e *wserr.Error
			errors.As(err, &e)
			if got := strings.Join(e.Path, "."); got != tt.path {
				t.Errorf("path = %q, want %q", got, tt.path)
			}
		})
	}
}

func TestEnumRules(t *testing.T) {
	prev := direction()

	t.Run("append variant", func(t *testing.T) {
		if err := Check("game-Direction", prev, direction(schema.Case("Right", nil))); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("payload grows", func(t *testing.T) {
		next := schema.Enum("Direction",
			schema.Case("None", nil),
			schema.Case("Left", nil),
			schema.Case("Jump", schema.Struct("Jump", schema.Field("height", u8()), schema.Field("speed", u8()))),
		)
		if err := Check("game-Direction", prev, next); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("payload retyped", func(t *testing.T) {
		next := schema.Enum("Direction",
			schema.Case("None", nil),
			schema.Case("Left", nil),
			schema.Case("Jump", schema.Struct("Jump", schema.Field("height", u32()))),
		)
		wantReason(t, Check("game-Direction", prev, next), TypeChanged)
	})

	t.Run("unit gains payload", func(t *testing.T) {
		next := schema.Enum("Direction",
			schema.Case("None", nil),
			schema.Case("Left", u8()),
			prev.Variants[2],
		)
		wantReason(t, Check("game-Direction", prev, next), KindChanged)
	})

	t.Run("variant removed", func(t *testing.T) {
		next := schema.Enum("Direction", prev.Variants[0], prev.Variants[1])
		wantReason(t, Check("game-Direction", prev, next), VariantRemoved)
	})

	t.Run("variant reordered", func(t *testing.T) {
		next := schema.Enum("Direction", prev.Variants[1], prev.Variants[0], prev.Variants[2])
		wantReason(t, Check("game-Direction", prev, next), VariantReordered)
	})
}

func TestTupleAndPrimitive(t *testing.T) {
	prev := schema.Tuple(u8(), direction())

	if err := Check("t", prev, schema.Tuple(u8(), direction(schema.Case("Up", nil)))); err != nil {
		t.Errorf("tuple with grown enum item: %v", err)
	}
	wantReason(t, Check("t", prev, schema.Tuple(u8())), TypeChanged)
	wantReason(t, Check("t", prev, schema.Tuple(u16(), direction())), TypeChanged)
	wantReason(t, Check("t", u8(), u16()), TypeChanged)
	wantReason(t, Check("t", u8(), schema.ByteArray()), KindChanged)
}

func TestMonotonicity(t *testing.T) {
	base := moves()
	n := len(base.Members)

	for i := 1; i < n; i++ {
		var dropped []schema.Member
		dropped = append(dropped, base.Members[:i]...)
		dropped = append(dropped, base.Members[i+1:]...)
		if err := Check("m", base, schema.Struct("Moves", dropped...)); err == nil {
			t.Errorf("dropping member %d was accepted", i)
		}

		retyped := append([]schema.Member{}, base.Members...)
		retyped[i] = schema.Field(retyped[i].Name, schema.Prim(schema.I64))
		if err := Check("m", base, schema.Struct("Moves", retyped...)); err == nil {
			t.Errorf("retyping member %d was accepted", i)
		}
	}
	for i := 1; i+1 < n; i++ {
		swapped := append([]schema.Member{}, base.Members...)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
		if err := Check("m", base, schema.Struct("Moves", swapped...)); err == nil {
			t.Errorf("swapping members %d and %d was accepted", i, i+1)
		}
	}
	if err := Check("m", base, moves(schema.Field("extra", u8()))); err != nil {
		t.Errorf("appending a member was rejected: %v", err)
	}
}

func TestCheckKeys(t *testing.T) {
	prev := moves()
	if err := CheckKeys("m", prev, moves(schema.Field("x", u8()))); err != nil {
		t.Fatal(err)
	}
	withKey := moves(schema.KeyField("round", u32()))
	wantReason(t, CheckKeys("m", prev, withKey), KeyChanged)

	retyped := schema.Struct("Moves", schema.KeyField("player", u32()), prev.Members[1])
	wantReason(t, CheckKeys("m", prev, retyped), KeyChanged)
}

func TestDiffLayouts(t *testing.T) {
	sel := word.FromUint64(7)
	prev := schema.StructLayout(
		schema.FieldLayout{Selector: sel, Layout: schema.Fixed(8)},
		schema.FieldLayout{Selector: word.FromUint64(8), Layout: schema.TupleLayout(schema.Fixed(16), schema.ArrayLayout(schema.Fixed(32)))},
	)

	tests := []struct {
		name string
		next *schema.Layout
		ok   bool
	}{
		{"same", prev.Clone(), true},
		{"appended", schema.StructLayout(append(prev.Clone().Fields, schema.FieldLayout{Selector: word.FromUint64(9), Layout: schema.ByteArrayLayout()})...), true},
		{"width changed", schema.StructLayout(
			schema.FieldLayout{Selector: sel, Layout: schema.Fixed(16)},
			prev.Fields[1],
		), false},
		{"nested width changed", schema.StructLayout(
			prev.Fields[0],
			schema.FieldLayout{Selector: word.FromUint64(8), Layout: schema.TupleLayout(schema.Fixed(16), schema.ArrayLayout(schema.Fixed(64)))},
		), false},
		{"selector changed", schema.StructLayout(
			schema.FieldLayout{Selector: word.FromUint64(1), Layout: schema.Fixed(8)},
			prev.Fields[1],
		), false},
		{"field dropped", schema.StructLayout(prev.Fields[0]), false},
		{"kind changed", schema.Fixed(8), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := DiffLayouts(prev, tt.next); ok != tt.ok {
				t.Errorf("DiffLayouts ok = %v, want %v", ok, tt.ok)
			}
		})
	}
}

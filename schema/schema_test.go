package schema

import (
	"errors"
	"testing"

	wserr "github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/word"
)

func position() *Ty {
	return Struct("Position",
		KeyField("player", Prim(ContractAddress)),
		Field("vec", Tuple(Prim(U32), Prim(U32))),
		Field("label", ByteArray()),
	)
}

func direction() *Ty {
	return Enum("Direction",
		Case("None", nil),
		Case("Left", nil),
		Case("Jump", Prim(U8)),
	)
}

func TestTyString(t *testing.T) {
	tests := []struct {
		ty   *Ty
		want string
	}{
		{Prim(U32), "u32"},
		{Prim(Felt252), "felt252"},
		{Array(Prim(U8)), "Array<u8>"},
		{Tuple(Prim(U8), Prim(I16)), "(u8, i16)"},
		{Unit(), "()"},
		{Option(Prim(U64)), "Option<u64>"},
		{ByteArray(), "ByteArray"},
		{position(), "Position"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.ty.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrimitiveWidths(t *testing.T) {
	tests := []struct {
		p    Primitive
		want []uint32
	}{
		{Bool, []uint32{1}},
		{U8, []uint32{8}},
		{I64, []uint32{64}},
		{U128, []uint32{128}},
		{U256, []uint32{128, 128}},
		{Felt252, []uint32{251}},
		{ClassHash, []uint32{251}},
		{ContractAddress, []uint32{251}},
		{EthAddress, []uint32{160}},
	}
	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			got := tt.p.Widths()
			if len(got) != len(tt.want) {
				t.Fatalf("Widths() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Widths() = %v, want %v", got, tt.want)
				}
			}
		})
	}
	if p, ok := ParsePrimitive("ContractAddress"); !ok || p != ContractAddress {
		t.Errorf("ParsePrimitive = %v, %v", p, ok)
	}
	if _, ok := ParsePrimitive("f32"); ok {
		t.Error("f32 should not parse")
	}
}

func TestTyEqual(t *testing.T) {
	if !Equal(position(), position()) {
		t.Error("identical structs should be equal")
	}
	changed := position()
	changed.Members[1].Ty = Tuple(Prim(U32), Prim(U64))
	if Equal(position(), changed) {
		t.Error("retyped member should differ")
	}
	unkeyed := position()
	unkeyed.Members[0].Key = false
	if Equal(position(), unkeyed) {
		t.Error("key flag should matter")
	}
	if Equal(direction(), Enum("Direction", Case("None", nil))) {
		t.Error("variant count should matter")
	}
	if !Option(Prim(U8)).IsOption() {
		t.Error("Option should report IsOption")
	}
}

func TestKeysAndValues(t *testing.T) {
	p := position()
	if len(p.Keys()) != 1 || p.Keys()[0].Name != "player" {
		t.Errorf("Keys() = %+v", p.Keys())
	}
	if len(p.Values()) != 2 {
		t.Errorf("Values() = %+v", p.Values())
	}
	if _, i, ok := p.MemberByName("label"); !ok || i != 2 {
		t.Errorf("MemberByName = %d, %v", i, ok)
	}
	if _, i, ok := direction().VariantByName("Jump"); !ok || i != 2 {
		t.Errorf("VariantByName = %d, %v", i, ok)
	}
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name    string
		layout  *Layout
		wantErr bool
	}{
		{"fixed ok", Fixed(1, 251), false},
		{"empty fixed", Fixed(), false},
		{"zero width", Fixed(0), true},
		{"too wide", Fixed(252), true},
		{"nested bad", StructLayout(FieldLayout{Layout: TupleLayout(Fixed(8), Fixed(300))}), true},
		{"array bad", ArrayLayout(Fixed(0)), true},
		{"bytearray", ByteArrayLayout(), false},
		{"nil elem", ArrayLayout(nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, wserr.Sentinel(wserr.KindInvalidLayout)) {
				t.Errorf("error kind = %v, want invalid_layout", err)
			}
		})
	}
}

func nativeEnum() *Layout {
	return EnumLayout(
		FieldLayout{Selector: word.FromUint64(1), Layout: Fixed(8)},
		FieldLayout{Selector: word.FromUint64(2), Layout: StructLayout(
			FieldLayout{Selector: word.FromUint64(99), Layout: EnumLayout(
				FieldLayout{Selector: word.FromUint64(7), Layout: Fixed()},
				FieldLayout{Selector: word.FromUint64(9), Layout: ArrayLayout(EnumLayout(
					FieldLayout{Selector: word.FromUint64(5), Layout: ByteArrayLayout()},
				))},
			)},
		)},
	)
}

func TestNormalizeLegacy(t *testing.T) {
	in := nativeEnum()
	before := in.String()
	got := NormalizeLegacy(in)

	if in.String() != before {
		t.Error("NormalizeLegacy modified its input")
	}
	if got.Fields[0].Selector != word.FromUint64(0) || got.Fields[1].Selector != word.FromUint64(1) {
		t.Errorf("top-level selectors = %s, %s", got.Fields[0].Selector, got.Fields[1].Selector)
	}
	inner := got.Fields[1].Layout
	if inner.Fields[0].Selector != word.FromUint64(99) {
		t.Error("struct selectors must pass through")
	}
	nested := inner.Fields[0].Layout
	if nested.Fields[0].Selector != word.FromUint64(0) || nested.Fields[1].Selector != word.FromUint64(1) {
		t.Error("nested enum not normalized")
	}
	deep := nested.Fields[1].Layout.Elem
	if deep.Fields[0].Selector != word.FromUint64(0) {
		t.Error("enum inside array not normalized")
	}
}

func TestNormalizeLegacyIdempotent(t *testing.T) {
	layouts := []*Layout{
		nativeEnum(),
		Fixed(8, 16),
		ByteArrayLayout(),
		TupleLayout(nativeEnum(), ArrayLayout(nativeEnum())),
	}
	for _, l := range layouts {
		once := NormalizeLegacy(l)
		twice := NormalizeLegacy(once)
		if !LayoutEqual(once, twice) {
			t.Errorf("not idempotent:\n once  %s\n twice %s", once, twice)
		}
	}
}

func TestLayoutIsStatic(t *testing.T) {
	if !TupleLayout(Fixed(8), EnumLayout(FieldLayout{Layout: Fixed()})).IsStatic() {
		t.Error("fixed tuple should be static")
	}
	if StructLayout(FieldLayout{Layout: ByteArrayLayout()}).IsStatic() {
		t.Error("byte array should be dynamic")
	}
	if ArrayLayout(Fixed(8)).IsStatic() {
		t.Error("array should be dynamic")
	}
}

func TestLayoutString(t *testing.T) {
	l := TupleLayout(Fixed(8, 16), ArrayLayout(ByteArrayLayout()))
	want := "Tuple([Fixed([8,16]), Array(ByteArray)])"
	if l.String() != want {
		t.Errorf("String() = %q, want %q", l.String(), want)
	}
}

func TestEncodingSelectors(t *testing.T) {
	if EncodingLegacy.VariantSelector(0) != word.FromUint64(0) {
		t.Error("legacy index 0 should be 0")
	}
	if EncodingNative.VariantSelector(0) != word.FromUint64(1) {
		t.Error("native index 0 should be 1")
	}
	if e, err := ParseEncoding("native"); err != nil || e != EncodingNative {
		t.Errorf("ParseEncoding = %v, %v", e, err)
	}
	if _, err := ParseEncoding("v3"); err == nil {
		t.Error("expected unknown encoding error")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	tys := []*Ty{
		Prim(Bool),
		position(),
		direction(),
		Array(Option(Prim(I128))),
		Tuple(),
		&Ty{Kind: KindStruct, Name: "Tagged", Attrs: []string{"dojo::model"}, Members: []Member{
			{Name: "id", Key: true, Ty: Prim(U32), Attrs: []string{"key"}},
			{Name: "dir", Ty: direction()},
		}},
	}
	for _, ty := range tys {
		t.Run(ty.String(), func(t *testing.T) {
			words := ToWords(ty)
			extra := append(append([]word.Word{}, words...), word.FromUint64(77))
			got, n, err := FromWords(extra)
			if err != nil {
				t.Fatal(err)
			}
			if n != len(words) {
				t.Errorf("consumed %d, want %d", n, len(words))
			}
			if !Equal(got, ty) {
				t.Errorf("round trip = %s, want %s", got, ty)
			}
		})
	}
}

func TestFromWordsErrors(t *testing.T) {
	tests := []struct {
		name  string
		words []word.Word
	}{
		{"empty", nil},
		{"unknown tag", word.Words(9)},
		{"unknown primitive", word.Words(0, 200)},
		{"truncated tuple", word.Words(3, 2, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := FromWords(tt.words); err == nil {
				t.Error("expected error")
			}
		})
	}
}

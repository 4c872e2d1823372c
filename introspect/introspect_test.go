package introspect

import (
	"errors"
	"reflect"
	"testing"

	"go.bytecodealliance.org/wit"

	wserr "github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/word"
)

type Vec2 struct {
	X uint32
	Y uint32
}

type Position struct {
	Player word.Address `store:"player,key"`
	Vec    Vec2         `store:"vec"`
}

type Direction struct {
	schema.VariantMarker
	None  *struct{}
	Left  *struct{}
	Right *struct{}
	Jump  *uint8
}

type Pair struct {
	schema.TupleMarker
	A uint8
	B int16
}

type Moves struct {
	Player    word.Address `store:"player,key"`
	Remaining uint8
	LastDir   *Direction
	History   []Direction
	Name      string
	Ignored   int `store:"-"`
	hidden    int
}

type Node struct {
	Value uint8
	Next  *Node
}

type (
	Chain  []Chain
	Cursor *Cursor
	Ring   [2]*Ring
)

func TestDescriptorPrimitives(t *testing.T) {
	tests := []struct {
		goType reflect.Type
		want   schema.Primitive
	}{
		{reflect.TypeOf(true), schema.Bool},
		{reflect.TypeOf(uint8(0)), schema.U8},
		{reflect.TypeOf(uint16(0)), schema.U16},
		{reflect.TypeOf(uint32(0)), schema.U32},
		{reflect.TypeOf(uint64(0)), schema.U64},
		{reflect.TypeOf(uint(0)), schema.U64},
		{reflect.TypeOf(int8(0)), schema.I8},
		{reflect.TypeOf(int(0)), schema.I64},
		{reflect.TypeOf(word.U128{}), schema.U128},
		{reflect.TypeOf(word.I128{}), schema.I128},
		{reflect.TypeOf(word.U256{}), schema.U256},
		{reflect.TypeOf(word.Word{}), schema.Felt252},
		{reflect.TypeOf(word.Address{}), schema.ContractAddress},
		{reflect.TypeOf(word.ClassHash{}), schema.ClassHash},
		{reflect.TypeOf(word.EthAddress{}), schema.EthAddress},
	}

	c := NewCompiler()
	for _, tt := range tests {
		t.Run(tt.goType.String(), func(t *testing.T) {
			ty, err := c.Descriptor(tt.goType)
			if err != nil {
				t.Fatal(err)
			}
			if ty.Kind != schema.KindPrimitive || ty.Primitive != tt.want {
				t.Errorf("got %s, want %s", ty, tt.want)
			}
		})
	}
}

func TestDescriptorComposite(t *testing.T) {
	ty, err := DescriptorOf[Moves]()
	if err != nil {
		t.Fatal(err)
	}

	want := schema.Struct("Moves",
		schema.KeyField("player", schema.Prim(schema.ContractAddress)),
		schema.Field("Remaining", schema.Prim(schema.U8)),
		schema.Field("LastDir", schema.Option(directionTy())),
		schema.Field("History", schema.Array(directionTy())),
		schema.Field("Name", schema.ByteArray()),
	)
	if !schema.Equal(ty, want) {
		t.Errorf("descriptor mismatch:\n got  %+v\n want %+v", ty, want)
	}
}

func directionTy() *schema.Ty {
	return schema.Enum("Direction",
		schema.Case("None", nil),
		schema.Case("Left", nil),
		schema.Case("Right", nil),
		schema.Case("Jump", schema.Prim(schema.U8)),
	)
}

func TestDescriptorTuples(t *testing.T) {
	ty, err := DescriptorOf[Pair]()
	if err != nil {
		t.Fatal(err)
	}
	if !schema.Equal(ty, schema.Tuple(schema.Prim(schema.U8), schema.Prim(schema.I16))) {
		t.Errorf("Pair = %s", ty)
	}

	arr, err := DescriptorOf[[3]uint16]()
	if err != nil {
		t.Fatal(err)
	}
	if arr.String() != "(u16, u16, u16)" {
		t.Errorf("[3]uint16 = %s", arr)
	}

	b, err := DescriptorOf[[]byte]()
	if err != nil {
		t.Fatal(err)
	}
	if b.Kind != schema.KindByteArray {
		t.Errorf("[]byte = %s", b)
	}
}

func TestDescriptorRejects(t *testing.T) {
	t.Run("recursive", func(t *testing.T) {
		types := []reflect.Type{
			reflect.TypeOf(Node{}),
			reflect.TypeOf(Chain{}),
			reflect.TypeOf((*Cursor)(nil)).Elem(),
			reflect.TypeOf(Ring{}),
		}
		for _, typ := range types {
			_, err := NewCompiler().Descriptor(typ)
			if !errors.Is(err, wserr.Sentinel(wserr.KindInvalidLayout)) {
				t.Errorf("%s: error = %v, want invalid_layout", typ, err)
			}
		}
		if _, err := DescriptorOf[Chain](); err == nil {
			t.Error("DescriptorOf[Chain] succeeded")
		}
	})
	t.Run("float", func(t *testing.T) {
		_, err := DescriptorOf[float64]()
		if !errors.Is(err, wserr.Sentinel(wserr.KindUnsupported)) {
			t.Errorf("error = %v, want unsupported", err)
		}
	})
	t.Run("non-pointer variant", func(t *testing.T) {
		type Bad struct {
			schema.VariantMarker
			A uint8
		}
		_, err := DescriptorOf[Bad]()
		if !errors.Is(err, wserr.Sentinel(wserr.KindTypeMismatch)) {
			t.Errorf("error = %v, want type_mismatch", err)
		}
	})
	t.Run("nil type", func(t *testing.T) {
		if _, err := NewCompiler().Descriptor(nil); err == nil {
			t.Error("expected error")
		}
	})
}

func TestCompilerCache(t *testing.T) {
	c := NewCompiler()
	a, _ := c.Descriptor(reflect.TypeOf(Position{}))
	b, _ := c.Descriptor(reflect.TypeOf(Position{}))
	if a != b {
		t.Error("descriptor should be cached")
	}
}

func TestLayoutExcludesKeys(t *testing.T) {
	l, err := LayoutOf[Position]()
	if err != nil {
		t.Fatal(err)
	}
	if l.Kind != schema.LayoutStruct || len(l.Fields) != 1 {
		t.Fatalf("layout = %s", l)
	}
	if l.Fields[0].Selector != selector.Member("vec") {
		t.Errorf("selector = %s, want H(vec)", l.Fields[0].Selector)
	}
	inner := l.Fields[0].Layout
	if inner.Kind != schema.LayoutStruct || len(inner.Fields) != 2 {
		t.Errorf("vec layout = %s", inner)
	}
}

func TestLayoutOption(t *testing.T) {
	l, err := Layout(schema.Option(schema.Prim(schema.U32)), schema.EncodingLegacy)
	if err != nil {
		t.Fatal(err)
	}
	want := schema.EnumLayout(
		schema.FieldLayout{Selector: word.FromUint64(0), Layout: schema.Fixed(32)},
		schema.FieldLayout{Selector: word.FromUint64(1), Layout: schema.Fixed()},
	)
	if !schema.LayoutEqual(l, want) {
		t.Errorf("layout = %s, want %s", l, want)
	}
}

func TestLayoutEncodings(t *testing.T) {
	legacy, _ := Layout(directionTy(), schema.EncodingLegacy)
	native, _ := Layout(directionTy(), schema.EncodingNative)
	for i := range native.Fields {
		if native.Fields[i].Selector != word.FromUint64(uint64(i+1)) {
			t.Errorf("native selector %d = %s", i, native.Fields[i].Selector)
		}
	}
	if schema.LayoutEqual(legacy, native) {
		t.Error("encodings should differ")
	}
	if !schema.LayoutEqual(schema.NormalizeLegacy(native), legacy) {
		t.Error("normalized native layout should equal legacy layout")
	}
}

func TestLayoutTooManyVariants(t *testing.T) {
	variants := make([]schema.Variant, schema.MaxVariants+1)
	for i := range variants {
		variants[i] = schema.Case("V", nil)
	}
	_, err := Layout(schema.Enum("Big", variants...), schema.EncodingLegacy)
	if !errors.Is(err, wserr.Sentinel(wserr.KindInvalidLayout)) {
		t.Errorf("error = %v, want invalid_layout", err)
	}
}

func TestWordCountFixtures(t *testing.T) {
	tests := []struct {
		widths []uint32
		want   uint32
	}{
		{[]uint32{128, 32}, 1},
		{[]uint32{128, 128}, 2},
		{[]uint32{251, 251}, 2},
		{[]uint32{251}, 1},
		{[]uint32{32, 64, 128, 27}, 1},
		{[]uint32{32, 64, 128, 28}, 2},
		{[]uint32{200, 100}, 2},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := WordCount(tt.widths); got != tt.want {
			t.Errorf("WordCount(%v) = %d, want %d", tt.widths, got, tt.want)
		}
	}
}

func TestSizes(t *testing.T) {
	t.Run("static struct", func(t *testing.T) {
		n, ok, err := PackedSizeOf[Position]()
		if err != nil || !ok || n != 1 {
			t.Errorf("PackedSizeOf = %d, %v, %v", n, ok, err)
		}
		u, ok, err := UnpackedSizeOf[Position]()
		if err != nil || !ok || u != 2 {
			t.Errorf("UnpackedSizeOf = %d, %v, %v", u, ok, err)
		}
	})
	t.Run("u256", func(t *testing.T) {
		n, ok, _ := PackedSizeOf[word.U256]()
		if !ok || n != 2 {
			t.Errorf("PackedSizeOf[U256] = %d, %v", n, ok)
		}
	})
	t.Run("dynamic", func(t *testing.T) {
		if _, ok, _ := PackedSizeOf[Moves](); ok {
			t.Error("Moves has arrays and should be dynamic")
		}
		if _, ok, _ := UnpackedSizeOf[[]uint8](); ok {
			t.Error("slice should be dynamic")
		}
	})
	t.Run("option", func(t *testing.T) {
		l, _ := Layout(schema.Option(schema.Prim(schema.U32)), schema.EncodingLegacy)
		if _, ok := PackedSize(l); ok {
			t.Error("Option<u32> variants differ in shape")
		}
	})
	t.Run("unit enum", func(t *testing.T) {
		l, _ := Layout(schema.Enum("E", schema.Case("A", nil), schema.Case("B", nil)), schema.EncodingLegacy)
		n, ok := PackedSize(l)
		u, _ := UnpackedSize(l)
		if !ok || n != 1 || u != 1 {
			t.Errorf("PackedSize = %d, %v; UnpackedSize = %d", n, ok, u)
		}
	})
}

func TestFindField(t *testing.T) {
	type Sample struct {
		Tagged     uint8 `store:"custom"`
		PlayerID   uint8
		Skip       uint8 `store:"-"`
		unexported uint8
	}
	goType := reflect.TypeOf(Sample{})

	tests := []struct {
		name  string
		field string
		found bool
	}{
		{"custom", "Tagged", true},
		{"playerid", "PlayerID", true},
		{"player_i_d", "PlayerID", true},
		{"Skip", "", false},
		{"unexported", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := FindField(goType, tt.name)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && f.Name != tt.field {
				t.Errorf("field = %s, want %s", f.Name, tt.field)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func TestFromWIT(t *testing.T) {
	record := &wit.TypeDef{
		Name: strPtr("player"),
		Kind: &wit.Record{Fields: []wit.Field{
			{Name: "id", Type: wit.U32{}},
			{Name: "name", Type: wit.String{}},
			{Name: "tags", Type: &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}},
			{Name: "nick", Type: &wit.TypeDef{Kind: &wit.Option{Type: wit.String{}}}},
			{Name: "pos", Type: &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.S32{}, wit.S32{}}}}},
			{Name: "state", Type: &wit.TypeDef{Name: strPtr("state"), Kind: &wit.Variant{Cases: []wit.Case{
				{Name: "idle"},
				{Name: "moving", Type: wit.U16{}},
			}}}},
			{Name: "color", Type: &wit.TypeDef{Name: strPtr("color"), Kind: &wit.Enum{Cases: []wit.EnumCase{
				{Name: "red"}, {Name: "blue"},
			}}}},
		}},
	}

	ty, err := FromWIT(record)
	if err != nil {
		t.Fatal(err)
	}

	want := schema.Struct("player",
		schema.Field("id", schema.Prim(schema.U32)),
		schema.Field("name", schema.ByteArray()),
		schema.Field("tags", schema.Array(schema.Prim(schema.U8))),
		schema.Field("nick", schema.Option(schema.ByteArray())),
		schema.Field("pos", schema.Tuple(schema.Prim(schema.I32), schema.Prim(schema.I32))),
		schema.Field("state", schema.Enum("state", schema.Case("idle", nil), schema.Case("moving", schema.Prim(schema.U16)))),
		schema.Field("color", schema.Enum("color", schema.Case("red", nil), schema.Case("blue", nil))),
	)
	if !schema.Equal(ty, want) {
		t.Errorf("FromWIT mismatch:\n got  %+v\n want %+v", ty, want)
	}

	if _, err := FromWIT(wit.F64{}); !errors.Is(err, wserr.Sentinel(wserr.KindUnsupported)) {
		t.Errorf("f64 error = %v, want unsupported", err)
	}

	result := &wit.TypeDef{Kind: &wit.Result{OK: wit.U32{}, Err: nil}}
	rty, err := FromWIT(result)
	if err != nil {
		t.Fatal(err)
	}
	if len(rty.Variants) != 2 || !rty.Variants[1].Ty.IsUnit() {
		t.Errorf("result = %+v", rty)
	}
}

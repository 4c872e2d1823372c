package schema

// Kind tags a Ty node.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindStruct
	KindEnum
	KindTuple
	KindArray
	KindByteArray
)

var kindNames = [...]string{
	KindPrimitive: "primitive",
	KindStruct:    "struct",
	KindEnum:      "enum",
	KindTuple:     "tuple",
	KindArray:     "array",
	KindByteArray: "bytearray",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Primitive identifies a scalar kind.
type Primitive uint8

const (
	Bool Primitive = iota
	U8
	U16
	U32
	U64
	U128
	U256
	I8
	I16
	I32
	I64
	I128
	Felt252
	ClassHash
	ContractAddress
	EthAddress
)

var primitiveNames = [...]string{
	Bool:            "bool",
	U8:              "u8",
	U16:             "u16",
	U32:             "u32",
	U64:             "u64",
	U128:            "u128",
	U256:            "u256",
	I8:              "i8",
	I16:             "i16",
	I32:             "i32",
	I64:             "i64",
	I128:            "i128",
	Felt252:         "felt252",
	ClassHash:       "ClassHash",
	ContractAddress: "ContractAddress",
	EthAddress:      "EthAddress",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

// ParsePrimitive resolves a primitive by name.
func ParsePrimitive(name string) (Primitive, bool) {
	for i, n := range primitiveNames {
		if n == name {
			return Primitive(i), true
		}
	}
	return 0, false
}

// Widths returns the Fixed leaf widths of the primitive.
// u256 is two 128-bit leaves, low half first.
func (p Primitive) Widths() []uint32 {
	switch p {
	case Bool:
		return []uint32{1}
	case U8, I8:
		return []uint32{8}
	case U16, I16:
		return []uint32{16}
	case U32, I32:
		return []uint32{32}
	case U64, I64:
		return []uint32{64}
	case U128, I128:
		return []uint32{128}
	case U256:
		return []uint32{128, 128}
	case EthAddress:
		return []uint32{160}
	default:
		return []uint32{251}
	}
}

// Signed reports whether the primitive is a two's complement integer.
func (p Primitive) Signed() bool {
	return p >= I8 && p <= I128
}

// Valid reports whether p names a known primitive.
func (p Primitive) Valid() bool {
	return int(p) < len(primitiveNames)
}

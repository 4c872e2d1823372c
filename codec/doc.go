// Package codec packs values into word.Bits-bit storage words and back.
//
// The low level is Pack/Unpack over parallel value and width slices:
//
//	words, err := codec.Pack(values, []uint32{200, 100}, 0)
//	// words[0] holds the first value and the low 51 bits of the second;
//	// words[1] holds the remaining 49 bits.
//
// Above it, Encode and Decode walk a schema.Ty together with its
// schema.Layout. Struct, Tuple and Enum nodes flatten into Fixed leaves in
// declaration order; an enum writes an 8-bit discriminant holding the
// variant's layout selector, then the payload. Arrays write a 32-bit length
// then each element. Byte arrays start on a word boundary and are written as
// their wire words.
//
// Values may be typed Go values (see package introspect for the mapping) or
// dynamic values: map[string]any for structs, []any for tuples and arrays,
// Variant or a single-entry map for enums, nil for an empty Option.
package codec

// Package schema defines the type descriptor (Ty) and the storage layout tree
// (Layout) shared by the introspector, the codec and the upgrade checker.
//
// A Ty names the shape of a record: primitives, structs with key and value
// members, enums, tuples, arrays and byte arrays. A Layout mirrors that shape
// but carries only bit-widths and selectors:
//
//	Fixed([w...])          leaf widths, each 1..word.Bits
//	Struct([sel: layout])  value members keyed by H(member name)
//	Enum([sel: layout])    variants keyed by their discriminant
//	Tuple([layout...])
//	Array(layout)          runtime length written at pack time
//	ByteArray              wire-encoded, word aligned
//
// Enum discriminants follow an Encoding: legacy numbers variants from zero,
// native from one with zero meaning unset. NormalizeLegacy maps any layout to
// the legacy numbering.
package schema

// Package introspect derives schema descriptors and storage layouts.
//
// Descriptors come from Go types via reflection, cached per type by a Compiler:
//
//	type Position struct {
//		Player word.Address `store:"player,key"`
//		Vec    [2]uint32
//		Label  string
//	}
//
//	ty, _ := introspect.DescriptorOf[Position]()
//	l, _ := introspect.Layout(ty, schema.EncodingLegacy)
//	n, static := introspect.PackedSize(l)
//
// Go mapping: bool and sized integers map to primitives (int and uint are
// 64-bit); word.Word is felt252; word.Address, word.ClassHash, word.EthAddress,
// word.U128, word.I128 and word.U256 map to their primitives; pointers are
// Option; string and []byte are ByteArray; slices are Array; fixed arrays are
// Tuple; structs are Struct unless they embed schema.TupleMarker or
// schema.VariantMarker. Fields are named by their `store:"name"` tag or Go name
// and marked as keys with `store:",key"`.
//
// FromWIT converts WIT types so component interfaces can be stored directly.
package introspect

package schema

// TupleMarker, embedded in a Go struct, makes the struct a Tuple of its
// remaining exported fields in declaration order.
type TupleMarker struct{}

// VariantMarker, embedded in a Go struct, makes the struct an Enum. Every other
// exported field must be a pointer; the single non-nil field is the active
// variant. A *struct{} field is a unit variant.
//
//	type Direction struct {
//		schema.VariantMarker
//		Left  *struct{}
//		Right *struct{}
//		Jump  *uint8
//	}
type VariantMarker struct{}

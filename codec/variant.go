package codec

import "reflect"

// Variant is the dynamic form of an enum value. Value is nil for unit variants.
type Variant struct {
	Value any
	Name  string
}

var variantType = reflect.TypeOf(Variant{})

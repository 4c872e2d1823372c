package introspect

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/wippyai/wordstore/schema"
)

var (
	tupleMarkerType   = reflect.TypeOf(schema.TupleMarker{})
	variantMarkerType = reflect.TypeOf(schema.VariantMarker{})
)

// IsTupleStruct reports whether t embeds schema.TupleMarker.
func IsTupleStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && embeds(t, tupleMarkerType)
}

// IsVariantStruct reports whether t embeds schema.VariantMarker.
func IsVariantStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && embeds(t, variantMarkerType)
}

func embeds(t reflect.Type, marker reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == marker {
			return true
		}
	}
	return false
}

// Tag is a parsed `store:"name,key"` struct tag.
type Tag struct {
	Name string
	Key  bool
	Skip bool
}

// ParseTag reads the store tag of a field.
func ParseTag(f reflect.StructField) Tag {
	raw, ok := f.Tag.Lookup("store")
	if !ok {
		return Tag{}
	}
	if raw == "-" {
		return Tag{Skip: true}
	}
	parts := strings.Split(raw, ",")
	tag := Tag{Name: parts[0]}
	for _, opt := range parts[1:] {
		if opt == "key" {
			tag.Key = true
		}
	}
	return tag
}

// DataFields returns the exported, non-marker, non-skipped fields of a struct
// type in declaration order.
func DataFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous && (f.Type == tupleMarkerType || f.Type == variantMarkerType) {
			continue
		}
		if ParseTag(f).Skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FieldName returns the schema name of a field: its tag name or the Go name.
func FieldName(f reflect.StructField) string {
	if tag := ParseTag(f); tag.Name != "" {
		return tag.Name
	}
	return f.Name
}

// FindField matches by: 1) store:"name" tag, 2) case-insensitive, 3) snake_case.
func FindField(t reflect.Type, name string) (reflect.StructField, bool) {
	fields := DataFields(t)
	for _, f := range fields {
		if tag := ParseTag(f); tag.Name != "" && tag.Name == name {
			return f, true
		}
	}
	for _, f := range fields {
		if ParseTag(f).Name != "" {
			continue
		}
		if strings.EqualFold(f.Name, name) || toSnakeCase(f.Name) == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				result.WriteByte('_')
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

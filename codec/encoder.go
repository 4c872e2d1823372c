package codec

import (
	"reflect"
	"strconv"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/introspect"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/word"
)

// lengthWidth is the Fixed width of an Array length prefix.
const lengthWidth = 32

const maxLength = 1<<lengthWidth - 1

type writer interface {
	Write(v word.Word, width uint32) error
	Align()
}

// leafWriter keeps one word per leaf instead of packing.
type leafWriter struct {
	words  []word.Word
	widths []uint32
}

func (w *leafWriter) Write(v word.Word, width uint32) error {
	if err := checkWidth(errors.PhasePack, width); err != nil {
		return err
	}
	if v.BitLen() > int(width) {
		return errors.New(errors.PhasePack, errors.KindInvalidInput).
			Detail("value %s does not fit in %d bits", v, width).
			Build()
	}
	w.words = append(w.words, v)
	w.widths = append(w.widths, width)
	return nil
}

func (w *leafWriter) Align() {}

// Encode packs v according to ty and its layout l.
func Encode(ty *schema.Ty, l *schema.Layout, v any) ([]word.Word, error) {
	return EncodeFrom(ty, l, v, 0)
}

// EncodeFrom packs v starting startOffset bits into the first word.
func EncodeFrom(ty *schema.Ty, l *schema.Layout, v any, startOffset uint32) ([]word.Word, error) {
	p, err := NewPacker(startOffset)
	if err != nil {
		return nil, err
	}
	e := &encoder{w: p}
	if err := e.encode(ty, l, reflect.ValueOf(v), nil); err != nil {
		return nil, err
	}
	return p.Words(), nil
}

// Flatten returns the ordered leaf values of v with their widths. Array
// lengths and byte array wire words appear inline.
func Flatten(ty *schema.Ty, l *schema.Layout, v any) ([]word.Word, []uint32, error) {
	lw := &leafWriter{}
	e := &encoder{w: lw}
	if err := e.encode(ty, l, reflect.ValueOf(v), nil); err != nil {
		return nil, nil, err
	}
	return lw.words, lw.widths, nil
}

// Serialize returns one word per leaf of v.
func Serialize(ty *schema.Ty, l *schema.Layout, v any) ([]word.Word, error) {
	words, _, err := Flatten(ty, l, v)
	return words, err
}

// Marshal packs a typed Go value using its derived legacy layout.
func Marshal[T any](v T) ([]word.Word, error) {
	ty, err := introspect.DescriptorOf[T]()
	if err != nil {
		return nil, err
	}
	l, err := introspect.Layout(ty, schema.EncodingLegacy)
	if err != nil {
		return nil, err
	}
	return Encode(ty, l, v)
}

type encoder struct {
	w writer
}

func childPath(path []string, name string) []string {
	return append(append([]string{}, path...), name)
}

func indexPath(path []string, i int) []string {
	return childPath(path, "["+strconv.Itoa(i)+"]")
}

func layoutMismatch(phase errors.Phase, path []string, ty *schema.Ty, l *schema.Layout) error {
	return errors.New(phase, errors.KindInvalidLayout).
		Path(path...).
		TyName(ty.String()).
		Detail("layout %s does not match", l.Kind).
		Build()
}

func invalidInput(path []string, format string, args ...any) error {
	return errors.New(errors.PhasePack, errors.KindInvalidInput).
		Path(path...).
		Detail(format, args...).
		Build()
}

func unwrapInterface(rv reflect.Value) reflect.Value {
	for rv.IsValid() && rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv
}

// deref follows pointers for shapes that are not optional.
func deref(rv reflect.Value, path []string) (reflect.Value, error) {
	rv = unwrapInterface(rv)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return rv, invalidInput(path, "nil value")
		}
		rv = unwrapInterface(rv.Elem())
	}
	if !rv.IsValid() || rv.Kind() == reflect.Interface {
		return rv, invalidInput(path, "nil value")
	}
	return rv, nil
}

func (e *encoder) encode(ty *schema.Ty, l *schema.Layout, rv reflect.Value, path []string) error {
	if ty == nil || l == nil {
		return errors.InvalidLayout(errors.PhasePack, path, "nil descriptor or layout")
	}

	switch ty.Kind {
	case schema.KindPrimitive:
		return e.encodePrimitive(ty, l, rv, path)
	case schema.KindStruct:
		return e.encodeStruct(ty, l, rv, path)
	case schema.KindEnum:
		return e.encodeEnum(ty, l, rv, path)
	case schema.KindTuple:
		return e.encodeTuple(ty, l, rv, path)
	case schema.KindArray:
		return e.encodeArray(ty, l, rv, path)
	case schema.KindByteArray:
		return e.encodeByteArray(ty, l, rv, path)
	}
	return errors.Unsupported(errors.PhasePack, "descriptor kind "+ty.Kind.String())
}

func (e *encoder) encodePrimitive(ty *schema.Ty, l *schema.Layout, rv reflect.Value, path []string) error {
	widths := ty.Primitive.Widths()
	if l.Kind != schema.LayoutFixed || len(l.Widths) != len(widths) {
		return layoutMismatch(errors.PhasePack, path, ty, l)
	}
	for i := range widths {
		if widths[i] != l.Widths[i] {
			return layoutMismatch(errors.PhasePack, path, ty, l)
		}
	}

	leaves, err := primitiveLeaves(ty.Primitive, rv, path)
	if err != nil {
		return err
	}
	for i, leaf := range leaves {
		if err := e.w.Write(leaf, widths[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeStruct(ty *schema.Ty, l *schema.Layout, rv reflect.Value, path []string) error {
	values := ty.Values()
	if l.Kind != schema.LayoutStruct || len(l.Fields) != len(values) {
		return layoutMismatch(errors.PhasePack, path, ty, l)
	}

	rv, err := deref(rv, path)
	if err != nil {
		return err
	}

	for i, m := range values {
		mv, err := memberValue(rv, m.Name, path)
		if err != nil {
			return err
		}
		if err := e.encode(m.Ty, l.Fields[i].Layout, mv, childPath(path, m.Name)); err != nil {
			return err
		}
	}
	return nil
}

// memberValue looks a member up in a map or struct.
func memberValue(rv reflect.Value, name string, path []string) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return rv, errors.TypeMismatch(errors.PhasePack, path, rv.Type().String(), "map with string keys")
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return mv, invalidInput(path, "missing member %q", name)
		}
		return mv, nil
	case reflect.Struct:
		f, ok := introspect.FindField(rv.Type(), name)
		if !ok {
			return rv, invalidInput(path, "missing member %q", name)
		}
		return rv.FieldByIndex(f.Index), nil
	}
	return rv, errors.TypeMismatch(errors.PhasePack, path, rv.Type().String(), "struct or map")
}

func (e *encoder) encodeEnum(ty *schema.Ty, l *schema.Layout, rv reflect.Value, path []string) error {
	if l.Kind != schema.LayoutEnum || len(l.Fields) != len(ty.Variants) {
		return layoutMismatch(errors.PhasePack, path, ty, l)
	}

	idx, payload, err := variantOf(ty, rv, path)
	if err != nil {
		return err
	}

	field := l.Fields[idx]
	if field.Selector.BitLen() > schema.DiscriminantWidth {
		return errors.InvalidLayout(errors.PhasePack, path, "variant selector "+field.Selector.String()+" exceeds discriminant width")
	}
	if err := e.w.Write(field.Selector, schema.DiscriminantWidth); err != nil {
		return err
	}

	v := ty.Variants[idx]
	if v.Ty == nil || v.Ty.IsUnit() {
		if !isEmptyLayout(field.Layout) {
			return layoutMismatch(errors.PhasePack, childPath(path, v.Name), schema.Unit(), field.Layout)
		}
		return nil
	}
	return e.encode(v.Ty, field.Layout, payload, childPath(path, v.Name))
}

func isEmptyLayout(l *schema.Layout) bool {
	return l != nil && (l.Kind == schema.LayoutFixed && len(l.Widths) == 0 ||
		l.Kind == schema.LayoutTuple && len(l.Items) == 0)
}

// variantOf resolves the active variant and its payload.
func variantOf(ty *schema.Ty, rv reflect.Value, path []string) (int, reflect.Value, error) {
	rv = unwrapInterface(rv)

	if !rv.IsValid() || rv.Kind() == reflect.Interface {
		if ty.IsOption() {
			return 1, reflect.Value{}, nil
		}
		return 0, rv, invalidInput(path, "nil %s value", ty.Name)
	}

	if rv.Type() == variantType {
		dv := rv.Interface().(Variant)
		if _, _, ok := ty.VariantByName(dv.Name); ok || !ty.IsOption() {
			return variantByName(ty, dv.Name, reflect.ValueOf(dv.Value), path)
		}
		// an inner enum value carried by Some
		return 0, rv, nil
	}

	if ty.IsOption() {
		if rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return 1, reflect.Value{}, nil
			}
			return 0, rv.Elem(), nil
		}
		return 0, rv, nil
	}

	rv, err := deref(rv, path)
	if err != nil {
		return 0, rv, err
	}
	if rv.Type() == variantType {
		dv := rv.Interface().(Variant)
		return variantByName(ty, dv.Name, reflect.ValueOf(dv.Value), path)
	}

	switch rv.Kind() {
	case reflect.Struct:
		if !introspect.IsVariantStruct(rv.Type()) {
			break
		}
		found := -1
		var payload reflect.Value
		for i, v := range ty.Variants {
			f, ok := introspect.FindField(rv.Type(), v.Name)
			if !ok {
				continue
			}
			fv := rv.FieldByIndex(f.Index)
			if fv.Kind() != reflect.Ptr || fv.IsNil() {
				continue
			}
			if found >= 0 {
				return 0, rv, invalidInput(path, "more than one variant of %s set", ty.Name)
			}
			found = i
			payload = fv.Elem()
		}
		if found < 0 {
			return 0, rv, invalidInput(path, "no variant of %s set", ty.Name)
		}
		return found, payload, nil
	case reflect.Map:
		if rv.Len() != 1 || rv.Type().Key().Kind() != reflect.String {
			return 0, rv, invalidInput(path, "enum map must hold exactly one variant")
		}
		iter := rv.MapRange()
		iter.Next()
		return variantByName(ty, iter.Key().String(), iter.Value(), path)
	case reflect.String:
		return variantByName(ty, rv.String(), reflect.Value{}, path)
	}

	return 0, rv, errors.TypeMismatch(errors.PhasePack, path, rv.Type().String(), ty.String())
}

func variantByName(ty *schema.Ty, name string, payload reflect.Value, path []string) (int, reflect.Value, error) {
	_, idx, ok := ty.VariantByName(name)
	if !ok {
		return 0, payload, invalidInput(path, "unknown variant %q of %s", name, ty.Name)
	}
	return idx, payload, nil
}

// tupleItems lists the positional values of a tuple-shaped Go value.
func tupleItems(rv reflect.Value, path []string) ([]reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]reflect.Value, rv.Len())
		for i := range out {
			out[i] = rv.Index(i)
		}
		return out, nil
	case reflect.Struct:
		fields := introspect.DataFields(rv.Type())
		out := make([]reflect.Value, len(fields))
		for i, f := range fields {
			out[i] = rv.FieldByIndex(f.Index)
		}
		return out, nil
	}
	return nil, errors.TypeMismatch(errors.PhasePack, path, rv.Type().String(), "tuple")
}

func (e *encoder) encodeTuple(ty *schema.Ty, l *schema.Layout, rv reflect.Value, path []string) error {
	if l.Kind != schema.LayoutTuple || len(l.Items) != len(ty.Items) {
		if ty.IsUnit() && isEmptyLayout(l) {
			return nil
		}
		return layoutMismatch(errors.PhasePack, path, ty, l)
	}
	if len(ty.Items) == 0 {
		return nil
	}

	rv, err := deref(rv, path)
	if err != nil {
		return err
	}
	items, err := tupleItems(rv, path)
	if err != nil {
		return err
	}
	if len(items) != len(ty.Items) {
		return invalidInput(path, "tuple has %d items, want %d", len(items), len(ty.Items))
	}

	for i, it := range ty.Items {
		if err := e.encode(it, l.Items[i], items[i], indexPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeArray(ty *schema.Ty, l *schema.Layout, rv reflect.Value, path []string) error {
	if l.Kind != schema.LayoutArray {
		return layoutMismatch(errors.PhasePack, path, ty, l)
	}

	rv = unwrapInterface(rv)
	if !rv.IsValid() || rv.Kind() == reflect.Ptr && rv.IsNil() {
		return e.w.Write(word.Zero, lengthWidth)
	}
	rv, err := deref(rv, path)
	if err != nil {
		return err
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return errors.TypeMismatch(errors.PhasePack, path, rv.Type().String(), ty.String())
	}

	n := rv.Len()
	if uint64(n) > maxLength {
		return invalidInput(path, "array length %d exceeds %d", n, maxLength)
	}
	if err := e.w.Write(word.FromUint64(uint64(n)), lengthWidth); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := e.encode(ty.Elem, l.Elem, rv.Index(i), indexPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeByteArray(ty *schema.Ty, l *schema.Layout, rv reflect.Value, path []string) error {
	if l.Kind != schema.LayoutByteArray {
		return layoutMismatch(errors.PhasePack, path, ty, l)
	}

	rv, err := deref(rv, path)
	if err != nil {
		return err
	}

	var data []byte
	switch {
	case rv.Kind() == reflect.String:
		data = []byte(rv.String())
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		data = rv.Bytes()
	case rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8:
		data = make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(data), rv)
	default:
		return errors.TypeMismatch(errors.PhasePack, path, rv.Type().String(), "ByteArray")
	}

	e.w.Align()
	for _, w := range word.EncodeByteArray(data) {
		if err := e.w.Write(w, word.Bits); err != nil {
			return err
		}
	}
	return nil
}

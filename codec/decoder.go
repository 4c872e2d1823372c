package codec

import (
	"reflect"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/introspect"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/word"
)

// maxDecodeLength bounds array and byte array lengths read from storage.
const maxDecodeLength = 1 << 24

type reader interface {
	Read(width uint32) (word.Word, error)
	Align()
}

// leafReader reads one word per leaf.
type leafReader struct {
	words []word.Word
	pos   int
}

func (r *leafReader) Read(width uint32) (word.Word, error) {
	if err := checkWidth(errors.PhaseUnpack, width); err != nil {
		return word.Zero, err
	}
	if r.pos >= len(r.words) {
		return word.Zero, errors.LengthMismatch(errors.PhaseUnpack, "ran out of leaves after %d", len(r.words))
	}
	w := r.words[r.pos]
	if w.BitLen() > int(width) {
		return word.Zero, errors.New(errors.PhaseUnpack, errors.KindInvalidInput).
			Detail("leaf %d does not fit in %d bits", r.pos, width).
			Build()
	}
	r.pos++
	return w, nil
}

func (r *leafReader) Align() {}

// Decode unpacks words into target, which must be a non-nil pointer.
func Decode(ty *schema.Ty, l *schema.Layout, words []word.Word, target any) error {
	return DecodeFrom(ty, l, words, 0, target)
}

// DecodeFrom unpacks words produced by EncodeFrom with the same start offset.
func DecodeFrom(ty *schema.Ty, l *schema.Layout, words []word.Word, startOffset uint32, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New(errors.PhaseUnpack, errors.KindInvalidInput).
			Detail("decode target must be a non-nil pointer").
			Build()
	}
	u, err := NewUnpacker(words, startOffset)
	if err != nil {
		return err
	}
	d := &decoder{r: u}
	return d.decode(ty, l, rv.Elem(), nil)
}

// DecodeValue unpacks words into the dynamic form: map[string]any for
// structs, []any for tuples and arrays, Variant for enums, nil or the payload
// for options, string for byte arrays.
func DecodeValue(ty *schema.Ty, l *schema.Layout, words []word.Word) (any, error) {
	var v any
	if err := Decode(ty, l, words, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Deserialize reads one word per leaf into target.
func Deserialize(ty *schema.Ty, l *schema.Layout, leaves []word.Word, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New(errors.PhaseUnpack, errors.KindInvalidInput).
			Detail("decode target must be a non-nil pointer").
			Build()
	}
	d := &decoder{r: &leafReader{words: leaves}}
	return d.decode(ty, l, rv.Elem(), nil)
}

// Unmarshal unpacks words into a typed Go value using its derived legacy layout.
func Unmarshal[T any](words []word.Word) (T, error) {
	var out T
	ty, err := introspect.DescriptorOf[T]()
	if err != nil {
		return out, err
	}
	l, err := introspect.Layout(ty, schema.EncodingLegacy)
	if err != nil {
		return out, err
	}
	err = Decode(ty, l, words, &out)
	return out, err
}

type decoder struct {
	r reader
}

func isDynamic(target reflect.Value) bool {
	return target.Kind() == reflect.Interface && target.NumMethod() == 0
}

func (d *decoder) decode(ty *schema.Ty, l *schema.Layout, target reflect.Value, path []string) error {
	if ty == nil || l == nil {
		return errors.InvalidLayout(errors.PhaseUnpack, path, "nil descriptor or layout")
	}

	if target.Kind() == reflect.Ptr && target.Type() != bigIntType && !ty.IsOption() {
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		target = target.Elem()
	}

	switch ty.Kind {
	case schema.KindPrimitive:
		return d.decodePrimitive(ty, l, target, path)
	case schema.KindStruct:
		return d.decodeStruct(ty, l, target, path)
	case schema.KindEnum:
		return d.decodeEnum(ty, l, target, path)
	case schema.KindTuple:
		return d.decodeTuple(ty, l, target, path)
	case schema.KindArray:
		return d.decodeArray(ty, l, target, path)
	case schema.KindByteArray:
		return d.decodeByteArray(ty, l, target, path)
	}
	return errors.Unsupported(errors.PhaseUnpack, "descriptor kind "+ty.Kind.String())
}

func (d *decoder) decodePrimitive(ty *schema.Ty, l *schema.Layout, target reflect.Value, path []string) error {
	widths := ty.Primitive.Widths()
	if l.Kind != schema.LayoutFixed || len(l.Widths) != len(widths) {
		return layoutMismatch(errors.PhaseUnpack, path, ty, l)
	}

	leaves := make([]word.Word, len(widths))
	for i, w := range widths {
		if l.Widths[i] != w {
			return layoutMismatch(errors.PhaseUnpack, path, ty, l)
		}
		v, err := d.r.Read(w)
		if err != nil {
			return err
		}
		leaves[i] = v
	}
	return assignPrimitive(ty.Primitive, primitiveValue(ty.Primitive, leaves), target, path)
}

func (d *decoder) decodeStruct(ty *schema.Ty, l *schema.Layout, target reflect.Value, path []string) error {
	values := ty.Values()
	if l.Kind != schema.LayoutStruct || len(l.Fields) != len(values) {
		return layoutMismatch(errors.PhaseUnpack, path, ty, l)
	}

	switch {
	case isDynamic(target):
		out := make(map[string]any, len(values))
		for i, m := range values {
			var v any
			if err := d.decode(m.Ty, l.Fields[i].Layout, reflect.ValueOf(&v).Elem(), childPath(path, m.Name)); err != nil {
				return err
			}
			out[m.Name] = v
		}
		target.Set(reflect.ValueOf(out))
		return nil

	case target.Kind() == reflect.Map && target.Type().Key().Kind() == reflect.String:
		if target.IsNil() {
			target.Set(reflect.MakeMap(target.Type()))
		}
		for i, m := range values {
			ev := reflect.New(target.Type().Elem()).Elem()
			if err := d.decode(m.Ty, l.Fields[i].Layout, ev, childPath(path, m.Name)); err != nil {
				return err
			}
			target.SetMapIndex(reflect.ValueOf(m.Name).Convert(target.Type().Key()), ev)
		}
		return nil

	case target.Kind() == reflect.Struct:
		for i, m := range values {
			fieldTarget := discard()
			if f, ok := introspect.FindField(target.Type(), m.Name); ok {
				fieldTarget = target.FieldByIndex(f.Index)
			}
			if err := d.decode(m.Ty, l.Fields[i].Layout, fieldTarget, childPath(path, m.Name)); err != nil {
				return err
			}
		}
		return nil
	}

	return errors.TypeMismatch(errors.PhaseUnpack, path, target.Type().String(), ty.String())
}

// discard is a sink for members the target has no field for.
func discard() reflect.Value {
	var v any
	return reflect.ValueOf(&v).Elem()
}

func (d *decoder) decodeEnum(ty *schema.Ty, l *schema.Layout, target reflect.Value, path []string) error {
	if l.Kind != schema.LayoutEnum || len(l.Fields) != len(ty.Variants) {
		return layoutMismatch(errors.PhaseUnpack, path, ty, l)
	}

	disc, err := d.r.Read(schema.DiscriminantWidth)
	if err != nil {
		return err
	}

	idx := -1
	for i, f := range l.Fields {
		if f.Selector == disc {
			idx = i
			break
		}
	}
	if idx < 0 {
		if disc.IsZero() {
			// unset under native encoding
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		return errors.New(errors.PhaseUnpack, errors.KindInvalidInput).
			Path(path...).
			Value(disc.Uint64()).
			Detail("discriminant %d matches no variant of %s", disc.Uint64(), ty.Name).
			Build()
	}

	v := ty.Variants[idx]
	field := l.Fields[idx]
	unit := v.Ty == nil || v.Ty.IsUnit()
	if unit && !isEmptyLayout(field.Layout) {
		return layoutMismatch(errors.PhaseUnpack, childPath(path, v.Name), schema.Unit(), field.Layout)
	}
	casePath := childPath(path, v.Name)

	payload := func(into reflect.Value) error {
		if unit {
			return nil
		}
		return d.decode(v.Ty, field.Layout, into, casePath)
	}

	if ty.IsOption() {
		switch {
		case idx == 1:
			target.Set(reflect.Zero(target.Type()))
			return nil
		case target.Kind() == reflect.Ptr:
			elem := reflect.New(target.Type().Elem())
			if err := payload(elem.Elem()); err != nil {
				return err
			}
			target.Set(elem)
			return nil
		default:
			return payload(target)
		}
	}

	switch {
	case isDynamic(target):
		var pv any
		if err := payload(reflect.ValueOf(&pv).Elem()); err != nil {
			return err
		}
		target.Set(reflect.ValueOf(Variant{Name: v.Name, Value: pv}))
		return nil

	case target.Type() == variantType:
		var pv any
		if err := payload(reflect.ValueOf(&pv).Elem()); err != nil {
			return err
		}
		target.Set(reflect.ValueOf(Variant{Name: v.Name, Value: pv}))
		return nil

	case target.Kind() == reflect.Struct && introspect.IsVariantStruct(target.Type()):
		target.Set(reflect.Zero(target.Type()))
		f, ok := introspect.FindField(target.Type(), v.Name)
		if !ok || f.Type.Kind() != reflect.Ptr {
			return errors.New(errors.PhaseUnpack, errors.KindTypeMismatch).
				Path(casePath...).
				GoType(target.Type().String()).
				Detail("no pointer field for variant %s", v.Name).
				Build()
		}
		elem := reflect.New(f.Type.Elem())
		if err := payload(elem.Elem()); err != nil {
			return err
		}
		target.FieldByIndex(f.Index).Set(elem)
		return nil

	case target.Kind() == reflect.String && unit:
		target.SetString(v.Name)
		return nil
	}

	return errors.TypeMismatch(errors.PhaseUnpack, path, target.Type().String(), ty.String())
}

func (d *decoder) decodeTuple(ty *schema.Ty, l *schema.Layout, target reflect.Value, path []string) error {
	if ty.IsUnit() && isEmptyLayout(l) {
		return nil
	}
	if l.Kind != schema.LayoutTuple || len(l.Items) != len(ty.Items) {
		return layoutMismatch(errors.PhaseUnpack, path, ty, l)
	}
	n := len(ty.Items)

	switch {
	case isDynamic(target):
		out := make([]any, n)
		for i, it := range ty.Items {
			if err := d.decode(it, l.Items[i], reflect.ValueOf(&out[i]).Elem(), indexPath(path, i)); err != nil {
				return err
			}
		}
		target.Set(reflect.ValueOf(out))
		return nil

	case target.Kind() == reflect.Array && target.Len() == n:
		for i, it := range ty.Items {
			if err := d.decode(it, l.Items[i], target.Index(i), indexPath(path, i)); err != nil {
				return err
			}
		}
		return nil

	case target.Kind() == reflect.Slice:
		s := reflect.MakeSlice(target.Type(), n, n)
		for i, it := range ty.Items {
			if err := d.decode(it, l.Items[i], s.Index(i), indexPath(path, i)); err != nil {
				return err
			}
		}
		target.Set(s)
		return nil

	case target.Kind() == reflect.Struct:
		fields := introspect.DataFields(target.Type())
		if len(fields) != n {
			break
		}
		for i, it := range ty.Items {
			if err := d.decode(it, l.Items[i], target.FieldByIndex(fields[i].Index), indexPath(path, i)); err != nil {
				return err
			}
		}
		return nil
	}

	return errors.TypeMismatch(errors.PhaseUnpack, path, target.Type().String(), ty.String())
}

func (d *decoder) readLength(path []string) (int, error) {
	w, err := d.r.Read(lengthWidth)
	if err != nil {
		return 0, err
	}
	n := w.Uint64()
	if n > maxDecodeLength {
		return 0, errors.New(errors.PhaseUnpack, errors.KindLengthMismatch).
			Path(path...).
			Detail("length %d exceeds %d", n, maxDecodeLength).
			Build()
	}
	return int(n), nil
}

func (d *decoder) decodeArray(ty *schema.Ty, l *schema.Layout, target reflect.Value, path []string) error {
	if l.Kind != schema.LayoutArray {
		return layoutMismatch(errors.PhaseUnpack, path, ty, l)
	}

	n, err := d.readLength(path)
	if err != nil {
		return err
	}

	switch {
	case isDynamic(target):
		out := make([]any, 0)
		for i := 0; i < n; i++ {
			var v any
			if err := d.decode(ty.Elem, l.Elem, reflect.ValueOf(&v).Elem(), indexPath(path, i)); err != nil {
				return err
			}
			out = append(out, v)
		}
		target.Set(reflect.ValueOf(out))
		return nil

	case target.Kind() == reflect.Slice:
		s := reflect.MakeSlice(target.Type(), 0, 0)
		for i := 0; i < n; i++ {
			ev := reflect.New(target.Type().Elem()).Elem()
			if err := d.decode(ty.Elem, l.Elem, ev, indexPath(path, i)); err != nil {
				return err
			}
			s = reflect.Append(s, ev)
		}
		target.Set(s)
		return nil
	}

	return errors.TypeMismatch(errors.PhaseUnpack, path, target.Type().String(), ty.String())
}

func (d *decoder) decodeByteArray(ty *schema.Ty, l *schema.Layout, target reflect.Value, path []string) error {
	if l.Kind != schema.LayoutByteArray {
		return layoutMismatch(errors.PhaseUnpack, path, ty, l)
	}

	d.r.Align()
	count, err := d.r.Read(word.Bits)
	if err != nil {
		return err
	}
	if count.BitLen() > 32 || count.Uint64() > maxDecodeLength {
		return errors.New(errors.PhaseUnpack, errors.KindLengthMismatch).
			Path(path...).
			Detail("byte array chunk count %s too large", count).
			Build()
	}

	words := []word.Word{count}
	for i := uint64(0); i < count.Uint64()+2; i++ {
		w, err := d.r.Read(word.Bits)
		if err != nil {
			return err
		}
		words = append(words, w)
	}
	data, _, err := word.DecodeByteArray(words)
	if err != nil {
		return errors.New(errors.PhaseUnpack, errors.KindInvalidInput).
			Path(path...).
			Cause(err).
			Detail("malformed byte array").
			Build()
	}

	switch {
	case isDynamic(target):
		target.Set(reflect.ValueOf(string(data)))
	case target.Kind() == reflect.String:
		target.SetString(string(data))
	case target.Kind() == reflect.Slice && target.Type().Elem().Kind() == reflect.Uint8:
		target.SetBytes(data)
	default:
		return errors.TypeMismatch(errors.PhaseUnpack, path, target.Type().String(), "ByteArray")
	}
	return nil
}

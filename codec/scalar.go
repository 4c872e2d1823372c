package codec

import (
	"math"
	"math/big"
	"reflect"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/word"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// toBig reads an integer-like Go value.
func toBig(rv reflect.Value) (*big.Int, bool) {
	for rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Ptr && rv.Type() != bigIntType {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, false
	}

	if rv.CanInterface() {
		switch v := rv.Interface().(type) {
		case *big.Int:
			if v == nil {
				return nil, false
			}
			return new(big.Int).Set(v), true
		case big.Int:
			return new(big.Int).Set(&v), true
		case word.Word:
			return v.Big(), true
		case word.Address:
			return word.Word(v).Big(), true
		case word.ClassHash:
			return word.Word(v).Big(), true
		case word.EthAddress:
			return v.Word().Big(), true
		case word.U128:
			return v.Big(), true
		case word.I128:
			return v.Big(), true
		case word.U256:
			return v.Big(), true
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, false
		}
		v, _ := big.NewFloat(f).Int(nil)
		return v, true
	case reflect.String:
		return new(big.Int).SetString(rv.String(), 0)
	}
	return nil, false
}

// primitiveLeaves converts a value into the leaf words of primitive p.
func primitiveLeaves(p schema.Primitive, rv reflect.Value, path []string) ([]word.Word, error) {
	v, ok := toBig(rv)
	if !ok {
		goType := "nil"
		if rv.IsValid() {
			goType = rv.Type().String()
		}
		return nil, errors.TypeMismatch(errors.PhasePack, path, goType, p.String())
	}

	widths := p.Widths()
	bits := widths[0]
	if p == schema.U256 {
		bits = 256
	}

	if p.Signed() {
		min := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)))
		max := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		if v.Cmp(min) < 0 || v.Cmp(max) >= 0 {
			return nil, overflow(path, v, p)
		}
		if v.Sign() < 0 {
			v.Add(v, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
		}
	} else if v.Sign() < 0 || v.BitLen() > int(bits) {
		return nil, overflow(path, v, p)
	}

	if p == schema.U256 {
		low := new(big.Int).And(v, lowMask(128))
		high := new(big.Int).Rsh(v, 128)
		return []word.Word{word.MustFromBig(low), word.MustFromBig(high)}, nil
	}
	return []word.Word{word.MustFromBig(v)}, nil
}

func overflow(path []string, v *big.Int, p schema.Primitive) error {
	return errors.New(errors.PhasePack, errors.KindInvalidInput).
		Path(path...).
		TyName(p.String()).
		Value(v.String()).
		Detail("value %s out of range", v).
		Build()
}

// primitiveValue joins leaf words back into an integer, applying sign.
func primitiveValue(p schema.Primitive, leaves []word.Word) *big.Int {
	if p == schema.U256 {
		v := leaves[1].Big()
		v.Lsh(v, 128)
		return v.Or(v, leaves[0].Big())
	}
	v := leaves[0].Big()
	if p.Signed() {
		bits := p.Widths()[0]
		if v.Bit(int(bits-1)) == 1 {
			v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
		}
	}
	return v
}

// natural returns the default Go representation of a primitive value.
func natural(p schema.Primitive, v *big.Int) any {
	switch p {
	case schema.Bool:
		return v.Sign() != 0
	case schema.U8:
		return uint8(v.Uint64())
	case schema.U16:
		return uint16(v.Uint64())
	case schema.U32:
		return uint32(v.Uint64())
	case schema.U64:
		return v.Uint64()
	case schema.I8:
		return int8(v.Int64())
	case schema.I16:
		return int16(v.Int64())
	case schema.I32:
		return int32(v.Int64())
	case schema.I64:
		return v.Int64()
	case schema.U128:
		u, _ := word.U128FromBig(v)
		return u
	case schema.I128:
		i, _ := word.I128FromBig(v)
		return i
	case schema.U256:
		u, _ := word.U256FromBig(v)
		return u
	case schema.ClassHash:
		return word.ClassHash(word.MustFromBig(v))
	case schema.ContractAddress:
		return word.Address(word.MustFromBig(v))
	case schema.EthAddress:
		var e word.EthAddress
		w := word.MustFromBig(v)
		copy(e[:], w[word.Size-len(e):])
		return e
	default:
		return word.MustFromBig(v)
	}
}

// assignPrimitive stores v into target, converting to target's type.
func assignPrimitive(p schema.Primitive, v *big.Int, target reflect.Value, path []string) error {
	if target.Kind() == reflect.Interface {
		target.Set(reflect.ValueOf(natural(p, v)))
		return nil
	}

	if target.Type() == bigIntType {
		target.Set(reflect.ValueOf(v))
		return nil
	}

	nat := reflect.ValueOf(natural(p, v))
	if nat.Type() == target.Type() {
		target.Set(nat)
		return nil
	}
	if nat.Type().ConvertibleTo(target.Type()) && nat.Kind() == target.Kind() {
		target.Set(nat.Convert(target.Type()))
		return nil
	}

	mismatch := func() error {
		return errors.TypeMismatch(errors.PhaseUnpack, path, target.Type().String(), p.String())
	}

	switch target.Kind() {
	case reflect.Bool:
		target.SetBool(v.Sign() != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !v.IsInt64() || target.OverflowInt(v.Int64()) {
			return mismatch()
		}
		target.SetInt(v.Int64())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !v.IsUint64() || target.OverflowUint(v.Uint64()) {
			return mismatch()
		}
		target.SetUint(v.Uint64())
	case reflect.String:
		if p.Signed() || p <= schema.U64 {
			target.SetString(v.String())
		} else {
			target.SetString("0x" + v.Text(16))
		}
	default:
		return mismatch()
	}
	return nil
}

package word

import (
	"fmt"
	"math/big"
)

// U128 is an unsigned 128-bit integer.
type U128 struct {
	Hi, Lo uint64
}

// I128 is a signed 128-bit integer in two's complement.
type I128 struct {
	Hi, Lo uint64
}

// U256 is an unsigned 256-bit integer stored as two 128-bit halves.
type U256 struct {
	Low, High U128
}

// ClassHash identifies a class.
type ClassHash Word

// Address is a contract address. Accounts are addresses.
type Address Word

// EthAddress is a 20-byte Ethereum address.
type EthAddress [20]byte

var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

// Big returns the value as an integer.
func (u U128) Big() *big.Int {
	v := new(big.Int).SetUint64(u.Hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(u.Lo))
}

// U128FromBig converts 0 <= v < 2^128.
func U128FromBig(v *big.Int) (U128, error) {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return U128{}, fmt.Errorf("value %s out of u128 range", v)
	}
	lo := new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(v, 64)
	return U128{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}

// Big returns the signed value.
func (i I128) Big() *big.Int {
	v := U128(i).Big()
	if i.Hi>>63 == 1 {
		v.Sub(v, two128)
	}
	return v
}

// I128FromBig converts -2^127 <= v < 2^127.
func I128FromBig(v *big.Int) (I128, error) {
	if v.BitLen() > 127 && !(v.Sign() < 0 && new(big.Int).Neg(v).Cmp(new(big.Int).Lsh(big.NewInt(1), 127)) == 0) {
		return I128{}, fmt.Errorf("value %s out of i128 range", v)
	}
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	r, err := U128FromBig(u)
	return I128(r), err
}

// Big returns the value as an integer.
func (u U256) Big() *big.Int {
	v := u.High.Big()
	v.Lsh(v, 128)
	return v.Or(v, u.Low.Big())
}

// U256FromBig converts 0 <= v < 2^256.
func U256FromBig(v *big.Int) (U256, error) {
	if v.Sign() < 0 || v.BitLen() > 256 {
		return U256{}, fmt.Errorf("value %s out of u256 range", v)
	}
	low, _ := U128FromBig(new(big.Int).And(v, new(big.Int).Sub(two128, big.NewInt(1))))
	high, _ := U128FromBig(new(big.Int).Rsh(v, 128))
	return U256{Low: low, High: high}, nil
}

func (a Address) String() string   { return Word(a).String() }
func (c ClassHash) String() string { return Word(c).String() }

// Word returns the address as a storage word.
func (a Address) Word() Word { return Word(a) }

// ParseAddress reads an address in hex or decimal.
func ParseAddress(s string) (Address, error) {
	w, err := Parse(s)
	if err != nil {
		return Address{}, err
	}
	if !w.InRange() {
		return Address{}, fmt.Errorf("address %s exceeds %d bits", s, Bits)
	}
	return Address(w), nil
}

// Word returns the address right-aligned in a word.
func (e EthAddress) Word() Word {
	w, _ := FromBytes(e[:])
	return w
}

// String renders 0x-prefixed hex of all 20 bytes.
func (e EthAddress) String() string {
	return fmt.Sprintf("0x%x", e[:])
}

// Package word defines the fixed-width storage scalar and the typed scalars
// that map onto it.
//
// A Word is a 256-bit big-endian container. Values packed by the codec never
// exceed Bits usable bits, one less than the field the host store represents.
package word

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Bits is the usable bit-width W of a storage word.
const Bits = 251

// Size is the byte length of a Word.
const Size = 32

// Word is a single storage slot value.
type Word [Size]byte

// Zero is the all-zero word.
var Zero Word

var (
	limit = new(big.Int).Lsh(big.NewInt(1), Bits)
	mask  = new(big.Int).Sub(limit, big.NewInt(1))
	span  = new(big.Int).Lsh(big.NewInt(1), Size*8)
)

// Limit returns 2^Bits.
func Limit() *big.Int {
	return new(big.Int).Set(limit)
}

// Mask returns 2^Bits - 1.
func Mask() *big.Int {
	return new(big.Int).Set(mask)
}

// FromUint64 returns the word holding v.
func FromUint64(v uint64) Word {
	var w Word
	for i := 0; i < 8; i++ {
		w[Size-1-i] = byte(v >> (8 * i))
	}
	return w
}

// FromBig converts a non-negative integer below 2^256.
func FromBig(v *big.Int) (Word, error) {
	var w Word
	if v.Sign() < 0 {
		return w, fmt.Errorf("negative value %s", v)
	}
	if v.Cmp(span) >= 0 {
		return w, fmt.Errorf("value %s exceeds 256 bits", v)
	}
	v.FillBytes(w[:])
	return w, nil
}

// MustFromBig is FromBig for values known to be in range.
func MustFromBig(v *big.Int) Word {
	w, err := FromBig(v)
	if err != nil {
		panic(err)
	}
	return w
}

// FromBytes right-aligns b (at most 32 bytes) into a word.
func FromBytes(b []byte) (Word, error) {
	var w Word
	if len(b) > Size {
		return w, fmt.Errorf("%d bytes exceed word size", len(b))
	}
	copy(w[Size-len(b):], b)
	return w, nil
}

// Parse reads a 0x-prefixed hex or a decimal string.
func Parse(s string) (Word, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return Zero, fmt.Errorf("invalid word %q", s)
	}
	return FromBig(v)
}

// MustParse is Parse for constants.
func MustParse(s string) Word {
	w, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return w
}

// Big returns the word as an unsigned integer.
func (w Word) Big() *big.Int {
	return new(big.Int).SetBytes(w[:])
}

// Uint64 returns the low 64 bits.
func (w Word) Uint64() uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(w[Size-1-i]) << (8 * i)
	}
	return v
}

// IsZero reports whether every bit is clear.
func (w Word) IsZero() bool {
	return w == Zero
}

// BitLen returns the position of the highest set bit.
func (w Word) BitLen() int {
	for i, b := range w {
		if b != 0 {
			n := 0
			for b != 0 {
				n++
				b >>= 1
			}
			return (Size-1-i)*8 + n
		}
	}
	return 0
}

// InRange reports whether the word fits in Bits bits.
func (w Word) InRange() bool {
	return w.BitLen() <= Bits
}

// Bytes returns a copy of the big-endian bytes.
func (w Word) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, w[:])
	return b
}

// String renders minimal 0x hex.
func (w Word) String() string {
	s := strings.TrimLeft(hex.EncodeToString(w[:]), "0")
	if s == "" {
		s = "0"
	}
	return "0x" + s
}

// MarshalText implements encoding.TextMarshaler.
func (w Word) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Word) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// Words converts uint64 values.
func Words(vs ...uint64) []Word {
	out := make([]Word, len(vs))
	for i, v := range vs {
		out[i] = FromUint64(v)
	}
	return out
}

// Equal compares two word slices.
func Equal(a, b []Word) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Concat joins words into their 32-byte big-endian encodings.
func Concat(words []Word) []byte {
	out := make([]byte, 0, len(words)*Size)
	for _, w := range words {
		out = append(out, w[:]...)
	}
	return out
}

// Split reverses Concat. len(b) must be a multiple of Size.
func Split(b []byte) ([]Word, error) {
	if len(b)%Size != 0 {
		return nil, fmt.Errorf("%d bytes is not a multiple of %d", len(b), Size)
	}
	out := make([]Word, len(b)/Size)
	for i := range out {
		copy(out[i][:], b[i*Size:])
	}
	return out, nil
}

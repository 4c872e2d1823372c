package codec

import (
	"math/big"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/word"
)

// Packer accumulates fixed-width values into word.Bits-bit words.
//
// A value that does not fit in the current word is split: its low bits fill
// the current word and its high bits start the next one.
type Packer struct {
	acc     *big.Int
	words   []word.Word
	offset  uint32
	pending bool
}

// NewPacker starts packing at startOffset bits into the first word.
// The first returned word is the resumed word; its low startOffset bits are zero.
func NewPacker(startOffset uint32) (*Packer, error) {
	if startOffset > word.Bits {
		return nil, errors.LengthMismatch(errors.PhasePack, "start offset %d exceeds %d", startOffset, word.Bits)
	}
	return &Packer{
		acc:     new(big.Int),
		offset:  startOffset,
		pending: startOffset > 0,
	}, nil
}

func checkWidth(phase errors.Phase, width uint32) error {
	if width == 0 || width > word.Bits {
		return errors.InvalidWidth(phase, nil, width, word.Bits)
	}
	return nil
}

// Write appends v using exactly width bits. v must be below 2^width.
func (p *Packer) Write(v word.Word, width uint32) error {
	if err := checkWidth(errors.PhasePack, width); err != nil {
		return err
	}
	if v.BitLen() > int(width) {
		return errors.New(errors.PhasePack, errors.KindInvalidInput).
			Value(v.String()).
			Detail("value %s does not fit in %d bits", v, width).
			Build()
	}

	if p.offset == word.Bits {
		p.flush()
	}

	val := v.Big()
	remaining := word.Bits - p.offset
	if width <= remaining {
		p.acc.Or(p.acc, val.Lsh(val, uint(p.offset)))
		p.offset += width
		p.pending = true
		return nil
	}

	low := new(big.Int).And(val, lowMask(remaining))
	p.acc.Or(p.acc, low.Lsh(low, uint(p.offset)))
	p.flush()

	p.acc.Rsh(val, uint(remaining))
	p.offset = width - remaining
	p.pending = true
	return nil
}

// Align closes the current word so the next value starts on a word boundary.
func (p *Packer) Align() {
	if p.pending {
		p.flush()
	}
}

// Words flushes the partial word and returns everything packed so far.
func (p *Packer) Words() []word.Word {
	p.Align()
	return p.words
}

// Offset returns the bit offset into the current word.
func (p *Packer) Offset() uint32 {
	return p.offset
}

func (p *Packer) flush() {
	p.words = append(p.words, word.MustFromBig(p.acc))
	p.acc = new(big.Int)
	p.offset = 0
	p.pending = false
}

func lowMask(bits uint32) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return m.Sub(m, big.NewInt(1))
}

// Unpacker reads fixed-width values back out of packed words.
type Unpacker struct {
	words  []word.Word
	index  int
	offset uint32
}

// NewUnpacker starts reading at startOffset bits into words[0].
func NewUnpacker(words []word.Word, startOffset uint32) (*Unpacker, error) {
	if startOffset > word.Bits {
		return nil, errors.LengthMismatch(errors.PhaseUnpack, "start offset %d exceeds %d", startOffset, word.Bits)
	}
	return &Unpacker{words: words, offset: startOffset}, nil
}

// Read returns the next width-bit value.
func (u *Unpacker) Read(width uint32) (word.Word, error) {
	if err := checkWidth(errors.PhaseUnpack, width); err != nil {
		return word.Zero, err
	}

	if u.offset == word.Bits {
		u.index++
		u.offset = 0
	}
	if u.index >= len(u.words) {
		return word.Zero, u.exhausted()
	}

	cur := u.words[u.index].Big()
	remaining := word.Bits - u.offset
	if width <= remaining {
		v := cur.Rsh(cur, uint(u.offset))
		v.And(v, lowMask(width))
		u.offset += width
		return word.MustFromBig(v), nil
	}

	low := cur.Rsh(cur, uint(u.offset))
	low.And(low, lowMask(remaining))
	if u.index+1 >= len(u.words) {
		return word.Zero, u.exhausted()
	}
	u.index++
	high := u.words[u.index].Big()
	high.And(high, lowMask(width-remaining))
	high.Lsh(high, uint(remaining))
	u.offset = width - remaining
	return word.MustFromBig(high.Or(high, low)), nil
}

// Align skips the rest of the current word.
func (u *Unpacker) Align() {
	if u.offset > 0 {
		u.index++
		u.offset = 0
	}
}

// Consumed returns how many words have been touched.
func (u *Unpacker) Consumed() int {
	if u.offset > 0 {
		return u.index + 1
	}
	return u.index
}

func (u *Unpacker) exhausted() error {
	return errors.LengthMismatch(errors.PhaseUnpack, "ran out of words after %d", len(u.words))
}

// Pack packs values with the matching widths, starting startOffset bits into
// the first word.
func Pack(values []word.Word, widths []uint32, startOffset uint32) ([]word.Word, error) {
	if len(values) != len(widths) {
		return nil, errors.LengthMismatch(errors.PhasePack, "%d values for %d widths", len(values), len(widths))
	}
	p, err := NewPacker(startOffset)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if err := p.Write(v, widths[i]); err != nil {
			return nil, err
		}
	}
	return p.Words(), nil
}

// Unpack reverses Pack from offset 0.
func Unpack(words []word.Word, widths []uint32) ([]word.Word, error) {
	return UnpackFrom(words, widths, 0)
}

// UnpackFrom reverses Pack for the given start offset.
func UnpackFrom(words []word.Word, widths []uint32, startOffset uint32) ([]word.Word, error) {
	u, err := NewUnpacker(words, startOffset)
	if err != nil {
		return nil, err
	}
	out := make([]word.Word, 0, len(widths))
	for _, w := range widths {
		v, err := u.Read(w)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

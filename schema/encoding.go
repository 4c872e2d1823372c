package schema

import (
	"fmt"

	"github.com/wippyai/wordstore/word"
)

// Encoding selects how enum variants are numbered in storage.
type Encoding uint8

const (
	// EncodingLegacy numbers variants from zero in declaration order.
	EncodingLegacy Encoding = iota
	// EncodingNative numbers variants from one; zero marks an unset value.
	EncodingNative
)

func (e Encoding) String() string {
	switch e {
	case EncodingLegacy:
		return "legacy"
	case EncodingNative:
		return "native"
	}
	return "unknown"
}

// ParseEncoding resolves "legacy" or "native".
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "legacy":
		return EncodingLegacy, nil
	case "native":
		return EncodingNative, nil
	}
	return 0, fmt.Errorf("unknown encoding %q", s)
}

// VariantSelector returns the stored discriminant of the variant at index.
func (e Encoding) VariantSelector(index int) word.Word {
	if e == EncodingNative {
		return word.FromUint64(uint64(index) + 1)
	}
	return word.FromUint64(uint64(index))
}

// MaxVariants is the number of variants an 8-bit discriminant can address.
const MaxVariants = 255

// DiscriminantWidth is the Fixed width used for enum discriminants.
const DiscriminantWidth = 8

// Package selector derives stable identifiers for namespaces, resources and
// members.
//
// Every derivation goes through H, a blake3 digest of the big-endian input
// words truncated to word.Bits bits.
package selector

import (
	"regexp"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/word"
)

// topBits clears the bits of the first digest byte above word.Bits.
const topBits = byte(0xff >> (word.Size*8 - word.Bits))

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Hash is H over a sequence of words.
func Hash(words ...word.Word) word.Word {
	h := blake3.New()
	for i := range words {
		_, _ = h.Write(words[i][:])
	}
	var out word.Word
	copy(out[:], h.Sum(nil))
	out[0] &= topBits
	return out
}

// NameHash is H over the byte array serialization of name.
func NameHash(name string) word.Word {
	return Hash(word.EncodeByteArray([]byte(name))...)
}

// Namespace returns the selector of a namespace.
func Namespace(namespace string) word.Word {
	return NameHash(namespace)
}

// Resource returns H(H(namespace), H(name)).
func Resource(namespace, name string) word.Word {
	return Combine(NameHash(namespace), NameHash(name))
}

// Combine returns H(namespaceHash, nameHash).
func Combine(namespaceHash, nameHash word.Word) word.Word {
	return Hash(namespaceHash, nameHash)
}

// Member returns the selector of a struct member.
func Member(name string) word.Word {
	return NameHash(name)
}

// Tag joins a namespace and a resource name.
func Tag(namespace, name string) string {
	return namespace + "-" + name
}

// SplitTag splits a tag at its first dash. Names cannot contain dashes.
func SplitTag(tag string) (namespace, name string, err error) {
	ns, n, ok := strings.Cut(tag, "-")
	if !ok {
		return "", "", errors.InvalidInput(errors.PhaseRegister, nil, "tag "+tag+" must be namespace-name")
	}
	if err := ValidateName("namespace", ns); err != nil {
		return "", "", err
	}
	if err := ValidateName("resource", n); err != nil {
		return "", "", err
	}
	return ns, n, nil
}

// ValidName reports whether s matches ^[a-zA-Z0-9_]+$.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// ValidateName returns an invalid input error for a malformed name.
func ValidateName(what, s string) error {
	if !ValidName(s) {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Detail("%s name %q must match %s", what, s, namePattern.String()).
			Build()
	}
	return nil
}

package schema

import (
	"fmt"

	"github.com/wippyai/wordstore/word"
)

// Serialized descriptor tags.
const (
	tagPrimitive = iota
	tagStruct
	tagEnum
	tagTuple
	tagArray
	tagByteArray
)

// maxDepth bounds nesting when reading untrusted words.
const maxDepth = 64

// ToWords serializes a descriptor. Names are written as byte arrays.
func ToWords(t *Ty) []word.Word {
	var out []word.Word
	writeTy(&out, t)
	return out
}

func writeTy(out *[]word.Word, t *Ty) {
	switch t.Kind {
	case KindPrimitive:
		*out = append(*out, word.FromUint64(tagPrimitive), word.FromUint64(uint64(t.Primitive)))
	case KindStruct:
		*out = append(*out, word.FromUint64(tagStruct))
		writeName(out, t.Name)
		writeAttrs(out, t.Attrs)
		*out = append(*out, word.FromUint64(uint64(len(t.Members))))
		for _, m := range t.Members {
			writeName(out, m.Name)
			writeAttrs(out, m.Attrs)
			key := uint64(0)
			if m.Key {
				key = 1
			}
			*out = append(*out, word.FromUint64(key))
			writeTy(out, m.Ty)
		}
	case KindEnum:
		*out = append(*out, word.FromUint64(tagEnum))
		writeName(out, t.Name)
		writeAttrs(out, t.Attrs)
		*out = append(*out, word.FromUint64(uint64(len(t.Variants))))
		for _, v := range t.Variants {
			writeName(out, v.Name)
			writeTy(out, v.Ty)
		}
	case KindTuple:
		*out = append(*out, word.FromUint64(tagTuple), word.FromUint64(uint64(len(t.Items))))
		for _, it := range t.Items {
			writeTy(out, it)
		}
	case KindArray:
		*out = append(*out, word.FromUint64(tagArray))
		writeTy(out, t.Elem)
	case KindByteArray:
		*out = append(*out, word.FromUint64(tagByteArray))
	}
}

func writeName(out *[]word.Word, s string) {
	*out = append(*out, word.EncodeByteArray([]byte(s))...)
}

func writeAttrs(out *[]word.Word, attrs []string) {
	*out = append(*out, word.FromUint64(uint64(len(attrs))))
	for _, a := range attrs {
		writeName(out, a)
	}
}

// FromWords reads a descriptor written by ToWords and returns the number of
// words consumed.
func FromWords(words []word.Word) (*Ty, int, error) {
	r := &tyReader{words: words}
	t, err := r.ty(0)
	if err != nil {
		return nil, 0, err
	}
	return t, r.pos, nil
}

type tyReader struct {
	words []word.Word
	pos   int
}

func (r *tyReader) next() (uint64, error) {
	if r.pos >= len(r.words) {
		return 0, fmt.Errorf("descriptor truncated at word %d", r.pos)
	}
	w := r.words[r.pos]
	r.pos++
	if w.BitLen() > 32 {
		return 0, fmt.Errorf("descriptor word %d out of range: %s", r.pos-1, w)
	}
	return w.Uint64(), nil
}

func (r *tyReader) name() (string, error) {
	b, n, err := word.DecodeByteArray(r.words[r.pos:])
	if err != nil {
		return "", err
	}
	r.pos += n
	return string(b), nil
}

func (r *tyReader) attrs() ([]string, error) {
	n, err := r.next()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		a, err := r.name()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *tyReader) ty(depth int) (*Ty, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("descriptor nesting exceeds %d", maxDepth)
	}
	tag, err := r.next()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagPrimitive:
		p, err := r.next()
		if err != nil {
			return nil, err
		}
		if !Primitive(p).Valid() {
			return nil, fmt.Errorf("unknown primitive %d", p)
		}
		return Prim(Primitive(p)), nil
	case tagStruct:
		t := &Ty{Kind: KindStruct}
		if t.Name, err = r.name(); err != nil {
			return nil, err
		}
		if t.Attrs, err = r.attrs(); err != nil {
			return nil, err
		}
		n, err := r.next()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			var m Member
			if m.Name, err = r.name(); err != nil {
				return nil, err
			}
			if m.Attrs, err = r.attrs(); err != nil {
				return nil, err
			}
			key, err := r.next()
			if err != nil {
				return nil, err
			}
			m.Key = key == 1
			if m.Ty, err = r.ty(depth + 1); err != nil {
				return nil, err
			}
			t.Members = append(t.Members, m)
		}
		return t, nil
	case tagEnum:
		t := &Ty{Kind: KindEnum}
		if t.Name, err = r.name(); err != nil {
			return nil, err
		}
		if t.Attrs, err = r.attrs(); err != nil {
			return nil, err
		}
		n, err := r.next()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			var v Variant
			if v.Name, err = r.name(); err != nil {
				return nil, err
			}
			if v.Ty, err = r.ty(depth + 1); err != nil {
				return nil, err
			}
			t.Variants = append(t.Variants, v)
		}
		return t, nil
	case tagTuple:
		n, err := r.next()
		if err != nil {
			return nil, err
		}
		t := &Ty{Kind: KindTuple}
		for i := uint64(0); i < n; i++ {
			it, err := r.ty(depth + 1)
			if err != nil {
				return nil, err
			}
			t.Items = append(t.Items, it)
		}
		return t, nil
	case tagArray:
		elem, err := r.ty(depth + 1)
		if err != nil {
			return nil, err
		}
		return Array(elem), nil
	case tagByteArray:
		return ByteArray(), nil
	}
	return nil, fmt.Errorf("unknown descriptor tag %d", tag)
}

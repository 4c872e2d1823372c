package word

import "fmt"

// ChunkSize is the number of bytes held by one full ByteArray word.
const ChunkSize = 31

// EncodeByteArray returns the wire words for b:
// the full-chunk count, each full 31-byte chunk, the pending chunk and its length.
func EncodeByteArray(b []byte) []Word {
	full := len(b) / ChunkSize
	out := make([]Word, 0, full+3)
	out = append(out, FromUint64(uint64(full)))
	for i := 0; i < full; i++ {
		w, _ := FromBytes(b[i*ChunkSize : (i+1)*ChunkSize])
		out = append(out, w)
	}
	pending := b[full*ChunkSize:]
	w, _ := FromBytes(pending)
	out = append(out, w, FromUint64(uint64(len(pending))))
	return out
}

// DecodeByteArray reads one ByteArray from the front of words and returns the
// bytes and the number of words consumed.
func DecodeByteArray(words []Word) ([]byte, int, error) {
	if len(words) < 1 {
		return nil, 0, fmt.Errorf("byte array: missing chunk count")
	}
	count := words[0]
	if count.BitLen() > 32 {
		return nil, 0, fmt.Errorf("byte array: chunk count %s too large", count)
	}
	full := int(count.Uint64())
	need := 1 + full + 2
	if len(words) < need {
		return nil, 0, fmt.Errorf("byte array: need %d words, have %d", need, len(words))
	}
	out := make([]byte, 0, full*ChunkSize+ChunkSize)
	for i := 0; i < full; i++ {
		chunk := words[1+i]
		if chunk.BitLen() > ChunkSize*8 {
			return nil, 0, fmt.Errorf("byte array: chunk %d exceeds %d bytes", i, ChunkSize)
		}
		out = append(out, chunk[Size-ChunkSize:]...)
	}
	pending := words[1+full]
	plen := words[2+full]
	if plen.BitLen() > 8 || plen.Uint64() >= ChunkSize {
		return nil, 0, fmt.Errorf("byte array: pending length %s out of range", plen)
	}
	n := int(plen.Uint64())
	if pending.BitLen() > n*8 {
		return nil, 0, fmt.Errorf("byte array: pending word wider than %d bytes", n)
	}
	out = append(out, pending[Size-n:]...)
	return out, need, nil
}

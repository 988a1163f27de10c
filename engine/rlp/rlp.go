// Package rlp implements the recursive length prefix encoding used by
// Ethereum block headers, plus the index-keyed Merkle-Patricia trie root
// needed to recompute transaction and withdrawal roots.
package rlp

import "math/big"

// EncodeBytes encodes a byte string.
func EncodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	return append(encodeLength(len(b), 0x80), b...)
}

// EncodeUint64 encodes an integer as a big-endian minimal byte string.
func EncodeUint64(v uint64) []byte {
	return EncodeBytes(uintBytes(v))
}

// EncodeBig encodes an arbitrary-precision integer. Nil encodes as zero.
func EncodeBig(v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return EncodeBytes(nil)
	}
	return EncodeBytes(v.Bytes())
}

// EncodeList wraps already-encoded items into a list. Items must be
// complete RLP encodings; they are concatenated verbatim, which also
// covers embedding raw sub-nodes in trie nodes.
func EncodeList(items ...[]byte) []byte {
	var payload []byte
	for _, item := range items {
		payload = append(payload, item...)
	}
	return append(encodeLength(len(payload), 0xc0), payload...)
}

// encodeLength builds the length prefix for strings (offset 0x80) or
// lists (offset 0xc0).
func encodeLength(length int, offset byte) []byte {
	if length <= 55 {
		return []byte{offset + byte(length)}
	}
	lenBytes := uintBytes(uint64(length))
	prefix := make([]byte, 0, 1+len(lenBytes))
	prefix = append(prefix, offset+55+byte(len(lenBytes)))
	return append(prefix, lenBytes...)
}

// uintBytes returns the big-endian minimal representation. Zero is the
// empty string per the RLP integer rules.
func uintBytes(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [8]byte
	n := 0
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
		n++
		if v == 0 {
			break
		}
	}
	return buf[8-n:]
}

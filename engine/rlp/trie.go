package rlp

import (
	"sort"

	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the Keccak-256 digest of data.
func Keccak256(data []byte) [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	h.Sum(out[:0])
	return out
}

// OrderedTrieRoot computes the Merkle-Patricia trie root of a list where
// item i is stored under key rlp(i). This is how block bodies commit to
// their transactions and withdrawals.
func OrderedTrieRoot(items [][]byte) [32]byte {
	if len(items) == 0 {
		return Keccak256(EncodeBytes(nil))
	}

	kvs := make([]trieKV, len(items))
	for i, item := range items {
		kvs[i] = trieKV{key: nibbles(EncodeUint64(uint64(i))), value: item}
	}
	sort.Slice(kvs, func(a, b int) bool { return nibbleLess(kvs[a].key, kvs[b].key) })

	enc := encodeTrieNode(kvs, 0)
	return Keccak256(enc)
}

type trieKV struct {
	key   []byte // nibble expansion of the RLP-encoded index
	value []byte
}

// encodeTrieNode returns the RLP encoding of the node containing kvs,
// which all share a key prefix of depth nibbles. kvs is non-empty and
// sorted by key.
func encodeTrieNode(kvs []trieKV, depth int) []byte {
	if len(kvs) == 1 {
		return EncodeList(
			EncodeBytes(hexPrefix(kvs[0].key[depth:], true)),
			EncodeBytes(kvs[0].value),
		)
	}

	// Extension node over any further shared prefix.
	common := commonPrefixLen(kvs, depth)
	if common > 0 {
		child := encodeTrieNode(kvs, depth+common)
		return EncodeList(
			EncodeBytes(hexPrefix(kvs[0].key[depth:depth+common], false)),
			childRef(child),
		)
	}

	// Branch node: 16 child slots plus the value slot for a key that
	// terminates exactly here.
	var slots [17][]byte
	for i := range slots {
		slots[i] = EncodeBytes(nil)
	}

	start := 0
	if len(kvs[0].key) == depth {
		slots[16] = EncodeBytes(kvs[0].value)
		start = 1
	}
	for i := start; i < len(kvs); {
		nib := kvs[i].key[depth]
		j := i
		for j < len(kvs) && kvs[j].key[depth] == nib {
			j++
		}
		slots[nib] = childRef(encodeTrieNode(kvs[i:j], depth+1))
		i = j
	}

	return EncodeList(slots[:]...)
}

// childRef embeds a child node inline when its encoding is shorter than
// a hash, otherwise refers to it by Keccak-256.
func childRef(enc []byte) []byte {
	if len(enc) < 32 {
		return enc
	}
	hash := Keccak256(enc)
	return EncodeBytes(hash[:])
}

// hexPrefix applies the hex-prefix encoding to a nibble path.
func hexPrefix(path []byte, leaf bool) []byte {
	var flag byte
	if leaf {
		flag = 2
	}
	if len(path)%2 == 1 {
		out := make([]byte, (len(path)+1)/2)
		out[0] = (flag+1)<<4 | path[0]
		for i := 1; i < len(path); i += 2 {
			out[(i+1)/2] = path[i]<<4 | path[i+1]
		}
		return out
	}
	out := make([]byte, len(path)/2+1)
	out[0] = flag << 4
	for i := 0; i < len(path); i += 2 {
		out[i/2+1] = path[i]<<4 | path[i+1]
	}
	return out
}

func nibbles(key []byte) []byte {
	out := make([]byte, 0, len(key)*2)
	for _, b := range key {
		out = append(out, b>>4, b&0x0f)
	}
	return out
}

func nibbleLess(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func commonPrefixLen(kvs []trieKV, depth int) int {
	first, last := kvs[0].key[depth:], kvs[len(kvs)-1].key[depth:]
	n := 0
	for n < len(first) && n < len(last) && first[n] == last[n] {
		n++
	}
	return n
}

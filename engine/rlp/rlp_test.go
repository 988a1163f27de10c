package rlp

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"
)

func TestEncodeBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "empty string", input: nil, want: "80"},
		{name: "single low byte", input: []byte{0x00}, want: "00"},
		{name: "single high byte", input: []byte{0x80}, want: "8180"},
		{name: "dog", input: []byte("dog"), want: "83646f67"},
		{
			name:  "56 byte string",
			input: []byte(strings.Repeat("a", 56)),
			want:  "b838" + strings.Repeat("61", 56),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hex.EncodeToString(EncodeBytes(tt.input))
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEncodeUint64(t *testing.T) {
	tests := []struct {
		input uint64
		want  string
	}{
		{input: 0, want: "80"},
		{input: 15, want: "0f"},
		{input: 1024, want: "820400"},
		{input: 0xffffffffffffffff, want: "88ffffffffffffffff"},
	}

	for _, tt := range tests {
		got := hex.EncodeToString(EncodeUint64(tt.input))
		if got != tt.want {
			t.Errorf("EncodeUint64(%d): expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestEncodeBig(t *testing.T) {
	if got := hex.EncodeToString(EncodeBig(nil)); got != "80" {
		t.Errorf("nil should encode as zero, got %s", got)
	}
	if got := hex.EncodeToString(EncodeBig(big.NewInt(0))); got != "80" {
		t.Errorf("zero should encode empty, got %s", got)
	}
	v, _ := new(big.Int).SetString("0400", 16)
	if got := hex.EncodeToString(EncodeBig(v)); got != "820400" {
		t.Errorf("expected 820400, got %s", got)
	}
}

func TestEncodeList(t *testing.T) {
	if got := hex.EncodeToString(EncodeList()); got != "c0" {
		t.Errorf("empty list should be c0, got %s", got)
	}
	// ["cat", "dog"]
	got := hex.EncodeToString(EncodeList(EncodeBytes([]byte("cat")), EncodeBytes([]byte("dog"))))
	if got != "c88363617483646f67" {
		t.Errorf("expected c88363617483646f67, got %s", got)
	}
}

func TestKeccak256EmptyInput(t *testing.T) {
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	got := Keccak256(nil)
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("expected %s, got %x", want, got)
	}
}

func TestOrderedTrieRootEmpty(t *testing.T) {
	// keccak256(rlp("")), the canonical empty trie root.
	want := "56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"
	got := OrderedTrieRoot(nil)
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("expected %s, got %x", want, got)
	}
}

func TestOrderedTrieRootSingleItem(t *testing.T) {
	item := []byte("value")
	// One item under key rlp(0): root is the hash of the leaf node.
	leaf := EncodeList(
		EncodeBytes([]byte{0x20, 0x80}), // hex-prefix of nibbles(0x80), leaf flag
		EncodeBytes(item),
	)
	want := Keccak256(leaf)
	got := OrderedTrieRoot([][]byte{item})
	if !bytes.Equal(got[:], want[:]) {
		t.Errorf("expected %x, got %x", want, got)
	}
}

func TestOrderedTrieRootDeterministic(t *testing.T) {
	items := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}
	first := OrderedTrieRoot(items)
	second := OrderedTrieRoot(items)
	if !bytes.Equal(first[:], second[:]) {
		t.Error("root must be deterministic")
	}

	swapped := [][]byte{[]byte("b"), []byte("a"), []byte("c"), []byte("d")}
	other := OrderedTrieRoot(swapped)
	if bytes.Equal(first[:], other[:]) {
		t.Error("root must commit to item order")
	}
}

func TestOrderedTrieRootManyItems(t *testing.T) {
	// Push past 128 entries so multi-byte RLP keys and deeper branch
	// structure are exercised.
	items := make([][]byte, 200)
	for i := range items {
		items[i] = bytes.Repeat([]byte{byte(i)}, 40)
	}
	root := OrderedTrieRoot(items)

	truncated := OrderedTrieRoot(items[:199])
	if bytes.Equal(root[:], truncated[:]) {
		t.Error("root must commit to every item")
	}
}

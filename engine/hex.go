package engine

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Hash is a 32-byte hash serialized as a 0x-prefixed hex string.
type Hash [32]byte

// HexToHash parses a 0x-prefixed 32-byte hex string.
func HexToHash(s string) (Hash, error) {
	var h Hash
	raw, err := decodeHex(s)
	if err != nil {
		return h, err
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("engine: hash must be %d bytes, got %d", len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// String returns the 0x-prefixed hex representation.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalJSON implements json.Marshaler.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Hash) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	parsed, err := HexToHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Address is a 20-byte account address serialized as 0x-prefixed hex.
type Address [20]byte

// String returns the 0x-prefixed hex representation.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalJSON implements json.Marshaler.
func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Address) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	raw, err := decodeHex(s)
	if err != nil {
		return err
	}
	if len(raw) != len(a) {
		return fmt.Errorf("engine: address must be %d bytes, got %d", len(a), len(raw))
	}
	copy(a[:], raw)
	return nil
}

// Bloom is a 256-byte logs bloom serialized as 0x-prefixed hex.
type Bloom [256]byte

// MarshalJSON implements json.Marshaler.
func (b Bloom) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + hex.EncodeToString(b[:]) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bloom) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	raw, err := decodeHex(s)
	if err != nil {
		return err
	}
	if len(raw) != len(b) {
		return fmt.Errorf("engine: bloom must be %d bytes, got %d", len(b), len(raw))
	}
	copy(b[:], raw)
	return nil
}

// Bytes is variable-length binary data serialized as 0x-prefixed hex.
type Bytes []byte

// MarshalJSON implements json.Marshaler.
func (b Bytes) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + hex.EncodeToString(b) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	raw, err := decodeHex(s)
	if err != nil {
		return err
	}
	*b = raw
	return nil
}

// Uint64 is a hex-encoded quantity ("0x0", no leading zeros).
type Uint64 uint64

// MarshalJSON implements json.Marshaler.
func (u Uint64) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + strconv.FormatUint(uint64(u), 16) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *Uint64) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("engine: quantity %q missing 0x prefix", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return fmt.Errorf("engine: parse quantity %q: %w", s, err)
	}
	*u = Uint64(v)
	return nil
}

// Big is an arbitrary-precision hex-encoded quantity. Wei amounts such
// as baseFeePerGas and blockValue exceed uint64.
type Big big.Int

// NewBig wraps a big.Int.
func NewBig(i *big.Int) *Big {
	return (*Big)(i)
}

// Int returns the underlying big.Int.
func (b *Big) Int() *big.Int {
	return (*big.Int)(b)
}

// Cmp compares b and other.
func (b *Big) Cmp(other *Big) int {
	return b.Int().Cmp(other.Int())
}

// MarshalJSON implements json.Marshaler.
func (b *Big) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + b.Int().Text(16) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Big) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("engine: quantity %q missing 0x prefix", s)
	}
	i, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return fmt.Errorf("engine: parse quantity %q", s)
	}
	*b = Big(*i)
	return nil
}

func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("engine: hex value %q missing 0x prefix", s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("engine: decode hex %q: %w", s, err)
	}
	return raw, nil
}

func unquote(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", fmt.Errorf("engine: expected JSON string, got %s", data)
	}
	return string(data[1 : len(data)-1]), nil
}

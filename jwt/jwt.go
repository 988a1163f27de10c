package jwt

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SecretLength is the required decoded secret size in bytes.
const SecretLength = 32

// ErrInvalidSecret is returned when a secret does not decode to 32 bytes.
var ErrInvalidSecret = errors.New("jwt: secret must be 32 hex-encoded bytes")

// Secret is the raw HMAC key shared with an execution node.
type Secret []byte

// ParseSecret decodes a hex-encoded secret, tolerating an optional 0x
// prefix and surrounding whitespace.
func ParseSecret(s string) (Secret, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("jwt: decode secret: %w", err)
	}
	if len(raw) != SecretLength {
		return nil, ErrInvalidSecret
	}
	return Secret(raw), nil
}

// LoadSecret reads and parses a hex-encoded secret file, the format
// written by execution clients (geth's jwtsecret file).
func LoadSecret(path string) (Secret, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jwt: read secret file: %w", err)
	}
	return ParseSecret(string(data))
}

// Service signs and verifies engine API tokens for a single secret.
type Service struct {
	secret Secret
	now    func() time.Time
}

// NewService creates a token service over the given secret.
func NewService(secret Secret) *Service {
	return &Service{secret: secret, now: time.Now}
}

// Generate creates a signed token with an "iat" claim of now. Engine API
// servers reject tokens whose iat drifts more than 60 seconds, so tokens
// are generated per call rather than cached.
func (s *Service) Generate() (string, error) {
	claims := gojwt.RegisteredClaims{
		IssuedAt: gojwt.NewNumericDate(s.now()),
	}
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// AuthHeader returns a freshly signed Authorization header value.
func (s *Service) AuthHeader() (string, error) {
	token, err := s.Generate()
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}

// Verify checks a token's signature and iat claim against this secret.
func (s *Service) Verify(tokenString string) error {
	token, err := gojwt.ParseWithClaims(tokenString, &gojwt.RegisteredClaims{}, s.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuedAt(),
	)
	if err != nil {
		return fmt.Errorf("jwt: parse token: %w", err)
	}
	if !token.Valid {
		return errors.New("jwt: invalid token")
	}
	return nil
}

// keyFunc is the gojwt.Keyfunc used during token parsing.
func (s *Service) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("jwt: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(s.secret), nil
}

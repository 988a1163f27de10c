package jwt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const testSecretHex = "286960ab0219c9d9473a1cca0e347478e947122e4d240b47ad12a190d0466aef"

func TestParseSecret(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain hex", input: testSecretHex},
		{name: "0x prefix", input: "0x" + testSecretHex},
		{name: "trailing newline", input: testSecretHex + "\n"},
		{name: "too short", input: "deadbeef", wantErr: true},
		{name: "not hex", input: strings.Repeat("zz", 32), wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := ParseSecret(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(secret) != SecretLength {
				t.Errorf("expected %d bytes, got %d", SecretLength, len(secret))
			}
		})
	}
}

func TestLoadSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwtsecret")
	if err := os.WriteFile(path, []byte("0x"+testSecretHex+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	secret, err := LoadSecret(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(secret) != SecretLength {
		t.Errorf("expected %d bytes, got %d", SecretLength, len(secret))
	}

	if _, err := LoadSecret(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGenerateAndVerify(t *testing.T) {
	secret, err := ParseSecret(testSecretHex)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(secret)

	token, err := svc.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Verify(token); err != nil {
		t.Errorf("token should verify against its own secret: %v", err)
	}

	other := NewService(make(Secret, SecretLength))
	if err := other.Verify(token); err == nil {
		t.Error("token must not verify against a different secret")
	}
}

func TestGenerateSetsIssuedAt(t *testing.T) {
	secret, _ := ParseSecret(testSecretHex)
	svc := NewService(secret)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	token, err := svc.Generate()
	if err != nil {
		t.Fatal(err)
	}

	claims := &gojwt.RegisteredClaims{}
	_, err = gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.IssuedAt == nil || !claims.IssuedAt.Time.Equal(fixed) {
		t.Errorf("expected iat %v, got %v", fixed, claims.IssuedAt)
	}
	if claims.ExpiresAt != nil {
		t.Error("engine API tokens carry no exp claim")
	}
}

func TestAuthHeader(t *testing.T) {
	secret, _ := ParseSecret(testSecretHex)
	svc := NewService(secret)

	header, err := svc.AuthHeader()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(header, "Bearer ") {
		t.Errorf("expected Bearer prefix, got %q", header)
	}
	if err := svc.Verify(strings.TrimPrefix(header, "Bearer ")); err != nil {
		t.Errorf("header token should verify: %v", err)
	}
}

func TestVerifyRejectsWrongAlg(t *testing.T) {
	secret, _ := ParseSecret(testSecretHex)
	svc := NewService(secret)

	token := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.RegisteredClaims{
		IssuedAt: gojwt.NewNumericDate(time.Now()),
	})
	unsigned, err := token.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Verify(unsigned); err == nil {
		t.Error("alg=none token must be rejected")
	}
}

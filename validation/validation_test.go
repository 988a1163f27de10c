package validation

import (
	"strings"
	"testing"
)

func TestValidatorBuilder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		err := New().
			Required("name", "proxy").
			Range("port", 7000, 1, 65535).
			Fraction("fcu_majority", 0.6).
			Validate()
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("collects all failures", func(t *testing.T) {
		v := New().
			Required("name", "  ").
			Range("port", 0, 1, 65535).
			Fraction("fcu_majority", 1.5)
		if !v.HasErrors() {
			t.Fatal("expected errors")
		}
		if len(v.Errors()) != 3 {
			t.Errorf("expected 3 field errors, got %d", len(v.Errors()))
		}
		err := v.Validate()
		if err == nil {
			t.Fatal("expected an AppError")
		}
		if !strings.Contains(err.Message, "port") {
			t.Errorf("message should name the field: %s", err.Message)
		}
	})
}

func TestRequiredURL(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"http url", "http://127.0.0.1:8551", true},
		{"https url", "https://node.example.com", true},
		{"missing scheme", "node.example.com:8551", false},
		{"wrong scheme", "ws://127.0.0.1:8551", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New().RequiredURL("node", tt.value)
			if v.HasErrors() == tt.valid {
				t.Errorf("RequiredURL(%q): valid=%v, errors=%v", tt.value, tt.valid, v.Errors())
			}
		})
	}
}

func TestOneOf(t *testing.T) {
	if v := New().OneOf("network", "mainnet", []string{"mainnet", "holesky"}); v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
	if v := New().OneOf("network", "testnet", []string{"mainnet", "holesky"}); !v.HasErrors() {
		t.Error("expected an error for a value outside the set")
	}
}

func TestStructValidate(t *testing.T) {
	type serverConfig struct {
		ListenAddr string `mapstructure:"listen_addr" validate:"required"`
		Port       int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	}

	t.Run("valid", func(t *testing.T) {
		if err := Validate(serverConfig{ListenAddr: "0.0.0.0", Port: 7000}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		err := Validate(serverConfig{Port: 700000})
		if err == nil {
			t.Fatal("expected an error")
		}
		msg := err.Error()
		if !strings.Contains(msg, "listen_addr") {
			t.Errorf("expected the mapstructure field name, got %s", msg)
		}
		if !strings.Contains(msg, "at most 65535") {
			t.Errorf("expected the lte message, got %s", msg)
		}
	})
}

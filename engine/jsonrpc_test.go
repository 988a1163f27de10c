package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestIsEngineMethod(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{method: "engine_newPayloadV2", want: true},
		{method: "engine_getClientVersionV1", want: true},
		{method: "eth_syncing", want: false},
		{method: "eth_getBlockByNumber", want: false},
		{method: "", want: false},
	}

	for _, tt := range tests {
		if got := IsEngineMethod(tt.method); got != tt.want {
			t.Errorf("IsEngineMethod(%q) = %v, want %v", tt.method, got, tt.want)
		}
	}
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"jsonrpc":"2.0","id":7,"method":"engine_newPayloadV2","params":[{"timestamp":"0x1"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ID != 7 || req.Method != MethodNewPayloadV2 || len(req.Params) != 1 {
		t.Errorf("unexpected request: %+v", req)
	}

	if _, err := ParseRequest([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMakeResponse(t *testing.T) {
	body := MakeResponse(3, PayloadStatusV1{Status: StatusValid})

	var envelope struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      uint64          `json:"id"`
		Result  PayloadStatusV1 `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if envelope.JSONRPC != "2.0" || envelope.ID != 3 || envelope.Result.Status != StatusValid {
		t.Errorf("unexpected envelope: %s", body)
	}
}

func TestMakeError(t *testing.T) {
	body := MakeError(1, "no nodes available")

	var envelope struct {
		ID    uint64 `json:"id"`
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if envelope.Error.Code != -32700 || envelope.Error.Message != "no nodes available" {
		t.Errorf("unexpected envelope: %s", body)
	}
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "result present", body: `{"jsonrpc":"2.0","id":1,"result":false}`},
		{name: "invalid json", body: `{{{`, wantErr: ErrInvalidJSON},
		{name: "error object", body: `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"nope"}}`, wantErr: ErrNodeError},
		{name: "null error with result", body: `{"jsonrpc":"2.0","id":1,"error":null,"result":{}}`},
		{name: "no result", body: `{"jsonrpc":"2.0","id":1}`, wantErr: ErrNoResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseResult([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result) == 0 {
				t.Error("expected non-empty result")
			}
		})
	}
}

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/executionbackup/resilience"
)

func TestClient_Do_POST(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ae := r.Header.Get("Accept-Encoding"); ae != "identity" {
			t.Errorf("expected Accept-Encoding identity, got %q", ae)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":false}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Body:   []byte(`{"jsonrpc":"2.0","id":1,"method":"eth_syncing","params":[]}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 || !resp.IsSuccess() {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), "result") {
		t.Errorf("unexpected body: %s", resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected flattened Content-Type header, got %v", resp.Headers)
	}
}

func TestClient_Do_HeaderMerge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("X-Default"); v != "base" {
			t.Errorf("expected default header, got %q", v)
		}
		if v := r.Header.Get("X-Shared"); v != "override" {
			t.Errorf("expected request header to win, got %q", v)
		}
	}))
	defer srv.Close()

	c, _ := New(Config{
		BaseURL: srv.URL,
		Headers: map[string]string{"X-Default": "base", "X-Shared": "client"},
	})

	_, err := c.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Headers: map[string]string{"X-Shared": "override"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Do_AuthPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("Authorization"); v != "Bearer upstream-token" {
			t.Errorf("expected verbatim Authorization, got %q", v)
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Auth:   RawAuth("Bearer upstream-token"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Do_ErrorStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`{"error":"upstream"}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost})
	if err != nil {
		t.Fatalf("5xx must be forwarded, not classified: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

func TestClient_Do_ConnectionError(t *testing.T) {
	c, _ := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond})
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !IsConnection(err) {
		t.Errorf("expected connection classification, got %v", err)
	}
}

func TestClient_Do_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// Drop the first connection to force a transport error.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("hijacking unsupported")
			}
			conn, _, _ := hj.Hijack()
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	retry := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, RetryIf: IsRetryable}
	c, _ := New(Config{BaseURL: srv.URL, Retry: &retry})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost})
	if err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("unexpected body: %s", resp.Body)
	}
	if calls.Load() < 2 {
		t.Errorf("expected at least 2 attempts, got %d", calls.Load())
	}
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	cb := resilience.CircuitBreakerConfig{Name: "node", MaxFailures: 1, Timeout: time.Minute}
	c, _ := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond, CircuitBreaker: &cb})

	_, _ = c.Do(context.Background(), Request{Method: http.MethodPost})
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost})
	if err != resilience.ErrCircuitOpen {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

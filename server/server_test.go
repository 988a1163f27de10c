package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/executionbackup/jwt"
	"github.com/kbukum/executionbackup/node"
	"github.com/kbukum/executionbackup/router"
)

func testSecret(t *testing.T) jwt.Secret {
	t.Helper()
	secret, err := jwt.ParseSecret("286960ab0219c9d9473a1cca0e347478e947122e4d240b47ad12a190d0466aef")
	if err != nil {
		t.Fatal(err)
	}
	return secret
}

// syncedNode is an execution node stub that reports itself synced and
// answers every other call with result.
func syncedNode(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 4096)
		n, _ := r.Body.Read(buf)
		if strings.Contains(string(buf[:n]), "eth_syncing") {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":false}`))
			return
		}
		_, _ = w.Write([]byte(result))
	}))
}

func newTestServer(t *testing.T, urls ...string) *Server {
	t.Helper()
	secret := testSecret(t)

	nodes := make([]*node.Node, len(urls))
	for i, url := range urls {
		n, err := node.New(url, secret)
		if err != nil {
			t.Fatal(err)
		}
		nodes[i] = n
	}

	rt, err := router.New(router.Config{}, nodes)
	if err != nil {
		t.Fatal(err)
	}
	rt.Recheck(context.Background())

	return New(Config{Addr: "127.0.0.1:0"}, rt, func(url string) (*node.Node, error) {
		return node.New(url, secret)
	})
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestRequestIDHeader(t *testing.T) {
	upstream := syncedNode(t, "{}")
	defer upstream.Close()
	s := newTestServer(t, upstream.URL)

	w := do(t, s, http.MethodGet, "/executionbackup/version", "", map[string]string{"X-Request-Id": "abc-123"})
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("expected the caller's request id echoed, got %q", got)
	}

	w = do(t, s, http.MethodGet, "/executionbackup/version", "", nil)
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("expected a generated request id header")
	}
}

func TestVersionEndpoint(t *testing.T) {
	upstream := syncedNode(t, "{}")
	defer upstream.Close()
	s := newTestServer(t, upstream.URL)

	w := do(t, s, http.MethodGet, "/executionbackup/version", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "executionbackup/") {
		t.Errorf("unexpected version body: %s", w.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		upstream := syncedNode(t, "{}")
		defer upstream.Close()
		s := newTestServer(t, upstream.URL)

		w := do(t, s, http.MethodGet, "/executionbackup/status", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"alive_nodes":1`) {
			t.Errorf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("no nodes alive", func(t *testing.T) {
		s := newTestServer(t, "http://127.0.0.1:1")

		w := do(t, s, http.MethodGet, "/executionbackup/status", "", nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
	})
}

func TestRPCInvalidBody(t *testing.T) {
	upstream := syncedNode(t, "{}")
	defer upstream.Close()
	s := newTestServer(t, upstream.URL)

	w := do(t, s, http.MethodPost, "/", "not json", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRPCEngineMethodRequiresAuth(t *testing.T) {
	upstream := syncedNode(t, "{}")
	defer upstream.Close()
	s := newTestServer(t, upstream.URL)

	body := `{"jsonrpc":"2.0","id":1,"method":"engine_exchangeCapabilities","params":[[]]}`
	w := do(t, s, http.MethodPost, "/", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Authorization, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Authorization") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestRPCEngineMethodProxied(t *testing.T) {
	upstream := syncedNode(t, `{"jsonrpc":"2.0","id":1,"result":["engine_newPayloadV3"]}`)
	defer upstream.Close()
	s := newTestServer(t, upstream.URL)

	body := `{"jsonrpc":"2.0","id":1,"method":"engine_exchangeCapabilities","params":[[]]}`
	w := do(t, s, http.MethodPost, "/", body, map[string]string{"Authorization": "Bearer cl-token"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "engine_newPayloadV3") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestRPCNormalMethodProxied(t *testing.T) {
	upstream := syncedNode(t, `{"jsonrpc":"2.0","id":7,"result":"0x10"}`)
	defer upstream.Close()
	s := newTestServer(t, upstream.URL)

	body := `{"jsonrpc":"2.0","id":7,"method":"eth_blockNumber","params":[]}`
	w := do(t, s, http.MethodPost, "/", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "0x10") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	upstream := syncedNode(t, "{}")
	defer upstream.Close()
	s := newTestServer(t, upstream.URL)

	w := do(t, s, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"alive_nodes"`) || !strings.Contains(body, `"primary_node"`) {
		t.Errorf("unexpected report: %s", body)
	}
}

func TestRecheckEndpoint(t *testing.T) {
	upstream := syncedNode(t, "{}")
	defer upstream.Close()
	s := newTestServer(t, upstream.URL)

	w := do(t, s, http.MethodGet, "/recheck", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"recheck_time"`) {
		t.Errorf("expected recheck_time, got %s", w.Body.String())
	}
}

func TestAddNodesEndpoint(t *testing.T) {
	first := syncedNode(t, "{}")
	defer first.Close()
	second := syncedNode(t, "{}")
	defer second.Close()

	s := newTestServer(t, first.URL)

	t.Run("bad body", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/add_nodes", `{"nodes":[]}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("adds and rechecks", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/add_nodes", `{"nodes":["`+second.URL+`"]}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), second.URL) {
			t.Errorf("new node missing from report: %s", w.Body.String())
		}
	})
}

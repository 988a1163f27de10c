// Package node wraps a single execution client endpoint: health probing
// over eth_syncing, JSON-RPC passthrough, and engine API authentication.
package node

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/kbukum/executionbackup/httpclient"
	"github.com/kbukum/executionbackup/jwt"
	"github.com/kbukum/executionbackup/logger"
	"github.com/kbukum/executionbackup/observability"
)

// SyncStatus is a node's last observed state.
type SyncStatus int

const (
	// StatusOffline means the node is unreachable or erroring.
	StatusOffline SyncStatus = iota
	// StatusSynced means the node is reachable and fully synced.
	StatusSynced
	// StatusOnlineAndSyncing means the node answers but is still syncing.
	StatusOnlineAndSyncing
)

// String returns the status name.
func (s SyncStatus) String() string {
	switch s {
	case StatusOffline:
		return "offline"
	case StatusSynced:
		return "synced"
	case StatusOnlineAndSyncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// Health is the outcome of the last status probe.
type Health struct {
	Status SyncStatus
	// RespTime is how long the probe round trip took.
	RespTime time.Duration
}

const syncingProbe = `{"jsonrpc":"2.0","method":"eth_syncing","params":[],"id":1}`

// Node is one execution client endpoint with its own auth secret and
// resilient HTTP client.
type Node struct {
	// URL is the node's authenticated RPC endpoint.
	URL string

	client *httpclient.Client
	tokens *jwt.Service
	log    *logger.Logger

	mu     sync.RWMutex
	health Health
}

// New creates a node for url authenticated with secret.
func New(url string, secret jwt.Secret) (*Node, error) {
	client, err := httpclient.New(httpclient.Config{
		BaseURL:        url,
		Headers:        map[string]string{"Content-Type": "application/json"},
		Retry:          httpclient.DefaultRetryConfig(),
		CircuitBreaker: httpclient.DefaultCircuitBreakerConfig(url),
	})
	if err != nil {
		return nil, err
	}

	return &Node{
		URL:    url,
		client: client,
		tokens: jwt.NewService(secret),
		log:    logger.GetGlobalLogger().WithComponent("node"),
	}, nil
}

// Health returns the last probe outcome.
func (n *Node) Health() Health {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.health
}

// Status returns the last observed sync status.
func (n *Node) Status() SyncStatus {
	return n.Health().Status
}

// setHealth records a probe outcome, logging the transition once.
func (n *Node) setHealth(h Health) {
	n.mu.Lock()
	prev := n.health.Status
	n.health = h
	n.mu.Unlock()

	if prev == h.Status {
		return
	}
	fields := logger.Fields(logger.FieldNode, n.URL, logger.FieldStatus, h.Status.String())
	switch h.Status {
	case StatusOffline:
		n.log.Warn("node went offline", fields)
	case StatusSynced:
		n.log.Info("node online and synced", fields)
	case StatusOnlineAndSyncing:
		n.log.Info("node online but syncing", fields)
	}
}

// SetOnlineAndSyncing demotes the node after a routed request failed at
// the transport level. The next recheck re-evaluates it.
func (n *Node) SetOnlineAndSyncing() {
	n.mu.RLock()
	h := n.health
	n.mu.RUnlock()
	h.Status = StatusOnlineAndSyncing
	n.setHealth(h)
}

// CheckStatus probes the node with a signed eth_syncing call and records
// the outcome. result=false means synced, a sync-progress object means
// still syncing, and any transport or decode failure means offline.
func (n *Node) CheckStatus(ctx context.Context) Health {
	token, err := n.tokens.Generate()
	if err != nil {
		n.log.WithError(err).Error("could not sign health probe token", logger.Fields(logger.FieldNode, n.URL))
		h := Health{Status: StatusOffline}
		n.setHealth(h)
		return h
	}

	start := time.Now()
	resp, err := n.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Body:   []byte(syncingProbe),
		Auth:   httpclient.BearerAuth(token),
	})
	elapsed := time.Since(start)

	if err != nil {
		n.log.WithError(err).Error("health probe failed", logger.Fields(logger.FieldNode, n.URL))
		h := Health{Status: StatusOffline, RespTime: elapsed}
		n.setHealth(h)
		return h
	}

	if !resp.IsSuccess() {
		n.log.Warn("health probe rejected", logger.Fields(logger.FieldNode, n.URL, logger.FieldStatus, resp.StatusCode))
		h := Health{Status: StatusOffline, RespTime: elapsed}
		n.setHealth(h)
		return h
	}

	h := Health{Status: parseSyncingResult(resp.Body), RespTime: elapsed}
	n.setHealth(h)
	return h
}

// DoRequest forwards a JSON-RPC body to the node with the given
// Authorization header value, bounded by the client timeout.
func (n *Node) DoRequest(ctx context.Context, body []byte, authHeader string) (*httpclient.Response, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanUpstreamCall)
	defer span.End()
	observability.SetSpanAttribute(ctx, "node.url", n.URL)

	resp, err := n.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Body:   body,
		Auth:   httpclient.RawAuth(authHeader),
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return resp, err
}

// DoRequestNoTimeout forwards a JSON-RPC body without a client timeout.
// The consensus client enforces its own deadline on routed calls, and
// some (getPayload under load) legitimately run long.
func (n *Node) DoRequestNoTimeout(ctx context.Context, body []byte, authHeader string) (*httpclient.Response, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanUpstreamCall)
	defer span.End()
	observability.SetSpanAttribute(ctx, "node.url", n.URL)

	resp, err := n.client.DoNoTimeout(ctx, httpclient.Request{
		Method: http.MethodPost,
		Body:   body,
		Auth:   httpclient.RawAuth(authHeader),
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return resp, err
}

// SignedAuthHeader returns a fresh Authorization value for this node's
// secret, for callers that arrived without their own token.
func (n *Node) SignedAuthHeader() (string, error) {
	return n.tokens.AuthHeader()
}

// Package httpclient is the outbound HTTP layer used for every call to
// an execution node. It wraps net/http with per-node retry and circuit
// breaker behavior and carries the two header representations the proxy
// converts between: the wire-side multimap (http.Header) and the
// single-value map used on requests and responses.
package httpclient

// Package server exposes the proxy over HTTP.
//
// All JSON-RPC traffic arrives as POST / and is dispatched to the
// router; engine API calls must carry the consensus client's JWT
// Authorization header. Operational endpoints:
//
//	GET  /metrics                  node pool snapshot
//	GET  /recheck                  force a health recheck
//	POST /add_nodes                register nodes at runtime
//	GET  /executionbackup/version  build version
//	GET  /executionbackup/status   200 while any node is alive, else 503
//
// The listener speaks h2c so consensus clients may use HTTP/2 without
// TLS.
package server

// Package jwt implements the execution engine API authentication scheme:
// HS256 tokens over a shared 32-byte hex secret, carrying an "iat" claim.
//
// Each execution node can use its own secret; the router holds one Service
// per secret and signs a fresh token for every authenticated call.
package jwt

// Package router maintains the execution node pool and routes JSON-RPC
// traffic across it: health rechecks with primary election, engine API
// fan-out with consensus aggregation, and passthrough of everything else
// to the fastest synced node.
package router

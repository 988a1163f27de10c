// Package engine defines the execution engine API wire types and helpers
// shared by the node and router layers: the JSON-RPC envelope, payload
// status and forkchoice types, fork schedule resolution, and execution
// payload block hash verification.
package engine

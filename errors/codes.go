package errors

// ErrorCode is a machine-readable error code.
type ErrorCode string

const (
	// ErrCodeNoNodes indicates no execution node is available to serve a request.
	ErrCodeNoNodes ErrorCode = "NO_NODES_AVAILABLE"
	// ErrCodeUpstream indicates an execution node failed to answer a request.
	ErrCodeUpstream ErrorCode = "UPSTREAM_FAILURE"
	// ErrCodeTimeout indicates an upstream request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInvalidInput indicates a malformed inbound request.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnauthorized indicates a missing or unusable Authorization header.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInternal indicates an unexpected proxy-side failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

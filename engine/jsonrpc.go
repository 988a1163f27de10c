package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Engine API method names routed specially by the proxy.
const (
	MethodGetPayloadV1        = "engine_getPayloadV1"
	MethodGetPayloadV2        = "engine_getPayloadV2"
	MethodGetPayloadV3        = "engine_getPayloadV3"
	MethodNewPayloadV1        = "engine_newPayloadV1"
	MethodNewPayloadV2        = "engine_newPayloadV2"
	MethodNewPayloadV3        = "engine_newPayloadV3"
	MethodForkchoiceUpdatedV1 = "engine_forkchoiceUpdatedV1"
	MethodForkchoiceUpdatedV2 = "engine_forkchoiceUpdatedV2"
	MethodForkchoiceUpdatedV3 = "engine_forkchoiceUpdatedV3"
	MethodGetClientVersionV1  = "engine_getClientVersionV1"
)

// IsEngineMethod reports whether method belongs to the engine API namespace.
func IsEngineMethod(method string) bool {
	return strings.HasPrefix(method, "engine_")
}

// IsNewPayload reports whether method is an engine_newPayload variant.
func IsNewPayload(method string) bool {
	switch method {
	case MethodNewPayloadV1, MethodNewPayloadV2, MethodNewPayloadV3:
		return true
	}
	return false
}

// IsForkchoiceUpdated reports whether method is an engine_forkchoiceUpdated variant.
func IsForkchoiceUpdated(method string) bool {
	switch method {
	case MethodForkchoiceUpdatedV1, MethodForkchoiceUpdatedV2, MethodForkchoiceUpdatedV3:
		return true
	}
	return false
}

// RpcRequest is the JSON-RPC request envelope.
type RpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      uint64            `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// Marshal serializes the request for the wire.
func (r *RpcRequest) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// ParseRequest deserializes a JSON-RPC request body.
func ParseRequest(body []byte) (*RpcRequest, error) {
	var req RpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("engine: parse request: %w", err)
	}
	return &req, nil
}

// MakeResponse builds a JSON-RPC success envelope around result.
func MakeResponse(id uint64, result interface{}) []byte {
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
	if err != nil {
		return MakeError(id, "could not serialize result")
	}
	return body
}

// MakeError builds a JSON-RPC error envelope with the parse error code.
func MakeError(id uint64, message string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    -32700,
			"message": message,
		},
	})
	return body
}

// Parse failures distinguished by ParseResult.
var (
	ErrInvalidJSON = errors.New("engine: response is not valid JSON")
	ErrNodeError   = errors.New("engine: response carries an error object")
	ErrNoResult    = errors.New("engine: response has no result field")
)

// ParseResult extracts the result field from a JSON-RPC response body.
// A response with an error object or without a result is rejected so
// fan-out aggregation only counts real answers.
func ParseResult(body []byte) (json.RawMessage, error) {
	var envelope struct {
		Error  json.RawMessage `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, ErrInvalidJSON
	}
	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		return nil, ErrNodeError
	}
	if len(envelope.Result) == 0 {
		return nil, ErrNoResult
	}
	return envelope.Result, nil
}

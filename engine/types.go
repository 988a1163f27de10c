package engine

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// PayloadStatus is the validation verdict of a newPayload or fcU call.
type PayloadStatus string

const (
	StatusValid            PayloadStatus = "VALID"
	StatusInvalid          PayloadStatus = "INVALID"
	StatusSyncing          PayloadStatus = "SYNCING"
	StatusAccepted         PayloadStatus = "ACCEPTED"
	StatusInvalidBlockHash PayloadStatus = "INVALID_BLOCK_HASH"
)

// IsInvalid reports whether the status rejects the payload.
func (s PayloadStatus) IsInvalid() bool {
	return s == StatusInvalid || s == StatusInvalidBlockHash
}

// PayloadStatusV1 is the engine API payload status object.
type PayloadStatusV1 struct {
	Status          PayloadStatus `json:"status"`
	LatestValidHash *Hash         `json:"latestValidHash"`
	ValidationError *string       `json:"validationError"`
}

// Key returns a comparable identity for majority counting. Two statuses
// agree when their verdict, hash, and error text all match.
func (p PayloadStatusV1) Key() string {
	hash := ""
	if p.LatestValidHash != nil {
		hash = p.LatestValidHash.String()
	}
	validationErr := ""
	if p.ValidationError != nil {
		validationErr = *p.ValidationError
	}
	return string(p.Status) + "|" + hash + "|" + validationErr
}

// SyncingPayloadStatus is the stall response for newPayload when the
// nodes cannot be trusted to agree.
func SyncingPayloadStatus() PayloadStatusV1 {
	return PayloadStatusV1{Status: StatusSyncing}
}

// ForkchoiceUpdatedResponse is the engine_forkchoiceUpdated result object.
type ForkchoiceUpdatedResponse struct {
	PayloadStatus PayloadStatusV1 `json:"payloadStatus"`
	PayloadID     *string         `json:"payloadId"`
}

// SyncingForkchoiceResponse is the stall response for fcU.
func SyncingForkchoiceResponse() ForkchoiceUpdatedResponse {
	return ForkchoiceUpdatedResponse{PayloadStatus: SyncingPayloadStatus()}
}

// GetPayloadResponse is an engine_getPayloadV2/V3 result, kept verbatim
// for echoing back with the blockValue lifted out for profit comparison.
type GetPayloadResponse struct {
	// Result is the full untouched result object.
	Result json.RawMessage
	// BlockValue is the fees of the block in wei.
	BlockValue *big.Int
	// BlockNumber is the proposed block's number, for logging.
	BlockNumber uint64
}

// ParseGetPayloadResponse lifts blockValue (and blockNumber) out of a
// getPayload result without disturbing the rest of the object.
func ParseGetPayloadResponse(result json.RawMessage) (*GetPayloadResponse, error) {
	var probe struct {
		BlockValue       *Big `json:"blockValue"`
		ExecutionPayload struct {
			BlockNumber Uint64 `json:"blockNumber"`
		} `json:"executionPayload"`
	}
	if err := json.Unmarshal(result, &probe); err != nil {
		return nil, fmt.Errorf("engine: parse getPayload result: %w", err)
	}
	if probe.BlockValue == nil {
		return nil, fmt.Errorf("engine: getPayload result has no blockValue")
	}
	return &GetPayloadResponse{
		Result:      result,
		BlockValue:  probe.BlockValue.Int(),
		BlockNumber: uint64(probe.ExecutionPayload.BlockNumber),
	}, nil
}

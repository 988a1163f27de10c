package engine

import (
	"encoding/json"
	"fmt"
)

// ExecutionPayloadV1 is the Merge-era payload schema.
type ExecutionPayloadV1 struct {
	ParentHash    Hash    `json:"parentHash"`
	FeeRecipient  Address `json:"feeRecipient"`
	StateRoot     Hash    `json:"stateRoot"`
	ReceiptsRoot  Hash    `json:"receiptsRoot"`
	LogsBloom     Bloom   `json:"logsBloom"`
	PrevRandao    Hash    `json:"prevRandao"`
	BlockNumber   Uint64  `json:"blockNumber"`
	GasLimit      Uint64  `json:"gasLimit"`
	GasUsed       Uint64  `json:"gasUsed"`
	Timestamp     Uint64  `json:"timestamp"`
	ExtraData     Bytes   `json:"extraData"`
	BaseFeePerGas *Big    `json:"baseFeePerGas"`
	BlockHash     Hash    `json:"blockHash"`
	Transactions  []Bytes `json:"transactions"`
}

// Withdrawal is a validator withdrawal operation (Shanghai).
type Withdrawal struct {
	Index          Uint64  `json:"index"`
	ValidatorIndex Uint64  `json:"validatorIndex"`
	Address        Address `json:"address"`
	Amount         Uint64  `json:"amount"`
}

// ExecutionPayloadV2 adds withdrawals (Shanghai).
type ExecutionPayloadV2 struct {
	ExecutionPayloadV1
	Withdrawals []Withdrawal `json:"withdrawals"`
}

// ExecutionPayloadV3 adds blob gas fields (Cancun).
type ExecutionPayloadV3 struct {
	ExecutionPayloadV2
	BlobGasUsed   Uint64 `json:"blobGasUsed"`
	ExcessBlobGas Uint64 `json:"excessBlobGas"`
}

// ExecutionPayload is a fork-tagged payload.
type ExecutionPayload struct {
	Fork ForkName
	V1   *ExecutionPayloadV1
	V2   *ExecutionPayloadV2
	V3   *ExecutionPayloadV3
}

// Header fields shared by every payload version.
func (p *ExecutionPayload) base() *ExecutionPayloadV1 {
	switch p.Fork {
	case ForkMerge:
		return p.V1
	case ForkShanghai:
		return &p.V2.ExecutionPayloadV1
	default:
		return &p.V3.ExecutionPayloadV1
	}
}

// BlockHash returns the payload's claimed block hash.
func (p *ExecutionPayload) BlockHash() Hash {
	return p.base().BlockHash
}

// NewPayloadRequest is a decoded engine_newPayload call.
type NewPayloadRequest struct {
	ExecutionPayload ExecutionPayload
	// ExpectedBlobVersionedHashes is set for newPayloadV3.
	ExpectedBlobVersionedHashes []Hash
	// ParentBeaconBlockRoot is set for newPayloadV3.
	ParentBeaconBlockRoot *Hash
}

// ParseNewPayloadRequest decodes the params of an engine_newPayload call.
// V3 carries [payload, blobVersionedHashes, parentBeaconBlockRoot]; V1 and
// V2 carry just the payload, whose schema is resolved from its timestamp
// against the fork schedule.
func ParseNewPayloadRequest(req *RpcRequest, forks *ForkConfig) (*NewPayloadRequest, error) {
	if req.Method == MethodNewPayloadV3 {
		if len(req.Params) != 3 {
			return nil, fmt.Errorf("engine: %s expects 3 params, got %d", req.Method, len(req.Params))
		}
		var payload ExecutionPayloadV3
		if err := json.Unmarshal(req.Params[0], &payload); err != nil {
			return nil, fmt.Errorf("engine: decode ExecutionPayloadV3: %w", err)
		}
		var versionedHashes []Hash
		if err := json.Unmarshal(req.Params[1], &versionedHashes); err != nil {
			return nil, fmt.Errorf("engine: decode blob versioned hashes: %w", err)
		}
		var beaconRoot Hash
		if err := json.Unmarshal(req.Params[2], &beaconRoot); err != nil {
			return nil, fmt.Errorf("engine: decode parentBeaconBlockRoot: %w", err)
		}
		return &NewPayloadRequest{
			ExecutionPayload:            ExecutionPayload{Fork: ForkCancun, V3: &payload},
			ExpectedBlobVersionedHashes: versionedHashes,
			ParentBeaconBlockRoot:       &beaconRoot,
		}, nil
	}

	if len(req.Params) != 1 {
		return nil, fmt.Errorf("engine: %s expects 1 param, got %d", req.Method, len(req.Params))
	}

	var probe struct {
		Timestamp *Uint64 `json:"timestamp"`
	}
	if err := json.Unmarshal(req.Params[0], &probe); err != nil || probe.Timestamp == nil {
		return nil, fmt.Errorf("engine: execution payload has no readable timestamp")
	}
	fork, ok := forks.ForkAtTimestamp(uint64(*probe.Timestamp))
	if !ok {
		return nil, fmt.Errorf("engine: payload timestamp %d predates genesis", *probe.Timestamp)
	}

	switch fork {
	case ForkMerge:
		var payload ExecutionPayloadV1
		if err := json.Unmarshal(req.Params[0], &payload); err != nil {
			return nil, fmt.Errorf("engine: decode ExecutionPayloadV1: %w", err)
		}
		return &NewPayloadRequest{ExecutionPayload: ExecutionPayload{Fork: ForkMerge, V1: &payload}}, nil
	case ForkShanghai:
		var payload ExecutionPayloadV2
		if err := json.Unmarshal(req.Params[0], &payload); err != nil {
			return nil, fmt.Errorf("engine: decode ExecutionPayloadV2: %w", err)
		}
		return &NewPayloadRequest{ExecutionPayload: ExecutionPayload{Fork: ForkShanghai, V2: &payload}}, nil
	default:
		var payload ExecutionPayloadV3
		if err := json.Unmarshal(req.Params[0], &payload); err != nil {
			return nil, fmt.Errorf("engine: decode ExecutionPayloadV3: %w", err)
		}
		return &NewPayloadRequest{ExecutionPayload: ExecutionPayload{Fork: ForkCancun, V3: &payload}}, nil
	}
}

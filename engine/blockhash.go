package engine

import (
	"bytes"
	"fmt"

	"github.com/kbukum/executionbackup/engine/rlp"
)

// emptyOmmersHash is keccak256(rlp([])), constant since the merge.
var emptyOmmersHash = [32]byte{
	0x1d, 0xcc, 0x4d, 0xe8, 0xde, 0xc7, 0x5d, 0x7a, 0xab, 0x85, 0xb5, 0x67,
	0xb6, 0xcc, 0xd4, 0x1a, 0xd3, 0x12, 0x45, 0x1b, 0x94, 0x8a, 0x74, 0x13,
	0xf0, 0xa1, 0x42, 0xfd, 0x40, 0xd4, 0x93, 0x47,
}

// VerifyPayloadBlockHash recomputes the block hash committed to by an
// execution payload and compares it with the claimed one. Used before
// answering SYNCING for a payload no node consensus vouched for; a
// payload whose hash does not check out must not be acknowledged at all.
func VerifyPayloadBlockHash(payload *ExecutionPayload, parentBeaconBlockRoot *Hash) error {
	computed, err := ComputeBlockHash(payload, parentBeaconBlockRoot)
	if err != nil {
		return err
	}
	claimed := payload.BlockHash()
	if !bytes.Equal(computed[:], claimed[:]) {
		return fmt.Errorf("engine: block hash mismatch: computed %s, payload claims %s", computed, claimed)
	}
	return nil
}

// ComputeBlockHash derives the block hash from the payload's header
// fields, recomputing the transaction and withdrawal trie roots.
func ComputeBlockHash(payload *ExecutionPayload, parentBeaconBlockRoot *Hash) (Hash, error) {
	base := payload.base()

	txs := make([][]byte, len(base.Transactions))
	for i, tx := range base.Transactions {
		txs[i] = tx
	}
	txRoot := rlp.OrderedTrieRoot(txs)

	fields := [][]byte{
		rlp.EncodeBytes(base.ParentHash[:]),
		rlp.EncodeBytes(emptyOmmersHash[:]),
		rlp.EncodeBytes(base.FeeRecipient[:]),
		rlp.EncodeBytes(base.StateRoot[:]),
		rlp.EncodeBytes(txRoot[:]),
		rlp.EncodeBytes(base.ReceiptsRoot[:]),
		rlp.EncodeBytes(base.LogsBloom[:]),
		rlp.EncodeUint64(0), // difficulty, zero post-merge
		rlp.EncodeUint64(uint64(base.BlockNumber)),
		rlp.EncodeUint64(uint64(base.GasLimit)),
		rlp.EncodeUint64(uint64(base.GasUsed)),
		rlp.EncodeUint64(uint64(base.Timestamp)),
		rlp.EncodeBytes(base.ExtraData),
		rlp.EncodeBytes(base.PrevRandao[:]),
		rlp.EncodeBytes(make([]byte, 8)), // nonce, zero post-merge
		rlp.EncodeBig(base.BaseFeePerGas.Int()),
	}

	if payload.Fork >= ForkShanghai {
		withdrawalsRoot := withdrawalsTrieRoot(payload.withdrawals())
		fields = append(fields, rlp.EncodeBytes(withdrawalsRoot[:]))
	}

	if payload.Fork >= ForkCancun {
		if parentBeaconBlockRoot == nil {
			return Hash{}, fmt.Errorf("engine: cancun payload without parentBeaconBlockRoot")
		}
		fields = append(fields,
			rlp.EncodeUint64(uint64(payload.V3.BlobGasUsed)),
			rlp.EncodeUint64(uint64(payload.V3.ExcessBlobGas)),
			rlp.EncodeBytes(parentBeaconBlockRoot[:]),
		)
	}

	return Hash(rlp.Keccak256(rlp.EncodeList(fields...))), nil
}

// withdrawals returns the payload's withdrawal list, nil for Merge payloads.
func (p *ExecutionPayload) withdrawals() []Withdrawal {
	switch p.Fork {
	case ForkShanghai:
		return p.V2.Withdrawals
	case ForkCancun:
		return p.V3.Withdrawals
	default:
		return nil
	}
}

// withdrawalsTrieRoot commits to the withdrawal list the way a block
// body does, with each withdrawal RLP-encoded as a 4-field list.
func withdrawalsTrieRoot(withdrawals []Withdrawal) [32]byte {
	items := make([][]byte, len(withdrawals))
	for i, w := range withdrawals {
		items[i] = rlp.EncodeList(
			rlp.EncodeUint64(uint64(w.Index)),
			rlp.EncodeUint64(uint64(w.ValidatorIndex)),
			rlp.EncodeBytes(w.Address[:]),
			rlp.EncodeUint64(uint64(w.Amount)),
		)
	}
	return rlp.OrderedTrieRoot(items)
}

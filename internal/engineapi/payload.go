package engineapi

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/latticelayer/execution-core/internal/trie"
	"github.com/latticelayer/execution-core/internal/types"
)

func withdrawalRLP(w *types.Withdrawal) ([]byte, error) {
	return rlp.EncodeToBytes(w)
}

// Withdrawal is the wire shape of one validator withdrawal inside an
// execution payload.
type Withdrawal struct {
	Index          hexutil.Uint64 `json:"index"`
	ValidatorIndex hexutil.Uint64 `json:"validatorIndex"`
	Address        common.Address `json:"address"`
	Amount         hexutil.Uint64 `json:"amount"`
}

// ExecutionPayloadV3 is the JSON shape engine_newPayloadV3 carries, per
// execution-apis' Cancun specification: 1:1 with a Cancun header plus its
// body and withdrawals, minus the fields the execution layer derives itself
// (ommers_hash, transactions_root, withdrawals_root).
type ExecutionPayloadV3 struct {
	ParentHash    common.Hash     `json:"parentHash"`
	FeeRecipient  common.Address  `json:"feeRecipient"`
	StateRoot     common.Hash     `json:"stateRoot"`
	ReceiptsRoot  common.Hash     `json:"receiptsRoot"`
	LogsBloom     hexutil.Bytes   `json:"logsBloom"`
	PrevRandao    common.Hash     `json:"prevRandao"`
	BlockNumber   hexutil.Uint64  `json:"blockNumber"`
	GasLimit      hexutil.Uint64  `json:"gasLimit"`
	GasUsed       hexutil.Uint64  `json:"gasUsed"`
	Timestamp     hexutil.Uint64  `json:"timestamp"`
	ExtraData     hexutil.Bytes   `json:"extraData"`
	BaseFeePerGas *hexutil.Big    `json:"baseFeePerGas"`
	BlockHash     common.Hash     `json:"blockHash"`
	Transactions  []hexutil.Bytes `json:"transactions"`
	Withdrawals   []*Withdrawal   `json:"withdrawals"`
	BlobGasUsed   hexutil.Uint64  `json:"blobGasUsed"`
	ExcessBlobGas hexutil.Uint64  `json:"excessBlobGas"`
}

// NewPayloadV3Request is the full positional parameter triple
// engine_newPayloadV3 accepts: the payload, the consensus layer's expected
// blob-versioned-hashes list, and the parent beacon block root.
type NewPayloadV3Request struct {
	Payload                     *ExecutionPayloadV3
	ExpectedBlobVersionedHashes []common.Hash
	ParentBeaconBlockRoot       common.Hash
}

// decodedPayload is a request's payload converted into this node's block
// model, plus the header hash it computed — kept alongside the block so
// the driver can compare it against the payload's declared block hash
// without re-hashing.
type decodedPayload struct {
	block      *types.Block
	headerHash common.Hash
}

// decode converts req into a types.Block, deriving transactions_root and
// withdrawals_root (fields the payload itself omits) and re-hashing the
// assembled header. It returns an error only when a transaction fails to
// decode or re-encode; it does not check the header hash — callers compare
// headerHash against the payload's declared block hash themselves, per the
// NewPayloadV3 policy table.
func (req *NewPayloadV3Request) decode() (*decodedPayload, error) {
	p := req.Payload

	txs, err := types.DecodeTransactions(bytesSlices(p.Transactions))
	if err != nil {
		return nil, err
	}

	txEncodings := make([][]byte, len(txs))
	for i, tx := range txs {
		enc, err := types.EncodeTransaction(tx)
		if err != nil {
			return nil, fmt.Errorf("engineapi: re-encoding transaction %d: %w", i, err)
		}
		txEncodings[i] = enc
	}
	txRoot, err := deriveSha(txEncodings)
	if err != nil {
		return nil, err
	}

	withdrawals := toTypesWithdrawals(p.Withdrawals)
	withdrawalEncodings := make([][]byte, len(withdrawals))
	for i, w := range withdrawals {
		enc, err := withdrawalRLP(w)
		if err != nil {
			return nil, err
		}
		withdrawalEncodings[i] = enc
	}
	withdrawalsRoot, err := deriveSha(withdrawalEncodings)
	if err != nil {
		return nil, err
	}

	var logsBloom [256]byte
	copy(logsBloom[:], p.LogsBloom)

	var baseFee *big.Int
	if p.BaseFeePerGas != nil {
		baseFee = (*big.Int)(p.BaseFeePerGas)
	}

	blobGasUsed := uint64(p.BlobGasUsed)
	excessBlobGas := uint64(p.ExcessBlobGas)

	header := &types.Header{
		ParentHash:            p.ParentHash,
		OmmersHash:            trie.EmptyListHash(),
		Coinbase:              p.FeeRecipient,
		StateRoot:             p.StateRoot,
		TxRoot:                txRoot,
		ReceiptRoot:           p.ReceiptsRoot,
		LogsBloom:             logsBloom,
		Difficulty:            big.NewInt(0),
		Number:                uint64(p.BlockNumber),
		GasLimit:              uint64(p.GasLimit),
		GasUsed:               uint64(p.GasUsed),
		Timestamp:             uint64(p.Timestamp),
		ExtraData:             p.ExtraData,
		PrevRandao:            p.PrevRandao,
		Nonce:                 [8]byte{},
		BaseFeePerGas:         baseFee,
		WithdrawalsRoot:       &withdrawalsRoot,
		BlobGasUsed:           &blobGasUsed,
		ExcessBlobGas:         &excessBlobGas,
		ParentBeaconBlockRoot: &req.ParentBeaconBlockRoot,
	}

	body := &types.Body{Transactions: txs, Withdrawals: withdrawals}

	return &decodedPayload{
		block:      &types.Block{Header: header, Body: body},
		headerHash: header.Hash(),
	}, nil
}

func bytesSlices(in []hexutil.Bytes) [][]byte {
	out := make([][]byte, len(in))
	for i, b := range in {
		out[i] = b
	}
	return out
}

func toTypesWithdrawals(in []*Withdrawal) []*types.Withdrawal {
	if in == nil {
		return nil
	}
	out := make([]*types.Withdrawal, len(in))
	for i, w := range in {
		out[i] = &types.Withdrawal{
			Index:          uint64(w.Index),
			ValidatorIndex: uint64(w.ValidatorIndex),
			Address:        w.Address,
			Amount:         uint64(w.Amount),
		}
	}
	return out
}

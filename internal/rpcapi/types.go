// Package rpcapi implements the public JSON-RPC surface of spec §6: block
// and receipt accessors over the world-state store, served without
// authentication on the node's ordinary RPC port (as opposed to
// internal/engineapi's JWT-guarded authrpc listener).
package rpcapi

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/latticelayer/execution-core/internal/types"
)

// RpcWithdrawal is a validator withdrawal's hex-encoded wire shape.
type RpcWithdrawal struct {
	Index          hexutil.Uint64 `json:"index"`
	ValidatorIndex hexutil.Uint64 `json:"validatorIndex"`
	Address        common.Address `json:"address"`
	Amount         hexutil.Uint64 `json:"amount"`
}

// RpcTransaction is a transaction's hex-encoded wire shape, hash included.
type RpcTransaction struct {
	Type      hexutil.Uint64  `json:"type"`
	Hash      common.Hash     `json:"hash"`
	Nonce     hexutil.Uint64  `json:"nonce"`
	GasPrice  *hexutil.Big    `json:"gasPrice,omitempty"`
	GasTipCap *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	GasFeeCap *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	Gas       hexutil.Uint64  `json:"gas"`
	To        *common.Address `json:"to"`
	Value     *hexutil.Big    `json:"value"`
	Data      hexutil.Bytes   `json:"input"`
}

func toRpcTransaction(tx *types.Transaction) *RpcTransaction {
	out := &RpcTransaction{
		Type:  hexutil.Uint64(tx.Type),
		Hash:  tx.Hash(),
		Nonce: hexutil.Uint64(tx.Nonce),
		Gas:   hexutil.Uint64(tx.Gas),
		To:    tx.To,
		Value: (*hexutil.Big)(tx.Value),
		Data:  tx.Data,
	}
	if tx.Type == types.LegacyTxType || tx.Type == types.AccessListTxType {
		out.GasPrice = (*hexutil.Big)(tx.GasPrice())
	} else {
		out.GasTipCap = (*hexutil.Big)(tx.GasTipCap)
		out.GasFeeCap = (*hexutil.Big)(tx.GasFeeCap)
	}
	return out
}

// RpcBlock is a block's hex-encoded wire shape. Transactions carries either
// full RpcTransaction objects (hydrated) or bare hashes, matching
// eth_getBlockByNumber/Hash's "full transaction objects" boolean parameter.
type RpcBlock struct {
	Number          hexutil.Uint64  `json:"number"`
	Hash            common.Hash     `json:"hash"`
	ParentHash      common.Hash     `json:"parentHash"`
	Nonce           hexutil.Bytes   `json:"nonce"`
	StateRoot       common.Hash     `json:"stateRoot"`
	TransactionRoot common.Hash     `json:"transactionsRoot"`
	ReceiptsRoot    common.Hash     `json:"receiptsRoot"`
	Miner           common.Address  `json:"miner"`
	Difficulty      *hexutil.Big    `json:"difficulty"`
	ExtraData       hexutil.Bytes   `json:"extraData"`
	GasLimit        hexutil.Uint64  `json:"gasLimit"`
	GasUsed         hexutil.Uint64  `json:"gasUsed"`
	Timestamp       hexutil.Uint64  `json:"timestamp"`
	BaseFeePerGas   *hexutil.Big    `json:"baseFeePerGas,omitempty"`
	BlobGasUsed     *hexutil.Uint64 `json:"blobGasUsed,omitempty"`
	ExcessBlobGas   *hexutil.Uint64 `json:"excessBlobGas,omitempty"`
	Withdrawals     []*RpcWithdrawal `json:"withdrawals,omitempty"`
	Transactions    []interface{}   `json:"transactions"`
}

func toRpcBlock(block *types.Block, hydrated bool) *RpcBlock {
	h := block.Header
	out := &RpcBlock{
		Number:          hexutil.Uint64(h.Number),
		Hash:            h.Hash(),
		ParentHash:      h.ParentHash,
		Nonce:           h.Nonce[:],
		StateRoot:       h.StateRoot,
		TransactionRoot: h.TxRoot,
		ReceiptsRoot:    h.ReceiptRoot,
		Miner:           h.Coinbase,
		Difficulty:      (*hexutil.Big)(h.Difficulty),
		ExtraData:       h.ExtraData,
		GasLimit:        hexutil.Uint64(h.GasLimit),
		GasUsed:         hexutil.Uint64(h.GasUsed),
		Timestamp:       hexutil.Uint64(h.Timestamp),
		BaseFeePerGas:   (*hexutil.Big)(h.BaseFeePerGas),
	}
	if h.BlobGasUsed != nil {
		v := hexutil.Uint64(*h.BlobGasUsed)
		out.BlobGasUsed = &v
	}
	if h.ExcessBlobGas != nil {
		v := hexutil.Uint64(*h.ExcessBlobGas)
		out.ExcessBlobGas = &v
	}
	for _, w := range block.Body.Withdrawals {
		out.Withdrawals = append(out.Withdrawals, &RpcWithdrawal{
			Index:          hexutil.Uint64(w.Index),
			ValidatorIndex: hexutil.Uint64(w.ValidatorIndex),
			Address:        w.Address,
			Amount:         hexutil.Uint64(w.Amount),
		})
	}

	out.Transactions = make([]interface{}, len(block.Body.Transactions))
	for i, tx := range block.Body.Transactions {
		if hydrated {
			out.Transactions[i] = toRpcTransaction(tx)
		} else {
			out.Transactions[i] = tx.Hash()
		}
	}
	return out
}

// RpcReceipt is a receipt's hex-encoded wire shape.
type RpcReceipt struct {
	Type              hexutil.Uint64 `json:"type"`
	Status            hexutil.Uint64 `json:"status"`
	CumulativeGasUsed hexutil.Uint64 `json:"cumulativeGasUsed"`
	LogsBloom         hexutil.Bytes  `json:"logsBloom"`
	Logs              []*RpcLog      `json:"logs"`
}

// RpcLog is an event log's hex-encoded wire shape.
type RpcLog struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

func toRpcReceipt(r *types.Receipt) *RpcReceipt {
	status := hexutil.Uint64(0)
	if r.Success {
		status = 1
	}
	out := &RpcReceipt{
		Type:              hexutil.Uint64(r.Type),
		Status:            status,
		CumulativeGasUsed: hexutil.Uint64(r.CumulativeGasUsed),
		LogsBloom:         r.LogsBloom[:],
	}
	for _, l := range r.Logs {
		out.Logs = append(out.Logs, &RpcLog{Address: l.Address, Topics: l.Topics, Data: l.Data})
	}
	return out
}

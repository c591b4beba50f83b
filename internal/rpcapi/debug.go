package rpcapi

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/latticelayer/execution-core/internal/kvstore"
)

// DebugAPI is the debug_ namespace: raw RLP accessors, for tooling that
// wants the wire encoding directly rather than the hex-field JSON shape
// EthAPI returns.
type DebugAPI struct {
	store *kvstore.Store
	eth   *EthAPI
}

// NewDebugAPI wraps store as the debug_ namespace.
func NewDebugAPI(store *kvstore.Store) *DebugAPI {
	return &DebugAPI{store: store, eth: NewEthAPI(store)}
}

// GetRawHeader implements debug_getRawHeader: the RLP encoding of the header
// at tagOrNumber.
func (a *DebugAPI) GetRawHeader(tagOrNumber rpc.BlockNumber) (hexutil.Bytes, error) {
	number, ok, err := a.eth.resolveNumber(tagOrNumber)
	if err != nil || !ok {
		return nil, err
	}
	header, ok, err := a.store.Engine().GetBlockHeader(number)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("rpcapi: no header at block %d", number)
	}
	return rlp.EncodeToBytes(header)
}

// GetRawBlock implements debug_getRawBlock: the RLP encoding of
// [header, transactions, ommers, withdrawals] at tagOrNumber.
func (a *DebugAPI) GetRawBlock(tagOrNumber rpc.BlockNumber) (hexutil.Bytes, error) {
	number, ok, err := a.eth.resolveNumber(tagOrNumber)
	if err != nil || !ok {
		return nil, err
	}
	block, ok, err := a.eth.blockAt(number)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("rpcapi: no block at block %d", number)
	}
	return rlp.EncodeToBytes([]interface{}{
		block.Header,
		block.Body.Transactions,
		block.Body.Ommers,
		block.Body.Withdrawals,
	})
}

// GetRawReceipts implements debug_getRawReceipts: the RLP encoding of each
// receipt at tagOrNumber, in block order.
func (a *DebugAPI) GetRawReceipts(tagOrNumber rpc.BlockNumber) ([]hexutil.Bytes, error) {
	number, ok, err := a.eth.resolveNumber(tagOrNumber)
	if err != nil || !ok {
		return nil, err
	}
	body, ok, err := a.store.Engine().GetBlockBody(number)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("rpcapi: no block at block %d", number)
	}
	receipts, err := a.eth.receiptsOf(number, body)
	if err != nil {
		return nil, err
	}
	out := make([]hexutil.Bytes, len(receipts))
	for i, r := range receipts {
		enc, err := rlp.EncodeToBytes(r)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

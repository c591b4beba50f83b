package rpcapi

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/latticelayer/execution-core/internal/chain"
	"github.com/latticelayer/execution-core/internal/kvstore"
	"github.com/latticelayer/execution-core/internal/types"
)

// EthAPI is the eth_ namespace: block and receipt accessors over a Store,
// per spec §6's "Public JSON-RPC (exposed)" minimum surface.
type EthAPI struct {
	store *kvstore.Store
}

// NewEthAPI wraps store as the eth_ namespace.
func NewEthAPI(store *kvstore.Store) *EthAPI {
	return &EthAPI{store: store}
}

// resolveTag maps an rpc.BlockNumber's five named tags onto this node's
// ChainTag enum; the two share the same five-way split by construction.
func resolveTag(n rpc.BlockNumber) (kvstore.ChainTag, bool) {
	switch n {
	case rpc.EarliestBlockNumber:
		return kvstore.TagEarliest, true
	case rpc.FinalizedBlockNumber:
		return kvstore.TagFinalized, true
	case rpc.SafeBlockNumber:
		return kvstore.TagSafe, true
	case rpc.LatestBlockNumber:
		return kvstore.TagLatest, true
	case rpc.PendingBlockNumber:
		return kvstore.TagPending, true
	default:
		return 0, false
	}
}

// resolveNumber turns a BlockNumber param (either a named tag or a literal
// height) into a concrete block number.
func (a *EthAPI) resolveNumber(n rpc.BlockNumber) (uint64, bool, error) {
	if tag, ok := resolveTag(n); ok {
		return a.store.Engine().GetChainTag(tag)
	}
	return uint64(n.Int64()), true, nil
}

func (a *EthAPI) blockAt(number uint64) (*types.Block, bool, error) {
	header, ok, err := a.store.Engine().GetBlockHeader(number)
	if err != nil || !ok {
		return nil, ok, err
	}
	body, ok, err := a.store.Engine().GetBlockBody(number)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &types.Block{Header: header, Body: body}, true, nil
}

func (a *EthAPI) blockByHash(hash common.Hash) (*types.Block, bool, error) {
	number, ok, err := a.store.Engine().GetBlockNumber(hash)
	if err != nil || !ok {
		return nil, ok, err
	}
	return a.blockAt(number)
}

func (a *EthAPI) receiptsOf(number uint64, body *types.Body) ([]*types.Receipt, error) {
	receipts := make([]*types.Receipt, len(body.Transactions))
	for i := range body.Transactions {
		r, ok, err := a.store.Engine().GetReceipt(number, uint32(i))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("rpcapi: missing receipt %d for block %d", i, number)
		}
		receipts[i] = r
	}
	return receipts, nil
}

// BlockNumber returns the current latest block number.
func (a *EthAPI) BlockNumber() (hexutil.Uint64, error) {
	number, ok, err := a.store.Engine().GetChainTag(kvstore.TagLatest)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return hexutil.Uint64(number), nil
}

// GetBlockByNumber implements eth_getBlockByNumber.
func (a *EthAPI) GetBlockByNumber(tagOrNumber rpc.BlockNumber, hydrated bool) (*RpcBlock, error) {
	number, ok, err := a.resolveNumber(tagOrNumber)
	if err != nil || !ok {
		return nil, err
	}
	block, ok, err := a.blockAt(number)
	if err != nil || !ok {
		return nil, err
	}
	return toRpcBlock(block, hydrated), nil
}

// GetBlockByHash implements eth_getBlockByHash.
func (a *EthAPI) GetBlockByHash(hash common.Hash, hydrated bool) (*RpcBlock, error) {
	block, ok, err := a.blockByHash(hash)
	if err != nil || !ok {
		return nil, err
	}
	return toRpcBlock(block, hydrated), nil
}

// GetBlockTransactionCountByNumber implements eth_getBlockTransactionCountByNumber.
func (a *EthAPI) GetBlockTransactionCountByNumber(tagOrNumber rpc.BlockNumber) (*hexutil.Uint64, error) {
	number, ok, err := a.resolveNumber(tagOrNumber)
	if err != nil || !ok {
		return nil, err
	}
	body, ok, err := a.store.Engine().GetBlockBody(number)
	if err != nil || !ok {
		return nil, err
	}
	count := hexutil.Uint64(len(body.Transactions))
	return &count, nil
}

// GetBlockReceipts implements eth_getBlockReceipts, accepting either a
// named tag, a literal block number, or a block hash.
func (a *EthAPI) GetBlockReceipts(blockNrOrHash rpc.BlockNumberOrHash) ([]*RpcReceipt, error) {
	var (
		number uint64
		ok     bool
		err    error
	)
	if hash, isHash := blockNrOrHash.Hash(); isHash {
		var block *types.Block
		block, ok, err = a.blockByHash(hash)
		if err != nil || !ok {
			return nil, err
		}
		return a.rpcReceiptsOf(block)
	}
	tagOrNumber, _ := blockNrOrHash.Number()
	number, ok, err = a.resolveNumber(tagOrNumber)
	if err != nil || !ok {
		return nil, err
	}
	block, ok, err := a.blockAt(number)
	if err != nil || !ok {
		return nil, err
	}
	return a.rpcReceiptsOf(block)
}

func (a *EthAPI) rpcReceiptsOf(block *types.Block) ([]*RpcReceipt, error) {
	receipts, err := a.receiptsOf(block.Header.Number, block.Body)
	if err != nil {
		return nil, err
	}
	out := make([]*RpcReceipt, len(receipts))
	for i, r := range receipts {
		out[i] = toRpcReceipt(r)
	}
	return out, nil
}

// BlobBaseFee implements eth_blobBaseFee: the per-blob-gas base fee derived
// from the latest header's excess_blob_gas per the EIP-4844 formula.
func (a *EthAPI) BlobBaseFee() (*hexutil.Big, error) {
	number, ok, err := a.store.Engine().GetChainTag(kvstore.TagLatest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (*hexutil.Big)(chain.CalcBlobBaseFee(0)), nil
	}
	header, ok, err := a.store.Engine().GetBlockHeader(number)
	if err != nil || !ok {
		return nil, err
	}
	var excess uint64
	if header.ExcessBlobGas != nil {
		excess = *header.ExcessBlobGas
	}
	return (*hexutil.Big)(chain.CalcBlobBaseFee(excess)), nil
}

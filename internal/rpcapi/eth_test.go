package rpcapi

import (
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/latticelayer/execution-core/internal/chain"
	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/kvstore"
	"github.com/latticelayer/execution-core/internal/types"
)

type noopEVM struct{}

func (noopEVM) Execute(cfg *chainconfig.ChainConfig, header *types.Header, body *types.Body) ([]*types.Receipt, error) {
	return nil, nil
}

func (noopEVM) ApplyStateTransitions(engine kvstore.StoreEngine, header *types.Header, body *types.Body, receipts []*types.Receipt) error {
	return nil
}

func newImportedStore(t *testing.T) *kvstore.Store {
	t.Helper()
	g := &chainconfig.Genesis{
		Config:     &chainconfig.ChainConfig{ChainID: 1},
		Number:     0,
		GasLimit:   30_000_000,
		Difficulty: uint256.NewInt(1),
	}
	store := kvstore.NewStore(kvstore.NewMemoryEngine())
	require.NoError(t, store.AddInitialState(g))

	parent, ok, err := store.Engine().GetBlockHeader(0)
	require.NoError(t, err)
	require.True(t, ok)

	header := &types.Header{
		ParentHash:    parent.Hash(),
		Number:        1,
		Timestamp:     1,
		GasLimit:      parent.GasLimit,
		BaseFeePerGas: chain.CalcBaseFee(parent),
		StateRoot:     parent.StateRoot,
	}
	block := &types.Block{Header: header, Body: &types.Body{}}
	require.NoError(t, chain.AddBlock(store, g.Config, noopEVM{}, block))
	return store
}

func TestBlockNumber(t *testing.T) {
	store := newImportedStore(t)
	api := NewEthAPI(store)

	number, err := api.BlockNumber()
	require.NoError(t, err)
	require.EqualValues(t, 1, number)
}

func TestGetBlockByNumberLatest(t *testing.T) {
	store := newImportedStore(t)
	api := NewEthAPI(store)

	block, err := api.GetBlockByNumber(rpc.LatestBlockNumber, false)
	require.NoError(t, err)
	require.NotNil(t, block)
	require.EqualValues(t, 1, block.Number)
	require.Empty(t, block.Transactions)
}

func TestGetBlockByHash(t *testing.T) {
	store := newImportedStore(t)
	api := NewEthAPI(store)

	header, ok, err := store.Engine().GetBlockHeader(1)
	require.NoError(t, err)
	require.True(t, ok)

	block, err := api.GetBlockByHash(header.Hash(), false)
	require.NoError(t, err)
	require.NotNil(t, block)
	require.Equal(t, header.Hash(), block.Hash)
}

func TestGetBlockByNumberMissingReturnsNil(t *testing.T) {
	store := newImportedStore(t)
	api := NewEthAPI(store)

	block, err := api.GetBlockByNumber(rpc.BlockNumber(99), false)
	require.NoError(t, err)
	require.Nil(t, block)
}

func TestGetBlockTransactionCountByNumber(t *testing.T) {
	store := newImportedStore(t)
	api := NewEthAPI(store)

	count, err := api.GetBlockTransactionCountByNumber(rpc.BlockNumber(1))
	require.NoError(t, err)
	require.NotNil(t, count)
	require.EqualValues(t, 0, *count)
}

func TestGetBlockReceiptsByNumber(t *testing.T) {
	store := newImportedStore(t)
	api := NewEthAPI(store)

	receipts, err := api.GetBlockReceipts(rpc.BlockNumberOrHashWithNumber(1))
	require.NoError(t, err)
	require.Empty(t, receipts)
}

func TestBlobBaseFee(t *testing.T) {
	store := newImportedStore(t)
	api := NewEthAPI(store)

	fee, err := api.BlobBaseFee()
	require.NoError(t, err)
	require.NotNil(t, fee)
}

package chain

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/kvstore"
	"github.com/latticelayer/execution-core/internal/types"
)

type noopEVM struct {
	receipts []*types.Receipt
}

func (e *noopEVM) Execute(cfg *chainconfig.ChainConfig, header *types.Header, body *types.Body) ([]*types.Receipt, error) {
	return e.receipts, nil
}

func (e *noopEVM) ApplyStateTransitions(engine kvstore.StoreEngine, header *types.Header, body *types.Body, receipts []*types.Receipt) error {
	return nil
}

func newGenesisStore(t *testing.T) (*kvstore.Store, *chainconfig.Genesis) {
	t.Helper()
	g := &chainconfig.Genesis{
		Config:     &chainconfig.ChainConfig{ChainID: 1},
		Number:     0,
		GasLimit:   30_000_000,
		Difficulty: uint256.NewInt(1),
	}
	store := kvstore.NewStore(kvstore.NewMemoryEngine())
	require.NoError(t, store.AddInitialState(g))
	return store, g
}

func childHeader(t *testing.T, store *kvstore.Store) *types.Header {
	t.Helper()
	parent, ok, err := store.Engine().GetBlockHeader(0)
	require.NoError(t, err)
	require.True(t, ok)
	return &types.Header{
		ParentHash:    parent.Hash(),
		Number:        1,
		Timestamp:     1,
		GasLimit:      parent.GasLimit,
		GasUsed:       0,
		BaseFeePerGas: CalcBaseFee(parent),
		StateRoot:     parent.StateRoot,
	}
}

func TestAddBlockHappyPath(t *testing.T) {
	store, g := newGenesisStore(t)
	header := childHeader(t, store)
	block := &types.Block{Header: header, Body: &types.Body{}}

	require.NoError(t, AddBlock(store, g.Config, &noopEVM{}, block))

	latest, ok, err := store.Engine().GetChainTag(kvstore.TagLatest)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), latest)

	hash, ok, err := LatestValidHash(store.Engine())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, header.Hash(), hash)
}

func TestAddBlockRejectsWrongNumber(t *testing.T) {
	store, g := newGenesisStore(t)
	header := childHeader(t, store)
	header.Number = 5
	block := &types.Block{Header: header, Body: &types.Body{}}

	err := AddBlock(store, g.Config, &noopEVM{}, block)
	require.ErrorIs(t, err, ErrNonCanonicalBlock)
}

func TestAddBlockRejectsUnknownParent(t *testing.T) {
	store, g := newGenesisStore(t)
	header := childHeader(t, store)
	header.ParentHash[0] ^= 0xff
	block := &types.Block{Header: header, Body: &types.Body{}}

	err := AddBlock(store, g.Config, &noopEVM{}, block)
	require.ErrorIs(t, err, ErrParentNotFound)
}

func TestAddBlockRejectsGasUsedMismatch(t *testing.T) {
	store, g := newGenesisStore(t)
	header := childHeader(t, store)
	header.GasUsed = 21000
	block := &types.Block{Header: header, Body: &types.Body{}}

	err := AddBlock(store, g.Config, &noopEVM{}, block)
	require.ErrorIs(t, err, InvalidBlockErr(GasUsedMismatch, ""))
}

func TestAddBlockRejectsStateRootMismatch(t *testing.T) {
	store, g := newGenesisStore(t)
	header := childHeader(t, store)
	header.StateRoot[0] ^= 0xff
	block := &types.Block{Header: header, Body: &types.Body{}}

	err := AddBlock(store, g.Config, &noopEVM{}, block)
	require.ErrorIs(t, err, InvalidBlockErr(StateRootMismatch, ""))
}

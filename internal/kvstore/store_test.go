package kvstore

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/types"
)

func TestAccountInfoRoundTrip(t *testing.T) {
	engine := NewMemoryEngine()
	addr := common.HexToAddress("0xabc0000000000000000000000000000000000a")
	info := &types.AccountInfo{Balance: uint256.NewInt(50), Nonce: 5, CodeHash: types.EmptyCodeHash}

	require.NoError(t, engine.AddAccountInfo(addr, info))

	got, ok, err := engine.GetAccountInfo(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, info.Balance, got.Balance)
	require.Equal(t, info.Nonce, got.Nonce)
	require.Equal(t, info.CodeHash, got.CodeHash)
}

func testGenesis() *chainconfig.Genesis {
	return &chainconfig.Genesis{
		Config:     &chainconfig.ChainConfig{ChainID: 1337},
		Number:     0,
		GasLimit:   0x47b760,
		Difficulty: uint256.NewInt(1),
		Alloc: map[common.Address]chainconfig.GenesisAccount{
			common.HexToAddress("0x1111111111111111111111111111111111111111"): {
				Balance: uint256.NewInt(1_000_000),
			},
		},
	}
}

func TestAddInitialStateIdempotent(t *testing.T) {
	store := NewStore(NewMemoryEngine())
	g := testGenesis()

	require.NoError(t, store.AddInitialState(g))
	require.NoError(t, store.AddInitialState(g))

	h, ok, err := store.Engine().GetBlockHeader(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(0), h.Number)

	earliest, ok, err := store.Engine().GetChainTag(TagEarliest)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(0), earliest)
}

func TestWorldStateRootChangesWithAllocation(t *testing.T) {
	store := NewStore(NewMemoryEngine())
	empty, err := store.WorldStateRoot()
	require.NoError(t, err)

	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	require.NoError(t, store.Engine().AddAccountInfo(addr, &types.AccountInfo{
		Balance:  uint256.NewInt(1),
		CodeHash: types.EmptyCodeHash,
	}))

	withAccount, err := store.WorldStateRoot()
	require.NoError(t, err)
	require.NotEqual(t, empty, withAccount)
}

func TestAddBlockObservableAtomically(t *testing.T) {
	store := NewStore(NewMemoryEngine())
	header := &types.Header{Number: 1, GasLimit: 1000, Nonce: [8]byte{}}
	body := &types.Body{}

	require.NoError(t, store.Engine().AddBlock(header, body, nil))

	gotHeader, ok, err := store.Engine().GetBlockHeader(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, header.Number, gotHeader.Number)

	num, ok, err := store.Engine().GetBlockNumber(header.Hash())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), num)

	latest, ok, err := store.Engine().GetChainTag(TagLatest)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), latest)
}

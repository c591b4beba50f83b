package engineapi

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
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

func newTestDriver(t *testing.T) (*Driver, *kvstore.Store, *chainconfig.Genesis) {
	t.Helper()
	cancunTime := uint64(0)
	g := &chainconfig.Genesis{
		Config:     &chainconfig.ChainConfig{ChainID: 1, CancunTime: &cancunTime},
		Number:     0,
		GasLimit:   30_000_000,
		Timestamp:  0,
		Difficulty: uint256.NewInt(1),
	}
	store := kvstore.NewStore(kvstore.NewMemoryEngine())
	require.NoError(t, store.AddInitialState(g))
	return NewDriver(store, g.Config, noopEVM{}), store, g
}

// payloadForNumber builds a well-formed, empty-body payload for number,
// parented on whatever header is currently stored at number-1.
func payloadForNumber(t *testing.T, store *kvstore.Store, g *chainconfig.Genesis, number uint64) *ExecutionPayloadV3 {
	t.Helper()
	parent, ok, err := store.Engine().GetBlockHeader(number - 1)
	require.NoError(t, err)
	require.True(t, ok)

	p := &ExecutionPayloadV3{
		ParentHash:    parent.Hash(),
		StateRoot:     parent.StateRoot,
		ReceiptsRoot:  emptyTrieRoot(t),
		LogsBloom:     make(hexutil.Bytes, 256),
		BlockNumber:   hexutil.Uint64(number),
		GasLimit:      hexutil.Uint64(parent.GasLimit),
		GasUsed:       0,
		Timestamp:     hexutil.Uint64(number),
		BaseFeePerGas: (*hexutil.Big)(chain.CalcBaseFee(parent)),
		BlobGasUsed:   0,
		ExcessBlobGas: 0,
	}
	return p
}

func emptyTrieRoot(t *testing.T) common.Hash {
	t.Helper()
	root, err := deriveSha(nil)
	require.NoError(t, err)
	return root
}

func finalize(t *testing.T, p *ExecutionPayloadV3) *NewPayloadV3Request {
	t.Helper()
	req := &NewPayloadV3Request{Payload: p}
	decoded, err := req.decode()
	require.NoError(t, err)
	req.Payload.BlockHash = decoded.headerHash
	return req
}

func TestNewPayloadV3HappyPath(t *testing.T) {
	driver, store, g := newTestDriver(t)
	req := finalize(t, payloadForNumber(t, store, g, 1))

	status, err := driver.NewPayloadV3(req)
	require.NoError(t, err)
	require.Equal(t, ValidStatus, status.Status)
	require.NotNil(t, status.LatestValidHash)
	require.Equal(t, req.Payload.BlockHash, *status.LatestValidHash)
}

func TestNewPayloadV3RejectsHashMismatch(t *testing.T) {
	driver, store, g := newTestDriver(t)
	req := finalize(t, payloadForNumber(t, store, g, 1))
	req.Payload.BlockHash[0] ^= 0xff

	status, err := driver.NewPayloadV3(req)
	require.NoError(t, err)
	require.Equal(t, InvalidStatus, status.Status)
	require.Nil(t, status.LatestValidHash)
}

func TestNewPayloadV3RejectsBlobHashMismatch(t *testing.T) {
	driver, store, g := newTestDriver(t)
	p := payloadForNumber(t, store, g, 1)
	req := finalize(t, p)
	req.ExpectedBlobVersionedHashes = []common.Hash{{0x01}}

	status, err := driver.NewPayloadV3(req)
	require.NoError(t, err)
	require.Equal(t, InvalidStatus, status.Status)
}

func TestNewPayloadV3AlreadyStoredReturnsValid(t *testing.T) {
	driver, store, g := newTestDriver(t)
	req := finalize(t, payloadForNumber(t, store, g, 1))

	status, err := driver.NewPayloadV3(req)
	require.NoError(t, err)
	require.Equal(t, ValidStatus, status.Status)

	// Submitting the exact same payload again hits the already-stored branch
	// instead of re-running add_block.
	status, err = driver.NewPayloadV3(req)
	require.NoError(t, err)
	require.Equal(t, ValidStatus, status.Status)
	require.Equal(t, req.Payload.BlockHash, *status.LatestValidHash)
}

func TestNewPayloadV3BelowLatestReturnsSyncing(t *testing.T) {
	driver, store, g := newTestDriver(t)
	first := finalize(t, payloadForNumber(t, store, g, 1))
	_, err := driver.NewPayloadV3(first)
	require.NoError(t, err)

	// A different, never-seen block claiming number 1 (the current head) is
	// a would-be reorg, not a normal import: the redesigned behavior is
	// SYNCING, never an error.
	stale := payloadForNumber(t, store, g, 1)
	stale.ExtraData = []byte{0x01}
	req := finalize(t, stale)

	status, err := driver.NewPayloadV3(req)
	require.NoError(t, err)
	require.Equal(t, SyncingStatus, status.Status)
}

func TestNewPayloadV3AheadOfLatestReturnsSyncing(t *testing.T) {
	driver, store, g := newTestDriver(t)

	// Skip straight to number 2 without ever importing number 1.
	parent, ok, err := store.Engine().GetBlockHeader(0)
	require.NoError(t, err)
	require.True(t, ok)
	p := &ExecutionPayloadV3{
		ParentHash:    parent.Hash(),
		StateRoot:     parent.StateRoot,
		ReceiptsRoot:  emptyTrieRoot(t),
		LogsBloom:     make(hexutil.Bytes, 256),
		BlockNumber:   2,
		GasLimit:      hexutil.Uint64(parent.GasLimit),
		Timestamp:     2,
		BaseFeePerGas: (*hexutil.Big)(big.NewInt(1_000_000_000)),
	}
	req := finalize(t, p)

	status, err := driver.NewPayloadV3(req)
	require.NoError(t, err)
	require.Equal(t, SyncingStatus, status.Status)
}

func TestNewPayloadV3RejectsGasUsedMismatch(t *testing.T) {
	driver, store, g := newTestDriver(t)
	p := payloadForNumber(t, store, g, 1)
	p.GasUsed = 21000
	req := finalize(t, p)

	status, err := driver.NewPayloadV3(req)
	require.NoError(t, err)
	require.Equal(t, InvalidStatus, status.Status)
	require.NotNil(t, status.ValidationError)
}

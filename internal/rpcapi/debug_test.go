package rpcapi

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/latticelayer/execution-core/internal/types"
)

func TestGetRawHeader(t *testing.T) {
	store := newImportedStore(t)
	api := NewDebugAPI(store)

	raw, err := api.GetRawHeader(rpc.LatestBlockNumber)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	var decoded types.Header
	require.NoError(t, rlp.DecodeBytes(raw, &decoded))
	require.EqualValues(t, 1, decoded.Number)
}

func TestGetRawBlock(t *testing.T) {
	store := newImportedStore(t)
	api := NewDebugAPI(store)

	raw, err := api.GetRawBlock(rpc.LatestBlockNumber)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
}

func TestGetRawReceiptsEmptyBlock(t *testing.T) {
	store := newImportedStore(t)
	api := NewDebugAPI(store)

	raws, err := api.GetRawReceipts(rpc.LatestBlockNumber)
	require.NoError(t, err)
	require.Empty(t, raws)
}

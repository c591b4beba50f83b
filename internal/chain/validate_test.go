package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/types"
)

func u64p(v uint64) *uint64 { return &v }

func TestCalcBaseFeeGenesisParent(t *testing.T) {
	parent := &types.Header{GasLimit: 30_000_000, GasUsed: 0}
	require.Equal(t, big.NewInt(initialBaseFee), CalcBaseFee(parent))
}

func TestCalcBaseFeeUnchangedAtTarget(t *testing.T) {
	parent := &types.Header{GasLimit: 30_000_000, GasUsed: 15_000_000, BaseFeePerGas: big.NewInt(1_000_000_000)}
	require.Equal(t, int64(0), CalcBaseFee(parent).Cmp(parent.BaseFeePerGas))
}

func TestCalcBaseFeeRisesAboveTarget(t *testing.T) {
	parent := &types.Header{GasLimit: 30_000_000, GasUsed: 30_000_000, BaseFeePerGas: big.NewInt(1_000_000_000)}
	require.Equal(t, 1, CalcBaseFee(parent).Cmp(parent.BaseFeePerGas))
}

func TestCalcBaseFeeFallsBelowTarget(t *testing.T) {
	parent := &types.Header{GasLimit: 30_000_000, GasUsed: 0, BaseFeePerGas: big.NewInt(1_000_000_000)}
	require.Equal(t, -1, CalcBaseFee(parent).Cmp(parent.BaseFeePerGas))
}

func baseParent() *types.Header {
	return &types.Header{
		Number:        10,
		Timestamp:     100,
		GasLimit:      30_000_000,
		GasUsed:       15_000_000,
		BaseFeePerGas: big.NewInt(1_000_000_000),
	}
}

func TestValidateHeaderHappyPath(t *testing.T) {
	parent := baseParent()
	cfg := &chainconfig.ChainConfig{ChainID: 1}

	header := &types.Header{
		ParentHash:    parent.Hash(),
		Number:        11,
		Timestamp:     101,
		GasLimit:      parent.GasLimit,
		GasUsed:       0,
		BaseFeePerGas: CalcBaseFee(parent),
	}
	require.NoError(t, ValidateHeader(cfg, header, parent))
}

func TestValidateHeaderRejectsGasLimitDrift(t *testing.T) {
	parent := baseParent()
	cfg := &chainconfig.ChainConfig{ChainID: 1}

	header := &types.Header{
		ParentHash:    parent.Hash(),
		Number:        11,
		Timestamp:     101,
		GasLimit:      parent.GasLimit * 2,
		BaseFeePerGas: CalcBaseFee(parent),
	}
	err := ValidateHeader(cfg, header, parent)
	require.ErrorIs(t, err, InvalidBlockErr(InvalidHeader, ""))
}

func TestValidateHeaderRejectsBadBaseFee(t *testing.T) {
	parent := baseParent()
	cfg := &chainconfig.ChainConfig{ChainID: 1}

	header := &types.Header{
		ParentHash:    parent.Hash(),
		Number:        11,
		Timestamp:     101,
		GasLimit:      parent.GasLimit,
		BaseFeePerGas: big.NewInt(1),
	}
	err := ValidateHeader(cfg, header, parent)
	require.ErrorIs(t, err, InvalidBlockErr(InvalidHeader, ""))
}

func TestValidateHeaderRejectsBlobFieldsBeforeCancun(t *testing.T) {
	parent := baseParent()
	cfg := &chainconfig.ChainConfig{ChainID: 1}

	header := &types.Header{
		ParentHash:    parent.Hash(),
		Number:        11,
		Timestamp:     101,
		GasLimit:      parent.GasLimit,
		BaseFeePerGas: CalcBaseFee(parent),
		BlobGasUsed:   u64p(0),
	}
	err := ValidateHeader(cfg, header, parent)
	require.ErrorIs(t, err, InvalidBlockErr(InvalidHeader, ""))
}

func TestValidateHeaderRequiresBlobFieldsAfterCancun(t *testing.T) {
	parent := baseParent()
	cfg := &chainconfig.ChainConfig{ChainID: 1, CancunTime: u64p(50)}

	header := &types.Header{
		ParentHash:    parent.Hash(),
		Number:        11,
		Timestamp:     101,
		GasLimit:      parent.GasLimit,
		BaseFeePerGas: CalcBaseFee(parent),
	}
	err := ValidateHeader(cfg, header, parent)
	require.ErrorIs(t, err, InvalidBlockErr(InvalidHeader, ""))
}

func TestValidateHeaderAcceptsCorrectExcessBlobGas(t *testing.T) {
	parent := baseParent()
	parent.BlobGasUsed = u64p(0)
	parent.ExcessBlobGas = u64p(0)
	root := common.Hash{1}
	parent.ParentBeaconBlockRoot = &root
	cfg := &chainconfig.ChainConfig{ChainID: 1, CancunTime: u64p(50)}

	beaconRoot := common.Hash{2}
	header := &types.Header{
		ParentHash:            parent.Hash(),
		Number:                11,
		Timestamp:             101,
		GasLimit:              parent.GasLimit,
		BaseFeePerGas:         CalcBaseFee(parent),
		BlobGasUsed:           u64p(0),
		ExcessBlobGas:         u64p(CalcExcessBlobGas(0, 0)),
		ParentBeaconBlockRoot: &beaconRoot,
	}
	require.NoError(t, ValidateHeader(cfg, header, parent))
}

func blobTx(n int) *types.Transaction {
	hashes := make([]common.Hash, n)
	return &types.Transaction{Type: types.BlobTxType, BlobVersionedHashes: hashes}
}

func TestValidateBlobGasWithinCaps(t *testing.T) {
	header := &types.Header{BlobGasUsed: u64p(2 * GasPerBlob)}
	err := ValidateBlobGas(header, []*types.Transaction{blobTx(2)})
	require.NoError(t, err)
}

func TestValidateBlobGasRejectsTooManyBlobs(t *testing.T) {
	header := &types.Header{BlobGasUsed: u64p(uint64(MaxBlobNumberPerBlock+1) * GasPerBlob)}
	err := ValidateBlobGas(header, []*types.Transaction{blobTx(MaxBlobNumberPerBlock + 1)})
	require.ErrorIs(t, err, InvalidBlockErr(ExceededMaxBlobNumberPerBlock, ""))
}

func TestValidateBlobGasRejectsMismatch(t *testing.T) {
	header := &types.Header{BlobGasUsed: u64p(99)}
	err := ValidateBlobGas(header, []*types.Transaction{blobTx(1)})
	require.ErrorIs(t, err, InvalidBlockErr(BlobGasUsedMismatch, ""))
}

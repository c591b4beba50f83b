package chain

import (
	"fmt"
	"math/big"

	gethmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/types"
)

const (
	gasLimitBoundDivisor     = 1024
	elasticityMultiplier     = 2
	baseFeeChangeDenominator = 8
	initialBaseFee           = 1_000_000_000
)

// CalcBaseFee computes the next header's base fee per gas from its parent,
// following the EIP-1559 formula: unchanged at the gas target, adjusted by
// up to 1/8th per block in the direction gas usage deviates from target.
// A parent with no base fee (pre-London) seeds the chain at 1 gwei.
func CalcBaseFee(parent *types.Header) *big.Int {
	if parent.BaseFeePerGas == nil {
		return big.NewInt(initialBaseFee)
	}

	parentGasTarget := parent.GasLimit / elasticityMultiplier
	if parent.GasUsed == parentGasTarget {
		return new(big.Int).Set(parent.BaseFeePerGas)
	}

	if parent.GasUsed > parentGasTarget {
		gasUsedDelta := parent.GasUsed - parentGasTarget
		x := new(big.Int).Mul(parent.BaseFeePerGas, big.NewInt(int64(gasUsedDelta)))
		y := new(big.Int).Div(x, big.NewInt(int64(parentGasTarget)))
		baseFeeDelta := gethmath.BigMax(new(big.Int).Div(y, big.NewInt(baseFeeChangeDenominator)), big.NewInt(1))
		return new(big.Int).Add(parent.BaseFeePerGas, baseFeeDelta)
	}

	gasUsedDelta := parentGasTarget - parent.GasUsed
	x := new(big.Int).Mul(parent.BaseFeePerGas, big.NewInt(int64(gasUsedDelta)))
	y := new(big.Int).Div(x, big.NewInt(int64(parentGasTarget)))
	baseFeeDelta := new(big.Int).Div(y, big.NewInt(baseFeeChangeDenominator))
	return gethmath.BigMax(new(big.Int).Sub(parent.BaseFeePerGas, baseFeeDelta), big.NewInt(0))
}

// ValidateHeader checks header against parent per spec §4.1.1: linkage,
// monotonic timestamp, gas-limit drift bound, gas accounting, extra-data
// size, the EIP-1559 base fee, and Cancun field presence/absence and the
// excess-blob-gas formula.
func ValidateHeader(cfg *chainconfig.ChainConfig, header, parent *types.Header) error {
	if header.ParentHash != parent.Hash() {
		return InvalidBlockErr(InvalidHeader, "parent_hash does not match the resolved parent header")
	}
	if header.Number != parent.Number+1 {
		return InvalidBlockErr(InvalidHeader, "number is not parent.number + 1")
	}
	if header.Timestamp <= parent.Timestamp {
		return InvalidBlockErr(InvalidHeader, "timestamp does not strictly increase over parent")
	}

	maxDelta := parent.GasLimit / gasLimitBoundDivisor
	if maxDelta == 0 {
		maxDelta = 1
	}
	if AbsoluteDifference(header.GasLimit, parent.GasLimit) > maxDelta {
		return InvalidBlockErr(InvalidHeader, "gas_limit adjusted beyond the 1/1024 bound")
	}
	if header.GasLimit < 5000 {
		return InvalidBlockErr(InvalidHeader, "gas_limit below the protocol floor")
	}
	if header.GasUsed > header.GasLimit {
		return InvalidBlockErr(InvalidHeader, "gas_used exceeds gas_limit")
	}
	if len(header.ExtraData) > 32 {
		return InvalidBlockErr(InvalidHeader, "extra_data exceeds 32 bytes")
	}

	expectedBaseFee := CalcBaseFee(parent)
	if header.BaseFeePerGas == nil || expectedBaseFee.Cmp(header.BaseFeePerGas) != 0 {
		return InvalidBlockErr(InvalidHeader, fmt.Sprintf("base_fee_per_gas mismatch: got %v want %v", header.BaseFeePerGas, expectedBaseFee))
	}

	if !cfg.IsCancun(header.Number, header.Timestamp) {
		if header.BlobGasUsed != nil || header.ExcessBlobGas != nil || header.ParentBeaconBlockRoot != nil {
			return InvalidBlockErr(InvalidHeader, "blob/beacon-root fields present before Cancun activation")
		}
		return nil
	}

	if !header.IsCancun() {
		return InvalidBlockErr(InvalidHeader, "blob_gas_used, excess_blob_gas and parent_beacon_block_root are required from Cancun")
	}

	var parentExcess, parentUsed uint64
	if parent.ExcessBlobGas != nil {
		parentExcess = *parent.ExcessBlobGas
	}
	if parent.BlobGasUsed != nil {
		parentUsed = *parent.BlobGasUsed
	}
	expectedExcess := CalcExcessBlobGas(parentExcess, parentUsed)
	if *header.ExcessBlobGas != expectedExcess {
		return InvalidBlockErr(BlobGasUsedMismatch, fmt.Sprintf("excess_blob_gas mismatch: got %d want %d", *header.ExcessBlobGas, expectedExcess))
	}
	return nil
}

// ValidateBlobGas re-derives blob_gas_used from the body's transactions and
// checks it against the per-block caps and the header's declared value, per
// spec §4.1.2. A header with no blob_gas_used (pre-Cancun) is not checked
// here; ValidateHeader already rejected any blob content on such a header.
func ValidateBlobGas(header *types.Header, txs []*types.Transaction) error {
	if header.BlobGasUsed == nil {
		return nil
	}

	perTx := make([]int, len(txs))
	for i, tx := range txs {
		perTx[i] = len(tx.BlobVersionedHashesOf())
	}
	blobCount := TotalBlobCount(perTx)

	if blobCount > MaxBlobNumberPerBlock {
		return InvalidBlockErr(ExceededMaxBlobNumberPerBlock,
			fmt.Sprintf("%d blobs exceeds the per-block maximum of %d", blobCount, MaxBlobNumberPerBlock))
	}

	used, overflow := SafeMul(uint64(blobCount), GasPerBlob)
	if overflow || used > MaxBlobGasPerBlock {
		return InvalidBlockErr(ExceededMaxBlobGasPerBlock,
			fmt.Sprintf("blob gas used %d exceeds the per-block maximum of %d", used, MaxBlobGasPerBlock))
	}

	if used != *header.BlobGasUsed {
		return InvalidBlockErr(BlobGasUsedMismatch,
			fmt.Sprintf("blob_gas_used mismatch: computed %d header %d", used, *header.BlobGasUsed))
	}
	return nil
}

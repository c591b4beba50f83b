package chain

import "math/big"

// EIP-4844 constants, per spec §4.1.2.
const (
	GasPerBlob            uint64 = 131072
	MaxBlobGasPerBlock    uint64 = 786432
	MaxBlobNumberPerBlock int    = 6
	TargetBlobGasPerBlock uint64 = MaxBlobGasPerBlock / 2

	minBaseFeePerBlobGas        int64 = 1
	blobBaseFeeUpdateFraction   int64 = 3338477
)

// CalcExcessBlobGas derives the current header's excess_blob_gas from its
// parent's excess_blob_gas and blob_gas_used, per EIP-4844: the running
// excess above the per-block target, floored at zero.
func CalcExcessBlobGas(parentExcessBlobGas, parentBlobGasUsed uint64) uint64 {
	sum, overflow := SafeAdd(parentExcessBlobGas, parentBlobGasUsed)
	if overflow || sum < TargetBlobGasPerBlock {
		return 0
	}
	return sum - TargetBlobGasPerBlock
}

// CalcBlobBaseFee converts excess blob gas into a per-blob-gas fee using the
// fake-exponential approximation EIP-4844 specifies, the basis for the
// eth_blobBaseFee RPC method.
func CalcBlobBaseFee(excessBlobGas uint64) *big.Int {
	return FakeExponential(
		big.NewInt(minBaseFeePerBlobGas),
		new(big.Int).SetUint64(excessBlobGas),
		big.NewInt(blobBaseFeeUpdateFraction),
	)
}

// FakeExponential approximates factor * e**(numerator/denominator) using the
// Taylor-series expansion EIP-4844 defines, avoiding floating point.
func FakeExponential(factor, numerator, denominator *big.Int) *big.Int {
	i := big.NewInt(1)
	output := new(big.Int)
	numeratorAccum := new(big.Int).Mul(factor, denominator)

	for numeratorAccum.Sign() > 0 {
		output.Add(output, numeratorAccum)

		numeratorAccum.Mul(numeratorAccum, numerator)
		numeratorAccum.Div(numeratorAccum, denominator)
		numeratorAccum.Div(numeratorAccum, i)

		i.Add(i, big.NewInt(1))
	}
	return output.Div(output, denominator)
}

// TotalBlobCount counts the blob-versioned hashes carried by a set of
// transactions, the unit both the per-block blob-gas cap and the
// per-block blob-count cap are expressed in.
func TotalBlobCount(blobHashCounts []int) int {
	total := 0
	for _, n := range blobHashCounts {
		total += n
	}
	return total
}

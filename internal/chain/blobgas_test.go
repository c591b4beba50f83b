package chain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalcExcessBlobGasBelowTarget(t *testing.T) {
	require.Equal(t, uint64(0), CalcExcessBlobGas(0, 0))
	require.Equal(t, uint64(0), CalcExcessBlobGas(0, TargetBlobGasPerBlock))
}

func TestCalcExcessBlobGasAboveTarget(t *testing.T) {
	got := CalcExcessBlobGas(TargetBlobGasPerBlock, TargetBlobGasPerBlock)
	require.Equal(t, TargetBlobGasPerBlock, got)
}

func TestCalcBlobBaseFeeAtZeroExcess(t *testing.T) {
	fee := CalcBlobBaseFee(0)
	require.Equal(t, int64(1), fee.Int64())
}

func TestCalcBlobBaseFeeIncreasesWithExcess(t *testing.T) {
	low := CalcBlobBaseFee(0)
	high := CalcBlobBaseFee(MaxBlobGasPerBlock * 10)
	require.Equal(t, -1, low.Cmp(high))
}

func TestTotalBlobCount(t *testing.T) {
	require.Equal(t, 6, TotalBlobCount([]int{1, 2, 3}))
	require.Equal(t, 0, TotalBlobCount(nil))
}

package chain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeAddOverflow(t *testing.T) {
	sum, overflow := SafeAdd(math.MaxUint64, 1)
	require.True(t, overflow)
	require.Equal(t, uint64(0), sum)

	sum, overflow = SafeAdd(1, 2)
	require.False(t, overflow)
	require.Equal(t, uint64(3), sum)
}

func TestSafeMulOverflow(t *testing.T) {
	_, overflow := SafeMul(math.MaxUint64, 2)
	require.True(t, overflow)

	product, overflow := SafeMul(6, 7)
	require.False(t, overflow)
	require.Equal(t, uint64(42), product)
}

func TestAbsoluteDifference(t *testing.T) {
	require.Equal(t, uint64(5), AbsoluteDifference(10, 5))
	require.Equal(t, uint64(5), AbsoluteDifference(5, 10))
	require.Equal(t, uint64(0), AbsoluteDifference(7, 7))
}

func TestCeilDiv(t *testing.T) {
	require.Equal(t, uint64(0), CeilDiv(0, 3))
	require.Equal(t, uint64(3), CeilDiv(9, 3))
	require.Equal(t, uint64(4), CeilDiv(10, 3))
}

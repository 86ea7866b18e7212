package term

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSwapPos(t *testing.T) {
	require.Equal(t, uint64(12), SwapPos(0b1010, 2, 0))
	require.Equal(t, uint64(4), SwapPos(2, 2, 0))
}

func TestBitvecRoundTrip(t *testing.T) {
	for k := 1; k <= 64; k++ {
		var p uint64
		if k < 64 {
			p = (uint64(1) << uint(k)) - 1
		} else {
			p = ^uint64(0)
		}
		bits, err := ToBitvec(p, k)
		require.NoError(t, err)
		require.Equal(t, p, FromBitvec(bits))
	}
}

func TestToBitvecRejectsOutOfRangeBits(t *testing.T) {
	_, err := ToBitvec(0b1000, 3)
	require.Error(t, err)
}

func TestEval(t *testing.T) {
	// 2-input AND: row3 (x1=1,x0=1) -> 1, all else 0.
	and := uint64(0b1000)
	require.True(t, Eval(and, []bool{true, true}))
	require.False(t, Eval(and, []bool{true, false}))
	require.False(t, Eval(and, []bool{false, false}))
}

func TestIsBufferAndInverter(t *testing.T) {
	k := 2
	pos, ok := IsBuffer(VarPattern(k, 0), k)
	require.True(t, ok)
	require.Equal(t, 0, pos)

	pos, ok = IsInverter(^VarPattern(k, 1)&mask64(1<<uint(k)), k)
	require.True(t, ok)
	require.Equal(t, 1, pos)
}

func TestIsDeadInputAndDrop(t *testing.T) {
	// 2-input function ignoring input 1 entirely, equal to VarPattern(2,0).
	k := 2
	prog := VarPattern(k, 0)
	require.True(t, IsDeadInput(prog, k, 1))
	require.False(t, IsDeadInput(prog, k, 0))

	reduced := DropInput(prog, k, 1)
	require.Equal(t, VarPattern(1, 0), reduced)
}

func TestCanonicalizeDropsDeadInputAndSorts(t *testing.T) {
	k := 2
	prog := VarPattern(k, 0) // input 1 is dead
	canon, newK, perm := Canonicalize(prog, k)
	require.Equal(t, 1, newK)
	require.Equal(t, []int{0}, perm)
	require.Equal(t, VarPattern(1, 0), canon)
}

func TestConstDetection(t *testing.T) {
	require.True(t, IsConstZero(0, 3))
	require.True(t, IsConstOne(mask64(1<<3), 3))
	require.False(t, IsConstZero(1, 3))
}

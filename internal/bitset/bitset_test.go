package bitset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
)

func TestNewIsEmpty(t *testing.T) {
	b := bitset.New(37)
	require.True(t, b.Empty())
	require.False(t, b.Full())
	require.EqualValues(t, 0, b.Popcount())
	require.EqualValues(t, 37, b.Size())
}

func TestFullIsFull(t *testing.T) {
	b := bitset.Full(70)
	require.True(t, b.Full())
	require.False(t, b.Empty())
	require.EqualValues(t, 70, b.Popcount())
}

func TestFromBoolsRoundTrip(t *testing.T) {
	bits := []bool{true, false, true, true, false, false, true}
	b := bitset.FromBools(bits)
	for i, v := range bits {
		require.Equal(t, v, b.Get(uint(i)))
	}
}

func TestAndOrXorIdentities(t *testing.T) {
	const n = 130
	a := bitset.FromBools(repeatingPattern(n, 3))
	c := bitset.FromBools(repeatingPattern(n, 5))

	andResult := bitset.New(n)
	bitset.And(a, c, andResult)
	orResult := bitset.New(n)
	bitset.Or(a, c, orResult)
	xorResult := bitset.New(n)
	bitset.Xor(a, c, xorResult)
	xnorResult := bitset.New(n)
	bitset.Xnor(a, c, xnorResult)

	for i := uint(0); i < n; i++ {
		av, cv := a.Get(i), c.Get(i)
		require.Equal(t, av && cv, andResult.Get(i))
		require.Equal(t, av || cv, orResult.Get(i))
		require.Equal(t, av != cv, xorResult.Get(i))
		require.Equal(t, av == cv, xnorResult.Get(i))
	}
}

func TestNotClearsTailBits(t *testing.T) {
	b := bitset.New(5)
	notResult := bitset.New(5)
	bitset.Not(b, notResult)
	require.EqualValues(t, 5, notResult.Popcount())
	require.True(t, notResult.Full())
}

func TestEqualConsidersDepthBudget(t *testing.T) {
	a := bitset.Full(10)
	b := bitset.Full(10)
	require.True(t, a.Equal(b))

	b.SetDepthBudget(4)
	require.False(t, a.Equal(b))
	a.SetDepthBudget(4)
	require.True(t, a.Equal(b))
}

func TestHashStableAndSensitive(t *testing.T) {
	a := bitset.FromBools([]bool{true, false, true, false})
	b := a.Clone()
	require.Equal(t, a.Hash(), b.Hash())

	b.Set(1, true)
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestScanFindsSetAndClearBits(t *testing.T) {
	b := bitset.FromBools([]bool{false, false, true, false, true, true, false})
	require.EqualValues(t, 2, b.Scan(0, true))
	require.EqualValues(t, 4, b.Scan(3, true))
	require.EqualValues(t, 6, b.Scan(5, false))

	require.EqualValues(t, 0, b.Scan(0, false))
	require.EqualValues(t, 3, b.Scan(2+1, false))
}

func TestRscanFindsSetAndClearBits(t *testing.T) {
	b := bitset.FromBools([]bool{false, false, true, false, true, true, false})
	require.Equal(t, 5, b.Rscan(6, true))
	require.Equal(t, 4, b.Rscan(4, true))
	require.Equal(t, 2, b.Rscan(3, true))
	require.Equal(t, -1, b.Rscan(1, true))
}

func TestScanRangeCoversAllRuns(t *testing.T) {
	b := bitset.FromBools([]bool{true, true, false, false, true, false, true, true, true})
	var begin, end int
	var runs [][2]int
	for b.ScanRange(true, &begin, &end) {
		runs = append(runs, [2]int{begin, end})
		begin = end
	}
	require.Equal(t, [][2]int{{0, 2}, {4, 5}, {6, 9}}, runs)
}

func TestCompareIsLexicographic(t *testing.T) {
	a := bitset.FromBools([]bool{true, false, false})
	b := bitset.FromBools([]bool{true, false, true})
	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))
	require.Zero(t, a.Compare(a.Clone()))
}

func TestForEachSetVisitsAscending(t *testing.T) {
	b := bitset.FromBools([]bool{true, false, true, true, false})
	var visited []uint
	b.ForEachSet(func(i uint) { visited = append(visited, i) })
	require.Equal(t, []uint{0, 2, 3}, visited)
}

func TestStringMostSignificantBitFirst(t *testing.T) {
	b := bitset.FromBools([]bool{true, false, true})
	require.Equal(t, "101", b.String())
}

func repeatingPattern(n uint, period int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = i%period == 0
	}
	return out
}

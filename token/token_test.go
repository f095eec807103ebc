package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenConstructorsAndPredicates(t *testing.T) {
	v := Val[uint64, uint32](7)
	require.True(t, v.IsVal())
	require.False(t, v.IsStop())
	val, ok := v.Value()
	require.True(t, ok)
	require.Equal(t, uint64(7), val)
	_, ok = v.StopLevel()
	require.False(t, ok)

	s := Stop[uint64, uint32](2)
	require.True(t, s.IsStop())
	lvl, ok := s.StopLevel()
	require.True(t, ok)
	require.Equal(t, uint32(2), lvl)

	require.True(t, Empty[uint64, uint32]().IsEmpty())
	require.True(t, Done[uint64, uint32]().IsDone())
}

func TestTokenZeroValueIsValZero(t *testing.T) {
	var z Token[uint64, uint32]
	require.True(t, z.IsVal())
	v, ok := z.Value()
	require.True(t, ok)
	require.Zero(t, v)
}

func TestTokenEqual(t *testing.T) {
	require.True(t, Equal(Val[uint64, uint32](3), Val[uint64, uint32](3)))
	require.False(t, Equal(Val[uint64, uint32](3), Val[uint64, uint32](4)))
	require.True(t, Equal(Stop[uint64, uint32](1), Stop[uint64, uint32](1)))
	require.False(t, Equal(Stop[uint64, uint32](1), Stop[uint64, uint32](2)))
	require.False(t, Equal(Val[uint64, uint32](0), Stop[uint64, uint32](0)))
	require.True(t, Equal(Done[uint64, uint32](), Done[uint64, uint32]()))
}

func TestTokenString(t *testing.T) {
	require.Equal(t, "7", Val[uint64, uint32](7).String())
	require.Equal(t, "S2", Stop[uint64, uint32](2).String())
	require.Equal(t, "N", Empty[uint64, uint32]().String())
	require.Equal(t, "D", Done[uint64, uint32]().String())
}

package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// TestValDropDropsZerosAndCoalescesConsecutiveStops walks the worked
// example: a zero-valued (Val, Coord) pair is dropped, and a run of two
// consecutive Stop(0) pairs (which would otherwise open and immediately
// close an empty fiber) collapses into one.
func TestValDropDropsZerosAndCoalescesConsecutiveStops(t *testing.T) {
	inVal := streamtime.NewUnboundedChannel[Tok[float32, uint32]]("inVal")
	inCrd := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("inCrd")
	outVal := streamtime.NewUnboundedChannel[Tok[float32, uint32]]("outVal")
	outCrd := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outCrd")

	feed(inVal,
		token.Val[float32, uint32](5), token.Val[float32, uint32](0), token.Val[float32, uint32](3),
		token.Stop[float32, uint32](0), token.Stop[float32, uint32](0),
		token.Done[float32, uint32](),
	)
	feed(inCrd,
		token.Val[uint64, uint32](100), token.Val[uint64, uint32](200), token.Val[uint64, uint32](300),
		token.Stop[uint64, uint32](0), token.Stop[uint64, uint32](0),
		token.Done[uint64, uint32](),
	)

	d := NewValDrop[uint64, float32, uint32]("drop", inVal, inCrd, outVal, outCrd)
	require.NoError(t, d.Initialize(context.Background()))
	require.NoError(t, d.Run(context.Background()))

	gotVal := drain(outVal)
	require.Len(t, gotVal, 4)
	v, _ := gotVal[0].Value()
	require.Equal(t, float32(5), v)
	v, _ = gotVal[1].Value()
	require.Equal(t, float32(3), v)
	require.True(t, gotVal[2].IsStop())
	require.True(t, gotVal[3].IsDone())

	gotCrd := drain(outCrd)
	require.Len(t, gotCrd, 4)
	c, _ := gotCrd[0].Value()
	require.Equal(t, uint64(100), c)
	c, _ = gotCrd[1].Value()
	require.Equal(t, uint64(300), c)
}

// TestValDropDoesNotResetCoalescingStateOnDroppedZero walks the literal
// worked sequence 1,2,S0,0,S0,2,3,4,S1,D: the zero dropped between the two
// Stop(0) pairs must not disturb the coalescing state those pairs track, so
// the run of two consecutive Stop(0) still collapses into one.
func TestValDropDoesNotResetCoalescingStateOnDroppedZero(t *testing.T) {
	inVal := streamtime.NewUnboundedChannel[Tok[float32, uint32]]("inVal")
	inCrd := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("inCrd")
	outVal := streamtime.NewUnboundedChannel[Tok[float32, uint32]]("outVal")
	outCrd := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outCrd")

	feed(inVal,
		token.Val[float32, uint32](1), token.Val[float32, uint32](2), token.Stop[float32, uint32](0),
		token.Val[float32, uint32](0), token.Stop[float32, uint32](0),
		token.Val[float32, uint32](2), token.Val[float32, uint32](3), token.Val[float32, uint32](4),
		token.Stop[float32, uint32](1), token.Done[float32, uint32](),
	)
	feed(inCrd,
		token.Val[uint64, uint32](1), token.Val[uint64, uint32](2), token.Stop[uint64, uint32](0),
		token.Val[uint64, uint32](0), token.Stop[uint64, uint32](0),
		token.Val[uint64, uint32](2), token.Val[uint64, uint32](3), token.Val[uint64, uint32](4),
		token.Stop[uint64, uint32](1), token.Done[uint64, uint32](),
	)

	d := NewValDrop[uint64, float32, uint32]("drop", inVal, inCrd, outVal, outCrd)
	require.NoError(t, d.Initialize(context.Background()))
	require.NoError(t, d.Run(context.Background()))

	gotVal := drain(outVal)
	require.Len(t, gotVal, 8)
	for i, want := range []float32{1, 2} {
		v, _ := gotVal[i].Value()
		require.Equal(t, want, v)
	}
	require.True(t, gotVal[2].IsStop())
	for i, want := range []float32{2, 3, 4} {
		v, _ := gotVal[3+i].Value()
		require.Equal(t, want, v)
	}
	require.True(t, gotVal[6].IsStop())
	require.True(t, gotVal[7].IsDone())

	gotCrd := drain(outCrd)
	require.Len(t, gotCrd, 8)
	c, _ := gotCrd[0].Value()
	require.Equal(t, uint64(1), c)
	c, _ = gotCrd[1].Value()
	require.Equal(t, uint64(2), c)
	require.True(t, gotCrd[2].IsStop())
	for i, want := range []uint64{2, 3, 4} {
		c, _ := gotCrd[3+i].Value()
		require.Equal(t, want, c)
	}
	require.True(t, gotCrd[6].IsStop())
	require.True(t, gotCrd[7].IsDone())
}

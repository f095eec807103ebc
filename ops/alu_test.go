package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

func TestBinaryALUAddsAlignedStreams(t *testing.T) {
	arg1 := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("arg1")
	arg2 := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("arg2")
	out := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("out")

	feed(arg1, token.Val[int64, uint32](3), token.Stop[int64, uint32](0), token.Done[int64, uint32]())
	feed(arg2, token.Val[int64, uint32](4), token.Stop[int64, uint32](0), token.Done[int64, uint32]())

	alu, err := NewALU[int64, uint32]("add", OpAdd, 1, arg1, arg2, out)
	require.NoError(t, err)
	require.NoError(t, alu.Initialize(context.Background()))
	require.NoError(t, alu.Run(context.Background()))

	got := drain(out)
	require.Len(t, got, 3)
	v, ok := got[0].Value()
	require.True(t, ok)
	require.Equal(t, int64(7), v)
	require.True(t, got[1].IsStop())
	require.True(t, got[2].IsDone())
}

func TestBinaryALURejectsUnknownOp(t *testing.T) {
	arg1 := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("arg1")
	arg2 := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("arg2")
	out := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("out")
	_, err := NewALU[int64, uint32]("bad", BinaryOp("Nope"), 1, arg1, arg2, out)
	require.Error(t, err)
}

func TestUnaryALUNegatesEveryValAndPassesControlThrough(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("in")
	out := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("out")
	feed(in, token.Val[int64, uint32](5), token.Stop[int64, uint32](1), token.Done[int64, uint32]())

	alu, err := NewUnaryALU[int64, uint32]("neg", OpNeg, 1, in, out, func(v int64) int64 { return -v })
	require.NoError(t, err)
	require.NoError(t, alu.Initialize(context.Background()))
	require.NoError(t, alu.Run(context.Background()))

	got := drain(out)
	require.Len(t, got, 3)
	v, _ := got[0].Value()
	require.Equal(t, int64(-5), v)
	lvl, _ := got[1].StopLevel()
	require.Equal(t, uint32(1), lvl)
	require.True(t, got[2].IsDone())
}

func TestScalarALUBroadcastsFixedOperand(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[float32, uint32]]("in")
	out := streamtime.NewUnboundedChannel[Tok[float32, uint32]]("out")
	feed(in, token.Val[float32, uint32](2), token.Val[float32, uint32](5), token.Done[float32, uint32]())

	alu, err := NewScalarALU[float32, uint32]("scale", OpMul, 3, 1, in, out)
	require.NoError(t, err)
	require.NoError(t, alu.Initialize(context.Background()))
	require.NoError(t, alu.Run(context.Background()))

	got := drain(out)
	require.Len(t, got, 3)
	v0, _ := got[0].Value()
	v1, _ := got[1].Value()
	require.Equal(t, float32(6), v0)
	require.Equal(t, float32(15), v1)
}

func TestReservedUnaryALURejectsNonFloatValueType(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("in")
	out := streamtime.NewUnboundedChannel[Tok[int64, uint32]]("out")
	_, err := NewReservedUnaryALU[int64, uint32]("exp", OpExp, 1, in, out)
	require.Error(t, err)
}

func TestReservedUnaryALUComputesExp(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[float32, uint32]]("in")
	out := streamtime.NewUnboundedChannel[Tok[float32, uint32]]("out")
	feed(in, token.Val[float32, uint32](0), token.Done[float32, uint32]())

	alu, err := NewReservedUnaryALU[float32, uint32]("exp", OpExp, 1, in, out)
	require.NoError(t, err)
	require.NoError(t, alu.Initialize(context.Background()))
	require.NoError(t, alu.Run(context.Background()))

	got := drain(out)
	v, _ := got[0].Value()
	require.InDelta(t, 1.0, float64(v), 1e-6)
}

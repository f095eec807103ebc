package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

func TestCompressedWrScanAccumulatesSegmentsAndCoordinates(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("in")
	feed(in,
		token.Val[uint64, uint32](1), token.Val[uint64, uint32](2), token.Stop[uint64, uint32](0),
		token.Val[uint64, uint32](3), token.Stop[uint64, uint32](0),
		token.Done[uint64, uint32](),
	)

	w := NewCompressedWrScan[uint64, uint32]("writer", in)
	require.NoError(t, w.Initialize(context.Background()))
	require.NoError(t, w.Run(context.Background()))

	seg, crd := w.Result()
	require.Equal(t, []uint64{0, 2, 3}, seg)
	require.Equal(t, []uint64{1, 2, 3}, crd)
}

func TestCompressedWrScanIgnoresEmptyFramingTokens(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("in")
	feed(in, token.Empty[uint64, uint32](), token.Val[uint64, uint32](9), token.Stop[uint64, uint32](0), token.Done[uint64, uint32]())

	w := NewCompressedWrScan[uint64, uint32]("writer", in)
	require.NoError(t, w.Initialize(context.Background()))
	require.NoError(t, w.Run(context.Background()))

	seg, crd := w.Result()
	require.Equal(t, []uint64{0, 1}, seg)
	require.Equal(t, []uint64{9}, crd)
}

func TestValsWrScanAppendsEveryValAndDropsControlTokens(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[float32, uint32]]("in")
	feed(in,
		token.Val[float32, uint32](1.5), token.Stop[float32, uint32](0),
		token.Val[float32, uint32](2.5), token.Empty[float32, uint32](),
		token.Done[float32, uint32](),
	)

	w := NewValsWrScan[float32, uint32]("writer", in)
	require.NoError(t, w.Initialize(context.Background()))
	require.NoError(t, w.Run(context.Background()))

	require.Equal(t, []float32{1.5, 2.5}, w.Result())
}

package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

func TestCompressedReadScanWalksASingleFiber(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("in")
	outCoord := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outCoord")
	outRef := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outRef")
	feed(in, token.Val[uint64, uint32](0), token.Done[uint64, uint32]())

	seg := []uint64{0, 3}
	crd := []uint64{10, 20, 30}
	s := NewCompressedReadScan[uint32]("scan", seg, crd, in, outCoord, outRef, DefaultScannerTiming())
	require.NoError(t, s.Initialize(context.Background()))
	require.NoError(t, s.Run(context.Background()))

	wantCoord := []Tok[uint64, uint32]{
		token.Val[uint64, uint32](10), token.Val[uint64, uint32](20), token.Val[uint64, uint32](30),
		token.Stop[uint64, uint32](0), token.Done[uint64, uint32](),
	}
	wantRef := []Tok[uint64, uint32]{
		token.Val[uint64, uint32](0), token.Val[uint64, uint32](1), token.Val[uint64, uint32](2),
		token.Stop[uint64, uint32](0), token.Done[uint64, uint32](),
	}
	gotCoord, gotRef := drain(outCoord), drain(outRef)
	require.Len(t, gotCoord, len(wantCoord))
	require.Len(t, gotRef, len(wantRef))
	for i := range wantCoord {
		require.True(t, token.Equal(gotCoord[i], wantCoord[i]))
		require.True(t, token.Equal(gotRef[i], wantRef[i]))
	}
}

func TestCompressedReadScanRejectsOutOfRangeIndex(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("in")
	outCoord := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outCoord")
	outRef := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outRef")
	feed(in, token.Val[uint64, uint32](5))

	s := NewCompressedReadScan[uint32]("scan", []uint64{0, 1}, []uint64{7}, in, outCoord, outRef, DefaultScannerTiming())
	require.NoError(t, s.Initialize(context.Background()))
	require.Error(t, s.Run(context.Background()))
}

func TestUncompressedReadScanEnumeratesDenseDimension(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("in")
	outCoord := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outCoord")
	outRef := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outRef")
	feed(in, token.Val[uint64, uint32](1), token.Done[uint64, uint32]())

	s := NewUncompressedReadScan[uint32]("dense", 3, in, outCoord, outRef, DefaultScannerTiming())
	require.NoError(t, s.Initialize(context.Background()))
	require.NoError(t, s.Run(context.Background()))

	wantCoord := []Tok[uint64, uint32]{
		token.Val[uint64, uint32](0), token.Val[uint64, uint32](1), token.Val[uint64, uint32](2),
		token.Stop[uint64, uint32](0), token.Done[uint64, uint32](),
	}
	wantRef := []Tok[uint64, uint32]{
		token.Val[uint64, uint32](3), token.Val[uint64, uint32](4), token.Val[uint64, uint32](5),
		token.Stop[uint64, uint32](0), token.Done[uint64, uint32](),
	}
	gotCoord, gotRef := drain(outCoord), drain(outRef)
	require.Len(t, gotCoord, len(wantCoord))
	require.Len(t, gotRef, len(wantRef))
	for i := range wantCoord {
		require.True(t, token.Equal(gotCoord[i], wantCoord[i]))
		require.True(t, token.Equal(gotRef[i], wantRef[i]))
	}
}

package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// TestStknDropCoalescesLeadingAndRepeatedStops exercises both of the
// coalescing cases: a leading Stop before any Val is dropped, and a
// repeated Stop immediately after one already emitted is dropped.
func TestStknDropCoalescesLeadingAndRepeatedStops(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("in")
	out := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("out")

	feed(in,
		token.Stop[uint64, uint32](0),
		token.Val[uint64, uint32](1),
		token.Stop[uint64, uint32](0), token.Stop[uint64, uint32](1),
		token.Val[uint64, uint32](2),
		token.Done[uint64, uint32](),
	)

	d := NewStknDrop[uint64, uint32]("strip", in, out)
	require.NoError(t, d.Initialize(context.Background()))
	require.NoError(t, d.Run(context.Background()))

	want := []Tok[uint64, uint32]{
		token.Val[uint64, uint32](1),
		token.Stop[uint64, uint32](0),
		token.Val[uint64, uint32](2),
		token.Done[uint64, uint32](),
	}
	got := drain(out)
	require.Len(t, got, len(want))
	for i := range want {
		require.Truef(t, token.Equal(got[i], want[i]), "index %d: got %s want %s", i, got[i], want[i])
	}
}

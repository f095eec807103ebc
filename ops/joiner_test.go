package ops

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

func tokenStrings[V any, L token.Level](toks []Tok[V, L]) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.String()
	}
	return out
}

// TestUnionMergesTwoSortedCoordinateLists drives a 2-way Union joiner over
// {2, 5} and {5, 7}: a tie at 5 emits both refs, the unmatched coordinates
// emit Empty on the other side's ref output, and a matching Stop(0) closes
// the fiber on all three outputs before Done.
func TestUnionMergesTwoSortedCoordinateLists(t *testing.T) {
	crd1 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("crd1")
	ref1 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("ref1")
	crd2 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("crd2")
	ref2 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("ref2")
	outCrd := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outCrd")
	outRef1 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outRef1")
	outRef2 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outRef2")

	feed(crd1, token.Val[uint64, uint32](2), token.Val[uint64, uint32](5), token.Stop[uint64, uint32](0), token.Done[uint64, uint32]())
	feed(ref1, token.Val[uint64, uint32](20), token.Val[uint64, uint32](50), token.Stop[uint64, uint32](0), token.Done[uint64, uint32]())
	feed(crd2, token.Val[uint64, uint32](5), token.Val[uint64, uint32](7), token.Stop[uint64, uint32](0), token.Done[uint64, uint32]())
	feed(ref2, token.Val[uint64, uint32](55), token.Val[uint64, uint32](70), token.Stop[uint64, uint32](0), token.Done[uint64, uint32]())

	j := NewUnion[uint32]("union", crd1, ref1, crd2, ref2, outCrd, outRef1, outRef2, DefaultJoinerTiming())
	require.NoError(t, j.Initialize(context.Background()))
	require.NoError(t, j.Run(context.Background()))

	if diff := cmp.Diff([]string{"2", "5", "7", "S0", "D"}, tokenStrings(drain(outCrd))); diff != "" {
		t.Errorf("outCrd mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"20", "50", "N", "S0", "D"}, tokenStrings(drain(outRef1))); diff != "" {
		t.Errorf("outRef1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"N", "55", "70", "S0", "D"}, tokenStrings(drain(outRef2))); diff != "" {
		t.Errorf("outRef2 mismatch (-want +got):\n%s", diff)
	}
}

// TestUnionStopLevelMismatchIsAProtocolError exercises the level-mismatch
// guard on paired Stop tokens.
func TestUnionStopLevelMismatchIsAProtocolError(t *testing.T) {
	crd1 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("crd1")
	ref1 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("ref1")
	crd2 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("crd2")
	ref2 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("ref2")
	outCrd := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outCrd")
	outRef1 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outRef1")
	outRef2 := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("outRef2")

	feed(crd1, token.Stop[uint64, uint32](0))
	feed(ref1, token.Stop[uint64, uint32](0))
	feed(crd2, token.Stop[uint64, uint32](1))
	feed(ref2, token.Stop[uint64, uint32](1))

	j := NewUnion[uint32]("union", crd1, ref1, crd2, ref2, outCrd, outRef1, outRef2, DefaultJoinerTiming())
	require.NoError(t, j.Initialize(context.Background()))
	err := j.Run(context.Background())
	require.Error(t, err)
}

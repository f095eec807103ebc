package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

func feedRepSig(ch *streamtime.Channel[RepSig], sigs ...RepSig) {
	tm := streamtime.NewTime()
	var ready streamtime.Cycle
	for _, s := range sigs {
		_ = ch.Enqueue(tm, streamtime.ChannelElement[RepSig]{ReadyTime: ready, Data: s})
		ready++
	}
}

func drainRepSig(ch *streamtime.Channel[RepSig]) []RepSig {
	tm := streamtime.NewTime()
	var out []RepSig
	for {
		el, err := ch.Dequeue(tm)
		if err != nil {
			return out
		}
		out = append(out, el.Data)
		if el.Data == RepSigDone {
			return out
		}
	}
}

func TestRepSigGenTranslatesTokenKinds(t *testing.T) {
	in := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("in")
	out := streamtime.NewUnboundedChannel[RepSig]("out")
	feed(in, token.Val[uint64, uint32](1), token.Val[uint64, uint32](2), token.Stop[uint64, uint32](0), token.Done[uint64, uint32]())

	g := NewRepSigGen[uint64, uint32]("gen", in, out)
	require.NoError(t, g.Initialize(context.Background()))
	require.NoError(t, g.Run(context.Background()))

	require.Equal(t, []RepSig{RepSigRepeat, RepSigRepeat, RepSigStop, RepSigDone}, drainRepSig(out))
}

// TestRepeatHoldsReferenceAcrossOuterFiber walks the two-fiber example by
// hand: a held reference is repeated per RepSigRepeat, advanced to the next
// reference and stop-bumped on RepSigStop, and closed on RepSigDone.
func TestRepeatHoldsReferenceAcrossOuterFiber(t *testing.T) {
	inRef := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("ref")
	inSig := streamtime.NewUnboundedChannel[RepSig]("sig")
	out := streamtime.NewUnboundedChannel[Tok[uint64, uint32]]("out")

	feed(inRef,
		token.Val[uint64, uint32](100), token.Stop[uint64, uint32](0),
		token.Val[uint64, uint32](200), token.Stop[uint64, uint32](0),
		token.Done[uint64, uint32](),
	)
	feedRepSig(inSig, RepSigRepeat, RepSigRepeat, RepSigStop, RepSigRepeat, RepSigStop, RepSigDone)

	r := NewRepeat[uint64, uint32]("repeat", inRef, inSig, out)
	require.NoError(t, r.Initialize(context.Background()))
	require.NoError(t, r.Run(context.Background()))

	got := drain(out)
	want := []Tok[uint64, uint32]{
		token.Val[uint64, uint32](100),
		token.Val[uint64, uint32](100),
		token.Stop[uint64, uint32](1),
		token.Val[uint64, uint32](200),
		token.Stop[uint64, uint32](1),
		token.Done[uint64, uint32](),
	}
	require.Len(t, got, len(want))
	for i := range want {
		require.Truef(t, token.Equal(got[i], want[i]), "index %d: got %s want %s", i, got[i], want[i])
	}
}

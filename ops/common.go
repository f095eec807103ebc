// Package ops implements the sparse-tensor streaming operator catalogue:
// scanners, joiners, the repeat/rep-signal pair, array lookup, ALUs,
// reducers, sparse accumulators, coordinate drop/hold, value/stop-token
// droppers, fan-out primitives, and terminal writers. Every operator is a
// Mealy machine over its input token alphabets (spec §4.5) driven by the
// block.Block contract.
package ops

import (
	"context"
	"errors"
	"fmt"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// Num is the value-type capability set most operators need: arithmetic
// (token.Numeric) and ordering, since joiners and reducers compare
// coordinates/values directly.
type Num interface {
	token.Numeric
}

// Tok is shorthand for the token type every operator channel carries.
type Tok[V any, L token.Level] = token.Token[V, L]

// enqueue wraps Sink.Enqueue, wrapping a detached consumer's
// streamtime.ErrConsumerGone with this block's name (spec §4.2 fail modes).
func enqueue[V any, L token.Level](ctx context.Context, id block.ID, sink streamtime.Sink[Tok[V, L]], t *streamtime.Time, ready streamtime.Cycle, tok Tok[V, L]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el := streamtime.ChannelElement[Tok[V, L]]{ReadyTime: ready, Data: tok}
	if err := sink.Enqueue(t, el); err != nil {
		if errors.Is(err, streamtime.ErrConsumerGone) {
			return fmt.Errorf("%w: block %s: consumer gone", err, id)
		}
		return err
	}
	return nil
}

// dequeue wraps Source.Dequeue, translating a detached producer into the
// same error the caller would see on a protocol violation (spec §4.2).
func dequeue[V any, L token.Level](ctx context.Context, id block.ID, src streamtime.Source[Tok[V, L]], t *streamtime.Time) (Tok[V, L], error) {
	if err := ctx.Err(); err != nil {
		var zero Tok[V, L]
		return zero, err
	}
	el, err := src.Dequeue(t)
	if err != nil {
		var zero Tok[V, L]
		if errors.Is(err, streamtime.ErrProducerGone) {
			return zero, fmt.Errorf("%w: block %s: producer gone without Done", err, id)
		}
		return zero, err
	}
	return el.Data, nil
}

func peek[V any, L token.Level](ctx context.Context, id block.ID, src streamtime.Source[Tok[V, L]], t *streamtime.Time) (Tok[V, L], error) {
	if err := ctx.Err(); err != nil {
		var zero Tok[V, L]
		return zero, err
	}
	el, err := src.PeekNext(t)
	if err != nil {
		var zero Tok[V, L]
		if errors.Is(err, streamtime.ErrProducerGone) {
			return zero, fmt.Errorf("%w: block %s: producer gone without Done", err, id)
		}
		return zero, err
	}
	return el.Data, nil
}

// closeProducer calls CloseProducer on sink if it supports it (real
// streamtime.Channel outputs do; streamtime.Void does not need it).
func closeProducer[V any, L token.Level](sink streamtime.Sink[Tok[V, L]]) {
	if c, ok := sink.(interface{ CloseProducer() }); ok {
		c.CloseProducer()
	}
}

// bumpStopLevel adds one to a stop level that is some unsigned integer
// type, used when a Stop observed on an input is re-emitted one level
// higher by a scanner/joiner that sits "inside" that fiber boundary.
func bumpStopLevel[L token.Level](l L) L { return l + 1 }

package ops

import (
	"context"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// Array implements spec §4.4.6: a blocked-memory value lookup. Each Val
// reference indexes a backing array; the configured BlockSize models a
// cache-line read cost charged as BlockSize^2 cycles of latency.
type Array[R token.Numeric, V token.Numeric, L token.Level] struct {
	block.Base
	values    []V
	blockSize uint64

	in  streamtime.Source[Tok[R, L]]
	out streamtime.Sink[Tok[V, L]]
}

// NewArray wires an array lookup block over a fixed backing array.
func NewArray[R token.Numeric, V token.Numeric, L token.Level](
	name string, values []V, blockSize uint64,
	in streamtime.Source[Tok[R, L]], out streamtime.Sink[Tok[V, L]],
) *Array[R, V, L] {
	if blockSize == 0 {
		blockSize = 1
	}
	return &Array[R, V, L]{Base: block.NewBase(name), values: values, blockSize: blockSize, in: in, out: out}
}

func (a *Array[R, V, L]) Initialize(context.Context) error { return nil }

func (a *Array[R, V, L]) Run(ctx context.Context) error {
	id := a.Identifier()
	for {
		in, err := dequeue(ctx, id, a.in, a.Time)
		if err != nil {
			return err
		}

		switch {
		case in.IsVal():
			r, _ := in.Value()
			idx := uint64(r)
			if int(idx) >= len(a.values) {
				return NewIndexError(id, "Array", idx)
			}
			ready := a.Time.Tick() + streamtime.Cycle(a.blockSize*a.blockSize)
			if err := enqueue(ctx, id, a.out, a.Time, ready, token.Val[V, L](a.values[idx])); err != nil {
				return err
			}

		case in.IsStop():
			lvl, _ := in.StopLevel()
			ready := a.Time.Tick() + 1
			if err := enqueue(ctx, id, a.out, a.Time, ready, token.Stop[V, L](lvl)); err != nil {
				return err
			}

		case in.IsEmpty():
			var zero V
			ready := a.Time.Tick() + 1
			if err := enqueue(ctx, id, a.out, a.Time, ready, token.Val[V, L](zero)); err != nil {
				return err
			}

		case in.IsDone():
			ready := a.Time.Tick() + 1
			if err := enqueue(ctx, id, a.out, a.Time, ready, token.Done[V, L]()); err != nil {
				return err
			}
			closeProducer[V, L](a.out)
			return nil
		}

		a.Time.IncrCycles(1)
	}
}

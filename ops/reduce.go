package ops

import (
	"context"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// ReduceOp names the accumulation function a Reduce block folds Vals with.
type ReduceOp string

const (
	ReduceSum ReduceOp = "sum"
	ReduceMax ReduceOp = "max"
)

// Reduce implements spec §4.4.8: it accumulates Vals until a Stop(l), emits
// Val(accum), then Stop(l-1) iff l > 0, and resets. Done is propagated.
type Reduce[V token.Numeric, L token.Level] struct {
	block.Base
	op     ReduceOp
	in     streamtime.Source[Tok[V, L]]
	out    streamtime.Sink[Tok[V, L]]
	accum  V
	havAcc bool
}

// NewReduce wires a Reduce block.
func NewReduce[V token.Numeric, L token.Level](name string, op ReduceOp, in streamtime.Source[Tok[V, L]], out streamtime.Sink[Tok[V, L]]) *Reduce[V, L] {
	return &Reduce[V, L]{Base: block.NewBase(name), op: op, in: in, out: out}
}

func (r *Reduce[V, L]) Initialize(context.Context) error { return nil }

func (r *Reduce[V, L]) fold(v V) {
	if !r.havAcc {
		r.accum = v
		r.havAcc = true
		return
	}
	switch r.op {
	case ReduceMax:
		if v > r.accum {
			r.accum = v
		}
	default:
		r.accum += v
	}
}

func (r *Reduce[V, L]) Run(ctx context.Context) error {
	id := r.Identifier()
	var zero L
	for {
		in, err := dequeue(ctx, id, r.in, r.Time)
		if err != nil {
			return err
		}

		switch {
		case in.IsVal():
			v, _ := in.Value()
			r.fold(v)

		case in.IsEmpty():
			r.fold(zeroV[V]())

		case in.IsStop():
			lvl, _ := in.StopLevel()
			acc := r.accum
			if !r.havAcc {
				acc = zeroV[V]()
			}
			ready := r.Time.Tick() + 1
			if err := enqueue(ctx, id, r.out, r.Time, ready, token.Val[V, L](acc)); err != nil {
				return err
			}
			if lvl != zero {
				if err := enqueue(ctx, id, r.out, r.Time, ready, token.Stop[V, L](lvl-1)); err != nil {
					return err
				}
			}
			r.accum = zeroV[V]()
			r.havAcc = false

		case in.IsDone():
			ready := r.Time.Tick() + 1
			if err := enqueue(ctx, id, r.out, r.Time, ready, token.Done[V, L]()); err != nil {
				return err
			}
			closeProducer[V, L](r.out)
			return nil
		}

		r.Time.IncrCycles(1)
	}
}

func zeroV[V any]() V {
	var z V
	return z
}

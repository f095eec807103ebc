package ops

import (
	"context"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// ValDrop implements spec §4.4.11: drops (Val, Coord) pairs where Val equals
// the zero value, preserving Stop/Done framing and coalescing a run of two
// consecutive Stops (which would otherwise open and immediately close an
// empty fiber) into one.
type ValDrop[C token.Numeric, V token.Numeric, L token.Level] struct {
	block.Base
	inVal  streamtime.Source[Tok[V, L]]
	inCrd  streamtime.Source[Tok[C, L]]
	outVal streamtime.Sink[Tok[V, L]]
	outCrd streamtime.Sink[Tok[C, L]]

	prevStop bool
}

// NewValDrop wires a ValDrop block.
func NewValDrop[C token.Numeric, V token.Numeric, L token.Level](name string, inVal streamtime.Source[Tok[V, L]], inCrd streamtime.Source[Tok[C, L]], outVal streamtime.Sink[Tok[V, L]], outCrd streamtime.Sink[Tok[C, L]]) *ValDrop[C, V, L] {
	return &ValDrop[C, V, L]{Base: block.NewBase(name), inVal: inVal, inCrd: inCrd, outVal: outVal, outCrd: outCrd}
}

func (d *ValDrop[C, V, L]) Initialize(context.Context) error { return nil }

func (d *ValDrop[C, V, L]) Run(ctx context.Context) error {
	id := d.Identifier()
	var zero V
	for {
		val, err := dequeue(ctx, id, d.inVal, d.Time)
		if err != nil {
			return err
		}
		crd, err := dequeue(ctx, id, d.inCrd, d.Time)
		if err != nil {
			return err
		}

		switch {
		case val.IsVal() && crd.IsVal():
			v, _ := val.Value()
			if v != zero {
				ready := d.Time.Tick() + 1
				if err := enqueue(ctx, id, d.outVal, d.Time, ready, val); err != nil {
					return err
				}
				if err := enqueue(ctx, id, d.outCrd, d.Time, ready, crd); err != nil {
					return err
				}
				d.prevStop = false
			}

		case val.IsStop() && crd.IsStop():
			if d.prevStop {
				d.prevStop = false
				d.Time.IncrCycles(1)
				continue
			}
			ready := d.Time.Tick() + 1
			if err := enqueue(ctx, id, d.outVal, d.Time, ready, val); err != nil {
				return err
			}
			if err := enqueue(ctx, id, d.outCrd, d.Time, ready, crd); err != nil {
				return err
			}
			d.prevStop = true

		case val.IsDone() && crd.IsDone():
			ready := d.Time.Tick() + 1
			if err := enqueue(ctx, id, d.outVal, d.Time, ready, val); err != nil {
				return err
			}
			if err := enqueue(ctx, id, d.outCrd, d.Time, ready, crd); err != nil {
				return err
			}
			closeProducer[V, L](d.outVal)
			closeProducer[C, L](d.outCrd)
			return nil

		default:
			return NewUnexpectedTokenError(id, "ValDrop", val.Kind())
		}

		d.Time.IncrCycles(1)
	}
}

package ops

import (
	"context"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// StknDrop implements spec §4.4.12: coalesces runs of Stop tokens (and any
// leading Stop) so each fiber emits at most one Stop at its boundary. Done
// is forwarded.
type StknDrop[V token.Numeric, L token.Level] struct {
	block.Base
	in  streamtime.Source[Tok[V, L]]
	out streamtime.Sink[Tok[V, L]]

	prevStop bool
}

// NewStknDrop wires a StknDrop block. prevStop starts true so a leading
// Stop (before any Val has been seen) is dropped.
func NewStknDrop[V token.Numeric, L token.Level](name string, in streamtime.Source[Tok[V, L]], out streamtime.Sink[Tok[V, L]]) *StknDrop[V, L] {
	return &StknDrop[V, L]{Base: block.NewBase(name), in: in, out: out, prevStop: true}
}

func (d *StknDrop[V, L]) Initialize(context.Context) error { return nil }

func (d *StknDrop[V, L]) Run(ctx context.Context) error {
	id := d.Identifier()
	for {
		in, err := dequeue(ctx, id, d.in, d.Time)
		if err != nil {
			return err
		}

		switch {
		case in.IsVal() || in.IsDone():
			ready := d.Time.Tick() + 1
			if err := enqueue(ctx, id, d.out, d.Time, ready, in); err != nil {
				return err
			}
			if in.IsDone() {
				closeProducer[V, L](d.out)
				return nil
			}
			d.prevStop = false

		case in.IsStop():
			if !d.prevStop {
				lvl, _ := in.StopLevel()
				ready := d.Time.Tick() + 1
				if err := enqueue(ctx, id, d.out, d.Time, ready, token.Stop[V, L](lvl)); err != nil {
					return err
				}
				d.prevStop = true
			}

		default:
			return NewUnexpectedTokenError(id, "StknDrop", in.Kind())
		}

		d.Time.IncrCycles(1)
	}
}

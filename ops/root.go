package ops

import (
	"context"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// Root is the single entry point of execution named in spec §6.1: it emits
// a fixed opening token sequence, Val(0) then Done, into its output
// reference stream and returns.
type Root[V token.Numeric, L token.Level] struct {
	block.Base
	out streamtime.Sink[Tok[V, L]]
}

// NewRoot wires a Root block onto its single output ref stream.
func NewRoot[V token.Numeric, L token.Level](name string, out streamtime.Sink[Tok[V, L]]) *Root[V, L] {
	return &Root[V, L]{Base: block.NewBase(name), out: out}
}

func (r *Root[V, L]) Initialize(context.Context) error { return nil }

func (r *Root[V, L]) Run(ctx context.Context) error {
	id := r.Identifier()
	if err := enqueue(ctx, id, r.out, r.Time, r.Time.Tick()+1, token.Val[V, L](0)); err != nil {
		return err
	}
	r.Time.IncrCycles(1)
	if err := enqueue(ctx, id, r.out, r.Time, r.Time.Tick()+1, token.Done[V, L]()); err != nil {
		return err
	}
	closeProducer[V, L](r.out)
	return nil
}

package ops

import (
	"context"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// Shape implements the flatten operator supplementing the scanner/joiner
// catalogue: it merges a pair of nested coordinate streams into one flat
// coordinate space, new_crd = outer*splitFactor + inner, collapsing the
// outer fiber boundary into the inner stream's Stop.
type Shape[C token.Numeric, L token.Level] struct {
	block.Base
	splitFactor C
	inOuter     streamtime.Source[Tok[C, L]]
	inInner     streamtime.Source[Tok[C, L]]
	out         streamtime.Sink[Tok[C, L]]
}

// NewShape wires a Shape (flatten) block.
func NewShape[C token.Numeric, L token.Level](name string, splitFactor C, inOuter, inInner streamtime.Source[Tok[C, L]], out streamtime.Sink[Tok[C, L]]) *Shape[C, L] {
	return &Shape[C, L]{Base: block.NewBase(name), splitFactor: splitFactor, inOuter: inOuter, inInner: inInner, out: out}
}

func (s *Shape[C, L]) Initialize(context.Context) error { return nil }

func (s *Shape[C, L]) Run(ctx context.Context) error {
	id := s.Identifier()
	for {
		outer, err := peek(ctx, id, s.inOuter, s.Time)
		if err != nil {
			return err
		}
		inner, err := dequeue(ctx, id, s.inInner, s.Time)
		if err != nil {
			return err
		}

		switch {
		case inner.IsVal():
			if !outer.IsVal() {
				return NewUnexpectedTokenError(id, "Shape", outer.Kind())
			}
			oc, _ := outer.Value()
			ic, _ := inner.Value()
			ready := s.Time.Tick() + 1
			if err := enqueue(ctx, id, s.out, s.Time, ready, token.Val[C, L](oc*s.splitFactor+ic)); err != nil {
				return err
			}

		case inner.IsStop():
			if outer.IsStop() {
				ready := s.Time.Tick() + 1
				if err := enqueue(ctx, id, s.out, s.Time, ready, outer); err != nil {
					return err
				}
			}
			if _, err := dequeue(ctx, id, s.inOuter, s.Time); err != nil {
				return err
			}

		case inner.IsDone():
			ready := s.Time.Tick() + 1
			if err := enqueue(ctx, id, s.out, s.Time, ready, token.Done[C, L]()); err != nil {
				return err
			}
			closeProducer[C, L](s.out)
			return nil

		default:
			return NewUnexpectedTokenError(id, "Shape", inner.Kind())
		}

		s.Time.IncrCycles(1)
	}
}

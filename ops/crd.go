package ops

import (
	"context"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// CrdDrop implements spec §4.4.10's first form: an outer coordinate is kept
// iff its inner fiber held at least one Val; the inner stream is forwarded
// verbatim.
type CrdDrop[C token.Numeric, L token.Level] struct {
	block.Base
	inOuter  streamtime.Source[Tok[C, L]]
	inInner  streamtime.Source[Tok[C, L]]
	outOuter streamtime.Sink[Tok[C, L]]
	outInner streamtime.Sink[Tok[C, L]]
}

// NewCrdDrop wires a CrdDrop block.
func NewCrdDrop[C token.Numeric, L token.Level](name string, inOuter, inInner streamtime.Source[Tok[C, L]], outOuter, outInner streamtime.Sink[Tok[C, L]]) *CrdDrop[C, L] {
	return &CrdDrop[C, L]{Base: block.NewBase(name), inOuter: inOuter, inInner: inInner, outOuter: outOuter, outInner: outInner}
}

func (d *CrdDrop[C, L]) Initialize(context.Context) error { return nil }

func (d *CrdDrop[C, L]) Run(ctx context.Context) error {
	id := d.Identifier()
	for {
		ocrd, err := peek(ctx, id, d.inOuter, d.Time)
		if err != nil {
			return err
		}

		switch {
		case ocrd.IsVal():
			val, _ := ocrd.Value()
			hasCrd := false
			for {
				icrd, err := dequeue(ctx, id, d.inInner, d.Time)
				if err != nil {
					return err
				}
				ready := d.Time.Tick() + 1
				if err := enqueue(ctx, id, d.outInner, d.Time, ready, icrd); err != nil {
					return err
				}

				switch {
				case icrd.IsVal():
					hasCrd = true

				case icrd.IsStop():
					var outTok Tok[C, L]
					if hasCrd {
						outTok = token.Val[C, L](val)
					} else {
						lvl, _ := ocrd.StopLevel()
						outTok = token.Stop[C, L](lvl)
					}
					r2 := d.Time.Tick() + 1
					if err := enqueue(ctx, id, d.outOuter, d.Time, r2, outTok); err != nil {
						return err
					}
					if _, err := dequeue(ctx, id, d.inOuter, d.Time); err != nil {
						return err
					}
					goto nextOuter

				case icrd.IsDone():
					return NewUnexpectedTokenError(id, "CrdDrop", icrd.Kind())

				default:
					return NewUnexpectedTokenError(id, "CrdDrop", icrd.Kind())
				}
			}

		case ocrd.IsStop():
			lvl, _ := ocrd.StopLevel()
			ready := d.Time.Tick() + 1
			if err := enqueue(ctx, id, d.outOuter, d.Time, ready, token.Stop[C, L](lvl)); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, d.inOuter, d.Time); err != nil {
				return err
			}

		case ocrd.IsDone():
			icrd, err := dequeue(ctx, id, d.inInner, d.Time)
			if err != nil {
				return err
			}
			if icrd.IsDone() {
				ready := d.Time.Tick() + 1
				if err := enqueue(ctx, id, d.outInner, d.Time, ready, icrd); err != nil {
					return err
				}
			}
			ready := d.Time.Tick() + 1
			if err := enqueue(ctx, id, d.outOuter, d.Time, ready, token.Done[C, L]()); err != nil {
				return err
			}
			closeProducer[C, L](d.outOuter)
			closeProducer[C, L](d.outInner)
			return nil

		default:
			return NewUnexpectedTokenError(id, "CrdDrop", ocrd.Kind())
		}

	nextOuter:
		d.Time.IncrCycles(1)
	}
}

// CrdHold implements spec §4.4.10's second form: it re-emits the current
// outer coordinate for every inner Val, advancing the outer coordinate only
// on inner Stop.
type CrdHold[C token.Numeric, L token.Level] struct {
	block.Base
	inOuter  streamtime.Source[Tok[C, L]]
	inInner  streamtime.Source[Tok[C, L]]
	outOuter streamtime.Sink[Tok[C, L]]
	outInner streamtime.Sink[Tok[C, L]]
}

// NewCrdHold wires a CrdHold block.
func NewCrdHold[C token.Numeric, L token.Level](name string, inOuter, inInner streamtime.Source[Tok[C, L]], outOuter, outInner streamtime.Sink[Tok[C, L]]) *CrdHold[C, L] {
	return &CrdHold[C, L]{Base: block.NewBase(name), inOuter: inOuter, inInner: inInner, outOuter: outOuter, outInner: outInner}
}

func (h *CrdHold[C, L]) Initialize(context.Context) error { return nil }

func (h *CrdHold[C, L]) Run(ctx context.Context) error {
	id := h.Identifier()
	for {
		curOuter, err := peek(ctx, id, h.inOuter, h.Time)
		if err != nil {
			return err
		}
		curInner, err := dequeue(ctx, id, h.inInner, h.Time)
		if err != nil {
			return err
		}

		ready := h.Time.Tick() + 1
		if err := enqueue(ctx, id, h.outInner, h.Time, ready, curInner); err != nil {
			return err
		}

		switch {
		case curInner.IsVal():
			out := curOuter
			if curOuter.IsStop() {
				if _, err := dequeue(ctx, id, h.inOuter, h.Time); err != nil {
					return err
				}
				out, err = peek(ctx, id, h.inOuter, h.Time)
				if err != nil {
					return err
				}
			}
			r2 := h.Time.Tick() + 1
			if err := enqueue(ctx, id, h.outOuter, h.Time, r2, out); err != nil {
				return err
			}

		case curInner.IsStop():
			r2 := h.Time.Tick() + 1
			if err := enqueue(ctx, id, h.outOuter, h.Time, r2, curInner); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, h.inOuter, h.Time); err != nil {
				return err
			}

		case curInner.IsDone():
			r2 := h.Time.Tick() + 1
			if err := enqueue(ctx, id, h.outOuter, h.Time, r2, token.Done[C, L]()); err != nil {
				return err
			}
			closeProducer[C, L](h.outOuter)
			closeProducer[C, L](h.outInner)
			return nil

		default:
			return NewUnexpectedTokenError(id, "CrdHold", curInner.Kind())
		}

		h.Time.IncrCycles(1)
	}
}

package ops

import (
	"context"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// RepSig is the three-symbol alphabet a RepSigGen drives a Repeat with:
// repeat the held reference, advance past a fiber boundary, or stop.
type RepSig uint8

const (
	RepSigRepeat RepSig = iota
	RepSigStop
	RepSigDone
)

func (s RepSig) String() string {
	switch s {
	case RepSigRepeat:
		return "R"
	case RepSigStop:
		return "S"
	case RepSigDone:
		return "D"
	default:
		return "?"
	}
}

// RepSigGen implements spec §4.4.5's signal half of the repeat pair: it
// reads the outer-loop coordinate/stop stream and turns every token into a
// repeat-control symbol.
type RepSigGen[V token.Numeric, L token.Level] struct {
	block.Base
	in  streamtime.Source[Tok[V, L]]
	out streamtime.Sink[RepSig]
}

// NewRepSigGen wires the rep-signal generator half of a repeat pair.
func NewRepSigGen[V token.Numeric, L token.Level](name string, in streamtime.Source[Tok[V, L]], out streamtime.Sink[RepSig]) *RepSigGen[V, L] {
	return &RepSigGen[V, L]{Base: block.NewBase(name), in: in, out: out}
}

func (g *RepSigGen[V, L]) Initialize(context.Context) error { return nil }

func (g *RepSigGen[V, L]) Run(ctx context.Context) error {
	id := g.Identifier()
	for {
		in, err := dequeue(ctx, id, g.in, g.Time)
		if err != nil {
			return err
		}

		var sig RepSig
		switch {
		case in.IsVal() || in.IsEmpty():
			sig = RepSigRepeat
		case in.IsStop():
			sig = RepSigStop
		case in.IsDone():
			sig = RepSigDone
		}

		ready := g.Time.Tick() + 1
		if err := g.out.Enqueue(g.Time, streamtime.ChannelElement[RepSig]{ReadyTime: ready, Data: sig}); err != nil {
			return err
		}
		if sig == RepSigDone {
			if c, ok := g.out.(interface{ CloseProducer() }); ok {
				c.CloseProducer()
			}
			return nil
		}
		g.Time.IncrCycles(1)
	}
}

// Repeat implements spec §4.4.5's repeat half: it holds the last reference
// it read and emits it once per RepSigRepeat, advancing to the next
// reference (and bumping the stop level one past whatever the inner loop
// closed) on RepSigStop.
type Repeat[V token.Numeric, L token.Level] struct {
	block.Base
	inRef    streamtime.Source[Tok[V, L]]
	inRepSig streamtime.Source[RepSig]
	out      streamtime.Sink[Tok[V, L]]
}

// NewRepeat wires a Repeat block.
func NewRepeat[V token.Numeric, L token.Level](name string, inRef streamtime.Source[Tok[V, L]], inRepSig streamtime.Source[RepSig], out streamtime.Sink[Tok[V, L]]) *Repeat[V, L] {
	return &Repeat[V, L]{Base: block.NewBase(name), inRef: inRef, inRepSig: inRepSig, out: out}
}

func (r *Repeat[V, L]) Initialize(context.Context) error { return nil }

func (r *Repeat[V, L]) Run(ctx context.Context) error {
	id := r.Identifier()
	for {
		curRef, err := peek(ctx, id, r.inRef, r.Time)
		if err != nil {
			return err
		}

		el, err := r.inRepSig.Dequeue(r.Time)
		if err != nil {
			return err
		}
		sig := el.Data

		switch sig {
		case RepSigRepeat:
			ready := r.Time.Tick() + 1
			if err := enqueue(ctx, id, r.out, r.Time, ready, curRef); err != nil {
				return err
			}

		case RepSigStop:
			if _, err := dequeue(ctx, id, r.inRef, r.Time); err != nil {
				return err
			}
			next, err := peek(ctx, id, r.inRef, r.Time)
			if err != nil {
				return err
			}
			var out Tok[V, L]
			if next.IsStop() {
				lvl, _ := next.StopLevel()
				if _, err := dequeue(ctx, id, r.inRef, r.Time); err != nil {
					return err
				}
				out = token.Stop[V, L](bumpStopLevel(lvl))
			} else {
				var zero L
				out = token.Stop[V, L](zero)
			}
			ready := r.Time.Tick() + 1
			if err := enqueue(ctx, id, r.out, r.Time, ready, out); err != nil {
				return err
			}

		case RepSigDone:
			if !curRef.IsDone() {
				return NewUnexpectedTokenError(id, "Repeat", curRef.Kind())
			}
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

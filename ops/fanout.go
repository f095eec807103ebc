package ops

import (
	"context"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// Broadcast implements spec §4.4.13's first form: it duplicates every
// element of a single source onto N sinks.
type Broadcast[V token.Numeric, L token.Level] struct {
	block.Base
	in      streamtime.Source[Tok[V, L]]
	targets []streamtime.Sink[Tok[V, L]]
}

// NewBroadcast wires a Broadcast block fanning out onto len(targets) sinks.
func NewBroadcast[V token.Numeric, L token.Level](name string, in streamtime.Source[Tok[V, L]], targets []streamtime.Sink[Tok[V, L]]) *Broadcast[V, L] {
	return &Broadcast[V, L]{Base: block.NewBase(name), in: in, targets: targets}
}

func (b *Broadcast[V, L]) Initialize(context.Context) error { return nil }

func (b *Broadcast[V, L]) Run(ctx context.Context) error {
	id := b.Identifier()
	for {
		in, err := dequeue(ctx, id, b.in, b.Time)
		if err != nil {
			return err
		}
		ready := b.Time.Tick() + 1
		for _, t := range b.targets {
			if err := enqueue(ctx, id, t, b.Time, ready, in); err != nil {
				return err
			}
		}
		if in.IsDone() {
			for _, t := range b.targets {
				closeProducer[V, L](t)
			}
			return nil
		}
		b.Time.IncrCycles(1)
	}
}

// Scatter implements spec §4.4.13's second form: Vals round-robin across N
// sinks; Stop and Done replicate to every sink.
type Scatter[V token.Numeric, L token.Level] struct {
	block.Base
	in      streamtime.Source[Tok[V, L]]
	targets []streamtime.Sink[Tok[V, L]]
	next    int
}

// NewScatter wires a Scatter block.
func NewScatter[V token.Numeric, L token.Level](name string, in streamtime.Source[Tok[V, L]], targets []streamtime.Sink[Tok[V, L]]) *Scatter[V, L] {
	return &Scatter[V, L]{Base: block.NewBase(name), in: in, targets: targets}
}

func (s *Scatter[V, L]) Initialize(context.Context) error { return nil }

func (s *Scatter[V, L]) Run(ctx context.Context) error {
	id := s.Identifier()
	for {
		in, err := dequeue(ctx, id, s.in, s.Time)
		if err != nil {
			return err
		}
		ready := s.Time.Tick() + 1

		switch {
		case in.IsVal():
			if err := enqueue(ctx, id, s.targets[s.next], s.Time, ready, in); err != nil {
				return err
			}
			s.next = (s.next + 1) % len(s.targets)

		case in.IsStop() || in.IsDone():
			for _, t := range s.targets {
				if err := enqueue(ctx, id, t, s.Time, ready, in); err != nil {
					return err
				}
			}
			if in.IsDone() {
				for _, t := range s.targets {
					closeProducer[V, L](t)
				}
				return nil
			}

		default:
			return NewUnexpectedTokenError(id, "Scatter", in.Kind())
		}

		s.Time.IncrCycles(1)
	}
}

// Gather implements spec §4.4.13's third form: it reads round-robin from N
// sources and emits a single merged stream; the final Stop/Done is only
// forwarded once every source has offered its turn (i.e. on the last
// source's turn).
type Gather[V token.Numeric, L token.Level] struct {
	block.Base
	sources []streamtime.Source[Tok[V, L]]
	out     streamtime.Sink[Tok[V, L]]
	next    int
}

// NewGather wires a Gather block.
func NewGather[V token.Numeric, L token.Level](name string, sources []streamtime.Source[Tok[V, L]], out streamtime.Sink[Tok[V, L]]) *Gather[V, L] {
	return &Gather[V, L]{Base: block.NewBase(name), sources: sources, out: out}
}

func (g *Gather[V, L]) Initialize(context.Context) error { return nil }

func (g *Gather[V, L]) Run(ctx context.Context) error {
	id := g.Identifier()
	last := len(g.sources) - 1
	for {
		in, err := dequeue(ctx, id, g.sources[g.next], g.Time)
		if err != nil {
			return err
		}

		switch {
		case in.IsStop():
			var zero L
			out := token.Stop[V, L](zero)
			if g.next == last {
				lvl, _ := in.StopLevel()
				out = token.Stop[V, L](lvl)
			}
			ready := g.Time.Tick() + 1
			if err := enqueue(ctx, id, g.out, g.Time, ready, out); err != nil {
				return err
			}
			g.next = (g.next + 1) % len(g.sources)

		case in.IsVal():
			ready := g.Time.Tick() + 1
			if err := enqueue(ctx, id, g.out, g.Time, ready, in); err != nil {
				return err
			}

		case in.IsDone():
			if g.next == last {
				ready := g.Time.Tick() + 1
				if err := enqueue(ctx, id, g.out, g.Time, ready, token.Done[V, L]()); err != nil {
					return err
				}
				closeProducer[V, L](g.out)
				return nil
			}
			g.next = (g.next + 1) % len(g.sources)

		default:
			return NewUnexpectedTokenError(id, "Gather", in.Kind())
		}

		g.Time.IncrCycles(1)
	}
}

package ops

import (
	"context"
	"sort"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// Spacc1 implements spec §4.4.9: a sparse accumulator that sums
// (inner-coord -> value) pairs within each outer-coord group, flushing the
// group in ascending inner-coordinate order on the outer stream's Stop.
type Spacc1[C token.Numeric, V token.Numeric, L token.Level] struct {
	block.Base
	inOuter streamtime.Source[Tok[C, L]]
	inInner streamtime.Source[Tok[C, L]]
	inVal   streamtime.Source[Tok[V, L]]
	outCrd  streamtime.Sink[Tok[C, L]]
	outVal  streamtime.Sink[Tok[V, L]]

	store map[C]V
}

// NewSpacc1 wires a Spacc1 block.
func NewSpacc1[C token.Numeric, V token.Numeric, L token.Level](
	name string,
	inOuter, inInner streamtime.Source[Tok[C, L]], inVal streamtime.Source[Tok[V, L]],
	outCrd streamtime.Sink[Tok[C, L]], outVal streamtime.Sink[Tok[V, L]],
) *Spacc1[C, V, L] {
	return &Spacc1[C, V, L]{Base: block.NewBase(name), inOuter: inOuter, inInner: inInner, inVal: inVal, outCrd: outCrd, outVal: outVal, store: make(map[C]V)}
}

func (s *Spacc1[C, V, L]) Initialize(context.Context) error { return nil }

func (s *Spacc1[C, V, L]) flush(ctx context.Context, id block.ID) error {
	keys := make([]C, 0, len(s.store))
	for k := range s.store {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		ready := s.Time.Tick() + 1
		if err := enqueue(ctx, id, s.outCrd, s.Time, ready, token.Val[C, L](k)); err != nil {
			return err
		}
		if err := enqueue(ctx, id, s.outVal, s.Time, ready, token.Val[V, L](s.store[k])); err != nil {
			return err
		}
	}
	s.store = make(map[C]V)
	return nil
}

func (s *Spacc1[C, V, L]) Run(ctx context.Context) error {
	id := s.Identifier()
	for {
		outer, err := peek(ctx, id, s.inOuter, s.Time)
		if err != nil {
			return err
		}
		inner, err := peek(ctx, id, s.inInner, s.Time)
		if err != nil {
			return err
		}
		val, err := peek(ctx, id, s.inVal, s.Time)
		if err != nil {
			return err
		}
		if inner.Kind() != val.Kind() {
			return NewUnexpectedTokenError(id, "Spacc1", inner.Kind())
		}

		switch {
		case outer.IsVal():
			switch {
			case val.IsVal():
				crd, _ := inner.Value()
				v, _ := val.Value()
				s.store[crd] += v
			case val.IsStop():
				vs, _ := val.StopLevel()
				is, _ := inner.StopLevel()
				if vs != is {
					return NewStopMismatchError(id, "Spacc1", vs, is)
				}
				if _, err := dequeue(ctx, id, s.inOuter, s.Time); err != nil {
					return err
				}
			default:
				return NewUnexpectedTokenError(id, "Spacc1", val.Kind())
			}
			if _, err := dequeue(ctx, id, s.inInner, s.Time); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, s.inVal, s.Time); err != nil {
				return err
			}

		case outer.IsStop():
			lvl, _ := outer.StopLevel()
			if err := s.flush(ctx, id); err != nil {
				return err
			}
			ready := s.Time.Tick() + 1
			if err := enqueue(ctx, id, s.outVal, s.Time, ready, token.Stop[V, L](lvl)); err != nil {
				return err
			}
			if err := enqueue(ctx, id, s.outCrd, s.Time, ready, token.Stop[C, L](lvl)); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, s.inOuter, s.Time); err != nil {
				return err
			}

			if inner.IsStop() {
				innerLvl, _ := inner.StopLevel()
				nextOuter, err := peek(ctx, id, s.inOuter, s.Time)
				if err != nil {
					return err
				}
				if nextOuter.IsStop() {
					nextLvl, _ := nextOuter.StopLevel()
					if innerLvl == nextLvl+1 {
						if _, err := dequeue(ctx, id, s.inInner, s.Time); err != nil {
							return err
						}
						if _, err := dequeue(ctx, id, s.inVal, s.Time); err != nil {
							return err
						}
					}
				}
			}

		case outer.IsDone():
			if !inner.IsDone() || !val.IsDone() {
				return NewUnexpectedTokenError(id, "Spacc1", inner.Kind())
			}
			ready := s.Time.Tick() + 1
			if err := enqueue(ctx, id, s.outCrd, s.Time, ready, token.Done[C, L]()); err != nil {
				return err
			}
			if err := enqueue(ctx, id, s.outVal, s.Time, ready, token.Done[V, L]()); err != nil {
				return err
			}
			closeProducer[C, L](s.outCrd)
			closeProducer[V, L](s.outVal)
			return nil

		default:
			return NewUnexpectedTokenError(id, "Spacc1", outer.Kind())
		}

		s.Time.IncrCycles(1)
	}
}

// Spacc2 implements spec §4.4.9's 2D generalisation: two nested outer
// levels accumulate into a map of maps, flushed in ascending
// (outer-inner, inner-inner) order on the outermost Stop.
type Spacc2[C token.Numeric, V token.Numeric, L token.Level] struct {
	block.Base
	inOuter1 streamtime.Source[Tok[C, L]]
	inOuter2 streamtime.Source[Tok[C, L]]
	inInner  streamtime.Source[Tok[C, L]]
	inVal    streamtime.Source[Tok[V, L]]
	outCrd1  streamtime.Sink[Tok[C, L]]
	outCrd2  streamtime.Sink[Tok[C, L]]
	outVal   streamtime.Sink[Tok[V, L]]

	store map[C]map[C]V
}

// NewSpacc2 wires a Spacc2 block.
func NewSpacc2[C token.Numeric, V token.Numeric, L token.Level](
	name string,
	inOuter1, inOuter2, inInner streamtime.Source[Tok[C, L]], inVal streamtime.Source[Tok[V, L]],
	outCrd1, outCrd2 streamtime.Sink[Tok[C, L]], outVal streamtime.Sink[Tok[V, L]],
) *Spacc2[C, V, L] {
	return &Spacc2[C, V, L]{Base: block.NewBase(name), inOuter1: inOuter1, inOuter2: inOuter2, inInner: inInner, inVal: inVal, outCrd1: outCrd1, outCrd2: outCrd2, outVal: outVal, store: make(map[C]map[C]V)}
}

func (s *Spacc2[C, V, L]) Initialize(context.Context) error { return nil }

func (s *Spacc2[C, V, L]) flush(ctx context.Context, id block.ID) error {
	outerKeys := make([]C, 0, len(s.store))
	for k := range s.store {
		outerKeys = append(outerKeys, k)
	}
	sort.Slice(outerKeys, func(i, j int) bool { return outerKeys[i] < outerKeys[j] })

	for _, ok := range outerKeys {
		inner := s.store[ok]
		innerKeys := make([]C, 0, len(inner))
		for k := range inner {
			innerKeys = append(innerKeys, k)
		}
		sort.Slice(innerKeys, func(i, j int) bool { return innerKeys[i] < innerKeys[j] })

		for _, ik := range innerKeys {
			ready := s.Time.Tick() + 1
			if err := enqueue(ctx, id, s.outCrd1, s.Time, ready, token.Val[C, L](ok)); err != nil {
				return err
			}
			if err := enqueue(ctx, id, s.outCrd2, s.Time, ready, token.Val[C, L](ik)); err != nil {
				return err
			}
			if err := enqueue(ctx, id, s.outVal, s.Time, ready, token.Val[V, L](inner[ik])); err != nil {
				return err
			}
		}
	}
	s.store = make(map[C]map[C]V)
	return nil
}

func (s *Spacc2[C, V, L]) Run(ctx context.Context) error {
	id := s.Identifier()
	for {
		o1, err := peek(ctx, id, s.inOuter1, s.Time)
		if err != nil {
			return err
		}
		o2, err := peek(ctx, id, s.inOuter2, s.Time)
		if err != nil {
			return err
		}
		inner, err := peek(ctx, id, s.inInner, s.Time)
		if err != nil {
			return err
		}
		val, err := peek(ctx, id, s.inVal, s.Time)
		if err != nil {
			return err
		}

		switch {
		case o1.IsVal() && val.IsVal():
			c2, _ := o2.Value()
			c3, _ := inner.Value()
			v, _ := val.Value()
			if s.store[c2] == nil {
				s.store[c2] = make(map[C]V)
			}
			s.store[c2][c3] += v
			if _, err := dequeue(ctx, id, s.inOuter2, s.Time); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, s.inInner, s.Time); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, s.inVal, s.Time); err != nil {
				return err
			}

		case o1.IsVal() && val.IsStop():
			if _, err := dequeue(ctx, id, s.inOuter2, s.Time); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, s.inInner, s.Time); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, s.inVal, s.Time); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, s.inOuter1, s.Time); err != nil {
				return err
			}

		case o1.IsStop():
			lvl, _ := o1.StopLevel()
			if err := s.flush(ctx, id); err != nil {
				return err
			}
			ready := s.Time.Tick() + 1
			if err := enqueue(ctx, id, s.outCrd1, s.Time, ready, token.Stop[C, L](lvl)); err != nil {
				return err
			}
			if err := enqueue(ctx, id, s.outCrd2, s.Time, ready, token.Stop[C, L](lvl)); err != nil {
				return err
			}
			if err := enqueue(ctx, id, s.outVal, s.Time, ready, token.Stop[V, L](lvl)); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, s.inOuter1, s.Time); err != nil {
				return err
			}
			if o2.IsStop() {
				if _, err := dequeue(ctx, id, s.inOuter2, s.Time); err != nil {
					return err
				}
			}

		case o1.IsDone():
			if !o2.IsDone() || !inner.IsDone() || !val.IsDone() {
				return NewUnexpectedTokenError(id, "Spacc2", o2.Kind())
			}
			ready := s.Time.Tick() + 1
			if err := enqueue(ctx, id, s.outCrd1, s.Time, ready, token.Done[C, L]()); err != nil {
				return err
			}
			if err := enqueue(ctx, id, s.outCrd2, s.Time, ready, token.Done[C, L]()); err != nil {
				return err
			}
			if err := enqueue(ctx, id, s.outVal, s.Time, ready, token.Done[V, L]()); err != nil {
				return err
			}
			closeProducer[C, L](s.outCrd1)
			closeProducer[C, L](s.outCrd2)
			closeProducer[V, L](s.outVal)
			return nil

		default:
			return NewUnexpectedTokenError(id, "Spacc2", o1.Kind())
		}

		s.Time.IncrCycles(1)
	}
}

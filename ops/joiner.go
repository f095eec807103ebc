package ops

import (
	"context"

	comal "github.com/stanford-ppl/comal-go"
	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// JoinerTiming is the per-joiner timing configuration (spec §4.4.1, §6.3),
// shared with the rest of the runtime via the root package.
type JoinerTiming = comal.JoinerTiming

// DefaultJoinerTiming charges one cycle per loop iteration, nothing else.
func DefaultJoinerTiming() JoinerTiming { return comal.DefaultJoinerTiming() }

// Intersect implements spec §4.4.3: an N-way crd joiner that emits a
// coordinate only when every input's coordinate head agrees.
type Intersect[L token.Level] struct {
	block.Base
	inCrd []streamtime.Source[Tok[uint64, L]]
	inRef []streamtime.Source[Tok[uint64, L]]
	outCrd streamtime.Sink[Tok[uint64, L]]
	outRef []streamtime.Sink[Tok[uint64, L]]
	timing JoinerTiming
}

// NewIntersect wires an N-way intersect joiner. len(inCrd) must equal
// len(inRef) must equal len(outRef).
func NewIntersect[L token.Level](
	name string,
	inCrd, inRef []streamtime.Source[Tok[uint64, L]],
	outCrd streamtime.Sink[Tok[uint64, L]],
	outRef []streamtime.Sink[Tok[uint64, L]],
	timing JoinerTiming,
) *Intersect[L] {
	if len(inCrd) != len(inRef) || len(inCrd) != len(outRef) {
		panic("ops: Intersect requires matching input/output arity")
	}
	return &Intersect[L]{Base: block.NewBase(name), inCrd: inCrd, inRef: inRef, outCrd: outCrd, outRef: outRef, timing: timing}
}

func (j *Intersect[L]) Initialize(context.Context) error {
	if j.timing.StartupDelay > 0 {
		j.Time.IncrCycles(streamtime.Cycle(j.timing.StartupDelay))
	}
	return nil
}

func (j *Intersect[L]) Run(ctx context.Context) error {
	id := j.Identifier()
	n := len(j.inCrd)
	crdPeeks := make([]Tok[uint64, L], n)

	for {
		for i := 0; i < n; i++ {
			t, err := peek(ctx, id, j.inCrd[i], j.Time)
			if err != nil {
				return err
			}
			crdPeeks[i] = t
		}

		// Done: if any input has reached Done, every input must have (a
		// well-formed graph keeps the N fibers aligned); propagate Done.
		anyDone := false
		for _, t := range crdPeeks {
			if t.IsDone() {
				anyDone = true
				break
			}
		}
		if anyDone {
			ready := j.Time.Tick() + streamtime.Cycle(j.timing.OutputLatency)
			if err := enqueue(ctx, id, j.outCrd, j.Time, ready, token.Done[uint64, L]()); err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				if err := enqueue(ctx, id, j.outRef[i], j.Time, ready, token.Done[uint64, L]()); err != nil {
					return err
				}
				closeProducer[uint64, L](j.outRef[i])
			}
			closeProducer[uint64, L](j.outCrd)
			return nil
		}

		allVal := true
		var minVal uint64
		haveMin := false
		for _, t := range crdPeeks {
			if !t.IsVal() {
				allVal = false
				continue
			}
			v, _ := t.Value()
			if !haveMin || v < minVal {
				minVal = v
				haveMin = true
			}
		}

		if allVal {
			allEqual := true
			for _, t := range crdPeeks {
				v, _ := t.Value()
				if v != minVal {
					allEqual = false
					break
				}
			}
			if allEqual {
				ready := j.Time.Tick() + streamtime.Cycle(j.timing.OutputLatency)
				if err := enqueue(ctx, id, j.outCrd, j.Time, ready, token.Val[uint64, L](minVal)); err != nil {
					return err
				}
				for i := 0; i < n; i++ {
					r, err := dequeue(ctx, id, j.inRef[i], j.Time)
					if err != nil {
						return err
					}
					if err := enqueue(ctx, id, j.outRef[i], j.Time, ready, r); err != nil {
						return err
					}
					if _, err := dequeue(ctx, id, j.inCrd[i], j.Time); err != nil {
						return err
					}
				}
				j.Time.IncrCycles(streamtime.Cycle(j.timing.SequentialInterval))
				continue
			}

			// Mismatch: advance every stream sitting at the minimum value;
			// streams at a larger value are held back a round.
			for i := 0; i < n; i++ {
				v, _ := crdPeeks[i].Value()
				if v == minVal {
					if _, err := dequeue(ctx, id, j.inCrd[i], j.Time); err != nil {
						return err
					}
					if _, err := dequeue(ctx, id, j.inRef[i], j.Time); err != nil {
						return err
					}
				}
			}
			j.Time.IncrCycles(streamtime.Cycle(j.timing.ValAdvanceDelay) + 1)
			continue
		}

		// At least one Stop is present among non-Val heads: if every head is
		// Stop, they must all agree on level; emit and advance all.
		allStop := true
		var lvl L
		haveLvl := false
		for _, t := range crdPeeks {
			if !t.IsStop() {
				allStop = false
				continue
			}
			l, _ := t.StopLevel()
			if !haveLvl {
				lvl = l
				haveLvl = true
			} else if l != lvl {
				return NewStopMismatchError(id, "Intersect", lvl, l)
			}
		}
		if allStop {
			ready := j.Time.Tick() + streamtime.Cycle(j.timing.OutputLatency) + streamtime.Cycle(j.timing.StopLatency)
			if err := enqueue(ctx, id, j.outCrd, j.Time, ready, token.Stop[uint64, L](lvl)); err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				r, err := dequeue(ctx, id, j.inRef[i], j.Time)
				if err != nil {
					return err
				}
				if err := enqueue(ctx, id, j.outRef[i], j.Time, ready, r); err != nil {
					return err
				}
				if _, err := dequeue(ctx, id, j.inCrd[i], j.Time); err != nil {
					return err
				}
			}
			j.Time.IncrCycles(streamtime.Cycle(j.timing.SequentialInterval))
			continue
		}

		// Mixed Val/Stop heads: the streams holding a Val advance (the
		// Stop-holding streams wait for the Vals to catch up to their
		// fiber boundary).
		for i := 0; i < n; i++ {
			if crdPeeks[i].IsVal() {
				if _, err := dequeue(ctx, id, j.inCrd[i], j.Time); err != nil {
					return err
				}
				if _, err := dequeue(ctx, id, j.inRef[i], j.Time); err != nil {
					return err
				}
			}
		}
		j.Time.IncrCycles(1)
	}
}

// Union implements spec §4.4.4: a 2-way crd joiner that emits the smaller
// coordinate and fills the other side's ref output with Empty, or emits
// both refs on a tie.
type Union[L token.Level] struct {
	block.Base
	inCrd1, inCrd2 streamtime.Source[Tok[uint64, L]]
	inRef1, inRef2 streamtime.Source[Tok[uint64, L]]
	outCrd         streamtime.Sink[Tok[uint64, L]]
	outRef1, outRef2 streamtime.Sink[Tok[uint64, L]]
	timing JoinerTiming
}

// NewUnion wires a 2-way union joiner.
func NewUnion[L token.Level](
	name string,
	inCrd1, inRef1, inCrd2, inRef2 streamtime.Source[Tok[uint64, L]],
	outCrd streamtime.Sink[Tok[uint64, L]],
	outRef1, outRef2 streamtime.Sink[Tok[uint64, L]],
	timing JoinerTiming,
) *Union[L] {
	return &Union[L]{Base: block.NewBase(name), inCrd1: inCrd1, inRef1: inRef1, inCrd2: inCrd2, inRef2: inRef2, outCrd: outCrd, outRef1: outRef1, outRef2: outRef2, timing: timing}
}

func (j *Union[L]) Initialize(context.Context) error {
	if j.timing.StartupDelay > 0 {
		j.Time.IncrCycles(streamtime.Cycle(j.timing.StartupDelay))
	}
	return nil
}

func (j *Union[L]) Run(ctx context.Context) error {
	id := j.Identifier()
	ready := func() streamtime.Cycle { return j.Time.Tick() + streamtime.Cycle(j.timing.OutputLatency) }

	for {
		c1, err := peek(ctx, id, j.inCrd1, j.Time)
		if err != nil {
			return err
		}
		c2, err := peek(ctx, id, j.inCrd2, j.Time)
		if err != nil {
			return err
		}

		switch {
		case c1.IsDone() || c2.IsDone():
			r := ready()
			if err := enqueue(ctx, id, j.outCrd, j.Time, r, token.Done[uint64, L]()); err != nil {
				return err
			}
			if err := enqueue(ctx, id, j.outRef1, j.Time, r, token.Done[uint64, L]()); err != nil {
				return err
			}
			if err := enqueue(ctx, id, j.outRef2, j.Time, r, token.Done[uint64, L]()); err != nil {
				return err
			}
			closeProducer[uint64, L](j.outCrd)
			closeProducer[uint64, L](j.outRef1)
			closeProducer[uint64, L](j.outRef2)
			return nil

		case c1.IsVal() && c2.IsVal():
			v1, _ := c1.Value()
			v2, _ := c2.Value()
			r := ready()
			switch {
			case v1 == v2:
				if err := enqueue(ctx, id, j.outCrd, j.Time, r, token.Val[uint64, L](v1)); err != nil {
					return err
				}
				rf1, err := dequeue(ctx, id, j.inRef1, j.Time)
				if err != nil {
					return err
				}
				rf2, err := dequeue(ctx, id, j.inRef2, j.Time)
				if err != nil {
					return err
				}
				if err := enqueue(ctx, id, j.outRef1, j.Time, r, rf1); err != nil {
					return err
				}
				if err := enqueue(ctx, id, j.outRef2, j.Time, r, rf2); err != nil {
					return err
				}
				if _, err := dequeue(ctx, id, j.inCrd1, j.Time); err != nil {
					return err
				}
				if _, err := dequeue(ctx, id, j.inCrd2, j.Time); err != nil {
					return err
				}
			case v1 < v2:
				if err := emitUnionSide(ctx, id, j, j.inCrd1, j.inRef1, j.outCrd, j.outRef1, j.outRef2, v1, r); err != nil {
					return err
				}
			default:
				if err := emitUnionSide(ctx, id, j, j.inCrd2, j.inRef2, j.outCrd, j.outRef2, j.outRef1, v2, r); err != nil {
					return err
				}
			}

		case c1.IsStop() && c2.IsStop():
			l1, _ := c1.StopLevel()
			l2, _ := c2.StopLevel()
			if l1 != l2 {
				return NewStopMismatchError(id, "Union", l1, l2)
			}
			r := ready()
			if err := enqueue(ctx, id, j.outCrd, j.Time, r, token.Stop[uint64, L](l1)); err != nil {
				return err
			}
			rf1, err := dequeue(ctx, id, j.inRef1, j.Time)
			if err != nil {
				return err
			}
			rf2, err := dequeue(ctx, id, j.inRef2, j.Time)
			if err != nil {
				return err
			}
			if err := enqueue(ctx, id, j.outRef1, j.Time, r, rf1); err != nil {
				return err
			}
			if err := enqueue(ctx, id, j.outRef2, j.Time, r, rf2); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, j.inCrd1, j.Time); err != nil {
				return err
			}
			if _, err := dequeue(ctx, id, j.inCrd2, j.Time); err != nil {
				return err
			}

		case c1.IsVal() && c2.IsStop():
			if err := emitUnionSide(ctx, id, j, j.inCrd1, j.inRef1, j.outCrd, j.outRef1, j.outRef2, mustVal(c1), ready()); err != nil {
				return err
			}
		case c1.IsStop() && c2.IsVal():
			if err := emitUnionSide(ctx, id, j, j.inCrd2, j.inRef2, j.outCrd, j.outRef2, j.outRef1, mustVal(c2), ready()); err != nil {
				return err
			}
		default:
			return NewUnexpectedTokenError(id, "Union", c1.Kind())
		}

		j.Time.IncrCycles(streamtime.Cycle(j.timing.SequentialInterval))
	}
}

func mustVal[L token.Level](t Tok[uint64, L]) uint64 {
	v, _ := t.Value()
	return v
}

// emitUnionSide advances the smaller-coordinate side, forwarding its ref and
// filling the other side's ref output with Empty (spec §4.4.4).
func emitUnionSide[L token.Level](
	ctx context.Context, id block.ID, j *Union[L],
	inCrd, inRef streamtime.Source[Tok[uint64, L]],
	outCrd, outRefThis, outRefOther streamtime.Sink[Tok[uint64, L]],
	v uint64, ready streamtime.Cycle,
) error {
	if err := enqueue(ctx, id, outCrd, j.Time, ready, token.Val[uint64, L](v)); err != nil {
		return err
	}
	rf, err := dequeue(ctx, id, inRef, j.Time)
	if err != nil {
		return err
	}
	if err := enqueue(ctx, id, outRefThis, j.Time, ready, rf); err != nil {
		return err
	}
	if err := enqueue(ctx, id, outRefOther, j.Time, ready, token.Empty[uint64, L]()); err != nil {
		return err
	}
	_, err = dequeue(ctx, id, inCrd, j.Time)
	return err
}

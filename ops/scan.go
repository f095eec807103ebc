package ops

import (
	"context"

	comal "github.com/stanford-ppl/comal-go"
	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// ScannerTiming is the per-scanner timing configuration (spec §4.4.1,
// §6.3), shared with the rest of the runtime via the root package so a
// single TimingPreset covers every operator kind.
type ScannerTiming = comal.ScannerTiming

// DefaultScannerTiming returns the §4.4.1 defaults.
func DefaultScannerTiming() ScannerTiming { return comal.DefaultScannerTiming() }

// CompressedReadScan implements spec §4.4.1: it walks the (seg, crd) pair of
// a CSF level, driven by a stream of reference tokens.
type CompressedReadScan[L token.Level] struct {
	block.Base
	seg, crd []uint64

	in        streamtime.Source[Tok[uint64, L]]
	outCoord  streamtime.Sink[Tok[uint64, L]]
	outRef    streamtime.Sink[Tok[uint64, L]]
	timing    ScannerTiming
	loadedOnce bool
}

// NewCompressedReadScan wires a compressed-coordinate scanner.
func NewCompressedReadScan[L token.Level](
	name string, seg, crd []uint64,
	in streamtime.Source[Tok[uint64, L]],
	outCoord, outRef streamtime.Sink[Tok[uint64, L]],
	timing ScannerTiming,
) *CompressedReadScan[L] {
	return &CompressedReadScan[L]{Base: block.NewBase(name), seg: seg, crd: crd, in: in, outCoord: outCoord, outRef: outRef, timing: timing}
}

func (s *CompressedReadScan[L]) Initialize(context.Context) error {
	if s.timing.StartupDelay > 0 {
		s.Time.IncrCycles(streamtime.Cycle(s.timing.StartupDelay))
	}
	return nil
}

func (s *CompressedReadScan[L]) chargeDataLoad() {
	if s.loadedOnce || s.timing.DataLoadFactor == 0 {
		return
	}
	s.loadedOnce = true
	n := uint64(len(s.seg) + len(s.crd))
	s.Time.IncrCycles(streamtime.Cycle(s.timing.DataLoadFactor * n))
}

func (s *CompressedReadScan[L]) Run(ctx context.Context) error {
	id := s.Identifier()
	out := func(a, b streamtime.Sink[Tok[uint64, L]], tok Tok[uint64, L]) error {
		ready := s.Time.Tick() + streamtime.Cycle(s.timing.OutputLatency)
		if err := enqueue(ctx, id, a, s.Time, ready, tok); err != nil {
			return err
		}
		return enqueue(ctx, id, b, s.Time, ready, tok)
	}

	for {
		s.chargeDataLoad()
		in, err := dequeue(ctx, id, s.in, s.Time)
		if err != nil {
			return err
		}

		switch {
		case in.IsVal():
			i, _ := in.Value()
			if int(i)+1 >= len(s.seg) {
				return NewIndexError(id, "FiberLookup(compressed)", i)
			}
			lo, hi := s.seg[i], s.seg[i+1]
			for a := lo; a < hi; a++ {
				ready := s.Time.Tick() + streamtime.Cycle(s.timing.OutputLatency)
				if err := enqueue(ctx, id, s.outCoord, s.Time, ready, token.Val[uint64, L](s.crd[a])); err != nil {
					return err
				}
				if err := enqueue(ctx, id, s.outRef, s.Time, ready, token.Val[uint64, L](a)); err != nil {
					return err
				}
				s.Time.IncrCycles(streamtime.Cycle(s.timing.SequentialInterval))
			}
			// Fiber finished: peek ahead to decide the stop level.
			next, err := peek(ctx, id, s.in, s.Time)
			if err != nil {
				return err
			}
			if next.IsStop() {
				lvl, _ := next.StopLevel()
				if _, err := dequeue(ctx, id, s.in, s.Time); err != nil {
					return err
				}
				if err := out(s.outCoord, s.outRef, token.Stop[uint64, L](bumpStopLevel(lvl))); err != nil {
					return err
				}
			} else {
				var zero L
				if err := out(s.outCoord, s.outRef, token.Stop[uint64, L](zero)); err != nil {
					return err
				}
			}

		case in.IsStop():
			lvl, _ := in.StopLevel()
			if err := out(s.outCoord, s.outRef, token.Stop[uint64, L](bumpStopLevel(lvl))); err != nil {
				return err
			}

		case in.IsEmpty():
			if err := out(s.outCoord, s.outRef, token.Empty[uint64, L]()); err != nil {
				return err
			}

		case in.IsDone():
			if err := out(s.outCoord, s.outRef, token.Done[uint64, L]()); err != nil {
				return err
			}
			closeProducer[uint64, L](s.outCoord)
			closeProducer[uint64, L](s.outRef)
			return nil
		}

		s.Time.IncrCycles(1)
	}
}

// UncompressedReadScan implements spec §4.4.2: for Val(v), emits coord c in
// [0,D) and ref c+v*D.
type UncompressedReadScan[L token.Level] struct {
	block.Base
	dim uint64

	in       streamtime.Source[Tok[uint64, L]]
	outCoord streamtime.Sink[Tok[uint64, L]]
	outRef   streamtime.Sink[Tok[uint64, L]]
	timing   ScannerTiming
}

// NewUncompressedReadScan wires a dense-dimension scanner over dimension
// size dim.
func NewUncompressedReadScan[L token.Level](
	name string, dim uint64,
	in streamtime.Source[Tok[uint64, L]],
	outCoord, outRef streamtime.Sink[Tok[uint64, L]],
	timing ScannerTiming,
) *UncompressedReadScan[L] {
	return &UncompressedReadScan[L]{Base: block.NewBase(name), dim: dim, in: in, outCoord: outCoord, outRef: outRef, timing: timing}
}

func (s *UncompressedReadScan[L]) Initialize(context.Context) error {
	if s.timing.StartupDelay > 0 {
		s.Time.IncrCycles(streamtime.Cycle(s.timing.StartupDelay))
	}
	return nil
}

func (s *UncompressedReadScan[L]) Run(ctx context.Context) error {
	id := s.Identifier()
	out := func(a, b streamtime.Sink[Tok[uint64, L]], tok Tok[uint64, L]) error {
		ready := s.Time.Tick() + streamtime.Cycle(s.timing.OutputLatency)
		if err := enqueue(ctx, id, a, s.Time, ready, tok); err != nil {
			return err
		}
		return enqueue(ctx, id, b, s.Time, ready, tok)
	}

	for {
		in, err := dequeue(ctx, id, s.in, s.Time)
		if err != nil {
			return err
		}

		switch {
		case in.IsVal():
			v, _ := in.Value()
			for c := uint64(0); c < s.dim; c++ {
				ready := s.Time.Tick() + streamtime.Cycle(s.timing.OutputLatency)
				if err := enqueue(ctx, id, s.outCoord, s.Time, ready, token.Val[uint64, L](c)); err != nil {
					return err
				}
				if err := enqueue(ctx, id, s.outRef, s.Time, ready, token.Val[uint64, L](c+v*s.dim)); err != nil {
					return err
				}
				s.Time.IncrCycles(streamtime.Cycle(s.timing.SequentialInterval))
			}
			next, err := peek(ctx, id, s.in, s.Time)
			if err != nil {
				return err
			}
			if next.IsStop() {
				lvl, _ := next.StopLevel()
				if _, err := dequeue(ctx, id, s.in, s.Time); err != nil {
					return err
				}
				if err := out(s.outCoord, s.outRef, token.Stop[uint64, L](bumpStopLevel(lvl))); err != nil {
					return err
				}
			} else {
				var zero L
				if err := out(s.outCoord, s.outRef, token.Stop[uint64, L](zero)); err != nil {
					return err
				}
			}

		case in.IsStop():
			lvl, _ := in.StopLevel()
			if err := out(s.outCoord, s.outRef, token.Stop[uint64, L](bumpStopLevel(lvl))); err != nil {
				return err
			}

		case in.IsEmpty():
			if err := out(s.outCoord, s.outRef, token.Empty[uint64, L]()); err != nil {
				return err
			}

		case in.IsDone():
			if err := out(s.outCoord, s.outRef, token.Done[uint64, L]()); err != nil {
				return err
			}
			closeProducer[uint64, L](s.outCoord)
			closeProducer[uint64, L](s.outRef)
			return nil
		}

		s.Time.IncrCycles(1)
	}
}


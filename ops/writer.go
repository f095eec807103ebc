package ops

import (
	"context"
	"sync"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// CompressedWrScan implements spec §4.4.14's first terminal writer: it
// consumes a coordinate stream and builds the (seg, crd) pair of a CSF
// level, one segment boundary per fiber.
type CompressedWrScan[C token.Numeric, L token.Level] struct {
	block.Base
	in streamtime.Source[Tok[C, L]]

	mu  sync.Mutex
	seg []C
	crd []C
}

// NewCompressedWrScan wires a compressed-coordinate writer.
func NewCompressedWrScan[C token.Numeric, L token.Level](name string, in streamtime.Source[Tok[C, L]]) *CompressedWrScan[C, L] {
	var zero C
	return &CompressedWrScan[C, L]{Base: block.NewBase(name), in: in, seg: []C{zero}}
}

func (w *CompressedWrScan[C, L]) Initialize(context.Context) error { return nil }

func (w *CompressedWrScan[C, L]) Run(ctx context.Context) error {
	id := w.Identifier()
	var count C
	endFiber := false
	for {
		in, err := dequeue(ctx, id, w.in, w.Time)
		if err != nil {
			return err
		}

		switch {
		case in.IsVal():
			v, _ := in.Value()
			w.mu.Lock()
			w.crd = append(w.crd, v)
			w.mu.Unlock()
			count++
			endFiber = false

		case in.IsStop():
			if !endFiber {
				w.mu.Lock()
				w.seg = append(w.seg, count)
				w.mu.Unlock()
				endFiber = true
			}

		case in.IsEmpty():
			// spec §4.4.14: Empty arriving at a terminal writer carries no
			// segment information and is ignored.

		case in.IsDone():
			return nil

		default:
			return NewUnexpectedTokenError(id, "CompressedWrScan", in.Kind())
		}

		w.Time.IncrCycles(1)
	}
}

// Result returns the accumulated (seg, crd) arrays. Safe to call once Run
// has returned.
func (w *CompressedWrScan[C, L]) Result() (seg, crd []C) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]C(nil), w.seg...), append([]C(nil), w.crd...)
}

// ValsWrScan implements spec §4.4.14's second terminal writer: it appends
// every Val it sees to an output vector.
type ValsWrScan[V token.Numeric, L token.Level] struct {
	block.Base
	in streamtime.Source[Tok[V, L]]

	mu   sync.Mutex
	vals []V
}

// NewValsWrScan wires a value-vector writer.
func NewValsWrScan[V token.Numeric, L token.Level](name string, in streamtime.Source[Tok[V, L]]) *ValsWrScan[V, L] {
	return &ValsWrScan[V, L]{Base: block.NewBase(name), in: in}
}

func (w *ValsWrScan[V, L]) Initialize(context.Context) error { return nil }

func (w *ValsWrScan[V, L]) Run(ctx context.Context) error {
	id := w.Identifier()
	for {
		in, err := dequeue(ctx, id, w.in, w.Time)
		if err != nil {
			return err
		}

		switch {
		case in.IsVal():
			v, _ := in.Value()
			w.mu.Lock()
			w.vals = append(w.vals, v)
			w.mu.Unlock()

		case in.IsEmpty() || in.IsStop():
			// control tokens carry no value; only Val entries are appended.

		case in.IsDone():
			w.Time.IncrCycles(1)
			return nil

		default:
			return NewUnexpectedTokenError(id, "ValsWrScan", in.Kind())
		}

		w.Time.IncrCycles(1)
	}
}

// Result returns the accumulated value vector. Safe to call once Run has
// returned.
func (w *ValsWrScan[V, L]) Result() []V {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]V(nil), w.vals...)
}

// Package block defines the uniform contract every dataflow primitive
// (scanner, joiner, ALU, writer, ...) implements, independent of which
// token/value types it moves. The runtime schedules Blocks; it never reaches
// into their internal state.
package block

import (
	"context"

	"github.com/google/uuid"

	"github.com/stanford-ppl/comal-go/streamtime"
)

// ID uniquely identifies a Block for the lifetime of a Program. It wraps a
// uuid.UUID rather than a bare integer so graph-validation error messages
// remain stable across rebuilds of the same logical graph.
type ID struct {
	u    uuid.UUID
	name string
}

// NewID allocates a fresh identifier with a human-readable name (the
// operator kind, e.g. "Intersect#3") for use in error messages.
func NewID(name string) ID { return ID{u: uuid.New(), name: name} }

func (id ID) String() string {
	if id.name != "" {
		return id.name
	}
	return id.u.String()
}

// UUID returns the underlying unique identifier.
func (id ID) UUID() uuid.UUID { return id.u }

// Block is an independently scheduled unit of the dataflow graph: a private
// clock, attached channel endpoints, and a run loop that drives its state
// machine until every output it owns has been closed with Done.
type Block interface {
	// Identifier returns this block's unique ID.
	Identifier() ID

	// Initialize runs once, before any block's Run starts, on the runtime's
	// own goroutine rather than the one that executes Run. It may preload
	// internal state or emit initial tokens.
	Initialize(ctx context.Context) error

	// Run drives the block's state machine until Done has been propagated
	// on every output it owns, then returns. It must return promptly when
	// ctx is cancelled (spec §4.1: cancellation is cooperative via Done
	// propagation, but a cancelled context signals an aborted run).
	Run(ctx context.Context) error
}

// Clocked is implemented by blocks that expose their local clock's final
// value, used by the runtime to compute elapsed cycles (spec §4.1: "elapsed
// cycles of a finished run is the maximum final local clock over all
// blocks"). Blocks that never advance a clock (pure wiring helpers) may
// leave this unimplemented; the runtime treats them as contributing 0.
type Clocked interface {
	ElapsedCycles() uint64
}

// Base is a small embeddable helper providing Identifier() and a private
// clock, following the "narrow interface + small helper" guidance over deep
// inheritance (spec §9, "Operator families sharing boilerplate").
type Base struct {
	id   ID
	Time *streamtime.Time
}

// NewBase returns a Base carrying a freshly allocated ID with the given
// diagnostic name and a fresh local clock.
func NewBase(name string) Base { return Base{id: NewID(name), Time: streamtime.NewTime()} }

func (b Base) Identifier() ID { return b.id }

// ElapsedCycles implements Clocked by reading the embedded local clock.
func (b Base) ElapsedCycles() uint64 { return uint64(b.Time.Tick()) }

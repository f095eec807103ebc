// Package graphcfg decodes the external graph description and tensor data
// files consumed by the simulator (spec §6.1, §6.2) and the runtime
// configuration file format (spec §6.3). It owns the boundary between
// serialized input and the core's block.Block/Program types; the core
// itself never parses a file.
package graphcfg

import (
	"fmt"
)

// OperatorKind enumerates the operator kinds a graph description may name
// (spec §6.1).
type OperatorKind string

const (
	KindBroadcast  OperatorKind = "Broadcast"
	KindJoiner     OperatorKind = "Joiner"
	KindFiberLookup OperatorKind = "FiberLookup"
	KindFiberWrite OperatorKind = "FiberWrite"
	KindRepeat     OperatorKind = "Repeat"
	KindRepeatSig  OperatorKind = "RepeatSig"
	KindALU        OperatorKind = "ALU"
	KindReduce     OperatorKind = "Reduce"
	KindCoordHold  OperatorKind = "CoordHold"
	KindCoordDrop  OperatorKind = "CoordDrop"
	KindArray      OperatorKind = "Array"
	KindSpacc      OperatorKind = "Spacc"
	KindValWrite   OperatorKind = "ValWrite"
	KindRoot       OperatorKind = "Root"
)

// StreamKind distinguishes the four stream namespaces spec §6.1 requires:
// coordinate, reference, value, and rep-signal streams each have their own
// ID space.
type StreamKind string

const (
	StreamCoord  StreamKind = "coord"
	StreamRef    StreamKind = "ref"
	StreamValue  StreamKind = "value"
	StreamRepSig StreamKind = "repsig"
)

// VoidStreamID is the reserved endpoint ID naming the discard sink (spec
// §6.1: "ID 0 is reserved as the void endpoint").
const VoidStreamID uint32 = 0

// StreamEndpoint names one port of an operator: which stream namespace it
// belongs to, and the numeric ID other operators reference it by.
type StreamEndpoint struct {
	Kind StreamKind `toml:"kind"`
	ID   uint32     `toml:"id"`
}

// IsVoid reports whether this endpoint is the reserved discard sink.
func (e StreamEndpoint) IsVoid() bool { return e.ID == VoidStreamID }

// Operator is one node of a graph description: a kind, a name, a bag of
// kind-specific parameters, and the stream endpoints it reads from or
// writes to.
type Operator struct {
	Name    string            `toml:"name"`
	Kind    OperatorKind      `toml:"kind"`
	Params  map[string]string `toml:"params"`
	Inputs  []StreamEndpoint  `toml:"inputs"`
	Outputs []StreamEndpoint  `toml:"outputs"`
}

// Graph is the validated external graph description consumed at startup
// (spec §6.1). It is a format-neutral intermediate: decoders (TOML today)
// populate it, and this package's Build monomorphizes each Operator into a
// concrete block.Block wired into a root-package Program.
type Graph struct {
	Operators []Operator `toml:"operator"`
}

// Validate checks the structural invariants a graph description must
// satisfy before the blocks it describes are constructed (spec §7 kind 1):
// every operator has a name and kind, every non-void stream ID is produced
// by exactly one operator's output, and every referenced stream ID that
// isn't void is produced by some operator.
func (g *Graph) Validate() error {
	if len(g.Operators) == 0 {
		return fmt.Errorf("graphcfg: graph has no operators")
	}

	producers := make(map[streamKey]string)
	seenNames := make(map[string]bool)

	for _, op := range g.Operators {
		if op.Name == "" {
			return fmt.Errorf("graphcfg: operator with empty name")
		}
		if seenNames[op.Name] {
			return fmt.Errorf("graphcfg: duplicate operator name %q", op.Name)
		}
		seenNames[op.Name] = true

		if op.Kind == "" {
			return fmt.Errorf("graphcfg: operator %q has no kind", op.Name)
		}

		for _, out := range op.Outputs {
			if out.IsVoid() {
				continue
			}
			key := streamKey{out.Kind, out.ID}
			if existing, ok := producers[key]; ok {
				return fmt.Errorf("graphcfg: stream %s:%d has duplicate producers %q and %q", out.Kind, out.ID, existing, op.Name)
			}
			producers[key] = op.Name
		}
	}

	for _, op := range g.Operators {
		for _, in := range op.Inputs {
			if in.IsVoid() {
				continue
			}
			key := streamKey{in.Kind, in.ID}
			if _, ok := producers[key]; !ok {
				return fmt.Errorf("graphcfg: operator %q reads stream %s:%d with no producer", op.Name, in.Kind, in.ID)
			}
		}
	}

	return nil
}

type streamKey struct {
	kind StreamKind
	id   uint32
}

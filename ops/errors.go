package ops

import (
	"fmt"

	comal "github.com/stanford-ppl/comal-go"
	"github.com/stanford-ppl/comal-go/block"
)

// NewIndexError reports an out-of-range index into a tensor's segment,
// coordinate, or value array (spec §7 kind 3).
func NewIndexError(id block.ID, op string, idx uint64) error {
	return comal.NewInputDataError(id, fmt.Sprintf("%s: index %d out of range", op, idx), nil)
}

// NewStopMismatchError reports two paired streams disagreeing on stop level
// where the protocol requires them to match (spec §3.1 invariant 2, §4.4.3,
// §4.4.9; a fatal protocol violation per §7 kind 2).
func NewStopMismatchError(id block.ID, op string, a, b any) error {
	return comal.NewProtocolError(id, fmt.Sprintf("%s: mismatched stop levels %v != %v", op, a, b), nil)
}

// NewUnexpectedTokenError reports a token arriving in a state the operator's
// Mealy machine does not define a transition for (spec §4.5).
func NewUnexpectedTokenError(id block.ID, op string, kind any) error {
	return comal.NewProtocolError(id, fmt.Sprintf("%s: unexpected token kind %v", op, kind), nil)
}

package comal

import (
	"errors"
	"fmt"

	"github.com/stanford-ppl/comal-go/block"
)

// Namespace prefixes every sentinel error's message for locating error
// origin in logs.
const Namespace = "comal"

// The four error kinds callers should use errors.Is against rather than
// matching message text.
var (
	// ErrGraphValidation: dangling producer/consumer, duplicate producer,
	// type-mismatched endpoint, unknown operator kind. Detected before run.
	ErrGraphValidation = errors.New(Namespace + ": graph validation failed")

	// ErrProtocolViolation: stop-level mismatch across paired streams,
	// non-Done terminator, Empty where forbidden, mismatched-variant
	// arithmetic. Fatal during Run.
	ErrProtocolViolation = errors.New(Namespace + ": protocol violation")

	// ErrInputData: missing/malformed tensor file, out-of-range Array index.
	ErrInputData = errors.New(Namespace + ": input data error")

	// ErrResource: worker panic, or the stall watchdog detected a deadlock.
	ErrResource = errors.New(Namespace + ": resource error")
)

// BlockError names the offending block and wraps one of the four sentinel
// kinds above, so a run failure always surfaces which operator caused it
// rather than a bare message.
type BlockError struct {
	Kind  error
	Block block.ID
	Msg   string
	Err   error // optional wrapped cause
}

func (e *BlockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: block %s: %s: %v", e.Kind, e.Block, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: block %s: %s", e.Kind, e.Block, e.Msg)
}

func (e *BlockError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewGraphError reports a graph-validation failure (§7 kind 1).
func NewGraphError(id block.ID, msg string) error {
	return &BlockError{Kind: ErrGraphValidation, Block: id, Msg: msg}
}

// NewProtocolError reports a fatal protocol violation (§7 kind 2), naming
// the operator identity, the input that misbehaved, and the observed token
// via msg (callers format the offending token triple into msg since the
// concrete token type is generic).
func NewProtocolError(id block.ID, msg string, cause error) error {
	return &BlockError{Kind: ErrProtocolViolation, Block: id, Msg: msg, Err: cause}
}

// NewInputDataError reports a missing/malformed tensor file or an
// out-of-range Array lookup index (§7 kind 3).
func NewInputDataError(id block.ID, msg string, cause error) error {
	return &BlockError{Kind: ErrInputData, Block: id, Msg: msg, Err: cause}
}

// NewResourceError reports a worker panic or a watchdog-detected deadlock
// (§7 kind 4).
func NewResourceError(id block.ID, msg string, cause error) error {
	return &BlockError{Kind: ErrResource, Block: id, Msg: msg, Err: cause}
}

package token

import (
	"fmt"
)

// Numeric is the capability set an operator needs to lift an arithmetic
// operator across the Token algebra: addition and a zero value are enough
// for every binary ALU op in the catalogue, since Sub/Mul/Div/Max are
// supplied per-call as an Op rather than baked into the constraint.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// MismatchError reports an attempt to lift an operator across two tokens
// whose variants (or, for two Stop tokens, levels) are incompatible. This is
// a protocol violation per spec §3.1 invariant 3 / §7 kind 2.
type MismatchError struct {
	Op       string
	Left     Kind
	Right    Kind
	LeftLvl  any
	RightLvl any
}

func (e *MismatchError) Error() string {
	if e.Left == KindStop && e.Right == KindStop {
		return fmt.Sprintf("token: %s: mismatched stop levels %v != %v", e.Op, e.LeftLvl, e.RightLvl)
	}
	return fmt.Sprintf("token: %s: mismatched token kinds %s and %s", e.Op, e.Left, e.Right)
}

// Lift applies a binary scalar function op pointwise across two tokens,
// following spec §3.1 invariant 3:
//
//	Val ⊕ Val   = Val(op(a,b))
//	Stop ⊕ Stop = Stop(ℓ) iff ℓ_a == ℓ_b, else a MismatchError
//	Empty ⊕ Val = Val(op(zero,b))   (Empty acts as the identity operand)
//	Val ⊕ Empty = Val(op(a,zero))
//	Empty ⊕ Empty = Empty
//	Done ⊕ Done = Done
//
// Any other pairing (e.g. Val ⊕ Stop, Done ⊕ anything-but-Done) is a
// protocol error.
func Lift[V Numeric, L Level](opName string, a, b Token[V, L], op func(x, y V) V) (Token[V, L], error) {
	switch {
	case a.kind == KindVal && b.kind == KindVal:
		return Val[V, L](op(a.val, b.val)), nil

	case a.kind == KindStop && b.kind == KindStop:
		if any(a.lvl) != any(b.lvl) {
			return Token[V, L]{}, &MismatchError{Op: opName, Left: a.kind, Right: b.kind, LeftLvl: a.lvl, RightLvl: b.lvl}
		}
		return Stop[V, L](a.lvl), nil

	case a.kind == KindEmpty && b.kind == KindVal:
		var zero V
		return Val[V, L](op(zero, b.val)), nil

	case a.kind == KindVal && b.kind == KindEmpty:
		var zero V
		return Val[V, L](op(a.val, zero)), nil

	case a.kind == KindEmpty && b.kind == KindEmpty:
		return Empty[V, L](), nil

	case a.kind == KindDone && b.kind == KindDone:
		return Done[V, L](), nil

	default:
		return Token[V, L]{}, &MismatchError{Op: opName, Left: a.kind, Right: b.kind}
	}
}

// Map applies a unary function f to a Val token, passing every
// other variant through unchanged: only the Val case carries a value to
// transform.
func Map[V any, L Level](t Token[V, L], f func(V) V) Token[V, L] {
	if t.kind != KindVal {
		return t
	}
	return Val[V, L](f(t.val))
}

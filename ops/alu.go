package ops

import (
	"context"
	"fmt"
	"math"

	comal "github.com/stanford-ppl/comal-go"
	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// BinaryOp names a two-operand ALU function (spec §4.4.7).
type BinaryOp string

const (
	OpAdd BinaryOp = "Add"
	OpSub BinaryOp = "Sub"
	OpMul BinaryOp = "Mul"
	OpDiv BinaryOp = "Div"
	OpMax BinaryOp = "Max"
)

// UnaryOp names a one-operand ALU function, including the reserved
// transcendental functions spec §9's REDESIGN FLAGS calls out: these must
// compute the mathematically correct result for float value types and must
// refuse construction for value types that cannot express it, rather than
// silently degrading to identity.
type UnaryOp string

const (
	OpNeg     UnaryOp = "Neg"
	OpExp     UnaryOp = "Exp"
	OpSigmoid UnaryOp = "Sigmoid"
	OpRsqrt   UnaryOp = "Rsqrt"
)

func binaryFunc[V token.Numeric](op BinaryOp) (func(a, b V) V, error) {
	switch op {
	case OpAdd:
		return func(a, b V) V { return a + b }, nil
	case OpSub:
		return func(a, b V) V { return a - b }, nil
	case OpMul:
		return func(a, b V) V { return a * b }, nil
	case OpDiv:
		return func(a, b V) V { return a / b }, nil
	case OpMax:
		return func(a, b V) V {
			if a > b {
				return a
			}
			return b
		}, nil
	default:
		return nil, fmt.Errorf("ops: unknown binary ALU op %q", op)
	}
}

// ALU implements spec §4.4.7's binary form: it dequeues one token from each
// input, lifts op across them per §3.1 invariant 3, and emits the result
// after PipelineDepth cycles of latency.
type ALU[V token.Numeric, L token.Level] struct {
	block.Base
	op             BinaryOp
	fn             func(a, b V) V
	pipelineDepth  uint64
	arg1, arg2     streamtime.Source[Tok[V, L]]
	out            streamtime.Sink[Tok[V, L]]
}

// NewALU wires a binary ALU stage. pipelineDepth of 0 is treated as 1.
func NewALU[V token.Numeric, L token.Level](
	name string, op BinaryOp, pipelineDepth uint64,
	arg1, arg2 streamtime.Source[Tok[V, L]], out streamtime.Sink[Tok[V, L]],
) (*ALU[V, L], error) {
	fn, err := binaryFunc[V](op)
	if err != nil {
		return nil, err
	}
	if pipelineDepth == 0 {
		pipelineDepth = 1
	}
	return &ALU[V, L]{Base: block.NewBase(name), op: op, fn: fn, pipelineDepth: pipelineDepth, arg1: arg1, arg2: arg2, out: out}, nil
}

// NewScalarALU wires a binary ALU stage whose second argument is a fixed
// scalar broadcast across every Val on arg1 (spec §4.4.7's Scalar{Add,Mul,Div}
// variants), rather than a second stream.
func NewScalarALU[V token.Numeric, L token.Level](
	name string, op BinaryOp, scalar V, pipelineDepth uint64,
	arg1 streamtime.Source[Tok[V, L]], out streamtime.Sink[Tok[V, L]],
) (*UnaryALU[V, L], error) {
	fn, err := binaryFunc[V](op)
	if err != nil {
		return nil, err
	}
	return NewUnaryALU[V, L](name, UnaryOp("Scalar"+string(op)), pipelineDepth, arg1, out, func(v V) V { return fn(v, scalar) })
}

func (a *ALU[V, L]) Initialize(context.Context) error { return nil }

func (a *ALU[V, L]) Run(ctx context.Context) error {
	id := a.Identifier()
	for {
		in1, err := dequeue(ctx, id, a.arg1, a.Time)
		if err != nil {
			return err
		}
		in2, err := dequeue(ctx, id, a.arg2, a.Time)
		if err != nil {
			return err
		}

		out, err := token.Lift(string(a.op), in1, in2, a.fn)
		if err != nil {
			return comal.NewProtocolError(id, err.Error(), err)
		}

		ready := a.Time.Tick() + streamtime.Cycle(a.pipelineDepth)
		if err := enqueue(ctx, id, a.out, a.Time, ready, out); err != nil {
			return err
		}
		if out.IsDone() {
			closeProducer[V, L](a.out)
			return nil
		}
		a.Time.IncrCycles(1)
	}
}

// UnaryALU implements spec §4.4.7's unary form: a pure elementwise function
// applied to every Val; Stop/Empty/Done pass through unchanged.
type UnaryALU[V token.Numeric, L token.Level] struct {
	block.Base
	op            UnaryOp
	fn            func(V) V
	pipelineDepth uint64
	in            streamtime.Source[Tok[V, L]]
	out           streamtime.Sink[Tok[V, L]]
}

// NewUnaryALU wires a unary ALU stage with an arbitrary function, used
// internally by NewScalarALU and externally for Neg.
func NewUnaryALU[V token.Numeric, L token.Level](
	name string, op UnaryOp, pipelineDepth uint64,
	in streamtime.Source[Tok[V, L]], out streamtime.Sink[Tok[V, L]],
	fn func(V) V,
) (*UnaryALU[V, L], error) {
	if pipelineDepth == 0 {
		pipelineDepth = 1
	}
	return &UnaryALU[V, L]{Base: block.NewBase(name), op: op, fn: fn, pipelineDepth: pipelineDepth, in: in, out: out}, nil
}

// NewReservedUnaryALU wires one of the reserved transcendental functions
// (Exp, Sigmoid, Rsqrt) named in spec §9. These require a float64-compatible
// value type; construction fails rather than silently falling back to
// identity when V cannot represent the function (spec.md's REDESIGN FLAGS).
func NewReservedUnaryALU[V token.Numeric, L token.Level](
	name string, op UnaryOp, pipelineDepth uint64,
	in streamtime.Source[Tok[V, L]], out streamtime.Sink[Tok[V, L]],
) (*UnaryALU[V, L], error) {
	fn, err := reservedFunc[V](op)
	if err != nil {
		return nil, err
	}
	return NewUnaryALU[V, L](name, op, pipelineDepth, in, out, fn)
}

func reservedFunc[V token.Numeric](op UnaryOp) (func(V) V, error) {
	var probe V
	switch any(probe).(type) {
	case float32, float64:
	default:
		return nil, fmt.Errorf("ops: reserved unary op %q requires a floating-point value type, got %T", op, probe)
	}

	switch op {
	case OpExp:
		return func(v V) V { return V(math.Exp(float64(v))) }, nil
	case OpSigmoid:
		return func(v V) V { return V(1 / (1 + math.Exp(-float64(v)))) }, nil
	case OpRsqrt:
		return func(v V) V { return V(1 / math.Sqrt(float64(v))) }, nil
	default:
		return nil, fmt.Errorf("ops: unknown reserved unary ALU op %q", op)
	}
}

func (a *UnaryALU[V, L]) Initialize(context.Context) error { return nil }

func (a *UnaryALU[V, L]) Run(ctx context.Context) error {
	id := a.Identifier()
	for {
		in, err := dequeue(ctx, id, a.in, a.Time)
		if err != nil {
			return err
		}

		out := token.Map(in, a.fn)
		ready := a.Time.Tick() + streamtime.Cycle(a.pipelineDepth)
		if err := enqueue(ctx, id, a.out, a.Time, ready, out); err != nil {
			return err
		}
		if out.IsDone() {
			closeProducer[V, L](a.out)
			return nil
		}
		a.Time.IncrCycles(1)
	}
}

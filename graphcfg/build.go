package graphcfg

import (
	"fmt"
	"strconv"

	comal "github.com/stanford-ppl/comal-go"
	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/ops"
	"github.com/stanford-ppl/comal-go/streamtime"
	"github.com/stanford-ppl/comal-go/token"
)

// Level is the concrete stop-level type every built graph monomorphizes to
// (spec §9's "u32 coords / u32 stops / f32 values by default").
type Level = uint32

// CoordTok is the token type carried on coordinate and reference streams.
type CoordTok = token.Token[uint64, Level]

// ValTok is the token type carried on value streams.
type ValTok = token.Token[float32, Level]

// DefaultChannelCapacity is used for any stream whose operator doesn't name
// an explicit "capacity" param.
const DefaultChannelCapacity = 8

// Built holds the constructed Program plus handles onto every terminal
// writer, keyed by operator name, so a caller can read out results once
// Runtime.Run returns (spec §6.4).
type Built struct {
	Program     *comal.Program
	ValWriters  map[string]*ops.ValsWrScan[float32, Level]
	CrdWriters  map[string]*ops.CompressedWrScan[uint64, Level]
}

type builder struct {
	coordChans  map[uint32]*streamtime.Channel[CoordTok]
	valueChans  map[uint32]*streamtime.Channel[ValTok]
	repsigChans map[uint32]*streamtime.Channel[ops.RepSig]
	tensors     map[string]TensorMode
	program     *comal.Program
	valWriters  map[string]*ops.ValsWrScan[float32, Level]
	crdWriters  map[string]*ops.CompressedWrScan[uint64, Level]
}

// Build monomorphizes a validated Graph into a runnable comal.Program,
// resolving FiberLookup/Array operators against the supplied tensor data
// (spec §6.2). Call g.Validate() first; Build assumes a structurally sound
// graph and focuses on per-operator construction errors.
func Build(g *Graph, tensors map[string]TensorMode) (*Built, error) {
	b := &builder{
		coordChans:  make(map[uint32]*streamtime.Channel[CoordTok]),
		valueChans:  make(map[uint32]*streamtime.Channel[ValTok]),
		repsigChans: make(map[uint32]*streamtime.Channel[ops.RepSig]),
		tensors:     tensors,
		program:     comal.NewProgram(),
		valWriters:  make(map[string]*ops.ValsWrScan[float32, Level]),
		crdWriters:  make(map[string]*ops.CompressedWrScan[uint64, Level]),
	}

	blockIDs := make(map[string]block.ID, len(g.Operators))
	for _, op := range g.Operators {
		blk, err := b.buildOperator(op)
		if err != nil {
			return nil, fmt.Errorf("graphcfg: operator %q: %w", op.Name, err)
		}
		if err := b.program.AddBlock(blk); err != nil {
			return nil, fmt.Errorf("graphcfg: operator %q: %w", op.Name, err)
		}
		blockIDs[op.Name] = blk.Identifier()
	}

	producers := make(map[streamKey]string, len(g.Operators))
	for _, op := range g.Operators {
		for _, out := range op.Outputs {
			if out.IsVoid() {
				continue
			}
			producers[streamKey{out.Kind, out.ID}] = op.Name
		}
	}
	for _, op := range g.Operators {
		for _, in := range op.Inputs {
			d := comal.ChannelDescriptor{
				Name:     fmt.Sprintf("%s:%d", in.Kind, in.ID),
				Capacity: DefaultChannelCapacity,
				Consumer: blockIDs[op.Name],
				IsVoid:   in.IsVoid(),
			}
			if !in.IsVoid() {
				producerName, ok := producers[streamKey{in.Kind, in.ID}]
				if !ok {
					return nil, fmt.Errorf("graphcfg: operator %q reads stream %s:%d with no producer", op.Name, in.Kind, in.ID)
				}
				d.Producer = blockIDs[producerName]
			} else {
				d.Producer = blockIDs[op.Name]
			}
			if err := b.program.Wire(d); err != nil {
				return nil, err
			}
		}
	}

	return &Built{Program: b.program, ValWriters: b.valWriters, CrdWriters: b.crdWriters}, nil
}

func (b *builder) coordSource(e StreamEndpoint) streamtime.Source[CoordTok] {
	return b.coordChan(e.ID)
}

func (b *builder) coordSink(e StreamEndpoint) streamtime.Sink[CoordTok] {
	if e.IsVoid() {
		return streamtime.NewVoid[CoordTok]()
	}
	return b.coordChan(e.ID)
}

func (b *builder) coordChan(id uint32) *streamtime.Channel[CoordTok] {
	if c, ok := b.coordChans[id]; ok {
		return c
	}
	c := streamtime.NewChannel[CoordTok](fmt.Sprintf("coord/ref:%d", id), DefaultChannelCapacity)
	b.coordChans[id] = c
	return c
}

func (b *builder) valueSource(e StreamEndpoint) streamtime.Source[ValTok] {
	return b.valueChan(e.ID)
}

func (b *builder) valueSink(e StreamEndpoint) streamtime.Sink[ValTok] {
	if e.IsVoid() {
		return streamtime.NewVoid[ValTok]()
	}
	return b.valueChan(e.ID)
}

func (b *builder) valueChan(id uint32) *streamtime.Channel[ValTok] {
	if c, ok := b.valueChans[id]; ok {
		return c
	}
	c := streamtime.NewChannel[ValTok](fmt.Sprintf("value:%d", id), DefaultChannelCapacity)
	b.valueChans[id] = c
	return c
}

func (b *builder) repSigSource(e StreamEndpoint) streamtime.Source[ops.RepSig] {
	return b.repSigChan(e.ID)
}

func (b *builder) repSigSink(e StreamEndpoint) streamtime.Sink[ops.RepSig] {
	if e.IsVoid() {
		return streamtime.NewVoid[ops.RepSig]()
	}
	return b.repSigChan(e.ID)
}

func (b *builder) repSigChan(id uint32) *streamtime.Channel[ops.RepSig] {
	if c, ok := b.repsigChans[id]; ok {
		return c
	}
	c := streamtime.NewChannel[ops.RepSig](fmt.Sprintf("repsig:%d", id), DefaultChannelCapacity)
	b.repsigChans[id] = c
	return c
}

func paramUint(params map[string]string, key string, fallback uint64) uint64 {
	if v, ok := params[key]; ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func paramFloat(params map[string]string, key string, fallback float64) float64 {
	if v, ok := params[key]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}

func (b *builder) buildOperator(op Operator) (block.Block, error) {
	switch op.Kind {
	case KindRoot:
		if len(op.Outputs) != 1 {
			return nil, fmt.Errorf("Root wants exactly one output, got %d", len(op.Outputs))
		}
		return ops.NewRoot[uint64, Level](op.Name, b.coordSink(op.Outputs[0])), nil

	case KindFiberLookup:
		if len(op.Inputs) != 1 || len(op.Outputs) != 2 {
			return nil, fmt.Errorf("FiberLookup wants one input and two outputs, got %d/%d", len(op.Inputs), len(op.Outputs))
		}
		in := b.coordSource(op.Inputs[0])
		outCoord, outRef := b.coordSink(op.Outputs[0]), b.coordSink(op.Outputs[1])
		timing := ops.DefaultScannerTiming()
		switch op.Params["format"] {
		case "dense":
			dim := paramUint(op.Params, "dim", 0)
			if dim == 0 {
				if tm, ok := b.tensors[op.Params["tensor"]]; ok && len(tm.Seg) > 0 {
					dim = tm.Seg[0]
				}
			}
			return ops.NewUncompressedReadScan[Level](op.Name, dim, in, outCoord, outRef, timing), nil
		case "compressed", "":
			tm, ok := b.tensors[op.Params["tensor"]]
			if !ok {
				return nil, fmt.Errorf("FiberLookup: unknown tensor %q", op.Params["tensor"])
			}
			return ops.NewCompressedReadScan[Level](op.Name, tm.Seg, tm.Crd, in, outCoord, outRef, timing), nil
		default:
			return nil, fmt.Errorf("FiberLookup: unknown format %q", op.Params["format"])
		}

	case KindJoiner:
		timing := ops.DefaultJoinerTiming()
		switch op.Params["variant"] {
		case "union", "":
			if len(op.Inputs) != 4 || len(op.Outputs) != 3 {
				return nil, fmt.Errorf("Union joiner wants 4 inputs and 3 outputs, got %d/%d", len(op.Inputs), len(op.Outputs))
			}
			return ops.NewUnion[Level](op.Name,
				b.coordSource(op.Inputs[0]), b.coordSource(op.Inputs[1]),
				b.coordSource(op.Inputs[2]), b.coordSource(op.Inputs[3]),
				b.coordSink(op.Outputs[0]), b.coordSink(op.Outputs[1]), b.coordSink(op.Outputs[2]),
				timing), nil
		case "intersect":
			n := len(op.Inputs) / 2
			if n == 0 || len(op.Inputs) != 2*n || len(op.Outputs) != n+1 {
				return nil, fmt.Errorf("Intersect joiner wants 2N inputs and N+1 outputs, got %d/%d", len(op.Inputs), len(op.Outputs))
			}
			inCrd := make([]streamtime.Source[CoordTok], n)
			inRef := make([]streamtime.Source[CoordTok], n)
			for i := 0; i < n; i++ {
				inCrd[i] = b.coordSource(op.Inputs[i])
				inRef[i] = b.coordSource(op.Inputs[n+i])
			}
			outRef := make([]streamtime.Sink[CoordTok], n)
			for i := 0; i < n; i++ {
				outRef[i] = b.coordSink(op.Outputs[i+1])
			}
			return ops.NewIntersect[Level](op.Name, inCrd, inRef, b.coordSink(op.Outputs[0]), outRef, timing), nil
		default:
			return nil, fmt.Errorf("Joiner: unknown variant %q", op.Params["variant"])
		}

	case KindRepeat:
		if len(op.Inputs) != 2 || len(op.Outputs) != 1 {
			return nil, fmt.Errorf("Repeat wants two inputs and one output, got %d/%d", len(op.Inputs), len(op.Outputs))
		}
		return ops.NewRepeat[uint64, Level](op.Name, b.coordSource(op.Inputs[0]), b.repSigSource(op.Inputs[1]), b.coordSink(op.Outputs[0])), nil

	case KindRepeatSig:
		if len(op.Inputs) != 1 || len(op.Outputs) != 1 {
			return nil, fmt.Errorf("RepeatSig wants one input and one output, got %d/%d", len(op.Inputs), len(op.Outputs))
		}
		return ops.NewRepSigGen[uint64, Level](op.Name, b.coordSource(op.Inputs[0]), b.repSigSink(op.Outputs[0])), nil

	case KindALU:
		pipeline := paramUint(op.Params, "pipeline_depth", 0)
		opName := ops.BinaryOp(op.Params["op"])
		switch len(op.Inputs) {
		case 2:
			if len(op.Outputs) != 1 {
				return nil, fmt.Errorf("ALU wants exactly one output, got %d", len(op.Outputs))
			}
			return ops.NewALU[float32, Level](op.Name, opName, pipeline, b.valueSource(op.Inputs[0]), b.valueSource(op.Inputs[1]), b.valueSink(op.Outputs[0]))
		case 1:
			if len(op.Outputs) != 1 {
				return nil, fmt.Errorf("ALU wants exactly one output, got %d", len(op.Outputs))
			}
			in, out := b.valueSource(op.Inputs[0]), b.valueSink(op.Outputs[0])
			if _, ok := op.Params["scalar"]; ok {
				scalar := float32(paramFloat(op.Params, "scalar", 0))
				return ops.NewScalarALU[float32, Level](op.Name, opName, scalar, pipeline, in, out)
			}
			switch ops.UnaryOp(op.Params["op"]) {
			case ops.OpExp, ops.OpSigmoid, ops.OpRsqrt:
				return ops.NewReservedUnaryALU[float32, Level](op.Name, ops.UnaryOp(op.Params["op"]), pipeline, in, out)
			case ops.OpNeg:
				return ops.NewUnaryALU[float32, Level](op.Name, ops.OpNeg, pipeline, in, out, func(v float32) float32 { return -v })
			default:
				return nil, fmt.Errorf("ALU: unknown unary op %q", op.Params["op"])
			}
		default:
			return nil, fmt.Errorf("ALU wants one or two inputs, got %d", len(op.Inputs))
		}

	case KindReduce:
		if len(op.Inputs) != 1 || len(op.Outputs) != 1 {
			return nil, fmt.Errorf("Reduce wants one input and one output, got %d/%d", len(op.Inputs), len(op.Outputs))
		}
		reduceOp := ops.ReduceSum
		if op.Params["type"] == "max" {
			reduceOp = ops.ReduceMax
		}
		return ops.NewReduce[float32, Level](op.Name, reduceOp, b.valueSource(op.Inputs[0]), b.valueSink(op.Outputs[0])), nil

	case KindCoordDrop:
		if len(op.Inputs) != 2 || len(op.Outputs) != 2 {
			return nil, fmt.Errorf("CoordDrop wants two inputs and two outputs, got %d/%d", len(op.Inputs), len(op.Outputs))
		}
		return ops.NewCrdDrop[uint64, Level](op.Name, b.coordSource(op.Inputs[0]), b.coordSource(op.Inputs[1]), b.coordSink(op.Outputs[0]), b.coordSink(op.Outputs[1])), nil

	case KindCoordHold:
		if len(op.Inputs) != 2 || len(op.Outputs) != 2 {
			return nil, fmt.Errorf("CoordHold wants two inputs and two outputs, got %d/%d", len(op.Inputs), len(op.Outputs))
		}
		return ops.NewCrdHold[uint64, Level](op.Name, b.coordSource(op.Inputs[0]), b.coordSource(op.Inputs[1]), b.coordSink(op.Outputs[0]), b.coordSink(op.Outputs[1])), nil

	case KindArray:
		if len(op.Inputs) != 1 || len(op.Outputs) != 1 {
			return nil, fmt.Errorf("Array wants one input and one output, got %d/%d", len(op.Inputs), len(op.Outputs))
		}
		tm, ok := b.tensors[op.Params["tensor"]]
		if !ok {
			return nil, fmt.Errorf("Array: unknown tensor %q", op.Params["tensor"])
		}
		blockSize := paramUint(op.Params, "block_size", 1)
		return ops.NewArray[uint64, float32, Level](op.Name, tm.Values, blockSize, b.coordSource(op.Inputs[0]), b.valueSink(op.Outputs[0])), nil

	case KindSpacc:
		switch paramUint(op.Params, "dims", 1) {
		case 1:
			if len(op.Inputs) != 3 || len(op.Outputs) != 2 {
				return nil, fmt.Errorf("Spacc(1) wants 3 inputs and 2 outputs, got %d/%d", len(op.Inputs), len(op.Outputs))
			}
			return ops.NewSpacc1[uint64, float32, Level](op.Name,
				b.coordSource(op.Inputs[0]), b.coordSource(op.Inputs[1]), b.valueSource(op.Inputs[2]),
				b.coordSink(op.Outputs[0]), b.valueSink(op.Outputs[1])), nil
		case 2:
			if len(op.Inputs) != 4 || len(op.Outputs) != 3 {
				return nil, fmt.Errorf("Spacc(2) wants 4 inputs and 3 outputs, got %d/%d", len(op.Inputs), len(op.Outputs))
			}
			return ops.NewSpacc2[uint64, float32, Level](op.Name,
				b.coordSource(op.Inputs[0]), b.coordSource(op.Inputs[1]), b.coordSource(op.Inputs[2]), b.valueSource(op.Inputs[3]),
				b.coordSink(op.Outputs[0]), b.coordSink(op.Outputs[1]), b.valueSink(op.Outputs[2])), nil
		default:
			return nil, fmt.Errorf("Spacc: unsupported dims %q", op.Params["dims"])
		}

	case KindValWrite:
		if len(op.Inputs) != 1 {
			return nil, fmt.Errorf("ValWrite wants one input, got %d", len(op.Inputs))
		}
		w := ops.NewValsWrScan[float32, Level](op.Name, b.valueSource(op.Inputs[0]))
		b.valWriters[op.Name] = w
		return w, nil

	case KindFiberWrite:
		if len(op.Inputs) != 1 {
			return nil, fmt.Errorf("FiberWrite wants one input, got %d", len(op.Inputs))
		}
		w := ops.NewCompressedWrScan[uint64, Level](op.Name, b.coordSource(op.Inputs[0]))
		b.crdWriters[op.Name] = w
		return w, nil

	case KindBroadcast:
		if len(op.Inputs) != 1 || len(op.Outputs) < 1 {
			return nil, fmt.Errorf("Broadcast wants one input and at least one output, got %d/%d", len(op.Inputs), len(op.Outputs))
		}
		targets := make([]streamtime.Sink[CoordTok], len(op.Outputs))
		for i, o := range op.Outputs {
			targets[i] = b.coordSink(o)
		}
		return ops.NewBroadcast[uint64, Level](op.Name, b.coordSource(op.Inputs[0]), targets), nil

	default:
		return nil, fmt.Errorf("unsupported operator kind %q", op.Kind)
	}
}

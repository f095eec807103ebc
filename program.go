package comal

import (
	"context"
	"fmt"

	"github.com/stanford-ppl/comal-go/block"
)

// ChannelDescriptor records one wired edge of the graph for validation
// purposes (spec §3.4, §6.1). The Program does not own the concrete typed
// streamtime.Channel object (channels are generic over token value/level
// types chosen at graph-build time, per spec §9's monomorphisation
// guidance); it owns the wiring metadata needed to validate the graph
// before Run.
type ChannelDescriptor struct {
	Name     string
	Capacity int
	Producer block.ID
	Consumer block.ID
	IsVoid   bool // consumer is the void endpoint (stream ID 0, spec §6.1)
}

// Program is the graph builder: it accumulates Blocks and the
// ChannelDescriptors wiring them together. After construction, Validate
// checks every channel has exactly one producer and one consumer, then
// Build turns the Program into an executable Runtime.
type Program struct {
	blocks   map[block.ID]block.Block
	order    []block.ID // insertion order, used for deterministic iteration
	channels []ChannelDescriptor
}

// NewProgram returns an empty graph builder.
func NewProgram() *Program {
	return &Program{blocks: make(map[block.ID]block.Block)}
}

// AddBlock registers b with the Program. It is an error to register the
// same block.ID twice.
func (p *Program) AddBlock(b block.Block) error {
	id := b.Identifier()
	if _, exists := p.blocks[id]; exists {
		return NewGraphError(id, "duplicate block registration")
	}
	p.blocks[id] = b
	p.order = append(p.order, id)
	return nil
}

// Wire records a channel edge between two already-registered blocks.
func (p *Program) Wire(d ChannelDescriptor) error {
	if !d.IsVoid {
		if _, ok := p.blocks[d.Consumer]; !ok {
			return NewGraphError(d.Consumer, fmt.Sprintf("channel %q: dangling consumer", d.Name))
		}
	}
	if _, ok := p.blocks[d.Producer]; !ok {
		return NewGraphError(d.Producer, fmt.Sprintf("channel %q: dangling producer", d.Name))
	}
	p.channels = append(p.channels, d)
	return nil
}

// Validate checks every channel has exactly one producer and one consumer
// and that no unknown block is referenced (spec §3.4, §7 kind 1).
func (p *Program) Validate() error {
	seenAsProducer := make(map[string]block.ID)
	for _, d := range p.channels {
		if prior, ok := seenAsProducer[d.Name]; ok {
			return NewGraphError(d.Producer, fmt.Sprintf("channel %q already has a producer (%s)", d.Name, prior))
		}
		seenAsProducer[d.Name] = d.Producer

		if _, ok := p.blocks[d.Producer]; !ok {
			return NewGraphError(d.Producer, fmt.Sprintf("channel %q: unknown producer block", d.Name))
		}
		if !d.IsVoid {
			if _, ok := p.blocks[d.Consumer]; !ok {
				return NewGraphError(d.Consumer, fmt.Sprintf("channel %q: unknown consumer block", d.Name))
			}
		}
	}
	if len(p.blocks) == 0 {
		return fmt.Errorf("%w: program has no blocks", ErrGraphValidation)
	}
	return nil
}

// Build validates the Program and returns an executable Runtime. cfg may be
// nil to use the package defaults.
func (p *Program) Build(ctx context.Context, cfg *RuntimeConfig) (*Runtime, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		c := DefaultRuntimeConfig()
		cfg = &c
	}
	if err := ValidateRuntimeConfig(cfg); err != nil {
		return nil, err
	}
	blocks := make([]block.Block, 0, len(p.order))
	for _, id := range p.order {
		blocks = append(blocks, p.blocks[id])
	}
	return &Runtime{blocks: blocks, cfg: *cfg}, nil
}

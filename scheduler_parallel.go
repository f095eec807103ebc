package comal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/pool"
)

// poolSlot is an opaque token handed out by the worker-slot pool. Its only
// purpose is to be created, held for the duration of one block's Run, and
// returned; it carries no state of its own.
type poolSlot struct{}

// newSlotPool returns the pool backing parallel mode's worker cap (spec
// §6.3 "workers: optional<usize>"): a fixed pool of size n when n > 0
// (Get blocks once n slots are checked out, the same backpressure
// pool.Fixed provides for generic task workers, repurposed here to cap
// concurrently running Blocks), or a dynamic pool that never blocks when
// n == 0.
func newSlotPool(n uint) pool.Pool {
	newFn := func() interface{} { return &poolSlot{} }
	if n > 0 {
		return pool.NewFixed(n, newFn)
	}
	return pool.NewDynamic(newFn)
}

// runParallel runs every block on its own goroutine; synchronization is
// exclusively via channels (spec §4.1 "Parallel mode"). The first block to
// return a non-nil error cancels the shared context, causing the remaining
// blocks to observe cancellation the next time they touch a channel, and
// that error becomes the run's result (spec §7 kind 2/4 propagation: "the
// runtime aborts all blocks").
func runParallel(ctx context.Context, blocks []block.Block, workers uint, watchdog time.Duration, maxElapsedCycles uint64) error {
	p := newSlotPool(workers)
	return withWatchdog(ctx, watchdog, func(wctx context.Context) error {
		return runParallelWithPool(wctx, blocks, p, maxElapsedCycles)
	})
}

func runParallelWithPool(ctx context.Context, blocks []block.Block, p pool.Pool, maxElapsedCycles uint64) error {
	g, gctx := errgroup.WithContext(ctx)

	// Initialize every block before any Run starts, matching spec §4.3:
	// initialize may push initial tokens, which are then visible before any
	// consumer's first peek.
	for _, b := range blocks {
		if err := b.Initialize(gctx); err != nil {
			return err
		}
	}

	if maxElapsedCycles > 0 {
		g.Go(func() error { return watchCycleLimit(gctx, blocks, maxElapsedCycles) })
	}

	for _, b := range blocks {
		b := b
		g.Go(func() error {
			slot := p.Get()
			defer p.Put(slot)
			return b.Run(gctx)
		})
	}

	return g.Wait()
}

// watchCycleLimit polls every Clocked block's local clock and trips
// ErrResource the first time one exceeds limit (spec §5/§6.3's
// max_elapsed_cycles safety net, distinct from the wall-clock watchdog:
// this one bounds simulated cycles rather than real time). It returns nil on
// context cancellation, since by then either another goroutine already
// reported the run's error or the run finished cleanly.
func watchCycleLimit(ctx context.Context, blocks []block.Block, limit uint64) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if id, exceeded := cycleLimitExceeded(blocks, limit); exceeded {
				return NewResourceError(id, fmt.Sprintf("block exceeded max_elapsed_cycles=%d", limit), nil)
			}
		}
	}
}

func cycleLimitExceeded(blocks []block.Block, limit uint64) (block.ID, bool) {
	for _, b := range blocks {
		c, ok := b.(block.Clocked)
		if !ok {
			continue
		}
		if c.ElapsedCycles() > limit {
			return b.Identifier(), true
		}
	}
	return block.ID{}, false
}

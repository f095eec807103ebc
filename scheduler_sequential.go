package comal

import (
	"context"
	"runtime"
	"time"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/pool"
)

// runSequential drives every block the same way runParallel does, each on
// its own goroutine, synchronizing only through channels, since the
// channel's blocking Enqueue/Dequeue/PeekNext is the only place a block ever
// suspends (spec §5) and rewriting every operator as a steppable state
// machine to avoid goroutines entirely is out of scope here. What this mode
// adds is determinism (spec §4.1 "Flavor-inferred sequential mode... used to
// make elapsed-cycle reports stable"): for its duration GOMAXPROCS is pinned
// to 1, so Go's scheduler interleaves the blocks' goroutines on a single OS
// thread in a reproducible order driven only by channel suspension points,
// instead of genuinely running them across multiple cores. This generalizes
// a single-goroutine task executor's "run queued work one at a time" into
// "interleave a fixed graph of blocks deterministically".
func runSequential(ctx context.Context, blocks []block.Block, watchdog time.Duration, maxElapsedCycles uint64) error {
	prev := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(prev)

	p := pool.NewDynamic(func() interface{} { return &poolSlot{} })
	return withWatchdog(ctx, watchdog, func(wctx context.Context) error {
		return runParallelWithPool(wctx, blocks, p, maxElapsedCycles)
	})
}

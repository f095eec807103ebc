package comal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stanford-ppl/comal-go/block"
	"github.com/stanford-ppl/comal-go/metrics"
)

// Result is the structured outcome of a run (spec §6.4, §7 "User-visible
// failure behavior").
type Result struct {
	ElapsedCycles uint64
	Pass          bool
	Err           error
}

// Runtime executes a validated Program. Build it via Program.Build.
type Runtime struct {
	blocks   []block.Block
	cfg      RuntimeConfig
	metrics  metrics.Provider
	watchdog time.Duration // wall-clock deadlock-detection proxy; see SetWatchdog

	// ran guards against a second call to Run on the same Runtime via a
	// sync.Once-guarded single-use discipline.
	ran sync.Once
	res Result
}

// SetMetricsProvider attaches an instrumentation sink (spec §9 "Logging":
// the same gating discipline applies to metrics: the default NoopProvider
// costs nothing and never affects measured elapsed cycles).
func (r *Runtime) SetMetricsProvider(p metrics.Provider) { r.metrics = p }

// SetWatchdog overrides the wall-clock window that bounds a whole run. The
// default is 30 seconds (spec §5: "not semantic", only a safety net). A run
// that has not returned within this window, whether deadlocked or still
// making progress, is reported as ErrResource rather than hanging forever.
func (r *Runtime) SetWatchdog(d time.Duration) { r.watchdog = d }

func (r *Runtime) provider() metrics.Provider {
	if r.metrics == nil {
		return metrics.NewNoopProvider()
	}
	return r.metrics
}

func (r *Runtime) watchdogWindow() time.Duration {
	if r.watchdog > 0 {
		return r.watchdog
	}
	return 30 * time.Second
}

// Run executes every block to completion (or until the first fatal error)
// and reports elapsed cycles as the maximum final local clock over all
// blocks (spec §4.1). Kind-1/3 errors are expected to have been caught by
// Program.Build/Validate already; Run itself surfaces kind-2 (protocol) and
// kind-4 (resource) errors.
func (r *Runtime) Run(ctx context.Context) Result {
	r.ran.Do(func() {
		var err error
		if r.cfg.RunFlavorInference {
			err = runSequential(ctx, r.blocks, r.watchdogWindow(), r.cfg.MaxElapsedCycles)
		} else {
			err = runParallel(ctx, r.blocks, r.cfg.Workers, r.watchdogWindow(), r.cfg.MaxElapsedCycles)
		}

		elapsed := maxElapsedCycles(r.blocks)
		counter := r.provider().Counter("comal.runtime.elapsed_cycles")
		counter.Add(int64(elapsed))

		if err != nil {
			r.res = Result{ElapsedCycles: elapsed, Pass: false, Err: err}
			return
		}
		r.res = Result{ElapsedCycles: elapsed, Pass: true}
	})
	return r.res
}

// BlockCycles names one block's final local clock value, used for the
// per-block timing breakdown a caller may want alongside the aggregate
// Result.ElapsedCycles (spec §6.5's -breakdowns flag).
type BlockCycles struct {
	Name          string
	ElapsedCycles uint64
}

// Breakdown reports every Clocked block's final local clock value. Valid
// only after Run has returned.
func (r *Runtime) Breakdown() []BlockCycles {
	out := make([]BlockCycles, 0, len(r.blocks))
	for _, b := range r.blocks {
		c, ok := b.(block.Clocked)
		if !ok {
			continue
		}
		out = append(out, BlockCycles{Name: b.Identifier().String(), ElapsedCycles: c.ElapsedCycles()})
	}
	return out
}

func maxElapsedCycles(blocks []block.Block) uint64 {
	var max uint64
	for _, b := range blocks {
		c, ok := b.(block.Clocked)
		if !ok {
			continue
		}
		if v := c.ElapsedCycles(); v > max {
			max = v
		}
	}
	return max
}

// withWatchdog wraps run with a deadline derived from window, converting a
// deadline-exceeded context into a structured resource error (spec §7 kind
// 4: "worker panic, deadlock detected by the runtime's stall watchdog").
func withWatchdog(ctx context.Context, window time.Duration, run func(ctx context.Context) error) error {
	wctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(wctx)
	}()

	select {
	case err := <-done:
		return err
	case <-wctx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewResourceError(block.ID{}, fmt.Sprintf("no forward progress within %s: likely deadlock", window), wctx.Err())
	}
}

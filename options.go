package comal

import "fmt"

// Option configures a RuntimeConfig. Use NewRuntimeConfig(opts...) to build
// one.
type Option func(*RuntimeConfig)

// WithFlavorInference enables deterministic sequential scheduling.
func WithFlavorInference() Option {
	return func(c *RuntimeConfig) { c.RunFlavorInference = true }
}

// WithWorkers caps the number of parallel worker goroutines (parallel mode
// only; ignored under flavor inference). n == 0 selects the dynamic pool.
func WithWorkers(n uint) Option {
	return func(c *RuntimeConfig) { c.Workers = n }
}

// WithMaxElapsedCycles overrides the stall-watchdog safety net.
func WithMaxElapsedCycles(n uint64) Option {
	return func(c *RuntimeConfig) { c.MaxElapsedCycles = n }
}

// WithTimingPreset layers a named timing preset's Scanner/Joiner defaults
// under the config (SPEC_FULL.md §3 "Calibration / timing presets").
func WithTimingPreset(p TimingPreset) Option {
	return func(c *RuntimeConfig) {
		c.DefaultScanner = p.Scanner
		c.DefaultJoiner = p.Joiner
	}
}

// WithScannerTiming overrides the default per-scanner timing knobs.
func WithScannerTiming(t ScannerTiming) Option {
	return func(c *RuntimeConfig) { c.DefaultScanner = t }
}

// WithJoinerTiming overrides the default per-joiner timing knobs.
func WithJoinerTiming(t JoinerTiming) Option {
	return func(c *RuntimeConfig) { c.DefaultJoiner = t }
}

// NewRuntimeConfig builds a RuntimeConfig from functional options, starting
// from the package defaults.
func NewRuntimeConfig(opts ...Option) (*RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	for _, opt := range opts {
		if opt == nil {
			return nil, fmt.Errorf("%s: nil runtime config option", Namespace)
		}
		opt(&cfg)
	}
	if err := ValidateRuntimeConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%s: invalid runtime config: %w", Namespace, err)
	}
	return &cfg, nil
}

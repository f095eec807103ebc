package comal

// ScannerTiming models the per-scanner timing knobs recognized by the
// runtime configuration (spec §6.3). All fields are optional; zero means
// "use the default" except OutputLatency and SequentialInterval, whose
// defaults are 1 per spec §4.4.1.
type ScannerTiming struct {
	StartupDelay      uint64 `toml:"startup_delay"`
	DataLoadFactor    uint64 `toml:"data_load_factor"`
	InitialDelay      uint64 `toml:"initial_delay"`
	OutputLatency     uint64 `toml:"output_latency"`
	SequentialInterval uint64 `toml:"sequential_interval"`
}

// DefaultScannerTiming returns the §4.4.1 defaults: everything zero except
// OutputLatency=1 and SequentialInterval=1.
func DefaultScannerTiming() ScannerTiming {
	return ScannerTiming{OutputLatency: 1, SequentialInterval: 1}
}

// JoinerTiming models the per-joiner timing knobs recognized by the runtime
// configuration (spec §6.3).
type JoinerTiming struct {
	StartupDelay       uint64 `toml:"startup_delay"`
	StopLatency        uint64 `toml:"stop_latency"`
	OutputLatency      uint64 `toml:"output_latency"`
	SequentialInterval uint64 `toml:"sequential_interval"`
	ValStopDelay       uint64 `toml:"val_stop_delay"`
	ValAdvanceDelay    uint64 `toml:"val_advance_delay"`
}

// DefaultJoinerTiming returns the §4.4.1-style defaults for joiners: a unit
// cost of one cycle per iteration, nothing else charged.
func DefaultJoinerTiming() JoinerTiming {
	return JoinerTiming{OutputLatency: 1, SequentialInterval: 1}
}

// TimingPreset bundles a ScannerTiming/JoinerTiming pair under a name, a
// convenience layered under per-field overrides (SPEC_FULL.md §3,
// "Calibration / timing presets", grounded on
// original_source/src/templates/calibration.rs).
type TimingPreset struct {
	Name    string
	Scanner ScannerTiming
	Joiner  JoinerTiming
}

// Built-in presets. FastDRAM models a low-latency memory system; SlowDRAM
// models one with substantial per-access overhead, exercising the
// data_load_factor and stop_latency knobs at a larger scale.
var (
	FastDRAMPreset = TimingPreset{
		Name:    "fast-dram",
		Scanner: ScannerTiming{OutputLatency: 1, SequentialInterval: 1},
		Joiner:  JoinerTiming{OutputLatency: 1, SequentialInterval: 1},
	}
	SlowDRAMPreset = TimingPreset{
		Name:    "slow-dram",
		Scanner: ScannerTiming{StartupDelay: 10, DataLoadFactor: 2, InitialDelay: 4, OutputLatency: 2, SequentialInterval: 1},
		Joiner:  JoinerTiming{StartupDelay: 6, StopLatency: 2, OutputLatency: 2, SequentialInterval: 1, ValStopDelay: 1, ValAdvanceDelay: 1},
	}
)

// RuntimeConfig holds the runtime configuration recognized by the core
// (spec §6.3). It may be populated via functional options (NewRuntimeConfig)
// or decoded from a TOML file (LoadRuntimeConfigFile in graphcfg).
type RuntimeConfig struct {
	// RunFlavorInference enables deterministic sequential scheduling.
	// Default: false (parallel mode).
	RunFlavorInference bool `toml:"run_flavor_inference"`

	// Workers caps the number of parallel worker goroutines. Zero means a
	// dynamically growing pool (the runtime default).
	Workers uint `toml:"workers"`

	// MaxElapsedCycles bounds total execution cycles as a stall-watchdog
	// safety net (spec §4.1, §5); it is not semantic. Zero means "use the
	// runtime default" (DefaultMaxElapsedCycles).
	MaxElapsedCycles uint64 `toml:"max_elapsed_cycles"`

	DefaultScanner ScannerTiming `toml:"scanner"`
	DefaultJoiner  JoinerTiming  `toml:"joiner"`
}

// DefaultMaxElapsedCycles bounds a run absent an explicit override; it is a
// safety net against deadlocked graphs, not a semantic limit (spec §4.1).
const DefaultMaxElapsedCycles uint64 = 50_000_000

// DefaultRuntimeConfig returns the configuration NewRuntimeConfig starts
// from before applying Options, exported so alternate decoders (graphcfg's
// TOML loader) can seed the same defaults.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		RunFlavorInference: false,
		Workers:            0,
		MaxElapsedCycles:   DefaultMaxElapsedCycles,
		DefaultScanner:     DefaultScannerTiming(),
		DefaultJoiner:      DefaultJoinerTiming(),
	}
}

// ValidateRuntimeConfig normalizes and checks a decoded RuntimeConfig,
// exported for use by alternate decoders.
func ValidateRuntimeConfig(cfg *RuntimeConfig) error {
	if cfg.MaxElapsedCycles == 0 {
		cfg.MaxElapsedCycles = DefaultMaxElapsedCycles
	}
	return nil
}

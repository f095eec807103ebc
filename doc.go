// Package comal is a cycle-accurate discrete-event simulator for a streaming
// dataflow accelerator that executes sparse-tensor kernels. Programs are
// described as graphs of concurrent primitive blocks (scanners, joiners,
// repeaters, ALUs, accumulators, writers) connected by typed, bounded FIFO
// channels carrying control tokens; the simulator measures cycle counts
// while preserving token-level semantics.
//
// Construction
//   - NewProgram() starts a graph builder: Program.AddBlock registers a
//     block.Block, Program.Validate checks every wired channel has exactly
//     one producer and one consumer.
//   - Program.Build(ctx, *RuntimeConfig) turns a validated Program into a
//     Runtime.
//
// Execution modes (RuntimeConfig.RunFlavorInference)
//   - false (default): parallel mode. Every block runs on its own
//     goroutine, drawn from a worker pool sized by RuntimeConfig.Workers
//     (0 means a dynamically growing pool); synchronization happens only
//     through channels.
//   - true: flavor-inferred sequential mode. Blocks run on their own
//     goroutines as in parallel mode, but with GOMAXPROCS pinned to 1 for
//     the run's duration, so they interleave on a single OS thread. No
//     pass classifies blocks and no dependency order is computed.
//
// Results
// Runtime.Run returns a Result carrying the elapsed cycle count (the
// maximum final per-block local clock) and, on failure, a structured error
// naming the offending block and the graph-validation, protocol, input-data,
// or resource problem that aborted the run (see the four Err* kinds in
// errors.go).
package comal

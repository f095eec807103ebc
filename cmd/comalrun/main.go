// Command comalrun loads a graph description, its tensor inputs, and an
// optional runtime configuration, then simulates the graph and reports the
// terminal writers' contents and the elapsed cycle count (spec §6.5).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "go.uber.org/automaxprocs"

	comal "github.com/stanford-ppl/comal-go"
	"github.com/stanford-ppl/comal-go/graphcfg"
)

func main() {
	var (
		proto      = flag.String("proto", "", "path to the graph description TOML file (required)")
		dataDir    = flag.String("data", "", "directory holding tensor data files referenced by the graph")
		runtimeCfg = flag.String("runtime", "", "path to an optional runtime config TOML file")
		inference  = flag.Bool("inference", false, "run in deterministic flavor-inference (sequential) mode")
		workers    = flag.Uint("workers", 0, "cap on parallel worker goroutines (0 = dynamic pool, ignored under -inference)")
		breakdowns = flag.Bool("breakdowns", false, "print per-block elapsed-cycle breakdowns alongside the totals")
	)
	flag.Parse()

	if *proto == "" {
		fmt.Fprintln(os.Stderr, "comalrun: -proto is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*proto, *dataDir, *runtimeCfg, *inference, *workers, *breakdowns); err != nil {
		log.Fatalf("comalrun: %v", err)
	}
}

func run(proto, dataDir, runtimeCfgPath string, inference bool, workers uint, breakdowns bool) error {
	graph, err := graphcfg.LoadGraphFile(proto)
	if err != nil {
		return err
	}

	tensors, err := loadTensors(graph, dataDir)
	if err != nil {
		return err
	}

	built, err := graphcfg.Build(graph, tensors)
	if err != nil {
		return err
	}

	cfg := comal.DefaultRuntimeConfig()
	if runtimeCfgPath != "" {
		loaded, err := graphcfg.LoadRuntimeConfigFile(runtimeCfgPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if inference {
		cfg.RunFlavorInference = true
	}
	if workers != 0 {
		cfg.Workers = workers
	}

	rt, err := built.Program.Build(context.Background(), &cfg)
	if err != nil {
		return err
	}

	result := rt.Run(context.Background())
	if result.Err != nil {
		return result.Err
	}

	fmt.Printf("elapsed cycles: %d\n", result.ElapsedCycles)
	if breakdowns {
		for _, b := range rt.Breakdown() {
			fmt.Printf("  %-24s %d\n", b.Name, b.ElapsedCycles)
		}
	}

	for name, w := range built.ValWriters {
		fmt.Printf("%s: %v\n", name, w.Result())
	}
	for name, w := range built.CrdWriters {
		seg, crd := w.Result()
		fmt.Printf("%s: seg=%v crd=%v\n", name, seg, crd)
	}
	return nil
}

// loadTensors resolves every tensor name referenced by the graph's
// FiberLookup/Array operators' "tensor" param against dataDir, expecting the
// per-tensor file triple <name>.seg, <name>.crd, <name>.vals (spec §6.2; a
// tensor missing a file simply leaves that array empty, since not every mode
// needs every array).
func loadTensors(g *graphcfg.Graph, dataDir string) (map[string]graphcfg.TensorMode, error) {
	names := map[string]struct{}{}
	for _, op := range g.Operators {
		if name, ok := op.Params["tensor"]; ok && name != "" {
			names[name] = struct{}{}
		}
	}

	out := make(map[string]graphcfg.TensorMode, len(names))
	for name := range names {
		var tm graphcfg.TensorMode
		if segPath := filepath.Join(dataDir, name+".seg"); fileExists(segPath) {
			seg, err := graphcfg.LoadScalarFile(segPath)
			if err != nil {
				return nil, err
			}
			tm.Seg = seg
		}
		if crdPath := filepath.Join(dataDir, name+".crd"); fileExists(crdPath) {
			crd, err := graphcfg.LoadScalarFile(crdPath)
			if err != nil {
				return nil, err
			}
			tm.Crd = crd
		}
		if valsPath := filepath.Join(dataDir, name+".vals"); fileExists(valsPath) {
			vals, err := graphcfg.LoadValuesFile(valsPath)
			if err != nil {
				return nil, err
			}
			tm.Values = vals
		}
		out[name] = tm
	}
	return out, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

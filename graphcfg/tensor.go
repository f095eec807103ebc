package graphcfg

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TensorMode holds the three arrays a single CSF level (or the final
// values level) of a named tensor's mode contributes (spec §6.2): segment
// and coordinate arrays for a compressed level, or just the values array
// for the leaf.
type TensorMode struct {
	Seg    []uint64
	Crd    []uint64
	Values []float32
}

// LoadScalarFile reads the on-disk format spec §6.2 names: one scalar per
// line, text-encoded. Blank lines are skipped. It is used for segment,
// coordinate, and shape files alike; the float-valued leaf array is read by
// LoadValuesFile, a separate parser of the same line format.
func LoadScalarFile(path string) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("graphcfg: open %s: %w", path, err)
	}
	defer f.Close()

	var out []uint64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("graphcfg: %s:%d: %w", path, line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("graphcfg: read %s: %w", path, err)
	}
	return out, nil
}

// LoadValuesFile reads a tensor's values array, one float per line.
func LoadValuesFile(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("graphcfg: open %s: %w", path, err)
	}
	defer f.Close()

	var out []float32
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, fmt.Errorf("graphcfg: %s:%d: %w", path, line, err)
		}
		out = append(out, float32(v))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("graphcfg: read %s: %w", path, err)
	}
	return out, nil
}

// LoadShapeFile reads a tensor's per-mode dimension sizes, one per line
// (spec §6.2's "separate shape file per tensor").
func LoadShapeFile(path string) ([]uint64, error) {
	return LoadScalarFile(path)
}

package graphcfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadScalarFileSkipsBlankLinesAndParsesEachValue(t *testing.T) {
	path := writeFile(t, "seg.txt", "0\n\n3\n5\n")

	got, err := LoadScalarFile(path)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 3, 5}, got)
}

func TestLoadScalarFileRejectsNonIntegerLine(t *testing.T) {
	path := writeFile(t, "seg.txt", "0\nnot-a-number\n")

	_, err := LoadScalarFile(path)
	require.Error(t, err)
}

func TestLoadScalarFileRejectsMissingFile(t *testing.T) {
	_, err := LoadScalarFile("/nonexistent/path/seg.txt")
	require.Error(t, err)
}

func TestLoadValuesFileParsesFloatsAndSkipsBlankLines(t *testing.T) {
	path := writeFile(t, "vals.txt", "1.5\n\n2.25\n-3\n")

	got, err := LoadValuesFile(path)
	require.NoError(t, err)
	require.Equal(t, []float32{1.5, 2.25, -3}, got)
}

func TestLoadShapeFileDelegatesToLoadScalarFile(t *testing.T) {
	path := writeFile(t, "shape.txt", "4\n8\n")

	got, err := LoadShapeFile(path)
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 8}, got)
}

package graphcfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func twoOpGraph() *Graph {
	return &Graph{Operators: []Operator{
		{Name: "root", Kind: KindRoot, Outputs: []StreamEndpoint{{Kind: StreamCoord, ID: 1}}},
		{Name: "writer", Kind: KindFiberWrite, Inputs: []StreamEndpoint{{Kind: StreamCoord, ID: 1}}},
	}}
}

func TestGraphValidateAcceptsWellFormedGraph(t *testing.T) {
	g := &Graph{Operators: []Operator{
		{Name: "root", Kind: KindRoot, Outputs: []StreamEndpoint{{Kind: StreamCoord, ID: 1}}},
		{Name: "lookup", Kind: KindFiberLookup,
			Inputs:  []StreamEndpoint{{Kind: StreamCoord, ID: 1}},
			Outputs: []StreamEndpoint{{Kind: StreamCoord, ID: 2}, {Kind: StreamCoord, ID: 3}}},
		{Name: "sink", Kind: KindFiberWrite, Inputs: []StreamEndpoint{{Kind: StreamCoord, ID: 2}}},
	}}
	require.NoError(t, g.Validate())
}

func TestGraphValidateRejectsEmptyGraph(t *testing.T) {
	require.Error(t, (&Graph{}).Validate())
}

func TestGraphValidateRejectsDanglingConsumer(t *testing.T) {
	g := &Graph{Operators: []Operator{
		{Name: "sink", Kind: KindValWrite, Inputs: []StreamEndpoint{{Kind: StreamValue, ID: 9}}},
	}}
	require.Error(t, g.Validate())
}

func TestGraphValidateRejectsDuplicateProducer(t *testing.T) {
	g := &Graph{Operators: []Operator{
		{Name: "a", Kind: KindRoot, Outputs: []StreamEndpoint{{Kind: StreamCoord, ID: 1}}},
		{Name: "b", Kind: KindRoot, Outputs: []StreamEndpoint{{Kind: StreamCoord, ID: 1}}},
	}}
	require.Error(t, g.Validate())
}

func TestGraphValidateRejectsDuplicateOperatorName(t *testing.T) {
	g := &Graph{Operators: []Operator{
		{Name: "a", Kind: KindRoot, Outputs: []StreamEndpoint{{Kind: StreamCoord, ID: 1}}},
		{Name: "a", Kind: KindRoot, Outputs: []StreamEndpoint{{Kind: StreamCoord, ID: 2}}},
	}}
	require.Error(t, g.Validate())
}

func TestStreamEndpointIsVoid(t *testing.T) {
	require.True(t, StreamEndpoint{Kind: StreamCoord, ID: VoidStreamID}.IsVoid())
	require.False(t, StreamEndpoint{Kind: StreamCoord, ID: 1}.IsVoid())
}

func TestBuildWiresRootIntoTerminalWriter(t *testing.T) {
	built, err := Build(twoOpGraph(), nil)
	require.NoError(t, err)
	require.NoError(t, built.Program.Validate())
	require.Contains(t, built.CrdWriters, "writer")
}

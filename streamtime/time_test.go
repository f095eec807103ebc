package streamtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimeStartsAtZero(t *testing.T) {
	tm := NewTime()
	require.Equal(t, Cycle(0), tm.Tick())
}

func TestTimeIncrCyclesAccumulates(t *testing.T) {
	tm := NewTime()
	tm.IncrCycles(3)
	tm.IncrCycles(4)
	require.Equal(t, Cycle(7), tm.Tick())
}

func TestTimeIncrCyclesZeroIsNoop(t *testing.T) {
	tm := NewTime()
	tm.IncrCycles(5)
	tm.IncrCycles(0)
	require.Equal(t, Cycle(5), tm.Tick())
}

func TestTimeAdvanceToNeverMovesBackward(t *testing.T) {
	tm := NewTime()
	tm.AdvanceTo(10)
	require.Equal(t, Cycle(10), tm.Tick())
	tm.AdvanceTo(3)
	require.Equal(t, Cycle(10), tm.Tick())
	tm.AdvanceTo(15)
	require.Equal(t, Cycle(15), tm.Tick())
}

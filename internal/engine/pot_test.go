package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatWithChips(id, collected int, folded bool) *Seat {
	return &Seat{ID: id, Active: true, Collected: collected, Folded: folded}
}

func TestComputePotsSingleLevel(t *testing.T) {
	t.Parallel()

	pots := computePots([]*Seat{
		seatWithChips(0, 100, false),
		seatWithChips(1, 100, false),
		seatWithChips(2, 100, false),
	})
	require.Len(t, pots, 1)
	assert.Equal(t, 300, pots[0].Amount)
	assert.Equal(t, []int{0, 1, 2}, pots[0].Eligible)
	assert.Equal(t, "POT", pots[0].Label)
}

// The classic three-way all-in: 100, 500 and 1000 produce a 300 main pot
// for everyone, an 800 side pot for the two larger stacks, and a 500
// degenerate side pot the covering stack gets back.
func TestComputePotsThreeWayAllIn(t *testing.T) {
	t.Parallel()

	pots := computePots([]*Seat{
		seatWithChips(0, 100, false),
		seatWithChips(1, 500, false),
		seatWithChips(2, 1000, false),
	})
	require.Len(t, pots, 3)

	assert.Equal(t, 300, pots[0].Amount)
	assert.Equal(t, []int{0, 1, 2}, pots[0].Eligible)

	assert.Equal(t, 800, pots[1].Amount)
	assert.Equal(t, []int{1, 2}, pots[1].Eligible)
	assert.Equal(t, "SIDE POT 1", pots[1].Label)

	assert.Equal(t, 500, pots[2].Amount)
	assert.Equal(t, []int{2}, pots[2].Eligible)

	assert.Equal(t, 1600, potTotal(pots))
}

func TestComputePotsDeadMoneyStaysInSegments(t *testing.T) {
	t.Parallel()

	// Seat 1 folded after contributing 60: its chips stay in the main pot
	// but it is not eligible anywhere.
	pots := computePots([]*Seat{
		seatWithChips(0, 100, false),
		seatWithChips(1, 60, true),
		seatWithChips(2, 100, false),
	})
	require.Len(t, pots, 1)
	assert.Equal(t, 260, pots[0].Amount)
	assert.Equal(t, []int{0, 2}, pots[0].Eligible)
}

func TestComputePotsFoldedOverContributor(t *testing.T) {
	t.Parallel()

	// A folded seat that out-contributed every live seat: the excess folds
	// into the last pot rather than vanishing.
	pots := computePots([]*Seat{
		seatWithChips(0, 100, false),
		seatWithChips(1, 300, true),
		seatWithChips(2, 100, false),
	})
	assert.Equal(t, 500, potTotal(pots))
	last := pots[len(pots)-1]
	assert.NotContains(t, last.Eligible, 1)
}

func TestComputePotsUnevenLiveStacks(t *testing.T) {
	t.Parallel()

	pots := computePots([]*Seat{
		seatWithChips(0, 250, false),
		seatWithChips(1, 250, false),
		seatWithChips(2, 90, false),
		seatWithChips(3, 40, true),
	})
	require.Len(t, pots, 2)
	assert.Equal(t, 90*3+40, pots[0].Amount)
	assert.Equal(t, []int{0, 1, 2}, pots[0].Eligible)
	assert.Equal(t, 160*2, pots[1].Amount)
	assert.Equal(t, []int{0, 1}, pots[1].Eligible)
	assert.Equal(t, 630, potTotal(pots))
}

package engine

import (
	"testing"

	poker "github.com/paulhankin/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/holdem/internal/deck"
	"github.com/cardroom/holdem/internal/rng"
)

func hand7(t *testing.T, names ...string) deck.Hand {
	t.Helper()
	require.Len(t, names, 7)
	h := deck.Hand(0)
	for _, n := range names {
		h = h.Add(deck.MustParseCard(n))
	}
	require.Equal(t, 7, h.CountCards(), "duplicate card in %v", names)
	return h
}

func TestEvaluate7Categories(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		cards []string
		want  HandCategory
	}{
		{"royal flush", []string{"As", "Ks", "Qs", "Js", "Ts", "2c", "3d"}, StraightFlush},
		{"wheel straight flush", []string{"Ah", "2h", "3h", "4h", "5h", "Kc", "Kd"}, StraightFlush},
		{"quads", []string{"9c", "9d", "9h", "9s", "Ac", "2d", "3h"}, FourOfAKind},
		{"full house", []string{"Kc", "Kd", "Kh", "2c", "2d", "7s", "8h"}, FullHouse},
		{"double trips is a full house", []string{"Kc", "Kd", "Kh", "2c", "2d", "2s", "8h"}, FullHouse},
		{"flush", []string{"As", "Js", "8s", "5s", "2s", "Kc", "Kd"}, Flush},
		{"straight", []string{"9c", "8d", "7h", "6s", "5c", "Ac", "Ad"}, Straight},
		{"wheel", []string{"Ac", "2d", "3h", "4s", "5c", "9d", "Jh"}, Straight},
		{"trips", []string{"7c", "7d", "7h", "Ac", "Kd", "2s", "4h"}, ThreeOfAKind},
		{"two pair", []string{"Ac", "Ad", "Kc", "Kd", "2h", "7s", "9c"}, TwoPair},
		{"pair", []string{"Ac", "Ad", "Kc", "Qd", "9h", "7s", "2c"}, Pair},
		{"high card", []string{"Ac", "Kd", "Qc", "9h", "7s", "5d", "2c"}, HighCard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate7(hand7(t, tc.cards...))
			assert.Equal(t, tc.want, got.Category(), "got %s", got)
		})
	}
}

func TestEvaluate7KickerOrdering(t *testing.T) {
	t.Parallel()

	// Same pair, better kicker wins.
	aceKing := Evaluate7(hand7(t, "Ac", "Ad", "Kc", "Qd", "9h", "7s", "2c"))
	aceQueen := Evaluate7(hand7(t, "Ah", "As", "Qc", "Jd", "9d", "7c", "2d"))
	assert.Greater(t, aceKing, aceQueen)

	// Higher two pair beats lower two pair regardless of kickers.
	acesUp := Evaluate7(hand7(t, "Ac", "Ad", "2c", "2d", "3h", "5s", "7c"))
	kingsUp := Evaluate7(hand7(t, "Kc", "Kd", "Qc", "Qd", "Ah", "Js", "9c"))
	assert.Greater(t, acesUp, kingsUp)

	// Identical ranks in different suits tie exactly.
	a := Evaluate7(hand7(t, "Ac", "Kd", "Qc", "9h", "7s", "5d", "2c"))
	b := Evaluate7(hand7(t, "Ad", "Kh", "Qs", "9c", "7d", "5c", "2h"))
	assert.Equal(t, a, b)

	// The wheel loses to a six-high straight.
	wheel := Evaluate7(hand7(t, "Ac", "2d", "3h", "4s", "5c", "9d", "Jh"))
	sixHigh := Evaluate7(hand7(t, "2c", "3d", "4h", "5s", "6c", "9h", "Jd"))
	assert.Greater(t, sixHigh, wheel)
}

// Three pairs on board plus hole: only the best two pairs count, with the
// best remaining card as kicker.
func TestEvaluate7ThreePairsPicksBestKicker(t *testing.T) {
	t.Parallel()

	r := Evaluate7(hand7(t, "Ac", "Ad", "Kc", "Kd", "2h", "2s", "Qc"))
	require.Equal(t, TwoPair, r.Category())

	worse := Evaluate7(hand7(t, "Ah", "As", "Kh", "Ks", "3c", "3d", "Jc"))
	assert.Greater(t, r, worse, "queen kicker must beat jack kicker")
}

func toPH(t *testing.T, c deck.Card) poker.Card {
	t.Helper()
	suits := [4]poker.Suit{poker.Club, poker.Diamond, poker.Heart, poker.Spade}
	r := poker.Rank(int(c.Rank()) + 2)
	if c.Rank() == deck.Ace {
		r = poker.Rank(1)
	}
	card, err := poker.MakeCard(suits[c.Suit()], r)
	require.NoError(t, err)
	return card
}

func eval7PH(t *testing.T, h deck.Hand) int16 {
	t.Helper()
	cards := h.Cards()
	require.Len(t, cards, 7)
	var a7 [7]poker.Card
	for i, c := range cards {
		a7[i] = toPH(t, c)
	}
	return poker.Eval7(&a7)
}

// Cross-check hand ordering against an independent evaluator over many
// random deals.
func TestEvaluate7AgreesWithReferenceEvaluator(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 300; seed++ {
		d := deck.New(rng.New(seed))
		a := deck.NewHand(d.Deal(7)...)
		b := deck.NewHand(d.Deal(7)...)

		mine := compareOrd(Evaluate7(a), Evaluate7(b))
		ref := compareOrd(eval7PH(t, a), eval7PH(t, b))
		require.Equal(t, ref, mine,
			"seed %d: %v vs %v ranked %s / %s", seed, a.Strings(), b.Strings(),
			Evaluate7(a), Evaluate7(b))
	}
}

func compareOrd[T int16 | HandRank](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

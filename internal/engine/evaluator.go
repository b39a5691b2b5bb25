package engine

import (
	"math/bits"

	"github.com/cardroom/holdem/internal/deck"
)

// HandCategory is the class of a five-card hand, ordered weakest to
// strongest.
type HandCategory uint32

const (
	HighCard HandCategory = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (c HandCategory) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandRank encodes a hand's strength so that a straight uint32 comparison
// orders hands correctly: the category occupies the top 4 bits and up to
// five decisive ranks follow as nibbles, most significant first.
type HandRank uint32

// Category returns the hand's category.
func (r HandRank) Category() HandCategory {
	return HandCategory(r >> 28)
}

func (r HandRank) String() string {
	return r.Category().String()
}

func rankOf(cat HandCategory, vals ...uint8) HandRank {
	r := HandRank(cat) << 28
	for i, v := range vals {
		r |= HandRank(v) << uint(4*(4-i))
	}
	return r
}

// Evaluate7 returns the rank of the best five-card hand among seven cards
// (two hole cards plus the full board).
func Evaluate7(h deck.Hand) HandRank {
	if flushSuit := flushSuitOf(h); flushSuit >= 0 {
		suited := h.SuitMask(uint8(flushSuit))
		if high := straightHigh(suited); high >= 0 {
			return rankOf(StraightFlush, uint8(high))
		}
		return rankOf(Flush, topRanks(suited, 5)...)
	}

	counts := countRanks(h)

	if quad := highestWithCount(counts, 4); quad >= 0 {
		kicker := topKickers(counts, 1, quad)
		return rankOf(FourOfAKind, uint8(quad), kicker[0])
	}

	trips := highestWithCount(counts, 3)
	if trips >= 0 {
		if pair := highestPairBelowTrips(counts, trips); pair >= 0 {
			return rankOf(FullHouse, uint8(trips), uint8(pair))
		}
	}

	if high := straightHigh(h.RankMaskAll()); high >= 0 {
		return rankOf(Straight, uint8(high))
	}

	if trips >= 0 {
		k := topKickers(counts, 2, trips)
		return rankOf(ThreeOfAKind, uint8(trips), k[0], k[1])
	}

	hi := highestWithAtLeast(counts, 2)
	if hi >= 0 {
		lo := highestWithAtLeastExcept(counts, 2, hi)
		if lo >= 0 {
			k := topKickers(counts, 1, hi, lo)
			return rankOf(TwoPair, uint8(hi), uint8(lo), k[0])
		}
		k := topKickers(counts, 3, hi)
		return rankOf(Pair, uint8(hi), k[0], k[1], k[2])
	}

	k := topKickers(counts, 5)
	return rankOf(HighCard, k...)
}

func countRanks(h deck.Hand) [13]uint8 {
	var counts [13]uint8
	for suit := uint8(0); suit < 4; suit++ {
		mask := h.SuitMask(suit)
		for rank := 0; rank < 13; rank++ {
			if mask&(1<<rank) != 0 {
				counts[rank]++
			}
		}
	}
	return counts
}

// flushSuitOf returns the suit holding five or more cards, or -1.
func flushSuitOf(h deck.Hand) int {
	for suit := uint8(0); suit < 4; suit++ {
		if bits.OnesCount16(h.SuitMask(suit)) >= 5 {
			return int(suit)
		}
	}
	return -1
}

// straightHigh returns the high rank of the best straight within the rank
// mask, or -1. The wheel (A-2-3-4-5) reports a five-high straight.
func straightHigh(rankMask uint16) int {
	for high := 12; high >= 4; high-- {
		window := uint16(0x1F) << (high - 4)
		if rankMask&window == window {
			return high
		}
	}
	if rankMask&0x100F == 0x100F {
		return 3
	}
	return -1
}

func highestWithCount(counts [13]uint8, n uint8) int {
	for rank := 12; rank >= 0; rank-- {
		if counts[rank] == n {
			return rank
		}
	}
	return -1
}

func highestWithAtLeast(counts [13]uint8, n uint8) int {
	for rank := 12; rank >= 0; rank-- {
		if counts[rank] >= n {
			return rank
		}
	}
	return -1
}

func highestWithAtLeastExcept(counts [13]uint8, n uint8, except int) int {
	for rank := 12; rank >= 0; rank-- {
		if rank != except && counts[rank] >= n {
			return rank
		}
	}
	return -1
}

// highestPairBelowTrips finds the best pair (or second trips) filling a full
// house around the given trips rank.
func highestPairBelowTrips(counts [13]uint8, trips int) int {
	for rank := 12; rank >= 0; rank-- {
		if rank != trips && counts[rank] >= 2 {
			return rank
		}
	}
	return -1
}

// topKickers returns the n highest ranks present, skipping excluded ranks.
func topKickers(counts [13]uint8, n int, except ...int) []uint8 {
	out := make([]uint8, 0, n)
	for rank := 12; rank >= 0 && len(out) < n; rank-- {
		skip := false
		for _, e := range except {
			if rank == e {
				skip = true
				break
			}
		}
		if !skip && counts[rank] > 0 {
			out = append(out, uint8(rank))
		}
	}
	return out
}

// topRanks returns the n highest set bits of the mask, descending.
func topRanks(mask uint16, n int) []uint8 {
	out := make([]uint8, 0, n)
	for rank := 12; rank >= 0 && len(out) < n; rank-- {
		if mask&(1<<rank) != 0 {
			out = append(out, uint8(rank))
		}
	}
	return out
}

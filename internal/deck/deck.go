package deck

import (
	rand "math/rand/v2"
)

// Deck represents a standard 52-card deck dealt sequentially. The shuffle is
// a Fisher-Yates driven by the supplied RNG, so the same stream always
// produces the same deal order.
type Deck struct {
	cards [52]Card
	next  int
}

// New creates a new shuffled deck from the deal stream.
func New(rng *rand.Rand) *Deck {
	d := &Deck{}

	i := 0
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}

	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	return d
}

// Deal deals n cards from the top of the deck. Returns nil when the deck
// does not hold n more cards.
func (d *Deck) Deal(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	cards := d.cards[d.next : d.next+n]
	d.next += n
	return cards
}

// DealOne deals a single card.
func (d *Deck) DealOne() Card {
	cards := d.Deal(1)
	if cards == nil {
		return 0
	}
	return cards[0]
}

// Remaining returns how many cards are left.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}

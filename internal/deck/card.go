// Package deck provides card primitives and a seeded 52-card deck.
package deck

import (
	"fmt"
	"math/bits"
)

// Card represents a single card as a bit position in a uint64.
// Layout: [13 spades][13 hearts][13 diamonds][13 clubs].
type Card uint64

// Hand is also a uint64 but can contain multiple cards.
// Multiple cards are represented by multiple bits set.
type Hand uint64

// Suit constants
const (
	Clubs    uint8 = 0
	Diamonds uint8 = 1
	Hearts   uint8 = 2
	Spades   uint8 = 3
)

// Rank constants (0-12 for 2-A)
const (
	Two   uint8 = 0
	Three uint8 = 1
	Four  uint8 = 2
	Five  uint8 = 3
	Six   uint8 = 4
	Seven uint8 = 5
	Eight uint8 = 6
	Nine  uint8 = 7
	Ten   uint8 = 8
	Jack  uint8 = 9
	Queen uint8 = 10
	King  uint8 = 11
	Ace   uint8 = 12
)

const (
	ranks = "23456789TJQKA"
	suits = "cdhs"

	// RankMask covers the 13 rank bits of a single suit.
	RankMask = 0x1FFF
)

// NewCard creates a card from rank and suit.
func NewCard(rank, suit uint8) Card {
	return Card(1) << (suit*13 + rank)
}

// BitPosition returns which bit position this card occupies (0-51),
// or 255 for the zero Card.
func (c Card) BitPosition() uint8 {
	if c == 0 {
		return 255
	}
	return uint8(bits.TrailingZeros64(uint64(c)))
}

// Rank returns the rank of the card (0-12).
func (c Card) Rank() uint8 {
	pos := c.BitPosition()
	if pos == 255 {
		return 255
	}
	return pos % 13
}

// Suit returns the suit of the card (0-3).
func (c Card) Suit() uint8 {
	pos := c.BitPosition()
	if pos == 255 {
		return 255
	}
	return pos / 13
}

// String returns the two-character form (e.g. "As", "Td").
func (c Card) String() string {
	rank := c.Rank()
	suit := c.Suit()
	if rank > 12 || suit > 3 {
		return "??"
	}
	return string(ranks[rank]) + string(suits[suit])
}

// ParseCard parses a string like "As" into a Card.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card string: %q", s)
	}

	rank := -1
	for i := 0; i < len(ranks); i++ {
		if s[0] == ranks[i] {
			rank = i
			break
		}
	}
	suit := -1
	for i := 0; i < len(suits); i++ {
		if s[1] == suits[i] {
			suit = i
			break
		}
	}
	if rank < 0 || suit < 0 {
		return 0, fmt.Errorf("invalid card string: %q", s)
	}
	return NewCard(uint8(rank), uint8(suit)), nil
}

// MustParseCard parses a card string and panics on error. Test helper.
func MustParseCard(s string) Card {
	c, err := ParseCard(s)
	if err != nil {
		panic(err)
	}
	return c
}

// NewHand builds a Hand from individual cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// Add returns the hand with the card added.
func (h Hand) Add(c Card) Hand {
	return h | Hand(c)
}

// Contains reports whether the hand includes the card.
func (h Hand) Contains(c Card) bool {
	return h&Hand(c) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// SuitMask returns the 13-bit rank mask for one suit.
func (h Hand) SuitMask(suit uint8) uint16 {
	return uint16((uint64(h) >> (suit * 13)) & RankMask)
}

// RankMaskAll returns the union of rank bits across all suits.
func (h Hand) RankMaskAll() uint16 {
	var mask uint16
	for suit := uint8(0); suit < 4; suit++ {
		mask |= h.SuitMask(suit)
	}
	return mask
}

// Cards returns the cards in the hand in bit order.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	rest := uint64(h)
	for rest != 0 {
		bit := rest & -rest
		cards = append(cards, Card(bit))
		rest &^= bit
	}
	return cards
}

// Strings returns the string form of every card in the hand.
func (h Hand) Strings() []string {
	cards := h.Cards()
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

package engine

import "github.com/cardroom/holdem/internal/deck"

// PlayerKind distinguishes human-controlled seats from bot seats.
type PlayerKind string

const (
	Human PlayerKind = "human"
	Bot   PlayerKind = "bot"
)

// Seat is one position at the table. Stack persists across hands; the
// per-hand fields are reset when a new hand starts.
type Seat struct {
	ID   int
	Name string
	Kind PlayerKind

	Stack     int
	StreetBet int // chips in front, not yet swept into a pot
	Collected int // chips swept into pots this hand
	Folded    bool
	AllIn     bool
	Active    bool // dealt into the current hand
	HoleCards []deck.Card
}

// CanAct reports whether the seat still takes betting actions.
func (s *Seat) CanAct() bool {
	return s.Active && !s.Folded && !s.AllIn
}

// InHand reports whether the seat still contests the pot.
func (s *Seat) InHand() bool {
	return s.Active && !s.Folded
}

// Committed is the seat's total wager this hand.
func (s *Seat) Committed() int {
	return s.StreetBet + s.Collected
}

func (s *Seat) resetForHand() {
	s.StreetBet = 0
	s.Collected = 0
	s.Folded = false
	s.AllIn = false
	s.HoleCards = nil
	s.Active = s.Stack > 0
}

// TableConfig describes the fixed parameters of a table.
type TableConfig struct {
	NumSeats      int   `json:"num_seats"`
	SmallBlind    int   `json:"small_blind"`
	BigBlind      int   `json:"big_blind"`
	StartingStack int   `json:"starting_stack"`
	Seed          int64 `json:"seed"`
}

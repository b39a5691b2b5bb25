package engine

import (
	"encoding/json"
	"fmt"
)

// Street represents the betting round.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
	Ended
)

var streetNames = [...]string{"preflop", "flop", "turn", "river", "showdown", "ended"}

func (s Street) String() string {
	if s < Preflop || s > Ended {
		return "unknown"
	}
	return streetNames[s]
}

// MarshalJSON encodes the street as its lowercase name.
func (s Street) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a street from its lowercase name.
func (s *Street) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range streetNames {
		if n == name {
			*s = Street(i)
			return nil
		}
	}
	return fmt.Errorf("unknown street %q", name)
}

// ActionType represents a betting action.
type ActionType int

const (
	Fold ActionType = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

var actionNames = [...]string{"fold", "check", "call", "bet", "raise", "all_in"}

func (a ActionType) String() string {
	if a < Fold || a > AllIn {
		return "unknown"
	}
	return actionNames[a]
}

// ParseActionType resolves a wire name such as "raise" or "all_in".
func ParseActionType(name string) (ActionType, error) {
	for i, n := range actionNames {
		if n == name {
			return ActionType(i), nil
		}
	}
	return Fold, fmt.Errorf("unknown action %q", name)
}

// MarshalJSON encodes the action as its wire name.
func (a ActionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an action from its wire name.
func (a *ActionType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range actionNames {
		if n == name {
			*a = ActionType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", name)
}

// bettingRound holds the wagering state for the current street.
type bettingRound struct {
	currentBet    int // highest street wager
	minRaise      int // size of the last full raise increment
	lastAggressor int
	acted         []bool
	bbActed       bool
	bigBlind      int
}

func newBettingRound(numSeats, bigBlind int) *bettingRound {
	return &bettingRound{
		minRaise:      bigBlind,
		lastAggressor: -1,
		acted:         make([]bool, numSeats),
		bigBlind:      bigBlind,
	}
}

// reset prepares the round for a new street. bbActed survives: it only
// matters preflop.
func (br *bettingRound) reset() {
	br.currentBet = 0
	br.minRaise = br.bigBlind
	br.lastAggressor = -1
	for i := range br.acted {
		br.acted[i] = false
	}
}

func (br *bettingRound) markActed(seat int) {
	if seat >= 0 && seat < len(br.acted) {
		br.acted[seat] = true
	}
}

// reopen clears acted flags after a full raise: everyone must respond again.
func (br *bettingRound) reopen(aggressor int) {
	for i := range br.acted {
		br.acted[i] = false
	}
	br.acted[aggressor] = true
}

// complete reports whether the street's betting is closed: every seat that
// can still act has matched the highest wager and acted since the last full
// raise, with the big blind retaining its preflop option.
func (h *Hand) bettingComplete() bool {
	br := h.betting

	active := 0
	for _, s := range h.seats {
		if s.CanAct() {
			active++
		}
	}
	if active == 0 {
		return true
	}

	for _, s := range h.seats {
		if s.CanAct() && s.StreetBet != br.currentBet {
			return false
		}
	}
	// A lone player who has matched every wager faces only all-in
	// opponents; there is nobody left to bet against.
	if active == 1 {
		return true
	}
	for i, s := range h.seats {
		if s.CanAct() && !br.acted[i] {
			return false
		}
	}

	// Preflop the big blind still gets its option after limps.
	if h.street == Preflop && br.lastAggressor == -1 {
		bb := h.seats[h.bbSeat]
		if bb.CanAct() && !br.bbActed {
			return false
		}
	}
	return true
}

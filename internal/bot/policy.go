// Package bot implements the table's built-in opponent policy. Decisions
// are a pure function of the legal action set, the stack and the supplied
// RNG, so the same derived stream always reproduces the same choice.
package bot

import (
	rand "math/rand/v2"

	"github.com/cardroom/holdem/internal/engine"
)

const (
	// aggressionRate is how often the bot opens or raises when it could
	// settle for the passive line.
	aggressionRate = 0.14

	// Price thresholds scale with the stack so short stacks defend wider.
	cheapCallFloor = 200
	steepCallFloor = 450

	steepFoldRate = 0.55
	midFoldRate   = 0.35
)

// Policy is the default bot. It plays a loose-passive baseline with an
// occasional aggressive line so hands do not degenerate into check-downs.
type Policy struct{}

// New returns the default policy.
func New() Policy {
	return Policy{}
}

// Choose picks an action from the allowed set.
func (Policy) Choose(allowed engine.AllowedActions, stack int, r *rand.Rand) engine.BotDecision {
	roll := r.Float64()

	if allowed.CanCheck {
		if roll < aggressionRate && allowed.CanBet {
			to := sizeWager(allowed.MinBetTo, allowed.MaxRaiseTo, r)
			return engine.BotDecision{Action: engine.Bet, AmountTo: &to}
		}
		return engine.BotDecision{Action: engine.Check}
	}

	call := allowed.CallAmount
	cheap := max(cheapCallFloor, stack/6)
	steep := max(steepCallFloor, stack/3)

	switch {
	case call >= steep:
		if roll < steepFoldRate {
			return engine.BotDecision{Action: engine.Fold}
		}
	case call > cheap:
		if roll < midFoldRate {
			return engine.BotDecision{Action: engine.Fold}
		}
	default:
		if roll < aggressionRate && allowed.CanRaise {
			to := sizeWager(allowed.MinRaiseTo, allowed.MaxRaiseTo, r)
			return engine.BotDecision{Action: engine.Raise, AmountTo: &to}
		}
	}
	return engine.BotDecision{Action: engine.Call}
}

// sizeWager picks one of four anchors between the minimum and maximum legal
// wager: the minimum, a third of the span, half the span, or the shove.
func sizeWager(minTo, maxTo int, r *rand.Rand) int {
	if maxTo <= minTo {
		return maxTo
	}
	span := maxTo - minTo
	anchors := [4]int{minTo, minTo + span/3, minTo + span/2, maxTo}
	return anchors[r.IntN(len(anchors))]
}

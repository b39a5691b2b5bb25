package engine

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardroom/holdem/internal/rng"
)

// Bot think delays are derived, not sampled at decision time, so a replay
// reproduces the exact ACTION payloads the live hand emitted.
const (
	thinkDelayFloorMs = 650
	thinkDelaySpanMs  = 750
)

// botThinkDelay derives the think delay used for a bot acting at the given
// point. preActionSeq is the hand's action sequence before the action is
// applied.
func botThinkDelay(delaySeed int64, preActionSeq, seat int) int {
	r := rng.New(rng.Derive(delaySeed, preActionSeq+seat, rng.LabelDelay))
	return thinkDelayFloorMs + r.IntN(thinkDelaySpanMs)
}

// ReplayReport is the outcome of re-deriving a hand from its history.
type ReplayReport struct {
	Checks         map[string]bool `json:"checks"`
	DivergedAt     int             `json:"diverged_at"`
	DivergedField  string          `json:"diverged_field"`
	TerminalStacks []int           `json:"terminal_stacks"`
	Board          []string        `json:"board"`
	EndReason      string          `json:"end_reason"`
}

// OK reports whether every check passed.
func (r *ReplayReport) OK() bool {
	for _, ok := range r.Checks {
		if !ok {
			return false
		}
	}
	return true
}

// Replay rebuilds the hand from the history's seeds and configuration,
// re-applies the recorded actions, and compares the derived event log and
// terminal state against the recorded ones.
func Replay(hist *HandHistory) (*ReplayReport, error) {
	if hist.EngineVersion != "" && hist.EngineVersion != EngineVersion {
		return nil, fmt.Errorf("history written by engine %s, verifier is %s",
			hist.EngineVersion, EngineVersion)
	}
	if hist.RulesetVersion != "" && hist.RulesetVersion != RulesetVersion {
		return nil, fmt.Errorf("history uses ruleset %s, verifier knows %s",
			hist.RulesetVersion, RulesetVersion)
	}

	seats := make([]*Seat, len(hist.InitialStacksBySeat))
	for i, stack := range hist.InitialStacksBySeat {
		s := &Seat{ID: i, Stack: stack, Kind: Bot}
		if i < len(hist.SeatNames) {
			s.Name = hist.SeatNames[i]
		}
		if i < len(hist.SeatKinds) {
			s.Kind = hist.SeatKinds[i]
		}
		seats[i] = s
	}

	logger := log.New(io.Discard)
	h, rerr := newHand(handParams{
		tableID:   hist.TableID,
		id:        hist.HandID,
		cfg:       hist.Config,
		button:    hist.DealerButtonSeat,
		dealSeed:  hist.DealSeed,
		botSeed:   hist.BotDecisionSeed,
		delaySeed: hist.BotDelaySeed,
	}, seats, quartz.NewReal(), logger)
	if rerr != nil {
		return nil, fmt.Errorf("rebuilding hand: %w", rerr)
	}

	actionsOK := true
	for _, row := range hist.Actions {
		amount := 0
		if row.AmountTo != nil {
			amount = *row.AmountTo
		}
		var delay *int
		if row.Seat < len(seats) && seats[row.Seat].Kind == Bot {
			d := botThinkDelay(hist.BotDelaySeed, row.ActionSeq-1, row.Seat)
			delay = &d
		}
		if err := h.apply(row.Seat, row.Action, amount, delay); err != nil {
			actionsOK = false
			break
		}
	}

	report := &ReplayReport{
		Checks:         make(map[string]bool),
		DivergedAt:     -1,
		TerminalStacks: h.stacks(),
		Board:          cardNames(h.board),
		EndReason:      h.endReason,
	}

	// A session-ending hand carries a trailing SESSION_END appended by the
	// table; the rebuilt hand stops at HAND_END.
	recorded := hist.Events
	if n := len(recorded); n > 0 && recorded[n-1].Type == EventSessionEnd {
		recorded = recorded[:n-1]
	}
	divergedAt, divergedField := compareEvents(h.events, recorded)
	report.DivergedAt = divergedAt
	report.DivergedField = divergedField

	seqOK := true
	for i, e := range hist.Events {
		if e.EventSeq != i {
			seqOK = false
			break
		}
	}

	initial, final := 0, 0
	for i, stack := range hist.InitialStacksBySeat {
		if stack > 0 {
			initial += stack
			final += h.seats[i].Stack
		}
	}

	report.Checks["action_replay_match"] = actionsOK
	report.Checks["hand_terminated"] = h.ended && h.violation == nil
	report.Checks["chip_conservation"] = initial == final
	report.Checks["event_seq_monotonic"] = seqOK
	report.Checks["event_log_match"] = divergedAt == -1
	report.Checks["state_hash_match"] = h.chainHash == hist.StateHash
	report.Checks["terminal_stacks_match"] = equalInts(h.stacks(), hist.FinalStacksBySeat)
	return report, nil
}

// compareEvents walks both logs in lockstep. Recorded logs may come from a
// viewer export where unrevealed hole cards are masked; a DEAL_CARD event
// with a nil card is compared on position only.
func compareEvents(derived []Envelope, recorded []Envelope) (int, string) {
	n := min(len(derived), len(recorded))
	for i := 0; i < n; i++ {
		d, r := derived[i], recorded[i]
		if d.EventSeq != r.EventSeq {
			return i, "event_seq"
		}
		if d.Type != r.Type {
			return i, "event_type"
		}
		if d.Type == EventDealCard && maskedDealCard(r.Payload) {
			continue
		}
		if StableHash(d.Payload) != StableHash(r.Payload) {
			return i, "payload"
		}
	}
	if len(derived) != len(recorded) {
		return n, "event_count"
	}
	return -1, ""
}

// maskedDealCard detects a deal event whose card was stripped by a viewer
// export. The payload may be a typed struct or a decoded JSON object.
func maskedDealCard(payload any) bool {
	switch p := payload.(type) {
	case DealCardPayload:
		return p.Card == nil
	case map[string]any:
		v, ok := p["card"]
		return !ok || v == nil
	default:
		return false
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

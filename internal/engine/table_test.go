package engine

import (
	"io"
	rand "math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPolicy mixes calls, folds and min-sized aggression so driven hands
// reach showdowns, uncontested wins and side pots.
type testPolicy struct{}

func (testPolicy) Choose(allowed AllowedActions, stack int, r *rand.Rand) BotDecision {
	roll := r.Float64()
	if allowed.CanCheck {
		if roll < 0.25 && allowed.CanBet {
			to := allowed.MinBetTo
			return BotDecision{Action: Bet, AmountTo: &to}
		}
		return BotDecision{Action: Check}
	}
	switch {
	case roll < 0.15 && allowed.CanRaise:
		to := allowed.MinRaiseTo
		return BotDecision{Action: Raise, AmountTo: &to}
	case roll < 0.35:
		return BotDecision{Action: Fold}
	default:
		return BotDecision{Action: Call}
	}
}

func testTable(t *testing.T, numSeats, startingStack int, seed int64) *Table {
	t.Helper()
	cfg := TableConfig{
		NumSeats:      numSeats,
		SmallBlind:    50,
		BigBlind:      100,
		StartingStack: startingStack,
		Seed:          seed,
	}
	return NewTable("tbl_test", cfg, testPolicy{}, WithLogger(log.New(io.Discard)))
}

// driveHand plays the current hand to completion: bots via RunBots, the
// human on autopilot (check, else call, else fold). Returns the hand id.
func driveHand(t *testing.T, tbl *Table) int {
	t.Helper()
	if tbl.hand == nil {
		// Blinds put everyone all-in and the hand ran out while dealing.
		return tbl.nextHandID - 1
	}
	id := tbl.hand.id

	for i := 0; i < 500; i++ {
		tbl.RunBots()
		h := tbl.hand
		if h == nil {
			return id
		}
		require.Equal(t, humanTestSeat, h.actionOn, "only the human can be left to act")

		allowed := tbl.AllowedActions(humanTestSeat)
		intent := Intent{ActionSeq: h.actionSeq + 1}
		switch {
		case allowed.CanCheck:
			intent.Action = Check
		case allowed.CanCall:
			intent.Action = Call
		default:
			intent.Action = Fold
		}
		res := tbl.SubmitIntent(humanTestSeat, intent)
		require.True(t, res.Accepted, "autopilot intent rejected: %v", res.Err)
	}
	t.Fatal("hand did not terminate")
	return id
}

const humanTestSeat = 0

func TestTablePlaysAHand(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 42)
	res, err := tbl.StartHand()
	require.Nil(t, err)
	require.NotNil(t, res.View.HandID)
	assert.Equal(t, 1, *res.View.HandID)
	assert.Equal(t, EventHandStart, res.Events[0].Type)

	id := driveHand(t, tbl)
	assert.Equal(t, 1, id)
	assert.Nil(t, tbl.hand)
	require.Contains(t, tbl.completed, 1)

	hist := tbl.completed[1].full
	assert.Equal(t, EngineVersion, hist.EngineVersion)
	assert.NotEmpty(t, hist.Events)

	total := 0
	for _, s := range tbl.seats {
		total += s.Stack
	}
	assert.Equal(t, 30000, total, "chips are conserved across the hand")
}

func TestTableSecondHandMovesButton(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 7)
	_, err := tbl.StartHand()
	require.Nil(t, err)
	firstButton := tbl.button
	driveHand(t, tbl)

	_, err = tbl.StartHand()
	require.Nil(t, err)
	assert.Equal(t, (firstButton+1)%3, tbl.button)
	assert.Equal(t, 2, tbl.hand.id)
	driveHand(t, tbl)
}

func TestTableRejectsConcurrentHand(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 8)
	_, err := tbl.StartHand()
	require.Nil(t, err)

	_, err = tbl.StartHand()
	require.NotNil(t, err)
	assert.Equal(t, CodeHandRunning, err.Code)
}

func TestTableStaleSequence(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 9)
	_, err := tbl.StartHand()
	require.Nil(t, err)
	tbl.RunBots()
	require.NotNil(t, tbl.hand)
	require.Equal(t, humanTestSeat, tbl.hand.actionOn)

	res := tbl.SubmitIntent(humanTestSeat, Intent{Action: Fold, ActionSeq: tbl.hand.actionSeq + 5})
	require.False(t, res.Accepted)
	assert.Equal(t, CodeStaleSequence, res.Err.Code)
	assert.False(t, tbl.hand.seats[humanTestSeat].Folded, "stale intent must not apply")
}

func TestTableDuplicateIntent(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 10)
	_, err := tbl.StartHand()
	require.Nil(t, err)
	tbl.RunBots()
	h := tbl.hand
	require.NotNil(t, h)
	require.Equal(t, humanTestSeat, h.actionOn)

	seq := h.actionSeq + 1
	res := tbl.SubmitIntent(humanTestSeat, Intent{Action: Call, ActionSeq: seq})
	require.True(t, res.Accepted, "call rejected: %v", res.Err)

	dup := tbl.SubmitIntent(humanTestSeat, Intent{Action: Call, ActionSeq: seq})
	require.False(t, dup.Accepted)
	assert.Equal(t, CodeDuplicateIntent, dup.Err.Code)
}

func TestTableIdempotencyKey(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 11)
	_, err := tbl.StartHand()
	require.Nil(t, err)
	tbl.RunBots()
	h := tbl.hand
	require.NotNil(t, h)
	require.Equal(t, humanTestSeat, h.actionOn)

	intent := Intent{Action: Call, ActionSeq: h.actionSeq + 1, IdempotencyKey: "req-1"}
	first := tbl.SubmitIntent(humanTestSeat, intent)
	require.True(t, first.Accepted, "call rejected: %v", first.Err)
	seqAfter := h.actionSeq

	// The retransmit returns the original response without replaying the
	// action.
	second := tbl.SubmitIntent(humanTestSeat, intent)
	assert.Same(t, first, second)
	assert.Equal(t, seqAfter, h.actionSeq)
}

func TestTableSessionOutcomeAndRestart(t *testing.T) {
	t.Parallel()

	// Tiny stacks force a bust quickly.
	tbl := testTable(t, 2, 300, 12)
	for i := 0; i < 100 && tbl.Outcome() == OutcomeRunning; i++ {
		_, err := tbl.StartHand()
		require.Nil(t, err)
		driveHand(t, tbl)
	}
	outcome := tbl.Outcome()
	require.NotEqual(t, OutcomeRunning, outcome, "someone must bust eventually")

	lastID := tbl.nextHandID - 1
	hist, herr := tbl.ExportHistory(lastID, ExportFull)
	require.Nil(t, herr)
	last := hist.Events[len(hist.Events)-1]
	assert.Equal(t, EventSessionEnd, last.Type)

	_, err := tbl.StartHand()
	require.NotNil(t, err, "no hands once the session is decided")

	tbl.RestartSession()
	assert.Equal(t, OutcomeRunning, tbl.Outcome())
	for _, s := range tbl.seats {
		assert.Equal(t, 300, s.Stack)
	}
	_, err = tbl.StartHand()
	require.Nil(t, err)
	assert.Greater(t, tbl.hand.id, lastID, "hand ids never repeat on a table")
	driveHand(t, tbl)
}

func TestTableDeterministicAcrossInstances(t *testing.T) {
	t.Parallel()

	a := testTable(t, 3, 10000, 99)
	b := testTable(t, 3, 10000, 99)

	for hand := 0; hand < 3; hand++ {
		if a.Outcome() != OutcomeRunning {
			break
		}
		_, err := a.StartHand()
		require.Nil(t, err)
		_, err = b.StartHand()
		require.Nil(t, err)
		idA := driveHand(t, a)
		idB := driveHand(t, b)
		require.Equal(t, idA, idB)

		assert.Equal(t, a.completed[idA].full.StateHash, b.completed[idB].full.StateHash,
			"same seed and same inputs must produce identical hands")
	}
}

func TestTableMockClockTimestamps(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	cfg := TableConfig{NumSeats: 2, SmallBlind: 50, BigBlind: 100, StartingStack: 5000, Seed: 5}
	tbl := NewTable("tbl_clock", cfg, testPolicy{},
		WithLogger(log.New(io.Discard)), WithClock(clock))

	res, err := tbl.StartHand()
	require.Nil(t, err)
	now := clock.Now()
	for _, e := range res.Events {
		assert.Equal(t, now, e.TS)
	}
}

func TestTableHandCompleteHook(t *testing.T) {
	t.Parallel()

	var got []*HandHistory
	cfg := TableConfig{NumSeats: 3, SmallBlind: 50, BigBlind: 100, StartingStack: 10000, Seed: 3}
	tbl := NewTable("tbl_hook", cfg, testPolicy{},
		WithLogger(log.New(io.Discard)),
		WithHandCompleteHook(func(h *HandHistory) { got = append(got, h) }))

	_, err := tbl.StartHand()
	require.Nil(t, err)
	id := driveHand(t, tbl)

	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].HandID)
}

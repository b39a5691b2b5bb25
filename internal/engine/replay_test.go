package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playHands runs a table for up to n completed hands and returns their full
// histories.
func playHands(t *testing.T, tbl *Table, n int) []*HandHistory {
	t.Helper()
	var hists []*HandHistory
	for i := 0; i < n && tbl.Outcome() == OutcomeRunning; i++ {
		_, err := tbl.StartHand()
		require.Nil(t, err)
		id := driveHand(t, tbl)
		hist, herr := tbl.ExportHistory(id, ExportFull)
		require.Nil(t, herr)
		hists = append(hists, hist)
	}
	return hists
}

// Every hand a table produces must replay cleanly from its recorded seeds
// and actions, across many seeds and table sizes.
func TestReplayRoundTrip(t *testing.T) {
	t.Parallel()

	for seed := int64(1); seed <= 8; seed++ {
		for _, numSeats := range []int{2, 3, 6} {
			tbl := testTable(t, numSeats, 10000, seed)
			for _, hist := range playHands(t, tbl, 4) {
				report, err := Replay(hist)
				require.NoError(t, err)
				require.True(t, report.OK(),
					"seed %d seats %d hand %d: failed checks %v (diverged at %d, %s)",
					seed, numSeats, hist.HandID, report.Checks,
					report.DivergedAt, report.DivergedField)
				assert.Equal(t, hist.FinalStacksBySeat, report.TerminalStacks)
				assert.Equal(t, hist.BoardCards, report.Board)
				assert.Equal(t, hist.HandEndReason, report.EndReason)
			}
		}
	}
}

// Replay must survive a JSON round trip, which is how the verifier command
// actually receives histories.
func TestReplayAfterJSONRoundTrip(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 77)
	hists := playHands(t, tbl, 2)
	require.NotEmpty(t, hists)

	data, err := json.Marshal(hists[0])
	require.NoError(t, err)
	var decoded HandHistory
	require.NoError(t, json.Unmarshal(data, &decoded))

	report, rerr := Replay(&decoded)
	require.NoError(t, rerr)
	assert.True(t, report.OK(), "failed checks %v (diverged at %d, %s)",
		report.Checks, report.DivergedAt, report.DivergedField)
}

func TestReplayDetectsTamperedStacks(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 31)
	hist := playHands(t, tbl, 1)[0]
	hist.FinalStacksBySeat[0] += 10

	report, err := Replay(hist)
	require.NoError(t, err)
	assert.False(t, report.Checks["terminal_stacks_match"])
	assert.False(t, report.OK())
}

func TestReplayDetectsTamperedEvents(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 32)
	hist := playHands(t, tbl, 1)[0]

	tampered := false
	for i, e := range hist.Events {
		if e.Type == EventAction {
			p := e.Payload.(ActionPayload)
			p.Seat = (p.Seat + 1) % 3
			hist.Events[i].Payload = p
			tampered = true
			break
		}
	}
	require.True(t, tampered, "hand had no actions to tamper with")

	report, err := Replay(hist)
	require.NoError(t, err)
	assert.False(t, report.Checks["event_log_match"])
	assert.NotEqual(t, -1, report.DivergedAt)
	assert.Equal(t, "payload", report.DivergedField)
}

func TestReplayViewerExport(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 33)
	_, err := tbl.StartHand()
	require.Nil(t, err)
	id := driveHand(t, tbl)

	hist, herr := tbl.ExportHistory(id, ExportViewer)
	require.Nil(t, herr)

	// The human's own cards are always present.
	for _, c := range hist.HoleCardsBySeat[0] {
		assert.NotNil(t, c)
	}
	revealed := make(map[int]bool)
	for _, seat := range hist.RevealedSeats {
		revealed[seat] = true
	}
	for seat, cards := range hist.HoleCardsBySeat {
		if seat == 0 || revealed[seat] {
			continue
		}
		for _, c := range cards {
			assert.Nil(t, c, "seat %d never showed, cards must be masked", seat)
		}
	}

	// Masked deal events are compared on position only, so a viewer export
	// still verifies.
	report, rerr := Replay(hist)
	require.NoError(t, rerr)
	assert.True(t, report.OK(), "failed checks %v (diverged at %d, %s)",
		report.Checks, report.DivergedAt, report.DivergedField)
}

func TestReplayRejectsForeignVersions(t *testing.T) {
	t.Parallel()

	tbl := testTable(t, 3, 10000, 34)
	hist := playHands(t, tbl, 1)[0]
	hist.RulesetVersion = "nlhe-cash-0"

	_, err := Replay(hist)
	assert.Error(t, err)
}

package engine

// Version strings stamped into every exported history so a verifier can
// refuse logs produced under different rules.
const (
	EngineVersion  = "1.0.0"
	RulesetVersion = "nlhe-cash-1"
)

// Export modes for hand histories.
const (
	ExportFull   = "full"
	ExportViewer = "viewer"
)

// HandHistory is the persistent record of one completed hand: everything a
// verifier needs to re-derive the hand from seeds and re-apply its actions.
type HandHistory struct {
	HandID              int               `json:"hand_id"`
	TableID             string            `json:"table_id"`
	Config              TableConfig       `json:"config"`
	SeatNames           []string          `json:"seat_names"`
	SeatKinds           []PlayerKind      `json:"seat_kinds"`
	InitialStacksBySeat []int             `json:"initial_stacks_by_seat"`
	FinalStacksBySeat   []int             `json:"final_stacks_by_seat"`
	DealerButtonSeat    int               `json:"dealer_button_seat"`
	SBSeat              int               `json:"sb_seat"`
	BBSeat              int               `json:"bb_seat"`
	DealSeed            int64             `json:"deal_seed"`
	BotDecisionSeed     int64             `json:"bot_decision_seed"`
	BotDelaySeed        int64             `json:"bot_delay_seed"`
	EngineVersion       string            `json:"engine_version"`
	RulesetVersion      string            `json:"ruleset_version"`
	HoleCardsBySeat     [][]*string       `json:"hole_cards_by_seat"`
	BoardCards          []string          `json:"board_cards"`
	Actions             []ActionRow       `json:"actions"`
	PotBreakdown        []PotAwardPayload `json:"pot_breakdown"`
	Showdown            *ShowdownPayload  `json:"showdown"`
	RevealedSeats       []int             `json:"revealed_seats"`
	HandEndReason       string            `json:"hand_end_reason"`
	EventCount          int               `json:"event_count"`
	Events              []Envelope        `json:"events"`
	StateHash           string            `json:"state_hash"`
}

// buildHistory snapshots a finished hand. The full mode keeps every hole
// card; the viewer mode masks hole cards and deal events for seats whose
// cards were never revealed, except the human seat's own cards.
func (h *Hand) buildHistory(initialStacks []int, mode string, viewer int) *HandHistory {
	hist := &HandHistory{
		HandID:              h.id,
		TableID:             h.tableID,
		Config:              h.cfg,
		InitialStacksBySeat: initialStacks,
		FinalStacksBySeat:   h.stacks(),
		DealerButtonSeat:    h.button,
		SBSeat:              h.sbSeat,
		BBSeat:              h.bbSeat,
		DealSeed:            h.dealSeed,
		BotDecisionSeed:     h.botSeed,
		BotDelaySeed:        h.delaySeed,
		EngineVersion:       EngineVersion,
		RulesetVersion:      RulesetVersion,
		BoardCards:          cardNames(h.board),
		Actions:             append([]ActionRow(nil), h.actions...),
		PotBreakdown:        append([]PotAwardPayload(nil), h.potAwards...),
		Showdown:            h.showdown,
		HandEndReason:       h.endReason,
		EventCount:          len(h.events),
		StateHash:           h.chainHash,
	}

	for _, s := range h.seats {
		hist.SeatNames = append(hist.SeatNames, s.Name)
		hist.SeatKinds = append(hist.SeatKinds, s.Kind)
	}
	for seat := range h.seats {
		if h.revealed[seat] {
			hist.RevealedSeats = append(hist.RevealedSeats, seat)
		}
	}

	masked := func(seat int) bool {
		return mode == ExportViewer && seat != viewer && !h.revealed[seat]
	}

	for seat, s := range h.seats {
		cards := make([]*string, len(s.HoleCards))
		if !masked(seat) {
			for i, c := range s.HoleCards {
				cs := c.String()
				cards[i] = &cs
			}
		}
		hist.HoleCardsBySeat = append(hist.HoleCardsBySeat, cards)
	}

	hist.Events = make([]Envelope, len(h.events))
	copy(hist.Events, h.events)
	if mode == ExportViewer {
		for i, e := range hist.Events {
			deal, ok := e.Payload.(DealCardPayload)
			if !ok || !masked(deal.ToSeat) {
				continue
			}
			deal.Card = nil
			hist.Events[i].Payload = deal
		}
	}
	return hist
}

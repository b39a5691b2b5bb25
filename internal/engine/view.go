package engine

import "sort"

// SeatView is one seat as a particular viewer sees it. Cards holds nil
// entries for hole cards the viewer is not entitled to see.
type SeatView struct {
	SeatID         int        `json:"seat_id"`
	PlayerType     PlayerKind `json:"player_type"`
	DisplayName    string     `json:"display_name"`
	Stack          int        `json:"stack"`
	HasFolded      bool       `json:"has_folded"`
	IsAllIn        bool       `json:"is_all_in"`
	IsBusted       bool       `json:"is_busted"`
	RoleBadge      string     `json:"role_badge"`
	IsDealerButton bool       `json:"is_dealer_button"`
	Cards          []*string  `json:"cards"`
}

// ShowdownRow summarizes one revealed hand at showdown.
type ShowdownRow struct {
	SeatID        int      `json:"seat_id"`
	PlayerName    string   `json:"player_name"`
	HoleCards     []string `json:"hole_cards"`
	BestHandName  string   `json:"best_hand_name"`
	HandRankValue uint32   `json:"hand_rank_value"`
	AmountWon     int      `json:"amount_won"`
}

// ShowdownPayload lists winners by amount won and losers by hand strength.
type ShowdownPayload struct {
	Winners []ShowdownRow `json:"winners"`
	Losers  []ShowdownRow `json:"losers"`
}

// ViewState is the complete table snapshot rendered for one viewer seat.
// Hole cards belonging to other players are masked until revealed.
type ViewState struct {
	TableID         string           `json:"table_id"`
	HandID          *int             `json:"hand_id"`
	SessionOutcome  string           `json:"session_outcome"`
	Seats           []SeatView       `json:"seats"`
	BoardCards      []string         `json:"board_cards"`
	Pots            []Pot            `json:"pots"`
	ChipsInFront    []int            `json:"chips_in_front"`
	ActionOnSeat    *int             `json:"action_on_seat"`
	ActionLog       []ActionRow      `json:"action_log"`
	ServerActionSeq int              `json:"server_action_seq"`
	AllowedActions  AllowedActions   `json:"allowed_actions"`
	Showdown        *ShowdownPayload `json:"showdown_payload"`
	StateHash       string           `json:"state_hash"`
	InvariantHash   string           `json:"invariant_hash"`
}

const actionLogWindow = 12

// view renders the hand for one viewer. The viewer sees its own hole cards
// plus any cards revealed at showdown; everything else is masked.
func (h *Hand) view(viewer int) ViewState {
	id := h.id
	v := ViewState{
		TableID:         h.tableID,
		HandID:          &id,
		BoardCards:      cardNames(h.board),
		Pots:            computePots(h.seats),
		ChipsInFront:    make([]int, len(h.seats)),
		ServerActionSeq: h.actionSeq,
		Showdown:        h.showdown,
	}

	for i, s := range h.seats {
		v.ChipsInFront[i] = s.StreetBet
		v.Seats = append(v.Seats, SeatView{
			SeatID:         s.ID,
			PlayerType:     s.Kind,
			DisplayName:    s.Name,
			Stack:          s.Stack,
			HasFolded:      s.Folded,
			IsAllIn:        s.AllIn,
			IsBusted:       s.Stack == 0 && !s.Active,
			RoleBadge:      h.roleBadge(i),
			IsDealerButton: i == h.button,
			Cards:          h.visibleCards(viewer, i),
		})
	}

	if !h.ended && h.actionOn != -1 {
		on := h.actionOn
		v.ActionOnSeat = &on
		v.AllowedActions = h.allowedFor(viewer)
	}

	start := 0
	if len(h.actions) > actionLogWindow {
		start = len(h.actions) - actionLogWindow
	}
	v.ActionLog = append(v.ActionLog, h.actions[start:]...)

	v.StateHash = h.chainHash
	v.InvariantHash = h.invariantHash()
	return v
}

func (h *Hand) roleBadge(seat int) string {
	switch seat {
	case h.sbSeat:
		return "SB"
	case h.bbSeat:
		return "BB"
	case h.button:
		return "D"
	default:
		return ""
	}
}

// visibleCards returns the target seat's hole cards as the viewer may see
// them: own cards always, others only once revealed at showdown.
func (h *Hand) visibleCards(viewer, target int) []*string {
	s := h.seats[target]
	if len(s.HoleCards) == 0 {
		return nil
	}
	out := make([]*string, len(s.HoleCards))
	if viewer == target || h.revealed[target] {
		for i, c := range s.HoleCards {
			cs := c.String()
			out[i] = &cs
		}
	}
	return out
}

// invariantHash digests the chip state that conservation is checked over,
// so two replicas can compare positions cheaply.
func (h *Hand) invariantHash() string {
	type seatChips struct {
		Seat      int  `json:"seat"`
		Stack     int  `json:"stack"`
		StreetBet int  `json:"street_bet"`
		Collected int  `json:"collected"`
		Folded    bool `json:"folded"`
		AllIn     bool `json:"all_in"`
	}
	rows := make([]seatChips, len(h.seats))
	for i, s := range h.seats {
		rows[i] = seatChips{
			Seat: s.ID, Stack: s.Stack, StreetBet: s.StreetBet,
			Collected: s.Collected, Folded: s.Folded, AllIn: s.AllIn,
		}
	}
	return StableHash(map[string]any{
		"street": h.street.String(),
		"seats":  rows,
		"board":  cardNames(h.board),
	})
}

// buildShowdownPayload assembles the winners and losers tables from the
// evaluated ranks and pot awards.
func (h *Hand) buildShowdownPayload(ranks map[int]HandRank) *ShowdownPayload {
	p := &ShowdownPayload{}
	for _, s := range h.seats {
		if !s.InHand() {
			continue
		}
		row := ShowdownRow{
			SeatID:        s.ID,
			PlayerName:    s.Name,
			HoleCards:     cardNames(s.HoleCards),
			BestHandName:  ranks[s.ID].String(),
			HandRankValue: uint32(ranks[s.ID]),
			AmountWon:     h.amountWon[s.ID],
		}
		if row.AmountWon > 0 {
			p.Winners = append(p.Winners, row)
		} else {
			p.Losers = append(p.Losers, row)
		}
	}
	sort.SliceStable(p.Winners, func(i, j int) bool {
		return p.Winners[i].AmountWon > p.Winners[j].AmountWon
	})
	sort.SliceStable(p.Losers, func(i, j int) bool {
		return p.Losers[i].HandRankValue > p.Losers[j].HandRankValue
	})
	return p
}

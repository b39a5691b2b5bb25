package engine

import "time"

// EventType names a record in a hand's append-only event log.
type EventType string

const (
	EventHandStart        EventType = "HAND_START"
	EventPostBlind        EventType = "POST_BLIND"
	EventDealCard         EventType = "DEAL_CARD"
	EventAction           EventType = "ACTION"
	EventStreetEndCollect EventType = "STREET_END_COLLECT"
	EventBoardReveal      EventType = "BOARD_REVEAL"
	EventShowdownReveal   EventType = "SHOWDOWN_REVEAL"
	EventPotAward         EventType = "POT_AWARD"
	EventStackUpdate      EventType = "STACK_UPDATE"
	EventHandEnd          EventType = "HAND_END"
	EventSessionEnd       EventType = "SESSION_END"
)

// Envelope wraps an event payload with its position in the hand's log.
// EventSeq starts at zero for every hand and increases by one per event.
// The timestamp is informational only and never participates in hashing.
type Envelope struct {
	TableID  string    `json:"table_id"`
	HandID   int       `json:"hand_id"`
	EventSeq int       `json:"event_seq"`
	TS       time.Time `json:"ts"`
	Type     EventType `json:"event_type"`
	Payload  any       `json:"payload"`
}

type HandStartPayload struct {
	HandID         int   `json:"hand_id"`
	Button         int   `json:"dealer_button_seat"`
	SBSeat         int   `json:"sb_seat"`
	BBSeat         int   `json:"bb_seat"`
	StartingStacks []int `json:"starting_stacks"`
}

type PostBlindPayload struct {
	Seat   int    `json:"seat"`
	Amount int    `json:"amount"`
	Kind   string `json:"kind"`
}

// DealCardPayload records one hole card going to a seat. Card is nil in
// viewer-masked exports for seats whose cards were never revealed.
type DealCardPayload struct {
	ToSeat    int     `json:"to_seat"`
	CardIndex int     `json:"card_index"`
	Card      *string `json:"card"`
}

type ActionPayload struct {
	Seat         int    `json:"seat"`
	Action       string `json:"action"`
	AmountTo     *int   `json:"amount_to"`
	ThinkDelayMs *int   `json:"think_delay_ms"`
}

type StreetEndPayload struct {
	Street    Street `json:"street"`
	Collected []int  `json:"collected"`
}

type BoardRevealPayload struct {
	Street Street   `json:"street"`
	Cards  []string `json:"cards"`
}

type ShowdownRevealPayload struct {
	Seat      int      `json:"seat"`
	HoleCards []string `json:"hole_cards"`
}

// SeatAmount pairs a seat with a chip amount, used for pot winners and
// odd-chip grants.
type SeatAmount struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
}

type PotAwardPayload struct {
	PotID    int          `json:"pot_id"`
	Amount   int          `json:"amount"`
	Eligible []int        `json:"eligible_seats"`
	Winners  []SeatAmount `json:"winners"`
	OddChips []SeatAmount `json:"odd_chips"`
}

type StackUpdatePayload struct {
	Seat     int `json:"seat"`
	NewStack int `json:"new_stack"`
}

type HandEndPayload struct {
	Reason      string `json:"reason"`
	FinalStacks []int  `json:"final_stacks"`
}

type SessionEndPayload struct {
	Outcome string `json:"outcome"`
}

package engine

import (
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardroom/holdem/internal/deck"
	"github.com/cardroom/holdem/internal/rng"
)

// ActionRow is the compact record of one accepted action, sufficient to
// re-drive the hand during replay.
type ActionRow struct {
	StepIndex int        `json:"step_index"`
	ActionSeq int        `json:"action_seq"`
	Seat      int        `json:"seat"`
	Action    ActionType `json:"action"`
	AmountTo  *int       `json:"amount_to"`
	Street    Street     `json:"street"`
}

// AllowedActions enumerates what the seat may legally do right now, with
// exact chip bounds. All fields are zero for seats not holding the action.
type AllowedActions struct {
	CanFold        bool `json:"can_fold"`
	CanCheck       bool `json:"can_check"`
	CanCall        bool `json:"can_call"`
	CallAmount     int  `json:"call_amount"`
	CanBet         bool `json:"can_bet"`
	MinBetTo       int  `json:"min_bet_to"`
	CanRaise       bool `json:"can_raise"`
	MinRaiseTo     int  `json:"min_raise_to"`
	MaxRaiseTo     int  `json:"max_raise_to"`
	CanAllIn       bool `json:"can_all_in"`
	PotSize        int  `json:"pot_size"`
	EffectiveStack int  `json:"effective_stack"`
}

type handParams struct {
	tableID   string
	id        int
	cfg       TableConfig
	button    int
	dealSeed  int64
	botSeed   int64
	delaySeed int64
}

// Hand is the authoritative state of a single hand. All mutation goes
// through apply; reads for views and histories happen under the owning
// table's lock.
type Hand struct {
	id      int
	tableID string
	cfg     TableConfig
	logger  *log.Logger
	clock   quartz.Clock

	seats  []*Seat
	button int
	sbSeat int
	bbSeat int

	street   Street
	board    []deck.Card
	deck     *deck.Deck
	betting  *bettingRound
	actionOn int

	dealSeed  int64
	botSeed   int64
	delaySeed int64

	events    []Envelope
	eventSeq  int
	chainHash string

	actionSeq int
	actions   []ActionRow

	idem      map[string]*SubmitResult
	idemOrder []string

	revealed  map[int]bool
	showdown  *ShowdownPayload
	potAwards []PotAwardPayload
	amountWon map[int]int

	startTotal int
	endReason  string
	ended      bool
	violation  *Error
}

func newHand(p handParams, seats []*Seat, clock quartz.Clock, logger *log.Logger) (*Hand, *Error) {
	h := &Hand{
		id:        p.id,
		tableID:   p.tableID,
		cfg:       p.cfg,
		logger:    logger,
		clock:     clock,
		seats:     seats,
		button:    p.button,
		dealSeed:  p.dealSeed,
		botSeed:   p.botSeed,
		delaySeed: p.delaySeed,
		idem:      make(map[string]*SubmitResult),
		revealed:  make(map[int]bool),
		amountWon: make(map[int]int),
	}

	active := 0
	for _, s := range h.seats {
		s.resetForHand()
		if s.Active {
			active++
			h.startTotal += s.Stack
		}
	}
	if active < 2 {
		return nil, reject(CodeNotEnoughPlayers, "need at least 2 funded seats, have %d", active)
	}
	if !h.seats[h.button].Active {
		return nil, reject(CodeNotEnoughPlayers, "dealer button on a busted seat")
	}

	// Heads-up the button posts the small blind.
	if active == 2 {
		h.sbSeat = h.button
		h.bbSeat = h.nextActive(h.button + 1)
	} else {
		h.sbSeat = h.nextActive(h.button + 1)
		h.bbSeat = h.nextActive(h.sbSeat + 1)
	}

	h.deck = deck.New(rng.New(h.dealSeed))
	h.betting = newBettingRound(len(h.seats), h.cfg.BigBlind)

	h.emit(EventHandStart, HandStartPayload{
		HandID:         h.id,
		Button:         h.button,
		SBSeat:         h.sbSeat,
		BBSeat:         h.bbSeat,
		StartingStacks: h.stacks(),
	})
	h.logger.Info("hand started",
		"table", h.tableID, "hand", h.id,
		"button", h.button, "sb", h.sbSeat, "bb", h.bbSeat)

	h.postBlind(h.sbSeat, h.cfg.SmallBlind, "small_blind")
	h.postBlind(h.bbSeat, h.cfg.BigBlind, "big_blind")
	h.betting.currentBet = h.cfg.BigBlind

	h.dealHoleCards()

	if active == 2 {
		h.actionOn = h.sbSeat
	} else {
		h.actionOn = h.nextToAct(h.bbSeat + 1)
	}
	if h.actionOn != -1 && !h.seats[h.actionOn].CanAct() {
		h.actionOn = h.nextToAct(h.actionOn + 1)
	}

	h.checkInvariants()
	h.advance()
	return h, h.violation
}

func (h *Hand) postBlind(seat, blind int, kind string) {
	s := h.seats[seat]
	amount := min(blind, s.Stack)
	h.commit(s, amount)
	h.emit(EventPostBlind, PostBlindPayload{Seat: seat, Amount: amount, Kind: kind})
}

// dealHoleCards deals one card at a time around the table, twice, starting
// left of the button.
func (h *Hand) dealHoleCards() {
	first := h.nextActive(h.button + 1)
	for round := 0; round < 2; round++ {
		seat := first
		for {
			s := h.seats[seat]
			card := h.deck.DealOne()
			s.HoleCards = append(s.HoleCards, card)
			cs := card.String()
			h.emit(EventDealCard, DealCardPayload{
				ToSeat:    seat,
				CardIndex: round,
				Card:      &cs,
			})
			seat = h.nextActive(seat + 1)
			if seat == first {
				break
			}
		}
	}
}

func (h *Hand) emit(t EventType, payload any) {
	e := Envelope{
		TableID:  h.tableID,
		HandID:   h.id,
		EventSeq: h.eventSeq,
		TS:       h.clock.Now(),
		Type:     t,
		Payload:  payload,
	}
	h.eventSeq++
	h.events = append(h.events, e)
	h.chainHash = chainEventHash(h.chainHash, e)
}

func (h *Hand) stacks() []int {
	out := make([]int, len(h.seats))
	for i, s := range h.seats {
		out[i] = s.Stack
	}
	return out
}

// nextActive returns the next seat dealt into the hand, scanning clockwise
// from the given index, or -1.
func (h *Hand) nextActive(from int) int {
	n := len(h.seats)
	for i := 0; i < n; i++ {
		idx := ((from % n) + n + i) % n
		if h.seats[idx].Active {
			return idx
		}
	}
	return -1
}

// nextToAct returns the next seat that can still take actions, or -1.
func (h *Hand) nextToAct(from int) int {
	n := len(h.seats)
	for i := 0; i < n; i++ {
		idx := ((from % n) + n + i) % n
		if h.seats[idx].CanAct() {
			return idx
		}
	}
	return -1
}

func (h *Hand) countInHand() int {
	n := 0
	for _, s := range h.seats {
		if s.InHand() {
			n++
		}
	}
	return n
}

func (h *Hand) potSize() int {
	total := 0
	for _, s := range h.seats {
		total += s.Committed()
	}
	return total
}

// allowedFor computes the legal action set for one seat. Seats not holding
// the action get informational fields only.
func (h *Hand) allowedFor(seat int) AllowedActions {
	a := AllowedActions{PotSize: h.potSize()}
	s := h.seats[seat]
	a.EffectiveStack = s.Stack
	if h.ended || h.violation != nil || seat != h.actionOn || !s.CanAct() {
		return a
	}

	br := h.betting
	maxTo := s.Stack + s.StreetBet
	call := min(br.currentBet-s.StreetBet, s.Stack)

	a.CanFold = true
	a.CanCheck = call == 0
	a.CanCall = call > 0
	a.CallAmount = call

	if br.currentBet == 0 {
		a.CanBet = s.Stack > 0
		a.MinBetTo = min(br.bigBlind, maxTo)
	} else if s.Stack > call && !br.acted[seat] {
		a.CanRaise = true
		a.MinRaiseTo = min(br.currentBet+br.minRaise, maxTo)
	}
	a.MaxRaiseTo = maxTo
	// A shove is either a legal wager or a call for less. A player whose
	// action was not reopened cannot shove past the current wager.
	a.CanAllIn = s.Stack > 0 && (a.CanBet || a.CanRaise || maxTo <= br.currentBet)
	return a
}

// apply validates and executes one action for the seat currently holding
// the action. Rejections leave the hand untouched.
func (h *Hand) apply(seat int, action ActionType, amountTo int, thinkDelayMs *int) *Error {
	if h.violation != nil {
		return h.violation
	}
	if h.ended {
		return reject(CodeNoActiveHand, "hand %d has ended", h.id)
	}
	if seat < 0 || seat >= len(h.seats) || seat != h.actionOn {
		return reject(CodeOutOfTurn, "action is on seat %d, not seat %d", h.actionOn, seat)
	}

	s := h.seats[seat]
	allowed := h.allowedFor(seat)
	normalized := action
	var logged *int

	switch action {
	case Fold:
		s.Folded = true
	case Check:
		if !allowed.CanCheck {
			return reject(CodeIllegalAction, "cannot check facing %d to call", allowed.CallAmount)
		}
	case Call:
		if !allowed.CanCall {
			return reject(CodeIllegalAction, "no wager to call")
		}
		pay := allowed.CallAmount
		h.commit(s, pay)
		if s.AllIn {
			normalized = AllIn
		}
		logged = intp(pay)
	case Bet:
		if !allowed.CanBet {
			return reject(CodeIllegalAction, "betting not available")
		}
		if amountTo < allowed.MinBetTo || amountTo > allowed.MaxRaiseTo {
			return reject(CodeIllegalAmount, "bet to %d outside [%d, %d]",
				amountTo, allowed.MinBetTo, allowed.MaxRaiseTo)
		}
		h.raiseTo(s, amountTo)
		if s.AllIn {
			normalized = AllIn
		}
		logged = intp(amountTo)
	case Raise:
		if !allowed.CanRaise {
			return reject(CodeIllegalAction, "raising not available")
		}
		if amountTo > allowed.MaxRaiseTo ||
			(amountTo < allowed.MinRaiseTo && amountTo != allowed.MaxRaiseTo) {
			return reject(CodeIllegalAmount, "raise to %d outside [%d, %d]",
				amountTo, allowed.MinRaiseTo, allowed.MaxRaiseTo)
		}
		h.raiseTo(s, amountTo)
		if s.AllIn {
			normalized = AllIn
		}
		logged = intp(amountTo)
	case AllIn:
		if !allowed.CanAllIn {
			if s.Stack > 0 {
				return reject(CodeIllegalAction, "cannot shove, action was not reopened")
			}
			return reject(CodeIllegalAction, "no chips behind")
		}
		maxTo := s.Stack + s.StreetBet
		if maxTo > h.betting.currentBet {
			h.raiseTo(s, maxTo)
			logged = intp(maxTo)
		} else {
			pay := s.Stack
			h.commit(s, pay)
			logged = intp(pay)
		}
		normalized = AllIn
	default:
		return reject(CodeIllegalAction, "unknown action %s", action)
	}

	h.betting.markActed(seat)
	if h.street == Preflop && seat == h.bbSeat {
		h.betting.bbActed = true
	}

	h.actionSeq++
	h.actions = append(h.actions, ActionRow{
		StepIndex: len(h.actions) + 1,
		ActionSeq: h.actionSeq,
		Seat:      seat,
		Action:    normalized,
		AmountTo:  logged,
		Street:    h.street,
	})
	h.emit(EventAction, ActionPayload{
		Seat:         seat,
		Action:       normalized.String(),
		AmountTo:     logged,
		ThinkDelayMs: thinkDelayMs,
	})
	h.logger.Debug("action applied",
		"table", h.tableID, "hand", h.id, "seat", seat,
		"action", normalized.String(), "street", h.street.String())

	h.checkInvariants()
	if h.violation != nil {
		return h.violation
	}

	h.actionOn = h.nextToAct(seat + 1)
	h.advance()
	return h.violation
}

func (h *Hand) commit(s *Seat, amount int) {
	if amount > s.Stack {
		amount = s.Stack
	}
	s.Stack -= amount
	s.StreetBet += amount
	if s.Stack == 0 {
		s.AllIn = true
	}
}

// raiseTo puts the seat's street wager at the given total. An increment of
// at least the last full raise reopens the action; a short all-in does not,
// and leaves the minimum raise size unchanged.
func (h *Hand) raiseTo(s *Seat, to int) {
	increment := to - h.betting.currentBet
	h.commit(s, to-s.StreetBet)
	h.betting.currentBet = to
	if increment >= h.betting.minRaise {
		h.betting.minRaise = increment
		h.betting.lastAggressor = s.ID
		h.betting.reopen(s.ID)
	}
}

// advance drives the state machine until it needs player input or the hand
// ends.
func (h *Hand) advance() {
	for !h.ended && h.violation == nil {
		if h.countInHand() <= 1 {
			h.finishUncontested()
			return
		}
		if h.street == Showdown {
			h.finishShowdown()
			return
		}
		if h.actionOn != -1 && !h.bettingComplete() {
			return
		}
		h.closeStreet()
	}
}

// closeStreet sweeps street wagers into the collected pool and moves to the
// next street, dealing board cards as required.
func (h *Hand) closeStreet() {
	collected := make([]int, len(h.seats))
	for i, s := range h.seats {
		collected[i] = s.StreetBet
		s.Collected += s.StreetBet
		s.StreetBet = 0
	}
	h.emit(EventStreetEndCollect, StreetEndPayload{Street: h.street, Collected: collected})

	switch h.street {
	case Preflop:
		h.street = Flop
		h.dealBoard(3)
	case Flop:
		h.street = Turn
		h.dealBoard(1)
	case Turn:
		h.street = River
		h.dealBoard(1)
	case River:
		h.street = Showdown
		return
	}

	h.betting.reset()
	h.actionOn = h.nextToAct(h.button + 1)
	h.checkInvariants()
}

func (h *Hand) dealBoard(n int) {
	cards := h.deck.Deal(n)
	h.board = append(h.board, cards...)
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.String()
	}
	h.emit(EventBoardReveal, BoardRevealPayload{Street: h.street, Cards: names})
	h.logger.Debug("board dealt",
		"table", h.tableID, "hand", h.id,
		"street", h.street.String(), "cards", names)
}

// finishUncontested ends the hand when a single seat remains: every pot
// goes to that seat without a showdown.
func (h *Hand) finishUncontested() {
	collected := make([]int, len(h.seats))
	sweep := false
	for i, s := range h.seats {
		collected[i] = s.StreetBet
		if s.StreetBet > 0 {
			sweep = true
		}
		s.Collected += s.StreetBet
		s.StreetBet = 0
	}
	if sweep {
		h.emit(EventStreetEndCollect, StreetEndPayload{Street: h.street, Collected: collected})
	}

	var winner *Seat
	for _, s := range h.seats {
		if s.InHand() {
			winner = s
			break
		}
	}

	for _, pot := range computePots(h.seats) {
		award := PotAwardPayload{
			PotID:    pot.ID,
			Amount:   pot.Amount,
			Eligible: pot.Eligible,
			Winners:  []SeatAmount{{Seat: winner.ID, Amount: pot.Amount}},
		}
		winner.Stack += pot.Amount
		h.amountWon[winner.ID] += pot.Amount
		h.potAwards = append(h.potAwards, award)
		h.emit(EventPotAward, award)
	}
	for _, s := range h.seats {
		s.Collected = 0
	}
	h.emit(EventStackUpdate, StackUpdatePayload{Seat: winner.ID, NewStack: winner.Stack})

	h.finish("all_folded")
}

// finishShowdown reveals the surviving hands, ranks them and pays each pot
// to its best eligible hand, splitting ties with odd chips granted one at a
// time clockwise from the button.
func (h *Hand) finishShowdown() {
	for seat := h.nextActive(h.button + 1); ; seat = h.nextActive(seat + 1) {
		s := h.seats[seat]
		if s.InHand() {
			h.revealed[seat] = true
			h.emit(EventShowdownReveal, ShowdownRevealPayload{
				Seat:      seat,
				HoleCards: cardNames(s.HoleCards),
			})
		}
		if h.nextActive(seat+1) == h.nextActive(h.button+1) {
			break
		}
	}

	boardHand := deck.NewHand(h.board...)
	ranks := make(map[int]HandRank)
	for _, s := range h.seats {
		if s.InHand() {
			ranks[s.ID] = Evaluate7(boardHand.Add(s.HoleCards[0]).Add(s.HoleCards[1]))
		}
	}

	for _, pot := range computePots(h.seats) {
		best := HandRank(0)
		for _, seat := range pot.Eligible {
			if ranks[seat] > best {
				best = ranks[seat]
			}
		}
		var winners []int
		for _, seat := range pot.Eligible {
			if ranks[seat] == best {
				winners = append(winners, seat)
			}
		}

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		award := PotAwardPayload{
			PotID:    pot.ID,
			Amount:   pot.Amount,
			Eligible: pot.Eligible,
		}

		extra := make(map[int]int, len(winners))
		for seat := h.nextActive(h.button + 1); remainder > 0; seat = h.nextActive(seat + 1) {
			if ranks[h.seats[seat].ID] == best && h.seats[seat].InHand() && containsInt(winners, seat) {
				extra[seat]++
				remainder--
				award.OddChips = append(award.OddChips, SeatAmount{Seat: seat, Amount: 1})
			}
		}
		for _, seat := range winners {
			amount := share + extra[seat]
			h.seats[seat].Stack += amount
			h.amountWon[seat] += amount
			award.Winners = append(award.Winners, SeatAmount{Seat: seat, Amount: amount})
		}

		h.potAwards = append(h.potAwards, award)
		h.emit(EventPotAward, award)
	}
	for _, s := range h.seats {
		s.Collected = 0
	}
	for _, s := range h.seats {
		if h.amountWon[s.ID] > 0 {
			h.emit(EventStackUpdate, StackUpdatePayload{Seat: s.ID, NewStack: s.Stack})
		}
	}

	h.showdown = h.buildShowdownPayload(ranks)
	h.finish("showdown")
}

func (h *Hand) finish(reason string) {
	h.street = Ended
	h.endReason = reason
	h.ended = true
	h.actionOn = -1
	h.checkInvariants()
	h.emit(EventHandEnd, HandEndPayload{Reason: reason, FinalStacks: h.stacks()})
	h.logger.Info("hand ended",
		"table", h.tableID, "hand", h.id,
		"reason", reason, "stacks", h.stacks())
}

// checkInvariants verifies chip conservation after every transition. A
// failure marks the hand permanently unusable rather than propagating a
// corrupted state.
func (h *Hand) checkInvariants() {
	total := 0
	for _, s := range h.seats {
		if s.Stack < 0 || s.StreetBet < 0 || s.Collected < 0 {
			h.violation = reject(CodeInvariantViolation,
				"seat %d holds negative chips", s.ID)
			h.logger.Error("invariant violation", "table", h.tableID, "hand", h.id, "seat", s.ID)
			return
		}
		if !s.Active {
			continue
		}
		total += s.Stack + s.StreetBet + s.Collected
	}
	if total != h.startTotal {
		h.violation = reject(CodeInvariantViolation,
			"chips not conserved: have %d, started with %d", total, h.startTotal)
		h.logger.Error("invariant violation",
			"table", h.tableID, "hand", h.id,
			"total", total, "start_total", h.startTotal)
	}
}

func cardNames(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func intp(v int) *int {
	return &v
}

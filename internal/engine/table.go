package engine

import (
	rand "math/rand/v2"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardroom/holdem/internal/rng"
)

// Outcome is the session result from the human seat's perspective.
type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeHumanWon  Outcome = "human_won"
	OutcomeHumanLost Outcome = "human_lost"
)

// BotDecision is a policy's chosen action.
type BotDecision struct {
	Action   ActionType
	AmountTo *int
}

// BotPolicy chooses an action for a bot seat. The rand source is derived
// from the hand's decision seed, so the same situation always produces the
// same choice.
type BotPolicy interface {
	Choose(allowed AllowedActions, stack int, r *rand.Rand) BotDecision
}

// Intent is a player's request to act. ActionSeq must be exactly one past
// the server's accepted sequence, which rejects stale retransmits without
// any client clock.
type Intent struct {
	Action         ActionType `json:"action"`
	AmountTo       *int       `json:"amount_to"`
	ActionSeq      int        `json:"action_seq"`
	IdempotencyKey string     `json:"idempotency_key"`
}

// SubmitResult is the response to an intent. Events carries only the
// envelopes the intent produced.
type SubmitResult struct {
	Accepted        bool       `json:"accepted"`
	Err             *Error     `json:"error,omitempty"`
	View            ViewState  `json:"view"`
	Events          []Envelope `json:"events"`
	ServerActionSeq int        `json:"server_action_seq"`
}

// StartHandResult is the response to starting a hand.
type StartHandResult struct {
	View   ViewState  `json:"view"`
	Events []Envelope `json:"events"`
}

const idemCacheLimit = 128

type completedHand struct {
	hand          *Hand
	initialStacks []int
	full          *HandHistory
}

// Table owns one session: the human at seat 0 against bots, stacks carried
// across hands, hands dealt in sequence with derived seeds. All methods are
// safe for concurrent use.
type Table struct {
	mu     sync.Mutex
	id     string
	cfg    TableConfig
	logger *log.Logger
	clock  quartz.Clock
	policy BotPolicy

	seats      []*Seat
	button     int
	nextHandID int
	tableSeed  int64

	hand              *Hand
	handInitialStacks []int
	lastHand          *Hand
	completed         map[int]*completedHand
	outcome           Outcome

	onHandComplete func(*HandHistory)
}

// TableOption configures a Table.
type TableOption func(*Table)

func WithClock(clock quartz.Clock) TableOption {
	return func(t *Table) { t.clock = clock }
}

func WithLogger(logger *log.Logger) TableOption {
	return func(t *Table) { t.logger = logger }
}

// WithHandCompleteHook registers a callback invoked with the full history
// of every completed hand, under the table lock.
func WithHandCompleteHook(fn func(*HandHistory)) TableOption {
	return func(t *Table) { t.onHandComplete = fn }
}

// NewTable creates a session table. Seat 0 is the human; the remaining
// seats are bots.
func NewTable(id string, cfg TableConfig, policy BotPolicy, opts ...TableOption) *Table {
	t := &Table{
		id:         id,
		cfg:        cfg,
		clock:      quartz.NewReal(),
		logger:     log.Default(),
		policy:     policy,
		button:     cfg.NumSeats - 1,
		nextHandID: 1,
		tableSeed:  cfg.Seed,
		completed:  make(map[int]*completedHand),
		outcome:    OutcomeRunning,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.tableSeed == 0 {
		t.tableSeed = t.clock.Now().UnixNano()
	}
	t.seats = makeSeats(cfg)
	return t
}

func makeSeats(cfg TableConfig) []*Seat {
	seats := make([]*Seat, cfg.NumSeats)
	for i := range seats {
		s := &Seat{ID: i, Stack: cfg.StartingStack, Kind: Bot, Name: botName(i)}
		if i == 0 {
			s.Kind = Human
			s.Name = "You"
		}
		seats[i] = s
	}
	return seats
}

func botName(seat int) string {
	return "Bot " + strconv.Itoa(seat)
}

// StartHand deals the next hand. The button moves to the next funded seat
// and the deal, bot decision and bot delay streams are derived from the
// table seed and hand id.
func (t *Table) StartHand() (*StartHandResult, *Error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hand != nil && !t.hand.ended {
		return nil, reject(CodeHandRunning, "hand %d is still in progress", t.hand.id)
	}
	if t.outcome != OutcomeRunning {
		return nil, reject(CodeNotEnoughPlayers, "session is over: %s", t.outcome)
	}

	button := t.nextFunded(t.button + 1)
	if button == -1 {
		return nil, reject(CodeNotEnoughPlayers, "no funded seats")
	}

	id := t.nextHandID
	initial := make([]int, len(t.seats))
	for i, s := range t.seats {
		initial[i] = s.Stack
	}

	h, err := newHand(handParams{
		tableID:   t.id,
		id:        id,
		cfg:       t.cfg,
		button:    button,
		dealSeed:  rng.Derive(t.tableSeed, id, rng.LabelDeal),
		botSeed:   rng.Derive(t.tableSeed, id, rng.LabelBotDecision),
		delaySeed: rng.Derive(t.tableSeed, id, rng.LabelBotDelay),
	}, t.seats, t.clock, t.logger)
	if err != nil {
		return nil, err
	}

	t.nextHandID++
	t.button = button
	t.hand = h
	t.handInitialStacks = initial

	events := append([]Envelope(nil), h.events...)
	if h.ended {
		t.finalizeLocked()
		events = append([]Envelope(nil), h.events...)
	}
	return &StartHandResult{View: t.viewLocked(0, h), Events: events}, nil
}

// SubmitIntent validates and applies one player action. A repeated
// idempotency key returns the originally produced result; a stale sequence
// or illegal action is rejected without mutating the hand.
func (t *Table) SubmitIntent(seat int, intent Intent) *SubmitResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.hand
	if h == nil {
		return t.failureLocked(seat, reject(CodeNoActiveHand, "no hand in progress"))
	}
	if intent.IdempotencyKey != "" {
		if prior, ok := h.idem[intent.IdempotencyKey]; ok {
			return prior
		}
	}
	if intent.ActionSeq != h.actionSeq+1 {
		code := CodeStaleSequence
		if intent.ActionSeq == h.actionSeq && lastActionMatches(h, seat, intent.Action) {
			code = CodeDuplicateIntent
		}
		return t.failureLocked(seat, reject(code,
			"expected action_seq %d, got %d", h.actionSeq+1, intent.ActionSeq))
	}

	amount := 0
	if intent.AmountTo != nil {
		amount = *intent.AmountTo
	}
	before := len(h.events)
	if err := h.apply(seat, intent.Action, amount, nil); err != nil {
		return t.failureLocked(seat, err)
	}
	if h.ended {
		t.finalizeLocked()
	}

	res := &SubmitResult{
		Accepted:        true,
		View:            t.viewLocked(seat, h),
		Events:          append([]Envelope(nil), h.events[before:]...),
		ServerActionSeq: h.actionSeq,
	}
	if intent.IdempotencyKey != "" {
		t.cacheResultLocked(h, intent.IdempotencyKey, res)
	}
	return res
}

func lastActionMatches(h *Hand, seat int, action ActionType) bool {
	if len(h.actions) == 0 {
		return false
	}
	last := h.actions[len(h.actions)-1]
	return last.Seat == seat && last.Action == action
}

func (t *Table) cacheResultLocked(h *Hand, key string, res *SubmitResult) {
	if _, ok := h.idem[key]; ok {
		return
	}
	if len(h.idemOrder) >= idemCacheLimit {
		oldest := h.idemOrder[0]
		h.idemOrder = h.idemOrder[1:]
		delete(h.idem, oldest)
	}
	h.idem[key] = res
	h.idemOrder = append(h.idemOrder, key)
}

func (t *Table) failureLocked(seat int, err *Error) *SubmitResult {
	res := &SubmitResult{Accepted: false, Err: err}
	if h := t.currentOrLastLocked(); h != nil {
		res.View = t.viewLocked(seat, h)
		res.ServerActionSeq = h.actionSeq
	}
	return res
}

const botActionGuard = 2000

// RunBots advances the hand while a bot holds the action, deriving each
// decision and think delay from the hand's seeds. Returns the events the
// bot actions produced.
func (t *Table) RunBots() []Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()

	var delta []Envelope
	for guard := 0; guard < botActionGuard; guard++ {
		h := t.hand
		if h == nil || h.ended || h.violation != nil || h.actionOn == -1 {
			break
		}
		seat := h.actionOn
		s := h.seats[seat]
		if s.Kind != Bot {
			break
		}

		allowed := h.allowedFor(seat)
		r := rng.New(rng.Derive(h.botSeed, h.actionSeq+seat, rng.LabelDecision))
		decision := t.policy.Choose(allowed, s.Stack, r)
		delay := botThinkDelay(h.delaySeed, h.actionSeq, seat)

		amount := 0
		if decision.AmountTo != nil {
			amount = *decision.AmountTo
		}
		before := len(h.events)
		if err := h.apply(seat, decision.Action, amount, &delay); err != nil {
			t.logger.Warn("bot chose an illegal action, folding",
				"table", t.id, "hand", h.id, "seat", seat, "err", err)
			if err := h.apply(seat, Fold, 0, &delay); err != nil {
				break
			}
		}
		delta = append(delta, h.events[before:]...)
		if h.ended {
			t.finalizeLocked()
			break
		}
	}
	return delta
}

// finalizeLocked archives a finished hand, updates the session outcome and
// appends SESSION_END when the session is decided. SESSION_END sits outside
// the hash chain: the recorded state hash covers events through HAND_END.
func (t *Table) finalizeLocked() {
	h := t.hand
	if h == nil {
		return
	}
	t.refreshOutcomeLocked()

	hist := h.buildHistory(t.handInitialStacks, ExportFull, 0)
	if t.outcome != OutcomeRunning {
		se := Envelope{
			TableID:  t.id,
			HandID:   h.id,
			EventSeq: h.eventSeq,
			TS:       t.clock.Now(),
			Type:     EventSessionEnd,
			Payload:  SessionEndPayload{Outcome: string(t.outcome)},
		}
		h.eventSeq++
		h.events = append(h.events, se)
		hist.Events = append(hist.Events, se)
		hist.EventCount++
	}

	t.completed[h.id] = &completedHand{
		hand:          h,
		initialStacks: t.handInitialStacks,
		full:          hist,
	}
	t.lastHand = h
	t.hand = nil

	if t.onHandComplete != nil {
		t.onHandComplete(hist)
	}
}

func (t *Table) refreshOutcomeLocked() {
	if t.seats[0].Stack <= 0 {
		t.outcome = OutcomeHumanLost
		return
	}
	for _, s := range t.seats[1:] {
		if s.Stack > 0 {
			return
		}
	}
	t.outcome = OutcomeHumanWon
}

// View renders the table for one viewer seat. With no hand in progress the
// last completed hand is shown, including its showdown.
func (t *Table) View(viewer int) ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.currentOrLastLocked()
	if h == nil {
		return t.idleViewLocked()
	}
	return t.viewLocked(viewer, h)
}

func (t *Table) currentOrLastLocked() *Hand {
	if t.hand != nil {
		return t.hand
	}
	return t.lastHand
}

func (t *Table) viewLocked(viewer int, h *Hand) ViewState {
	v := h.view(viewer)
	v.SessionOutcome = string(t.outcome)
	return v
}

func (t *Table) idleViewLocked() ViewState {
	v := ViewState{
		TableID:        t.id,
		SessionOutcome: string(t.outcome),
		ChipsInFront:   make([]int, len(t.seats)),
	}
	for _, s := range t.seats {
		v.Seats = append(v.Seats, SeatView{
			SeatID:      s.ID,
			PlayerType:  s.Kind,
			DisplayName: s.Name,
			Stack:       s.Stack,
			IsBusted:    s.Stack == 0,
		})
	}
	return v
}

// AllowedActions reports the legal action set for a seat, zero when the
// seat does not hold the action.
func (t *Table) AllowedActions(seat int) AllowedActions {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hand == nil || seat < 0 || seat >= len(t.seats) {
		return AllowedActions{}
	}
	return t.hand.allowedFor(seat)
}

// ExportHistory returns the history of a completed hand. Viewer mode masks
// hole cards never revealed to the human seat.
func (t *Table) ExportHistory(handID int, mode string) (*HandHistory, *Error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.completed[handID]
	if !ok {
		return nil, reject(CodeHandNotFound, "no completed hand %d", handID)
	}
	if mode != ExportViewer {
		return c.full, nil
	}
	hist := c.hand.buildHistory(c.initialStacks, ExportViewer, 0)
	if n := len(c.full.Events); n > 0 && c.full.Events[n-1].Type == EventSessionEnd {
		hist.Events = append(hist.Events, c.full.Events[n-1])
		hist.EventCount++
	}
	return hist, nil
}

// Outcome returns the session outcome.
func (t *Table) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// RestartSession refunds every seat to the starting stack and resumes play.
// Hand ids keep increasing, so archived histories stay unique per table.
func (t *Table) RestartSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.seats {
		s.Stack = t.cfg.StartingStack
	}
	t.button = t.cfg.NumSeats - 1
	t.outcome = OutcomeRunning
	t.hand = nil
	t.lastHand = nil
	t.logger.Info("session restarted", "table", t.id)
}

func (t *Table) nextFunded(from int) int {
	n := len(t.seats)
	for i := 0; i < n; i++ {
		idx := ((from % n) + n + i) % n
		if t.seats[idx].Stack > 0 {
			return idx
		}
	}
	return -1
}


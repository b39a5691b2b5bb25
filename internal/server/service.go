package server

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/cardroom/holdem/internal/bot"
	"github.com/cardroom/holdem/internal/engine"
)

// The human always plays seat 0; the engine fills the rest with bots.
const humanSeat = 0

type tableEntry struct {
	id    string
	name  string
	def   TableDef
	table *engine.Table
}

// GameService owns the tables and translates protocol requests into engine
// calls. Bot turns run synchronously after every state change, so by the
// time a response is built the action is back on the human or the hand is
// over.
type GameService struct {
	mu       sync.Mutex
	logger   *log.Logger
	clock    quartz.Clock
	archiver *Archiver
	tables   map[string]*tableEntry
	order    []string
}

// GameServiceOption configures a GameService.
type GameServiceOption func(*GameService)

func WithServiceClock(clock quartz.Clock) GameServiceOption {
	return func(s *GameService) { s.clock = clock }
}

func WithArchiver(a *Archiver) GameServiceOption {
	return func(s *GameService) { s.archiver = a }
}

// NewGameService creates the tables declared in the configuration.
func NewGameService(cfg *Config, logger *log.Logger, opts ...GameServiceOption) *GameService {
	s := &GameService{
		logger: logger.WithPrefix("game"),
		clock:  quartz.NewReal(),
		tables: make(map[string]*tableEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, def := range cfg.Tables {
		s.addTable(def)
	}
	return s
}

func (s *GameService) addTable(def TableDef) *tableEntry {
	id := "tbl_" + uuid.NewString()[:8]

	opts := []engine.TableOption{
		engine.WithClock(s.clock),
		engine.WithLogger(s.logger.WithPrefix(def.Name)),
	}
	if s.archiver != nil {
		tableID := id
		opts = append(opts, engine.WithHandCompleteHook(func(hist *engine.HandHistory) {
			s.archiver.HandComplete(tableID, hist)
		}))
	}

	entry := &tableEntry{
		id:    id,
		name:  def.Name,
		def:   def,
		table: engine.NewTable(id, def.Engine(), bot.New(), opts...),
	}
	s.tables[id] = entry
	s.order = append(s.order, id)
	s.logger.Info("table created",
		"table", id, "name", def.Name,
		"seats", def.NumSeats, "blinds", def.SmallBlind, "bb", def.BigBlind)
	return entry
}

// ListTables summarizes every table for the lobby.
func (s *GameService) ListTables() TablesData {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data TablesData
	for _, id := range s.order {
		e := s.tables[id]
		data.Tables = append(data.Tables, TableSummary{
			TableID:    e.id,
			Name:       e.name,
			NumSeats:   e.def.NumSeats,
			SmallBlind: e.def.SmallBlind,
			BigBlind:   e.def.BigBlind,
			Outcome:    string(e.table.Outcome()),
		})
	}
	return data
}

func (s *GameService) lookup(tableID string) (*tableEntry, *engine.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tables[tableID]
	if !ok {
		return nil, &engine.Error{Code: CodeTableNotFound, Message: "no table " + tableID}
	}
	return e, nil
}

// CodeTableNotFound rejects requests naming an unknown table.
const CodeTableNotFound = "TABLE_NOT_FOUND"

// Join seats the client at the table's human seat.
func (s *GameService) Join(tableID string) (*JoinedData, *engine.Error) {
	e, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}
	return &JoinedData{TableID: e.id, Seat: humanSeat}, nil
}

// StartHand deals the next hand and runs any leading bot turns.
func (s *GameService) StartHand(tableID string) (*StateData, *engine.Error) {
	e, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}
	res, err := e.table.StartHand()
	if err != nil {
		return nil, err
	}
	events := append(res.Events, e.table.RunBots()...)
	return &StateData{View: e.table.View(humanSeat), Events: events}, nil
}

// SubmitAction applies the human's intent, then runs bot turns until the
// action returns to the human or the hand ends.
func (s *GameService) SubmitAction(tableID string, data ActionData) (*ActionResultData, *engine.Error) {
	e, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}
	action, perr := engine.ParseActionType(data.Action)
	if perr != nil {
		return nil, &engine.Error{Code: engine.CodeIllegalAction, Message: perr.Error()}
	}

	res := e.table.SubmitIntent(humanSeat, engine.Intent{
		Action:         action,
		AmountTo:       data.AmountTo,
		ActionSeq:      data.ActionSeq,
		IdempotencyKey: data.IdempotencyKey,
	})
	out := &ActionResultData{
		Accepted:        res.Accepted,
		Error:           res.Err,
		View:            res.View,
		Events:          res.Events,
		ServerActionSeq: res.ServerActionSeq,
	}
	if !res.Accepted {
		return out, nil
	}

	out.Events = append(out.Events, e.table.RunBots()...)
	out.View = e.table.View(humanSeat)
	return out, nil
}

// View renders the table for the human seat.
func (s *GameService) View(tableID string) (*StateData, *engine.Error) {
	e, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}
	return &StateData{View: e.table.View(humanSeat)}, nil
}

// History exports a completed hand.
func (s *GameService) History(tableID string, handID int, mode string) (*HistoryData, *engine.Error) {
	e, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = engine.ExportViewer
	}
	hist, err := e.table.ExportHistory(handID, mode)
	if err != nil {
		return nil, err
	}
	return &HistoryData{History: hist}, nil
}

// Verify replays a completed hand from its recorded seeds and actions and
// reports which invariant checks passed.
func (s *GameService) Verify(tableID string, handID int) (*ReplayReportData, *engine.Error) {
	e, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}
	hist, err := e.table.ExportHistory(handID, engine.ExportFull)
	if err != nil {
		return nil, err
	}
	report, rerr := engine.Replay(hist)
	if rerr != nil {
		return nil, &engine.Error{Code: engine.CodeInvariantViolation, Message: rerr.Error()}
	}
	return &ReplayReportData{HandID: handID, Report: report}, nil
}

// Restart refunds every seat and resumes a decided session.
func (s *GameService) Restart(tableID string) (*StateData, *engine.Error) {
	e, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}
	e.table.RestartSession()
	return &StateData{View: e.table.View(humanSeat)}, nil
}

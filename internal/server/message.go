package server

import (
	"encoding/json"
	"time"

	"github.com/cardroom/holdem/internal/engine"
)

// MessageType identifies a WebSocket message.
type MessageType string

// Client to server.
const (
	MsgListTables    MessageType = "list_tables"
	MsgJoinTable     MessageType = "join_table"
	MsgStartHand     MessageType = "start_hand"
	MsgAction        MessageType = "action"
	MsgGetView       MessageType = "get_view"
	MsgGetHistory    MessageType = "get_history"
	MsgRestart       MessageType = "restart_session"
	MsgVerifyHistory MessageType = "verify_history"
)

// Server to client.
const (
	MsgTables        MessageType = "tables"
	MsgJoined        MessageType = "joined"
	MsgState         MessageType = "state"
	MsgActionResult  MessageType = "action_result"
	MsgHistory       MessageType = "history"
	MsgReplayReport  MessageType = "replay_report"
	MsgError         MessageType = "error"
)

// Message is the envelope every WebSocket frame carries. RequestID lets the
// client correlate a response with its request.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage wraps data with the current timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{Type: messageType, Data: raw, Timestamp: time.Now()}, nil
}

// Client → server payloads.

type JoinTableData struct {
	TableID string `json:"table_id"`
}

type StartHandData struct {
	TableID string `json:"table_id"`
}

// ActionData carries the human seat's intent. ActionSeq must be one past
// the server's last accepted action; IdempotencyKey deduplicates retries.
type ActionData struct {
	TableID        string `json:"table_id"`
	Action         string `json:"action"`
	AmountTo       *int   `json:"amount_to,omitempty"`
	ActionSeq      int    `json:"action_seq"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type GetViewData struct {
	TableID string `json:"table_id"`
}

type GetHistoryData struct {
	TableID string `json:"table_id"`
	HandID  int    `json:"hand_id"`
	Mode    string `json:"mode,omitempty"`
}

type RestartData struct {
	TableID string `json:"table_id"`
}

type VerifyHistoryData struct {
	TableID string `json:"table_id"`
	HandID  int    `json:"hand_id"`
}

// Server → client payloads.

type TableSummary struct {
	TableID    string `json:"table_id"`
	Name       string `json:"name"`
	NumSeats   int    `json:"num_seats"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
	Outcome    string `json:"outcome"`
}

type TablesData struct {
	Tables []TableSummary `json:"tables"`
}

type JoinedData struct {
	TableID string `json:"table_id"`
	Seat    int    `json:"seat"`
}

// StateData is pushed after every state transition: the viewer's masked
// snapshot plus the event envelopes produced since the last push.
type StateData struct {
	View   engine.ViewState  `json:"view"`
	Events []engine.Envelope `json:"events,omitempty"`
}

type ActionResultData struct {
	Accepted        bool              `json:"accepted"`
	Error           *engine.Error     `json:"error,omitempty"`
	View            engine.ViewState  `json:"view"`
	Events          []engine.Envelope `json:"events,omitempty"`
	ServerActionSeq int               `json:"server_action_seq"`
}

type HistoryData struct {
	History *engine.HandHistory `json:"history"`
}

type ReplayReportData struct {
	HandID int                  `json:"hand_id"`
	Report *engine.ReplayReport `json:"report"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

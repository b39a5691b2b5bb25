package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/cardroom/holdem/internal/engine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Connection wraps one WebSocket client. A connection drives a single
// table at a time, always from the human seat.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	tableID   string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	service   *GameService
	onClose   func(*Connection)
}

// NewConnection wraps an upgraded WebSocket.
func NewConnection(conn *websocket.Conn, logger *log.Logger, service *GameService, onClose func(*Connection)) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:    conn,
		send:    make(chan *Message, sendBuffer),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		service: service,
		onClose: onClose,
	}
}

// Start begins the read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the connection down exactly once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	})
	return err
}

// Send queues a message for the client. A full buffer closes the
// connection rather than blocking the caller.
func (c *Connection) Send(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("send on closed connection", "recovered", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) setTable(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableID = tableID
}

func (c *Connection) table() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableID
}

func (c *Connection) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", "err", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.replyError("", "BAD_MESSAGE", "malformed message: "+err.Error())
			continue
		}
		c.handle(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// handle dispatches one client request.
func (c *Connection) handle(msg *Message) {
	switch msg.Type {
	case MsgListTables:
		c.reply(msg, MsgTables, c.service.ListTables())

	case MsgJoinTable:
		var data JoinTableData
		if !c.decode(msg, &data) {
			return
		}
		joined, err := c.service.Join(data.TableID)
		if err != nil {
			c.replyEngineError(msg, err)
			return
		}
		c.setTable(joined.TableID)
		c.reply(msg, MsgJoined, joined)

	case MsgStartHand:
		var data StartHandData
		if !c.decode(msg, &data) {
			return
		}
		state, err := c.service.StartHand(c.resolveTable(data.TableID))
		if err != nil {
			c.replyEngineError(msg, err)
			return
		}
		c.reply(msg, MsgState, state)

	case MsgAction:
		var data ActionData
		if !c.decode(msg, &data) {
			return
		}
		result, err := c.service.SubmitAction(c.resolveTable(data.TableID), data)
		if err != nil {
			c.replyEngineError(msg, err)
			return
		}
		c.reply(msg, MsgActionResult, result)

	case MsgGetView:
		var data GetViewData
		if !c.decode(msg, &data) {
			return
		}
		state, err := c.service.View(c.resolveTable(data.TableID))
		if err != nil {
			c.replyEngineError(msg, err)
			return
		}
		c.reply(msg, MsgState, state)

	case MsgGetHistory:
		var data GetHistoryData
		if !c.decode(msg, &data) {
			return
		}
		hist, err := c.service.History(c.resolveTable(data.TableID), data.HandID, data.Mode)
		if err != nil {
			c.replyEngineError(msg, err)
			return
		}
		c.reply(msg, MsgHistory, hist)

	case MsgVerifyHistory:
		var data VerifyHistoryData
		if !c.decode(msg, &data) {
			return
		}
		report, err := c.service.Verify(c.resolveTable(data.TableID), data.HandID)
		if err != nil {
			c.replyEngineError(msg, err)
			return
		}
		c.reply(msg, MsgReplayReport, report)

	case MsgRestart:
		var data RestartData
		if !c.decode(msg, &data) {
			return
		}
		state, err := c.service.Restart(c.resolveTable(data.TableID))
		if err != nil {
			c.replyEngineError(msg, err)
			return
		}
		c.reply(msg, MsgState, state)

	default:
		c.replyError(msg.RequestID, "UNKNOWN_MESSAGE", "unknown message type "+string(msg.Type))
	}
}

// resolveTable falls back to the joined table when a request omits one.
func (c *Connection) resolveTable(tableID string) string {
	if tableID != "" {
		return tableID
	}
	return c.table()
}

func (c *Connection) decode(msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.replyError(msg.RequestID, "BAD_MESSAGE", "malformed "+string(msg.Type)+" payload: "+err.Error())
		return false
	}
	return true
}

func (c *Connection) reply(req *Message, messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("failed to encode response", "type", messageType, "err", err)
		return
	}
	msg.RequestID = req.RequestID
	_ = c.Send(msg)
}

func (c *Connection) replyEngineError(req *Message, err *engine.Error) {
	c.replyError(req.RequestID, err.Code, err.Message)
}

func (c *Connection) replyError(requestID, code, message string) {
	msg, err := NewMessage(MsgError, ErrorData{Code: code, Message: message})
	if err != nil {
		return
	}
	msg.RequestID = requestID
	_ = c.Send(msg)
}

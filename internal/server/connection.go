package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client. The player id is
// assigned at accept time and never changes; it is the identity the game
// layer sees.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	rooms     map[string]struct{}
	logger    *log.Logger
	clock     quartz.Clock
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	handler   *GameHandler
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, playerID string, logger *log.Logger, clock quartz.Clock, handler *GameHandler) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		playerID: playerID,
		rooms:    make(map[string]struct{}),
		logger:   logger.WithPrefix("conn").With("player", playerID),
		clock:    clock,
		ctx:      ctx,
		cancel:   cancel,
		handler:  handler,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Done is closed when the connection shuts down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// SendMessage queues a message for delivery to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Send channel already closed during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return websocket.ErrCloseSent
	}
}

// PlayerID returns the connection-scoped player identity
func (c *Connection) PlayerID() string {
	return c.playerID
}

// JoinRoom records membership in a room. A player can sit in several rooms
// at once, so memberships accumulate until the connection closes.
func (c *Connection) JoinRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[roomID] = struct{}{}
}

// InRoom reports whether this connection has joined the given room
func (c *Connection) InRoom(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[roomID]
	return ok
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client. The ping ticker runs on
// the injected clock so tests can drive it.
func (c *Connection) writePump() {
	ticker := c.clock.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
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

// handleMessage validates inbound payload shapes at the transport boundary
// before the state machine is invoked
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" || data.PlayerName == "" {
			c.sendError("invalid join request")
			return
		}
		c.handler.HandleJoin(c, data)

	case MessageTypeStartGame:
		var data StartGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			c.sendError("invalid start request")
			return
		}
		c.handler.HandleStartGame(c, data.RoomID)

	case MessageTypeStartNextRound:
		var data StartNextRoundData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			c.sendError("invalid start request")
			return
		}
		c.handler.HandleStartNextRound(c, data.RoomID)

	case MessageTypeRestartMatch:
		var data RestartMatchData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			c.sendError("invalid restart request")
			return
		}
		c.handler.HandleRestartMatch(c, data.RoomID)

	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			c.sendError("invalid action request")
			return
		}
		c.handler.HandleAction(c, data)

	default:
		c.sendError("unknown message type: " + msg.Type.String())
	}
}

// sendError sends a room_error message to this client only
func (c *Connection) sendError(message string) {
	errorMsg, err := NewMessage(MessageTypeRoomError, RoomErrorData{Message: message})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/victorzsh/blackjack-server/internal/server" // Reuse message types
)

// Client represents a WebSocket client for the blackjack server
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *server.Message
	events    chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	connected bool
	closeOnce sync.Once
}

// New creates a new WebSocket client. serverURL is the http(s) base address
// of the server.
func New(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL: serverURL,
		send:      make(chan *server.Message, 256),
		events:    make(chan *server.Message, 256),
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect establishes the WebSocket connection
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to server", "url", u.String())
	return nil
}

// Disconnect closes the WebSocket connection. The send channel stays open
// so in-flight senders can never hit a closed channel; they observe the
// cancelled context instead. The events channel is closed by its sole
// sender, readPump.
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close()
			c.connected = false
		}

		c.logger.Info("Disconnected from server")
	})
	return nil
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Events returns the stream of inbound server messages
func (c *Client) Events() <-chan *server.Message {
	return c.events
}

// CreateRoom creates a room over the HTTP endpoint and returns its id
func (c *Client) CreateRoom(mode int) (string, error) {
	body, err := json.Marshal(server.CreateRoomRequest{Mode: mode})
	if err != nil {
		return "", err
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Post(c.serverURL+"/rooms", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create room request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create room failed with status %d", resp.StatusCode)
	}

	var created server.CreateRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("invalid create room response: %w", err)
	}

	return created.RoomID, nil
}

// Join asks the server to seat us in a room
func (c *Client) Join(roomID, playerName string) error {
	return c.sendTyped(server.MessageTypeJoin, server.JoinData{RoomID: roomID, PlayerName: playerName})
}

// StartGame starts the first round of the room
func (c *Client) StartGame(roomID string) error {
	return c.sendTyped(server.MessageTypeStartGame, server.StartGameData{RoomID: roomID})
}

// StartNextRound starts a follow-up round
func (c *Client) StartNextRound(roomID string) error {
	return c.sendTyped(server.MessageTypeStartNextRound, server.StartNextRoundData{RoomID: roomID})
}

// RestartMatch resets the match score
func (c *Client) RestartMatch(roomID string) error {
	return c.sendTyped(server.MessageTypeRestartMatch, server.RestartMatchData{RoomID: roomID})
}

// Hit draws a card on our turn
func (c *Client) Hit(roomID string) error {
	return c.sendTyped(server.MessageTypeAction, server.ActionData{RoomID: roomID, Action: "hit"})
}

// Stand finishes our turn
func (c *Client) Stand(roomID string) error {
	return c.sendTyped(server.MessageTypeAction, server.ActionData{RoomID: roomID, Action: "stand"})
}

func (c *Client) sendTyped(messageType server.MessageType, data interface{}) error {
	msg, err := server.NewMessage(messageType, data)
	if err != nil {
		return err
	}

	// Fail fast once disconnected; the buffered channel would otherwise
	// accept the send and drop it on the floor.
	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

func (c *Client) readPump() {
	// Closing events here signals consumers that the stream ended; readPump
	// is the only sender, so this cannot race a send.
	defer close(c.events)
	defer func() { _ = c.Disconnect() }()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket read error", "error", err)
			}
			return
		}

		select {
		case c.events <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("WebSocket write error", "error", err)
				_ = c.Disconnect()
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

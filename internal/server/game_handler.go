package server

import (
	"github.com/charmbracelet/log"

	"github.com/victorzsh/blackjack-server/internal/game"
)

// Notifier delivers outbound messages to room members. *Server implements
// it; tests substitute a recorder.
type Notifier interface {
	BroadcastToRoom(roomID string, msg *Message)
	SendToPlayer(playerID string, msg *Message) error
}

// GameHandler routes transport events into the room registry and fans the
// committed snapshots back out. All room mutation goes through here.
type GameHandler struct {
	registry *game.Registry
	notifier Notifier
	logger   *log.Logger
}

// NewGameHandler creates a handler over the given registry
func NewGameHandler(registry *game.Registry, notifier Notifier, logger *log.Logger) *GameHandler {
	return &GameHandler{
		registry: registry,
		notifier: notifier,
		logger:   logger.WithPrefix("game"),
	}
}

// CreateRoom inserts a new room with the given match mode
func (h *GameHandler) CreateRoom(mode int) *game.Room {
	return h.registry.Create(mode)
}

// HandleJoin seats the connection's player in the room. Joining is
// idempotent per player id; the join is acknowledged either way.
func (h *GameHandler) HandleJoin(c *Connection, data JoinData) {
	room := h.registry.Get(data.RoomID)
	if room == nil {
		c.sendError("room not found")
		return
	}

	update := room.Join(c.PlayerID(), data.PlayerName)
	c.JoinRoom(room.ID)

	joined, err := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		RoomID:     room.ID,
		PlayerID:   c.PlayerID(),
		PlayerName: data.PlayerName,
	})
	if err != nil {
		h.logger.Error("Failed to create room joined message", "error", err)
	} else {
		_ = c.SendMessage(joined)
	}

	h.broadcast(update)
}

// HandleStartGame begins the first round of a room
func (h *GameHandler) HandleStartGame(c *Connection, roomID string) {
	room := h.registry.Get(roomID)
	if room == nil {
		c.sendError("room not found")
		return
	}

	update, err := room.Start()
	if err != nil {
		c.sendError(err.Error())
		return
	}

	h.broadcast(update)
}

// HandleStartNextRound begins a follow-up round of an ongoing match
func (h *GameHandler) HandleStartNextRound(c *Connection, roomID string) {
	room := h.registry.Get(roomID)
	if room == nil {
		c.sendError("room not found")
		return
	}

	update, err := room.StartNextRound()
	if err != nil {
		c.sendError(err.Error())
		return
	}

	h.broadcast(update)
}

// HandleRestartMatch resets the match score of an idle room
func (h *GameHandler) HandleRestartMatch(c *Connection, roomID string) {
	room := h.registry.Get(roomID)
	if room == nil {
		c.sendError("room not found")
		return
	}

	update, err := room.RestartMatch()
	if err != nil {
		c.sendError(err.Error())
		return
	}

	h.broadcast(update)
}

// HandleAction applies a hit or stand. Actions against a missing or idle
// room are dropped without an error: they are stale events racing a
// disconnect or settlement, which the protocol tolerates.
func (h *GameHandler) HandleAction(c *Connection, data ActionData) {
	room := h.registry.Get(data.RoomID)
	if room == nil {
		h.logger.Debug("Dropping action for unknown room", "roomId", data.RoomID, "player", c.PlayerID())
		return
	}

	update, err := room.Apply(c.PlayerID(), game.Action(data.Action))
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if update == nil {
		return
	}

	h.broadcast(update)
}

// HandleDisconnect removes the player from every room containing them and
// notifies the survivors. Rooms left empty are evicted without a broadcast.
func (h *GameHandler) HandleDisconnect(c *Connection) {
	for _, update := range h.registry.RemovePlayer(c.PlayerID()) {
		h.broadcast(update)
	}
}

// broadcast fans out one committed update: the one-shot round result first
// when present, then the public snapshot to the room, then each member's
// private snapshot.
func (h *GameHandler) broadcast(update *game.Update) {
	if update == nil || update.Empty {
		return
	}

	if update.Result != nil {
		if msg, err := NewMessage(MessageTypeRoundResult, update.Result); err == nil {
			h.notifier.BroadcastToRoom(update.RoomID, msg)
		} else {
			h.logger.Error("Failed to create round result message", "error", err)
		}
	}

	if msg, err := NewMessage(MessageTypePublicUpdate, update.Public); err == nil {
		h.notifier.BroadcastToRoom(update.RoomID, msg)
	} else {
		h.logger.Error("Failed to create public update message", "error", err)
	}

	for playerID, view := range update.Private {
		msg, err := NewMessage(MessageTypePrivateUpdate, view)
		if err != nil {
			h.logger.Error("Failed to create private update message", "error", err)
			continue
		}
		_ = h.notifier.SendToPlayer(playerID, msg) // member may have dropped
	}
}

package server

import (
	"encoding/json"
	"time"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type JoinData struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type StartGameData struct {
	RoomID string `json:"roomId"`
}

type StartNextRoundData struct {
	RoomID string `json:"roomId"`
}

type RestartMatchData struct {
	RoomID string `json:"roomId"`
}

type ActionData struct {
	RoomID string `json:"roomId"`
	Action string `json:"action"` // "hit" or "stand"
}

// Server → Client Messages

type RoomErrorData struct {
	Message string `json:"message"`
}

type RoomJoinedData struct {
	RoomID     string `json:"roomId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// Public and private snapshot payloads are game.PublicView and
// game.PrivateView marshalled directly; round results are game.RoundResult.

// HTTP room creation

type CreateRoomRequest struct {
	Mode int `json:"mode"` // 3 or 5; anything else defaults to 3
}

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

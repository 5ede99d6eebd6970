package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants for the room protocol
const (
	// Client to server messages
	MessageTypeJoin           MessageType = "join"
	MessageTypeStartGame      MessageType = "start_game"
	MessageTypeStartNextRound MessageType = "start_next_round"
	MessageTypeRestartMatch   MessageType = "restart_match"
	MessageTypeAction         MessageType = "action"

	// Server to client messages
	MessageTypeRoomError     MessageType = "room_error"
	MessageTypeRoomJoined    MessageType = "room_joined"
	MessageTypePublicUpdate  MessageType = "game_update_public"
	MessageTypePrivateUpdate MessageType = "game_update_private"
	MessageTypeRoundResult   MessageType = "round_result"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

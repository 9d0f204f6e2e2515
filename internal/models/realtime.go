package models

import (
	"encoding/json"
	"time"
)

// Event types accepted from clients.
const (
	EventJoinRoom    = "join-room"
	EventCodeChange  = "code-change"
	EventSendMessage = "send-message"
	EventCursorMove  = "cursor-move"
)

// Event types emitted to clients.
const (
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
	EventCodeUpdated   = "code-updated"
	EventNewMessage    = "new-message"
	EventCursorUpdated = "cursor-updated"
)

// Event is the wire envelope for the real-time channel. Payload stays raw on
// receipt so each event type can be validated against its own schema before
// anything is relayed.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// OutboundEvent is the server-side envelope; payloads are concrete structs.
type OutboundEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// JoinRoomPayload asks to enter a room's broadcast group. Authorization is
// checked on the HTTP join path; the socket only validates the room exists.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// CodeChangePayload carries a full replacement of the shared buffer.
type CodeChangePayload struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

// SendMessagePayload carries a chat message for relay. Persistence happens on
// the HTTP path, independently of the broadcast.
type SendMessagePayload struct {
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	UserName string `json:"userName,omitempty"`
}

// CursorMovePayload reports an editor cursor position. High-frequency; the
// latest position simply overwrites what observers saw before.
type CursorMovePayload struct {
	RoomID   string         `json:"roomId"`
	Position CursorPosition `json:"position"`
}

type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// UserJoinedPayload notifies room members that a connection entered the group.
type UserJoinedPayload struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLeftPayload notifies room members that a connection left, whether via an
// explicit leave or a dropped socket.
type UserLeftPayload struct {
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type CodeUpdatedPayload struct {
	Code      string    `json:"code"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type NewMessagePayload struct {
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CursorUpdatedPayload struct {
	UserID    string         `json:"userId"`
	Position  CursorPosition `json:"position"`
	Timestamp time.Time      `json:"timestamp"`
}

package hub

import "collabcode/backend/internal/models"

// Client is the interface for one live connection to the session gateway.
// It abstracts the underlying transport so the hub can manage WebSocket
// connections and test doubles uniformly.
type Client interface {
	// ConnID returns the durable identifier of this connection. Distinct from
	// the user id: one user may hold several connections.
	ConnID() string
	// UserID returns the identity verified at handshake time. The hub trusts
	// this and overrides any identity claim found in event payloads.
	UserID() string
	// UserName returns the display name resolved at handshake time.
	UserName() string

	// RoomID returns the broadcast group the connection belongs to, or "" when
	// it has not joined one.
	RoomID() string
	// SetRoomID records the broadcast group. Called only by the hub.
	SetRoomID(string)

	// SendChannel returns the channel the hub pushes outbound events into.
	SendChannel() chan<- models.OutboundEvent

	// Run starts the transport's read and write pumps.
	Run()
	// Close tears down the transport and releases the send channel.
	Close()
}

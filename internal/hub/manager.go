// Package hub is the real-time session gateway: it owns the set of live
// connections, groups them into per-room broadcast groups, and relays
// collaboration events between members. Relaying is fan-out over buffered
// channels and never waits on persistence.
package hub

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"collabcode/backend/internal/models"
	"collabcode/backend/internal/storage"
)

// InboundEvent pairs a decoded envelope with the connection that sent it.
type InboundEvent struct {
	From  Client
	Event models.Event
}

// Manager serializes all gateway state behind one Run goroutine. Connection
// registration, room membership and event relay all flow through its
// channels, so no mutex guards the maps. Events from a single connection are
// relayed in the order they arrived; no ordering is promised across
// connections.
type Manager struct {
	RegisterCh   chan Client
	UnregisterCh chan Client
	EventCh      chan InboundEvent
	PubSubCh     chan RemoteEvent

	// clients is every live connection, by connection id.
	clients map[string]Client
	// rooms maps room id -> connection id -> client: the broadcast groups.
	rooms map[string]map[string]Client

	Storage storage.Storage

	// instanceID tags published events so this process ignores its own
	// echoes on the Redis bus.
	instanceID string
}

// RemoteEvent is an event relayed by another instance, received over Redis.
type RemoteEvent struct {
	Instance string               `json:"instance"`
	RoomID   string               `json:"roomId"`
	Sender   string               `json:"sender"`
	Event    models.OutboundEvent `json:"event"`
}

func NewManager(s storage.Storage) *Manager {
	return &Manager{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventCh:      make(chan InboundEvent, 64),
		PubSubCh:     make(chan RemoteEvent, 64),
		clients:      make(map[string]Client),
		rooms:        make(map[string]map[string]Client),
		Storage:      s,
		instanceID:   uuid.New().String(),
	}
}

// Run is the hub dispatcher. Start it once, in its own goroutine.
func (m *Manager) Run() {
	log.Println("Session hub started.")

	for {
		select {
		case client := <-m.RegisterCh:
			m.clients[client.ConnID()] = client

		case client := <-m.UnregisterCh:
			m.disconnect(client)

		case in := <-m.EventCh:
			m.handleEvent(in)

		case remote := <-m.PubSubCh:
			if remote.Instance == m.instanceID {
				continue // our own publication echoed back
			}
			m.fanOut(remote.RoomID, "", remote.Event)
		}
	}
}

// ClientCount reports the number of registered connections. Test hook.
func (m *Manager) ClientCount() int { return len(m.clients) }

func (m *Manager) handleEvent(in InboundEvent) {
	// EventCh is buffered, so an event can still be queued when its
	// connection's unregister has already been processed. Acting on it would
	// re-add a closed client to a room and the next fan-out would send on its
	// closed channel. Dead connection, dead events.
	if _, ok := m.clients[in.From.ConnID()]; !ok {
		return
	}

	switch in.Event.Type {
	case models.EventJoinRoom:
		var p models.JoinRoomPayload
		if err := json.Unmarshal(in.Event.Payload, &p); err != nil || p.RoomID == "" {
			m.dropMalformed(in)
			return
		}
		m.joinRoom(in.From, p.RoomID)

	case models.EventCodeChange:
		var p models.CodeChangePayload
		if err := json.Unmarshal(in.Event.Payload, &p); err != nil || p.RoomID == "" {
			m.dropMalformed(in)
			return
		}
		if in.From.RoomID() != p.RoomID {
			return
		}
		m.relay(in.From, p.RoomID, models.OutboundEvent{
			Type: models.EventCodeUpdated,
			Payload: models.CodeUpdatedPayload{
				Code:      p.Code,
				UserID:    in.From.UserID(),
				Timestamp: time.Now(),
			},
		})

	case models.EventSendMessage:
		var p models.SendMessagePayload
		if err := json.Unmarshal(in.Event.Payload, &p); err != nil || p.RoomID == "" || p.Message == "" {
			m.dropMalformed(in)
			return
		}
		if in.From.RoomID() != p.RoomID {
			return
		}
		m.relay(in.From, p.RoomID, models.OutboundEvent{
			Type: models.EventNewMessage,
			Payload: models.NewMessagePayload{
				Message:   p.Message,
				UserID:    in.From.UserID(),
				UserName:  in.From.UserName(),
				Timestamp: time.Now(),
			},
		})

	case models.EventCursorMove:
		var p models.CursorMovePayload
		if err := json.Unmarshal(in.Event.Payload, &p); err != nil || p.RoomID == "" {
			m.dropMalformed(in)
			return
		}
		if in.From.RoomID() != p.RoomID {
			return
		}
		m.relay(in.From, p.RoomID, models.OutboundEvent{
			Type: models.EventCursorUpdated,
			Payload: models.CursorUpdatedPayload{
				UserID:    in.From.UserID(),
				Position:  p.Position,
				Timestamp: time.Now(),
			},
		})

	default:
		m.dropMalformed(in)
	}
}

func (m *Manager) dropMalformed(in InboundEvent) {
	log.Printf("dropping malformed %q event from conn %s (user %s)",
		in.Event.Type, in.From.ConnID(), in.From.UserID())
}

// joinRoom puts the connection into the room's broadcast group and tells the
// other members. Authorization and capacity were already enforced on the HTTP
// join path; here we only require that the room exists and is active.
func (m *Manager) joinRoom(c Client, roomID string) {
	room, err := m.Storage.GetRoomByID(roomID)
	if err != nil || !room.IsActive {
		log.Printf("join-room rejected for conn %s: room %s unavailable", c.ConnID(), roomID)
		return
	}

	if prev := c.RoomID(); prev != "" && prev != roomID {
		m.leaveRoom(c, prev)
	}

	group, ok := m.rooms[roomID]
	if !ok {
		group = make(map[string]Client)
		m.rooms[roomID] = group
	}
	group[c.ConnID()] = c
	c.SetRoomID(roomID)

	m.relay(c, roomID, models.OutboundEvent{
		Type: models.EventUserJoined,
		Payload: models.UserJoinedPayload{
			UserID:    c.UserID(),
			UserName:  c.UserName(),
			Timestamp: time.Now(),
		},
	})
}

// disconnect drops the connection from its group and, unlike an explicit
// leave, is reached from every teardown path: the read pump funnels clean
// closes, network drops and heartbeat timeouts all through UnregisterCh, so
// peers always see a user-left.
func (m *Manager) disconnect(c Client) {
	if _, ok := m.clients[c.ConnID()]; !ok {
		return
	}
	delete(m.clients, c.ConnID())

	if roomID := c.RoomID(); roomID != "" {
		m.leaveRoom(c, roomID)
	}
	c.Close()
}

func (m *Manager) leaveRoom(c Client, roomID string) {
	group, ok := m.rooms[roomID]
	if !ok {
		return
	}
	delete(group, c.ConnID())
	if len(group) == 0 {
		delete(m.rooms, roomID)
	}
	c.SetRoomID("")

	m.relay(c, roomID, models.OutboundEvent{
		Type: models.EventUserLeft,
		Payload: models.UserLeftPayload{
			UserID:    c.UserID(),
			Timestamp: time.Now(),
		},
	})
}

// relay delivers the event to every member of the room except the sender,
// then publishes it to the Redis bus for other instances. Publish failures
// are logged and ignored; the local broadcast already happened.
func (m *Manager) relay(from Client, roomID string, event models.OutboundEvent) {
	m.fanOut(roomID, from.ConnID(), event)

	envelope := RemoteEvent{
		Instance: m.instanceID,
		RoomID:   roomID,
		Sender:   from.ConnID(),
		Event:    event,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("ERROR: failed to encode relay event: %v", err)
		return
	}
	if err := m.Storage.PublishEvent(roomID, payload); err != nil {
		log.Printf("WARN: failed to publish %s event for room %s: %v", event.Type, roomID, err)
	}
}

// fanOut pushes the event into every member's send channel, skipping
// excludeConnID. A member whose channel is full is treated as a dead slow
// consumer and disconnected rather than blocking the hub.
func (m *Manager) fanOut(roomID, excludeConnID string, event models.OutboundEvent) {
	group, ok := m.rooms[roomID]
	if !ok {
		return
	}
	var stalled []Client
	for connID, member := range group {
		if connID == excludeConnID {
			continue
		}
		select {
		case member.SendChannel() <- event:
		default:
			stalled = append(stalled, member)
		}
	}
	for _, member := range stalled {
		log.Printf("evicting slow consumer %s from room %s", member.ConnID(), roomID)
		m.disconnect(member)
	}
}

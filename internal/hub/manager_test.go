package hub_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"collabcode/backend/internal/hub"
	"collabcode/backend/internal/models"
)

func activeRoom(roomID, ownerID string) *models.Room {
	return &models.Room{
		RoomID:   roomID,
		OwnerID:  ownerID,
		Name:     "Test Room",
		IsActive: true,
		Settings: models.DefaultRoomSettings(),
	}
}

func rawPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	assert.NoError(t, err)
	return data
}

func joinedClient(t *testing.T, m *hub.Manager, storageMock *MockStorage, connID, userID, roomID string) *mockClient {
	t.Helper()
	c := newMockClient(connID, userID, userID)
	storageMock.On("GetRoomByID", roomID).Return(activeRoom(roomID, "owner-1"), nil)
	storageMock.On("PublishEvent", roomID, mock.Anything).Return(nil)

	m.RegisterCh <- c
	m.EventCh <- hub.InboundEvent{From: c, Event: models.Event{
		Type:    models.EventJoinRoom,
		Payload: rawPayload(t, models.JoinRoomPayload{RoomID: roomID}),
	}}
	time.Sleep(50 * time.Millisecond)
	return c
}

func TestManager_RegisterUnregister(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	clientA := newMockClient("conn_A", "user_A", "Alice")

	m.RegisterCh <- clientA
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, m.ClientCount())

	m.UnregisterCh <- clientA
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, m.ClientCount())
	assert.True(t, clientA.closed, "unregister must close the client")
}

func TestManager_JoinRoomNotifiesOthers(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	clientA := joinedClient(t, m, storageMock, "conn_A", "user_A", "room-1")
	clientB := joinedClient(t, m, storageMock, "conn_B", "user_B", "room-1")

	// A was already in the group when B joined, so A sees user-joined.
	eventsA := clientA.drainEvents()
	assert.Len(t, eventsA, 1)
	assert.Equal(t, models.EventUserJoined, eventsA[0].Type)
	payload := eventsA[0].Payload.(models.UserJoinedPayload)
	assert.Equal(t, "user_B", payload.UserID)

	// B must not receive its own join notification.
	assert.Empty(t, clientB.drainEvents())
}

func TestManager_JoinRoomRejectsInactiveRoom(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	room := activeRoom("room-dead", "owner-1")
	room.IsActive = false
	storageMock.On("GetRoomByID", "room-dead").Return(room, nil)

	clientA := newMockClient("conn_A", "user_A", "Alice")
	m.RegisterCh <- clientA
	m.EventCh <- hub.InboundEvent{From: clientA, Event: models.Event{
		Type:    models.EventJoinRoom,
		Payload: rawPayload(t, models.JoinRoomPayload{RoomID: "room-dead"}),
	}}
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, clientA.RoomID(), "client must not enter an inactive room")
	storageMock.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything)
}

func TestManager_CodeChangeRelayedToOthersOnly(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	clientA := joinedClient(t, m, storageMock, "conn_A", "user_A", "room-1")
	clientB := joinedClient(t, m, storageMock, "conn_B", "user_B", "room-1")
	clientA.drainEvents()
	clientB.drainEvents()

	m.EventCh <- hub.InboundEvent{From: clientA, Event: models.Event{
		Type:    models.EventCodeChange,
		Payload: rawPayload(t, models.CodeChangePayload{RoomID: "room-1", Code: "package main"}),
	}}
	time.Sleep(50 * time.Millisecond)

	eventsB := clientB.drainEvents()
	assert.Len(t, eventsB, 1)
	assert.Equal(t, models.EventCodeUpdated, eventsB[0].Type)
	payload := eventsB[0].Payload.(models.CodeUpdatedPayload)
	assert.Equal(t, "package main", payload.Code)
	assert.Equal(t, "user_A", payload.UserID, "sender identity comes from the connection, not the payload")

	assert.Empty(t, clientA.drainEvents(), "sender must not receive its own event")
}

func TestManager_EventForForeignRoomDropped(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	clientA := joinedClient(t, m, storageMock, "conn_A", "user_A", "room-1")
	clientB := joinedClient(t, m, storageMock, "conn_B", "user_B", "room-2")
	clientA.drainEvents()
	clientB.drainEvents()

	// A is a member of room-1 but targets room-2.
	m.EventCh <- hub.InboundEvent{From: clientA, Event: models.Event{
		Type:    models.EventCodeChange,
		Payload: rawPayload(t, models.CodeChangePayload{RoomID: "room-2", Code: "stolen"}),
	}}
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, clientB.drainEvents(), "events must only relay within the sender's own room")
}

func TestManager_MalformedEventDropped(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	clientA := joinedClient(t, m, storageMock, "conn_A", "user_A", "room-1")
	clientB := joinedClient(t, m, storageMock, "conn_B", "user_B", "room-1")
	clientA.drainEvents()
	clientB.drainEvents()

	m.EventCh <- hub.InboundEvent{From: clientA, Event: models.Event{
		Type:    models.EventSendMessage,
		Payload: json.RawMessage(`{"roomId":`),
	}}
	m.EventCh <- hub.InboundEvent{From: clientA, Event: models.Event{
		Type:    "shutdown-server",
		Payload: json.RawMessage(`{}`),
	}}
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, clientB.drainEvents(), "malformed and unknown events must not be relayed")
	assert.Equal(t, 2, m.ClientCount(), "malformed events must not kill the connection")
}

func TestManager_DisconnectBroadcastsUserLeft(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	clientA := joinedClient(t, m, storageMock, "conn_A", "user_A", "room-1")
	clientB := joinedClient(t, m, storageMock, "conn_B", "user_B", "room-1")
	clientA.drainEvents()
	clientB.drainEvents()

	m.UnregisterCh <- clientA
	time.Sleep(50 * time.Millisecond)

	eventsB := clientB.drainEvents()
	assert.Len(t, eventsB, 1)
	assert.Equal(t, models.EventUserLeft, eventsB[0].Type)
	payload := eventsB[0].Payload.(models.UserLeftPayload)
	assert.Equal(t, "user_A", payload.UserID)
	assert.True(t, clientA.closed)
}

func TestManager_StaleEventFromClosedConnectionIgnored(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	clientA := joinedClient(t, m, storageMock, "conn_A", "user_A", "room-1")
	clientB := joinedClient(t, m, storageMock, "conn_B", "user_B", "room-1")
	clientB.drainEvents()

	m.UnregisterCh <- clientA
	time.Sleep(50 * time.Millisecond)
	clientB.drainEvents() // user-left for A

	// A's join-room was still queued when its unregister was processed. It
	// must not put the closed connection back into the room.
	m.EventCh <- hub.InboundEvent{From: clientA, Event: models.Event{
		Type:    models.EventJoinRoom,
		Payload: rawPayload(t, models.JoinRoomPayload{RoomID: "room-1"}),
	}}
	// Subsequent room traffic fans out to every member; if A were re-added
	// this would send on its closed channel and panic the hub.
	m.EventCh <- hub.InboundEvent{From: clientB, Event: models.Event{
		Type:    models.EventCodeChange,
		Payload: rawPayload(t, models.CodeChangePayload{RoomID: "room-1", Code: "still alive"}),
	}}
	time.Sleep(50 * time.Millisecond)

	clientC := joinedClient(t, m, storageMock, "conn_C", "user_C", "room-1")
	time.Sleep(50 * time.Millisecond)

	eventsB := clientB.drainEvents()
	assert.Len(t, eventsB, 1, "hub must still be relaying")
	assert.Equal(t, models.EventUserJoined, eventsB[0].Type)
	assert.Empty(t, clientC.drainEvents())
	assert.Equal(t, 2, m.ClientCount())
}

func TestManager_RemoteEventFannedOut(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	clientA := joinedClient(t, m, storageMock, "conn_A", "user_A", "room-1")
	clientA.drainEvents()

	m.PubSubCh <- hub.RemoteEvent{
		Instance: "some-other-instance",
		RoomID:   "room-1",
		Sender:   "conn_X",
		Event: models.OutboundEvent{
			Type:    models.EventNewMessage,
			Payload: models.NewMessagePayload{Message: "hi from afar", UserID: "user_X"},
		},
	}
	time.Sleep(50 * time.Millisecond)

	eventsA := clientA.drainEvents()
	assert.Len(t, eventsA, 1)
	assert.Equal(t, models.EventNewMessage, eventsA[0].Type)
}

func TestManager_PerConnectionOrderPreserved(t *testing.T) {
	storageMock := new(MockStorage)
	m := hub.NewManager(storageMock)
	go m.Run()

	clientA := joinedClient(t, m, storageMock, "conn_A", "user_A", "room-1")
	clientB := joinedClient(t, m, storageMock, "conn_B", "user_B", "room-1")
	clientA.drainEvents()
	clientB.drainEvents()

	for _, code := range []string{"v1", "v2", "v3"} {
		m.EventCh <- hub.InboundEvent{From: clientA, Event: models.Event{
			Type:    models.EventCodeChange,
			Payload: rawPayload(t, models.CodeChangePayload{RoomID: "room-1", Code: code}),
		}}
	}
	time.Sleep(50 * time.Millisecond)

	eventsB := clientB.drainEvents()
	assert.Len(t, eventsB, 3)
	for i, want := range []string{"v1", "v2", "v3"} {
		payload := eventsB[i].Payload.(models.CodeUpdatedPayload)
		assert.Equal(t, want, payload.Code)
	}
}

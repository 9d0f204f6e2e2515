package hub_test

import (
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"collabcode/backend/internal/hub"
	"collabcode/backend/internal/models"
)

// MockStorage is a testify mock for the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

// User operations
func (m *MockStorage) CreateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) UpdateProfile(userID string, updates map[string]interface{}) (*models.User, error) {
	args := m.Called(userID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SetUserOnline(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) SetUserOffline(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) RefreshPresence(userID string) {
	m.Called(userID)
}

func (m *MockStorage) GetOnlineUsers(limit int) ([]models.User, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

// Room operations
func (m *MockStorage) CreateRoom(room *models.Room) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockStorage) GetRoomByID(roomID string) (*models.Room, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) ListRooms(listType, userID string, page, limit int) ([]models.Room, int64, error) {
	args := m.Called(listType, userID, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Room), args.Get(1).(int64), args.Error(2)
}

func (m *MockStorage) JoinRoom(roomID, userID string) (*models.Room, error) {
	args := m.Called(roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) LeaveRoom(roomID, userID string) error {
	args := m.Called(roomID, userID)
	return args.Error(0)
}

func (m *MockStorage) UpdateCode(roomID, code string) error {
	args := m.Called(roomID, code)
	return args.Error(0)
}

func (m *MockStorage) UpdateRoom(roomID string, updates map[string]interface{}) (*models.Room, error) {
	args := m.Called(roomID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) DeactivateRoom(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

// Message operations
func (m *MockStorage) SaveMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetMessageByID(id uint) (*models.Message, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) EditMessage(id uint, content string) (*models.Message, error) {
	args := m.Called(id, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) SoftDeleteMessage(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStorage) AddReaction(messageID uint, userID, emoji string) (*models.Message, error) {
	args := m.Called(messageID, userID, emoji)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) RemoveReaction(messageID uint, userID, emoji string) (*models.Message, error) {
	args := m.Called(messageID, userID, emoji)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) ListMessages(roomID string, page, limit int) ([]models.Message, int64, error) {
	args := m.Called(roomID, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Message), args.Get(1).(int64), args.Error(2)
}

// Event bus operations
func (m *MockStorage) PublishEvent(roomID string, payload []byte) error {
	args := m.Called(roomID, payload)
	return args.Error(0)
}

func (m *MockStorage) SubscribeEvents() *redis.PubSub {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*redis.PubSub)
}

// mockClient is a test double for the hub.Client interface.
type mockClient struct {
	connID   string
	userID   string
	userName string
	roomID   string
	send     chan models.OutboundEvent
	closed   bool
}

func newMockClient(connID, userID, userName string) *mockClient {
	return &mockClient{
		connID:   connID,
		userID:   userID,
		userName: userName,
		send:     make(chan models.OutboundEvent, 10), // Buffered to prevent blocking in tests
	}
}

func (c *mockClient) ConnID() string   { return c.connID }
func (c *mockClient) UserID() string   { return c.userID }
func (c *mockClient) UserName() string { return c.userName }
func (c *mockClient) RoomID() string   { return c.roomID }
func (c *mockClient) SetRoomID(id string) {
	c.roomID = id
}

func (c *mockClient) SendChannel() chan<- models.OutboundEvent { return c.send }

func (c *mockClient) Run()   {}
func (c *mockClient) Close() { c.closed = true }

// drainEvents empties the send channel for assertions.
func (c *mockClient) drainEvents() []models.OutboundEvent {
	var events []models.OutboundEvent
	for {
		select {
		case ev := <-c.send:
			events = append(events, ev)
		default:
			return events
		}
	}
}

var _ hub.Client = (*mockClient)(nil)

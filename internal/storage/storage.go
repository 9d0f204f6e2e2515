package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"collabcode/backend/internal/models"
)

// Storage is the persistence boundary consumed by handlers and the hub.
// PostgreSQL (via GORM) owns rooms, participants, messages and users; Redis
// carries presence keys and the cross-instance event bus.
type Storage interface {
	// Users
	CreateUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateProfile(userID string, updates map[string]interface{}) (*models.User, error)
	SetUserOnline(userID string) error
	SetUserOffline(userID string) error
	RefreshPresence(userID string)
	GetOnlineUsers(limit int) ([]models.User, error)

	// Rooms
	CreateRoom(room *models.Room) error
	GetRoomByID(roomID string) (*models.Room, error)
	ListRooms(listType, userID string, page, limit int) ([]models.Room, int64, error)
	JoinRoom(roomID, userID string) (*models.Room, error)
	LeaveRoom(roomID, userID string) error
	UpdateCode(roomID, code string) error
	UpdateRoom(roomID string, updates map[string]interface{}) (*models.Room, error)
	DeactivateRoom(roomID string) error

	// Messages
	SaveMessage(msg *models.Message) error
	GetMessageByID(id uint) (*models.Message, error)
	EditMessage(id uint, content string) (*models.Message, error)
	SoftDeleteMessage(id uint) error
	AddReaction(messageID uint, userID, emoji string) (*models.Message, error)
	RemoveReaction(messageID uint, userID, emoji string) (*models.Message, error)
	ListMessages(roomID string, page, limit int) ([]models.Message, int64, error)

	// Real-time event bus
	PublishEvent(roomID string, payload []byte) error
	SubscribeEvents() *redis.PubSub
}

// Service implements Storage over GORM + Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// AutoMigrate creates or updates every table this service owns.
func (s *Service) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Participant{},
		&models.Message{},
		&models.Reaction{},
	)
}

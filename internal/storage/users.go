package storage

import (
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/models"
)

// presenceTTL bounds how long a crashed process can leave a user marked
// online in Redis.
const presenceTTL = 5 * time.Minute

func presenceKey(userID string) string { return "online:" + userID }

func (s *Service) CreateUser(user *models.User) error {
	return s.DB.Create(user).Error
}

func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a field-scoped patch (name, avatar) and returns the
// refreshed record.
func (s *Service) UpdateProfile(userID string, updates map[string]interface{}) (*models.User, error) {
	if len(updates) > 0 {
		res := s.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, apperr.ErrNotFound
		}
	}
	return s.GetUserByID(userID)
}

// SetUserOnline flips the durable flag and drops a TTL'd presence key in
// Redis. The Redis side is best-effort; presence survives on the DB flag if
// Redis is down.
func (s *Service) SetUserOnline(userID string) error {
	err := s.DB.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_online": true,
			"last_seen": time.Now(),
		}).Error
	if err != nil {
		return err
	}
	if s.Redis != nil {
		if err := s.Redis.Set(s.Ctx, presenceKey(userID), "1", presenceTTL).Err(); err != nil {
			log.Printf("WARN: failed to set presence key for %s: %v", userID, err)
		}
	}
	return nil
}

func (s *Service) SetUserOffline(userID string) error {
	err := s.DB.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_online": false,
			"last_seen": time.Now(),
		}).Error
	if err != nil {
		return err
	}
	if s.Redis != nil {
		if err := s.Redis.Del(s.Ctx, presenceKey(userID)).Err(); err != nil {
			log.Printf("WARN: failed to clear presence key for %s: %v", userID, err)
		}
	}
	return nil
}

// RefreshPresence extends the Redis presence TTL; called from the socket
// heartbeat so abrupt drops age out on their own.
func (s *Service) RefreshPresence(userID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Expire(s.Ctx, presenceKey(userID), presenceTTL).Err(); err != nil &&
		!errors.Is(err, redis.Nil) {
		log.Printf("WARN: failed to refresh presence for %s: %v", userID, err)
	}
}

// GetOnlineUsers lists users currently flagged online.
func (s *Service) GetOnlineUsers(limit int) ([]models.User, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	var users []models.User
	err := s.DB.Where("is_online = ?", true).
		Order("last_seen DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

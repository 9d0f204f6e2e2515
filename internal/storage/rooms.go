package storage

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/models"
)

const roomIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newRoomID builds a human-shareable id like "room-k3f9x2mqa-lz4p1".
func newRoomID() string {
	buf := make([]byte, 9)
	for i := range buf {
		buf[i] = roomIDAlphabet[rand.Intn(len(roomIDAlphabet))]
	}
	return fmt.Sprintf("room-%s-%s", buf, strconv.FormatInt(time.Now().Unix(), 36))
}

// CreateRoom persists a new room with the owner auto-joined as an active
// participant and stats zeroed. The generated id is collision-checked.
func (s *Service) CreateRoom(room *models.Room) error {
	now := time.Now()
	room.IsActive = true
	room.Stats = models.RoomStats{TotalParticipants: 1}
	room.LastActivity = now
	room.Participants = []models.Participant{{
		UserID:       room.OwnerID,
		JoinedAt:     now,
		IsActive:     true,
		LastActivity: now,
	}}

	for attempt := 0; attempt < 5; attempt++ {
		room.RoomID = newRoomID()
		for i := range room.Participants {
			room.Participants[i].RoomID = room.RoomID
		}
		err := s.DB.Create(room).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create room: %w", err)
		}
	}
	return errors.New("create room: could not allocate a unique room id")
}

// GetRoomByID loads a room with its full participant list.
func (s *Service) GetRoomByID(roomID string) (*models.Room, error) {
	var room models.Room
	err := s.DB.Preload("Participants").Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms pages active rooms, most recently active first. listType "public"
// lists public rooms; "my" lists rooms the user owns or has ever joined.
func (s *Service) ListRooms(listType, userID string, page, limit int) ([]models.Room, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	query := s.DB.Model(&models.Room{}).Where("is_active = ?", true)
	switch listType {
	case "my":
		query = query.Where(
			"owner_id = ? OR room_id IN (?)",
			userID,
			s.DB.Model(&models.Participant{}).Select("room_id").Where("user_id = ?", userID),
		)
	default:
		query = query.Where("is_public = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rooms []models.Room
	err := query.Preload("Participants").
		Order("last_activity DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rooms).Error
	if err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}

// JoinRoom adds userID to the room, re-activating a previous membership
// record when one exists. The participant counter is bumped only on a
// first-ever join, so leave/rejoin cycles do not inflate it. The room row is
// locked for the capacity check so two racing joins cannot both take the last
// slot.
func (s *Service) JoinRoom(roomID, userID string) (*models.Room, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		q := tx.Where("room_id = ?", roomID)
		// SQLite serializes writers and rejects FOR UPDATE; the row lock only
		// applies on PostgreSQL.
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := q.First(&room).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if !room.IsActive {
			return apperr.ErrRoomInactive
		}
		if !room.Settings.AllowJoin {
			return apperr.ErrJoinDisallowed
		}

		if err := tx.Where("room_id = ?", roomID).Find(&room.Participants).Error; err != nil {
			return err
		}

		now := time.Now()
		if existing := room.FindParticipant(userID); existing != nil {
			if !existing.IsActive {
				if len(room.ActiveParticipants()) >= room.Settings.MaxParticipants {
					return apperr.ErrRoomFull
				}
				err = tx.Model(&models.Participant{}).Where("id = ?", existing.ID).
					Updates(map[string]interface{}{
						"is_active":     true,
						"last_activity": now,
					}).Error
				if err != nil {
					return err
				}
			}
			// Already active: joining again is a no-op apart from the
			// activity refresh below.
		} else {
			if len(room.ActiveParticipants()) >= room.Settings.MaxParticipants {
				return apperr.ErrRoomFull
			}
			p := models.Participant{
				RoomID:       roomID,
				UserID:       userID,
				JoinedAt:     now,
				IsActive:     true,
				LastActivity: now,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			err = tx.Model(&models.Room{}).Where("room_id = ?", roomID).
				Update("stats_total_participants", gorm.Expr("stats_total_participants + 1")).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&models.Room{}).Where("room_id = ?", roomID).
			Update("last_activity", now).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoomByID(roomID)
}

// LeaveRoom marks the membership inactive. Idempotent: leaving twice, or
// leaving a room never joined, succeeds without effect.
func (s *Service) LeaveRoom(roomID, userID string) error {
	now := time.Now()
	err := s.DB.Model(&models.Participant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]interface{}{
			"is_active":     false,
			"last_activity": now,
		}).Error
	if err != nil {
		return err
	}
	return s.DB.Model(&models.Room{}).Where("room_id = ?", roomID).
		Update("last_activity", now).Error
}

// UpdateCode replaces the shared buffer wholesale. Only the code column, the
// change counter and last_activity are touched, so a concurrent settings
// patch on the same room is never clobbered.
func (s *Service) UpdateCode(roomID, code string) error {
	res := s.DB.Model(&models.Room{}).Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"code":                     code,
			"stats_total_code_changes": gorm.Expr("stats_total_code_changes + 1"),
			"last_activity":            time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrRoomNotFound
	}
	return nil
}

// UpdateRoom applies a field-scoped patch. Callers build the updates map from
// only the fields present in the request, so omitted settings keep their
// prior values.
func (s *Service) UpdateRoom(roomID string, updates map[string]interface{}) (*models.Room, error) {
	if len(updates) > 0 {
		updates["last_activity"] = time.Now()
		res := s.DB.Model(&models.Room{}).Where("room_id = ?", roomID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, apperr.ErrRoomNotFound
		}
	}
	return s.GetRoomByID(roomID)
}

// DeactivateRoom soft-deletes: the room drops out of listings and joins, but
// every row stays for history and stats.
func (s *Service) DeactivateRoom(roomID string) error {
	res := s.DB.Model(&models.Room{}).Where("room_id = ?", roomID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrRoomNotFound
	}
	return nil
}

// bumpMessageCounter is best-effort; a failed bump is logged, never surfaced.
func (s *Service) bumpMessageCounter(roomID string) {
	err := s.DB.Model(&models.Room{}).Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"stats_total_messages": gorm.Expr("stats_total_messages + 1"),
			"last_activity":        time.Now(),
		}).Error
	if err != nil {
		log.Printf("WARN: failed to bump message counter for room %s: %v", roomID, err)
	}
}

package storage

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/models"
)

// SaveMessage validates and persists a chat message, then bumps the owning
// room's message counter. The counter is not transactional with the insert;
// these are best-effort stats, not accounting.
func (s *Service) SaveMessage(msg *models.Message) error {
	msg.Content = strings.TrimSpace(msg.Content)
	if msg.Content == "" {
		return apperr.ErrMessageEmpty
	}
	if len([]rune(msg.Content)) > models.MaxMessageLength {
		return apperr.ErrMessageTooLong
	}
	if msg.Kind == "" {
		msg.Kind = models.MessageKindPlain
	}

	if err := s.DB.Create(msg).Error; err != nil {
		return err
	}

	s.bumpMessageCounter(msg.RoomID)
	return nil
}

// GetMessageByID loads a message with its reactions, including soft-deleted
// ones (moderation paths need to see them).
func (s *Service) GetMessageByID(id uint) (*models.Message, error) {
	var msg models.Message
	err := s.DB.Preload("Reactions").First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessage replaces the content and sets the edited flag. The flag is
// never cleared again.
func (s *Service) EditMessage(id uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.ErrMessageEmpty
	}
	if len([]rune(content)) > models.MaxMessageLength {
		return nil, apperr.ErrMessageTooLong
	}

	now := time.Now()
	res := s.DB.Model(&models.Message{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
			"edited_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrMessageNotFound
	}
	return s.GetMessageByID(id)
}

// SoftDeleteMessage hides a message from listings while keeping the row.
func (s *Service) SoftDeleteMessage(id uint) error {
	now := time.Now()
	res := s.DB.Model(&models.Message{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrMessageNotFound
	}
	return nil
}

// AddReaction records (user, emoji) on a message. A duplicate pair is a
// no-op, enforced by the unique index plus ON CONFLICT DO NOTHING.
func (s *Service) AddReaction(messageID uint, userID, emoji string) (*models.Message, error) {
	if _, err := s.GetMessageByID(messageID); err != nil {
		return nil, err
	}
	reaction := models.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}
	err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&reaction).Error
	if err != nil {
		return nil, err
	}
	return s.GetMessageByID(messageID)
}

// RemoveReaction deletes the (user, emoji) pair; absence is a no-op.
func (s *Service) RemoveReaction(messageID uint, userID, emoji string) (*models.Message, error) {
	if _, err := s.GetMessageByID(messageID); err != nil {
		return nil, err
	}
	err := s.DB.Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&models.Reaction{}).Error
	if err != nil {
		return nil, err
	}
	return s.GetMessageByID(messageID)
}

// ListMessages pages a room's visible messages. Internally newest-first so
// page 1 is the latest slice, then reversed to chronological order for
// display. Soft-deleted messages are excluded; the total counts only visible
// ones.
func (s *Service) ListMessages(roomID string, page, limit int) ([]models.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := s.DB.Model(&models.Message{}).
		Where("room_id = ? AND is_deleted = ?", roomID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	err := query.Preload("Reactions").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// Message kinds. Anything else is rejected at the API boundary.
const (
	MessageKindPlain  = "message"
	MessageKindSystem = "system"
	MessageKindCode   = "code"
	MessageKindFile   = "file"
)

// MaxMessageLength caps message content, in characters.
const MaxMessageLength = 1000

// Message is a chat entry scoped to a room. Deletion is soft: content is
// retained, visibility suppressed. Edits set IsEdited permanently.
type Message struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RoomID   string `gorm:"index:idx_room_created;not null" json:"room"`
	SenderID string `gorm:"index;not null" json:"sender"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Kind     string `gorm:"type:text;default:message" json:"type"`

	// Metadata carries kind-specific fields (language/line for code, file
	// name/size for files, action for system entries) as raw JSON.
	Metadata string `gorm:"type:text" json:"metadata,omitempty"`

	IsEdited  bool       `json:"isEdited"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	IsDeleted bool       `gorm:"index" json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	Reactions []Reaction     `gorm:"foreignKey:MessageID" json:"reactions"`
	Mentions  pq.StringArray `gorm:"type:text[]" json:"mentions"`

	CreatedAt time.Time `gorm:"index:idx_room_created" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Reaction records one user's emoji on a message. The (message, user, emoji)
// triple is unique; re-adding it is a no-op at the storage layer.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	MessageID uint      `gorm:"uniqueIndex:idx_msg_user_emoji;not null" json:"-"`
	UserID    string    `gorm:"uniqueIndex:idx_msg_user_emoji;not null" json:"user"`
	Emoji     string    `gorm:"uniqueIndex:idx_msg_user_emoji;not null" json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasReaction reports whether user already reacted with emoji.
func (m *Message) HasReaction(userID, emoji string) bool {
	for _, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return true
		}
	}
	return false
}

// ValidKind reports whether kind is one of the supported message kinds.
func ValidKind(kind string) bool {
	switch kind {
	case MessageKindPlain, MessageKindSystem, MessageKindCode, MessageKindFile:
		return true
	}
	return false
}

package models

import "time"

// RoomSettings controls who may enter a room and how the editor behaves.
// It is embedded into Room so a settings patch and a code update touch
// disjoint columns.
type RoomSettings struct {
	AllowJoin         bool `json:"allowJoin"`
	RequirePermission bool `json:"requirePermission"`
	MaxParticipants   int  `json:"maxParticipants"`
	AutoSave          bool `json:"autoSave"`
	// AutoSaveInterval is in seconds.
	AutoSaveInterval int `json:"autoSaveInterval"`
}

// RoomStats are best-effort counters; they are bumped alongside mutations and
// are not transactional with them.
type RoomStats struct {
	TotalParticipants int `json:"totalParticipants"`
	TotalMessages     int `json:"totalMessages"`
	TotalCodeChanges  int `json:"totalCodeChanges"`
}

// Room is a named collaborative session: one shared code buffer, one owner,
// a participant set. Rooms are never hard-deleted; IsActive=false is the
// soft-delete state so history and stats survive.
type Room struct {
	// RoomID is the human-shareable identifier ("room-xxxxxxxxx-xxxxxx").
	RoomID      string `gorm:"primaryKey" json:"roomId"`
	OwnerID     string `gorm:"index;not null" json:"owner"`
	Name        string `gorm:"type:text;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Language    string `gorm:"type:text;default:javascript" json:"language"`

	// Code is the shared buffer. Last writer wins; no merging.
	Code string `gorm:"type:text" json:"code"`

	IsPublic bool `gorm:"index" json:"isPublic"`
	IsActive bool `gorm:"index" json:"isActive"`

	Settings RoomSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	Stats    RoomStats    `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`

	Participants []Participant `gorm:"foreignKey:RoomID;references:RoomID" json:"participants"`

	LastActivity time.Time `json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DefaultRoomSettings returns the settings applied when a creation request
// omits them.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		AllowJoin:         true,
		RequirePermission: false,
		MaxParticipants:   10,
		AutoSave:          true,
		AutoSaveInterval:  30,
	}
}

// Participant is one user's membership record in a room. Leaving marks the
// record inactive instead of deleting it, so a rejoin reuses it and the join
// history survives. At most one record exists per (room, user) pair.
type Participant struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	RoomID       string    `gorm:"uniqueIndex:idx_room_user;not null" json:"-"`
	UserID       string    `gorm:"uniqueIndex:idx_room_user;not null" json:"user"`
	JoinedAt     time.Time `json:"joinedAt"`
	IsActive     bool      `json:"isActive"`
	LastActivity time.Time `json:"lastActivity"`
}

// ActiveParticipants filters the loaded participant list down to members who
// have not left.
func (r *Room) ActiveParticipants() []Participant {
	active := make([]Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active
}

// FindParticipant returns the membership record for userID, active or not.
func (r *Room) FindParticipant(userID string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].UserID == userID {
			return &r.Participants[i]
		}
	}
	return nil
}

// RoomInfo is the API projection of a Room.
type RoomInfo struct {
	RoomID           string       `json:"roomId"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Owner            string       `json:"owner"`
	Language         string       `json:"language"`
	IsPublic         bool         `json:"isPublic"`
	IsActive         bool         `json:"isActive"`
	Settings         RoomSettings `json:"settings"`
	Stats            RoomStats    `json:"stats"`
	LastActivity     time.Time    `json:"lastActivity"`
	CreatedAt        time.Time    `json:"createdAt"`
	ParticipantCount int          `json:"participantCount"`
}

func (r *Room) GetRoomInfo() RoomInfo {
	return RoomInfo{
		RoomID:           r.RoomID,
		Name:             r.Name,
		Description:      r.Description,
		Owner:            r.OwnerID,
		Language:         r.Language,
		IsPublic:         r.IsPublic,
		IsActive:         r.IsActive,
		Settings:         r.Settings,
		Stats:            r.Stats,
		LastActivity:     r.LastActivity,
		CreatedAt:        r.CreatedAt,
		ParticipantCount: len(r.ActiveParticipants()),
	}
}

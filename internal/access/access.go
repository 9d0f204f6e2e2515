// Package access holds the authorization decision functions. Every function
// is pure: it looks only at the identity and the room/message snapshots the
// caller passes in, never at storage. No partial grants — a false answer maps
// to a Forbidden error at the call site.
package access

import "collabcode/backend/internal/models"

// CanReadRoom allows the owner, any past or present participant, and anyone
// at all when the room is public. Read access is not revoked on leave.
func CanReadRoom(userID string, room *models.Room) bool {
	if room.IsPublic {
		return true
	}
	if room.OwnerID == userID {
		return true
	}
	return room.FindParticipant(userID) != nil
}

// CanWriteCode allows the owner and active participants.
func CanWriteCode(userID string, room *models.Room) bool {
	return isActiveMember(userID, room)
}

// CanSendMessage allows the owner and active participants.
func CanSendMessage(userID string, room *models.Room) bool {
	return isActiveMember(userID, room)
}

// CanModerateRoom (settings updates, room deletion) is owner-only.
func CanModerateRoom(userID string, room *models.Room) bool {
	return room.OwnerID == userID
}

// CanEditMessage is sender-only.
func CanEditMessage(userID string, msg *models.Message) bool {
	return msg.SenderID == userID
}

// CanDeleteMessage allows the sender and the room owner.
func CanDeleteMessage(userID string, msg *models.Message, room *models.Room) bool {
	return msg.SenderID == userID || room.OwnerID == userID
}

// CanJoin gates entry: the room must be active and accepting joins, with a
// free slot. Capacity is checked here at join time only; lowering
// max-participants later does not evict anyone.
func CanJoin(room *models.Room) bool {
	if !room.IsActive || !room.Settings.AllowJoin {
		return false
	}
	return len(room.ActiveParticipants()) < room.Settings.MaxParticipants
}

// The owner is implicitly a member even when absent from the participant
// list; everyone else needs an active record.
func isActiveMember(userID string, room *models.Room) bool {
	if room.OwnerID == userID {
		return true
	}
	p := room.FindParticipant(userID)
	return p != nil && p.IsActive
}

package chat

import "time"

// Room is either a permanent 1:1 chat (IsDirect) or a named group.
// CanonicalKey is unique across all rooms.
type Room struct {
	ID           int64     `db:"id" json:"id"`
	CanonicalKey string    `db:"canonical_key" json:"-"`
	DisplayName  string    `db:"display_name" json:"room_name"`
	IsDirect     bool      `db:"is_direct" json:"is_direct"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CheckJoin applies the join rules for a user whose active state is known.
// An existing open span wins over the private-room rule.
func (r Room) CheckJoin(alreadyActive bool) error {
	if alreadyActive {
		return ErrAlreadyMember
	}
	if r.IsDirect {
		return ErrPrivateRoomJoinForbidden
	}
	return nil
}

// Deletable reports whether the room may be removed once it has no active members.
func (r Room) Deletable(activeMembers int) bool {
	return !r.IsDirect && activeMembers == 0
}

// RoomWithMembers is a room rendered together with its active members.
type RoomWithMembers struct {
	Room
	Members []User `json:"room_member,omitempty"`
}

package chat

import "time"

// Membership is one continuous span of a user's presence in a room.
// A span with a nil LeftAt is the active (open) span; there is at most one per
// (UserID, RoomID). Closed spans are kept as history.
type Membership struct {
	ID       int64      `db:"id" json:"id"`
	UserID   int64      `db:"user_id" json:"user_id"`
	RoomID   int64      `db:"room_id" json:"room_id"`
	JoinedAt time.Time  `db:"joined_at" json:"joined_at"`
	LeftAt   *time.Time `db:"left_at" json:"left_at,omitempty"`
}

// Active tells whether the span is still open.
func (m Membership) Active() bool {
	return m.LeftAt == nil
}

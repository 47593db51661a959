package repository

import (
	"context"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

// RoomRepository owns room records and the canonical-key uniqueness invariant.
type RoomRepository interface {
	// GetOrCreateDirectRoom returns the room keyed by room.CanonicalKey, creating
	// it with open spans for memberIDs when absent. Concurrent callers for the
	// same key observe a single room.
	GetOrCreateDirectRoom(ctx context.Context, room chat.Room, memberIDs []int64) (chat.Room, bool, error)
	// CreateRoom inserts a group room and opens spans for memberIDs.
	// A taken canonical key fails with chat.ErrRoomExists.
	CreateRoom(ctx context.Context, room chat.Room, memberIDs []int64) (chat.Room, error)
	GetRoom(ctx context.Context, roomID int64) (chat.Room, error)
	ListGroupRooms(ctx context.Context) ([]chat.Room, error)
}

// Departure is the outcome of closing a span.
type Departure struct {
	Membership chat.Membership
	// Remaining holds the members still active once the span closed.
	Remaining   []int64
	RoomDeleted bool
}

// MembershipRepository is the append-only ledger of membership spans.
type MembershipRepository interface {
	IsActiveMember(ctx context.Context, userID, roomID int64) (bool, error)
	ActiveMemberIDs(ctx context.Context, roomID int64) ([]int64, error)
	// Join opens a span. Fails with chat.ErrAlreadyMember, chat.ErrPrivateRoomJoinForbidden
	// or chat.ErrNotFound.
	Join(ctx context.Context, userID, roomID int64) (chat.Membership, error)
	// Leave closes the open span and removes a group room nobody is left in,
	// under one room lock. Fails with chat.ErrNotMember or chat.ErrNotFound.
	Leave(ctx context.Context, userID, roomID int64) (Departure, error)
	RoomsFor(ctx context.Context, userID int64) ([]chat.Room, error)
	MembershipHistory(ctx context.Context, userID, roomID int64) ([]chat.Membership, error)
}

// MessageRepository is the append-only message log.
type MessageRepository interface {
	// AppendMessage stores m, assigning ID and SentAt. Fails with chat.ErrNotFound
	// when the room does not exist.
	AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error)
	ListMessages(ctx context.Context, roomID int64) ([]chat.Message, error)
}

// SeenRepository tracks per-reader acknowledgements.
type SeenRepository interface {
	UnseenMessages(ctx context.Context, readerID, roomID int64) ([]chat.Message, error)
	// MarkSeen records every unseen message of the room for readerID and returns
	// the messages this call recorded.
	MarkSeen(ctx context.Context, readerID, roomID int64) ([]chat.Message, error)
	SeenRecords(ctx context.Context, readerID, roomID int64) ([]chat.SeenRecord, error)
}

// ChatRepository bundles every store used by the chat use cases.
type ChatRepository interface {
	RoomRepository
	MembershipRepository
	MessageRepository
	SeenRepository
}

package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
)

type seenKey struct {
	messageID int64
	readerID  int64
}

// MemoryChatRepository keeps every chat record in process memory. A single
// mutex serializes writers, which gives the same invariants the Postgres
// constraints give: one room per canonical key, one open span per
// (user, room) and one seen record per (message, reader).
type MemoryChatRepository struct {
	mu  sync.RWMutex
	now func() time.Time

	nextRoomID    int64
	nextSpanID    int64
	nextMessageID int64

	rooms     map[int64]chat.Room
	roomByKey map[string]int64
	spans     map[int64][]chat.Membership // by room
	messages  map[int64][]chat.Message    // by room, append order
	seen      map[seenKey]time.Time
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		now:       time.Now,
		rooms:     make(map[int64]chat.Room),
		roomByKey: make(map[string]int64),
		spans:     make(map[int64][]chat.Membership),
		messages:  make(map[int64][]chat.Message),
		seen:      make(map[seenKey]time.Time),
	}
}

var _ repository.ChatRepository = (*MemoryChatRepository)(nil)

// ===================== Rooms =====================

func (r *MemoryChatRepository) GetOrCreateDirectRoom(_ context.Context, room chat.Room, memberIDs []int64) (chat.Room, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.roomByKey[room.CanonicalKey]; ok {
		return r.rooms[id], false, nil
	}
	room.IsDirect = true
	return r.insertRoomLocked(room, memberIDs), true, nil
}

func (r *MemoryChatRepository) CreateRoom(_ context.Context, room chat.Room, memberIDs []int64) (chat.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roomByKey[room.CanonicalKey]; ok {
		return chat.Room{}, fmt.Errorf("%w: %q", chat.ErrRoomExists, room.DisplayName)
	}
	return r.insertRoomLocked(room, memberIDs), nil
}

func (r *MemoryChatRepository) insertRoomLocked(room chat.Room, memberIDs []int64) chat.Room {
	r.nextRoomID++
	room.ID = r.nextRoomID
	room.CreatedAt = r.now().UTC()
	r.rooms[room.ID] = room
	r.roomByKey[room.CanonicalKey] = room.ID

	opened := make(map[int64]struct{}, len(memberIDs))
	for _, uid := range memberIDs {
		if _, dup := opened[uid]; dup {
			continue
		}
		opened[uid] = struct{}{}
		r.openSpanLocked(uid, room.ID, room.CreatedAt)
	}
	return room
}

func (r *MemoryChatRepository) GetRoom(_ context.Context, roomID int64) (chat.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return chat.Room{}, fmt.Errorf("%w: room %d", chat.ErrNotFound, roomID)
	}
	return room, nil
}

func (r *MemoryChatRepository) ListGroupRooms(_ context.Context) ([]chat.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]chat.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if !room.IsDirect {
			rooms = append(rooms, room)
		}
	}
	sortRooms(rooms)
	return rooms, nil
}

// deleteRoomLocked drops the room with its messages, spans and seen records.
func (r *MemoryChatRepository) deleteRoomLocked(room chat.Room) {
	for _, m := range r.messages[room.ID] {
		for k := range r.seen {
			if k.messageID == m.ID {
				delete(r.seen, k)
			}
		}
	}
	delete(r.messages, room.ID)
	delete(r.spans, room.ID)
	delete(r.roomByKey, room.CanonicalKey)
	delete(r.rooms, room.ID)
}

// ===================== Membership ledger =====================

func (r *MemoryChatRepository) IsActiveMember(_ context.Context, userID, roomID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.openSpanIndexLocked(userID, roomID) >= 0, nil
}

func (r *MemoryChatRepository) ActiveMemberIDs(_ context.Context, roomID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.rooms[roomID]; !ok {
		return nil, fmt.Errorf("%w: room %d", chat.ErrNotFound, roomID)
	}
	return r.activeIDsLocked(roomID), nil
}

func (r *MemoryChatRepository) Join(_ context.Context, userID, roomID int64) (chat.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return chat.Membership{}, fmt.Errorf("%w: room %d", chat.ErrNotFound, roomID)
	}
	if err := room.CheckJoin(r.openSpanIndexLocked(userID, roomID) >= 0); err != nil {
		return chat.Membership{}, err
	}
	return r.openSpanLocked(userID, roomID, r.now().UTC()), nil
}

func (r *MemoryChatRepository) Leave(_ context.Context, userID, roomID int64) (repository.Departure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return repository.Departure{}, fmt.Errorf("%w: room %d", chat.ErrNotFound, roomID)
	}
	idx := r.openSpanIndexLocked(userID, roomID)
	if idx < 0 {
		return repository.Departure{}, fmt.Errorf("%w: user %d, room %d", chat.ErrNotMember, userID, roomID)
	}
	left := r.now().UTC()
	r.spans[roomID][idx].LeftAt = &left

	out := repository.Departure{
		Membership: r.spans[roomID][idx],
		Remaining:  r.activeIDsLocked(roomID),
	}
	if room.Deletable(len(out.Remaining)) {
		r.deleteRoomLocked(room)
		out.RoomDeleted = true
	}
	return out, nil
}

func (r *MemoryChatRepository) RoomsFor(_ context.Context, userID int64) ([]chat.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rooms []chat.Room
	for roomID, room := range r.rooms {
		if r.openSpanIndexLocked(userID, roomID) >= 0 {
			rooms = append(rooms, room)
		}
	}
	sortRooms(rooms)
	if rooms == nil {
		rooms = []chat.Room{}
	}
	return rooms, nil
}

func (r *MemoryChatRepository) MembershipHistory(_ context.Context, userID, roomID int64) ([]chat.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := []chat.Membership{}
	for _, m := range r.spans[roomID] {
		if m.UserID == userID {
			history = append(history, m)
		}
	}
	return history, nil
}

func (r *MemoryChatRepository) openSpanLocked(userID, roomID int64, at time.Time) chat.Membership {
	r.nextSpanID++
	m := chat.Membership{ID: r.nextSpanID, UserID: userID, RoomID: roomID, JoinedAt: at}
	r.spans[roomID] = append(r.spans[roomID], m)
	return m
}

func (r *MemoryChatRepository) openSpanIndexLocked(userID, roomID int64) int {
	for i, m := range r.spans[roomID] {
		if m.UserID == userID && m.Active() {
			return i
		}
	}
	return -1
}

func (r *MemoryChatRepository) activeIDsLocked(roomID int64) []int64 {
	ids := []int64{}
	for _, m := range r.spans[roomID] {
		if m.Active() {
			ids = append(ids, m.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ===================== Messages =====================

func (r *MemoryChatRepository) AppendMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[m.RoomID]; !ok {
		return chat.Message{}, fmt.Errorf("%w: room %d", chat.ErrNotFound, m.RoomID)
	}

	sentAt := r.now().UTC()
	if log := r.messages[m.RoomID]; len(log) > 0 {
		if last := log[len(log)-1].SentAt; !sentAt.After(last) {
			sentAt = last.Add(time.Nanosecond)
		}
	}

	r.nextMessageID++
	m.ID = r.nextMessageID
	m.SentAt = sentAt
	r.messages[m.RoomID] = append(r.messages[m.RoomID], m)
	return m, nil
}

func (r *MemoryChatRepository) ListMessages(_ context.Context, roomID int64) ([]chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.rooms[roomID]; !ok {
		return nil, fmt.Errorf("%w: room %d", chat.ErrNotFound, roomID)
	}
	out := make([]chat.Message, len(r.messages[roomID]))
	copy(out, r.messages[roomID])
	return out, nil
}

// ===================== Seen tracking =====================

func (r *MemoryChatRepository) UnseenMessages(_ context.Context, readerID, roomID int64) ([]chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.rooms[roomID]; !ok {
		return nil, fmt.Errorf("%w: room %d", chat.ErrNotFound, roomID)
	}
	return r.unseenLocked(readerID, roomID), nil
}

func (r *MemoryChatRepository) MarkSeen(_ context.Context, readerID, roomID int64) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		return nil, fmt.Errorf("%w: room %d", chat.ErrNotFound, roomID)
	}
	marked := r.unseenLocked(readerID, roomID)
	at := r.now().UTC()
	for _, m := range marked {
		r.seen[seenKey{messageID: m.ID, readerID: readerID}] = at
	}
	return marked, nil
}

func (r *MemoryChatRepository) SeenRecords(_ context.Context, readerID, roomID int64) ([]chat.SeenRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := []chat.SeenRecord{}
	for _, m := range r.messages[roomID] {
		if at, ok := r.seen[seenKey{messageID: m.ID, readerID: readerID}]; ok {
			records = append(records, chat.SeenRecord{MessageID: m.ID, ReaderID: readerID, SeenAt: at})
		}
	}
	return records, nil
}

func (r *MemoryChatRepository) unseenLocked(readerID, roomID int64) []chat.Message {
	seen := make(map[int64]struct{})
	for _, m := range r.messages[roomID] {
		if _, ok := r.seen[seenKey{messageID: m.ID, readerID: readerID}]; ok {
			seen[m.ID] = struct{}{}
		}
	}
	return chat.Unseen(r.messages[roomID], readerID, seen)
}

func sortRooms(rooms []chat.Room) {
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
}

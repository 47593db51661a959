package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "go-roomchat/internal/infrastructure/cache/adapter"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	chatadapter "go-roomchat/internal/pkg/chat/persistence/repository/adapter"
	useradapter "go-roomchat/internal/repository/adapter"
)

type recordingScheduler struct {
	mu    sync.Mutex
	calls [][2]int64
}

func (s *recordingScheduler) ScheduleMarkSeen(_ context.Context, readerID, roomID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, [2]int64{readerID, roomID})
	return fmt.Sprintf("job-%d-%d", readerID, roomID), nil
}

type fixture struct {
	repo  *chatadapter.MemoryChatRepository
	users *useradapter.MemoryUserRepository
	cache *RoomCache
	sched *recordingScheduler
	log   zerolog.Logger
}

// newFixture seeds user1..user4 with ids 1..4.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	lru, err := cacheadapter.NewLRUCache(64)
	require.NoError(t, err)
	log := zerolog.Nop()
	return &fixture{
		repo:  chatadapter.NewMemoryChatRepository(),
		users: useradapter.NewMemoryUserRepository("user1", "user2", "user3", "user4"),
		cache: NewRoomCache(lru, time.Minute, log),
		sched: &recordingScheduler{},
		log:   log,
	}
}

func (f *fixture) createGroup(t *testing.T, name string, usernames ...string) chat.RoomWithMembers {
	t.Helper()
	room, err := NewCreateGroupRoomUseCase(f.repo, f.users, f.cache, f.log).
		Execute(context.Background(), CreateGroupRoomInput{Name: name, Usernames: usernames})
	require.NoError(t, err)
	return *room
}

func (f *fixture) sendGroup(sender, room int64, text string) (*SentMessage, error) {
	return NewSendGroupMessageUseCase(f.repo, f.users).
		Execute(context.Background(), SendGroupMessageInput{SenderID: sender, RoomID: room, Text: text})
}

func (f *fixture) sendDirect(sender, receiver int64, text string) (*SentMessage, error) {
	return NewSendDirectMessageUseCase(f.repo, f.users, f.cache, f.log).
		Execute(context.Background(), SendDirectMessageInput{SenderID: sender, ReceiverID: receiver, Text: text})
}

func (f *fixture) join(user, room int64) error {
	_, err := NewJoinRoomUseCase(f.repo, f.users, f.cache, f.log).
		Execute(context.Background(), JoinRoomInput{UserID: user, RoomID: room})
	return err
}

func (f *fixture) leave(user, room int64) (*LeaveRoomOutput, error) {
	return NewLeaveRoomUseCase(f.repo, f.users, f.cache, f.log).
		Execute(context.Background(), LeaveRoomInput{UserID: user, RoomID: room})
}

func ptr(v int64) *int64 { return &v }

func TestFamilyScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	family := f.createGroup(t, "family", "user1", "user2", "user3")
	require.Len(t, family.Members, 3)

	sent, err := f.sendGroup(1, family.ID, "hi family")
	require.NoError(t, err)
	assert.Equal(t, family.ID, sent.Room.ID)

	unseen, err := NewListUnseenUseCase(f.repo, f.users, f.sched, f.log).Execute(ctx, ListUnseenInput{UserID: 2})
	require.NoError(t, err)
	require.Len(t, unseen, 1)
	require.Len(t, unseen[0].Messages, 1)
	assert.Equal(t, "hi family", unseen[0].Messages[0].Text)
	assert.Equal(t, "job-2-"+fmt.Sprint(family.ID), unseen[0].MarkSeenJobID)

	_, err = f.sendGroup(4, family.ID, "let me in")
	assert.ErrorIs(t, err, chat.ErrPermissionDenied)
	assert.Equal(t, chat.CodePermissionDenied, chat.ErrorCode(err))
}

func TestJoinLeaveScenario_DeletesEmptyGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createGroup(t, "crew", "user3")

	require.NoError(t, f.join(2, room.ID))
	out, err := f.leave(2, room.ID)
	require.NoError(t, err)
	assert.False(t, out.RoomDeleted)

	get := NewGetRoomUseCase(f.repo, f.users, f.cache)
	_, err = get.Execute(ctx, GetRoomInput{RoomID: room.ID})
	require.NoError(t, err)

	out, err = f.leave(3, room.ID)
	require.NoError(t, err)
	assert.True(t, out.RoomDeleted)

	_, err = get.Execute(ctx, GetRoomInput{RoomID: room.ID})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestLeave_DirectRoomIsPermanent(t *testing.T) {
	f := newFixture(t)
	sent, err := f.sendDirect(1, 2, "hey")
	require.NoError(t, err)

	for _, u := range []int64{1, 2} {
		out, err := f.leave(u, sent.Room.ID)
		require.NoError(t, err)
		assert.False(t, out.RoomDeleted)
	}

	_, err = f.repo.GetRoom(context.Background(), sent.Room.ID)
	assert.NoError(t, err)
}

func TestLeave_ConcurrentLastMembers(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		room := f.createGroup(t, "crew", "user1", "user2", "user3")

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			deleted int
		)
		for _, u := range []int64{1, 2, 3} {
			wg.Add(1)
			go func(u int64) {
				defer wg.Done()
				out, err := f.leave(u, room.ID)
				if !assert.NoError(t, err, "user %d", u) {
					return
				}
				assert.False(t, out.Membership.Active())
				if out.RoomDeleted {
					mu.Lock()
					deleted++
					mu.Unlock()
				}
			}(u)
		}
		wg.Wait()

		assert.Equal(t, 1, deleted)
		_, err := f.repo.GetRoom(context.Background(), room.ID)
		assert.ErrorIs(t, err, chat.ErrNotFound)
	}
}

func TestMembershipHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createGroup(t, "crew", "user1")
	require.NoError(t, f.join(2, room.ID))
	_, err := f.leave(2, room.ID)
	require.NoError(t, err)
	require.NoError(t, f.join(2, room.ID))

	uc := NewMembershipHistoryUseCase(f.repo, f.users)
	history, err := uc.Execute(ctx, MembershipHistoryInput{UserID: 2, RoomID: room.ID})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.False(t, history[0].Active())
	assert.True(t, history[1].Active())

	history, err = uc.Execute(ctx, MembershipHistoryInput{UserID: 3, RoomID: room.ID})
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = uc.Execute(ctx, MembershipHistoryInput{UserID: 2, RoomID: 999})
	assert.ErrorIs(t, err, chat.ErrNotFound)
	_, err = uc.Execute(ctx, MembershipHistoryInput{UserID: 99, RoomID: room.ID})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestLeave_NotMember(t *testing.T) {
	f := newFixture(t)
	room := f.createGroup(t, "crew", "user1")

	_, err := f.leave(2, room.ID)
	assert.ErrorIs(t, err, chat.ErrNotMember)

	_, err = f.leave(2, 999)
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestJoin_Rules(t *testing.T) {
	f := newFixture(t)
	room := f.createGroup(t, "crew", "user1")
	dm, err := f.sendDirect(1, 2, "hey")
	require.NoError(t, err)

	assert.ErrorIs(t, f.join(1, room.ID), chat.ErrAlreadyMember)
	assert.ErrorIs(t, f.join(3, dm.Room.ID), chat.ErrPrivateRoomJoinForbidden)
	assert.ErrorIs(t, f.join(1, dm.Room.ID), chat.ErrAlreadyMember)
	assert.ErrorIs(t, f.join(99, room.ID), chat.ErrNotFound)
	assert.ErrorIs(t, f.join(1, 0), chat.ErrInvalidArgument)
}

func TestSendDirect_SameRoomBothWays(t *testing.T) {
	f := newFixture(t)

	first, err := f.sendDirect(1, 2, "hi user2")
	require.NoError(t, err)
	second, err := f.sendDirect(2, 1, "hi user1")
	require.NoError(t, err)

	assert.Equal(t, first.Room.ID, second.Room.ID)
	assert.True(t, first.Room.IsDirect)
	assert.Equal(t, "user1 - user2", first.Room.DisplayName)

	msgs, err := f.repo.ListMessages(context.Background(), first.Room.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSendDirect_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.sendDirect(1, 42, "hi")
	assert.ErrorIs(t, err, chat.ErrNotFound)
	_, err = f.sendDirect(42, 1, "hi")
	assert.ErrorIs(t, err, chat.ErrNotFound)
	_, err = f.sendDirect(1, 1, "me")
	assert.ErrorIs(t, err, chat.ErrInvalidArgument)
	_, err = f.sendDirect(1, 2, "   ")
	assert.ErrorIs(t, err, chat.ErrInvalidArgument)

	rooms, err := f.repo.RoomsFor(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestMarkSeen_IdempotentAndSkipsOwnMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createGroup(t, "family", "user1", "user2")

	_, err := f.sendGroup(1, room.ID, "from one")
	require.NoError(t, err)
	_, err = f.sendGroup(2, room.ID, "from two")
	require.NoError(t, err)

	mark := NewMarkSeenUseCase(f.repo, f.users)
	marked, err := mark.Execute(ctx, MarkSeenInput{ReaderID: 2, RoomID: room.ID})
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, "from one", marked[0].Text)
	once, err := f.repo.SeenRecords(ctx, 2, room.ID)
	require.NoError(t, err)

	marked, err = mark.Execute(ctx, MarkSeenInput{ReaderID: 2, RoomID: room.ID})
	require.NoError(t, err)
	assert.Empty(t, marked)
	twice, err := f.repo.SeenRecords(ctx, 2, room.ID)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	own, err := f.repo.UnseenMessages(ctx, 1, room.ID)
	require.NoError(t, err)
	for _, m := range own {
		assert.False(t, m.SentBy(1))
	}
}

func TestMarkSeen_ReportsProgress(t *testing.T) {
	f := newFixture(t)
	room := f.createGroup(t, "family", "user1", "user2")
	for _, text := range []string{"a", "b", "c"} {
		_, err := f.sendGroup(1, room.ID, text)
		require.NoError(t, err)
	}

	var steps [][2]int
	marked, err := NewMarkSeenUseCase(f.repo, f.users).Execute(context.Background(), MarkSeenInput{
		ReaderID:   2,
		RoomID:     room.ID,
		OnProgress: func(current, total int) { steps = append(steps, [2]int{current, total}) },
	})
	require.NoError(t, err)
	assert.Len(t, marked, 3)
	assert.Equal(t, [][2]int{{0, 3}, {3, 3}}, steps)
}

func TestCreateGroupRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := NewCreateGroupRoomUseCase(f.repo, f.users, f.cache, f.log)

	_, err := uc.Execute(ctx, CreateGroupRoomInput{Name: "  "})
	assert.ErrorIs(t, err, chat.ErrInvalidArgument)

	room, err := uc.Execute(ctx, CreateGroupRoomInput{Name: "family", Usernames: []string{"user1", "ghost"}})
	require.NoError(t, err)
	assert.False(t, room.IsDirect)
	assert.Equal(t, []chat.User{{ID: 1, Username: "user1"}}, room.Members)

	empty, err := uc.Execute(ctx, CreateGroupRoomInput{Name: "lonely"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Members)

	_, err = uc.Execute(ctx, CreateGroupRoomInput{Name: "family"})
	assert.ErrorIs(t, err, chat.ErrRoomExists)
}

func TestGetRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createGroup(t, "family", "user1", "user2")
	dm, err := f.sendDirect(1, 2, "hi")
	require.NoError(t, err)
	uc := NewGetRoomUseCase(f.repo, f.users, f.cache)

	public, err := uc.Execute(ctx, GetRoomInput{RoomID: room.ID})
	require.NoError(t, err)
	assert.Equal(t, "family", public.DisplayName)
	assert.Nil(t, public.Members)

	detailed, err := uc.Execute(ctx, GetRoomInput{RoomID: room.ID, UserID: ptr(1)})
	require.NoError(t, err)
	assert.Len(t, detailed.Members, 2)

	_, err = uc.Execute(ctx, GetRoomInput{RoomID: room.ID, UserID: ptr(3)})
	assert.ErrorIs(t, err, chat.ErrNotFound)

	_, err = uc.Execute(ctx, GetRoomInput{RoomID: dm.Room.ID})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestListRooms_CacheIsInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	list := NewListRoomsUseCase(f.repo, f.users, f.cache)

	groups, err := list.Execute(ctx, ListRoomsInput{})
	require.NoError(t, err)
	assert.Empty(t, groups)

	room := f.createGroup(t, "family", "user1")
	groups, err = list.Execute(ctx, ListRoomsInput{})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	mine, err := list.Execute(ctx, ListRoomsInput{UserID: ptr(1)})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Len(t, mine[0].Members, 1)

	require.NoError(t, f.join(2, room.ID))
	mine, err = list.Execute(ctx, ListRoomsInput{UserID: ptr(1)})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Len(t, mine[0].Members, 2)

	_, err = f.sendDirect(1, 3, "hi")
	require.NoError(t, err)
	mine, err = list.Execute(ctx, ListRoomsInput{UserID: ptr(1)})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	for _, u := range []int64{1, 2} {
		_, err := f.leave(u, room.ID)
		require.NoError(t, err)
	}
	groups, err = list.Execute(ctx, ListRoomsInput{})
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = list.Execute(ctx, ListRoomsInput{UserID: ptr(77)})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestReadRoomMessages_SchedulesMarkSeen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createGroup(t, "family", "user1", "user2")
	_, err := f.sendGroup(1, room.ID, "first")
	require.NoError(t, err)
	_, err = f.sendGroup(2, room.ID, "second")
	require.NoError(t, err)

	uc := NewReadRoomMessagesUseCase(f.repo, f.users, f.sched, f.log)
	out, err := uc.Execute(ctx, ReadRoomMessagesInput{UserID: 2, RoomID: room.ID})
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
	assert.Equal(t, "first", out.Messages[0].Text)
	assert.Equal(t, [][2]int64{{2, room.ID}}, f.sched.calls)
	assert.NotEmpty(t, out.MarkSeenJobID)

	_, err = uc.Execute(ctx, ReadRoomMessagesInput{UserID: 3, RoomID: room.ID})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestListUnseen_RejoinUsesOpenSpan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createGroup(t, "family", "user1", "user2")

	// join, leave, join, leave twice over: membership is the open span, not a row count.
	require.NoError(t, f.join(3, room.ID))
	_, err := f.leave(3, room.ID)
	require.NoError(t, err)
	require.NoError(t, f.join(3, room.ID))
	_, err = f.leave(3, room.ID)
	require.NoError(t, err)

	_, err = f.sendGroup(1, room.ID, "after")
	require.NoError(t, err)

	uc := NewListUnseenUseCase(f.repo, f.users, f.sched, f.log)
	out, err := uc.Execute(ctx, ListUnseenInput{UserID: 3})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = uc.Execute(ctx, ListUnseenInput{UserID: 2})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Messages, 1)
}

func TestRepoErr(t *testing.T) {
	assert.Nil(t, repoErr(nil))

	wrapped := fmt.Errorf("%w: room 3", chat.ErrNotFound)
	assert.Same(t, wrapped, repoErr(wrapped))

	err := repoErr(errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, chat.CodeInternal, chat.ErrorCode(err))
}

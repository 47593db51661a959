package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

// SeenScheduler queues asynchronous seen-marking and returns the job id.
type SeenScheduler interface {
	ScheduleMarkSeen(ctx context.Context, readerID, roomID int64) (string, error)
}

type ReadRoomMessagesInput struct {
	UserID int64
	RoomID int64
}

// RoomMessages is a room rendered with its members and a message list.
// MarkSeenJobID identifies the job that acknowledges those messages.
type RoomMessages struct {
	chat.RoomWithMembers
	Messages      []chat.Message `json:"messages"`
	MarkSeenJobID string         `json:"mark_seen_job_id,omitempty"`
}

// ReadRoomMessagesUseCase returns every message of a room the reader belongs
// to and schedules marking them seen.
type ReadRoomMessagesUseCase struct {
	Repo      repository.ChatRepository
	Users     userport.UserRepository
	Scheduler SeenScheduler
	Log       zerolog.Logger
}

func NewReadRoomMessagesUseCase(repo repository.ChatRepository, users userport.UserRepository, scheduler SeenScheduler, log zerolog.Logger) *ReadRoomMessagesUseCase {
	return &ReadRoomMessagesUseCase{Repo: repo, Users: users, Scheduler: scheduler, Log: log.With().Str("component", "read_room_messages").Logger()}
}

func (uc *ReadRoomMessagesUseCase) Execute(ctx context.Context, in ReadRoomMessagesInput) (*RoomMessages, error) {
	if err := requireID("room_id", in.RoomID); err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, uc.Users, in.UserID); err != nil {
		return nil, err
	}

	active, err := uc.Repo.IsActiveMember(ctx, in.UserID, in.RoomID)
	if err != nil {
		return nil, repoErr(err)
	}
	if !active {
		return nil, fmt.Errorf("%w: user %d has no active membership in room %d", chat.ErrNotFound, in.UserID, in.RoomID)
	}

	room, err := uc.Repo.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, repoErr(err)
	}
	rm, err := withMembers(ctx, uc.Repo, uc.Users, room)
	if err != nil {
		return nil, err
	}
	msgs, err := uc.Repo.ListMessages(ctx, room.ID)
	if err != nil {
		return nil, repoErr(err)
	}

	out := &RoomMessages{RoomWithMembers: rm, Messages: msgs}
	out.MarkSeenJobID = schedule(ctx, uc.Scheduler, uc.Log, in.UserID, room.ID)
	return out, nil
}

// schedule queues seen-marking. A failure to enqueue does not fail the read.
func schedule(ctx context.Context, s SeenScheduler, log zerolog.Logger, readerID, roomID int64) string {
	if s == nil {
		return ""
	}
	id, err := s.ScheduleMarkSeen(ctx, readerID, roomID)
	if err != nil {
		log.Error().Err(err).Int64("reader_id", readerID).Int64("room_id", roomID).Msg("schedule mark seen failed")
		return ""
	}
	return id
}

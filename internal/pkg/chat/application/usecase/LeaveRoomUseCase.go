package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"go-roomchat/internal/infrastructure/metrics"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

type LeaveRoomInput struct {
	UserID int64
	RoomID int64
}

// LeaveRoomOutput reports the closed span and whether the room went away with it.
type LeaveRoomOutput struct {
	Membership  chat.Membership
	RoomDeleted bool
}

// LeaveRoomUseCase closes the caller's open span, then removes the room when
// it was a group room and nobody is left.
type LeaveRoomUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
	Cache *RoomCache
	Log   zerolog.Logger
}

func NewLeaveRoomUseCase(repo repository.ChatRepository, users userport.UserRepository, cache *RoomCache, log zerolog.Logger) *LeaveRoomUseCase {
	return &LeaveRoomUseCase{Repo: repo, Users: users, Cache: cache, Log: log.With().Str("component", "leave_room").Logger()}
}

func (uc *LeaveRoomUseCase) Execute(ctx context.Context, in LeaveRoomInput) (*LeaveRoomOutput, error) {
	if err := requireID("room_id", in.RoomID); err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, uc.Users, in.UserID); err != nil {
		return nil, err
	}
	dep, err := uc.Repo.Leave(ctx, in.UserID, in.RoomID)
	if err != nil {
		return nil, repoErr(err)
	}

	var extra []string
	if dep.RoomDeleted {
		extra = []string{groupRoomsKey(), roomKey(in.RoomID)}
		metrics.RecordRoomDeleted()
		uc.Log.Info().Int64("room_id", in.RoomID).Msg("empty group room deleted")
	}
	uc.Cache.invalidateUsers(ctx, append(dep.Remaining, in.UserID), extra...)

	uc.Log.Info().Int64("user_id", in.UserID).Int64("room_id", in.RoomID).Msg("left room")
	return &LeaveRoomOutput{Membership: dep.Membership, RoomDeleted: dep.RoomDeleted}, nil
}

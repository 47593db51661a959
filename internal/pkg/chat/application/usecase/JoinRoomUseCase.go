package usecase

import (
	"context"

	"github.com/rs/zerolog"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

type JoinRoomInput struct {
	UserID int64
	RoomID int64
}

// JoinRoomUseCase opens a new membership span in a group room.
type JoinRoomUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
	Cache *RoomCache
	Log   zerolog.Logger
}

func NewJoinRoomUseCase(repo repository.ChatRepository, users userport.UserRepository, cache *RoomCache, log zerolog.Logger) *JoinRoomUseCase {
	return &JoinRoomUseCase{Repo: repo, Users: users, Cache: cache, Log: log.With().Str("component", "join_room").Logger()}
}

// Execute fails with chat.ErrAlreadyMember, chat.ErrPrivateRoomJoinForbidden
// or chat.ErrNotFound.
func (uc *JoinRoomUseCase) Execute(ctx context.Context, in JoinRoomInput) (*chat.Membership, error) {
	if err := requireID("room_id", in.RoomID); err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, uc.Users, in.UserID); err != nil {
		return nil, err
	}

	m, err := uc.Repo.Join(ctx, in.UserID, in.RoomID)
	if err != nil {
		return nil, repoErr(err)
	}

	// Every member's listing renders the member set.
	if ids, err := uc.Repo.ActiveMemberIDs(ctx, in.RoomID); err == nil {
		uc.Cache.invalidateUsers(ctx, append(ids, in.UserID))
	} else {
		uc.Cache.invalidateUsers(ctx, []int64{in.UserID})
	}

	uc.Log.Info().Int64("user_id", in.UserID).Int64("room_id", in.RoomID).Msg("joined room")
	return &m, nil
}

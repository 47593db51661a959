package usecase

import (
	"context"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

// GetRoomInput selects a group room. With a UserID the caller must be an
// active member and the room is rendered with its members.
type GetRoomInput struct {
	RoomID int64
	UserID *int64
}

type GetRoomUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
	Cache *RoomCache
}

func NewGetRoomUseCase(repo repository.ChatRepository, users userport.UserRepository, cache *RoomCache) *GetRoomUseCase {
	return &GetRoomUseCase{Repo: repo, Users: users, Cache: cache}
}

func (uc *GetRoomUseCase) Execute(ctx context.Context, in GetRoomInput) (*chat.RoomWithMembers, error) {
	if err := requireID("room_id", in.RoomID); err != nil {
		return nil, err
	}

	if in.UserID == nil {
		var cached chat.RoomWithMembers
		if uc.Cache.get(ctx, roomKey(in.RoomID), &cached) {
			return &cached, nil
		}
		room, err := uc.groupRoom(ctx, in.RoomID)
		if err != nil {
			return nil, err
		}
		out := chat.RoomWithMembers{Room: room}
		uc.Cache.set(ctx, roomKey(in.RoomID), out)
		return &out, nil
	}

	if _, err := findUser(ctx, uc.Users, *in.UserID); err != nil {
		return nil, err
	}
	active, err := uc.Repo.IsActiveMember(ctx, *in.UserID, in.RoomID)
	if err != nil {
		return nil, repoErr(err)
	}
	if !active {
		return nil, fmt.Errorf("%w: user %d has no active membership in room %d", chat.ErrNotFound, *in.UserID, in.RoomID)
	}
	room, err := uc.groupRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	out, err := withMembers(ctx, uc.Repo, uc.Users, room)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// groupRoom hides direct rooms from the group endpoints.
func (uc *GetRoomUseCase) groupRoom(ctx context.Context, roomID int64) (chat.Room, error) {
	room, err := uc.Repo.GetRoom(ctx, roomID)
	if err != nil {
		return chat.Room{}, repoErr(err)
	}
	if room.IsDirect {
		return chat.Room{}, fmt.Errorf("%w: group room %d", chat.ErrNotFound, roomID)
	}
	return room, nil
}

package usecase

import (
	"context"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

// ListRoomsInput scopes the listing to one user's active rooms when UserID is set.
type ListRoomsInput struct {
	UserID *int64
}

// ListRoomsUseCase lists every group room, or the rooms a user currently
// belongs to rendered with their members.
type ListRoomsUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
	Cache *RoomCache
}

func NewListRoomsUseCase(repo repository.ChatRepository, users userport.UserRepository, cache *RoomCache) *ListRoomsUseCase {
	return &ListRoomsUseCase{Repo: repo, Users: users, Cache: cache}
}

func (uc *ListRoomsUseCase) Execute(ctx context.Context, in ListRoomsInput) ([]chat.RoomWithMembers, error) {
	if in.UserID == nil {
		return uc.groups(ctx)
	}
	return uc.forUser(ctx, *in.UserID)
}

func (uc *ListRoomsUseCase) groups(ctx context.Context) ([]chat.RoomWithMembers, error) {
	var cached []chat.RoomWithMembers
	if uc.Cache.get(ctx, groupRoomsKey(), &cached) {
		return cached, nil
	}

	rooms, err := uc.Repo.ListGroupRooms(ctx)
	if err != nil {
		return nil, repoErr(err)
	}
	out := make([]chat.RoomWithMembers, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, chat.RoomWithMembers{Room: r})
	}
	uc.Cache.set(ctx, groupRoomsKey(), out)
	return out, nil
}

func (uc *ListRoomsUseCase) forUser(ctx context.Context, userID int64) ([]chat.RoomWithMembers, error) {
	if _, err := findUser(ctx, uc.Users, userID); err != nil {
		return nil, err
	}

	var cached []chat.RoomWithMembers
	if uc.Cache.get(ctx, userRoomsKey(userID), &cached) {
		return cached, nil
	}

	rooms, err := uc.Repo.RoomsFor(ctx, userID)
	if err != nil {
		return nil, repoErr(err)
	}
	out := make([]chat.RoomWithMembers, 0, len(rooms))
	for _, r := range rooms {
		rm, err := withMembers(ctx, uc.Repo, uc.Users, r)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	uc.Cache.set(ctx, userRoomsKey(userID), out)
	return out, nil
}

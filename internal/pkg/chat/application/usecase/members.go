package usecase

import (
	"context"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

// activeMembers resolves the open spans of a room into users.
func activeMembers(ctx context.Context, repo repository.MembershipRepository, users userport.UserRepository, roomID int64) ([]chat.User, error) {
	ids, err := repo.ActiveMemberIDs(ctx, roomID)
	if err != nil {
		return nil, repoErr(err)
	}
	members, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, repoErr(err)
	}
	return members, nil
}

// findUser loads a user, reporting unknown ids as chat.ErrNotFound.
func findUser(ctx context.Context, users userport.UserRepository, id int64) (chat.User, error) {
	if err := requireID("user_id", id); err != nil {
		return chat.User{}, err
	}
	u, err := users.FindByID(ctx, id)
	if err != nil {
		return chat.User{}, repoErr(err)
	}
	return u, nil
}

func withMembers(ctx context.Context, repo repository.MembershipRepository, users userport.UserRepository, room chat.Room) (chat.RoomWithMembers, error) {
	members, err := activeMembers(ctx, repo, users, room.ID)
	if err != nil {
		return chat.RoomWithMembers{}, fmt.Errorf("room %d members: %w", room.ID, err)
	}
	return chat.RoomWithMembers{Room: room, Members: members}, nil
}

package usecase

import (
	"context"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

type MembershipHistoryInput struct {
	UserID int64
	RoomID int64
}

// MembershipHistoryUseCase lists every span a user had in a room, oldest first.
type MembershipHistoryUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
}

func NewMembershipHistoryUseCase(repo repository.ChatRepository, users userport.UserRepository) *MembershipHistoryUseCase {
	return &MembershipHistoryUseCase{Repo: repo, Users: users}
}

func (uc *MembershipHistoryUseCase) Execute(ctx context.Context, in MembershipHistoryInput) ([]chat.Membership, error) {
	if err := requireID("room_id", in.RoomID); err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, uc.Users, in.UserID); err != nil {
		return nil, err
	}
	if _, err := uc.Repo.GetRoom(ctx, in.RoomID); err != nil {
		return nil, repoErr(err)
	}
	history, err := uc.Repo.MembershipHistory(ctx, in.UserID, in.RoomID)
	if err != nil {
		return nil, repoErr(err)
	}
	return history, nil
}

package usecase

import (
	"context"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

type SendGroupMessageInput struct {
	SenderID int64
	RoomID   int64
	Text     string
}

// SendGroupMessageUseCase appends a message to a room the sender currently belongs to.
type SendGroupMessageUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
}

func NewSendGroupMessageUseCase(repo repository.ChatRepository, users userport.UserRepository) *SendGroupMessageUseCase {
	return &SendGroupMessageUseCase{Repo: repo, Users: users}
}

// Execute fails with chat.ErrPermissionDenied when the sender has no open span in the room.
func (uc *SendGroupMessageUseCase) Execute(ctx context.Context, in SendGroupMessageInput) (*SentMessage, error) {
	if err := requireID("room_id", in.RoomID); err != nil {
		return nil, err
	}
	sender, err := findUser(ctx, uc.Users, in.SenderID)
	if err != nil {
		return nil, err
	}
	draft, err := chat.NewMessage(in.RoomID, sender.ID, in.Text)
	if err != nil {
		return nil, err
	}

	room, err := uc.Repo.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, repoErr(err)
	}
	active, err := uc.Repo.IsActiveMember(ctx, sender.ID, room.ID)
	if err != nil {
		return nil, repoErr(err)
	}
	if !active {
		return nil, fmt.Errorf("%w: user %d in room %d", chat.ErrPermissionDenied, sender.ID, room.ID)
	}

	msg, err := uc.Repo.AppendMessage(ctx, *draft)
	if err != nil {
		return nil, repoErr(err)
	}
	return &SentMessage{Message: msg, Room: room}, nil
}

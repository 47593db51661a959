package usecase

import (
	"context"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

type MarkSeenInput struct {
	ReaderID int64
	RoomID   int64
	// OnProgress, when set, receives how many of the unseen messages are done.
	OnProgress func(current, total int)
}

func (in MarkSeenInput) report(current, total int) {
	if in.OnProgress != nil {
		in.OnProgress(current, total)
	}
}

// MarkSeenUseCase records every unseen message of a room as seen by the reader.
type MarkSeenUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
}

func NewMarkSeenUseCase(repo repository.ChatRepository, users userport.UserRepository) *MarkSeenUseCase {
	return &MarkSeenUseCase{Repo: repo, Users: users}
}

// Execute returns the messages this call marked; repeating it returns none.
func (uc *MarkSeenUseCase) Execute(ctx context.Context, in MarkSeenInput) ([]chat.Message, error) {
	if err := requireID("room_id", in.RoomID); err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, uc.Users, in.ReaderID); err != nil {
		return nil, err
	}
	unseen, err := uc.Repo.UnseenMessages(ctx, in.ReaderID, in.RoomID)
	if err != nil {
		return nil, repoErr(err)
	}
	total := len(unseen)
	in.report(0, total)

	marked, err := uc.Repo.MarkSeen(ctx, in.ReaderID, in.RoomID)
	if err != nil {
		return nil, repoErr(err)
	}
	// messages sent in between are marked too
	if len(marked) > total {
		total = len(marked)
	}
	in.report(total, total)
	return marked, nil
}

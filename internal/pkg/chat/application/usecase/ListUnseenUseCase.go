package usecase

import (
	"context"

	"github.com/rs/zerolog"

	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

type ListUnseenInput struct {
	UserID int64
}

// ListUnseenUseCase collects, per active room, the messages the reader has
// not seen yet and schedules marking each room seen.
type ListUnseenUseCase struct {
	Repo      repository.ChatRepository
	Users     userport.UserRepository
	Scheduler SeenScheduler
	Log       zerolog.Logger
}

func NewListUnseenUseCase(repo repository.ChatRepository, users userport.UserRepository, scheduler SeenScheduler, log zerolog.Logger) *ListUnseenUseCase {
	return &ListUnseenUseCase{Repo: repo, Users: users, Scheduler: scheduler, Log: log.With().Str("component", "list_unseen").Logger()}
}

// Execute returns one entry per active room, ordered by room id.
func (uc *ListUnseenUseCase) Execute(ctx context.Context, in ListUnseenInput) ([]RoomMessages, error) {
	if _, err := findUser(ctx, uc.Users, in.UserID); err != nil {
		return nil, err
	}

	rooms, err := uc.Repo.RoomsFor(ctx, in.UserID)
	if err != nil {
		return nil, repoErr(err)
	}

	out := make([]RoomMessages, 0, len(rooms))
	for _, room := range rooms {
		rm, err := withMembers(ctx, uc.Repo, uc.Users, room)
		if err != nil {
			return nil, err
		}
		unseen, err := uc.Repo.UnseenMessages(ctx, in.UserID, room.ID)
		if err != nil {
			return nil, repoErr(err)
		}
		out = append(out, RoomMessages{
			RoomWithMembers: rm,
			Messages:        unseen,
			MarkSeenJobID:   schedule(ctx, uc.Scheduler, uc.Log, in.UserID, room.ID),
		})
	}
	return out, nil
}

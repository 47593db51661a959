package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

type SendDirectMessageInput struct {
	SenderID   int64
	ReceiverID int64
	Text       string
}

// SentMessage is a stored message together with the room it landed in.
type SentMessage struct {
	Message chat.Message `json:"message"`
	Room    chat.Room    `json:"room"`
}

// SendDirectMessageUseCase resolves (or opens) the direct room of two users
// and appends a message to it.
type SendDirectMessageUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
	Cache *RoomCache
	Log   zerolog.Logger
}

func NewSendDirectMessageUseCase(repo repository.ChatRepository, users userport.UserRepository, cache *RoomCache, log zerolog.Logger) *SendDirectMessageUseCase {
	return &SendDirectMessageUseCase{Repo: repo, Users: users, Cache: cache, Log: log.With().Str("component", "send_direct_message").Logger()}
}

func (uc *SendDirectMessageUseCase) Execute(ctx context.Context, in SendDirectMessageInput) (*SentMessage, error) {
	if in.SenderID == in.ReceiverID {
		return nil, fmt.Errorf("%w: sender and receiver must differ", chat.ErrInvalidArgument)
	}
	sender, err := findUser(ctx, uc.Users, in.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := findUser(ctx, uc.Users, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	// Validate before a room gets created for a message that would be refused.
	text, err := chat.NormalizeText(in.Text)
	if err != nil {
		return nil, err
	}

	room, created, err := uc.Repo.GetOrCreateDirectRoom(ctx, chat.Room{
		CanonicalKey: chat.DirectKey(sender.ID, receiver.ID),
		DisplayName:  chat.DirectDisplayName(sender, receiver),
		IsDirect:     true,
	}, []int64{sender.ID, receiver.ID})
	if err != nil {
		return nil, repoErr(err)
	}
	if created {
		uc.Cache.invalidateUsers(ctx, []int64{sender.ID, receiver.ID})
		uc.Log.Info().Int64("room_id", room.ID).Str("room", room.DisplayName).Msg("direct room created")
	}

	draft, err := chat.NewMessage(room.ID, sender.ID, text)
	if err != nil {
		return nil, err
	}
	msg, err := uc.Repo.AppendMessage(ctx, *draft)
	if err != nil {
		return nil, repoErr(err)
	}
	return &SentMessage{Message: msg, Room: room}, nil
}

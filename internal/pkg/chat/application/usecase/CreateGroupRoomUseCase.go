package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userport "go-roomchat/internal/repository/port"
)

// CreateGroupRoomInput names the room and the usernames that start as members.
type CreateGroupRoomInput struct {
	Name      string
	Usernames []string
}

// CreateGroupRoomUseCase opens a named group room.
type CreateGroupRoomUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
	Cache *RoomCache
	Log   zerolog.Logger
}

func NewCreateGroupRoomUseCase(repo repository.ChatRepository, users userport.UserRepository, cache *RoomCache, log zerolog.Logger) *CreateGroupRoomUseCase {
	return &CreateGroupRoomUseCase{Repo: repo, Users: users, Cache: cache, Log: log.With().Str("component", "create_group_room").Logger()}
}

// Execute creates the room with active spans for every known username.
// Unknown usernames are skipped.
func (uc *CreateGroupRoomUseCase) Execute(ctx context.Context, in CreateGroupRoomInput) (*chat.RoomWithMembers, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: room_name is required", chat.ErrInvalidArgument)
	}

	var members []chat.User
	if len(in.Usernames) > 0 {
		found, err := uc.Users.FindByUsernames(ctx, in.Usernames)
		if err != nil {
			return nil, repoErr(err)
		}
		if len(found) < len(uniqueStrings(in.Usernames)) {
			uc.Log.Warn().
				Strs("requested", in.Usernames).
				Int("resolved", len(found)).
				Str("room", name).
				Msg("unknown usernames will not join the room")
		}
		members = found
	}

	ids := make([]int64, 0, len(members))
	for _, u := range members {
		ids = append(ids, u.ID)
	}

	room, err := uc.Repo.CreateRoom(ctx, chat.Room{
		CanonicalKey: chat.GroupKey(name),
		DisplayName:  name,
	}, ids)
	if err != nil {
		return nil, repoErr(err)
	}
	uc.Cache.invalidateUsers(ctx, ids, groupRoomsKey())

	uc.Log.Info().Int64("room_id", room.ID).Str("room", name).Int("members", len(ids)).Msg("group room created")
	if members == nil {
		members = []chat.User{}
	}
	return &chat.RoomWithMembers{Room: room, Members: members}, nil
}

func uniqueStrings(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[s] = struct{}{}
	}
	return out
}

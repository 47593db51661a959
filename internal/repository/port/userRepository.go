package repository

import (
	"context"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

// UserRepository is the read side of the account directory the chat core consumes.
type UserRepository interface {
	// FindByID fails with chat.ErrNotFound for unknown ids.
	FindByID(ctx context.Context, id int64) (chat.User, error)
	// FindByIDs returns the known users among ids, ordered by id.
	FindByIDs(ctx context.Context, ids []int64) ([]chat.User, error)
	// FindByUsernames silently omits unknown names.
	FindByUsernames(ctx context.Context, usernames []string) ([]chat.User, error)
}

// UserSeeder creates accounts for local development.
type UserSeeder interface {
	// EnsureUser returns the account named username, creating it when absent.
	EnsureUser(ctx context.Context, username string) (chat.User, error)
}

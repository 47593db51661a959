package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

func TestMemoryUserRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository("user1", "user2", "user3")

	u, err := repo.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "user2", u.Username)

	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, chat.ErrNotFound)

	users, err := repo.FindByUsernames(ctx, []string{"user3", "ghost", "user1", "user1"})
	require.NoError(t, err)
	assert.Equal(t, []chat.User{{ID: 1, Username: "user1"}, {ID: 3, Username: "user3"}}, users)

	users, err = repo.FindByIDs(ctx, []int64{3, 42, 2})
	require.NoError(t, err)
	assert.Equal(t, []chat.User{{ID: 2, Username: "user2"}, {ID: 3, Username: "user3"}}, users)
}

func TestMemoryUserRepository_EnsureUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	first, err := repo.EnsureUser(ctx, "user_1")
	require.NoError(t, err)
	again, err := repo.EnsureUser(ctx, "user_1")
	require.NoError(t, err)

	assert.Equal(t, first, again)
}

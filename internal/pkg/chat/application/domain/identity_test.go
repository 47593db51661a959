package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

func TestDirectKey_OrderIndependent(t *testing.T) {
	pairs := [][2]int64{{1, 2}, {2, 1}, {7, 42}, {42, 7}, {100, 3}}
	for _, p := range pairs {
		assert.Equal(t, chat.DirectKey(p[0], p[1]), chat.DirectKey(p[1], p[0]), "pair %v", p)
	}
}

func TestDirectKey_DistinctPairs(t *testing.T) {
	assert.NotEqual(t, chat.DirectKey(1, 2), chat.DirectKey(1, 3))
	assert.NotEqual(t, chat.DirectKey(1, 23), chat.DirectKey(12, 3))
}

func TestDirectKey_RoundTrip(t *testing.T) {
	decoded, err := chat.DecodeKey(chat.DirectKey(9, 4))
	require.NoError(t, err)
	assert.Equal(t, "direct:4-9", decoded)
}

func TestGroupKey(t *testing.T) {
	assert.Equal(t, chat.GroupKey("family"), chat.GroupKey("family"))
	assert.NotEqual(t, chat.GroupKey("family"), chat.GroupKey("friends"))
	assert.NotEqual(t, chat.GroupKey("1-2"), chat.DirectKey(1, 2))

	decoded, err := chat.DecodeKey(chat.GroupKey("crew"))
	require.NoError(t, err)
	assert.Equal(t, "group:crew", decoded)
}

func TestDecodeKey_Malformed(t *testing.T) {
	_, err := chat.DecodeKey("%%%not-base64")
	assert.ErrorIs(t, err, chat.ErrInvalidArgument)
}

func TestDirectDisplayName(t *testing.T) {
	u1 := chat.User{ID: 1, Username: "user1"}
	u2 := chat.User{ID: 2, Username: "user2"}

	assert.Equal(t, "user1 - user2", chat.DirectDisplayName(u1, u2))
	assert.Equal(t, "user1 - user2", chat.DirectDisplayName(u2, u1))
}

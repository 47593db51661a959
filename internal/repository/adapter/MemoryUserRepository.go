package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/repository/port"
)

// MemoryUserRepository is a thread-safe account directory for tests and local runs.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]chat.User
	byName map[string]int64
}

func NewMemoryUserRepository(usernames ...string) *MemoryUserRepository {
	r := &MemoryUserRepository{
		byID:   make(map[int64]chat.User),
		byName: make(map[string]int64),
	}
	for _, name := range usernames {
		_, _ = r.EnsureUser(context.Background(), name)
	}
	return r
}

var (
	_ repository.UserRepository = (*MemoryUserRepository)(nil)
	_ repository.UserSeeder     = (*MemoryUserRepository)(nil)
)

func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (chat.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return chat.User{}, fmt.Errorf("%w: user %d", chat.ErrNotFound, id)
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []int64) ([]chat.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]chat.User, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if u, ok := r.byID[id]; ok {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUserRepository) FindByUsernames(_ context.Context, usernames []string) ([]chat.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]chat.User, 0, len(usernames))
	seen := make(map[int64]struct{}, len(usernames))
	for _, name := range usernames {
		id, ok := r.byName[name]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		users = append(users, r.byID[id])
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUserRepository) EnsureUser(_ context.Context, username string) (chat.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byName[username]; ok {
		return r.byID[id], nil
	}
	r.nextID++
	u := chat.User{ID: r.nextID, Username: username}
	r.byID[u.ID] = u
	r.byName[username] = u.ID
	return u, nil
}

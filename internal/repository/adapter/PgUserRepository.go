package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/repository/port"
)

// PgUserRepository reads accounts from the users table.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var (
	_ repository.UserRepository = (*PgUserRepository)(nil)
	_ repository.UserSeeder     = (*PgUserRepository)(nil)
)

func (r *PgUserRepository) FindByID(ctx context.Context, id int64) (chat.User, error) {
	if r == nil || r.pool == nil {
		return chat.User{}, errors.New("PgUserRepository: nil pool")
	}
	var u chat.User
	err := r.pool.QueryRow(ctx, "SELECT id, username FROM users WHERE id = $1", id).Scan(&u.ID, &u.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.User{}, fmt.Errorf("%w: user %d", chat.ErrNotFound, id)
	}
	return u, err
}

func (r *PgUserRepository) FindByIDs(ctx context.Context, ids []int64) ([]chat.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	if len(ids) == 0 {
		return []chat.User{}, nil
	}
	return r.query(ctx, "SELECT id, username FROM users WHERE id = ANY($1) ORDER BY id", ids)
}

func (r *PgUserRepository) FindByUsernames(ctx context.Context, usernames []string) ([]chat.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	if len(usernames) == 0 {
		return []chat.User{}, nil
	}
	return r.query(ctx, "SELECT id, username FROM users WHERE username = ANY($1) ORDER BY id", usernames)
}

func (r *PgUserRepository) EnsureUser(ctx context.Context, username string) (chat.User, error) {
	if r == nil || r.pool == nil {
		return chat.User{}, errors.New("PgUserRepository: nil pool")
	}
	var u chat.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username) VALUES ($1)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username
	`, username).Scan(&u.ID, &u.Username)
	return u, err
}

func (r *PgUserRepository) query(ctx context.Context, sql string, arg any) ([]chat.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []chat.User{}
	for rows.Next() {
		var u chat.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return users, nil
}

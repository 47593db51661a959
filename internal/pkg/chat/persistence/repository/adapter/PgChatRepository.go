package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
)

const pgUniqueViolation = "23505"

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

var errNilPool = errors.New("PgChatRepository: nil pool")

func (r *PgChatRepository) ready() error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

const roomColumns = "id, canonical_key, display_name, is_direct, created_at"

func scanRoom(row pgx.Row) (chat.Room, error) {
	var room chat.Room
	err := row.Scan(&room.ID, &room.CanonicalKey, &room.DisplayName, &room.IsDirect, &room.CreatedAt)
	return room, err
}

func collectRooms(rows pgx.Rows) ([]chat.Room, error) {
	defer rows.Close()
	rooms := []chat.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return rooms, nil
}

// ===================== Rooms =====================

func (r *PgChatRepository) GetOrCreateDirectRoom(ctx context.Context, room chat.Room, memberIDs []int64) (chat.Room, bool, error) {
	if err := r.ready(); err != nil {
		return chat.Room{}, false, err
	}

	var (
		out     chat.Room
		created bool
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		inserted, err := scanRoom(tx.QueryRow(ctx, `
			INSERT INTO rooms (canonical_key, display_name, is_direct)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (canonical_key) DO NOTHING
			RETURNING `+roomColumns,
			room.CanonicalKey, room.DisplayName,
		))
		switch {
		case err == nil:
			created = true
			out = inserted
			return openSpans(ctx, tx, out.ID, memberIDs)
		case errors.Is(err, pgx.ErrNoRows):
			// Another caller owns the key; fetch its row.
			out, err = scanRoom(tx.QueryRow(ctx,
				"SELECT "+roomColumns+" FROM rooms WHERE canonical_key = $1", room.CanonicalKey))
			return err
		default:
			return err
		}
	})
	if err != nil {
		return chat.Room{}, false, err
	}
	return out, created, nil
}

func (r *PgChatRepository) CreateRoom(ctx context.Context, room chat.Room, memberIDs []int64) (chat.Room, error) {
	if err := r.ready(); err != nil {
		return chat.Room{}, err
	}

	var out chat.Room
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanRoom(tx.QueryRow(ctx, `
			INSERT INTO rooms (canonical_key, display_name, is_direct)
			VALUES ($1, $2, $3)
			RETURNING `+roomColumns,
			room.CanonicalKey, room.DisplayName, room.IsDirect,
		))
		if err != nil {
			return err
		}
		return openSpans(ctx, tx, out.ID, memberIDs)
	})
	if isUniqueViolation(err) {
		return chat.Room{}, fmt.Errorf("%w: %q", chat.ErrRoomExists, room.DisplayName)
	}
	if err != nil {
		return chat.Room{}, err
	}
	return out, nil
}

func openSpans(ctx context.Context, tx pgx.Tx, roomID int64, memberIDs []int64) error {
	if len(memberIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO memberships (user_id, room_id)
		SELECT DISTINCT uid, $1::bigint FROM unnest($2::bigint[]) AS uid
		ON CONFLICT DO NOTHING
	`, roomID, memberIDs)
	return err
}

func (r *PgChatRepository) GetRoom(ctx context.Context, roomID int64) (chat.Room, error) {
	if err := r.ready(); err != nil {
		return chat.Room{}, err
	}
	room, err := scanRoom(r.pool.QueryRow(ctx, "SELECT "+roomColumns+" FROM rooms WHERE id = $1", roomID))
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Room{}, fmt.Errorf("%w: room %d", chat.ErrNotFound, roomID)
	}
	return room, err
}

func (r *PgChatRepository) ListGroupRooms(ctx context.Context) ([]chat.Room, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, "SELECT "+roomColumns+" FROM rooms WHERE NOT is_direct ORDER BY id")
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

// lockRoom serializes membership mutations of a room for the rest of tx.
func lockRoom(ctx context.Context, tx pgx.Tx, roomID int64) (chat.Room, error) {
	room, err := scanRoom(tx.QueryRow(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id = $1 FOR UPDATE", roomID))
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Room{}, fmt.Errorf("%w: room %d", chat.ErrNotFound, roomID)
	}
	return room, err
}

// ===================== Membership ledger =====================

const membershipColumns = "id, user_id, room_id, joined_at, left_at"

func scanMembership(row pgx.Row) (chat.Membership, error) {
	var m chat.Membership
	err := row.Scan(&m.ID, &m.UserID, &m.RoomID, &m.JoinedAt, &m.LeftAt)
	return m, err
}

func (r *PgChatRepository) IsActiveMember(ctx context.Context, userID, roomID int64) (bool, error) {
	if err := r.ready(); err != nil {
		return false, err
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM memberships
			WHERE user_id = $1 AND room_id = $2 AND left_at IS NULL
		)
	`, userID, roomID).Scan(&ok)
	return ok, err
}

func (r *PgChatRepository) ActiveMemberIDs(ctx context.Context, roomID int64) ([]int64, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if _, err := r.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return activeMemberIDs(ctx, r.pool, roomID)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func activeMemberIDs(ctx context.Context, q querier, roomID int64) ([]int64, error) {
	rows, err := q.Query(ctx, `
		SELECT DISTINCT user_id FROM memberships
		WHERE room_id = $1 AND left_at IS NULL
		ORDER BY user_id
	`, roomID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func (r *PgChatRepository) Join(ctx context.Context, userID, roomID int64) (chat.Membership, error) {
	if err := r.ready(); err != nil {
		return chat.Membership{}, err
	}

	var out chat.Membership
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}

		var active bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM memberships
				WHERE user_id = $1 AND room_id = $2 AND left_at IS NULL
			)
		`, userID, roomID).Scan(&active); err != nil {
			return err
		}
		if err := room.CheckJoin(active); err != nil {
			return err
		}

		out, err = scanMembership(tx.QueryRow(ctx, `
			INSERT INTO memberships (user_id, room_id) VALUES ($1, $2)
			RETURNING `+membershipColumns,
			userID, roomID,
		))
		return err
	})
	if isUniqueViolation(err) {
		return chat.Membership{}, chat.ErrAlreadyMember
	}
	if err != nil {
		return chat.Membership{}, err
	}
	return out, nil
}

// Leave holds the room row lock across closing the span, counting who is
// left and deleting the room, so concurrent last leavers see one outcome.
func (r *PgChatRepository) Leave(ctx context.Context, userID, roomID int64) (repository.Departure, error) {
	if err := r.ready(); err != nil {
		return repository.Departure{}, err
	}

	var out repository.Departure
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}

		out.Membership, err = scanMembership(tx.QueryRow(ctx, `
			UPDATE memberships SET left_at = clock_timestamp()
			WHERE user_id = $1 AND room_id = $2 AND left_at IS NULL
			RETURNING `+membershipColumns,
			userID, roomID,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user %d, room %d", chat.ErrNotMember, userID, roomID)
		}
		if err != nil {
			return err
		}

		out.Remaining, err = activeMemberIDs(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if !room.Deletable(len(out.Remaining)) {
			return nil
		}
		// messages, spans and seen records go with the room via ON DELETE CASCADE
		if _, err := tx.Exec(ctx, "DELETE FROM rooms WHERE id = $1", roomID); err != nil {
			return err
		}
		out.RoomDeleted = true
		return nil
	})
	if err != nil {
		return repository.Departure{}, err
	}
	return out, nil
}

func (r *PgChatRepository) RoomsFor(ctx context.Context, userID int64) ([]chat.Room, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.canonical_key, r.display_name, r.is_direct, r.created_at
		FROM rooms r
		JOIN memberships m ON m.room_id = r.id
		WHERE m.user_id = $1 AND m.left_at IS NULL
		ORDER BY r.id
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

func (r *PgChatRepository) MembershipHistory(ctx context.Context, userID, roomID int64) ([]chat.Membership, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+membershipColumns+` FROM memberships
		WHERE user_id = $1 AND room_id = $2
		ORDER BY joined_at, id
	`, userID, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []chat.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return history, nil
}

// ===================== Messages =====================

const messageColumns = "id, room_id, sender_id, text, sent_at"

func collectMessages(rows pgx.Rows) ([]chat.Message, error) {
	defer rows.Close()
	msgs := []chat.Message{}
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Text, &msg.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if err := r.ready(); err != nil {
		return chat.Message{}, err
	}
	var out chat.Message
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (room_id, sender_id, text)
		SELECT id, $2::bigint, $3::text FROM rooms WHERE id = $1
		RETURNING `+messageColumns,
		m.RoomID, m.SenderID, m.Text,
	).Scan(&out.ID, &out.RoomID, &out.SenderID, &out.Text, &out.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Message{}, fmt.Errorf("%w: room %d", chat.ErrNotFound, m.RoomID)
	}
	return out, err
}

func (r *PgChatRepository) ListMessages(ctx context.Context, roomID int64) ([]chat.Message, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if _, err := r.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE room_id = $1
		ORDER BY sent_at, id
	`, roomID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// ===================== Seen tracking =====================

const unseenQuery = `
	SELECT m.id, m.room_id, m.sender_id, m.text, m.sent_at
	FROM messages m
	WHERE m.room_id = $2
	  AND m.sender_id IS DISTINCT FROM $1
	  AND NOT EXISTS (
		SELECT 1 FROM seen_records s
		WHERE s.message_id = m.id AND s.reader_id = $1
	  )
	ORDER BY m.sent_at, m.id
`

func (r *PgChatRepository) UnseenMessages(ctx context.Context, readerID, roomID int64) ([]chat.Message, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if _, err := r.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, unseenQuery, readerID, roomID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// MarkSeen upserts seen records for the current unseen set. Rows that a
// concurrent caller inserted first are skipped by ON CONFLICT, so each
// message appears in the result of exactly one caller.
func (r *PgChatRepository) MarkSeen(ctx context.Context, readerID, roomID int64) ([]chat.Message, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if _, err := r.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		WITH unseen AS (`+unseenQuery+`),
		marked AS (
			INSERT INTO seen_records (message_id, reader_id)
			SELECT id, $1::bigint FROM unseen
			ON CONFLICT (message_id, reader_id) DO NOTHING
			RETURNING message_id
		)
		SELECT u.id, u.room_id, u.sender_id, u.text, u.sent_at
		FROM unseen u JOIN marked k ON k.message_id = u.id
		ORDER BY u.sent_at, u.id
	`, readerID, roomID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *PgChatRepository) SeenRecords(ctx context.Context, readerID, roomID int64) ([]chat.SeenRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT s.message_id, s.reader_id, s.seen_at
		FROM seen_records s JOIN messages m ON m.id = s.message_id
		WHERE s.reader_id = $1 AND m.room_id = $2
		ORDER BY m.sent_at, m.id
	`, readerID, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []chat.SeenRecord{}
	for rows.Next() {
		var s chat.SeenRecord
		if err := rows.Scan(&s.MessageID, &s.ReaderID, &s.SeenAt); err != nil {
			return nil, err
		}
		records = append(records, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

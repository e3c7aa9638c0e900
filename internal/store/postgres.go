package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"wordimposter/internal/domain"
)

// notifyChannel is the Postgres NOTIFY channel carrying room change events
const notifyChannel = "room_changes"

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id                   TEXT PRIMARY KEY,
	word                 TEXT NOT NULL,
	theme                TEXT NOT NULL,
	phase                TEXT NOT NULL,
	game_mode            TEXT NOT NULL,
	players              JSONB NOT NULL DEFAULT '[]',
	votes                JSONB NOT NULL DEFAULT '[]',
	imposter_id          TEXT NOT NULL DEFAULT '',
	host_id              TEXT NOT NULL,
	locked               BOOLEAN NOT NULL DEFAULT FALSE,
	current_player_index INTEGER NOT NULL DEFAULT 0,
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL,
	expires_at           TIMESTAMPTZ NOT NULL
)`

// notifyPayload is the JSON body sent through pg_notify. It carries only the
// change type and room id; subscribers re-fetch the authoritative row, which
// keeps payloads under the NOTIFY size limit.
type notifyPayload struct {
	Type   ChangeType `json:"type"`
	RoomID string     `json:"roomId"`
}

// PostgresStore is a RoomStore backed by Postgres. Change notification rides
// on LISTEN/NOTIFY; timestamps are stored as timestamptz and converted to
// epoch millis on read.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects to Postgres and verifies the connection
func NewPostgresStore(ctx context.Context, connString string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindStoreConnectionFailed, Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &domain.Error{Kind: domain.KindStoreConnectionFailed, Err: err}
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the rooms table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return &domain.Error{Kind: domain.KindStoreWriteFailed, Err: err}
	}
	return nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Create inserts a new room row
func (s *PostgresStore) Create(ctx context.Context, room domain.Room) (domain.Room, error) {
	players, votes, err := marshalCollections(room)
	if err != nil {
		return domain.Room{}, &domain.Error{Kind: domain.KindRoomCreationFailed, RoomID: room.ID, Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO rooms (id, word, theme, phase, game_mode, players, votes,
			imposter_id, host_id, locked, current_player_index,
			created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		room.ID, room.Word, room.Theme, string(room.Phase), string(room.GameMode),
		players, votes, room.ImposterID, room.HostID, room.Locked,
		room.CurrentPlayerIndex,
		time.UnixMilli(room.CreatedAt), time.UnixMilli(room.UpdatedAt), time.UnixMilli(room.ExpiresAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// unique_violation: room code collision
			return domain.Room{}, &domain.Error{Kind: domain.KindRoomCreationFailed, RoomID: room.ID, Err: err}
		}
		return domain.Room{}, &domain.Error{Kind: domain.KindStoreWriteFailed, RoomID: room.ID, Err: err}
	}

	s.publish(ctx, notifyPayload{Type: ChangeInsert, RoomID: room.ID})
	return room, nil
}

// Get reads one room row
func (s *PostgresStore) Get(ctx context.Context, id string) (domain.Room, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, word, theme, phase, game_mode, players, votes,
			imposter_id, host_id, locked, current_player_index,
			created_at, updated_at, expires_at
		FROM rooms WHERE id = $1`, id)

	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, &domain.Error{Kind: domain.KindRoomNotFound, RoomID: id}
		}
		return domain.Room{}, &domain.Error{Kind: domain.KindStoreReadFailed, RoomID: id, Err: err}
	}
	return room, nil
}

// Update replaces the stored row wholesale (last-write-wins)
func (s *PostgresStore) Update(ctx context.Context, room domain.Room) (domain.Room, error) {
	players, votes, err := marshalCollections(room)
	if err != nil {
		return domain.Room{}, &domain.Error{Kind: domain.KindRoomUpdateFailed, RoomID: room.ID, Err: err}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms SET word = $2, theme = $3, phase = $4, players = $5,
			votes = $6, imposter_id = $7, host_id = $8, locked = $9,
			current_player_index = $10, updated_at = $11, expires_at = $12
		WHERE id = $1`,
		room.ID, room.Word, room.Theme, string(room.Phase), players, votes,
		room.ImposterID, room.HostID, room.Locked, room.CurrentPlayerIndex,
		time.UnixMilli(room.UpdatedAt), time.UnixMilli(room.ExpiresAt),
	)
	if err != nil {
		return domain.Room{}, &domain.Error{Kind: domain.KindStoreWriteFailed, RoomID: room.ID, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return domain.Room{}, &domain.Error{Kind: domain.KindRoomNotFound, RoomID: room.ID}
	}

	s.publish(ctx, notifyPayload{Type: ChangeUpdate, RoomID: room.ID})
	return room, nil
}

// Delete removes the room row; deleting an absent room is not an error
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return &domain.Error{Kind: domain.KindStoreWriteFailed, RoomID: id, Err: err}
	}
	if tag.RowsAffected() > 0 {
		s.publish(ctx, notifyPayload{Type: ChangeDelete, RoomID: id})
	}
	return nil
}

// List returns all room rows
func (s *PostgresStore) List(ctx context.Context) ([]domain.Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, word, theme, phase, game_mode, players, votes,
			imposter_id, host_id, locked, current_player_index,
			created_at, updated_at, expires_at
		FROM rooms`)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindStoreReadFailed, Err: err}
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, &domain.Error{Kind: domain.KindStoreReadFailed, Err: err}
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.Error{Kind: domain.KindStoreReadFailed, Err: err}
	}
	return rooms, nil
}

// StartGameAtomic persists the started room only while the stored row is
// still in lobby. The conditional UPDATE is the compare-and-set: zero rows
// affected means another client already started the game.
func (s *PostgresStore) StartGameAtomic(ctx context.Context, started domain.Room) (bool, error) {
	players, votes, err := marshalCollections(started)
	if err != nil {
		return false, &domain.Error{Kind: domain.KindRoomUpdateFailed, RoomID: started.ID, Err: err}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms SET word = $2, phase = $3, players = $4, votes = $5,
			imposter_id = $6, locked = TRUE, current_player_index = 0,
			updated_at = $7
		WHERE id = $1 AND phase = $8`,
		started.ID, started.Word, string(started.Phase), players, votes,
		started.ImposterID, time.UnixMilli(started.UpdatedAt),
		string(domain.PhaseLobby),
	)
	if err != nil {
		return false, &domain.Error{Kind: domain.KindStoreWriteFailed, RoomID: started.ID, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	s.publish(ctx, notifyPayload{Type: ChangeUpdate, RoomID: started.ID})
	return true, nil
}

// Subscribe opens a dedicated LISTEN connection and streams change events
// for one room. The subscription ends when cancel is called or the
// connection drops; consumers degrade to last known state on failure.
func (s *PostgresStore) Subscribe(ctx context.Context, id string) (<-chan Change, func(), error) {
	listenCtx, stop := context.WithCancel(ctx)

	conn, err := s.pool.Acquire(listenCtx)
	if err != nil {
		stop()
		return nil, nil, &domain.Error{Kind: domain.KindStoreConnectionFailed, RoomID: id, Err: err}
	}
	if _, err := conn.Exec(listenCtx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		stop()
		return nil, nil, &domain.Error{Kind: domain.KindStoreConnectionFailed, RoomID: id, Err: err}
	}

	ch := make(chan Change, subscriberBuffer)

	go func() {
		defer close(ch)
		defer conn.Release()

		for {
			notification, err := conn.Conn().WaitForNotification(listenCtx)
			if err != nil {
				if listenCtx.Err() == nil {
					s.logger.Warn("room change listener stopped", "roomID", id, "error", err)
				}
				return
			}

			var payload notifyPayload
			if err := json.Unmarshal([]byte(notification.Payload), &payload); err != nil {
				s.logger.Warn("bad change notification payload", "error", err)
				continue
			}
			if payload.RoomID != id {
				continue
			}

			change := Change{Type: payload.Type, RoomID: id}
			if payload.Type != ChangeDelete {
				room, err := s.Get(listenCtx, id)
				if err != nil {
					// Row vanished between notify and fetch; treat as delete
					if errors.Is(err, domain.ErrRoomNotFound) {
						change = Change{Type: ChangeDelete, RoomID: id}
					} else {
						s.logger.Warn("failed to fetch changed room", "roomID", id, "error", err)
						continue
					}
				} else {
					change.Room = &room
				}
			}

			select {
			case ch <- change:
			case <-listenCtx.Done():
				return
			}
		}
	}()

	return ch, stop, nil
}

// publish sends a change notification; failures are logged, not surfaced,
// since the write itself already succeeded
func (s *PostgresStore) publish(ctx context.Context, payload notifyPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal change notification", "error", err)
		return
	}
	if _, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(body)); err != nil {
		s.logger.Warn("failed to publish change notification",
			"roomID", payload.RoomID,
			"error", err,
		)
	}
}

func marshalCollections(room domain.Room) (players, votes []byte, err error) {
	players, err = json.Marshal(room.Players)
	if err != nil {
		return nil, nil, err
	}
	votes, err = json.Marshal(room.Votes)
	if err != nil {
		return nil, nil, err
	}
	return players, votes, nil
}

// scanRoom maps one row onto a Room, converting timestamptz columns to
// epoch millis
func scanRoom(row pgx.Row) (domain.Room, error) {
	var (
		room                          domain.Room
		players, votes                []byte
		phase, mode                   string
		createdAt, updatedAt, expires time.Time
	)

	err := row.Scan(&room.ID, &room.Word, &room.Theme, &phase, &mode,
		&players, &votes, &room.ImposterID, &room.HostID, &room.Locked,
		&room.CurrentPlayerIndex, &createdAt, &updatedAt, &expires)
	if err != nil {
		return domain.Room{}, err
	}

	room.Phase = domain.Phase(phase)
	room.GameMode = domain.GameMode(mode)
	room.CreatedAt = createdAt.UnixMilli()
	room.UpdatedAt = updatedAt.UnixMilli()
	room.ExpiresAt = expires.UnixMilli()

	if err := json.Unmarshal(players, &room.Players); err != nil {
		return domain.Room{}, err
	}
	if err := json.Unmarshal(votes, &room.Votes); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

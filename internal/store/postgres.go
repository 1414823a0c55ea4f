package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements UserStore and RoomStore on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ UserStore = (*Postgres)(nil)
	_ RoomStore = (*Postgres)(nil)
)

// ConnectPostgres opens a pool for the given connection string and verifies
// the connection.
func ConnectPostgres(ctx context.Context, connString string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// EnsureSchema creates the users and rooms tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	points INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS rooms (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	is_private BOOLEAN NOT NULL DEFAULT FALSE
);`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	err := p.pool.QueryRow(ctx,
		`SELECT id, username, points FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Username, &user.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := p.pool.QueryRow(ctx,
		`SELECT id, username, points FROM users WHERE username = $1`, username,
	).Scan(&user.ID, &user.Username, &user.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &user, nil
}

func (p *Postgres) CreateUser(ctx context.Context, user NewUser) (*User, error) {
	var created User
	err := p.pool.QueryRow(ctx,
		`INSERT INTO users (username, password) VALUES ($1, $2)
		 RETURNING id, username, points`,
		user.Username, user.Password,
	).Scan(&created.ID, &created.Username, &created.Points)
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return &created, nil
}

func (p *Postgres) GetRoom(ctx context.Context, id int64) (*Room, error) {
	var room Room
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, is_private FROM rooms WHERE id = $1`, id,
	).Scan(&room.ID, &room.Name, &room.OwnerID, &room.IsPrivate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get room %d: %w", id, err)
	}
	return &room, nil
}

func (p *Postgres) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, owner_id, is_private FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.Name, &room.OwnerID, &room.IsPrivate); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (p *Postgres) CreateRoom(ctx context.Context, room NewRoom) (*Room, error) {
	var created Room
	err := p.pool.QueryRow(ctx,
		`INSERT INTO rooms (name, owner_id, is_private) VALUES ($1, $2, $3)
		 RETURNING id, name, owner_id, is_private`,
		room.Name, room.OwnerID, room.IsPrivate,
	).Scan(&created.ID, &created.Name, &created.OwnerID, &created.IsPrivate)
	if err != nil {
		return nil, fmt.Errorf("create room %q: %w", room.Name, err)
	}
	return &created, nil
}

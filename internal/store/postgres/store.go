package postgres

import (
	"context"
	"errors"
	db_models "finai-backend/internal/models"
	"finai-backend/internal/store"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

// PostgreSQL error codes the store maps to sentinel errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

// mapWriteError converts constraint violations into store sentinels and wraps everything else.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		log.Printf("ERROR [PostgresStore] %s: PostgreSQL error Code=%s, Message=%s, Detail=%s", op, pgErr.Code, pgErr.Message, pgErr.Detail)
		switch pgErr.Code {
		case pgUniqueViolation:
			return store.ErrConflict
		case pgForeignKeyViolation:
			return store.ErrNotFound
		}
	} else {
		log.Printf("ERROR [PostgresStore] %s: %v", op, err)
	}
	return fmt.Errorf("database error in %s: %w", op, err)
}

// --- User Methods ---

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, name, hashed_password, created_at, updated_at
FROM users
WHERE email = $1
`

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	user := &db_models.User{}
	err := s.db.QueryRow(ctx, getUserByEmail, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByEmail: Failed to query/scan user for email %s: %v", email, err)
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, name, hashed_password, created_at, updated_at
FROM users
WHERE id = $1
`

// GetUserByID retrieves a user by primary key.
func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*db_models.User, error) {
	user := &db_models.User{}
	err := s.db.QueryRow(ctx, getUserByID, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByID: Failed to query/scan user %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching user by id: %w", err)
	}
	return user, nil
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (id, email, name, hashed_password)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at
`

// CreateUser inserts a new user record into the database.
// Returns store.ErrConflict when the email is already registered.
func (s *PostgresStore) CreateUser(ctx context.Context, user *db_models.User) error {
	err := s.db.QueryRow(ctx, createUser,
		user.ID,
		user.Email,
		user.Name,
		user.HashedPassword,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapWriteError("CreateUser", err)
	}

	log.Printf("[PostgresStore] CreateUser: Successfully inserted user ID %s for email %s", user.ID, user.Email)
	return nil
}

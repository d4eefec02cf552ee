package postgres

import (
	"context"
	"errors"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Chat Session Methods ---

const getLatestSessionByUser = `-- name: GetLatestSessionByUser :one
SELECT id, user_id, title, created_at, updated_at
FROM chat_sessions
WHERE user_id = $1
ORDER BY updated_at DESC, created_at DESC, id DESC
LIMIT 1
`

// GetLatestSessionByUser returns the most recently updated session for the user.
func (s *PostgresStore) GetLatestSessionByUser(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error) {
	var sess models.ChatSession
	err := s.db.QueryRow(ctx, getLatestSessionByUser, userID).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.Title,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetLatestSessionByUser: user %s: %v", userID, err)
		return nil, fmt.Errorf("database error fetching latest session: %w", err)
	}
	return &sess, nil
}

const createSession = `-- name: CreateSession :one
INSERT INTO chat_sessions (id, user_id, title)
VALUES ($1, $2, $3)
RETURNING id, user_id, title, created_at, updated_at
`

func (s *PostgresStore) CreateSession(ctx context.Context, arg store.CreateSessionParams) (*models.ChatSession, error) {
	var sess models.ChatSession
	err := s.db.QueryRow(ctx, createSession, arg.ID, arg.UserID, arg.Title).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.Title,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if err != nil {
		return nil, mapWriteError("CreateSession", err)
	}
	log.Printf("[PostgresStore] CreateSession: Created session %s for user %s", sess.ID, sess.UserID)
	return &sess, nil
}

// --- Message Methods ---

const insertMessage = `-- name: InsertMessage :one
INSERT INTO messages (id, session_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, session_id, role, content, created_at
`

const touchSession = `-- name: TouchSession :exec
UPDATE chat_sessions SET updated_at = $2 WHERE id = $1
`

// AppendMessage inserts the message and bumps the session's updated_at in one transaction.
func (s *PostgresStore) AppendMessage(ctx context.Context, arg store.AppendMessageParams) (*models.Message, error) {
	createdAt := arg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var msg models.Message
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var role string
		if err := tx.QueryRow(ctx, insertMessage,
			arg.ID,
			arg.SessionID,
			string(arg.Role),
			arg.Content,
			createdAt,
		).Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return err
		}
		msg.Role = models.Role(role)

		_, err := tx.Exec(ctx, touchSession, arg.SessionID, createdAt)
		return err
	})
	if err != nil {
		return nil, mapWriteError("AppendMessage", err)
	}
	return &msg, nil
}

const listMessagesBySession = `-- name: ListMessagesBySession :many
SELECT id, session_id, role, content, created_at
FROM messages
WHERE session_id = $1
ORDER BY created_at ASC, id ASC
`

// ListMessagesBySession returns every message in the session by ascending creation time.
func (s *PostgresStore) ListMessagesBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.Query(ctx, listMessagesBySession, sessionID)
	if err != nil {
		log.Printf("ERROR [PostgresStore] ListMessagesBySession: session %s: %v", sessionID, err)
		return nil, fmt.Errorf("database error listing messages: %w", err)
	}
	defer rows.Close()

	var items []models.Message
	for rows.Next() {
		var (
			m    models.Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		m.Role = models.Role(role)
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return items, nil
}

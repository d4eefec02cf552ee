// Package sqlite implements store.Store on SQLite through the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var _ store.Store = (*SQLiteStore)(nil)

// SQLiteStore implements store.Store using SQLite. Timestamps are stored as unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path and ensures the schema.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	log.Printf("[SQLiteStore] Opened database at %s", path)
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		hashed_password TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_user_updated ON chat_sessions(user_id, updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
		role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages(session_id, created_at);

	CREATE TABLE IF NOT EXISTS financial_profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() {
	if err := s.db.Close(); err != nil {
		log.Printf("WARN [SQLiteStore] close: %v", err)
	}
}

func mapWriteError(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return store.ErrConflict
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return store.ErrNotFound
	}
	log.Printf("ERROR [SQLiteStore] %s: %v", op, err)
	return fmt.Errorf("database error in %s: %w", op, err)
}

func nanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

// --- Users ---

func (s *SQLiteStore) scanUser(row *sql.Row) (*models.User, error) {
	var (
		u                    models.User
		id                   string
		createdAt, updatedAt int64
	)
	err := row.Scan(&id, &u.Email, &u.Name, &u.HashedPassword, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", id, err)
	}
	u.CreatedAt = fromNanos(createdAt)
	u.UpdatedAt = fromNanos(updatedAt)
	return &u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, hashed_password, created_at, updated_at
		FROM users WHERE email = ?`, email)
	return s.scanUser(row)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, hashed_password, created_at, updated_at
		FROM users WHERE id = ?`, id.String())
	return s.scanUser(row)
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, hashed_password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.Name, user.HashedPassword, nanos(now), nanos(now))
	if err != nil {
		return mapWriteError("CreateUser", err)
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

// --- Sessions ---

func (s *SQLiteStore) GetLatestSessionByUser(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = ?
		ORDER BY updated_at DESC, rowid DESC
		LIMIT 1`, userID.String())

	var (
		sess                 models.ChatSession
		id, owner            string
		createdAt, updatedAt int64
	)
	err := row.Scan(&id, &owner, &sess.Title, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	if sess.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse session id %q: %w", id, err)
	}
	if sess.UserID, err = uuid.Parse(owner); err != nil {
		return nil, fmt.Errorf("parse session owner %q: %w", owner, err)
	}
	sess.CreatedAt = fromNanos(createdAt)
	sess.UpdatedAt = fromNanos(updatedAt)
	return &sess, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, arg store.CreateSessionParams) (*models.ChatSession, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.ID.String(), arg.UserID.String(), arg.Title, nanos(now), nanos(now))
	if err != nil {
		return nil, mapWriteError("CreateSession", err)
	}
	return &models.ChatSession{ID: arg.ID, UserID: arg.UserID, Title: arg.Title, CreatedAt: now, UpdatedAt: now}, nil
}

// --- Messages ---

// AppendMessage inserts the message and bumps the session's updated_at in one transaction.
func (s *SQLiteStore) AppendMessage(ctx context.Context, arg store.AppendMessageParams) (*models.Message, error) {
	createdAt := arg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append message: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.ID.String(), arg.SessionID.String(), string(arg.Role), arg.Content, nanos(createdAt)); err != nil {
		return nil, mapWriteError("AppendMessage", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`,
		nanos(createdAt), arg.SessionID.String()); err != nil {
		return nil, mapWriteError("AppendMessage", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append message: %w", err)
	}

	return &models.Message{
		ID:        arg.ID,
		SessionID: arg.SessionID,
		Role:      arg.Role,
		Content:   arg.Content,
		CreatedAt: fromNanos(nanos(createdAt)),
	}, nil
}

func (s *SQLiteStore) ListMessagesBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC`, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var items []models.Message
	for rows.Next() {
		var (
			m              models.Message
			id, sess, role string
			createdAt      int64
		)
		if err := rows.Scan(&id, &sess, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse message id %q: %w", id, err)
		}
		if m.SessionID, err = uuid.Parse(sess); err != nil {
			return nil, fmt.Errorf("parse message session id %q: %w", sess, err)
		}
		m.Role = models.Role(role)
		m.CreatedAt = fromNanos(createdAt)
		items = append(items, m)
	}
	return items, rows.Err()
}

// --- Financial profiles ---

func (s *SQLiteStore) UpsertFinancialProfile(ctx context.Context, arg store.UpsertProfileParams) (*models.FinancialProfile, error) {
	now := nanos(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO financial_profiles (id, user_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		uuid.NewString(), arg.UserID.String(), arg.Data, now, now)
	if err != nil {
		return nil, mapWriteError("UpsertFinancialProfile", err)
	}
	return s.GetFinancialProfileByUser(ctx, arg.UserID)
}

func (s *SQLiteStore) GetFinancialProfileByUser(ctx context.Context, userID uuid.UUID) (*models.FinancialProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, data, created_at, updated_at
		FROM financial_profiles WHERE user_id = ?`, userID.String())

	var (
		p                    models.FinancialProfile
		id, owner            string
		createdAt, updatedAt int64
	)
	err := row.Scan(&id, &owner, &p.Data, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse profile id %q: %w", id, err)
	}
	if p.UserID, err = uuid.Parse(owner); err != nil {
		return nil, fmt.Errorf("parse profile owner %q: %w", owner, err)
	}
	p.CreatedAt = fromNanos(createdAt)
	p.UpdatedAt = fromNanos(updatedAt)
	return &p, nil
}

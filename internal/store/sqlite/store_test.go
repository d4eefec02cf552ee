package sqlite

import (
	"context"
	"errors"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"finai-backend/internal/store/storetest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "finai.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t)
	})
}

func TestCorruptedIDsReturnErrors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	u := &models.User{ID: uuid.New(), Email: "rota@example.com", HashedPassword: "x"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		VALUES ('not-a-uuid', ?, 't', 1, 1)`, u.ID.String()); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, created_at)
		VALUES ('bad-message', 'not-a-uuid', 'user', 'hola', 1)`); err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO financial_profiles (id, user_id, data, created_at, updated_at)
		VALUES ('bad-profile', ?, '{}', 1, 1)`, u.ID.String()); err != nil {
		t.Fatalf("insert profile: %v", err)
	}

	if _, err := s.GetLatestSessionByUser(ctx, u.ID); err == nil || errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected parse error for session, got %v", err)
	}
	if _, err := s.GetFinancialProfileByUser(ctx, u.ID); err == nil || errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected parse error for profile, got %v", err)
	}

	// ListMessagesBySession binds a real uuid, so point the corrupted message at one.
	sessID := uuid.New()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		VALUES (?, ?, 't', 2, 2)`, sessID.String(), u.ID.String()); err != nil {
		t.Fatalf("insert valid session: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE messages SET session_id = ? WHERE id = 'bad-message'`, sessID.String()); err != nil {
		t.Fatalf("repoint message: %v", err)
	}
	if _, err := s.ListMessagesBySession(ctx, sessID); err == nil {
		t.Fatal("expected parse error for message")
	}
}

// Package storetest holds a behavioural suite every store.Store implementation must pass.
package storetest

import (
	"context"
	"errors"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the full suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("UserLookup", func(t *testing.T) { testUserLookup(t, newStore(t)) })
	t.Run("LatestSessionWins", func(t *testing.T) { testLatestSessionWins(t, newStore(t)) })
	t.Run("LatestSessionTieBreak", func(t *testing.T) { testLatestSessionTieBreak(t, newStore(t)) })
	t.Run("MessagesAscending", func(t *testing.T) { testMessagesAscending(t, newStore(t)) })
	t.Run("ProfileUpsert", func(t *testing.T) { testProfileUpsert(t, newStore(t)) })
}

func mustCreateUser(t *testing.T, s store.Store, email string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.New(), Email: email, Name: "Test", HashedPassword: "x"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func testUserLookup(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "ana@example.com")

	got, err := s.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected id %s, got %s", u.ID, got.ID)
	}
	if _, err := s.GetUserByID(ctx, uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	dup := &models.User{ID: uuid.New(), Email: "ana@example.com", HashedPassword: "y"}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate email, got %v", err)
	}
}

func testLatestSessionWins(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "luis@example.com")

	if _, err := s.GetLatestSessionByUser(ctx, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any session, got %v", err)
	}

	first, err := s.CreateSession(ctx, store.CreateSessionParams{ID: uuid.New(), UserID: u.ID, Title: "uno"})
	if err != nil {
		t.Fatalf("create first session: %v", err)
	}
	second, err := s.CreateSession(ctx, store.CreateSessionParams{ID: uuid.New(), UserID: u.ID, Title: "dos"})
	if err != nil {
		t.Fatalf("create second session: %v", err)
	}

	// Appending to the older session makes it the latest again.
	if _, err := s.AppendMessage(ctx, store.AppendMessageParams{
		ID: uuid.New(), SessionID: first.ID, Role: models.RoleUser, Content: "hola",
		CreatedAt: second.UpdatedAt.Add(time.Second),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	latest, err := s.GetLatestSessionByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != first.ID {
		t.Fatalf("expected session %s to be latest after append, got %s", first.ID, latest.ID)
	}

	if _, err := s.AppendMessage(ctx, store.AppendMessageParams{
		ID: uuid.New(), SessionID: uuid.New(), Role: models.RoleUser, Content: "x",
	}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound appending to unknown session, got %v", err)
	}
}

func testLatestSessionTieBreak(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "eva@example.com")

	first, err := s.CreateSession(ctx, store.CreateSessionParams{ID: uuid.New(), UserID: u.ID, Title: "uno"})
	if err != nil {
		t.Fatalf("create first session: %v", err)
	}
	second, err := s.CreateSession(ctx, store.CreateSessionParams{ID: uuid.New(), UserID: u.ID, Title: "dos"})
	if err != nil {
		t.Fatalf("create second session: %v", err)
	}

	// Same updated_at on both; the session created later wins.
	at := second.UpdatedAt.Add(time.Minute)
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		if _, err := s.AppendMessage(ctx, store.AppendMessageParams{
			ID: uuid.New(), SessionID: id, Role: models.RoleUser, Content: "hola", CreatedAt: at,
		}); err != nil {
			t.Fatalf("append to %s: %v", id, err)
		}
	}

	for i := 0; i < 3; i++ {
		latest, err := s.GetLatestSessionByUser(ctx, u.ID)
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if latest.ID != second.ID {
			t.Fatalf("expected tie to resolve to %s, got %s", second.ID, latest.ID)
		}
	}
}

func testMessagesAscending(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "sofi@example.com")
	sess, err := s.CreateSession(ctx, store.CreateSessionParams{ID: uuid.New(), UserID: u.ID, Title: "t"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	// Inserted out of order on purpose.
	offsets := []int{3, 1, 4, 0, 2}
	for _, off := range offsets {
		_, err := s.AppendMessage(ctx, store.AppendMessageParams{
			ID:        uuid.New(),
			SessionID: sess.ID,
			Role:      models.RoleUser,
			Content:   string(rune('a' + off)),
			CreatedAt: base.Add(time.Duration(off) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append offset %d: %v", off, err)
		}
	}

	msgs, err := s.ListMessagesBySession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != len(offsets) {
		t.Fatalf("expected %d messages, got %d", len(offsets), len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("messages not ascending at %d: %s before %s", i, msgs[i].CreatedAt, msgs[i-1].CreatedAt)
		}
	}
	if msgs[0].Content != "a" || msgs[4].Content != "e" {
		t.Fatalf("expected a..e order, got %q..%q", msgs[0].Content, msgs[4].Content)
	}

	empty, err := s.ListMessagesBySession(ctx, uuid.New())
	if err != nil {
		t.Fatalf("list unknown session: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no messages for unknown session, got %d", len(empty))
	}
}

func testProfileUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "marta@example.com")

	if _, err := s.GetFinancialProfileByUser(ctx, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before upsert, got %v", err)
	}

	first, err := s.UpsertFinancialProfile(ctx, store.UpsertProfileParams{UserID: u.ID, Data: `{"answers":[]}`})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := s.UpsertFinancialProfile(ctx, store.UpsertProfileParams{UserID: u.ID, Data: `{"answers":[1]}`})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected upsert to keep row %s, got %s", first.ID, second.ID)
	}

	got, err := s.GetFinancialProfileByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.Data != `{"answers":[1]}` {
		t.Fatalf("expected latest payload, got %s", got.Data)
	}
}

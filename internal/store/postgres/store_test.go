package postgres

import (
	"context"
	"finai-backend/internal/store"
	"finai-backend/internal/store/storetest"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Runs only against a disposable database: every subtest truncates the tables.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	pg := NewPostgresStore(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		if _, err := pool.Exec(ctx, "TRUNCATE financial_profiles, messages, chat_sessions, users CASCADE"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return pg
	})
}

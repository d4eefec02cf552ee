package postgres

import (
	"context"
	"errors"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Financial Profile Methods ---

const upsertFinancialProfile = `-- name: UpsertFinancialProfile :one
INSERT INTO financial_profiles (id, user_id, data)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET data = EXCLUDED.data, updated_at = NOW()
RETURNING id, user_id, data, created_at, updated_at
`

// UpsertFinancialProfile creates the user's profile or overwrites its payload.
func (s *PostgresStore) UpsertFinancialProfile(ctx context.Context, arg store.UpsertProfileParams) (*models.FinancialProfile, error) {
	var p models.FinancialProfile
	err := s.db.QueryRow(ctx, upsertFinancialProfile, uuid.New(), arg.UserID, arg.Data).Scan(
		&p.ID,
		&p.UserID,
		&p.Data,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, mapWriteError("UpsertFinancialProfile", err)
	}
	log.Printf("[PostgresStore] UpsertFinancialProfile: Stored profile %s for user %s", p.ID, p.UserID)
	return &p, nil
}

const getFinancialProfileByUser = `-- name: GetFinancialProfileByUser :one
SELECT id, user_id, data, created_at, updated_at
FROM financial_profiles
WHERE user_id = $1
`

func (s *PostgresStore) GetFinancialProfileByUser(ctx context.Context, userID uuid.UUID) (*models.FinancialProfile, error) {
	var p models.FinancialProfile
	err := s.db.QueryRow(ctx, getFinancialProfileByUser, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.Data,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetFinancialProfileByUser: user %s: %v", userID, err)
		return nil, fmt.Errorf("database error fetching financial profile: %w", err)
	}
	return &p, nil
}

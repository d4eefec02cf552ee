package store

import (
	"context"
	"errors"
	"finai-backend/internal/models"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a unique key (e.g. user email) already exists.
var ErrConflict = errors.New("record already exists")

// CreateSessionParams contains parameters for creating a chat session.
type CreateSessionParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Title  string
}

// AppendMessageParams contains parameters for appending a message to a session.
// CreatedAt is optional; the store uses the current time when it is zero.
type AppendMessageParams struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Role      models.Role
	Content   string
	CreatedAt time.Time
}

// UpsertProfileParams contains parameters for creating or overwriting a user's financial profile.
type UpsertProfileParams struct {
	UserID uuid.UUID
	Data   string
}

// Store defines the persistence operations the application needs.
type Store interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	// Chat session operations
	GetLatestSessionByUser(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error)
	CreateSession(ctx context.Context, arg CreateSessionParams) (*models.ChatSession, error)

	// Message operations. AppendMessage also bumps the owning session's updated_at.
	AppendMessage(ctx context.Context, arg AppendMessageParams) (*models.Message, error)
	ListMessagesBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error)

	// Financial profile operations (one row per user)
	UpsertFinancialProfile(ctx context.Context, arg UpsertProfileParams) (*models.FinancialProfile, error)
	GetFinancialProfileByUser(ctx context.Context, userID uuid.UUID) (*models.FinancialProfile, error)

	// Close releases the underlying connections.
	Close()
}

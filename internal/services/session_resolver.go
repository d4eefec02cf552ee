package services

import (
	"context"
	"errors"
	"finai-backend/internal/config"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// SessionResolver decides which persisted conversation a user's traffic attaches to.
type SessionResolver interface {
	// Current returns the active session, or store.ErrNotFound when there is none.
	Current(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error)
	// Resolve returns the active session, creating one when there is none.
	Resolve(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error)
}

// LatestSessionResolver implements "the most recently updated session wins".
// Concurrent first messages may each create a session; the loser is never selected again.
type LatestSessionResolver struct {
	store   store.Store
	title   string
	maxIdle time.Duration
	now     func() time.Time
}

var _ SessionResolver = (*LatestSessionResolver)(nil)

// NewLatestSessionResolver builds a resolver. cfg.SessionMaxIdle > 0 retires sessions idle for longer.
func NewLatestSessionResolver(s store.Store, cfg config.ChatConfig) *LatestSessionResolver {
	title := cfg.DefaultSessionTitle
	if title == "" {
		title = "Nueva Conversación"
	}
	return &LatestSessionResolver{
		store:   s,
		title:   title,
		maxIdle: cfg.SessionMaxIdle,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *LatestSessionResolver) Current(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error) {
	sess, err := r.store.GetLatestSessionByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if r.maxIdle > 0 && r.now().Sub(sess.UpdatedAt) > r.maxIdle {
		log.Printf("[SessionResolver] Session %s for user %s idle since %s, retiring", sess.ID, userID, sess.UpdatedAt.Format(time.RFC3339))
		return nil, store.ErrNotFound
	}
	return sess, nil
}

func (r *LatestSessionResolver) Resolve(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error) {
	sess, err := r.Current(ctx, userID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup latest session: %w", err)
	}

	sess, err = r.store.CreateSession(ctx, store.CreateSessionParams{
		ID:     uuid.New(),
		UserID: userID,
		Title:  r.title,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	log.Printf("[SessionResolver] Created session %s for user %s", sess.ID, userID)
	return sess, nil
}

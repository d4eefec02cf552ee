// Package memory is an in-process store.Store used for local development and tests.
package memory

import (
	"context"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ store.Store = (*Store)(nil)

type sessionRecord struct {
	session models.ChatSession
	seq     int64 // breaks updated_at ties: later touch wins
}

// Store keeps every record in maps guarded by one RWMutex. Nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	seq      int64
	users    map[uuid.UUID]models.User
	emails   map[string]uuid.UUID
	sessions map[uuid.UUID]*sessionRecord
	messages map[uuid.UUID][]models.Message
	profiles map[uuid.UUID]models.FinancialProfile
	now      func() time.Time
}

// New bootstraps an empty store.
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]models.User),
		emails:   make(map[string]uuid.UUID),
		sessions: make(map[uuid.UUID]*sessionRecord),
		messages: make(map[uuid.UUID][]models.Message),
		profiles: make(map[uuid.UUID]models.FinancialProfile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Close() {}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, exists := s.emails[key]; exists {
		return store.ErrConflict
	}
	if _, exists := s.users[user.ID]; exists {
		return store.ErrConflict
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user
	s.emails[key] = user.ID
	return nil
}

func (s *Store) GetLatestSessionByUser(_ context.Context, userID uuid.UUID) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *sessionRecord
	for _, rec := range s.sessions {
		if rec.session.UserID != userID {
			continue
		}
		if latest == nil ||
			rec.session.UpdatedAt.After(latest.session.UpdatedAt) ||
			(rec.session.UpdatedAt.Equal(latest.session.UpdatedAt) && rec.seq > latest.seq) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	sess := latest.session
	return &sess, nil
}

func (s *Store) CreateSession(_ context.Context, arg store.CreateSessionParams) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[arg.UserID]; !ok {
		return nil, store.ErrNotFound
	}
	if _, exists := s.sessions[arg.ID]; exists {
		return nil, store.ErrConflict
	}
	now := s.now()
	rec := &sessionRecord{
		session: models.ChatSession{ID: arg.ID, UserID: arg.UserID, Title: arg.Title, CreatedAt: now, UpdatedAt: now},
		seq:     s.nextSeq(),
	}
	s.sessions[arg.ID] = rec
	sess := rec.session
	return &sess, nil
}

func (s *Store) AppendMessage(_ context.Context, arg store.AppendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[arg.SessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	createdAt := arg.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	msg := models.Message{
		ID:        arg.ID,
		SessionID: arg.SessionID,
		Role:      arg.Role,
		Content:   arg.Content,
		CreatedAt: createdAt.UTC(),
	}
	s.messages[arg.SessionID] = append(s.messages[arg.SessionID], msg)
	rec.session.UpdatedAt = msg.CreatedAt
	rec.seq = s.nextSeq()
	return &msg, nil
}

func (s *Store) ListMessagesBySession(_ context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]models.Message, len(s.messages[sessionID]))
	copy(copied, s.messages[sessionID])
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].CreatedAt.Before(copied[j].CreatedAt)
	})
	return copied, nil
}

func (s *Store) UpsertFinancialProfile(_ context.Context, arg store.UpsertProfileParams) (*models.FinancialProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[arg.UserID]; !ok {
		return nil, store.ErrNotFound
	}
	now := s.now()
	p, exists := s.profiles[arg.UserID]
	if !exists {
		p = models.FinancialProfile{ID: uuid.New(), UserID: arg.UserID, CreatedAt: now}
	}
	p.Data = arg.Data
	p.UpdatedAt = now
	s.profiles[arg.UserID] = p
	return &p, nil
}

func (s *Store) GetFinancialProfileByUser(_ context.Context, userID uuid.UUID) (*models.FinancialProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

// ProfileCount reports how many profile rows exist. Used by tests to check upsert semantics.
func (s *Store) ProfileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// SessionCount reports how many sessions the user owns.
func (s *Store) SessionCount(userID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.sessions {
		if rec.session.UserID == userID {
			n++
		}
	}
	return n
}

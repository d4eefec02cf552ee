package services

import (
	"context"
	"errors"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when the authenticated identity has no account row.
var ErrUserNotFound = errors.New("user not found")

const transcriptSeparator = "--------------------------------------------------"

// HistoryFormatter turns persisted messages into the client-facing history view.
type HistoryFormatter struct {
	store    store.Store
	resolver SessionResolver
}

func NewHistoryFormatter(s store.Store, resolver SessionResolver) *HistoryFormatter {
	return &HistoryFormatter{store: s, resolver: resolver}
}

// Format lists a session's messages oldest first. Equal timestamps keep storage order.
func (h *HistoryFormatter) Format(ctx context.Context, sessionID uuid.UUID) ([]models.HistoryMessage, error) {
	msgs, err := h.store.ListMessagesBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages for session %s: %w", sessionID, err)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	out := make([]models.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.HistoryMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

// ForUser returns the history of the user's current session, or an empty list when there is none.
func (h *HistoryFormatter) ForUser(ctx context.Context, userID uuid.UUID) (*models.User, []models.HistoryMessage, error) {
	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	sess, err := h.resolver.Current(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return user, []models.HistoryMessage{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("lookup current session: %w", err)
	}

	msgs, err := h.Format(ctx, sess.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, msgs, nil
}

// ToTurns drops identifiers and timestamps so a resumed history can be sent back to /chat.
func ToTurns(msgs []models.HistoryMessage) []models.ChatTurn {
	turns := make([]models.ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, models.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}

// FormatTranscript renders messages as a plain-text transcript for download.
func FormatTranscript(msgs []models.HistoryMessage) string {
	blocks := make([]string, 0, len(msgs))
	for _, m := range msgs {
		speaker := "🤖 FinAI:"
		if m.Role == models.RoleUser {
			speaker = "👤 Usuario:"
		}
		blocks = append(blocks, fmt.Sprintf("[%s] %s\n%s\n\n%s\n",
			m.CreatedAt.Format("02/01/2006 15:04:05"), speaker, m.Content, transcriptSeparator))
	}
	return strings.Join(blocks, "\n")
}

// TranscriptFilename builds the download name for a user's transcript.
func TranscriptFilename(name string, at time.Time) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, strings.TrimSpace(name))
	if slug == "" {
		slug = "usuario"
	}
	return fmt.Sprintf("chat_history_%s_%s.txt", slug, at.Format("2006-01-02"))
}

package services

import (
	"context"
	"errors"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"finai-backend/internal/store/memory"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHistoryForUser(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	h := NewHistoryFormatter(st, NewLatestSessionResolver(st, testChatConfig()))

	if _, _, err := h.ForUser(ctx, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user err = %v, want ErrUserNotFound", err)
	}

	userID := seedUser(t, st)
	_, msgs, err := h.ForUser(ctx, userID)
	if err != nil {
		t.Fatalf("ForUser without session: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("want empty non-nil history, got %#v", msgs)
	}

	sess, _ := st.CreateSession(ctx, store.CreateSessionParams{ID: uuid.New(), UserID: userID, Title: "t"})
	base := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	inserts := []struct {
		role    models.Role
		content string
		at      time.Time
	}{
		{models.RoleAssistant, "segundo", base.Add(time.Minute)},
		{models.RoleUser, "primero", base},
		{models.RoleUser, "tercero", base.Add(2 * time.Minute)},
	}
	for _, in := range inserts {
		if _, err := st.AppendMessage(ctx, store.AppendMessageParams{ID: uuid.New(), SessionID: sess.ID, Role: in.role, Content: in.content, CreatedAt: in.at}); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	_, msgs, err = h.ForUser(ctx, userID)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	var order []string
	for _, m := range msgs {
		order = append(order, m.Content)
	}
	if got := strings.Join(order, ","); got != "primero,segundo,tercero" {
		t.Errorf("order = %s", got)
	}

	turns := ToTurns(msgs)
	if len(turns) != 3 || turns[1].Role != models.RoleAssistant {
		t.Errorf("ToTurns = %+v", turns)
	}
}

func TestFormatTranscript(t *testing.T) {
	at := time.Date(2025, 5, 4, 9, 30, 0, 0, time.UTC)
	out := FormatTranscript([]models.HistoryMessage{
		{Role: models.RoleUser, Content: "hola", CreatedAt: at},
		{Role: models.RoleAssistant, Content: "¡hola!", CreatedAt: at},
	})
	want := "[04/05/2025 09:30:00] 👤 Usuario:\nhola\n\n" + transcriptSeparator + "\n" +
		"\n[04/05/2025 09:30:00] 🤖 FinAI:\n¡hola!\n\n" + transcriptSeparator + "\n"
	if out != want {
		t.Errorf("transcript mismatch:\n%s\nwant:\n%s", out, want)
	}
	if len(transcriptSeparator) != 50 {
		t.Errorf("separator length = %d", len(transcriptSeparator))
	}
}

func TestTranscriptFilename(t *testing.T) {
	got := TranscriptFilename("Ana María", time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC))
	if got != "chat_history_ana_mar_a_2025-05-04.txt" {
		t.Errorf("filename = %s", got)
	}
	if got := TranscriptFilename("", time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)); got != "chat_history_usuario_2025-05-04.txt" {
		t.Errorf("empty name filename = %s", got)
	}
}

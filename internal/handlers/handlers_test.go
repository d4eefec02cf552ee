package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"finai-backend/internal/auth"
	"finai-backend/internal/checklist"
	"finai-backend/internal/models"
	"finai-backend/internal/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeChat struct {
	fragments []string
	err       error
	userID    uuid.UUID
}

func (f *fakeChat) Converse(_ context.Context, userID uuid.UUID, _ []models.ChatTurn, w services.FragmentWriter) (*services.ConverseResult, error) {
	f.userID = userID
	for _, frag := range f.fragments {
		if err := w.WriteFragment(frag); err != nil {
			return nil, services.ErrCallerDisconnected
		}
	}
	return &services.ConverseResult{}, f.err
}

type fakeHistory struct {
	user *models.User
	msgs []models.HistoryMessage
	err  error
}

func (f *fakeHistory) ForUser(context.Context, uuid.UUID) (*models.User, []models.HistoryMessage, error) {
	return f.user, f.msgs, f.err
}

func chatRequest(t *testing.T, ctx context.Context) *http.Request {
	t.Helper()
	body := `{"messages":[{"role":"user","content":"hola"}]}`
	return httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)).WithContext(ctx)
}

func TestHandleChatStreamsPlainText(t *testing.T) {
	chat := &fakeChat{fragments: []string{"Hola", " mundo"}}
	h := NewChatHandlers(chat, &fakeHistory{})
	userID := uuid.New()
	rec := httptest.NewRecorder()

	h.HandleChat(rec, chatRequest(t, auth.WithIdentity(context.Background(), userID, "a@b.c")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %s", ct)
	}
	if rec.Body.String() != "Hola mundo" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if !rec.Flushed {
		t.Error("response was not flushed")
	}
	if chat.userID != userID {
		t.Errorf("identity not propagated: %s", chat.userID)
	}
}

func TestHandleChatErrorsBeforeFirstByte(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrValidation, http.StatusBadRequest},
		{services.ErrProviderUnavailable, http.StatusServiceUnavailable},
		{services.ErrProviderFailure, http.StatusBadGateway},
		{services.ErrGenerationTimeout, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewChatHandlers(&fakeChat{err: tc.err}, &fakeHistory{}).HandleChat(rec, chatRequest(t, context.Background()))
			if rec.Code != tc.code {
				t.Errorf("status = %d, want %d", rec.Code, tc.code)
			}
			var resp models.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error == "" {
				t.Errorf("error body missing: %v", err)
			}
		})
	}
}

func TestHandleChatFailureAfterFirstByteAborts(t *testing.T) {
	h := NewChatHandlers(&fakeChat{fragments: []string{"Ho"}, err: services.ErrProviderFailure}, &fakeHistory{})
	defer func() {
		if r := recover(); r != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", r)
		}
	}()
	h.HandleChat(httptest.NewRecorder(), chatRequest(t, context.Background()))
}

func TestHandleChatBadBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{"))
	NewChatHandlers(&fakeChat{}, &fakeHistory{}).HandleChat(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleHistory(t *testing.T) {
	msgs := []models.HistoryMessage{{ID: uuid.New(), Role: models.RoleUser, Content: "hola", CreatedAt: time.Now()}}
	h := NewChatHandlers(&fakeChat{}, &fakeHistory{user: &models.User{Name: "Ana"}, msgs: msgs})

	rec := httptest.NewRecorder()
	h.HandleGetHistory(rec, httptest.NewRequest(http.MethodGet, "/chat/history", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d", rec.Code)
	}

	ctx := auth.WithIdentity(context.Background(), uuid.New(), "a@b.c")
	rec = httptest.NewRecorder()
	h.HandleGetHistory(rec, httptest.NewRequest(http.MethodGet, "/chat/history", nil).WithContext(ctx))
	var resp models.HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Content != "hola" {
		t.Errorf("messages = %+v", resp.Messages)
	}

	missing := NewChatHandlers(&fakeChat{}, &fakeHistory{err: services.ErrUserNotFound})
	rec = httptest.NewRecorder()
	missing.HandleGetHistory(rec, httptest.NewRequest(http.MethodGet, "/chat/history", nil).WithContext(ctx))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing user status = %d", rec.Code)
	}
}

func TestHandleExportHistory(t *testing.T) {
	msgs := []models.HistoryMessage{{Role: models.RoleAssistant, Content: "¡hola!", CreatedAt: time.Now()}}
	h := NewChatHandlers(&fakeChat{}, &fakeHistory{user: &models.User{Name: "Ana"}, msgs: msgs})
	ctx := auth.WithIdentity(context.Background(), uuid.New(), "a@b.c")
	rec := httptest.NewRecorder()

	h.HandleExportHistory(rec, httptest.NewRequest(http.MethodGet, "/chat/history/export", nil).WithContext(ctx))

	if !strings.Contains(rec.Header().Get("Content-Disposition"), "chat_history_ana_") {
		t.Errorf("disposition = %s", rec.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(rec.Body.String(), "🤖 FinAI:\n¡hola!") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

type fakeProfiles struct {
	saved  []byte
	status checklist.ProfileStatus
	err    error
}

func (f *fakeProfiles) Save(_ context.Context, userID uuid.UUID, raw []byte) (*models.ProfileResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = raw
	return &models.ProfileResponse{ID: uuid.New(), UserID: userID, Data: raw}, nil
}

func (f *fakeProfiles) Get(context.Context, uuid.UUID) (*models.ProfileResponse, checklist.ProfileStatus, error) {
	return nil, f.status, f.err
}

func TestChecklistHandlers(t *testing.T) {
	profiles := &fakeProfiles{status: checklist.StatusPending}
	h := NewChecklistHandler(profiles, checklist.DefaultDefinition())
	ctx := auth.WithIdentity(context.Background(), uuid.New(), "a@b.c")

	rec := httptest.NewRecorder()
	h.HandleGetDefinition(rec, httptest.NewRequest(http.MethodGet, "/checklist/definition", nil))
	var def checklist.Definition
	if err := json.NewDecoder(rec.Body).Decode(&def); err != nil || len(def.Sections) == 0 {
		t.Fatalf("definition decode: %v (%d sections)", err, len(def.Sections))
	}

	body := `{"answers":[{"category":"c","question":"q","answer":"a","tag":"deficit"}]}`
	rec = httptest.NewRecorder()
	h.HandleSubmit(rec, httptest.NewRequest(http.MethodPost, "/checklist", strings.NewReader(body)).WithContext(ctx))
	var submit models.ChecklistSubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&submit); err != nil || !submit.Success {
		t.Fatalf("submit response: %v %+v", err, submit)
	}
	if string(profiles.saved) != body {
		t.Errorf("saved = %s", profiles.saved)
	}

	rec = httptest.NewRecorder()
	h.HandleGetProfile(rec, httptest.NewRequest(http.MethodGet, "/checklist", nil).WithContext(ctx))
	var status models.ProfileStatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil || status.Status != "pending" || status.Profile != nil {
		t.Errorf("status response: %v %+v", err, status)
	}

	profiles.err = services.ErrInvalidPayload
	rec = httptest.NewRecorder()
	h.HandleSubmit(rec, httptest.NewRequest(http.MethodPost, "/checklist", strings.NewReader("[]")).WithContext(ctx))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid payload status = %d", rec.Code)
	}
}

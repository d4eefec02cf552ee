package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"finai-backend/internal/auth"
	"finai-backend/internal/models"
	"finai-backend/internal/services"
	"finai-backend/pkg/httputil"
	"fmt"
	"log"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ChatService is the streaming pipeline the chat handler drives.
type ChatService interface {
	Converse(ctx context.Context, userID uuid.UUID, history []models.ChatTurn, w services.FragmentWriter) (*services.ConverseResult, error)
}

// HistoryService serves persisted conversations.
type HistoryService interface {
	ForUser(ctx context.Context, userID uuid.UUID) (*models.User, []models.HistoryMessage, error)
}

// ChatHandlers serves /chat and its history endpoints.
type ChatHandlers struct {
	chatService    ChatService
	historyService HistoryService
}

func NewChatHandlers(chatSvc ChatService, historySvc HistoryService) *ChatHandlers {
	return &ChatHandlers{
		chatService:    chatSvc,
		historyService: historySvc,
	}
}

// HandleChat handles POST /chat. The reply is streamed as plain text; the identity, when
// present, comes from the optional JWT middleware.
func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	userID, _ := auth.GetUserIDFromContext(r.Context())
	sw := newStreamWriter(w)

	_, err := h.chatService.Converse(r.Context(), userID, req.Messages, sw)
	if err == nil {
		sw.commit()
		return
	}

	if errors.Is(err, services.ErrCallerDisconnected) {
		log.Printf("[ChatHandler] Caller disconnected (user %s)", userID)
		return
	}
	if sw.committed {
		// Headers are gone; the only signal left is an aborted body.
		log.Printf("ERROR [ChatHandler] Stream failed after first byte (user %s): %v", userID, err)
		panic(http.ErrAbortHandler)
	}

	log.Printf("ERROR [ChatHandler] Chat turn failed (user %s): %v", userID, err)
	switch {
	case errors.Is(err, services.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrProviderUnavailable):
		httputil.RespondError(w, http.StatusServiceUnavailable, "Chat model is not configured")
	case errors.Is(err, services.ErrGenerationTimeout):
		httputil.RespondError(w, http.StatusGatewayTimeout, "The model took too long to answer")
	case errors.Is(err, services.ErrProviderFailure):
		httputil.RespondError(w, http.StatusBadGateway, "The model could not answer")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "Chat failed due to an internal error")
	}
}

// HandleGetHistory handles GET /chat/history.
func (h *ChatHandlers) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	_, msgs, err := h.historyService.ForUser(r.Context(), userID)
	if err != nil {
		respondHistoryError(w, userID, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.HistoryResponse{Messages: msgs})
}

// HandleExportHistory handles GET /chat/history/export.
func (h *ChatHandlers) HandleExportHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, msgs, err := h.historyService.ForUser(r.Context(), userID)
	if err != nil {
		respondHistoryError(w, userID, err)
		return
	}

	filename := services.TranscriptFilename(user.Name, time.Now())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, services.FormatTranscript(msgs)); err != nil {
		log.Printf("ERROR [ChatHandler] Writing transcript for user %s: %v", userID, err)
	}
}

func respondHistoryError(w http.ResponseWriter, userID uuid.UUID, err error) {
	if errors.Is(err, services.ErrUserNotFound) {
		httputil.RespondError(w, http.StatusNotFound, "User not found")
		return
	}
	log.Printf("ERROR [ChatHandler] Loading history for user %s: %v", userID, err)
	httputil.RespondError(w, http.StatusInternalServerError, "Failed to load history")
}

// streamWriter commits the text/plain response on the first fragment so earlier
// failures can still be reported as JSON errors.
type streamWriter struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	committed bool
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	f, _ := w.(http.Flusher)
	return &streamWriter{w: w, flusher: f}
}

func (s *streamWriter) commit() {
	if s.committed {
		return
	}
	s.committed = true
	s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

func (s *streamWriter) WriteFragment(fragment string) error {
	s.commit()
	if _, err := s.w.Write([]byte(fragment)); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

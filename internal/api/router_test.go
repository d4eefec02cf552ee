package api

import (
	"bytes"
	"context"
	"encoding/json"
	"finai-backend/internal/checklist"
	"finai-backend/internal/config"
	"finai-backend/internal/handlers"
	"finai-backend/internal/llm"
	"finai-backend/internal/models"
	"finai-backend/internal/services"
	"finai-backend/internal/store/memory"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type scriptedStream struct{ fragments []string }

func (s *scriptedStream) Recv() (string, error) {
	if len(s.fragments) == 0 {
		return "", io.EOF
	}
	f := s.fragments[0]
	s.fragments = s.fragments[1:]
	return f, nil
}

func (s *scriptedStream) Close() {}

type scriptedProvider struct{}

func (scriptedProvider) StreamCompletion(context.Context, string, []models.ChatTurn) (llm.Stream, error) {
	return &scriptedStream{fragments: []string{"Armá", " un", " presupuesto."}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:       "test-secret",
		TokenExpiration: time.Hour,
		AllowedOrigins:  []string{"http://localhost:5173"},
		Chat: config.ChatConfig{
			GenerationTimeout:   5 * time.Second,
			PersistTimeout:      time.Second,
			DefaultSessionTitle: "Nueva Conversación",
		},
	}
	st := memory.New()
	resolver := services.NewLatestSessionResolver(st, cfg.Chat)
	router := NewRouter(RouterDependencies{
		AuthHandler:      handlers.NewAuthHandler(services.NewAuthService(st, cfg)),
		ChatHandler:      handlers.NewChatHandlers(services.NewChatService(scriptedProvider{}, resolver, st, "Eres FinAI", cfg.Chat), services.NewHistoryFormatter(st, resolver)),
		ChecklistHandler: handlers.NewChecklistHandler(services.NewProfileService(st, nil), checklist.DefaultDefinition()),
		Config:           cfg,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, st
}

func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChatFlowEndToEnd(t *testing.T) {
	srv, st := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/auth/signup", "", models.SignupRequest{Email: "ana@example.com", Password: "supersecret", Name: "Ana"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}
	var authResp models.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode signup: %v", err)
	}

	resp = do(t, http.MethodGet, srv.URL+"/chat/history", authResp.AccessToken, nil)
	var hist models.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil || hist.Messages == nil || len(hist.Messages) != 0 {
		t.Fatalf("empty history = %+v, %v", hist, err)
	}

	chat := models.ChatRequest{Messages: []models.ChatTurn{{Role: models.RoleUser, Content: "¿Cómo empiezo?"}}}
	resp = do(t, http.MethodPost, srv.URL+"/chat", authResp.AccessToken, chat)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("chat content type = %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Armá un presupuesto." {
		t.Errorf("chat body = %q", body)
	}
	if st.SessionCount(authResp.User.ID) != 1 {
		t.Errorf("sessions = %d", st.SessionCount(authResp.User.ID))
	}

	resp = do(t, http.MethodGet, srv.URL+"/chat/history", authResp.AccessToken, nil)
	hist = models.HistoryResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Messages) != 2 || hist.Messages[0].Role != models.RoleUser || hist.Messages[1].Content != "Armá un presupuesto." {
		t.Errorf("history = %+v", hist.Messages)
	}
}

func TestChatAnonymousAndBadToken(t *testing.T) {
	srv, _ := newTestServer(t)
	chat := models.ChatRequest{Messages: []models.ChatTurn{{Role: models.RoleUser, Content: "hola"}}}

	for _, token := range []string{"", "not-a-jwt"} {
		resp := do(t, http.MethodPost, srv.URL+"/chat", token, chat)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("token %q: status = %d", token, resp.StatusCode)
		}
	}

	resp := do(t, http.MethodPost, srv.URL+"/chat", "", models.ChatRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty conversation status = %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/chat/history", "/chat/history/export", "/checklist"} {
		resp := do(t, http.MethodGet, srv.URL+path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, resp.StatusCode)
		}
	}
	resp := do(t, http.MethodGet, srv.URL+"/checklist/definition", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("definition status = %d", resp.StatusCode)
	}
}

func TestChecklistSubmitFlow(t *testing.T) {
	srv, st := newTestServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/auth/signup", "", models.SignupRequest{Email: "leo@example.com", Password: "supersecret", Name: "Leo"})
	var authResp models.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode signup: %v", err)
	}

	payload := checklist.Payload{
		Answers: []checklist.Answer{{Category: "Ahorro", Question: "¿Tenés colchón?", Answer: "Más de 3 meses", Tag: checklist.TagEmergencyFund}},
	}
	for i := 0; i < 2; i++ {
		resp = do(t, http.MethodPost, srv.URL+"/checklist", authResp.AccessToken, payload)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submit %d status = %d", i, resp.StatusCode)
		}
	}
	if st.ProfileCount() != 1 {
		t.Errorf("profiles = %d, want 1", st.ProfileCount())
	}

	resp = do(t, http.MethodGet, srv.URL+"/checklist", authResp.AccessToken, nil)
	var status models.ProfileStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Status != string(checklist.StatusStable) || status.Profile == nil {
		t.Errorf("status = %+v", status)
	}
}

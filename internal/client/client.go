// Package client is the HTTP client finaictl uses to talk to the FinAI server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"finai-backend/internal/checklist"
	"finai-backend/internal/models"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotAuthenticated is returned by calls that need a token when none is set.
var ErrNotAuthenticated = errors.New("no access token: run `finaictl login` or set FINAI_TOKEN")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client wraps a resty client configured for the FinAI API.
type Client struct {
	http   *resty.Client
	stream *resty.Client // no overall timeout; /chat is bounded server-side
	token  string
}

// New creates a client for baseURL. token may be empty for anonymous use.
func New(baseURL, token string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	rc := resty.New()
	rc.SetBaseURL(baseURL)
	rc.SetTimeout(30 * time.Second)
	rc.SetHeader("Accept", "application/json")

	sc := resty.New()
	sc.SetBaseURL(baseURL)

	c := &Client{http: rc, stream: sc}
	c.SetToken(token)
	return c
}

// SetToken replaces the bearer token used on subsequent calls.
func (c *Client) SetToken(token string) {
	c.token = token
	c.http.SetAuthToken(token)
	c.stream.SetAuthToken(token)
}

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&models.ErrorResponse{})
}

func (c *Client) requireToken() error {
	if c.token == "" {
		return ErrNotAuthenticated
	}
	return nil
}

func asError(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if e, ok := resp.Error().(*models.ErrorResponse); ok && e != nil {
		apiErr.Message = e.Error
	}
	return apiErr
}

// Signup registers a new account and stores the returned token on the client.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	resp, err := c.request(ctx).
		SetBody(models.SignupRequest{Email: email, Password: password, Name: name}).
		SetResult(&out).
		Post("/auth/signup")
	if err := asError(resp, err); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	resp, err := c.request(ctx).
		SetBody(models.LoginRequest{Email: email, Password: password}).
		SetResult(&out).
		Post("/auth/login")
	if err := asError(resp, err); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// Chat posts the conversation and copies the streamed reply to out as it arrives.
// It returns the full reply.
func (c *Client) Chat(ctx context.Context, history []models.ChatTurn, out io.Writer) (string, error) {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetBody(models.ChatRequest{Messages: history}).
		SetDoNotParseResponse(true).
		Post("/chat")
	if err != nil {
		return "", err
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		raw, _ := io.ReadAll(io.LimitReader(body, 64<<10))
		var e models.ErrorResponse
		if jsonErr := json.Unmarshal(raw, &e); jsonErr == nil {
			apiErr.Message = e.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return "", apiErr
	}

	var reply strings.Builder
	if _, err := io.Copy(io.MultiWriter(out, &reply), body); err != nil {
		return reply.String(), fmt.Errorf("reading reply stream: %w", err)
	}
	return reply.String(), nil
}

// History returns the messages of the caller's current session.
func (c *Client) History(ctx context.Context) ([]models.HistoryMessage, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out models.HistoryResponse
	resp, err := c.request(ctx).SetResult(&out).Get("/chat/history")
	if err := asError(resp, err); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// ExportHistory downloads the plain-text transcript and the filename the server suggests.
func (c *Client) ExportHistory(ctx context.Context) (string, []byte, error) {
	if err := c.requireToken(); err != nil {
		return "", nil, err
	}
	resp, err := c.request(ctx).SetHeader("Accept", "text/plain").Get("/chat/history/export")
	if err := asError(resp, err); err != nil {
		return "", nil, err
	}
	filename := "chat_history.txt"
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return filename, resp.Body(), nil
}

// Definition fetches the checklist the server serves.
func (c *Client) Definition(ctx context.Context) (checklist.Definition, error) {
	var out checklist.Definition
	resp, err := c.request(ctx).SetResult(&out).Get("/checklist/definition")
	if err := asError(resp, err); err != nil {
		return checklist.Definition{}, err
	}
	return out, nil
}

// SubmitChecklist stores a completed checklist as the caller's financial profile.
func (c *Client) SubmitChecklist(ctx context.Context, payload checklist.Payload) (*models.ChecklistSubmitResponse, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out models.ChecklistSubmitResponse
	resp, err := c.request(ctx).SetBody(payload).SetResult(&out).Post("/checklist")
	if err := asError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the caller's stored profile and its classification.
func (c *Client) Profile(ctx context.Context) (*models.ProfileStatusResponse, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out models.ProfileStatusResponse
	resp, err := c.request(ctx).SetResult(&out).Get("/checklist")
	if err := asError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports whether the server answers /health.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode()}
	}
	return nil
}

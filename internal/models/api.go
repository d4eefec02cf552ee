package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChatRequest is the body of POST /chat: the full ordered conversation so far.
type ChatRequest struct {
	Messages []ChatTurn `json:"messages"`
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HistoryMessage is one formatted turn of a resumed session.
type HistoryMessage struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryResponse is returned by GET /chat/history.
type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
}

// ProfileResponse is the API view of a FinancialProfile with its payload decoded.
type ProfileResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ChecklistSubmitResponse is returned by POST /checklist.
type ChecklistSubmitResponse struct {
	Success bool             `json:"success"`
	Profile *ProfileResponse `json:"profile"`
}

// ProfileStatusResponse is returned by GET /checklist.
type ProfileStatusResponse struct {
	Profile *ProfileResponse `json:"profile"`
	Status  string           `json:"status"`
}

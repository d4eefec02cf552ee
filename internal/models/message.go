package models

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the persisted roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatTurn is the {role, content} pair exchanged with clients and the model provider.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

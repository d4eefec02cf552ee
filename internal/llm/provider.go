// Package llm adapts hosted chat models to the streaming completion contract used by the chat pipeline.
package llm

import (
	"context"
	"errors"
	"finai-backend/internal/models"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrUnsupportedRole is returned when a history entry is neither user nor assistant.
var ErrUnsupportedRole = errors.New("unsupported message role")

// Stream yields incremental text fragments. Recv returns io.EOF after the last fragment.
// Implementations must make a pending Recv return once Close is called or the context
// given to StreamCompletion is done; callers read on a separate goroutine and rely on it.
type Stream interface {
	Recv() (string, error)
	Close()
}

// Provider is the model-facing side of a conversation turn.
type Provider interface {
	StreamCompletion(ctx context.Context, directive string, history []models.ChatTurn) (Stream, error)
}

// EinoProvider implements Provider on any eino chat model.
type EinoProvider struct {
	model model.BaseChatModel
}

// NewEinoProvider wraps m.
func NewEinoProvider(m model.BaseChatModel) *EinoProvider {
	return &EinoProvider{model: m}
}

// StreamCompletion sends the directive as the system message followed by history.
func (p *EinoProvider) StreamCompletion(ctx context.Context, directive string, history []models.ChatTurn) (Stream, error) {
	input, err := BuildMessages(directive, history)
	if err != nil {
		return nil, err
	}
	sr, err := p.model.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("model stream: %w", err)
	}
	return &einoStream{sr: sr}, nil
}

// BuildMessages converts a conversation into eino messages, system directive first.
func BuildMessages(directive string, history []models.ChatTurn) ([]*schema.Message, error) {
	msgs := make([]*schema.Message, 0, len(history)+1)
	if directive != "" {
		msgs = append(msgs, schema.SystemMessage(directive))
	}
	for i, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			msgs = append(msgs, schema.UserMessage(turn.Content))
		case models.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(turn.Content, nil))
		default:
			return nil, fmt.Errorf("%w %q at index %d", ErrUnsupportedRole, turn.Role, i)
		}
	}
	return msgs, nil
}

type einoStream struct {
	sr *schema.StreamReader[*schema.Message]
}

// Recv skips chunks without visible content (e.g. reasoning-only deltas).
func (s *einoStream) Recv() (string, error) {
	for {
		msg, err := s.sr.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("model stream recv: %w", err)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		return msg.Content, nil
	}
}

func (s *einoStream) Close() {
	s.sr.Close()
}

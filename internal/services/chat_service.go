package services

import (
	"context"
	"errors"
	"finai-backend/internal/config"
	"finai-backend/internal/llm"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProviderUnavailable = errors.New("model provider is not configured")
	ErrProviderFailure     = errors.New("model provider failed")
	ErrGenerationTimeout   = errors.New("generation exceeded its time budget")
	ErrCallerDisconnected  = errors.New("caller disconnected before the reply finished")
)

// FragmentWriter receives each fragment of the reply as soon as the provider yields it.
// An error means the caller is gone; no further fragments are written.
type FragmentWriter interface {
	WriteFragment(fragment string) error
}

// ConverseResult describes what happened to one turn.
type ConverseResult struct {
	SessionID      uuid.UUID // uuid.Nil for anonymous turns or when the session could not be resolved
	Reply          string
	UserPersisted  bool
	ReplyPersisted bool
}

// ChatService runs the streaming completion pipeline.
type ChatService struct {
	provider  llm.Provider
	resolver  SessionResolver
	store     store.Store
	directive string
	cfg       config.ChatConfig
	now       func() time.Time
}

// NewChatService wires the pipeline. provider may be nil, in which case every turn
// fails with ErrProviderUnavailable.
func NewChatService(provider llm.Provider, resolver SessionResolver, st store.Store, directive string, cfg config.ChatConfig) *ChatService {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	return &ChatService{
		provider:  provider,
		resolver:  resolver,
		store:     st,
		directive: directive,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ValidateHistory checks the inbound conversation: non-empty, known roles, last turn from the user.
func ValidateHistory(history []models.ChatTurn) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: messages cannot be empty", ErrValidation)
	}
	for i, turn := range history {
		if !turn.Role.Valid() {
			return fmt.Errorf("%w: message %d has unsupported role %q", ErrValidation, i, turn.Role)
		}
	}
	last := history[len(history)-1]
	if last.Role != models.RoleUser {
		return fmt.Errorf("%w: last message must have role user", ErrValidation)
	}
	if strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: last message cannot be empty", ErrValidation)
	}
	return nil
}

// Converse persists the inbound user turn (when userID is set), streams the model's reply
// to w and persists the full reply once the stream completes. Storage failures are logged
// and never fail the turn. A caller that disconnects still gets its partial reply stored.
func (s *ChatService) Converse(ctx context.Context, userID uuid.UUID, history []models.ChatTurn, w FragmentWriter) (*ConverseResult, error) {
	if err := ValidateHistory(history); err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}

	result := &ConverseResult{}
	var userAt time.Time
	if userID != uuid.Nil {
		userAt = s.persistInbound(ctx, userID, history[len(history)-1].Content, result)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	stream, err := s.provider.StreamCompletion(genCtx, s.directive, history)
	if err != nil {
		return result, s.classify(ctx, genCtx, err)
	}

	reply, relayErr := relay(genCtx, stream, w)
	result.Reply = reply

	var outcome error
	switch {
	case relayErr == nil:
	case errors.Is(relayErr, ErrCallerDisconnected) || ctx.Err() != nil:
		log.Printf("WARN [ChatService] Caller left mid-stream (session %s, %d bytes so far)", result.SessionID, len(reply))
		outcome = ErrCallerDisconnected
	default:
		// The turn failed; a truncated reply is not stored.
		return result, s.classify(ctx, genCtx, relayErr)
	}

	if reply == "" {
		log.Printf("WARN [ChatService] Model returned an empty completion (session %s)", result.SessionID)
		return result, outcome
	}

	if result.SessionID != uuid.Nil {
		result.ReplyPersisted = s.persistReply(ctx, result.SessionID, reply, userAt)
	}
	return result, outcome
}

// persistInbound resolves the session and stores the user turn. It returns the turn's timestamp.
func (s *ChatService) persistInbound(ctx context.Context, userID uuid.UUID, content string, result *ConverseResult) time.Time {
	var session *models.ChatSession
	ok := bestEffort(ctx, s.cfg.PersistTimeout, "resolve session for user "+userID.String(), func(ctx context.Context) error {
		var err error
		session, err = s.resolver.Resolve(ctx, userID)
		return err
	})
	if !ok {
		return time.Time{}
	}
	result.SessionID = session.ID

	at := s.now()
	result.UserPersisted = bestEffort(ctx, s.cfg.PersistTimeout, "store user message in session "+session.ID.String(), func(ctx context.Context) error {
		_, err := s.store.AppendMessage(ctx, store.AppendMessageParams{
			ID:        uuid.New(),
			SessionID: session.ID,
			Role:      models.RoleUser,
			Content:   content,
			CreatedAt: at,
		})
		return err
	})
	return at
}

// persistReply stores the assistant turn on a context detached from the request so a
// disconnected caller does not lose it. userAt keeps the reply strictly after the prompt.
func (s *ChatService) persistReply(ctx context.Context, sessionID uuid.UUID, reply string, userAt time.Time) bool {
	at := s.now()
	if !userAt.IsZero() && !at.After(userAt) {
		at = userAt.Add(time.Microsecond)
	}
	return bestEffort(context.WithoutCancel(ctx), s.cfg.PersistTimeout, "store assistant message in session "+sessionID.String(), func(ctx context.Context) error {
		_, err := s.store.AppendMessage(ctx, store.AppendMessageParams{
			ID:        uuid.New(),
			SessionID: sessionID,
			Role:      models.RoleAssistant,
			Content:   reply,
			CreatedAt: at,
		})
		return err
	})
}

// classify maps a provider-side error to the pipeline's sentinels.
func (s *ChatService) classify(ctx, genCtx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ErrCallerDisconnected
	case errors.Is(genCtx.Err(), context.DeadlineExceeded):
		log.Printf("ERROR [ChatService] Generation exceeded %s", s.cfg.GenerationTimeout)
		return ErrGenerationTimeout
	}
	log.Printf("ERROR [ChatService] Model provider error: %v", err)
	return fmt.Errorf("%w: %v", ErrProviderFailure, err)
}

type recvResult struct {
	fragment string
	err      error
}

// relay forwards fragments in receipt order while accumulating them. Recv runs on its own
// goroutine so the time budget holds even if the provider stops responding.
func relay(ctx context.Context, stream llm.Stream, w FragmentWriter) (string, error) {
	done := make(chan struct{})
	results := make(chan recvResult)
	defer stream.Close()
	defer close(done)

	go func() {
		for {
			frag, err := stream.Recv()
			select {
			case results <- recvResult{fragment: frag, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var buf strings.Builder
	for {
		select {
		case <-ctx.Done():
			return buf.String(), ctx.Err()
		case r := <-results:
			if errors.Is(r.err, io.EOF) {
				return buf.String(), nil
			}
			if r.err != nil {
				return buf.String(), r.err
			}
			buf.WriteString(r.fragment)
			if err := w.WriteFragment(r.fragment); err != nil {
				return buf.String(), fmt.Errorf("%w: %v", ErrCallerDisconnected, err)
			}
		}
	}
}

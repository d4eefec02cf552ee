package client

import (
	"context"
	"finai-backend/internal/checklist"
	"finai-backend/internal/models"
	"io"
)

// ChecklistSink delivers a finished checklist: the payload goes to /checklist and the
// compiled diagnostic prompt is sent as the next chat turn.
type ChecklistSink struct {
	Client  *Client
	Out     io.Writer
	History []models.ChatTurn // earlier turns of the conversation, if any

	Reply string // the model's answer to the diagnostic prompt
}

var (
	_ checklist.ProfileSaver = (*ChecklistSink)(nil)
	_ checklist.PromptSender = (*ChecklistSink)(nil)
)

func (s *ChecklistSink) SaveProfile(ctx context.Context, payload checklist.Payload) error {
	_, err := s.Client.SubmitChecklist(ctx, payload)
	return err
}

func (s *ChecklistSink) SendPrompt(ctx context.Context, prompt string) error {
	history := append(append([]models.ChatTurn(nil), s.History...), models.ChatTurn{Role: models.RoleUser, Content: prompt})
	reply, err := s.Client.Chat(ctx, history, s.Out)
	s.Reply = reply
	return err
}

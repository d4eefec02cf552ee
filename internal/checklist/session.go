package checklist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	ErrStepOutOfRange = errors.New("checklist step out of range")
	ErrUnknownOption  = errors.New("option not offered by this question")
	ErrNotFinishable  = errors.New("checklist cannot finish before the last step is answered")
)

// ProfileSaver persists the completed payload against the current user's profile.
type ProfileSaver interface {
	SaveProfile(ctx context.Context, payload Payload) error
}

// PromptSender delivers the diagnostic prompt as a user-authored chat message.
type PromptSender interface {
	SendPrompt(ctx context.Context, prompt string) error
}

// Session walks a flattened definition one step at a time. It is not safe for
// concurrent use; each interactive client owns its own Session.
type Session struct {
	steps   []Step
	current int
	order   []string // question ids in first-answer order
	answers map[string]Answer
	now     func() time.Time
}

// NewSession validates def and starts at step 0 with no answers.
func NewSession(def Definition) (*Session, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid checklist definition: %w", err)
	}
	s := &Session{
		steps: def.Flatten(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	s.Reset()
	return s, nil
}

// Reset returns to step 0 and forgets every answer.
func (s *Session) Reset() {
	s.current = 0
	s.order = nil
	s.answers = make(map[string]Answer, len(s.steps))
}

// Step is the index of the current question.
func (s *Session) Step() int { return s.current }

// TotalSteps is the number of questions in the flattened definition.
func (s *Session) TotalSteps() int { return len(s.steps) }

// Current returns the question at the current step.
func (s *Session) Current() Step { return s.steps[s.current] }

// IsLastStep reports whether the current step is the final question.
func (s *Session) IsLastStep() bool { return s.current == len(s.steps)-1 }

// AnswerAt returns the recorded answer for the question at step, if any.
func (s *Session) AnswerAt(step int) (Answer, bool) {
	if step < 0 || step >= len(s.steps) {
		return Answer{}, false
	}
	a, ok := s.answers[s.steps[step].Question.ID]
	return a, ok
}

// Answers returns the recorded answers in first-answer order. Re-answering a
// question keeps its original position.
func (s *Session) Answers() []Answer {
	out := make([]Answer, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.answers[id])
	}
	return out
}

// SelectOption records (or overwrites) the answer for the question at step and,
// unless step is the last one, moves to step+1.
func (s *Session) SelectOption(step int, value string) error {
	if step < 0 || step >= len(s.steps) {
		return fmt.Errorf("%w: %d (have %d steps)", ErrStepOutOfRange, step, len(s.steps))
	}
	st := s.steps[step]
	opt, ok := st.Question.Option(value)
	if !ok {
		return fmt.Errorf("%w: %q for question %q", ErrUnknownOption, value, st.Question.ID)
	}

	if _, seen := s.answers[st.Question.ID]; !seen {
		s.order = append(s.order, st.Question.ID)
	}
	s.answers[st.Question.ID] = Answer{
		QuestionID: st.Question.ID,
		Category:   st.Category,
		Question:   st.Question.Text,
		Answer:     opt.Label,
		Tag:        opt.Tag,
	}

	if step < len(s.steps)-1 {
		s.current = step + 1
	}
	return nil
}

// GoBack moves one step back, never below 0. Answers are kept.
func (s *Session) GoBack() {
	if s.current > 0 {
		s.current--
	}
}

// CanFinish reports whether the session sits on the last step and it has an answer.
func (s *Session) CanFinish() bool {
	if !s.IsLastStep() {
		return false
	}
	_, ok := s.AnswerAt(s.current)
	return ok
}

// Finish saves the payload, renders the diagnostic prompt, sends it and resets.
// A failed save is logged and does not stop delivery. The returned error is the
// sender's, if any; the session is reset either way.
func (s *Session) Finish(ctx context.Context, saver ProfileSaver, sender PromptSender) (Diagnosis, error) {
	if !s.CanFinish() {
		return Diagnosis{}, ErrNotFinishable
	}
	answers := s.Answers()
	defer s.Reset()

	payload := Payload{Answers: answers, CompletedAt: s.now()}
	if saver != nil {
		if err := saver.SaveProfile(ctx, payload); err != nil {
			log.Printf("ERROR [Checklist] Saving financial profile failed, continuing with diagnosis: %v", err)
		}
	}

	d := Diagnose(answers)
	if sender != nil {
		if err := sender.SendPrompt(ctx, d.Prompt); err != nil {
			return d, fmt.Errorf("send diagnostic prompt: %w", err)
		}
	}
	return d, nil
}

package checklist

import (
	"encoding/json"
	"errors"
	"time"
)

// Answer is one recorded response. Field names match the persisted payload format.
type Answer struct {
	QuestionID string `json:"questionId,omitempty"`
	Category   string `json:"category"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Tag        Tag    `json:"tag"`
}

// Payload is what a completed checklist stores in the user's financial profile.
type Payload struct {
	Answers     []Answer  `json:"answers"`
	CompletedAt time.Time `json:"completedAt"`
}

// ErrMissingAnswers is returned when a payload has no answers array.
var ErrMissingAnswers = errors.New("payload has no answers array")

// Tags returns the tag of every answer, in answer order.
func (p Payload) Tags() []Tag {
	tags := make([]Tag, 0, len(p.Answers))
	for _, a := range p.Answers {
		tags = append(tags, a.Tag)
	}
	return tags
}

// DecodePayload parses a stored payload. The answers array is required.
func DecodePayload(raw []byte) (Payload, error) {
	var probe struct {
		Answers     *[]Answer `json:"answers"`
		CompletedAt time.Time `json:"completedAt"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Payload{}, err
	}
	if probe.Answers == nil {
		return Payload{}, ErrMissingAnswers
	}
	return Payload{Answers: *probe.Answers, CompletedAt: probe.CompletedAt}, nil
}

// ProfileStatus is the summary classification of a stored payload.
type ProfileStatus string

const (
	StatusPending     ProfileStatus = "pending"
	StatusUnparseable ProfileStatus = "unparseable"
	StatusDebtDeficit ProfileStatus = "debt_deficit"
	StatusNoSavings   ProfileStatus = "no_savings"
	StatusStable      ProfileStatus = "stable_investor"
)

// Label is the Spanish label shown to people.
func (s ProfileStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pendiente"
	case StatusUnparseable:
		return "Error Datos"
	case StatusDebtDeficit:
		return "Deuda/Déficit"
	case StatusNoSavings:
		return "Sin Ahorro"
	case StatusStable:
		return "Estable/Inversor"
	}
	return string(s)
}

// Classify summarizes a stored payload. It never fails: an empty payload is pending and
// anything that does not decode is unparseable.
func Classify(raw string) ProfileStatus {
	if raw == "" {
		return StatusPending
	}
	p, err := DecodePayload([]byte(raw))
	if err != nil {
		return StatusUnparseable
	}
	switch SelectMode(p.Tags()) {
	case ModeCrisis:
		return StatusDebtDeficit
	case ModeNoSafetyNet:
		return StatusNoSavings
	default:
		return StatusStable
	}
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"finai-backend/internal/checklist"
	"finai-backend/internal/crypto"
	"finai-backend/internal/models"
	"finai-backend/internal/store"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// ErrInvalidPayload is returned when a checklist submission is not a JSON object.
var ErrInvalidPayload = errors.New("profile payload must be a JSON object")

// ProfileService stores the one financial profile each user owns.
type ProfileService struct {
	store  store.Store
	sealer *crypto.Sealer // nil stores payloads in clear
}

func NewProfileService(s store.Store, sealer *crypto.Sealer) *ProfileService {
	return &ProfileService{store: s, sealer: sealer}
}

// Save replaces the user's profile with raw. Submitting the same payload twice leaves one row.
func (s *ProfileService) Save(ctx context.Context, userID uuid.UUID, raw []byte) (*models.ProfileResponse, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, ErrInvalidPayload
	}

	data := string(raw)
	if s.sealer != nil {
		sealed, err := s.sealer.SealString(data)
		if err != nil {
			return nil, fmt.Errorf("seal profile: %w", err)
		}
		data = sealed
	}

	p, err := s.store.UpsertFinancialProfile(ctx, store.UpsertProfileParams{UserID: userID, Data: data})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	log.Printf("[ProfileService] Stored profile %s for user %s", p.ID, userID)
	return toProfileResponse(p, raw), nil
}

// Get returns the user's profile and its classification. A user without a profile is pending.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.ProfileResponse, checklist.ProfileStatus, error) {
	p, err := s.store.GetFinancialProfileByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, checklist.StatusPending, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get profile: %w", err)
	}

	data := p.Data
	if s.sealer != nil {
		data, err = s.sealer.OpenString(p.Data)
		if err != nil {
			log.Printf("ERROR [ProfileService] Could not open profile %s: %v", p.ID, err)
			return toProfileResponse(p, nil), checklist.StatusUnparseable, nil
		}
	} else if crypto.IsSealed(data) {
		log.Printf("WARN: profile %s is sealed but no PROFILE_ENCRYPTION_KEY is configured", p.ID)
		return toProfileResponse(p, nil), checklist.StatusUnparseable, nil
	}

	return toProfileResponse(p, []byte(data)), checklist.Classify(data), nil
}

func toProfileResponse(p *models.FinancialProfile, data []byte) *models.ProfileResponse {
	resp := &models.ProfileResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if json.Valid(data) {
		resp.Data = json.RawMessage(data)
	}
	return resp
}

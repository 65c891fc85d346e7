package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// SpeakerRepository captures the persistence operations needed by the speaker service.
type SpeakerRepository interface {
	GetSpeaker(ctx context.Context, id string) (Speaker, error)
	ListSpeakers(ctx context.Context) ([]Speaker, error)
	UpsertSpeaker(ctx context.Context, speaker Speaker) error
	DeleteSpeaker(ctx context.Context, id string) error
}

// SpeakerService orchestrates validation, authorization, and persistence for
// the speaker directory.
type SpeakerService struct {
	speakers    SpeakerRepository
	idGenerator func() string
}

// NewSpeakerService wires dependencies for the speaker service.
func NewSpeakerService(speakers SpeakerRepository, idGenerator func() string) *SpeakerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &SpeakerService{speakers: speakers, idGenerator: idGenerator}
}

// SaveSpeaker creates or updates a directory entry for administrators.
func (s *SpeakerService) SaveSpeaker(ctx context.Context, params SaveSpeakerParams) (Speaker, error) {
	if s == nil {
		return Speaker{}, fmt.Errorf("SpeakerService is nil")
	}
	if !params.Principal.IsAdmin {
		return Speaker{}, ErrUnauthorized
	}
	if s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}

	normalized := normalizeSpeakerInput(params.Input)
	vErr := validateSpeakerInput(normalized)
	if vErr.HasErrors() {
		return Speaker{}, vErr
	}

	speaker := Speaker{
		ID:          params.SpeakerID,
		Name:        normalized.Name,
		Email:       normalized.Email,
		RoleOrTitle: normalized.RoleOrTitle,
		Bio:         normalized.Bio,
		PhotoURL:    normalized.PhotoURL,
	}

	if speaker.ID == "" {
		speaker.ID = s.idGenerator()
	} else {
		if _, err := s.speakers.GetSpeaker(ctx, params.SpeakerID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Speaker{}, ErrNotFound
			}
			return Speaker{}, err
		}
	}

	if err := s.speakers.UpsertSpeaker(ctx, speaker); err != nil {
		return Speaker{}, err
	}

	return speaker, nil
}

// DeleteSpeaker removes a directory entry for administrators. Sessions that
// reference the speaker keep their assignment records.
func (s *SpeakerService) DeleteSpeaker(ctx context.Context, principal Principal, speakerID string) error {
	if s == nil {
		return fmt.Errorf("SpeakerService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.speakers == nil {
		return fmt.Errorf("speaker repository not configured")
	}

	if err := s.speakers.DeleteSpeaker(ctx, speakerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// GetSpeaker returns one directory entry by ID.
func (s *SpeakerService) GetSpeaker(ctx context.Context, speakerID string) (Speaker, error) {
	if s == nil {
		return Speaker{}, fmt.Errorf("SpeakerService is nil")
	}
	if s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}
	return s.speakers.GetSpeaker(ctx, speakerID)
}

// ListSpeakers returns the directory sorted by name. Listing is available to
// any authenticated user.
func (s *SpeakerService) ListSpeakers(ctx context.Context, principal Principal) ([]Speaker, error) {
	if s == nil {
		return nil, fmt.Errorf("SpeakerService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if s.speakers == nil {
		return nil, nil
	}

	speakers, err := s.speakers.ListSpeakers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Speaker, len(speakers))
	copy(out, speakers)

	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Name, out[j].Name) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})

	return out, nil
}

func normalizeSpeakerInput(input SpeakerInput) SpeakerInput {
	return SpeakerInput{
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		RoleOrTitle: strings.TrimSpace(input.RoleOrTitle),
		Bio:         strings.TrimSpace(input.Bio),
		PhotoURL:    strings.TrimSpace(input.PhotoURL),
	}
}

func validateSpeakerInput(input SpeakerInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}

	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			vErr.add("email", "email is invalid")
		}
	}

	return vErr
}

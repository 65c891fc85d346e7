package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/session-planner/internal/application"
)

type speakerService interface {
	SaveSpeaker(ctx context.Context, params application.SaveSpeakerParams) (application.Speaker, error)
	DeleteSpeaker(ctx context.Context, principal application.Principal, speakerID string) error
	ListSpeakers(ctx context.Context, principal application.Principal) ([]application.Speaker, error)
}

type SpeakerHandler struct {
	service   speakerService
	responder responder
	logger    *slog.Logger
}

func NewSpeakerHandler(service speakerService, logger *slog.Logger) *SpeakerHandler {
	base := defaultLogger(logger)
	return &SpeakerHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SpeakerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SpeakerHandler", operation, attrs...)
}

func (h *SpeakerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	speakers, err := h.service.ListSpeakers(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list speakers", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]speakerDTO, 0, len(speakers))
	for _, speaker := range speakers {
		out = append(out, toSpeakerDTO(speaker))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *SpeakerHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

func (h *SpeakerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := SpeakerIDFromContext(r.Context())
	if !ok || id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}
	h.save(w, r, id)
}

func (h *SpeakerHandler) save(w http.ResponseWriter, r *http.Request, speakerID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req speakerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Save", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode speaker request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Save", "speaker_id", speakerID)

	speaker, err := h.service.SaveSpeaker(r.Context(), application.SaveSpeakerParams{
		Principal: principal,
		SpeakerID: speakerID,
		Input: application.SpeakerInput{
			Name:        req.Name,
			Email:       req.Email,
			RoleOrTitle: req.RoleOrTitle,
			Bio:         req.Bio,
			PhotoURL:    req.PhotoURL,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to save speaker", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if speakerID == "" {
		status = http.StatusCreated
	}

	logger.With("saved_speaker_id", speaker.ID).InfoContext(r.Context(), "speaker saved")
	h.responder.writeJSON(r.Context(), w, status, toSpeakerDTO(speaker))
}

func (h *SpeakerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := SpeakerIDFromContext(r.Context())
	if !ok || id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "speaker_id", id)

	if err := h.service.DeleteSpeaker(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete speaker", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "speaker deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type speakerDTO struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	RoleOrTitle string `json:"roleOrTitle,omitempty"`
	Bio         string `json:"bio,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

func toSpeakerDTO(speaker application.Speaker) speakerDTO {
	return speakerDTO{
		ID:          speaker.ID,
		Name:        speaker.Name,
		Email:       speaker.Email,
		RoleOrTitle: speaker.RoleOrTitle,
		Bio:         speaker.Bio,
		PhotoURL:    speaker.PhotoURL,
	}
}

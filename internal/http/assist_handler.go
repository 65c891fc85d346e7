package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/session-planner/internal/application"
	"github.com/example/session-planner/internal/assist"
)

type assistService interface {
	Describe(ctx context.Context, title string, program application.Program) (assist.Description, error)
	Illustrate(ctx context.Context, title string, size string) (string, error)
}

type AssistHandler struct {
	service   assistService
	responder responder
	logger    *slog.Logger
}

func NewAssistHandler(service assistService, logger *slog.Logger) *AssistHandler {
	base := defaultLogger(logger)
	return &AssistHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AssistHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AssistHandler", operation, attrs...)
}

// Describe generates promotional copy for a session title.
func (h *AssistHandler) Describe(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req describeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Describe", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode describe request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Describe", "title", req.Title)

	description, err := h.service.Describe(r.Context(), req.Title, application.Program(req.Program))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to generate description", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	sources := make([]sourceDTO, 0, len(description.Sources))
	for _, source := range description.Sources {
		sources = append(sources, sourceDTO{URI: source.URI, Title: source.Title})
	}

	logger.InfoContext(r.Context(), "description generated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, describeResponse{Text: description.Text, Sources: sources})
}

// Illustrate generates a cover image and returns it as a data URL.
func (h *AssistHandler) Illustrate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req illustrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Illustrate", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode illustrate request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Illustrate", "title", req.Title)

	imageURL, err := h.service.Illustrate(r.Context(), req.Title, req.Size)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to generate image", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "image generated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, illustrateResponse{ImageURL: imageURL})
}

type describeRequest struct {
	Title   string `json:"title"`
	Program string `json:"program"`
}

type sourceDTO struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

type describeResponse struct {
	Text    string      `json:"text"`
	Sources []sourceDTO `json:"sources"`
}

type illustrateRequest struct {
	Title string `json:"title"`
	Size  string `json:"size,omitempty"`
}

type illustrateResponse struct {
	ImageURL string `json:"imageUrl"`
}

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/session-planner/internal/application"
)

type settingsService interface {
	GetSettings(ctx context.Context, principal application.Principal) (application.AppSettings, error)
	SaveSettings(ctx context.Context, principal application.Principal, settings application.AppSettings) (application.AppSettings, error)
}

type SettingsHandler struct {
	service   settingsService
	responder responder
	logger    *slog.Logger
}

func NewSettingsHandler(service settingsService, logger *slog.Logger) *SettingsHandler {
	base := defaultLogger(logger)
	return &SettingsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SettingsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SettingsHandler", operation, attrs...)
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	settings, err := h.service.GetSettings(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Get").ErrorContext(r.Context(), "failed to load settings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSettingsDTO(settings))
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req settingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode settings request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update")

	saved, err := h.service.SaveSettings(r.Context(), principal, application.AppSettings{
		OrganizationName:         req.OrganizationName,
		GoogleCalendarID:         req.GoogleCalendarID,
		GoogleClientID:           req.GoogleClientID,
		EmailWebhookURL:          req.EmailWebhookURL,
		EnableEmailNotifications: req.EnableEmailNotifications,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to save settings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "settings saved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSettingsDTO(saved))
}

type settingsDTO struct {
	OrganizationName         string `json:"organizationName"`
	GoogleCalendarID         string `json:"googleCalendarId,omitempty"`
	GoogleClientID           string `json:"googleClientId,omitempty"`
	EmailWebhookURL          string `json:"emailWebhookUrl,omitempty"`
	EnableEmailNotifications bool   `json:"enableEmailNotifications"`
}

func toSettingsDTO(settings application.AppSettings) settingsDTO {
	return settingsDTO{
		OrganizationName:         settings.OrganizationName,
		GoogleCalendarID:         settings.GoogleCalendarID,
		GoogleClientID:           settings.GoogleClientID,
		EmailWebhookURL:          settings.EmailWebhookURL,
		EnableEmailNotifications: settings.EnableEmailNotifications,
	}
}

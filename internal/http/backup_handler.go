package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/session-planner/internal/application"
	"github.com/example/session-planner/internal/persistence"
)

// importBodyLimit caps import payloads at 16 MiB.
const importBodyLimit = 16 << 20

type backupService interface {
	Export(ctx context.Context, principal application.Principal) ([]byte, error)
	Import(ctx context.Context, principal application.Principal, data []byte) error
}

type BackupHandler struct {
	service   backupService
	responder responder
	logger    *slog.Logger
}

func NewBackupHandler(service backupService, logger *slog.Logger) *BackupHandler {
	base := defaultLogger(logger)
	return &BackupHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BackupHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BackupHandler", operation, attrs...)
}

// Export streams the whole store as a downloadable JSON document.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Export")

	data, err := h.service.Export(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to export data", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="planner-backup.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}

// Import applies an uploaded export document to the store.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Import")

	data, err := io.ReadAll(io.LimitReader(r.Body, importBodyLimit))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to read import body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.service.Import(r.Context(), principal, data); err != nil {
		logger.ErrorContext(r.Context(), "failed to import data", "error", err, "error_kind", application.ErrorKind(err))
		if isImportError(err) {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "import applied")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func isImportError(err error) bool {
	return errors.Is(err, persistence.ErrImport)
}

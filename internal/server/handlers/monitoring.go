package handlers

import (
	"log/slog"
	"net/http"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/server/responses"
	"git.home.luguber.info/inful/scholarsite/internal/version"
)

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(logger *slog.Logger) *MonitoringHandlers {
	return &MonitoringHandlers{errorAdapter: ferrors.NewHTTPErrorAdapter(logger)}
}

// HandleHealthCheck reports liveness.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{Status: "ok", Version: version.Resolved()}
	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		internalErr := ferrors.WrapError(err, ferrors.CategoryInternal, "failed to write health response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

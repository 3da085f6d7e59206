// Package handler exposes the presentation intake endpoint over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vp-gateway/internal/presentation/models"
	"vp-gateway/pkg/platform/httputil"
	"vp-gateway/pkg/requestcontext"
)

// Service dispatches a submission to the right handler generation.
type Service interface {
	Create(ctx context.Context, req models.CreateRequest) (*models.CreateResult, error)
}

// Handler wires the presentation endpoint to the version router.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a presentation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts presentation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/presentation", h.HandleCreate)
}

// HandleCreate handles POST /presentation requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreatePresentationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	// Header marker wins over the body field.
	version := requestcontext.ProtocolVersion(ctx)
	if version.IsNil() {
		version = req.ParsedVersion()
	}

	result, err := h.service.Create(ctx, models.CreateRequest{
		EncryptedPresentation: models.EncryptedPresentation(req.EncryptedPresentation),
		RequestID:             req.ParsedRequestID(),
		RequestUUID:           req.ParsedRequestUUID(),
		Version:               version,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "presentation intake failed",
			"request_id", requestID,
			"presentation_request_id", req.PresentationRequestID,
			"presentation_request_uuid", req.PresentationRequestUUID,
			"version", version.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "presentation accepted",
		"request_id", requestID,
		"presentation_request_id", result.PresentationRequestID,
		"type", result.Type,
		"version", version.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

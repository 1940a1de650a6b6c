package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paperledger/internal/governance/models"
	"paperledger/internal/governance/service"
	"paperledger/pkg/domain"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// Service defines the platform configuration operations.
type Service interface {
	InitializePlatform(ctx context.Context, admin domain.Identity, params service.FeeParams) (*models.Config, error)
	AddAdmin(ctx context.Context, signer, newAdmin domain.Identity) (*models.Config, error)
	UpdateFees(ctx context.Context, signer domain.Identity, params service.FeeParams) (*models.Config, error)
	Config(ctx context.Context) (*models.Config, error)
	PlatformBalance(ctx context.Context) (domain.Amount, error)
}

// Handler exposes platform configuration over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the platform routes. Mutations go through auth.
func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/platform/config", h.handleGetConfig)
	r.With(auth).Post("/platform/initialize", h.handleInitialize)
	r.With(auth).Post("/platform/admins", h.handleAddAdmin)
	r.With(auth).Patch("/platform/config", h.handleUpdateFees)
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[FeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cfg, err := h.service.InitializePlatform(ctx, signer, req.Params())
	if err != nil {
		h.fail(ctx, w, "initialize platform failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromConfig(cfg, nil))
}

func (h *Handler) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cfg, err := h.service.AddAdmin(ctx, signer, req.ParsedAdmin())
	if err != nil {
		h.fail(ctx, w, "add admin failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromConfig(cfg, nil))
}

func (h *Handler) handleUpdateFees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[FeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cfg, err := h.service.UpdateFees(ctx, signer, req.Params())
	if err != nil {
		h.fail(ctx, w, "update fees failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromConfig(cfg, nil))
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := h.service.Config(ctx)
	if err != nil {
		h.fail(ctx, w, "read config failed", err)
		return
	}
	balance, err := h.service.PlatformBalance(ctx)
	if err != nil {
		h.fail(ctx, w, "read platform balance failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromConfig(cfg, &balance))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paperledger/internal/identity/models"
	"paperledger/internal/identity/service"
	"paperledger/pkg/domain"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// Service defines the participant registry operations.
type Service interface {
	Register(ctx context.Context, signer domain.Identity, name, title string) (*models.Profile, error)
	EditProfile(ctx context.Context, signer, owner domain.Identity, patch service.ProfilePatch) (*models.Profile, error)
	Profile(ctx context.Context, id domain.Identity) (*models.Profile, error)
	Balances(ctx context.Context, id domain.Identity) (*service.Balances, error)
}

// Handler exposes participant profiles over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the user routes. Mutations go through auth.
func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/users/{identity}", h.handleGetProfile)
	r.Get("/users/{identity}/vault", h.handleGetVault)
	r.With(auth).Post("/users", h.handleRegister)
	r.With(auth).Patch("/users/{identity}", h.handleEditProfile)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.Register(ctx, signer, req.Name, req.Title)
	if err != nil {
		h.fail(ctx, w, "register failed", err)
		return
	}
	h.logger.InfoContext(ctx, "user registered",
		"request_id", requestID,
		"identity", signer.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromProfile(profile))
}

func (h *Handler) handleEditProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	owner, ok := httputil.PathIdentity(w, r, "identity")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[EditProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.EditProfile(ctx, signer, owner, req.Patch())
	if err != nil {
		h.fail(ctx, w, "edit profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.PathIdentity(w, r, "identity")
	if !ok {
		return
	}
	profile, err := h.service.Profile(ctx, id)
	if err != nil {
		h.fail(ctx, w, "read profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

func (h *Handler) handleGetVault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := httputil.PathIdentity(w, r, "identity")
	if !ok {
		return
	}
	balances, err := h.service.Balances(ctx, id)
	if err != nil {
		h.fail(ctx, w, "read balances failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBalances(id, balances))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

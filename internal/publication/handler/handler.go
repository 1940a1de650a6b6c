package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paperledger/internal/publication/models"
	"paperledger/internal/publication/service"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// Service defines the publication registry operations.
type Service interface {
	Publish(ctx context.Context, signer domain.Identity, req service.PublishRequest) (*models.Publication, error)
	EditPublication(ctx context.Context, signer domain.Identity, id uint64, patch service.Patch) (*models.Publication, error)
	Publication(ctx context.Context, ref models.Ref) (*models.Publication, error)
}

// Handler exposes publications over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the publication routes. Mutations go through auth.
func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/publications/{owner}/{id}", h.handleGet)
	r.With(auth).Post("/publications", h.handlePublish)
	r.With(auth).Patch("/publications/{owner}/{id}", h.handleEdit)
}

// PathRef reads the {owner}/{id} path parameters or writes a 400.
func PathRef(w http.ResponseWriter, r *http.Request) (models.Ref, bool) {
	owner, ok := httputil.PathIdentity(w, r, "owner")
	if !ok {
		return models.Ref{}, false
	}
	id, ok := httputil.PathUint64(w, r, "id")
	if !ok {
		return models.Ref{}, false
	}
	return models.Ref{Owner: owner, ID: id}, true
}

// OwnedRef is PathRef for owner-only routes: the path owner must be the
// signer.
func OwnedRef(w http.ResponseWriter, r *http.Request, signer domain.Identity) (models.Ref, bool) {
	ref, ok := PathRef(w, r)
	if !ok {
		return models.Ref{}, false
	}
	if ref.Owner != signer {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only the owner may modify this publication"))
		return models.Ref{}, false
	}
	return ref, true
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PublishRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	pub, err := h.service.Publish(ctx, signer, req.ToService())
	if err != nil {
		h.fail(ctx, w, "publish failed", err)
		return
	}
	h.logger.InfoContext(ctx, "publication created",
		"request_id", requestID,
		"publication", pub.Ref().String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromPublication(pub))
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	ref, ok := OwnedRef(w, r, signer)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[EditRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	pub, err := h.service.EditPublication(ctx, signer, ref.ID, req.Patch())
	if err != nil {
		h.fail(ctx, w, "edit publication failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPublication(pub))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, ok := PathRef(w, r)
	if !ok {
		return
	}
	pub, err := h.service.Publication(ctx, ref)
	if err != nil {
		h.fail(ctx, w, "read publication failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPublication(pub))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	pubhandler "paperledger/internal/publication/handler"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/internal/review/models"
	"paperledger/pkg/domain"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// Service defines the review workflow operations.
type Service interface {
	SubmitReview(ctx context.Context, reviewer domain.Identity, ref pubmodels.Ref, verdict, reviewURI string) (*models.Review, error)
	EditReview(ctx context.Context, reviewer domain.Identity, ref pubmodels.Ref, verdict string) (*models.Review, error)
	Review(ctx context.Context, reviewer domain.Identity, ref pubmodels.Ref) (*models.Review, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/publications/{owner}/{id}/reviews/{reviewer}", h.handleGet)
	r.With(auth).Post("/publications/{owner}/{id}/reviews", h.handleSubmit)
	r.With(auth).Patch("/publications/{owner}/{id}/reviews", h.handleEdit)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	ref, ok := pubhandler.PathRef(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	review, err := h.service.SubmitReview(ctx, reviewer, ref, req.Verdict, req.ReviewURI)
	if err != nil {
		h.fail(ctx, w, "submit review failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromReview(review))
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	ref, ok := pubhandler.PathRef(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[EditRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	review, err := h.service.EditReview(ctx, reviewer, ref, req.Verdict)
	if err != nil {
		h.fail(ctx, w, "edit review failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReview(review))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, ok := pubhandler.PathRef(w, r)
	if !ok {
		return
	}
	reviewer, ok := httputil.PathIdentity(w, r, "reviewer")
	if !ok {
		return
	}
	review, err := h.service.Review(ctx, reviewer, ref)
	if err != nil {
		h.fail(ctx, w, "read review failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReview(review))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

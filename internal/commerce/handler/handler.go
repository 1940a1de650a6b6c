package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paperledger/internal/commerce/models"
	pubhandler "paperledger/internal/publication/handler"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/pkg/domain"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// Service defines the purchase operations.
type Service interface {
	Purchase(ctx context.Context, buyer domain.Identity, ref pubmodels.Ref) (*models.Receipt, error)
	Receipt(ctx context.Context, buyer domain.Identity, ref pubmodels.Ref) (*models.Receipt, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/publications/{owner}/{id}/receipts/{buyer}", h.handleGetReceipt)
	r.With(auth).Post("/publications/{owner}/{id}/purchase", h.handlePurchase)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	buyer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	ref, ok := pubhandler.PathRef(w, r)
	if !ok {
		return
	}

	receipt, err := h.service.Purchase(ctx, buyer, ref)
	if err != nil {
		h.logger.WarnContext(ctx, "purchase failed",
			"request_id", requestID,
			"publication", ref.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "purchase settled",
		"request_id", requestID,
		"publication", ref.String(),
		"price", uint64(receipt.Price),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromReceipt(receipt))
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, ok := pubhandler.PathRef(w, r)
	if !ok {
		return
	}
	buyer, ok := httputil.PathIdentity(w, r, "buyer")
	if !ok {
		return
	}
	receipt, err := h.service.Receipt(ctx, buyer, ref)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReceipt(receipt))
}

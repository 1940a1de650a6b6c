package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// Service defines the withdrawal operations.
type Service interface {
	Withdraw(ctx context.Context, owner domain.Identity, vault domain.Address) (domain.Amount, error)
	AdminWithdraw(ctx context.Context, admin domain.Identity) (domain.Amount, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.With(auth).Post("/treasury/withdraw", h.handleWithdraw)
	r.With(auth).Post("/treasury/admin-withdraw", h.handleAdminWithdraw)
}

// WithdrawRequest is the body of POST /treasury/withdraw.
type WithdrawRequest struct {
	Vault string `json:"vault"`

	vault domain.Address
}

func (r *WithdrawRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := domain.ParseAddress(strings.TrimSpace(r.Vault))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "vault must be a base58 address")
	}
	r.vault = addr
	return nil
}

type WithdrawResponse struct {
	Amount domain.Amount  `json:"amount"`
	Wallet domain.Address `json:"wallet"`
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	amount, err := h.service.Withdraw(ctx, signer, req.vault)
	if err != nil {
		h.fail(ctx, w, "withdraw failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WithdrawResponse{Amount: amount, Wallet: signer.Wallet()})
}

func (h *Handler) handleAdminWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}

	amount, err := h.service.AdminWithdraw(ctx, signer)
	if err != nil {
		h.fail(ctx, w, "admin withdraw failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WithdrawResponse{Amount: amount, Wallet: signer.Wallet()})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"paperledger/internal/authorship/models"
	pubhandler "paperledger/internal/publication/handler"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// Service defines the co-authorship operations.
type Service interface {
	AddAuthor(ctx context.Context, owner, candidate domain.Identity, id uint64) (*models.Record, error)
	ConfirmAuthorship(ctx context.Context, signer domain.Identity, ref pubmodels.Ref) (*models.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.With(auth).Post("/publications/{owner}/{id}/authors", h.handleAddAuthor)
	r.With(auth).Post("/publications/{owner}/{id}/authors/confirm", h.handleConfirm)
}

func (h *Handler) handleAddAuthor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	ref, ok := pubhandler.OwnedRef(w, r, signer)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddAuthorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.AddAuthor(ctx, signer, req.candidate, ref.ID)
	if err != nil {
		h.fail(ctx, w, "add author failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	ref, ok := pubhandler.PathRef(w, r)
	if !ok {
		return
	}

	rec, err := h.service.ConfirmAuthorship(ctx, signer, ref)
	if err != nil {
		h.fail(ctx, w, "confirm authorship failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

// AddAuthorRequest is the body of POST /publications/{owner}/{id}/authors.
type AddAuthorRequest struct {
	Candidate string `json:"candidate"`

	candidate domain.Identity
}

func (r *AddAuthorRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	id, err := domain.ParseIdentity(strings.TrimSpace(r.Candidate))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "candidate must be a base58 identity")
	}
	r.candidate = id
	return nil
}

type RecordResponse struct {
	Address     domain.Address  `json:"address"`
	Candidate   domain.Identity `json:"candidate"`
	Publication pubmodels.Ref   `json:"publication"`
	Verified    bool            `json:"verified"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
}

func FromRecord(r *models.Record) *RecordResponse {
	return &RecordResponse{
		Address:     r.Address(),
		Candidate:   r.Candidate,
		Publication: r.Publication,
		Verified:    r.Verified,
		ConfirmedAt: r.ConfirmedAt,
	}
}

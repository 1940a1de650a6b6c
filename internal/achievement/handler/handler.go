package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"paperledger/internal/achievement/models"
	"paperledger/internal/achievement/service"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// Service defines the badge operations.
type Service interface {
	CreateBadgeCategory(ctx context.Context, signer domain.Identity, name, uri string) (*models.Collection, error)
	MintAchievementBadge(ctx context.Context, signer domain.Identity, req service.MintRequest) (*models.Badge, error)
	Collection(ctx context.Context, name string) (*models.Collection, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/badges/collections/{name}", h.handleGetCollection)
	r.With(auth).Post("/badges/collections", h.handleCreateCollection)
	r.With(auth).Post("/badges", h.handleMint)
}

func (h *Handler) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CollectionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.CreateBadgeCategory(ctx, signer, req.Name, req.URI)
	if err != nil {
		h.fail(ctx, w, "create badge category failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromCollection(c))
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := httputil.RequireSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	badge, err := h.service.MintAchievementBadge(ctx, signer, req.ToService())
	if err != nil {
		h.fail(ctx, w, "mint badge failed", err)
		return
	}
	h.logger.InfoContext(ctx, "badge minted",
		"request_id", requestID,
		"achievement", badge.Achievement,
		"record", badge.Record,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromBadge(badge))
}

func (h *Handler) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.service.Collection(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.fail(ctx, w, "read badge collection failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCollection(c))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

// CollectionRequest is the body of POST /badges/collections.
type CollectionRequest struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

func (r *CollectionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// MintRequest is the body of POST /badges.
type MintRequest struct {
	Collection  string `json:"collection"`
	Name        string `json:"name"`
	URI         string `json:"uri"`
	Achievement string `json:"achievement"`
	Claimed     uint32 `json:"claimed"`

	collection domain.Address
}

func (r *MintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := domain.ParseAddress(strings.TrimSpace(r.Collection))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "collection must be a base58 address")
	}
	r.collection = addr
	return nil
}

func (r *MintRequest) ToService() service.MintRequest {
	return service.MintRequest{
		Collection:  r.collection,
		Name:        r.Name,
		URI:         r.URI,
		Achievement: strings.TrimSpace(r.Achievement),
		Claimed:     r.Claimed,
	}
}

type CollectionResponse struct {
	Address    domain.Address  `json:"address"`
	Name       string          `json:"name"`
	URI        string          `json:"uri"`
	RegistryID string          `json:"registry_id"`
	CreatedBy  domain.Identity `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

func FromCollection(c *models.Collection) *CollectionResponse {
	return &CollectionResponse{
		Address:    models.CollectionAddress(c.Name),
		Name:       c.Name,
		URI:        c.URI,
		RegistryID: c.RegistryID,
		CreatedBy:  c.CreatedBy,
		CreatedAt:  c.CreatedAt,
	}
}

type BadgeResponse struct {
	Address     domain.Address  `json:"address"`
	Owner       domain.Identity `json:"owner"`
	Collection  domain.Address  `json:"collection"`
	RegistryID  string          `json:"registry_id"`
	Achievement string          `json:"achievement"`
	Record      uint32          `json:"record"`
	MintedAt    time.Time       `json:"minted_at"`
}

func FromBadge(b *models.Badge) *BadgeResponse {
	return &BadgeResponse{
		Address:     models.BadgeAddress(b.Owner, b.Collection, b.Achievement, b.Record),
		Owner:       b.Owner,
		Collection:  b.Collection,
		RegistryID:  b.RegistryID,
		Achievement: b.Achievement,
		Record:      b.Record,
		MintedAt:    b.MintedAt,
	}
}

package httptransport

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// Faucet credits spendable balances for local development. Mount it only
// when explicitly enabled.
type Faucet struct {
	ledger ledger.Ledger
	logger *slog.Logger
}

func NewFaucet(l ledger.Ledger, logger *slog.Logger) *Faucet {
	return &Faucet{ledger: l, logger: logger}
}

func (f *Faucet) Register(r chi.Router, _ func(http.Handler) http.Handler) {
	r.Post("/dev/airdrop", f.handleAirdrop)
}

// AirdropRequest is the body of POST /dev/airdrop.
type AirdropRequest struct {
	Identity string        `json:"identity"`
	Amount   domain.Amount `json:"amount"`

	identity domain.Identity
}

func (r *AirdropRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	id, err := domain.ParseIdentity(strings.TrimSpace(r.Identity))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "identity must be base58")
	}
	if r.Amount == 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	r.identity = id
	return nil
}

func (f *Faucet) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[AirdropRequest](w, r, f.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := f.ledger.Airdrop(ctx, req.identity.Wallet(), req.Amount); err != nil {
		f.logger.ErrorContext(ctx, "airdrop failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "airdrop failed"))
		return
	}
	f.logger.InfoContext(ctx, "airdrop credited",
		"request_id", requestID,
		"identity", req.identity.String(),
		"amount", uint64(req.Amount),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"wallet": req.identity.Wallet(),
		"amount": req.Amount,
	})
}

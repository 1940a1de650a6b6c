package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	govmodels "paperledger/internal/governance/models"
	govservice "paperledger/internal/governance/service"
	idmodels "paperledger/internal/identity/models"
	idservice "paperledger/internal/identity/service"
	"paperledger/internal/ledger/memory"
	"paperledger/internal/treasury/service"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/testutil"
)

type treasuryFixture struct {
	handler *Handler
	admin   domain.Identity
	seller  domain.Identity
}

func newTreasuryFixture(t *testing.T) *treasuryFixture {
	t.Helper()
	ctx := testutil.Context()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := memory.New()
	f := &treasuryFixture{
		handler: New(service.New(l, service.WithLogger(logger)), logger),
		admin:   testutil.NewIdentity(t),
		seller:  testutil.NewIdentity(t),
	}

	_, err := govservice.New(l).InitializePlatform(ctx, f.admin, govservice.FeeParams{})
	require.NoError(t, err)
	_, err = idservice.New(l).Register(ctx, f.seller, "Bob", "Author")
	require.NoError(t, err)
	require.NoError(t, l.Airdrop(ctx, idmodels.VaultAddress(f.seller), 300))
	require.NoError(t, l.Airdrop(ctx, govmodels.VaultAddress(), 50))
	return f
}

func (f *treasuryFixture) serve(t *testing.T, as domain.Identity, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	f.handler.Register(r, testutil.SignedBy(as))
	return testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, path, body))
}

func TestWithdrawViaHandler(t *testing.T) {
	f := newTreasuryFixture(t)
	vault := map[string]string{"vault": idmodels.VaultAddress(f.seller).String()}

	t.Run("malformed vault", func(t *testing.T) {
		rr := f.serve(t, f.seller, "/treasury/withdraw", map[string]string{"vault": "vault"})
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("someone else's vault", func(t *testing.T) {
		rr := f.serve(t, testutil.NewIdentity(t), "/treasury/withdraw", vault)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("owner drains the vault", func(t *testing.T) {
		rr := f.serve(t, f.seller, "/treasury/withdraw", vault)
		testutil.AssertStatusOK(t, rr)
		out := testutil.UnmarshalResponse[WithdrawResponse](t, rr)
		assert.Equal(t, domain.Amount(300), out.Amount)
		assert.Equal(t, f.seller.Wallet(), out.Wallet)
	})

	t.Run("empty vault", func(t *testing.T) {
		rr := f.serve(t, f.seller, "/treasury/withdraw", vault)
		testutil.AssertStatusAndError(t, rr, http.StatusPaymentRequired, "insufficient_funds")
	})
}

func TestAdminWithdrawViaHandler(t *testing.T) {
	f := newTreasuryFixture(t)

	rr := f.serve(t, f.seller, "/treasury/admin-withdraw", nil)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	rr = f.serve(t, domain.Identity{}, "/treasury/admin-withdraw", nil)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	rr = f.serve(t, f.admin, "/treasury/admin-withdraw", nil)
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, domain.Amount(50), testutil.UnmarshalResponse[WithdrawResponse](t, rr).Amount)
}

func TestWithdrawRequestValidate(t *testing.T) {
	var req *WithdrawRequest
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeBadRequest))

	addr := idmodels.VaultAddress(testutil.NewIdentity(t))
	req = &WithdrawRequest{Vault: "\t" + addr.String()}
	require.NoError(t, req.Validate())
	assert.Equal(t, addr, req.vault)
}

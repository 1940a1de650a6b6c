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

	"paperledger/internal/identity/models"
	"paperledger/internal/identity/service"
	"paperledger/internal/ledger/memory"
	"paperledger/pkg/domain"
	"paperledger/pkg/testutil"
)

type userFixture struct {
	ledger  *memory.Ledger
	handler *Handler
}

func newUserFixture() *userFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := memory.New()
	return &userFixture{ledger: l, handler: New(service.New(l, service.WithLogger(logger)), logger)}
}

func (f *userFixture) serve(t *testing.T, as domain.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	f.handler.Register(r, testutil.SignedBy(as))
	return testutil.DoRequest(r, testutil.NewJSONRequest(t, method, path, body))
}

func TestRegisterViaHandler(t *testing.T) {
	f := newUserFixture()
	bob := testutil.NewIdentity(t)

	rr := f.serve(t, bob, http.MethodPost, "/users", map[string]string{"name": "Bob 🚀", "title": "Author"})
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")

	rr = f.serve(t, bob, http.MethodPost, "/users", map[string]string{"name": "  Bob  ", "title": "Author"})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	profile := testutil.UnmarshalResponse[ProfileResponse](t, rr)
	assert.Equal(t, bob, profile.Identity)
	assert.Equal(t, "Bob", profile.Name)
	assert.Equal(t, models.VaultAddress(bob), profile.Vault)

	rr = f.serve(t, bob, http.MethodPost, "/users", map[string]string{"name": "Bob", "title": "Author"})
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")

	rr = f.serve(t, domain.Identity{}, http.MethodGet, "/users/"+bob.String(), nil)
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, "Author", testutil.UnmarshalResponse[ProfileResponse](t, rr).Title)
}

func TestProfileLookupErrors(t *testing.T) {
	f := newUserFixture()

	rr := f.serve(t, domain.Identity{}, http.MethodGet, "/users/not-base58-0OIl", nil)
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")

	rr = f.serve(t, domain.Identity{}, http.MethodGet, "/users/"+testutil.NewIdentity(t).String(), nil)
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = f.serve(t, domain.Identity{}, http.MethodGet, "/users/"+testutil.NewIdentity(t).String()+"/vault", nil)
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestEditProfileViaHandler(t *testing.T) {
	f := newUserFixture()
	bob := testutil.NewIdentity(t)
	rr := f.serve(t, bob, http.MethodPost, "/users", map[string]string{"name": "Bob", "title": "Author"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	t.Run("another signer is forbidden", func(t *testing.T) {
		rr := f.serve(t, testutil.NewIdentity(t), http.MethodPatch, "/users/"+bob.String(), map[string]string{"name": "Mallory"})
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("unsigned is unauthorized", func(t *testing.T) {
		rr := f.serve(t, domain.Identity{}, http.MethodPatch, "/users/"+bob.String(), map[string]string{"name": "Bob"})
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("omitted fields are kept", func(t *testing.T) {
		rr := f.serve(t, bob, http.MethodPatch, "/users/"+bob.String(), map[string]any{"title": "Professor", "name": nil})
		testutil.AssertStatusOK(t, rr)
		profile := testutil.UnmarshalResponse[ProfileResponse](t, rr)
		assert.Equal(t, "Bob", profile.Name)
		assert.Equal(t, "Professor", profile.Title)
	})
}

func TestVaultBalancesViaHandler(t *testing.T) {
	f := newUserFixture()
	bob := testutil.NewIdentity(t)
	rr := f.serve(t, bob, http.MethodPost, "/users", map[string]string{"name": "Bob", "title": "Author"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NoError(t, f.ledger.Airdrop(testutil.Context(), bob.Wallet(), 1_000))

	rr = f.serve(t, domain.Identity{}, http.MethodGet, "/users/"+bob.String()+"/vault", nil)
	testutil.AssertStatusOK(t, rr)
	balances := testutil.UnmarshalResponse[BalancesResponse](t, rr)
	assert.Equal(t, domain.Amount(0), balances.VaultBalance)
	assert.Equal(t, domain.Amount(1_000), balances.WalletBalance)
	assert.Equal(t, bob.Wallet(), balances.Wallet)
}

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

	"paperledger/internal/governance/models"
	"paperledger/internal/governance/service"
	"paperledger/internal/ledger/memory"
	"paperledger/pkg/domain"
	"paperledger/pkg/testutil"
)

func newPlatformHandler() *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(service.New(memory.New(), service.WithLogger(logger)), logger)
}

func serve(t *testing.T, h *Handler, as domain.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r, testutil.SignedBy(as))
	return testutil.DoRequest(r, testutil.NewJSONRequest(t, method, path, body))
}

func TestInitializeViaHandler(t *testing.T) {
	h := newPlatformHandler()
	alice := testutil.NewIdentity(t)

	rr := serve(t, h, domain.Identity{}, http.MethodPost, "/platform/initialize", map[string]any{})
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	rr = serve(t, h, alice, http.MethodPost, "/platform/initialize", map[string]any{"fee_bps": 300})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	cfg := testutil.UnmarshalResponse[ConfigResponse](t, rr)
	assert.Equal(t, uint16(300), cfg.FeeBps)
	assert.Equal(t, models.DefaultMinPrice, cfg.MinPrice)
	assert.Equal(t, []domain.Identity{alice}, cfg.Admins)
	assert.Nil(t, cfg.VaultBalance)

	rr = serve(t, h, alice, http.MethodPost, "/platform/initialize", map[string]any{})
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")

	rr = serve(t, h, domain.Identity{}, http.MethodGet, "/platform/config", nil)
	testutil.AssertStatusOK(t, rr)
	cfg = testutil.UnmarshalResponse[ConfigResponse](t, rr)
	require.NotNil(t, cfg.VaultBalance)
	assert.Equal(t, domain.Amount(0), *cfg.VaultBalance)
	assert.Equal(t, models.VaultAddress(), cfg.Vault)
}

func TestConfigBeforeInitialize(t *testing.T) {
	h := newPlatformHandler()
	rr := serve(t, h, domain.Identity{}, http.MethodGet, "/platform/config", nil)
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestAddAdminViaHandler(t *testing.T) {
	h := newPlatformHandler()
	alice := testutil.NewIdentity(t)
	bob := testutil.NewIdentity(t)
	rr := serve(t, h, alice, http.MethodPost, "/platform/initialize", map[string]any{})
	testutil.AssertStatus(t, rr, http.StatusCreated)

	t.Run("malformed identity", func(t *testing.T) {
		rr := serve(t, h, alice, http.MethodPost, "/platform/admins", map[string]string{"admin": "0OIl"})
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("non-admin signer", func(t *testing.T) {
		rr := serve(t, h, bob, http.MethodPost, "/platform/admins", map[string]string{"admin": bob.String()})
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("admin adds bob", func(t *testing.T) {
		rr := serve(t, h, alice, http.MethodPost, "/platform/admins", map[string]string{"admin": bob.String()})
		testutil.AssertStatusOK(t, rr)
		cfg := testutil.UnmarshalResponse[ConfigResponse](t, rr)
		assert.Equal(t, []domain.Identity{alice, bob}, cfg.Admins)
	})

	t.Run("duplicate admin", func(t *testing.T) {
		rr := serve(t, h, alice, http.MethodPost, "/platform/admins", map[string]string{"admin": bob.String()})
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})
}

func TestUpdateFeesViaHandler(t *testing.T) {
	h := newPlatformHandler()
	alice := testutil.NewIdentity(t)
	rr := serve(t, h, alice, http.MethodPost, "/platform/initialize", map[string]any{})
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = serve(t, h, alice, http.MethodPatch, "/platform/config", map[string]any{"fee_bps": 20_000})
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")

	rr = serve(t, h, alice, http.MethodPatch, "/platform/config", map[string]any{"fee": 100})
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")

	rr = serve(t, h, alice, http.MethodPatch, "/platform/config", map[string]any{"min_price": 1_000_000_000})
	testutil.AssertStatusOK(t, rr)
	cfg := testutil.UnmarshalResponse[ConfigResponse](t, rr)
	assert.Equal(t, domain.Amount(1_000_000_000), cfg.MinPrice)
	assert.Equal(t, models.DefaultFeeBps, cfg.FeeBps)
}

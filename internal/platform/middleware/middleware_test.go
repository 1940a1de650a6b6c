package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"paperledger/internal/platform/signer"
	"paperledger/pkg/requestcontext"
	"paperledger/pkg/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const profile = `{"name":"Alice","title":"Researcher"}`

func echoSigner(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(requestcontext.Signer(r.Context()).String()))
}

func echoBody(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(w, r.Body)
}

func TestRequireSigner(t *testing.T) {
	now := time.Now()
	kp := testutil.NewKeypair(t)
	h := RequireSigner(signer.NewVerifier(), discard)(http.HandlerFunc(echoSigner))

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token sets the signer", func(t *testing.T) {
		token, err := signer.Sign(kp.Private, http.MethodPost, "/users", []byte(profile), now, time.Minute)
		assert.NoError(t, err)
		r := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(profile))
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, kp.Identity.String(), w.Body.String())
	})

	t.Run("token replayed on another route", func(t *testing.T) {
		token, err := signer.Sign(kp.Private, http.MethodPost, "/users", []byte(profile), now, time.Minute)
		assert.NoError(t, err)
		r := httptest.NewRequest(http.MethodPost, "/treasury/withdraw", strings.NewReader(profile))
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("body swapped after signing", func(t *testing.T) {
		token, err := signer.Sign(kp.Private, http.MethodPost, "/users", []byte(profile), now, time.Minute)
		assert.NoError(t, err)
		r := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Mallory"}`))
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireSignerRestoresBody(t *testing.T) {
	kp := testutil.NewKeypair(t)
	h := RequireSigner(signer.NewVerifier(), discard)(http.HandlerFunc(echoBody))

	token, err := signer.Sign(kp.Private, http.MethodPost, "/users", []byte(profile), time.Now(), time.Minute)
	assert.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(profile))
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, profile, w.Body.String())
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc", seen)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

var _ SignatureVerifier = (*signer.Verifier)(nil)

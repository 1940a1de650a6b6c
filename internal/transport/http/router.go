// Package httptransport assembles the marketplace HTTP surface: the shared
// middleware chain, health and metrics endpoints, and each module's routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"paperledger/internal/platform/middleware"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router, auth func(http.Handler) http.Handler)
}

// Options configures NewRouter.
type Options struct {
	Logger   *slog.Logger
	Verifier middleware.SignatureVerifier
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	Timeout time.Duration
	// SignerLimit runs after authentication on every signed route.
	SignerLimit func(http.Handler) http.Handler
	// Now pins request time; nil uses the wall clock.
	Now func() time.Time
}

// NewRouter wires the middleware chain and mounts every registrar.
func NewRouter(opts Options, registrars ...Registrar) http.Handler {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimw.Timeout(timeout))
	r.Use(requesttime.MiddlewareWithClock(now))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	auth := middleware.RequireSigner(opts.Verifier, opts.Logger)
	if opts.SignerLimit != nil {
		authenticate := auth
		auth = func(next http.Handler) http.Handler {
			return authenticate(opts.SignerLimit(next))
		}
	}
	for _, reg := range registrars {
		reg.Register(r, auth)
	}
	return r
}

package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// PerSigner limits each signing identity to limit requests per window. It
// must run after the signer is authenticated. Store errors fail open.
func PerSigner(store Store, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			signer := requestcontext.Signer(ctx)
			if signer.IsNil() || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			result, err := store.Allow(ctx, "signer:"+signer.String(), limit, window)
			if err != nil {
				logger.ErrorContext(ctx, "failed to check signer rate limit",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				logger.WarnContext(ctx, "signer rate limited",
					"signer", signer.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests from this signer"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

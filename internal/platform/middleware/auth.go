package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/httputil"
	"paperledger/pkg/requestcontext"
)

// SignatureVerifier checks a bearer token against the request it arrived on.
type SignatureVerifier interface {
	Verify(token, method, path string, body []byte) (domain.Identity, error)
}

// RequireSigner rejects requests without a valid signer token and stores the
// signing identity in the context.
func RequireSigner(verifier SignatureVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			var body []byte
			if r.Body != nil {
				raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes))
				if err != nil {
					httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body too large or unreadable"))
					return
				}
				body = raw
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			id, err := verifier.Verify(token, r.Method, r.URL.Path, body)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSigner(ctx, id)))
		})
	}
}

package httputil

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/requestcontext"
)

// RequireSigner returns the authenticated signer or writes a 401.
func RequireSigner(w http.ResponseWriter, ctx context.Context) (domain.Identity, bool) {
	id := requestcontext.Signer(ctx)
	if id.IsNil() {
		WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.Identity{}, false
	}
	return id, true
}

// PathIdentity parses the named path parameter as an identity or writes a 400.
func PathIdentity(w http.ResponseWriter, r *http.Request, name string) (domain.Identity, bool) {
	id, err := domain.ParseIdentity(chi.URLParam(r, name))
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid "+name))
		return domain.Identity{}, false
	}
	return id, true
}

// PathUint64 parses the named path parameter as a decimal uint64 or writes a 400.
func PathUint64(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid "+name))
		return 0, false
	}
	return n, true
}

// Package signer authenticates requests by a short-lived EdDSA token signed
// with the caller's own Ed25519 key. The token subject is the caller's
// identity, so verification needs no key registry. Each token covers one
// request: method, path and a blake3 digest of the body are claims, and a
// token ID is accepted once.
package signer

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
)

// MaxLifetime bounds exp - iat.
const MaxLifetime = 5 * time.Minute

// Claims binds a token to one HTTP request.
type Claims struct {
	Method   string `json:"htm"`
	URI      string `json:"htu"`
	BodyHash string `json:"bh"`
	jwt.RegisteredClaims
}

// BodyHash is the bh claim for body. An empty body hashes like any other.
func BodyHash(body []byte) string {
	sum := blake3.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Sign issues a token for one request valid from now for ttl.
func Sign(key ed25519.PrivateKey, method, path string, body []byte, now time.Time, ttl time.Duration) (string, error) {
	id, err := domain.IdentityFromPublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, Claims{
		Method:   method,
		URI:      path,
		BodyHash: BodyHash(body),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(key)
}

// Verifier checks request tokens.
type Verifier struct {
	leeway time.Duration
	now    func() time.Time

	mu sync.Mutex
	// seen maps accepted token IDs to the time they stop verifying anyway.
	seen map[string]time.Time
}

type Option func(*Verifier)

// WithLeeway tolerates clock skew between client and server.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) { v.leeway = d }
}

// WithClock overrides the verification clock.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{leeway: 5 * time.Second, now: time.Now, seen: make(map[string]time.Time)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify returns the signing identity when token is valid for the request
// and has not been accepted before.
func (v *Verifier) Verify(token, method, path string, body []byte) (domain.Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		id, err := domain.ParseIdentity(claims.Subject)
		if err != nil {
			return nil, err
		}
		return id.PublicKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid || claims.IssuedAt == nil || claims.ID == "" {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if claims.ExpiresAt.Sub(claims.IssuedAt.Time) > MaxLifetime {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token lifetime exceeds 5 minutes")
	}
	if claims.Method != method || claims.URI != path || claims.BodyHash != BodyHash(body) {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token is bound to a different request")
	}
	id, err := domain.ParseIdentity(claims.Subject)
	if err != nil {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !v.remember(claims.ID, claims.ExpiresAt.Add(v.leeway)) {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token has already been used")
	}
	return id, nil
}

// remember records jti until expires and reports whether it was new. Entries
// past their expiry are dropped on the way, since the parser rejects those
// tokens by exp alone.
func (v *Verifier) remember(jti string, expires time.Time) bool {
	now := v.now()
	v.mu.Lock()
	defer v.mu.Unlock()
	for k, until := range v.seen {
		if now.After(until) {
			delete(v.seen, k)
		}
	}
	if _, dup := v.seen[jti]; dup {
		return false
	}
	v.seen[jti] = expires
	return true
}

// Outstanding reports how many accepted token IDs are still remembered.
func (v *Verifier) Outstanding() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}

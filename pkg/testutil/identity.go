package testutil

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paperledger/pkg/domain"
	"paperledger/pkg/requestcontext"
)

// Keypair is a participant with a signing key.
type Keypair struct {
	Identity domain.Identity
	Private  ed25519.PrivateKey
}

// NewKeypair generates a fresh Ed25519 participant.
func NewKeypair(t *testing.T) Keypair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	id, err := domain.IdentityFromPublicKey(pub)
	require.NoError(t, err)
	return Keypair{Identity: id, Private: priv}
}

// NewIdentity returns a fresh identity when the signing key is not needed.
func NewIdentity(t *testing.T) domain.Identity {
	t.Helper()
	return NewKeypair(t).Identity
}

// FixedTime is the clock every service test runs at.
var FixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Context returns a background context pinned to FixedTime.
func Context() context.Context {
	return requestcontext.WithTime(context.Background(), FixedTime)
}

package domain

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	dErrors "paperledger/pkg/domain-errors"
)

// KeySize is the byte length of identities and derived addresses.
const KeySize = 32

// Identity is a participant's Ed25519 public key. It is the only proof of
// authority an operation accepts.
//
// Invariant: an Identity parsed at a trust boundary is exactly 32 bytes and
// non-zero.
type Identity [KeySize]byte

// Address locates a record or balance on the ledger. Record addresses are
// derived from seed tuples; spendable wallet balances live at the owner's
// identity bytes.
type Address [KeySize]byte

// Amount is a quantity of the smallest currency unit.
type Amount uint64

// IdentityFromPublicKey converts an Ed25519 public key.
func IdentityFromPublicKey(pub ed25519.PublicKey) (Identity, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "public key must be 32 bytes")
	}
	var out Identity
	copy(out[:], pub)
	return out, nil
}

// ParseIdentity decodes a base58 identity.
func ParseIdentity(s string) (Identity, error) {
	raw, err := decodeKey(s, "identity")
	if err != nil {
		return Identity{}, err
	}
	return Identity(raw), nil
}

// ParseAddress decodes a base58 address.
func ParseAddress(s string) (Address, error) {
	raw, err := decodeKey(s, "address")
	if err != nil {
		return Address{}, err
	}
	return Address(raw), nil
}

func decodeKey(s, kind string) ([KeySize]byte, error) {
	var out [KeySize]byte
	if s == "" {
		return out, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return out, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" encoding")
	}
	if len(raw) != KeySize {
		return out, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s must decode to %d bytes", kind, KeySize))
	}
	copy(out[:], raw)
	if out == ([KeySize]byte{}) {
		return out, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be zero")
	}
	return out, nil
}

func (i Identity) String() string { return base58.Encode(i[:]) }

// IsNil reports whether the identity is the zero key.
func (i Identity) IsNil() bool { return i == Identity{} }

// PublicKey returns the identity as an Ed25519 verification key.
func (i Identity) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(append([]byte(nil), i[:]...))
}

// Wallet returns the address of the identity's spendable balance.
func (i Identity) Wallet() Address { return Address(i) }

func (i Identity) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (a Address) String() string { return base58.Encode(a[:]) }

// IsNil reports whether the address is all zeroes.
func (a Address) IsNil() bool { return a == Address{} }

func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

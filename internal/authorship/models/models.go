package models

import (
	"context"
	"errors"
	"time"

	"paperledger/internal/ledger"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/pkg/domain"
	"paperledger/pkg/platform/sentinel"
)

const KindAuthorship ledger.Kind = "authorship"

// Address derives the record location for candidate on publication.
func Address(candidate domain.Identity, publication domain.Address) domain.Address {
	return ledger.Derive(ledger.Tag("author"), ledger.IdentitySeed(candidate), ledger.AddressSeed(publication))
}

// Record links a co-author to a publication. The owner proposes it and the
// candidate confirms it.
type Record struct {
	Candidate   domain.Identity `json:"candidate"`
	Publication pubmodels.Ref   `json:"publication"`
	Verified    bool            `json:"verified"`
	CreatedAt   time.Time       `json:"created_at"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
}

func (Record) RecordKind() ledger.Kind { return KindAuthorship }

func (r *Record) Address() domain.Address {
	return Address(r.Candidate, r.Publication.Address())
}

// Confirm marks the record verified. It reports false when it already was.
func (r *Record) Confirm(now time.Time) bool {
	if r.Verified {
		return false
	}
	r.Verified = true
	r.ConfirmedAt = &now
	return true
}

// IsVerifiedAuthor reports whether id has confirmed co-authorship of ref.
func IsVerifiedAuthor(ctx context.Context, tx ledger.Tx, id domain.Identity, ref pubmodels.Ref) (bool, error) {
	var rec Record
	err := tx.Load(ctx, Address(id, ref.Address()), &rec)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, ledger.LoadError(err, "authorship record")
	}
	return rec.Verified, nil
}

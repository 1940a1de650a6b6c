package models

import (
	"time"

	"paperledger/internal/ledger"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/pkg/domain"
)

const KindReview ledger.Kind = "review"

// Address derives where reviewer's review of publication lives.
func Address(reviewer domain.Identity, publication domain.Address) domain.Address {
	return ledger.Derive(ledger.Tag("review"), ledger.IdentitySeed(reviewer), ledger.AddressSeed(publication))
}

// Review is one reviewer's current verdict on a publication.
type Review struct {
	Reviewer    domain.Identity   `json:"reviewer"`
	Publication pubmodels.Ref     `json:"publication"`
	Verdict     pubmodels.Verdict `json:"verdict"`
	ReviewURI   string            `json:"review_uri"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (Review) RecordKind() ledger.Kind { return KindReview }

func (r *Review) Address() domain.Address {
	return Address(r.Reviewer, r.Publication.Address())
}

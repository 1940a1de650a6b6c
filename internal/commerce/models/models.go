package models

import (
	"context"
	"time"

	"paperledger/internal/ledger"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/pkg/domain"
)

const KindReceipt ledger.Kind = "purchase_receipt"

// ReceiptAddress derives where buyer's receipt for publication lives.
func ReceiptAddress(buyer domain.Identity, publication domain.Address) domain.Address {
	return ledger.Derive(ledger.Tag("purchase"), ledger.IdentitySeed(buyer), ledger.AddressSeed(publication))
}

// Receipt proves that Buyer paid for Publication. It is never mutated.
type Receipt struct {
	Buyer       domain.Identity `json:"buyer"`
	Publication pubmodels.Ref   `json:"publication"`
	Price       domain.Amount   `json:"price"`
	Fee         domain.Amount   `json:"fee"`
	Proceeds    domain.Amount   `json:"proceeds"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Receipt) RecordKind() ledger.Kind { return KindReceipt }

func (r *Receipt) Address() domain.Address {
	return ReceiptAddress(r.Buyer, r.Publication.Address())
}

// HasReceipt reports whether buyer purchased ref.
func HasReceipt(ctx context.Context, tx ledger.Tx, buyer domain.Identity, ref pubmodels.Ref) (bool, error) {
	ok, err := tx.Exists(ctx, ReceiptAddress(buyer, ref.Address()))
	if err != nil {
		return false, ledger.LoadError(err, "purchase receipt")
	}
	return ok, nil
}

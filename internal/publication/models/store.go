package models

import (
	"context"

	"paperledger/internal/ledger"
)

// LoadPublication reads the publication named by ref.
func LoadPublication(ctx context.Context, tx ledger.Tx, ref Ref) (*Publication, error) {
	var p Publication
	if err := tx.Load(ctx, ref.Address(), &p); err != nil {
		return nil, ledger.LoadError(err, "publication")
	}
	return &p, nil
}

// SavePublication writes p back to its address.
func SavePublication(ctx context.Context, tx ledger.Tx, p *Publication) error {
	return ledger.SaveError(tx.Save(ctx, p.Ref().Address(), p), "publication")
}

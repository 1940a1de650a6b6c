package models

import (
	"context"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
)

// LoadProfile reads id's profile, failing with not-found when unregistered.
func LoadProfile(ctx context.Context, tx ledger.Tx, id domain.Identity) (*Profile, error) {
	var p Profile
	if err := tx.Load(ctx, ProfileAddress(id), &p); err != nil {
		return nil, ledger.LoadError(err, "user profile")
	}
	return &p, nil
}

// SaveProfile writes p back to its owner's address.
func SaveProfile(ctx context.Context, tx ledger.Tx, p *Profile) error {
	return ledger.SaveError(tx.Save(ctx, ProfileAddress(p.Owner), p), "user profile")
}

// UpdateCounters loads id's profile, applies fn, and saves it.
func UpdateCounters(ctx context.Context, tx ledger.Tx, id domain.Identity, fn func(*Counters)) error {
	p, err := LoadProfile(ctx, tx, id)
	if err != nil {
		return err
	}
	fn(&p.Counters)
	return SaveProfile(ctx, tx, p)
}

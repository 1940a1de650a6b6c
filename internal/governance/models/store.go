package models

import (
	"context"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
)

// LoadConfig reads the platform configuration. Before initialization this
// fails with a not-found error.
func LoadConfig(ctx context.Context, tx ledger.Tx) (*Config, error) {
	var cfg Config
	if err := tx.Load(ctx, ConfigAddress(), &cfg); err != nil {
		return nil, ledger.LoadError(err, "platform config")
	}
	return &cfg, nil
}

// RequireAdmin loads the configuration and checks that signer administers it.
func RequireAdmin(ctx context.Context, tx ledger.Tx, signer domain.Identity) (*Config, error) {
	cfg, err := LoadConfig(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !cfg.IsAdmin(signer) {
		return nil, dErrors.New(dErrors.CodeForbidden, "signer is not a platform admin")
	}
	return cfg, nil
}

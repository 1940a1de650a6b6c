package service

import (
	"context"
	"log/slog"

	"paperledger/internal/governance/models"
	"paperledger/internal/ledger"
	"paperledger/internal/platform/metrics"
	"paperledger/internal/platform/observe"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/option"
	"paperledger/pkg/platform/audit"
	"paperledger/pkg/requestcontext"
)

// Service owns the platform configuration singleton, its admin set, and the
// platform fee vault.
type Service struct {
	ledger ledger.Ledger
	obs    *observe.Observer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.obs.Logger = logger }
}

func WithAuditPublisher(publisher observe.AuditPublisher) Option {
	return func(s *Service) { s.obs.Audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.obs.Metrics = m }
}

func New(l ledger.Ledger, opts ...Option) *Service {
	s := &Service{ledger: l, obs: observe.New("governance")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FeeParams carries optional fee settings. Absent values fall back to the
// defaults on initialization and stay unchanged on update.
type FeeParams struct {
	FeeBps   option.Option[uint16]
	MinPrice option.Option[domain.Amount]
}

// InitializePlatform creates the configuration with admin as its only
// administrator, plus the platform vault.
func (s *Service) InitializePlatform(ctx context.Context, admin domain.Identity, params FeeParams) (cfg *models.Config, err error) {
	ctx, finish := s.obs.Start(ctx, "initialize_platform")
	defer func() { finish(err) }()

	now := requestcontext.Now(ctx)
	cfg, err = models.NewConfig(admin,
		params.FeeBps.OrElse(models.DefaultFeeBps),
		params.MinPrice.OrElse(models.DefaultMinPrice),
		now)
	if err != nil {
		return nil, asValidation(err)
	}

	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.Insert(ctx, models.ConfigAddress(), cfg); err != nil {
			return ledger.InsertError(err, "platform config")
		}
		vault := &models.Vault{Config: models.ConfigAddress(), CreatedAt: now}
		return ledger.InsertError(tx.Insert(ctx, models.VaultAddress(), vault), "platform vault")
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventPlatformInitialized, admin, models.ConfigAddress(),
		"fee_bps", cfg.FeeBps, "min_price", uint64(cfg.MinPrice))
	return cfg, nil
}

// AddAdmin lets an existing admin extend the admin set.
func (s *Service) AddAdmin(ctx context.Context, signer, newAdmin domain.Identity) (cfg *models.Config, err error) {
	ctx, finish := s.obs.Start(ctx, "add_admin")
	defer func() { finish(err) }()

	if newAdmin.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "new admin identity is required")
	}
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var err error
		cfg, err = models.RequireAdmin(ctx, tx, signer)
		if err != nil {
			return err
		}
		if err := cfg.AddAdmin(newAdmin, requestcontext.Now(ctx)); err != nil {
			return asValidation(err)
		}
		return ledger.SaveError(tx.Save(ctx, models.ConfigAddress(), cfg), "platform config")
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventAdminAdded, signer, models.ConfigAddress(), "admin", newAdmin.String())
	return cfg, nil
}

// UpdateFees changes the fee split and minimum price.
func (s *Service) UpdateFees(ctx context.Context, signer domain.Identity, params FeeParams) (cfg *models.Config, err error) {
	ctx, finish := s.obs.Start(ctx, "update_fees")
	defer func() { finish(err) }()

	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var err error
		cfg, err = models.RequireAdmin(ctx, tx, signer)
		if err != nil {
			return err
		}
		feeBps := params.FeeBps.OrElse(cfg.FeeBps)
		minPrice := params.MinPrice.OrElse(cfg.MinPrice)
		if err := cfg.UpdateFees(feeBps, minPrice, requestcontext.Now(ctx)); err != nil {
			return asValidation(err)
		}
		return ledger.SaveError(tx.Save(ctx, models.ConfigAddress(), cfg), "platform config")
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventFeesUpdated, signer, models.ConfigAddress(),
		"fee_bps", cfg.FeeBps, "min_price", uint64(cfg.MinPrice))
	return cfg, nil
}

// Config returns the current configuration.
func (s *Service) Config(ctx context.Context) (*models.Config, error) {
	var cfg *models.Config
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var err error
		cfg, err = models.LoadConfig(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// PlatformBalance returns the fee vault balance.
func (s *Service) PlatformBalance(ctx context.Context) (domain.Amount, error) {
	var bal domain.Amount
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var err error
		bal, err = tx.Balance(ctx, models.VaultAddress())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read platform vault")
		}
		return nil
	})
	return bal, err
}

// asValidation converts invariant violations to validation errors for API
// responses.
func asValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
	}
	return err
}

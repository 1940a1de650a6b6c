package service

import (
	"context"
	"log/slog"

	govmodels "paperledger/internal/governance/models"
	idmodels "paperledger/internal/identity/models"
	"paperledger/internal/ledger"
	"paperledger/internal/platform/metrics"
	"paperledger/internal/platform/observe"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/audit"
)

// Service drains escrow and platform vaults into spendable wallets.
type Service struct {
	ledger  ledger.Ledger
	obs     *observe.Observer
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.obs.Logger = logger }
}

func WithAuditPublisher(publisher observe.AuditPublisher) Option {
	return func(s *Service) { s.obs.Audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.obs.Metrics = m
		s.metrics = m
	}
}

func New(l ledger.Ledger, opts ...Option) *Service {
	s := &Service{ledger: l, obs: observe.New("treasury")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Withdraw moves the whole balance of owner's escrow vault to owner's wallet.
// vault must be owner's own vault address.
func (s *Service) Withdraw(ctx context.Context, owner domain.Identity, vault domain.Address) (amount domain.Amount, err error) {
	ctx, finish := s.obs.Start(ctx, "withdraw")
	defer func() { finish(err) }()

	if vault != idmodels.VaultAddress(owner) {
		return 0, dErrors.New(dErrors.CodeForbidden, "vault does not belong to the signer")
	}
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var record idmodels.Vault
		if err := tx.Load(ctx, vault, &record); err != nil {
			return ledger.LoadError(err, "escrow vault")
		}
		if record.Owner != owner {
			return dErrors.New(dErrors.CodeForbidden, "vault does not belong to the signer")
		}
		var err error
		amount, err = drain(ctx, tx, vault, owner.Wallet())
		return err
	})
	if err != nil {
		return 0, err
	}

	s.obs.LogAudit(ctx, audit.EventVaultWithdrawn, owner, vault, "amount", uint64(amount))
	s.metrics.ObserveWithdrawal("escrow", uint64(amount))
	return amount, nil
}

// AdminWithdraw moves the whole platform vault balance to the signing
// admin's wallet.
func (s *Service) AdminWithdraw(ctx context.Context, admin domain.Identity) (amount domain.Amount, err error) {
	ctx, finish := s.obs.Start(ctx, "admin_withdraw")
	defer func() { finish(err) }()

	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		if _, err := govmodels.RequireAdmin(ctx, tx, admin); err != nil {
			return err
		}
		var err error
		amount, err = drain(ctx, tx, govmodels.VaultAddress(), admin.Wallet())
		return err
	})
	if err != nil {
		return 0, err
	}

	s.obs.LogAudit(ctx, audit.EventPlatformWithdrawn, admin, govmodels.VaultAddress(), "amount", uint64(amount))
	s.metrics.ObserveWithdrawal("platform", uint64(amount))
	return amount, nil
}

func drain(ctx context.Context, tx ledger.Tx, from, to domain.Address) (domain.Amount, error) {
	balance, err := tx.Balance(ctx, from)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read vault balance")
	}
	if balance == 0 {
		return 0, dErrors.New(dErrors.CodeInsufficientFunds, "vault is empty")
	}
	if err := tx.Transfer(ctx, from, to, balance); err != nil {
		return 0, ledger.TransferError(err)
	}
	return balance, nil
}

package service

import (
	"context"
	"log/slog"

	"paperledger/internal/identity/models"
	"paperledger/internal/ledger"
	"paperledger/internal/platform/metrics"
	"paperledger/internal/platform/observe"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/option"
	"paperledger/pkg/platform/audit"
	"paperledger/pkg/requestcontext"
)

// Service registers participants and maintains their profiles.
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
	s := &Service{ledger: l, obs: observe.New("identity")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProfilePatch carries optional profile edits.
type ProfilePatch struct {
	Name  option.Option[string] `json:"name"`
	Title option.Option[string] `json:"title"`
}

// Register creates the signer's profile and escrow vault.
func (s *Service) Register(ctx context.Context, signer domain.Identity, name, title string) (profile *models.Profile, err error) {
	ctx, finish := s.obs.Start(ctx, "register")
	defer func() { finish(err) }()

	now := requestcontext.Now(ctx)
	profile, err = models.NewProfile(signer, name, title, now)
	if err != nil {
		return nil, err
	}

	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.Insert(ctx, models.ProfileAddress(signer), profile); err != nil {
			return ledger.InsertError(err, "user profile")
		}
		vault := &models.Vault{Owner: signer, CreatedAt: now}
		return ledger.InsertError(tx.Insert(ctx, models.VaultAddress(signer), vault), "escrow vault")
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventUserRegistered, signer, models.ProfileAddress(signer))
	s.metrics.IncrementUsersRegistered()
	return profile, nil
}

// EditProfile applies patch to owner's profile. Only the owner may sign.
func (s *Service) EditProfile(ctx context.Context, signer, owner domain.Identity, patch ProfilePatch) (profile *models.Profile, err error) {
	ctx, finish := s.obs.Start(ctx, "edit_profile")
	defer func() { finish(err) }()

	if signer != owner {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the profile owner may edit it")
	}

	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var err error
		profile, err = models.LoadProfile(ctx, tx, owner)
		if err != nil {
			return err
		}
		if err := profile.Rename(
			patch.Name.OrElse(profile.Name),
			patch.Title.OrElse(profile.Title),
			requestcontext.Now(ctx),
		); err != nil {
			return err
		}
		return models.SaveProfile(ctx, tx, profile)
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventProfileEdited, signer, models.ProfileAddress(owner),
		"name_changed", patch.Name.IsSome(), "title_changed", patch.Title.IsSome())
	return profile, nil
}

// Profile returns id's profile.
func (s *Service) Profile(ctx context.Context, id domain.Identity) (*models.Profile, error) {
	var profile *models.Profile
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var err error
		profile, err = models.LoadProfile(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Balances reports the escrow vault and spendable wallet balances of id.
type Balances struct {
	Vault  domain.Amount `json:"vault"`
	Wallet domain.Amount `json:"wallet"`
}

// Balances returns id's escrow and wallet balances. The vault must exist.
func (s *Service) Balances(ctx context.Context, id domain.Identity) (*Balances, error) {
	out := &Balances{}
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var vault models.Vault
		if err := tx.Load(ctx, models.VaultAddress(id), &vault); err != nil {
			return ledger.LoadError(err, "escrow vault")
		}
		var err error
		if out.Vault, err = tx.Balance(ctx, models.VaultAddress(id)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read vault balance")
		}
		if out.Wallet, err = tx.Balance(ctx, id.Wallet()); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read wallet balance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

package service

import (
	"context"
	"log/slog"

	"paperledger/internal/authorship/models"
	"paperledger/internal/ledger"
	"paperledger/internal/platform/metrics"
	"paperledger/internal/platform/observe"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/audit"
	"paperledger/pkg/requestcontext"
)

// Service records co-authorship claims and their confirmation.
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
	s := &Service{ledger: l, obs: observe.New("authorship")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddAuthor proposes candidate as a co-author of owner's publication id.
func (s *Service) AddAuthor(ctx context.Context, owner, candidate domain.Identity, id uint64) (rec *models.Record, err error) {
	ctx, finish := s.obs.Start(ctx, "add_author")
	defer func() { finish(err) }()

	if candidate.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate identity is required")
	}
	if candidate == owner {
		return nil, dErrors.New(dErrors.CodeValidation, "the owner cannot be added as a co-author")
	}

	ref := pubmodels.Ref{Owner: owner, ID: id}
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		if _, err := pubmodels.LoadPublication(ctx, tx, ref); err != nil {
			return err
		}
		rec = &models.Record{
			Candidate:   candidate,
			Publication: ref,
			CreatedAt:   requestcontext.Now(ctx),
		}
		return ledger.InsertError(tx.Insert(ctx, rec.Address(), rec), "authorship record")
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventAuthorAdded, owner, rec.Address(),
		"candidate", candidate.String(), "publication", ref.String())
	return rec, nil
}

// ConfirmAuthorship lets the candidate verify their own record. Confirming a
// verified record succeeds without change.
func (s *Service) ConfirmAuthorship(ctx context.Context, signer domain.Identity, ref pubmodels.Ref) (rec *models.Record, err error) {
	ctx, finish := s.obs.Start(ctx, "confirm_authorship")
	defer func() { finish(err) }()

	addr := models.Address(signer, ref.Address())
	changed := false
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		rec = &models.Record{}
		if err := tx.Load(ctx, addr, rec); err != nil {
			return ledger.LoadError(err, "authorship record")
		}
		if rec.Candidate != signer {
			return dErrors.New(dErrors.CodeForbidden, "only the candidate may confirm authorship")
		}
		if !rec.Confirm(requestcontext.Now(ctx)) {
			return nil
		}
		changed = true
		return ledger.SaveError(tx.Save(ctx, addr, rec), "authorship record")
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.obs.LogAudit(ctx, audit.EventAuthorConfirmed, signer, addr, "publication", ref.String())
	}
	return rec, nil
}

// Record returns candidate's authorship record for ref.
func (s *Service) Record(ctx context.Context, candidate domain.Identity, ref pubmodels.Ref) (*models.Record, error) {
	rec := &models.Record{}
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		return ledger.LoadError(tx.Load(ctx, models.Address(candidate, ref.Address()), rec), "authorship record")
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

package service

import (
	"context"
	"log/slog"

	govmodels "paperledger/internal/governance/models"
	idmodels "paperledger/internal/identity/models"
	"paperledger/internal/ledger"
	"paperledger/internal/platform/metrics"
	"paperledger/internal/platform/observe"
	"paperledger/internal/publication/models"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/option"
	"paperledger/pkg/platform/audit"
	"paperledger/pkg/requestcontext"
)

// Service creates and edits publications.
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
	s := &Service{ledger: l, obs: observe.New("publication")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublishRequest describes a new publication.
type PublishRequest struct {
	ID          uint64
	MetadataURL string
	ContentURI  string
	Price       domain.Amount
}

// Patch carries optional publication edits.
type Patch struct {
	MetadataURL option.Option[string]        `json:"metadata_url"`
	ContentURI  option.Option[string]        `json:"content_uri"`
	Price       option.Option[domain.Amount] `json:"price"`
	Listed      option.Option[bool]          `json:"listed"`
	Version     option.Option[uint32]        `json:"version"`
}

// Publish creates a listed publication owned by signer and bumps the
// signer's papers counter.
func (s *Service) Publish(ctx context.Context, signer domain.Identity, req PublishRequest) (pub *models.Publication, err error) {
	ctx, finish := s.obs.Start(ctx, "publish")
	defer func() { finish(err) }()

	ref := models.Ref{Owner: signer, ID: req.ID}
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		cfg, err := govmodels.LoadConfig(ctx, tx)
		if err != nil {
			return err
		}
		pub, err = models.NewPublication(ref, req.MetadataURL, req.ContentURI, req.Price, cfg.MinPrice, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := idmodels.UpdateCounters(ctx, tx, signer, func(c *idmodels.Counters) { c.Papers++ }); err != nil {
			return err
		}
		return ledger.InsertError(tx.Insert(ctx, ref.Address(), pub), "publication")
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventPublicationCreated, signer, ref.Address(),
		"publication_id", req.ID, "price", uint64(pub.Price))
	s.metrics.IncrementPapersPublished()
	return pub, nil
}

// EditPublication applies patch to the signer's publication id. The new
// field values are validated together after the patch is applied.
func (s *Service) EditPublication(ctx context.Context, signer domain.Identity, id uint64, patch Patch) (pub *models.Publication, err error) {
	ctx, finish := s.obs.Start(ctx, "edit_publication")
	defer func() { finish(err) }()

	ref := models.Ref{Owner: signer, ID: id}
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var err error
		pub, err = models.LoadPublication(ctx, tx, ref)
		if err != nil {
			return err
		}
		if pub.Owner != signer {
			return dErrors.New(dErrors.CodeForbidden, "only the owner may edit a publication")
		}
		cfg, err := govmodels.LoadConfig(ctx, tx)
		if err != nil {
			return err
		}
		cur := pub.Editable()
		edit := models.Edit{
			MetadataURL: patch.MetadataURL.OrElse(cur.MetadataURL),
			ContentURI:  patch.ContentURI.OrElse(cur.ContentURI),
			Price:       patch.Price.OrElse(cur.Price),
			Listed:      patch.Listed.OrElse(cur.Listed),
			Version:     patch.Version.OrElse(cur.Version),
		}
		// A stored price stays valid when min_price is raised later.
		var floor domain.Amount
		if patch.Price.IsSome() {
			floor = cfg.MinPrice
		}
		if err := pub.ApplyEdit(edit, floor, requestcontext.Now(ctx)); err != nil {
			return err
		}
		return models.SavePublication(ctx, tx, pub)
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventPublicationEdited, signer, ref.Address(),
		"publication_id", id, "listed", pub.Listed, "version", pub.Version)
	return pub, nil
}

// Publication returns the publication named by ref.
func (s *Service) Publication(ctx context.Context, ref models.Ref) (*models.Publication, error) {
	var pub *models.Publication
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		var err error
		pub, err = models.LoadPublication(ctx, tx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pub, nil
}

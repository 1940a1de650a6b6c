package service

import (
	"context"
	"log/slog"

	authmodels "paperledger/internal/authorship/models"
	commercemodels "paperledger/internal/commerce/models"
	idmodels "paperledger/internal/identity/models"
	"paperledger/internal/ledger"
	"paperledger/internal/platform/metrics"
	"paperledger/internal/platform/observe"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/internal/review/models"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/audit"
	"paperledger/pkg/platform/validation"
	"paperledger/pkg/requestcontext"
)

// Service runs the peer-review workflow: one review per reviewer and
// publication, editable afterwards.
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
	s := &Service{ledger: l, obs: observe.New("review")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitReview records reviewer's first verdict on ref. The reviewer must be
// registered, hold a purchase receipt, and be neither the owner nor a
// verified co-author.
func (s *Service) SubmitReview(ctx context.Context, reviewer domain.Identity, ref pubmodels.Ref, verdict, reviewURI string) (review *models.Review, err error) {
	ctx, finish := s.obs.Start(ctx, "submit_review")
	defer func() { finish(err) }()

	v, err := pubmodels.ParseVerdict(verdict)
	if err != nil {
		return nil, err
	}
	uri, err := validation.URI("review_uri", reviewURI)
	if err != nil {
		return nil, err
	}

	var delisted bool
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		pub, err := pubmodels.LoadPublication(ctx, tx, ref)
		if err != nil {
			return err
		}
		if err := s.checkEligible(ctx, tx, reviewer, ref); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		review = &models.Review{
			Reviewer:    reviewer,
			Publication: ref,
			Verdict:     v,
			ReviewURI:   uri,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Insert(ctx, review.Address(), review); err != nil {
			return ledger.InsertError(err, "review")
		}
		delisted = pub.RecordVerdict(v, now)
		if err := pubmodels.SavePublication(ctx, tx, pub); err != nil {
			return err
		}
		return idmodels.UpdateCounters(ctx, tx, reviewer, func(c *idmodels.Counters) { c.Reviews++ })
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventReviewSubmitted, reviewer, review.Address(),
		"publication", ref.String(), "verdict", string(v))
	if delisted {
		s.obs.LogAudit(ctx, audit.EventPublicationDelisted, reviewer, ref.Address(), "publication", ref.String())
	}
	s.metrics.IncrementReviews(string(v))
	return review, nil
}

func (s *Service) checkEligible(ctx context.Context, tx ledger.Tx, reviewer domain.Identity, ref pubmodels.Ref) error {
	if _, err := idmodels.LoadProfile(ctx, tx, reviewer); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeForbidden, "reviewer is not registered")
		}
		return err
	}
	if reviewer == ref.Owner {
		return dErrors.New(dErrors.CodeForbidden, "owners cannot review their own publication")
	}
	bought, err := commercemodels.HasReceipt(ctx, tx, reviewer, ref)
	if err != nil {
		return err
	}
	if !bought {
		return dErrors.New(dErrors.CodeForbidden, "reviewer has not purchased the publication")
	}
	author, err := authmodels.IsVerifiedAuthor(ctx, tx, reviewer, ref)
	if err != nil {
		return err
	}
	if author {
		return dErrors.New(dErrors.CodeForbidden, "verified co-authors cannot review")
	}
	return nil
}

// EditReview changes reviewer's verdict on ref. A rejection delists the
// publication; moving away from a rejection never relists it.
func (s *Service) EditReview(ctx context.Context, reviewer domain.Identity, ref pubmodels.Ref, verdict string) (review *models.Review, err error) {
	ctx, finish := s.obs.Start(ctx, "edit_review")
	defer func() { finish(err) }()

	v, err := pubmodels.ParseVerdict(verdict)
	if err != nil {
		return nil, err
	}

	var (
		previous pubmodels.Verdict
		delisted bool
	)
	addr := models.Address(reviewer, ref.Address())
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		review = &models.Review{}
		if err := tx.Load(ctx, addr, review); err != nil {
			return ledger.LoadError(err, "review")
		}
		if review.Reviewer != reviewer {
			return dErrors.New(dErrors.CodeForbidden, "only the reviewer may edit a review")
		}
		pub, err := pubmodels.LoadPublication(ctx, tx, ref)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		previous = review.Verdict
		delisted = pub.ChangeVerdict(previous, v, now)
		review.Verdict = v
		review.UpdatedAt = now
		if err := ledger.SaveError(tx.Save(ctx, addr, review), "review"); err != nil {
			return err
		}
		return pubmodels.SavePublication(ctx, tx, pub)
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventReviewEdited, reviewer, addr,
		"publication", ref.String(), "from", string(previous), "to", string(v))
	if delisted {
		s.obs.LogAudit(ctx, audit.EventPublicationDelisted, reviewer, ref.Address(), "publication", ref.String())
	}
	return review, nil
}

// Review returns reviewer's review of ref.
func (s *Service) Review(ctx context.Context, reviewer domain.Identity, ref pubmodels.Ref) (*models.Review, error) {
	review := &models.Review{}
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		return ledger.LoadError(tx.Load(ctx, models.Address(reviewer, ref.Address()), review), "review")
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

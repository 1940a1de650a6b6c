package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	authservice "paperledger/internal/authorship/service"
	commerceservice "paperledger/internal/commerce/service"
	govservice "paperledger/internal/governance/service"
	idservice "paperledger/internal/identity/service"
	"paperledger/internal/ledger/memory"
	pubmodels "paperledger/internal/publication/models"
	pubservice "paperledger/internal/publication/service"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/option"
	"paperledger/pkg/testutil"
)

const (
	price     domain.Amount = 500_000_000
	reviewURI               = "ipfs://bafy/review.md"
)

type ServiceSuite struct {
	suite.Suite
	ledger       *memory.Ledger
	identity     *idservice.Service
	publications *pubservice.Service
	authorship   *authservice.Service
	commerce     *commerceservice.Service
	service      *Service
	owner        domain.Identity
	ref          pubmodels.Ref
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctx := testutil.Context()
	s.ledger = memory.New()
	s.identity = idservice.New(s.ledger)
	s.publications = pubservice.New(s.ledger)
	s.authorship = authservice.New(s.ledger)
	s.commerce = commerceservice.New(s.ledger)
	s.service = New(s.ledger)
	s.owner = s.register("Bob")
	s.ref = pubmodels.Ref{Owner: s.owner, ID: 1}

	_, err := govservice.New(s.ledger).InitializePlatform(ctx, testutil.NewIdentity(s.T()), govservice.FeeParams{})
	s.Require().NoError(err)
	_, err = s.publications.Publish(ctx, s.owner, pubservice.PublishRequest{
		ID: s.ref.ID, MetadataURL: "https://arweave.net/meta.json", ContentURI: "ipfs://bafy/paper.pdf", Price: price,
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) register(name string) domain.Identity {
	id := testutil.NewIdentity(s.T())
	_, err := s.identity.Register(testutil.Context(), id, name, "Reviewer")
	s.Require().NoError(err)
	return id
}

// buyer registers a participant and buys the publication for them.
func (s *ServiceSuite) buyer(name string) domain.Identity {
	ctx := testutil.Context()
	id := s.register(name)
	s.Require().NoError(s.ledger.Airdrop(ctx, id.Wallet(), price))
	_, err := s.commerce.Purchase(ctx, id, s.ref)
	s.Require().NoError(err)
	return id
}

func (s *ServiceSuite) publication() *pubmodels.Publication {
	pub, err := s.publications.Publication(testutil.Context(), s.ref)
	s.Require().NoError(err)
	return pub
}

func (s *ServiceSuite) TestSubmitReview() {
	ctx := testutil.Context()
	roger := s.buyer("Roger")

	review, err := s.service.SubmitReview(ctx, roger, s.ref, "approved", reviewURI)
	s.Require().NoError(err)
	s.Equal(pubmodels.VerdictApproved, review.Verdict)

	pub := s.publication()
	s.Equal(pubmodels.Tally{Approved: 1}, pub.Tally)
	s.Equal(uint32(1), pub.Reviews)
	s.True(pub.Listed)

	profile, err := s.identity.Profile(ctx, roger)
	s.Require().NoError(err)
	s.Equal(uint32(1), profile.Counters.Reviews)

	_, err = s.service.SubmitReview(ctx, roger, s.ref, "rejected", reviewURI)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "one review per reviewer")
}

func (s *ServiceSuite) TestSubmitReviewEligibility() {
	ctx := testutil.Context()

	s.Run("unregistered reviewer", func() {
		_, err := s.service.SubmitReview(ctx, testutil.NewIdentity(s.T()), s.ref, "approved", reviewURI)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("no receipt", func() {
		_, err := s.service.SubmitReview(ctx, s.register("Eve"), s.ref, "approved", reviewURI)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("owner even after self-purchase", func() {
		s.Require().NoError(s.ledger.Airdrop(ctx, s.owner.Wallet(), price))
		_, err := s.commerce.Purchase(ctx, s.owner, s.ref)
		s.Require().NoError(err)

		_, err = s.service.SubmitReview(ctx, s.owner, s.ref, "approved", reviewURI)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unconfirmed co-author", func() {
		coauthor := s.buyer("Carol")
		_, err := s.authorship.AddAuthor(ctx, s.owner, coauthor, s.ref.ID)
		s.Require().NoError(err)

		_, err = s.service.SubmitReview(ctx, coauthor, s.ref, "approved", reviewURI)
		s.Require().NoError(err, "an unconfirmed proposal does not bar reviewing")
	})

	s.Run("confirmed co-author", func() {
		coauthor := s.buyer("Dave")
		_, err := s.authorship.AddAuthor(ctx, s.owner, coauthor, s.ref.ID)
		s.Require().NoError(err)
		_, err = s.authorship.ConfirmAuthorship(ctx, coauthor, s.ref)
		s.Require().NoError(err)

		_, err = s.service.SubmitReview(ctx, coauthor, s.ref, "approved", reviewURI)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown verdict and bad uri", func() {
		reviewer := s.buyer("Frank")
		_, err := s.service.SubmitReview(ctx, reviewer, s.ref, "meh", reviewURI)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.SubmitReview(ctx, reviewer, s.ref, "approved", "no scheme")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing publication", func() {
		_, err := s.service.SubmitReview(ctx, s.owner, pubmodels.Ref{Owner: s.owner, ID: 9}, "approved", reviewURI)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestRejectionDelists() {
	ctx := testutil.Context()
	roger := s.buyer("Roger")
	nancy := s.buyer("Nancy")

	_, err := s.service.SubmitReview(ctx, roger, s.ref, "approved", reviewURI)
	s.Require().NoError(err)
	_, err = s.service.SubmitReview(ctx, nancy, s.ref, "rejected", reviewURI)
	s.Require().NoError(err)
	s.False(s.publication().Listed, "any rejection delists")

	s.Run("editing away from rejected keeps it delisted", func() {
		review, err := s.service.EditReview(ctx, nancy, s.ref, "approved")
		s.Require().NoError(err)
		s.Equal(pubmodels.VerdictApproved, review.Verdict)

		pub := s.publication()
		s.False(pub.Listed)
		s.Equal(pubmodels.Tally{Approved: 2}, pub.Tally)
		s.Equal(uint32(2), pub.Reviews)
	})

	s.Run("owner relists and a later rejection delists again", func() {
		_, err := s.publications.EditPublication(ctx, s.owner, s.ref.ID, pubservice.Patch{Listed: option.Some(true)})
		s.Require().NoError(err)
		s.True(s.publication().Listed)

		_, err = s.service.EditReview(ctx, roger, s.ref, "rejected")
		s.Require().NoError(err)
		s.False(s.publication().Listed)
	})
}

func (s *ServiceSuite) TestEditReview() {
	ctx := testutil.Context()

	s.Run("no review to edit", func() {
		_, err := s.service.EditReview(ctx, s.register("Ghost"), s.ref, "approved")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("same verdict keeps the tally", func() {
		roger := s.buyer("Roger")
		_, err := s.service.SubmitReview(ctx, roger, s.ref, "review_requested", reviewURI)
		s.Require().NoError(err)
		_, err = s.service.EditReview(ctx, roger, s.ref, "review_requested")
		s.Require().NoError(err)
		s.Equal(pubmodels.Tally{ReviewRequested: 1}, s.publication().Tally)
	})
}

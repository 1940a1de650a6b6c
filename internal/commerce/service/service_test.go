package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	govservice "paperledger/internal/governance/service"
	idservice "paperledger/internal/identity/service"
	"paperledger/internal/ledger/memory"
	"paperledger/internal/platform/metrics"
	pubmodels "paperledger/internal/publication/models"
	pubservice "paperledger/internal/publication/service"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/option"
	"paperledger/pkg/testutil"
)

const price domain.Amount = 500_000_000

type ServiceSuite struct {
	suite.Suite
	ledger       *memory.Ledger
	metrics      *metrics.Metrics
	governance   *govservice.Service
	identity     *idservice.Service
	publications *pubservice.Service
	service      *Service
	seller       domain.Identity
	buyer        domain.Identity
	ref          pubmodels.Ref
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctx := testutil.Context()
	s.ledger = memory.New()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.governance = govservice.New(s.ledger)
	s.identity = idservice.New(s.ledger)
	s.publications = pubservice.New(s.ledger)
	s.service = New(s.ledger, WithMetrics(s.metrics))
	s.seller = testutil.NewIdentity(s.T())
	s.buyer = testutil.NewIdentity(s.T())
	s.ref = pubmodels.Ref{Owner: s.seller, ID: 1}

	_, err := s.governance.InitializePlatform(ctx, testutil.NewIdentity(s.T()), govservice.FeeParams{})
	s.Require().NoError(err)
	_, err = s.identity.Register(ctx, s.seller, "Bob", "Author")
	s.Require().NoError(err)
	_, err = s.identity.Register(ctx, s.buyer, "Nancy", "Reader")
	s.Require().NoError(err)
	_, err = s.publications.Publish(ctx, s.seller, pubservice.PublishRequest{
		ID: s.ref.ID, MetadataURL: "https://arweave.net/meta.json", ContentURI: "ipfs://bafy/paper.pdf", Price: price,
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) fund(id domain.Identity, amount domain.Amount) {
	s.Require().NoError(s.ledger.Airdrop(testutil.Context(), id.Wallet(), amount))
}

func (s *ServiceSuite) TestPurchaseSplitsPayment() {
	ctx := testutil.Context()
	s.fund(s.buyer, 1_000_000_000)

	receipt, err := s.service.Purchase(ctx, s.buyer, s.ref)
	s.Require().NoError(err)
	s.Equal(price, receipt.Price)
	s.Equal(domain.Amount(10_000_000), receipt.Fee, "2% of 0.5 units")
	s.Equal(domain.Amount(490_000_000), receipt.Proceeds)

	buyer, err := s.identity.Balances(ctx, s.buyer)
	s.Require().NoError(err)
	s.Equal(domain.Amount(500_000_000), buyer.Wallet)

	seller, err := s.identity.Balances(ctx, s.seller)
	s.Require().NoError(err)
	s.Equal(domain.Amount(490_000_000), seller.Vault)

	platform, err := s.governance.PlatformBalance(ctx)
	s.Require().NoError(err)
	s.Equal(domain.Amount(10_000_000), platform)

	profile, err := s.identity.Profile(ctx, s.buyer)
	s.Require().NoError(err)
	s.Equal(uint32(1), profile.Counters.Purchases)

	pub, err := s.publications.Publication(ctx, s.ref)
	s.Require().NoError(err)
	s.Equal(uint64(1), pub.Sales)

	stored, err := s.service.Receipt(ctx, s.buyer, s.ref)
	s.Require().NoError(err)
	s.Equal(receipt.Fee, stored.Fee)

	s.Equal(1.0, promtest.ToFloat64(s.metrics.Sales))
}

func (s *ServiceSuite) TestPurchaseFailures() {
	ctx := testutil.Context()

	s.Run("insufficient funds leaves balances untouched", func() {
		s.fund(s.buyer, price-1)
		_, err := s.service.Purchase(ctx, s.buyer, s.ref)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

		bal, err := s.identity.Balances(ctx, s.buyer)
		s.Require().NoError(err)
		s.Equal(price-1, bal.Wallet)
		_, err = s.service.Receipt(ctx, s.buyer, s.ref)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("second purchase already exists", func() {
		s.fund(s.buyer, price*2)
		_, err := s.service.Purchase(ctx, s.buyer, s.ref)
		s.Require().NoError(err)
		_, err = s.service.Purchase(ctx, s.buyer, s.ref)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown publication", func() {
		_, err := s.service.Purchase(ctx, s.buyer, pubmodels.Ref{Owner: s.seller, ID: 42})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unregistered buyer", func() {
		stranger := testutil.NewIdentity(s.T())
		s.fund(stranger, price)
		_, err := s.service.Purchase(ctx, stranger, s.ref)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("delisted publication", func() {
		_, err := s.publications.EditPublication(ctx, s.seller, s.ref.ID, pubservice.Patch{Listed: option.Some(false)})
		s.Require().NoError(err)
		late := testutil.NewIdentity(s.T())
		_, err = s.identity.Register(ctx, late, "Late", "Reader")
		s.Require().NoError(err)
		s.fund(late, price)

		_, err = s.service.Purchase(ctx, late, s.ref)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestSelfPurchase() {
	ctx := testutil.Context()
	s.fund(s.seller, price)

	_, err := s.service.Purchase(ctx, s.seller, s.ref)
	s.Require().NoError(err)

	bal, err := s.identity.Balances(ctx, s.seller)
	s.Require().NoError(err)
	s.Zero(bal.Wallet)
	s.Equal(domain.Amount(490_000_000), bal.Vault)
}

package service

import (
	"context"
	"log/slog"

	"paperledger/internal/commerce/models"
	govmodels "paperledger/internal/governance/models"
	idmodels "paperledger/internal/identity/models"
	"paperledger/internal/ledger"
	"paperledger/internal/platform/metrics"
	"paperledger/internal/platform/observe"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/audit"
	"paperledger/pkg/requestcontext"
)

// Service settles purchases between buyers, sellers, and the platform.
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
	s := &Service{ledger: l, obs: observe.New("commerce")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Purchase moves the publication price out of the buyer's wallet, splitting
// it between the platform vault and the seller's escrow vault, and records
// a receipt.
func (s *Service) Purchase(ctx context.Context, buyer domain.Identity, ref pubmodels.Ref) (receipt *models.Receipt, err error) {
	ctx, finish := s.obs.Start(ctx, "purchase")
	defer func() { finish(err) }()

	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		pub, err := pubmodels.LoadPublication(ctx, tx, ref)
		if err != nil {
			return err
		}
		if _, err := idmodels.LoadProfile(ctx, tx, buyer); err != nil {
			return err
		}
		if !pub.Listed {
			return dErrors.New(dErrors.CodeValidation, "publication is not listed")
		}
		bought, err := models.HasReceipt(ctx, tx, buyer, ref)
		if err != nil {
			return err
		}
		if bought {
			return dErrors.New(dErrors.CodeConflict, "purchase receipt already exists")
		}

		cfg, err := govmodels.LoadConfig(ctx, tx)
		if err != nil {
			return err
		}
		fee := cfg.Fee(pub.Price)
		receipt = &models.Receipt{
			Buyer:       buyer,
			Publication: ref,
			Price:       pub.Price,
			Fee:         fee,
			Proceeds:    pub.Price - fee,
			CreatedAt:   requestcontext.Now(ctx),
		}
		if err := s.settle(ctx, tx, receipt); err != nil {
			return err
		}
		if err := tx.Insert(ctx, receipt.Address(), receipt); err != nil {
			return ledger.InsertError(err, "purchase receipt")
		}

		if err := idmodels.UpdateCounters(ctx, tx, buyer, func(c *idmodels.Counters) { c.Purchases++ }); err != nil {
			return err
		}
		pub.Sales++
		pub.UpdatedAt = receipt.CreatedAt
		return pubmodels.SavePublication(ctx, tx, pub)
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventPurchaseSettled, buyer, receipt.Address(),
		"publication", ref.String(), "price", uint64(receipt.Price), "fee", uint64(receipt.Fee))
	s.metrics.ObservePurchase(uint64(receipt.Price), uint64(receipt.Fee))
	return receipt, nil
}

func (s *Service) settle(ctx context.Context, tx ledger.Tx, r *models.Receipt) error {
	wallet := r.Buyer.Wallet()
	available, err := tx.Balance(ctx, wallet)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read buyer balance")
	}
	if available < r.Price {
		return dErrors.New(dErrors.CodeInsufficientFunds, "buyer balance does not cover the price")
	}
	if err := tx.Transfer(ctx, wallet, govmodels.VaultAddress(), r.Fee); err != nil {
		return ledger.TransferError(err)
	}
	return ledger.TransferError(tx.Transfer(ctx, wallet, idmodels.VaultAddress(r.Publication.Owner), r.Proceeds))
}

// Receipt returns buyer's receipt for ref.
func (s *Service) Receipt(ctx context.Context, buyer domain.Identity, ref pubmodels.Ref) (*models.Receipt, error) {
	receipt := &models.Receipt{}
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		return ledger.LoadError(tx.Load(ctx, models.ReceiptAddress(buyer, ref.Address()), receipt), "purchase receipt")
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

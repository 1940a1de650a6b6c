package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"paperledger/internal/achievement/models"
	"paperledger/internal/achievement/registry"
	govmodels "paperledger/internal/governance/models"
	idmodels "paperledger/internal/identity/models"
	"paperledger/internal/ledger"
	"paperledger/internal/platform/metrics"
	"paperledger/internal/platform/observe"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/audit"
	"paperledger/pkg/platform/sentinel"
	"paperledger/pkg/platform/validation"
	"paperledger/pkg/requestcontext"
)

// Service manages badge categories and mints achievement badges against the
// counters kept on user profiles.
type Service struct {
	ledger   ledger.Ledger
	registry registry.AssetRegistry
	obs      *observe.Observer
	metrics  *metrics.Metrics
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

func New(l ledger.Ledger, assets registry.AssetRegistry, opts ...Option) *Service {
	s := &Service{ledger: l, registry: assets, obs: observe.New("achievement")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBadgeCategory registers a collection with the asset registry under
// the platform's authority and records it.
func (s *Service) CreateBadgeCategory(ctx context.Context, signer domain.Identity, name, uri string) (collection *models.Collection, err error) {
	ctx, finish := s.obs.Start(ctx, "create_badge_category")
	defer func() { finish(err) }()

	if name, err = validation.Text("name", name, validation.MaxTitleLength); err != nil {
		return nil, err
	}
	if uri, err = validation.URL("uri", uri); err != nil {
		return nil, err
	}

	addr := models.CollectionAddress(name)
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		if _, err := govmodels.RequireAdmin(ctx, tx, signer); err != nil {
			return err
		}
		if err := s.ensureAbsent(ctx, tx, addr, "badge collection"); err != nil {
			return err
		}
		created, err := s.registry.CreateCollection(ctx, registry.CollectionSpec{
			Key:       addr.String(),
			Name:      name,
			URI:       uri,
			Authority: govmodels.ConfigAddress(),
		})
		if err != nil {
			return registryError(err, "create collection")
		}
		collection = &models.Collection{
			Name:       name,
			URI:        uri,
			RegistryID: created.ID,
			CreatedBy:  signer,
			CreatedAt:  requestcontext.Now(ctx),
		}
		return ledger.InsertError(tx.Insert(ctx, addr, collection), "badge collection")
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventBadgeCategoryCreated, signer, addr, "name", name)
	return collection, nil
}

// MintRequest names the badge a user claims.
type MintRequest struct {
	Collection  domain.Address
	Name        string
	URI         string
	Achievement string
	Claimed     uint32
}

// MintAchievementBadge mints a frozen badge to signer when the claimed count
// is between 1 and the signer's tracked counter for the achievement.
func (s *Service) MintAchievementBadge(ctx context.Context, signer domain.Identity, req MintRequest) (badge *models.Badge, err error) {
	ctx, finish := s.obs.Start(ctx, "mint_achievement_badge")
	defer func() { finish(err) }()

	name, err := validation.Text("name", req.Name, validation.MaxTitleLength)
	if err != nil {
		return nil, err
	}
	uri, err := validation.URL("uri", req.URI)
	if err != nil {
		return nil, err
	}
	if _, ok := (idmodels.Counters{}).Counter(req.Achievement); !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown achievement: "+req.Achievement)
	}

	addr := models.BadgeAddress(signer, req.Collection, req.Achievement, req.Claimed)
	err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		profile, err := idmodels.LoadProfile(ctx, tx, signer)
		if err != nil {
			return err
		}
		var collection models.Collection
		if err := tx.Load(ctx, req.Collection, &collection); err != nil {
			return ledger.LoadError(err, "badge collection")
		}
		tracked, _ := profile.Counters.Counter(req.Achievement)
		if req.Claimed == 0 || req.Claimed > tracked {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("claimed %s count %d is not backed by the recorded %d", req.Achievement, req.Claimed, tracked))
		}
		if err := s.ensureAbsent(ctx, tx, addr, "badge"); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		asset, err := s.registry.MintAsset(ctx, registry.AssetSpec{
			Key:        addr.String(),
			Collection: collection.RegistryID,
			Owner:      signer,
			Name:       name,
			URI:        uri,
			Attributes: map[string]string{
				"achievement": req.Achievement,
				"record":      strconv.FormatUint(uint64(req.Claimed), 10),
				"timestamp":   now.Format(time.RFC3339),
			},
			Frozen: true,
		})
		if err != nil {
			return registryError(err, "mint badge")
		}
		badge = &models.Badge{
			Owner:       signer,
			Collection:  req.Collection,
			RegistryID:  asset.ID,
			Name:        name,
			URI:         uri,
			Achievement: req.Achievement,
			Record:      req.Claimed,
			MintedAt:    now,
		}
		return ledger.InsertError(tx.Insert(ctx, addr, badge), "badge")
	})
	if err != nil {
		return nil, err
	}

	s.obs.LogAudit(ctx, audit.EventBadgeMinted, signer, addr,
		"achievement", req.Achievement, "record", req.Claimed)
	s.metrics.IncrementBadges(req.Achievement)
	return badge, nil
}

// Collection returns the badge category named name.
func (s *Service) Collection(ctx context.Context, name string) (*models.Collection, error) {
	collection := &models.Collection{}
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		return ledger.LoadError(tx.Load(ctx, models.CollectionAddress(name), collection), "badge collection")
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *Service) ensureAbsent(ctx context.Context, tx ledger.Tx, addr domain.Address, what string) error {
	exists, err := tx.Exists(ctx, addr)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check "+what)
	}
	if exists {
		return dErrors.New(dErrors.CodeConflict, what+" already exists")
	}
	return nil
}

func registryError(err error, op string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "asset registry: "+op+": collection not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "asset registry: "+op)
}

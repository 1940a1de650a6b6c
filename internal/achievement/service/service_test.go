package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"paperledger/internal/achievement/models"
	"paperledger/internal/achievement/registry"
	"paperledger/internal/achievement/registry/mocks"
	govservice "paperledger/internal/governance/service"
	idmodels "paperledger/internal/identity/models"
	idservice "paperledger/internal/identity/service"
	"paperledger/internal/ledger/memory"
	pubservice "paperledger/internal/publication/service"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/testutil"
)

const (
	collectionURI = "https://arweave.net/badges/author.json"
	badgeURI      = "https://arweave.net/badges/author-1.json"
)

type ServiceSuite struct {
	suite.Suite
	ledger   *memory.Ledger
	registry *registry.InMemory
	service  *Service
	admin    domain.Identity
	user     domain.Identity
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctx := testutil.Context()
	s.ledger = memory.New()
	s.registry = registry.NewInMemory()
	s.service = New(s.ledger, s.registry)
	s.admin = testutil.NewIdentity(s.T())
	s.user = testutil.NewIdentity(s.T())

	_, err := govservice.New(s.ledger).InitializePlatform(ctx, s.admin, govservice.FeeParams{})
	s.Require().NoError(err)
	_, err = idservice.New(s.ledger).Register(ctx, s.user, "Bob", "Author")
	s.Require().NoError(err)
}

func (s *ServiceSuite) publish(ids ...uint64) {
	publications := pubservice.New(s.ledger)
	for _, id := range ids {
		_, err := publications.Publish(testutil.Context(), s.user, pubservice.PublishRequest{
			ID: id, MetadataURL: "https://arweave.net/meta.json", ContentURI: "ipfs://bafy/paper.pdf", Price: 500_000_000,
		})
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) TestCreateBadgeCategory() {
	ctx := testutil.Context()

	s.Run("admin creates a category", func() {
		c, err := s.service.CreateBadgeCategory(ctx, s.admin, "Author", collectionURI)
		s.Require().NoError(err)
		s.Equal(models.CollectionAddress("Author").String(), c.RegistryID)

		stored, err := s.service.Collection(ctx, "Author")
		s.Require().NoError(err)
		s.Equal(s.admin, stored.CreatedBy)
	})

	s.Run("duplicate name already exists", func() {
		_, err := s.service.CreateBadgeCategory(ctx, s.admin, "Author", collectionURI)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("non-admin is forbidden", func() {
		_, err := s.service.CreateBadgeCategory(ctx, s.user, "Reviewer", collectionURI)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("bad inputs", func() {
		_, err := s.service.CreateBadgeCategory(ctx, s.admin, "", collectionURI)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.CreateBadgeCategory(ctx, s.admin, "Reviewer", "nope")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestMintAchievementBadge() {
	ctx := testutil.Context()
	_, err := s.service.CreateBadgeCategory(ctx, s.admin, "Author", collectionURI)
	s.Require().NoError(err)
	s.publish(1, 2)
	collection := models.CollectionAddress("Author")

	req := func(achievement string, claimed uint32) MintRequest {
		return MintRequest{Collection: collection, Name: "Author", URI: badgeURI, Achievement: achievement, Claimed: claimed}
	}

	s.Run("claim at or below the counter mints a frozen asset", func() {
		badge, err := s.service.MintAchievementBadge(ctx, s.user, req(idmodels.AchievementPapers, 2))
		s.Require().NoError(err)
		s.Equal(uint32(2), badge.Record)

		asset, ok := s.registry.Asset(badge.RegistryID)
		s.Require().True(ok)
		s.True(asset.Frozen)
		s.Equal(s.user, asset.Owner)
		s.Equal("papers", asset.Attributes["achievement"])
		s.Equal("2", asset.Attributes["record"])
		s.Equal("2026-03-01T12:00:00Z", asset.Attributes["timestamp"])

		_, err = s.service.MintAchievementBadge(ctx, s.user, req(idmodels.AchievementPapers, 1))
		s.Require().NoError(err)
	})

	s.Run("same record twice already exists", func() {
		_, err := s.service.MintAchievementBadge(ctx, s.user, req(idmodels.AchievementPapers, 2))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("overstated and zero claims are rejected", func() {
		_, err := s.service.MintAchievementBadge(ctx, s.user, req(idmodels.AchievementPapers, 3))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.MintAchievementBadge(ctx, s.user, req(idmodels.AchievementReviews, 0))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown achievement label", func() {
		_, err := s.service.MintAchievementBadge(ctx, s.user, req("citations", 1))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown collection or profile", func() {
		r := req(idmodels.AchievementPapers, 1)
		r.Collection = models.CollectionAddress("Missing")
		_, err := s.service.MintAchievementBadge(ctx, s.user, r)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.MintAchievementBadge(ctx, testutil.NewIdentity(s.T()), req(idmodels.AchievementPapers, 1))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestRegistryFailureLeavesNoRecord() {
	ctx := testutil.Context()
	ctrl := gomock.NewController(s.T())
	assets := mocks.NewMockAssetRegistry(ctrl)
	service := New(s.ledger, assets)

	assets.EXPECT().
		CreateCollection(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, spec registry.CollectionSpec) (*registry.Collection, error) {
			s.Equal("Author", spec.Name)
			return nil, errors.New("registry offline")
		})

	_, err := service.CreateBadgeCategory(ctx, s.admin, "Author", collectionURI)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = service.Collection(ctx, "Author")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

package models

import (
	"time"

	govmodels "paperledger/internal/governance/models"
	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
)

const (
	KindCollection ledger.Kind = "badge_collection"
	KindBadge      ledger.Kind = "badge"
)

// CollectionAddress derives the address of the badge category named name.
func CollectionAddress(name string) domain.Address {
	return ledger.Derive(ledger.Tag("badge_collection"), ledger.AddressSeed(govmodels.ConfigAddress()), []byte(name))
}

// BadgeAddress derives the address of user's badge for reaching record on
// achievement within collection.
func BadgeAddress(user domain.Identity, collection domain.Address, achievement string, record uint32) domain.Address {
	return ledger.Derive(ledger.Tag("badge"), ledger.IdentitySeed(user), ledger.AddressSeed(collection),
		[]byte(achievement), ledger.U32Seed(record))
}

// Collection is an admin-created badge category.
type Collection struct {
	Name       string          `json:"name"`
	URI        string          `json:"uri"`
	RegistryID string          `json:"registry_id"`
	CreatedBy  domain.Identity `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (Collection) RecordKind() ledger.Kind { return KindCollection }

// Badge is a minted, non-transferable achievement bound to Owner.
type Badge struct {
	Owner       domain.Identity `json:"owner"`
	Collection  domain.Address  `json:"collection"`
	RegistryID  string          `json:"registry_id"`
	Name        string          `json:"name"`
	URI         string          `json:"uri"`
	Achievement string          `json:"achievement"`
	Record      uint32          `json:"record"`
	MintedAt    time.Time       `json:"minted_at"`
}

func (Badge) RecordKind() ledger.Kind { return KindBadge }

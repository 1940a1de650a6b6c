package models

import (
	"slices"
	"time"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
)

const (
	// MaxAdmins bounds the admin set.
	MaxAdmins = 3
	// BpsDenominator is 100% in basis points.
	BpsDenominator = 10_000

	DefaultFeeBps   uint16        = 200
	DefaultMinPrice domain.Amount = 250_000_000
)

const (
	KindConfig ledger.Kind = "platform_config"
	KindVault  ledger.Kind = "platform_vault"
)

// ConfigAddress is where the singleton platform configuration lives.
func ConfigAddress() domain.Address {
	return ledger.Derive(ledger.Tag("config"))
}

// VaultAddress is the platform fee sink.
func VaultAddress() domain.Address {
	return ledger.Derive(ledger.Tag("config_vault"), ledger.AddressSeed(ConfigAddress()))
}

// Config is the platform-wide configuration record.
//
// Invariants:
//   - Admins holds 1..MaxAdmins distinct identities
//   - FeeBps is at most BpsDenominator
type Config struct {
	Admins    []domain.Identity `json:"admins"`
	FeeBps    uint16            `json:"fee_bps"`
	MinPrice  domain.Amount     `json:"min_price"`
	Version   uint32            `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Config) RecordKind() ledger.Kind { return KindConfig }

// NewConfig builds the initial configuration with a single admin.
func NewConfig(admin domain.Identity, feeBps uint16, minPrice domain.Amount, now time.Time) (*Config, error) {
	if admin.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "admin identity is required")
	}
	if err := validateFees(feeBps, minPrice); err != nil {
		return nil, err
	}
	return &Config{
		Admins:    []domain.Identity{admin},
		FeeBps:    feeBps,
		MinPrice:  minPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func validateFees(feeBps uint16, minPrice domain.Amount) error {
	if feeBps > BpsDenominator {
		return dErrors.New(dErrors.CodeInvariantViolation, "fee_bps must be at most 10000")
	}
	if minPrice == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "min_price must be positive")
	}
	return nil
}

func (c *Config) IsAdmin(id domain.Identity) bool {
	return slices.Contains(c.Admins, id)
}

// AddAdmin appends an admin. Duplicates are a conflict; a full set is an
// invariant violation.
func (c *Config) AddAdmin(id domain.Identity, now time.Time) error {
	if c.IsAdmin(id) {
		return dErrors.New(dErrors.CodeConflict, "identity is already an admin")
	}
	if len(c.Admins) >= MaxAdmins {
		return dErrors.New(dErrors.CodeInvariantViolation, "admin set is full")
	}
	c.Admins = append(c.Admins, id)
	c.touch(now)
	return nil
}

// UpdateFees applies new fee parameters.
func (c *Config) UpdateFees(feeBps uint16, minPrice domain.Amount, now time.Time) error {
	if err := validateFees(feeBps, minPrice); err != nil {
		return err
	}
	c.FeeBps = feeBps
	c.MinPrice = minPrice
	c.touch(now)
	return nil
}

func (c *Config) touch(now time.Time) {
	c.Version++
	c.UpdatedAt = now
}

// Fee is the platform share of price, rounded down. The product is computed
// in 128 bits so large prices cannot overflow.
func (c *Config) Fee(price domain.Amount) domain.Amount {
	return domain.Amount(mulDiv(uint64(price), uint64(c.FeeBps), BpsDenominator))
}

// Vault is the platform fee sink record. Its balance is held by the ledger.
type Vault struct {
	Config    domain.Address `json:"config"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Vault) RecordKind() ledger.Kind { return KindVault }

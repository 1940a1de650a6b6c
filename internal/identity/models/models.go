package models

import (
	"time"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/validation"
)

const (
	KindProfile ledger.Kind = "user_profile"
	KindVault   ledger.Kind = "escrow_vault"
)

// ProfileAddress locates the profile owned by id.
func ProfileAddress(id domain.Identity) domain.Address {
	return ledger.Derive(ledger.Tag("user"), ledger.IdentitySeed(id))
}

// VaultAddress locates the escrow vault that collects id's sale proceeds.
func VaultAddress(id domain.Identity) domain.Address {
	return ledger.Derive(ledger.Tag("vault"), ledger.IdentitySeed(id))
}

// Counters tracks achievements a badge claim is checked against.
type Counters struct {
	Papers    uint32 `json:"papers"`
	Purchases uint32 `json:"purchases"`
	Reviews   uint32 `json:"reviews"`
}

// Profile is a registered participant.
//
// Invariants:
//   - Name is 1..64 characters, Title is 1..32 characters, neither holds emoji
//   - Counters only grow
type Profile struct {
	Owner     domain.Identity `json:"owner"`
	Name      string          `json:"name"`
	Title     string          `json:"title"`
	Counters  Counters        `json:"counters"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Profile) RecordKind() ledger.Kind { return KindProfile }

// NewProfile validates and builds a profile.
func NewProfile(owner domain.Identity, name, title string, now time.Time) (*Profile, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "owner identity is required")
	}
	p := &Profile{Owner: owner, CreatedAt: now, UpdatedAt: now}
	if err := p.Rename(name, title, now); err != nil {
		return nil, err
	}
	return p, nil
}

// Rename validates and applies both fields.
func (p *Profile) Rename(name, title string, now time.Time) error {
	name, err := validation.Text("name", name, validation.MaxNameLength)
	if err != nil {
		return err
	}
	title, err = validation.Text("title", title, validation.MaxTitleLength)
	if err != nil {
		return err
	}
	p.Name = name
	p.Title = title
	p.UpdatedAt = now
	return nil
}

// Vault is a user escrow vault. Its balance is held by the ledger.
type Vault struct {
	Owner     domain.Identity `json:"owner"`
	CreatedAt time.Time       `json:"created_at"`
}

func (Vault) RecordKind() ledger.Kind { return KindVault }

// Achievement labels accepted by badge claims.
const (
	AchievementPapers    = "papers"
	AchievementPurchases = "purchases"
	AchievementReviews   = "reviews"
)

// Counter returns the counter named by label.
func (c Counters) Counter(label string) (uint32, bool) {
	switch label {
	case AchievementPapers:
		return c.Papers, true
	case AchievementPurchases:
		return c.Purchases, true
	case AchievementReviews:
		return c.Reviews, true
	}
	return 0, false
}

package models

import (
	"fmt"
	"time"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/validation"
)

const KindPublication ledger.Kind = "publication"

// Ref names a publication by its owner and owner-chosen id.
type Ref struct {
	Owner domain.Identity `json:"owner"`
	ID    uint64          `json:"id"`
}

// Address derives the publication's ledger address.
func (r Ref) Address() domain.Address {
	return ledger.Derive(ledger.Tag("publication"), ledger.IdentitySeed(r.Owner), ledger.U64Seed(r.ID))
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d", r.Owner, r.ID)
}

// Verdict is a reviewer's judgement.
type Verdict string

const (
	VerdictApproved        Verdict = "approved"
	VerdictRejected        Verdict = "rejected"
	VerdictReviewRequested Verdict = "review_requested"
)

// ParseVerdict accepts exactly the three known verdicts.
func ParseVerdict(s string) (Verdict, error) {
	switch v := Verdict(s); v {
	case VerdictApproved, VerdictRejected, VerdictReviewRequested:
		return v, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown verdict: "+s)
}

// Tally counts current verdicts on a publication.
type Tally struct {
	Approved        uint32 `json:"approved"`
	Rejected        uint32 `json:"rejected"`
	ReviewRequested uint32 `json:"review_requested"`
}

func (t *Tally) slot(v Verdict) *uint32 {
	switch v {
	case VerdictApproved:
		return &t.Approved
	case VerdictRejected:
		return &t.Rejected
	case VerdictReviewRequested:
		return &t.ReviewRequested
	}
	return nil
}

func (t *Tally) Add(v Verdict) {
	if p := t.slot(v); p != nil {
		*p++
	}
}

// Move shifts one count from old to new.
func (t *Tally) Move(old, new Verdict) {
	if old == new {
		return
	}
	if p := t.slot(old); p != nil && *p > 0 {
		*p--
	}
	t.Add(new)
}

// Publication is a priced document owned by one identity.
//
// Invariants:
//   - Price is at least the platform minimum
//   - MetadataURL and ContentURI are valid locators of at most 200 characters
//   - Listed starts true; a rejection sets it false; only the owner sets it true
type Publication struct {
	Owner       domain.Identity `json:"owner"`
	ID          uint64          `json:"id"`
	MetadataURL string          `json:"metadata_url"`
	ContentURI  string          `json:"content_uri"`
	Price       domain.Amount   `json:"price"`
	Listed      bool            `json:"listed"`
	Version     uint32          `json:"version"`
	Sales       uint64          `json:"sales"`
	Reviews     uint32          `json:"reviews"`
	Tally       Tally           `json:"tally"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Publication) RecordKind() ledger.Kind { return KindPublication }

func (p *Publication) Ref() Ref { return Ref{Owner: p.Owner, ID: p.ID} }

// NewPublication validates and builds a listed publication at version 0.
func NewPublication(ref Ref, metadataURL, contentURI string, price, minPrice domain.Amount, now time.Time) (*Publication, error) {
	p := &Publication{
		Owner:     ref.Owner,
		ID:        ref.ID,
		Listed:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.apply(metadataURL, contentURI, price, minPrice); err != nil {
		return nil, err
	}
	return p, nil
}

// Edit carries already-resolved values for every editable field.
type Edit struct {
	MetadataURL string
	ContentURI  string
	Price       domain.Amount
	Listed      bool
	Version     uint32
}

// Editable returns the current values as an Edit.
func (p *Publication) Editable() Edit {
	return Edit{
		MetadataURL: p.MetadataURL,
		ContentURI:  p.ContentURI,
		Price:       p.Price,
		Listed:      p.Listed,
		Version:     p.Version,
	}
}

// ApplyEdit validates e and writes it. e.Price must be at least minPrice. On
// error p is unchanged.
func (p *Publication) ApplyEdit(e Edit, minPrice domain.Amount, now time.Time) error {
	next := *p
	if err := next.apply(e.MetadataURL, e.ContentURI, e.Price, minPrice); err != nil {
		return err
	}
	next.Listed = e.Listed
	next.Version = e.Version
	next.UpdatedAt = now
	*p = next
	return nil
}

func (p *Publication) apply(metadataURL, contentURI string, price, minPrice domain.Amount) error {
	var err error
	if p.MetadataURL, err = validation.URL("metadata_url", metadataURL); err != nil {
		return err
	}
	if p.ContentURI, err = validation.URI("content_uri", contentURI); err != nil {
		return err
	}
	if price < minPrice {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("price must be at least %d", minPrice))
	}
	p.Price = price
	return nil
}

// RecordVerdict adds a first verdict. It reports whether the publication was
// delisted by it.
func (p *Publication) RecordVerdict(v Verdict, now time.Time) bool {
	p.Tally.Add(v)
	p.Reviews++
	p.UpdatedAt = now
	return p.delistOn(v)
}

// ChangeVerdict moves a reviewer's verdict. It reports whether the
// publication was delisted by it. Moving away from Rejected never relists.
func (p *Publication) ChangeVerdict(old, new Verdict, now time.Time) bool {
	p.Tally.Move(old, new)
	p.UpdatedAt = now
	return p.delistOn(new)
}

func (p *Publication) delistOn(v Verdict) bool {
	if v != VerdictRejected || !p.Listed {
		return false
	}
	p.Listed = false
	return true
}

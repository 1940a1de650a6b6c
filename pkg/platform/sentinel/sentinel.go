package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Ledger substrates and registries
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about records and balances, not validation
// failures:
// - ErrNotFound: no record exists at the address
// - ErrConflict: a record already exists at the address
// - ErrInsufficientFunds: the source balance cannot cover a transfer
// - ErrInvalidState: the stored record has the wrong kind for the request
// - ErrUnavailable: the substrate could not be reached or locked in time
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnavailable       = errors.New("unavailable")
)

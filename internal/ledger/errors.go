package ledger

import (
	"errors"

	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/sentinel"
)

// The translators below turn substrate sentinels into coded domain errors.
// Errors that already carry a code pass through unchanged.

// LoadError maps ErrNotFound to a not-found error naming what.
func LoadError(err error, what string) error {
	if err == nil || isCoded(err) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}

// InsertError maps ErrConflict to an already-exists conflict naming what.
func InsertError(err error, what string) error {
	if err == nil || isCoded(err) {
		return err
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, what+" already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create "+what)
}

// SaveError maps ErrNotFound to a not-found error naming what.
func SaveError(err error, what string) error {
	if err == nil || isCoded(err) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update "+what)
}

// TransferError maps ErrInsufficientFunds to a coded insufficient-funds error.
func TransferError(err error) error {
	if err == nil || isCoded(err) {
		return err
	}
	if errors.Is(err, sentinel.ErrInsufficientFunds) {
		return dErrors.New(dErrors.CodeInsufficientFunds, "insufficient funds")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to move funds")
}

func isCoded(err error) bool {
	var de *dErrors.Error
	return errors.As(err, &de)
}

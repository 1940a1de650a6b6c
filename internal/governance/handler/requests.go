package handler

import (
	"strings"

	"paperledger/internal/governance/service"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/option"
)

// FeeRequest is the body of POST /platform/initialize and PATCH /platform/config.
type FeeRequest struct {
	FeeBps   option.Option[uint16]        `json:"fee_bps"`
	MinPrice option.Option[domain.Amount] `json:"min_price"`
}

// Validate accepts any combination; range checks happen in the service.
func (r *FeeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func (r *FeeRequest) Params() service.FeeParams {
	return service.FeeParams{FeeBps: r.FeeBps, MinPrice: r.MinPrice}
}

// AddAdminRequest is the body of POST /platform/admins.
type AddAdminRequest struct {
	Admin string `json:"admin"`

	parsedAdmin domain.Identity
}

func (r *AddAdminRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Admin = strings.TrimSpace(r.Admin)
	if r.Admin == "" {
		return dErrors.New(dErrors.CodeValidation, "admin is required")
	}
	id, err := domain.ParseIdentity(r.Admin)
	if err != nil {
		return err
	}
	r.parsedAdmin = id
	return nil
}

func (r *AddAdminRequest) ParsedAdmin() domain.Identity {
	return r.parsedAdmin
}

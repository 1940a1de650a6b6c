package handler

import (
	"paperledger/internal/identity/service"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/option"
)

// RegisterRequest is the body of POST /users. Field rules are enforced by
// the profile model.
type RegisterRequest struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// EditProfileRequest is the body of PATCH /users/{identity}.
type EditProfileRequest struct {
	Name  option.Option[string] `json:"name"`
	Title option.Option[string] `json:"title"`
}

func (r *EditProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func (r *EditProfileRequest) Patch() service.ProfilePatch {
	return service.ProfilePatch{Name: r.Name, Title: r.Title}
}

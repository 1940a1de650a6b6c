package handler

import (
	"paperledger/internal/publication/service"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/option"
)

// PublishRequest is the body of POST /publications.
type PublishRequest struct {
	ID          uint64        `json:"id"`
	MetadataURL string        `json:"metadata_url"`
	ContentURI  string        `json:"content_uri"`
	Price       domain.Amount `json:"price"`
}

func (r *PublishRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Price == 0 {
		return dErrors.New(dErrors.CodeValidation, "price is required")
	}
	return nil
}

func (r *PublishRequest) ToService() service.PublishRequest {
	return service.PublishRequest{
		ID:          r.ID,
		MetadataURL: r.MetadataURL,
		ContentURI:  r.ContentURI,
		Price:       r.Price,
	}
}

// EditRequest is the body of PATCH /publications/{owner}/{id}.
type EditRequest struct {
	MetadataURL option.Option[string]        `json:"metadata_url"`
	ContentURI  option.Option[string]        `json:"content_uri"`
	Price       option.Option[domain.Amount] `json:"price"`
	Listed      option.Option[bool]          `json:"listed"`
	Version     option.Option[uint32]        `json:"version"`
}

func (r *EditRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func (r *EditRequest) Patch() service.Patch {
	return service.Patch{
		MetadataURL: r.MetadataURL,
		ContentURI:  r.ContentURI,
		Price:       r.Price,
		Listed:      r.Listed,
		Version:     r.Version,
	}
}

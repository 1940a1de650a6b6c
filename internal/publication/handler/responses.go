package handler

import (
	"time"

	"paperledger/internal/publication/models"
	"paperledger/pkg/domain"
)

type PublicationResponse struct {
	Address     domain.Address  `json:"address"`
	Owner       domain.Identity `json:"owner"`
	ID          uint64          `json:"id"`
	MetadataURL string          `json:"metadata_url"`
	ContentURI  string          `json:"content_uri"`
	Price       domain.Amount   `json:"price"`
	Listed      bool            `json:"listed"`
	Version     uint32          `json:"version"`
	Sales       uint64          `json:"sales"`
	Reviews     uint32          `json:"reviews"`
	Tally       models.Tally    `json:"tally"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func FromPublication(p *models.Publication) *PublicationResponse {
	return &PublicationResponse{
		Address:     p.Ref().Address(),
		Owner:       p.Owner,
		ID:          p.ID,
		MetadataURL: p.MetadataURL,
		ContentURI:  p.ContentURI,
		Price:       p.Price,
		Listed:      p.Listed,
		Version:     p.Version,
		Sales:       p.Sales,
		Reviews:     p.Reviews,
		Tally:       p.Tally,
		UpdatedAt:   p.UpdatedAt,
	}
}

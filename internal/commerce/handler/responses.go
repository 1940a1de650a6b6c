package handler

import (
	"time"

	"paperledger/internal/commerce/models"
	pubmodels "paperledger/internal/publication/models"
	"paperledger/pkg/domain"
)

type ReceiptResponse struct {
	Address     domain.Address  `json:"address"`
	Buyer       domain.Identity `json:"buyer"`
	Publication pubmodels.Ref   `json:"publication"`
	Price       domain.Amount   `json:"price"`
	Fee         domain.Amount   `json:"fee"`
	Proceeds    domain.Amount   `json:"proceeds"`
	CreatedAt   time.Time       `json:"created_at"`
}

func FromReceipt(r *models.Receipt) *ReceiptResponse {
	return &ReceiptResponse{
		Address:     r.Address(),
		Buyer:       r.Buyer,
		Publication: r.Publication,
		Price:       r.Price,
		Fee:         r.Fee,
		Proceeds:    r.Proceeds,
		CreatedAt:   r.CreatedAt,
	}
}

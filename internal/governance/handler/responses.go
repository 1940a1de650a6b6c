package handler

import (
	"time"

	"paperledger/internal/governance/models"
	"paperledger/pkg/domain"
)

// ConfigResponse is the platform configuration as served over HTTP.
type ConfigResponse struct {
	Address      domain.Address    `json:"address"`
	Vault        domain.Address    `json:"vault"`
	Admins       []domain.Identity `json:"admins"`
	FeeBps       uint16            `json:"fee_bps"`
	MinPrice     domain.Amount     `json:"min_price"`
	VaultBalance *domain.Amount    `json:"vault_balance,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func FromConfig(cfg *models.Config, balance *domain.Amount) *ConfigResponse {
	return &ConfigResponse{
		Address:      models.ConfigAddress(),
		Vault:        models.VaultAddress(),
		Admins:       cfg.Admins,
		FeeBps:       cfg.FeeBps,
		MinPrice:     cfg.MinPrice,
		VaultBalance: balance,
		UpdatedAt:    cfg.UpdatedAt,
	}
}

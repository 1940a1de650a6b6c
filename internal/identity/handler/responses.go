package handler

import (
	"time"

	"paperledger/internal/identity/models"
	"paperledger/internal/identity/service"
	"paperledger/pkg/domain"
)

type ProfileResponse struct {
	Identity  domain.Identity `json:"identity"`
	Name      string          `json:"name"`
	Title     string          `json:"title"`
	Counters  models.Counters `json:"counters"`
	Vault     domain.Address  `json:"vault"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func FromProfile(p *models.Profile) *ProfileResponse {
	return &ProfileResponse{
		Identity:  p.Owner,
		Name:      p.Name,
		Title:     p.Title,
		Counters:  p.Counters,
		Vault:     models.VaultAddress(p.Owner),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type BalancesResponse struct {
	Vault         domain.Address `json:"vault"`
	VaultBalance  domain.Amount  `json:"vault_balance"`
	Wallet        domain.Address `json:"wallet"`
	WalletBalance domain.Amount  `json:"wallet_balance"`
}

func FromBalances(id domain.Identity, b *service.Balances) *BalancesResponse {
	return &BalancesResponse{
		Vault:         models.VaultAddress(id),
		VaultBalance:  b.Vault,
		Wallet:        id.Wallet(),
		WalletBalance: b.Wallet,
	}
}

// Package registry issues non-fungible badge assets. The marketplace treats it
// as an external system: collections and assets are addressed by keys the
// caller derives, so repeating a call with the same key returns the original
// result instead of minting twice.
package registry

import (
	"context"
	"time"

	"paperledger/pkg/domain"
)

// CollectionSpec describes a badge category to create.
type CollectionSpec struct {
	Key       string
	Name      string
	URI       string
	Authority domain.Address
}

// Collection is a created category.
type Collection struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	URI       string         `json:"uri"`
	Authority domain.Address `json:"authority"`
	CreatedAt time.Time      `json:"created_at"`
}

// AssetSpec describes one badge to mint into a collection.
type AssetSpec struct {
	Key        string
	Collection string
	Owner      domain.Identity
	Name       string
	URI        string
	Attributes map[string]string
	Frozen     bool
}

// Asset is a minted badge.
type Asset struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Owner      domain.Identity   `json:"owner"`
	Name       string            `json:"name"`
	URI        string            `json:"uri"`
	Attributes map[string]string `json:"attributes"`
	Frozen     bool              `json:"frozen"`
	MintedAt   time.Time         `json:"minted_at"`
}

// AssetRegistry creates collections and mints assets into them. MintAsset
// fails with sentinel.ErrNotFound when the collection does not exist.
type AssetRegistry interface {
	CreateCollection(ctx context.Context, spec CollectionSpec) (*Collection, error)
	MintAsset(ctx context.Context, spec AssetSpec) (*Asset, error)
}

package registry

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"paperledger/pkg/platform/sentinel"
)

// InMemory is a process-local AssetRegistry.
type InMemory struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	assets      map[string]*Asset
	now         func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		collections: make(map[string]*Collection),
		assets:      make(map[string]*Asset),
		now:         time.Now,
	}
}

func (r *InMemory) CreateCollection(_ context.Context, spec CollectionSpec) (*Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.collections[spec.Key]; ok {
		c := *existing
		return &c, nil
	}
	c := &Collection{
		ID:        spec.Key,
		Name:      spec.Name,
		URI:       spec.URI,
		Authority: spec.Authority,
		CreatedAt: r.now().UTC(),
	}
	r.collections[spec.Key] = c
	out := *c
	return &out, nil
}

func (r *InMemory) MintAsset(_ context.Context, spec AssetSpec) (*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.assets[spec.Key]; ok {
		return cloneAsset(existing), nil
	}
	if _, ok := r.collections[spec.Collection]; !ok {
		return nil, fmt.Errorf("collection %s: %w", spec.Collection, sentinel.ErrNotFound)
	}
	a := &Asset{
		ID:         spec.Key,
		Collection: spec.Collection,
		Owner:      spec.Owner,
		Name:       spec.Name,
		URI:        spec.URI,
		Attributes: maps.Clone(spec.Attributes),
		Frozen:     spec.Frozen,
		MintedAt:   r.now().UTC(),
	}
	r.assets[spec.Key] = a
	return cloneAsset(a), nil
}

// Asset returns a minted asset by id.
func (r *InMemory) Asset(id string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[id]
	if !ok {
		return nil, false
	}
	return cloneAsset(a), true
}

func cloneAsset(a *Asset) *Asset {
	out := *a
	out.Attributes = maps.Clone(a.Attributes)
	return &out
}

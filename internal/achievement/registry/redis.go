package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"paperledger/pkg/platform/sentinel"
)

const defaultKeyPrefix = "assets"

// Redis stores collections and assets as JSON values. SETNX makes both
// operations idempotent on their key.
type Redis struct {
	client *redis.Client
	prefix string
}

type RedisOption func(*Redis)

func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Redis) collectionKey(id string) string { return r.prefix + ":collection:" + id }

func (r *Redis) assetKey(id string) string { return r.prefix + ":asset:" + id }

func (r *Redis) CreateCollection(ctx context.Context, spec CollectionSpec) (*Collection, error) {
	c := &Collection{
		ID:        spec.Key,
		Name:      spec.Name,
		URI:       spec.URI,
		Authority: spec.Authority,
		CreatedAt: time.Now().UTC(),
	}
	var existing Collection
	if err := r.putOnce(ctx, r.collectionKey(spec.Key), c, &existing); err != nil {
		if errors.Is(err, errExists) {
			return &existing, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *Redis) MintAsset(ctx context.Context, spec AssetSpec) (*Asset, error) {
	n, err := r.client.Exists(ctx, r.collectionKey(spec.Collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("collection %s: %w", spec.Collection, sentinel.ErrNotFound)
	}
	a := &Asset{
		ID:         spec.Key,
		Collection: spec.Collection,
		Owner:      spec.Owner,
		Name:       spec.Name,
		URI:        spec.URI,
		Attributes: spec.Attributes,
		Frozen:     spec.Frozen,
		MintedAt:   time.Now().UTC(),
	}
	var existing Asset
	if err := r.putOnce(ctx, r.assetKey(spec.Key), a, &existing); err != nil {
		if errors.Is(err, errExists) {
			return &existing, nil
		}
		return nil, err
	}
	return a, nil
}

var errExists = errors.New("exists")

// putOnce stores v at key unless something is already there, in which case
// the stored value is decoded into existing and errExists is returned.
func (r *Redis) putOnce(ctx context.Context, key string, v, existing any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	ok, err := r.client.SetNX(ctx, key, raw, 0).Result()
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	if ok {
		return nil
	}
	stored, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(stored, existing); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return errExists
}

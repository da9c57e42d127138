package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/atsprobe/internal/model"
)

const (
	redisAccountPrefix = "atsprobe:account:"
	redisAccountIndex  = "atsprobe:accounts"
)

// RedisAccountCache keeps confirmed provider accounts in Redis as JSON values.
// Entries expire after the TTL so stale accounts get re-probed; a zero TTL
// keeps them forever.
type RedisAccountCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ model.AccountCache = (*RedisAccountCache)(nil)

type redisAccount struct {
	CompanyDomain string    `json:"company_domain"`
	Provider      string    `json:"provider"`
	Slug          string    `json:"slug"`
	JobCount      int       `json:"job_count"`
	LastCheckedAt time.Time `json:"last_checked_at"`
	LastSyncedAt  time.Time `json:"last_synced_at"`
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// NewRedisAccountCache wraps a connected client.
func NewRedisAccountCache(rdb *redis.Client, ttl time.Duration) *RedisAccountCache {
	return &RedisAccountCache{rdb: rdb, ttl: ttl}
}

// GetAccount returns the cached account for a domain, or nil when there is none.
func (c *RedisAccountCache) GetAccount(ctx context.Context, companyDomain string) (*model.ProviderAccount, error) {
	raw, err := c.rdb.Get(ctx, redisAccountPrefix+companyDomain).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading account for %s: %w", companyDomain, err)
	}
	var ra redisAccount
	if err := json.Unmarshal(raw, &ra); err != nil {
		return nil, fmt.Errorf("decoding account for %s: %w", companyDomain, err)
	}
	a := ra.toModel()
	return &a, nil
}

// PutAccount stores the account and indexes its domain for listing.
func (c *RedisAccountCache) PutAccount(ctx context.Context, a model.ProviderAccount) error {
	raw, err := json.Marshal(redisAccount{
		CompanyDomain: a.CompanyDomain,
		Provider:      string(a.Provider),
		Slug:          a.Slug,
		JobCount:      a.JobCount,
		LastCheckedAt: a.LastCheckedAt.UTC(),
		LastSyncedAt:  a.LastSyncedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding account for %s: %w", a.CompanyDomain, err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, redisAccountPrefix+a.CompanyDomain, raw, c.ttl)
	pipe.SAdd(ctx, redisAccountIndex, a.CompanyDomain)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving account for %s: %w", a.CompanyDomain, err)
	}
	return nil
}

// ListAccounts returns every unexpired account ordered by domain. Index
// entries whose value has expired are removed along the way.
func (c *RedisAccountCache) ListAccounts(ctx context.Context) ([]model.ProviderAccount, error) {
	domains, err := c.rdb.SMembers(ctx, redisAccountIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	sort.Strings(domains)

	var accounts []model.ProviderAccount
	var expired []any
	for _, d := range domains {
		a, err := c.GetAccount(ctx, d)
		if err != nil {
			return nil, err
		}
		if a == nil {
			expired = append(expired, d)
			continue
		}
		accounts = append(accounts, *a)
	}
	if len(expired) > 0 {
		if err := c.rdb.SRem(ctx, redisAccountIndex, expired...).Err(); err != nil {
			return nil, fmt.Errorf("pruning account index: %w", err)
		}
	}
	return accounts, nil
}

func (ra redisAccount) toModel() model.ProviderAccount {
	return model.ProviderAccount{
		CompanyDomain: ra.CompanyDomain,
		Provider:      model.Provider(ra.Provider),
		Slug:          ra.Slug,
		JobCount:      ra.JobCount,
		LastCheckedAt: ra.LastCheckedAt,
		LastSyncedAt:  ra.LastSyncedAt,
	}
}

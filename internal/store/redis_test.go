package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/amishk599/atsprobe/internal/model"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisAccountCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisAccountCache(rdb, ttl), mr
}

func TestRedisAccountCache(t *testing.T) {
	c, _ := newTestRedisCache(t, 0)
	runAccountCacheSuite(t, c)
}

func TestRedisAccountCache_ExpiredEntriesDropOut(t *testing.T) {
	c, mr := newTestRedisCache(t, time.Hour)
	ctx := context.Background()

	if err := c.PutAccount(ctx, model.ProviderAccount{CompanyDomain: "acme.com", Provider: model.ProviderGem, Slug: "acme"}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	if ttl := mr.TTL(redisAccountPrefix + "acme.com"); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)

	acct, err := c.GetAccount(ctx, "acme.com")
	if err != nil || acct != nil {
		t.Fatalf("GetAccount after expiry = %+v, %v; want nil", acct, err)
	}
	all, err := c.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("accounts = %+v, want none", all)
	}
	if ok, _ := mr.SIsMember(redisAccountIndex, "acme.com"); ok {
		t.Error("expected expired domain to be removed from the index")
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error for malformed redis url")
	}
}

func TestNewRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	rdb.Close()
}

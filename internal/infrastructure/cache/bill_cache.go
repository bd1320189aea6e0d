// Package cache provides Redis-backed read caches.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"shopledger/internal/domain/billing"
	"shopledger/pkg/logger"
)

// BillHistoryCache caches month listings of bill history in Redis.
// All operations are best-effort: a Redis fault degrades to a database read.
type BillHistoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBillHistoryCache creates a cache with the given TTL.
func NewBillHistoryCache(client *redis.Client, ttl time.Duration) *BillHistoryCache {
	return &BillHistoryCache{client: client, ttl: ttl}
}

func monthKey(month string) string {
	return "billhistory:month:" + month
}

// GetMonth returns the cached entries for a "YYYY-MM" key.
func (c *BillHistoryCache) GetMonth(ctx context.Context, month string) ([]billing.Entry, bool) {
	data, err := c.client.Get(ctx, monthKey(month)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx, "bill cache read failed", "month", month, "error", err)
		}
		return nil, false
	}

	var entries []billing.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn(ctx, "bill cache payload corrupt, dropping", "month", month, "error", err)
		c.InvalidateMonth(ctx, month)
		return nil, false
	}

	return entries, true
}

// SetMonth stores entries for a "YYYY-MM" key.
func (c *BillHistoryCache) SetMonth(ctx context.Context, month string, entries []billing.Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		logger.Warn(ctx, "bill cache marshal failed", "month", month, "error", err)
		return
	}
	if err := c.client.Set(ctx, monthKey(month), data, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "bill cache write failed", "month", month, "error", err)
	}
}

// InvalidateMonth drops the cached listing for a "YYYY-MM" key.
func (c *BillHistoryCache) InvalidateMonth(ctx context.Context, month string) {
	if err := c.client.Del(ctx, monthKey(month)).Err(); err != nil {
		logger.Warn(ctx, "bill cache invalidation failed", "month", month, "error", err)
	}
}

// Ensure interface compliance.
var _ billing.HistoryCache = (*BillHistoryCache)(nil)

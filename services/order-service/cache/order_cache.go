package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/udofia2/migrating-to-microservice/services/order-service/models"
)

const (
	orderCachePrefix = "order:detail:"

	// Short TTL: the payment continuation can change an order shortly after
	// creation, so stale reads must age out quickly even if invalidation is
	// missed.
	defaultOrderTTL = 30 * time.Second
)

// OrderCache caches single-order lookups by order id in Redis.
type OrderCache struct {
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewOrderCache(rdb *redis.Client, log *zap.Logger) *OrderCache {
	return &OrderCache{redis: rdb, ttl: defaultOrderTTL, log: log}
}

// Get returns the cached order for the id, if present.
func (oc *OrderCache) Get(ctx context.Context, orderID string) (*models.Order, bool) {
	cached, err := oc.redis.Get(ctx, orderCachePrefix+orderID).Result()
	if err != nil {
		if err != redis.Nil {
			oc.log.Warn("Order cache read failed", zap.String("order_id", orderID), zap.Error(err))
		}
		return nil, false
	}

	var order models.Order
	if err := json.Unmarshal([]byte(cached), &order); err != nil {
		oc.log.Warn("Failed to unmarshal cached order", zap.String("order_id", orderID), zap.Error(err))
		return nil, false
	}
	return &order, true
}

// SetAsync caches an order in the background.
func (oc *OrderCache) SetAsync(orderID string, order *models.Order) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		payload, err := json.Marshal(order)
		if err != nil {
			oc.log.Warn("Failed to marshal order for cache", zap.String("order_id", orderID), zap.Error(err))
			return
		}
		if err := oc.redis.Set(bgCtx, orderCachePrefix+orderID, payload, oc.ttl).Err(); err != nil {
			oc.log.Warn("Failed to cache order", zap.String("order_id", orderID), zap.Error(err))
		}
	}()
}

// Invalidate drops the cached entry for an order in the background.
func (oc *OrderCache) Invalidate(orderID string) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := oc.redis.Del(bgCtx, orderCachePrefix+orderID).Err(); err != nil {
			oc.log.Warn("Failed to invalidate order cache", zap.String("order_id", orderID), zap.Error(err))
		}
	}()
}

package playbilling

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minilingo/minilingo/internal/checkout/domain"
)

const productKeyPrefix = "minilingo:product:"

// ProductCachingChannel decorates a billing channel with a Redis TTL
// cache for product metadata (titles, localized prices). Entitlement
// state is never cached here; only the product listing, which is slow to
// load from the platform store and safe to serve slightly stale.
type ProductCachingChannel struct {
	domain.Channel

	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewProductCachingChannel wraps inner with a product cache. A nil Redis
// client degrades to a transparent passthrough.
func NewProductCachingChannel(inner domain.Channel, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *ProductCachingChannel {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ProductCachingChannel{
		Channel: inner,
		rdb:     rdb,
		ttl:     ttl,
		logger:  logger,
	}
}

// GetProducts serves product metadata from Redis when every requested ID
// is cached, falling back to the underlying channel (and repopulating the
// cache) otherwise.
func (c *ProductCachingChannel) GetProducts(ctx context.Context, productIDs []string) ([]domain.Product, error) {
	if c.rdb == nil || len(productIDs) == 0 {
		return c.Channel.GetProducts(ctx, productIDs)
	}

	if cached, ok := c.lookup(ctx, productIDs); ok {
		return cached, nil
	}

	products, err := c.Channel.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, products)
	return products, nil
}

func (c *ProductCachingChannel) lookup(ctx context.Context, productIDs []string) ([]domain.Product, bool) {
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = productKeyPrefix + id
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Debug("product cache lookup failed", "error", err)
		return nil, false
	}

	out := make([]domain.Product, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, false // at least one miss, refetch everything
		}
		var p domain.Product
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, false
		}
		out = append(out, p)
	}
	return out, true
}

func (c *ProductCachingChannel) fill(ctx context.Context, products []domain.Product) {
	for _, p := range products {
		raw, err := json.Marshal(p)
		if err != nil {
			continue
		}
		if err := c.rdb.Set(ctx, productKeyPrefix+p.ProductID, raw, c.ttl).Err(); err != nil {
			c.logger.Debug("product cache fill failed", "product_id", p.ProductID, "error", err)
			return
		}
	}
}

package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stocks-ledger/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Cached serves display quotes from Redis and falls through to next on a miss.
// Trades must use an uncached provider so the snapshot price is fresh.
type Cached struct {
	next Provider
	rdb  *redis.Client
	ttl  time.Duration
	log  *logrus.Entry
}

func NewCached(next Provider, rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *Cached {
	return &Cached{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.WithField("component", "quote_cache"),
	}
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("stock:%s:quote", symbol)
}

func (c *Cached) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = Normalize(symbol)
	key := cacheKey(symbol)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var q models.Quote
		if jerr := json.Unmarshal(raw, &q); jerr == nil {
			return q, nil
		}
		c.log.WithField("symbol", symbol).Warn("dropping undecodable cached quote")
	case err != redis.Nil:
		c.log.WithError(err).WithField("symbol", symbol).Warn("quote cache read failed")
	}

	q, err := c.next.Lookup(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}

	data, err := json.Marshal(q)
	if err == nil {
		err = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.log.WithError(err).WithField("symbol", symbol).Warn("quote cache write failed")
	}
	return q, nil
}

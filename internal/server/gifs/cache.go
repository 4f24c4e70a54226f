package gifs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropnote/dropnote/internal/logging"
	"github.com/dropnote/dropnote/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// Catalogue is what the transport layer consumes: the plain Service or its
// cached wrapper.
type Catalogue interface {
	Search(ctx context.Context, query string, limit int) ([]models.GifRecord, error)
	Trending(ctx context.Context, limit int) ([]models.GifRecord, error)
	Find(ctx context.Context, gifID string) (*models.GifRecord, error)
	Ping(ctx context.Context) map[string]bool
}

const (
	// listings are cheap to refetch and providers rotate them anyway
	listingTTL = 2 * time.Minute
	// a resolved gif is immutable upstream
	findTTL = time.Hour

	gifSearchPrefix   = "gif:search:"
	gifTrendingPrefix = "gif:trending:"
	gifFindPrefix     = "gif:find:"
)

// CachedCatalogue memoizes provider answers in redis. Cache trouble never
// fails a request: misses and errors both fall through to the inner
// catalogue.
type CachedCatalogue struct {
	inner  Catalogue
	rdb    *redis.Client
	logger logging.Logger
}

func NewCachedCatalogue(inner Catalogue, rdb *redis.Client, logger logging.Logger) *CachedCatalogue {
	return &CachedCatalogue{
		inner:  inner,
		rdb:    rdb,
		logger: logger.With("module", "gif_cache"),
	}
}

func (c *CachedCatalogue) Search(ctx context.Context, query string, limit int) ([]models.GifRecord, error) {
	key := fmt.Sprintf("%s%s:%d", gifSearchPrefix, query, limit)

	if cached, ok := c.getList(ctx, key); ok {
		return cached, nil
	}
	records, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.putList(ctx, key, records, listingTTL)
	return records, nil
}

func (c *CachedCatalogue) Trending(ctx context.Context, limit int) ([]models.GifRecord, error) {
	key := fmt.Sprintf("%s%d", gifTrendingPrefix, limit)

	if cached, ok := c.getList(ctx, key); ok {
		return cached, nil
	}
	records, err := c.inner.Trending(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.putList(ctx, key, records, listingTTL)
	return records, nil
}

func (c *CachedCatalogue) Find(ctx context.Context, gifID string) (*models.GifRecord, error) {
	key := gifFindPrefix + gifID

	data, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		record := &models.GifRecord{}
		if json.Unmarshal([]byte(data), record) == nil {
			return record, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn(ctx, "gif cache read failed", "error", err.Error())
	}

	record, err := c.inner.Find(ctx, gifID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(record); err == nil {
		if err := c.rdb.Set(ctx, key, data, findTTL).Err(); err != nil {
			c.logger.Warn(ctx, "gif cache write failed", "error", err.Error())
		}
	}
	return record, nil
}

func (c *CachedCatalogue) Ping(ctx context.Context) map[string]bool {
	return c.inner.Ping(ctx)
}

func (c *CachedCatalogue) getList(ctx context.Context, key string) ([]models.GifRecord, bool) {
	data, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(ctx, "gif cache read failed", "error", err.Error())
		}
		return nil, false
	}
	var records []models.GifRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, false
	}
	return records, true
}

func (c *CachedCatalogue) putList(ctx context.Context, key string, records []models.GifRecord, ttl time.Duration) {
	if len(records) == 0 {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn(ctx, "gif cache write failed", "error", err.Error())
	}
}

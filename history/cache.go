package history

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// Cache keeps the hand lists of recently read tables. Recording a hand
// through the cache drops that table's entry.
type Cache struct {
	cache *lru.Cache
	store Store

	// fill is held from a miss's read until its list is cached, so a
	// concurrent RecordHand drops the entry only after it is added.
	fill sync.Mutex
}

func NewCache(size int, store Store) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize cache")
	}
	return &Cache{
		cache: c,
		store: store,
	}, nil
}

func (c *Cache) RecordHand(ctx context.Context, record HandRecord) error {
	err := c.store.RecordHand(ctx, record)
	c.fill.Lock()
	c.cache.Remove(record.TableID)
	c.fill.Unlock()
	return err
}

func (c *Cache) TableHands(ctx context.Context, tableID string) ([]HandRecord, error) {
	v, exists := c.cache.Get(tableID)
	if exists {
		return v.([]HandRecord), nil
	}

	c.fill.Lock()
	defer c.fill.Unlock()
	if v, exists := c.cache.Get(tableID); exists {
		return v.([]HandRecord), nil
	}
	hands, err := c.store.TableHands(ctx, tableID)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to fetch hands of table %s", tableID)
	}
	c.cache.Add(tableID, hands)
	return hands, nil
}

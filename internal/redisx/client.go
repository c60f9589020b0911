package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyDedup marks an already-applied gateway notification: dedup:{source}:{id}.
const KeyDedup = "dedup:%s:%s"

var TTLDedup = 48 * time.Hour

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// DedupStore remembers processed notifications. It is a shortcut only;
// the database row state stays authoritative.
type DedupStore struct {
	rdb    *redis.Client
	source string
}

func NewDedupStore(rdb *redis.Client, source string) *DedupStore {
	return &DedupStore{rdb: rdb, source: source}
}

func (d *DedupStore) Seen(ctx context.Context, id string) (bool, error) {
	if d == nil || d.rdb == nil || id == "" {
		return false, nil
	}
	n, err := d.rdb.Exists(ctx, fmt.Sprintf(KeyDedup, d.source, id)).Result()
	return n > 0, err
}

func (d *DedupStore) Mark(ctx context.Context, id string) error {
	if d == nil || d.rdb == nil || id == "" {
		return nil
	}
	return d.rdb.Set(ctx, fmt.Sprintf(KeyDedup, d.source, id), "1", TTLDedup).Err()
}

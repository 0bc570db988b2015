// Package pagecache keeps whole rendered responses in redis for a short TTL.
package pagecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry 缓存的一次完整响应
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Store 基于 redis 的页面缓存
type Store struct {
	client *redis.Client

	hits   atomic.Int64
	misses atomic.Int64
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Key 组装缓存 key：<prefix>:<viewer>:<uri>
func Key(prefix, viewer, uri string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, viewer, uri)
}

// Get 未命中时返回 (nil, false, nil)
func (s *Store) Get(ctx context.Context, key string) (*Entry, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// 坏数据按未命中处理，下次写入会覆盖
		s.misses.Add(1)
		return nil, false, nil
	}
	s.hits.Add(1)
	return &e, true, nil
}

func (s *Store) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}

// Clear 删除 prefix 下的全部 key，返回删除数量
func (s *Store) Clear(ctx context.Context, prefix string) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+":*", 200).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// Counters 命中统计
type Counters struct {
	Hits   int64
	Misses int64
}

func (s *Store) Counters() Counters {
	return Counters{Hits: s.hits.Load(), Misses: s.misses.Load()}
}

func (s *Store) ResetCounters() {
	s.hits.Store(0)
	s.misses.Store(0)
}

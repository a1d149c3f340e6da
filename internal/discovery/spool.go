package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"neoagent/internal/pkg/logger"
)

// Spool is a durable, integer-keyed store bridging Workers (writers) and the
// Coordinator (sequential drainer). Keys are monotonic indices reserved by
// Workers via Next and written once via Save; the Coordinator drains them in
// order starting at index 1. Key 999999 is reserved for the Dictionary.
type Spool interface {
	// Next atomically reserves and returns the next unused index.
	Next() (int64, error)
	// Save stores payload under key, overwriting any previous value.
	Save(key int64, payload []byte) error
	// Restore retrieves the payload stored under key. Returns an error if absent.
	Restore(key int64) ([]byte, error)
	// Remove deletes the entry at key, if any.
	Remove(key int64) error
	// MaxIndex returns the highest index ever reserved via Next in this cycle.
	MaxIndex() (int64, error)
	// ResetCycle rearms the Next counter for the next block cycle, leaving
	// persisted entries (notably the Dictionary) untouched.
	ResetCycle() error
}

const spoolKeyPrefix = "neoagent:spool:"
const spoolCounterKey = "neoagent:spool:counter"

// RedisSpool is the primary Spool implementation, backed by a Redis instance
// whose entries outlive an agent restart. An interrupted job is not resumed
// from them; the next run starts a new job.
type RedisSpool struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// NewRedisSpool builds a Spool against an already-configured redis.Client.
// ttl, when non-zero, is applied to every stored entry so abandoned jobs
// self-clean; pass 0 to keep entries until explicitly removed.
func NewRedisSpool(client *redis.Client, ttl time.Duration) *RedisSpool {
	return &RedisSpool{client: client, ctx: context.Background(), ttl: ttl}
}

func spoolKey(key int64) string {
	return fmt.Sprintf("%s%d", spoolKeyPrefix, key)
}

func (s *RedisSpool) Next() (int64, error) {
	n, err := s.client.Incr(s.ctx, spoolCounterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("spool: reserve next index: %w", err)
	}
	return n, nil
}

func (s *RedisSpool) Save(key int64, payload []byte) error {
	if err := s.client.Set(s.ctx, spoolKey(key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("spool: save key %d: %w", key, err)
	}
	return nil
}

func (s *RedisSpool) Restore(key int64) ([]byte, error) {
	v, err := s.client.Get(s.ctx, spoolKey(key)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("spool: restore key %d: %w", key, err)
	}
	return v, nil
}

func (s *RedisSpool) Remove(key int64) error {
	if err := s.client.Del(s.ctx, spoolKey(key)).Err(); err != nil {
		return fmt.Errorf("spool: remove key %d: %w", key, err)
	}
	return nil
}

func (s *RedisSpool) MaxIndex() (int64, error) {
	v, err := s.client.Get(s.ctx, spoolCounterKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("spool: read counter: %w", err)
	}
	return v, nil
}

func (s *RedisSpool) ResetCycle() error {
	if err := s.client.Set(s.ctx, spoolCounterKey, 0, 0).Err(); err != nil {
		return fmt.Errorf("spool: reset counter: %w", err)
	}
	return nil
}

// MemorySpool is an in-process fallback used when no Redis endpoint is
// configured, and by tests. State does not survive an agent restart.
type MemorySpool struct {
	mu      sync.Mutex
	entries map[int64][]byte
	counter int64
}

// NewMemorySpool builds an in-memory Spool.
func NewMemorySpool() *MemorySpool {
	return &MemorySpool{entries: make(map[int64][]byte)}
}

func (s *MemorySpool) Next() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return s.counter, nil
}

func (s *MemorySpool) Save(key int64, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.entries[key] = cp
	return nil
}

func (s *MemorySpool) Restore(key int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("spool: key %d not found", key)
	}
	return v, nil
}

func (s *MemorySpool) Remove(key int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemorySpool) MaxIndex() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter, nil
}

func (s *MemorySpool) ResetCycle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter = 0
	return nil
}

// NewSpool builds a RedisSpool when addr is non-empty, reachable with a short
// ping, and falls back to a MemorySpool otherwise, logging the degradation.
func NewSpool(addr, password string, db int, ttl time.Duration) Spool {
	if addr == "" {
		logger.Info("spool: no redis address configured, using in-memory spool")
		return NewMemorySpool()
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnf("spool: redis at %s unreachable (%v), using in-memory spool", addr, err)
		return NewMemorySpool()
	}
	return NewRedisSpool(client, ttl)
}

// DrainSequential reads entries from the Spool in ascending key order
// starting at 1 up to MaxIndex, invoking fn for each present entry and
// removing it afterward. Gaps (a reserved index whose Save has not landed
// yet) are tolerated by skipping silently.
func DrainSequential(spool Spool, fn func(key int64, payload []byte) error) error {
	maxIdx, err := spool.MaxIndex()
	if err != nil {
		return fmt.Errorf("drain: read max index: %w", err)
	}
	indices := make([]int64, 0, maxIdx)
	for i := int64(1); i <= maxIdx; i++ {
		indices = append(indices, i)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, idx := range indices {
		payload, err := spool.Restore(idx)
		if err != nil {
			continue
		}
		if err := fn(idx, payload); err != nil {
			return fmt.Errorf("drain: handle key %d: %w", idx, err)
		}
		if err := spool.Remove(idx); err != nil {
			logger.Warnf("drain: failed to remove key %d after handling: %v", idx, err)
		}
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/manoj99-eng/krisco-backend/internal/config"
	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/offers"
)

const workingSetKeyPrefix = "offers:working_set:"

// NewWorkingSetStore returns the Redis-backed store when Redis is
// enabled, or an in-process store otherwise. The in-process fallback is
// fine for a single instance; multi-instance deployments need Redis so
// a session sticks to its working set.
func NewWorkingSetStore(cfg config.SessionConfig) (offers.Store, error) {
	if !cfg.Enabled {
		return NewMemoryWorkingSetStore(), nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisWorkingSetStore{client: client, ttl: ttl}, nil
}

type redisWorkingSetStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisWorkingSetStore) Get(ctx context.Context, token string) (*offers.WorkingSet, error) {
	payload, err := s.client.Get(ctx, workingSetKey(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var ws offers.WorkingSet
	if err := json.Unmarshal(payload, &ws); err != nil {
		return nil, fmt.Errorf("decode working set: %w", err)
	}
	return &ws, nil
}

func (s *redisWorkingSetStore) Put(ctx context.Context, ws *offers.WorkingSet) error {
	payload, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("encode working set: %w", err)
	}
	if err := s.client.Set(ctx, workingSetKey(ws.Token), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *redisWorkingSetStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, workingSetKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func workingSetKey(token string) string {
	return workingSetKeyPrefix + token
}

// memoryWorkingSetStore keeps working sets in process memory. Each
// session owns its entry exclusively, so a single mutex around the map
// is all the coordination needed.
type memoryWorkingSetStore struct {
	mu   sync.Mutex
	sets map[string]*offers.WorkingSet
}

func NewMemoryWorkingSetStore() offers.Store {
	return &memoryWorkingSetStore{sets: make(map[string]*offers.WorkingSet)}
}

func (s *memoryWorkingSetStore) Get(_ context.Context, token string) (*offers.WorkingSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.sets[token]
	if !ok {
		return nil, nil
	}
	copied := *ws
	copied.Rows = append([]domain.OfferWorkingRow(nil), ws.Rows...)
	return &copied, nil
}

func (s *memoryWorkingSetStore) Put(_ context.Context, ws *offers.WorkingSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *ws
	copied.Rows = append([]domain.OfferWorkingRow(nil), ws.Rows...)
	s.sets[ws.Token] = &copied
	return nil
}

func (s *memoryWorkingSetStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, token)
	return nil
}

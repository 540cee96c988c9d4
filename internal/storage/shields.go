package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"feeManager/internal/model"
)

// ShieldStorage persists registered shields keyed by (pool, token id).
type ShieldStorage interface {
	// PutShield inserts the shield or replaces the one with the same key.
	PutShield(ctx context.Context, shield model.Shield) error
	// OutOfRangeShields returns up to limit shields of the pool whose range
	// excludes tick, in ascending token id order. limit <= 0 means no limit.
	OutOfRangeShields(ctx context.Context, poolID common.Hash, tick int32, limit int) ([]model.Shield, error)
}

// MemoryShieldStorage keeps shields in a map.
type MemoryShieldStorage struct {
	mu      sync.RWMutex
	shields map[model.ShieldKey]model.Shield
}

func NewMemoryShieldStorage() *MemoryShieldStorage {
	return &MemoryShieldStorage{shields: make(map[model.ShieldKey]model.Shield)}
}

func (s *MemoryShieldStorage) PutShield(_ context.Context, shield model.Shield) error {
	if shield.TokenID == nil {
		return fmt.Errorf("shield token id is required")
	}
	shield.TokenID = new(uint256.Int).Set(shield.TokenID)
	s.mu.Lock()
	s.shields[shield.Key()] = shield
	s.mu.Unlock()
	return nil
}

func (s *MemoryShieldStorage) OutOfRangeShields(_ context.Context, poolID common.Hash, tick int32, limit int) ([]model.Shield, error) {
	s.mu.RLock()
	out := make([]model.Shield, 0)
	for key, shield := range s.shields {
		if key.PoolID == poolID && shield.OutOfRange(tick) {
			shield.TokenID = new(uint256.Int).Set(shield.TokenID)
			out = append(out, shield)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TokenID.Lt(out[j].TokenID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored shields.
func (s *MemoryShieldStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shields)
}

// JsonlShieldStorage journals shield registrations to a JSONL file.
type JsonlShieldStorage struct {
	journal *journal
	cache   *MemoryShieldStorage
}

func OpenJsonlShieldStorage(path string) (*JsonlShieldStorage, error) {
	j, err := newJournal(path)
	if err != nil {
		return nil, fmt.Errorf("shield store: %w", err)
	}
	s := &JsonlShieldStorage{journal: j, cache: NewMemoryShieldStorage()}
	err = j.replay(func(line []byte) error {
		var shield model.Shield
		if err := json.Unmarshal(line, &shield); err != nil {
			return err
		}
		return s.cache.PutShield(context.Background(), shield)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JsonlShieldStorage) PutShield(ctx context.Context, shield model.Shield) error {
	if shield.TokenID == nil {
		return fmt.Errorf("shield token id is required")
	}
	return s.journal.append(shield, func() error {
		return s.cache.PutShield(ctx, shield)
	})
}

func (s *JsonlShieldStorage) OutOfRangeShields(ctx context.Context, poolID common.Hash, tick int32, limit int) ([]model.Shield, error) {
	return s.cache.OutOfRangeShields(ctx, poolID, tick, limit)
}

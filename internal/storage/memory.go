package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"feeManager/internal/model"
)

// MemoryStorage keeps tick records in a map keyed by (pool, tick).
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[model.TickKey]model.TickRecord
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[model.TickKey]model.TickRecord)}
}

func (s *MemoryStorage) GetTick(_ context.Context, poolID common.Hash, tick int32) (model.TickRecord, bool, error) {
	s.mu.RLock()
	record, ok := s.records[model.TickKey{PoolID: poolID, Tick: tick}]
	s.mu.RUnlock()
	if !ok {
		return model.TickRecord{}, false, nil
	}
	return cloneRecord(record), true, nil
}

func (s *MemoryStorage) PutTick(_ context.Context, record model.TickRecord) error {
	s.mu.Lock()
	s.records[record.Key()] = cloneRecord(record)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) ListTicks(_ context.Context, poolID common.Hash) ([]model.TickRecord, error) {
	s.mu.RLock()
	out := make([]model.TickRecord, 0)
	for key, record := range s.records {
		if key.PoolID == poolID {
			out = append(out, cloneRecord(record))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(record model.TickRecord) model.TickRecord {
	record.Liquidity = new(uint256.Int).Set(record.LiquidityOrZero())
	return record
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"feeManager/internal/model"
)

// JsonlStorage journals tick records to a JSONL file. Reads are served from
// memory; the last line written for a key wins on replay.
type JsonlStorage struct {
	journal *journal
	cache   *MemoryStorage
}

// OpenJsonlStorage replays the journal at path, if any, into memory.
func OpenJsonlStorage(path string) (*JsonlStorage, error) {
	j, err := newJournal(path)
	if err != nil {
		return nil, fmt.Errorf("tick store: %w", err)
	}
	s := &JsonlStorage{journal: j, cache: NewMemoryStorage()}
	err = j.replay(func(line []byte) error {
		var record model.TickRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		return s.cache.PutTick(context.Background(), record)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JsonlStorage) GetTick(ctx context.Context, poolID common.Hash, tick int32) (model.TickRecord, bool, error) {
	return s.cache.GetTick(ctx, poolID, tick)
}

func (s *JsonlStorage) ListTicks(ctx context.Context, poolID common.Hash) ([]model.TickRecord, error) {
	return s.cache.ListTicks(ctx, poolID)
}

// PutTick appends the record to the journal, then makes it visible to reads.
func (s *JsonlStorage) PutTick(ctx context.Context, record model.TickRecord) error {
	return s.journal.append(record, func() error {
		return s.cache.PutTick(ctx, record)
	})
}

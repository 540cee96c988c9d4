package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"feeManager/internal/model"
	"feeManager/internal/storage/postgres"
)

// StateStore persists the position of the last applied log.
type StateStore interface {
	Load(ctx context.Context) (model.LogPosition, bool, error)
	Save(ctx context.Context, pos model.LogPosition) error
}

// FileStateStore stores state in a local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	LastApplied model.LogPosition `json:"last_applied"`
	UpdatedAt   string            `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (model.LogPosition, bool, error) {
	if s == nil || s.Path == "" {
		return model.LogPosition{}, false, nil
	}
	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.LogPosition{}, false, nil
		}
		return model.LogPosition{}, false, fmt.Errorf("stat state: %w", err)
	}
	if stat.IsDir() {
		return model.LogPosition{}, false, fmt.Errorf("state path is a directory")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return model.LogPosition{}, false, fmt.Errorf("read state: %w", err)
	}

	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.LogPosition{}, false, fmt.Errorf("parse state: %w", err)
	}
	return rec.LastApplied, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, pos model.LogPosition) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	rec := stateRecord{
		LastApplied: pos,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// DBStateStore stores state in the fee_manager_state table.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (model.LogPosition, bool, error) {
	if s == nil || s.Store == nil {
		return model.LogPosition{}, false, nil
	}
	raw, ok, err := s.Store.LoadState(ctx, s.Name)
	if err != nil || !ok {
		return model.LogPosition{}, ok, err
	}
	pos, err := ParsePosition(raw)
	if err != nil {
		return model.LogPosition{}, false, err
	}
	return pos, true, nil
}

func (s *DBStateStore) Save(ctx context.Context, pos model.LogPosition) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, pos.String())
}

// ParsePosition parses a "block:logIndex" position.
func ParsePosition(input string) (model.LogPosition, error) {
	parts := strings.SplitN(strings.TrimSpace(input), ":", 2)
	if len(parts) != 2 {
		return model.LogPosition{}, fmt.Errorf("invalid position: %q", input)
	}
	block, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return model.LogPosition{}, fmt.Errorf("invalid position block: %q", input)
	}
	index, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return model.LogPosition{}, fmt.Errorf("invalid position log index: %q", input)
	}
	return model.LogPosition{BlockNumber: block, LogIndex: index}, nil
}

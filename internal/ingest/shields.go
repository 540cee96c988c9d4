package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"feeManager/internal/dex"
	"feeManager/internal/model"
	"feeManager/internal/storage"
)

const defaultBatchLimit = 500

// ShieldConfig controls the shield watcher.
type ShieldConfig struct {
	// Contracts restricts input to logs emitted by these hook contracts.
	Contracts  []common.Address
	BatchLimit int
	StateStore StateStore
}

// ShieldStats counts what a shield run did with each input line.
type ShieldStats struct {
	Total      int
	Registered int
	Ticks      int
	Batches    int
	Skipped    int
	Failed     int
}

// RemovalBatch lists the shielded positions to pull after a tick update.
type RemovalBatch struct {
	PoolID      common.Hash `json:"pool_id"`
	CurrentTick int32       `json:"current_tick"`
	Position    string      `json:"position"`
	TxHash      string      `json:"tx_hash,omitempty"`
	TokenIDs    []string    `json:"token_ids"`
}

// ShieldWatcher registers shields and, on every tick update, selects the
// shields whose range no longer contains the current tick.
type ShieldWatcher struct {
	cfg        ShieldConfig
	store      storage.ShieldStorage
	decoder    *dex.ShieldDecoder
	logger     *zap.Logger
	contracts  map[common.Address]struct{}
	checkpoint checkpoint
}

func NewShieldWatcher(cfg ShieldConfig, store storage.ShieldStorage, logger *zap.Logger) (*ShieldWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		return nil, fmt.Errorf("shield store is nil")
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = defaultBatchLimit
	}
	decoder, err := dex.NewShieldDecoder()
	if err != nil {
		return nil, err
	}
	return &ShieldWatcher{
		cfg:        cfg,
		store:      store,
		decoder:    decoder,
		logger:     logger,
		contracts:  addressSet(cfg.Contracts),
		checkpoint: checkpoint{store: cfg.StateStore},
	}, nil
}

// Run processes hook logs after the saved checkpoint and passes every
// non-empty removal batch to emit. Registrations are upserts, so replaying
// one is harmless; the checkpoint advances after each handled log.
func (w *ShieldWatcher) Run(ctx context.Context, inputPath string, emit func(RemovalBatch) error) (ShieldStats, error) {
	var stats ShieldStats

	last, hasLast, err := w.checkpoint.load(ctx)
	if err != nil {
		return stats, err
	}
	if hasLast {
		w.logger.Info("resume from checkpoint", zap.Stringer("last_handled", last))
	}

	err = eachLine(ctx, inputPath, func(line []byte) error {
		stats.Total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.Failed++
			w.logger.Warn("decode log record", zap.Error(err))
			return nil
		}

		pos := record.Position()
		if hasLast && !pos.After(last) {
			stats.Skipped++
			return nil
		}
		if record.Removed || !w.fromContract(record) {
			stats.Skipped++
			return nil
		}

		var handled bool
		var err error
		switch w.decoder.EventName(record) {
		case dex.EventRegisterShield:
			handled, err = w.register(ctx, record, &stats)
		case dex.EventTick:
			handled, err = w.tick(ctx, record, emit, &stats)
		default:
			stats.Skipped++
			return nil
		}
		if err != nil {
			return fmt.Errorf("handle %s at %s: %w", w.decoder.EventName(record), pos, err)
		}
		if !handled {
			return nil
		}

		last, hasLast = pos, true
		return w.checkpoint.save(ctx, pos)
	})
	if err != nil {
		return stats, err
	}

	w.logger.Info("shield run complete",
		zap.Int("total", stats.Total),
		zap.Int("registered", stats.Registered),
		zap.Int("ticks", stats.Ticks),
		zap.Int("batches", stats.Batches),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (w *ShieldWatcher) fromContract(record model.LogRecord) bool {
	if w.contracts == nil {
		return true
	}
	if !common.IsHexAddress(record.Address) {
		return false
	}
	_, ok := w.contracts[common.HexToAddress(record.Address)]
	return ok
}

func (w *ShieldWatcher) register(ctx context.Context, record model.LogRecord, stats *ShieldStats) (bool, error) {
	shield, err := w.decoder.DecodeRegisterShield(record)
	if err != nil {
		stats.Failed++
		w.logger.Warn("decode register shield", zap.Error(err), zap.Stringer("position", record.Position()))
		return false, nil
	}
	if err := w.store.PutShield(ctx, shield); err != nil {
		return false, err
	}
	stats.Registered++
	w.logger.Debug("shield registered",
		zap.String("pool_id", shield.PoolID.Hex()),
		zap.String("token_id", shield.TokenID.Dec()),
		zap.Int32("tick_lower", shield.TickLower),
		zap.Int32("tick_upper", shield.TickUpper),
		zap.String("owner", shield.Owner.Hex()),
	)
	return true, nil
}

func (w *ShieldWatcher) tick(ctx context.Context, record model.LogRecord, emit func(RemovalBatch) error, stats *ShieldStats) (bool, error) {
	update, err := w.decoder.DecodeTick(record)
	if err != nil {
		stats.Failed++
		w.logger.Warn("decode tick", zap.Error(err), zap.Stringer("position", record.Position()))
		return false, nil
	}
	stats.Ticks++

	shields, err := w.store.OutOfRangeShields(ctx, update.PoolID, update.CurrentTick, w.cfg.BatchLimit)
	if err != nil {
		return false, err
	}
	if len(shields) == 0 {
		return true, nil
	}

	batch := RemovalBatch{
		PoolID:      update.PoolID,
		CurrentTick: update.CurrentTick,
		Position:    record.Position().String(),
		TxHash:      record.TxHash,
		TokenIDs:    make([]string, 0, len(shields)),
	}
	for _, shield := range shields {
		batch.TokenIDs = append(batch.TokenIDs, shield.TokenID.Dec())
	}
	if emit != nil {
		if err := emit(batch); err != nil {
			return false, fmt.Errorf("emit removal batch: %w", err)
		}
	}
	stats.Batches++
	w.logger.Info("removal batch",
		zap.String("pool_id", update.PoolID.Hex()),
		zap.Int32("current_tick", update.CurrentTick),
		zap.Int("positions", len(batch.TokenIDs)),
	)
	return true, nil
}

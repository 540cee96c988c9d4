package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"feeManager/internal/dex"
	"feeManager/internal/feemanager"
	"feeManager/internal/model"
)

// FeeUpdater applies liquidity to a tick range.
type FeeUpdater interface {
	UpdateFeePerTick(
		ctx context.Context,
		poolID common.Hash,
		liquidity *uint256.Int,
		tickLower int32,
		tickUpper int32,
		tickSpacing uint32,
		feeInit uint32,
		feeMax uint32,
	) (feemanager.UpdateResult, error)
}

// Config controls how Mint logs are turned into fee updates.
type Config struct {
	TickSpacing uint32
	FeeInit     uint32
	FeeMax      uint32
	Pools       []common.Address
	StateStore  StateStore
}

// Stats counts what a run did with each input line.
type Stats struct {
	Total   int
	Applied int
	Burns   int
	Skipped int
	Failed  int
}

// Applier replays Mint logs from a JSONL file into a FeeUpdater.
//
// Updates add liquidity, so a Mint must never be applied twice. The
// checkpoint advances after every Mint that wrote any tick, including one
// that failed partway; such a Mint is reported and never retried.
type Applier struct {
	cfg        Config
	updater    FeeUpdater
	decoder    *dex.LiquidityDecoder
	logger     *zap.Logger
	pools      map[common.Address]struct{}
	checkpoint checkpoint
}

func NewApplier(cfg Config, updater FeeUpdater, logger *zap.Logger) (*Applier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if updater == nil {
		return nil, fmt.Errorf("fee updater is nil")
	}
	if cfg.TickSpacing == 0 {
		return nil, fmt.Errorf("tick spacing must be greater than zero")
	}
	if cfg.FeeInit > cfg.FeeMax {
		return nil, fmt.Errorf("fee init %d exceeds fee max %d", cfg.FeeInit, cfg.FeeMax)
	}

	decoder, err := dex.NewLiquidityDecoder()
	if err != nil {
		return nil, err
	}

	return &Applier{
		cfg:        cfg,
		updater:    updater,
		decoder:    decoder,
		logger:     logger,
		pools:      addressSet(cfg.Pools),
		checkpoint: checkpoint{store: cfg.StateStore},
	}, nil
}

// Run applies every Mint log in inputPath that lies after the saved checkpoint.
// An update failure stops the run.
func (a *Applier) Run(ctx context.Context, inputPath string) (Stats, error) {
	var stats Stats

	last, hasLast, err := a.checkpoint.load(ctx)
	if err != nil {
		return stats, err
	}
	if hasLast {
		a.logger.Info("resume from checkpoint", zap.Stringer("last_applied", last))
	}

	err = eachLine(ctx, inputPath, func(line []byte) error {
		stats.Total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.Failed++
			a.logger.Warn("decode log record", zap.Error(err))
			return nil
		}

		pos := record.Position()
		if hasLast && !pos.After(last) {
			stats.Skipped++
			return nil
		}
		if record.Removed || !a.tracked(record) {
			stats.Skipped++
			return nil
		}

		switch a.decoder.EventName(record) {
		case dex.EventMint:
		case dex.EventBurn:
			a.countBurn(record, &stats)
			return nil
		default:
			stats.Skipped++
			return nil
		}

		mint, err := a.decoder.DecodeMint(record)
		if err != nil {
			stats.Failed++
			a.logger.Warn("decode mint", zap.Error(err), zap.String("pool", record.Address), zap.Stringer("position", pos))
			return nil
		}

		res, err := a.applyMint(ctx, record, mint)
		if err != nil {
			if res.Visited > 0 {
				// Ticks already hold part of this Mint; replaying it would double count.
				a.logger.Error("mint partially applied; it will not be retried",
					zap.Stringer("position", pos),
					zap.String("tx_hash", record.TxHash),
					zap.Int("ticks_written", res.Visited),
					zap.Error(err),
				)
				if saveErr := a.checkpoint.save(ctx, pos); saveErr != nil {
					a.logger.Error("save checkpoint", zap.Error(saveErr))
				}
			}
			return fmt.Errorf("apply mint at %s: %w", pos, err)
		}

		stats.Applied++
		last, hasLast = pos, true
		return a.checkpoint.save(ctx, pos)
	})
	if err != nil {
		return stats, err
	}

	a.logger.Info("apply complete",
		zap.Int("total", stats.Total),
		zap.Int("applied", stats.Applied),
		zap.Int("burns", stats.Burns),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)

	return stats, nil
}

func (a *Applier) tracked(record model.LogRecord) bool {
	if a.pools == nil {
		return true
	}
	if !common.IsHexAddress(record.Address) {
		return false
	}
	_, ok := a.pools[common.HexToAddress(record.Address)]
	return ok
}

// countBurn decodes a Burn for the run totals. Burns do not change fees.
func (a *Applier) countBurn(record model.LogRecord, stats *Stats) {
	burn, err := a.decoder.DecodeBurn(record)
	if err != nil {
		stats.Failed++
		a.logger.Warn("decode burn", zap.Error(err), zap.String("pool", record.Address), zap.Stringer("position", record.Position()))
		return
	}
	if _, err := burn.Liquidity(); err != nil {
		stats.Failed++
		a.logger.Warn("burn amount", zap.Error(err), zap.Stringer("position", record.Position()))
		return
	}
	stats.Burns++
	a.logger.Debug("burn ignored",
		zap.String("pool", record.Address),
		zap.Int32("tick_lower", burn.TickLower),
		zap.Int32("tick_upper", burn.TickUpper),
		zap.String("amount", burn.Amount),
	)
}

func (a *Applier) applyMint(ctx context.Context, record model.LogRecord, mint model.MintEventData) (feemanager.UpdateResult, error) {
	if !common.IsHexAddress(record.Address) {
		return feemanager.UpdateResult{}, fmt.Errorf("invalid pool address: %s", record.Address)
	}
	liquidity, err := mint.Liquidity()
	if err != nil {
		return feemanager.UpdateResult{}, err
	}

	poolID := dex.PoolID(common.HexToAddress(record.Address))
	res, err := a.updater.UpdateFeePerTick(ctx, poolID, liquidity, mint.TickLower, mint.TickUpper, a.cfg.TickSpacing, a.cfg.FeeInit, a.cfg.FeeMax)
	if err != nil {
		return res, err
	}

	a.logger.Debug("mint applied",
		zap.String("pool_id", poolID.Hex()),
		zap.String("tx_hash", record.TxHash),
		zap.Int32("tick_lower", mint.TickLower),
		zap.Int32("tick_upper", mint.TickUpper),
		zap.String("amount", mint.Amount),
		zap.Int("ticks_visited", res.Visited),
	)
	return res, nil
}

func addressSet(addresses []common.Address) map[common.Address]struct{} {
	if len(addresses) == 0 {
		return nil
	}
	set := make(map[common.Address]struct{}, len(addresses))
	for _, address := range addresses {
		set[address] = struct{}{}
	}
	return set
}

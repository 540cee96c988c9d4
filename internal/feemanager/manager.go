package feemanager

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"feeManager/internal/feeschedule"
	"feeManager/internal/model"
	"feeManager/internal/storage"
)

// ErrInvalidInput is returned for out-of-range update parameters.
var ErrInvalidInput = feeschedule.ErrInvalidInput

// ErrArithmetic is returned when a computed fee or liquidity overflows its width.
var ErrArithmetic = errors.New("arithmetic overflow")

// Tick bounds of a concentrated-liquidity pool (log base 1.0001 of the price limits).
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var feeDenominator = uint256.NewInt(10_000)

// UpdateResult summarizes one UpdateFeePerTick call.
type UpdateResult struct {
	NumTicks    uint32
	Visited     int
	LiqPerTick  *uint256.Int
	PriorLiqSum *uint256.Int
	LastTick    int32
	LastTickFee uint32
}

// Manager stores per-tick fee schedules. Calls on the same pool are serialized.
type Manager struct {
	store  storage.TickStorage
	logger *zap.Logger

	mu    sync.Mutex
	locks map[common.Hash]*sync.Mutex
}

func NewManager(store storage.TickStorage, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		logger: logger,
		locks:  make(map[common.Hash]*sync.Mutex),
	}
}

func (m *Manager) poolLock(poolID common.Hash) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[poolID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[poolID] = lock
	}
	return lock
}

// GetFee returns the stored fee of a tick, or 0 if it was never written.
func (m *Manager) GetFee(ctx context.Context, poolID common.Hash, tick int32) (uint32, error) {
	lock := m.poolLock(poolID)
	lock.Lock()
	defer lock.Unlock()

	record, _, err := m.store.GetTick(ctx, poolID, tick)
	if err != nil {
		return 0, fmt.Errorf("get tick %d: %w", tick, err)
	}
	return record.Fee, nil
}

// GetFees returns the fee schedule for numTicks without touching storage.
func (m *Manager) GetFees(numTicks, feeInit, feeMax uint32) ([]uint32, error) {
	return feeschedule.Compute(numTicks, feeInit, feeMax)
}

// UpdateFeePerTick spreads liquidity evenly over [tickLower, tickUpper] and
// rewrites the fee of every tick visited at tickSpacing steps. Ticks are
// written one at a time; a failure leaves earlier ticks updated.
func (m *Manager) UpdateFeePerTick(
	ctx context.Context,
	poolID common.Hash,
	liquidity *uint256.Int,
	tickLower int32,
	tickUpper int32,
	tickSpacing uint32,
	feeInit uint32,
	feeMax uint32,
) (UpdateResult, error) {
	if tickLower < MinTick || tickUpper > MaxTick {
		return UpdateResult{}, fmt.Errorf("%w: tick range [%d, %d] outside [%d, %d]", ErrInvalidInput, tickLower, tickUpper, MinTick, MaxTick)
	}
	span := int64(tickUpper) - int64(tickLower) + 1
	if span <= 0 {
		return UpdateResult{}, fmt.Errorf("%w: tick range [%d, %d]", ErrInvalidInput, tickLower, tickUpper)
	}
	if tickSpacing == 0 {
		return UpdateResult{}, fmt.Errorf("%w: tick spacing must be at least 1", ErrInvalidInput)
	}
	if liquidity == nil {
		liquidity = new(uint256.Int)
	}
	if liquidity.Gt(model.MaxUint128) {
		return UpdateResult{}, fmt.Errorf("%w: liquidity exceeds uint128", ErrInvalidInput)
	}

	numTicks := uint32(span)
	liqPerTick := new(uint256.Int).Div(liquidity, uint256.NewInt(uint64(numTicks)))

	fees, err := feeschedule.Compute(numTicks, feeInit, feeMax)
	if err != nil {
		return UpdateResult{}, err
	}

	lock := m.poolLock(poolID)
	lock.Lock()
	defer lock.Unlock()

	feeMaxTimesLiq := new(uint256.Int).Mul(uint256.NewInt(uint64(feeMax)), liqPerTick)
	result := UpdateResult{
		NumTicks:    numTicks,
		LiqPerTick:  liqPerTick,
		PriorLiqSum: new(uint256.Int),
	}

	tickIndex := 0
	for tick := int64(tickLower); tick <= int64(tickUpper); tick += int64(tickSpacing) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		current, _, err := m.store.GetTick(ctx, poolID, int32(tick))
		if err != nil {
			return result, fmt.Errorf("get tick %d: %w", tick, err)
		}
		prior := current.LiquidityOrZero()
		result.PriorLiqSum.Add(result.PriorLiqSum, prior)

		fee, err := tickFee(fees[tickIndex], prior, feeMaxTimesLiq, feeMax)
		if err != nil {
			return result, fmt.Errorf("tick %d: %w", tick, err)
		}

		nextLiq, overflow := new(uint256.Int).AddOverflow(prior, liqPerTick)
		if overflow || nextLiq.Gt(model.MaxUint128) {
			return result, fmt.Errorf("%w: tick %d liquidity exceeds uint128", ErrArithmetic, tick)
		}

		if err := m.store.PutTick(ctx, model.TickRecord{
			PoolID:    poolID,
			Tick:      int32(tick),
			Liquidity: nextLiq,
			Fee:       fee,
		}); err != nil {
			return result, fmt.Errorf("put tick %d: %w", tick, err)
		}

		result.Visited++
		result.LastTick = int32(tick)
		result.LastTickFee = fee
		tickIndex++
	}

	m.logger.Debug("fee per tick updated",
		zap.String("pool_id", poolID.Hex()),
		zap.Int32("tick_lower", tickLower),
		zap.Int32("tick_upper", tickUpper),
		zap.Uint32("tick_spacing", tickSpacing),
		zap.Uint32("num_ticks", numTicks),
		zap.Int("visited", result.Visited),
		zap.String("liq_per_tick", liqPerTick.Dec()),
		zap.String("prior_liquidity", result.PriorLiqSum.Dec()),
	)

	return result, nil
}

// tickFee is min(feeMax, ceil((scheduleFee*prior + feeMax*liqPerTick) / 10000)).
// The uncapped quotient must still fit in 32 bits.
func tickFee(scheduleFee uint32, prior, feeMaxTimesLiq *uint256.Int, feeMax uint32) (uint32, error) {
	num := new(uint256.Int).Mul(uint256.NewInt(uint64(scheduleFee)), prior)
	num.Add(num, feeMaxTimesLiq)

	quo := new(uint256.Int).Div(num, feeDenominator)
	if !new(uint256.Int).Mod(num, feeDenominator).IsZero() {
		quo.AddUint64(quo, 1)
	}

	if !quo.IsUint64() || quo.Uint64() > math.MaxUint32 {
		return 0, fmt.Errorf("%w: fee %s exceeds uint32", ErrArithmetic, quo.Dec())
	}
	fee := uint32(quo.Uint64())
	if fee > feeMax {
		fee = feeMax
	}
	return fee, nil
}

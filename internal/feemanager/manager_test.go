package feemanager

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"feeManager/internal/model"
	"feeManager/internal/storage"
)

var testPool = common.HexToHash("0x9c3b1e0f6a0d2b7e8a1f4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091")

func newTestManager(t *testing.T) (*Manager, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	return NewManager(store, zap.NewNop()), store
}

func seedTick(t *testing.T, store *storage.MemoryStorage, tick int32, liquidity *uint256.Int) {
	t.Helper()
	require.NoError(t, store.PutTick(context.Background(), model.TickRecord{
		PoolID:    testPool,
		Tick:      tick,
		Liquidity: liquidity,
	}))
}

func feesOf(t *testing.T, m *Manager, ticks ...int32) []uint32 {
	t.Helper()
	out := make([]uint32, 0, len(ticks))
	for _, tick := range ticks {
		fee, err := m.GetFee(context.Background(), testPool, tick)
		require.NoError(t, err)
		out = append(out, fee)
	}
	return out
}

func TestGetFeeAbsentTickIsZero(t *testing.T) {
	m, _ := newTestManager(t)
	fee, err := m.GetFee(context.Background(), testPool, 12345)
	require.NoError(t, err)
	require.Zero(t, fee)
}

func TestGetFeesMatchesSchedule(t *testing.T) {
	m, store := newTestManager(t)

	fees, err := m.GetFees(4, 100, 1000)
	require.NoError(t, err)
	require.Equal(t, []uint32{1000, 500, 500, 1000}, fees)

	again, err := m.GetFees(4, 100, 1000)
	require.NoError(t, err)
	require.Equal(t, fees, again)
	require.Zero(t, store.Len())
}

func TestUpdateFeePerTickEmptyStore(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	res, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(1000), 0, 4, 1, 100, 1000)
	require.NoError(t, err)
	require.Equal(t, uint32(5), res.NumTicks)
	require.Equal(t, 5, res.Visited)
	require.Equal(t, uint64(200), res.LiqPerTick.Uint64())
	require.True(t, res.PriorLiqSum.IsZero())

	// No prior liquidity: ceil(1000*200/10000) = 20 on every tick.
	require.Equal(t, []uint32{20, 20, 20, 20, 20}, feesOf(t, m, 0, 1, 2, 3, 4))
	require.Equal(t, 5, store.Len())
	for tick := int32(0); tick <= 4; tick++ {
		record, ok, err := store.GetTick(ctx, testPool, tick)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, tick, record.Tick)
		require.Equal(t, testPool, record.PoolID)
		require.Equal(t, uint64(200), record.Liquidity.Uint64())
	}
}

func TestUpdateFeePerTickWeightsPriorLiquidity(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	_, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(1000), 0, 4, 1, 100, 1000)
	require.NoError(t, err)
	res, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(1000), 0, 4, 1, 100, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), res.PriorLiqSum.Uint64())

	// schedule [1000, 212, 100, 212, 1000], prior 200, liqPerTick 200:
	// ceil((1000*200 + 200000)/10000) = 40
	// ceil((212*200 + 200000)/10000) = ceil(24.24) = 25
	// ceil((100*200 + 200000)/10000) = 22
	require.Equal(t, []uint32{40, 25, 22, 25, 40}, feesOf(t, m, 0, 1, 2, 3, 4))

	record, _, err := store.GetTick(ctx, testPool, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(400), record.Liquidity.Uint64())
}

func TestUpdateFeePerTickCapsAtFeeMax(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	_, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(100_000_000), 7, 7, 1, 500, 3000)
	require.NoError(t, err)
	require.Equal(t, []uint32{3000}, feesOf(t, m, 7))
}

func TestUpdateFeePerTickSparseStepping(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	for _, tick := range []int32{0, 2, 4} {
		seedTick(t, store, tick, uint256.NewInt(10_000))
	}

	// Zero new liquidity, so each fee equals the schedule entry it was given.
	res, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(0), 0, 4, 2, 100, 1000)
	require.NoError(t, err)
	require.Equal(t, uint32(5), res.NumTicks)
	require.Equal(t, 3, res.Visited)

	// Ticks {0,2,4} read schedule indices {0,1,2} of [1000, 212, 100, 212, 1000].
	require.Equal(t, []uint32{1000, 212, 100}, feesOf(t, m, 0, 2, 4))

	for _, tick := range []int32{1, 3} {
		_, ok, err := store.GetTick(ctx, testPool, tick)
		require.NoError(t, err)
		require.False(t, ok, "tick %d should not be visited", tick)
	}
}

func TestUpdateFeePerTickNegativeTicks(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	res, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(60), -60, 60, 60, 0, 100)
	require.NoError(t, err)
	require.Equal(t, uint32(121), res.NumTicks)
	require.Equal(t, 3, res.Visited)
	require.Equal(t, int32(60), res.LastTick)
	require.Equal(t, 3, store.Len())
}

func TestUpdateFeePerTickDropsRemainder(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	// 1004 over 5 ticks: 200 each, the remaining 4 is not assigned anywhere.
	_, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(1004), 0, 4, 1, 100, 1000)
	require.NoError(t, err)

	total := new(uint256.Int)
	ticks, err := store.ListTicks(ctx, testPool)
	require.NoError(t, err)
	for _, record := range ticks {
		total.Add(total, record.Liquidity)
	}
	require.Equal(t, uint64(1000), total.Uint64())
}

func TestUpdateFeePerTickRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	cases := []struct {
		name      string
		liquidity *uint256.Int
		lower     int32
		upper     int32
		spacing   uint32
		feeInit   uint32
		feeMax    uint32
	}{
		{"inverted range", uint256.NewInt(1), 5, 3, 1, 0, 100},
		{"empty range", uint256.NewInt(1), 5, 4, 1, 0, 100},
		{"zero spacing", uint256.NewInt(1), 0, 4, 0, 0, 100},
		{"fee init above max", uint256.NewInt(1), 0, 4, 1, 101, 100},
		{"liquidity above uint128", new(uint256.Int).AddUint64(model.MaxUint128, 1), 0, 4, 1, 0, 100},
		{"lower below min tick", uint256.NewInt(1), MinTick - 1, 0, 1, 0, 100},
		{"upper above max tick", uint256.NewInt(1), 0, MaxTick + 1, 1, 0, 100},
		{"full int32 range", uint256.NewInt(1), -1 << 31, 1<<31 - 1, 1, 0, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.UpdateFeePerTick(ctx, testPool, tc.liquidity, tc.lower, tc.upper, tc.spacing, tc.feeInit, tc.feeMax)
			require.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
	require.Zero(t, store.Len())
}

func TestUpdateFeePerTickFeeOverflow(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	_, err := m.UpdateFeePerTick(ctx, testPool, new(uint256.Int).Set(model.MaxUint128), 0, 0, 1, 0, 3000)
	require.True(t, errors.Is(err, ErrArithmetic), "got %v", err)
	require.Zero(t, store.Len())
}

func TestUpdateFeePerTickKeepsEarlierWrites(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	seedTick(t, store, 1, new(uint256.Int).Set(model.MaxUint128))

	// Tick 0 is written, tick 1 overflows its liquidity, tick 2 is never reached.
	_, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(3), 0, 2, 1, 0, 0)
	require.True(t, errors.Is(err, ErrArithmetic), "got %v", err)

	record, ok, err := store.GetTick(ctx, testPool, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), record.Liquidity.Uint64())

	record, _, err = store.GetTick(ctx, testPool, 1)
	require.NoError(t, err)
	require.True(t, record.Liquidity.Eq(model.MaxUint128))

	_, ok, err = store.GetTick(ctx, testPool, 2)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateFeePerTickSerializesPool(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(30), 0, 2, 1, 10, 100)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for tick := int32(0); tick <= 2; tick++ {
		record, _, err := store.GetTick(ctx, testPool, tick)
		require.NoError(t, err)
		require.Equal(t, uint64(10*workers), record.Liquidity.Uint64())
	}
}

func TestUpdateFeePerTickHonorsCancel(t *testing.T) {
	m, store := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(10), 0, 4, 1, 0, 100)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, store.Len())
}

func TestUpdateFeePerTickFullTickDomain(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	res, err := m.UpdateFeePerTick(ctx, testPool, uint256.NewInt(1_774_545), MinTick, MaxTick, 887272, 0, 100)
	require.NoError(t, err)
	require.Equal(t, uint32(1_774_545), res.NumTicks)
	require.Equal(t, 3, res.Visited)
	require.Equal(t, MaxTick, res.LastTick)
	require.Equal(t, 3, store.Len())
}

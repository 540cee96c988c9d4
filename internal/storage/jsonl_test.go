package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"feeManager/internal/model"
)

func TestJsonlStorageReplay(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ticks.jsonl")
	pool := common.HexToHash("0xabc")

	store, err := OpenJsonlStorage(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.PutTick(ctx, model.TickRecord{PoolID: pool, Tick: 5, Liquidity: uint256.NewInt(10), Fee: 100}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutTick(ctx, model.TickRecord{PoolID: pool, Tick: -5, Liquidity: uint256.NewInt(1), Fee: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutTick(ctx, model.TickRecord{PoolID: pool, Tick: 5, Liquidity: uint256.NewInt(20), Fee: 200}); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Fatalf("journal lines = %d, want 3", lines)
	}

	reopened, err := OpenJsonlStorage(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	record, ok, err := reopened.GetTick(ctx, pool, 5)
	if err != nil || !ok {
		t.Fatalf("get after replay: ok=%v err=%v", ok, err)
	}
	if record.Fee != 200 || record.Liquidity.Uint64() != 20 {
		t.Fatalf("last write should win: %+v", record)
	}

	ticks, err := reopened.ListTicks(ctx, pool)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ticks) != 2 || ticks[0].Tick != -5 || ticks[1].Tick != 5 {
		t.Fatalf("ticks not ordered: %+v", ticks)
	}
}

func TestJsonlStorageCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenJsonlStorage(path); err == nil {
		t.Fatalf("expected replay error")
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open(context.Background(), Options{Kind: "redis"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := Open(context.Background(), Options{Kind: KindJsonl}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

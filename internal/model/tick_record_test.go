package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func TestTickRecordJSONLiquidityIsDecimalString(t *testing.T) {
	record := TickRecord{
		PoolID:    common.HexToHash("0x01"),
		Tick:      -42,
		Liquidity: new(uint256.Int).Set(MaxUint128),
		Fee:       3000,
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["liquidity"] != "340282366920938463463374607431768211455" {
		t.Fatalf("liquidity should be decimal string, got %v", decoded["liquidity"])
	}
	if !strings.HasPrefix(decoded["pool_id"].(string), "0x") {
		t.Fatalf("pool_id should be hex, got %v", decoded["pool_id"])
	}

	var back TickRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if back.Key() != record.Key() || back.Fee != 3000 || !back.Liquidity.Eq(MaxUint128) {
		t.Fatalf("record mismatch: %+v", back)
	}
}

func TestTickRecordRejectsOversizedLiquidity(t *testing.T) {
	line := `{"pool_id":"0x0000000000000000000000000000000000000000000000000000000000000001",` +
		`"tick":0,"liquidity":"340282366920938463463374607431768211456","fee":1}`
	var record TickRecord
	if err := json.Unmarshal([]byte(line), &record); err == nil {
		t.Fatalf("expected error for liquidity above uint128")
	}
}

func TestTickRecordLiquidityOrZero(t *testing.T) {
	var record TickRecord
	if !record.LiquidityOrZero().IsZero() {
		t.Fatalf("expected zero liquidity")
	}
}

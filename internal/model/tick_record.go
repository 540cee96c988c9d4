package model

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxUint128 is the largest liquidity a tick may hold.
var MaxUint128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// TickRecord is the stored fee and liquidity of a single pool tick.
type TickRecord struct {
	PoolID    common.Hash
	Tick      int32
	Liquidity *uint256.Int
	Fee       uint32
}

type tickRecordJSON struct {
	PoolID    common.Hash `json:"pool_id"`
	Tick      int32       `json:"tick"`
	Liquidity string      `json:"liquidity"`
	Fee       uint32      `json:"fee"`
}

// Key returns the composite storage key of the record.
func (r TickRecord) Key() TickKey {
	return TickKey{PoolID: r.PoolID, Tick: r.Tick}
}

// LiquidityOrZero never returns nil.
func (r TickRecord) LiquidityOrZero() *uint256.Int {
	if r.Liquidity == nil {
		return new(uint256.Int)
	}
	return r.Liquidity
}

// MarshalJSON encodes liquidity as a decimal string.
func (r TickRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(tickRecordJSON{
		PoolID:    r.PoolID,
		Tick:      r.Tick,
		Liquidity: r.LiquidityOrZero().Dec(),
		Fee:       r.Fee,
	})
}

// UnmarshalJSON decodes a TickRecord from JSON.
func (r *TickRecord) UnmarshalJSON(data []byte) error {
	var raw tickRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	liquidity := new(uint256.Int)
	if raw.Liquidity != "" {
		parsed, err := uint256.FromDecimal(raw.Liquidity)
		if err != nil {
			return fmt.Errorf("invalid liquidity %q: %w", raw.Liquidity, err)
		}
		liquidity = parsed
	}
	if liquidity.Gt(MaxUint128) {
		return fmt.Errorf("liquidity exceeds uint128: %s", raw.Liquidity)
	}
	*r = TickRecord{
		PoolID:    raw.PoolID,
		Tick:      raw.Tick,
		Liquidity: liquidity,
		Fee:       raw.Fee,
	}
	return nil
}

// TickKey identifies a tick within a pool.
type TickKey struct {
	PoolID common.Hash
	Tick   int32
}

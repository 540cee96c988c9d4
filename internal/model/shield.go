package model

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Shield is a registered liquidity position that must be pulled once the
// pool's current tick leaves [TickLower, TickUpper].
type Shield struct {
	PoolID    common.Hash
	TokenID   *uint256.Int
	TickLower int32
	TickUpper int32
	Owner     common.Address
}

// ShieldKey identifies a shield within a pool.
type ShieldKey struct {
	PoolID  common.Hash
	TokenID uint256.Int
}

// PoolTick is a decoded TickEvent: the pool's current tick after a swap.
type PoolTick struct {
	PoolID      common.Hash `json:"pool_id"`
	CurrentTick int32       `json:"current_tick"`
}

type shieldJSON struct {
	PoolID    common.Hash    `json:"pool_id"`
	TokenID   string         `json:"token_id"`
	TickLower int32          `json:"tick_lower"`
	TickUpper int32          `json:"tick_upper"`
	Owner     common.Address `json:"owner"`
}

func (s Shield) Key() ShieldKey {
	key := ShieldKey{PoolID: s.PoolID}
	if s.TokenID != nil {
		key.TokenID = *s.TokenID
	}
	return key
}

// OutOfRange reports whether tick lies strictly outside the shield's range.
func (s Shield) OutOfRange(tick int32) bool {
	return tick < s.TickLower || tick > s.TickUpper
}

func (s Shield) MarshalJSON() ([]byte, error) {
	tokenID := "0"
	if s.TokenID != nil {
		tokenID = s.TokenID.Dec()
	}
	return json.Marshal(shieldJSON{
		PoolID:    s.PoolID,
		TokenID:   tokenID,
		TickLower: s.TickLower,
		TickUpper: s.TickUpper,
		Owner:     s.Owner,
	})
}

func (s *Shield) UnmarshalJSON(data []byte) error {
	var raw shieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tokenID, err := uint256.FromDecimal(raw.TokenID)
	if err != nil {
		return fmt.Errorf("invalid token id %q: %w", raw.TokenID, err)
	}
	*s = Shield{
		PoolID:    raw.PoolID,
		TokenID:   tokenID,
		TickLower: raw.TickLower,
		TickUpper: raw.TickUpper,
		Owner:     raw.Owner,
	}
	return nil
}

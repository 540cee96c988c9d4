package model

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MintEventData is a decoded pool Mint: liquidity added to [TickLower, TickUpper].
type MintEventData struct {
	Sender    string `json:"sender"`
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// BurnEventData is a decoded pool Burn.
type BurnEventData struct {
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// Liquidity parses Amount, the uint128 liquidity delta of the mint.
func (m MintEventData) Liquidity() (*uint256.Int, error) {
	return parseLiquidity(m.Amount)
}

// Liquidity parses Amount, the uint128 liquidity delta of the burn.
func (b BurnEventData) Liquidity() (*uint256.Int, error) {
	return parseLiquidity(b.Amount)
}

func parseLiquidity(amount string) (*uint256.Int, error) {
	value, err := uint256.FromDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid liquidity amount %q: %w", amount, err)
	}
	if value.Gt(MaxUint128) {
		return nil, fmt.Errorf("liquidity amount exceeds uint128: %s", amount)
	}
	return value, nil
}

package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Events emitted by the fee manager hook contract for shielded positions.
const shieldEventsABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "bytes32", "name": "poolId", "type": "bytes32"},
      {"indexed": false, "internalType": "int24", "name": "tickLower", "type": "int24"},
      {"indexed": false, "internalType": "int24", "name": "tickUpper", "type": "int24"},
      {"indexed": false, "internalType": "uint256", "name": "tokenId", "type": "uint256"},
      {"indexed": false, "internalType": "address", "name": "owner", "type": "address"}
    ],
    "name": "RegisterShieldEvent",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "bytes32", "name": "poolId", "type": "bytes32"},
      {"indexed": false, "internalType": "int24", "name": "currentTick", "type": "int24"}
    ],
    "name": "TickEvent",
    "type": "event"
  }
]`

var (
	shieldABI     abi.ABI
	shieldABIOnce sync.Once
	shieldABIErr  error
)

// ShieldEventsABI returns the parsed RegisterShieldEvent/TickEvent ABI.
func ShieldEventsABI() (abi.ABI, error) {
	shieldABIOnce.Do(func() {
		shieldABI, shieldABIErr = abi.JSON(strings.NewReader(shieldEventsABIJSON))
	})
	return shieldABI, shieldABIErr
}

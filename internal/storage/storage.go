package storage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"feeManager/internal/model"
)

// TickStorage persists tick records keyed by (pool, tick).
type TickStorage interface {
	// GetTick returns the stored record and whether one exists.
	GetTick(ctx context.Context, poolID common.Hash, tick int32) (model.TickRecord, bool, error)
	PutTick(ctx context.Context, record model.TickRecord) error
	// ListTicks returns every record of a pool in ascending tick order.
	ListTicks(ctx context.Context, poolID common.Hash) ([]model.TickRecord, error)
}

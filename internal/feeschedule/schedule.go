package feeschedule

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the schedule parameters are out of range.
var ErrInvalidInput = errors.New("invalid input")

// Compute returns numTicks per-tick fees. Both edges are feeMax. Even counts
// get a flat interior of feeMax / (1 + (numTicks-2)/2); odd counts put feeInit
// at the middle tick and step outward by (feeMax-feeInit)/(numTicks-1)/2.
func Compute(numTicks, feeInit, feeMax uint32) ([]uint32, error) {
	if numTicks == 0 {
		return nil, fmt.Errorf("%w: num ticks must be greater than zero", ErrInvalidInput)
	}
	if feeInit > feeMax {
		return nil, fmt.Errorf("%w: fee init %d exceeds fee max %d", ErrInvalidInput, feeInit, feeMax)
	}

	fees := make([]uint32, numTicks)
	fees[0] = feeMax
	fees[numTicks-1] = feeMax

	// A single tick is only an edge.
	if numTicks == 1 {
		return fees, nil
	}

	if numTicks%2 == 0 {
		tickFee := feeMax / (1 + (numTicks-2)/2)
		for i := uint32(1); i < numTicks-1; i++ {
			fees[i] = tickFee
		}
		return fees, nil
	}

	middle := numTicks / 2
	fees[middle] = feeInit

	// Two successive divisions; truncation compounds.
	feeInc := (feeMax - feeInit) / (numTicks - 1) / 2

	lastFee := feeInit
	for i := middle + 1; i < numTicks-1; i++ {
		fees[i] = lastFee + feeInc
		lastFee = fees[i]
	}

	// The lower half accumulates on its own rather than mirroring the upper.
	lastFee = feeInit
	for i := middle - 1; i >= 1; i-- {
		fees[i] = lastFee + feeInc
		lastFee = fees[i]
	}

	return fees, nil
}

package dex

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"

	"feeManager/internal/model"
)

const (
	EventRegisterShield = "RegisterShieldEvent"
	EventTick           = "TickEvent"
)

// ShieldDecoder decodes the hook contract's shield registrations and tick updates.
type ShieldDecoder struct {
	hookABI     abi.ABI
	topicToName map[string]string
}

func NewShieldDecoder() (*ShieldDecoder, error) {
	hookABI, err := ShieldEventsABI()
	if err != nil {
		return nil, err
	}
	return &ShieldDecoder{
		hookABI: hookABI,
		topicToName: map[string]string{
			strings.ToLower(hookABI.Events[EventRegisterShield].ID.Hex()): EventRegisterShield,
			strings.ToLower(hookABI.Events[EventTick].ID.Hex()):           EventTick,
		},
	}, nil
}

func (d *ShieldDecoder) EventName(log model.LogRecord) string {
	if len(log.Topics) == 0 {
		return ""
	}
	return d.topicToName[strings.ToLower(log.Topics[0])]
}

// DecodeRegisterShield decodes a RegisterShieldEvent log.
func (d *ShieldDecoder) DecodeRegisterShield(log model.LogRecord) (model.Shield, error) {
	event := d.hookABI.Events[EventRegisterShield]
	if name := d.EventName(log); name != EventRegisterShield {
		return model.Shield{}, fmt.Errorf("not a register shield log: %q", name)
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.Shield{}, err
	}
	if len(values) != 5 {
		return model.Shield{}, fmt.Errorf("unexpected register shield values: %d", len(values))
	}

	poolID, err := asHash(values[0])
	if err != nil {
		return model.Shield{}, err
	}
	ints, err := bigInts(values[1:4])
	if err != nil {
		return model.Shield{}, err
	}
	tickLower, err := int24FromBig(ints[0])
	if err != nil {
		return model.Shield{}, err
	}
	tickUpper, err := int24FromBig(ints[1])
	if err != nil {
		return model.Shield{}, err
	}
	tokenID, overflow := uint256.FromBig(ints[2])
	if overflow {
		return model.Shield{}, fmt.Errorf("token id overflow: %s", ints[2].String())
	}
	owner, err := asAddress(values[4])
	if err != nil {
		return model.Shield{}, err
	}
	if tickLower > tickUpper {
		return model.Shield{}, fmt.Errorf("shield range inverted: [%d, %d]", tickLower, tickUpper)
	}

	return model.Shield{
		PoolID:    poolID,
		TokenID:   tokenID,
		TickLower: tickLower,
		TickUpper: tickUpper,
		Owner:     owner,
	}, nil
}

// DecodeTick decodes a TickEvent log.
func (d *ShieldDecoder) DecodeTick(log model.LogRecord) (model.PoolTick, error) {
	event := d.hookABI.Events[EventTick]
	if name := d.EventName(log); name != EventTick {
		return model.PoolTick{}, fmt.Errorf("not a tick log: %q", name)
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.PoolTick{}, err
	}
	if len(values) != 2 {
		return model.PoolTick{}, fmt.Errorf("unexpected tick values: %d", len(values))
	}

	poolID, err := asHash(values[0])
	if err != nil {
		return model.PoolTick{}, err
	}
	current, err := asBigInt(values[1])
	if err != nil {
		return model.PoolTick{}, err
	}
	tick, err := int24FromBig(current)
	if err != nil {
		return model.PoolTick{}, err
	}
	return model.PoolTick{PoolID: poolID, CurrentTick: tick}, nil
}

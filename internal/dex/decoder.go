package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"feeManager/internal/model"
)

const (
	EventMint = "Mint"
	EventBurn = "Burn"
)

// LiquidityDecoder decodes pool Mint and Burn logs.
type LiquidityDecoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

func NewLiquidityDecoder() (*LiquidityDecoder, error) {
	poolABI, err := LiquidityEventsABI()
	if err != nil {
		return nil, err
	}
	return &LiquidityDecoder{
		poolABI: poolABI,
		topicToName: map[string]string{
			strings.ToLower(poolABI.Events[EventMint].ID.Hex()): EventMint,
			strings.ToLower(poolABI.Events[EventBurn].ID.Hex()): EventBurn,
		},
	}, nil
}

// EventName returns Mint, Burn, or "" for any other log.
func (d *LiquidityDecoder) EventName(log model.LogRecord) string {
	if len(log.Topics) == 0 {
		return ""
	}
	return d.topicToName[strings.ToLower(log.Topics[0])]
}

// DecodeMint decodes a Mint log.
func (d *LiquidityDecoder) DecodeMint(log model.LogRecord) (model.MintEventData, error) {
	event := d.poolABI.Events[EventMint]
	if name := d.EventName(log); name != EventMint {
		return model.MintEventData{}, fmt.Errorf("not a mint log: %q", name)
	}
	owner, tickLower, tickUpper, err := parsePositionTopics(event, log.Topics)
	if err != nil {
		return model.MintEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.MintEventData{}, err
	}
	if len(values) != 4 {
		return model.MintEventData{}, fmt.Errorf("unexpected mint values: %d", len(values))
	}

	sender, err := asAddress(values[0])
	if err != nil {
		return model.MintEventData{}, err
	}
	amounts, err := bigInts(values[1:])
	if err != nil {
		return model.MintEventData{}, err
	}

	return model.MintEventData{
		Sender:    sender.Hex(),
		Owner:     owner.Hex(),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amounts[0].String(),
		Amount0:   amounts[1].String(),
		Amount1:   amounts[2].String(),
	}, nil
}

// DecodeBurn decodes a Burn log.
func (d *LiquidityDecoder) DecodeBurn(log model.LogRecord) (model.BurnEventData, error) {
	event := d.poolABI.Events[EventBurn]
	if name := d.EventName(log); name != EventBurn {
		return model.BurnEventData{}, fmt.Errorf("not a burn log: %q", name)
	}
	owner, tickLower, tickUpper, err := parsePositionTopics(event, log.Topics)
	if err != nil {
		return model.BurnEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.BurnEventData{}, err
	}
	if len(values) != 3 {
		return model.BurnEventData{}, fmt.Errorf("unexpected burn values: %d", len(values))
	}
	amounts, err := bigInts(values)
	if err != nil {
		return model.BurnEventData{}, err
	}

	return model.BurnEventData{
		Owner:     owner.Hex(),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amounts[0].String(),
		Amount0:   amounts[1].String(),
		Amount1:   amounts[2].String(),
	}, nil
}

func parsePositionTopics(event abi.Event, topics []string) (common.Address, int32, int32, error) {
	indexedArgs := indexedArguments(event.Inputs)
	if len(topics) != len(indexedArgs)+1 {
		return common.Address{}, 0, 0, fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(topics))
	}
	hashes, err := parseTopicHashes(topics[1:])
	if err != nil {
		return common.Address{}, 0, 0, err
	}

	var indexed struct {
		Owner     common.Address
		TickLower *big.Int
		TickUpper *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArgs, hashes); err != nil {
		return common.Address{}, 0, 0, fmt.Errorf("parse topics: %w", err)
	}

	tickLower, err := int24FromBig(indexed.TickLower)
	if err != nil {
		return common.Address{}, 0, 0, err
	}
	tickUpper, err := int24FromBig(indexed.TickUpper)
	if err != nil {
		return common.Address{}, 0, 0, err
	}
	return indexed.Owner, tickLower, tickUpper, nil
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func bigInts(values []interface{}) ([]*big.Int, error) {
	out := make([]*big.Int, 0, len(values))
	for _, value := range values {
		v, err := asBigInt(value)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

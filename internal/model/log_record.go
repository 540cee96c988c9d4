package model

import "fmt"

// LogRecord is a raw pool log as written by the chain indexer, one per JSONL line.
type LogRecord struct {
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	TxHash      string   `json:"tx_hash"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
}

// LogPosition orders logs within a chain.
type LogPosition struct {
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint64 `json:"log_index"`
}

// Position returns the block and log index of the record.
func (lr LogRecord) Position() LogPosition {
	return LogPosition{BlockNumber: lr.BlockNumber, LogIndex: lr.LogIndex}
}

// After reports whether p comes strictly after other.
func (p LogPosition) After(other LogPosition) bool {
	if p.BlockNumber != other.BlockNumber {
		return p.BlockNumber > other.BlockNumber
	}
	return p.LogIndex > other.LogIndex
}

func (p LogPosition) String() string {
	return fmt.Sprintf("%d:%d", p.BlockNumber, p.LogIndex)
}

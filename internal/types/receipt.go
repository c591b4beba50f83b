package types

import "github.com/ethereum/go-ethereum/common"

// Log is a single event log entry emitted during execution.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// Receipt is tagged by transaction type and records the outcome of
// executing one transaction.
type Receipt struct {
	Type              TxType
	Success           bool
	CumulativeGasUsed uint64
	LogsBloom         [256]byte
	Logs              []*Log
}

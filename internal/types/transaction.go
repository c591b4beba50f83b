// Package types defines the node's in-memory representation of blocks,
// transactions, receipts and accounts.
package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// TxType tags the four transaction variants this node understands.
type TxType byte

const (
	LegacyTxType TxType = 0x00
	AccessListTxType TxType = 0x01
	DynamicFeeTxType TxType = 0x02
	BlobTxType TxType = 0x03
)

// AccessTuple is one entry of an EIP-2930 access list.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// Transaction is a tagged variant over the four transaction forms this node
// accepts. Only the fields relevant to block import (gas accounting, blob
// accounting, hashing) are modeled; signature verification is not this
// package's concern — it is produced upstream by the consensus client and
// trusted as part of the payload.
type Transaction struct {
	Type TxType

	ChainID   *big.Int
	Nonce     uint64
	GasTipCap *big.Int // EIP-1559 max priority fee per gas
	GasFeeCap *big.Int // EIP-1559 max fee per gas; legacy/2930 use GasPrice here
	Gas       uint64
	To        *common.Address // nil for contract creation
	Value     *big.Int
	Data      []byte

	AccessList []AccessTuple

	// EIP-4844 fields, zero-value for non-blob transactions.
	BlobFeeCap        *big.Int
	BlobVersionedHashes []common.Hash

	hash *common.Hash
}

// BlobVersionedHashesOf returns the tagged list of blob-versioned hashes for
// this transaction, empty for every non-blob variant.
func (tx *Transaction) BlobVersionedHashesOf() []common.Hash {
	if tx.Type != BlobTxType {
		return nil
	}
	return tx.BlobVersionedHashes
}

// Hash returns the transaction's hash, memoized after first computation.
// The hash covers the type byte prefix (non-legacy) followed by the RLP list
// of the signing fields. Transaction does not retain V/R/S, so this is not
// the hash of the signed transaction envelope.
func (tx *Transaction) Hash() common.Hash {
	if tx.hash != nil {
		return *tx.hash
	}
	enc, err := rlp.EncodeToBytes(tx.signingFields())
	if err != nil {
		panic(err)
	}
	var buf []byte
	if tx.Type != LegacyTxType {
		buf = append(buf, byte(tx.Type))
	}
	buf = append(buf, enc...)
	h := crypto.Keccak256Hash(buf)
	tx.hash = &h
	return h
}

func (tx *Transaction) signingFields() []interface{} {
	switch tx.Type {
	case LegacyTxType:
		return []interface{}{tx.Nonce, tx.GasFeeCap, tx.Gas, tx.To, tx.Value, tx.Data}
	case AccessListTxType:
		return []interface{}{tx.ChainID, tx.Nonce, tx.GasFeeCap, tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList}
	case DynamicFeeTxType:
		return []interface{}{tx.ChainID, tx.Nonce, tx.GasTipCap, tx.GasFeeCap, tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList}
	case BlobTxType:
		return []interface{}{tx.ChainID, tx.Nonce, tx.GasTipCap, tx.GasFeeCap, tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList, tx.BlobFeeCap, tx.BlobVersionedHashes}
	default:
		panic("unknown transaction type")
	}
}

// GasPrice returns GasFeeCap, the field legacy/2930 transactions use to
// carry a flat gas price.
func (tx *Transaction) GasPrice() *big.Int {
	return tx.GasFeeCap
}

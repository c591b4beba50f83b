package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// accessTupleRLP is the wire shape of one EIP-2930 access-list entry.
type accessTupleRLP struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// The four tx-type RLP shapes below mirror go-ethereum's own typed
// transaction envelopes: a type byte (absent for legacy) followed by an RLP
// list of fields, signature fields included but discarded — this package
// treats signed payloads as already-authenticated input from the consensus
// client, per the Transaction type's doc.
type legacyTxRLP struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

type accessListTxRLP struct {
	ChainID    *big.Int
	Nonce      uint64
	GasPrice   *big.Int
	Gas        uint64
	To         *common.Address
	Value      *big.Int
	Data       []byte
	AccessList []accessTupleRLP
	V, R, S    *big.Int
}

type dynamicFeeTxRLP struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         *common.Address
	Value      *big.Int
	Data       []byte
	AccessList []accessTupleRLP
	V, R, S    *big.Int
}

type blobTxRLP struct {
	ChainID             *big.Int
	Nonce               uint64
	GasTipCap           *big.Int
	GasFeeCap           *big.Int
	Gas                 uint64
	To                  common.Address
	Value               *big.Int
	Data                []byte
	AccessList          []accessTupleRLP
	BlobFeeCap          *big.Int
	BlobVersionedHashes []common.Hash
	V, R, S             *big.Int
}

func toAccessList(in []accessTupleRLP) []AccessTuple {
	if in == nil {
		return nil
	}
	out := make([]AccessTuple, len(in))
	for i, t := range in {
		out[i] = AccessTuple{Address: t.Address, StorageKeys: t.StorageKeys}
	}
	return out
}

// DecodeTransaction decodes a single EIP-2718 typed-transaction envelope (a
// type byte followed by its RLP-encoded fields), or a bare RLP list for a
// legacy transaction. This is the wire form execution payloads carry in
// their transactions array.
func DecodeTransaction(raw []byte) (*Transaction, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("types: empty transaction bytes")
	}

	if raw[0] >= 0xc0 {
		var dec legacyTxRLP
		if err := rlp.DecodeBytes(raw, &dec); err != nil {
			return nil, err
		}
		return &Transaction{
			Type:      LegacyTxType,
			Nonce:     dec.Nonce,
			GasFeeCap: dec.GasPrice,
			Gas:       dec.Gas,
			To:        dec.To,
			Value:     dec.Value,
			Data:      dec.Data,
		}, nil
	}

	typ := TxType(raw[0])
	body := raw[1:]
	switch typ {
	case AccessListTxType:
		var dec accessListTxRLP
		if err := rlp.DecodeBytes(body, &dec); err != nil {
			return nil, err
		}
		return &Transaction{
			Type:       typ,
			ChainID:    dec.ChainID,
			Nonce:      dec.Nonce,
			GasFeeCap:  dec.GasPrice,
			Gas:        dec.Gas,
			To:         dec.To,
			Value:      dec.Value,
			Data:       dec.Data,
			AccessList: toAccessList(dec.AccessList),
		}, nil
	case DynamicFeeTxType:
		var dec dynamicFeeTxRLP
		if err := rlp.DecodeBytes(body, &dec); err != nil {
			return nil, err
		}
		return &Transaction{
			Type:       typ,
			ChainID:    dec.ChainID,
			Nonce:      dec.Nonce,
			GasTipCap:  dec.GasTipCap,
			GasFeeCap:  dec.GasFeeCap,
			Gas:        dec.Gas,
			To:         dec.To,
			Value:      dec.Value,
			Data:       dec.Data,
			AccessList: toAccessList(dec.AccessList),
		}, nil
	case BlobTxType:
		var dec blobTxRLP
		if err := rlp.DecodeBytes(body, &dec); err != nil {
			return nil, err
		}
		to := dec.To
		return &Transaction{
			Type:                typ,
			ChainID:             dec.ChainID,
			Nonce:               dec.Nonce,
			GasTipCap:           dec.GasTipCap,
			GasFeeCap:           dec.GasFeeCap,
			Gas:                 dec.Gas,
			To:                  &to,
			Value:               dec.Value,
			Data:                dec.Data,
			AccessList:          toAccessList(dec.AccessList),
			BlobFeeCap:          dec.BlobFeeCap,
			BlobVersionedHashes: dec.BlobVersionedHashes,
		}, nil
	default:
		return nil, fmt.Errorf("types: unknown transaction type %#x", typ)
	}
}

// DecodeTransactions decodes every envelope in raws, in order, stopping at
// the first decode failure.
func DecodeTransactions(raws [][]byte) ([]*Transaction, error) {
	out := make([]*Transaction, len(raws))
	for i, raw := range raws {
		tx, err := DecodeTransaction(raw)
		if err != nil {
			return nil, fmt.Errorf("types: decoding transaction %d: %w", i, err)
		}
		out[i] = tx
	}
	return out
}

// EncodeTransaction re-serializes tx to its EIP-2718 envelope form: a type
// byte (omitted for legacy) followed by the RLP-encoded signing fields. Used
// when deriving the transactions-root trie from already-decoded payload
// transactions, mirroring go-ethereum's DeriveSha(BinaryTransactions(...)).
func EncodeTransaction(tx *Transaction) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(tx.signingFields())
	if err != nil {
		return nil, err
	}
	if tx.Type == LegacyTxType {
		return enc, nil
	}
	return append([]byte{byte(tx.Type)}, enc...), nil
}

package types

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Header is a block header. Optional fields are nil pre-activation of the
// fork that introduces them: BaseFee (London), WithdrawalsRoot (Shanghai),
// BlobGasUsed/ExcessBlobGas/ParentBeaconBlockRoot (Cancun).
type Header struct {
	ParentHash  common.Hash
	OmmersHash  common.Hash
	Coinbase    common.Address
	StateRoot   common.Hash
	TxRoot      common.Hash
	ReceiptRoot common.Hash
	LogsBloom   [256]byte
	Difficulty  *big.Int
	Number      uint64
	GasLimit    uint64
	GasUsed     uint64
	Timestamp   uint64
	ExtraData   []byte
	PrevRandao  common.Hash
	Nonce       [8]byte

	BaseFeePerGas *big.Int

	WithdrawalsRoot *common.Hash

	BlobGasUsed           *uint64
	ExcessBlobGas         *uint64
	ParentBeaconBlockRoot *common.Hash

	hash *common.Hash
}

// rlpHeader is the on-the-wire shape: optional trailing fields are included
// only when set, matching the yellow-paper's incremental header extension
// convention (each fork appends fields, never removes them).
type rlpHeader struct {
	ParentHash  common.Hash
	OmmersHash  common.Hash
	Coinbase    common.Address
	StateRoot   common.Hash
	TxRoot      common.Hash
	ReceiptRoot common.Hash
	LogsBloom   [256]byte
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Timestamp   uint64
	ExtraData   []byte
	PrevRandao  common.Hash
	Nonce       [8]byte

	BaseFeePerGas *big.Int `rlp:"optional"`

	WithdrawalsRoot *common.Hash `rlp:"optional"`

	BlobGasUsed           *uint64     `rlp:"optional"`
	ExcessBlobGas         *uint64     `rlp:"optional"`
	ParentBeaconBlockRoot *common.Hash `rlp:"optional"`
}

func (h *Header) toRLP() *rlpHeader {
	return &rlpHeader{
		ParentHash:            h.ParentHash,
		OmmersHash:            h.OmmersHash,
		Coinbase:              h.Coinbase,
		StateRoot:             h.StateRoot,
		TxRoot:                h.TxRoot,
		ReceiptRoot:           h.ReceiptRoot,
		LogsBloom:             h.LogsBloom,
		Difficulty:            h.Difficulty,
		Number:                new(big.Int).SetUint64(h.Number),
		GasLimit:              h.GasLimit,
		GasUsed:               h.GasUsed,
		Timestamp:             h.Timestamp,
		ExtraData:             h.ExtraData,
		PrevRandao:            h.PrevRandao,
		Nonce:                 h.Nonce,
		BaseFeePerGas:         h.BaseFeePerGas,
		WithdrawalsRoot:       h.WithdrawalsRoot,
		BlobGasUsed:           h.BlobGasUsed,
		ExcessBlobGas:         h.ExcessBlobGas,
		ParentBeaconBlockRoot: h.ParentBeaconBlockRoot,
	}
}

// EncodeRLP implements rlp.Encoder.
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, h.toRLP())
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var dec rlpHeader
	if err := s.Decode(&dec); err != nil {
		return err
	}
	*h = Header{
		ParentHash:            dec.ParentHash,
		OmmersHash:            dec.OmmersHash,
		Coinbase:              dec.Coinbase,
		StateRoot:             dec.StateRoot,
		TxRoot:                dec.TxRoot,
		ReceiptRoot:           dec.ReceiptRoot,
		LogsBloom:             dec.LogsBloom,
		Difficulty:            dec.Difficulty,
		Number:                dec.Number.Uint64(),
		GasLimit:              dec.GasLimit,
		GasUsed:               dec.GasUsed,
		Timestamp:             dec.Timestamp,
		ExtraData:             dec.ExtraData,
		PrevRandao:            dec.PrevRandao,
		Nonce:                 dec.Nonce,
		BaseFeePerGas:         dec.BaseFeePerGas,
		WithdrawalsRoot:       dec.WithdrawalsRoot,
		BlobGasUsed:           dec.BlobGasUsed,
		ExcessBlobGas:         dec.ExcessBlobGas,
		ParentBeaconBlockRoot: dec.ParentBeaconBlockRoot,
	}
	return nil
}

// Hash returns the header's canonical block hash, the Keccak256 of its RLP
// encoding, memoized after first computation.
func (h *Header) Hash() common.Hash {
	if h.hash != nil {
		return *h.hash
	}
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic(err)
	}
	hash := crypto.Keccak256Hash(enc)
	h.hash = &hash
	return hash
}

// IsCancun reports whether this header carries the three Cancun-only
// fields required by spec §4.1.1.
func (h *Header) IsCancun() bool {
	return h.BlobGasUsed != nil && h.ExcessBlobGas != nil && h.ParentBeaconBlockRoot != nil
}

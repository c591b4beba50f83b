package types

import "github.com/ethereum/go-ethereum/common"

// Withdrawal is a validator withdrawal, introduced by Shanghai.
type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Address        common.Address
	Amount         uint64 // in Gwei
}

// Body is the non-header portion of a block.
type Body struct {
	Transactions []*Transaction
	Ommers       []*Header
	Withdrawals  []*Withdrawal // nil pre-Shanghai, empty-but-non-nil post-Shanghai
}

// Block pairs a Header with its Body.
type Block struct {
	Header *Header
	Body   *Body
}

// Hash delegates to the header hash — a block's identity is its header's
// identity.
func (b *Block) Hash() common.Hash {
	return b.Header.Hash()
}

// BlobVersionedHashes concatenates the blob-versioned-hashes lists of every
// blob transaction in the body, respecting inclusion order, per spec
// §4.1.3's NewPayloadV3 validation step.
func (b *Body) BlobVersionedHashes() []common.Hash {
	var out []common.Hash
	for _, tx := range b.Transactions {
		out = append(out, tx.BlobVersionedHashesOf()...)
	}
	return out
}

package trie

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NodeHash is a tagged reference to a trie node: Hashed when the node's RLP
// encoding is 32 bytes or larger (the common case), Inline when it is
// shorter and is instead carried verbatim inside its parent's encoding.
//
// A zero-value NodeHash (IsHash false, empty Inline) denotes "no node here"
// and is used for unset branch slots and the trie's own absent root.
type NodeHash struct {
	IsHash bool
	Hash   common.Hash
	Inline []byte
}

// NewNodeHash classifies raw encoded node bytes into Hashed or Inline form.
func NewNodeHash(encoded []byte) NodeHash {
	if len(encoded) >= 32 {
		return NodeHash{IsHash: true, Hash: crypto.Keccak256Hash(encoded)}
	}
	return NodeHash{Inline: encoded}
}

// NodeHashFromBytes reconstructs a NodeHash from its storage-key form: 32
// raw bytes means Hashed, anything else means Inline.
func NodeHashFromBytes(b []byte) NodeHash {
	if len(b) == 32 {
		return NodeHash{IsHash: true, Hash: common.BytesToHash(b)}
	}
	return NodeHash{Inline: append([]byte(nil), b...)}
}

// Bytes returns the storage-key form: the 32-byte hash, or the raw inline
// encoding.
func (h NodeHash) Bytes() []byte {
	if h.IsHash {
		return h.Hash.Bytes()
	}
	return h.Inline
}

// IsValid reports whether this reference actually points at a node. The
// zero value (an empty Inline) marks an unset branch slot or absent root.
func (h NodeHash) IsValid() bool {
	return h.IsHash || len(h.Inline) > 0
}

// Finalize returns the 32-byte hash this reference ultimately represents.
// For a Hashed reference that is simply the stored hash; for an Inline
// reference (only ever meaningful at the trie root — every non-root
// reference under 32 bytes stays embedded in its parent) it is the
// Keccak256 of the inline bytes.
func (h NodeHash) Finalize() common.Hash {
	if h.IsHash {
		return h.Hash
	}
	return crypto.Keccak256Hash(h.Inline)
}

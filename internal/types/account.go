package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AccountInfo is the part of an account kept directly in the storage
// engine's account_infos table (balance, nonce, code_hash).
type AccountInfo struct {
	Balance  *uint256.Int
	Nonce    uint64
	CodeHash common.Hash
}

// AccountState is the RLP-encoded form committed into the state trie: the
// same triple as AccountInfo, but with StorageRoot in place of a direct
// storage reference.
type AccountState struct {
	Balance     *uint256.Int
	Nonce       uint64
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// EmptyCodeHash is the Keccak256 of the empty byte string, the CodeHash of
// every externally-owned account.
var EmptyCodeHash = mustKeccakEmpty()

func mustKeccakEmpty() common.Hash {
	return common.Hash{0xc5, 0xd2, 0x46, 0x01, 0x86, 0xf7, 0x23, 0x3c, 0x92, 0x7e, 0x7d, 0xb2, 0xdc, 0xc7, 0x03, 0xc0,
		0xe5, 0x00, 0xb6, 0x53, 0xca, 0x82, 0x27, 0x3b, 0x7b, 0xfa, 0xd8, 0x04, 0x5d, 0x85, 0xa4, 0x70}
}

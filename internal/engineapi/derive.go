// Package engineapi implements the engine_newPayloadV3 JSON-RPC driver: a
// JWT-authenticated method that turns a consensus-layer-supplied execution
// payload into a types.Block and runs it through the import pipeline.
package engineapi

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/latticelayer/execution-core/internal/trie"
)

// deriveSha hashes an ordered list of RLP-encodable items into a root the
// same way go-ethereum's DeriveSha does: each item is inserted at the RLP
// encoding of its list index, and the resulting trie's root is the hash.
// Used for both the transactions-root and the withdrawals-root, neither of
// which an execution payload carries directly — the execution layer derives
// them from the payload's transactions/withdrawals arrays.
func deriveSha(items [][]byte) (common.Hash, error) {
	if len(items) == 0 {
		return trie.EmptyTrieHash(), nil
	}
	t := trie.New(trie.NewMemoryDB())
	for i, item := range items {
		key, err := rlp.EncodeToBytes(uint(i))
		if err != nil {
			return common.Hash{}, err
		}
		if err := t.Insert(key, item); err != nil {
			return common.Hash{}, err
		}
	}
	return t.Hash()
}

// Package trie implements the content-addressed Merkle-Patricia Trie used
// as this node's world-state authentication structure.
package trie

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// emptyTrieHash is keccak256(RLP_NULL), RLP_NULL being the single byte
// 0x80 (the RLP encoding of an empty byte string).
var emptyTrieHash = crypto.Keccak256Hash([]byte{0x80})

// EmptyTrieHash returns the root hash of a trie with no entries.
func EmptyTrieHash() common.Hash { return emptyTrieHash }

// emptyListHash is keccak256(RLP([])), RLP's empty-list marker 0xc0 — the
// value a block header's ommers_hash takes for a block with no ommers.
var emptyListHash = crypto.Keccak256Hash([]byte{0xc0})

// EmptyListHash returns keccak256 of the RLP-encoded empty list.
func EmptyListHash() common.Hash { return emptyListHash }

// Trie is an authenticated key→value map backed by a DB, with an
// in-memory write cache (State) for nodes created or reshaped since the
// last Hash call.
type Trie struct {
	root  NodeHash
	state *State
}

// New returns an empty trie over db.
func New(db DB) *Trie {
	return &Trie{state: NewState(db)}
}

// Open returns a trie over db rooted at root, unless root is the empty
// trie hash, in which case the trie starts empty.
func Open(db DB, root common.Hash) *Trie {
	t := &Trie{state: NewState(db)}
	if root != emptyTrieHash {
		t.root = NodeHash{IsHash: true, Hash: root}
	}
	return t
}

// Get looks up path (raw bytes, expanded to nibbles internally) and
// returns its value, or nil if absent.
func (t *Trie) Get(path []byte) ([]byte, error) {
	if !t.root.IsValid() {
		return nil, nil
	}
	root, err := t.state.GetNode(t.root)
	if err != nil {
		return nil, err
	}
	return getNode(t.state, root, BytesToNibbles(path))
}

// Insert writes value at path, reshaping nodes as needed.
func (t *Trie) Insert(path, value []byte) error {
	nibbles := BytesToNibbles(path)
	if !t.root.IsValid() {
		leaf := &LeafNode{PathRem: cloneNibbles(nibbles), Value: value}
		t.root = t.state.InsertNode(leaf)
		return nil
	}
	root, err := t.state.GetNode(t.root)
	if err != nil {
		return err
	}
	newRoot, err := insertNode(t.state, root, nibbles, value)
	if err != nil {
		return err
	}
	t.root = t.state.InsertNode(newRoot)
	return nil
}

// Remove deletes path, returning its prior value (nil if it was absent).
func (t *Trie) Remove(path []byte) ([]byte, error) {
	if !t.root.IsValid() {
		return nil, nil
	}
	root, err := t.state.GetNode(t.root)
	if err != nil {
		return nil, err
	}
	newRoot, old, _, err := removeNode(t.state, root, BytesToNibbles(path))
	if err != nil {
		return nil, err
	}
	if newRoot == nil {
		t.root = NodeHash{}
	} else {
		t.root = t.state.InsertNode(newRoot)
	}
	return old, nil
}

// Hash commits every node reachable from the current root into the
// backing DB and returns the finalized 32-byte root hash, or the empty
// trie hash if the trie has no entries.
func (t *Trie) Hash() (common.Hash, error) {
	if !t.root.IsValid() {
		return emptyTrieHash, nil
	}
	if err := t.state.Commit(t.root); err != nil {
		return common.Hash{}, err
	}
	return t.root.Finalize(), nil
}

// GetFromRoot performs a read-only lookup against an arbitrary historical
// root hash returned by a prior Hash call. The root must be a Hashed
// reference (practically true for any non-trivial trie).
func (t *Trie) GetFromRoot(root common.Hash, path []byte) ([]byte, error) {
	node, err := t.state.GetNode(NodeHash{IsHash: true, Hash: root})
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	return getNode(t.state, node, BytesToNibbles(path))
}

// SetRoot rebinds the trie's root to root without checking reachability;
// the caller must supply a hash previously returned by Hash.
func (t *Trie) SetRoot(root common.Hash) {
	if root == emptyTrieHash {
		t.root = NodeHash{}
		return
	}
	t.root = NodeHash{IsHash: true, Hash: root}
}

func getNode(state *State, n Node, path Nibbles) ([]byte, error) {
	if n == nil {
		return nil, nil
	}
	switch node := n.(type) {
	case *LeafNode:
		if nibblesEqual(node.PathRem, path) {
			return node.Value, nil
		}
		return nil, nil
	case *ExtensionNode:
		if len(path) < len(node.SharedPath) || !nibblesEqual(node.SharedPath, path[:len(node.SharedPath)]) {
			return nil, nil
		}
		child, err := state.GetNode(node.Child)
		if err != nil {
			return nil, err
		}
		return getNode(state, child, path[len(node.SharedPath):])
	case *BranchNode:
		if len(path) == 0 {
			return node.Value, nil
		}
		child, err := state.GetNode(node.Choices[path[0]])
		if err != nil {
			return nil, err
		}
		return getNode(state, child, path[1:])
	default:
		return nil, nil
	}
}

func nibblesEqual(a, b Nibbles) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

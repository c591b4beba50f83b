package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Node is one of LeafNode, ExtensionNode, or BranchNode.
type Node interface {
	Encode() []byte
}

// LeafNode is a terminal node: the remainder of a key's nibble path plus
// its value.
type LeafNode struct {
	PathRem Nibbles
	Value   []byte
}

// ExtensionNode shares a nibble prefix among its descendants and points to
// a single child.
type ExtensionNode struct {
	SharedPath Nibbles
	Child      NodeHash
}

// BranchNode indexes up to 16 children by the next nibble, plus an
// optional value for a key that terminates exactly at this node.
type BranchNode struct {
	Choices [16]NodeHash
	Value   []byte // nil means "no value here"
}

func childRef(h NodeHash) interface{} {
	if !h.IsValid() {
		return []byte{}
	}
	if h.IsHash {
		return h.Hash
	}
	return rlp.RawValue(h.Inline)
}

// Encode returns the node's yellow-paper RLP encoding: a 2-element list
// (hex-prefixed path, value-or-child) for Leaf/Extension, a 17-element
// list for Branch.
func (n *LeafNode) Encode() []byte {
	enc, err := rlp.EncodeToBytes([]interface{}{encodePath(n.PathRem, true), n.Value})
	if err != nil {
		panic(err)
	}
	return enc
}

func (n *ExtensionNode) Encode() []byte {
	enc, err := rlp.EncodeToBytes([]interface{}{encodePath(n.SharedPath, false), childRef(n.Child)})
	if err != nil {
		panic(err)
	}
	return enc
}

func (n *BranchNode) Encode() []byte {
	items := make([]interface{}, 17)
	for i := 0; i < 16; i++ {
		items[i] = childRef(n.Choices[i])
	}
	if n.Value != nil {
		items[16] = n.Value
	} else {
		items[16] = []byte{}
	}
	enc, err := rlp.EncodeToBytes(items)
	if err != nil {
		panic(err)
	}
	return enc
}

// decodeNode parses a node's yellow-paper RLP encoding back into a Node.
func decodeNode(raw []byte) (Node, error) {
	var list []rlp.RawValue
	if err := rlp.DecodeBytes(raw, &list); err != nil {
		return nil, err
	}
	switch len(list) {
	case 2:
		pathBytes, flag, err := decodeHexPrefixed(list[0])
		if err != nil {
			return nil, err
		}
		if flag&0x20 != 0 {
			var value []byte
			if err := rlp.DecodeBytes(list[1], &value); err != nil {
				return nil, err
			}
			return &LeafNode{PathRem: pathBytes, Value: value}, nil
		}
		child, err := decodeChildRef(list[1])
		if err != nil {
			return nil, err
		}
		return &ExtensionNode{SharedPath: pathBytes, Child: child}, nil
	case 17:
		var b BranchNode
		for i := 0; i < 16; i++ {
			ref, err := decodeChildRef(list[i])
			if err != nil {
				return nil, err
			}
			b.Choices[i] = ref
		}
		var value []byte
		if err := rlp.DecodeBytes(list[16], &value); err != nil {
			return nil, err
		}
		if len(value) > 0 {
			b.Value = value
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("trie: malformed node with %d items", len(list))
	}
}

// decodeHexPrefixed inverses encodePath, returning the nibble path and the
// leading flag byte's top nibble (0x20 leaf bit included).
func decodeHexPrefixed(enc rlp.RawValue) (Nibbles, byte, error) {
	var raw []byte
	if err := rlp.DecodeBytes(enc, &raw); err != nil {
		return nil, 0, err
	}
	if len(raw) == 0 {
		return nil, 0, fmt.Errorf("trie: empty hex-prefixed path")
	}
	flag := raw[0] & 0xf0
	odd := raw[0]&0x10 != 0
	nibbles := BytesToNibbles(raw[1:])
	if odd {
		nibbles = append(Nibbles{raw[0] & 0x0f}, nibbles...)
	}
	return nibbles, flag, nil
}

// decodeChildRef inverses childRef: a 32-byte string decodes to Hashed, an
// empty string to an invalid/unset reference, anything else (embedded raw
// RLP) to Inline.
func decodeChildRef(enc rlp.RawValue) (NodeHash, error) {
	if len(enc) == 1 && enc[0] == 0x80 {
		return NodeHash{}, nil
	}
	if len(enc) == 33 && enc[0] == 0xa0 {
		var h [32]byte
		copy(h[:], enc[1:])
		return NodeHash{IsHash: true, Hash: h}, nil
	}
	return NodeHash{Inline: append([]byte(nil), enc...)}, nil
}

package trie

// State holds a Trie's write cache (keyed by NodeHash) over its backing DB.
// Nodes created or reshaped by insert/remove are kept only in the cache
// until Commit writes the subtree reachable from a given root and drains
// it — mirroring the reference implementation's TrieState.
type State struct {
	db    DB
	cache map[string]Node
}

// NewState wraps a DB with an empty write cache.
func NewState(db DB) *State {
	return &State{db: db, cache: make(map[string]Node)}
}

// GetNode resolves a NodeHash to its Node, checking the write cache first.
// Returns (nil, nil) when hash is not IsValid (an unset reference).
func (s *State) GetNode(hash NodeHash) (Node, error) {
	if !hash.IsValid() {
		return nil, nil
	}
	if n, ok := s.cache[string(hash.Bytes())]; ok {
		return n, nil
	}
	raw, ok, err := s.db.Get(hash.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeNode(raw)
}

// InsertNode stores n in the write cache under its freshly computed
// NodeHash and returns that hash.
func (s *State) InsertNode(n Node) NodeHash {
	encoded := n.Encode()
	hash := NewNodeHash(encoded)
	s.cache[string(hash.Bytes())] = n
	return hash
}

// Commit writes the subtree reachable from root into the DB, draining
// every written node from the cache. Nodes no longer present in the cache
// are assumed already persisted and are not revisited — this bounds commit
// cost to the nodes actually touched since the last commit.
func (s *State) Commit(root NodeHash) error {
	if err := s.commitNode(root); err != nil {
		return err
	}
	return nil
}

func (s *State) commitNode(hash NodeHash) error {
	if !hash.IsValid() {
		return nil
	}
	key := string(hash.Bytes())
	n, ok := s.cache[key]
	if !ok {
		return nil
	}
	delete(s.cache, key)
	switch node := n.(type) {
	case *BranchNode:
		for _, child := range node.Choices {
			if child.IsValid() {
				if err := s.commitNode(child); err != nil {
					return err
				}
			}
		}
	case *ExtensionNode:
		if err := s.commitNode(node.Child); err != nil {
			return err
		}
	case *LeafNode:
		// no children
	}
	if !hash.IsHash {
		// Inline nodes are carried verbatim inside their parent's
		// encoding and are never stored under their own key.
		return nil
	}
	return s.db.Put(hash.Bytes(), n.Encode())
}

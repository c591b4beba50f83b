package trie

// insertNode inserts value at path into the subtree rooted at n (which may
// be nil, for an empty child slot), returning the replacement node. The
// original node is never mutated in place — reshaped nodes are always
// freshly allocated, matching the trie's append-only node history.
func insertNode(state *State, n Node, path Nibbles, value []byte) (Node, error) {
	if n == nil {
		return &LeafNode{PathRem: cloneNibbles(path), Value: value}, nil
	}
	switch node := n.(type) {
	case *LeafNode:
		return insertIntoLeaf(state, node, path, value)
	case *ExtensionNode:
		return insertIntoExtension(state, node, path, value)
	case *BranchNode:
		return insertIntoBranch(state, node, path, value)
	default:
		panic("trie: unknown node type")
	}
}

func insertIntoLeaf(state *State, leaf *LeafNode, path Nibbles, value []byte) (Node, error) {
	if nibblesEqual(leaf.PathRem, path) {
		return &LeafNode{PathRem: leaf.PathRem, Value: value}, nil
	}
	prefixLen := commonPrefixLen(leaf.PathRem, path)
	branch := &BranchNode{}

	if prefixLen == len(leaf.PathRem) {
		branch.Value = leaf.Value
	} else {
		nib := leaf.PathRem[prefixLen]
		rest := cloneNibbles(leaf.PathRem[prefixLen+1:])
		branch.Choices[nib] = state.InsertNode(&LeafNode{PathRem: rest, Value: leaf.Value})
	}
	if prefixLen == len(path) {
		branch.Value = value
	} else {
		nib := path[prefixLen]
		rest := cloneNibbles(path[prefixLen+1:])
		branch.Choices[nib] = state.InsertNode(&LeafNode{PathRem: rest, Value: value})
	}

	if prefixLen == 0 {
		return branch, nil
	}
	branchHash := state.InsertNode(branch)
	return &ExtensionNode{SharedPath: cloneNibbles(path[:prefixLen]), Child: branchHash}, nil
}

func insertIntoExtension(state *State, ext *ExtensionNode, path Nibbles, value []byte) (Node, error) {
	prefixLen := commonPrefixLen(ext.SharedPath, path)

	if prefixLen == len(ext.SharedPath) {
		child, err := state.GetNode(ext.Child)
		if err != nil {
			return nil, err
		}
		newChild, err := insertNode(state, child, path[prefixLen:], value)
		if err != nil {
			return nil, err
		}
		return &ExtensionNode{SharedPath: ext.SharedPath, Child: state.InsertNode(newChild)}, nil
	}

	branch := &BranchNode{}
	if prefixLen == len(ext.SharedPath)-1 {
		branch.Choices[ext.SharedPath[prefixLen]] = ext.Child
	} else {
		nib := ext.SharedPath[prefixLen]
		rest := cloneNibbles(ext.SharedPath[prefixLen+1:])
		branch.Choices[nib] = state.InsertNode(&ExtensionNode{SharedPath: rest, Child: ext.Child})
	}

	if prefixLen == len(path) {
		branch.Value = value
	} else {
		nib := path[prefixLen]
		rest := cloneNibbles(path[prefixLen+1:])
		branch.Choices[nib] = state.InsertNode(&LeafNode{PathRem: rest, Value: value})
	}

	if prefixLen == 0 {
		return branch, nil
	}
	branchHash := state.InsertNode(branch)
	return &ExtensionNode{SharedPath: cloneNibbles(path[:prefixLen]), Child: branchHash}, nil
}

func insertIntoBranch(state *State, branch *BranchNode, path Nibbles, value []byte) (Node, error) {
	next := *branch
	if len(path) == 0 {
		next.Value = value
		return &next, nil
	}
	nib := path[0]
	child, err := state.GetNode(branch.Choices[nib])
	if err != nil {
		return nil, err
	}
	newChild, err := insertNode(state, child, path[1:], value)
	if err != nil {
		return nil, err
	}
	next.Choices[nib] = state.InsertNode(newChild)
	return &next, nil
}

// removeNode removes path from the subtree rooted at n, returning the
// replacement node (nil if the subtree becomes empty), the removed value,
// and whether anything was actually removed.
func removeNode(state *State, n Node, path Nibbles) (Node, []byte, bool, error) {
	if n == nil {
		return nil, nil, false, nil
	}
	switch node := n.(type) {
	case *LeafNode:
		if nibblesEqual(node.PathRem, path) {
			return nil, node.Value, true, nil
		}
		return node, nil, false, nil
	case *ExtensionNode:
		return removeFromExtension(state, node, path)
	case *BranchNode:
		return removeFromBranch(state, node, path)
	default:
		panic("trie: unknown node type")
	}
}

func removeFromExtension(state *State, ext *ExtensionNode, path Nibbles) (Node, []byte, bool, error) {
	if len(path) < len(ext.SharedPath) || !nibblesEqual(ext.SharedPath, path[:len(ext.SharedPath)]) {
		return ext, nil, false, nil
	}
	child, err := state.GetNode(ext.Child)
	if err != nil {
		return nil, nil, false, err
	}
	newChild, old, found, err := removeNode(state, child, path[len(ext.SharedPath):])
	if err != nil {
		return nil, nil, false, err
	}
	if !found {
		return ext, nil, false, nil
	}
	if newChild == nil {
		return nil, old, true, nil
	}
	switch nc := newChild.(type) {
	case *LeafNode:
		return &LeafNode{PathRem: append(cloneNibbles(ext.SharedPath), nc.PathRem...), Value: nc.Value}, old, true, nil
	case *ExtensionNode:
		return &ExtensionNode{SharedPath: append(cloneNibbles(ext.SharedPath), nc.SharedPath...), Child: nc.Child}, old, true, nil
	default:
		return &ExtensionNode{SharedPath: ext.SharedPath, Child: state.InsertNode(newChild)}, old, true, nil
	}
}

func removeFromBranch(state *State, branch *BranchNode, path Nibbles) (Node, []byte, bool, error) {
	next := *branch
	var old []byte
	found := false

	if len(path) == 0 {
		if branch.Value == nil {
			return branch, nil, false, nil
		}
		old = branch.Value
		next.Value = nil
		found = true
	} else {
		nib := path[0]
		child, err := state.GetNode(branch.Choices[nib])
		if err != nil {
			return nil, nil, false, err
		}
		newChild, removedVal, removedFound, err := removeNode(state, child, path[1:])
		if err != nil {
			return nil, nil, false, err
		}
		if !removedFound {
			return branch, nil, false, nil
		}
		old = removedVal
		found = true
		if newChild == nil {
			next.Choices[nib] = NodeHash{}
		} else {
			next.Choices[nib] = state.InsertNode(newChild)
		}
	}

	collapsed, err := collapseBranch(state, &next)
	if err != nil {
		return nil, nil, false, err
	}
	return collapsed, old, found, nil
}

// collapseBranch enforces the MPT invariant that a branch node must carry
// at least two entries (children plus an optional value); when fewer than
// two remain, it collapses into a Leaf or Extension, merging the surviving
// entry's nibble/path into the replacement.
func collapseBranch(state *State, branch *BranchNode) (Node, error) {
	count := 0
	lastNib := -1
	for i, c := range branch.Choices {
		if c.IsValid() {
			count++
			lastNib = i
		}
	}
	total := count
	if branch.Value != nil {
		total++
	}

	switch {
	case total == 0:
		return nil, nil
	case total == 1 && branch.Value != nil:
		return &LeafNode{PathRem: Nibbles{}, Value: branch.Value}, nil
	case total == 1:
		child, err := state.GetNode(branch.Choices[lastNib])
		if err != nil {
			return nil, err
		}
		prefix := Nibbles{byte(lastNib)}
		switch c := child.(type) {
		case *LeafNode:
			return &LeafNode{PathRem: append(prefix, c.PathRem...), Value: c.Value}, nil
		case *ExtensionNode:
			return &ExtensionNode{SharedPath: append(prefix, c.SharedPath...), Child: c.Child}, nil
		default:
			return &ExtensionNode{SharedPath: prefix, Child: branch.Choices[lastNib]}, nil
		}
	default:
		return branch, nil
	}
}

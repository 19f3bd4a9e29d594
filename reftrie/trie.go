// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package reftrie

import (
	"fmt"

	"github.com/qdm12/gotree"
)

// node is an in-memory trie node over expanded nibble values, one
// nibble per element.
type node interface {
	isNode()
}

type (
	// leafNode holds the remaining key nibbles below its parent and
	// the value.
	leafNode struct {
		key   []uint8
		value []byte
	}
	// branchNode holds the key nibbles shared by its subtree, one
	// child slot per nibble value and an optional value. Child keys
	// do not repeat the slot nibble.
	branchNode struct {
		key      []uint8
		children []node
		value    []byte
	}
)

func (leafNode) isNode()   {}
func (branchNode) isNode() {}

// Trie is an insert-only in-memory trie for one layout.
type Trie struct {
	layout Layout
	root   node
}

// NewTrie creates an empty trie for the given layout.
func NewTrie(layout Layout) *Trie {
	return &Trie{layout: layout}
}

// Insert sets the value for key, overwriting any previous value.
func (t *Trie) Insert(key, value []byte) {
	nibs := t.layout.ops().KeyToNibbles(key)
	t.root = t.insertAt(t.root, nibs, value)
}

// Get returns the value for key, or nil if absent.
func (t *Trie) Get(key []byte) []byte {
	nibs := t.layout.ops().KeyToNibbles(key)
	curr := t.root
	for {
		switch n := curr.(type) {
		case nil:
			return nil
		case leafNode:
			if nibblesEqual(n.key, nibs) {
				return n.value
			}
			return nil
		case branchNode:
			if commonPrefixLen(n.key, nibs) < len(n.key) {
				return nil
			}
			if len(nibs) == len(n.key) {
				return n.value
			}
			curr = n.children[nibs[len(n.key)]]
			nibs = nibs[len(n.key)+1:]
		default:
			panic(fmt.Sprintf("unknown node type %T", curr))
		}
	}
}

func (t *Trie) insertAt(curr node, key []uint8, value []byte) node {
	switch n := curr.(type) {
	case nil:
		return leafNode{key: key, value: value}
	case leafNode:
		common := commonPrefixLen(n.key, key)
		if common == len(n.key) && common == len(key) {
			n.value = value
			return n
		}
		branch := t.newBranch(key[:common])
		branch = t.attach(branch, n.key[common:], n.value)
		return t.attach(branch, key[common:], value)
	case branchNode:
		common := commonPrefixLen(n.key, key)
		if common == len(n.key) {
			if common == len(key) {
				n.value = value
				return n
			}
			slot := key[common]
			n.children[slot] = t.insertAt(n.children[slot], key[common+1:], value)
			return n
		}

		// the new key diverges inside the branch key; split it.
		branch := t.newBranch(key[:common])
		tail := n
		tail.key = n.key[common+1:]
		branch.children[n.key[common]] = tail
		return t.attach(branch, key[common:], value)
	default:
		panic(fmt.Sprintf("unknown node type %T", curr))
	}
}

func (t *Trie) newBranch(key []uint8) branchNode {
	return branchNode{
		key:      key,
		children: make([]node, t.layout.ops().NibbleLength()),
	}
}

// attach places value under branch at the key remainder relative to
// the branch key end. An empty remainder sets the branch value.
func (t *Trie) attach(branch branchNode, remainder []uint8, value []byte) branchNode {
	if len(remainder) == 0 {
		branch.value = value
		return branch
	}
	branch.children[remainder[0]] = leafNode{key: remainder[1:], value: value}
	return branch
}

func commonPrefixLen(a, b []uint8) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func nibblesEqual(a, b []uint8) bool {
	return commonPrefixLen(a, b) == len(a) && len(a) == len(b)
}

// String renders the trie for debugging, pre-order.
func (t *Trie) String() string {
	if t.root == nil {
		return "Empty"
	}
	return t.stringNode(t.root).String()
}

func (t *Trie) stringNode(curr node) (stringNode *gotree.Node) {
	switch n := curr.(type) {
	case leafNode:
		stringNode = gotree.New("Leaf")
		stringNode.Appendf("Key: " + nibblesToString(n.key))
		stringNode.Appendf("Value: 0x%x", n.value)
	case branchNode:
		stringNode = gotree.New("Branch")
		stringNode.Appendf("Key: " + nibblesToString(n.key))
		if n.value != nil {
			stringNode.Appendf("Value: 0x%x", n.value)
		}
		for i, child := range n.children {
			if child == nil {
				continue
			}
			childNode := stringNode.Appendf("Child %d", i)
			childNode.AppendNode(t.stringNode(child))
		}
	default:
		panic(fmt.Sprintf("unknown node type %T", curr))
	}
	return stringNode
}

func nibblesToString(nibs []uint8) string {
	if len(nibs) == 0 {
		return "nil"
	}
	return fmt.Sprintf("%x", nibs)
}

// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package reftrie

import (
	"fmt"

	"github.com/Jackkakaya/trie/codec"
	"github.com/Jackkakaya/trie/hashdb"
	"github.com/Jackkakaya/trie/keccak_hasher"
	"github.com/Jackkakaya/trie/nibbles"
)

type childReference = codec.ChildReference[keccak_hasher.KeccakHash]

// Root derives the trie root hash without persisting nodes.
func (t *Trie) Root() keccak_hasher.KeccakHash {
	return t.RootInto(nil)
}

// RootInto derives the trie root hash, inserting every non-inlined
// node encoding into db when db is non-nil. The root encoding is
// always hashed, never inlined; the empty trie root is the hash of
// the empty node encoding.
func (t *Trie) RootInto(db hashdb.HashDB[keccak_hasher.KeccakHash]) keccak_hasher.KeccakHash {
	c := t.layout.codec
	if t.root == nil {
		if db != nil {
			db.Insert(nibbles.Prefix{}, c.EmptyNode())
		}
		return c.HashedNullNode()
	}

	encoded := t.encodeNode(t.root, nil, db)
	root := c.Hasher().Hash(encoded)
	if db != nil {
		db.Emplace(root, nibbles.Prefix{}, encoded)
	}
	return root
}

// encodeNode returns the encoding of curr, whose position in the
// trie is the expanded nibble path. Child encodings recurse first so
// hashed children can be persisted bottom-up.
func (t *Trie) encodeNode(curr node, path []uint8,
	db hashdb.HashDB[keccak_hasher.KeccakHash]) []byte {
	c := t.layout.codec
	switch n := curr.(type) {
	case leafNode:
		return c.LeafNode(t.layout.ops().PartialFromNibbles(n.key), n.value)
	case branchNode:
		children := make([]childReference, t.layout.ops().NibbleLength())
		childPath := append(append([]uint8{}, path...), n.key...)
		for i, child := range n.children {
			if child == nil {
				continue
			}
			children[i] = t.childReferenceOf(child, append(childPath, uint8(i)), db)
		}

		if !t.layout.extension {
			return c.BranchNodeNibbled(t.layout.ops().PartialFromNibbles(n.key), children, n.value)
		}

		// plain branch, reached through an extension node when the
		// branch carries key nibbles.
		encoded := c.BranchNode(children, n.value)
		if len(n.key) == 0 {
			return encoded
		}
		branchRef := t.referenceOf(encoded, childPath, db)
		return c.ExtensionNode(t.layout.ops().PartialFromNibbles(n.key), branchRef)
	default:
		panic(fmt.Sprintf("unknown node type %T", curr))
	}
}

func (t *Trie) childReferenceOf(child node, path []uint8,
	db hashdb.HashDB[keccak_hasher.KeccakHash]) childReference {
	return t.referenceOf(t.encodeNode(child, path, db), path, db)
}

// referenceOf applies the inlining rule: an encoding shorter than
// the hash width is carried inline in its parent, anything else is
// hashed and optionally persisted.
func (t *Trie) referenceOf(encoded []byte, path []uint8,
	db hashdb.HashDB[keccak_hasher.KeccakHash]) childReference {
	h := t.layout.codec.Hasher()
	if len(encoded) < h.Length() {
		return codec.ChildReferenceInline[keccak_hasher.KeccakHash]{Data: encoded}
	}

	hash := h.Hash(encoded)
	if db != nil {
		db.Emplace(hash, t.prefixOf(path), encoded)
	}
	return codec.ChildReferenceHash[keccak_hasher.KeccakHash]{Hash: hash}
}

// prefixOf packs an expanded nibble path into the byte aligned
// prefix used as a storage key qualifier.
func (t *Trie) prefixOf(path []uint8) nibbles.Prefix {
	ops := t.layout.ops()
	perByte := int(ops.NibblePerByte())

	aligned := len(path) / perByte * perByte
	packed := make([]byte, 0, len(path)/perByte)
	for i := 0; i < aligned; i += perByte {
		var b byte
		for j := 0; j < perByte; j++ {
			b = b<<ops.BitPerNibble() | path[i+j]
		}
		packed = append(packed, b)
	}

	prefix := nibbles.Prefix{PartialKey: packed}
	if aligned < len(path) {
		var b byte
		for _, nib := range path[aligned:] {
			b = b<<ops.BitPerNibble() | nib
		}
		prefix.PaddedByte = &b
	}
	return prefix
}

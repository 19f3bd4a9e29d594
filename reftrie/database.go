// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package reftrie

import (
	"fmt"

	"github.com/ChainSafe/chaindb"

	"github.com/Jackkakaya/trie/codec"
	"github.com/Jackkakaya/trie/hashdb"
	"github.com/Jackkakaya/trie/keccak_hasher"
	"github.com/Jackkakaya/trie/nibbles"
)

// Store writes every non-inlined node encoding to db keyed by its
// hash, in one batch, and returns the root hash.
func (t *Trie) Store(db chaindb.Database) (keccak_hasher.KeccakHash, error) {
	writer := &batchWriter{
		batch:  db.NewBatch(),
		hasher: t.layout.codec.Hasher(),
	}
	root := t.RootInto(writer)
	if writer.err != nil {
		return keccak_hasher.KeccakHash{}, fmt.Errorf("writing node batch: %w", writer.err)
	}
	return root, writer.batch.Flush()
}

// batchWriter adapts a chaindb batch to the node store interface the
// encoder persists through. It is write-only.
type batchWriter struct {
	batch  chaindb.Batch
	hasher hashdb.Hasher[keccak_hasher.KeccakHash]
	err    error
}

func (b *batchWriter) Emplace(key keccak_hasher.KeccakHash, _ nibbles.Prefix, value []byte) {
	if b.err != nil {
		return
	}
	b.err = b.batch.Put(key.Bytes(), value)
}

func (b *batchWriter) Insert(prefix nibbles.Prefix, value []byte) keccak_hasher.KeccakHash {
	key := b.hasher.Hash(value)
	b.Emplace(key, prefix, value)
	return key
}

func (b *batchWriter) Get(keccak_hasher.KeccakHash, nibbles.Prefix) *[]byte { return nil }

func (b *batchWriter) Contains(keccak_hasher.KeccakHash, nibbles.Prefix) bool { return false }

func (b *batchWriter) Remove(keccak_hasher.KeccakHash, nibbles.Prefix) {}

var _ hashdb.HashDB[keccak_hasher.KeccakHash] = &batchWriter{}

// LoadTrie rebuilds the trie rooted at root from db.
func LoadTrie(layout Layout, db chaindb.Database, root keccak_hasher.KeccakHash) (*Trie, error) {
	t := NewTrie(layout)

	encoded, err := db.Get(root.Bytes())
	if err != nil {
		return nil, fmt.Errorf("getting root node: %w", err)
	}
	decoded, err := layout.codec.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding root node: %w", err)
	}

	t.root, err = t.loadNode(db, decoded)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// loadNode converts a decoded wire node back into the in-memory
// form, resolving hashed children through db and decoding inlined
// ones in place. An extension node is folded into the branch below
// it.
func (t *Trie) loadNode(db chaindb.Database, decoded codec.Node) (node, error) {
	switch n := decoded.(type) {
	case codec.Empty:
		return nil, nil
	case codec.Leaf:
		return leafNode{key: n.PartialKey.ToNibbles(), value: n.Value}, nil
	case codec.NibbledBranch:
		return t.loadBranch(db, n.PartialKey.ToNibbles(), n.Value, n.Children)
	case codec.Branch:
		return t.loadBranch(db, nil, n.Value, n.Children)
	case codec.Extension:
		child, err := t.resolveHandle(db, n.Child)
		if err != nil {
			return nil, fmt.Errorf("resolving extension child: %w", err)
		}
		branch, ok := child.(branchNode)
		if !ok {
			return nil, fmt.Errorf("%w: extension child is %T, expected a branch", codec.ErrBadFormat, child)
		}
		branch.key = append(n.PartialKey.ToNibbles(), branch.key...)
		return branch, nil
	default:
		panic(fmt.Sprintf("unknown node type %T", decoded))
	}
}

func (t *Trie) loadBranch(db chaindb.Database, key []uint8, value []byte,
	children codec.ChildSlices) (node, error) {
	branch := t.newBranch(key)
	branch.value = value
	for i := uint(0); i < children.Len(); i++ {
		handle := children.At(i)
		if handle == nil {
			continue
		}
		child, err := t.resolveHandle(db, handle)
		if err != nil {
			return nil, fmt.Errorf("resolving child at slot %d: %w", i, err)
		}
		branch.children[i] = child
	}
	return branch, nil
}

func (t *Trie) resolveHandle(db chaindb.Database, handle codec.NodeHandle) (node, error) {
	var encoded []byte
	switch h := handle.(type) {
	case codec.Hash:
		var err error
		encoded, err = db.Get(h.Data)
		if err != nil {
			return nil, fmt.Errorf("getting node %x: %w", h.Data, err)
		}
	case codec.Inline:
		encoded = h.Data
	default:
		panic(fmt.Sprintf("unknown node handle type %T", handle))
	}

	decoded, err := t.layout.codec.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding node: %w", err)
	}
	return t.loadNode(db, decoded)
}

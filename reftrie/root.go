// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package reftrie

import (
	"bytes"
	"sort"

	"github.com/Jackkakaya/trie/codec"
	"github.com/Jackkakaya/trie/keccak_hasher"
)

// Entry is one key value pair fed to the batch root builder.
type Entry struct {
	Key   []byte
	Value []byte
}

type sortedEntry struct {
	nibs  []uint8
	value []byte
}

// TrieRoot computes the root hash of the trie holding entries in a
// single recursive pass, without building the trie. Entries are
// sorted by key first; on duplicate keys the last occurrence wins,
// matching Insert order semantics. The root matches
// Trie.Root after inserting the same entries.
func TrieRoot(layout Layout, entries []Entry) keccak_hasher.KeccakHash {
	c := layout.codec
	sorted := sortEntries(layout, entries)
	if len(sorted) == 0 {
		return c.HashedNullNode()
	}

	b := rootBuilder{layout: layout}
	encoded := b.buildNode(sorted, 0)
	return c.Hasher().Hash(encoded)
}

// sortEntries sorts by key, keeping only the last occurrence of each
// duplicate, and expands keys to nibbles once.
func sortEntries(layout Layout, entries []Entry) []sortedEntry {
	deduped := make(map[string][]byte, len(entries))
	for _, e := range entries {
		deduped[string(e.Key)] = e.Value
	}

	keys := make([]string, 0, len(deduped))
	for key := range deduped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare([]byte(keys[i]), []byte(keys[j])) < 0
	})

	sorted := make([]sortedEntry, 0, len(keys))
	for _, key := range keys {
		sorted = append(sorted, sortedEntry{
			nibs:  layout.ops().KeyToNibbles([]byte(key)),
			value: deduped[key],
		})
	}
	return sorted
}

type rootBuilder struct {
	layout Layout
}

// buildNode returns the encoding of the node covering entries, all
// of which share their first depth nibbles. entries is non-empty and
// sorted.
func (b *rootBuilder) buildNode(entries []sortedEntry, depth int) []byte {
	c := b.layout.codec
	ops := b.layout.ops()

	if len(entries) == 1 {
		partial := ops.PartialFromNibbles(entries[0].nibs[depth:])
		return c.LeafNode(partial, entries[0].value)
	}

	common := commonDepth(entries, depth)

	var value []byte
	if len(entries[0].nibs) == common {
		// sorted order puts the key ending at the branch first.
		value = entries[0].value
		entries = entries[1:]
	}

	children := make([]childReference, ops.NibbleLength())
	for start := 0; start < len(entries); {
		slot := entries[start].nibs[common]
		end := start + 1
		for end < len(entries) && entries[end].nibs[common] == slot {
			end++
		}
		encoded := b.buildNode(entries[start:end], common+1)
		children[slot] = b.referenceOf(encoded)
		start = end
	}

	partial := ops.PartialFromNibbles(entries[0].nibs[depth:common])
	if !b.layout.extension {
		return c.BranchNodeNibbled(partial, children, value)
	}

	encoded := c.BranchNode(children, value)
	if common == depth {
		return encoded
	}
	return c.ExtensionNode(partial, b.referenceOf(encoded))
}

func (b *rootBuilder) referenceOf(encoded []byte) childReference {
	h := b.layout.codec.Hasher()
	if len(encoded) < h.Length() {
		return codec.ChildReferenceInline[keccak_hasher.KeccakHash]{Data: encoded}
	}
	return codec.ChildReferenceHash[keccak_hasher.KeccakHash]{Hash: h.Hash(encoded)}
}

// commonDepth returns the length of the nibble prefix shared by all
// entries, at least depth. Sorted input means comparing the first
// and last entries is enough.
func commonDepth(entries []sortedEntry, depth int) int {
	first := entries[0].nibs
	last := entries[len(entries)-1].nibs
	common := depth
	for common < len(first) && common < len(last) && first[common] == last[common] {
		common++
	}
	return common
}

// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package reftrie

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jackkakaya/trie/keccak_hasher"
	"github.com/Jackkakaya/trie/memorydb"
	"github.com/Jackkakaya/trie/nibbles"
)

type KeccakHash = keccak_hasher.KeccakHash

var allLayouts = []Layout{ExtensionLayout, NoExtensionLayout, NoExtensionLayoutQuarter}

func testEntrySets() map[string][]Entry {
	return map[string][]Entry{
		"empty": {},
		"single": {
			{Key: []byte("A"), Value: []byte("leaf")},
		},
		"two distinct": {
			{Key: []byte("A"), Value: []byte("leaf")},
			{Key: []byte("B"), Value: []byte("branch")},
		},
		"shared prefix": {
			{Key: []byte("AA"), Value: []byte("first")},
			{Key: []byte("AB"), Value: []byte("second")},
			{Key: []byte("B"), Value: []byte("third")},
		},
		"key is prefix of another": {
			{Key: []byte("A"), Value: []byte("short")},
			{Key: []byte("AA"), Value: []byte("long")},
			{Key: []byte("AB"), Value: []byte("other")},
		},
		"substrate reference pairs": {
			{Key: []byte("bed"), Value: []byte("d")},
			{Key: []byte("beef"), Value: []byte("cafe")},
			{Key: []byte("doge"), Value: []byte("coin")},
			{Key: []byte("horse"), Value: []byte("stallion")},
			{Key: []byte("house"), Value: []byte("building")},
		},
		"large values force hashed children": {
			{Key: []byte{0x01}, Value: make([]byte, 64)},
			{Key: []byte{0x01, 0x23}, Value: make([]byte, 64)},
			{Key: []byte{0x81, 0x23}, Value: make([]byte, 64)},
		},
	}
}

func Test_Trie_Get(t *testing.T) {
	t.Parallel()

	for _, layout := range allLayouts {
		layout := layout
		t.Run(layout.Name(), func(t *testing.T) {
			t.Parallel()

			trie := NewTrie(layout)
			require.Nil(t, trie.Get([]byte("A")))

			for name, entries := range testEntrySets() {
				trie := NewTrie(layout)
				for _, entry := range entries {
					trie.Insert(entry.Key, entry.Value)
				}
				for _, entry := range entries {
					assert.Equal(t, entry.Value, trie.Get(entry.Key),
						"set %q key %x", name, entry.Key)
				}
				assert.Nil(t, trie.Get([]byte("not in the trie")))
			}
		})
	}
}

func Test_Trie_Insert_overwrites(t *testing.T) {
	t.Parallel()

	trie := NewTrie(NoExtensionLayout)
	trie.Insert([]byte("A"), []byte("old"))
	trie.Insert([]byte("A"), []byte("new"))
	assert.Equal(t, []byte("new"), trie.Get([]byte("A")))
}

// The mutable trie and the batch builder derive the same root for
// the same content, whatever the insertion order.
func Test_root_construction_equivalence(t *testing.T) {
	t.Parallel()

	for _, layout := range allLayouts {
		layout := layout
		t.Run(layout.Name(), func(t *testing.T) {
			t.Parallel()

			for name, entries := range testEntrySets() {
				trie := NewTrie(layout)
				for _, entry := range entries {
					trie.Insert(entry.Key, entry.Value)
				}

				reversed := NewTrie(layout)
				for i := len(entries) - 1; i >= 0; i-- {
					reversed.Insert(entries[i].Key, entries[i].Value)
				}

				root := trie.Root()
				require.Equal(t, root, reversed.Root(), "set %q", name)
				require.Equal(t, root, TrieRoot(layout, entries), "set %q", name)
			}
		})
	}
}

func Test_empty_root_is_hashed_null_node(t *testing.T) {
	t.Parallel()

	for _, layout := range allLayouts {
		trie := NewTrie(layout)
		assert.Equal(t, layout.Codec().HashedNullNode(), trie.Root())
		assert.Equal(t, layout.Codec().HashedNullNode(), TrieRoot(layout, nil))
	}
}

func Test_layouts_disagree_on_root(t *testing.T) {
	t.Parallel()

	entries := testEntrySets()["shared prefix"]
	roots := make(map[string]string)
	for _, layout := range allLayouts {
		roots[layout.Name()] = TrieRoot(layout, entries).ComparableKey()
	}

	assert.NotEqual(t, roots[ExtensionLayout.Name()], roots[NoExtensionLayout.Name()])
	assert.NotEqual(t, roots[NoExtensionLayout.Name()], roots[NoExtensionLayoutQuarter.Name()])
}

func Test_TrieRoot_duplicate_keys_last_wins(t *testing.T) {
	t.Parallel()

	for _, layout := range allLayouts {
		layout := layout
		t.Run(layout.Name(), func(t *testing.T) {
			t.Parallel()

			withDuplicates := []Entry{
				{Key: []byte("A"), Value: []byte("stale")},
				{Key: []byte("B"), Value: []byte("kept")},
				{Key: []byte("A"), Value: []byte("fresh")},
			}
			deduplicated := []Entry{
				{Key: []byte("A"), Value: []byte("fresh")},
				{Key: []byte("B"), Value: []byte("kept")},
			}

			assert.Equal(t, TrieRoot(layout, deduplicated), TrieRoot(layout, withDuplicates))
		})
	}
}

func Test_RootInto_persists_nodes(t *testing.T) {
	t.Parallel()

	for _, layout := range allLayouts {
		layout := layout
		t.Run(layout.Name(), func(t *testing.T) {
			t.Parallel()

			db := memorydb.NewMemoryDB[KeccakHash](hasher,
				memorydb.HashKey[KeccakHash], layout.Codec().EmptyNode())

			trie := NewTrie(layout)
			for _, entry := range testEntrySets()["substrate reference pairs"] {
				trie.Insert(entry.Key, entry.Value)
			}

			root := trie.RootInto(db)
			require.Equal(t, trie.Root(), root)

			encoded := db.Get(root, nibbles.Prefix{})
			require.NotNil(t, encoded)

			decoded, err := layout.Codec().Decode(*encoded)
			require.NoError(t, err)
			require.NotNil(t, decoded)
		})
	}
}

func Test_Trie_String(t *testing.T) {
	t.Parallel()

	trie := NewTrie(NoExtensionLayout)
	assert.Equal(t, "Empty", trie.String())

	trie.Insert([]byte("AA"), []byte("first"))
	trie.Insert([]byte("AB"), []byte("second"))

	rendered := trie.String()
	assert.Contains(t, rendered, "Branch")
	assert.Contains(t, rendered, "Leaf")
	assert.Contains(t, rendered, fmt.Sprintf("0x%x", []byte("first")))
}

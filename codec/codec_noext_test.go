// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jackkakaya/trie/keccak_hasher"
	"github.com/Jackkakaya/trie/nibbles"
)

func newNoExtensionTestCodec() NoExtensionCodec[keccak_hasher.KeccakHash] {
	return NewNoExtensionCodec[keccak_hasher.KeccakHash](testHasher, nibbles.Half, Bitmap16)
}

func newQuarterTestCodec() NoExtensionCodec[keccak_hasher.KeccakHash] {
	return NewNoExtensionCodec[keccak_hasher.KeccakHash](testHasher, nibbles.Quarter, Bitmap4)
}

func quarterNibbleValues(n uint) []uint8 {
	values := make([]uint8, n)
	for i := range values {
		values[i] = uint8(i % 4)
	}
	return values
}

func Test_NoExtensionCodec_empty(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	encoded := c.EmptyNode()
	assert.Equal(t, []byte{0}, encoded)
	assert.True(t, c.IsEmptyNode(encoded))
	assert.Equal(t, testHasher.Hash(encoded), c.HashedNullNode())

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, Empty{}, decoded)
}

func Test_NoExtensionCodec_leaf_exact_bytes(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	partial := nibbles.Half.PartialFromNibbles([]uint8{1, 2, 3})
	encoded := c.LeafNode(partial, []byte{4, 5})

	assert.Equal(t, []byte{
		// leaf, 3 nibbles
		leafPrefixMask | 3,
		// partial key, odd nibble first
		0x01, 0x23,
		// length prefixed value
		0x08, 0x04, 0x05,
	}, encoded)
}

func Test_NoExtensionCodec_leaf_roundtrip(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	// the size codec has no per kind bound below 65535, so keys far
	// beyond the single byte header work.
	for _, keyLen := range []uint{0, 1, 2, 62, 63, 64, 127, 128, 318, 573} {
		keyLen := keyLen
		key := nibbleValues(keyLen)
		value := []byte("leaf value")

		encoded := c.LeafNode(nibbles.Half.PartialFromNibbles(key), value)
		decoded, err := c.Decode(encoded)
		require.NoError(t, err)

		leaf, ok := decoded.(Leaf)
		require.True(t, ok)
		assert.Equal(t, key, leaf.PartialKey.ToNibbles())
		assert.Equal(t, value, leaf.Value)
	}
}

// A key longer than the size codec bound is truncated to the bound
// on encode, not rejected.
func Test_NoExtensionCodec_leaf_above_size_bound(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	// 65536 nibbles, one above the bound.
	partial := nibbles.Partial{Data: make([]byte, 32768)}
	encoded := c.LeafNode(partial, []byte{1})

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	leaf, ok := decoded.(Leaf)
	require.True(t, ok)
	assert.Equal(t, NibbleSizeBound, leaf.PartialKey.Len())
}

func Test_NoExtensionCodec_padding_rejected(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	// odd nibble count: the top nibble of the first key byte is
	// padding and must be zero.
	valid := []byte{leafPrefixMask | 1, 0x0a, 0x04, 0x01}
	_, err := c.Decode(valid)
	require.NoError(t, err)

	invalid := []byte{leafPrefixMask | 1, 0xaa, 0x04, 0x01}
	_, err = c.Decode(invalid)
	assert.ErrorIs(t, err, ErrBadFormat)
}

func Test_NoExtensionCodec_branch_exact_bytes(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	children := make([]ChildReference[keccak_hasher.KeccakHash], 16)
	children[3] = ChildReferenceInline[keccak_hasher.KeccakHash]{Data: []byte{0xaa, 0xbb}}

	partial := nibbles.Half.PartialFromNibbles([]uint8{7})
	encoded := c.BranchNodeNibbled(partial, children, []byte{1})

	assert.Equal(t, []byte{
		// branch with value, 1 nibble
		branchWithValueMask | 1,
		// partial key
		0x07,
		// bitmap, slot 3, low byte first
		0x08, 0x00,
		// length prefixed value
		0x04, 0x01,
		// length prefixed inline child
		0x08, 0xaa, 0xbb,
	}, encoded)
}

func Test_NoExtensionCodec_branch_roundtrip(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	testCases := map[string]struct {
		keyLen uint
		value  []byte
	}{
		"without value, empty key": {},
		"with value, empty key":    {value: []byte("branch value")},
		"with value and key":       {keyLen: 7, value: []byte("branch value")},
		"long key":                 {keyLen: 64},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			key := nibbleValues(testCase.keyLen)
			childHash := testHasher.Hash([]byte("hashed child"))
			inline := []byte{leafPrefixMask | 1, 0x07, 0x04, 0x01}

			children := make([]ChildReference[keccak_hasher.KeccakHash], 16)
			children[2] = ChildReferenceHash[keccak_hasher.KeccakHash]{Hash: childHash}
			children[11] = ChildReferenceInline[keccak_hasher.KeccakHash]{Data: inline}

			encoded := c.BranchNodeNibbled(nibbles.Half.PartialFromNibbles(key), children, testCase.value)
			decoded, err := c.Decode(encoded)
			require.NoError(t, err)

			branch, ok := decoded.(NibbledBranch)
			require.True(t, ok)
			assert.Equal(t, key, branch.PartialKey.ToNibbles())
			assert.Equal(t, testCase.value, branch.Value)

			require.Equal(t, uint(16), branch.Children.Len())
			assert.Equal(t, Hash{Data: childHash.Bytes()}, branch.Children.At(2))
			assert.Equal(t, Inline{Data: inline}, branch.Children.At(11))
			assert.Nil(t, branch.Children.At(5))
		})
	}
}

// Encoding is pure: the same logical node produces the same bytes
// whatever was encoded before it.
func Test_NoExtensionCodec_deterministic(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	partial := nibbles.Half.PartialFromNibbles(nibbleValues(9))
	children := make([]ChildReference[keccak_hasher.KeccakHash], 16)
	children[4] = ChildReferenceHash[keccak_hasher.KeccakHash]{
		Hash: testHasher.Hash([]byte("child")),
	}

	first := c.BranchNodeNibbled(partial, children, []byte("value"))
	c.LeafNode(nibbles.Half.PartialFromNibbles(nibbleValues(3)), []byte("interleaved"))
	second := c.BranchNodeNibbled(partial, children, []byte("value"))

	assert.Equal(t, first, second)
}

func Test_NoExtensionCodec_wrong_layout_panics(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	assert.Panics(t, func() {
		c.ExtensionNode(nibbles.Partial{}, ChildReferenceInline[keccak_hasher.KeccakHash]{})
	})
	assert.Panics(t, func() {
		c.BranchNode(make([]ChildReference[keccak_hasher.KeccakHash], 16), nil)
	})
}

func Test_NoExtensionCodec_decode_errors(t *testing.T) {
	t.Parallel()
	c := newNoExtensionTestCodec()

	testCases := map[string]struct {
		data []byte
	}{
		"no data":                   {data: []byte{}},
		"reserved header":           {data: []byte{0x01}},
		"leaf without value":        {data: []byte{leafPrefixMask | 2, 0x12}},
		"leaf with truncated key":   {data: []byte{leafPrefixMask | 8}},
		"branch without bitmap":     {data: []byte{branchWithoutValueMask | 2, 0x12}},
		"branch truncated child":    {data: []byte{branchWithoutValueMask, 0x01, 0x00, 0x20, 0x01}},
		"branch with no value data": {data: []byte{branchWithValueMask, 0x01, 0x00}},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := c.Decode(testCase.data)

			assert.ErrorIs(t, err, ErrBadFormat)
		})
	}
}

func Test_NoExtensionCodec_quarter_roundtrip(t *testing.T) {
	t.Parallel()
	c := newQuarterTestCodec()

	t.Run("leaf", func(t *testing.T) {
		t.Parallel()

		// key lengths straddling the 4 nibble per byte alignment.
		for _, keyLen := range []uint{0, 1, 2, 3, 4, 5, 63, 64, 65} {
			key := quarterNibbleValues(keyLen)
			value := []byte{0xde, 0xad}

			encoded := c.LeafNode(nibbles.Quarter.PartialFromNibbles(key), value)
			decoded, err := c.Decode(encoded)
			require.NoError(t, err)

			leaf, ok := decoded.(Leaf)
			require.True(t, ok)
			assert.Equal(t, key, leaf.PartialKey.ToNibbles())
			assert.Equal(t, value, leaf.Value)
		}
	})

	t.Run("branch", func(t *testing.T) {
		t.Parallel()

		key := quarterNibbleValues(3)
		childHash := testHasher.Hash([]byte("hashed child"))

		children := make([]ChildReference[keccak_hasher.KeccakHash], 4)
		children[1] = ChildReferenceHash[keccak_hasher.KeccakHash]{Hash: childHash}

		encoded := c.BranchNodeNibbled(nibbles.Quarter.PartialFromNibbles(key), children, []byte{9})
		decoded, err := c.Decode(encoded)
		require.NoError(t, err)

		branch, ok := decoded.(NibbledBranch)
		require.True(t, ok)
		assert.Equal(t, key, branch.PartialKey.ToNibbles())
		assert.Equal(t, []byte{9}, branch.Value)
		require.Equal(t, uint(4), branch.Children.Len())
		assert.Equal(t, Hash{Data: childHash.Bytes()}, branch.Children.At(1))
		assert.Nil(t, branch.Children.At(0))
	})

	t.Run("padding rejected", func(t *testing.T) {
		t.Parallel()

		// 1 of 4 nibbles used: the top 3 nibble positions are padding.
		valid := []byte{leafPrefixMask | 1, 0x03, 0x04, 0x01}
		_, err := c.Decode(valid)
		require.NoError(t, err)

		invalid := []byte{leafPrefixMask | 1, 0x43, 0x04, 0x01}
		_, err = c.Decode(invalid)
		assert.ErrorIs(t, err, ErrBadFormat)
	})
}

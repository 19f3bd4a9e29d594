// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package codec

import (
	"bytes"
	"fmt"

	"github.com/Jackkakaya/trie/hashdb"
	"github.com/Jackkakaya/trie/nibbles"
	"github.com/Jackkakaya/trie/scale"
)

// NoExtensionCodec is the node codec for the layout without
// extension nodes: the shared key prefix is folded into branch and
// leaf nodes, and header tags carry the nibble count through the
// variable length size codec.
type NoExtensionCodec[H hashdb.HashOut] struct {
	hasher hashdb.Hasher[H]
	ops    nibbles.Ops
	bitmap BitmapCodec
}

func NewNoExtensionCodec[H hashdb.HashOut](hasher hashdb.Hasher[H],
	ops nibbles.Ops, bitmap BitmapCodec) NoExtensionCodec[H] {
	return NoExtensionCodec[H]{hasher: hasher, ops: ops, bitmap: bitmap}
}

func (c NoExtensionCodec[H]) Hasher() hashdb.Hasher[H] { return c.hasher }

func (c NoExtensionCodec[H]) Ops() nibbles.Ops { return c.ops }

// EmptyNode returns the one byte encoding of the empty node. The
// constant matches the extension layout's but is owned separately so
// the two layouts can diverge without coupling.
func (c NoExtensionCodec[H]) EmptyNode() []byte {
	return []byte{emptyTrieNoExt}
}

// IsEmptyNode returns true if data is the empty node encoding.
func (c NoExtensionCodec[H]) IsEmptyNode(data []byte) bool {
	return bytes.Equal(data, c.EmptyNode())
}

// HashedNullNode returns the hash of the empty node encoding.
func (c NoExtensionCodec[H]) HashedNullNode() H {
	return c.hasher.Hash(c.EmptyNode())
}

// LeafNode encodes a leaf: size coded header, partial key bytes,
// then the length prefixed value.
func (c NoExtensionCodec[H]) LeafNode(partial nibbles.Partial, value []byte) []byte {
	output := c.partialEncode(partial, leafPrefixMask)
	return append(output, scale.MarshalBytes(value)...)
}

// ExtensionNode does not exist in the no-extension layout.
func (c NoExtensionCodec[H]) ExtensionNode(nibbles.Partial, ChildReference[H]) []byte {
	panic("no extension node in the no-extension layout")
}

// BranchNode without partial key does not exist in the no-extension
// layout.
func (c NoExtensionCodec[H]) BranchNode([]ChildReference[H], []byte) []byte {
	panic("no unnibbled branch node in the no-extension layout")
}

// BranchNodeNibbled encodes a branch carrying its own partial key:
// size coded header, key bytes, reserved bitmap bytes, optional
// length prefixed value, then each present child in slot order. The
// bitmap is spliced into the reserved bytes once all children have
// been visited.
func (c NoExtensionCodec[H]) BranchNodeNibbled(partial nibbles.Partial,
	children []ChildReference[H], value []byte) []byte {
	prefix := branchWithoutValueMask
	if value != nil {
		prefix = branchWithValueMask
	}
	output := c.partialEncode(partial, prefix)

	bitmapIndex := len(output)
	output = append(output, make([]byte, c.bitmap.EncodedLen())...)

	if value != nil {
		output = append(output, scale.MarshalBytes(value)...)
	}

	hasChildren := make([]bool, c.ops.NibbleLength())
	for i, child := range children {
		if child == nil {
			continue
		}
		hasChildren[i] = true
		output = appendChildReference[H](output, child)
	}

	c.bitmap.Encode(hasChildren, output[bitmapIndex:bitmapIndex+c.bitmap.EncodedLen()])
	return output
}

// Decode parses wire bytes back into the logical node shape, or
// fails with ErrBadFormat.
func (c NoExtensionCodec[H]) Decode(data []byte) (n Node, err error) {
	input := newByteSliceInput(data)
	header, err := decodeHeaderNoExt(input)
	if err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}

	switch h := header.(type) {
	case headerNullNoExt:
		return Empty{}, nil
	case headerBranchNoExt:
		partial, err := decodePartial(c.ops, input, h.nibbleCount, true)
		if err != nil {
			return nil, fmt.Errorf("decoding branch key: %w", err)
		}

		bitmapRange, err := input.take(c.bitmap.EncodedLen())
		if err != nil {
			return nil, fmt.Errorf("taking bitmap bytes: %w", err)
		}
		bitmap, err := c.bitmap.Decode(data[bitmapRange.start:bitmapRange.end])
		if err != nil {
			return nil, fmt.Errorf("decoding bitmap: %w", err)
		}

		var value []byte
		if h.hasValue {
			value, err = decodeValue(input)
			if err != nil {
				return nil, fmt.Errorf("decoding branch value: %w", err)
			}
		}

		children, err := decodeChildren(c.ops, c.hasher.Length(), input, bitmap)
		if err != nil {
			return nil, fmt.Errorf("decoding branch children: %w", err)
		}
		return NibbledBranch{PartialKey: partial, Value: value, Children: children}, nil
	case headerLeafNoExt:
		partial, err := decodePartial(c.ops, input, h.nibbleCount, true)
		if err != nil {
			return nil, fmt.Errorf("decoding leaf key: %w", err)
		}
		value, err := decodeValue(input)
		if err != nil {
			return nil, fmt.Errorf("decoding leaf value: %w", err)
		}
		return Leaf{PartialKey: partial, Value: value}, nil
	default:
		// decodeHeaderNoExt only returns the three variants above.
		panic(fmt.Sprintf("unknown header type %T", header))
	}
}

// partialEncode writes the size coded header followed by the partial
// key bytes, the odd leading nibbles first. Counts above
// NibbleSizeBound are truncated by the size codec, not rejected.
func (c NoExtensionCodec[H]) partialEncode(partial nibbles.Partial, prefix byte) []byte {
	nibbleCount := c.ops.PartialLen(partial)

	output := encodeSizeAndPrefix(nibbleCount, prefix, make([]byte, 0, 4+len(partial.Data)))
	if partial.First > 0 {
		output = append(output, c.ops.MaskedRight(partial.First, partial.PaddedNibble))
	}
	return append(output, partial.Data...)
}

var _ NodeCodec[hashdb.HashOut] = NoExtensionCodec[hashdb.HashOut]{}

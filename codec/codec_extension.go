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

// ExtensionCodec is the node codec for the layout with explicit
// extension nodes: single byte header tags, branch nodes without a
// partial key.
type ExtensionCodec[H hashdb.HashOut] struct {
	hasher hashdb.Hasher[H]
	ops    nibbles.Ops
	bitmap BitmapCodec
}

func NewExtensionCodec[H hashdb.HashOut](hasher hashdb.Hasher[H],
	ops nibbles.Ops, bitmap BitmapCodec) ExtensionCodec[H] {
	return ExtensionCodec[H]{hasher: hasher, ops: ops, bitmap: bitmap}
}

func (c ExtensionCodec[H]) Hasher() hashdb.Hasher[H] { return c.hasher }

func (c ExtensionCodec[H]) Ops() nibbles.Ops { return c.ops }

// EmptyNode returns the one byte encoding of the empty node.
func (c ExtensionCodec[H]) EmptyNode() []byte {
	return []byte{emptyTrie}
}

// IsEmptyNode returns true if data is the empty node encoding.
func (c ExtensionCodec[H]) IsEmptyNode(data []byte) bool {
	return bytes.Equal(data, c.EmptyNode())
}

// HashedNullNode returns the hash of the empty node encoding.
func (c ExtensionCodec[H]) HashedNullNode() H {
	return c.hasher.Hash(c.EmptyNode())
}

// LeafNode encodes a leaf: header tag carrying the nibble count,
// partial key bytes, then the length prefixed value.
func (c ExtensionCodec[H]) LeafNode(partial nibbles.Partial, value []byte) []byte {
	output := c.partialToKey(partial, leafNodeOffset, leafNodeOver)
	return append(output, scale.MarshalBytes(value)...)
}

// ExtensionNode encodes an extension: header tag carrying the nibble
// count, partial key bytes, then the single child reference.
func (c ExtensionCodec[H]) ExtensionNode(partial nibbles.Partial, child ChildReference[H]) []byte {
	output := c.partialToKey(partial, extensionNodeOffset, extensionNodeOver)
	return appendChildReference[H](output, child)
}

// BranchNode encodes a branch without partial key. The header and
// bitmap bytes are reserved up front and spliced in after the
// children have been scanned, since the bitmap is only known once
// every child has been visited.
func (c ExtensionCodec[H]) BranchNode(children []ChildReference[H], value []byte) []byte {
	prefixLen := 1 + c.bitmap.EncodedLen()
	output := make([]byte, prefixLen)

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

	if value != nil {
		output[0] = branchNodeWithValue
	} else {
		output[0] = branchNodeNoValue
	}
	c.bitmap.Encode(hasChildren, output[1:prefixLen])
	return output
}

// BranchNodeNibbled does not exist in the extension layout.
func (c ExtensionCodec[H]) BranchNodeNibbled(nibbles.Partial, []ChildReference[H], []byte) []byte {
	panic("no nibbled branch node in the extension layout")
}

// Decode parses wire bytes back into the logical node shape, or
// fails with ErrBadFormat.
func (c ExtensionCodec[H]) Decode(data []byte) (n Node, err error) {
	input := newByteSliceInput(data)
	header, err := decodeHeader(input)
	if err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}

	switch h := header.(type) {
	case headerNull:
		return Empty{}, nil
	case headerBranch:
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
		return Branch{Value: value, Children: children}, nil
	case headerExtension:
		partial, err := decodePartial(c.ops, input, h.nibbleCount, false)
		if err != nil {
			return nil, fmt.Errorf("decoding extension key: %w", err)
		}

		count, err := scale.DecodeUint(input)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding extension child length: %s", ErrBadFormat, err)
		}
		childRange, err := input.take(int(count))
		if err != nil {
			return nil, fmt.Errorf("taking extension child bytes: %w", err)
		}

		childData := data[childRange.start:childRange.end]
		var child NodeHandle
		if len(childData) == c.hasher.Length() {
			child = Hash{Data: childData}
		} else {
			child = Inline{Data: childData}
		}
		return Extension{PartialKey: partial, Child: child}, nil
	case headerLeaf:
		partial, err := decodePartial(c.ops, input, h.nibbleCount, false)
		if err != nil {
			return nil, fmt.Errorf("decoding leaf key: %w", err)
		}
		value, err := decodeValue(input)
		if err != nil {
			return nil, fmt.Errorf("decoding leaf value: %w", err)
		}
		return Leaf{PartialKey: partial, Value: value}, nil
	default:
		// decodeHeader only returns the four variants above.
		panic(fmt.Sprintf("unknown header type %T", header))
	}
}

// partialToKey writes the header tag (range base plus nibble count)
// followed by the partial key bytes, the odd leading nibbles first.
// A nibble count at or above the range width is an unchecked caller
// precondition violation.
func (c ExtensionCodec[H]) partialToKey(partial nibbles.Partial, offset, over byte) []byte {
	nibbleCount := c.ops.PartialLen(partial)
	if nibbleCount >= uint(over) {
		panic(fmt.Sprintf("partial key of %d nibbles does not fit header range starting at %d", nibbleCount, offset))
	}

	output := make([]byte, 0, 2+len(partial.Data))
	output = append(output, offset+byte(nibbleCount))
	if partial.First > 0 {
		output = append(output, c.ops.MaskedRight(partial.First, partial.PaddedNibble))
	}
	return append(output, partial.Data...)
}

var _ NodeCodec[hashdb.HashOut] = ExtensionCodec[hashdb.HashOut]{}

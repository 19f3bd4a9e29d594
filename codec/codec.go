// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package codec implements the per node wire representation of a
// hash linked radix trie, in two sibling layouts: one using explicit
// extension nodes for shared key prefixes and one folding the shared
// prefix into branch and leaf nodes. Both layouts work at radix 16
// or radix 4 depending on the nibble configuration they are built
// with. The codec is purely functional over its inputs: no shared
// mutable state, every call independently reentrant.
package codec

import (
	"fmt"

	"github.com/Jackkakaya/trie/hashdb"
	"github.com/Jackkakaya/trie/nibbles"
	"github.com/Jackkakaya/trie/scale"
)

// NodeCodec is the common surface of the two layout codecs. Shape
// constructors that do not exist in a layout (BranchNode and
// ExtensionNode on the no-extension codec, BranchNodeNibbled on the
// extension codec) panic: those calls are programming errors of the
// caller, never recoverable conditions.
type NodeCodec[H hashdb.HashOut] interface {
	Hasher() hashdb.Hasher[H]
	Ops() nibbles.Ops
	HashedNullNode() H
	EmptyNode() []byte
	LeafNode(partial nibbles.Partial, value []byte) []byte
	ExtensionNode(partial nibbles.Partial, child ChildReference[H]) []byte
	BranchNode(children []ChildReference[H], value []byte) []byte
	BranchNodeNibbled(partial nibbles.Partial, children []ChildReference[H], value []byte) []byte
	Decode(data []byte) (Node, error)
}

// appendChildReference appends the wire form of a child reference:
// a length prefixed byte slice holding either the child's hash or
// its inline encoding.
func appendChildReference[H hashdb.HashOut](output []byte, child ChildReference[H]) []byte {
	switch c := child.(type) {
	case ChildReferenceHash[H]:
		return append(output, scale.MarshalBytes(c.Hash.Bytes())...)
	case ChildReferenceInline[H]:
		return append(output, scale.MarshalBytes(c.Data)...)
	default:
		panic(fmt.Sprintf("unknown child reference type %T", child))
	}
}

// decodeValue reads a length prefixed value from the input and
// returns its bytes as a view into the encoding buffer.
func decodeValue(input *byteSliceInput) ([]byte, error) {
	count, err := scale.DecodeUint(input)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding value length: %s", ErrBadFormat, err)
	}
	r, err := input.take(int(count))
	if err != nil {
		return nil, fmt.Errorf("taking value bytes: %w", err)
	}
	return input.data[r.start:r.end], nil
}

// decodePartial reads the partial key bytes for a nibble count. When
// checkPadding is set (no-extension layout) the padding bits at the
// left of the first byte must be zero, so a given logical key has a
// single valid encoding.
func decodePartial(ops nibbles.Ops, input *byteSliceInput, nibbleCount uint,
	checkPadding bool) (partial nibbles.NibbleSlice, err error) {
	perByte := ops.NibblePerByte()
	if checkPadding && nibbleCount%perByte != 0 {
		b, err := input.peek()
		if err != nil {
			return partial, fmt.Errorf("reading padded nibble byte: %w", err)
		}
		paddingLength := perByte - nibbleCount%perByte
		if ops.MaskedLeft(uint8(paddingLength), b) != 0 {
			return partial, fmt.Errorf("%w: nonzero padding bits in partial key byte %08b", ErrBadFormat, b)
		}
	}

	byteCount := (nibbleCount + perByte - 1) / perByte
	r, err := input.take(int(byteCount))
	if err != nil {
		return partial, fmt.Errorf("taking partial key bytes: %w", err)
	}
	return nibbles.NewNibbleSliceWithOffset(ops,
		input.data[r.start:r.end], ops.NumberPadding(nibbleCount)), nil
}

// decodeChildren indexes each populated child's length prefixed byte
// range within the remaining input, in child slot order.
func decodeChildren(ops nibbles.Ops, hashLength int, input *byteSliceInput,
	bitmap Bitmap) (children ChildSlices, err error) {
	ranges := make([]bytesRange, ops.NibbleLength())
	for i := uint(0); i < ops.NibbleLength(); i++ {
		if !bitmap.ValueAt(i) {
			continue
		}
		count, err := scale.DecodeUint(input)
		if err != nil {
			return ChildSlices{}, fmt.Errorf("%w: decoding child length at slot %d: %s", ErrBadFormat, i, err)
		}
		r, err := input.take(int(count))
		if err != nil {
			return ChildSlices{}, fmt.Errorf("taking child bytes at slot %d: %w", i, err)
		}
		ranges[i] = r
	}
	return ChildSlices{
		bitmap:     bitmap,
		ranges:     ranges,
		data:       input.data,
		hashLength: hashLength,
	}, nil
}

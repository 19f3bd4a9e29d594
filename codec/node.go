// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package codec

import (
	"github.com/Jackkakaya/trie/hashdb"
	"github.com/Jackkakaya/trie/nibbles"
)

// NodeHandle is a decoded reference to a child node: either the
// child's full hash or its complete inline encoding. The data is a
// view into the parent's encoding buffer, not a copy.
type NodeHandle interface {
	isNodeHandle()
}

type (
	// Hash holds a child's hash, exactly the hasher output width.
	Hash struct {
		Data []byte
	}
	// Inline holds a child's own encoding, shorter than a hash.
	Inline struct {
		Data []byte
	}
)

func (Hash) isNodeHandle()   {}
func (Inline) isNodeHandle() {}

// ChildReference is an encoder side child reference. It is a self
// contained value copied into the parent's encoding and never
// aliases storage.
type ChildReference[H hashdb.HashOut] interface {
	isChildReference()
}

type (
	// ChildReferenceHash refers to a child by its hash.
	ChildReferenceHash[H hashdb.HashOut] struct {
		Hash H
	}
	// ChildReferenceInline carries a child's encoding by value.
	ChildReferenceInline[H hashdb.HashOut] struct {
		Data []byte
	}
)

func (ChildReferenceHash[H]) isChildReference()   {}
func (ChildReferenceInline[H]) isChildReference() {}

type bytesRange struct {
	start int
	end   int
}

// ChildSlices is an index of the per child byte ranges within the
// shared tail of an encoded branch node, built once while decoding
// instead of materializing a copy per child.
type ChildSlices struct {
	bitmap     Bitmap
	ranges     []bytesRange
	data       []byte
	hashLength int
}

// Bitmap returns the child presence bitmap.
func (c ChildSlices) Bitmap() Bitmap { return c.bitmap }

// Len returns the number of child slots.
func (c ChildSlices) Len() uint { return uint(len(c.ranges)) }

// At returns the child handle for slot i, or nil if the slot is
// empty. A range exactly as wide as the hash output is a hash
// reference; any other width is an inline child.
func (c ChildSlices) At(i uint) NodeHandle {
	if !c.bitmap.ValueAt(i) {
		return nil
	}
	r := c.ranges[i]
	data := c.data[r.start:r.end]
	if len(data) == c.hashLength {
		return Hash{Data: data}
	}
	return Inline{Data: data}
}

// Node is the decoded logical shape of a trie node. Each layout
// only produces a subset of the variants.
type Node interface {
	isNode()
}

type (
	// Empty node.
	Empty struct{}
	// Leaf carries a partial key and a value.
	Leaf struct {
		PartialKey nibbles.NibbleSlice
		Value      []byte
	}
	// Extension carries a shared key prefix and exactly one child.
	// Extension layout only.
	Extension struct {
		PartialKey nibbles.NibbleSlice
		Child      NodeHandle
	}
	// Branch carries an optional value and the populated children.
	// Extension layout only; a nil Value means no value.
	Branch struct {
		Value    []byte
		Children ChildSlices
	}
	// NibbledBranch is a branch carrying its own partial key.
	// No-extension layout only.
	NibbledBranch struct {
		PartialKey nibbles.NibbleSlice
		Value      []byte
		Children   ChildSlices
	}
)

func (Empty) isNode()         {}
func (Leaf) isNode()          {}
func (Extension) isNode()     {}
func (Branch) isNode()        {}
func (NibbledBranch) isNode() {}

// byteSliceInput tracks a running offset over an encoding buffer so
// decoded components can be returned as ranges into it.
type byteSliceInput struct {
	data   []byte
	offset int
}

func newByteSliceInput(data []byte) *byteSliceInput {
	return &byteSliceInput{data: data}
}

func (in *byteSliceInput) take(count int) (bytesRange, error) {
	if count < 0 || in.offset+count > len(in.data) {
		return bytesRange{}, errTruncated(count, len(in.data)-in.offset)
	}
	r := bytesRange{start: in.offset, end: in.offset + count}
	in.offset += count
	return r, nil
}

// peek returns the next byte without consuming it.
func (in *byteSliceInput) peek() (byte, error) {
	if in.offset >= len(in.data) {
		return 0, errTruncated(1, 0)
	}
	return in.data[in.offset], nil
}

// Read implements io.Reader so the header and length codecs can
// consume from the same running offset.
func (in *byteSliceInput) Read(p []byte) (n int, err error) {
	r, err := in.take(len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, in.data[r.start:r.end]), nil
}

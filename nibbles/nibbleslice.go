// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package nibbles

// NibbleSlice is a nibble oriented view onto a byte slice, allowing
// nibble precision offsets. It is immutable; no operation changes it.
type NibbleSlice struct {
	ops    Ops
	data   []byte
	offset uint
}

// NewNibbleSlice creates a new nibble slice over the given bytes.
func NewNibbleSlice(ops Ops, data []byte) NibbleSlice {
	return NibbleSlice{ops: ops, data: data}
}

// NewNibbleSliceWithOffset creates a new nibble slice over the given
// bytes, skipping the first offset nibbles.
func NewNibbleSliceWithOffset(ops Ops, data []byte, offset uint) NibbleSlice {
	return NibbleSlice{ops: ops, data: data, offset: offset}
}

// Ops returns the radix configuration of the slice.
func (ns NibbleSlice) Ops() Ops { return ns.ops }

// Data returns the underlying byte slice.
func (ns NibbleSlice) Data() []byte { return ns.data }

// Offset returns the number of leading nibbles skipped.
func (ns NibbleSlice) Offset() uint { return ns.offset }

// Len returns the number of nibbles in the slice.
func (ns NibbleSlice) Len() uint {
	return uint(len(ns.data))*ns.ops.nibblePerByte - ns.offset
}

// IsEmpty returns true if the slice contains no nibbles.
func (ns NibbleSlice) IsEmpty() bool {
	return ns.Len() == 0
}

// At returns the nibble value at position i.
func (ns NibbleSlice) At(i uint) uint8 {
	total := ns.offset + i
	ix := total / ns.ops.nibblePerByte
	pos := total % ns.ops.nibblePerByte
	shift := (ns.ops.nibblePerByte - 1 - pos) * ns.ops.bitPerNibble
	return (ns.data[ix] >> shift) & ns.ops.nibbleMask()
}

// Eq returns true if both slices hold the same nibble sequence.
func (ns NibbleSlice) Eq(other NibbleSlice) bool {
	if ns.Len() != other.Len() {
		return false
	}
	for i := uint(0); i < ns.Len(); i++ {
		if ns.At(i) != other.At(i) {
			return false
		}
	}
	return true
}

// ToNibbles expands the slice to one nibble value per element.
func (ns NibbleSlice) ToNibbles() []uint8 {
	nibbles := make([]uint8, ns.Len())
	for i := range nibbles {
		nibbles[i] = ns.At(uint(i))
	}
	return nibbles
}

// Partial returns the partial key representation of the slice.
func (ns NibbleSlice) Partial() Partial {
	return ns.ops.PartialFromNibbles(ns.ToNibbles())
}

// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package nibbles provides nibble level views and helpers over byte
// slices, parameterized by radix.
package nibbles

// Ops is the construction time radix configuration shared by the
// node codecs, covering nibble packing and child slot counts.
type Ops struct {
	nibblePerByte uint
	nibbleLength  uint
	bitPerNibble  uint
}

// Half is the radix 16 configuration: two 4-bit nibbles per byte,
// sixteen child slots per branch.
var Half = Ops{nibblePerByte: 2, nibbleLength: 16, bitPerNibble: 4}

// Quarter is the radix 4 configuration: four 2-bit nibbles per byte,
// four child slots per branch.
var Quarter = Ops{nibblePerByte: 4, nibbleLength: 4, bitPerNibble: 2}

// NibblePerByte returns the number of nibbles packed in one byte.
func (o Ops) NibblePerByte() uint { return o.nibblePerByte }

// NibbleLength returns the number of child slots of a branch node.
func (o Ops) NibbleLength() uint { return o.nibbleLength }

// BitPerNibble returns the bit width of a single nibble.
func (o Ops) BitPerNibble() uint { return o.bitPerNibble }

func (o Ops) nibbleMask() byte {
	return byte(1)<<o.bitPerNibble - 1
}

// MaskedLeft returns the top n nibbles of b, the rest zeroed.
func (o Ops) MaskedLeft(n uint8, b byte) byte {
	bits := uint(n) * o.bitPerNibble
	if bits == 0 {
		return 0
	}
	if bits >= 8 {
		return b
	}
	return b & ^byte(0xFF>>bits)
}

// MaskedRight returns the low n nibbles of b, the rest zeroed.
func (o Ops) MaskedRight(n uint8, b byte) byte {
	bits := uint(n) * o.bitPerNibble
	if bits >= 8 {
		return b
	}
	return b & (byte(0xFF) >> (8 - bits))
}

// NumberPadding returns the number of padding nibbles in the first
// byte of a partial key of i nibbles.
func (o Ops) NumberPadding(i uint) uint {
	return (o.nibblePerByte - i%o.nibblePerByte) % o.nibblePerByte
}

// KeyToNibbles expands a full key to one nibble value per element,
// most significant nibble of each byte first.
func (o Ops) KeyToNibbles(key []byte) []uint8 {
	nibbles := make([]uint8, 0, uint(len(key))*o.nibblePerByte)
	for _, b := range key {
		for i := o.nibblePerByte; i > 0; i-- {
			shift := (i - 1) * o.bitPerNibble
			nibbles = append(nibbles, (b>>shift)&o.nibbleMask())
		}
	}
	return nibbles
}

// Prefix is the byte aligned left portion of a key position, used to
// disambiguate node storage keys.
type Prefix struct {
	PartialKey []byte
	PaddedByte *byte
}

// Partial is a partial key: a count of leading nibbles right aligned
// in one padded byte, plus the remaining byte aligned nibble pairs.
type Partial struct {
	First        uint8
	PaddedNibble byte
	Data         []byte
}

// PartialLen returns the total number of nibbles a partial carries.
func (o Ops) PartialLen(p Partial) uint {
	return uint(p.First) + uint(len(p.Data))*o.nibblePerByte
}

// PartialFromNibbles packs expanded nibble values into a Partial.
// The leading len(nibbles) % NibblePerByte nibbles go right aligned
// into the padded byte; the remainder packs most significant first.
func (o Ops) PartialFromNibbles(nibbles []uint8) Partial {
	first := uint(len(nibbles)) % o.nibblePerByte
	var padded byte
	for i := uint(0); i < first; i++ {
		padded = padded<<o.bitPerNibble | nibbles[i]
	}

	data := make([]byte, 0, (uint(len(nibbles))-first)/o.nibblePerByte)
	for i := first; i < uint(len(nibbles)); i += o.nibblePerByte {
		var b byte
		for j := uint(0); j < o.nibblePerByte; j++ {
			b = b<<o.bitPerNibble | nibbles[i+j]
		}
		data = append(data, b)
	}

	return Partial{
		First:        uint8(first),
		PaddedNibble: padded,
		Data:         data,
	}
}

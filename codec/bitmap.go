// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package codec

import "fmt"

// Bitmap records which child slots of a branch node are populated,
// bit i set meaning slot i holds a child.
type Bitmap uint16

// ValueAt returns true if child slot i is populated.
func (b Bitmap) ValueAt(i uint) bool {
	return b&(1<<i) != 0
}

// BitmapCodec encodes and decodes a child presence bitmap at a fixed
// width. Encode sets one bit per true element of hasChildren, in
// child slot order, into output which must be EncodedLen bytes.
type BitmapCodec interface {
	EncodedLen() int
	Decode(data []byte) (Bitmap, error)
	Encode(hasChildren []bool, output []byte)
}

// Bitmap16 is the 16-ary bitmap codec: two bytes, low half first.
// Every bit is meaningful so any two byte input decodes.
var Bitmap16 BitmapCodec = bitmap16Codec{}

// Bitmap4 is the 4-ary bitmap codec: one byte whose top four bits
// are reserved and must be zero.
var Bitmap4 BitmapCodec = bitmap4Codec{}

type bitmap16Codec struct{}

func (bitmap16Codec) EncodedLen() int { return 2 }

func (bitmap16Codec) Decode(data []byte) (Bitmap, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("%w: bitmap needs 2 bytes, got %d", ErrBadFormat, len(data))
	}
	return Bitmap(uint16(data[0]) | uint16(data[1])<<8), nil
}

func (bitmap16Codec) Encode(hasChildren []bool, output []byte) {
	bitmap := bitmapOf(hasChildren)
	output[0] = byte(bitmap % 256)
	output[1] = byte(bitmap / 256)
}

type bitmap4Codec struct{}

func (bitmap4Codec) EncodedLen() int { return 1 }

func (bitmap4Codec) Decode(data []byte) (Bitmap, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: missing bitmap byte", ErrBadFormat)
	}
	if data[0]&0xF0 != 0 {
		return 0, fmt.Errorf("%w: reserved bitmap bits set in %08b", ErrBadFormat, data[0])
	}
	return Bitmap(data[0]), nil
}

func (bitmap4Codec) Encode(hasChildren []bool, output []byte) {
	output[0] = byte(bitmapOf(hasChildren))
}

func bitmapOf(hasChildren []bool) (bitmap uint16) {
	cursor := uint16(1)
	for _, has := range hasChildren {
		if has {
			bitmap |= cursor
		}
		cursor <<= 1
	}
	return bitmap
}

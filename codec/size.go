// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package codec

import (
	"fmt"
	"io"
)

// NibbleSizeBound is the maximum nibble count the no-extension size
// codec can represent. Larger logical counts are silently truncated
// to this bound by both encoder and decoder, never rejected.
const NibbleSizeBound uint = 65535

// encodeSizeAndPrefix appends the header encoding of size to output:
// the 2-bit prefix in the top bits of the first byte, a 6-bit
// magnitude in its low bits, and continuation bytes once the
// magnitude exceeds 62. Continuation bytes of 255 each carry 255;
// the first byte below 255 terminates the run and carries byte+1.
func encodeSizeAndPrefix(size uint, prefix byte, output []byte) []byte {
	if size > NibbleSizeBound {
		size = NibbleSizeBound
	}

	if size < 63 {
		return append(output, prefix|byte(size))
	}

	output = append(output, prefix|63)
	rem := size - 62
	for rem > 0 {
		if rem < 256 {
			output = append(output, byte(rem-1))
			rem = 0
		} else {
			rem -= 255
			output = append(output, 255)
		}
	}
	return output
}

// decodeSize reads the nibble count started by the header byte
// first, consuming continuation bytes from the reader as needed.
// A continuation run exceeding NibbleSizeBound without terminating
// is a format error.
func decodeSize(first byte, reader io.Reader) (size uint, err error) {
	size = uint(first & 0b0011_1111)
	if size < 63 {
		return size, nil
	}

	size--
	buffer := make([]byte, 1)
	for size <= NibbleSizeBound {
		_, err = io.ReadFull(reader, buffer)
		if err != nil {
			return 0, fmt.Errorf("%w: reading size continuation byte: %s", ErrBadFormat, err)
		}
		n := uint(buffer[0])
		if n < 255 {
			return size + n + 1, nil
		}
		size += 255
	}
	return 0, fmt.Errorf("%w: unterminated size above %d", ErrBadFormat, NibbleSizeBound)
}

// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package codec

import (
	"fmt"
	"io"
)

// No-extension layout header tags: the top two bits of the first
// byte select the node kind, the remaining six bits start the size
// codec. The single byte 0 is reserved for the empty node and is
// checked before the prefix masks.
const (
	emptyTrieNoExt         byte = 0
	leafPrefixMask         byte = 0b01 << 6
	branchWithoutValueMask byte = 0b10 << 6
	branchWithValueMask    byte = 0b11 << 6
)

const headerPrefixMask byte = 0b11 << 6

// nodeHeaderNoExt is the decoded form of a no-extension header.
type nodeHeaderNoExt interface {
	isNodeHeaderNoExt()
}

type (
	headerNullNoExt   struct{}
	headerBranchNoExt struct {
		hasValue    bool
		nibbleCount uint
	}
	headerLeafNoExt struct {
		nibbleCount uint
	}
)

func (headerNullNoExt) isNodeHeaderNoExt()   {}
func (headerBranchNoExt) isNodeHeaderNoExt() {}
func (headerLeafNoExt) isNodeHeaderNoExt()   {}

func decodeHeaderNoExt(reader io.Reader) (header nodeHeaderNoExt, err error) {
	buffer := make([]byte, 1)
	_, err = io.ReadFull(reader, buffer)
	if err != nil {
		return nil, fmt.Errorf("%w: reading header byte: %s", ErrBadFormat, err)
	}

	i := buffer[0]
	if i == emptyTrieNoExt {
		return headerNullNoExt{}, nil
	}

	switch i & headerPrefixMask {
	case leafPrefixMask:
		size, err := decodeSize(i, reader)
		if err != nil {
			return nil, err
		}
		return headerLeafNoExt{nibbleCount: size}, nil
	case branchWithoutValueMask:
		size, err := decodeSize(i, reader)
		if err != nil {
			return nil, err
		}
		return headerBranchNoExt{hasValue: false, nibbleCount: size}, nil
	case branchWithValueMask:
		size, err := decodeSize(i, reader)
		if err != nil {
			return nil, err
		}
		return headerBranchNoExt{hasValue: true, nibbleCount: size}, nil
	default:
		// a 00 prefix with any low bit set; only the empty byte is
		// valid in that range.
		return nil, fmt.Errorf("%w: reserved header byte %08b", ErrBadFormat, i)
	}
}

// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package codec

import (
	"fmt"
	"io"
)

// Extension layout header tags. The byte value space is partitioned
// into contiguous ranges: a leaf tag carries nibble count + 1, an
// extension tag carries nibble count + 128.
const (
	emptyTrie           byte = 0
	leafNodeOffset      byte = 1
	extensionNodeOffset byte = 128
	branchNodeNoValue   byte = 254
	branchNodeWithValue byte = 255
)

const (
	leafNodeOver      = extensionNodeOffset - leafNodeOffset    // 127
	extensionNodeOver = branchNodeNoValue - extensionNodeOffset // 126
	leafNodeLast      = extensionNodeOffset - 1
	extensionNodeLast = branchNodeNoValue - 1
)

// nodeHeader is the decoded form of an extension layout header tag.
type nodeHeader interface {
	isNodeHeader()
}

type (
	headerNull   struct{}
	headerBranch struct {
		hasValue bool
	}
	headerExtension struct {
		nibbleCount uint
	}
	headerLeaf struct {
		nibbleCount uint
	}
)

func (headerNull) isNodeHeader()      {}
func (headerBranch) isNodeHeader()    {}
func (headerExtension) isNodeHeader() {}
func (headerLeaf) isNodeHeader()      {}

func decodeHeader(reader io.Reader) (header nodeHeader, err error) {
	buffer := make([]byte, 1)
	_, err = io.ReadFull(reader, buffer)
	if err != nil {
		return nil, fmt.Errorf("%w: reading header byte: %s", ErrBadFormat, err)
	}

	switch i := buffer[0]; {
	case i == emptyTrie:
		return headerNull{}, nil
	case i == branchNodeNoValue:
		return headerBranch{hasValue: false}, nil
	case i == branchNodeWithValue:
		return headerBranch{hasValue: true}, nil
	case i >= leafNodeOffset && i <= leafNodeLast:
		return headerLeaf{nibbleCount: uint(i - leafNodeOffset)}, nil
	case i >= extensionNodeOffset && i <= extensionNodeLast:
		return headerExtension{nibbleCount: uint(i - extensionNodeOffset)}, nil
	default:
		// unreachable with the current range constants, kept so the
		// grammar stays explicit if the partition ever changes.
		return nil, fmt.Errorf("%w: header byte %08b outside all tag ranges", ErrBadFormat, buffer[0])
	}
}

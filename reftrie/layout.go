// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package reftrie builds tries over the node codecs and derives
// their root hashes, through a mutable in-memory trie and through a
// one-pass builder over sorted pairs. Both constructions produce the
// same root for the same content, which is the property the codec
// tests lean on.
package reftrie

import (
	"github.com/Jackkakaya/trie/codec"
	"github.com/Jackkakaya/trie/keccak_hasher"
	"github.com/Jackkakaya/trie/nibbles"
)

var hasher = keccak_hasher.NewKeccakHasher()

// Layout binds a node codec to the branch shape it produces: plain
// branches reached through extension nodes, or branches carrying
// their own partial key.
type Layout struct {
	name      string
	codec     codec.NodeCodec[keccak_hasher.KeccakHash]
	extension bool
}

// ExtensionLayout is the radix 16 layout with extension nodes.
var ExtensionLayout = Layout{
	name:      "keccak-extension",
	codec:     codec.NewExtensionCodec[keccak_hasher.KeccakHash](hasher, nibbles.Half, codec.Bitmap16),
	extension: true,
}

// NoExtensionLayout is the radix 16 layout without extension nodes.
var NoExtensionLayout = Layout{
	name:  "keccak-no-extension",
	codec: codec.NewNoExtensionCodec[keccak_hasher.KeccakHash](hasher, nibbles.Half, codec.Bitmap16),
}

// NoExtensionLayoutQuarter is the radix 4 layout without extension
// nodes.
var NoExtensionLayoutQuarter = Layout{
	name:  "keccak-no-extension-quarter",
	codec: codec.NewNoExtensionCodec[keccak_hasher.KeccakHash](hasher, nibbles.Quarter, codec.Bitmap4),
}

// Name returns the layout's name, used in test identifiers.
func (l Layout) Name() string { return l.name }

// Codec returns the layout's node codec.
func (l Layout) Codec() codec.NodeCodec[keccak_hasher.KeccakHash] { return l.codec }

// UsesExtension reports whether branches in this layout are plain
// and reached through extension nodes.
func (l Layout) UsesExtension() bool { return l.extension }

func (l Layout) ops() nibbles.Ops { return l.codec.Ops() }

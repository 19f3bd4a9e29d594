// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package hashdb

import "github.com/Jackkakaya/trie/nibbles"

// HashOut is the output type of a Hasher.
type HashOut interface {
	Bytes() []byte
	ComparableKey() string
}

// Hasher computes fixed-width node identifiers.
type Hasher[Hash HashOut] interface {
	Length() int
	Hash(value []byte) Hash
	FromBytes(value []byte) Hash
}

// HashDB is a keyed byte store addressed by node hash and prefix.
type HashDB[Hash HashOut] interface {
	Get(key Hash, prefix nibbles.Prefix) *[]byte
	Contains(key Hash, prefix nibbles.Prefix) bool
	Insert(prefix nibbles.Prefix, value []byte) Hash
	Emplace(key Hash, prefix nibbles.Prefix, value []byte)
	Remove(key Hash, prefix nibbles.Prefix)
}

// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package memorydb is a reference counted in-memory hashdb.HashDB,
// the node store backing trie construction and root checks.
package memorydb

import (
	"bytes"

	"github.com/Jackkakaya/trie/hashdb"
	"github.com/Jackkakaya/trie/nibbles"
)

// KeyFunction derives the storage key for a node hash at a given
// trie position.
type KeyFunction[H hashdb.HashOut] func(key H, prefix nibbles.Prefix, hasher hashdb.Hasher[H]) H

// HashKey stores nodes under their plain hash, so identical nodes at
// different positions share one entry.
func HashKey[H hashdb.HashOut](key H, _ nibbles.Prefix, _ hashdb.Hasher[H]) H {
	return key
}

// PrefixKey rehashes the node hash together with its position, so
// identical nodes at different positions get distinct entries.
func PrefixKey[H hashdb.HashOut](key H, prefix nibbles.Prefix, hasher hashdb.Hasher[H]) H {
	prefixedKey := make([]byte, 0, len(prefix.PartialKey)+1+len(key.Bytes()))
	prefixedKey = append(prefixedKey, prefix.PartialKey...)
	if prefix.PaddedByte != nil {
		prefixedKey = append(prefixedKey, *prefix.PaddedByte)
	}
	prefixedKey = append(prefixedKey, key.Bytes()...)
	return hasher.FromBytes(prefixedKey)
}

type entry struct {
	value []byte
	rc    int
}

// MemoryDB is a map backed HashDB with per entry reference counts.
// The empty node is implicit: it always reads back without occupying
// an entry, and inserting it is a no-op.
type MemoryDB[H hashdb.HashOut] struct {
	data           map[string]entry
	hashedNullNode H
	nullNodeData   []byte
	keyFunction    KeyFunction[H]
	hasher         hashdb.Hasher[H]
}

// NewMemoryDB creates an empty database whose implicit null node is
// nullNodeData, the layout's empty node encoding.
func NewMemoryDB[H hashdb.HashOut](hasher hashdb.Hasher[H],
	keyFunction KeyFunction[H], nullNodeData []byte) *MemoryDB[H] {
	return &MemoryDB[H]{
		data:           make(map[string]entry),
		hashedNullNode: hasher.Hash(nullNodeData),
		nullNodeData:   nullNodeData,
		keyFunction:    keyFunction,
		hasher:         hasher,
	}
}

// NewMemoryDBWithRoot creates an empty database and returns it along
// with the empty trie root.
func NewMemoryDBWithRoot[H hashdb.HashOut](hasher hashdb.Hasher[H],
	keyFunction KeyFunction[H], nullNodeData []byte) (*MemoryDB[H], H) {
	db := NewMemoryDB(hasher, keyFunction, nullNodeData)
	return db, db.hashedNullNode
}

// Get returns the stored value for key, or nil if the key is absent
// or fully dereferenced.
func (db *MemoryDB[H]) Get(key H, prefix nibbles.Prefix) *[]byte {
	if key.ComparableKey() == db.hashedNullNode.ComparableKey() {
		return &db.nullNodeData
	}

	key = db.keyFunction(key, prefix, db.hasher)
	e, ok := db.data[key.ComparableKey()]
	if ok && e.rc > 0 {
		return &e.value
	}
	return nil
}

// Contains returns true if Get would return a value for key.
func (db *MemoryDB[H]) Contains(key H, prefix nibbles.Prefix) bool {
	return db.Get(key, prefix) != nil
}

// Insert stores value under the hash of value and returns that hash.
func (db *MemoryDB[H]) Insert(prefix nibbles.Prefix, value []byte) H {
	if bytes.Equal(value, db.nullNodeData) {
		return db.hashedNullNode
	}

	key := db.hasher.Hash(value)
	db.Emplace(key, prefix, value)
	return key
}

// Emplace stores value under the given key, bumping the reference
// count if the key already exists.
func (db *MemoryDB[H]) Emplace(key H, prefix nibbles.Prefix, value []byte) {
	if bytes.Equal(value, db.nullNodeData) {
		return
	}

	key = db.keyFunction(key, prefix, db.hasher)

	newEntry := entry{value: value, rc: 1}
	if current, ok := db.data[key.ComparableKey()]; ok {
		newEntry.rc = current.rc + 1
	}
	db.data[key.ComparableKey()] = newEntry
}

// Remove decrements the reference count for key, recording a
// negative count if the key was never inserted.
func (db *MemoryDB[H]) Remove(key H, prefix nibbles.Prefix) {
	if key.ComparableKey() == db.hashedNullNode.ComparableKey() {
		return
	}

	key = db.keyFunction(key, prefix, db.hasher)

	e, ok := db.data[key.ComparableKey()]
	if !ok {
		db.data[key.ComparableKey()] = entry{rc: -1}
		return
	}
	e.rc--
	db.data[key.ComparableKey()] = e
}

// Purge drops all entries whose reference count reached zero.
func (db *MemoryDB[H]) Purge() {
	for key, e := range db.data {
		if e.rc == 0 {
			delete(db.data, key)
		}
	}
}

// Len returns the number of live entries, not counting the implicit
// null node.
func (db *MemoryDB[H]) Len() int {
	n := 0
	for _, e := range db.data {
		if e.rc > 0 {
			n++
		}
	}
	return n
}

var _ hashdb.HashDB[hashdb.HashOut] = &MemoryDB[hashdb.HashOut]{}

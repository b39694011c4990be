// Copyright 2017 TiKV Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kv defines the ordered, byte-keyed engine that the MVCC layer is
// built on, and a bbolt-backed implementation of it.
package kv

// Engine is the contract the MVCC store needs from an embedded, ordered,
// byte-keyed storage engine: point get, a forward iterator, and atomic
// write batches. Keys are ordered byte-lexicographically.
type Engine interface {
	// Open opens (creating if necessary) the engine rooted at dir.
	Open(dir string) error

	// Get returns the value for key and whether it was found.
	Get(key []byte) (value []byte, found bool, err error)

	// NewIterator returns a forward iterator over the whole key space.
	// The caller must call Release on it when done.
	NewIterator() Iterator

	// Write applies batch atomically: either every staged mutation is
	// visible afterward, or none are.
	Write(batch *Batch) error

	// Close releases the engine's resources.
	Close() error
}

// Iterator is a forward cursor over an Engine's key space.
type Iterator interface {
	// Seek positions the iterator at the first key >= key.
	Seek(key []byte)

	// SeekToFirst positions the iterator at the first key in the engine.
	SeekToFirst()

	// SeekToLast positions the iterator at the last key in the engine.
	SeekToLast()

	// Valid reports whether the iterator is positioned at a valid entry.
	Valid() bool

	// Key returns the current entry's key. Only valid when Valid() is true.
	Key() []byte

	// Value returns the current entry's value. Only valid when Valid() is true.
	Value() []byte

	// Next advances the iterator by one entry.
	Next()

	// Release returns resources held by the iterator.
	Release()
}

type batchOpKind int

const (
	batchPut batchOpKind = iota
	batchRemove
	batchDeleteRange
)

type batchOp struct {
	kind   batchOpKind
	key    []byte
	value  []byte
	endKey []byte // exclusive, batchDeleteRange only
}

// Batch stages a set of mutations for atomic application via Engine.Write.
type Batch struct {
	ops []batchOp
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Put stages key=value.
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, batchOp{kind: batchPut, key: key, value: value})
}

// Remove stages the removal of a single key.
func (b *Batch) Remove(key []byte) {
	b.ops = append(b.ops, batchOp{kind: batchRemove, key: key})
}

// DeleteRange stages the removal of every key in the half-open range
// [start, end).
func (b *Batch) DeleteRange(start, end []byte) {
	b.ops = append(b.ops, batchOp{kind: batchDeleteRange, key: start, endKey: end})
}

// Len reports the number of staged operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

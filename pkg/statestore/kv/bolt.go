// Copyright 2016 TiKV Project Authors.
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

package kv

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// DataBucketName is the single bucket the engine stores records in.
var DataBucketName = []byte("default")

// Bolt is an Engine backed by go.etcd.io/bbolt, an embedded, ordered,
// byte-keyed B+tree engine. A single bucket holds key -> record bytes in
// byte-lexicographic order.
type Bolt struct {
	db      *bolt.DB
	timeout time.Duration
}

// NewBolt returns an unopened Bolt engine with the default file-lock
// timeout.
func NewBolt() *Bolt {
	return NewBoltWithTimeout(time.Second)
}

// NewBoltWithTimeout returns an unopened Bolt engine that waits at most
// timeout for the data file's lock when opening.
func NewBoltWithTimeout(timeout time.Duration) *Bolt {
	return &Bolt{timeout: timeout}
}

func (b *Bolt) Open(dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return errors.Wrap(err, "create parent directory for bolt engine")
	}

	db, err := bolt.Open(dir, 0o600, &bolt.Options{Timeout: b.timeout})
	if err != nil {
		return errors.Wrap(err, "open bolt engine")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(DataBucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return errors.Wrap(err, "create data bucket")
	}

	b.db = db
	return nil
}

func (b *Bolt) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(DataBucketName).Get(key)
		if v != nil {
			// v is only valid for the lifetime of the transaction; copy it out.
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "bolt get")
	}
	return value, value != nil, nil
}

func (b *Bolt) NewIterator() Iterator {
	tx, err := b.db.Begin(false)
	if err != nil {
		return &errIterator{}
	}
	cur := tx.Bucket(DataBucketName).Cursor()
	return &boltIterator{tx: tx, cur: cur}
}

func (b *Bolt) Write(batch *Batch) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(DataBucketName)
		for _, op := range batch.ops {
			switch op.kind {
			case batchPut:
				if err := bucket.Put(op.key, op.value); err != nil {
					return err
				}
			case batchRemove:
				if err := bucket.Delete(op.key); err != nil {
					return err
				}
			case batchDeleteRange:
				if err := deleteRange(bucket, op.key, op.endKey); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return errors.Wrap(err, "commit bolt write batch")
}

// deleteRange removes every key in the half-open range [start, end). bbolt
// has no native range-delete, so this walks a cursor and deletes as it
// goes; the enclosing Update transaction makes the whole thing atomic.
func deleteRange(bucket *bolt.Bucket, start, end []byte) error {
	cur := bucket.Cursor()
	for k, _ := cur.Seek(start); k != nil && bytes.Compare(k, end) < 0; k, _ = cur.Next() {
		if err := cur.Delete(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bolt) Close() error {
	return errors.Wrap(b.db.Close(), "close bolt engine")
}

// boltIterator adapts a read-only bbolt transaction and cursor to Iterator.
// It owns tx and must be Release()d to free the transaction.
type boltIterator struct {
	tx      *bolt.Tx
	cur     *bolt.Cursor
	key     []byte
	value   []byte
	valid   bool
	started bool
}

func (it *boltIterator) Seek(key []byte) {
	it.key, it.value = it.cur.Seek(key)
	it.valid = it.key != nil
	it.started = true
}

func (it *boltIterator) SeekToFirst() {
	it.key, it.value = it.cur.First()
	it.valid = it.key != nil
	it.started = true
}

func (it *boltIterator) SeekToLast() {
	it.key, it.value = it.cur.Last()
	it.valid = it.key != nil
	it.started = true
}

func (it *boltIterator) Valid() bool { return it.valid }

func (it *boltIterator) Key() []byte { return it.key }

func (it *boltIterator) Value() []byte { return it.value }

func (it *boltIterator) Next() {
	if !it.started {
		it.SeekToFirst()
		return
	}
	it.key, it.value = it.cur.Next()
	it.valid = it.key != nil
}

func (it *boltIterator) Release() {
	_ = it.tx.Rollback()
}

// errIterator is an always-invalid iterator used when opening the bbolt
// read transaction fails, so NewIterator stays infallible.
type errIterator struct{}

func (it *errIterator) Seek([]byte)   {}
func (it *errIterator) SeekToFirst()  {}
func (it *errIterator) SeekToLast()   {}
func (it *errIterator) Valid() bool   { return false }
func (it *errIterator) Key() []byte   { return nil }
func (it *errIterator) Value() []byte { return nil }
func (it *errIterator) Next()         {}
func (it *errIterator) Release()      {}

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

// Package revision allocates the monotonically increasing revision numbers
// that every mutating statestore operation needs.
package revision

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/apache/distributedlog-statestore/pkg/statestore/kv"
	"github.com/apache/distributedlog-statestore/pkg/util/typeutil"
)

const (
	_defaultStep  = 1000
	_defaultStart = 0
)

// Allocator hands out revision numbers to be attached to put/delete/txn
// operations. Implementations must guarantee strictly increasing output
// even across process restarts.
type Allocator interface {
	// Alloc allocates a new revision.
	Alloc(ctx context.Context) (uint64, error)

	// AllocN allocates n continuous revisions.
	AllocN(ctx context.Context, n int) ([]uint64, error)

	// Reset resets the allocator back to its start value.
	Reset(ctx context.Context) error
}

// BoltAllocator is an Allocator that persists its high-water mark in the
// kv.Engine it is given (cmd/ssctl gives it a dedicated one), under a
// single reserved key. It hands out revisions in batches of step, persisting only the
// batch boundary rather than every single allocation.
type BoltAllocator struct {
	mu   sync.Mutex
	base uint64
	end  uint64

	eng   kv.Engine
	key   []byte
	start uint64
	step  uint64

	lg *zap.Logger
}

// BoltAllocatorParam is the parameter for creating a new bolt-backed
// revision allocator.
type BoltAllocatorParam struct {
	Engine kv.Engine
	Key    string // Key is the reserved engine key the allocator's high-water mark is stored under.
	Start  uint64 // Start is the start revision. If zero, _defaultStart is used.
	Step   uint64 // Step is the batch size grown on exhaustion. If zero, _defaultStep is used.
}

// NewBoltAllocator creates a new bolt-backed revision allocator.
func NewBoltAllocator(param *BoltAllocatorParam, lg *zap.Logger) *BoltAllocator {
	a := &BoltAllocator{
		eng:   param.Engine,
		key:   []byte(param.Key),
		start: param.Start,
		step:  param.Step,
	}
	if a.step == 0 {
		a.step = _defaultStep
	}
	if a.start == 0 {
		a.start = _defaultStart
	}
	a.base = a.start
	a.end = a.start
	a.lg = lg.With(zap.String("revision-allocator-key", param.Key))
	return a
}

func (a *BoltAllocator) Alloc(ctx context.Context) (uint64, error) {
	ids, err := a.AllocN(ctx, 1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (a *BoltAllocator) AllocN(ctx context.Context, n int) ([]uint64, error) {
	if n <= 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]uint64, 0, n)
	if a.end-a.base >= uint64(n) {
		for i := 0; i < n; i++ {
			ids = append(ids, a.base)
			a.base++
		}
		return ids, nil
	}

	for a.end-a.base > 0 {
		ids = append(ids, a.base)
		a.base++
		n--
	}

	growth := a.step * (uint64(n)/a.step + 1)
	if err := a.growLocked(growth); err != nil {
		return nil, errors.Wrapf(err, "grow %d", growth)
	}

	for i := 0; i < n; i++ {
		ids = append(ids, a.base)
		a.base++
	}
	return ids, nil
}

// growLocked persists a new high-water mark. It must be called with mu held.
func (a *BoltAllocator) growLocked(growth uint64) error {
	raw, found, err := a.eng.Get(a.key)
	if err != nil {
		return errors.Wrap(err, "get high-water mark")
	}

	var prevEnd uint64
	if found {
		prevEnd, err = typeutil.BytesToUint64(raw)
		if err != nil {
			return errors.Wrapf(err, "parse high-water mark %x", raw)
		}
	} else {
		prevEnd = a.base
	}
	end := prevEnd + growth

	batch := kv.NewBatch()
	batch.Put(a.key, typeutil.Uint64ToBytes(end))
	if err := a.eng.Write(batch); err != nil {
		return errors.Wrap(err, "persist high-water mark")
	}

	a.end = end
	a.base = prevEnd
	a.lg.Debug("grew revision allocator", zap.Uint64("prev-end", prevEnd), zap.Uint64("new-end", end))
	return nil
}

func (a *BoltAllocator) Reset(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	batch := kv.NewBatch()
	batch.Put(a.key, typeutil.Uint64ToBytes(a.start))
	if err := a.eng.Write(batch); err != nil {
		return errors.Wrap(err, "reset high-water mark")
	}

	a.base = a.start
	a.end = a.start
	return nil
}

// Logger returns the logger the allocator was constructed with.
func (a *BoltAllocator) Logger() *zap.Logger {
	return a.lg
}

package statestore

import "sync"

// resultPool is a thin, typed wrapper over sync.Pool so each Result type
// can recycle itself without a type assertion at every call site.
type resultPool[T any] struct {
	pool sync.Pool
}

func newResultPool[T any](newFn func() T) *resultPool[T] {
	return &resultPool[T]{
		pool: sync.Pool{New: func() interface{} { return newFn() }},
	}
}

func (p *resultPool[T]) get() T {
	return p.pool.Get().(T)
}

func (p *resultPool[T]) put(v T) {
	p.pool.Put(v)
}

// ResultFactory vends pooled Result objects for one store's K, V types.
// Obtaining a result from the factory and later calling Recycle on it
// returns its backing allocation to the pool for reuse.
type ResultFactory[K, V any] struct {
	puts    *resultPool[*PutResult[K, V]]
	deletes *resultPool[*DeleteResult[K, V]]
	ranges  *resultPool[*RangeResult[K, V]]
	txns    *resultPool[*TxnResult[K, V]]
}

func NewResultFactory[K, V any]() *ResultFactory[K, V] {
	f := &ResultFactory[K, V]{}
	f.puts = newResultPool(func() *PutResult[K, V] { return &PutResult[K, V]{pool: f.puts} })
	f.deletes = newResultPool(func() *DeleteResult[K, V] { return &DeleteResult[K, V]{pool: f.deletes} })
	f.ranges = newResultPool(func() *RangeResult[K, V] { return &RangeResult[K, V]{pool: f.ranges} })
	f.txns = newResultPool(func() *TxnResult[K, V] { return &TxnResult[K, V]{pool: f.txns} })
	return f
}

func (f *ResultFactory[K, V]) newPutResult(revision int64) *PutResult[K, V] {
	r := f.puts.get()
	r.code = CodeOK
	r.Revision = revision
	r.PrevKV = nil
	return r
}

func (f *ResultFactory[K, V]) newDeleteResult(revision int64) *DeleteResult[K, V] {
	r := f.deletes.get()
	r.code = CodeOK
	r.Revision = revision
	r.PrevKVs = nil
	r.NumDeleted = 0
	return r
}

func (f *ResultFactory[K, V]) newRangeResult(revision int64) *RangeResult[K, V] {
	r := f.ranges.get()
	r.code = CodeOK
	r.Revision = revision
	r.KVs = nil
	r.Count = 0
	r.HasMore = false
	return r
}

func (f *ResultFactory[K, V]) newTxnResult(revision int64) *TxnResult[K, V] {
	r := f.txns.get()
	r.code = CodeOK
	r.Revision = revision
	r.Success = false
	r.Results = nil
	return r
}

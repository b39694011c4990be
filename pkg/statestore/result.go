package statestore

// KVRecord is a snapshot of one key's value and revision metadata, as
// returned to callers from Range/Put/Delete results and embedded in a
// TxnResult's sub-results.
type KVRecord[K, V any] struct {
	Key       K
	Value     V
	CreateRev int64
	ModRev    int64
	Version   int64
}

// Result is the common shape of every operation's return value: a status
// Code plus a Recycle method that returns pooled buffers to the
// ResultFactory. The store must not touch a Result after Recycle.
type Result interface {
	Code() Code
	Recycle()
}

// PutResult is returned by Store.Put.
type PutResult[K, V any] struct {
	code     Code
	Revision int64
	PrevKV   *KVRecord[K, V]
	pool     *resultPool[*PutResult[K, V]]
}

func (r *PutResult[K, V]) Code() Code { return r.code }

func (r *PutResult[K, V]) Recycle() {
	r.PrevKV = nil
	if r.pool != nil {
		r.pool.put(r)
	}
}

// DeleteResult is returned by Store.Delete.
type DeleteResult[K, V any] struct {
	code       Code
	Revision   int64
	PrevKVs    []KVRecord[K, V]
	NumDeleted int64
	pool       *resultPool[*DeleteResult[K, V]]
}

func (r *DeleteResult[K, V]) Code() Code { return r.code }

func (r *DeleteResult[K, V]) Recycle() {
	r.PrevKVs = nil
	if r.pool != nil {
		r.pool.put(r)
	}
}

// RangeResult is returned by Store.Range.
type RangeResult[K, V any] struct {
	code     Code
	Revision int64
	KVs      []KVRecord[K, V]
	Count    int64
	HasMore  bool
	pool     *resultPool[*RangeResult[K, V]]
}

func (r *RangeResult[K, V]) Code() Code { return r.code }

func (r *RangeResult[K, V]) Recycle() {
	r.KVs = nil
	if r.pool != nil {
		r.pool.put(r)
	}
}

// TxnResult is returned by Store.Txn. Results mirrors the executed op
// list positionally; Recycle on the TxnResult recycles every sub-result
// too, so callers do not recycle sub-results separately.
type TxnResult[K, V any] struct {
	code     Code
	Revision int64
	Success  bool
	Results  []Result
	pool     *resultPool[*TxnResult[K, V]]
}

func (r *TxnResult[K, V]) Code() Code { return r.code }

func (r *TxnResult[K, V]) Recycle() {
	for _, sub := range r.Results {
		sub.Recycle()
	}
	r.Results = nil
	if r.pool != nil {
		r.pool.put(r)
	}
}

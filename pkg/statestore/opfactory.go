package statestore

import "github.com/pkg/errors"

// OpFactory vends builders for every operation kind the engine accepts.
// There is one factory per store, parameterized by the store's K, V types.
type OpFactory[K, V any] struct{}

func NewOpFactory[K, V any]() *OpFactory[K, V] {
	return &OpFactory[K, V]{}
}

func (f *OpFactory[K, V]) NewPutOp() *PutOpBuilder[K, V] {
	return &PutOpBuilder[K, V]{}
}

func (f *OpFactory[K, V]) NewDeleteOp() *DeleteOpBuilder[K, V] {
	return &DeleteOpBuilder[K, V]{}
}

func (f *OpFactory[K, V]) NewRangeOp() *RangeOpBuilder[K, V] {
	return &RangeOpBuilder[K, V]{
		minCreateRev: noConstraintMin,
		maxCreateRev: noConstraintMax,
		minModRev:    noConstraintMin,
		maxModRev:    noConstraintMax,
	}
}

func (f *OpFactory[K, V]) NewCompareOp() *CompareOpBuilder[K, V] {
	return &CompareOpBuilder[K, V]{}
}

func (f *OpFactory[K, V]) NewTxnOp() *TxnOpBuilder[K, V] {
	return &TxnOpBuilder[K, V]{}
}

// --- Put ---

type PutOpBuilder[K, V any] struct {
	op       PutOp[K, V]
	hasKey   bool
	hasValue bool
	hasRev   bool
}

func (b *PutOpBuilder[K, V]) Key(key K) *PutOpBuilder[K, V] {
	b.op.Key = key
	b.hasKey = true
	return b
}

func (b *PutOpBuilder[K, V]) Value(value V) *PutOpBuilder[K, V] {
	b.op.Value = value
	b.hasValue = true
	return b
}

func (b *PutOpBuilder[K, V]) Revision(revision int64) *PutOpBuilder[K, V] {
	b.op.Revision = revision
	b.hasRev = true
	return b
}

func (b *PutOpBuilder[K, V]) PrevKV(prevKV bool) *PutOpBuilder[K, V] {
	b.op.PrevKV = prevKV
	return b
}

func (b *PutOpBuilder[K, V]) Build() (PutOp[K, V], error) {
	if !b.hasKey {
		return PutOp[K, V]{}, errors.New("put op: key is required")
	}
	if !b.hasValue {
		return PutOp[K, V]{}, errors.New("put op: value is required")
	}
	if !b.hasRev {
		return PutOp[K, V]{}, errors.New("put op: revision is required")
	}
	return b.op, nil
}

// --- Delete ---

type DeleteOpBuilder[K, V any] struct {
	op     DeleteOp[K, V]
	hasRev bool
}

func (b *DeleteOpBuilder[K, V]) NullableKey(key K, has bool) *DeleteOpBuilder[K, V] {
	b.op.Key = key
	b.op.HasKey = has
	return b
}

func (b *DeleteOpBuilder[K, V]) NullableEndKey(endKey K, has bool) *DeleteOpBuilder[K, V] {
	b.op.EndKey = endKey
	b.op.HasEndKey = has
	return b
}

func (b *DeleteOpBuilder[K, V]) IsRangeOp(isRange bool) *DeleteOpBuilder[K, V] {
	b.op.IsRange = isRange
	return b
}

func (b *DeleteOpBuilder[K, V]) Revision(revision int64) *DeleteOpBuilder[K, V] {
	b.op.Revision = revision
	b.hasRev = true
	return b
}

func (b *DeleteOpBuilder[K, V]) PrevKV(prevKV bool) *DeleteOpBuilder[K, V] {
	b.op.PrevKV = prevKV
	return b
}

func (b *DeleteOpBuilder[K, V]) Build() (DeleteOp[K, V], error) {
	if !b.hasRev {
		return DeleteOp[K, V]{}, errors.New("delete op: revision is required")
	}
	return b.op, nil
}

// --- Range ---

type RangeOpBuilder[K, V any] struct {
	op           RangeOp[K, V]
	minCreateRev int64
	maxCreateRev int64
	minModRev    int64
	maxModRev    int64
}

func (b *RangeOpBuilder[K, V]) NullableKey(key K, has bool) *RangeOpBuilder[K, V] {
	b.op.Key = key
	b.op.HasKey = has
	return b
}

func (b *RangeOpBuilder[K, V]) NullableEndKey(endKey K, has bool) *RangeOpBuilder[K, V] {
	b.op.EndKey = endKey
	b.op.HasEndKey = has
	return b
}

func (b *RangeOpBuilder[K, V]) IsRangeOp(isRange bool) *RangeOpBuilder[K, V] {
	b.op.IsRange = isRange
	return b
}

func (b *RangeOpBuilder[K, V]) Limit(limit int64) *RangeOpBuilder[K, V] {
	b.op.Limit = limit
	return b
}

func (b *RangeOpBuilder[K, V]) Revision(revision int64) *RangeOpBuilder[K, V] {
	b.op.Revision = revision
	return b
}

func (b *RangeOpBuilder[K, V]) MinModRev(rev int64) *RangeOpBuilder[K, V] {
	b.minModRev = rev
	return b
}

func (b *RangeOpBuilder[K, V]) MaxModRev(rev int64) *RangeOpBuilder[K, V] {
	b.maxModRev = rev
	return b
}

func (b *RangeOpBuilder[K, V]) MinCreateRev(rev int64) *RangeOpBuilder[K, V] {
	b.minCreateRev = rev
	return b
}

func (b *RangeOpBuilder[K, V]) MaxCreateRev(rev int64) *RangeOpBuilder[K, V] {
	b.maxCreateRev = rev
	return b
}

func (b *RangeOpBuilder[K, V]) Build() (RangeOp[K, V], error) {
	b.op.MinModRev = b.minModRev
	b.op.MaxModRev = b.maxModRev
	b.op.MinCreateRev = b.minCreateRev
	b.op.MaxCreateRev = b.maxCreateRev
	return b.op, nil
}

// --- Compare ---

type CompareOpBuilder[K, V any] struct {
	op     CompareOp[K, V]
	hasKey bool
}

func (b *CompareOpBuilder[K, V]) Key(key K) *CompareOpBuilder[K, V] {
	b.op.Key = key
	b.hasKey = true
	return b
}

func (b *CompareOpBuilder[K, V]) Target(target CompareTarget) *CompareOpBuilder[K, V] {
	b.op.Target = target
	return b
}

func (b *CompareOpBuilder[K, V]) Result(result CompareResult) *CompareOpBuilder[K, V] {
	b.op.Result = result
	return b
}

func (b *CompareOpBuilder[K, V]) Revision(revision int64) *CompareOpBuilder[K, V] {
	b.op.Revision = revision
	return b
}

func (b *CompareOpBuilder[K, V]) Value(value V) *CompareOpBuilder[K, V] {
	b.op.Value = value
	return b
}

func (b *CompareOpBuilder[K, V]) Build() (CompareOp[K, V], error) {
	if !b.hasKey {
		return CompareOp[K, V]{}, errors.New("compare op: key is required")
	}
	return b.op, nil
}

// --- Txn ---

type TxnOpBuilder[K, V any] struct {
	op TxnOp[K, V]
}

func (b *TxnOpBuilder[K, V]) Revision(revision int64) *TxnOpBuilder[K, V] {
	b.op.Revision = revision
	return b
}

func (b *TxnOpBuilder[K, V]) Compares(compares ...CompareOp[K, V]) *TxnOpBuilder[K, V] {
	b.op.Compares = compares
	return b
}

func (b *TxnOpBuilder[K, V]) Success(ops ...Op[K, V]) *TxnOpBuilder[K, V] {
	b.op.SuccessOps = ops
	return b
}

func (b *TxnOpBuilder[K, V]) Failure(ops ...Op[K, V]) *TxnOpBuilder[K, V] {
	b.op.FailureOps = ops
	return b
}

func (b *TxnOpBuilder[K, V]) Build() (TxnOp[K, V], error) {
	return b.op, nil
}

// PutOpAsOp, DeleteOpAsOp and RangeOpAsOp wrap a concrete op in the tagged
// Op union so it can appear in a TxnOp's success/failure branch.
func PutOpAsOp[K, V any](op PutOp[K, V]) Op[K, V] {
	return Op[K, V]{kind: kindPut, Put: &op}
}

func DeleteOpAsOp[K, V any](op DeleteOp[K, V]) Op[K, V] {
	return Op[K, V]{kind: kindDelete, Delete: &op}
}

func RangeOpAsOp[K, V any](op RangeOp[K, V]) Op[K, V] {
	return Op[K, V]{kind: kindRange, Range: &op}
}

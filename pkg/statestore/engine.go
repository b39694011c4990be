package statestore

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/apache/distributedlog-statestore/pkg/statestore/kv"
)

type storeState int32

const (
	stateUninitialized storeState = iota
	stateOpen
	stateClosed
)

// Store is an MVCC key-value store over K, V keys and values, backed by an
// embedded ordered byte-key Engine. A single mutex serializes every public
// operation; there is no snapshot isolation, only strict serial execution
// (see the concurrency model in SPEC_FULL.md).
type Store[K, V any] struct {
	mu    sync.Mutex
	state storeState

	name   string
	stream string
	dir    string

	eng           kv.Engine
	keyCoder      Coder[K]
	valCoder      Coder[V]
	opFactory     *OpFactory[K, V]
	resultFactory *ResultFactory[K, V]
	logger        *zap.Logger
	metrics       *storeMetrics

	// iters tracks every live RangeIterator so Close can invalidate them
	// without re-entering the store's main lock. iterSeq hands out the
	// map keys.
	iters   cmap.ConcurrentMap[uintptr, *RangeIterator[K, V]]
	iterSeq uint64
}

// NewStore constructs a Store from spec over the given engine. The store
// remains UNINITIALIZED until Init opens eng at spec.LocalStateStoreDir.
func NewStore[K, V any](eng kv.Engine, spec Spec[K, V]) (*Store[K, V], error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	logger := spec.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var metrics *storeMetrics
	if spec.MetricsEnabled {
		metrics = newStoreMetrics(spec.Name)
	}

	return &Store[K, V]{
		name:          spec.Name,
		stream:        spec.Stream,
		dir:           spec.LocalStateStoreDir,
		eng:           kv.WithLogger(eng, logger),
		keyCoder:      spec.KeyCoder,
		valCoder:      spec.ValCoder,
		opFactory:     NewOpFactory[K, V](),
		resultFactory: NewResultFactory[K, V](),
		logger:        logger,
		metrics:       metrics,
		iters:         cmap.NewWithCustomShardingFunction[uintptr, *RangeIterator[K, V]](func(key uintptr) uint32 { return uint32(key) }),
	}, nil
}

// Init transitions the store from UNINITIALIZED to OPEN, opening the
// underlying engine at the configured directory.
func (s *Store[K, V]) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateUninitialized {
		return errInvalidState(fmt.Sprintf("state store %q is already initialized", s.name))
	}
	if err := s.eng.Open(s.dir); err != nil {
		return errInternal("open underlying engine", err)
	}
	if s.metrics != nil {
		if err := s.metrics.register(prometheus.DefaultRegisterer); err != nil {
			return errInternal("register metrics", err)
		}
	}

	s.state = stateOpen
	s.logger.Info("state store opened", zap.String("name", s.name), zap.String("dir", s.dir))
	return nil
}

// Close transitions the store to CLOSED: outstanding iterators are
// invalidated, then the underlying engine is closed. Any public operation
// issued while not OPEN fails with CodeInvalidState.
func (s *Store[K, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		return errInvalidState(fmt.Sprintf("state store %q is not open", s.name))
	}

	s.iters.IterCb(func(_ uintptr, it *RangeIterator[K, V]) {
		it.closed = true
	})
	s.iters.Clear()

	s.state = stateClosed
	s.logger.Info("state store closed", zap.String("name", s.name))
	return s.eng.Close()
}

func (s *Store[K, V]) checkOpen() error {
	if s.state != stateOpen {
		return errInvalidState(fmt.Sprintf("state store %q is not open", s.name))
	}
	return nil
}

// OpFactory returns the factory for building operations against this
// store's K, V types.
func (s *Store[K, V]) OpFactory() *OpFactory[K, V] { return s.opFactory }

// Deprecated non-MVCC mutators. The parent store's plain put/delete/multi
// contract cannot express revisions or prev-kv semantics; callers must use
// the op-based API below.

func (s *Store[K, V]) DeprecatedPut(K, V) error {
	return newStoreError(CodeUnsupportedOp, nil, "use Put(PutOp) instead")
}

func (s *Store[K, V]) DeprecatedDelete(K) error {
	return newStoreError(CodeUnsupportedOp, nil, "use Delete(DeleteOp) instead")
}

func (s *Store[K, V]) DeprecatedMulti() error {
	return newStoreError(CodeUnsupportedOp, nil, "use Txn(TxnOp) instead")
}

// Put encodes op's key and value, enforces the monotonic-revision
// invariant against any existing record, and atomically commits the
// resulting write.
func (s *Store[K, V]) Put(op PutOp[K, V]) (*PutResult[K, V], error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	batch := kv.NewBatch()
	result, err := s.putLocked(batch, op)
	if err != nil {
		return nil, err
	}
	if result.code == CodeOK && batch.Len() > 0 {
		if werr := s.eng.Write(batch); werr != nil {
			result.Recycle()
			return nil, errInternal("commit put batch", werr)
		}
	}
	s.metrics.observe("put", result.code, start)
	return result, nil
}

func (s *Store[K, V]) putLocked(batch *kv.Batch, op PutOp[K, V]) (*PutResult[K, V], error) {
	rawKey := s.keyCoder.Encode(op.Key)
	rawVal := s.valCoder.Encode(op.Value)

	record, err := s.getRecord(rawKey)
	if err != nil {
		return nil, err
	}

	result := s.resultFactory.newPutResult(op.Revision)
	var oldRecord *MVCCRecord
	defer func() {
		record.recycle()
		oldRecord.recycle()
	}()

	if record != nil {
		// validate the update revision before applying it
		if record.compareModRev(op.Revision) >= 0 {
			result.code = CodeSmallerRevision
			return result, nil
		}
		if op.PrevKV {
			oldRecord = record.duplicate()
		}
		record.Version++
	} else {
		record = newMVCCRecord()
		record.CreateRev = op.Revision
		record.Version = 0
	}
	record.setValue(rawVal)
	record.ModRev = op.Revision

	batch.Put(rawKey, EncodeRecord(record))

	result.code = CodeOK
	if oldRecord != nil {
		prevKV, derr := s.toKVRecord(op.Key, oldRecord)
		if derr != nil {
			result.Recycle()
			return nil, derr
		}
		result.PrevKV = &prevKV
	}
	return result, nil
}

// Delete removes a single key or a range of keys, reporting an accurate
// NumDeleted whenever prev-kv tracking is requested.
func (s *Store[K, V]) Delete(op DeleteOp[K, V]) (*DeleteResult[K, V], error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	batch := kv.NewBatch()
	result, err := s.deleteLocked(batch, op, true)
	if err != nil {
		return nil, err
	}
	if batch.Len() > 0 {
		if werr := s.eng.Write(batch); werr != nil {
			result.Recycle()
			return nil, errInternal("commit delete batch", werr)
		}
	}
	s.metrics.observe("delete", result.code, start)
	return result, nil
}

func (s *Store[K, V]) deleteLocked(batch *kv.Batch, op DeleteOp[K, V], allowBlind bool) (*DeleteResult[K, V], error) {
	var rawKey []byte
	if op.HasKey {
		rawKey = s.keyCoder.Encode(op.Key)
	}
	var rawEndKey []byte
	if op.HasEndKey {
		rawEndKey = s.keyCoder.Encode(op.EndKey)
	}

	blind := allowBlind && !op.PrevKV

	result := s.resultFactory.newDeleteResult(op.Revision)

	var keys [][]byte
	var records []*MVCCRecord
	defer func() {
		for _, r := range records {
			r.recycle()
		}
	}()

	var numDeleted int64
	var err error
	if blind {
		err = s.deleteBlind(batch, op.IsRange, rawKey, rawEndKey)
	} else {
		numDeleted, err = s.deleteUsingIter(batch, op.IsRange, rawKey, rawEndKey, &keys, &records)
	}
	if err != nil {
		result.Recycle()
		return nil, err
	}

	kvs, err := s.toKVsDecoded(keys, records)
	if err != nil {
		result.Recycle()
		return nil, err
	}

	result.code = CodeOK
	if op.PrevKV {
		result.PrevKVs = kvs
	}
	result.NumDeleted = numDeleted
	return result, nil
}

func (s *Store[K, V]) deleteBlind(batch *kv.Batch, isRange bool, rawKey, rawEndKey []byte) error {
	if !isRange {
		batch.Remove(rawKey)
		return nil
	}
	realStart, realEnd, empty := ResolveRange(s.eng, rawKey, rawEndKey)
	if empty {
		return nil
	}
	batch.DeleteRange(realStart, realEnd)
	return nil
}

func (s *Store[K, V]) deleteUsingIter(batch *kv.Batch, isRange bool, rawKey, rawEndKey []byte, keysOut *[][]byte, recordsOut *[]*MVCCRecord) (int64, error) {
	if !isRange {
		record, err := s.getRecord(rawKey)
		if err != nil {
			return 0, err
		}
		if record == nil {
			return 0, nil
		}
		*keysOut = append(*keysOut, rawKey)
		*recordsOut = append(*recordsOut, record)
		batch.Remove(rawKey)
		return 1, nil
	}

	realStart, realEnd, empty := ResolveRange(s.eng, rawKey, rawEndKey)
	if empty {
		return 0, nil
	}

	if _, err := s.scanRecords(realStart, realEnd, 0, nil, keysOut, recordsOut); err != nil {
		return 0, err
	}

	// Reuse the same resolved bounds for the delete_range so the removed
	// span strictly matches what was just enumerated above.
	batch.DeleteRange(realStart, realEnd)
	return int64(len(*keysOut)), nil
}

// Range reads a single key or scans [start, end] inclusive in ascending
// byte-lex order, applying op's revision-range filter to each candidate.
func (s *Store[K, V]) Range(op RangeOp[K, V]) (*RangeResult[K, V], error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	result, err := s.rangeLocked(op)
	if err != nil {
		return nil, err
	}
	s.metrics.observe("range", result.code, start)
	return result, nil
}

func (s *Store[K, V]) rangeLocked(op RangeOp[K, V]) (*RangeResult[K, V], error) {
	result := s.resultFactory.newRangeResult(op.Revision)

	var rawKey []byte
	if op.HasKey {
		rawKey = s.keyCoder.Encode(op.Key)
	}

	if !op.IsRange {
		record, err := s.getRecord(rawKey)
		if err != nil {
			result.Recycle()
			return nil, err
		}
		if record == nil || !op.matches(record) {
			result.Count = 0
			result.HasMore = false
			record.recycle()
			return result, nil
		}
		kvRec, err := s.toKVRecord(op.Key, record)
		record.recycle()
		if err != nil {
			result.Recycle()
			return nil, err
		}
		result.KVs = []KVRecord[K, V]{kvRec}
		result.Count = 1
		result.HasMore = false
		return result, nil
	}

	var rawEndKey []byte
	if op.HasEndKey {
		rawEndKey = s.keyCoder.Encode(op.EndKey)
	}
	realStart, realEnd, empty := ResolveRange(s.eng, rawKey, rawEndKey)
	if empty {
		result.Count = 0
		result.HasMore = false
		return result, nil
	}

	var keys [][]byte
	var records []*MVCCRecord
	hasMore, err := s.scanRecords(realStart, realEnd, op.Limit, op.matches, &keys, &records)
	if err != nil {
		result.Recycle()
		return nil, err
	}

	kvs, err := s.toKVsDecoded(keys, records)
	for _, r := range records {
		r.recycle()
	}
	if err != nil {
		result.Recycle()
		return nil, err
	}

	result.KVs = kvs
	result.Count = int64(len(kvs))
	result.HasMore = hasMore
	return result, nil
}

// scanRecords walks [start, end) in ascending order, appending every
// record passing filter to keysOut/recordsOut, stopping once limit
// matches have been collected (limit<=0 means unlimited). hasMore is true
// iff the cursor still had an in-range key available when the limit was
// hit.
func (s *Store[K, V]) scanRecords(start, end []byte, limit int64, filter func(*MVCCRecord) bool, keysOut *[][]byte, recordsOut *[]*MVCCRecord) (hasMore bool, err error) {
	it := s.eng.NewIterator()
	defer it.Release()

	it.Seek(start)
	for it.Valid() {
		if limit > 0 && int64(len(*keysOut)) >= limit {
			return bytes.Compare(it.Key(), end) < 0, nil
		}
		key := it.Key()
		if bytes.Compare(key, end) >= 0 {
			return false, nil
		}
		record, derr := DecodeRecord(it.Value())
		if derr != nil {
			return false, errInternal("decode record during scan", derr)
		}
		if filter == nil || filter(record) {
			*keysOut = append(*keysOut, append([]byte(nil), key...))
			*recordsOut = append(*recordsOut, record)
		} else {
			record.recycle()
		}
		it.Next()
	}
	return false, nil
}

// Txn evaluates op's compares; if all hold the success branch runs,
// otherwise the failure branch runs. Whichever branch runs executes as a
// single atomic write batch.
func (s *Store[K, V]) Txn(op TxnOp[K, V]) (*TxnResult[K, V], error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	result := s.resultFactory.newTxnResult(op.Revision)

	success, keyNotFound, err := s.processCompares(op.Compares)
	if err != nil {
		result.Recycle()
		return nil, err
	}
	if keyNotFound {
		result.code = CodeKeyNotFound
		result.Success = false
		s.metrics.observe("txn", result.code, start)
		return result, nil
	}

	ops := op.FailureOps
	if success {
		ops = op.SuccessOps
	}

	batch := kv.NewBatch()
	results := make([]Result, 0, len(ops))
	for _, o := range ops {
		r, oerr := s.executeOpLocked(batch, op.Revision, o)
		if oerr != nil {
			for _, done := range results {
				done.Recycle()
			}
			result.Recycle()
			return nil, oerr
		}
		results = append(results, r)
	}

	if batch.Len() > 0 {
		if werr := s.eng.Write(batch); werr != nil {
			for _, done := range results {
				done.Recycle()
			}
			result.Recycle()
			return nil, errInternal("commit txn batch", werr)
		}
	}

	result.Success = success
	result.Results = results
	s.metrics.observe("txn", result.code, start)
	return result, nil
}

func (s *Store[K, V]) executeOpLocked(batch *kv.Batch, revision int64, op Op[K, V]) (Result, error) {
	switch op.kind {
	case kindPut:
		p := *op.Put
		p.Revision = revision
		return s.putLocked(batch, p)
	case kindDelete:
		d := *op.Delete
		d.Revision = revision
		// Inside a transaction the blind path is suppressed so NumDeleted
		// is accurate and PrevKVs is available when requested.
		return s.deleteLocked(batch, d, false)
	case kindRange:
		r := *op.Range
		r.Revision = revision
		return s.rangeLocked(r)
	default:
		return nil, newStoreError(CodeIllegalOp, nil, "unknown operation in transaction")
	}
}

func (s *Store[K, V]) processCompares(compares []CompareOp[K, V]) (success bool, keyNotFound bool, err error) {
	for _, c := range compares {
		rawKey := s.keyCoder.Encode(c.Key)
		record, gerr := s.getRecord(rawKey)
		if gerr != nil {
			return false, false, gerr
		}
		if record == nil {
			return false, true, nil
		}
		ok := s.compareRecord(record, c)
		record.recycle()
		if !ok {
			return false, false, nil
		}
	}
	return true, false, nil
}

func (s *Store[K, V]) compareRecord(record *MVCCRecord, op CompareOp[K, V]) bool {
	var cmp int
	switch op.Target {
	case CompareMod:
		cmp = record.compareModRev(op.Revision)
	case CompareCreate:
		cmp = record.compareCreateRev(op.Revision)
	case CompareVersion:
		cmp = record.compareVersion(op.Revision)
	case CompareValue:
		cmp = compareBytes(record.Value, s.valCoder.Encode(op.Value))
	default:
		return false
	}
	switch op.Result {
	case CompareLess:
		return cmp < 0
	case CompareEqual:
		return cmp == 0
	case CompareGreater:
		return cmp > 0
	case CompareNotEqual:
		return cmp != 0
	default:
		return false
	}
}

func (s *Store[K, V]) getRecord(rawKey []byte) (*MVCCRecord, error) {
	val, found, err := s.eng.Get(rawKey)
	if err != nil {
		return nil, errInternal("get record", err)
	}
	if !found {
		return nil, nil
	}
	record, err := DecodeRecord(val)
	if err != nil {
		return nil, errInternal("decode record", err)
	}
	return record, nil
}

func (s *Store[K, V]) toKVRecord(key K, record *MVCCRecord) (KVRecord[K, V], error) {
	val, err := s.valCoder.Decode(record.Value)
	if err != nil {
		return KVRecord[K, V]{}, errInternal("decode value", err)
	}
	return KVRecord[K, V]{
		Key:       key,
		Value:     val,
		CreateRev: record.CreateRev,
		ModRev:    record.ModRev,
		Version:   record.Version,
	}, nil
}

func (s *Store[K, V]) toKVsDecoded(keys [][]byte, records []*MVCCRecord) ([]KVRecord[K, V], error) {
	kvs := make([]KVRecord[K, V], 0, len(keys))
	for i, rawKey := range keys {
		key, err := s.keyCoder.Decode(rawKey)
		if err != nil {
			return nil, errInternal("decode key", err)
		}
		kvRec, err := s.toKVRecord(key, records[i])
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, kvRec)
	}
	return kvs, nil
}

func (s *Store[K, V]) keyEqual(a, b K) bool {
	return bytes.Equal(s.keyCoder.Encode(a), s.keyCoder.Encode(b))
}

// NewRangeIterator returns a paged cursor over [from, to] inclusive.
// hasFrom/hasTo false select the open-ended NullStartKey/NullEndKey
// sentinels. The iterator is tracked by the store and invalidated by
// Close.
func (s *Store[K, V]) NewRangeIterator(from K, hasFrom bool, to K, hasTo bool) (*RangeIterator[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	it := newRangeIterator(s, from, hasFrom, to, hasTo)
	it.id = uintptr(atomic.AddUint64(&s.iterSeq, 1))
	s.iters.Set(it.id, it)
	return it, nil
}

func (s *Store[K, V]) removeIterator(it *RangeIterator[K, V]) {
	s.iters.Remove(it.id)
}

package statestore

import (
	"bytes"
	"encoding/binary"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/pkg/errors"
)

const recordHeaderLen = 8 + 8 + 8 + 4 // create_rev, mod_rev, version, value_len

// MVCCRecord is the per-key metadata record persisted by the engine: one
// per live key, replaced in place on every put, removed outright on
// delete. Value is backed by an mcache-pooled buffer; callers that take
// ownership of a record (e.g. via duplicate) must recycle it exactly once.
type MVCCRecord struct {
	CreateRev int64
	ModRev    int64
	Version   int64
	Value     []byte
}

// newMVCCRecord returns a zero-valued record; callers set fields directly.
func newMVCCRecord() *MVCCRecord {
	return &MVCCRecord{}
}

// duplicate returns a deep copy of r, with its own pooled value buffer, so
// the original can keep mutating independently (used to snapshot a
// pre-image for prev_kv before a put overwrites it in place).
func (r *MVCCRecord) duplicate() *MVCCRecord {
	dup := &MVCCRecord{
		CreateRev: r.CreateRev,
		ModRev:    r.ModRev,
		Version:   r.Version,
	}
	if r.Value != nil {
		dup.Value = mcache.Malloc(len(r.Value))
		copy(dup.Value, r.Value)
	}
	return dup
}

// recycle returns the record's pooled value buffer. The record must not be
// used afterward.
func (r *MVCCRecord) recycle() {
	if r == nil || r.Value == nil {
		return
	}
	mcache.Free(r.Value)
	r.Value = nil
}

// setValue frees any pooled buffer r currently holds and replaces it with a
// fresh pooled copy of raw.
func (r *MVCCRecord) setValue(raw []byte) {
	if r.Value != nil {
		mcache.Free(r.Value)
		r.Value = nil
	}
	if len(raw) == 0 {
		return
	}
	r.Value = mcache.Malloc(len(raw))
	copy(r.Value, raw)
}

func (r *MVCCRecord) compareModRev(rev int64) int {
	return int(r.ModRev - rev)
}

func (r *MVCCRecord) compareCreateRev(rev int64) int {
	return int(r.CreateRev - rev)
}

func (r *MVCCRecord) compareVersion(rev int64) int {
	return int(r.Version - rev)
}

// EncodeRecord serializes r as a fixed big-endian header followed by the
// value bytes: create_rev(i64), mod_rev(i64), version(i64), value_len(i32),
// value_bytes.
func EncodeRecord(r *MVCCRecord) []byte {
	buf := make([]byte, recordHeaderLen+len(r.Value))
	binary.BigEndian.PutUint64(buf[0:8], uint64(r.CreateRev))
	binary.BigEndian.PutUint64(buf[8:16], uint64(r.ModRev))
	binary.BigEndian.PutUint64(buf[16:24], uint64(r.Version))
	binary.BigEndian.PutUint32(buf[24:28], uint32(len(r.Value)))
	copy(buf[28:], r.Value)
	return buf
}

// DecodeRecord parses a record encoded by EncodeRecord. The returned
// record's Value is a pooled buffer copied out of b, so b may be reused or
// discarded (e.g. a bbolt cursor value, valid only for the transaction's
// lifetime) immediately after this returns.
func DecodeRecord(b []byte) (*MVCCRecord, error) {
	if len(b) < recordHeaderLen {
		return nil, errors.New("mvcc record: truncated header")
	}
	createRev := int64(binary.BigEndian.Uint64(b[0:8]))
	modRev := int64(binary.BigEndian.Uint64(b[8:16]))
	version := int64(binary.BigEndian.Uint64(b[16:24]))
	valueLen := int32(binary.BigEndian.Uint32(b[24:28]))
	if valueLen < 0 {
		return nil, errors.New("mvcc record: negative value_len")
	}
	remaining := b[28:]
	if int(valueLen) > len(remaining) {
		return nil, errors.New("mvcc record: value_len exceeds remaining bytes")
	}

	var value []byte
	if valueLen > 0 {
		value = mcache.Malloc(int(valueLen))
		copy(value, remaining[:valueLen])
	}

	return &MVCCRecord{
		CreateRev: createRev,
		ModRev:    modRev,
		Version:   version,
		Value:     value,
	}, nil
}

func compareBytes(a, b []byte) int {
	return bytes.Compare(a, b)
}

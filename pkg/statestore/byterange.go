package statestore

import (
	"github.com/apache/distributedlog-statestore/pkg/statestore/kv"
)

// ResolveRange resolves a possibly open-ended [start, end] request into a
// concrete half-open [realStart, realEnd) byte range to feed the
// underlying engine. A nil start means "first live key"; a nil end means
// "last live key". If the live key set is empty where a bound needed
// resolving, empty is true and the caller must treat this as a no-op.
func ResolveRange(eng kv.Engine, start, end []byte) (realStart, realEnd []byte, empty bool) {
	needFirst := isNullStartKey(start)
	needLast := isNullEndKey(end)
	if !needFirst && !needLast {
		return start, incrementLastByte(end), false
	}

	it := eng.NewIterator()
	defer it.Release()

	if needFirst {
		it.SeekToFirst()
		if !it.Valid() {
			return nil, nil, true
		}
		start = append([]byte(nil), it.Key()...)
	}
	if needLast {
		it.SeekToLast()
		if !it.Valid() {
			return nil, nil, true
		}
		end = append([]byte(nil), it.Key()...)
	}
	return start, incrementLastByte(end), false
}

// incrementLastByte converts an inclusive end key into the exclusive bound
// of a half-open range by incrementing its final byte. This is a simple
// and sufficient successor in byte-lex order for keys that don't end in
// 0xFF; see the open question on 0xFF wraparound in DESIGN.md.
func incrementLastByte(end []byte) []byte {
	out := make([]byte, len(end))
	copy(out, end)
	if len(out) == 0 {
		return out
	}
	out[len(out)-1]++
	return out
}

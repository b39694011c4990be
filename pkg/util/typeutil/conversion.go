package typeutil

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// BytesToUint64 decodes b as a big-endian uint64. b must be exactly 8 bytes.
func BytesToUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errors.Errorf("invalid data, must 8 bytes, but %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Uint64ToBytes encodes v as a big-endian 8-byte slice, preserving numeric
// ordering under byte-lexicographic comparison.
func Uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

package statestore

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Coder is the pluggable byte codec capability the store requires of K and
// V: the engine manipulates encoded bytes exclusively and never inspects
// application types directly.
type Coder[T any] interface {
	Encode(v T) []byte
	Decode(b []byte) (T, error)
}

// StringCoder encodes a string as its raw UTF-8 bytes.
type StringCoder struct{}

func (StringCoder) Encode(v string) []byte { return []byte(v) }

func (StringCoder) Decode(b []byte) (string, error) { return string(b), nil }

// BytesCoder is the identity codec for raw []byte keys or values. Decode
// copies, so decoded slices stay valid after the record buffer they came
// from is recycled.
type BytesCoder struct{}

func (BytesCoder) Encode(v []byte) []byte { return v }

func (BytesCoder) Decode(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }

// Int64Coder encodes an int64 as a protobuf varint (least significant group
// first), so the byte-lexicographic order of encoded keys does not follow
// numeric order (16384 encodes as 0x80 0x80 0x01 and sorts before 255,
// 0xFF 0x01); callers that need byte-lexicographic numeric ordering should
// prefer a fixed-width big-endian codec instead.
type Int64Coder struct{}

func (Int64Coder) Encode(v int64) []byte {
	return protowire.AppendVarint(nil, uint64(v))
}

func (Int64Coder) Decode(b []byte) (int64, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, errors.New("int64 coder: invalid varint")
	}
	return int64(v), nil
}

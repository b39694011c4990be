package statestore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringCoder_RoundTrip(t *testing.T) {
	var c StringCoder
	encoded := c.Encode("hello")
	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, "hello", decoded)
}

func TestBytesCoder_IsIdentity(t *testing.T) {
	var c BytesCoder
	in := []byte("raw-bytes")
	require.Equal(t, in, c.Encode(in))
	out, err := c.Decode(in)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestInt64Coder_RoundTrip(t *testing.T) {
	var c Int64Coder
	for _, v := range []int64{0, 1, 127, 128, 1 << 40} {
		encoded := c.Encode(v)
		decoded, err := c.Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
	}
}

func TestInt64Coder_InvalidVarint(t *testing.T) {
	var c Int64Coder
	_, err := c.Decode([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80})
	require.Error(t, err)
}

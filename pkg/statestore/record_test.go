package statestore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRecord_RoundTrip(t *testing.T) {
	r := &MVCCRecord{CreateRev: 1, ModRev: 5, Version: 3, Value: []byte("hello")}
	encoded := EncodeRecord(r)

	decoded, err := DecodeRecord(encoded)
	require.NoError(t, err)
	require.Equal(t, r.CreateRev, decoded.CreateRev)
	require.Equal(t, r.ModRev, decoded.ModRev)
	require.Equal(t, r.Version, decoded.Version)
	require.Equal(t, r.Value, decoded.Value)
	decoded.recycle()
}

func TestEncodeDecodeRecord_EmptyValue(t *testing.T) {
	r := &MVCCRecord{CreateRev: 1, ModRev: 1, Version: 0}
	decoded, err := DecodeRecord(EncodeRecord(r))
	require.NoError(t, err)
	require.Empty(t, decoded.Value)
	decoded.recycle()
}

func TestDecodeRecord_TruncatedHeader(t *testing.T) {
	_, err := DecodeRecord([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestDecodeRecord_ValueLenExceedsRemaining(t *testing.T) {
	r := &MVCCRecord{CreateRev: 1, ModRev: 1, Version: 0, Value: []byte("abc")}
	encoded := EncodeRecord(r)
	_, err := DecodeRecord(encoded[:len(encoded)-2])
	require.Error(t, err)
}

func TestMVCCRecord_Duplicate(t *testing.T) {
	r := &MVCCRecord{CreateRev: 1, ModRev: 2, Version: 1, Value: []byte("v1")}
	dup := r.duplicate()

	require.Equal(t, r.CreateRev, dup.CreateRev)
	require.Equal(t, r.Value, dup.Value)

	dup.Value[0] = 'x'
	require.Equal(t, byte('v'), r.Value[0])

	r.recycle()
	dup.recycle()
}

func TestMVCCRecord_SetValue(t *testing.T) {
	r := newMVCCRecord()
	r.setValue([]byte("first"))
	require.Equal(t, []byte("first"), r.Value)

	r.setValue([]byte("second-longer"))
	require.Equal(t, []byte("second-longer"), r.Value)

	r.setValue(nil)
	require.Empty(t, r.Value)

	r.recycle()
}

func TestMVCCRecord_CompareHelpers(t *testing.T) {
	r := &MVCCRecord{CreateRev: 10, ModRev: 20, Version: 3}
	require.Equal(t, 0, r.compareModRev(20))
	require.Less(t, r.compareModRev(25), 0)
	require.Greater(t, r.compareModRev(15), 0)

	require.Equal(t, 0, r.compareCreateRev(10))
	require.Equal(t, 0, r.compareVersion(3))
}

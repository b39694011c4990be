package statestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apache/distributedlog-statestore/pkg/statestore/kv"
)

func newTestEngine(t *testing.T) kv.Engine {
	t.Helper()
	dir := t.TempDir()
	eng := kv.NewBolt()
	require.NoError(t, eng.Open(filepath.Join(dir, "test.db")))
	t.Cleanup(func() { require.NoError(t, eng.Close()) })
	return eng
}

func seedKeys(t *testing.T, eng kv.Engine, keys ...string) {
	t.Helper()
	batch := kv.NewBatch()
	for _, k := range keys {
		batch.Put([]byte(k), []byte("v-"+k))
	}
	require.NoError(t, eng.Write(batch))
}

func TestResolveRange_BothBoundsGiven(t *testing.T) {
	eng := newTestEngine(t)
	seedKeys(t, eng, "a", "b", "c")

	start, end, empty := ResolveRange(eng, []byte("b"), []byte("c"))
	require.False(t, empty)
	require.Equal(t, []byte("b"), start)
	require.Equal(t, []byte("d"), end) // "c" incremented to the exclusive bound
}

func TestResolveRange_NullStart(t *testing.T) {
	eng := newTestEngine(t)
	seedKeys(t, eng, "b", "c", "d")

	start, end, empty := ResolveRange(eng, NullStartKey, []byte("c"))
	require.False(t, empty)
	require.Equal(t, []byte("b"), start)
	require.Equal(t, []byte("d"), end)
}

func TestResolveRange_NullEnd(t *testing.T) {
	eng := newTestEngine(t)
	seedKeys(t, eng, "b", "c", "d")

	start, end, empty := ResolveRange(eng, []byte("b"), NullEndKey)
	require.False(t, empty)
	require.Equal(t, []byte("b"), start)
	require.Equal(t, []byte("e"), end)
}

func TestResolveRange_BothNullOnEmptyEngine(t *testing.T) {
	eng := newTestEngine(t)

	_, _, empty := ResolveRange(eng, NullStartKey, NullEndKey)
	require.True(t, empty)
}

func TestResolveRange_BothNull(t *testing.T) {
	eng := newTestEngine(t)
	seedKeys(t, eng, "b", "c", "d")

	start, end, empty := ResolveRange(eng, NullStartKey, NullEndKey)
	require.False(t, empty)
	require.Equal(t, []byte("b"), start)
	require.Equal(t, []byte("e"), end)
}

func TestIncrementLastByte_NoCarry(t *testing.T) {
	// Documents the accepted 0xFF wraparound gap: a key ending in 0xFF
	// wraps its last byte to 0x00 instead of carrying into the prior
	// byte, which would make the resulting bound sort before end itself.
	out := incrementLastByte([]byte{0x01, 0xFF})
	require.Equal(t, []byte{0x01, 0x00}, out)
}

func TestIncrementLastByte_Empty(t *testing.T) {
	require.Equal(t, []byte{}, incrementLastByte([]byte{}))
}

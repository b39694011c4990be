package statestore

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apache/distributedlog-statestore/pkg/statestore/kv"
)

func TestRangeIterator_IteratesInclusiveRange(t *testing.T) {
	s := newTestStore(t)
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i, k := range keys {
		mustPut(t, s, k, "v-"+k, int64(i+1)).Recycle()
	}

	it, err := s.NewRangeIterator("a", true, "h", true)
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for {
		rec, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, rec.Key)
	}
	require.Equal(t, keys, got)
}

func TestRangeIterator_RefetchesAcrossPageSeam(t *testing.T) {
	s := newTestStore(t)

	// Seed more keys than one page holds so the iterator must refetch and
	// skip the seam key it already emitted.
	const n = 40
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("key-%03d", i)
		mustPut(t, s, keys[i], "v", int64(i+1)).Recycle()
	}

	it, err := s.NewRangeIterator("", false, "", false)
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for {
		rec, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, rec.Key)
	}
	require.Equal(t, keys, got)
}

func TestRangeIterator_OpenEnded(t *testing.T) {
	s := newTestStore(t)
	for i, k := range []string{"a", "b", "c"} {
		mustPut(t, s, k, "v", int64(i+1)).Recycle()
	}

	it, err := s.NewRangeIterator("", false, "", false)
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for {
		rec, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, rec.Key)
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestRangeIterator_EmptyRange(t *testing.T) {
	s := newTestStore(t)

	it, err := s.NewRangeIterator("", false, "", false)
	require.NoError(t, err)
	defer it.Close()

	_, ok, err := it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRangeIterator_NextAfterCloseFails(t *testing.T) {
	s := newTestStore(t)
	mustPut(t, s, "a", "v", 1).Recycle()

	it, err := s.NewRangeIterator("", false, "", false)
	require.NoError(t, err)
	it.Close()

	_, _, err = it.Next()
	require.Error(t, err)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, CodeInvalidState, storeErr.Code)
}

func TestRangeIterator_ClosedOnStoreClose(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore[string, string](kv.NewBolt(), Spec[string, string]{
		Name:               "closes-iterators",
		KeyCoder:           StringCoder{},
		ValCoder:           StringCoder{},
		LocalStateStoreDir: filepath.Join(dir, "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, s.Init())

	mustPut(t, s, "a", "v", 1).Recycle()

	it, err := s.NewRangeIterator("", false, "", false)
	require.NoError(t, err)

	require.NoError(t, s.Close())

	_, _, err = it.Next()
	require.Error(t, err)
}

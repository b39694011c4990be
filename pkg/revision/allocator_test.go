package revision

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apache/distributedlog-statestore/pkg/statestore/kv"
)

func newTestEngine(t *testing.T) kv.Engine {
	t.Helper()
	eng := kv.NewBolt()
	require.NoError(t, eng.Open(filepath.Join(t.TempDir(), "alloc-test.db")))
	t.Cleanup(func() { require.NoError(t, eng.Close()) })
	return eng
}

func TestBoltAllocator_Alloc(t *testing.T) {
	eng := newTestEngine(t)
	allocator := NewBoltAllocator(&BoltAllocatorParam{
		Engine: eng,
		Key:    "test-key",
		Step:   2,
	}, zap.NewNop())

	const n = 100
	ids := make([]uint64, n)
	wg := sync.WaitGroup{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			id, err := allocator.Alloc(context.Background())
			require.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := 1; i < len(ids); i++ {
		require.Equal(t, ids[i-1]+1, ids[i])
	}
}

func TestBoltAllocator_AllocN(t *testing.T) {
	eng := newTestEngine(t)
	allocator := NewBoltAllocator(&BoltAllocatorParam{
		Engine: eng,
		Key:    "test-key",
		Step:   3,
	}, zap.NewNop())

	ids, err := allocator.AllocN(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, ids, 7)
	for i := 1; i < len(ids); i++ {
		require.Equal(t, ids[i-1]+1, ids[i])
	}
}

func TestBoltAllocator_AllocN_Zero(t *testing.T) {
	eng := newTestEngine(t)
	allocator := NewBoltAllocator(&BoltAllocatorParam{Engine: eng, Key: "k"}, zap.NewNop())

	ids, err := allocator.AllocN(context.Background(), 0)
	require.NoError(t, err)
	require.Nil(t, ids)
}

func TestBoltAllocator_SurvivesRestart(t *testing.T) {
	eng := newTestEngine(t)

	a1 := NewBoltAllocator(&BoltAllocatorParam{Engine: eng, Key: "test-key", Step: 2}, zap.NewNop())
	_, end1 := allocOnce(t, a1, 5)

	// A second allocator over the same engine and key must continue from
	// where the first left off.
	a2 := NewBoltAllocator(&BoltAllocatorParam{Engine: eng, Key: "test-key", Step: 2}, zap.NewNop())
	start2, _ := allocOnce(t, a2, 5)

	require.Less(t, end1, start2)
}

func allocOnce(t *testing.T, a *BoltAllocator, n int) (start, end uint64) {
	t.Helper()
	ids, err := a.AllocN(context.Background(), n)
	require.NoError(t, err)
	return ids[0], ids[len(ids)-1]
}

func TestBoltAllocator_Reset(t *testing.T) {
	eng := newTestEngine(t)
	allocator := NewBoltAllocator(&BoltAllocatorParam{Engine: eng, Key: "test-key", Step: 2, Start: 10}, zap.NewNop())

	_, err := allocator.AllocN(context.Background(), 5)
	require.NoError(t, err)

	require.NoError(t, allocator.Reset(context.Background()))

	id, err := allocator.Alloc(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(10), id)
}

func TestLogger_DelegatesToAllocator(t *testing.T) {
	eng := newTestEngine(t)
	logged := Logger{NewBoltAllocator(&BoltAllocatorParam{Engine: eng, Key: "test-key"}, zap.NewNop())}

	id, err := logged.Alloc(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	ids, err := logged.AllocN(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	require.NoError(t, logged.Reset(context.Background()))
}

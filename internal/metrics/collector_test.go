package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Record(t *testing.T) {
	c := NewCollector()

	c.Record(OpPageFetch, 10*time.Millisecond, 1000)
	c.Record(OpPageFetch, 30*time.Millisecond, 500)
	c.Record(OpBulkUpsert, 20*time.Millisecond, 1500)

	snap := c.Snapshot()

	fetch, ok := snap.Operations[OpPageFetch]
	require.True(t, ok)
	assert.Equal(t, int64(2), fetch.Count)
	assert.Equal(t, int64(1500), fetch.Items)
	assert.Equal(t, int64(40), fetch.TotalTimeMs)
	assert.Equal(t, int64(10), fetch.MinTimeMs)
	assert.Equal(t, int64(30), fetch.MaxTimeMs)
	assert.InDelta(t, 20.0, fetch.AvgTimeMs, 0.01)

	upsert, ok := snap.Operations[OpBulkUpsert]
	require.True(t, ok)
	assert.Equal(t, int64(1), upsert.Count)
	assert.Equal(t, int64(1500), upsert.Items)
}

func TestCollector_EmptySnapshot(t *testing.T) {
	snap := NewCollector().Snapshot()
	assert.Empty(t, snap.Operations)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(OpPageFetch, time.Millisecond, 10)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(800), snap.Operations[OpPageFetch].Count)
	assert.Equal(t, int64(8000), snap.Operations[OpPageFetch].Items)
}

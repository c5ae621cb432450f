package snowflake

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode_InvalidMachineID(t *testing.T) {
	_, err := NewNode(-1)
	assert.Error(t, err)

	_, err = NewNode(1024)
	assert.Error(t, err)
}

func TestNextID_UniqueAndIncreasing(t *testing.T) {
	node, err := NewNode(7)
	require.NoError(t, err)

	var last int64
	for i := 0; i < 10000; i++ {
		id, err := node.NextID()
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}
}

func TestNextID_Concurrent(t *testing.T) {
	node, err := NewNode(1)
	require.NoError(t, err)

	const workers, perWorker = 8, 500
	ids := make(chan int64, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := node.NextID()
				if err == nil {
					ids <- id
				}
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{}, workers*perWorker)
	for id := range ids {
		_, dup := seen[id]
		assert.False(t, dup, "重复ID: %d", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestNextID_ClockBackwards(t *testing.T) {
	node, err := NewNode(1)
	require.NoError(t, err)

	current := time.Now().UnixMilli()
	node.now = func() int64 { return current }
	_, err = node.NextID()
	require.NoError(t, err)

	current -= 10
	_, err = node.NextID()
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	node, err := NewNode(42)
	require.NoError(t, err)

	before := time.Now().Add(-time.Second)
	id, err := node.NextID()
	require.NoError(t, err)

	ts, machineID, seq := Parse(id)
	assert.Equal(t, int64(42), machineID)
	assert.Equal(t, int64(0), seq)
	assert.True(t, ts.After(before))
	assert.NotEmpty(t, node.NextString())
}

package show

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackgroundTask_JoinWaitsForCompletion(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool
	task := spawnTask(func() {
		<-release
		finished.Store(true)
	})

	select {
	case <-task.Done():
		t.Fatal("task finished before it was released")
	case <-time.After(10 * time.Millisecond):
	}

	close(release)
	require.NoError(t, task.Join())
	assert.True(t, finished.Load())
}

func TestBackgroundTask_PanicBecomesError(t *testing.T) {
	task := spawnTask(func() { panic("task exploded") })

	err := task.Join()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task exploded")
}

func TestTaskRegistry_JoinAllDrains(t *testing.T) {
	var r taskRegistry
	var count atomic.Int32
	for i := 0; i < 3; i++ {
		r.add(spawnTask(func() { count.Add(1) }))
	}
	r.add(spawnTask(func() { panic("bad") }))
	require.Equal(t, 4, r.len())

	err := r.joinAll()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, int32(3), count.Load())
	assert.Equal(t, 0, r.len())
	assert.NoError(t, r.joinAll())
}

package localstate

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFile_ChangedOnDisk(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	f := Open(path)
	defer f.Close()
	require.False(t, f.changedOnDisk(), "missing file")

	f.Save(sampleState(100))
	require.NoError(t, f.Flush())
	require.False(t, f.changedOnDisk(), "own write")

	other := Open(path)
	other.Save(sampleState(200))
	require.NoError(t, other.Close())
	require.True(t, f.changedOnDisk())

	_, err := f.Load(context.Background())
	require.NoError(t, err)
	require.False(t, f.changedOnDisk(), "loaded content is current")
}

func TestFile_WatchReportsOtherWriters(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	f := Open(path, WithLogger(zaptest.NewLogger(t)))
	defer f.Close()

	var changes atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Watch(ctx, func() { changes.Add(1) }) }()
	time.Sleep(2 * watchSettle)

	f.Save(sampleState(100))
	require.NoError(t, f.Flush())
	require.Never(t, func() bool { return changes.Load() > 0 }, 4*watchSettle, 20*time.Millisecond)

	other := Open(path)
	other.Save(sampleState(300))
	require.NoError(t, other.Close())
	require.Eventually(t, func() bool { return changes.Load() == 1 }, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

package store

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- WriteFile ---

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "nested", "summary.txt")

	require.NoError(t, WriteFile(path, []byte("hello"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.True(t, Exists(path))
}

func TestWriteFileReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.html")

	require.NoError(t, WriteFile(path, []byte("first"), 0644))
	require.NoError(t, WriteFile(path, []byte("second"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestWriteFileFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target")
	// A directory in the target's place makes the rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0755))

	assert.Error(t, WriteFile(path, []byte("x"), 0644))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExistsMissing(t *testing.T) {
	assert.False(t, Exists(filepath.Join(t.TempDir(), "nope")))
}

// --- Locks ---

func TestWithLockSerializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleanup")

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(t.Context(), path, 5*time.Second, func() error {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive)
}

func TestWithReadLockRunsFn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	called := false
	require.NoError(t, WithReadLock(t.Context(), path, time.Second, func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestWithLockMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "cleanup")
	called := false
	err := WithLock(t.Context(), path, time.Second, func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.NoDirExists(t, filepath.Dir(path))
}

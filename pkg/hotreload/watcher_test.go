package hotreload_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/hotreload"
)

func TestWatcherFiresOnceForABurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.txt")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	var mu sync.Mutex
	var fireCount int
	fired := make(chan struct{}, 1)

	w, err := hotreload.New(path, 30*time.Millisecond, func(p string) {
		mu.Lock()
		fireCount++
		mu.Unlock()
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	go w.Run()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v"+string(rune('1'+i))), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never fired")
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fireCount, "a debounced burst of writes must fire the callback exactly once")
}

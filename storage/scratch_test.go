package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchWriteRemove(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	path, err := s.Write(strings.NewReader("hello"), ".webm")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".webm"))
	assert.Equal(t, s.Dir(), filepath.Dir(path))
	assert.Equal(t, 1, s.Live())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	s.Remove(path)
	assert.Equal(t, 0, s.Live())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestScratchWriteFailureCleansUp(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	_, err = s.Write(failingReader{}, ".webm")
	assert.Error(t, err)
	assert.Equal(t, 0, s.Live())

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScratchReserveAndCleanup(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	in, err := s.Write(strings.NewReader("a"), ".ogg")
	require.NoError(t, err)
	out := s.Reserve(in + ".wav")
	require.NoError(t, os.WriteFile(out, []byte("b"), 0644))

	dir, err := s.Mkdir()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "speech.mp3"), []byte("c"), 0644))

	assert.Equal(t, 3, s.Live())
	s.Cleanup()
	assert.Equal(t, 0, s.Live())

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScratchUniqueNames(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	const writers = 50
	paths := make(chan string, writers)
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			path, err := s.Write(strings.NewReader("x"), ".webm")
			assert.NoError(t, err)
			paths <- path
		}()
	}
	wg.Wait()
	close(paths)

	seen := map[string]bool{}
	for path := range paths {
		assert.False(t, seen[path], "duplicate scratch path %s", path)
		seen[path] = true
	}
	assert.Len(t, seen, writers)
}

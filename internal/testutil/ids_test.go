package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDs(t *testing.T) {
	gen := NewSequentialIDs("mat")

	first, err := gen.Generate()
	require.NoError(t, err)
	second, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "mat-0001", first)
	assert.Equal(t, "mat-0002", second)

	gen.Reset()
	again, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "mat-0001", again)
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	id, err := NewSequentialIDs("").Generate()
	require.NoError(t, err)
	assert.Equal(t, "id-0001", id)
}

func TestSequentialIDs_ConcurrentCallsAreDistinct(t *testing.T) {
	gen := NewSequentialIDs("c")

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id, _ := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1000)
}

package memo

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Do(t *testing.T) {
	c := New[*int](4)
	calls := 0
	compute := func() (*int, error) {
		calls++
		v := calls
		return &v, nil
	}

	first, err := c.Do("a", compute)
	require.NoError(t, err)
	second, err := c.Do("a", compute)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Size: 1, Max: 4}, c.Stats())
}

func TestCache_ErrorsNotCached(t *testing.T) {
	c := New[string](4)
	boom := errors.New("boom")

	_, err := c.Do("k", func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)

	v, err := c.Do("k", func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCache_Eviction(t *testing.T) {
	c := New[int](2)
	for i, k := range []string{"a", "b", "c"} {
		_, err := c.Do(k, func() (int, error) { return i, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "least recently used entry is evicted")
}

func TestCache_Purge(t *testing.T) {
	c := New[int](0)
	_, _ = c.Do("a", func() (int, error) { return 1, nil })
	_, _ = c.Do("a", func() (int, error) { return 1, nil })
	c.Purge()

	assert.Equal(t, Stats{Max: DefaultSize}, c.Stats())
}

func TestCache_Concurrent(t *testing.T) {
	c := New[*int](16)
	var calls atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]*int, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err := c.Do("shared", func() (*int, error) {
				n := int(calls.Add(1))
				return &n, nil
			})
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Same(t, results[0], r)
	}
}

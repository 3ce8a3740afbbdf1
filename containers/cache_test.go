package containers_test

import (
	"sync"
	"testing"

	"github.com/jrsteele09/go-swift-client/containers"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCache_GetOrLoad(t *testing.T) {
	cache := containers.NewCache()

	loads := 0
	loader := func() (*containers.Container, error) {
		loads++
		return &containers.Container{Name: "photos", ObjectCount: 3}, nil
	}

	t.Run("miss invokes loader", func(t *testing.T) {
		c, err := cache.GetOrLoad("photos", loader)
		require.NoError(t, err)
		require.Equal(t, "photos", c.Name)
		require.Equal(t, 1, loads)
	})

	t.Run("hit skips loader", func(t *testing.T) {
		c, err := cache.GetOrLoad("photos", loader)
		require.NoError(t, err)
		require.Equal(t, int64(3), c.ObjectCount)
		require.Equal(t, 1, loads)
	})

	t.Run("loader error is not cached", func(t *testing.T) {
		boom := errors.New("listing failed")
		_, err := cache.GetOrLoad("missing", func() (*containers.Container, error) {
			return nil, boom
		})
		require.ErrorIs(t, err, boom)
		require.Nil(t, cache.Get("missing"))
	})
}

func TestCache_Reset(t *testing.T) {
	cache := containers.NewCache()
	cache.Put(&containers.Container{Name: "a"})
	cache.Put(&containers.Container{Name: "b"})
	require.Equal(t, 2, cache.Len())

	cache.Reset()
	require.Equal(t, 0, cache.Len())

	// A lookup after Reset must hit the loader again, never a stale entry.
	loads := 0
	_, err := cache.GetOrLoad("a", func() (*containers.Container, error) {
		loads++
		return &containers.Container{Name: "a"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, loads)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := containers.NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrLoad("shared", func() (*containers.Container, error) {
				return &containers.Container{Name: "shared"}, nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, cache.Len())
	require.NotNil(t, cache.Get("shared"))
}

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*MenuCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewMenuCache(rdb, 30*time.Second, logger.Nop()), mr
}

func sampleMenu() []domain.MenuItem {
	return []domain.MenuItem{
		{ID: 1, RestaurantID: 3, Name: "Margherita", Price: decimal.RequireFromString("8.50"), IsAvailable: true},
		{ID: 2, RestaurantID: 3, Name: "Tiramisu", Price: decimal.RequireFromString("4.00"), IsAvailable: true},
	}
}

func TestMenuCache_FetchReadsThrough(t *testing.T) {
	c, mr := newTestCache(t)
	var loads int32
	load := func(context.Context) ([]domain.MenuItem, error) {
		atomic.AddInt32(&loads, 1)
		return sampleMenu(), nil
	}

	first, err := c.Fetch(context.Background(), 3, load)
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), 3, load)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	require.Len(t, second, 2)
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.True(t, second[0].Price.Equal(decimal.RequireFromString("8.50")))
	assert.True(t, mr.Exists("menu:restaurant:3"))
	assert.Equal(t, 30*time.Second, mr.TTL("menu:restaurant:3"))
}

func TestMenuCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t)
	_, err := c.Fetch(context.Background(), 3, func(context.Context) ([]domain.MenuItem, error) { return sampleMenu(), nil })
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(context.Background(), 3))
	assert.False(t, mr.Exists("menu:restaurant:3"))
}

func TestMenuCache_LoadErrorNotCached(t *testing.T) {
	c, mr := newTestCache(t)

	_, err := c.Fetch(context.Background(), 3, func(context.Context) ([]domain.MenuItem, error) {
		return nil, errors.New("db down")
	})

	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("menu:restaurant:3"))
}

func TestMenuCache_ConcurrentMissesShareLoad(t *testing.T) {
	c, _ := newTestCache(t)
	var loads int32
	release := make(chan struct{})
	load := func(context.Context) ([]domain.MenuItem, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return sampleMenu(), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Fetch(context.Background(), 3, load)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestMenuCache_Warmup(t *testing.T) {
	c, mr := newTestCache(t)

	c.Warmup(context.Background(), []uint64{3, 4}, func(_ context.Context, id uint64) ([]domain.MenuItem, error) {
		if id == 4 {
			return nil, errors.New("gone")
		}
		return sampleMenu(), nil
	})

	assert.True(t, mr.Exists("menu:restaurant:3"))
	assert.False(t, mr.Exists("menu:restaurant:4"))
}

package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dimpinis9/estately/app/dto"
	"github.com/dimpinis9/estately/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cachePrefix = "estately:"

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisDashboardCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rc.Close() })
	return NewRedisDashboardCache(rc, cachePrefix, ttl), mr
}

func cachedMetrics(total int64) *dto.DashboardMetrics {
	return &dto.DashboardMetrics{
		OwnerID:          owner,
		Leads:            dto.LeadMetrics{Total: total},
		Window:           NewMetricsWindow(dashboardNow),
		DegradedSections: []string{},
		GeneratedAt:      dashboardNow,
	}
}

func TestRedisDashboardCache_Disabled(t *testing.T) {
	ctx := context.Background()

	t.Run("NilClient", func(t *testing.T) {
		cache := NewRedisDashboardCache(nil, cachePrefix, time.Minute)
		cache.Set(ctx, owner, dashboardNow, cachedMetrics(1))

		_, ok := cache.Get(ctx, owner, dashboardNow)
		assert.False(t, ok)
		assert.NoError(t, cache.Invalidate(ctx, owner))
	})

	t.Run("NilCache", func(t *testing.T) {
		var cache *RedisDashboardCache
		_, ok := cache.Get(ctx, owner, dashboardNow)
		assert.False(t, ok)
		assert.NoError(t, cache.Invalidate(ctx, owner))
	})

	t.Run("ZeroTTL", func(t *testing.T) {
		cache, mr := newRedisCache(t, 0)
		cache.Set(ctx, owner, dashboardNow, cachedMetrics(1))
		require.NoError(t, cache.Invalidate(ctx, owner))

		_, ok := cache.Get(ctx, owner, dashboardNow)
		assert.False(t, ok)
		assert.Empty(t, mr.Keys())
	})
}

func TestRedisDashboardCache_Keying(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t, time.Minute)

	cache.Set(ctx, owner, dashboardNow.Add(10*time.Second), cachedMetrics(3))

	t.Run("MissingGenerationMeansZero", func(t *testing.T) {
		assert.False(t, mr.Exists(cachePrefix+"dashboard:gen:7"))
		assert.True(t, mr.Exists("estately:dashboard:metrics:7:0:UTC:1741944600"))
		assert.Equal(t, time.Minute, mr.TTL("estately:dashboard:metrics:7:0:UTC:1741944600"))
	})

	t.Run("SameBucketHits", func(t *testing.T) {
		got, ok := cache.Get(ctx, owner, dashboardNow.Add(50*time.Second))
		require.True(t, ok)
		assert.Equal(t, int64(3), got.Leads.Total)
		assert.True(t, got.Window.Now.Equal(dashboardNow))
	})

	t.Run("NextBucketMisses", func(t *testing.T) {
		_, ok := cache.Get(ctx, owner, dashboardNow.Add(time.Minute))
		assert.False(t, ok)
	})

	t.Run("OtherLocationMisses", func(t *testing.T) {
		athens, err := time.LoadLocation("Europe/Athens")
		require.NoError(t, err)
		_, ok := cache.Get(ctx, owner, dashboardNow.In(athens))
		assert.False(t, ok)
	})

	t.Run("OtherOwnerMisses", func(t *testing.T) {
		_, ok := cache.Get(ctx, foreign, dashboardNow)
		assert.False(t, ok)
	})

	t.Run("Expires", func(t *testing.T) {
		mr.FastForward(time.Minute + time.Second)
		_, ok := cache.Get(ctx, owner, dashboardNow)
		assert.False(t, ok)
	})
}

func TestRedisDashboardCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t, time.Minute)

	cache.Set(ctx, owner, dashboardNow, cachedMetrics(3))
	require.NoError(t, cache.Invalidate(ctx, owner))

	gen, err := mr.Get(cachePrefix + "dashboard:gen:7")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)

	_, ok := cache.Get(ctx, owner, dashboardNow)
	assert.False(t, ok, "old generation must be unreachable")
	assert.True(t, mr.Exists("estately:dashboard:metrics:7:0:UTC:1741944600"), "orphaned entries expire on their own")

	cache.Set(ctx, owner, dashboardNow, cachedMetrics(4))
	got, ok := cache.Get(ctx, owner, dashboardNow)
	require.True(t, ok)
	assert.Equal(t, int64(4), got.Leads.Total)
	assert.True(t, mr.Exists("estately:dashboard:metrics:7:1:UTC:1741944600"))
}

func TestRedisDashboardCache_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("CorruptEntryMisses", func(t *testing.T) {
		cache, mr := newRedisCache(t, time.Minute)
		require.NoError(t, mr.Set("estately:dashboard:metrics:7:0:UTC:1741944600", "not json"))

		_, ok := cache.Get(ctx, owner, dashboardNow)
		assert.False(t, ok)
	})

	t.Run("CorruptGenerationMisses", func(t *testing.T) {
		cache, mr := newRedisCache(t, time.Minute)
		cache.Set(ctx, owner, dashboardNow, cachedMetrics(3))
		require.NoError(t, mr.Set(cachePrefix+"dashboard:gen:7", "abc"))

		_, ok := cache.Get(ctx, owner, dashboardNow)
		assert.False(t, ok)
	})

	t.Run("RedisDown", func(t *testing.T) {
		cache, mr := newRedisCache(t, time.Minute)
		mr.Close()

		cache.Set(ctx, owner, dashboardNow, cachedMetrics(3))
		_, ok := cache.Get(ctx, owner, dashboardNow)
		assert.False(t, ok)
		assert.Error(t, cache.Invalidate(ctx, owner))
	})
}

func TestDashboardMetricsFlow_RedisCacheHitKeepsItsWindow(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.appts = []*models.Appointment{
		{OwnerID: owner, Title: "viewing", StartTime: dashboardNow.Add(20 * time.Second), CreatedAt: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	cache, _ := newRedisCache(t, time.Minute)
	flow := newDashboardFlow(store, cache)

	first, err := flow.GetDashboardMetrics(ctx, owner, dashboardNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Appointments.Upcoming)
	assert.Equal(t, int64(0), first.Appointments.CompletedEstimate)

	t.Run("HitDescribesItsOwnInstant", func(t *testing.T) {
		hit, err := flow.GetDashboardMetrics(ctx, owner, dashboardNow.Add(40*time.Second))
		require.NoError(t, err)

		assert.True(t, hit.Window.Now.Equal(dashboardNow))
		assert.True(t, hit.GeneratedAt.Equal(first.GeneratedAt))
		assert.Equal(t, first.Appointments, hit.Appointments)
		assert.Equal(t, computeAppointmentMetrics(store.appts, hit.Window), hit.Appointments)
	})

	t.Run("NextBucketRecomputes", func(t *testing.T) {
		later := dashboardNow.Add(65 * time.Second)
		fresh, err := flow.GetDashboardMetrics(ctx, owner, later)
		require.NoError(t, err)

		assert.True(t, fresh.Window.Now.Equal(later))
		assert.Equal(t, int64(0), fresh.Appointments.Upcoming)
		assert.Equal(t, int64(1), fresh.Appointments.CompletedEstimate)
	})
}

func TestDashboardMetricsFlow_CachedEntryFromOtherMonthIsIgnored(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	seedDashboard(store)
	cache := newMemoryCache()
	flow := newDashboardFlow(store, cache)

	endOfMarch := time.Date(2025, 3, 31, 23, 59, 50, 0, time.UTC)
	_, err := flow.GetDashboardMetrics(ctx, owner, endOfMarch)
	require.NoError(t, err)

	april, err := flow.GetDashboardMetrics(ctx, owner, endOfMarch.Add(20*time.Second))
	require.NoError(t, err)

	assert.Equal(t, 2, cache.sets)
	assert.True(t, april.Window.StartOfMonth.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
}

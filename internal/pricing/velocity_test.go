package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestWeightedClusterRate(t *testing.T) {
	band := models.PriceBand{Min: 500, Max: 1000}

	t.Run("weights faster sellers heavier by units", func(t *testing.T) {
		peers := []models.PeerSale{
			{Codigo: "A", Unidades: 100, DiasActivos: 50, PrecioLista: fptr(800)},
			{Codigo: "B", Unidades: 20, DiasActivos: 20, PrecioLista: fptr(600)},
		}
		// rates 2.0 and 1.0, weights 100 and 20: (2*100 + 1*20) / 120
		rate := WeightedClusterRate(peers, band, WeightByUnits)
		assert.InDelta(t, 1.8333333333, rate, 1e-9)
	})

	t.Run("weighting by active days", func(t *testing.T) {
		peers := []models.PeerSale{
			{Codigo: "A", Unidades: 100, DiasActivos: 50, PrecioLista: fptr(800)},
			{Codigo: "B", Unidades: 20, DiasActivos: 20, PrecioLista: fptr(600)},
		}
		// same rates, weights 50 and 20: (2*50 + 1*20) / 70
		rate := WeightedClusterRate(peers, band, WeightByDays)
		assert.InDelta(t, 120.0/70.0, rate, 1e-9)
	})

	t.Run("peers outside the band are excluded", func(t *testing.T) {
		peers := []models.PeerSale{
			{Codigo: "A", Unidades: 28, DiasActivos: 14, PrecioLista: fptr(800)},
			{Codigo: "B", Unidades: 140, DiasActivos: 14, PrecioLista: fptr(3000)},
		}
		rate := WeightedClusterRate(peers, band, WeightByUnits)
		assert.InDelta(t, 2.0, rate, 1e-9)
	})

	t.Run("peer without a list price is always included", func(t *testing.T) {
		peers := []models.PeerSale{
			{Codigo: "A", Unidades: 14, DiasActivos: 14},
		}
		rate := WeightedClusterRate(peers, band, WeightByUnits)
		assert.InDelta(t, 1.0, rate, 1e-9)
	})

	t.Run("zero when no peer sold anything", func(t *testing.T) {
		peers := []models.PeerSale{
			{Codigo: "A", Unidades: 0, DiasActivos: 0, PrecioLista: fptr(800)},
			{Codigo: "B", Unidades: 0, DiasActivos: 0, PrecioLista: fptr(600)},
		}
		assert.Zero(t, WeightedClusterRate(peers, band, WeightByUnits))
		assert.Zero(t, WeightedClusterRate(nil, band, WeightByUnits))
	})
}

func TestNewClusterKey(t *testing.T) {
	k1 := NewClusterKey(1, 2, 3, 799, 500)
	k2 := NewClusterKey(1, 2, 3, 501, 500)
	k3 := NewClusterKey(1, 2, 3, 1001, 500)

	assert.Equal(t, k1, k2, "prices in the same bucket share a key")
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, int64(500), k1.PriceBucket)

	// A non-positive bucket size degrades to unit buckets, never panics.
	k4 := NewClusterKey(1, 2, 3, 799, 0)
	assert.Equal(t, int64(799), k4.PriceBucket)
}

func TestVelocityCacheMemoizes(t *testing.T) {
	cache := NewVelocityCache()
	key := NewClusterKey(1, 2, 3, 750, 500)

	calls := 0
	fetch := func(ctx context.Context) (float64, error) {
		calls++
		return 1.5, nil
	}

	for i := 0; i < 3; i++ {
		rate, err := cache.Rate(context.Background(), key, fetch)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, rate, 1e-9)
	}
	assert.Equal(t, 1, calls, "fetch runs once per distinct key")
	assert.Equal(t, 1, cache.Len())

	_, err := cache.Rate(context.Background(), NewClusterKey(9, 9, 9, 100, 500), fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, cache.Len())
}

func TestVelocityCacheDoesNotCacheErrors(t *testing.T) {
	cache := NewVelocityCache()
	key := NewClusterKey(1, 2, 3, 750, 500)

	boom := errors.New("peers unavailable")
	_, err := cache.Rate(context.Background(), key, func(ctx context.Context) (float64, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, cache.Len())

	rate, err := cache.Rate(context.Background(), key, func(ctx context.Context) (float64, error) {
		return 2.0, nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rate, 1e-9)
}

func TestVelocityCacheConcurrentAccess(t *testing.T) {
	cache := NewVelocityCache()
	key := NewClusterKey(1, 2, 3, 750, 500)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rate, err := cache.Rate(context.Background(), key, func(ctx context.Context) (float64, error) {
				return 1.25, nil
			})
			assert.NoError(t, err)
			assert.InDelta(t, 1.25, rate, 1e-9)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

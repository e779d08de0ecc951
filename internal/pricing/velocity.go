package pricing

import (
	"context"
	"math"
	"sync"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

// Weighting selects how peer rates are combined into the cluster rate.
type Weighting string

const (
	// WeightByUnits weights each peer's rate by its units sold.
	WeightByUnits Weighting = "by_units"
	// WeightByDays weights each peer's rate by its active sale days.
	WeightByDays Weighting = "by_days"
)

// WeightedClusterRate computes the peer-group sale rate for a cluster.
// Each peer's own rate is its units over its active sale days. A peer
// without a list price is always included; priced peers must fall inside
// the band. Only peers with rate > 0 carry weight; with no qualifying peer
// the rate is 0.
func WeightedClusterRate(peers []models.PeerSale, band models.PriceBand, weighting Weighting) float64 {
	var sumWeighted, sumWeights float64
	for _, p := range peers {
		if p.PrecioLista != nil && !band.Contains(*p.PrecioLista) {
			continue
		}
		if p.DiasActivos <= 0 {
			continue
		}
		rate := float64(p.Unidades) / float64(p.DiasActivos)
		if rate <= 0 {
			continue
		}

		var w float64
		switch weighting {
		case WeightByDays:
			w = float64(p.DiasActivos)
		default:
			w = float64(p.Unidades)
		}
		if w <= 0 {
			continue
		}
		sumWeighted += rate * w
		sumWeights += w
	}

	if sumWeights == 0 {
		return 0
	}
	return sumWeighted / sumWeights
}

// ClusterKey memoizes a cluster's rate per job run. Price is bucketed so
// nearby prices share an entry.
type ClusterKey struct {
	CategoryID  int64
	GenderID    int64
	BrandID     int64
	PriceBucket int64
}

// NewClusterKey buckets price down to the given bucket size.
func NewClusterKey(categoryID, genderID, brandID int64, price, bucketSize float64) ClusterKey {
	if bucketSize <= 0 {
		bucketSize = 1
	}
	return ClusterKey{
		CategoryID:  categoryID,
		GenderID:    genderID,
		BrandID:     brandID,
		PriceBucket: int64(math.Floor(price/bucketSize) * bucketSize),
	}
}

// VelocityCache memoizes cluster rates for exactly one job execution.
// It is safe for the batch fan-out: concurrent candidates may race on the
// same key, in which case both compute the identical value and the second
// write is a no-op. Never share an instance across job runs.
type VelocityCache struct {
	mu    sync.Mutex
	rates map[ClusterKey]float64
}

// NewVelocityCache creates an empty per-run cache.
func NewVelocityCache() *VelocityCache {
	return &VelocityCache{rates: make(map[ClusterKey]float64)}
}

// Rate returns the memoized rate for key, calling fetch on a miss.
func (c *VelocityCache) Rate(ctx context.Context, key ClusterKey, fetch func(ctx context.Context) (float64, error)) (float64, error) {
	c.mu.Lock()
	if rate, ok := c.rates[key]; ok {
		c.mu.Unlock()
		return rate, nil
	}
	c.mu.Unlock()

	rate, err := fetch(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.rates[key] = rate
	c.mu.Unlock()
	return rate, nil
}

// Len reports how many clusters have been resolved so far.
func (c *VelocityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rates)
}

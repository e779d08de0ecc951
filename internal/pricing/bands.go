// Package pricing implements the pricing-intelligence engine: price bands,
// cluster identification, peer velocity, product metrics, elasticity,
// simulation, underperformance rules and the watchlist score. Everything in
// this package is a pure function of its inputs except the job-scoped
// velocity cache.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

// ErrInvalidBandSet marks a misconfigured price-band set.
var ErrInvalidBandSet = errors.New("invalid price band set")

// DefaultBands is the hard-coded fallback used whenever the configured set
// is missing or invalid. Configuration problems degrade, they never fail.
func DefaultBands() []models.PriceBand {
	return []models.PriceBand{
		{Min: 0, Max: 500},
		{Min: 500, Max: 1000},
		{Min: 1000, Max: 2000},
		{Min: 2000, Max: 5000},
		{Min: 5000, Max: 10000},
	}
}

// ValidateBands checks a band set: every band needs Min >= 0 and Max > Min,
// and sorted by Min no band may reach into the next one.
func ValidateBands(bands []models.PriceBand) error {
	for _, b := range bands {
		if b.Min < 0 {
			return fmt.Errorf("%w: band %s has negative min", ErrInvalidBandSet, b.Label())
		}
		if !b.Open && b.Max <= b.Min {
			return fmt.Errorf("%w: band %s has max <= min", ErrInvalidBandSet, b.Label())
		}
	}

	sorted := make([]models.PriceBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	// Touching boundaries (max == next min) are fine; a shared boundary
	// price resolves to the lower band.
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].Open || sorted[i].Max > sorted[i+1].Min {
			return fmt.Errorf("%w: bands %s and %s overlap", ErrInvalidBandSet, sorted[i].Label(), sorted[i+1].Label())
		}
	}
	return nil
}

// ResolveBand maps a price onto its band. Prices above the last band's max
// land in an open "max+" bucket; an empty set yields the unknown band.
// The set is assumed valid (see ValidateBands).
func ResolveBand(price float64, bands []models.PriceBand) models.PriceBand {
	if len(bands) == 0 {
		return models.PriceBand{}
	}

	sorted := make([]models.PriceBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	for _, b := range sorted {
		if b.Contains(price) {
			return b
		}
	}

	last := sorted[len(sorted)-1]
	if price > last.Max {
		return models.PriceBand{Min: last.Max, Open: true}
	}
	// Below the first band's min: clamp into the first band.
	return sorted[0]
}

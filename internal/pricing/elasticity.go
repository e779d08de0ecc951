package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

// Observation acceptance bounds: per-observation elasticities outside
// [-5, 1] are treated as noise and discarded.
const (
	elasticityFloor = -5.0
	elasticityCeil  = 1.0

	// Price deltas of 1% or less carry no usable signal.
	minPriceDeltaPct = 0.01

	obsForAlta  = 20
	obsForMedia = 10
)

// EstimateParams configures the elasticity estimator.
type EstimateParams struct {
	// Fallback replaces the computed mean when confidence is "baja".
	Fallback float64
}

// EstimateElasticity derives a cluster's price elasticity from monthly
// (avg price, units) series of its peer SKUs. Pure function of its inputs.
//
// For every pair of calendar-consecutive months of the same SKU where the
// prior month has price > 0 and units > 0 and the price moved more than 1%,
// one observation %Δunits/%Δprice is taken; observations outside [-5, 1]
// are dropped. The estimate is the arithmetic mean of what remains.
// Fewer than 10 accepted observations grade "baja" and the value is
// replaced by the conservative fallback with a warning; a low-confidence
// mean is never surfaced.
func EstimateElasticity(series []models.MonthlyPoint, p EstimateParams) models.ElasticityInfo {
	bySKU := make(map[string][]models.MonthlyPoint)
	for _, pt := range series {
		bySKU[pt.Codigo] = append(bySKU[pt.Codigo], pt)
	}

	var accepted []float64
	for _, points := range bySKU {
		sort.Slice(points, func(i, j int) bool { return points[i].Month < points[j].Month })

		for i := 0; i+1 < len(points); i++ {
			prev, curr := points[i], points[i+1]
			if !consecutiveMonths(prev.Month, curr.Month) {
				continue
			}
			if prev.AvgPrice <= 0 || prev.Unidades <= 0 {
				continue
			}

			priceDelta := (curr.AvgPrice - prev.AvgPrice) / prev.AvgPrice
			if priceDelta > -minPriceDeltaPct && priceDelta < minPriceDeltaPct {
				continue
			}
			unitsDelta := float64(curr.Unidades-prev.Unidades) / float64(prev.Unidades)

			e := unitsDelta / priceDelta
			if e < elasticityFloor || e > elasticityCeil {
				continue
			}
			accepted = append(accepted, e)
		}
	}

	n := len(accepted)
	switch {
	case n >= obsForAlta:
		return models.ElasticityInfo{
			Value:        mean(accepted),
			Confidence:   models.ConfidenceAlta,
			Observations: n,
			Method:       models.ElasticityMethodMonthlyDeltas,
		}
	case n >= obsForMedia:
		return models.ElasticityInfo{
			Value:        mean(accepted),
			Confidence:   models.ConfidenceMedia,
			Observations: n,
			Method:       models.ElasticityMethodMonthlyDeltas,
		}
	default:
		return models.ElasticityInfo{
			Value:        p.Fallback,
			Confidence:   models.ConfidenceBaja,
			Observations: n,
			Method:       models.ElasticityMethodFallback,
			Warning:      fmt.Sprintf("solo %d observaciones; se usa elasticidad conservadora %.2f", n, p.Fallback),
		}
	}
}

func consecutiveMonths(prev, curr string) bool {
	t, err := time.Parse("2006-01", prev)
	if err != nil {
		return false
	}
	return t.AddDate(0, 1, 0).Format("2006-01") == curr
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

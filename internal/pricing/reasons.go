package pricing

import (
	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/internal/settings"
)

// Underperformance reasons. A product may match several at once; one with
// no match never enters the watchlist.
const (
	ReasonRitmoLento     = "ritmo_lento"
	ReasonDesaceleracion = "desaceleracion"
	ReasonSobrestock     = "sobrestock"
	ReasonSinTraccion    = "sin_traccion"
)

// Fixed rule constants. These are part of the rule definitions, not
// operator-tunable thresholds.
const (
	ritmoLentoIndice      = 0.7
	ritmoLentoClusterFrac = 0.6
	desaceleracionIndice  = 0.8
)

// ClassifyReasons evaluates the four underperformance rules independently
// and returns every one that fires.
func ClassifyReasons(c models.ProductCandidate, v models.VelocityMetrics, s models.StockMetrics, t settings.Thresholds) []string {
	var reasons []string

	// Slow against peers, once the product has had time to establish itself.
	if s.DiasDesdePrimeraVenta >= t.EarlyDays &&
		(v.IndiceRitmo < ritmoLentoIndice || v.RitmoActual < ritmoLentoClusterFrac*v.RitmoCluster) {
		reasons = append(reasons, ReasonRitmoLento)
	}

	// Decelerating against its own lifetime rate with stock still to move.
	if v.IndiceDesaceleracion < t.Desaceleracion && c.StockTotal > 0 &&
		((s.DiasStock != nil && *s.DiasStock > t.StockAlertDays) || v.IndiceRitmo < desaceleracionIndice) {
		reasons = append(reasons, ReasonDesaceleracion)
	}

	// More days of stock than days left in the sale cycle.
	if s.DiasStock != nil && s.DiasRestantesCiclo > 0 && *s.DiasStock > s.DiasRestantesCiclo {
		reasons = append(reasons, ReasonSobrestock)
	}

	// Nothing sold in two weeks while stock sits.
	if c.Unidades14 == 0 && c.StockTotal > 0 {
		reasons = append(reasons, ReasonSinTraccion)
	}

	return reasons
}

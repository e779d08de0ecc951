package pricing

import (
	"time"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

// SnapWindow snaps a requested velocity window to the nearest of the
// trailing windows candidates actually carry (7, 14, 28 days).
func SnapWindow(days int) int {
	switch {
	case days <= 0:
		return 14
	case days <= 10:
		return 7
	case days <= 21:
		return 14
	default:
		return 28
	}
}

// RitmoActual is the product's own sale rate in units/day over the snapped
// trailing window.
func RitmoActual(c models.ProductCandidate, windowDays int) float64 {
	w := SnapWindow(windowDays)
	var units int
	switch w {
	case 7:
		units = c.Unidades7
	case 28:
		units = c.Unidades28
	default:
		units = c.Unidades14
	}
	return float64(units) / float64(w)
}

// DaysSinceFirstSale counts whole days since the product first sold.
// No first sale recorded means 0.
func DaysSinceFirstSale(c models.ProductCandidate, now time.Time) int {
	if c.PrimeraVenta == nil || c.PrimeraVenta.After(now) {
		return 0
	}
	return int(now.Sub(*c.PrimeraVenta).Hours() / 24)
}

// Velocity derives the velocity metrics for a candidate against its
// cluster rate. IndiceRitmo is 0 whenever the cluster rate is 0 so a dead
// cluster never produces NaN or Inf.
func Velocity(c models.ProductCandidate, clusterRate float64, windowDays int, now time.Time) models.VelocityMetrics {
	actual := RitmoActual(c, windowDays)

	var indice float64
	if clusterRate > 0 {
		indice = actual / clusterRate
	}

	var desaceleracion float64
	days := DaysSinceFirstSale(c, now)
	if days < 1 {
		days = 1
	}
	lifetime := float64(c.UnidadesHistoricas) / float64(days)
	if lifetime > 0 {
		desaceleracion = actual / lifetime
	}

	return models.VelocityMetrics{
		RitmoActual:          actual,
		RitmoCluster:         clusterRate,
		IndiceRitmo:          indice,
		IndiceDesaceleracion: desaceleracion,
	}
}

// StockHorizon derives the stock metrics. DiasStock stays nil when the
// product is not currently selling: the horizon is unknown, not infinite.
func StockHorizon(c models.ProductCandidate, ritmoActual float64, cycleDays int, now time.Time) models.StockMetrics {
	m := models.StockMetrics{
		DiasDesdePrimeraVenta: DaysSinceFirstSale(c, now),
	}

	if ritmoActual > 0 {
		dias := float64(c.StockTotal) / ritmoActual
		m.DiasStock = &dias
	}

	restantes := float64(cycleDays - m.DiasDesdePrimeraVenta)
	if restantes < 0 {
		restantes = 0
	}
	m.DiasRestantesCiclo = restantes
	return m
}

// MargenPct is the percentage margin at the current price, 0 when the
// price is not positive.
func MargenPct(precio, costo float64) float64 {
	if precio <= 0 {
		return 0
	}
	return (precio - costo) / precio * 100
}

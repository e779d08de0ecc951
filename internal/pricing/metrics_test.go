package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

func TestSnapWindow(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 14},
		{-3, 14},
		{7, 7},
		{10, 7},
		{11, 14},
		{14, 14},
		{21, 14},
		{22, 28},
		{28, 28},
		{90, 28},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SnapWindow(tt.in), "SnapWindow(%d)", tt.in)
	}
}

func TestRitmoActualUsesSnappedWindow(t *testing.T) {
	c := models.ProductCandidate{Unidades7: 7, Unidades14: 28, Unidades28: 28}

	assert.InDelta(t, 1.0, RitmoActual(c, 7), 1e-9)
	assert.InDelta(t, 2.0, RitmoActual(c, 14), 1e-9)
	assert.InDelta(t, 1.0, RitmoActual(c, 28), 1e-9)
}

func TestVelocityIndiceIsAlwaysFinite(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	first := now.AddDate(0, 0, -30)
	c := models.ProductCandidate{
		Unidades14:         14,
		UnidadesHistoricas: 60,
		PrimeraVenta:       &first,
	}

	t.Run("normal cluster", func(t *testing.T) {
		v := Velocity(c, 2.0, 14, now)
		assert.InDelta(t, 1.0, v.RitmoActual, 1e-9)
		assert.InDelta(t, 0.5, v.IndiceRitmo, 1e-9)
		// lifetime rate 60/30 = 2, actual 1
		assert.InDelta(t, 0.5, v.IndiceDesaceleracion, 1e-9)
	})

	t.Run("dead cluster yields index zero, not Inf", func(t *testing.T) {
		v := Velocity(c, 0, 14, now)
		assert.Zero(t, v.IndiceRitmo)
		assert.False(t, v.IndiceRitmo < 0)
	})

	t.Run("no first sale floors the lifetime at one day", func(t *testing.T) {
		noSale := models.ProductCandidate{Unidades14: 0, UnidadesHistoricas: 0}
		v := Velocity(noSale, 1.0, 14, now)
		assert.Zero(t, v.IndiceDesaceleracion)
	})
}

func TestStockHorizon(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	first := now.AddDate(0, 0, -20)

	t.Run("selling product gets a finite horizon", func(t *testing.T) {
		c := models.ProductCandidate{StockTotal: 60, PrimeraVenta: &first}
		m := StockHorizon(c, 2.0, 56, now)
		require.NotNil(t, m.DiasStock)
		assert.InDelta(t, 30.0, *m.DiasStock, 1e-9)
		assert.InDelta(t, 36.0, m.DiasRestantesCiclo, 1e-9)
		assert.Equal(t, 20, m.DiasDesdePrimeraVenta)
	})

	t.Run("no velocity means unknown horizon, not infinite", func(t *testing.T) {
		c := models.ProductCandidate{StockTotal: 60, PrimeraVenta: &first}
		m := StockHorizon(c, 0, 56, now)
		assert.Nil(t, m.DiasStock)
	})

	t.Run("cycle already over floors remaining days at zero", func(t *testing.T) {
		old := now.AddDate(0, 0, -90)
		c := models.ProductCandidate{StockTotal: 10, PrimeraVenta: &old}
		m := StockHorizon(c, 1.0, 56, now)
		assert.Zero(t, m.DiasRestantesCiclo)
	})
}

func TestMargenPct(t *testing.T) {
	assert.InDelta(t, 50.0, MargenPct(100, 50), 1e-9)
	assert.InDelta(t, -20.0, MargenPct(100, 120), 1e-9)
	assert.Zero(t, MargenPct(0, 50))
}

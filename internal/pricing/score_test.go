package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

func TestScoreRateSeverityTiers(t *testing.T) {
	th := defaultThresholds() // critico 0.6, bajo 0.9

	tests := []struct {
		name   string
		indice float64
		want   int
	}{
		{"critical rate", 0.5, 40},
		{"low rate", 0.7, 25},
		{"slightly below cluster", 0.95, 10},
		{"at or above cluster", 1.1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := models.VelocityMetrics{IndiceRitmo: tt.indice}
			got, _ := Score(v, models.StockMetrics{}, 0, 0, th)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreStockPressureTiers(t *testing.T) {
	th := defaultThresholds()
	v := models.VelocityMetrics{IndiceRitmo: 1.5} // no rate contribution

	stock := func(dias, restantes float64) models.StockMetrics {
		return models.StockMetrics{DiasStock: &dias, DiasRestantesCiclo: restantes}
	}

	got, _ := Score(v, stock(90, 40), 0, 0, th) // ratio 2.25
	assert.Equal(t, 30, got)

	got, _ = Score(v, stock(64, 40), 0, 0, th) // ratio 1.6
	assert.Equal(t, 20, got)

	got, _ = Score(v, stock(48, 40), 0, 0, th) // ratio 1.2
	assert.Equal(t, 10, got)

	got, _ = Score(v, stock(30, 40), 0, 0, th) // stock fits the cycle
	assert.Zero(t, got)

	// Unknown cycle but stock beyond the alert horizon.
	noCycle := models.StockMetrics{DiasStock: fptr(60)}
	got, _ = Score(v, noCycle, 0, 0, th)
	assert.Equal(t, 15, got)

	// Unknown horizon contributes nothing.
	got, _ = Score(v, models.StockMetrics{}, 0, 0, th)
	assert.Zero(t, got)
}

func TestScoreMarginAndCapitalTiers(t *testing.T) {
	th := defaultThresholds()
	v := models.VelocityMetrics{IndiceRitmo: 1.5}

	got, _ := Score(v, models.StockMetrics{}, 60, 0, th)
	assert.Equal(t, 20, got)
	got, _ = Score(v, models.StockMetrics{}, 35, 0, th)
	assert.Equal(t, 12, got)
	got, _ = Score(v, models.StockMetrics{}, 20, 0, th)
	assert.Equal(t, 6, got)
	got, _ = Score(v, models.StockMetrics{}, 10, 0, th)
	assert.Zero(t, got)

	got, _ = Score(v, models.StockMetrics{}, 0, 150, th)
	assert.Equal(t, 10, got)
	got, _ = Score(v, models.StockMetrics{}, 0, 60, th)
	assert.Equal(t, 6, got)
	got, _ = Score(v, models.StockMetrics{}, 0, 25, th)
	assert.Equal(t, 3, got)
	got, _ = Score(v, models.StockMetrics{}, 0, 20, th)
	assert.Zero(t, got)
}

func TestScoreWorstCaseStaysWithinBounds(t *testing.T) {
	th := defaultThresholds()
	dias := 200.0
	v := models.VelocityMetrics{IndiceRitmo: 0.1}
	s := models.StockMetrics{DiasStock: &dias, DiasRestantesCiclo: 30}

	got, explanation := Score(v, s, 60, 150, th)
	assert.Equal(t, 100, got)
	assert.NotEmpty(t, explanation)
}

func TestScoreExplanationNamesNotableComponents(t *testing.T) {
	th := defaultThresholds()
	v := models.VelocityMetrics{IndiceRitmo: 0.5}

	_, explanation := Score(v, models.StockMetrics{}, 60, 150, th)
	assert.Contains(t, explanation, "ritmo critico")
	assert.Contains(t, explanation, "margen alto")
	assert.Contains(t, explanation, "unidades inmovilizadas")

	// Lowest-tier contributions stay out of the explanation.
	v = models.VelocityMetrics{IndiceRitmo: 0.95}
	_, explanation = Score(v, models.StockMetrics{}, 20, 25, th)
	assert.Empty(t, explanation)
}

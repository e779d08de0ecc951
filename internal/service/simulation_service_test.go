package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/internal/pricing"
	"github.com/ncastellan/pricewatch-backend-go/pkg/logger"
)

type fakeProducts struct {
	candidate *models.ProductCandidate
	fetchErr  error
	series    []models.MonthlyPoint
	seriesErr error
}

func (f *fakeProducts) FetchCandidateByCode(context.Context, string, time.Time) (*models.ProductCandidate, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.candidate, nil
}

func (f *fakeProducts) ClusterNames(context.Context, int64, int64, int64) (models.ClusterNames, error) {
	return models.ClusterNames{CategoryName: "Zapatillas", GenderName: "Mujer", BrandName: "Acme"}, nil
}

func (f *fakeProducts) MonthlySeries(context.Context, int64, int64, int64, models.PriceBand, time.Time) ([]models.MonthlyPoint, error) {
	if f.seriesErr != nil {
		return nil, f.seriesErr
	}
	return f.series, nil
}

func simCandidate() *models.ProductCandidate {
	return &models.ProductCandidate{
		Codigo:        "ZAP-001",
		Nombre:        "Zapatilla urbana",
		CategoryID:    3,
		GenderID:      1,
		BrandID:       7,
		PrecioActual:  100,
		CostoUnitario: 50,
		StockTotal:    50,
		Unidades14:    28, // 2 units/day
	}
}

func TestSimulateUsesCatalogPriceWhenOmitted(t *testing.T) {
	products := &fakeProducts{candidate: simCandidate()}
	svc := NewSimulationService(products, testProvider(), logger.NewNop())

	e := -1.5
	res, err := svc.Simulate(context.Background(), models.SimulationRequest{
		Codigo:          "ZAP-001",
		PrecioPropuesto: 80,
		HorizonteDias:   30,
		Elasticity:      &e,
	})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, res.PrecioActual, 1e-9)
	assert.InDelta(t, 2.6, res.RitmoProyectado, 1e-9)
	assert.InDelta(t, 50.0, res.UnidadesConTope, 1e-9)
	assert.InDelta(t, 1000.0, res.CostoCastigo, 1e-9)
	assert.Equal(t, models.ElasticityMethodManual, res.Elasticity.Method)
	assert.Equal(t, models.ConfidenceAlta, res.Elasticity.Confidence)
}

func TestSimulateEstimatesElasticityFromSeries(t *testing.T) {
	var series []models.MonthlyPoint
	for i := 0; i < 20; i++ {
		code := string(rune('A' + i))
		series = append(series,
			models.MonthlyPoint{Codigo: code, Month: "2026-03", AvgPrice: 100, Unidades: 100},
			models.MonthlyPoint{Codigo: code, Month: "2026-04", AvgPrice: 90, Unidades: 120},
		)
	}
	products := &fakeProducts{candidate: simCandidate(), series: series}
	svc := NewSimulationService(products, testProvider(), logger.NewNop())

	res, err := svc.Simulate(context.Background(), models.SimulationRequest{
		Codigo:          "ZAP-001",
		PrecioPropuesto: 90,
		HorizonteDias:   30,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ElasticityMethodMonthlyDeltas, res.Elasticity.Method)
	assert.Equal(t, models.ConfidenceAlta, res.Elasticity.Confidence)
	assert.InDelta(t, -2.0, res.Elasticity.Value, 1e-9)
	assert.NotContains(t, res.Warnings, models.WarningConfianzaBaja)
}

func TestSimulateDegradesWhenSeriesUnavailable(t *testing.T) {
	products := &fakeProducts{candidate: simCandidate(), seriesErr: errors.New("query timeout")}
	svc := NewSimulationService(products, testProvider(), logger.NewNop())

	res, err := svc.Simulate(context.Background(), models.SimulationRequest{
		Codigo:          "ZAP-001",
		PrecioPropuesto: 90,
		HorizonteDias:   30,
	})
	require.NoError(t, err, "a missing series degrades, it never fails the request")

	assert.Equal(t, models.ElasticityMethodFallback, res.Elasticity.Method)
	assert.Equal(t, models.ConfidenceBaja, res.Elasticity.Confidence)
	assert.InDelta(t, -1.0, res.Elasticity.Value, 1e-9)
	assert.Contains(t, res.Warnings, models.WarningConfianzaBaja)
}

func TestSimulatePropagatesLookupAndInputErrors(t *testing.T) {
	t.Run("unknown product", func(t *testing.T) {
		boom := errors.New("product not found")
		svc := NewSimulationService(&fakeProducts{fetchErr: boom}, testProvider(), logger.NewNop())
		_, err := svc.Simulate(context.Background(), models.SimulationRequest{
			Codigo: "NOPE", PrecioPropuesto: 90, HorizonteDias: 30,
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("missing horizon", func(t *testing.T) {
		svc := NewSimulationService(&fakeProducts{candidate: simCandidate()}, testProvider(), logger.NewNop())
		_, err := svc.Simulate(context.Background(), models.SimulationRequest{
			Codigo: "ZAP-001", PrecioPropuesto: 90,
		})
		assert.ErrorIs(t, err, pricing.ErrMissingInput)
	})
}

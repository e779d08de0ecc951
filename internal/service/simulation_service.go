package service

import (
	"context"
	"time"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/internal/pricing"
	"github.com/ncastellan/pricewatch-backend-go/internal/settings"
	"github.com/ncastellan/pricewatch-backend-go/pkg/logger"
)

// ProductSource is what the simulation path needs from the data
// collaborator: one product's aggregate, its cluster's monthly series and
// the catalog names.
type ProductSource interface {
	FetchCandidateByCode(ctx context.Context, codigo string, windowEnd time.Time) (*models.ProductCandidate, error)
	ClusterNames(ctx context.Context, categoryID, genderID, brandID int64) (models.ClusterNames, error)
	MonthlySeries(ctx context.Context, categoryID, genderID, brandID int64, band models.PriceBand, since time.Time) ([]models.MonthlyPoint, error)
}

// SimulationService runs the on-demand price-change simulation path,
// outside any batch job.
type SimulationService struct {
	products ProductSource
	settings settings.Provider
	log      logger.Logger
	now      func() time.Time
}

// NewSimulationService creates the service.
func NewSimulationService(products ProductSource, provider settings.Provider, log logger.Logger) *SimulationService {
	return &SimulationService{
		products: products,
		settings: provider,
		log:      log,
		now:      time.Now,
	}
}

// Simulate projects a price change for one product. The elasticity comes
// from the cluster's monthly series unless the caller supplied a value;
// a thin series degrades to the conservative fallback with a warning,
// never to an error.
func (s *SimulationService) Simulate(ctx context.Context, req models.SimulationRequest) (*models.SimulationResult, error) {
	now := s.now()
	th := settings.LoadThresholds(ctx, s.settings)

	c, err := s.products.FetchCandidateByCode(ctx, req.Codigo, now)
	if err != nil {
		return nil, err
	}

	currentPrice := req.PrecioActual
	if currentPrice <= 0 {
		currentPrice = c.PrecioActual
	}

	identifier := pricing.NewIdentifier(s.settings, s.products, s.log)
	cluster := identifier.Identify(ctx, c.CategoryID, c.GenderID, c.BrandID, currentPrice, 0)

	var elasticity models.ElasticityInfo
	if req.Elasticity != nil {
		elasticity = models.ElasticityInfo{
			Value:      *req.Elasticity,
			Confidence: models.ConfidenceAlta,
			Method:     models.ElasticityMethodManual,
		}
	} else {
		since := now.AddDate(0, -th.ElasticityLookback, 0)
		series, err := s.products.MonthlySeries(ctx, c.CategoryID, c.GenderID, c.BrandID, cluster.Band, since)
		if err != nil {
			// Degrade like a thin series would; the simulator warns.
			s.log.Warnf(ctx, "monthly series for %s unavailable, using fallback elasticity: %v", req.Codigo, err)
			series = nil
		}
		elasticity = pricing.EstimateElasticity(series, pricing.EstimateParams{Fallback: th.ElasticityFallback})
	}

	result, err := pricing.Simulate(pricing.SimulationInput{
		Codigo:        c.Codigo,
		CurrentPrice:  currentPrice,
		ProposedPrice: req.PrecioPropuesto,
		HorizonDays:   req.HorizonteDias,
		Velocity:      pricing.RitmoActual(*c, th.RitmoVentanaDias),
		StockTotal:    c.StockTotal,
		UnitCost:      c.CostoUnitario,
		Elasticity:    elasticity,
		MinMarginPct:  th.MinMarginPct,
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof(ctx, "simulated %s: %0.2f -> %0.2f over %dd, margen total %0.2f",
		c.Codigo, currentPrice, req.PrecioPropuesto, req.HorizonteDias, result.MargenTotal)
	return result, nil
}

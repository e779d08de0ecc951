package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

// ErrMissingInput marks a simulation request lacking a required input.
// Only genuinely missing inputs (price, cost, stock, horizon) hard-fail;
// a weak elasticity estimate degrades with a warning instead.
var ErrMissingInput = errors.New("missing simulation input")

// SimulationInput carries everything the simulator needs, already resolved.
type SimulationInput struct {
	Codigo        string
	CurrentPrice  float64
	ProposedPrice float64
	HorizonDays   int
	Velocity      float64 // units/day at the current price
	StockTotal    int
	UnitCost      float64
	Elasticity    models.ElasticityInfo
	// MinMarginPct enables the break-even price when > 0.
	MinMarginPct float64
}

// Simulate projects the effect of moving Codigo from CurrentPrice to
// ProposedPrice over HorizonDays. Deterministic: identical inputs produce
// identical outputs. Money outputs are rounded to cents.
func Simulate(in SimulationInput) (*models.SimulationResult, error) {
	switch {
	case in.CurrentPrice <= 0:
		return nil, fmt.Errorf("%w: precio actual", ErrMissingInput)
	case in.ProposedPrice <= 0:
		return nil, fmt.Errorf("%w: precio propuesto", ErrMissingInput)
	case in.HorizonDays <= 0:
		return nil, fmt.Errorf("%w: horizonte", ErrMissingInput)
	case in.StockTotal < 0:
		return nil, fmt.Errorf("%w: stock", ErrMissingInput)
	case in.UnitCost <= 0:
		return nil, fmt.Errorf("%w: costo unitario", ErrMissingInput)
	}

	priceDelta := (in.ProposedPrice - in.CurrentPrice) / in.CurrentPrice

	projectedRate := in.Velocity * (1 + in.Elasticity.Value*priceDelta)
	if projectedRate < 0 {
		projectedRate = 0 // demand never goes negative
	}

	unitsUncapped := projectedRate * float64(in.HorizonDays)
	unitsCapped := unitsUncapped
	if unitsCapped > float64(in.StockTotal) {
		unitsCapped = float64(in.StockTotal)
	}

	unitMargin := in.ProposedPrice - in.UnitCost

	var sellOut float64
	if in.StockTotal > 0 {
		sellOut = unitsCapped / float64(in.StockTotal) * 100
	}

	result := &models.SimulationResult{
		Codigo:          in.Codigo,
		PrecioActual:    in.CurrentPrice,
		PrecioPropuesto: in.ProposedPrice,
		HorizonteDias:   in.HorizonDays,
		Elasticity:      in.Elasticity,

		RitmoProyectado:   projectedRate,
		UnidadesSinTope:   unitsUncapped,
		UnidadesConTope:   unitsCapped,
		IngresoProyectado: roundMoney(in.ProposedPrice * unitsCapped),
		MargenUnitario:    roundMoney(unitMargin),
		MargenTotal:       roundMoney(unitMargin * unitsCapped),
		CostoCastigo:      roundMoney((in.CurrentPrice - in.ProposedPrice) * unitsCapped),
		SellOutPct:        sellOut,
	}

	if in.MinMarginPct > 0 && in.MinMarginPct < 100 {
		be := roundMoney(in.UnitCost / (1 - in.MinMarginPct/100))
		result.PrecioBreakEven = &be
	}

	if unitMargin < 0 {
		result.Warnings = append(result.Warnings, models.WarningMargenNegativo)
	}
	if in.Elasticity.Confidence == models.ConfidenceBaja {
		result.Warnings = append(result.Warnings, models.WarningConfianzaBaja)
	}
	if sellOut < 50 {
		result.Warnings = append(result.Warnings, models.WarningSellOutBajo)
	}

	return result, nil
}

// roundMoney rounds a money amount to cents, half away from zero.
func roundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

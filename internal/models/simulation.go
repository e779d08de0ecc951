package models

// Simulation warning codes. Warnings co-occur and never block the result.
const (
	WarningMargenNegativo = "margen_negativo"
	WarningConfianzaBaja  = "elasticidad_confianza_baja"
	WarningSellOutBajo    = "sell_out_bajo"
)

// SimulationRequest asks what a price change would do to one product over
// a horizon. PrecioActual defaults to the catalog price when omitted.
// Elasticity may be supplied to override the cluster estimate.
type SimulationRequest struct {
	Codigo          string   `json:"codigo" binding:"required"`
	PrecioActual    float64  `json:"precio_actual"`
	PrecioPropuesto float64  `json:"precio_propuesto" binding:"required"`
	HorizonteDias   int      `json:"horizonte_dias" binding:"required"`
	Elasticity      *float64 `json:"elasticidad,omitempty"`
}

// SimulationResult is the projected effect of a price change.
// CostoCastigo is signed: negative when the price goes up (a gain).
type SimulationResult struct {
	Codigo          string  `json:"codigo"`
	PrecioActual    float64 `json:"precio_actual"`
	PrecioPropuesto float64 `json:"precio_propuesto"`
	HorizonteDias   int     `json:"horizonte_dias"`

	Elasticity ElasticityInfo `json:"elasticidad"`

	RitmoProyectado   float64 `json:"ritmo_proyectado"`
	UnidadesSinTope   float64 `json:"unidades_sin_tope"`
	UnidadesConTope   float64 `json:"unidades_con_tope"`
	IngresoProyectado float64 `json:"ingreso_proyectado"`
	MargenUnitario    float64 `json:"margen_unitario"`
	MargenTotal       float64 `json:"margen_total"`
	CostoCastigo      float64 `json:"costo_castigo"`
	SellOutPct        float64 `json:"sell_out_pct"`

	PrecioBreakEven *float64 `json:"precio_break_even,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

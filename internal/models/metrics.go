package models

// VelocityMetrics compares a product's own sale rate against its cluster.
// IndiceRitmo is always finite: it is 0 whenever RitmoCluster is 0.
type VelocityMetrics struct {
	RitmoActual          float64 `json:"ritmo_actual"`
	RitmoCluster         float64 `json:"ritmo_cluster"`
	IndiceRitmo          float64 `json:"indice_ritmo"`
	IndiceDesaceleracion float64 `json:"indice_desaceleracion"`
}

// StockMetrics describes the stock horizon. DiasStock is nil when the
// product has no current velocity (unknown horizon), never +Inf.
type StockMetrics struct {
	DiasStock             *float64 `json:"dias_stock,omitempty"`
	DiasRestantesCiclo    float64  `json:"dias_restantes_ciclo"`
	DiasDesdePrimeraVenta int      `json:"dias_desde_primera_venta"`
}

// WatchlistItem is one flagged product inside a completed job's result.
// Items only exist as part of the run that produced them.
type WatchlistItem struct {
	Codigo        string  `json:"codigo"`
	Nombre        string  `json:"nombre"`
	Cluster       Cluster `json:"cluster"`
	PrecioActual  float64 `json:"precio_actual"`
	CostoUnitario float64 `json:"costo_unitario"`
	MargenPct     float64 `json:"margen_pct"`
	StockTotal    int     `json:"stock_total"`

	Velocity VelocityMetrics `json:"velocity"`
	Stock    StockMetrics    `json:"stock"`

	Reasons     []string `json:"reasons"`
	Score       int      `json:"score"`
	Explanation string   `json:"explanation"`
}

package models

import "time"

// ProductCandidate is one product pulled into a watchlist run, with its
// stock position and trailing sales aggregates already resolved.
type ProductCandidate struct {
	Codigo     string `json:"codigo" db:"codigo"`
	Nombre     string `json:"nombre" db:"nombre"`
	CategoryID int64  `json:"categoria_id" db:"categoria_id"`
	GenderID   int64  `json:"genero_id" db:"genero_id"`
	BrandID    int64  `json:"marca_id" db:"marca_id"`
	StoreID    int64  `json:"tienda_id,omitempty" db:"tienda_id"`

	PrecioActual  float64 `json:"precio_actual" db:"precio_actual"`
	CostoUnitario float64 `json:"costo_unitario" db:"costo_unitario"`

	StockTienda    int `json:"stock_tienda" db:"stock_tienda"`
	StockPendiente int `json:"stock_pendiente" db:"stock_pendiente"`
	StockTotal     int `json:"stock_total" db:"stock_total"`

	// Trailing unit sales, windows ending at the run's reference date
	Unidades7          int `json:"unidades_7d" db:"unidades_7d"`
	Unidades14         int `json:"unidades_14d" db:"unidades_14d"`
	Unidades28         int `json:"unidades_28d" db:"unidades_28d"`
	UnidadesHistoricas int `json:"unidades_historicas" db:"unidades_historicas"`

	PrimeraVenta *time.Time `json:"primera_venta,omitempty" db:"primera_venta"`
}

// PeerSale is the sales aggregate for one SKU inside a cluster, used to
// compute the peer-group sale rate.
type PeerSale struct {
	Codigo      string   `json:"codigo" db:"codigo"`
	Unidades    int      `json:"unidades" db:"unidades"`
	DiasActivos int      `json:"dias_activos" db:"dias_activos"`
	PrecioLista *float64 `json:"precio_lista,omitempty" db:"precio_lista"`
}

// MonthlyPoint is one month of (average price, units sold) for a SKU,
// the raw material of the elasticity estimate.
type MonthlyPoint struct {
	Codigo   string  `json:"codigo" db:"codigo"`
	Month    string  `json:"month" db:"month"` // formatted "2006-01"
	AvgPrice float64 `json:"avg_price" db:"avg_price"`
	Unidades int     `json:"unidades" db:"unidades"`
}

// ClusterNames holds the descriptive names for a cluster key triple.
type ClusterNames struct {
	CategoryName string `json:"categoria"`
	GenderName   string `json:"genero"`
	BrandName    string `json:"marca"`
}

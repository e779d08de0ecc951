package models

// CandidateFilter narrows the candidate set a watchlist run pulls.
type CandidateFilter struct {
	CategoryIDs []int64 `json:"categoria_ids,omitempty"`
	BrandIDs    []int64 `json:"marca_ids,omitempty"`
	GenderIDs   []int64 `json:"genero_ids,omitempty"`
	StoreIDs    []int64 `json:"tienda_ids,omitempty"`
	Search      string  `json:"search,omitempty"`
}

// Sort directions for result retrieval.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sortable watchlist item columns, exposed as the result sort enum.
const (
	SortByScore        = "score"
	SortByIndiceRitmo  = "indice_ritmo"
	SortByRitmoActual  = "ritmo_actual"
	SortByDiasStock    = "dias_stock"
	SortByStockTotal   = "stock_total"
	SortByPrecioActual = "precio_actual"
	SortByMargenPct    = "margen_pct"
	SortByNombre       = "nombre"
	SortByCodigo       = "codigo"
)

// ValidSortColumn reports whether col is part of the sort enum.
func ValidSortColumn(col string) bool {
	switch col {
	case SortByScore, SortByIndiceRitmo, SortByRitmoActual, SortByDiasStock,
		SortByStockTotal, SortByPrecioActual, SortByMargenPct, SortByNombre, SortByCodigo:
		return true
	}
	return false
}

// ResultQuery selects one sorted page of a completed run.
type ResultQuery struct {
	Page          int    `form:"page"`
	PageSize      int    `form:"pageSize"`
	SortColumn    string `form:"sortColumn"`
	SortDirection string `form:"sortDirection"`
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

// ErrProductNotFound is returned when a product code has no catalog row.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository is the read-only data collaborator: candidate
// aggregates, cluster peer sales, monthly price/quantity series and catalog
// names, all straight SQL over the warehouse mirror.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const candidateColumns = `
	p.codigo, p.nombre, p.categoria_id, p.genero_id, p.marca_id, COALESCE(p.tienda_id, 0),
	p.precio_actual, p.costo_unitario,
	p.stock_tienda, p.stock_pendiente, p.stock_tienda + p.stock_pendiente,
	COALESCE(SUM(CASE WHEN v.fecha > ? THEN v.unidades END), 0),
	COALESCE(SUM(CASE WHEN v.fecha > ? THEN v.unidades END), 0),
	COALESCE(SUM(CASE WHEN v.fecha > ? THEN v.unidades END), 0),
	COALESCE(SUM(v.unidades), 0),
	MIN(v.fecha)
`

// FetchCandidates pulls the bounded candidate set for a watchlist run:
// products with their stock position and trailing 7/14/28-day unit sales
// up to windowEnd, hard-capped at cap rows.
func (r *ProductRepository) FetchCandidates(ctx context.Context, filter models.CandidateFilter, windowEnd time.Time, cap int) ([]models.ProductCandidate, error) {
	query := "SELECT " + candidateColumns + `
		FROM productos p
		LEFT JOIN ventas_diarias v ON v.codigo = p.codigo AND v.fecha <= ?
		WHERE p.activo = 1
	`
	args := []interface{}{
		dateStr(windowEnd.AddDate(0, 0, -7)),
		dateStr(windowEnd.AddDate(0, 0, -14)),
		dateStr(windowEnd.AddDate(0, 0, -28)),
		dateStr(windowEnd),
	}

	query, args = appendIDFilter(query, args, "p.categoria_id", filter.CategoryIDs)
	query, args = appendIDFilter(query, args, "p.genero_id", filter.GenderIDs)
	query, args = appendIDFilter(query, args, "p.marca_id", filter.BrandIDs)
	query, args = appendIDFilter(query, args, "p.tienda_id", filter.StoreIDs)

	if filter.Search != "" {
		query += " AND (p.codigo LIKE ? OR p.nombre LIKE ?)"
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}

	query += " GROUP BY p.codigo ORDER BY p.codigo LIMIT ?"
	args = append(args, cap)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.ProductCandidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

// FetchCandidateByCode loads the aggregate for a single product, for the
// on-demand simulation path.
func (r *ProductRepository) FetchCandidateByCode(ctx context.Context, codigo string, windowEnd time.Time) (*models.ProductCandidate, error) {
	query := "SELECT " + candidateColumns + `
		FROM productos p
		LEFT JOIN ventas_diarias v ON v.codigo = p.codigo AND v.fecha <= ?
		WHERE p.codigo = ?
		GROUP BY p.codigo
	`
	args := []interface{}{
		dateStr(windowEnd.AddDate(0, 0, -7)),
		dateStr(windowEnd.AddDate(0, 0, -14)),
		dateStr(windowEnd.AddDate(0, 0, -28)),
		dateStr(windowEnd),
		codigo,
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", codigo, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, codigo)
	}
	return scanCandidate(rows)
}

// ClusterPeers aggregates per-SKU sales for every product of the cluster
// triple inside [start, end]: units sold, days with at least one sale and
// the list price (NULL when the SKU has none).
func (r *ProductRepository) ClusterPeers(ctx context.Context, categoryID, genderID, brandID int64, start, end time.Time) ([]models.PeerSale, error) {
	query := `
		SELECT p.codigo,
			   COALESCE(SUM(v.unidades), 0),
			   COUNT(DISTINCT CASE WHEN v.unidades > 0 THEN v.fecha END),
			   p.precio_lista
		FROM productos p
		LEFT JOIN ventas_diarias v
			ON v.codigo = p.codigo AND v.fecha > ? AND v.fecha <= ?
		WHERE p.activo = 1
		  AND p.categoria_id = ? AND p.genero_id = ? AND p.marca_id = ?
		GROUP BY p.codigo
	`

	rows, err := r.db.QueryContext(ctx, query, dateStr(start), dateStr(end), categoryID, genderID, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cluster peers: %w", err)
	}
	defer rows.Close()

	var peers []models.PeerSale
	for rows.Next() {
		var p models.PeerSale
		var lista sql.NullFloat64
		if err := rows.Scan(&p.Codigo, &p.Unidades, &p.DiasActivos, &lista); err != nil {
			return nil, fmt.Errorf("failed to scan cluster peer: %w", err)
		}
		if lista.Valid {
			v := lista.Float64
			p.PrecioLista = &v
		}
		peers = append(peers, p)
	}
	return peers, rows.Err()
}

// MonthlySeries builds the per-SKU monthly (average price, units) series
// for a cluster and band since the given date. SKUs without a list price
// are always part of the series.
func (r *ProductRepository) MonthlySeries(ctx context.Context, categoryID, genderID, brandID int64, band models.PriceBand, since time.Time) ([]models.MonthlyPoint, error) {
	query := `
		SELECT v.codigo, strftime('%Y-%m', v.fecha), AVG(v.precio), SUM(v.unidades)
		FROM ventas_diarias v
		JOIN productos p ON p.codigo = v.codigo
		WHERE v.fecha > ? AND p.activo = 1
		  AND p.categoria_id = ? AND p.genero_id = ? AND p.marca_id = ?
	`
	args := []interface{}{dateStr(since), categoryID, genderID, brandID}

	if !band.IsUnknown() {
		if band.Open {
			query += " AND (p.precio_lista IS NULL OR p.precio_lista >= ?)"
			args = append(args, band.Min)
		} else {
			query += " AND (p.precio_lista IS NULL OR (p.precio_lista >= ? AND p.precio_lista <= ?))"
			args = append(args, band.Min, band.Max)
		}
	}

	query += " GROUP BY v.codigo, strftime('%Y-%m', v.fecha) ORDER BY v.codigo, strftime('%Y-%m', v.fecha)"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly series: %w", err)
	}
	defer rows.Close()

	var series []models.MonthlyPoint
	for rows.Next() {
		var pt models.MonthlyPoint
		var avg sql.NullFloat64
		if err := rows.Scan(&pt.Codigo, &pt.Month, &avg, &pt.Unidades); err != nil {
			return nil, fmt.Errorf("failed to scan monthly point: %w", err)
		}
		pt.AvgPrice = avg.Float64
		series = append(series, pt)
	}
	return series, rows.Err()
}

// ClusterNames looks up the descriptive names for a cluster key triple.
// Missing rows come back as empty strings; the caller decides how to fill.
func (r *ProductRepository) ClusterNames(ctx context.Context, categoryID, genderID, brandID int64) (models.ClusterNames, error) {
	query := `
		SELECT COALESCE((SELECT nombre FROM categorias WHERE id = ?), ''),
			   COALESCE((SELECT nombre FROM generos WHERE id = ?), ''),
			   COALESCE((SELECT nombre FROM marcas WHERE id = ?), '')
	`

	var names models.ClusterNames
	err := r.db.QueryRowContext(ctx, query, categoryID, genderID, brandID).
		Scan(&names.CategoryName, &names.GenderName, &names.BrandName)
	if err != nil {
		return models.ClusterNames{}, fmt.Errorf("failed to fetch cluster names: %w", err)
	}
	return names, nil
}

func scanCandidate(rows *sql.Rows) (*models.ProductCandidate, error) {
	var c models.ProductCandidate
	var primera sql.NullString
	err := rows.Scan(
		&c.Codigo, &c.Nombre, &c.CategoryID, &c.GenderID, &c.BrandID, &c.StoreID,
		&c.PrecioActual, &c.CostoUnitario,
		&c.StockTienda, &c.StockPendiente, &c.StockTotal,
		&c.Unidades7, &c.Unidades14, &c.Unidades28, &c.UnidadesHistoricas,
		&primera,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidate: %w", err)
	}
	if primera.Valid {
		if t, err := time.Parse("2006-01-02", primera.String); err == nil {
			c.PrimeraVenta = &t
		}
	}
	return &c, nil
}

func appendIDFilter(query string, args []interface{}, column string, ids []int64) (string, []interface{}) {
	if len(ids) == 0 {
		return query, args
	}
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	return query + " AND " + column + " IN (" + strings.Join(placeholders, ",") + ")", args
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}

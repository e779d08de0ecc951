package database

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration is one versioned schema step, embedded in the binary.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "catalog_and_sales",
		SQL: `
			CREATE TABLE IF NOT EXISTS categorias (
				id INTEGER PRIMARY KEY,
				nombre TEXT NOT NULL
			);
			CREATE TABLE IF NOT EXISTS generos (
				id INTEGER PRIMARY KEY,
				nombre TEXT NOT NULL
			);
			CREATE TABLE IF NOT EXISTS marcas (
				id INTEGER PRIMARY KEY,
				nombre TEXT NOT NULL
			);
			CREATE TABLE IF NOT EXISTS productos (
				codigo TEXT PRIMARY KEY,
				nombre TEXT NOT NULL,
				categoria_id INTEGER NOT NULL,
				genero_id INTEGER NOT NULL,
				marca_id INTEGER NOT NULL,
				tienda_id INTEGER,
				precio_actual REAL NOT NULL DEFAULT 0,
				precio_lista REAL,
				costo_unitario REAL NOT NULL DEFAULT 0,
				stock_tienda INTEGER NOT NULL DEFAULT 0,
				stock_pendiente INTEGER NOT NULL DEFAULT 0,
				activo INTEGER NOT NULL DEFAULT 1
			);
			CREATE INDEX IF NOT EXISTS idx_productos_cluster
				ON productos(categoria_id, genero_id, marca_id);
			CREATE TABLE IF NOT EXISTS ventas_diarias (
				codigo TEXT NOT NULL,
				fecha TEXT NOT NULL,
				unidades INTEGER NOT NULL DEFAULT 0,
				precio REAL,
				PRIMARY KEY (codigo, fecha)
			);
			CREATE INDEX IF NOT EXISTS idx_ventas_fecha ON ventas_diarias(fecha);
		`,
	},
	{
		Version: 2,
		Name:    "settings",
		SQL: `
			CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			INSERT OR IGNORE INTO settings (key, value) VALUES
				('price_bands.default', '[{"min":0,"max":500},{"min":500,"max":1000},{"min":1000,"max":2000},{"min":2000,"max":5000},{"min":5000,"max":10000}]');
		`,
	},
	{
		Version: 3,
		Name:    "watchlist_jobs",
		SQL: `
			CREATE TABLE IF NOT EXISTS watchlist_jobs (
				id TEXT PRIMARY KEY,
				status TEXT NOT NULL,
				progress_percent INTEGER NOT NULL DEFAULT 0,
				processed_items INTEGER NOT NULL DEFAULT 0,
				total_items INTEGER NOT NULL DEFAULT 0,
				skipped_items INTEGER NOT NULL DEFAULT 0,
				current_step TEXT NOT NULL DEFAULT '',
				params_json TEXT NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT '',
				summary_json TEXT NOT NULL DEFAULT '',
				started_at TIMESTAMP,
				completed_at TIMESTAMP,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE TABLE IF NOT EXISTS watchlist_items (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				job_id TEXT NOT NULL REFERENCES watchlist_jobs(id) ON DELETE CASCADE,
				codigo TEXT NOT NULL,
				nombre TEXT NOT NULL,
				categoria_id INTEGER NOT NULL,
				categoria TEXT NOT NULL DEFAULT '',
				genero_id INTEGER NOT NULL,
				genero TEXT NOT NULL DEFAULT '',
				marca_id INTEGER NOT NULL,
				marca TEXT NOT NULL DEFAULT '',
				banda TEXT NOT NULL DEFAULT '',
				precio_actual REAL NOT NULL DEFAULT 0,
				costo_unitario REAL NOT NULL DEFAULT 0,
				margen_pct REAL NOT NULL DEFAULT 0,
				stock_total INTEGER NOT NULL DEFAULT 0,
				ritmo_actual REAL NOT NULL DEFAULT 0,
				ritmo_cluster REAL NOT NULL DEFAULT 0,
				indice_ritmo REAL NOT NULL DEFAULT 0,
				indice_desaceleracion REAL NOT NULL DEFAULT 0,
				dias_stock REAL,
				dias_restantes_ciclo REAL NOT NULL DEFAULT 0,
				dias_desde_primera_venta INTEGER NOT NULL DEFAULT 0,
				reasons_json TEXT NOT NULL DEFAULT '[]',
				score INTEGER NOT NULL DEFAULT 0,
				explanation TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_watchlist_items_job ON watchlist_items(job_id);
		`,
	},
}

// Migrate applies every pending migration in version order, tracking them
// in a migrations table.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	pending := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if !applied[m.Version] {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, m := range pending {
		if err := Transaction(db, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
			}
			if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

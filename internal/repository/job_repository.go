package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ncastellan/pricewatch-backend-go/internal/database"
	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

// ErrJobNotFound is returned when a job id has no row.
var ErrJobNotFound = errors.New("job not found")

// JobRepository persists watchlist jobs and their result items.
// State transitions are guarded in SQL: a terminal row never moves again,
// so a completion racing a cancellation loses cleanly.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new pending job.
func (r *JobRepository) Create(ctx context.Context, job *models.PricingJob) error {
	query := `
		INSERT INTO watchlist_jobs (id, status, params_json)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, job.ID, job.Status, job.ParamsJSON); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

const jobColumns = `
	id, status, progress_percent, processed_items, total_items, skipped_items,
	current_step, params_json, error_message, summary_json,
	started_at, completed_at, created_at, updated_at
`

// GetByID retrieves one job.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.PricingJob, error) {
	query := "SELECT " + jobColumns + " FROM watchlist_jobs WHERE id = ?"

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// List retrieves jobs newest first, optionally filtered by status.
func (r *JobRepository) List(ctx context.Context, status string, limit, offset int) ([]*models.PricingJob, error) {
	query := "SELECT " + jobColumns + " FROM watchlist_jobs WHERE 1=1"
	args := []interface{}{}

	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.PricingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkRunning moves a pending job to running.
func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	query := `
		UPDATE watchlist_jobs
		SET status = ?, started_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`
	if _, err := r.db.ExecContext(ctx, query, models.JobStatusRunning, id, models.JobStatusPending); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	return nil
}

// UpdateProgress persists the per-batch counters.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, processed, total, skipped, percent int, step string) error {
	query := `
		UPDATE watchlist_jobs
		SET processed_items = ?, total_items = ?, skipped_items = ?,
			progress_percent = ?, current_step = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`
	if _, err := r.db.ExecContext(ctx, query, processed, total, skipped, percent, step, id, models.JobStatusRunning); err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// MarkFailed moves a non-terminal job to failed with a message.
func (r *JobRepository) MarkFailed(ctx context.Context, id, message string) error {
	query := `
		UPDATE watchlist_jobs
		SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, models.JobStatusFailed, message, id, models.JobStatusPending, models.JobStatusRunning); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// MarkCancelled moves a non-terminal job to cancelled.
func (r *JobRepository) MarkCancelled(ctx context.Context, id string) error {
	query := `
		UPDATE watchlist_jobs
		SET status = ?, current_step = 'cancelado', completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, models.JobStatusCancelled, id, models.JobStatusPending, models.JobStatusRunning); err != nil {
		return fmt.Errorf("failed to mark job cancelled: %w", err)
	}
	return nil
}

// Complete stores the items and summary and moves the job to completed, in
// one transaction. It refuses to touch a job that is no longer running, so
// a cancellation that already landed wins and the items are discarded.
func (r *JobRepository) Complete(ctx context.Context, id string, items []models.WatchlistItem, summary models.JobSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize job summary: %w", err)
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE watchlist_jobs
			SET status = ?, summary_json = ?, progress_percent = 100,
				current_step = 'completado', completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND status = ?
		`, models.JobStatusCompleted, string(summaryJSON), id, models.JobStatusRunning)
		if err != nil {
			return fmt.Errorf("failed to complete job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			// Job already terminal (cancelled under us): drop the items.
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO watchlist_items (
				job_id, codigo, nombre,
				categoria_id, categoria, genero_id, genero, marca_id, marca, banda,
				precio_actual, costo_unitario, margen_pct, stock_total,
				ritmo_actual, ritmo_cluster, indice_ritmo, indice_desaceleracion,
				dias_stock, dias_restantes_ciclo, dias_desde_primera_venta,
				reasons_json, score, explanation
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare item insert: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			reasonsJSON, err := json.Marshal(item.Reasons)
			if err != nil {
				return fmt.Errorf("failed to serialize reasons for %s: %w", item.Codigo, err)
			}

			var diasStock interface{}
			if item.Stock.DiasStock != nil {
				diasStock = *item.Stock.DiasStock
			}

			_, err = stmt.ExecContext(ctx,
				id, item.Codigo, item.Nombre,
				item.Cluster.CategoryID, item.Cluster.CategoryName,
				item.Cluster.GenderID, item.Cluster.GenderName,
				item.Cluster.BrandID, item.Cluster.BrandName,
				item.Cluster.BandLabel,
				item.PrecioActual, item.CostoUnitario, item.MargenPct, item.StockTotal,
				item.Velocity.RitmoActual, item.Velocity.RitmoCluster,
				item.Velocity.IndiceRitmo, item.Velocity.IndiceDesaceleracion,
				diasStock, item.Stock.DiasRestantesCiclo, item.Stock.DiasDesdePrimeraVenta,
				string(reasonsJSON), item.Score, item.Explanation,
			)
			if err != nil {
				return fmt.Errorf("failed to insert watchlist item %s: %w", item.Codigo, err)
			}
		}
		return nil
	})
}

// ResultPage reads one sorted page of a completed job's items. Sorting is
// applied here, at query time, over a whitelisted column; the stored list
// itself is unordered.
func (r *JobRepository) ResultPage(ctx context.Context, jobID string, q models.ResultQuery) ([]models.WatchlistItem, error) {
	col := q.SortColumn
	if !models.ValidSortColumn(col) {
		col = models.SortByScore
	}
	dir := "DESC"
	if q.SortDirection == models.SortAsc {
		dir = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT codigo, nombre,
			   categoria_id, categoria, genero_id, genero, marca_id, marca, banda,
			   precio_actual, costo_unitario, margen_pct, stock_total,
			   ritmo_actual, ritmo_cluster, indice_ritmo, indice_desaceleracion,
			   dias_stock, dias_restantes_ciclo, dias_desde_primera_venta,
			   reasons_json, score, explanation
		FROM watchlist_items
		WHERE job_id = ?
		ORDER BY %s IS NULL, %s %s, codigo ASC
		LIMIT ? OFFSET ?
	`, col, col, dir)

	offset := (q.Page - 1) * q.PageSize
	rows, err := r.db.QueryContext(ctx, query, jobID, q.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read result page: %w", err)
	}
	defer rows.Close()

	var items []models.WatchlistItem
	for rows.Next() {
		var item models.WatchlistItem
		var diasStock sql.NullFloat64
		var reasonsJSON string
		err := rows.Scan(
			&item.Codigo, &item.Nombre,
			&item.Cluster.CategoryID, &item.Cluster.CategoryName,
			&item.Cluster.GenderID, &item.Cluster.GenderName,
			&item.Cluster.BrandID, &item.Cluster.BrandName,
			&item.Cluster.BandLabel,
			&item.PrecioActual, &item.CostoUnitario, &item.MargenPct, &item.StockTotal,
			&item.Velocity.RitmoActual, &item.Velocity.RitmoCluster,
			&item.Velocity.IndiceRitmo, &item.Velocity.IndiceDesaceleracion,
			&diasStock, &item.Stock.DiasRestantesCiclo, &item.Stock.DiasDesdePrimeraVenta,
			&reasonsJSON, &item.Score, &item.Explanation,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		if diasStock.Valid {
			v := diasStock.Float64
			item.Stock.DiasStock = &v
		}
		if err := json.Unmarshal([]byte(reasonsJSON), &item.Reasons); err != nil {
			return nil, fmt.Errorf("failed to parse reasons for %s: %w", item.Codigo, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.PricingJob, error) {
	job := &models.PricingJob{}
	var startedAt, completedAt sql.NullTime
	err := row.Scan(
		&job.ID, &job.Status, &job.ProgressPercent,
		&job.ProcessedItems, &job.TotalItems, &job.SkippedItems,
		&job.CurrentStep, &job.ParamsJSON, &job.ErrorMessage, &job.SummaryJSON,
		&startedAt, &completedAt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

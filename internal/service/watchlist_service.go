package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/internal/pricing"
	"github.com/ncastellan/pricewatch-backend-go/internal/settings"
	"github.com/ncastellan/pricewatch-backend-go/pkg/logger"
)

// ErrResultNotReady is returned when a result is requested from a job that
// has not completed.
var ErrResultNotReady = errors.New("job result not ready")

// ErrInvalidSort is returned for a sort column outside the exposed enum.
var ErrInvalidSort = errors.New("invalid sort column")

// CandidateSource is the read-only data collaborator a run pulls from.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, filter models.CandidateFilter, windowEnd time.Time, cap int) ([]models.ProductCandidate, error)
	ClusterPeers(ctx context.Context, categoryID, genderID, brandID int64, start, end time.Time) ([]models.PeerSale, error)
	ClusterNames(ctx context.Context, categoryID, genderID, brandID int64) (models.ClusterNames, error)
}

// JobStore persists job state and result items.
type JobStore interface {
	Create(ctx context.Context, job *models.PricingJob) error
	GetByID(ctx context.Context, id string) (*models.PricingJob, error)
	List(ctx context.Context, status string, limit, offset int) ([]*models.PricingJob, error)
	MarkRunning(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, processed, total, skipped, percent int, step string) error
	MarkFailed(ctx context.Context, id, message string) error
	MarkCancelled(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, items []models.WatchlistItem, summary models.JobSummary) error
	ResultPage(ctx context.Context, jobID string, q models.ResultQuery) ([]models.WatchlistItem, error)
}

const maxPageSize = 200

// WatchlistService owns the watchlist job lifecycle: submission, the
// asynchronous batch pipeline, cooperative cancellation and result reads.
type WatchlistService struct {
	products CandidateSource
	jobs     JobStore
	settings settings.Provider
	log      logger.Logger

	mu      sync.Mutex
	cancels map[string]*atomic.Bool
	slots   chan struct{}

	now func() time.Time
	// jobTimeout, when set, replaces the settings-provided run timeout.
	jobTimeout time.Duration
}

// NewWatchlistService creates the service. The max-concurrent-jobs slot
// count is read once at construction.
func NewWatchlistService(products CandidateSource, jobs JobStore, provider settings.Provider, log logger.Logger) *WatchlistService {
	maxJobs := provider.Int(context.Background(), settings.KeyMaxConcurrentJobs, settings.DefaultMaxConcurrentJobs)
	if maxJobs < 1 {
		maxJobs = settings.DefaultMaxConcurrentJobs
	}
	return &WatchlistService{
		products: products,
		jobs:     jobs,
		settings: provider,
		log:      log,
		cancels:  make(map[string]*atomic.Bool),
		slots:    make(chan struct{}, maxJobs),
		now:      time.Now,
	}
}

type jobParams struct {
	Filter models.CandidateFilter `json:"filter"`
	Params models.JobParams       `json:"params"`
}

// StartJob validates the request, persists a pending job and kicks off the
// run in the background. It returns immediately with the new job.
func (s *WatchlistService) StartJob(ctx context.Context, filter models.CandidateFilter, params models.JobParams) (*models.PricingJob, error) {
	if params.CycleDays < 0 {
		return nil, fmt.Errorf("cycle_days must be positive")
	}
	params.RitmoVentanaDias = pricing.SnapWindow(params.RitmoVentanaDias)

	paramsJSON, err := json.Marshal(jobParams{Filter: filter, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize job params: %w", err)
	}

	job := &models.PricingJob{
		ID:         uuid.NewString(),
		Status:     models.JobStatusPending,
		ParamsJSON: string(paramsJSON),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	flag := atomic.NewBool(false)
	s.mu.Lock()
	s.cancels[job.ID] = flag
	s.mu.Unlock()

	go s.run(job.ID, filter, params, flag)

	s.log.Infof(logger.WithJobID(ctx, job.ID), "watchlist job submitted")
	return job, nil
}

// GetJob returns one job's current state.
func (s *WatchlistService) GetJob(ctx context.Context, id string) (*models.PricingJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// ListJobs returns jobs newest first.
func (s *WatchlistService) ListJobs(ctx context.Context, status string, limit, offset int) ([]*models.PricingJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobs.List(ctx, status, limit, offset)
}

// CancelJob requests cooperative cancellation. Cancelling a terminal job is
// an idempotent no-op; the returned status is the job's actual status so a
// cancel that raced completion reports "completed", not "cancelled".
func (s *WatchlistService) CancelJob(ctx context.Context, id string) (string, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if models.JobStatusTerminal(job.Status) {
		return job.Status, nil
	}

	s.mu.Lock()
	flag, ok := s.cancels[id]
	s.mu.Unlock()

	if ok {
		flag.Store(true)
		s.log.Infof(logger.WithJobID(ctx, id), "cancellation requested")
		return job.Status, nil
	}

	// No live runner (process restarted while the job sat non-terminal):
	// cancel directly.
	if err := s.jobs.MarkCancelled(ctx, id); err != nil {
		return "", err
	}
	return models.JobStatusCancelled, nil
}

// GetResult reads one sorted page of a completed job's stored items.
func (s *WatchlistService) GetResult(ctx context.Context, id string, q models.ResultQuery) (*models.JobResult, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusCompleted {
		return nil, fmt.Errorf("%w: job is %s", ErrResultNotReady, job.Status)
	}

	if q.SortColumn != "" && !models.ValidSortColumn(q.SortColumn) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSort, q.SortColumn)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 50
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	items, err := s.jobs.ResultPage(ctx, id, q)
	if err != nil {
		return nil, err
	}

	var summary models.JobSummary
	if job.SummaryJSON != "" {
		if err := json.Unmarshal([]byte(job.SummaryJSON), &summary); err != nil {
			return nil, fmt.Errorf("failed to parse job summary: %w", err)
		}
	}

	return &models.JobResult{
		JobID:       job.ID,
		Items:       items,
		Summary:     summary,
		Page:        q.Page,
		PageSize:    q.PageSize,
		CompletedAt: job.CompletedAt,
	}, nil
}

// run executes the whole pipeline for one job. It is the only writer of
// the job's state after submission.
func (s *WatchlistService) run(jobID string, filter models.CandidateFilter, params models.JobParams, flag *atomic.Bool) {
	ctx := logger.WithJobID(context.Background(), jobID)

	defer func() {
		if p := recover(); p != nil {
			s.log.Errorf(ctx, "watchlist run panicked: %v", p)
			if err := s.jobs.MarkFailed(ctx, jobID, fmt.Sprintf("internal error: %v", p)); err != nil {
				s.log.Errorf(ctx, "failed to record panic: %v", err)
			}
		}
		s.mu.Lock()
		delete(s.cancels, jobID)
		s.mu.Unlock()
	}()

	if !s.acquireSlot(flag) {
		s.finishCancelled(ctx, jobID)
		return
	}
	defer func() { <-s.slots }()

	th := settings.LoadThresholds(ctx, s.settings)
	if params.RitmoVentanaDias > 0 {
		th.RitmoVentanaDias = params.RitmoVentanaDias
	}
	if params.CycleDays > 0 {
		th.CycleDays = params.CycleDays
	}

	timeout := th.JobTimeout
	if s.jobTimeout > 0 {
		timeout = s.jobTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.jobs.MarkRunning(ctx, jobID); err != nil {
		s.log.Errorf(ctx, "failed to mark job running: %v", err)
		return
	}

	now := s.now()
	candidates, err := s.products.FetchCandidates(runCtx, filter, now, th.MaxCandidates)
	if err != nil {
		s.finishFailed(ctx, jobID, fmt.Sprintf("candidate fetch failed: %v", err))
		return
	}

	total := len(candidates)
	totalBatches := (total + th.BatchSize - 1) / th.BatchSize
	s.log.Infof(ctx, "processing %d candidates in %d batches of %d", total, totalBatches, th.BatchSize)

	cache := pricing.NewVelocityCache()
	identifier := pricing.NewIdentifier(s.settings, s.products, s.log)

	var items []models.WatchlistItem
	skipped := atomic.NewInt64(0)
	processed := 0

	for start := 0; start < total; start += th.BatchSize {
		// Cancellation and timeout are honored at every batch boundary.
		if flag.Load() {
			s.finishCancelled(ctx, jobID)
			return
		}
		if runCtx.Err() != nil {
			s.finishFailed(ctx, jobID, fmt.Sprintf("job timed out after %s", timeout))
			return
		}

		end := start + th.BatchSize
		if end > total {
			end = total
		}
		batch := candidates[start:end]
		results := make([]*models.WatchlistItem, len(batch))

		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				item, err := s.processCandidate(runCtx, batch[i], identifier, cache, th, now, flag)
				if err != nil {
					skipped.Inc()
					s.log.Warnf(ctx, "candidate %s skipped: %v", batch[i].Codigo, err)
					return
				}
				results[i] = item
			}(i)
		}
		wg.Wait()

		for _, item := range results {
			if item != nil {
				items = append(items, *item)
			}
		}

		processed = end
		percent := int(math.Round(float64(processed) / float64(total) * 100))
		step := fmt.Sprintf("lote %d/%d", start/th.BatchSize+1, totalBatches)
		if err := s.jobs.UpdateProgress(ctx, jobID, processed, total, int(skipped.Load()), percent, step); err != nil {
			s.log.Warnf(ctx, "failed to persist progress: %v", err)
		}
	}

	// Partial results of a cancelled run are discarded, never stored.
	if flag.Load() {
		s.finishCancelled(ctx, jobID)
		return
	}
	// A timeout expiring during the final batch still fails the job; the
	// batch-boundary check above never sees it.
	if runCtx.Err() != nil {
		s.finishFailed(ctx, jobID, fmt.Sprintf("job timed out after %s", timeout))
		return
	}

	if err := s.jobs.Complete(ctx, jobID, items, buildSummary(items)); err != nil {
		s.finishFailed(ctx, jobID, fmt.Sprintf("failed to store result: %v", err))
		return
	}
	s.log.Infof(ctx, "watchlist job completed: %d flagged of %d processed, %d skipped", len(items), processed, skipped.Load())
}

// acquireSlot blocks until a concurrency slot frees up, polling the cancel
// flag so a queued pending job can still be cancelled. Returns false when
// cancelled while waiting.
func (s *WatchlistService) acquireSlot(flag *atomic.Bool) bool {
	for {
		if flag.Load() {
			return false
		}
		select {
		case s.slots <- struct{}{}:
			return true
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// processCandidate runs the per-candidate pipeline: cluster → peer rate
// (cached) → metrics → rules → score. A nil item with nil error means the
// product matched no rule and stays off the watchlist.
func (s *WatchlistService) processCandidate(ctx context.Context, c models.ProductCandidate, identifier *pricing.Identifier, cache *pricing.VelocityCache, th settings.Thresholds, now time.Time, flag *atomic.Bool) (*models.WatchlistItem, error) {
	if flag.Load() {
		return nil, context.Canceled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cluster := identifier.Identify(ctx, c.CategoryID, c.GenderID, c.BrandID, c.PrecioActual, 0)

	key := pricing.NewClusterKey(c.CategoryID, c.GenderID, c.BrandID, c.PrecioActual, th.ClusterPriceBucket)
	clusterRate, err := cache.Rate(ctx, key, func(ctx context.Context) (float64, error) {
		start := now.AddDate(0, 0, -th.RitmoVentanaDias)
		peers, err := s.products.ClusterPeers(ctx, c.CategoryID, c.GenderID, c.BrandID, start, now)
		if err != nil {
			return 0, err
		}
		return pricing.WeightedClusterRate(peers, cluster.Band, pricing.WeightByUnits), nil
	})
	if err != nil {
		return nil, fmt.Errorf("cluster velocity failed: %w", err)
	}

	velocity := pricing.Velocity(c, clusterRate, th.RitmoVentanaDias, now)
	stock := pricing.StockHorizon(c, velocity.RitmoActual, th.CycleDays, now)

	reasons := pricing.ClassifyReasons(c, velocity, stock, th)
	if len(reasons) == 0 {
		return nil, nil
	}

	margen := pricing.MargenPct(c.PrecioActual, c.CostoUnitario)
	score, explanation := pricing.Score(velocity, stock, margen, c.StockTotal, th)

	return &models.WatchlistItem{
		Codigo:        c.Codigo,
		Nombre:        c.Nombre,
		Cluster:       cluster,
		PrecioActual:  c.PrecioActual,
		CostoUnitario: c.CostoUnitario,
		MargenPct:     margen,
		StockTotal:    c.StockTotal,
		Velocity:      velocity,
		Stock:         stock,
		Reasons:       reasons,
		Score:         score,
		Explanation:   explanation,
	}, nil
}

func (s *WatchlistService) finishCancelled(ctx context.Context, jobID string) {
	if err := s.jobs.MarkCancelled(ctx, jobID); err != nil {
		s.log.Errorf(ctx, "failed to mark job cancelled: %v", err)
		return
	}
	s.log.Infof(ctx, "watchlist job cancelled")
}

func (s *WatchlistService) finishFailed(ctx context.Context, jobID, message string) {
	if err := s.jobs.MarkFailed(ctx, jobID, message); err != nil {
		s.log.Errorf(ctx, "failed to mark job failed: %v", err)
		return
	}
	s.log.Warnf(ctx, "watchlist job failed: %s", message)
}

func buildSummary(items []models.WatchlistItem) models.JobSummary {
	summary := models.JobSummary{TotalItems: len(items)}
	if len(items) == 0 {
		return summary
	}

	var sum int
	for _, item := range items {
		sum += item.Score
		switch {
		case item.Score >= 70:
			summary.Severity.Alta++
		case item.Score >= 40:
			summary.Severity.Media++
		default:
			summary.Severity.Baja++
		}
	}
	summary.AvgScore = math.Round(float64(sum)/float64(len(items))*10) / 10
	return summary
}

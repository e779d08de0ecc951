// Package settings is the read contract against the dashboard's key-value
// configuration store. Missing keys always resolve to the documented
// defaults; a lookup never fails the caller.
package settings

import (
	"context"
	"time"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

// Provider supplies typed threshold and price-band lookups. Implementations
// must treat missing keys as defaults, never as errors; Bands may return an
// error for a present-but-broken set so the caller can degrade explicitly.
type Provider interface {
	Float(ctx context.Context, key string, def float64) float64
	Int(ctx context.Context, key string, def int) int
	Bands(ctx context.Context, categoryID int64) ([]models.PriceBand, error)
}

// Setting keys.
const (
	KeyIndiceCritico      = "watchlist.indice_critico"
	KeyIndiceBajo         = "watchlist.indice_bajo"
	KeyEarlyDays          = "watchlist.early_days"
	KeyDesaceleracion     = "watchlist.desaceleracion_umbral"
	KeyStockAlertDays     = "watchlist.stock_alert_days"
	KeyCycleDays          = "watchlist.cycle_days"
	KeyRitmoVentanaDias   = "watchlist.ritmo_ventana_dias"
	KeyMaxCandidates      = "watchlist.max_candidates"
	KeyBatchSize          = "watchlist.batch_size"
	KeyJobTimeoutMinutes  = "watchlist.job_timeout_minutes"
	KeyMaxConcurrentJobs  = "watchlist.max_concurrent_jobs"
	KeyClusterPriceBucket = "cluster.price_bucket"
	KeyElasticityFallback = "elasticity.fallback"
	KeyElasticityLookback = "elasticity.lookback_months"
	KeyMinMarginPct       = "simulator.min_margin_pct"
)

// Defaults applied when the store has no value for a key.
const (
	DefaultIndiceCritico      = 0.6
	DefaultIndiceBajo         = 0.9
	DefaultEarlyDays          = 14
	DefaultDesaceleracion     = 0.7
	DefaultStockAlertDays     = 45.0
	DefaultCycleDays          = 56
	DefaultRitmoVentanaDias   = 14
	DefaultMaxCandidates      = 200
	DefaultBatchSize          = 20
	DefaultJobTimeoutMinutes  = 10
	DefaultMaxConcurrentJobs  = 2
	DefaultClusterPriceBucket = 500.0
	DefaultElasticityFallback = -1.0
	DefaultElasticityLookback = 6
)

// Thresholds is a per-run snapshot of every tunable the pipeline reads.
// Loading it once per job keeps a run isolated from concurrent setting edits.
type Thresholds struct {
	IndiceCritico    float64
	IndiceBajo       float64
	EarlyDays        int
	Desaceleracion   float64
	StockAlertDays   float64
	CycleDays        int
	RitmoVentanaDias int

	MaxCandidates     int
	BatchSize         int
	JobTimeout        time.Duration
	MaxConcurrentJobs int

	ClusterPriceBucket float64
	ElasticityFallback float64
	ElasticityLookback int

	// MinMarginPct <= 0 means no break-even price is computed.
	MinMarginPct float64
}

// LoadThresholds snapshots the provider into a Thresholds value, clamping
// the orchestration knobs to sane ranges.
func LoadThresholds(ctx context.Context, p Provider) Thresholds {
	t := Thresholds{
		IndiceCritico:    p.Float(ctx, KeyIndiceCritico, DefaultIndiceCritico),
		IndiceBajo:       p.Float(ctx, KeyIndiceBajo, DefaultIndiceBajo),
		EarlyDays:        p.Int(ctx, KeyEarlyDays, DefaultEarlyDays),
		Desaceleracion:   p.Float(ctx, KeyDesaceleracion, DefaultDesaceleracion),
		StockAlertDays:   p.Float(ctx, KeyStockAlertDays, DefaultStockAlertDays),
		CycleDays:        p.Int(ctx, KeyCycleDays, DefaultCycleDays),
		RitmoVentanaDias: p.Int(ctx, KeyRitmoVentanaDias, DefaultRitmoVentanaDias),

		MaxCandidates:     p.Int(ctx, KeyMaxCandidates, DefaultMaxCandidates),
		BatchSize:         p.Int(ctx, KeyBatchSize, DefaultBatchSize),
		JobTimeout:        time.Duration(p.Int(ctx, KeyJobTimeoutMinutes, DefaultJobTimeoutMinutes)) * time.Minute,
		MaxConcurrentJobs: p.Int(ctx, KeyMaxConcurrentJobs, DefaultMaxConcurrentJobs),

		ClusterPriceBucket: p.Float(ctx, KeyClusterPriceBucket, DefaultClusterPriceBucket),
		ElasticityFallback: p.Float(ctx, KeyElasticityFallback, DefaultElasticityFallback),
		ElasticityLookback: p.Int(ctx, KeyElasticityLookback, DefaultElasticityLookback),

		MinMarginPct: p.Float(ctx, KeyMinMarginPct, 0),
	}

	if t.MaxCandidates < 1 || t.MaxCandidates > 1000 {
		t.MaxCandidates = DefaultMaxCandidates
	}
	if t.BatchSize < 1 || t.BatchSize > 100 {
		t.BatchSize = DefaultBatchSize
	}
	if t.MaxConcurrentJobs < 1 {
		t.MaxConcurrentJobs = DefaultMaxConcurrentJobs
	}
	if t.JobTimeout <= 0 {
		t.JobTimeout = DefaultJobTimeoutMinutes * time.Minute
	}
	if t.CycleDays <= 0 {
		t.CycleDays = DefaultCycleDays
	}
	if t.ClusterPriceBucket <= 0 {
		t.ClusterPriceBucket = DefaultClusterPriceBucket
	}
	if t.ElasticityLookback <= 0 {
		t.ElasticityLookback = DefaultElasticityLookback
	}
	return t
}

// Static is a fixed-value Provider for tests and isolated runs.
type Static struct {
	Floats map[string]float64
	Ints   map[string]int
	Sets   map[int64][]models.PriceBand
}

func (s Static) Float(_ context.Context, key string, def float64) float64 {
	if v, ok := s.Floats[key]; ok {
		return v
	}
	return def
}

func (s Static) Int(_ context.Context, key string, def int) int {
	if v, ok := s.Ints[key]; ok {
		return v
	}
	return def
}

func (s Static) Bands(_ context.Context, categoryID int64) ([]models.PriceBand, error) {
	if b, ok := s.Sets[categoryID]; ok {
		return b, nil
	}
	return s.Sets[0], nil
}

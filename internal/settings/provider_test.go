package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadThresholdsDefaults(t *testing.T) {
	th := LoadThresholds(context.Background(), Static{})

	assert.InDelta(t, 0.6, th.IndiceCritico, 1e-9)
	assert.InDelta(t, 0.9, th.IndiceBajo, 1e-9)
	assert.Equal(t, 14, th.EarlyDays)
	assert.InDelta(t, 0.7, th.Desaceleracion, 1e-9)
	assert.InDelta(t, 45.0, th.StockAlertDays, 1e-9)
	assert.Equal(t, 56, th.CycleDays)
	assert.Equal(t, 14, th.RitmoVentanaDias)
	assert.Equal(t, 200, th.MaxCandidates)
	assert.Equal(t, 20, th.BatchSize)
	assert.Equal(t, 10*time.Minute, th.JobTimeout)
	assert.Equal(t, 2, th.MaxConcurrentJobs)
	assert.InDelta(t, -1.0, th.ElasticityFallback, 1e-9)
	assert.Equal(t, 6, th.ElasticityLookback)
	assert.Zero(t, th.MinMarginPct)
}

func TestLoadThresholdsHonorsOverrides(t *testing.T) {
	p := Static{
		Floats: map[string]float64{
			KeyIndiceCritico:      0.5,
			KeyElasticityFallback: -0.8,
			KeyMinMarginPct:       35,
		},
		Ints: map[string]int{
			KeyBatchSize:     10,
			KeyMaxCandidates: 500,
		},
	}
	th := LoadThresholds(context.Background(), p)

	assert.InDelta(t, 0.5, th.IndiceCritico, 1e-9)
	assert.InDelta(t, -0.8, th.ElasticityFallback, 1e-9)
	assert.InDelta(t, 35.0, th.MinMarginPct, 1e-9)
	assert.Equal(t, 10, th.BatchSize)
	assert.Equal(t, 500, th.MaxCandidates)
}

func TestLoadThresholdsClampsNonsenseValues(t *testing.T) {
	p := Static{
		Ints: map[string]int{
			KeyMaxCandidates:     -5,
			KeyBatchSize:         100000,
			KeyMaxConcurrentJobs: 0,
			KeyJobTimeoutMinutes: -1,
			KeyCycleDays:         0,
		},
		Floats: map[string]float64{
			KeyClusterPriceBucket: -100,
		},
	}
	th := LoadThresholds(context.Background(), p)

	assert.Equal(t, DefaultMaxCandidates, th.MaxCandidates)
	assert.Equal(t, DefaultBatchSize, th.BatchSize)
	assert.Equal(t, DefaultMaxConcurrentJobs, th.MaxConcurrentJobs)
	assert.Equal(t, DefaultJobTimeoutMinutes*time.Minute, th.JobTimeout)
	assert.Equal(t, DefaultCycleDays, th.CycleDays)
	assert.InDelta(t, DefaultClusterPriceBucket, th.ClusterPriceBucket, 1e-9)
}

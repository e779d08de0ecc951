package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
)

func TestValidateBands(t *testing.T) {
	tests := []struct {
		name    string
		bands   []models.PriceBand
		wantErr bool
	}{
		{
			name:  "default set is valid",
			bands: DefaultBands(),
		},
		{
			name:  "empty set is valid",
			bands: nil,
		},
		{
			name: "unsorted but non-overlapping",
			bands: []models.PriceBand{
				{Min: 1000, Max: 2000},
				{Min: 0, Max: 500},
				{Min: 500, Max: 1000},
			},
		},
		{
			name:    "negative min",
			bands:   []models.PriceBand{{Min: -10, Max: 500}},
			wantErr: true,
		},
		{
			name:    "max not above min",
			bands:   []models.PriceBand{{Min: 500, Max: 500}},
			wantErr: true,
		},
		{
			name: "overlapping neighbors",
			bands: []models.PriceBand{
				{Min: 0, Max: 600},
				{Min: 500, Max: 1000},
			},
			wantErr: true,
		},
		{
			name: "open band in the middle",
			bands: []models.PriceBand{
				{Min: 0, Open: true},
				{Min: 500, Max: 1000},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBands(tt.bands)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidBandSet)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestResolveBand(t *testing.T) {
	bands := DefaultBands()

	t.Run("price lands in exactly one band", func(t *testing.T) {
		b := ResolveBand(750, bands)
		assert.Equal(t, "500-1000", b.Label())
	})

	t.Run("boundary price belongs to the band that contains it first", func(t *testing.T) {
		b := ResolveBand(500, bands)
		assert.Equal(t, "0-500", b.Label())
	})

	t.Run("price above the last band resolves to the open bucket", func(t *testing.T) {
		b := ResolveBand(12500, bands)
		require.True(t, b.Open)
		assert.Equal(t, "10000+", b.Label())
		assert.True(t, b.Contains(1e9))
	})

	t.Run("empty set yields the unknown band", func(t *testing.T) {
		b := ResolveBand(750, nil)
		assert.True(t, b.IsUnknown())
		assert.Equal(t, "unknown", b.Label())
		assert.True(t, b.Contains(750), "unknown band never filters")
	})

	t.Run("price below the first band clamps into it", func(t *testing.T) {
		gapped := []models.PriceBand{{Min: 100, Max: 500}, {Min: 500.01, Max: 1000}}
		b := ResolveBand(50, gapped)
		assert.InDelta(t, 100.0, b.Min, 1e-9)
	})
}

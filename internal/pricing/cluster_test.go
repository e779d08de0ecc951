package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/internal/settings"
	"github.com/ncastellan/pricewatch-backend-go/pkg/logger"
)

type stubCatalog struct {
	names models.ClusterNames
	err   error
}

func (s stubCatalog) ClusterNames(context.Context, int64, int64, int64) (models.ClusterNames, error) {
	return s.names, s.err
}

type failingBands struct {
	settings.Static
}

func (failingBands) Bands(context.Context, int64) ([]models.PriceBand, error) {
	return nil, errors.New("settings store down")
}

func TestIdentifyResolvesClusterAndBand(t *testing.T) {
	provider := settings.Static{Sets: map[int64][]models.PriceBand{
		0: DefaultBands(),
	}}
	catalog := stubCatalog{names: models.ClusterNames{
		CategoryName: "Zapatillas", GenderName: "Mujer", BrandName: "Acme",
	}}
	id := NewIdentifier(provider, catalog, logger.NewNop())

	cluster := id.Identify(context.Background(), 3, 1, 7, 750, 0)

	assert.Equal(t, int64(3), cluster.CategoryID)
	assert.Equal(t, "Zapatillas", cluster.CategoryName)
	assert.Equal(t, "Mujer", cluster.GenderName)
	assert.Equal(t, "Acme", cluster.BrandName)
	assert.Equal(t, "500-1000", cluster.BandLabel)
}

func TestIdentifyBandCategoryOverride(t *testing.T) {
	provider := settings.Static{Sets: map[int64][]models.PriceBand{
		0: DefaultBands(),
		9: {{Min: 0, Max: 100}, {Min: 100, Max: 10000}},
	}}
	id := NewIdentifier(provider, stubCatalog{}, logger.NewNop())

	cluster := id.Identify(context.Background(), 3, 1, 7, 750, 9)
	assert.Equal(t, "100-10000", cluster.BandLabel)
}

func TestIdentifyDegradesOnBrokenBands(t *testing.T) {
	t.Run("invalid configured set", func(t *testing.T) {
		provider := settings.Static{Sets: map[int64][]models.PriceBand{
			0: {{Min: -5, Max: 100}},
		}}
		id := NewIdentifier(provider, stubCatalog{}, logger.NewNop())

		cluster := id.Identify(context.Background(), 3, 1, 7, 750, 0)
		assert.Equal(t, "500-1000", cluster.BandLabel, "falls back to the default bands")
	})

	t.Run("settings lookup failure", func(t *testing.T) {
		id := NewIdentifier(failingBands{}, stubCatalog{}, logger.NewNop())
		cluster := id.Identify(context.Background(), 3, 1, 7, 6000, 0)
		assert.Equal(t, "5000-10000", cluster.BandLabel)
	})

	t.Run("no set configured at all", func(t *testing.T) {
		id := NewIdentifier(settings.Static{}, stubCatalog{}, logger.NewNop())
		cluster := id.Identify(context.Background(), 3, 1, 7, 250, 0)
		assert.Equal(t, "0-500", cluster.BandLabel)
	})
}

func TestIdentifyDegradesOnMissingNames(t *testing.T) {
	provider := settings.Static{Sets: map[int64][]models.PriceBand{0: DefaultBands()}}
	catalog := stubCatalog{err: errors.New("catalog unreachable")}
	id := NewIdentifier(provider, catalog, logger.NewNop())

	cluster := id.Identify(context.Background(), 3, 1, 7, 750, 0)

	require.NotEmpty(t, cluster.CategoryName)
	assert.Equal(t, "categoria 3", cluster.CategoryName)
	assert.Equal(t, "genero 1", cluster.GenderName)
	assert.Equal(t, "marca 7", cluster.BrandName)
}

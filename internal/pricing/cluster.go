package pricing

import (
	"context"
	"fmt"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/internal/settings"
	"github.com/ncastellan/pricewatch-backend-go/pkg/logger"
)

// CatalogNames resolves descriptive names for a cluster key triple.
type CatalogNames interface {
	ClusterNames(ctx context.Context, categoryID, genderID, brandID int64) (models.ClusterNames, error)
}

// Identifier resolves a product's peer cluster from its attributes and
// price. Output is a cheap derived value; nothing here is cached.
type Identifier struct {
	settings settings.Provider
	catalog  CatalogNames
	log      logger.Logger
}

// NewIdentifier creates a cluster identifier.
func NewIdentifier(provider settings.Provider, catalog CatalogNames, log logger.Logger) *Identifier {
	return &Identifier{settings: provider, catalog: catalog, log: log}
}

// Identify builds the cluster for (categoryID, genderID, brandID) at the
// given price. bandCategoryID overrides which category's band set applies;
// pass 0 to use categoryID. A broken band set degrades to DefaultBands and
// a name-lookup failure degrades to id-only names; neither is an error.
func (id *Identifier) Identify(ctx context.Context, categoryID, genderID, brandID int64, price float64, bandCategoryID int64) models.Cluster {
	bandCat := bandCategoryID
	if bandCat == 0 {
		bandCat = categoryID
	}

	bands, err := id.settings.Bands(ctx, bandCat)
	if err == nil {
		err = ValidateBands(bands)
	}
	if err != nil {
		id.log.Warnf(ctx, "price bands for category %d unusable, running degraded on defaults: %v", bandCat, err)
		bands = DefaultBands()
	}
	if len(bands) == 0 {
		// No set configured at all: the documented default, not degraded mode.
		bands = DefaultBands()
	}
	band := ResolveBand(price, bands)

	names, err := id.catalog.ClusterNames(ctx, categoryID, genderID, brandID)
	if err != nil {
		id.log.Warnf(ctx, "catalog names for cluster (%d,%d,%d) unavailable: %v", categoryID, genderID, brandID, err)
	}
	if names.CategoryName == "" {
		names.CategoryName = fmt.Sprintf("categoria %d", categoryID)
	}
	if names.GenderName == "" {
		names.GenderName = fmt.Sprintf("genero %d", genderID)
	}
	if names.BrandName == "" {
		names.BrandName = fmt.Sprintf("marca %d", brandID)
	}

	return models.Cluster{
		CategoryID:   categoryID,
		CategoryName: names.CategoryName,
		GenderID:     genderID,
		GenderName:   names.GenderName,
		BrandID:      brandID,
		BrandName:    names.BrandName,
		Band:         band,
		BandLabel:    band.Label(),
	}
}

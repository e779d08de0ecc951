package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/pkg/logger"
)

// SettingsRepository reads the dashboard's key-value configuration store.
// It implements settings.Provider: a missing key is the documented default,
// never an error.
type SettingsRepository struct {
	db  *sql.DB
	log logger.Logger
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sql.DB, log logger.Logger) *SettingsRepository {
	return &SettingsRepository{db: db, log: log}
}

func (r *SettingsRepository) value(ctx context.Context, key string) (string, bool) {
	var v string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		r.log.Warnf(ctx, "settings read for %q failed, using default: %v", key, err)
		return "", false
	}
	return v, true
}

// Float returns the float value stored under key, or def.
func (r *SettingsRepository) Float(ctx context.Context, key string, def float64) float64 {
	raw, ok := r.value(ctx, key)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.log.Warnf(ctx, "setting %q holds %q, not a number; using default %v", key, raw, def)
		return def
	}
	return v
}

// Int returns the integer value stored under key, or def.
func (r *SettingsRepository) Int(ctx context.Context, key string, def int) int {
	raw, ok := r.value(ctx, key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.log.Warnf(ctx, "setting %q holds %q, not an integer; using default %d", key, raw, def)
		return def
	}
	return v
}

// Bands returns the price-band set configured for a category, falling back
// to the store-wide default set. The JSON is parsed but not validated here;
// callers validate and degrade so a broken set is reported once, where it
// is used.
func (r *SettingsRepository) Bands(ctx context.Context, categoryID int64) ([]models.PriceBand, error) {
	raw, ok := r.value(ctx, fmt.Sprintf("price_bands.%d", categoryID))
	if !ok {
		raw, ok = r.value(ctx, "price_bands.default")
	}
	if !ok {
		return nil, nil
	}

	var bands []models.PriceBand
	if err := json.Unmarshal([]byte(raw), &bands); err != nil {
		return nil, fmt.Errorf("failed to parse price bands for category %d: %w", categoryID, err)
	}
	return bands, nil
}

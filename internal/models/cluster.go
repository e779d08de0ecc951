package models

import "strconv"

// PriceBand is a half-closed price range. Open=true means no upper bound
// (the trailing "max+" bucket). The zero value is the unknown band.
type PriceBand struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Open bool    `json:"open,omitempty"`
}

// IsUnknown reports whether the band carries no price information
// (resolution against an empty band set).
func (b PriceBand) IsUnknown() bool {
	return !b.Open && b.Min == 0 && b.Max == 0
}

// Contains reports whether price falls inside the band. The unknown band
// contains every price so it never filters peers out.
func (b PriceBand) Contains(price float64) bool {
	if b.IsUnknown() {
		return true
	}
	if b.Open {
		return price >= b.Min
	}
	return price >= b.Min && price <= b.Max
}

// Label renders the band for display: "500-1000", "5000+", "unknown".
func (b PriceBand) Label() string {
	if b.IsUnknown() {
		return "unknown"
	}
	if b.Open {
		return formatPrice(b.Min) + "+"
	}
	return formatPrice(b.Min) + "-" + formatPrice(b.Max)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Cluster is the peer group a product is benchmarked against: same
// category, gender, brand and price band. Derived value, never persisted.
type Cluster struct {
	CategoryID   int64     `json:"categoria_id"`
	CategoryName string    `json:"categoria"`
	GenderID     int64     `json:"genero_id"`
	GenderName   string    `json:"genero"`
	BrandID      int64     `json:"marca_id"`
	BrandName    string    `json:"marca"`
	Band         PriceBand `json:"banda"`
	BandLabel    string    `json:"banda_label"`
}

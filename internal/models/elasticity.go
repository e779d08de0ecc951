package models

// Elasticity confidence grades.
const (
	ConfidenceAlta  = "alta"
	ConfidenceMedia = "media"
	ConfidenceBaja  = "baja"
)

// Elasticity estimation methods.
const (
	ElasticityMethodMonthlyDeltas = "cluster_monthly_deltas"
	ElasticityMethodFallback      = "conservative_fallback"
	ElasticityMethodManual        = "manual"
)

// ElasticityInfo is a graded price-elasticity estimate for a cluster.
// A "baja" grade always carries the conservative fallback value, never the
// raw computed mean.
type ElasticityInfo struct {
	Value        float64 `json:"value"`
	Confidence   string  `json:"confidence"`
	Observations int     `json:"observations"`
	Method       string  `json:"method"`
	Warning      string  `json:"warning,omitempty"`
}

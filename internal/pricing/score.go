package pricing

import (
	"fmt"
	"strings"

	"github.com/ncastellan/pricewatch-backend-go/internal/models"
	"github.com/ncastellan/pricewatch-backend-go/internal/settings"
)

// Score ranks a flagged product 0-100 from four capped components:
// rate severity (40), stock-vs-cycle pressure (30), margin weight (20) and
// capital at risk (10). Pure and deterministic. The explanation collects
// the components that scored above their lowest tier.
func Score(v models.VelocityMetrics, s models.StockMetrics, margenPct float64, stockTotal int, t settings.Thresholds) (int, string) {
	var total int
	var notable []string

	// Rate severity: how far below the cluster the product sells.
	switch {
	case v.IndiceRitmo < t.IndiceCritico:
		total += 40
		notable = append(notable, fmt.Sprintf("ritmo critico vs cluster (indice %.2f)", v.IndiceRitmo))
	case v.IndiceRitmo < t.IndiceBajo:
		total += 25
		notable = append(notable, fmt.Sprintf("ritmo bajo vs cluster (indice %.2f)", v.IndiceRitmo))
	case v.IndiceRitmo < 1.0:
		total += 10
	}

	// Stock pressure: days of stock against days left in the cycle.
	switch {
	case s.DiasStock != nil && s.DiasRestantesCiclo > 0:
		ratio := *s.DiasStock / s.DiasRestantesCiclo
		switch {
		case ratio > 2:
			total += 30
			notable = append(notable, fmt.Sprintf("stock para %.0f dias con %.0f de ciclo restantes", *s.DiasStock, s.DiasRestantesCiclo))
		case ratio > 1.5:
			total += 20
			notable = append(notable, fmt.Sprintf("stock excede el ciclo restante (%.1fx)", ratio))
		case ratio > 1:
			total += 10
		}
	case s.DiasStock != nil && *s.DiasStock > t.StockAlertDays:
		total += 15
		notable = append(notable, fmt.Sprintf("stock para %.0f dias sin ciclo conocido", *s.DiasStock))
	}

	// Margin weight: richer margins leave more room to act on price.
	switch {
	case margenPct > 50:
		total += 20
		notable = append(notable, fmt.Sprintf("margen alto (%.0f%%)", margenPct))
	case margenPct > 30:
		total += 12
		notable = append(notable, fmt.Sprintf("margen medio (%.0f%%)", margenPct))
	case margenPct > 15:
		total += 6
	}

	// Capital at risk: sheer units sitting in stock.
	switch {
	case stockTotal > 100:
		total += 10
		notable = append(notable, fmt.Sprintf("%d unidades inmovilizadas", stockTotal))
	case stockTotal > 50:
		total += 6
		notable = append(notable, fmt.Sprintf("%d unidades en stock", stockTotal))
	case stockTotal > 20:
		total += 3
	}

	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	return total, strings.Join(notable, "; ")
}

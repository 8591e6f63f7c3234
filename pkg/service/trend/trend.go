package trend

import (
	"math"

	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// flatTolerancePercent is the change below which movement reads as flat
const flatTolerancePercent = 5.0

// Direction derives a movement signal from an oldest-to-newest history
// of nullable KPI values. Nils are skipped so a missing upload week
// does not break the signal; if fewer than two valid values remain the
// result is TrendNone and no badge is shown.
//
// The percent change divides by max(previous, 1) to avoid dividing by
// zero for count-valued KPIs. This distorts percentages for values
// near zero; that is an accepted approximation, not a bug to fix.
//
// Direction carries no good/bad judgement. Callers combine it with the
// KPI's threshold direction to choose a color.
func Direction(history []*float64) types.TrendDirection {
	valid := make([]float64, 0, len(history))
	for _, v := range history {
		if v != nil {
			valid = append(valid, *v)
		}
	}
	if len(valid) < 2 {
		return types.TrendNone
	}

	previous := valid[len(valid)-2]
	recent := valid[len(valid)-1]

	change := math.Abs(recent-previous) / math.Max(previous, 1) * 100
	if change < flatTolerancePercent {
		return types.TrendFlat
	}
	if recent > previous {
		return types.TrendUp
	}
	return types.TrendDown
}

package threshold

import (
	"math"

	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// Evaluator maps KPI values to health statuses using the immutable
// threshold table. Evaluation is pure and never panics: a nil or NaN
// value, or a KPI absent from the table, is neutral.
type Evaluator struct {
	config model.ThresholdConfig
}

// New creates an Evaluator. A nil config selects the default table.
func New(config model.ThresholdConfig) *Evaluator {
	if config == nil {
		config = model.DefaultThresholds()
	}
	return &Evaluator{config: config}
}

// Status returns the health color for a KPI value. Boundaries are
// inclusive on the good side: a value exactly on the green boundary is
// green, exactly on the yellow boundary is yellow.
func (e *Evaluator) Status(key types.KPIKey, value *float64) types.HealthStatus {
	if value == nil || math.IsNaN(*value) {
		return types.HealthNeutral
	}
	t, ok := e.config[key]
	if !ok {
		return types.HealthNeutral
	}

	v := *value
	switch t.Direction {
	case model.LowerIsBetter:
		switch {
		case v <= t.Green:
			return types.HealthGreen
		case v <= t.Yellow:
			return types.HealthYellow
		default:
			return types.HealthRed
		}
	case model.HigherIsBetter:
		switch {
		case v >= t.Green:
			return types.HealthGreen
		case v >= t.Yellow:
			return types.HealthYellow
		default:
			return types.HealthRed
		}
	default:
		return types.HealthNeutral
	}
}

// StatusMap evaluates every KPI key over a metric set
func (e *Evaluator) StatusMap(m model.MetricSet) map[types.KPIKey]types.HealthStatus {
	out := make(map[types.KPIKey]types.HealthStatus, len(types.KPIKeys))
	for _, key := range types.KPIKeys {
		out[key] = e.Status(key, m.Value(key))
	}
	return out
}

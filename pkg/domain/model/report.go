package model

import (
	"time"

	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// WeeklyReport is a result set enriched for presentation: per-KPI
// health status from the threshold table and movement direction from
// the recent history window.
type WeeklyReport struct {
	Upload   *Upload                               `json:"upload"`
	Result   *WeeklyResultSet                      `json:"result"`
	Statuses map[types.KPIKey]types.HealthStatus   `json:"statuses"`
	Trends   map[types.KPIKey]types.TrendDirection `json:"trends"`
}

// HistoryPoint is one week of a KPI history window. Result is nil for
// weeks without a live upload; trend analysis skips those.
type HistoryPoint struct {
	WeekEnding time.Time        `json:"week_ending"`
	Result     *WeeklyResultSet `json:"result,omitempty"`
}

package model

import (
	"time"

	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// WeeklyResultSet is the committed KPI output of one computation pass
// for one (upload, category) pair. category "all" is the aggregate over
// every record in the upload.
type WeeklyResultSet struct {
	UploadID     types.UploadID      `json:"upload_id"`
	Category     types.CategoryLabel `json:"category"`
	CalculatedAt time.Time           `json:"calculated_at"`
	Metrics      MetricSet           `json:"metrics"`
}

// MetricSet holds every KPI computed over one record set
type MetricSet struct {
	BugInflowRate float64         `json:"bug_inflow_rate"`
	Status        StatusBreakdown `json:"status_breakdown"`
	TTFR          TTFRMetric      `json:"time_to_first_response"`
	MTTR          MTTRMetric      `json:"mttr_by_priority"`
	SLA           SLAMetric       `json:"sla_compliance"`
	OpenAge       OpenAgeMetric   `json:"open_age_distribution"`
	Automated     AutomatedMetric `json:"automated_ratio"`
	Categories    []CategoryCount `json:"category_distribution"`
	Workload      WorkloadMetric  `json:"workload_distribution"`
	BacklogHealth float64         `json:"backlog_health_score"`
}

// StatusBreakdown counts records by lifecycle family. Records whose
// status maps to neither family count toward Total only.
type StatusBreakdown struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
}

// TTFRMetric approximates time to first response. The tracker export
// carries no first-response event, so resolution time stands in for it
// and still-open records use their current age. MedianHours is nil for
// an empty record set, never zero.
type TTFRMetric struct {
	MedianHours     *float64 `json:"median_hours"`
	Under24hPercent float64  `json:"under_24h_percent"`
}

// MTTRMetric holds the median resolution hours per priority tier among
// resolved records. A tier with no resolved records is nil; zero would
// falsely read as instant resolution.
type MTTRMetric struct {
	VeryHighHours *float64 `json:"very_high_hours"`
	HighHours     *float64 `json:"high_hours"`
	MediumHours   *float64 `json:"medium_hours"`
	LowHours      *float64 `json:"low_hours"`
}

// Hours returns the tier's median resolution hours, nil when the tier
// has no resolved records
func (m MTTRMetric) Hours(p types.Priority) *float64 {
	switch p {
	case types.PriorityVeryHigh:
		return m.VeryHighHours
	case types.PriorityHigh:
		return m.HighHours
	case types.PriorityMedium:
		return m.MediumHours
	case types.PriorityLow:
		return m.LowHours
	default:
		return nil
	}
}

// SLAMetric is the share of each tier's full population resolved within
// its SLA bound. Open records count against compliance: an unresolved
// defect has not met the SLA.
type SLAMetric struct {
	VeryHighPercent float64 `json:"very_high_percent"`
	HighPercent     float64 `json:"high_percent"`
}

// AgeBucket is one tier of the open-age view
type AgeBucket struct {
	Count       int     `json:"count"`
	MeanAgeDays float64 `json:"mean_age_days"`
}

// OpenAgeMetric breaks down open records by priority tier
type OpenAgeMetric struct {
	VeryHigh AgeBucket `json:"very_high"`
	High     AgeBucket `json:"high"`
	Medium   AgeBucket `json:"medium"`
}

// AutomatedMetric counts records reported by machine accounts
type AutomatedMetric struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// CategoryCount is one slice of the category distribution
type CategoryCount struct {
	Category types.CategoryLabel `json:"category"`
	Count    int                 `json:"count"`
	Percent  float64             `json:"percent"`
}

// WorkloadMetric summarizes per-calendar-week created counts
type WorkloadMetric struct {
	MeanPerWeek float64 `json:"mean_per_week"`
	StdDev      float64 `json:"std_dev"`
	Weeks       int     `json:"weeks"`
}

// Value extracts the scalar behind a KPI key for threshold evaluation
// and trend history. Composite KPIs without a single scalar (category
// distribution) and unknown keys return nil, which downstream
// evaluators render as neutral.
func (m MetricSet) Value(key types.KPIKey) *float64 {
	f := func(v float64) *float64 { return &v }
	switch key {
	case types.KPIBugInflowRate:
		return f(m.BugInflowRate)
	case types.KPIOpenBugCount:
		return f(float64(m.Status.Open))
	case types.KPITTFRMedianHours:
		return m.TTFR.MedianHours
	case types.KPITTFRUnder24hPct:
		return f(m.TTFR.Under24hPercent)
	case types.KPIMTTRVeryHighHours:
		return m.MTTR.VeryHighHours
	case types.KPIMTTRHighHours:
		return m.MTTR.HighHours
	case types.KPISLAVeryHighPct:
		return f(m.SLA.VeryHighPercent)
	case types.KPISLAHighPct:
		return f(m.SLA.HighPercent)
	case types.KPIOpenVeryHighCount:
		return f(float64(m.OpenAge.VeryHigh.Count))
	case types.KPIOpenHighCount:
		return f(float64(m.OpenAge.High.Count))
	case types.KPIAutomatedPct:
		return f(m.Automated.Percent)
	case types.KPIWorkloadStdDev:
		return f(m.Workload.StdDev)
	case types.KPIBacklogHealthScore:
		return f(m.BacklogHealth)
	default:
		return nil
	}
}

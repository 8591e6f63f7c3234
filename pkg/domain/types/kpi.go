package types

// KPIKey identifies one of the operational health metrics computed per
// week/category. Keys are stable identifiers shared by the threshold
// table, the trend history API, and the dashboard frontend.
type KPIKey string

const (
	KPIBugInflowRate      KPIKey = "bug_inflow_rate"
	KPIOpenBugCount       KPIKey = "open_bug_count"
	KPITTFRMedianHours    KPIKey = "ttfr_median_hours"
	KPITTFRUnder24hPct    KPIKey = "ttfr_under_24h_percent"
	KPIMTTRVeryHighHours  KPIKey = "mttr_very_high_hours"
	KPIMTTRHighHours      KPIKey = "mttr_high_hours"
	KPISLAVeryHighPct     KPIKey = "sla_vh_percent"
	KPISLAHighPct         KPIKey = "sla_high_percent"
	KPIOpenVeryHighCount  KPIKey = "open_very_high_count"
	KPIOpenHighCount      KPIKey = "open_high_count"
	KPIAutomatedPct       KPIKey = "automated_percent"
	KPIWorkloadStdDev     KPIKey = "workload_stddev"
	KPIBacklogHealthScore KPIKey = "backlog_health_score"
)

// KPIKeys lists every key in display order
var KPIKeys = []KPIKey{
	KPIBugInflowRate,
	KPIOpenBugCount,
	KPITTFRMedianHours,
	KPITTFRUnder24hPct,
	KPIMTTRVeryHighHours,
	KPIMTTRHighHours,
	KPISLAVeryHighPct,
	KPISLAHighPct,
	KPIOpenVeryHighCount,
	KPIOpenHighCount,
	KPIAutomatedPct,
	KPIWorkloadStdDev,
	KPIBacklogHealthScore,
}

// String returns the string representation
func (k KPIKey) String() string {
	return string(k)
}

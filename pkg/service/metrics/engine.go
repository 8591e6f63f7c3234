package metrics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
	"github.com/opsgrid/defectpulse/pkg/service/classifier"
)

const (
	// inflowWindowDays is the trailing window for the inflow rate,
	// reported as bugs per week over four weeks
	inflowWindowDays = 28

	slaVeryHighHours = 24.0
	slaHighHours     = 48.0
)

// Engine computes the weekly KPI set over an immutable record
// snapshot. Every function is total: an empty record set degrades to
// zero values and nil medians, never an error or panic, so a quiet
// week renders as dashes instead of crashing the dashboard.
type Engine struct {
	classifier          *classifier.Classifier
	automatedPrefixes   []string
	automatedSubstrings []string
	weekStartDay        time.Weekday
}

// Option is a functional option for configuring an Engine
type Option func(*Engine)

// WithClassifier sets the component classifier used for the category
// distribution
func WithClassifier(c *classifier.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithAutomatedReporterRules overrides the machine-account naming
// convention used by the automated ratio
func WithAutomatedReporterRules(prefixes, substrings []string) Option {
	return func(e *Engine) {
		e.automatedPrefixes = prefixes
		e.automatedSubstrings = substrings
	}
}

// WithWeekStartDay sets the weekday on which workload buckets begin,
// the day after the export boundary day
func WithWeekStartDay(day time.Weekday) Option {
	return func(e *Engine) {
		e.weekStartDay = day
	}
}

// New creates an Engine with the default classifier and machine-account
// conventions
func New(opts ...Option) *Engine {
	e := &Engine{
		automatedPrefixes:   []string{"svc-", "bot-", "ci-", "auto-"},
		automatedSubstrings: []string{"automation", "jenkins", "pipeline", "robot"},
		weekStartDay:        time.Sunday,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.classifier == nil {
		c, err := classifier.New(nil)
		if err != nil {
			// Default rules are static and validated by tests
			panic(err)
		}
		e.classifier = c
	}
	return e
}

// Compute runs every KPI over the record set as of the given instant
func (e *Engine) Compute(records []*model.DefectRecord, asOf time.Time) model.MetricSet {
	return model.MetricSet{
		BugInflowRate: e.BugInflowRate(records, asOf),
		Status:        e.StatusBreakdown(records),
		TTFR:          e.TimeToFirstResponse(records, asOf),
		MTTR:          e.MTTRByPriority(records),
		SLA:           e.SLACompliance(records),
		OpenAge:       e.OpenAgeDistribution(records, asOf),
		Automated:     e.AutomatedRatio(records),
		Categories:    e.CategoryDistribution(records),
		Workload:      e.WorkloadDistribution(records),
		BacklogHealth: e.BacklogHealthScore(records),
	}
}

// BugInflowRate is the number of records created in the trailing 28
// days ending at asOf, divided by 4. Unit: bugs per week.
func (e *Engine) BugInflowRate(records []*model.DefectRecord, asOf time.Time) float64 {
	windowStart := asOf.AddDate(0, 0, -inflowWindowDays)
	count := 0
	for _, rec := range records {
		if rec.CreatedAt.After(windowStart) && !rec.CreatedAt.After(asOf) {
			count++
		}
	}
	return float64(count) / 4
}

// StatusBreakdown counts records per lifecycle family. Unknown
// statuses count toward the total only.
func (e *Engine) StatusBreakdown(records []*model.DefectRecord) model.StatusBreakdown {
	b := model.StatusBreakdown{Total: len(records)}
	for _, rec := range records {
		switch rec.Family() {
		case types.FamilyOpen:
			b.Open++
		case types.FamilyResolved:
			b.Resolved++
		}
	}
	return b
}

// TimeToFirstResponse approximates response time per record as
// resolution time, or current age for still-open records. The export
// carries no true first-response event; this proxy is a known
// limitation and is kept rather than guessed around.
func (e *Engine) TimeToFirstResponse(records []*model.DefectRecord, asOf time.Time) model.TTFRMetric {
	hours := make([]float64, 0, len(records))
	under24 := 0
	for _, rec := range records {
		end := asOf
		if rec.ResolvedAt != nil {
			end = *rec.ResolvedAt
		}
		h := end.Sub(rec.CreatedAt).Hours()
		hours = append(hours, h)
		if h < 24 {
			under24++
		}
	}
	return model.TTFRMetric{
		MedianHours:     median(hours),
		Under24hPercent: percent(under24, len(records)),
	}
}

// MTTRByPriority is the median resolution hours among resolved records
// of each tier, nil for tiers with no resolved records
func (e *Engine) MTTRByPriority(records []*model.DefectRecord) model.MTTRMetric {
	byTier := make(map[types.Priority][]float64, 4)
	for _, rec := range records {
		if !rec.IsResolved() || rec.ResolutionHours == nil {
			continue
		}
		byTier[rec.Priority] = append(byTier[rec.Priority], *rec.ResolutionHours)
	}
	return model.MTTRMetric{
		VeryHighHours: median(byTier[types.PriorityVeryHigh]),
		HighHours:     median(byTier[types.PriorityHigh]),
		MediumHours:   median(byTier[types.PriorityMedium]),
		LowHours:      median(byTier[types.PriorityLow]),
	}
}

// SLACompliance is the share of each tier's full population resolved
// within the SLA bound (VeryHigh 24h, High 48h). The denominator
// includes unresolved records: an open defect has not met its SLA.
func (e *Engine) SLACompliance(records []*model.DefectRecord) model.SLAMetric {
	var vhTotal, vhMet, highTotal, highMet int
	for _, rec := range records {
		switch rec.Priority {
		case types.PriorityVeryHigh:
			vhTotal++
			if rec.ResolutionHours != nil && *rec.ResolutionHours < slaVeryHighHours {
				vhMet++
			}
		case types.PriorityHigh:
			highTotal++
			if rec.ResolutionHours != nil && *rec.ResolutionHours < slaHighHours {
				highMet++
			}
		}
	}
	return model.SLAMetric{
		VeryHighPercent: percent(vhMet, vhTotal),
		HighPercent:     percent(highMet, highTotal),
	}
}

// OpenAgeDistribution counts open records and their mean age in days
// for the VeryHigh, High, and Medium tiers
func (e *Engine) OpenAgeDistribution(records []*model.DefectRecord, asOf time.Time) model.OpenAgeMetric {
	ages := make(map[types.Priority][]float64, 3)
	for _, rec := range records {
		if !rec.IsOpen() {
			continue
		}
		ages[rec.Priority] = append(ages[rec.Priority], rec.AgeDays(asOf))
	}
	bucket := func(p types.Priority) model.AgeBucket {
		return model.AgeBucket{
			Count:       len(ages[p]),
			MeanAgeDays: mean(ages[p]),
		}
	}
	return model.OpenAgeMetric{
		VeryHigh: bucket(types.PriorityVeryHigh),
		High:     bucket(types.PriorityHigh),
		Medium:   bucket(types.PriorityMedium),
	}
}

// AutomatedRatio counts records reported by machine accounts according
// to the fixed naming convention
func (e *Engine) AutomatedRatio(records []*model.DefectRecord) model.AutomatedMetric {
	count := 0
	for _, rec := range records {
		if e.isAutomatedReporter(rec.Reporter) {
			count++
		}
	}
	return model.AutomatedMetric{
		Count:   count,
		Percent: percent(count, len(records)),
	}
}

func (e *Engine) isAutomatedReporter(reporter string) bool {
	r := strings.ToLower(strings.TrimSpace(reporter))
	if r == "" {
		return false
	}
	for _, prefix := range e.automatedPrefixes {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	for _, sub := range e.automatedSubstrings {
		if strings.Contains(r, sub) {
			return true
		}
	}
	return false
}

// CategoryDistribution counts records per component category, sorted
// by count descending then label for a stable order
func (e *Engine) CategoryDistribution(records []*model.DefectRecord) []model.CategoryCount {
	counts := make(map[types.CategoryLabel]int)
	for _, rec := range records {
		counts[e.classifier.Classify(rec)]++
	}

	out := make([]model.CategoryCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, model.CategoryCount{
			Category: label,
			Count:    count,
			Percent:  percent(count, len(records)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// WorkloadDistribution groups records by the calendar week of their
// creation (weeks start on Sunday) and summarizes the per-week counts.
// Weeks without records inside the observed span count as zero.
func (e *Engine) WorkloadDistribution(records []*model.DefectRecord) model.WorkloadMetric {
	if len(records) == 0 {
		return model.WorkloadMetric{}
	}

	counts := make(map[time.Time]int)
	var first, last time.Time
	for i, rec := range records {
		week := e.weekStartOf(rec.CreatedAt)
		counts[week]++
		if i == 0 || week.Before(first) {
			first = week
		}
		if i == 0 || week.After(last) {
			last = week
		}
	}

	var perWeek []float64
	for week := first; !week.After(last); week = week.AddDate(0, 0, 7) {
		perWeek = append(perWeek, float64(counts[week]))
	}

	return model.WorkloadMetric{
		MeanPerWeek: mean(perWeek),
		StdDev:      popStdDev(perWeek),
		Weeks:       len(perWeek),
	}
}

// weekStartOf truncates a timestamp to the most recent weekStartDay,
// the day after the configured export boundary
func (e *Engine) weekStartOf(t time.Time) time.Time {
	t = model.TruncateToDate(t)
	offset := (int(t.Weekday()) - int(e.weekStartDay) + 7) % 7
	return t.AddDate(0, 0, -offset)
}

// BacklogHealthScore is the composite 0-100 score penalizing open
// high-severity records: 100 minus 10 per open VeryHigh and 5 per open
// High, floored at 0
func (e *Engine) BacklogHealthScore(records []*model.DefectRecord) float64 {
	var openVH, openHigh int
	for _, rec := range records {
		if !rec.IsOpen() {
			continue
		}
		switch rec.Priority {
		case types.PriorityVeryHigh:
			openVH++
		case types.PriorityHigh:
			openHigh++
		}
	}
	return math.Max(0, 100-10*float64(openVH)-5*float64(openHigh))
}

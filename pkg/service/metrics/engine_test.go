package metrics_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
	"github.com/opsgrid/defectpulse/pkg/service/metrics"
)

var asOf = time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)

func rec(priority types.Priority, status, summary, reporter string, createdDaysAgo int, resolutionHours *float64) *model.DefectRecord {
	created := asOf.AddDate(0, 0, -createdDaysAgo)
	r := &model.DefectRecord{
		Key:       types.DefectKey("OPS-" + summary),
		Priority:  priority,
		Status:    status,
		Summary:   summary,
		Reporter:  reporter,
		CreatedAt: created,
	}
	if resolutionHours != nil {
		resolved := created.Add(time.Duration(*resolutionHours * float64(time.Hour)))
		r.ResolvedAt = &resolved
		r.ResolutionHours = resolutionHours
	}
	return r
}

func hours(h float64) *float64 { return &h }

func sampleRecords() []*model.DefectRecord {
	return []*model.DefectRecord{
		rec(types.PriorityVeryHigh, "Resolved", "dns outage", "svc-monitor", 5, hours(12)),
		rec(types.PriorityVeryHigh, "Open", "volume leak", "alice", 10, nil),
		rec(types.PriorityHigh, "Closed", "dns flaky", "bob", 40, hours(60)),
		rec(types.PriorityHigh, "Resolved", "printer on fire", "carol", 3, hours(24)),
		rec(types.PriorityMedium, "In Progress", "oauth broken", "dave", 50, nil),
	}
}

func TestComputeOnEmptySet(t *testing.T) {
	e := metrics.New()
	m := e.Compute(nil, asOf)

	gt.Equal(t, 0.0, m.BugInflowRate)
	gt.Equal(t, model.StatusBreakdown{}, m.Status)
	gt.Nil(t, m.TTFR.MedianHours)
	gt.Equal(t, 0.0, m.TTFR.Under24hPercent)
	gt.Nil(t, m.MTTR.VeryHighHours)
	gt.Nil(t, m.MTTR.LowHours)
	gt.Equal(t, 0.0, m.SLA.VeryHighPercent)
	gt.Equal(t, 0, m.OpenAge.VeryHigh.Count)
	gt.Equal(t, 0, m.Automated.Count)
	gt.Equal(t, 0, len(m.Categories))
	gt.Equal(t, 0, m.Workload.Weeks)
	gt.Equal(t, 100.0, m.BacklogHealth)
}

func TestBugInflowRate(t *testing.T) {
	e := metrics.New()
	// Three of five records created inside the trailing 28 days
	gt.Equal(t, 0.75, e.BugInflowRate(sampleRecords(), asOf))

	t.Run("WindowBoundary", func(t *testing.T) {
		exactly28 := []*model.DefectRecord{
			rec(types.PriorityLow, "Open", "a", "", 28, nil),
			rec(types.PriorityLow, "Open", "b", "", 27, nil),
		}
		// A record created exactly 28 days before asOf sits on the
		// window edge and is excluded
		gt.Equal(t, 0.25, e.BugInflowRate(exactly28, asOf))
	})
}

func TestStatusBreakdown(t *testing.T) {
	e := metrics.New()
	b := e.StatusBreakdown(sampleRecords())
	gt.Equal(t, 5, b.Total)
	gt.Equal(t, 2, b.Open)
	gt.Equal(t, 3, b.Resolved)

	t.Run("UnknownCountsTowardTotalOnly", func(t *testing.T) {
		records := append(sampleRecords(), rec(types.PriorityLow, "Waiting", "limbo", "", 1, nil))
		b := e.StatusBreakdown(records)
		gt.Equal(t, 6, b.Total)
		gt.Equal(t, 2, b.Open)
		gt.Equal(t, 3, b.Resolved)
	})
}

func TestTimeToFirstResponse(t *testing.T) {
	e := metrics.New()
	ttfr := e.TimeToFirstResponse(sampleRecords(), asOf)

	// Proxy hours: 12, 240, 60, 24, 1200. Median 60, only one under 24h.
	gt.NotNil(t, ttfr.MedianHours)
	gt.Equal(t, 60.0, *ttfr.MedianHours)
	gt.Equal(t, 20.0, ttfr.Under24hPercent)
}

func TestMTTRByPriority(t *testing.T) {
	e := metrics.New()
	mttr := e.MTTRByPriority(sampleRecords())

	gt.NotNil(t, mttr.VeryHighHours)
	gt.Equal(t, 12.0, *mttr.VeryHighHours)
	gt.NotNil(t, mttr.HighHours)
	gt.Equal(t, 42.0, *mttr.HighHours)
	// No resolved Medium or Low records: nil, not zero
	gt.Nil(t, mttr.MediumHours)
	gt.Nil(t, mttr.LowHours)
}

func TestSLACompliance(t *testing.T) {
	e := metrics.New()
	sla := e.SLACompliance(sampleRecords())

	// VeryHigh: one resolved in 12h, one still open counting against
	gt.Equal(t, 50.0, sla.VeryHighPercent)
	// High: 24h met, 60h missed
	gt.Equal(t, 50.0, sla.HighPercent)
}

func TestOpenAgeDistribution(t *testing.T) {
	e := metrics.New()
	dist := e.OpenAgeDistribution(sampleRecords(), asOf)

	gt.Equal(t, 1, dist.VeryHigh.Count)
	gt.Equal(t, 10.0, dist.VeryHigh.MeanAgeDays)
	gt.Equal(t, 0, dist.High.Count)
	gt.Equal(t, 1, dist.Medium.Count)
	gt.Equal(t, 50.0, dist.Medium.MeanAgeDays)
}

func TestAutomatedRatio(t *testing.T) {
	e := metrics.New()
	auto := e.AutomatedRatio(sampleRecords())
	gt.Equal(t, 1, auto.Count)
	gt.Equal(t, 20.0, auto.Percent)

	t.Run("Conventions", func(t *testing.T) {
		records := []*model.DefectRecord{
			{Reporter: "bot-scanner"},
			{Reporter: "CI-nightly"},
			{Reporter: "release-automation"},
			{Reporter: "jenkins"},
			{Reporter: "alice"},
			{Reporter: ""},
		}
		auto := e.AutomatedRatio(records)
		gt.Equal(t, 4, auto.Count)
	})
}

func TestCategoryDistribution(t *testing.T) {
	e := metrics.New()
	dist := e.CategoryDistribution(sampleRecords())

	// networking twice, then auth/other/storage once each sorted by label
	gt.Equal(t, 4, len(dist))
	gt.Equal(t, types.CategoryLabel("networking"), dist[0].Category)
	gt.Equal(t, 2, dist[0].Count)
	gt.Equal(t, 40.0, dist[0].Percent)
	gt.Equal(t, types.CategoryLabel("auth"), dist[1].Category)
	gt.Equal(t, types.CategoryOther, dist[2].Category)
	gt.Equal(t, types.CategoryLabel("storage"), dist[3].Category)
}

func TestWorkloadDistribution(t *testing.T) {
	e := metrics.New()

	t.Run("ZeroFillsGapWeeks", func(t *testing.T) {
		records := []*model.DefectRecord{
			rec(types.PriorityLow, "Open", "a", "", 22, nil), // 2026-07-25, week of Jul 19
			rec(types.PriorityLow, "Open", "b", "", 1, nil),  // 2026-08-15, week of Aug 9
		}
		w := e.WorkloadDistribution(records)
		gt.Equal(t, 4, w.Weeks)
		gt.Equal(t, 0.5, w.MeanPerWeek)
		gt.Equal(t, 0.5, w.StdDev)
	})

	t.Run("SingleWeek", func(t *testing.T) {
		records := []*model.DefectRecord{
			rec(types.PriorityLow, "Open", "a", "", 1, nil),
			rec(types.PriorityLow, "Open", "b", "", 2, nil),
		}
		w := e.WorkloadDistribution(records)
		gt.Equal(t, 1, w.Weeks)
		gt.Equal(t, 2.0, w.MeanPerWeek)
		gt.Equal(t, 0.0, w.StdDev)
	})

	t.Run("ConfiguredWeekStart", func(t *testing.T) {
		// Sat 2026-08-15 and Sun 2026-08-16 straddle a Sunday-start
		// boundary but share a Saturday-start bucket
		records := []*model.DefectRecord{
			rec(types.PriorityLow, "Open", "a", "", 1, nil),
			rec(types.PriorityLow, "Open", "b", "", 0, nil),
		}
		gt.Equal(t, 2, e.WorkloadDistribution(records).Weeks)

		sat := metrics.New(metrics.WithWeekStartDay(time.Saturday))
		gt.Equal(t, 1, sat.WorkloadDistribution(records).Weeks)
	})
}

func TestBacklogHealthScore(t *testing.T) {
	e := metrics.New()

	// One open VeryHigh in the sample set
	gt.Equal(t, 90.0, e.BacklogHealthScore(sampleRecords()))

	t.Run("FlooredAtZero", func(t *testing.T) {
		var records []*model.DefectRecord
		for i := 0; i < 12; i++ {
			records = append(records, rec(types.PriorityVeryHigh, "Open", "x", "", i+1, nil))
		}
		gt.Equal(t, 0.0, e.BacklogHealthScore(records))
	})

	t.Run("ResolvedDoNotPenalize", func(t *testing.T) {
		records := []*model.DefectRecord{
			rec(types.PriorityVeryHigh, "Resolved", "x", "", 5, hours(10)),
			rec(types.PriorityHigh, "Closed", "y", "", 5, hours(10)),
		}
		gt.Equal(t, 100.0, e.BacklogHealthScore(records))
	})
}

package threshold_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
	"github.com/opsgrid/defectpulse/pkg/service/threshold"
)

func value(v float64) *float64 { return &v }

func TestStatusLowerIsBetter(t *testing.T) {
	e := threshold.New(nil)
	key := types.KPIBugInflowRate // green <= 6, yellow <= 8

	cases := []struct {
		value float64
		want  types.HealthStatus
	}{
		{0, types.HealthGreen},
		{6, types.HealthGreen}, // boundary is inclusive on the good side
		{6.01, types.HealthYellow},
		{8, types.HealthYellow},
		{8.01, types.HealthRed},
		{50, types.HealthRed},
	}
	for _, tc := range cases {
		gt.Equal(t, tc.want, e.Status(key, value(tc.value)))
	}
}

func TestStatusHigherIsBetter(t *testing.T) {
	e := threshold.New(nil)
	key := types.KPISLAVeryHighPct // green >= 80, yellow >= 60

	cases := []struct {
		value float64
		want  types.HealthStatus
	}{
		{100, types.HealthGreen},
		{80, types.HealthGreen},
		{79.9, types.HealthYellow},
		{60, types.HealthYellow},
		{59.9, types.HealthRed},
		{0, types.HealthRed},
	}
	for _, tc := range cases {
		gt.Equal(t, tc.want, e.Status(key, value(tc.value)))
	}
}

func TestStatusNeutral(t *testing.T) {
	e := threshold.New(nil)

	t.Run("NilValue", func(t *testing.T) {
		gt.Equal(t, types.HealthNeutral, e.Status(types.KPIBugInflowRate, nil))
	})

	t.Run("NaNValue", func(t *testing.T) {
		gt.Equal(t, types.HealthNeutral, e.Status(types.KPIBugInflowRate, value(math.NaN())))
	})

	t.Run("KPIWithoutThreshold", func(t *testing.T) {
		gt.Equal(t, types.HealthNeutral, e.Status(types.KPIAutomatedPct, value(42)))
		gt.Equal(t, types.HealthNeutral, e.Status(types.KPIKey("nonsense"), value(1)))
	})
}

func TestStatusCustomConfig(t *testing.T) {
	cfg := model.ThresholdConfig{
		types.KPIOpenBugCount: {Direction: model.LowerIsBetter, Green: 10, Yellow: 30},
	}
	e := threshold.New(cfg)

	gt.Equal(t, types.HealthGreen, e.Status(types.KPIOpenBugCount, value(10)))
	gt.Equal(t, types.HealthRed, e.Status(types.KPIOpenBugCount, value(31)))
	// Keys outside the custom table are neutral even if the default
	// table covers them
	gt.Equal(t, types.HealthNeutral, e.Status(types.KPIBugInflowRate, value(100)))
}

func TestStatusMap(t *testing.T) {
	e := threshold.New(nil)
	m := model.MetricSet{
		BugInflowRate: 3,
		SLA:           model.SLAMetric{VeryHighPercent: 50, HighPercent: 90},
		BacklogHealth: 75,
	}

	statuses := e.StatusMap(m)
	gt.Equal(t, len(types.KPIKeys), len(statuses))
	gt.Equal(t, types.HealthGreen, statuses[types.KPIBugInflowRate])
	gt.Equal(t, types.HealthRed, statuses[types.KPISLAVeryHighPct])
	gt.Equal(t, types.HealthGreen, statuses[types.KPISLAHighPct])
	gt.Equal(t, types.HealthYellow, statuses[types.KPIBacklogHealthScore])
	// MTTR medians are nil on an empty metric set
	gt.Equal(t, types.HealthNeutral, statuses[types.KPIMTTRVeryHighHours])
	// Informational KPIs have no thresholds
	gt.Equal(t, types.HealthNeutral, statuses[types.KPIAutomatedPct])
}

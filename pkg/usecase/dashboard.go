package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/interfaces"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
	"github.com/opsgrid/defectpulse/pkg/service/aging"
	"github.com/opsgrid/defectpulse/pkg/service/classifier"
	"github.com/opsgrid/defectpulse/pkg/service/threshold"
	"github.com/opsgrid/defectpulse/pkg/service/trend"
)

// defaultHistoryWeeks is the trend window handed to the analyzer
const defaultHistoryWeeks = 8

// Dashboard answers the presentation layer's reads over committed
// result sets. It never recomputes KPIs; it decorates persisted ones
// with health status and trend direction.
type Dashboard struct {
	repo         interfaces.Repository
	evaluator    *threshold.Evaluator
	classifier   *classifier.Classifier
	aging        *aging.Querier
	historyWeeks int
}

// DashboardOption is a functional option for configuring Dashboard
type DashboardOption func(*Dashboard)

// WithThresholds overrides the threshold table
func WithThresholds(cfg model.ThresholdConfig) DashboardOption {
	return func(d *Dashboard) {
		d.evaluator = threshold.New(cfg)
	}
}

// WithDashboardClassifier overrides the component classifier
func WithDashboardClassifier(c *classifier.Classifier) DashboardOption {
	return func(d *Dashboard) {
		d.classifier = c
	}
}

// WithHistoryWeeks overrides the trend history window length
func WithHistoryWeeks(weeks int) DashboardOption {
	return func(d *Dashboard) {
		d.historyWeeks = weeks
	}
}

// NewDashboard creates the dashboard read use case
func NewDashboard(repo interfaces.Repository, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		repo:         repo,
		historyWeeks: defaultHistoryWeeks,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.evaluator == nil {
		d.evaluator = threshold.New(nil)
	}
	if d.classifier == nil {
		c, err := classifier.New(nil)
		if err != nil {
			panic(err) // default rules are static
		}
		d.classifier = c
	}
	d.aging = aging.New(d.classifier.Classify)
	return d
}

// GetKPIs returns the committed result set for a week and category,
// decorated with per-KPI health status and trend direction
func (d *Dashboard) GetKPIs(ctx context.Context, weekEnding time.Time, category types.CategoryLabel) (*model.WeeklyReport, error) {
	if category == "" {
		category = types.CategoryAll
	}

	upload, err := d.repo.GetUploadByWeek(ctx, weekEnding)
	if err != nil {
		return nil, err
	}
	result, err := d.repo.GetResultSet(ctx, upload.ID, category)
	if err != nil {
		return nil, err
	}

	history, err := d.historyWindow(ctx, upload.WeekEnding, category, d.historyWeeks)
	if err != nil {
		return nil, err
	}

	trends := make(map[types.KPIKey]types.TrendDirection, len(types.KPIKeys))
	for _, key := range types.KPIKeys {
		values := make([]*float64, 0, len(history))
		for _, point := range history {
			if point.Result == nil {
				values = append(values, nil)
				continue
			}
			values = append(values, point.Result.Metrics.Value(key))
		}
		trends[key] = trend.Direction(values)
	}

	return &model.WeeklyReport{
		Upload:   upload,
		Result:   result,
		Statuses: d.evaluator.StatusMap(result.Metrics),
		Trends:   trends,
	}, nil
}

// ListAgingBugs answers the needs-triage view for one week: open
// VeryHigh/High records, sorted and capped, with the true match count
func (d *Dashboard) ListAgingBugs(ctx context.Context, weekEnding time.Time, category types.CategoryLabel, sortBy types.SortKey, order types.SortOrder, limit int) (*aging.Result, error) {
	upload, err := d.repo.GetUploadByWeek(ctx, weekEnding)
	if err != nil {
		return nil, err
	}
	records, err := d.repo.ListDefects(ctx, upload.ID)
	if err != nil {
		return nil, err
	}

	records = d.classifier.Filter(records, category)
	result := d.aging.AgingBugs(records, sortBy, order, limit)
	return &result, nil
}

// ListHistory returns an oldest-to-newest week sequence for sparkline
// and trend rendering, anchored at the most recent live upload. Weeks
// without an upload carry a nil result.
func (d *Dashboard) ListHistory(ctx context.Context, weeksBack int, category types.CategoryLabel) ([]*model.HistoryPoint, error) {
	if weeksBack <= 0 {
		weeksBack = d.historyWeeks
	}
	if category == "" {
		category = types.CategoryAll
	}

	latest, err := d.repo.ListUploads(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return []*model.HistoryPoint{}, nil
	}

	return d.historyWindow(ctx, latest[0].WeekEnding, category, weeksBack)
}

// ListUploads lists recent uploads, newest first
func (d *Dashboard) ListUploads(ctx context.Context, limit int) ([]*model.Upload, error) {
	return d.repo.ListUploads(ctx, limit)
}

// historyWindow collects the result sets of the given number of weeks
// ending at anchor, oldest first
func (d *Dashboard) historyWindow(ctx context.Context, anchor time.Time, category types.CategoryLabel, weeks int) ([]*model.HistoryPoint, error) {
	points := make([]*model.HistoryPoint, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		weekEnding := anchor.AddDate(0, 0, -7*i)
		point := &model.HistoryPoint{WeekEnding: weekEnding}

		upload, err := d.repo.GetUploadByWeek(ctx, weekEnding)
		if err != nil {
			if errors.Is(err, model.ErrUploadNotFound) {
				points = append(points, point)
				continue
			}
			return nil, goerr.Wrap(err, "failed to resolve history week",
				goerr.V("weekEnding", model.WeekKeyOf(weekEnding)))
		}

		result, err := d.repo.GetResultSet(ctx, upload.ID, category)
		if err != nil {
			if errors.Is(err, model.ErrResultNotFound) {
				// The category did not occur that week
				points = append(points, point)
				continue
			}
			return nil, goerr.Wrap(err, "failed to load history result set",
				goerr.V("weekEnding", model.WeekKeyOf(weekEnding)))
		}

		point.Result = result
		points = append(points, point)
	}
	return points, nil
}

var _ interfaces.Dashboard = (*Dashboard)(nil) // Compile-time interface check

package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/interfaces"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
	"github.com/opsgrid/defectpulse/pkg/service/classifier"
	"github.com/opsgrid/defectpulse/pkg/service/metrics"
	"github.com/sourcegraph/conc"
)

// Upload implements the upload ledger: it validates a batch, derives
// defect records, computes every weekly result set, and commits the
// whole thing atomically through the repository.
type Upload struct {
	repo          interfaces.Repository
	classifier    *classifier.Classifier
	engine        *metrics.Engine
	weekEndingDay time.Weekday
	now           func() time.Time
}

// UploadOption is a functional option for configuring the ledger
type UploadOption func(*Upload)

// WithClassifier overrides the component classifier
func WithClassifier(c *classifier.Classifier) UploadOption {
	return func(u *Upload) {
		u.classifier = c
	}
}

// WithWeekEndingDay overrides the tracker's week boundary weekday
func WithWeekEndingDay(day time.Weekday) UploadOption {
	return func(u *Upload) {
		u.weekEndingDay = day
	}
}

// WithClock overrides the wall clock (useful for testing)
func WithClock(now func() time.Time) UploadOption {
	return func(u *Upload) {
		u.now = now
	}
}

// NewUpload creates the upload ledger use case
func NewUpload(repo interfaces.Repository, opts ...UploadOption) *Upload {
	u := &Upload{
		repo:          repo,
		weekEndingDay: model.DefaultWeekEndingDay,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.classifier == nil {
		c, err := classifier.New(nil)
		if err != nil {
			panic(err) // default rules are static
		}
		u.classifier = c
	}
	if u.engine == nil {
		u.engine = metrics.New(
			metrics.WithClassifier(u.classifier),
			metrics.WithWeekStartDay(time.Weekday((int(u.weekEndingDay)+1)%7)),
		)
	}
	return u
}

// Classifier exposes the ledger's classifier so read paths share the
// same canonical rule order
func (u *Upload) Classifier() *classifier.Classifier {
	return u.classifier
}

// Commit ingests a batch for a new week. A week that already has a
// live upload yields model.ErrWeekConflict; the caller must invoke
// Replace explicitly.
func (u *Upload) Commit(ctx context.Context, weekEnding time.Time, uploadedBy string, rows []model.Row) (*model.Upload, error) {
	if err := model.ValidateRows(rows); err != nil {
		return nil, err
	}

	upload, err := model.NewUpload(weekEnding, len(rows), uploadedBy, u.weekEndingDay)
	if err != nil {
		return nil, err
	}

	records, err := u.buildRecords(ctx, upload.ID, rows)
	if err != nil {
		return nil, err
	}

	results := u.computeResultSets(upload, records)
	if err := u.repo.CreateUpload(ctx, upload, records, results); err != nil {
		return nil, err
	}

	ctxlog.From(ctx).Info("committed weekly upload",
		"uploadID", upload.ID,
		"weekEnding", upload.WeekKey(),
		"records", len(records),
		"resultSets", len(results),
	)
	return upload, nil
}

// Replace atomically swaps a live upload with a recomputed one for the
// same week. All prior records and result sets disappear with it.
func (u *Upload) Replace(ctx context.Context, oldID types.UploadID, uploadedBy string, rows []model.Row) (*model.Upload, error) {
	old, err := u.repo.GetUpload(ctx, oldID)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateRows(rows); err != nil {
		return nil, err
	}

	upload, err := model.NewUpload(old.WeekEnding, len(rows), uploadedBy, u.weekEndingDay)
	if err != nil {
		return nil, err
	}

	records, err := u.buildRecords(ctx, upload.ID, rows)
	if err != nil {
		return nil, err
	}

	results := u.computeResultSets(upload, records)
	if err := u.repo.ReplaceUpload(ctx, oldID, upload, records, results); err != nil {
		return nil, err
	}

	ctxlog.From(ctx).Info("replaced weekly upload",
		"oldUploadID", oldID,
		"uploadID", upload.ID,
		"weekEnding", upload.WeekKey(),
		"records", len(records),
	)
	return upload, nil
}

// buildRecords derives immutable defect records from validated rows.
// Per-record anomalies are warnings: logged, field nulled, batch kept.
func (u *Upload) buildRecords(ctx context.Context, uploadID types.UploadID, rows []model.Row) ([]*model.DefectRecord, error) {
	logger := ctxlog.From(ctx)

	records := make([]*model.DefectRecord, 0, len(rows))
	for _, row := range rows {
		rec, warnings, err := model.NewDefectRecord(uploadID, row)
		if err != nil {
			// ValidateRows ran first, so this is a programming error
			return nil, goerr.Wrap(err, "failed to build defect record")
		}
		for _, w := range warnings {
			logger.Warn("computation warning",
				"key", w.Key,
				"field", w.Field,
				"reason", w.Reason,
			)
		}
		records = append(records, rec)
	}
	return records, nil
}

// computeResultSets builds the "all" aggregate plus one result set per
// distinct category. The computations share an immutable snapshot and
// no state, so they fan out in parallel.
func (u *Upload) computeResultSets(upload *model.Upload, records []*model.DefectRecord) []*model.WeeklyResultSet {
	categories := u.classifier.Categories(records)
	calculatedAt := u.now().UTC()
	// KPIs are measured at the end of the reporting week
	asOf := upload.WeekEnding.AddDate(0, 0, 1)

	results := make([]*model.WeeklyResultSet, len(categories)+1)

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		results[0] = &model.WeeklyResultSet{
			UploadID:     upload.ID,
			Category:     types.CategoryAll,
			CalculatedAt: calculatedAt,
			Metrics:      u.engine.Compute(records, asOf),
		}
	})
	for i, category := range categories {
		subset := u.classifier.Filter(records, category)
		idx := i + 1
		cat := category
		wg.Go(func() {
			results[idx] = &model.WeeklyResultSet{
				UploadID:     upload.ID,
				Category:     cat,
				CalculatedAt: calculatedAt,
				Metrics:      u.engine.Compute(subset, asOf),
			}
		})
	}
	wg.Wait()

	return results
}

var _ interfaces.UploadLedger = (*Upload)(nil) // Compile-time interface check

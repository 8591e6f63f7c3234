package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
	"github.com/opsgrid/defectpulse/pkg/repository"
)

var week = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC) // a Saturday

func newUpload(t *testing.T, weekEnding time.Time, records int) *model.Upload {
	t.Helper()
	upload, err := model.NewUpload(weekEnding, records, "tester", model.DefaultWeekEndingDay)
	gt.NoError(t, err)
	return upload
}

func defectsFor(upload *model.Upload, keys ...string) []*model.DefectRecord {
	records := make([]*model.DefectRecord, 0, len(keys))
	for i, key := range keys {
		records = append(records, &model.DefectRecord{
			Key:       types.DefectKey(key),
			UploadID:  upload.ID,
			Priority:  types.PriorityHigh,
			Status:    "Open",
			CreatedAt: upload.WeekEnding.AddDate(0, 0, -(i + 1)),
		})
	}
	return records
}

func resultsFor(upload *model.Upload, categories ...types.CategoryLabel) []*model.WeeklyResultSet {
	results := []*model.WeeklyResultSet{{
		UploadID:     upload.ID,
		Category:     types.CategoryAll,
		CalculatedAt: time.Now().UTC(),
	}}
	for _, c := range categories {
		results = append(results, &model.WeeklyResultSet{
			UploadID:     upload.ID,
			Category:     c,
			CalculatedAt: time.Now().UTC(),
		})
	}
	return results
}

func TestMemoryCreateUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndRead", func(t *testing.T) {
		repo := repository.NewMemory()
		defer repo.Close()

		upload := newUpload(t, week, 2)
		err := repo.CreateUpload(ctx, upload, defectsFor(upload, "OPS-1", "OPS-2"), resultsFor(upload, "networking"))
		gt.NoError(t, err)

		got, err := repo.GetUpload(ctx, upload.ID)
		gt.NoError(t, err)
		gt.Equal(t, upload.ID, got.ID)
		gt.Equal(t, "2026-08-15", got.WeekKey())

		byWeek, err := repo.GetUploadByWeek(ctx, week)
		gt.NoError(t, err)
		gt.Equal(t, upload.ID, byWeek.ID)

		defects, err := repo.ListDefects(ctx, upload.ID)
		gt.NoError(t, err)
		gt.Equal(t, 2, len(defects))
	})

	t.Run("WeekConflict", func(t *testing.T) {
		repo := repository.NewMemory()
		defer repo.Close()

		first := newUpload(t, week, 1)
		gt.NoError(t, repo.CreateUpload(ctx, first, defectsFor(first, "OPS-1"), resultsFor(first)))

		second := newUpload(t, week, 1)
		err := repo.CreateUpload(ctx, second, defectsFor(second, "OPS-1"), resultsFor(second))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrWeekConflict))

		// First upload stays live
		live, err := repo.GetUploadByWeek(ctx, week)
		gt.NoError(t, err)
		gt.Equal(t, first.ID, live.ID)
	})

	t.Run("DifferentWeeksCoexist", func(t *testing.T) {
		repo := repository.NewMemory()
		defer repo.Close()

		a := newUpload(t, week, 1)
		b := newUpload(t, week.AddDate(0, 0, 7), 1)
		gt.NoError(t, repo.CreateUpload(ctx, a, defectsFor(a, "OPS-1"), resultsFor(a)))
		gt.NoError(t, repo.CreateUpload(ctx, b, defectsFor(b, "OPS-1"), resultsFor(b)))
	})

	t.Run("MismatchedUploadIDRejected", func(t *testing.T) {
		repo := repository.NewMemory()
		defer repo.Close()

		upload := newUpload(t, week, 1)
		other := newUpload(t, week.AddDate(0, 0, 7), 1)
		err := repo.CreateUpload(ctx, upload, defectsFor(other, "OPS-1"), resultsFor(upload))
		gt.Error(t, err)
	})
}

func TestMemoryReplaceUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplacesEverything", func(t *testing.T) {
		repo := repository.NewMemory()
		defer repo.Close()

		old := newUpload(t, week, 3)
		gt.NoError(t, repo.CreateUpload(ctx, old, defectsFor(old, "OPS-1", "OPS-2", "OPS-3"), resultsFor(old, "storage")))

		replacement := newUpload(t, week, 1)
		gt.NoError(t, repo.ReplaceUpload(ctx, old.ID, replacement, defectsFor(replacement, "OPS-9"), resultsFor(replacement)))

		// The old upload and everything tied to it is gone
		_, err := repo.GetUpload(ctx, old.ID)
		gt.True(t, errors.Is(err, model.ErrUploadNotFound))
		_, err = repo.ListDefects(ctx, old.ID)
		gt.Error(t, err)

		live, err := repo.GetUploadByWeek(ctx, week)
		gt.NoError(t, err)
		gt.Equal(t, replacement.ID, live.ID)

		defects, err := repo.ListDefects(ctx, replacement.ID)
		gt.NoError(t, err)
		gt.Equal(t, 1, len(defects))
		gt.Equal(t, types.DefectKey("OPS-9"), defects[0].Key)
	})

	t.Run("MissingOldUpload", func(t *testing.T) {
		repo := repository.NewMemory()
		defer repo.Close()

		replacement := newUpload(t, week, 1)
		err := repo.ReplaceUpload(ctx, types.NewUploadID(), replacement, defectsFor(replacement, "OPS-1"), resultsFor(replacement))
		gt.True(t, errors.Is(err, model.ErrUploadNotFound))
	})

	t.Run("WeekMismatchRejected", func(t *testing.T) {
		repo := repository.NewMemory()
		defer repo.Close()

		old := newUpload(t, week, 1)
		gt.NoError(t, repo.CreateUpload(ctx, old, defectsFor(old, "OPS-1"), resultsFor(old)))

		otherWeek := newUpload(t, week.AddDate(0, 0, 7), 1)
		err := repo.ReplaceUpload(ctx, old.ID, otherWeek, defectsFor(otherWeek, "OPS-1"), resultsFor(otherWeek))
		gt.Error(t, err)
	})
}

func TestMemoryListUploads(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	defer repo.Close()

	weeks := []time.Time{week, week.AddDate(0, 0, 14), week.AddDate(0, 0, 7)}
	for _, w := range weeks {
		upload := newUpload(t, w, 1)
		gt.NoError(t, repo.CreateUpload(ctx, upload, defectsFor(upload, "OPS-1"), resultsFor(upload)))
	}

	t.Run("NewestFirst", func(t *testing.T) {
		uploads, err := repo.ListUploads(ctx, 0)
		gt.NoError(t, err)
		gt.Equal(t, 3, len(uploads))
		gt.Equal(t, "2026-08-29", uploads[0].WeekKey())
		gt.Equal(t, "2026-08-22", uploads[1].WeekKey())
		gt.Equal(t, "2026-08-15", uploads[2].WeekKey())
	})

	t.Run("Limited", func(t *testing.T) {
		uploads, err := repo.ListUploads(ctx, 2)
		gt.NoError(t, err)
		gt.Equal(t, 2, len(uploads))
		gt.Equal(t, "2026-08-29", uploads[0].WeekKey())
	})
}

func TestMemoryResultSets(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	defer repo.Close()

	upload := newUpload(t, week, 1)
	gt.NoError(t, repo.CreateUpload(ctx, upload, defectsFor(upload, "OPS-1"), resultsFor(upload, "storage", "auth")))

	t.Run("GetByCategory", func(t *testing.T) {
		rs, err := repo.GetResultSet(ctx, upload.ID, "storage")
		gt.NoError(t, err)
		gt.Equal(t, types.CategoryLabel("storage"), rs.Category)
	})

	t.Run("EmptyCategoryMeansAll", func(t *testing.T) {
		rs, err := repo.GetResultSet(ctx, upload.ID, "")
		gt.NoError(t, err)
		gt.Equal(t, types.CategoryAll, rs.Category)
	})

	t.Run("MissingCategory", func(t *testing.T) {
		_, err := repo.GetResultSet(ctx, upload.ID, "billing")
		gt.True(t, errors.Is(err, model.ErrResultNotFound))
	})

	t.Run("ListAggregateFirst", func(t *testing.T) {
		results, err := repo.ListResultSets(ctx, upload.ID)
		gt.NoError(t, err)
		gt.Equal(t, 3, len(results))
		gt.Equal(t, types.CategoryAll, results[0].Category)
		gt.Equal(t, types.CategoryLabel("auth"), results[1].Category)
		gt.Equal(t, types.CategoryLabel("storage"), results[2].Category)
	})
}

func TestMemoryReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	defer repo.Close()

	upload := newUpload(t, week, 1)
	gt.NoError(t, repo.CreateUpload(ctx, upload, defectsFor(upload, "OPS-1"), resultsFor(upload)))

	got, err := repo.GetUpload(ctx, upload.ID)
	gt.NoError(t, err)
	got.UploadedBy = "mutated"

	again, err := repo.GetUpload(ctx, upload.ID)
	gt.NoError(t, err)
	gt.Equal(t, "tester", again.UploadedBy)
}

package interfaces

import (
	"context"
	"time"

	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
	"github.com/opsgrid/defectpulse/pkg/service/aging"
)

// UploadLedger governs the weekly batch lifecycle
type UploadLedger interface {
	// Commit ingests a validated batch for a new week. Fails with a
	// conflict when the week already has a live upload.
	Commit(ctx context.Context, weekEnding time.Time, uploadedBy string, rows []model.Row) (*model.Upload, error)

	// Replace atomically swaps an existing upload with a recomputed one
	Replace(ctx context.Context, oldID types.UploadID, uploadedBy string, rows []model.Row) (*model.Upload, error)
}

// Dashboard answers the presentation layer's reads
type Dashboard interface {
	GetKPIs(ctx context.Context, weekEnding time.Time, category types.CategoryLabel) (*model.WeeklyReport, error)
	ListAgingBugs(ctx context.Context, weekEnding time.Time, category types.CategoryLabel, sortBy types.SortKey, order types.SortOrder, limit int) (*aging.Result, error)
	ListHistory(ctx context.Context, weeksBack int, category types.CategoryLabel) ([]*model.HistoryPoint, error)
	ListUploads(ctx context.Context, limit int) ([]*model.Upload, error)
}

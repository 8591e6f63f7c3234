package interfaces

import (
	"context"
	"time"

	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// Repository defines the interface for upload ledger persistence.
//
// CreateUpload and ReplaceUpload are the only writes. Both are atomic:
// an upload, its defect records, and its result sets become visible
// together or not at all, and uniqueness of the live upload per
// week-ending date is enforced by the storage layer so that concurrent
// writers for the same week fail fast with model.ErrWeekConflict
// instead of racing a check-then-insert.
type Repository interface {
	// CreateUpload commits a new weekly batch. Returns
	// model.ErrWeekConflict when a live upload already exists for the
	// upload's week-ending date.
	CreateUpload(ctx context.Context, upload *model.Upload, records []*model.DefectRecord, results []*model.WeeklyResultSet) error

	// ReplaceUpload atomically swaps the prior upload for the given
	// week with a new one: the old upload and every defect record and
	// result set tied to it disappear, the new set appears, and
	// readers never observe a mix of the two.
	ReplaceUpload(ctx context.Context, oldID types.UploadID, upload *model.Upload, records []*model.DefectRecord, results []*model.WeeklyResultSet) error

	// Upload reads
	GetUpload(ctx context.Context, id types.UploadID) (*model.Upload, error)
	GetUploadByWeek(ctx context.Context, weekEnding time.Time) (*model.Upload, error)
	ListUploads(ctx context.Context, limit int) ([]*model.Upload, error)

	// Defect and result-set reads, scoped to one upload
	ListDefects(ctx context.Context, uploadID types.UploadID) ([]*model.DefectRecord, error)
	GetResultSet(ctx context.Context, uploadID types.UploadID, category types.CategoryLabel) (*model.WeeklyResultSet, error)
	ListResultSets(ctx context.Context, uploadID types.UploadID) ([]*model.WeeklyResultSet, error)

	// Close closes the repository connection
	Close() error
}

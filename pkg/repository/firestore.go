package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/interfaces"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// Collection names
	uploadsCollection = "uploads"
	weeksCollection   = "weeks"
	defectsCollection = "defects"
	resultsCollection = "result_sets"
)

// weekPointer is the uniqueness anchor: one document per week-ending
// date, created with tx.Create so a second concurrent writer for the
// same week fails the transaction instead of racing a check-then-act.
type weekPointer struct {
	UploadID   string
	WeekEnding time.Time
}

// Firestore implements Repository with Firestore.
//
// Writes stage the upload's defect records and result sets under a
// fresh upload ID first, then publish the upload and its week pointer
// in a single transaction. Readers only discover an upload ID through
// the pointer or the uploads collection, so a half-staged batch is
// never observable; replace swaps the pointer in the same transaction
// that retires the old upload document.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	// Fail fast on credential problems; an empty collection is fine
	_, err = client.Collection(uploadsCollection).Limit(1).Documents(ctx).Next()
	if err != nil && err != iterator.Done {
		if status.Code(err) == codes.PermissionDenied || status.Code(err) == codes.Unauthenticated {
			_ = client.Close()
			return nil, goerr.Wrap(err, "failed to connect to firestore project",
				goerr.V("firestore error code", status.Code(err).String()),
			)
		}
		logger.Debug("Firestore connection test returned error (may be empty collection)",
			"error", err,
			"errorCode", status.Code(err).String(),
		)
	}

	logger.Info("Firestore repository initialized successfully",
		"projectID", projectID,
		"databaseID", databaseID,
	)

	return &Firestore{client: client}, nil
}

func defectDocID(uploadID types.UploadID, key types.DefectKey) string {
	return fmt.Sprintf("%s:%s", uploadID, strings.ReplaceAll(key.String(), "/", "_"))
}

func resultDocID(uploadID types.UploadID, category types.CategoryLabel) string {
	return fmt.Sprintf("%s:%s", uploadID, category)
}

// stage writes an upload's defect records and result sets. The docs
// are keyed by the new upload ID and stay unreachable until the upload
// document and its week pointer are published transactionally.
func (f *Firestore) stage(ctx context.Context, upload *model.Upload, records []*model.DefectRecord, results []*model.WeeklyResultSet) error {
	bw := f.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for _, rec := range records {
		doc := f.client.Collection(defectsCollection).Doc(defectDocID(upload.ID, rec.Key))
		job, err := bw.Set(doc, rec)
		if err != nil {
			return goerr.Wrap(err, "failed to stage defect record", goerr.V("key", rec.Key))
		}
		jobs = append(jobs, job)
	}
	for _, rs := range results {
		doc := f.client.Collection(resultsCollection).Doc(resultDocID(upload.ID, rs.Category))
		job, err := bw.Set(doc, rs)
		if err != nil {
			return goerr.Wrap(err, "failed to stage result set", goerr.V("category", rs.Category))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to flush staged documents")
		}
	}
	return nil
}

// unstage removes staged or retired docs. Best effort: leftovers are
// unreachable and harmless, so errors are logged, not returned.
func (f *Firestore) unstage(ctx context.Context, uploadID types.UploadID, records []*model.DefectRecord, results []*model.WeeklyResultSet) {
	logger := ctxlog.From(ctx)
	bw := f.client.BulkWriter(ctx)
	for _, rec := range records {
		doc := f.client.Collection(defectsCollection).Doc(defectDocID(uploadID, rec.Key))
		if _, err := bw.Delete(doc); err != nil {
			logger.Warn("failed to delete staged defect doc", "uploadID", uploadID, "key", rec.Key, "error", err)
		}
	}
	for _, rs := range results {
		doc := f.client.Collection(resultsCollection).Doc(resultDocID(uploadID, rs.Category))
		if _, err := bw.Delete(doc); err != nil {
			logger.Warn("failed to delete staged result doc", "uploadID", uploadID, "category", rs.Category, "error", err)
		}
	}
	bw.End()
}

// CreateUpload commits a new weekly batch. The week pointer is created
// inside the transaction, so the storage layer enforces the
// one-live-upload-per-week invariant.
func (f *Firestore) CreateUpload(ctx context.Context, upload *model.Upload, records []*model.DefectRecord, results []*model.WeeklyResultSet) error {
	if err := validateWrite(upload, records, results); err != nil {
		return err
	}

	if err := f.stage(ctx, upload, records, results); err != nil {
		return err
	}

	weekDoc := f.client.Collection(weeksCollection).Doc(upload.WeekKey())
	uploadDoc := f.client.Collection(uploadsCollection).Doc(upload.ID.String())

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Get(weekDoc)
		if err == nil {
			var ptr weekPointer
			if derr := existing.DataTo(&ptr); derr != nil {
				return goerr.Wrap(derr, "failed to decode week pointer")
			}
			return goerr.Wrap(model.ErrWeekConflict, "week already has a live upload",
				goerr.V("weekEnding", upload.WeekKey()),
				goerr.V("existingUploadID", ptr.UploadID))
		}
		if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to check week pointer")
		}

		if err := tx.Create(weekDoc, weekPointer{UploadID: upload.ID.String(), WeekEnding: upload.WeekEnding}); err != nil {
			return goerr.Wrap(err, "failed to create week pointer")
		}
		if err := tx.Create(uploadDoc, upload); err != nil {
			return goerr.Wrap(err, "failed to create upload document")
		}
		return nil
	})
	if err != nil {
		f.unstage(ctx, upload.ID, records, results)
		return err
	}

	return nil
}

// ReplaceUpload swaps the week pointer from the old upload to the new
// one. The pointer swap and the upload document exchange happen in one
// transaction; the retired docs are then removed out of band because
// nothing can reach them anymore.
func (f *Firestore) ReplaceUpload(ctx context.Context, oldID types.UploadID, upload *model.Upload, records []*model.DefectRecord, results []*model.WeeklyResultSet) error {
	if oldID == "" {
		return goerr.New("old upload ID is empty")
	}
	if err := validateWrite(upload, records, results); err != nil {
		return err
	}

	oldRecords, err := f.ListDefects(ctx, oldID)
	if err != nil {
		return goerr.Wrap(err, "failed to load records of upload being replaced")
	}
	oldResults, err := f.ListResultSets(ctx, oldID)
	if err != nil {
		return goerr.Wrap(err, "failed to load result sets of upload being replaced")
	}

	if err := f.stage(ctx, upload, records, results); err != nil {
		return err
	}

	weekDoc := f.client.Collection(weeksCollection).Doc(upload.WeekKey())
	oldUploadDoc := f.client.Collection(uploadsCollection).Doc(oldID.String())
	newUploadDoc := f.client.Collection(uploadsCollection).Doc(upload.ID.String())

	err = f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Get(weekDoc)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrUploadNotFound, "no live upload for week",
					goerr.V("weekEnding", upload.WeekKey()))
			}
			return goerr.Wrap(err, "failed to get week pointer")
		}

		var ptr weekPointer
		if err := existing.DataTo(&ptr); err != nil {
			return goerr.Wrap(err, "failed to decode week pointer")
		}
		if ptr.UploadID != oldID.String() {
			return goerr.Wrap(model.ErrWeekConflict, "upload is no longer live for the week",
				goerr.V("weekEnding", upload.WeekKey()),
				goerr.V("liveUploadID", ptr.UploadID))
		}

		if err := tx.Set(weekDoc, weekPointer{UploadID: upload.ID.String(), WeekEnding: upload.WeekEnding}); err != nil {
			return goerr.Wrap(err, "failed to swap week pointer")
		}
		if err := tx.Delete(oldUploadDoc); err != nil {
			return goerr.Wrap(err, "failed to delete old upload document")
		}
		if err := tx.Create(newUploadDoc, upload); err != nil {
			return goerr.Wrap(err, "failed to create new upload document")
		}
		return nil
	})
	if err != nil {
		f.unstage(ctx, upload.ID, records, results)
		return err
	}

	// Old docs are unreachable now; remove them out of band
	f.unstage(ctx, oldID, oldRecords, oldResults)
	return nil
}

// GetUpload retrieves an upload by ID
func (f *Firestore) GetUpload(ctx context.Context, id types.UploadID) (*model.Upload, error) {
	if id == "" {
		return nil, goerr.New("upload ID is empty")
	}

	doc, err := f.client.Collection(uploadsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrUploadNotFound, "failed to get upload",
				goerr.V("uploadID", id))
		}
		return nil, goerr.Wrap(err, "failed to get upload from firestore")
	}

	var upload model.Upload
	if err := doc.DataTo(&upload); err != nil {
		return nil, goerr.Wrap(err, "failed to decode upload")
	}
	return &upload, nil
}

// GetUploadByWeek retrieves the live upload for a week-ending date via
// the week pointer
func (f *Firestore) GetUploadByWeek(ctx context.Context, weekEnding time.Time) (*model.Upload, error) {
	if weekEnding.IsZero() {
		return nil, goerr.New("week ending date is required")
	}

	weekKey := model.WeekKeyOf(weekEnding)
	doc, err := f.client.Collection(weeksCollection).Doc(weekKey).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrUploadNotFound, "no upload for week",
				goerr.V("weekEnding", weekKey))
		}
		return nil, goerr.Wrap(err, "failed to get week pointer")
	}

	var ptr weekPointer
	if err := doc.DataTo(&ptr); err != nil {
		return nil, goerr.Wrap(err, "failed to decode week pointer")
	}
	return f.GetUpload(ctx, types.UploadID(ptr.UploadID))
}

// ListUploads lists uploads sorted by week-ending date, newest first.
// Sorting happens in memory to avoid a composite index requirement.
func (f *Firestore) ListUploads(ctx context.Context, limit int) ([]*model.Upload, error) {
	iter := f.client.Collection(uploadsCollection).Documents(ctx)
	defer iter.Stop()

	var uploads []*model.Upload
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate uploads")
		}

		var upload model.Upload
		if err := doc.DataTo(&upload); err != nil {
			return nil, goerr.Wrap(err, "failed to decode upload")
		}
		uploads = append(uploads, &upload)
	}

	sort.Slice(uploads, func(i, j int) bool {
		return uploads[i].WeekEnding.After(uploads[j].WeekEnding)
	})

	if limit > 0 && len(uploads) > limit {
		uploads = uploads[:limit]
	}
	return uploads, nil
}

// ListDefects retrieves every defect record of an upload
func (f *Firestore) ListDefects(ctx context.Context, uploadID types.UploadID) ([]*model.DefectRecord, error) {
	if uploadID == "" {
		return nil, goerr.New("upload ID is empty")
	}

	iter := f.client.Collection(defectsCollection).
		Where("UploadID", "==", uploadID.String()).
		Documents(ctx)
	defer iter.Stop()

	var records []*model.DefectRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate defect records")
		}

		var rec model.DefectRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, goerr.Wrap(err, "failed to decode defect record")
		}
		records = append(records, &rec)
	}
	return records, nil
}

// GetResultSet retrieves the result set of one (upload, category) pair
func (f *Firestore) GetResultSet(ctx context.Context, uploadID types.UploadID, category types.CategoryLabel) (*model.WeeklyResultSet, error) {
	if uploadID == "" {
		return nil, goerr.New("upload ID is empty")
	}
	if category == "" {
		category = types.CategoryAll
	}

	doc, err := f.client.Collection(resultsCollection).Doc(resultDocID(uploadID, category)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrResultNotFound, "failed to get result set",
				goerr.V("uploadID", uploadID), goerr.V("category", category))
		}
		return nil, goerr.Wrap(err, "failed to get result set from firestore")
	}

	var rs model.WeeklyResultSet
	if err := doc.DataTo(&rs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode result set")
	}
	return &rs, nil
}

// ListResultSets retrieves every result set of an upload, the "all"
// aggregate first
func (f *Firestore) ListResultSets(ctx context.Context, uploadID types.UploadID) ([]*model.WeeklyResultSet, error) {
	if uploadID == "" {
		return nil, goerr.New("upload ID is empty")
	}

	iter := f.client.Collection(resultsCollection).
		Where("UploadID", "==", uploadID.String()).
		Documents(ctx)
	defer iter.Stop()

	var results []*model.WeeklyResultSet
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate result sets")
		}

		var rs model.WeeklyResultSet
		if err := doc.DataTo(&rs); err != nil {
			return nil, goerr.Wrap(err, "failed to decode result set")
		}
		results = append(results, &rs)
	}

	sort.Slice(results, func(i, j int) bool {
		if (results[i].Category == types.CategoryAll) != (results[j].Category == types.CategoryAll) {
			return results[i].Category == types.CategoryAll
		}
		return results[i].Category < results[j].Category
	})
	return results, nil
}

// Close closes the Firestore client
func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

var _ interfaces.Repository = (*Firestore)(nil) // Compile-time interface check

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/interfaces"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// Memory implements Repository with in-memory storage. The single
// write lock makes CreateUpload and ReplaceUpload trivially atomic;
// reads return copies so callers cannot mutate committed state.
type Memory struct {
	mu      sync.RWMutex
	uploads map[types.UploadID]*model.Upload
	weeks   map[string]types.UploadID
	defects map[types.UploadID][]*model.DefectRecord
	results map[types.UploadID]map[types.CategoryLabel]*model.WeeklyResultSet
}

// NewMemory creates a new memory repository
func NewMemory() *Memory {
	return &Memory{
		uploads: make(map[types.UploadID]*model.Upload),
		weeks:   make(map[string]types.UploadID),
		defects: make(map[types.UploadID][]*model.DefectRecord),
		results: make(map[types.UploadID]map[types.CategoryLabel]*model.WeeklyResultSet),
	}
}

func validateWrite(upload *model.Upload, records []*model.DefectRecord, results []*model.WeeklyResultSet) error {
	if upload == nil {
		return goerr.New("upload is nil")
	}
	if upload.ID == "" {
		return goerr.New("upload ID is empty")
	}
	for _, rec := range records {
		if rec.UploadID != upload.ID {
			return goerr.New("defect record belongs to another upload",
				goerr.V("key", rec.Key), goerr.V("recordUploadID", rec.UploadID))
		}
	}
	for _, rs := range results {
		if rs.UploadID != upload.ID {
			return goerr.New("result set belongs to another upload",
				goerr.V("category", rs.Category), goerr.V("resultUploadID", rs.UploadID))
		}
	}
	return nil
}

// CreateUpload commits a new weekly batch, failing with
// model.ErrWeekConflict when the week already has a live upload
func (m *Memory) CreateUpload(ctx context.Context, upload *model.Upload, records []*model.DefectRecord, results []*model.WeeklyResultSet) error {
	if err := validateWrite(upload, records, results); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	weekKey := upload.WeekKey()
	if existing, ok := m.weeks[weekKey]; ok {
		return goerr.Wrap(model.ErrWeekConflict, "week already has a live upload",
			goerr.V("weekEnding", weekKey),
			goerr.V("existingUploadID", existing))
	}

	m.insertLocked(upload, records, results)
	return nil
}

// ReplaceUpload atomically swaps the prior upload for the week with a
// new one under the write lock
func (m *Memory) ReplaceUpload(ctx context.Context, oldID types.UploadID, upload *model.Upload, records []*model.DefectRecord, results []*model.WeeklyResultSet) error {
	if oldID == "" {
		return goerr.New("old upload ID is empty")
	}
	if err := validateWrite(upload, records, results); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.uploads[oldID]
	if !ok {
		return goerr.Wrap(model.ErrUploadNotFound, "cannot replace missing upload",
			goerr.V("uploadID", oldID))
	}
	weekKey := upload.WeekKey()
	if old.WeekKey() != weekKey {
		return goerr.New("replacement week differs from existing upload",
			goerr.T(model.ErrTagValidation),
			goerr.V("existingWeek", old.WeekKey()),
			goerr.V("newWeek", weekKey))
	}
	if live := m.weeks[weekKey]; live != oldID {
		return goerr.Wrap(model.ErrWeekConflict, "upload is no longer live for the week",
			goerr.V("weekEnding", weekKey),
			goerr.V("liveUploadID", live))
	}

	delete(m.uploads, oldID)
	delete(m.defects, oldID)
	delete(m.results, oldID)
	m.insertLocked(upload, records, results)
	return nil
}

func (m *Memory) insertLocked(upload *model.Upload, records []*model.DefectRecord, results []*model.WeeklyResultSet) {
	uploadCopy := *upload
	m.uploads[upload.ID] = &uploadCopy
	m.weeks[upload.WeekKey()] = upload.ID

	recs := make([]*model.DefectRecord, 0, len(records))
	for _, rec := range records {
		recCopy := *rec
		recs = append(recs, &recCopy)
	}
	m.defects[upload.ID] = recs

	byCategory := make(map[types.CategoryLabel]*model.WeeklyResultSet, len(results))
	for _, rs := range results {
		rsCopy := *rs
		byCategory[rs.Category] = &rsCopy
	}
	m.results[upload.ID] = byCategory
}

// GetUpload retrieves an upload by ID
func (m *Memory) GetUpload(ctx context.Context, id types.UploadID) (*model.Upload, error) {
	if id == "" {
		return nil, goerr.New("upload ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	upload, ok := m.uploads[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrUploadNotFound, "failed to get upload",
			goerr.V("uploadID", id))
	}

	uploadCopy := *upload
	return &uploadCopy, nil
}

// GetUploadByWeek retrieves the live upload for a week-ending date
func (m *Memory) GetUploadByWeek(ctx context.Context, weekEnding time.Time) (*model.Upload, error) {
	if weekEnding.IsZero() {
		return nil, goerr.New("week ending date is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.weeks[model.WeekKeyOf(weekEnding)]
	if !ok {
		return nil, goerr.Wrap(model.ErrUploadNotFound, "no upload for week",
			goerr.V("weekEnding", model.WeekKeyOf(weekEnding)))
	}

	uploadCopy := *m.uploads[id]
	return &uploadCopy, nil
}

// ListUploads lists uploads sorted by week-ending date, newest first
func (m *Memory) ListUploads(ctx context.Context, limit int) ([]*model.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uploads := make([]*model.Upload, 0, len(m.uploads))
	for _, upload := range m.uploads {
		uploadCopy := *upload
		uploads = append(uploads, &uploadCopy)
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
func (m *Memory) ListDefects(ctx context.Context, uploadID types.UploadID) ([]*model.DefectRecord, error) {
	if uploadID == "" {
		return nil, goerr.New("upload ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.uploads[uploadID]; !ok {
		return nil, goerr.Wrap(model.ErrUploadNotFound, "failed to list defects",
			goerr.V("uploadID", uploadID))
	}

	records := make([]*model.DefectRecord, 0, len(m.defects[uploadID]))
	for _, rec := range m.defects[uploadID] {
		recCopy := *rec
		records = append(records, &recCopy)
	}
	return records, nil
}

// GetResultSet retrieves the result set of one (upload, category) pair
func (m *Memory) GetResultSet(ctx context.Context, uploadID types.UploadID, category types.CategoryLabel) (*model.WeeklyResultSet, error) {
	if uploadID == "" {
		return nil, goerr.New("upload ID is empty")
	}
	if category == "" {
		category = types.CategoryAll
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rs, ok := m.results[uploadID][category]
	if !ok {
		return nil, goerr.Wrap(model.ErrResultNotFound, "failed to get result set",
			goerr.V("uploadID", uploadID), goerr.V("category", category))
	}

	rsCopy := *rs
	return &rsCopy, nil
}

// ListResultSets retrieves every result set of an upload, the "all"
// aggregate first and the rest sorted by category
func (m *Memory) ListResultSets(ctx context.Context, uploadID types.UploadID) ([]*model.WeeklyResultSet, error) {
	if uploadID == "" {
		return nil, goerr.New("upload ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.uploads[uploadID]; !ok {
		return nil, goerr.Wrap(model.ErrUploadNotFound, "failed to list result sets",
			goerr.V("uploadID", uploadID))
	}

	results := make([]*model.WeeklyResultSet, 0, len(m.results[uploadID]))
	for _, rs := range m.results[uploadID] {
		rsCopy := *rs
		results = append(results, &rsCopy)
	}

	sort.Slice(results, func(i, j int) bool {
		if (results[i].Category == types.CategoryAll) != (results[j].Category == types.CategoryAll) {
			return results[i].Category == types.CategoryAll
		}
		return results[i].Category < results[j].Category
	})
	return results, nil
}

// Close does nothing for memory repository
func (m *Memory) Close() error {
	return nil
}

// Clear clears all data (useful for testing)
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = make(map[types.UploadID]*model.Upload)
	m.weeks = make(map[string]types.UploadID)
	m.defects = make(map[types.UploadID][]*model.DefectRecord)
	m.results = make(map[types.UploadID]map[types.CategoryLabel]*model.WeeklyResultSet)
}

var _ interfaces.Repository = (*Memory)(nil) // Compile-time interface check

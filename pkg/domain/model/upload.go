package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// DefaultWeekEndingDay is the tracker's week boundary. Exports are cut
// on Saturdays unless the deployment overrides it.
const DefaultWeekEndingDay = time.Saturday

// Upload is one ingested weekly batch. At most one live Upload exists
// per week-ending date; the ledger enforces this at the storage layer.
type Upload struct {
	ID          types.UploadID `json:"id"`
	WeekEnding  time.Time      `json:"week_ending"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	RecordCount int            `json:"record_count"`
	UploadedBy  string         `json:"uploaded_by"`
}

// NewUpload creates an Upload after checking the week-ending
// precondition: the date must fall on the configured boundary weekday.
// The time component is normalized away so equal weeks compare equal.
func NewUpload(weekEnding time.Time, recordCount int, uploadedBy string, boundary time.Weekday) (*Upload, error) {
	if weekEnding.IsZero() {
		return nil, goerr.New("week ending date is required", goerr.T(ErrTagValidation))
	}
	week := TruncateToDate(weekEnding)
	if week.Weekday() != boundary {
		return nil, goerr.New("week ending date is not on the week boundary day",
			goerr.T(ErrTagValidation),
			goerr.V("weekEnding", week.Format("2006-01-02")),
			goerr.V("got", week.Weekday().String()),
			goerr.V("want", boundary.String()),
		)
	}
	if recordCount < 0 {
		return nil, goerr.New("record count must not be negative", goerr.T(ErrTagValidation))
	}

	return &Upload{
		ID:          types.NewUploadID(),
		WeekEnding:  week,
		UploadedAt:  time.Now().UTC(),
		RecordCount: recordCount,
		UploadedBy:  uploadedBy,
	}, nil
}

// WeekKey returns the canonical identifier of the upload's week,
// used as the storage-level uniqueness key.
func (u *Upload) WeekKey() string {
	return WeekKeyOf(u.WeekEnding)
}

// WeekKeyOf formats a week-ending date as its canonical key
func WeekKeyOf(weekEnding time.Time) string {
	return TruncateToDate(weekEnding).Format("2006-01-02")
}

// TruncateToDate drops the time-of-day component, keeping the date in UTC
func TruncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package types

import (
	"github.com/google/uuid"
)

// UploadID identifies one committed weekly batch
type UploadID string

// String returns the string representation
func (id UploadID) String() string {
	return string(id)
}

// NewUploadID creates a new UploadID
func NewUploadID() UploadID {
	return UploadID(uuid.New().String())
}

// DefectKey is the tracker-side issue key (e.g. "OPS-1234"),
// unique within the tracker and stable across re-uploads
type DefectKey string

// String returns the string representation
func (k DefectKey) String() string {
	return string(k)
}

// CategoryLabel is a component category assigned by the classifier
type CategoryLabel string

// String returns the string representation
func (c CategoryLabel) String() string {
	return string(c)
}

const (
	// CategoryAll denotes the aggregate result set across all categories
	CategoryAll CategoryLabel = "all"
	// CategoryOther is the classifier fallback for unmatched records
	CategoryOther CategoryLabel = "other"
)

// HealthStatus is the qualitative judgement of a KPI value
type HealthStatus string

const (
	HealthGreen   HealthStatus = "green"
	HealthYellow  HealthStatus = "yellow"
	HealthRed     HealthStatus = "red"
	HealthNeutral HealthStatus = "neutral"
)

// String returns the string representation
func (s HealthStatus) String() string {
	return string(s)
}

// TrendDirection is the week-over-week movement of a KPI value.
// It carries no good/bad judgement; callers combine it with the
// KPI's threshold direction to pick a color.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
	// TrendNone means fewer than two valid data points were available
	TrendNone TrendDirection = "none"
)

// String returns the string representation
func (d TrendDirection) String() string {
	return string(d)
}

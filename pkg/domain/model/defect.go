package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// maxPlausibleResolutionHours caps the derived resolution duration.
// Anything above ten years is a data artifact (usually a bogus
// created-at from a tracker migration) and is discarded to null.
const maxPlausibleResolutionHours = 87600.0

// DefectRecord is one tracked issue inside a committed upload.
// Records are immutable after construction; a corrected set only
// arrives via a full upload replacement.
type DefectRecord struct {
	Key             types.DefectKey `json:"key"`
	UploadID        types.UploadID  `json:"upload_id"`
	Summary         string          `json:"summary"`
	Priority        types.Priority  `json:"priority"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	ResolutionHours *float64        `json:"resolution_hours,omitempty"`
	Reporter        string          `json:"reporter,omitempty"`
	Assignee        string          `json:"assignee,omitempty"`
	Labels          []string        `json:"labels,omitempty"`
}

// Warning is a per-record anomaly found while deriving fields.
// Warnings never reject the batch; the affected field is nulled and
// the record is kept.
type Warning struct {
	Key    types.DefectKey
	Field  string
	Reason string
}

// NewDefectRecord builds an immutable record from a validated row.
// Derivation anomalies (implausible resolution duration, unmapped
// status string) are reported as warnings, not errors.
func NewDefectRecord(uploadID types.UploadID, row Row) (*DefectRecord, []Warning, error) {
	priority, err := types.ParsePriority(row.Priority)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "invalid row priority", goerr.V("key", row.Key))
	}
	if row.CreatedAt == nil {
		return nil, nil, goerr.New("row has no created_at", goerr.V("key", row.Key))
	}

	rec := &DefectRecord{
		Key:        types.DefectKey(row.Key),
		UploadID:   uploadID,
		Summary:    row.Summary,
		Priority:   priority,
		Status:     row.Status,
		CreatedAt:  *row.CreatedAt,
		ResolvedAt: row.ResolvedAt,
		Reporter:   row.Reporter,
		Assignee:   row.Assignee,
		Labels:     append([]string(nil), row.Labels...),
	}

	var warnings []Warning

	if row.ResolvedAt != nil {
		hours := row.ResolvedAt.Sub(*row.CreatedAt).Hours()
		switch {
		case hours < 0:
			warnings = append(warnings, Warning{
				Key:    rec.Key,
				Field:  "resolution_hours",
				Reason: "resolved_at precedes created_at",
			})
		case hours > maxPlausibleResolutionHours:
			warnings = append(warnings, Warning{
				Key:    rec.Key,
				Field:  "resolution_hours",
				Reason: "resolution duration exceeds 10 years",
			})
		default:
			rec.ResolutionHours = &hours
		}
	}

	if rec.Family() == types.FamilyUnknown {
		warnings = append(warnings, Warning{
			Key:    rec.Key,
			Field:  "status",
			Reason: "status outside known open/resolved families",
		})
	}

	return rec, warnings, nil
}

// Family returns the lifecycle family of the record's status.
// It is always recomputed from the status string, never stored.
func (r *DefectRecord) Family() types.StatusFamily {
	return types.FamilyOfStatus(r.Status)
}

// IsOpen reports whether the record is in the open status family
func (r *DefectRecord) IsOpen() bool {
	return r.Family() == types.FamilyOpen
}

// IsResolved reports whether the record is in the resolved status family
func (r *DefectRecord) IsResolved() bool {
	return r.Family() == types.FamilyResolved
}

// AgeDays returns the record age in days at the given instant
func (r *DefectRecord) AgeDays(asOf time.Time) float64 {
	return asOf.Sub(r.CreatedAt).Hours() / 24
}

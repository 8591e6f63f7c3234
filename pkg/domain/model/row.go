package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// Row is one normalized tracker-export row as delivered by the
// ingestion collaborator. Parsing and column mapping happen upstream;
// the ledger only sees this shape.
type Row struct {
	Key        string     `json:"key"`
	Summary    string     `json:"summary"`
	Priority   string     `json:"priority"`
	Status     string     `json:"status"`
	CreatedAt  *time.Time `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Reporter   string     `json:"reporter,omitempty"`
	Assignee   string     `json:"assignee,omitempty"`
	Labels     []string   `json:"labels,omitempty"`
}

// ValidateRows checks the whole batch for structurally missing required
// fields. Validation is fail-fast and whole-batch: any defect rejects
// the entire upload with an enumerated list of problems, so the caller
// never sees a partially accepted batch.
func ValidateRows(rows []Row) error {
	if len(rows) == 0 {
		return goerr.New("batch contains no rows", goerr.T(ErrTagValidation))
	}

	var problems []string
	seen := make(map[string]int, len(rows))

	for i, row := range rows {
		if row.Key == "" {
			problems = append(problems, fmt.Sprintf("row %d: missing key", i))
		} else if prev, dup := seen[row.Key]; dup {
			problems = append(problems, fmt.Sprintf("row %d: duplicate key %q (first seen at row %d)", i, row.Key, prev))
		} else {
			seen[row.Key] = i
		}

		if row.Priority == "" {
			problems = append(problems, fmt.Sprintf("row %d: missing priority", i))
		} else if _, err := types.ParsePriority(row.Priority); err != nil {
			problems = append(problems, fmt.Sprintf("row %d: unknown priority %q", i, row.Priority))
		}

		if row.Status == "" {
			problems = append(problems, fmt.Sprintf("row %d: missing status", i))
		}
		if row.CreatedAt == nil {
			problems = append(problems, fmt.Sprintf("row %d: missing created_at", i))
		}
	}

	if len(problems) > 0 {
		return goerr.New("batch validation failed",
			goerr.T(ErrTagValidation),
			goerr.V("rowCount", len(rows)),
			goerr.V("problems", problems),
		)
	}

	return nil
}

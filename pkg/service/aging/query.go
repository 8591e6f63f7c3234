package aging

import (
	"sort"
	"strings"

	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// DisplayLimit caps the records returned for rendering. It is a
// presentation cap only; Result.Total always reports the full match
// count.
const DisplayLimit = 20

// Result is one answer of the needs-triage view
type Result struct {
	Records []*model.DefectRecord `json:"records"`
	Total   int                   `json:"total"`
}

// Querier filters, sorts, and limits open high-priority records.
// The classifier supplies the category column for category sorting.
type Querier struct {
	classify func(*model.DefectRecord) types.CategoryLabel
}

// New creates a Querier backed by the given classify function
func New(classify func(*model.DefectRecord) types.CategoryLabel) *Querier {
	return &Querier{classify: classify}
}

// AgingBugs filters to open records with VeryHigh or High priority,
// sorts them by the requested key, and caps the returned slice at the
// display limit while reporting the true total.
func (q *Querier) AgingBugs(records []*model.DefectRecord, sortBy types.SortKey, order types.SortOrder, limit int) Result {
	var matched []*model.DefectRecord
	for _, rec := range records {
		if !rec.IsOpen() {
			continue
		}
		if rec.Priority != types.PriorityVeryHigh && rec.Priority != types.PriorityHigh {
			continue
		}
		matched = append(matched, rec)
	}

	q.sortRecords(matched, sortBy, order)

	total := len(matched)
	if limit <= 0 || limit > DisplayLimit {
		limit = DisplayLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return Result{Records: matched, Total: total}
}

func (q *Querier) sortRecords(records []*model.DefectRecord, sortBy types.SortKey, order types.SortOrder) {
	desc := order == types.SortDesc

	// byAge orders oldest-created first, the default triage order
	byAge := func(a, b *model.DefectRecord) int {
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		default:
			return 0
		}
	}

	cmp := func(a, b *model.DefectRecord) int {
		switch sortBy {
		case types.SortByKey:
			return strings.Compare(string(a.Key), string(b.Key))
		case types.SortBySummary:
			return strings.Compare(strings.ToLower(a.Summary), strings.ToLower(b.Summary))
		case types.SortByPriority:
			// Severity rank, not alphabetic: VeryHigh always ahead of High
			return a.Priority.Rank() - b.Priority.Rank()
		case types.SortByCategory:
			return strings.Compare(string(q.classify(a)), string(q.classify(b)))
		case types.SortByStatus:
			return strings.Compare(strings.ToLower(a.Status), strings.ToLower(b.Status))
		case types.SortByAssignee:
			return strings.Compare(strings.ToLower(a.Assignee), strings.ToLower(b.Assignee))
		default:
			// Age: descending means oldest first, so flip the raw
			// created-at comparison
			return -byAge(a, b)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]

		// Unassigned records sort last under "Unassigned" regardless
		// of direction
		if sortBy == types.SortByAssignee {
			if (a.Assignee == "") != (b.Assignee == "") {
				return b.Assignee == ""
			}
		}

		c := cmp(a, b)
		if c == 0 {
			// Ties fall back to oldest-first
			return byAge(a, b) < 0
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

package aging_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
	"github.com/opsgrid/defectpulse/pkg/service/aging"
	"github.com/opsgrid/defectpulse/pkg/service/classifier"
)

var base = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func newQuerier(t *testing.T) *aging.Querier {
	t.Helper()
	c, err := classifier.New(nil)
	gt.NoError(t, err)
	return aging.New(c.Classify)
}

func openRec(key string, priority types.Priority, createdDaysAgo int) *model.DefectRecord {
	return &model.DefectRecord{
		Key:       types.DefectKey(key),
		Priority:  priority,
		Status:    "Open",
		CreatedAt: base.AddDate(0, 0, -createdDaysAgo),
	}
}

func TestAgingBugsFiltering(t *testing.T) {
	q := newQuerier(t)

	resolved := openRec("OPS-4", types.PriorityVeryHigh, 30)
	resolved.Status = "Resolved"

	records := []*model.DefectRecord{
		openRec("OPS-1", types.PriorityVeryHigh, 10),
		openRec("OPS-2", types.PriorityHigh, 5),
		openRec("OPS-3", types.PriorityMedium, 50), // never shown, whatever its age
		resolved,
		openRec("OPS-5", types.PriorityLow, 90),
	}

	result := q.AgingBugs(records, types.SortByAge, types.SortDesc, 0)
	gt.Equal(t, 2, result.Total)
	gt.Equal(t, 2, len(result.Records))
	for _, rec := range result.Records {
		gt.True(t, rec.IsOpen())
		gt.True(t, rec.Priority == types.PriorityVeryHigh || rec.Priority == types.PriorityHigh)
	}
}

func TestAgingBugsDefaultOrder(t *testing.T) {
	q := newQuerier(t)

	records := []*model.DefectRecord{
		openRec("OPS-1", types.PriorityHigh, 3),
		openRec("OPS-2", types.PriorityVeryHigh, 40),
		openRec("OPS-3", types.PriorityHigh, 12),
	}

	// Age descending is the triage default: oldest first
	result := q.AgingBugs(records, types.SortByAge, types.SortDesc, 0)
	gt.Equal(t, types.DefectKey("OPS-2"), result.Records[0].Key)
	gt.Equal(t, types.DefectKey("OPS-3"), result.Records[1].Key)
	gt.Equal(t, types.DefectKey("OPS-1"), result.Records[2].Key)

	// Ascending flips to newest first
	result = q.AgingBugs(records, types.SortByAge, types.SortAsc, 0)
	gt.Equal(t, types.DefectKey("OPS-1"), result.Records[0].Key)
}

func TestAgingBugsPriorityOrder(t *testing.T) {
	q := newQuerier(t)

	records := []*model.DefectRecord{
		openRec("OPS-1", types.PriorityHigh, 20),
		openRec("OPS-2", types.PriorityVeryHigh, 5),
		openRec("OPS-3", types.PriorityHigh, 30),
	}

	// Ascending priority means most severe first: severity rank, not
	// alphabetical order of the labels
	result := q.AgingBugs(records, types.SortByPriority, types.SortAsc, 0)
	gt.Equal(t, types.DefectKey("OPS-2"), result.Records[0].Key)
	// Equal priority ties fall back to oldest first
	gt.Equal(t, types.DefectKey("OPS-3"), result.Records[1].Key)
	gt.Equal(t, types.DefectKey("OPS-1"), result.Records[2].Key)
}

func TestAgingBugsAssigneeOrder(t *testing.T) {
	q := newQuerier(t)

	withAssignee := func(key, assignee string, daysAgo int) *model.DefectRecord {
		r := openRec(key, types.PriorityHigh, daysAgo)
		r.Assignee = assignee
		return r
	}

	records := []*model.DefectRecord{
		withAssignee("OPS-1", "", 10),
		withAssignee("OPS-2", "zoe", 5),
		withAssignee("OPS-3", "Adam", 7),
	}

	// Unassigned records sort last in both directions
	asc := q.AgingBugs(records, types.SortByAssignee, types.SortAsc, 0)
	gt.Equal(t, types.DefectKey("OPS-3"), asc.Records[0].Key)
	gt.Equal(t, types.DefectKey("OPS-2"), asc.Records[1].Key)
	gt.Equal(t, types.DefectKey("OPS-1"), asc.Records[2].Key)

	desc := q.AgingBugs(records, types.SortByAssignee, types.SortDesc, 0)
	gt.Equal(t, types.DefectKey("OPS-2"), desc.Records[0].Key)
	gt.Equal(t, types.DefectKey("OPS-1"), desc.Records[2].Key)
}

func TestAgingBugsLimit(t *testing.T) {
	q := newQuerier(t)

	var records []*model.DefectRecord
	for i := 0; i < 35; i++ {
		records = append(records, openRec(fmt.Sprintf("OPS-%d", i), types.PriorityHigh, i))
	}

	t.Run("DefaultCap", func(t *testing.T) {
		result := q.AgingBugs(records, types.SortByAge, types.SortDesc, 0)
		gt.Equal(t, aging.DisplayLimit, len(result.Records))
		gt.Equal(t, 35, result.Total)
	})

	t.Run("SmallerLimit", func(t *testing.T) {
		result := q.AgingBugs(records, types.SortByAge, types.SortDesc, 5)
		gt.Equal(t, 5, len(result.Records))
		gt.Equal(t, 35, result.Total)
	})

	t.Run("OversizedLimitClamped", func(t *testing.T) {
		result := q.AgingBugs(records, types.SortByAge, types.SortDesc, 100)
		gt.Equal(t, aging.DisplayLimit, len(result.Records))
		gt.Equal(t, 35, result.Total)
	})
}

func TestAgingBugsEmpty(t *testing.T) {
	q := newQuerier(t)
	result := q.AgingBugs(nil, types.SortByAge, types.SortDesc, 0)
	gt.Equal(t, 0, result.Total)
	gt.Equal(t, 0, len(result.Records))
}

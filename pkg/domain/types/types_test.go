package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

func TestParsePriority(t *testing.T) {
	t.Run("CanonicalSpellings", func(t *testing.T) {
		cases := map[string]types.Priority{
			"very_high": types.PriorityVeryHigh,
			"high":      types.PriorityHigh,
			"medium":    types.PriorityMedium,
			"low":       types.PriorityLow,
		}
		for in, want := range cases {
			got, err := types.ParsePriority(in)
			gt.NoError(t, err)
			gt.Equal(t, want, got)
		}
	})

	t.Run("TrackerSpellings", func(t *testing.T) {
		cases := map[string]types.Priority{
			"Very High": types.PriorityVeryHigh,
			"VERYHIGH":  types.PriorityVeryHigh,
			"Blocker":   types.PriorityVeryHigh,
			"P1":        types.PriorityVeryHigh,
			"Critical":  types.PriorityHigh,
			"p2":        types.PriorityHigh,
			"Normal":    types.PriorityMedium,
			"Minor":     types.PriorityLow,
			" low ":     types.PriorityLow,
		}
		for in, want := range cases {
			got, err := types.ParsePriority(in)
			gt.NoError(t, err)
			gt.Equal(t, want, got)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := types.ParsePriority("urgent-ish")
		gt.Error(t, err)

		_, err = types.ParsePriority("")
		gt.Error(t, err)
	})
}

func TestPriorityRank(t *testing.T) {
	gt.Equal(t, 0, types.PriorityVeryHigh.Rank())
	gt.Equal(t, 1, types.PriorityHigh.Rank())
	gt.Equal(t, 2, types.PriorityMedium.Rank())
	gt.Equal(t, 3, types.PriorityLow.Rank())
	gt.Equal(t, 4, types.Priority("bogus").Rank())
}

func TestFamilyOfStatus(t *testing.T) {
	t.Run("OpenFamily", func(t *testing.T) {
		for _, s := range []string{"Open", "open", "Author Action", "In Progress", "Reopened", "  open  "} {
			gt.Equal(t, types.FamilyOpen, types.FamilyOfStatus(s))
		}
	})

	t.Run("ResolvedFamily", func(t *testing.T) {
		for _, s := range []string{"Resolved", "Closed", "done", "DONE"} {
			gt.Equal(t, types.FamilyResolved, types.FamilyOfStatus(s))
		}
	})

	t.Run("UnknownFamily", func(t *testing.T) {
		for _, s := range []string{"", "Waiting", "Triaged", "wontfix"} {
			gt.Equal(t, types.FamilyUnknown, types.FamilyOfStatus(s))
		}
	})
}

func TestParseSortKey(t *testing.T) {
	key, err := types.ParseSortKey("")
	gt.NoError(t, err)
	gt.Equal(t, types.SortByAge, key)

	key, err = types.ParseSortKey("priority")
	gt.NoError(t, err)
	gt.Equal(t, types.SortByPriority, key)

	_, err = types.ParseSortKey("severity")
	gt.Error(t, err)
}

func TestParseSortOrder(t *testing.T) {
	order, err := types.ParseSortOrder("")
	gt.NoError(t, err)
	gt.Equal(t, types.SortDesc, order)

	order, err = types.ParseSortOrder("asc")
	gt.NoError(t, err)
	gt.Equal(t, types.SortAsc, order)

	_, err = types.ParseSortOrder("descending")
	gt.Error(t, err)
}

func TestNewUploadID(t *testing.T) {
	a := types.NewUploadID()
	b := types.NewUploadID()
	gt.True(t, a != "")
	gt.True(t, a != b)
}

package types

import "github.com/m-mizutani/goerr/v2"

// SortKey selects the column for the aging-bugs view ordering
type SortKey string

const (
	SortByAge      SortKey = "age"
	SortByKey      SortKey = "key"
	SortBySummary  SortKey = "summary"
	SortByPriority SortKey = "priority"
	SortByCategory SortKey = "category"
	SortByStatus   SortKey = "status"
	SortByAssignee SortKey = "assignee"
)

// String returns the string representation
func (k SortKey) String() string {
	return string(k)
}

// SortOrder is the ordering direction of the aging-bugs view
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// String returns the string representation
func (o SortOrder) String() string {
	return string(o)
}

// ParseSortKey validates a sort key string, defaulting to age ordering
// when empty
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "":
		return SortByAge, nil
	case SortByAge, SortByKey, SortBySummary, SortByPriority, SortByCategory, SortByStatus, SortByAssignee:
		return SortKey(s), nil
	default:
		return "", goerr.New("unknown sort key", goerr.V("sortBy", s))
	}
}

// ParseSortOrder validates a sort order string, defaulting to descending
// when empty
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "":
		return SortDesc, nil
	case SortAsc, SortDesc:
		return SortOrder(s), nil
	default:
		return "", goerr.New("unknown sort order", goerr.V("sortOrder", s))
	}
}

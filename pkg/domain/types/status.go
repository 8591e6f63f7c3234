package types

import "strings"

// StatusFamily is the lifecycle state of a defect, derived from the
// tracker's free-text status string. The two families are fixed and
// mutually exclusive; anything outside both is FamilyUnknown and is
// excluded from open counts rather than assumed resolved.
type StatusFamily string

const (
	FamilyOpen     StatusFamily = "open"
	FamilyResolved StatusFamily = "resolved"
	FamilyUnknown  StatusFamily = "unknown"
)

// String returns the string representation
func (f StatusFamily) String() string {
	return string(f)
}

var openStatuses = map[string]bool{
	"open":          true,
	"author action": true,
	"authoraction":  true,
	"in progress":   true,
	"inprogress":    true,
	"reopened":      true,
}

var resolvedStatuses = map[string]bool{
	"resolved": true,
	"closed":   true,
	"done":     true,
}

// FamilyOfStatus maps a tracker status string into its status family.
// Matching is case-insensitive and ignores surrounding whitespace.
func FamilyOfStatus(status string) StatusFamily {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case openStatuses[s]:
		return FamilyOpen
	case resolvedStatuses[s]:
		return FamilyResolved
	default:
		return FamilyUnknown
	}
}

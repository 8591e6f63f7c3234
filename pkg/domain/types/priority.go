package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Priority represents a defect priority tier
type Priority string

const (
	PriorityVeryHigh Priority = "very_high"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Priorities lists all tiers from most to least severe
var Priorities = []Priority{PriorityVeryHigh, PriorityHigh, PriorityMedium, PriorityLow}

// String returns the string representation
func (p Priority) String() string {
	return string(p)
}

// IsValid checks if the priority is one of the four tiers
func (p Priority) IsValid() bool {
	switch p {
	case PriorityVeryHigh, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank returns the severity order of the priority, 0 being the most
// severe. Unknown priorities rank after all known tiers.
func (p Priority) Rank() int {
	switch p {
	case PriorityVeryHigh:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// ParsePriority maps a tracker priority string to a Priority tier.
// Matching is case-insensitive and tolerates the common tracker
// spellings ("Very High", "VeryHigh", "P1", ...).
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "very high", "very_high", "veryhigh", "highest", "blocker", "p1":
		return PriorityVeryHigh, nil
	case "high", "critical", "p2":
		return PriorityHigh, nil
	case "medium", "normal", "p3":
		return PriorityMedium, nil
	case "low", "minor", "lowest", "p4":
		return PriorityLow, nil
	default:
		return "", goerr.New("unknown priority", goerr.V("priority", s))
	}
}

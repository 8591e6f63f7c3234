package classifier

import (
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// Classifier assigns a component category to a defect record by
// ordered substring matching over its free-text fields. The rule list
// is immutable after construction; classification is a pure function
// of labels and summary, case-insensitive, first match wins.
type Classifier struct {
	rules *model.RuleSet
}

// New creates a Classifier from a rule set. A nil rule set selects the
// canonical default list.
func New(rules *model.RuleSet) (*Classifier, error) {
	if rules == nil {
		rules = model.DefaultRules()
	}
	if err := rules.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid classification rules")
	}
	return &Classifier{rules: rules}, nil
}

// Classify returns the category of a record. Unmatched records fall
// back to the fixed "other" category.
func (c *Classifier) Classify(rec *model.DefectRecord) types.CategoryLabel {
	parts := make([]string, 0, len(rec.Labels)+1)
	parts = append(parts, rec.Labels...)
	parts = append(parts, rec.Summary)
	text := strings.ToLower(strings.Join(parts, " "))

	for _, rule := range c.rules.Rules {
		for _, pattern := range rule.Patterns {
			if strings.Contains(text, pattern) {
				return rule.Category
			}
		}
	}
	return types.CategoryOther
}

// Categories returns the distinct categories observed in a record set,
// sorted alphabetically for deterministic iteration
func (c *Classifier) Categories(records []*model.DefectRecord) []types.CategoryLabel {
	seen := make(map[types.CategoryLabel]bool)
	for _, rec := range records {
		seen[c.Classify(rec)] = true
	}

	labels := make([]types.CategoryLabel, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Filter returns the records whose category equals the given label
func (c *Classifier) Filter(records []*model.DefectRecord, label types.CategoryLabel) []*model.DefectRecord {
	if label == "" || label == types.CategoryAll {
		return records
	}
	var out []*model.DefectRecord
	for _, rec := range records {
		if c.Classify(rec) == label {
			out = append(out, rec)
		}
	}
	return out
}

package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// Rule maps substring patterns to a component category. A record
// matches the rule when any pattern occurs in its lowercased
// labels-plus-summary text.
type Rule struct {
	Category types.CategoryLabel `yaml:"category"`
	Patterns []string            `yaml:"patterns"`
}

// RuleSet is the ordered classification rule list. Order is a
// contract: rules are evaluated top to bottom and the first match
// wins, so precedence between overlapping patterns is exactly the
// list order.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Validate checks the rule list and normalizes patterns to lowercase
func (rs *RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return goerr.New("rule set must contain at least one rule")
	}
	for i, rule := range rs.Rules {
		if rule.Category == "" {
			return goerr.New("rule category is required", goerr.V("index", i))
		}
		if rule.Category == types.CategoryAll {
			return goerr.New("rule category must not be the aggregate label",
				goerr.V("index", i), goerr.V("category", rule.Category))
		}
		if len(rule.Patterns) == 0 {
			return goerr.New("rule must have at least one pattern",
				goerr.V("index", i), goerr.V("category", rule.Category))
		}
		for j, p := range rule.Patterns {
			if strings.TrimSpace(p) == "" {
				return goerr.New("rule pattern must not be blank",
					goerr.V("index", i), goerr.V("pattern", j))
			}
			rs.Rules[i].Patterns[j] = strings.ToLower(p)
		}
	}
	return nil
}

// DefaultRules returns the canonical ordered rule list. The ordering
// is deliberate: more specific platform components come before the
// broad delivery-pipeline patterns that would otherwise swallow them.
func DefaultRules() *RuleSet {
	return &RuleSet{Rules: []Rule{
		{Category: "service-broker", Patterns: []string{"service-broker", "service broker", "servicebroker", "broker"}},
		{Category: "provisioning", Patterns: []string{"provision", "bootstrap", "onboarding"}},
		{Category: "deployment", Patterns: []string{"deployment", "deploy", "rollout", "release pipeline"}},
		{Category: "upgrade", Patterns: []string{"upgrade", "migration", "version bump"}},
		{Category: "networking", Patterns: []string{"network", "dns", "ingress", "load balancer", "certificate"}},
		{Category: "storage", Patterns: []string{"storage", "volume", "disk", "backup"}},
		{Category: "auth", Patterns: []string{"auth", "login", "oauth", "permission", "rbac"}},
		{Category: "monitoring", Patterns: []string{"monitoring", "alert", "metric", "logging"}},
		{Category: "database", Patterns: []string{"database", "postgres", "mysql", "sql"}},
		{Category: "api", Patterns: []string{"api", "endpoint", "rest"}},
		{Category: "ui", Patterns: []string{"ui", "dashboard", "frontend", "portal"}},
	}}
}

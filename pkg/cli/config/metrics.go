package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Metrics holds classification and health-evaluation configuration
type Metrics struct {
	RulesPath      string
	ThresholdsPath string
	WeekEndingDay  string
}

// Flags returns CLI flags for Metrics configuration
func (m *Metrics) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "rules",
			Usage:       "Path to component classification rules YAML (built-in rules if omitted)",
			Category:    "Metrics",
			Sources:     cli.EnvVars("DEFECTPULSE_RULES"),
			Destination: &m.RulesPath,
		},
		&cli.StringFlag{
			Name:        "thresholds",
			Usage:       "Path to KPI threshold YAML (built-in thresholds if omitted)",
			Category:    "Metrics",
			Sources:     cli.EnvVars("DEFECTPULSE_THRESHOLDS"),
			Destination: &m.ThresholdsPath,
		},
		&cli.StringFlag{
			Name:        "week-ending-day",
			Usage:       "Weekday a reporting week ends on",
			Category:    "Metrics",
			Value:       "saturday",
			Sources:     cli.EnvVars("DEFECTPULSE_WEEK_ENDING_DAY"),
			Destination: &m.WeekEndingDay,
		},
	}
}

// Rules loads the classification rule set, falling back to the
// built-in list when no path is configured
func (m *Metrics) Rules() (*model.RuleSet, error) {
	if m.RulesPath == "" {
		return model.DefaultRules(), nil
	}
	return LoadRulesFromFile(m.RulesPath)
}

// Thresholds loads the KPI threshold table, falling back to the
// built-in table when no path is configured
func (m *Metrics) Thresholds() (model.ThresholdConfig, error) {
	if m.ThresholdsPath == "" {
		return model.DefaultThresholds(), nil
	}
	return LoadThresholdsFromFile(m.ThresholdsPath)
}

// Weekday parses the configured week boundary day
func (m *Metrics) Weekday() (time.Weekday, error) {
	switch strings.ToLower(m.WeekEndingDay) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday", "":
		return time.Saturday, nil
	default:
		return 0, goerr.New("invalid week ending day", goerr.V("day", m.WeekEndingDay))
	}
}

// LogValue returns structured log value
func (m Metrics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("rules", m.RulesPath),
		slog.String("thresholds", m.ThresholdsPath),
		slog.String("week_ending_day", m.WeekEndingDay),
	)
}

// LoadRulesFromFile loads classification rules from a YAML file
func LoadRulesFromFile(path string) (*model.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "rules file not found", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read rules file", goerr.V("path", path))
	}

	var rules model.RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, goerr.Wrap(err, "failed to parse rules YAML", goerr.V("path", path))
	}

	if err := rules.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid rules configuration", goerr.V("path", path))
	}

	return &rules, nil
}

// LoadThresholdsFromFile loads the KPI threshold table from a YAML file
func LoadThresholdsFromFile(path string) (model.ThresholdConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "thresholds file not found", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read thresholds file", goerr.V("path", path))
	}

	var thresholds model.ThresholdConfig
	if err := yaml.Unmarshal(data, &thresholds); err != nil {
		return nil, goerr.Wrap(err, "failed to parse thresholds YAML", goerr.V("path", path))
	}

	if err := thresholds.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid thresholds configuration", goerr.V("path", path))
	}

	return thresholds, nil
}

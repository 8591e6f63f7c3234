package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// Direction states which way a KPI value is good
type Direction string

const (
	LowerIsBetter  Direction = "lower_is_better"
	HigherIsBetter Direction = "higher_is_better"
)

// IsValid checks if the direction is one of the two known values
func (d Direction) IsValid() bool {
	return d == LowerIsBetter || d == HigherIsBetter
}

// Threshold holds the health boundaries for one KPI. The green
// boundary is always the stricter one relative to the direction.
type Threshold struct {
	Direction Direction `yaml:"direction"`
	Green     float64   `yaml:"green"`
	Yellow    float64   `yaml:"yellow"`
}

// Validate checks the boundary ordering against the direction
func (t Threshold) Validate() error {
	if !t.Direction.IsValid() {
		return goerr.New("invalid threshold direction", goerr.V("direction", t.Direction))
	}
	switch t.Direction {
	case LowerIsBetter:
		if t.Green > t.Yellow {
			return goerr.New("green boundary must not exceed yellow for lower_is_better",
				goerr.V("green", t.Green), goerr.V("yellow", t.Yellow))
		}
	case HigherIsBetter:
		if t.Green < t.Yellow {
			return goerr.New("green boundary must not be below yellow for higher_is_better",
				goerr.V("green", t.Green), goerr.V("yellow", t.Yellow))
		}
	}
	return nil
}

// ThresholdConfig maps KPI keys to their health boundaries. KPIs
// absent from the table are informational-only and always evaluate to
// neutral. The table is immutable configuration, not user data.
type ThresholdConfig map[types.KPIKey]Threshold

// Validate checks every entry of the table
func (c ThresholdConfig) Validate() error {
	for key, t := range c {
		if err := t.Validate(); err != nil {
			return goerr.Wrap(err, "invalid threshold entry", goerr.V("kpi", key))
		}
	}
	return nil
}

// DefaultThresholds returns the built-in threshold table. Deployments
// may override it with a YAML file; the distribution KPIs and the
// automated ratio stay informational on purpose.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		types.KPIBugInflowRate:      {Direction: LowerIsBetter, Green: 6, Yellow: 8},
		types.KPITTFRUnder24hPct:    {Direction: HigherIsBetter, Green: 80, Yellow: 60},
		types.KPIMTTRVeryHighHours:  {Direction: LowerIsBetter, Green: 24, Yellow: 72},
		types.KPIMTTRHighHours:      {Direction: LowerIsBetter, Green: 48, Yellow: 120},
		types.KPISLAVeryHighPct:     {Direction: HigherIsBetter, Green: 80, Yellow: 60},
		types.KPISLAHighPct:         {Direction: HigherIsBetter, Green: 85, Yellow: 70},
		types.KPIOpenVeryHighCount:  {Direction: LowerIsBetter, Green: 2, Yellow: 5},
		types.KPIOpenHighCount:      {Direction: LowerIsBetter, Green: 5, Yellow: 10},
		types.KPIBacklogHealthScore: {Direction: HigherIsBetter, Green: 80, Yellow: 50},
	}
}

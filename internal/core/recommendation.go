package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ScenarioBalanced     Scenario = "balanced"
	ScenarioConservative Scenario = "conservative"
	ScenarioRelaxed      Scenario = "relaxed"
)

type (
	// Scenario is one of the three alternative spending plans.
	Scenario string

	// CategoryRecommendation carries a category's actual spending next to
	// the recommended amount under one scenario. Target starts equal to
	// the recommendation; the UI may move it later.
	CategoryRecommendation struct {
		Category       string          `json:"category"`
		Spending       decimal.Decimal `json:"spending"`
		Recommendation decimal.Decimal `json:"recommendation"`
		Target         decimal.Decimal `json:"target"`
	}

	// GroupRecommendation aggregates a category group. Spending and
	// Recommendation always equal the sum of the categories underneath.
	GroupRecommendation struct {
		Group          string                   `json:"group"`
		Spending       decimal.Decimal          `json:"spending"`
		Recommendation decimal.Decimal          `json:"recommendation"`
		Target         decimal.Decimal          `json:"target"`
		Categories     []CategoryRecommendation `json:"categories"`
	}

	// SpendingPlan is one scenario's recommendations keyed by group name.
	SpendingPlan map[string]*GroupRecommendation

	// ScenarioRatios records what a scenario actually applied: the
	// discretionary adjustment (positive = cut, negative = increase) and
	// the goal funding scale (0 = unfunded, 1 = unchanged, up to 1.5).
	ScenarioRatios struct {
		Spending decimal.Decimal `json:"spending"`
		Funding  decimal.Decimal `json:"funding"`
	}

	// Bundle is the full recommendation output: per-scenario spending
	// plans and the parallel per-scenario goal schedules keyed by goal id.
	Bundle struct {
		Spending     map[Scenario]SpendingPlan                   `json:"spending"`
		Goals        map[Scenario]map[string][]MonthlyAllocation `json:"goals"`
		Ratios       map[Scenario]ScenarioRatios                 `json:"ratios"`
		SurvivalMode bool                                        `json:"survivalMode"`
		ComputedAt   time.Time                                   `json:"computedAt"`
	}
)

// Scenarios lists the three scenarios in presentation order.
func Scenarios() []Scenario {
	return []Scenario{ScenarioBalanced, ScenarioConservative, ScenarioRelaxed}
}

func (s Scenario) Valid() bool {
	switch s {
	case ScenarioBalanced, ScenarioConservative, ScenarioRelaxed:
		return true
	default:
		return false
	}
}

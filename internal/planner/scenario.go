// Package planner provides the budget recommendation engine.
//
// This file implements the Strategy Pattern for scenario ratio
// computation. Each scenario (balanced, conservative, relaxed) has its
// own strategy that derives the discretionary spending adjustment and
// the goal funding scale from a household snapshot.

package planner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"svend/internal/core"
)

var (
	maxReduction    = decimal.NewFromFloat(0.5)  // discretionary cuts never exceed 50%
	baselineCut     = decimal.NewFromFloat(0.2)  // conservative always starts here
	surplusIncrease = decimal.NewFromFloat(-0.2) // relaxed spends 20% more on surplus
	maxFundingBoost = decimal.NewFromFloat(1.5)  // conservative accelerates goals up to 1.5x
)

// Snapshot is the aggregate view of one budget cycle the scenario
// strategies work from: monthly income, the essential and discretionary
// spending totals, and the combined base monthly goal contribution.
type Snapshot struct {
	Income           decimal.Decimal
	Essential        decimal.Decimal
	Discretionary    decimal.Decimal
	GoalContribution decimal.Decimal
}

// Available is what remains of income once essentials are paid.
func (s Snapshot) Available() decimal.Decimal {
	return s.Income.Sub(s.Essential)
}

// NeedsReduction reports whether discretionary spending plus desired goal
// funding exceeds what is left after essentials.
func (s Snapshot) NeedsReduction() bool {
	return s.Available().LessThan(s.Discretionary.Add(s.GoalContribution))
}

// shortfallRatio is the uniform discretionary cut that closes the gap
// between available income and discretionary-plus-goal spending, capped
// at maxReduction. A zero denominator returns the cap outright.
func (s Snapshot) shortfallRatio() decimal.Decimal {
	denominator := s.Discretionary.Add(s.GoalContribution)
	if denominator.LessThanOrEqual(decimal.Zero) {
		return maxReduction
	}
	shortfall := denominator.Sub(s.Available())
	ratio := shortfall.Div(denominator)
	if ratio.GreaterThan(maxReduction) {
		return maxReduction
	}
	return ratio
}

// surplusAfter is the income left for goals once essentials and the
// ratio-adjusted discretionary spending are paid.
func (s Snapshot) surplusAfter(spendingRatio decimal.Decimal) decimal.Decimal {
	adjusted := core.Round2(s.Discretionary.Mul(decimal.NewFromInt(1).Sub(spendingRatio)))
	return s.Available().Sub(adjusted)
}

// proportionalFunding scales goal contributions to the surplus: 1 when
// fully covered, a fraction when short, 0 when nothing is left.
func (s Snapshot) proportionalFunding(surplus decimal.Decimal) decimal.Decimal {
	if s.GoalContribution.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	if surplus.GreaterThanOrEqual(s.GoalContribution) {
		return decimal.NewFromInt(1)
	}
	if surplus.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return surplus.Div(s.GoalContribution)
}

// ScenarioStrategy derives one scenario's ratios from a snapshot.
type ScenarioStrategy interface {
	// Ratios returns the discretionary spending adjustment (positive =
	// cut, negative = increase) and the goal funding scale.
	Ratios(s Snapshot) core.ScenarioRatios
}

// BalancedStrategy cuts only when forced and funds goals fully when the
// surplus allows, proportionally otherwise.
type BalancedStrategy struct{}

func (BalancedStrategy) Ratios(s Snapshot) core.ScenarioRatios {
	spending := decimal.Zero
	if s.NeedsReduction() {
		spending = s.shortfallRatio()
	}
	return core.ScenarioRatios{
		Spending: spending,
		Funding:  s.proportionalFunding(s.surplusAfter(spending)),
	}
}

// ConservativeStrategy always cuts 20%, escalates the cut up to 50% when
// goals would stay unfunded, and turns leftover surplus into accelerated
// goal funding up to 1.5x.
type ConservativeStrategy struct{}

func (ConservativeStrategy) Ratios(s Snapshot) core.ScenarioRatios {
	spending := baselineCut
	surplus := s.surplusAfter(spending)
	if surplus.LessThan(s.GoalContribution) {
		spending = escalatedCut(s, surplus)
		surplus = s.surplusAfter(spending)
	}

	funding := s.proportionalFunding(surplus)
	if s.GoalContribution.GreaterThan(decimal.Zero) && surplus.GreaterThanOrEqual(s.GoalContribution) {
		boost := surplus.Div(s.GoalContribution)
		if boost.GreaterThan(maxFundingBoost) {
			boost = maxFundingBoost
		}
		funding = boost
	}
	return core.ScenarioRatios{Spending: spending, Funding: funding}
}

// escalatedCut widens the 20% baseline by the shortfall left unfunded
// after it, using the same shortfall formula, still capped at 50%.
func escalatedCut(s Snapshot, surplusAfterBaseline decimal.Decimal) decimal.Decimal {
	denominator := s.Discretionary.Add(s.GoalContribution)
	if denominator.LessThanOrEqual(decimal.Zero) {
		return maxReduction
	}
	unfunded := s.GoalContribution.Sub(surplusAfterBaseline)
	ratio := baselineCut.Add(unfunded.Div(denominator))
	if ratio.GreaterThan(maxReduction) {
		return maxReduction
	}
	return ratio
}

// RelaxedStrategy increases discretionary spending 20% on surplus but
// mirrors the balanced cut when a reduction is forced.
type RelaxedStrategy struct{}

func (RelaxedStrategy) Ratios(s Snapshot) core.ScenarioRatios {
	spending := surplusIncrease
	if s.NeedsReduction() {
		spending = s.shortfallRatio()
	}
	surplus := s.surplusAfter(spending)
	return core.ScenarioRatios{
		Spending: spending,
		Funding:  s.proportionalFunding(surplus),
	}
}

// survivalRatios is the single plan used when income does not cover
// essential spending: a uniform discretionary cut capped at 50% and zero
// goal funding, identical across all three scenarios.
func survivalRatios(s Snapshot) core.ScenarioRatios {
	spending := maxReduction
	if s.Discretionary.GreaterThan(decimal.Zero) {
		ratio := s.Essential.Sub(s.Income).Div(s.Discretionary)
		if ratio.LessThan(maxReduction) {
			spending = ratio
		}
	}
	return core.ScenarioRatios{Spending: spending, Funding: decimal.Zero}
}

// scenarioStrategies maps scenarios to their strategies. The registry
// keeps scenario dispatch in one place and open for extension.
var scenarioStrategies = map[core.Scenario]ScenarioStrategy{
	core.ScenarioBalanced:     BalancedStrategy{},
	core.ScenarioConservative: ConservativeStrategy{},
	core.ScenarioRelaxed:      RelaxedStrategy{},
}

// GetScenarioStrategy returns the strategy for a scenario. Returns an
// error for unknown scenarios.
func GetScenarioStrategy(scenario core.Scenario) (ScenarioStrategy, error) {
	strategy, ok := scenarioStrategies[scenario]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", scenario)
	}
	return strategy, nil
}

// RegisterScenarioStrategy registers a custom strategy for a scenario.
func RegisterScenarioStrategy(scenario core.Scenario, strategy ScenarioStrategy) {
	scenarioStrategies[scenario] = strategy
}

// Package planner implements the budget recommendation engine: the
// spending allocator that derives three alternative monthly plans
// (balanced, conservative, relaxed) from categorized transactions, and
// the goal scheduler that turns goal targets into month-by-month
// contribution schedules rescaled under each plan.
//
// The engine is pure: it performs no I/O, never mutates its inputs, and
// returns freshly allocated results on every call. Malformed goal data
// degrades to empty or single-allocation schedules instead of errors.
package planner

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"svend/internal/core"
	"svend/internal/log"
)

// DiscretionaryCategories is the fixed set of category names eligible for
// reduction or increase. Every other non-income category is essential.
// The set is a static allow-list, not taxonomy data: Groceries stays
// essential even though it sits next to Dining Out in the taxonomy.
var DiscretionaryCategories = map[string]struct{}{
	"Shopping":                  {},
	"Clothing":                  {},
	"Electronics":               {},
	"Dining Out":                {},
	"Events & Amusement":        {},
	"Travel & Vacation":         {},
	"Hobbies":                   {},
	"Streaming & Subscriptions": {},
}

// IsDiscretionary reports whether a category is on the discretionary
// allow-list.
func IsDiscretionary(category string) bool {
	_, ok := DiscretionaryCategories[category]
	return ok
}

// Planner computes recommendation bundles. The zero value is not usable;
// construct with New.
type Planner struct {
	logger *log.Logger
}

// New creates a Planner. A nil logger falls back to a component-scoped
// default.
func New(logger *log.Logger) *Planner {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentPlanner})
	}
	return &Planner{logger: logger}
}

// Compute derives the full recommendation bundle for one household
// snapshot: three spending plans plus the parallel goal schedules. now
// anchors schedule dates and month counts; callers pass time.Now()
// outside tests.
func (p *Planner) Compute(transactions []core.Transaction, goals []core.Goal, taxonomy core.Taxonomy, now time.Time) *core.Bundle {
	totals := categoryTotals(transactions)

	var income, essential, discretionary decimal.Decimal
	for category, total := range totals {
		switch {
		case taxonomy.IsIncome(category):
			income = income.Add(total)
		case IsDiscretionary(category):
			discretionary = discretionary.Add(total)
		default:
			essential = essential.Add(total)
		}
	}

	snap := Snapshot{
		Income:           core.Round2(income.Abs()),
		Essential:        core.Round2(essential),
		Discretionary:    core.Round2(discretionary),
		GoalContribution: core.Round2(p.totalContribution(goals, now)),
	}

	survival := snap.Income.LessThan(snap.Essential)
	ratios := make(map[core.Scenario]core.ScenarioRatios, 3)
	if survival {
		p.logger.Warn("income below essential spending, survival mode",
			log.FieldIncome, snap.Income,
			log.FieldEssentialTotal, snap.Essential)
		r := survivalRatios(snap)
		for _, s := range core.Scenarios() {
			ratios[s] = r
		}
	} else {
		for _, s := range core.Scenarios() {
			strategy, err := GetScenarioStrategy(s)
			if err != nil {
				p.logger.Error("missing scenario strategy", log.FieldScenario, s, log.FieldError, err)
				continue
			}
			ratios[s] = strategy.Ratios(snap)
		}
	}

	bundle := &core.Bundle{
		Spending:     make(map[core.Scenario]core.SpendingPlan, 3),
		Goals:        make(map[core.Scenario]map[string][]core.MonthlyAllocation, 3),
		Ratios:       ratios,
		SurvivalMode: survival,
		ComputedAt:   now,
	}
	for _, s := range core.Scenarios() {
		r := ratios[s]
		bundle.Spending[s] = buildPlan(totals, taxonomy, r.Spending)
		bundle.Goals[s] = p.scheduleGoals(goals, r.Funding, now)
	}
	return bundle
}

// categoryTotals sums signed amounts per category. Summation is exact
// (arbitrary precision); each total is rounded to cents once complete.
func categoryTotals(transactions []core.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}
	for category, total := range totals {
		totals[category] = core.Round2(total)
	}
	return totals
}

// buildPlan applies one scenario's discretionary adjustment to every
// category and aggregates the results per group. Essential and income
// categories pass through unchanged. Group sums are rounded at every
// accumulation step so the group invariant holds to the cent.
func buildPlan(totals map[string]decimal.Decimal, taxonomy core.Taxonomy, ratio decimal.Decimal) core.SpendingPlan {
	categories := make([]string, 0, len(totals))
	for category := range totals {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	one := decimal.NewFromInt(1)
	plan := make(core.SpendingPlan)
	for _, category := range categories {
		spending := totals[category]
		recommendation := spending
		if IsDiscretionary(category) {
			recommendation = core.Round2(spending.Mul(one.Sub(ratio)))
		}

		groupName := taxonomy.GroupFor(category)
		group, ok := plan[groupName]
		if !ok {
			group = &core.GroupRecommendation{Group: groupName}
			plan[groupName] = group
		}
		group.Categories = append(group.Categories, core.CategoryRecommendation{
			Category:       category,
			Spending:       spending,
			Recommendation: recommendation,
			Target:         recommendation,
		})
		group.Spending = core.Round2(group.Spending.Add(spending))
		group.Recommendation = core.Round2(group.Recommendation.Add(recommendation))
	}
	for _, group := range plan {
		group.Target = group.Recommendation
	}
	return plan
}

// totalContribution sums the base monthly amount every goal asks for.
func (p *Planner) totalContribution(goals []core.Goal, now time.Time) decimal.Decimal {
	var total decimal.Decimal
	for _, goal := range goals {
		total = total.Add(p.monthlyContribution(goal, now))
	}
	return total
}

// monthlyContribution returns the goal's base monthly amount: the one
// fixed at creation when present, otherwise recomputed from the remaining
// balance and the months left to the target date.
func (p *Planner) monthlyContribution(goal core.Goal, now time.Time) decimal.Decimal {
	if goal.MonthlyAmount.GreaterThan(decimal.Zero) {
		return goal.MonthlyAmount
	}
	remaining := goal.Remaining()
	if remaining.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	months := p.scheduleMonths(goal, now)
	return core.Round2(remaining.Div(decimal.NewFromInt(int64(months))))
}

// scheduleGoals rescales every goal's schedule under one scenario's
// funding ratio, keyed by goal id.
func (p *Planner) scheduleGoals(goals []core.Goal, funding decimal.Decimal, now time.Time) map[string][]core.MonthlyAllocation {
	schedules := make(map[string][]core.MonthlyAllocation, len(goals))
	for _, goal := range goals {
		schedules[goal.ID] = p.RescaleSchedule(goal, p.monthlyContribution(goal, now), funding, now)
	}
	return schedules
}
